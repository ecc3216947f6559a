// Package device is a headless stand-in for the render and audio contexts. It
// hands out opaque handles for uploaded resources and enforces memory budgets
// the way a real video or audio device would.
package device

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pixil98/go-orbis/internal/loader"
	"github.com/pixil98/go-orbis/internal/resource"
)

var (
	ErrOutOfMemory   = errors.New("out of device memory")
	ErrUnknownHandle = errors.New("unknown handle")
)

// Pool is the memory a handle is charged against.
type Pool int

const (
	PoolVideo Pool = iota
	PoolAudio
)

func (p Pool) String() string {
	if p == PoolAudio {
		return "audio"
	}
	return "video"
}

// PoolFor returns the memory pool a resource kind lives in.
func PoolFor(kind resource.Kind) Pool {
	switch kind {
	case resource.KindSound, resource.KindMapAudio:
		return PoolAudio
	default:
		return PoolVideo
	}
}

// Handle is what the device returns for an upload.
type Handle struct {
	ID    uuid.UUID
	Kind  resource.Kind
	Bytes int
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s:%s", h.Kind, h.ID)
}

// Device must only be used from the goroutine that owns the render context.
type Device struct {
	limits [2]int
	used   [2]int
	live   map[uuid.UUID]*Handle
	counts map[resource.Kind]int
}

type DeviceOpt func(*Device)

// WithMemoryLimit caps the bytes resident in pool. Zero means unlimited.
func WithMemoryLimit(pool Pool, bytes int) DeviceOpt {
	return func(d *Device) {
		d.limits[pool] = bytes
	}
}

func New(opts ...DeviceOpt) *Device {
	d := &Device{
		live:   make(map[uuid.UUID]*Handle),
		counts: make(map[resource.Kind]int),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Upload registers a preloaded ticket with the device.
func (d *Device) Upload(t loader.Ticket) (resource.Handle, error) {
	var (
		size int
		err  error
	)
	switch t.Kind {
	case resource.KindTexture, resource.KindMapVisual:
		size, err = d.uploadImage(t.Payload)
	case resource.KindModel:
		size, err = d.uploadMesh(t.Payload)
	case resource.KindSound, resource.KindMapAudio:
		size, err = d.uploadSamples(t.Payload)
	case resource.KindFragPool:
		size, err = d.uploadFragPool(t.Payload)
	default:
		return nil, fmt.Errorf("unsupported resource kind %s", t.Kind)
	}
	if err != nil {
		return nil, err
	}

	pool := PoolFor(t.Kind)
	if limit := d.limits[pool]; limit > 0 && d.used[pool]+size > limit {
		return nil, fmt.Errorf("%s pool needs %d bytes with %d of %d used: %w", pool, size, d.used[pool], limit, ErrOutOfMemory)
	}

	h := &Handle{ID: uuid.New(), Kind: t.Kind, Bytes: size}
	d.live[h.ID] = h
	d.used[pool] += size
	d.counts[t.Kind]++

	return h, nil
}

// Free releases a handle previously returned by Upload.
func (d *Device) Free(kind resource.Kind, rh resource.Handle) error {
	h, ok := rh.(*Handle)
	if !ok {
		return fmt.Errorf("freeing %s: handle of type %T: %w", kind, rh, ErrUnknownHandle)
	}
	if _, ok := d.live[h.ID]; !ok {
		return fmt.Errorf("freeing %s: %w", h, ErrUnknownHandle)
	}
	if h.Kind != kind {
		return fmt.Errorf("freeing %s as %s", h, kind)
	}

	delete(d.live, h.ID)
	d.used[PoolFor(kind)] -= h.Bytes
	d.counts[kind]--

	slog.Debug("resource freed", "kind", kind, "handle", h.ID, "bytes", h.Bytes)
	return nil
}

// Live returns how many handles of kind are resident.
func (d *Device) Live(kind resource.Kind) int {
	return d.counts[kind]
}

// Used returns the bytes resident in pool.
func (d *Device) Used(pool Pool) int {
	return d.used[pool]
}

func (d *Device) uploadImage(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty image")
	}
	return len(data), nil
}

func (d *Device) uploadMesh(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty mesh")
	}
	return len(data), nil
}

// Samples are 16 bit. A payload with an odd length is rejected.
func (d *Device) uploadSamples(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("sound has no samples")
	}
	if len(data)%2 != 0 {
		return 0, fmt.Errorf("sound data of %d bytes is not 16 bit aligned", len(data))
	}
	return len(data), nil
}

func (d *Device) uploadFragPool(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty frag pool")
	}
	return len(data), nil
}
