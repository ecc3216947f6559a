// Package loader streams resources into the cache in two stages: a worker
// goroutine preloads file contents and the main goroutine uploads them to the
// device that owns the rendering and audio context.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pixil98/go-orbis/internal/resource"
)

const DefaultBatchSize = 16

var ErrStopped = errors.New("loader stopped")

// Cache is the part of the resource cache the loader drives.
type Cache interface {
	TakePending() []resource.Request
	Install(id int, h resource.Handle)
}

// Uploader turns a preloaded ticket into a device handle. It is only called
// from the main goroutine.
type Uploader interface {
	Upload(t Ticket) (resource.Handle, error)
}

type Loader struct {
	cache     Cache
	preloader Preloader
	uploader  Uploader
	batchSize int

	work    chan []resource.Request
	results chan []Ticket
	quit    chan struct{}
	alive   atomic.Bool
	wg      sync.WaitGroup

	// Owned by the main goroutine.
	queued  []resource.Request
	ready   []Ticket
	busy    bool
	uploads int
}

type LoaderOpt func(*Loader)

func WithBatchSize(n int) LoaderOpt {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

func New(cache Cache, pre Preloader, up Uploader, opts ...LoaderOpt) *Loader {
	l := &Loader{
		cache:     cache,
		preloader: pre,
		uploader:  up,
		batchSize: DefaultBatchSize,
		work:      make(chan []resource.Request, 1),
		results:   make(chan []Ticket),
		quit:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Start launches the preload worker.
func (l *Loader) Start() {
	if !l.alive.CompareAndSwap(false, true) {
		return
	}
	l.wg.Add(1)
	go l.run()
}

// Stop asks the worker to exit and waits for it. A ticket being preloaded is
// finished first.
func (l *Loader) Stop() {
	if l.alive.CompareAndSwap(true, false) {
		close(l.quit)
	}
	l.wg.Wait()
}

func (l *Loader) run() {
	defer l.wg.Done()

	for {
		var batch []resource.Request
		select {
		case batch = <-l.work:
		case <-l.quit:
			return
		}

		tickets := make([]Ticket, 0, len(batch))
		for _, req := range batch {
			if !l.alive.Load() {
				return
			}
			payload, err := l.preloader.Preload(req)
			tickets = append(tickets, Ticket{
				ID:      req.ID,
				Kind:    req.Kind,
				Path:    req.Path,
				Payload: payload,
				Err:     err,
			})
		}

		// Wait for the main goroutine to take the batch before starting on
		// the next one.
		select {
		case l.results <- tickets:
		case <-l.quit:
			return
		}
	}
}

// Update is the per-frame upload step. With isOneShot it uploads at most one
// ticket, otherwise every ticket that is ready. It returns how many handles
// were installed.
func (l *Loader) Update(isOneShot bool) (int, error) {
	if !l.alive.Load() {
		return 0, ErrStopped
	}

	l.queued = append(l.queued, l.cache.TakePending()...)

	if l.busy && len(l.ready) == 0 {
		select {
		case batch := <-l.results:
			l.ready = batch
			l.busy = false
		default:
		}
	}

	n := 0
	for len(l.ready) > 0 {
		t := l.ready[0]
		l.ready[0] = Ticket{}
		l.ready = l.ready[1:]

		err := l.upload(t)
		if err != nil {
			return n, err
		}
		n++

		if isOneShot {
			break
		}
	}

	l.dispatch()
	return n, nil
}

// Flush blocks until every queued resource has been uploaded. It is meant for
// level loads where a stall behind a loading screen is acceptable.
func (l *Loader) Flush(ctx context.Context) error {
	for {
		_, err := l.Update(false)
		if err != nil {
			return err
		}
		if l.Idle() {
			return nil
		}

		if l.busy && len(l.ready) == 0 {
			select {
			case batch := <-l.results:
				l.ready = batch
				l.busy = false
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Idle reports whether nothing is queued, preloading or waiting for upload.
func (l *Loader) Idle() bool {
	return !l.busy && len(l.ready) == 0 && len(l.queued) == 0
}

// Uploads returns the total number of handles installed.
func (l *Loader) Uploads() int {
	return l.uploads
}

func (l *Loader) dispatch() {
	if l.busy || len(l.queued) == 0 {
		return
	}

	n := min(len(l.queued), l.batchSize)
	batch := make([]resource.Request, n)
	copy(batch, l.queued[:n])
	l.queued = l.queued[n:]

	// The worker has handed back its previous batch, so the buffer is free.
	l.work <- batch
	l.busy = true
}

func (l *Loader) upload(t Ticket) error {
	if t.Err != nil {
		return &LoadError{ID: t.ID, Kind: t.Kind, Path: t.Path, Err: t.Err}
	}

	h, err := l.uploader.Upload(t)
	if err != nil {
		return &LoadError{ID: t.ID, Kind: t.Kind, Path: t.Path, Err: fmt.Errorf("uploading: %w", err)}
	}
	if h == nil {
		return &LoadError{ID: t.ID, Kind: t.Kind, Path: t.Path, Err: fmt.Errorf("uploading: device returned no handle")}
	}

	l.cache.Install(t.ID, h)
	l.uploads++
	slog.Debug("resource uploaded", "kind", t.Kind, "id", t.ID, "bytes", len(t.Payload))
	return nil
}
