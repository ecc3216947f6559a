package resource

import (
	"fmt"
)

// Handle is an opaque device handle. A nil Handle means the resource is not
// usable yet.
type Handle any

// Mark is the sweep generation of a slot.
type Mark int

const (
	// MarkFree: no handle, users == -1.
	MarkFree Mark = iota
	// MarkInUse: referenced since the last sweep of its kind.
	MarkInUse
	// MarkIdleOnce: seen with zero users by the last sweep; the next idle
	// sweep frees it.
	MarkIdleOnce
)

func (m Mark) String() string {
	switch m {
	case MarkFree:
		return "free"
	case MarkInUse:
		return "in_use"
	case MarkIdleOnce:
		return "idle_once"
	default:
		return fmt.Sprintf("mark(%d)", int(m))
	}
}

// Slot is one cache entry. Users is -1 while nothing is loaded and a
// reference count otherwise.
type Slot struct {
	ID     int
	Kind   Kind
	Path   string
	Handle Handle
	Users  int
	Mark   Mark
}

// Loading reports whether a preload for the slot has begun but no handle has
// been installed yet.
func (s *Slot) Loading() bool {
	return s.Users >= 0 && s.Handle == nil
}

// Catalog maps dense resource ids to their kind and backing file.
type Catalog interface {
	Len() int
	Lookup(id int) (Kind, string, bool)
}

// Releaser frees device handles evicted by a sweep.
type Releaser interface {
	Free(kind Kind, h Handle) error
}

// Request is a queued preload for a slot that just left the free state.
type Request struct {
	ID   int
	Kind Kind
	Path string
}

// Cache is the reference-counted resource table. It is confined to the main
// goroutine and does no locking of its own.
type Cache struct {
	slots    []Slot
	byKind   [kindCount][]int
	pending  []Request
	releaser Releaser
	schedule Schedule
}

type CacheOpt func(*Cache)

func WithSchedule(s Schedule) CacheOpt {
	return func(c *Cache) {
		c.schedule = s
	}
}

func NewCache(cat Catalog, rel Releaser, opts ...CacheOpt) (*Cache, error) {
	c := &Cache{
		slots:    make([]Slot, cat.Len()),
		releaser: rel,
		schedule: DefaultSchedule,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.schedule.Validate(TickPeriod); err != nil {
		return nil, fmt.Errorf("validating sweep schedule: %w", err)
	}

	for id := range c.slots {
		kind, path, ok := cat.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("catalog has no entry for id %d", id)
		}
		if !kind.Valid() {
			return nil, fmt.Errorf("catalog entry %d has invalid kind %d", id, int(kind))
		}
		c.slots[id] = Slot{ID: id, Kind: kind, Path: path, Users: -1, Mark: MarkFree}
		c.byKind[kind] = append(c.byKind[kind], id)
	}

	return c, nil
}

func (c *Cache) slot(id int) *Slot {
	if id < 0 || id >= len(c.slots) {
		panic(fmt.Sprintf("resource: unknown id %d", id))
	}
	return &c.slots[id]
}

// Request adds a user to id and returns its current handle, which is nil until
// the upload lands. The first request on a free slot queues its preload.
func (c *Cache) Request(id int) Handle {
	s := c.slot(id)

	if s.Users == -1 {
		s.Users = 0
		c.pending = append(c.pending, Request{ID: s.ID, Kind: s.Kind, Path: s.Path})
	}

	s.Users++
	s.Mark = MarkInUse
	return s.Handle
}

// Release drops one user from id. The handle stays resident until swept.
func (c *Cache) Release(id int) {
	s := c.slot(id)

	if s.Users <= 0 {
		panic(fmt.Sprintf("resource: release of %s %d with %d users", s.Kind, s.ID, s.Users))
	}

	s.Users--
}

// Get returns the handle for id if it is loaded.
func (c *Cache) Get(id int) (Handle, bool) {
	s := c.slot(id)
	if s.Handle == nil {
		return nil, false
	}
	return s.Handle, true
}

// Slot returns a copy of the slot for id.
func (c *Cache) Slot(id int) Slot {
	return *c.slot(id)
}

func (c *Cache) Len() int {
	return len(c.slots)
}

// TakePending hands the queued preload requests to the caller and empties the
// queue.
func (c *Cache) TakePending() []Request {
	p := c.pending
	c.pending = nil
	return p
}

// Install stores the uploaded handle for a slot whose load is in flight.
func (c *Cache) Install(id int, h Handle) {
	s := c.slot(id)

	if !s.Loading() {
		panic(fmt.Sprintf("resource: install into %s %d which is not loading (users %d)", s.Kind, s.ID, s.Users))
	}
	if h == nil {
		panic(fmt.Sprintf("resource: install of nil handle into %s %d", s.Kind, s.ID))
	}

	s.Handle = h
	s.Mark = MarkInUse
}

// Sweep runs one hysteresis pass over every slot of kind. A slot is freed only
// when two consecutive sweeps of its kind find it without users. It returns
// the number of slots freed.
func (c *Cache) Sweep(kind Kind) (int, error) {
	freed := 0

	for _, id := range c.byKind[kind] {
		s := &c.slots[id]

		if s.Users == -1 || s.Loading() {
			continue
		}

		if s.Users != 0 {
			s.Mark = MarkInUse
			continue
		}

		if s.Mark != MarkIdleOnce {
			s.Mark = MarkIdleOnce
			continue
		}

		if c.releaser != nil {
			if err := c.releaser.Free(s.Kind, s.Handle); err != nil {
				return freed, fmt.Errorf("freeing %s %d (%s): %w", s.Kind, s.ID, s.Path, err)
			}
		}
		s.Handle = nil
		s.Users = -1
		s.Mark = MarkFree
		freed++
	}

	return freed, nil
}

// Collect sweeps every kind scheduled on tick.
func (c *Cache) Collect(tick int) (int, error) {
	total := 0
	for _, kind := range c.schedule.Due(tick) {
		n, err := c.Sweep(kind)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Usage is a per-kind count of slots by state.
type Usage struct {
	Free    int
	Loading int
	Loaded  int
	Users   int
}

func (c *Cache) Usage(kind Kind) Usage {
	var u Usage
	for _, id := range c.byKind[kind] {
		s := &c.slots[id]
		switch {
		case s.Users == -1:
			u.Free++
		case s.Loading():
			u.Loading++
			u.Users += s.Users
		default:
			u.Loaded++
			u.Users += s.Users
		}
	}
	return u
}
