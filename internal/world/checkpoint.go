package world

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// Checkpoint is a saved world. Entities are re-added on restore, so their
// indices are not preserved.
type Checkpoint struct {
	Tick    uint64        `json:"tick"`
	Structs []StructState `json:"structs"`
	Objects []ObjectState `json:"objects"`
	Frags   []FragState   `json:"frags"`
}

type StructState struct {
	Class string `json:"class"`
	Pos   Vec2   `json:"pos"`
}

type ObjectState struct {
	Class string `json:"class"`
	Pos   Vec2   `json:"pos"`
	Vel   Vec2   `json:"vel"`
	Life  int    `json:"life,omitempty"`
}

type FragState struct {
	Class string `json:"class"`
	Pos   Vec2   `json:"pos"`
	Vel   Vec2   `json:"vel"`
	Life  int    `json:"life"`
}

func (c *Checkpoint) Validate() error {
	if c == nil {
		return fmt.Errorf("spec must be set")
	}

	el := errors.NewErrorList()

	for i, s := range c.Structs {
		if s.Class == "" {
			el.Add(fmt.Errorf("struct %d: class is required", i))
		}
	}
	for i, o := range c.Objects {
		if o.Class == "" {
			el.Add(fmt.Errorf("object %d: class is required", i))
		}
		if o.Life < 0 {
			el.Add(fmt.Errorf("object %d: life must not be negative", i))
		}
	}
	for i, f := range c.Frags {
		if f.Class == "" {
			el.Add(fmt.Errorf("frag %d: class is required", i))
		}
		if f.Life <= 0 {
			el.Add(fmt.Errorf("frag %d: life must be positive", i))
		}
	}

	return el.Err()
}

// Checkpoint captures the world. The simulation goroutine must be parked.
func (w *World) Checkpoint() *Checkpoint {
	cp := &Checkpoint{Tick: w.tick}

	w.structs.each(func(_ int, s *Struct) {
		cp.Structs = append(cp.Structs, StructState{Class: s.Class, Pos: s.Pos})
	})
	w.objects.each(func(_ int, o *Object) {
		cp.Objects = append(cp.Objects, ObjectState{Class: o.Class, Pos: o.Pos, Vel: o.Vel, Life: o.Life})
	})
	w.frags.each(func(_ int, f *Frag) {
		cp.Frags = append(cp.Frags, FragState{Class: f.Class, Pos: f.Pos, Vel: f.Vel, Life: f.Life})
	})

	return cp
}

// Restore replaces the world with cp at the start of the next update, so the
// restored entities are recorded as additions like any other.
func (w *World) Restore(cp *Checkpoint) {
	w.restore = cp
}

func (w *World) apply(cp *Checkpoint) error {
	if err := w.clear(); err != nil {
		return fmt.Errorf("clearing world: %w", err)
	}

	el := errors.NewErrorList()

	for _, s := range cp.Structs {
		_, err := w.AddStruct(s.Class, s.Pos)
		el.Add(err)
	}
	for _, o := range cp.Objects {
		c, ok := w.library.Object(o.Class)
		if !ok {
			el.Add(fmt.Errorf("object %q: %w", o.Class, ErrUnknownClass))
			continue
		}
		if !w.inBounds(o.Pos) {
			el.Add(fmt.Errorf("object %q at %v: %w", o.Class, o.Pos, ErrOutOfBounds))
			continue
		}
		life := o.Life
		if c.Lifetime == 0 {
			life = 0
		}
		w.putObject(&Object{Class: o.Class, Pos: o.Pos, Vel: o.Vel, Life: life})
	}
	for _, f := range cp.Frags {
		_, err := w.AddFrag(f.Class, f.Pos, f.Vel, f.Life)
		el.Add(err)
	}

	return el.Err()
}

// clear removes every entity, recording the removals.
func (w *World) clear() error {
	el := errors.NewErrorList()
	el.Add(w.structs.walk(func(i int, _ *Struct) error { return w.RemoveStruct(i) }))
	el.Add(w.objects.walk(func(i int, _ *Object) error { return w.RemoveObject(i) }))
	el.Add(w.frags.walk(func(i int, _ *Frag) error { return w.RemoveFrag(i) }))
	return el.Err()
}
