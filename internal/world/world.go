// Package world holds the authoritative simulation state. It is mutated only
// by the simulation goroutine while the mutation log is open; every
// structural change is recorded there for the main goroutine to observe.
package world

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/pixil98/go-orbis/internal/synapse"
)

const (
	DefaultCells    = 64
	DefaultCellSize = 16.0
)

// Cell lists the entities positioned in one square of the grid.
type Cell struct {
	Structs []int
	Objects []int
	Frags   []int
}

type Struct struct {
	Index int
	Class string
	Pos   Vec2

	cells []int
}

type Object struct {
	Index int
	Class string
	Pos   Vec2
	Vel   Vec2
	// Life is the remaining ticks, zero for objects that do not expire.
	Life int
	Cell int
}

// Frag is a short lived particle emitted by an object class.
type Frag struct {
	Index int
	Class string
	Pos   Vec2
	Vel   Vec2
	Life  int
	Cell  int
}

type World struct {
	log     *synapse.Log
	library *Library

	cellsX   int
	cellsY   int
	cellSize float64
	cells    []Cell

	structs arena[Struct]
	objects arena[Object]
	frags   arena[Frag]

	tick    uint64
	seed    uint64
	rng     *rand.Rand
	scripts []Script
	restore *Checkpoint
}

type WorldOpt func(*World)

func WithGrid(cellsX, cellsY int, cellSize float64) WorldOpt {
	return func(w *World) {
		w.cellsX = cellsX
		w.cellsY = cellsY
		w.cellSize = cellSize
	}
}

func WithSeed(seed uint64) WorldOpt {
	return func(w *World) {
		w.seed = seed
	}
}

func WithScripts(scripts ...Script) WorldOpt {
	return func(w *World) {
		w.scripts = append(w.scripts, scripts...)
	}
}

func New(log *synapse.Log, lib *Library, opts ...WorldOpt) (*World, error) {
	w := &World{
		log:      log,
		library:  lib,
		cellsX:   DefaultCells,
		cellsY:   DefaultCells,
		cellSize: DefaultCellSize,
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.cellsX <= 0 || w.cellsY <= 0 {
		return nil, fmt.Errorf("grid must have at least one cell, got %dx%d", w.cellsX, w.cellsY)
	}
	if w.cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive")
	}

	w.cells = make([]Cell, w.cellsX*w.cellsY)
	w.rng = rand.New(rand.NewPCG(w.seed, w.seed^0x9e3779b97f4a7c15))

	return w, nil
}

// Update advances the world by one tick. It must run inside the mutation
// window.
func (w *World) Update(tick uint64) error {
	w.mustBeOpen()

	w.structs.rotate()
	w.objects.rotate()
	w.frags.rotate()
	w.tick = tick

	if cp := w.restore; cp != nil {
		w.restore = nil
		if err := w.apply(cp); err != nil {
			return fmt.Errorf("restoring checkpoint: %w", err)
		}
	}

	for _, s := range w.scripts {
		if err := s.Run(w); err != nil {
			return fmt.Errorf("running script %s: %w", s.Name(), err)
		}
	}

	if err := w.moveObjects(); err != nil {
		return fmt.Errorf("moving objects: %w", err)
	}
	if err := w.moveFrags(); err != nil {
		return fmt.Errorf("moving frags: %w", err)
	}

	return nil
}

func (w *World) mustBeOpen() {
	if !w.log.IsOpen() {
		panic("world: mutation outside the simulation window")
	}
}

// AddStruct places a structure of class centred at pos.
func (w *World) AddStruct(class string, pos Vec2) (int, error) {
	w.mustBeOpen()

	c, ok := w.library.Struct(class)
	if !ok {
		return -1, fmt.Errorf("struct %q: %w", class, ErrUnknownClass)
	}
	if !w.inBounds(pos) {
		return -1, fmt.Errorf("struct %q at %v: %w", class, pos, ErrOutOfBounds)
	}

	s := &Struct{Class: class, Pos: pos}
	s.Index = w.structs.add(s)
	s.cells = w.span(pos, c.Extent)
	for _, ci := range s.cells {
		w.cells[ci].Structs = append(w.cells[ci].Structs, s.Index)
	}

	w.log.RecordAdd(synapse.Struct, s.Index)
	return s.Index, nil
}

// AddObject spawns an object of class at pos moving with vel per tick.
func (w *World) AddObject(class string, pos Vec2, vel Vec2) (int, error) {
	w.mustBeOpen()

	c, ok := w.library.Object(class)
	if !ok {
		return -1, fmt.Errorf("object %q: %w", class, ErrUnknownClass)
	}
	if !w.inBounds(pos) {
		return -1, fmt.Errorf("object %q at %v: %w", class, pos, ErrOutOfBounds)
	}

	o := &Object{Class: class, Pos: pos, Vel: vel, Life: c.Lifetime}
	return w.putObject(o), nil
}

func (w *World) putObject(o *Object) int {
	o.Index = w.objects.add(o)
	o.Cell = w.cellIndex(o.Pos)
	w.cells[o.Cell].Objects = append(w.cells[o.Cell].Objects, o.Index)

	w.log.RecordAdd(synapse.Object, o.Index)
	return o.Index
}

// AddFrag emits one debris frag of an object class.
func (w *World) AddFrag(class string, pos Vec2, vel Vec2, life int) (int, error) {
	w.mustBeOpen()

	c, ok := w.library.Object(class)
	if !ok || !c.Debris.IsSet() {
		return -1, fmt.Errorf("frag of %q: %w", class, ErrUnknownClass)
	}
	if life <= 0 {
		return -1, fmt.Errorf("frag life must be positive, got %d", life)
	}
	if !w.inBounds(pos) {
		return -1, fmt.Errorf("frag of %q at %v: %w", class, pos, ErrOutOfBounds)
	}

	f := &Frag{Class: class, Pos: pos, Vel: vel, Life: life}
	f.Index = w.frags.add(f)
	f.Cell = w.cellIndex(pos)
	w.cells[f.Cell].Frags = append(w.cells[f.Cell].Frags, f.Index)

	w.log.RecordAdd(synapse.Frag, f.Index)
	return f.Index, nil
}

func (w *World) RemoveStruct(i int) error {
	w.mustBeOpen()

	s, ok := w.structs.get(i)
	if !ok {
		return fmt.Errorf("struct %d: %w", i, ErrNoEntity)
	}
	for _, ci := range s.cells {
		w.cells[ci].Structs = without(w.cells[ci].Structs, i)
	}
	w.structs.remove(i)

	w.log.RecordRemove(synapse.Struct, i)
	return nil
}

func (w *World) RemoveObject(i int) error {
	w.mustBeOpen()

	o, ok := w.objects.get(i)
	if !ok {
		return fmt.Errorf("object %d: %w", i, ErrNoEntity)
	}
	w.cells[o.Cell].Objects = without(w.cells[o.Cell].Objects, i)
	w.objects.remove(i)

	w.log.RecordRemove(synapse.Object, i)
	return nil
}

func (w *World) RemoveFrag(i int) error {
	w.mustBeOpen()

	f, ok := w.frags.get(i)
	if !ok {
		return fmt.Errorf("frag %d: %w", i, ErrNoEntity)
	}
	w.cells[f.Cell].Frags = without(w.cells[f.Cell].Frags, i)
	w.frags.remove(i)

	w.log.RecordRemove(synapse.Frag, i)
	return nil
}

func (w *World) moveObjects() error {
	return w.objects.walk(func(i int, o *Object) error {
		if o.Life > 0 {
			o.Life--
			if o.Life == 0 {
				return w.expire(o)
			}
		}

		if o.Vel == (Vec2{}) {
			return nil
		}

		o.Pos, o.Vel = w.bounce(o.Pos.Add(o.Vel), o.Vel)

		cell := w.cellIndex(o.Pos)
		if cell == o.Cell {
			return nil
		}
		w.cells[o.Cell].Objects = without(w.cells[o.Cell].Objects, i)
		w.cells[cell].Objects = append(w.cells[cell].Objects, i)
		w.log.RecordTransfer(i, o.Cell, cell)
		o.Cell = cell
		return nil
	})
}

// expire removes an object at the end of its lifetime and scatters its debris.
func (w *World) expire(o *Object) error {
	c, _ := w.library.Object(o.Class)
	if c != nil && c.Debris.IsSet() {
		for n := 0; n < c.DebrisCount; n++ {
			angle := w.rng.Float64() * 2 * math.Pi
			speed := w.cellSize / 8 * (0.5 + w.rng.Float64())
			vel := Vec2{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed}
			if _, err := w.AddFrag(o.Class, o.Pos, vel, c.DebrisLife); err != nil {
				return fmt.Errorf("expiring object %d: %w", o.Index, err)
			}
		}
	}
	if err := w.RemoveObject(o.Index); err != nil {
		return fmt.Errorf("expiring object %d: %w", o.Index, err)
	}
	return nil
}

func (w *World) moveFrags() error {
	return w.frags.walk(func(i int, f *Frag) error {
		f.Life--
		if f.Life <= 0 {
			return w.RemoveFrag(i)
		}

		f.Pos, f.Vel = w.bounce(f.Pos.Add(f.Vel), f.Vel)
		if cell := w.cellIndex(f.Pos); cell != f.Cell {
			w.cells[f.Cell].Frags = without(w.cells[f.Cell].Frags, i)
			w.cells[cell].Frags = append(w.cells[cell].Frags, i)
			f.Cell = cell
		}
		return nil
	})
}

// bounce reflects a position that left the world back inside it.
func (w *World) bounce(p Vec2, v Vec2) (Vec2, Vec2) {
	maxX := float64(w.cellsX) * w.cellSize
	maxY := float64(w.cellsY) * w.cellSize

	if p.X < 0 {
		p.X, v.X = -p.X, -v.X
	} else if p.X >= maxX {
		p.X, v.X = 2*maxX-p.X, -v.X
	}
	if p.Y < 0 {
		p.Y, v.Y = -p.Y, -v.Y
	} else if p.Y >= maxY {
		p.Y, v.Y = 2*maxY-p.Y, -v.Y
	}

	p.X = math.Min(math.Max(p.X, 0), math.Nextafter(maxX, 0))
	p.Y = math.Min(math.Max(p.Y, 0), math.Nextafter(maxY, 0))
	return p, v
}

func (w *World) inBounds(p Vec2) bool {
	return p.X >= 0 && p.Y >= 0 &&
		p.X < float64(w.cellsX)*w.cellSize &&
		p.Y < float64(w.cellsY)*w.cellSize
}

// CellIndex returns the index of the cell containing p, clamped to the grid.
func (w *World) CellIndex(p Vec2) int {
	return w.cellIndex(p)
}

func (w *World) cellIndex(p Vec2) int {
	ix := min(max(int(p.X/w.cellSize), 0), w.cellsX-1)
	iy := min(max(int(p.Y/w.cellSize), 0), w.cellsY-1)
	return iy*w.cellsX + ix
}

// span returns every cell a footprint of half size extent centred at p
// touches.
func (w *World) span(p Vec2, extent Vec2) []int {
	lo := w.cellIndex(Vec2{X: p.X - extent.X, Y: p.Y - extent.Y})
	hi := w.cellIndex(Vec2{X: p.X + extent.X, Y: p.Y + extent.Y})

	var cells []int
	for y := lo / w.cellsX; y <= hi/w.cellsX; y++ {
		for x := lo % w.cellsX; x <= hi%w.cellsX; x++ {
			cells = append(cells, y*w.cellsX+x)
		}
	}
	return cells
}

func without(ids []int, id int) []int {
	if i := slices.Index(ids, id); i >= 0 {
		ids[i] = ids[len(ids)-1]
		return ids[:len(ids)-1]
	}
	return ids
}

// Tick returns the tick of the last update.
func (w *World) Tick() uint64 {
	return w.tick
}

// Rand is the world's seeded random source. Only the simulation goroutine may
// use it.
func (w *World) Rand() *rand.Rand {
	return w.rng
}

// Size returns the extent of the world in world units.
func (w *World) Size() Vec2 {
	return Vec2{X: float64(w.cellsX) * w.cellSize, Y: float64(w.cellsY) * w.cellSize}
}

func (w *World) Cell(i int) Cell {
	return w.cells[i]
}

func (w *World) Struct(i int) (Struct, bool) {
	s, ok := w.structs.get(i)
	if !ok {
		return Struct{}, false
	}
	return *s, true
}

func (w *World) Object(i int) (Object, bool) {
	o, ok := w.objects.get(i)
	if !ok {
		return Object{}, false
	}
	return *o, true
}

func (w *World) Frag(i int) (Frag, bool) {
	f, ok := w.frags.get(i)
	if !ok {
		return Frag{}, false
	}
	return *f, true
}

// Count returns the number of live entities of kind.
func (w *World) Count(kind synapse.EntityKind) int {
	switch kind {
	case synapse.Struct:
		return w.structs.count
	case synapse.Object:
		return w.objects.count
	case synapse.Frag:
		return w.frags.count
	default:
		return 0
	}
}

// CountClass returns the number of live objects of class.
func (w *World) CountClass(class string) int {
	n := 0
	w.objects.each(func(_ int, o *Object) {
		if o.Class == class {
			n++
		}
	})
	return n
}

// Resources returns the resource ids an entity needs to be drawn and heard.
func (w *World) Resources(kind synapse.EntityKind, i int) ([]int, bool) {
	var ids []int
	switch kind {
	case synapse.Struct:
		s, ok := w.structs.get(i)
		if !ok {
			return nil, false
		}
		c, _ := w.library.Struct(s.Class)
		ids = []int{c.Visual.ID(), c.Audio.ID()}
	case synapse.Object:
		o, ok := w.objects.get(i)
		if !ok {
			return nil, false
		}
		c, _ := w.library.Object(o.Class)
		ids = []int{c.Model.ID(), c.Sound.ID()}
	case synapse.Frag:
		f, ok := w.frags.get(i)
		if !ok {
			return nil, false
		}
		c, _ := w.library.Object(f.Class)
		ids = []int{c.Debris.ID()}
	default:
		return nil, false
	}

	return slices.DeleteFunc(ids, func(id int) bool { return id < 0 }), true
}
