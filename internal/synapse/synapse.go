// Package synapse records the structural changes the simulation makes to the
// world during one tick so that render and audio consumers can follow world
// membership without rescanning it.
package synapse

import (
	"fmt"
	"sync/atomic"
)

// EntityKind selects which of the world's three entity tables an id belongs to.
type EntityKind int

const (
	Struct EntityKind = iota
	Object
	Frag
)

func (k EntityKind) String() string {
	switch k {
	case Struct:
		return "struct"
	case Object:
		return "object"
	case Frag:
		return "frag"
	default:
		return fmt.Sprintf("entity(%d)", int(k))
	}
}

// EntityKinds lists every entity kind in table order.
func EntityKinds() []EntityKind {
	return []EntityKind{Struct, Object, Frag}
}

// Transfer records an object moving from one spatial cell to another.
type Transfer struct {
	ID   int
	From int
	To   int
}

// Snapshot is the read-only view of one tick's changes. Its slices stay valid
// until the next Clear.
type Snapshot struct {
	Tick uint64

	AddedStructs []int
	AddedObjects []int
	AddedFrags   []int

	RemovedStructs []int
	RemovedObjects []int
	RemovedFrags   []int

	Transfers []Transfer
}

func (s Snapshot) Added(kind EntityKind) []int {
	switch kind {
	case Struct:
		return s.AddedStructs
	case Object:
		return s.AddedObjects
	case Frag:
		return s.AddedFrags
	}
	return nil
}

func (s Snapshot) Removed(kind EntityKind) []int {
	switch kind {
	case Struct:
		return s.RemovedStructs
	case Object:
		return s.RemovedObjects
	case Frag:
		return s.RemovedFrags
	}
	return nil
}

// Empty reports whether nothing changed.
func (s Snapshot) Empty() bool {
	return len(s.AddedStructs)+len(s.AddedObjects)+len(s.AddedFrags)+
		len(s.RemovedStructs)+len(s.RemovedObjects)+len(s.RemovedFrags)+
		len(s.Transfers) == 0
}

// Log is the tick-scoped mutation log. Appends are only legal while the
// window is open, which the frame pipeline does for exactly the span of the
// simulation goroutine's exclusive turn.
type Log struct {
	open atomic.Bool
	tick uint64

	added   [3][]int
	removed [3][]int
	moves   []Transfer
}

func NewLog() *Log {
	return &Log{}
}

// Clear empties every sequence. Called once per tick before the world is
// advanced.
func (l *Log) Clear() {
	for i := range l.added {
		l.added[i] = l.added[i][:0]
		l.removed[i] = l.removed[i][:0]
	}
	l.moves = l.moves[:0]
}

// Open starts the mutation window for tick.
func (l *Log) Open(tick uint64) {
	if !l.open.CompareAndSwap(false, true) {
		panic("synapse: window already open")
	}
	l.tick = tick
}

// Seal closes the mutation window.
func (l *Log) Seal() {
	if !l.open.CompareAndSwap(true, false) {
		panic("synapse: window not open")
	}
}

// IsOpen reports whether mutations may currently be recorded.
func (l *Log) IsOpen() bool {
	return l.open.Load()
}

func (l *Log) mustBeOpen(op string, kind fmt.Stringer, id int) {
	if !l.open.Load() {
		panic(fmt.Sprintf("synapse: %s %s %d outside the simulation window", op, kind, id))
	}
}

func (l *Log) RecordAdd(kind EntityKind, id int) {
	l.mustBeOpen("add", kind, id)
	l.added[kind] = append(l.added[kind], id)
}

func (l *Log) RecordRemove(kind EntityKind, id int) {
	l.mustBeOpen("remove", kind, id)
	l.removed[kind] = append(l.removed[kind], id)
}

func (l *Log) RecordTransfer(id, from, to int) {
	l.mustBeOpen("transfer", Object, id)
	l.moves = append(l.moves, Transfer{ID: id, From: from, To: to})
}

// Drain returns this tick's changes. It does not clear the log; the entries
// stay readable until the next Clear.
func (l *Log) Drain() Snapshot {
	if l.open.Load() {
		panic("synapse: drain while the simulation window is open")
	}
	return Snapshot{
		Tick:           l.tick,
		AddedStructs:   l.added[Struct],
		AddedObjects:   l.added[Object],
		AddedFrags:     l.added[Frag],
		RemovedStructs: l.removed[Struct],
		RemovedObjects: l.removed[Object],
		RemovedFrags:   l.removed[Frag],
		Transfers:      l.moves,
	}
}
