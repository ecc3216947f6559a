package synapse

import (
	"testing"

	"github.com/pixil98/go-testutil"
	"github.com/stretchr/testify/require"
)

func TestLog_RecordAndDrain(t *testing.T) {
	l := NewLog()
	l.Clear()
	l.Open(4)

	l.RecordAdd(Struct, 1)
	l.RecordAdd(Object, 10)
	l.RecordAdd(Object, 11)
	l.RecordAdd(Frag, 100)
	l.RecordRemove(Object, 3)
	l.RecordRemove(Frag, 7)
	l.RecordTransfer(10, 0, 1)
	l.Seal()

	snap := l.Drain()

	testutil.AssertEqual(t, "tick", snap.Tick, uint64(4))
	testutil.AssertEqual(t, "added structs", len(snap.AddedStructs), 1)
	testutil.AssertEqual(t, "added objects", len(snap.AddedObjects), 2)
	testutil.AssertEqual(t, "first added object", snap.AddedObjects[0], 10)
	testutil.AssertEqual(t, "second added object", snap.AddedObjects[1], 11)
	testutil.AssertEqual(t, "added frags", len(snap.Added(Frag)), 1)
	testutil.AssertEqual(t, "removed structs", len(snap.Removed(Struct)), 0)
	testutil.AssertEqual(t, "removed objects", snap.Removed(Object)[0], 3)
	testutil.AssertEqual(t, "removed frags", snap.RemovedFrags[0], 7)
	testutil.AssertEqual(t, "transfer", snap.Transfers[0], Transfer{ID: 10, From: 0, To: 1})
	testutil.AssertEqual(t, "empty", snap.Empty(), false)
}

func TestLog_DrainKeepsEntriesUntilClear(t *testing.T) {
	l := NewLog()
	l.Open(1)
	l.RecordAdd(Object, 5)
	l.Seal()

	first := l.Drain()
	second := l.Drain()
	testutil.AssertEqual(t, "first drain", len(first.AddedObjects), 1)
	testutil.AssertEqual(t, "second drain", len(second.AddedObjects), 1)

	l.Clear()
	after := l.Drain()
	testutil.AssertEqual(t, "after clear", after.Empty(), true)
}

func TestLog_ClearEmptiesEverything(t *testing.T) {
	l := NewLog()
	l.Open(1)
	for _, kind := range []EntityKind{Struct, Object, Frag} {
		l.RecordAdd(kind, 1)
		l.RecordRemove(kind, 2)
	}
	l.RecordTransfer(1, 2, 3)
	l.Seal()
	l.Clear()

	snap := l.Drain()
	for _, kind := range []EntityKind{Struct, Object, Frag} {
		testutil.AssertEqual(t, kind.String()+" added", len(snap.Added(kind)), 0)
		testutil.AssertEqual(t, kind.String()+" removed", len(snap.Removed(kind)), 0)
	}
	testutil.AssertEqual(t, "transfers", len(snap.Transfers), 0)
}

func TestLog_RecordOutsideWindow(t *testing.T) {
	tests := map[string]func(*Log){
		"add":      func(l *Log) { l.RecordAdd(Object, 1) },
		"remove":   func(l *Log) { l.RecordRemove(Struct, 1) },
		"transfer": func(l *Log) { l.RecordTransfer(1, 0, 1) },
	}

	for name, record := range tests {
		t.Run(name, func(t *testing.T) {
			l := NewLog()
			require.Panics(t, func() { record(l) })

			l.Open(1)
			l.Seal()
			require.Panics(t, func() { record(l) })
			testutil.AssertEqual(t, "empty", l.Drain().Empty(), true)
		})
	}
}

func TestLog_WindowMisuse(t *testing.T) {
	l := NewLog()

	require.Panics(t, func() { l.Seal() })

	l.Open(1)
	testutil.AssertEqual(t, "open", l.IsOpen(), true)
	require.Panics(t, func() { l.Open(2) })
	require.Panics(t, func() { l.Drain() })

	l.Seal()
	testutil.AssertEqual(t, "open", l.IsOpen(), false)
}
