package driver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pixil98/go-orbis/internal/loader"
	"github.com/pixil98/go-orbis/internal/storage"
	"github.com/pixil98/go-orbis/internal/world"
	"github.com/pixil98/go-testutil"
	"github.com/stretchr/testify/require"
)

type mockCheckpointer struct {
	restored *world.Checkpoint
}

func (m *mockCheckpointer) Checkpoint() *world.Checkpoint {
	return &world.Checkpoint{
		Tick:    5,
		Objects: []world.ObjectState{{Class: "rock", Pos: world.Vec2{X: 1, Y: 2}}},
	}
}

func (m *mockCheckpointer) Restore(cp *world.Checkpoint) {
	m.restored = cp
}

func newCheckpointStore(t *testing.T) *storage.FileStore[*world.Checkpoint] {
	t.Helper()

	store, err := storage.NewFileStore[*world.Checkpoint](t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return store
}

func TestFrameDriver_Start(t *testing.T) {
	p, f := newFixture(t)
	store := newCheckpointStore(t)
	cp := &mockCheckpointer{}

	d := NewFrameDriver(p,
		WithTickLength(time.Millisecond),
		WithCheckpoints(store, "quicksave", cp),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Start(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "nothing restored", cp.restored == nil, true)
	testutil.AssertEqual(t, "loader stopped", f.loader.stopped.Load(), true)
	require.Contains(t, f.rec.events, "flush")
	if p.Stats().Frames < 1 {
		t.Errorf("expected at least the level load frame, got %d", p.Stats().Frames)
	}

	reloaded, err := storage.NewFileStore[*world.Checkpoint](store.Path())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, ok := reloaded.Get("quicksave")
	testutil.AssertEqual(t, "saved", ok, true)
	testutil.AssertEqual(t, "saved tick", saved.Tick, uint64(5))
	testutil.AssertEqual(t, "saved objects", len(saved.Objects), 1)
}

func TestFrameDriver_RestoresCheckpoint(t *testing.T) {
	p, _ := newFixture(t)
	store := newCheckpointStore(t)
	err := store.Save("quicksave", &world.Checkpoint{Tick: 9, Structs: []world.StructState{{Class: "hall"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cp := &mockCheckpointer{}

	d := NewFrameDriver(p, WithTickLength(time.Millisecond), WithCheckpoints(store, "quicksave", cp))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = d.Start(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cp.restored == nil {
		t.Fatal("expected checkpoint to be restored")
	}
	testutil.AssertEqual(t, "restored tick", cp.restored.Tick, uint64(9))
	testutil.AssertEqual(t, "restored structs", len(cp.restored.Structs), 1)
}

func TestFrameDriver_LoadErrorStops(t *testing.T) {
	p, f := newFixture(t)
	f.loader.err = &loader.LoadError{ID: 3, Path: "snd/boom.wav", Err: fmt.Errorf("reading asset: missing")}
	store := newCheckpointStore(t)

	d := NewFrameDriver(p, WithTickLength(time.Millisecond), WithCheckpoints(store, "quicksave", &mockCheckpointer{}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := d.Start(ctx)
	testutil.AssertErrorContains(t, err, "snd/boom.wav")
	testutil.AssertEqual(t, "loader stopped", f.loader.stopped.Load(), true)

	// the world is still saved on the way out
	_, ok := store.Get("quicksave")
	testutil.AssertEqual(t, "saved", ok, true)
}

func TestFrameDriver_WithoutCheckpoints(t *testing.T) {
	p, f := newFixture(t)
	d := NewFrameDriver(p, WithTickLength(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := d.Start(ctx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "loader stopped", f.loader.stopped.Load(), true)
}
