package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixil98/go-orbis/internal/loader"
	"github.com/pixil98/go-orbis/internal/resource"
	"github.com/pixil98/go-orbis/internal/scene"
	"github.com/pixil98/go-orbis/internal/synapse"
	"github.com/pixil98/go-testutil"
	"github.com/stretchr/testify/require"
)

// recorder is shared by both goroutines. The pipeline's hand-offs order every
// append, so it needs no lock.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

type mockWorld struct {
	rec   *recorder
	log   *synapse.Log
	errAt uint64

	entered chan uint64
	gate    chan struct{}
}

func (m *mockWorld) Update(tick uint64) error {
	if m.entered != nil {
		m.entered <- tick
		<-m.gate
	}
	m.rec.add("simulate %d", tick)
	if tick == m.errAt {
		return fmt.Errorf("script exploded")
	}
	m.log.RecordAdd(synapse.Object, int(tick))
	return nil
}

type mockConsumer struct {
	rec *recorder
}

func (m *mockConsumer) Apply(snap synapse.Snapshot) (int, int) {
	m.rec.add("apply %d %v", snap.Tick, snap.AddedObjects)
	return len(snap.AddedObjects), 0
}

type mockLoader struct {
	rec     *recorder
	started atomic.Bool
	stopped atomic.Bool
	err     error
}

func (m *mockLoader) Start() { m.started.Store(true) }
func (m *mockLoader) Stop()  { m.stopped.Store(true) }

func (m *mockLoader) Update(isOneShot bool) (int, error) {
	m.rec.add("upload one_shot=%t", isOneShot)
	if m.err != nil {
		return 0, m.err
	}
	return 1, nil
}

func (m *mockLoader) Flush(context.Context) error {
	m.rec.add("flush")
	return nil
}

type mockCollector struct {
	rec *recorder
}

func (m *mockCollector) Collect(tick int) (int, error) {
	m.rec.add("collect %d", tick)
	return 0, nil
}

type mockPresenter struct {
	rec *recorder
}

func (m *mockPresenter) Present(tick uint64) scene.Frame {
	m.rec.add("present %d", tick)
	return scene.Frame{Tick: tick}
}

type mockPublisher struct {
	sent int
}

func (m *mockPublisher) PublishSnapshot(snap synapse.Snapshot) bool {
	m.sent++
	return true
}

type fixture struct {
	rec    *recorder
	log    *synapse.Log
	world  *mockWorld
	loader *mockLoader
}

func newFixture(t *testing.T, opts ...PipelineOpt) (*Pipeline, *fixture) {
	t.Helper()

	f := &fixture{rec: &recorder{}, log: synapse.NewLog()}
	f.world = &mockWorld{rec: f.rec, log: f.log}
	f.loader = &mockLoader{rec: f.rec}

	p, err := NewPipeline(Stages{
		Log:       f.log,
		World:     f.world,
		Consumer:  &mockConsumer{rec: f.rec},
		Loader:    f.loader,
		Cache:     &mockCollector{rec: f.rec},
		Presenter: &mockPresenter{rec: f.rec},
	}, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p, f
}

func TestPipeline_PhaseOrdering(t *testing.T) {
	pub := &mockPublisher{}
	p, f := newFixture(t, WithPublisher(pub))
	rec := f.rec
	p.ui = append(p.ui, func(frame uint64) {
		rec.add("ui %d", frame)
		if f.log.IsOpen() {
			t.Error("mutation window open during phase one")
		}
	})

	p.Start()
	defer p.Stop()

	for i := 0; i < 3; i++ {
		if err := p.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	exp := []string{}
	for tick := 1; tick <= 3; tick++ {
		exp = append(exp,
			fmt.Sprintf("ui %d", tick),
			fmt.Sprintf("simulate %d", tick),
			fmt.Sprintf("apply %d [%d]", tick, tick),
			"upload one_shot=true",
			fmt.Sprintf("collect %d", tick-1),
			fmt.Sprintf("present %d", tick),
		)
	}
	require.Equal(t, exp, rec.events)

	stats := p.Stats()
	testutil.AssertEqual(t, "frames", stats.Frames, uint64(3))
	testutil.AssertEqual(t, "uploads", stats.Uploads, 3)
	testutil.AssertEqual(t, "requested", stats.Requested, 3)
	testutil.AssertEqual(t, "published", stats.Published, 3)
	testutil.AssertEqual(t, "frame", p.Frame(), uint64(3))
	testutil.AssertEqual(t, "sweep tick", p.SweepTick(), 3)
	testutil.AssertEqual(t, "log sealed", f.log.IsOpen(), false)
}

func TestPipeline_FullUploadMode(t *testing.T) {
	p, f := newFixture(t, WithOneShot(false))
	p.Start()
	defer p.Stop()

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	require.Contains(t, f.rec.events, "upload one_shot=false")
}

func TestPipeline_SweepTickWraps(t *testing.T) {
	p, _ := newFixture(t)
	p.Start()
	defer p.Stop()

	for i := 0; i < resource.TickPeriod; i++ {
		if err := p.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	testutil.AssertEqual(t, "sweep tick", p.SweepTick(), 0)
	testutil.AssertEqual(t, "frame", p.Frame(), uint64(resource.TickPeriod))
}

func TestPipeline_LevelLoad(t *testing.T) {
	p, f := newFixture(t)
	p.Start()
	defer p.Stop()

	if err := p.LevelLoad(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "last event", f.rec.events[len(f.rec.events)-1], "flush")
}

func TestPipeline_SimulationError(t *testing.T) {
	p, f := newFixture(t)
	f.world.errAt = 2
	p.Start()

	if err := p.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := p.Tick(context.Background())
	testutil.AssertErrorContains(t, err, "simulating tick 2: script exploded")

	// the simulation goroutine is parked again and shuts down cleanly
	p.Stop()
	testutil.AssertEqual(t, "loader stopped", f.loader.stopped.Load(), true)
}

func TestPipeline_LoadErrorPropagates(t *testing.T) {
	p, f := newFixture(t)
	f.loader.err = &loader.LoadError{ID: 7, Kind: resource.KindTexture, Path: "tex/wall.ozc", Err: fmt.Errorf("reading asset: missing")}
	p.Start()
	defer p.Stop()

	err := p.Tick(context.Background())

	var loadErr *loader.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	testutil.AssertEqual(t, "id", loadErr.ID, 7)
	testutil.AssertErrorContains(t, err, "tex/wall.ozc")
}

func TestPipeline_NotRunning(t *testing.T) {
	p, f := newFixture(t)

	err := p.Tick(context.Background())
	testutil.AssertEqual(t, "before start", errors.Is(err, ErrNotRunning), true)

	// stopping a pipeline that never started is a no-op
	p.Stop()

	p.Start()
	testutil.AssertEqual(t, "loader started", f.loader.started.Load(), true)
	p.Stop()
	p.Stop()

	err = p.Tick(context.Background())
	testutil.AssertEqual(t, "after stop", errors.Is(err, ErrNotRunning), true)
	testutil.AssertEqual(t, "nothing simulated", len(f.rec.events), 0)
}

func TestPipeline_CanceledContext(t *testing.T) {
	p, f := newFixture(t)
	p.Start()
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Tick(ctx)
	testutil.AssertEqual(t, "canceled", errors.Is(err, context.Canceled), true)
	testutil.AssertEqual(t, "nothing simulated", len(f.rec.events), 0)
}

func TestPipeline_StopDuringSimulation(t *testing.T) {
	p, f := newFixture(t)
	f.world.entered = make(chan uint64, 1)
	f.world.gate = make(chan struct{})
	p.Start()

	tickErr := make(chan error, 1)
	go func() { tickErr <- p.Tick(context.Background()) }()

	testutil.AssertEqual(t, "entered tick", <-f.world.entered, uint64(1))

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while the simulation was mid-tick")
	case <-time.After(20 * time.Millisecond):
	}

	close(f.world.gate)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return")
	}

	select {
	case err := <-tickErr:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tick did not return")
	}

	// the interrupted tick finished and was observed exactly once
	require.Equal(t, "simulate 1", f.rec.events[0])
	require.Equal(t, "apply 1 [1]", f.rec.events[1])
	simulated := 0
	for _, e := range f.rec.events {
		if e == "simulate 1" || e == "simulate 2" {
			simulated++
		}
	}
	testutil.AssertEqual(t, "simulated", simulated, 1)

	err := p.Tick(context.Background())
	testutil.AssertEqual(t, "after stop", errors.Is(err, ErrNotRunning), true)
}

func TestNewPipeline_Incomplete(t *testing.T) {
	_, err := NewPipeline(Stages{Log: synapse.NewLog()})
	testutil.AssertErrorContains(t, err, "missing a stage")
	testutil.AssertErrorContains(t, err, "presenter")
}

type singleAssetCatalog struct {
	path string
}

func (c singleAssetCatalog) Len() int {
	return 1
}

func (c singleAssetCatalog) Lookup(id int) (resource.Kind, string, bool) {
	if id != 0 {
		return 0, "", false
	}
	return resource.KindTexture, c.path, true
}

// requestingConsumer asks the cache for asset 0 once per added object.
type requestingConsumer struct {
	rec   *recorder
	cache *resource.Cache
}

func (c *requestingConsumer) Apply(snap synapse.Snapshot) (int, int) {
	for range snap.AddedObjects {
		c.cache.Request(0)
	}
	c.rec.add("apply %d %v", snap.Tick, snap.AddedObjects)
	return len(snap.AddedObjects), 0
}

type textUploader struct{}

func (textUploader) Upload(t loader.Ticket) (resource.Handle, error) {
	return "tex:" + string(t.Payload), nil
}

func TestPipeline_StopDuringSimulationKeepsLoaderForFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.ozc")
	require.NoError(t, os.WriteFile(path, []byte("wall"), 0644))

	cache, err := resource.NewCache(singleAssetCatalog{path: path}, nil)
	require.NoError(t, err)
	ld := loader.New(cache, loader.DiskPreloader{}, textUploader{})

	rec := &recorder{}
	log := synapse.NewLog()
	world := &mockWorld{rec: rec, log: log, entered: make(chan uint64, 1), gate: make(chan struct{})}

	p, err := NewPipeline(Stages{
		Log:       log,
		World:     world,
		Consumer:  &requestingConsumer{rec: rec, cache: cache},
		Loader:    ld,
		Cache:     cache,
		Presenter: &mockPresenter{rec: rec},
	})
	require.NoError(t, err)
	p.Start()

	tickErr := make(chan error, 1)
	go func() { tickErr <- p.Tick(context.Background()) }()
	testutil.AssertEqual(t, "entered tick", <-world.entered, uint64(1))

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while the simulation was mid-tick")
	case <-time.After(20 * time.Millisecond):
	}

	close(world.gate)

	select {
	case err := <-tickErr:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tick did not return")
	}
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return")
	}

	// the interrupted frame reached the presenter and its request landed
	require.Equal(t, []string{"simulate 1", "apply 1 [1]", "present 1"}, rec.events)
	testutil.AssertEqual(t, "users", cache.Slot(0).Users, 1)

	_, err = ld.Update(true)
	testutil.AssertEqual(t, "loader stopped", errors.Is(err, loader.ErrStopped), true)
	err = p.Tick(context.Background())
	testutil.AssertEqual(t, "after stop", errors.Is(err, ErrNotRunning), true)
}

func TestPipeline_StopBetweenFrames(t *testing.T) {
	p, f := newFixture(t)
	p.Start()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Tick(context.Background()))
	}

	done := make(chan struct{})
	go func() {
		p.Stop()
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return")
	}

	testutil.AssertEqual(t, "loader stopped", f.loader.stopped.Load(), true)
	testutil.AssertEqual(t, "frames", p.Stats().Frames, uint64(3))
	err := p.Tick(context.Background())
	testutil.AssertEqual(t, "after stop", errors.Is(err, ErrNotRunning), true)
}
