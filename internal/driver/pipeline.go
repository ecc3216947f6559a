package driver

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-orbis/internal/resource"
	"github.com/pixil98/go-orbis/internal/scene"
	"github.com/pixil98/go-orbis/internal/synapse"
)

// Simulation advances the world by one tick. It only runs on the simulation
// goroutine inside the mutation window.
type Simulation interface {
	Update(tick uint64) error
}

// Consumer turns a tick's mutations into resource requests and releases.
type Consumer interface {
	Apply(snap synapse.Snapshot) (requested int, released int)
}

type Loader interface {
	Start()
	Stop()
	Update(isOneShot bool) (int, error)
	Flush(ctx context.Context) error
}

type Collector interface {
	Collect(tick int) (int, error)
}

type Presenter interface {
	Present(tick uint64) scene.Frame
}

type SnapshotPublisher interface {
	PublishSnapshot(snap synapse.Snapshot) bool
}

// UIHook runs in phase one, before the simulation is released.
type UIHook func(frame uint64)

// Stages are the collaborators one frame passes through.
type Stages struct {
	Log       *synapse.Log
	World     Simulation
	Consumer  Consumer
	Loader    Loader
	Cache     Collector
	Presenter Presenter
}

func (s Stages) validate() error {
	el := errors.NewErrorList()

	if s.Log == nil {
		el.Add(fmt.Errorf("log: %w", ErrIncomplete))
	}
	if s.World == nil {
		el.Add(fmt.Errorf("world: %w", ErrIncomplete))
	}
	if s.Consumer == nil {
		el.Add(fmt.Errorf("consumer: %w", ErrIncomplete))
	}
	if s.Loader == nil {
		el.Add(fmt.Errorf("loader: %w", ErrIncomplete))
	}
	if s.Cache == nil {
		el.Add(fmt.Errorf("cache: %w", ErrIncomplete))
	}
	if s.Presenter == nil {
		el.Add(fmt.Errorf("presenter: %w", ErrIncomplete))
	}

	return el.Err()
}

// Pipeline runs frames in three phases. The main goroutine does UI work,
// hands the world to the simulation goroutine, then drains what changed,
// loads resources and presents. Which goroutine owns the world is decided
// only by who is waiting on which channel.
type Pipeline struct {
	stages    Stages
	publisher SnapshotPublisher
	ui        []UIHook
	oneShot   bool

	counter *resource.TickCounter
	frame   uint64

	// toAux carries true to run a tick and false to exit.
	toAux  chan bool
	toMain chan error
	done   chan struct{}
	// inFrame holds a token from the start of a Tick until it returns.
	inFrame chan struct{}
	alive   atomic.Bool
	begun   atomic.Bool

	// Written by the simulation goroutine before it hands back.
	simTime time.Duration

	stats Stats
}

type PipelineOpt func(*Pipeline)

// WithOneShot selects whether steady-state frames upload a single resource.
func WithOneShot(oneShot bool) PipelineOpt {
	return func(p *Pipeline) {
		p.oneShot = oneShot
	}
}

func WithUIHook(h UIHook) PipelineOpt {
	return func(p *Pipeline) {
		p.ui = append(p.ui, h)
	}
}

func WithPublisher(pub SnapshotPublisher) PipelineOpt {
	return func(p *Pipeline) {
		p.publisher = pub
	}
}

func NewPipeline(stages Stages, opts ...PipelineOpt) (*Pipeline, error) {
	if err := stages.validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		stages:  stages,
		oneShot: true,
		counter: resource.NewTickCounter(resource.TickPeriod),
		toAux:   make(chan bool, 1),
		toMain:  make(chan error, 1),
		done:    make(chan struct{}),
		inFrame: make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Start launches the simulation goroutine and the preload worker. The
// simulation goroutine parks until the first frame.
func (p *Pipeline) Start() {
	if !p.begun.CompareAndSwap(false, true) {
		return
	}
	p.alive.Store(true)
	p.stages.Loader.Start()
	go p.simulate()
}

// Stop shuts both goroutines down and waits for them. A frame in progress
// runs to the end of phase three first, with the loader still alive.
func (p *Pipeline) Stop() {
	if !p.begun.Load() {
		return
	}
	if p.alive.CompareAndSwap(true, false) {
		p.inFrame <- struct{}{}
		p.toAux <- false
		<-p.inFrame
	}
	<-p.done
	p.stages.Loader.Stop()
}

func (p *Pipeline) simulate() {
	defer close(p.done)

	for <-p.toAux {
		start := time.Now()
		log := p.stages.Log
		log.Clear()
		log.Open(p.frame)
		err := p.stages.World.Update(p.frame)
		log.Seal()
		p.simTime = time.Since(start)

		p.toMain <- err
	}
}

// Tick runs one frame. It must be called from the main goroutine.
func (p *Pipeline) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.inFrame <- struct{}{}
	defer func() { <-p.inFrame }()

	if !p.alive.Load() {
		return ErrNotRunning
	}

	// Phase 1: the world is not ours to read.
	start := time.Now()
	p.frame++
	for _, h := range p.ui {
		h(p.frame)
	}
	p.stats.UI += time.Since(start)

	// Phase 2
	p.toAux <- true
	err := <-p.toMain
	p.stats.Simulation += p.simTime
	if err != nil {
		return fmt.Errorf("simulating tick %d: %w", p.frame, err)
	}

	// Phase 3: the world is stable until the next hand-off.
	return p.present()
}

func (p *Pipeline) present() error {
	start := time.Now()

	snap := p.stages.Log.Drain()
	requested, released := p.stages.Consumer.Apply(snap)
	p.stats.Requested += requested
	p.stats.Released += released

	loadStart := time.Now()
	n, err := p.stages.Loader.Update(p.oneShot)
	p.stats.Uploads += n
	p.stats.Loader += time.Since(loadStart)
	if err != nil {
		return fmt.Errorf("loading resources at tick %d: %w", snap.Tick, err)
	}

	freed, err := p.stages.Cache.Collect(p.counter.Value())
	p.stats.Freed += freed
	if err != nil {
		return fmt.Errorf("sweeping resources at tick %d: %w", snap.Tick, err)
	}

	frame := p.stages.Presenter.Present(snap.Tick)
	p.stats.Pending = frame.Pending

	if p.publisher != nil && p.publisher.PublishSnapshot(snap) {
		p.stats.Published++
	}

	p.counter.Advance()
	p.stats.Frames++
	p.stats.Present += time.Since(start)
	return nil
}

// LevelLoad runs one frame and then blocks until every resource it requested
// is resident, as behind a loading screen.
func (p *Pipeline) LevelLoad(ctx context.Context) error {
	if err := p.Tick(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := p.stages.Loader.Flush(ctx)
	p.stats.Loader += time.Since(start)
	if err != nil {
		return fmt.Errorf("flushing level load: %w", err)
	}
	return nil
}

// Frame returns the number of the last frame started.
func (p *Pipeline) Frame() uint64 {
	return p.frame
}

// SweepTick returns the sweep schedule position of the next frame.
func (p *Pipeline) SweepTick() int {
	return p.counter.Value()
}

// Stats returns the accumulated frame statistics. Main goroutine only.
func (p *Pipeline) Stats() Stats {
	return p.stats
}
