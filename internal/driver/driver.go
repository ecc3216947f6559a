package driver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-orbis/internal/storage"
	"github.com/pixil98/go-orbis/internal/world"
)

const (
	DefaultTickLength = time.Second / 60
)

// Checkpointer is a world that can be saved and restored.
type Checkpointer interface {
	Checkpoint() *world.Checkpoint
	Restore(cp *world.Checkpoint)
}

// FrameDriver runs the pipeline at a fixed frame rate until its context ends.
type FrameDriver struct {
	pipeline   *Pipeline
	tickLength time.Duration

	world        Checkpointer
	checkpoints  storage.Storer[*world.Checkpoint]
	checkpointID string
}

func NewFrameDriver(p *Pipeline, opts ...FrameDriverOpt) *FrameDriver {
	d := &FrameDriver{
		pipeline:   p,
		tickLength: DefaultTickLength,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *FrameDriver) Start(ctx context.Context) error {
	d.restore(ctx)
	d.pipeline.Start()
	slog.InfoContext(ctx, "frame pipeline started", "tick_length", d.tickLength)

	err := d.run(ctx)

	el := errors.NewErrorList()
	el.Add(err)
	el.Add(d.shutdown(ctx))
	return el.Err()
}

func (d *FrameDriver) run(ctx context.Context) error {
	err := d.pipeline.LevelLoad(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	slog.InfoContext(ctx, "level loaded", "uploads", d.pipeline.Stats().Uploads)

	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := d.pipeline.Tick(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

func (d *FrameDriver) restore(ctx context.Context) {
	if d.checkpoints == nil {
		return
	}

	cp, ok := d.checkpoints.Get(d.checkpointID)
	if !ok {
		return
	}

	d.world.Restore(cp)
	slog.InfoContext(ctx, "restoring checkpoint", "id", d.checkpointID, "tick", cp.Tick,
		"structs", len(cp.Structs), "objects", len(cp.Objects), "frags", len(cp.Frags))
}

func (d *FrameDriver) shutdown(ctx context.Context) error {
	d.pipeline.Stop()
	slog.InfoContext(ctx, "frame pipeline stopped", "stats", d.pipeline.Stats())

	if d.checkpoints == nil {
		return nil
	}

	// The simulation goroutine has exited, so the world can be read here.
	err := d.checkpoints.Save(d.checkpointID, d.world.Checkpoint())
	if err != nil {
		return fmt.Errorf("saving checkpoint %s: %w", d.checkpointID, err)
	}
	slog.InfoContext(ctx, "checkpoint saved", "id", d.checkpointID)
	return nil
}
