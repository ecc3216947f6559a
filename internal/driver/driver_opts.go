package driver

import (
	"time"

	"github.com/pixil98/go-orbis/internal/storage"
	"github.com/pixil98/go-orbis/internal/world"
)

type FrameDriverOpt func(*FrameDriver)

func WithTickLength(tickLength time.Duration) FrameDriverOpt {
	return func(d *FrameDriver) {
		d.tickLength = tickLength
	}
}

// WithCheckpoints restores w from the checkpoint id at startup, when it
// exists, and saves it there on shutdown.
func WithCheckpoints(store storage.Storer[*world.Checkpoint], id string, w Checkpointer) FrameDriverOpt {
	return func(d *FrameDriver) {
		d.checkpoints = store
		d.checkpointID = id
		d.world = w
	}
}
