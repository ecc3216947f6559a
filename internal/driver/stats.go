package driver

import (
	"log/slog"
	"time"
)

// Stats accumulates wall-clock time per phase and resource traffic.
type Stats struct {
	Frames uint64

	UI         time.Duration
	Simulation time.Duration
	Loader     time.Duration
	// Present covers all of phase three, loader time included.
	Present time.Duration

	Requested int
	Released  int
	Uploads   int
	Freed     int
	Published int
	// Pending entities in the last presented frame.
	Pending int
}

func (s Stats) average(d time.Duration) time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return d / time.Duration(s.Frames)
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("frames", s.Frames),
		slog.Duration("avg_ui", s.average(s.UI)),
		slog.Duration("avg_simulation", s.average(s.Simulation)),
		slog.Duration("avg_loader", s.average(s.Loader)),
		slog.Duration("avg_present", s.average(s.Present)),
		slog.Int("requested", s.Requested),
		slog.Int("released", s.Released),
		slog.Int("uploads", s.Uploads),
		slog.Int("freed", s.Freed),
		slog.Int("published", s.Published),
	)
}
