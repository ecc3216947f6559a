package scene

import (
	"log/slog"

	"github.com/pixil98/go-orbis/internal/synapse"
)

// Frame summarises one presented frame.
type Frame struct {
	Tick uint64
	// Drawn entities had every resource resident.
	Drawn int
	// Pending entities were skipped because a resource is still loading.
	Pending int
	ByKind  [3]int
}

// Presenter stands in for the draw and play calls. It only reads handles.
type Presenter struct {
	cache   Cache
	tracker *Tracker
	last    Frame
}

func NewPresenter(cache Cache, tracker *Tracker) *Presenter {
	return &Presenter{cache: cache, tracker: tracker}
}

func (p *Presenter) Present(tick uint64) Frame {
	f := Frame{Tick: tick}

	for e, ids := range p.tracker.held {
		if !p.ready(ids) {
			f.Pending++
			continue
		}
		f.Drawn++
		f.ByKind[e.kind]++
	}

	if f.Pending > 0 && p.last.Pending == 0 {
		slog.Debug("entities waiting on resources", "tick", tick, "pending", f.Pending)
	}

	p.last = f
	return f
}

func (p *Presenter) ready(ids []int) bool {
	for _, id := range ids {
		if _, ok := p.cache.Get(id); !ok {
			return false
		}
	}
	return true
}

// DrawnOf returns how many entities of kind were drawn in the last frame.
func (f Frame) DrawnOf(kind synapse.EntityKind) int {
	return f.ByKind[kind]
}
