package resource

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// TickPeriod is the wrap point of the frame tick counter. Every sweep interval
// divides it so each kind keeps a steady cadence across the wrap.
const TickPeriod = 240

// Interval places a kind's sweep on ticks where tick % Every == Lag.
type Interval struct {
	Every int
	Lag   int
}

func (i Interval) Due(tick int) bool {
	return i.Every > 0 && tick%i.Every == i.Lag
}

// Schedule holds one sweep interval per kind.
type Schedule [kindCount]Interval

// DefaultSchedule staggers the lags so no two kinds sweep on the same tick.
var DefaultSchedule = Schedule{
	KindTexture:   {Every: 60, Lag: 0},
	KindSound:     {Every: 60, Lag: 15},
	KindModel:     {Every: 60, Lag: 30},
	KindMapVisual: {Every: 120, Lag: 45},
	KindMapAudio:  {Every: 120, Lag: 105},
	KindFragPool:  {Every: 24, Lag: 7},
}

// Due returns the kinds whose sweep fires on tick.
func (s Schedule) Due(tick int) []Kind {
	var kinds []Kind
	for k, iv := range s {
		if iv.Due(tick) {
			kinds = append(kinds, Kind(k))
		}
	}
	return kinds
}

func (s Schedule) Validate(period int) error {
	el := errors.NewErrorList()

	if period <= 0 {
		el.Add(fmt.Errorf("tick period must be positive"))
	}

	for k, iv := range s {
		kind := Kind(k)
		switch {
		case iv.Every <= 0:
			el.Add(fmt.Errorf("%s: interval must be positive", kind))
		case iv.Lag < 0 || iv.Lag >= iv.Every:
			el.Add(fmt.Errorf("%s: lag %d must be within [0, %d)", kind, iv.Lag, iv.Every))
		case period > 0 && period%iv.Every != 0:
			el.Add(fmt.Errorf("%s: interval %d does not divide tick period %d", kind, iv.Every, period))
		}
	}

	return el.Err()
}

// TickCounter counts completed frames modulo a fixed period.
type TickCounter struct {
	tick   int
	period int
}

func NewTickCounter(period int) *TickCounter {
	return &TickCounter{period: period}
}

func (c *TickCounter) Value() int {
	return c.tick
}

// Advance moves to the next tick and returns it.
func (c *TickCounter) Advance() int {
	c.tick = (c.tick + 1) % c.period
	return c.tick
}
