package world

import (
	"fmt"
	"math"

	"github.com/pixil98/go-errors"
)

// Script is game logic run once per update before physics. It may add and
// remove entities through the world's mutation API.
type Script interface {
	Name() string
	Run(w *World) error
}

// Spawner keeps up to Max objects of Class alive, adding one every Every
// ticks at a random position with a random heading.
type Spawner struct {
	Class string  `json:"class"`
	Every int     `json:"every"`
	Max   int     `json:"max"`
	Speed float64 `json:"speed"`
}

func (s *Spawner) Validate() error {
	el := errors.NewErrorList()

	if s.Class == "" {
		el.Add(fmt.Errorf("class is required"))
	}
	if s.Every <= 0 {
		el.Add(fmt.Errorf("every must be positive"))
	}
	if s.Max <= 0 {
		el.Add(fmt.Errorf("max must be positive"))
	}
	if s.Speed < 0 {
		el.Add(fmt.Errorf("speed must not be negative"))
	}

	return el.Err()
}

func (s *Spawner) Name() string {
	return "spawner:" + s.Class
}

func (s *Spawner) Run(w *World) error {
	if w.Tick()%uint64(s.Every) != 0 || w.CountClass(s.Class) >= s.Max {
		return nil
	}

	rng := w.Rand()
	size := w.Size()
	pos := Vec2{X: rng.Float64() * size.X, Y: rng.Float64() * size.Y}
	angle := rng.Float64() * 2 * math.Pi
	vel := Vec2{X: math.Cos(angle), Y: math.Sin(angle)}.Scale(s.Speed)

	_, err := w.AddObject(s.Class, pos, vel)
	return err
}

// ScriptFunc adapts a function to the Script interface.
type ScriptFunc struct {
	Label string
	Fn    func(w *World) error
}

func (f ScriptFunc) Name() string {
	return f.Label
}

func (f ScriptFunc) Run(w *World) error {
	return f.Fn(w)
}
