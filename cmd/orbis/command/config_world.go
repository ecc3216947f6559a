package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-orbis/internal/synapse"
	"github.com/pixil98/go-orbis/internal/world"
)

type WorldConfig struct {
	CellsX   int             `json:"cells_x"`
	CellsY   int             `json:"cells_y"`
	CellSize float64         `json:"cell_size"`
	Seed     uint64          `json:"seed"`
	Spawners []world.Spawner `json:"spawners"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	if c.CellsX < 0 || c.CellsY < 0 {
		el.Add(fmt.Errorf("cells_x and cells_y must not be negative"))
	}
	if c.CellSize < 0 {
		el.Add(fmt.Errorf("cell_size must not be negative"))
	}
	for i, s := range c.Spawners {
		if err := s.Validate(); err != nil {
			el.Add(fmt.Errorf("spawner %d: %w", i, err))
		}
	}

	return el.Err()
}

func (c *WorldConfig) BuildWorld(log *synapse.Log, lib *world.Library) (*world.World, error) {
	cellsX, cellsY, size := world.DefaultCells, world.DefaultCells, world.DefaultCellSize
	if c.CellsX > 0 {
		cellsX = c.CellsX
	}
	if c.CellsY > 0 {
		cellsY = c.CellsY
	}
	if c.CellSize > 0 {
		size = c.CellSize
	}

	opts := []world.WorldOpt{
		world.WithGrid(cellsX, cellsY, size),
		world.WithSeed(c.Seed),
	}
	for i := range c.Spawners {
		s := &c.Spawners[i]
		if _, ok := lib.Object(s.Class); !ok {
			return nil, fmt.Errorf("spawner %d: object class %q: %w", i, s.Class, world.ErrUnknownClass)
		}
		opts = append(opts, world.WithScripts(s))
	}

	return world.New(log, lib, opts...)
}
