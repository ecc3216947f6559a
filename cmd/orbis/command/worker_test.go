package command

import (
	"testing"

	"github.com/pixil98/go-orbis/internal/synapse"
	"github.com/pixil98/go-orbis/internal/world"
	"github.com/pixil98/go-testutil"
	"github.com/stretchr/testify/require"
)

func worldSpawner(class string, every int) world.Spawner {
	return world.Spawner{Class: class, Every: every, Max: 1, Speed: 1}
}

func TestBuildWorkers(t *testing.T) {
	cfg := &Config{
		TickInterval: "16ms",
		Storage:      newTestStorage(t),
		Nats:         NatsConfig{Port: -1},
		World: WorldConfig{
			Spawners: []world.Spawner{worldSpawner("crate", 30)},
		},
	}

	workers, err := BuildWorkers(cfg)
	require.NoError(t, err)

	_, ok := workers["driver"]
	testutil.AssertEqual(t, "driver worker", ok, true)
	_, ok = workers["nats"]
	testutil.AssertEqual(t, "nats worker", ok, true)
	testutil.AssertEqual(t, "worker count", len(workers), 2)
}

func TestBuildWorkers_Errors(t *testing.T) {
	tests := map[string]struct {
		config any
		expErr string
	}{
		"wrong config type": {
			config: struct{}{},
			expErr: "unable to cast config",
		},
		"unknown spawner class": {
			config: &Config{
				TickInterval: "16ms",
				Storage:      newTestStorage(t),
				World:        WorldConfig{Spawners: []world.Spawner{worldSpawner("boulder", 10)}},
			},
			expErr: `spawner 0: object class "boulder"`,
		},
		"bad tick interval": {
			config: &Config{TickInterval: "never", Storage: newTestStorage(t)},
			expErr: "parsing tick_interval",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := BuildWorkers(tt.config)
			testutil.AssertErrorContains(t, err, tt.expErr)
		})
	}
}

func TestWorldConfig_BuildWorld(t *testing.T) {
	storage := newTestStorage(t)
	cat, err := storage.BuildCatalog()
	require.NoError(t, err)
	lib, err := storage.BuildLibrary(cat)
	require.NoError(t, err)

	tests := map[string]struct {
		config  WorldConfig
		expSize world.Vec2
	}{
		"defaults": {
			expSize: world.Vec2{X: world.DefaultCells * world.DefaultCellSize, Y: world.DefaultCells * world.DefaultCellSize},
		},
		"configured": {
			config:  WorldConfig{CellsX: 4, CellsY: 2, CellSize: 8},
			expSize: world.Vec2{X: 32, Y: 16},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w, err := tt.config.BuildWorld(synapse.NewLog(), lib)
			require.NoError(t, err)
			testutil.AssertEqual(t, "size", w.Size(), tt.expSize)
		})
	}
}
