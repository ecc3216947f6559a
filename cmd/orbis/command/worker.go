package command

import (
	"fmt"

	"github.com/pixil98/go-orbis/internal/driver"
	"github.com/pixil98/go-orbis/internal/loader"
	"github.com/pixil98/go-orbis/internal/resource"
	"github.com/pixil98/go-orbis/internal/scene"
	"github.com/pixil98/go-orbis/internal/synapse"
	"github.com/pixil98/go-service"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	tickLength, err := cfg.tickLength()
	if err != nil {
		return nil, err
	}

	// Assets and classes
	cat, err := cfg.Storage.BuildCatalog()
	if err != nil {
		return nil, err
	}
	lib, err := cfg.Storage.BuildLibrary(cat)
	if err != nil {
		return nil, err
	}
	checkpoints, checkpointID, err := cfg.Storage.BuildCheckpointStore()
	if err != nil {
		return nil, err
	}

	// World and its mutation log
	log := synapse.NewLog()
	w, err := cfg.World.BuildWorld(log, lib)
	if err != nil {
		return nil, fmt.Errorf("creating world: %w", err)
	}

	// Resources
	dev := cfg.Device.BuildDevice()
	cache, err := resource.NewCache(cat, dev)
	if err != nil {
		return nil, fmt.Errorf("creating resource cache: %w", err)
	}
	ld := loader.New(cache, loader.DiskPreloader{}, dev, loader.WithBatchSize(cfg.PreloadBatch))

	tracker := scene.NewTracker(cache, w)

	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	pipeline, err := driver.NewPipeline(driver.Stages{
		Log:       log,
		World:     w,
		Consumer:  tracker,
		Loader:    ld,
		Cache:     cache,
		Presenter: scene.NewPresenter(cache, tracker),
	},
		driver.WithOneShot(cfg.UploadMode == UploadModeOneShot),
		driver.WithPublisher(cfg.Nats.buildPublisher(natsServer)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frame pipeline: %w", err)
	}

	frameDriver := driver.NewFrameDriver(pipeline,
		driver.WithTickLength(tickLength),
		driver.WithCheckpoints(checkpoints, checkpointID, w),
	)

	return service.WorkerList{
		"driver": frameDriver,
		"nats":   natsServer,
	}, nil
}
