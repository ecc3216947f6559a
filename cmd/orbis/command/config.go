package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type UploadMode int

const (
	UploadModeOneShot UploadMode = iota
	UploadModeFull
)

func (m *UploadMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "one_shot", "":
		*m = UploadModeOneShot
	case "full":
		*m = UploadModeFull
	default:
		return fmt.Errorf("unknown upload mode: %s", text)
	}
	return nil
}

type Config struct {
	TickInterval string     `json:"tick_interval"`
	UploadMode   UploadMode `json:"upload_mode"`
	// PreloadBatch is how many resources the preload worker reads at once.
	PreloadBatch int           `json:"preload_batch"`
	Storage      StorageConfig `json:"storage"`
	Nats         NatsConfig    `json:"nats"`
	World        WorldConfig   `json:"world"`
	Device       DeviceConfig  `json:"device"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if d < time.Millisecond {
		el.Add(fmt.Errorf("tick_interval must be at least 1 millisecond"))
	}

	if c.PreloadBatch < 0 {
		el.Add(fmt.Errorf("preload_batch must not be negative"))
	}

	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.World.validate())
	el.Add(c.Device.validate())

	return el.Err()
}

func (c *Config) tickLength() (time.Duration, error) {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("parsing tick_interval: %w", err)
	}
	return d, nil
}
