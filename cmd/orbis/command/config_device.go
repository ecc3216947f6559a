package command

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-orbis/internal/device"
)

type DeviceConfig struct {
	// Memory budgets in bytes. Zero is unlimited.
	VideoMemory int `json:"video_memory"`
	AudioMemory int `json:"audio_memory"`
}

func (c *DeviceConfig) validate() error {
	el := errors.NewErrorList()

	if c.VideoMemory < 0 {
		el.Add(fmt.Errorf("video_memory must not be negative"))
	}
	if c.AudioMemory < 0 {
		el.Add(fmt.Errorf("audio_memory must not be negative"))
	}

	return el.Err()
}

func (c *DeviceConfig) BuildDevice() *device.Device {
	return device.New(
		device.WithMemoryLimit(device.PoolVideo, c.VideoMemory),
		device.WithMemoryLimit(device.PoolAudio, c.AudioMemory),
	)
}
