package driver

import "errors"

var (
	ErrNotRunning = errors.New("frame pipeline not running")
	ErrIncomplete = errors.New("frame pipeline is missing a stage")
)
