package world

import "errors"

var (
	ErrUnknownClass = errors.New("unknown class")
	ErrNoEntity     = errors.New("no such entity")
	ErrOutOfBounds  = errors.New("position outside the world")
)
