package app

import "errors"

// ErrUnsupportedEvent and related errors describe validation and runtime failures.
var (
	ErrUnsupportedEvent = errors.New("unsupported event")
	ErrInvalidSeed      = errors.New("invalid seed board")
)
