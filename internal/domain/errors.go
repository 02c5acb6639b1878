package domain

import "errors"

var (
	// ErrAlreadyRunning signals a lifecycle misuse: Start on a controller
	// whose cycle is already running. Distinct so callers can tell it from
	// transient failures.
	ErrAlreadyRunning = errors.New("voting cycle already running")
)
