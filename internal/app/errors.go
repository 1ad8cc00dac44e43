package service

import "errors"

var (
	// ErrBackpressure is returned when the solve queue is full.
	ErrBackpressure = errors.New("solve queue full")
	// ErrTimeout is returned when a solve does not finish within the solve timeout.
	ErrTimeout = errors.New("solve timed out")
	// ErrUnavailable is returned once the service is shutting down.
	ErrUnavailable = errors.New("service unavailable")
)
