package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	// ErrFull means the queue is at capacity; callers should back off.
	ErrFull = errors.New("queue full")
	// ErrClosed means the queue no longer accepts jobs.
	ErrClosed = errors.New("queue closed")
)
