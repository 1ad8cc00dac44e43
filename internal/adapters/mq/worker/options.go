// Package worker runs queued solve jobs on a fixed set of goroutines.
package worker

import (
	"time"

	"github.com/okian/arcade/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger used by the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetricsInterval sets how often queue and worker gauges are refreshed.
func WithMetricsInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.metricsInterval = d
		}
	}
}
