package service

import (
	"time"

	"github.com/okian/arcade/internal/config"
	"github.com/okian/arcade/internal/domain/ilp"
	"github.com/okian/arcade/internal/domain/knapsack"
	"github.com/okian/arcade/internal/domain/route"
	"github.com/okian/arcade/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig applies every solve related setting of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		WithWorkerCount(cfg.WorkerCount)(s)
		WithQueueSize(cfg.QueueSize)(s)
		WithSolveTimeout(time.Duration(cfg.SolveTimeoutMS) * time.Millisecond)(s)
		WithDefaultSeed(cfg.DefaultSeed)(s)
		WithILPMaxNodes(cfg.ILPMaxNodes)(s)
		s.knapsackOpts = append(s.knapsackOpts, knapsack.WithMaxStates(cfg.KnapsackMaxStates))
		s.routeOpts = append(s.routeOpts,
			route.WithMaxPasses(cfg.RouteMaxPasses),
			route.WithIterations(cfg.AnnealIterations),
			route.WithInitialTemp(cfg.AnnealInitialTemp),
			route.WithCoolingRate(cfg.AnnealCoolingRate),
			route.WithMinTemp(cfg.AnnealMinTemp),
		)
	}
}

// WithWorkerCount sets the number of solve workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets how many solves may wait for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithSolveTimeout bounds each solve, queueing included.
func WithSolveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.solveTimeout = d
		}
	}
}

// WithDefaultSeed sets the seed used by route solves that do not send one.
func WithDefaultSeed(seed int64) Option {
	return func(s *Service) {
		s.defaultSeed = seed
	}
}

// WithILPMaxNodes caps branch and bound nodes for the built-in lineup solver.
func WithILPMaxNodes(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.ilpMaxNodes = n
		}
	}
}

// WithILPSolver replaces the built-in branch and bound lineup solver.
func WithILPSolver(solver ilp.Solver) Option {
	return func(s *Service) {
		s.ilpSolver = solver
	}
}

// WithKnapsackOptions appends options for the knapsack engine.
func WithKnapsackOptions(opts ...knapsack.Option) Option {
	return func(s *Service) {
		s.knapsackOpts = append(s.knapsackOpts, opts...)
	}
}

// WithRouteOptions appends options for the route engine.
func WithRouteOptions(opts ...route.Option) Option {
	return func(s *Service) {
		s.routeOpts = append(s.routeOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
