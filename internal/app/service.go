// Package service runs the solving engines behind a bounded worker pool and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/arcade/internal/adapters/mq/queue"
	"github.com/okian/arcade/internal/adapters/mq/worker"
	"github.com/okian/arcade/internal/adapters/solver"
	"github.com/okian/arcade/internal/domain/ilp"
	"github.com/okian/arcade/internal/domain/knapsack"
	"github.com/okian/arcade/internal/domain/lineup"
	"github.com/okian/arcade/internal/domain/model"
	"github.com/okian/arcade/internal/domain/route"
	"github.com/okian/arcade/pkg/logger"
	"github.com/okian/arcade/pkg/metrics"
)

// Engine labels used for jobs, logs and metrics.
const (
	EngineKnapsack = "knapsack"
	EngineRoute    = "route"
	EngineLineup   = "lineup"
)

const (
	defaultQueueSize    = 1024
	defaultSolveTimeout = 30 * time.Second
	defaultSeed         = 42
	stopTimeout         = 10 * time.Second
)

// Service implements the API dependencies for the solving engines.
type Service struct {
	mu sync.RWMutex

	// Engines
	knapsack *knapsack.Solver
	route    *route.Solver
	lineup   *lineup.Engine

	// Execution
	queue *queue.InMemoryQueue
	pool  *worker.Pool

	// Configuration
	workerCount  int
	queueSize    int
	solveTimeout time.Duration
	defaultSeed  int64
	ilpMaxNodes  int
	ilpSolver    ilp.Solver
	knapsackOpts []knapsack.Option
	routeOpts    []route.Option

	// State
	started  bool
	solves   map[string]*atomic.Int64
	failures atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Engines are ready immediately; Start adds the
// worker pool, and until then solves run on the caller's goroutine. After
// Stop, solves fail with ErrUnavailable until the next Start.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    defaultQueueSize,
		solveTimeout: defaultSolveTimeout,
		defaultSeed:  defaultSeed,
		logger:       logger.Nop(),
		solves: map[string]*atomic.Int64{
			EngineKnapsack: {},
			EngineRoute:    {},
			EngineLineup:   {},
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	r, err := route.New(s.routeOpts...)
	if err != nil {
		return nil, fmt.Errorf("route engine: %w", err)
	}
	if s.ilpSolver == nil {
		s.ilpSolver = solver.New(
			solver.WithMaxNodes(s.ilpMaxNodes),
			solver.WithLogger(s.logger.Named("ilp")),
		)
	}
	s.knapsack = knapsack.New(s.knapsackOpts...)
	s.route = r
	s.lineup = lineup.New(s.ilpSolver)
	return s, nil
}

// Start creates the solve queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting solving service...")

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.WithPoolLogger(s.logger.Named("pool")))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "solving service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("solveTimeout", s.solveTimeout),
	)
	return nil
}

// Stop refuses new solves and waits for queued ones to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping solving service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not stop cleanly", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "solving service stopped")
}

// KnapsackCompare solves the instance with both DP and greedy.
func (s *Service) KnapsackCompare(ctx context.Context, items []model.Item, c model.PackingConstraints) (knapsack.Comparison, error) {
	out, err := submit(ctx, s, EngineKnapsack, "compare", func(context.Context) (knapsack.Comparison, error) {
		return s.knapsack.Compare(items, c)
	})
	if err != nil {
		return knapsack.Comparison{}, err
	}
	s.observe(EngineKnapsack, out.DP.Algorithm, out.DP.Objective())
	s.observe(EngineKnapsack, out.Greedy.Algorithm, out.Greedy.Objective())
	metrics.RecordComparison(EngineKnapsack, out.Comparison.ImprovementPct)
	return out, nil
}

// KnapsackSolve solves the instance with one algorithm: dp (default) or greedy.
func (s *Service) KnapsackSolve(ctx context.Context, items []model.Item, c model.PackingConstraints, algorithm string) (model.PackingResult, error) {
	out, err := submit(ctx, s, EngineKnapsack, algorithmLabel(algorithm, model.AlgorithmDP), func(context.Context) (model.PackingResult, error) {
		return s.knapsack.Solve(items, c, algorithm)
	})
	if err != nil {
		return model.PackingResult{}, err
	}
	s.observe(EngineKnapsack, out.Algorithm, out.Objective())
	return out, nil
}

// RouteCompare solves the tour with 2-opt and simulated annealing. A nil
// seed uses the configured default.
func (s *Service) RouteCompare(ctx context.Context, inst model.RouteInstance, seed *int64) (route.Comparison, error) {
	sd := s.seed(seed)
	out, err := submit(ctx, s, EngineRoute, "compare", func(context.Context) (route.Comparison, error) {
		return s.route.Compare(inst, sd)
	})
	if err != nil {
		return route.Comparison{}, err
	}
	s.observe(EngineRoute, out.TwoOpt.Algorithm, out.TwoOpt.Objective())
	s.observe(EngineRoute, out.SimulatedAnnealing.Algorithm, out.SimulatedAnnealing.Objective())
	metrics.RecordComparison(EngineRoute, out.Comparison.ImprovementPct)
	return out, nil
}

// RouteSolve solves the tour with one algorithm: 2opt (default) or
// simulated_annealing.
func (s *Service) RouteSolve(ctx context.Context, inst model.RouteInstance, algorithm string, seed *int64) (model.RouteResult, error) {
	sd := s.seed(seed)
	out, err := submit(ctx, s, EngineRoute, algorithmLabel(algorithm, model.AlgorithmTwoOpt), func(context.Context) (model.RouteResult, error) {
		return s.route.Solve(inst, algorithm, sd)
	})
	if err != nil {
		return model.RouteResult{}, err
	}
	s.observe(EngineRoute, out.Algorithm, out.Objective())
	return out, nil
}

// LineupSolve picks the roster with the highest projection. Infeasible
// constraints come back as a result with status infeasible and a nil error.
func (s *Service) LineupSolve(ctx context.Context, players []model.Player, c model.LineupConstraints) (model.LineupResult, error) {
	out, err := submit(ctx, s, EngineLineup, model.AlgorithmILP, func(ctx context.Context) (model.LineupResult, error) {
		return s.lineup.Solve(ctx, players, c)
	})
	if err != nil {
		return model.LineupResult{}, err
	}
	if out.ConstraintInfo.Status == model.StatusInfeasible {
		s.logger.Info(ctx, "lineup infeasible",
			logger.Int("players", len(players)),
			logger.String("reason", out.ConstraintInfo.Error),
		)
		return out, nil
	}
	s.observe(EngineLineup, model.AlgorithmILP, out.Objective())
	return out, nil
}

// submit runs fn on the worker pool, or inline before the first Start, bounded
// by the solve timeout. Pool refusals and deadlines are translated to the service
// errors.
func submit[T any](ctx context.Context, s *Service, engine, algorithm string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	ctx, cancel := context.WithTimeout(ctx, s.solveTimeout)
	defer cancel()

	s.mu.RLock()
	pool := s.pool
	s.mu.RUnlock()

	start := time.Now()
	var (
		out T
		err error
	)
	if pool != nil {
		var v any
		v, err = pool.Submit(ctx, engine, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
		if err == nil {
			out = v.(T)
		}
	} else {
		out, err = fn(ctx)
	}
	elapsed := time.Since(start)
	ms := float64(elapsed.Microseconds()) / 1000

	if err != nil {
		err = s.translate(engine, algorithm, err)
		metrics.RecordSolve(engine, algorithm, statusOf(err), ms)
		s.failures.Add(1)
		s.logFailure(ctx, engine, algorithm, elapsed, err)
		return zero, err
	}

	metrics.RecordSolve(engine, algorithm, "ok", ms)
	s.solves[engine].Add(1)
	s.logger.Debug(ctx, "solve finished",
		logger.String("engine", engine),
		logger.String("algorithm", algorithm),
		logger.Duration("duration", elapsed),
	)
	return out, nil
}

func (s *Service) translate(engine, algorithm string, err error) error {
	switch {
	case errors.Is(err, queue.ErrFull):
		return fmt.Errorf("%w: %s %s", ErrBackpressure, engine, algorithm)
	case errors.Is(err, queue.ErrClosed):
		return fmt.Errorf("%w: %s %s", ErrUnavailable, engine, algorithm)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s %s after %s: %w", ErrTimeout, engine, algorithm, s.solveTimeout, err)
	default:
		return err
	}
}

func (s *Service) logFailure(ctx context.Context, engine, algorithm string, elapsed time.Duration, err error) {
	fields := []logger.Field{
		logger.String("engine", engine),
		logger.String("algorithm", algorithm),
		logger.Duration("duration", elapsed),
		logger.Error(err),
	}
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		s.logger.Warn(ctx, "rejected solve input", fields...)
	case errors.Is(err, ErrBackpressure), errors.Is(err, ErrUnavailable), errors.Is(err, context.Canceled):
		s.logger.Warn(ctx, "solve not run", fields...)
	default:
		metrics.RecordErrorByComponent(engine, statusOf(err))
		s.logger.Error(ctx, "solve failed", fields...)
	}
}

func (s *Service) observe(engine, algorithm string, objective float64) {
	metrics.RecordObjective(engine, algorithm, objective)
}

func (s *Service) seed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return s.defaultSeed
}

// statusOf maps an error to the status label used by solve metrics.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrBackpressure):
		return "rejected"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, model.ErrSolver):
		return "solver_error"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}

func algorithmLabel(algorithm, fallback string) string {
	if algorithm == "" {
		return fallback
	}
	return algorithm
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"solveTimeoutMs": s.solveTimeout.Milliseconds(),
		"defaultSeed":    s.defaultSeed,
		"failedSolves":   s.failures.Load(),
	}
	solves := make(map[string]int64, len(s.solves))
	for engine, n := range s.solves {
		solves[engine] = n.Load()
	}
	stats["solves"] = solves

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.pool.Active()

		metrics.UpdateQueue(queueLen, s.queue.Capacity())
		metrics.UpdateWorkers(s.pool.Size(), s.pool.Active())
	}

	return stats
}
