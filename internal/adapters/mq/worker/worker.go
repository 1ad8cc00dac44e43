package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/arcade/internal/adapters/mq/queue"
	"github.com/okian/arcade/pkg/logger"
	"github.com/okian/arcade/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// ErrJobPanicked wraps a panic recovered while running a job.
var ErrJobPanicked = errors.New("job panicked")

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan *queue.Job
}

// Worker runs jobs from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown waits for the worker loop to end.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for solve jobs.
type InMemoryWorker struct {
	queue  Queue
	name   string
	active *atomic.Int64 // shared across a pool; nil when standalone

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:  q,
		name:   "worker",
		done:   make(chan struct{}),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop. It returns when ctx is done or the queue is
// closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(job)
		}
	}
}

// Shutdown waits for the worker loop to end.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one job under its caller's context and completes it.
func (w *InMemoryWorker) process(job *queue.Job) {
	ctx := job.Ctx
	if err := ctx.Err(); err != nil {
		// The caller stopped waiting; running the solve would be wasted work.
		metrics.RecordJobSkipped()
		job.Complete(queue.Result{Err: err})
		return
	}
	metrics.RecordQueueDequeue(float64(time.Since(job.EnqueuedAt).Microseconds()) / 1000)

	if w.active != nil {
		w.active.Add(1)
		defer w.active.Add(-1)
	}

	start := time.Now()
	value, err := w.run(ctx, job)
	latency := time.Since(start)
	metrics.RecordWorkerJob(float64(latency.Microseconds())/1000, err != nil)

	if err != nil {
		w.logger.Debug(ctx, "job failed",
			logger.String("job_id", job.ID),
			logger.String("kind", job.Kind),
			logger.Duration("took", latency),
			logger.Error(err))
	}
	job.Complete(queue.Result{Value: value, Err: err})
}

func (w *InMemoryWorker) run(ctx context.Context, job *queue.Job) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "job panicked",
				logger.String("job_id", job.ID),
				logger.String("kind", job.Kind),
				logger.Any("panic", r))
			value, err = nil, fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return job.Run(ctx)
}

// PoolQueue is the queue a Pool feeds from and submits to.
type PoolQueue interface {
	Queue
	Enqueue(ctx context.Context, j *queue.Job) error
	Len(ctx context.Context) int
	Capacity() int
	Close() error
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   PoolQueue
	active  atomic.Int64
	started atomic.Bool

	metricsInterval time.Duration
	stop            chan struct{}
	logger          logger.Logger
}

// NewPool creates a pool of workerCount workers; below 1 means one per CPU.
func NewPool(workerCount int, q PoolQueue, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:         make([]*InMemoryWorker, workerCount),
		queue:           q,
		metricsInterval: metricsUpdateInterval,
		stop:            make(chan struct{}),
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.workers {
		w := NewInMemoryWorker(q, WithName("worker-"+strconv.Itoa(i)), WithLogger(p.logger))
		w.active = &p.active
		p.workers[i] = w
	}
	metrics.UpdateWorkers(workerCount, 0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently running a job.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start starts all workers in the pool. Workers keep the values of ctx but
// not its cancellation: they stop only through Shutdown, once the queue is
// drained, so jobs accepted before a shutdown signal still get an answer.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	runCtx := context.WithoutCancel(ctx)
	for _, w := range p.workers {
		go w.Run(runCtx)
	}
	go p.startMetricsUpdater(runCtx)
}

// Submit queues run and waits for its result. It returns queue.ErrFull or
// queue.ErrClosed when the job is refused and ctx.Err() when the caller gives
// up first.
func (p *Pool) Submit(ctx context.Context, kind string, run func(ctx context.Context) (any, error)) (any, error) {
	job := queue.NewJob(ctx, kind, run)
	if err := p.queue.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	select {
	case r := <-job.Done():
		return r.Value, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// startMetricsUpdater refreshes queue and worker gauges until stopped.
func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(p.metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			p.updateMetrics(ctx)
		}
	}
}

func (p *Pool) updateMetrics(ctx context.Context) {
	metrics.UpdateQueue(p.queue.Len(ctx), p.queue.Capacity())
	metrics.UpdateWorkers(len(p.workers), p.Active())
}

// Shutdown closes the queue, lets workers drain what is already queued and
// waits for them within ctx (bounded by poolShutdownTimeout).
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
