package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Result is what a job produced.
type Result struct {
	Value any
	Err   error
}

// Job is one solve waiting for a worker. Ctx is the submitting caller's
// context: workers skip jobs whose caller already gave up and run the rest
// under it.
type Job struct {
	ID         string
	Kind       string
	Ctx        context.Context //nolint:containedctx // jobs carry their caller's deadline across the queue
	Run        func(ctx context.Context) (any, error)
	EnqueuedAt time.Time

	done chan Result
}

// NewJob creates a job with a fresh ID.
func NewJob(ctx context.Context, kind string, run func(ctx context.Context) (any, error)) *Job {
	return &Job{
		ID:   uuid.NewString(),
		Kind: kind,
		Ctx:  ctx,
		Run:  run,
		done: make(chan Result, 1),
	}
}

// Complete delivers the result. Only the first call has an effect.
func (j *Job) Complete(r Result) {
	select {
	case j.done <- r:
	default:
	}
}

// Done returns the channel receiving the job's single result.
func (j *Job) Done() <-chan Result {
	return j.done
}
