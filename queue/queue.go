// Package queue runs deferred jobs off the request path.
//
// A Job is a named closure. Producers bind everything the job needs at
// enqueue time, so runners never resolve work by name. WorkerPool runs jobs
// on a fixed set of goroutines and retries failures with exponential
// backoff. Inline runs them on the caller's goroutine.
package queue

import (
	"context"

	"github.com/cenkalti/backoff/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Job is a unit of deferred work.
type Job struct {
	// Name identifies the job in logs and metrics.
	Name string
	// Run does the work. It receives the runner's context, not the context
	// of whoever enqueued the job.
	Run func(ctx context.Context) error
}

// Queue accepts jobs for eventual execution. Implementations give no
// ordering guarantee between jobs.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// Func adapts a function to Queue.
type Func func(ctx context.Context, job Job) error

func (f Func) Enqueue(ctx context.Context, job Job) error { return f(ctx, job) }

// Observer is notified about job lifecycle events.
type Observer interface {
	JobEnqueued(name string, err error)
	JobCompleted(name string, attempts int, err error)
}

type nopObserver struct{}

func (nopObserver) JobEnqueued(string, error)       {}
func (nopObserver) JobCompleted(string, int, error) {}

var (
	// ErrQueueFull is returned by WorkerPool.Enqueue when the buffer is full.
	ErrQueueFull = goerrors.New("queue is full", goerrors.CategoryRateLimit).
			WithTextCode("QUEUE_FULL")
	// ErrStopped is returned when enqueueing on a stopped pool.
	ErrStopped = goerrors.New("queue is stopped", goerrors.CategoryOperation).
			WithTextCode("QUEUE_STOPPED")
	// ErrInvalidJob is returned for jobs without a Run function.
	ErrInvalidJob = goerrors.New("job has no run function", goerrors.CategoryBadInput).
			WithTextCode("QUEUE_INVALID_JOB")
)

// Permanent marks err so that runners do not retry it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
