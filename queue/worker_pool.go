package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Option configures a runner.
type Option func(*runnerOptions)

type runnerOptions struct {
	logger   zerolog.Logger
	observer Observer
}

// WithLogger sets the logger used to report job failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *runnerOptions) { o.logger = logger }
}

// WithObserver sets the observer notified about job events.
func WithObserver(observer Observer) Option {
	return func(o *runnerOptions) {
		if observer != nil {
			o.observer = observer
		}
	}
}

func newRunnerOptions(opts []Option) runnerOptions {
	o := runnerOptions{logger: zerolog.Nop(), observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With().Str("component", "queue").Logger()
	return o
}

// WorkerPool runs jobs on a fixed number of goroutines. Jobs enqueued before
// Start wait in the buffer. Failed jobs are retried with exponential backoff
// up to Config.MaxAttempts; a job that still fails is logged and dropped.
type WorkerPool struct {
	cfg  Config
	opts runnerOptions
	jobs chan Job

	mu      sync.RWMutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

var _ Queue = (*WorkerPool)(nil)

// NewWorkerPool validates cfg and returns a pool that is not started yet.
func NewWorkerPool(cfg Config, opts ...Option) (*WorkerPool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	return &WorkerPool{
		cfg:  cfg,
		opts: newRunnerOptions(opts),
		jobs: make(chan Job, cfg.Buffer),
	}, nil
}

// Start launches the workers. Jobs run with a context derived from ctx;
// cancelling it aborts pending retries.
func (p *WorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	for i := 0; i < p.cfg.Workers; i++ {
		group.Go(func() error {
			for job := range p.jobs {
				p.run(groupCtx, job)
			}
			return nil
		})
	}

	p.started = true
	p.cancel = cancel
	p.group = group

	p.opts.logger.Debug().Int("workers", p.cfg.Workers).Int("buffer", p.cfg.Buffer).Msg("worker pool started")
	return nil
}

// Enqueue buffers job without blocking. It returns ErrQueueFull when the
// buffer is full and ErrStopped after Stop.
func (p *WorkerPool) Enqueue(_ context.Context, job Job) error {
	if job.Run == nil {
		return ErrInvalidJob
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var err error
	if p.stopped {
		err = ErrStopped
	} else {
		select {
		case p.jobs <- job:
		default:
			err = ErrQueueFull
		}
	}

	p.opts.observer.JobEnqueued(job.Name, err)
	return err
}

// Stop stops accepting jobs and waits until the buffered ones are done. When
// ctx expires first, pending retries are aborted and ctx.Err() is returned.
func (p *WorkerPool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.jobs)
	started, group, cancel := p.started, p.group, p.cancel
	p.mu.Unlock()

	if !started {
		return nil
	}
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		p.opts.logger.Debug().Msg("worker pool stopped")
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// Pending returns the number of buffered jobs.
func (p *WorkerPool) Pending() int {
	return len(p.jobs)
}

func (p *WorkerPool) run(ctx context.Context, job Job) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialDelay
	b.MaxInterval = p.cfg.MaxDelay

	attempts := 0
	operation := func() (struct{}, error) {
		attempts++
		return struct{}{}, runJob(ctx, job)
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.opts.logger.Debug().Err(err).Str("job", job.Name).Dur("retry_in", next).Msg("job failed, retrying")
		}),
	)

	if err != nil {
		p.opts.logger.Warn().Err(err).Str("job", job.Name).Int("attempts", attempts).Msg("job failed")
	}
	p.opts.observer.JobCompleted(job.Name, attempts, err)
}

// runJob runs job once, turning a panic into a permanent error.
func runJob(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = backoff.Permanent(goerrors.New(fmt.Sprintf("job %s panicked: %v", job.Name, r), goerrors.CategoryInternal))
		}
	}()
	return job.Run(ctx)
}
