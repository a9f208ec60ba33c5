package queue

import "context"

// Inline runs every job on the caller's goroutine, once, as soon as it is
// enqueued. The job's error is returned from Enqueue.
type Inline struct {
	opts runnerOptions
}

var _ Queue = (*Inline)(nil)

func NewInline(opts ...Option) *Inline {
	return &Inline{opts: newRunnerOptions(opts)}
}

func (q *Inline) Enqueue(ctx context.Context, job Job) error {
	if job.Run == nil {
		return ErrInvalidJob
	}
	q.opts.observer.JobEnqueued(job.Name, nil)

	err := runJob(ctx, job)
	if err != nil {
		q.opts.logger.Warn().Err(err).Str("job", job.Name).Msg("job failed")
	}
	q.opts.observer.JobCompleted(job.Name, 1, err)
	return err
}
