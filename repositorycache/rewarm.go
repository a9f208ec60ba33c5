package repositorycache

import (
	"context"

	"github.com/goliatone/go-entity-repository/cache"
	"github.com/goliatone/go-entity-repository/queue"
	"github.com/goliatone/go-entity-repository/storage"
)

// rewarmJob builds the job that repopulates the cache by running a read
// operation. read is bound to its scope and arguments by the caller. A read
// that no longer finds its row has nothing to warm and succeeds.
func rewarmJob(entity string, method cache.Method, read func(ctx context.Context) error) queue.Job {
	return queue.Job{
		Name: "rewarm:" + entity + ":" + method.String(),
		Run: func(ctx context.Context) error {
			if err := read(ctx); err != nil && !storage.IsNotFound(err) {
				return err
			}
			return nil
		},
	}
}

// rewarm hands a rewarm job to the queue. Queue failures are logged and never
// reach the caller.
func (r *Repository[T]) rewarm(ctx context.Context, method cache.Method, read func(ctx context.Context) error) {
	err := r.core.queue.Enqueue(ctx, rewarmJob(r.core.entity, method, read))
	r.core.observer.RewarmEnqueued(r.core.entity, method, err)
	if err != nil {
		r.core.logger.Warn().Err(err).Str("method", method.String()).Msg("cache rewarm failed")
	}
}
