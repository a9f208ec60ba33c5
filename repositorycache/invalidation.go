package repositorycache

import (
	"context"

	"github.com/goliatone/go-entity-repository/cache"
)

// evictMethod drops the cached result of method(args) and schedules read to
// warm it again.
func (r *Repository[T]) evictMethod(ctx context.Context, method cache.Method, args []any, read func(ctx context.Context) error) {
	if err := r.core.exec.forget(ctx, method, args); err != nil {
		r.core.observer.CacheError(r.core.entity, method, err)
		r.core.logger.Warn().Err(err).Str("method", method.String()).Msg("cache eviction failed")
	} else {
		r.core.observer.Evicted(r.core.entity, EvictKey)
	}
	r.rewarm(ctx, method, read)
}

// evictEntity drops every cached read of the entity and schedules GetAll to
// warm the most common one.
func (r *Repository[T]) evictEntity(ctx context.Context) {
	if err := r.core.exec.flush(ctx); err != nil {
		r.core.observer.CacheError(r.core.entity, cache.MethodAll, err)
		r.core.logger.Warn().Err(err).Msg("cache flush failed")
	} else {
		r.core.observer.Evicted(r.core.entity, EvictEntity)
	}
	r.rewarm(ctx, cache.MethodAll, func(ctx context.Context) error {
		_, err := r.GetAll(ctx)
		return err
	})
}

// invalidate runs after a successful write to the row id.
func (r *Repository[T]) invalidate(ctx context.Context, id string) {
	r.evictMethod(ctx, cache.MethodFind, r.args(id), func(ctx context.Context) error {
		_, err := r.FindByID(ctx, id)
		return err
	})
	r.evictEntity(ctx)
}
