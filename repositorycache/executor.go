package repositorycache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-entity-repository/cache"
)

// executor runs read-through lookups for one entity. With a tag capable
// store every entry lives in the entity's tag group. Otherwise keys are
// namespaced with the entity tag and recorded in a key index.
type executor struct {
	entity   string
	store    cache.Store
	tagged   cache.TaggedStore
	keys     *keyIndex
	codec    cache.KeyCodec
	ttl      time.Duration
	flight   *singleflight.Group
	logger   zerolog.Logger
	observer Observer
}

func newExecutor(entity string, store cache.Store, o options) *executor {
	e := &executor{
		entity:   entity,
		store:    store,
		codec:    o.codec,
		ttl:      o.ttl,
		logger:   o.logger,
		observer: o.observer,
	}
	if taggable, ok := cache.ProbeTags(store); ok {
		e.tagged = taggable.Tags(entity)
	} else {
		e.keys = &keyIndex{}
	}
	if o.singleFlight {
		e.flight = &singleflight.Group{}
	}
	return e
}

func (e *executor) supportsTags() bool { return e.tagged != nil }

// target is the store entries are read from and written to.
func (e *executor) target() cache.Store {
	if e.tagged != nil {
		return e.tagged
	}
	return e.store
}

func (e *executor) key(method cache.Method, args []any, trashed bool) string {
	key := e.codec.DeriveKey(method, args, trashed)
	if e.tagged != nil {
		return key
	}
	return e.entity + key
}

// readThrough returns the cached result of method(args) or runs producer and
// caches what it returns. Cache failures never fail the read.
func readThrough[V any](ctx context.Context, e *executor, method cache.Method, args []any, trashed bool, producer cache.FetchFn[V]) (V, error) {
	key := e.key(method, args, trashed)

	load := func() (V, error) {
		if e.keys != nil {
			e.keys.add(key)
		}

		value, outcome, err := cache.Remember(ctx, e.target(), key, e.ttl, producer)
		if outcome.Err != nil {
			e.observer.CacheError(e.entity, method, outcome.Err)
			e.logger.Warn().Err(outcome.Err).Str("method", method.String()).Str("key", key).Msg("cache unavailable, reading from storage")
		}
		if outcome.Hit {
			e.observer.CacheHit(e.entity, method)
		} else {
			e.observer.CacheMiss(e.entity, method)
		}
		return value, err
	}

	if e.flight == nil {
		return load()
	}

	result, err, shared := e.flight.Do(key, func() (any, error) {
		return load()
	})
	if err != nil {
		var zero V
		return zero, err
	}
	value, _ := result.(V)
	if !shared {
		return value, nil
	}
	return detach(e, method, value), nil
}

// detach gives each caller of a shared single-flight load its own copy of
// value. The shared original is never returned.
func detach[V any](e *executor, method cache.Method, value V) V {
	data, err := cache.Encode(value)
	if err == nil {
		var copied V
		if copied, err = cache.Decode[V](data); err == nil {
			return copied
		}
	}
	e.logger.Warn().Err(err).Str("method", method.String()).Msg("shared result could not be copied")
	return value
}

// forget removes the entry of method(args) for both visibilities.
func (e *executor) forget(ctx context.Context, method cache.Method, args []any) error {
	var firstErr error
	for _, trashed := range []bool{false, true} {
		key := e.key(method, args, trashed)
		if e.keys != nil {
			e.keys.remove(key)
		}
		if err := e.target().Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// flush removes every entry of the entity. Without tag support only the keys
// in the index are removed.
func (e *executor) flush(ctx context.Context) error {
	if e.tagged != nil {
		return e.tagged.Flush(ctx)
	}

	var firstErr error
	for _, key := range e.keys.drain() {
		if err := e.store.Delete(ctx, key); err != nil {
			e.keys.add(key)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
