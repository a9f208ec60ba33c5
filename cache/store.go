package cache

import (
	"context"
	"errors"
	"time"
)

// Store is the byte oriented key value store the repositories cache into.
// Implementations must be safe for concurrent use and must return exactly the
// bytes that were previously written for a key.
type Store interface {
	// Driver names the backend, e.g. "memory", "redis" or "file".
	Driver() string

	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// Backend failures are reported as (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// TaggedStore is a Store scoped to a tag group. Flush drops every entry that
// was written through the scope.
type TaggedStore interface {
	Store
	Flush(ctx context.Context) error
}

// TaggableStore is implemented by backends that support grouped eviction.
type TaggableStore interface {
	Store
	Tags(name string) TaggedStore
}

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Outcome describes what happened inside a Remember call.
type Outcome struct {
	Hit bool
	// Err holds backend failures that were absorbed during the call. The
	// value returned by Remember is still valid when Err is set.
	Err error
}

// Remember is the read-through primitive: on hit it decodes the stored value,
// on miss it runs fetch and stores the encoded result for ttl.
//
// Backend failures never fail the read. A failing Get or an undecodable entry
// is treated as a miss and a failing Set only skips memoization; both are
// reported through Outcome.Err. Errors returned by fetch are passed through
// unchanged and nothing is cached for them.
func Remember[T any](ctx context.Context, store Store, key string, ttl time.Duration, fetch FetchFn[T]) (T, Outcome, error) {
	var out Outcome

	data, found, err := store.Get(ctx, key)
	if err != nil {
		out.Err = err
	}

	if found {
		value, err := Decode[T](data)
		if err == nil {
			out.Hit = true
			return value, out, nil
		}
		out.Err = errors.Join(out.Err, NewBackendError(store.Driver(), "decode", key, err))
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, out, err
	}

	encoded, err := Encode(value)
	if err != nil {
		out.Err = errors.Join(out.Err, NewBackendError(store.Driver(), "encode", key, err))
		return value, out, nil
	}

	if err := store.Set(ctx, key, encoded, ttl); err != nil {
		out.Err = errors.Join(out.Err, err)
	}

	return value, out, nil
}
