// Package cache holds the cache contracts shared by the repositories and the
// cache drivers.
//
// # Overview
//
// The package exports:
//
//   - Store, TaggableStore and TaggedStore: the byte oriented backend contract
//   - Remember: the read-through primitive built on top of a Store
//   - KeyCodec and DeriveKey: stable cache keys from a method and its arguments
//   - SupportsTags and ProbeTags: whether a backend can evict a tag group at once
//   - Config: driver selection and tuning, validated with Validate
//
// Drivers live in internal/cacheinfra and are built from a Config by the
// container in pkg/di.
//
// # Keys
//
// A key is the method name behind a leading slash, followed by the hex SHA-256
// digest of the JSON encoded arguments when there are any, followed by
// "_TRASHED" when the read includes soft-deleted rows:
//
//	cache.DeriveKey(cache.MethodAll, nil, false)                 // "/ALL"
//	cache.DeriveKey(cache.MethodFind, []any{"42"}, false)        // "/FIND_<64 hex chars>"
//	cache.DeriveKey(cache.MethodFind, []any{"42"}, true)         // "/FIND_<64 hex chars>_TRASHED"
//
// Keys built from JSON encodable arguments are stable across processes. When
// an argument cannot be encoded as JSON the codec falls back to a reflective
// rendering; function pointers make those keys stable only within a process.
//
// # Read-through
//
//	users, outcome, err := cache.Remember(ctx, store, key, cache.DefaultTTL, func(ctx context.Context) ([]User, error) {
//		return storage.All(ctx, query)
//	})
//
// err is only ever the error returned by the producer. Backend failures are
// reported through outcome.Err and the read falls back to the producer.
//
// # Tags
//
// A tag capable store groups entries under a name so they can be flushed
// together. The file driver is on the deny-list returned by UntaggedDrivers;
// repositories on such a driver fall back to per-key eviction.
package cache
