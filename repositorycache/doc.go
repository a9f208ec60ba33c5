// Package repositorycache provides cached repositories for arbitrary entity
// types.
//
// # Overview
//
// A Repository[T] wraps a storage.Storage[T] and a cache.Store. Read
// operations are read-through: the result is looked up under a key derived
// from the read method, its arguments and the soft-delete visibility of the
// view, and the storage is only queried on a miss. Write operations go
// straight to the storage and, once they succeed, evict the cached reads they
// affect and schedule rewarm jobs on a queue.Queue.
//
// # Basic Usage
//
//	store, _ := memstore.New(memstore.Options[User]{...})
//	repo, err := repositorycache.New[User](store, cacheStore,
//		repositorycache.WithQueue(pool),
//		repositorycache.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//
//	users, err := repo.GetAll(ctx)             // miss, reads storage
//	users, err = repo.GetAll(ctx)              // hit
//	_, err = repo.Update(ctx, id, changes)     // evicts, rewarms GetAll
//	trashed, err := repo.WithTrashed().GetAll(ctx)
//
// # Cached vs Live Operations
//
// Cached: GetAll, FindByID, FindWhere, FindWhereEmail, FindWhereFirst,
// DataTable and OrderBy. Paginate always reads the storage.
//
// Writes: Store, Update, CreateOrUpdate, Delete, Destroy and Recovery.
//
// # Invalidation
//
// Every write to a row evicts the FindByID entry of that row and then the
// whole entity. When the cache store supports tags all reads of an entity are
// kept under a tag named after it and evicting the entity flushes the tag.
// Stores without tag support (see cache.SupportsTags) get their keys
// namespaced by entity and tracked in a process local index instead; keys
// written by other processes are not evicted in that mode and expire with
// their TTL.
//
// After each eviction a rewarm job is enqueued: FindByID for the row and
// GetAll for the entity. Jobs are closures bound to the view that made the
// write. Without WithQueue they run inline, on the writer's goroutine
// before the write returns; a started queue.WorkerPool runs them off the
// request path.
//
// # Consistency
//
// Reads and writes are not serialized. Two concurrent misses may both query
// the storage unless WithSingleFlight is set, and a read racing a write can
// store a stale result until the next eviction or TTL expiry.
//
// # Error Handling
//
// Storage errors are returned unchanged. Cache backend failures are logged,
// reported to the Observer and never fail a read or a write. New returns a
// configuration error, see IsConfigurationError, when the entity type cannot
// be resolved.
package repositorycache
