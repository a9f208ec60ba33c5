package repositorycache

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-entity-repository/cache"
	"github.com/goliatone/go-entity-repository/queue"
	"github.com/goliatone/go-entity-repository/storage"
)

// Repository is the cached data access surface of one entity type. Reads go
// through the cache; writes go to the storage and then evict the cached reads
// they affect and schedule rewarm jobs.
//
// A Repository is a view: WithTrashed and Relationships return new views that
// share the same cache, storage and queue. Views are safe for concurrent use.
type Repository[T any] struct {
	core      *core[T]
	trashed   bool
	relations []string
}

type core[T any] struct {
	entity      string
	storage     storage.Storage[T]
	exec        *executor
	queue       queue.Queue
	softDeletes bool
	logger      zerolog.Logger
	observer    Observer
}

// New builds a repository over storage, caching into store. The entity tag
// is derived from T unless WithEntityName is given; New fails with a
// configuration error when neither yields a name.
//
// Without WithQueue, rewarm jobs run on a queue.Inline: each write re-runs
// the evicted reads on the caller's goroutine, with the caller's context,
// before it returns. Writes then pay for the rewarm reads. Pass a started
// queue.WorkerPool, as di.NewRepository does, to move that work off the
// request path.
func New[T any](backend storage.Storage[T], store cache.Store, opts ...Option) (*Repository[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if backend == nil {
		return nil, configurationError("storage is required", nil)
	}
	if store == nil {
		return nil, configurationError("cache store is required", nil)
	}

	entity := resolveEntity[T](o.entity)
	if entity == "" {
		return nil, configurationError("entity type is not declared", map[string]any{
			"type": typeName[T](),
		})
	}

	o.logger = o.logger.With().
		Str("component", "repositorycache").
		Str("entity", entity).
		Logger()
	if o.queue == nil {
		o.queue = queue.NewInline(queue.WithLogger(o.logger))
	}

	c := &core[T]{
		entity:      entity,
		storage:     backend,
		exec:        newExecutor(entity, store, o),
		queue:       o.queue,
		softDeletes: backend.SoftDeletes(),
		logger:      o.logger,
		observer:    o.observer,
	}

	c.logger.Debug().
		Str("driver", store.Driver()).
		Bool("tags", c.exec.supportsTags()).
		Bool("soft_deletes", c.softDeletes).
		Msg("repository ready")

	return &Repository[T]{core: c}, nil
}

// Entity returns the tag naming the managed entity.
func (r *Repository[T]) Entity() string { return r.core.entity }

// SoftDeletes reports whether the storage soft deletes rows.
func (r *Repository[T]) SoftDeletes() bool { return r.core.softDeletes }

// SupportsTags reports whether cached reads are grouped under a tag.
func (r *Repository[T]) SupportsTags() bool { return r.core.exec.supportsTags() }

// Trashed reports whether reads of this view include soft-deleted rows.
func (r *Repository[T]) Trashed() bool { return r.trashed }

// WithTrashed returns a view whose reads include soft-deleted rows. It
// returns r unchanged when the storage does not soft delete.
func (r *Repository[T]) WithTrashed() *Repository[T] {
	if !r.core.softDeletes || r.trashed {
		return r
	}
	view := *r
	view.trashed = true
	return &view
}

// Relationships returns a view that eager loads the named relations.
func (r *Repository[T]) Relationships(names ...string) *Repository[T] {
	view := *r
	view.relations = append(append([]string(nil), r.relations...), names...)
	return &view
}

// GetAll returns every record.
func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	return readThrough(ctx, r.core.exec, cache.MethodAll, r.args(), r.trashed, func(ctx context.Context) ([]T, error) {
		return r.core.storage.All(ctx, r.query())
	})
}

func (r *Repository[T]) FindByID(ctx context.Context, id string) (T, error) {
	return readThrough(ctx, r.core.exec, cache.MethodFind, r.args(id), r.trashed, func(ctx context.Context) (T, error) {
		return r.core.storage.Find(ctx, id, r.query())
	})
}

// FindWhere returns the records whose column equals value.
func (r *Repository[T]) FindWhere(ctx context.Context, column string, value any) ([]T, error) {
	return readThrough(ctx, r.core.exec, cache.MethodFindWhere, r.args(column, value), r.trashed, func(ctx context.Context) ([]T, error) {
		return r.core.storage.Where(ctx, column, value, r.query())
	})
}

// FindWhereEmail returns the records whose email column equals value.
func (r *Repository[T]) FindWhereEmail(ctx context.Context, value any) ([]T, error) {
	return readThrough(ctx, r.core.exec, cache.MethodFindWhereEmail, r.args(value), r.trashed, func(ctx context.Context) ([]T, error) {
		return r.core.storage.Where(ctx, "email", value, r.query())
	})
}

// FindWhereFirst returns the first record whose column equals value.
func (r *Repository[T]) FindWhereFirst(ctx context.Context, column string, value any) (T, error) {
	return readThrough(ctx, r.core.exec, cache.MethodFindWhereFirst, r.args(column, value), r.trashed, func(ctx context.Context) (T, error) {
		return r.core.storage.First(ctx, column, value, r.query())
	})
}

// DataTable returns every record for tabular display.
func (r *Repository[T]) DataTable(ctx context.Context) ([]T, error) {
	return readThrough(ctx, r.core.exec, cache.MethodDataTable, r.args(), r.trashed, func(ctx context.Context) ([]T, error) {
		return r.core.storage.All(ctx, r.query())
	})
}

// OrderBy returns every record sorted by column. direction is matched case
// insensitively against "asc" and "desc"; anything else sorts ascending.
func (r *Repository[T]) OrderBy(ctx context.Context, column, direction string) ([]T, error) {
	dir := storage.NormalizeDirection(direction)
	return readThrough(ctx, r.core.exec, cache.MethodOrder, r.args(column, string(dir)), r.trashed, func(ctx context.Context) ([]T, error) {
		q := r.query()
		q.Order = &storage.Order{Column: column, Direction: dir}
		return r.core.storage.All(ctx, q)
	})
}

// Paginate returns a page of records straight from the storage. perPage
// defaults to 10 and page, when omitted or lower than 1, to the first page.
func (r *Repository[T]) Paginate(ctx context.Context, perPage int, page ...int) (Page[T], error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	current := 1
	if len(page) > 0 && page[0] > 1 {
		current = page[0]
	}

	data, total, err := r.core.storage.Paginate(ctx, perPage, current, r.query())
	if err != nil {
		return Page[T]{}, err
	}
	return newPage(data, total, perPage, current), nil
}

// Store creates record.
func (r *Repository[T]) Store(ctx context.Context, record T) (T, error) {
	created, err := r.core.storage.Create(ctx, record)
	if err != nil {
		return created, err
	}
	r.evictEntity(ctx)
	return created, nil
}

// Update writes record to the row id. It fails with a not found error when
// id does not resolve.
func (r *Repository[T]) Update(ctx context.Context, id string, record T) (T, error) {
	updated, err := r.core.storage.Update(ctx, id, record)
	if err != nil {
		return updated, err
	}
	r.invalidate(ctx, id)
	return updated, nil
}

// CreateOrUpdate updates the row id when FindByID resolves it and stores
// record otherwise.
func (r *Repository[T]) CreateOrUpdate(ctx context.Context, id string, record T) (T, error) {
	if id != "" {
		_, err := r.FindByID(ctx, id)
		if err == nil {
			return r.Update(ctx, id, record)
		}
		if !storage.IsNotFound(err) {
			var zero T
			return zero, err
		}
	}
	return r.Store(ctx, record)
}

// Delete soft deletes the row id, or removes it when the storage does not
// soft delete.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	if err := r.core.storage.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// Destroy removes the row id permanently.
func (r *Repository[T]) Destroy(ctx context.Context, id string) error {
	if err := r.core.storage.ForceDelete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// Recovery restores the soft-deleted row id.
func (r *Repository[T]) Recovery(ctx context.Context, id string) error {
	if err := r.core.storage.Restore(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// ClearCache evicts every cached read of the entity, for writes made
// outside the repository.
func (r *Repository[T]) ClearCache(ctx context.Context) {
	r.evictEntity(ctx)
}

func (r *Repository[T]) query() storage.Query {
	return storage.Query{
		WithTrashed: r.trashed,
		Relations:   r.relations,
	}
}

// args returns the key arguments of a read. The relation scope is part of
// them so differently scoped reads never share an entry.
func (r *Repository[T]) args(values ...any) []any {
	if len(r.relations) == 0 {
		return values
	}
	return append(values, map[string]any{"with": r.relations})
}
