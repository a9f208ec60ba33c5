// Package bunstore implements storage.Storage on top of uptrace/bun and a
// go-repository-bun repository.
package bunstore

import (
	"context"
	"fmt"
	"reflect"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-entity-repository/storage"
)

// Options configures a Store.
type Options struct {
	// Entity names the records in errors. Defaults to the table name.
	Entity string
	// IDColumn is the primary key column. Defaults to "id".
	IDColumn string
	// SoftDeleteColumn is the column of the model tagged with
	// `bun:",soft_delete"`. Empty means the model is hard deleted.
	SoftDeleteColumn string
}

// Store adapts a go-repository-bun repository to storage.Storage. T must be
// a pointer to a bun model whose primary key is a uuid.UUID.
type Store[T any] struct {
	db   *bun.DB
	repo repository.Repository[T]
	opts Options
}

// New wraps repo. db must be the handle repo was built with.
func New[T any](db *bun.DB, repo repository.Repository[T], opts Options) (*Store[T], error) {
	if db == nil || repo == nil {
		return nil, goerrors.New("bunstore: db and repository are required", goerrors.CategoryBadInput)
	}

	var zero T
	if t := reflect.TypeOf(zero); t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, goerrors.New(fmt.Sprintf("bunstore: %T is not a pointer to a struct", zero), goerrors.CategoryBadInput)
	}

	if opts.IDColumn == "" {
		opts.IDColumn = "id"
	}
	if opts.Entity == "" {
		opts.Entity = db.Table(reflect.TypeOf(zero).Elem()).Name
	}

	return &Store[T]{db: db, repo: repo, opts: opts}, nil
}

func (s *Store[T]) SoftDeletes() bool { return s.opts.SoftDeleteColumn != "" }

func (s *Store[T]) All(ctx context.Context, q storage.Query) ([]T, error) {
	records, _, err := s.repo.List(ctx, s.criteria(q, unlimited())...)
	return records, err
}

func (s *Store[T]) Find(ctx context.Context, id string, q storage.Query) (T, error) {
	records, _, err := s.repo.List(ctx, s.criteria(q, s.byID(id), first())...)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(records) == 0 {
		var zero T
		return zero, storage.NotFound(s.opts.Entity, id)
	}
	return records[0], nil
}

func (s *Store[T]) Where(ctx context.Context, column string, value any, q storage.Query) ([]T, error) {
	records, _, err := s.repo.List(ctx, s.criteria(q, whereEqual(column, value), unlimited())...)
	return records, err
}

func (s *Store[T]) First(ctx context.Context, column string, value any, q storage.Query) (T, error) {
	records, _, err := s.repo.List(ctx, s.criteria(q, whereEqual(column, value), first())...)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(records) == 0 {
		var zero T
		return zero, storage.NotFound(s.opts.Entity, fmt.Sprintf("%s=%v", column, value))
	}
	return records[0], nil
}

func (s *Store[T]) Paginate(ctx context.Context, perPage, page int, q storage.Query) ([]T, int, error) {
	if page < 1 {
		page = 1
	}
	paging := unlimited()
	if perPage > 0 {
		paging = repository.SelectPaginate(perPage, (page-1)*perPage)
	}
	return s.repo.List(ctx, s.criteria(q, paging)...)
}

func (s *Store[T]) Create(ctx context.Context, record T) (T, error) {
	return s.repo.Create(ctx, record)
}

// Update writes the non zero fields of record to the live row id.
func (s *Store[T]) Update(ctx context.Context, id string, record T) (T, error) {
	var zero T

	uid, err := uuid.Parse(id)
	if err != nil {
		return zero, storage.NotFound(s.opts.Entity, id)
	}
	if _, err := s.Find(ctx, id, storage.Query{}); err != nil {
		return zero, err
	}

	handlers := s.repo.Handlers()
	if handlers.SetID == nil {
		return zero, goerrors.New("bunstore: repository handlers do not set ids", goerrors.CategoryBadInput)
	}
	handlers.SetID(record, uid)

	if _, err := s.repo.Update(ctx, record); err != nil {
		return zero, err
	}
	return s.Find(ctx, id, storage.Query{})
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	record, err := s.Find(ctx, id, storage.Query{})
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, record)
}

func (s *Store[T]) ForceDelete(ctx context.Context, id string) error {
	record, err := s.Find(ctx, id, storage.Query{WithTrashed: true})
	if err != nil {
		return err
	}
	return s.repo.ForceDelete(ctx, record)
}

func (s *Store[T]) Restore(ctx context.Context, id string) error {
	if !s.SoftDeletes() {
		return storage.ErrSoftDeleteUnsupported
	}

	res, err := s.db.NewUpdate().
		Model(s.newModel()).
		Set("? = NULL", bun.Ident(s.opts.SoftDeleteColumn)).
		Where("? = ?", bun.Ident(s.opts.IDColumn), id).
		WhereDeleted().
		Exec(ctx)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.NotFound(s.opts.Entity, id)
	}
	return nil
}

func (s *Store[T]) newModel() any {
	var zero T
	return reflect.New(reflect.TypeOf(zero).Elem()).Interface()
}

func (s *Store[T]) byID(id string) repository.SelectCriteria {
	return whereEqual(s.opts.IDColumn, id)
}

// criteria translates q into select criteria, followed by extra.
func (s *Store[T]) criteria(q storage.Query, extra ...repository.SelectCriteria) []repository.SelectCriteria {
	out := make([]repository.SelectCriteria, 0, len(q.Relations)+len(extra)+2)

	if q.WithTrashed && s.SoftDeletes() {
		out = append(out, repository.SelectDeletedAlso())
	}
	for _, name := range q.Relations {
		out = append(out, repository.SelectRelation(name))
	}
	if q.Order != nil && q.Order.Column != "" {
		out = append(out, orderBy(*q.Order))
	}

	return append(out, extra...)
}

func whereEqual(column string, value any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(column), value)
	}
}

func orderBy(o storage.Order) repository.SelectCriteria {
	direction := storage.NormalizeDirection(string(o.Direction))
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.? "+string(direction), bun.Ident(o.Column))
	}
}

// unlimited clears the default page size applied by repository.List.
func unlimited() repository.SelectCriteria {
	return repository.SelectPaginate(0, 0)
}

func first() repository.SelectCriteria {
	return repository.SelectPaginate(1, 0)
}
