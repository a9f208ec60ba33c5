// Package storage defines the persistence contract the cached repositories
// delegate to, along with the errors storages report.
package storage

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Direction of an ORDER BY clause.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// NormalizeDirection maps s case-insensitively to Asc or Desc. Anything that
// is not "desc" is ascending.
func NormalizeDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// Order sorts results by a column.
type Order struct {
	Column    string    `json:"column"`
	Direction Direction `json:"direction"`
}

// Query carries the scope of a read.
type Query struct {
	// WithTrashed includes soft-deleted rows. Ignored by storages that do not
	// soft delete.
	WithTrashed bool
	// Relations names associations to eager load.
	Relations []string
	Order     *Order
}

// Storage is the persistence collaborator of a repository. Implementations
// must be safe for concurrent use.
//
// Operations addressing a single id report a missing row with an error for
// which IsNotFound is true. Any other error is passed through to callers
// unchanged.
type Storage[T any] interface {
	// SoftDeletes reports whether Delete marks rows instead of removing them.
	SoftDeletes() bool

	All(ctx context.Context, q Query) ([]T, error)
	Find(ctx context.Context, id string, q Query) (T, error)
	Where(ctx context.Context, column string, value any, q Query) ([]T, error)
	First(ctx context.Context, column string, value any, q Query) (T, error)
	// Paginate returns the rows of page (1 based) and the total number of rows
	// matching q.
	Paginate(ctx context.Context, perPage, page int, q Query) ([]T, int, error)

	Create(ctx context.Context, record T) (T, error)
	Update(ctx context.Context, id string, record T) (T, error)
	// Delete soft deletes the row when the storage supports it and removes it
	// otherwise.
	Delete(ctx context.Context, id string) error
	ForceDelete(ctx context.Context, id string) error
	// Restore clears the soft delete mark of a trashed row.
	Restore(ctx context.Context, id string) error
}

// ErrSoftDeleteUnsupported is returned by Restore on storages that do not
// soft delete.
var ErrSoftDeleteUnsupported = goerrors.New("storage does not support soft deletes", goerrors.CategoryOperation).
	WithTextCode("SOFT_DELETE_UNSUPPORTED")

// NotFound builds the error reported when id does not resolve for entity.
func NotFound(entity, id string) error {
	return goerrors.New(entity+" not found", goerrors.CategoryNotFound).
		WithTextCode("RECORD_NOT_FOUND").
		WithMetadata(map[string]any{
			"entity": entity,
			"id":     id,
		})
}

// IsNotFound reports whether err means the addressed row does not exist.
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}
