// Package memstore is an in-memory storage.Storage, used by tests, examples
// and small tools that do not need a database.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-entity-repository/storage"
)

// Options configures a Store.
type Options[T any] struct {
	// Entity names the records in errors.
	Entity string
	// IDOf returns the id of a record. Required.
	IDOf func(T) string
	// WithID returns record with its id set to id. Required.
	WithID func(record T, id string) T
	// NewID generates ids for records created without one. Defaults to
	// uuid.NewString.
	NewID func() string
	// SoftDeletes makes Delete mark rows instead of removing them.
	SoftDeletes bool
	// TagName is the struct tag used to resolve column names. Defaults to
	// "json".
	TagName string
}

type row[T any] struct {
	record    T
	deletedAt *time.Time
}

// Store keeps records in memory, in insertion order. Records are copied on
// the way in and on the way out so callers never share memory with the store.
// Relations in a query are ignored.
type Store[T any] struct {
	mu   sync.RWMutex
	opts Options[T]
	rows map[string]*row[T]
	ids  []string
	now  func() time.Time
}

var _ storage.Storage[struct{}] = (*Store[struct{}])(nil)

// New creates an empty Store.
func New[T any](opts Options[T]) (*Store[T], error) {
	if opts.IDOf == nil || opts.WithID == nil {
		return nil, goerrors.New("memstore: IDOf and WithID are required", goerrors.CategoryBadInput)
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.TagName == "" {
		opts.TagName = "json"
	}
	if opts.Entity == "" {
		opts.Entity = "record"
	}
	return &Store[T]{
		opts: opts,
		rows: map[string]*row[T]{},
		now:  time.Now,
	}, nil
}

func (s *Store[T]) SoftDeletes() bool { return s.opts.SoftDeletes }

func (s *Store[T]) All(_ context.Context, q storage.Query) ([]T, error) {
	return s.selectRows(q, nil)
}

func (s *Store[T]) Find(_ context.Context, id string, q storage.Query) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rows[id]
	if !ok || !s.visible(r, q) {
		var zero T
		return zero, storage.NotFound(s.opts.Entity, id)
	}
	return s.clone(r.record)
}

func (s *Store[T]) Where(_ context.Context, column string, value any, q storage.Query) ([]T, error) {
	return s.selectRows(q, func(fields map[string]any) bool {
		return equalValues(fields[column], value)
	})
}

func (s *Store[T]) First(ctx context.Context, column string, value any, q storage.Query) (T, error) {
	rows, err := s.Where(ctx, column, value, q)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(rows) == 0 {
		var zero T
		return zero, storage.NotFound(s.opts.Entity, fmt.Sprintf("%s=%v", column, value))
	}
	return rows[0], nil
}

func (s *Store[T]) Paginate(_ context.Context, perPage, page int, q storage.Query) ([]T, int, error) {
	rows, err := s.selectRows(q, nil)
	if err != nil {
		return nil, 0, err
	}
	total := len(rows)

	if perPage <= 0 {
		return rows, total, nil
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	if start >= total {
		return []T{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return rows[start:end], total, nil
}

func (s *Store[T]) Create(_ context.Context, record T) (T, error) {
	var zero T

	id := s.opts.IDOf(record)
	if id == "" {
		id = s.opts.NewID()
		record = s.opts.WithID(record, id)
	}

	stored, err := s.clone(record)
	if err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rows[id]; exists {
		return zero, goerrors.New(s.opts.Entity+" already exists", goerrors.CategoryConflict).
			WithMetadata(map[string]any{"id": id})
	}
	s.rows[id] = &row[T]{record: stored}
	s.ids = append(s.ids, id)

	return s.clone(stored)
}

func (s *Store[T]) Update(_ context.Context, id string, record T) (T, error) {
	var zero T

	stored, err := s.clone(s.opts.WithID(record, id))
	if err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok || r.deletedAt != nil {
		return zero, storage.NotFound(s.opts.Entity, id)
	}
	r.record = stored

	return s.clone(stored)
}

func (s *Store[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok || r.deletedAt != nil {
		return storage.NotFound(s.opts.Entity, id)
	}

	if s.opts.SoftDeletes {
		now := s.now()
		r.deletedAt = &now
		return nil
	}

	s.remove(id)
	return nil
}

func (s *Store[T]) ForceDelete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return storage.NotFound(s.opts.Entity, id)
	}
	s.remove(id)
	return nil
}

func (s *Store[T]) Restore(_ context.Context, id string) error {
	if !s.opts.SoftDeletes {
		return storage.ErrSoftDeleteUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rows[id]
	if !ok || r.deletedAt == nil {
		return storage.NotFound(s.opts.Entity, id)
	}
	r.deletedAt = nil
	return nil
}

// Len returns the number of rows, trashed ones included.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Store[T]) remove(id string) {
	delete(s.rows, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
}

func (s *Store[T]) visible(r *row[T], q storage.Query) bool {
	return r.deletedAt == nil || (q.WithTrashed && s.opts.SoftDeletes)
}

func (s *Store[T]) selectRows(q storage.Query, match func(map[string]any) bool) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type candidate struct {
		record T
		fields map[string]any
	}

	needFields := match != nil || q.Order != nil
	candidates := make([]candidate, 0, len(s.ids))

	for _, id := range s.ids {
		r := s.rows[id]
		if !s.visible(r, q) {
			continue
		}

		c := candidate{record: r.record}
		if needFields {
			fields, err := s.fields(r.record)
			if err != nil {
				return nil, err
			}
			c.fields = fields
		}
		if match != nil && !match(c.fields) {
			continue
		}
		candidates = append(candidates, c)
	}

	if q.Order != nil {
		column, desc := q.Order.Column, q.Order.Direction == storage.Desc
		sort.SliceStable(candidates, func(i, j int) bool {
			cmp := compareValues(candidates[i].fields[column], candidates[j].fields[column])
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	out := make([]T, 0, len(candidates))
	for _, c := range candidates {
		record, err := s.clone(c.record)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// fields flattens a record into a column map keyed by its tag names.
func (s *Store[T]) fields(record T) (map[string]any, error) {
	fields := map[string]any{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: s.opts.TagName,
		Result:  &fields,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "memstore: cannot read record columns")
	}
	return fields, nil
}

func (s *Store[T]) clone(record T) (T, error) {
	var out T
	data, err := msgpack.Marshal(record)
	if err != nil {
		return out, goerrors.Wrap(err, goerrors.CategoryInternal, "memstore: cannot copy record")
	}
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return out, goerrors.Wrap(err, goerrors.CategoryInternal, "memstore: cannot copy record")
	}
	return out, nil
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
