package bunstore

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-entity-repository/storage"
)

type testUser struct {
	bun.BaseModel `bun:"table:test_users,alias:u"`

	ID        uuid.UUID  `bun:"id,pk,type:text" json:"id"`
	Name      string     `bun:"name,notnull" json:"name"`
	Email     string     `bun:"email,notnull" json:"email"`
	Age       int        `bun:"age" json:"age"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

type testTag struct {
	bun.BaseModel `bun:"table:test_tags,alias:t"`

	ID    uuid.UUID `bun:"id,pk,type:text"`
	Label string    `bun:"label,notnull"`
}

func userHandlers() repository.ModelHandlers[*testUser] {
	return repository.ModelHandlers[*testUser]{
		NewRecord:     func() *testUser { return &testUser{} },
		GetID:         func(u *testUser) uuid.UUID { return u.ID },
		SetID:         func(u *testUser, id uuid.UUID) { u.ID = id },
		GetIdentifier: func() string { return "email" },
	}
}

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []any{(*testUser)(nil), (*testTag)(nil)} {
		_, err := db.NewDropTable().Model(model).IfExists().Exec(ctx)
		require.NoError(t, err)
		_, err = db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}
	return db
}

func newUserStore(t *testing.T) (*Store[*testUser], *bun.DB) {
	t.Helper()

	db := setupDB(t)
	s, err := New(db, repository.NewRepository[*testUser](db, userHandlers()), Options{
		SoftDeleteColumn: "deleted_at",
	})
	require.NoError(t, err)
	return s, db
}

func seedUsers(t *testing.T, s *Store[*testUser], n int) []*testUser {
	t.Helper()

	out := make([]*testUser, 0, n)
	for i := 1; i <= n; i++ {
		u, err := s.Create(context.Background(), &testUser{
			Name:  fmt.Sprintf("user-%02d", i),
			Email: fmt.Sprintf("user%02d@example.com", i),
			Age:   20 + i%3,
		})
		require.NoError(t, err)
		out = append(out, u)
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	db := setupDB(t)

	_, err := New[*testUser](nil, nil, Options{})
	assert.Error(t, err)

	tagRepo := repository.NewRepository[testTag](db, repository.ModelHandlers[testTag]{})
	_, err = New(db, tagRepo, Options{})
	assert.Error(t, err, "non pointer models are rejected")

	s, _ := newUserStore(t)
	assert.Equal(t, "id", s.opts.IDColumn)
	assert.Equal(t, "test_users", s.opts.Entity)
	assert.True(t, s.SoftDeletes())
}

func TestStore_CreateFindAll(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserStore(t)
	users := seedUsers(t, s, 30)

	all, err := s.All(ctx, storage.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 30, "All must not be capped by the default page size")

	found, err := s.Find(ctx, users[3].ID.String(), storage.Query{})
	require.NoError(t, err)
	assert.Equal(t, users[3].Email, found.Email)

	_, err = s.Find(ctx, uuid.NewString(), storage.Query{})
	assert.True(t, storage.IsNotFound(err))
}

func TestStore_WhereFirstOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserStore(t)
	seedUsers(t, s, 6)

	rows, err := s.Where(ctx, "age", 21, storage.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	first, err := s.First(ctx, "email", "user04@example.com", storage.Query{})
	require.NoError(t, err)
	assert.Equal(t, "user-04", first.Name)

	_, err = s.First(ctx, "email", "nobody@example.com", storage.Query{})
	assert.True(t, storage.IsNotFound(err))

	desc, err := s.All(ctx, storage.Query{Order: &storage.Order{Column: "name", Direction: storage.Desc}})
	require.NoError(t, err)
	require.Len(t, desc, 6)
	assert.Equal(t, "user-06", desc[0].Name)
	assert.Equal(t, "user-01", desc[5].Name)
}

func TestStore_Paginate(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserStore(t)
	seedUsers(t, s, 12)

	order := &storage.Order{Column: "name", Direction: storage.Asc}

	rows, total, err := s.Paginate(ctx, 5, 1, storage.Query{Order: order})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, rows, 5)
	assert.Equal(t, "user-01", rows[0].Name)

	rows, total, err = s.Paginate(ctx, 5, 3, storage.Query{Order: order})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "user-11", rows[0].Name)
}

func TestStore_UpdateDeleteRestore(t *testing.T) {
	ctx := context.Background()
	s, _ := newUserStore(t)
	users := seedUsers(t, s, 2)
	id := users[0].ID.String()

	updated, err := s.Update(ctx, id, &testUser{Name: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, users[0].Email, updated.Email, "zero fields are left untouched")

	_, err = s.Update(ctx, uuid.NewString(), &testUser{Name: "x"})
	assert.True(t, storage.IsNotFound(err))
	_, err = s.Update(ctx, "not-a-uuid", &testUser{Name: "x"})
	assert.True(t, storage.IsNotFound(err))

	require.NoError(t, s.Delete(ctx, id))

	live, err := s.All(ctx, storage.Query{})
	require.NoError(t, err)
	assert.Len(t, live, 1)

	withTrashed, err := s.All(ctx, storage.Query{WithTrashed: true})
	require.NoError(t, err)
	assert.Len(t, withTrashed, 2)

	_, err = s.Find(ctx, id, storage.Query{})
	assert.True(t, storage.IsNotFound(err))
	assert.True(t, storage.IsNotFound(s.Delete(ctx, id)))

	require.NoError(t, s.Restore(ctx, id))
	assert.True(t, storage.IsNotFound(s.Restore(ctx, id)), "restoring a live row")

	_, err = s.Find(ctx, id, storage.Query{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.ForceDelete(ctx, id))

	withTrashed, err = s.All(ctx, storage.Query{WithTrashed: true})
	require.NoError(t, err)
	assert.Len(t, withTrashed, 1)
}

func TestStore_HardDeleteModel(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)

	s, err := New(db, repository.NewRepository[*testUser](db, userHandlers()), Options{})
	require.NoError(t, err)
	assert.False(t, s.SoftDeletes())

	users := seedUsers(t, s, 1)
	assert.ErrorIs(t, s.Restore(ctx, users[0].ID.String()), storage.ErrSoftDeleteUnsupported)

	live, err := s.All(ctx, storage.Query{WithTrashed: true})
	require.NoError(t, err)
	assert.Len(t, live, 1)
}
