package cacheinfra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-entity-repository/cache"
)

// runStoreContract exercises the behavior every cache.Store must share.
func runStoreContract(t *testing.T, store cache.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		v, ok, err := store.Get(ctx, "/missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "/FIND_a", []byte("payload"), time.Minute))

		v, ok, err := store.Get(ctx, "/FIND_a")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("payload"), v)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "/FIND_b", []byte("one"), time.Minute))
		require.NoError(t, store.Set(ctx, "/FIND_b", []byte("two"), time.Minute))

		v, ok, err := store.Get(ctx, "/FIND_b")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("two"), v)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "/FIND_c", []byte("x"), time.Minute))
		require.NoError(t, store.Delete(ctx, "/FIND_c"))

		_, ok, err := store.Get(ctx, "/FIND_c")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete missing", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "/never-written"))
	})

	t.Run("returned bytes are a copy", func(t *testing.T) {
		in := []byte("abc")
		require.NoError(t, store.Set(ctx, "/copy", in, time.Minute))
		in[0] = 'z'

		v, ok, err := store.Get(ctx, "/copy")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("abc"), v)
	})
}

// runTagContract exercises grouped eviction on a tag capable store.
func runTagContract(t *testing.T, store cache.TaggableStore) {
	t.Helper()
	ctx := context.Background()

	users := store.Tags("user")
	posts := store.Tags("post")

	require.NoError(t, users.Set(ctx, "/ALL", []byte("users"), time.Minute))
	require.NoError(t, users.Set(ctx, "/FIND_1", []byte("user-1"), time.Minute))
	require.NoError(t, posts.Set(ctx, "/ALL", []byte("posts"), time.Minute))
	require.NoError(t, store.Set(ctx, "/ALL", []byte("untagged"), time.Minute))

	v, ok, err := users.Get(ctx, "/ALL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("users"), v, "tag groups must not share keys")

	require.NoError(t, users.Delete(ctx, "/FIND_1"))
	_, ok, err = users.Get(ctx, "/FIND_1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, users.Set(ctx, "/FIND_1", []byte("user-1"), time.Minute))
	require.NoError(t, users.Flush(ctx))

	for _, key := range []string{"/ALL", "/FIND_1"} {
		_, ok, err := users.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "%s survived the flush", key)
	}

	// a fresh scope for the same tag sees the flush too
	_, ok, err = store.Tags("user").Get(ctx, "/ALL")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, err = posts.Get(ctx, "/ALL")
	require.NoError(t, err)
	require.True(t, ok, "flush leaked into another tag")
	assert.Equal(t, []byte("posts"), v)

	v, ok, err = store.Get(ctx, "/ALL")
	require.NoError(t, err)
	require.True(t, ok, "flush leaked into the untagged keyspace")
	assert.Equal(t, []byte("untagged"), v)

	require.NoError(t, users.Set(ctx, "/ALL", []byte("again"), time.Minute))
	v, ok, err = users.Get(ctx, "/ALL")
	require.NoError(t, err)
	require.True(t, ok, "writes after a flush must be visible")
	assert.Equal(t, []byte("again"), v)
}
