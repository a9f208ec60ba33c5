package cacheinfra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-entity-repository/cache"
)

func newTestMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()

	cfg := cache.DefaultConfig()
	cfg.Memory.Capacity = 100
	cfg.Memory.NumShards = 2
	cfg.Memory.EvictionInterval = 0

	store, err := NewMemoryStore(cfg)
	require.NoError(t, err)
	return store
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, newTestMemoryStore(t))
}

func TestMemoryStore_Tags(t *testing.T) {
	store := newTestMemoryStore(t)
	runTagContract(t, store)

	taggable, ok := cache.ProbeTags(store)
	assert.True(t, ok)
	assert.NotNil(t, taggable)
}

func TestMemoryStore_PerCallTTL(t *testing.T) {
	store := newTestMemoryStore(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry outlived its ttl")
}

func TestMemoryStore_Prefix(t *testing.T) {
	cfg := cache.DefaultConfig()
	cfg.Prefix = "app:"

	store, err := NewMemoryStore(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "/ALL", []byte("v"), time.Minute))
	assert.Contains(t, store.client.ScanKeys(), "app:/ALL")
	assert.Equal(t, 1, store.Len())
}

func TestNewMemoryStore_InvalidConfig(t *testing.T) {
	cfg := cache.DefaultConfig()
	cfg.Memory.Capacity = 0

	store, err := NewMemoryStore(cfg)
	assert.Error(t, err)
	assert.Nil(t, store)
}
