package cacheinfra

import (
	"context"
	"strings"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/goliatone/go-entity-repository/cache"
)

const tagSegment = "tag:"

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is a tag capable cache.Store backed by a sharded sturdyc client.
//
// sturdyc only knows a client wide TTL, so the configured cache TTL is used as
// the upper bound and the per call TTL is enforced on read.
type MemoryStore struct {
	client *sturdyc.Client[memoryEntry]
	prefix string
	now    func() time.Time
}

var (
	_ cache.TaggableStore = (*MemoryStore)(nil)
	_ cache.TaggedStore   = (*memoryTagScope)(nil)
)

// NewMemoryStore creates the in-memory driver.
func NewMemoryStore(cfg cache.Config) (*MemoryStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var options []sturdyc.Option
	if cfg.Memory.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(cfg.Memory.EvictionInterval))
	}

	client := sturdyc.New[memoryEntry](
		cfg.Memory.Capacity,
		cfg.Memory.NumShards,
		cfg.EffectiveTTL(),
		cfg.Memory.EvictionPercentage,
		options...,
	)

	return &MemoryStore{
		client: client,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

func (s *MemoryStore) Driver() string { return cache.DriverMemory }

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	return s.get(s.prefix + key)
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.set(s.prefix+key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.client.Delete(s.prefix + key)
	return nil
}

// Tags returns a view of the store scoped to the named tag group.
func (s *MemoryStore) Tags(name string) cache.TaggedStore {
	return &memoryTagScope{
		store:  s,
		prefix: s.prefix + tagSegment + name + ":",
	}
}

// Len returns the number of live entries, including expired ones that were
// not evicted yet.
func (s *MemoryStore) Len() int {
	return s.client.Size()
}

func (s *MemoryStore) get(key string) ([]byte, bool, error) {
	entry, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.client.Delete(key)
		return nil, false, nil
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

func (s *MemoryStore) set(key string, value []byte, ttl time.Duration) {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.client.Set(key, entry)
}

// deleteByPrefix removes all entries whose key starts with prefix.
func (s *MemoryStore) deleteByPrefix(prefix string) {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
}

type memoryTagScope struct {
	store  *MemoryStore
	prefix string
}

func (t *memoryTagScope) Driver() string { return cache.DriverMemory }

func (t *memoryTagScope) Get(_ context.Context, key string) ([]byte, bool, error) {
	return t.store.get(t.prefix + key)
}

func (t *memoryTagScope) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	t.store.set(t.prefix+key, value, ttl)
	return nil
}

func (t *memoryTagScope) Delete(_ context.Context, key string) error {
	t.store.client.Delete(t.prefix + key)
	return nil
}

func (t *memoryTagScope) Flush(_ context.Context) error {
	t.store.deleteByPrefix(t.prefix)
	return nil
}
