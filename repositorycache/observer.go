package repositorycache

import "github.com/goliatone/go-entity-repository/cache"

// EvictionScope tells what an eviction removed.
type EvictionScope string

const (
	// EvictKey removes the entry of a single read.
	EvictKey EvictionScope = "key"
	// EvictEntity removes every cached read of an entity.
	EvictEntity EvictionScope = "entity"
)

// Observer receives cache events from repositories. Implementations must be
// safe for concurrent use and must not block.
type Observer interface {
	CacheHit(entity string, method cache.Method)
	CacheMiss(entity string, method cache.Method)
	// CacheError is called for backend failures absorbed by a read or an
	// eviction.
	CacheError(entity string, method cache.Method, err error)
	Evicted(entity string, scope EvictionScope)
	// RewarmEnqueued is called after a rewarm job was handed to the queue;
	// err is the queue's answer.
	RewarmEnqueued(entity string, method cache.Method, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) CacheHit(string, cache.Method)              {}
func (NopObserver) CacheMiss(string, cache.Method)             {}
func (NopObserver) CacheError(string, cache.Method, error)     {}
func (NopObserver) Evicted(string, EvictionScope)              {}
func (NopObserver) RewarmEnqueued(string, cache.Method, error) {}
