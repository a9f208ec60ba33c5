package cacheinfra

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-entity-repository/cache"
)

// RedisStore is a tag capable cache.Store backed by redis.
//
// Tag groups are versioned: every key written through a tag scope embeds the
// current value of a per tag counter and Flush increments the counter, so a
// whole group is invalidated with a single INCR. Orphaned entries age out
// through their TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var (
	_ cache.TaggableStore = (*RedisStore)(nil)
	_ cache.TaggedStore   = (*redisTagScope)(nil)
)

// NewRedisStore connects to redis and verifies the connection with a PING.
func NewRedisStore(ctx context.Context, cfg cache.Config) (*RedisStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, cache.NewBackendError(cache.DriverRedis, "connect", cfg.Redis.Addr, err)
	}

	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *RedisStore) Driver() string { return cache.DriverRedis }

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.get(ctx, s.prefix+key)
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.set(ctx, s.prefix+key, value, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.del(ctx, s.prefix+key)
}

// Tags returns a view of the store scoped to the named tag group.
func (s *RedisStore) Tags(name string) cache.TaggedStore {
	return &redisTagScope{
		store:      s,
		versionKey: s.prefix + tagSegment + name + ":version",
		keyPrefix:  s.prefix + tagSegment + name + ":",
	}
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return cache.NewBackendError(cache.DriverRedis, "ping", "", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, cache.NewBackendError(cache.DriverRedis, "get", key, err)
	}
	return data, true, nil
}

func (s *RedisStore) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return cache.NewBackendError(cache.DriverRedis, "set", key, err)
	}
	return nil
}

func (s *RedisStore) del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return cache.NewBackendError(cache.DriverRedis, "delete", key, err)
	}
	return nil
}

type redisTagScope struct {
	store      *RedisStore
	versionKey string
	keyPrefix  string
}

func (t *redisTagScope) Driver() string { return cache.DriverRedis }

func (t *redisTagScope) Get(ctx context.Context, key string) ([]byte, bool, error) {
	full, err := t.key(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return t.store.get(ctx, full)
}

func (t *redisTagScope) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	full, err := t.key(ctx, key)
	if err != nil {
		return err
	}
	return t.store.set(ctx, full, value, ttl)
}

func (t *redisTagScope) Delete(ctx context.Context, key string) error {
	full, err := t.key(ctx, key)
	if err != nil {
		return err
	}
	return t.store.del(ctx, full)
}

// Flush bumps the tag version, detaching every entry written so far.
func (t *redisTagScope) Flush(ctx context.Context) error {
	if err := t.store.client.Incr(ctx, t.versionKey).Err(); err != nil {
		return cache.NewBackendError(cache.DriverRedis, "flush", t.versionKey, err)
	}
	return nil
}

func (t *redisTagScope) key(ctx context.Context, key string) (string, error) {
	version, err := t.store.client.Get(ctx, t.versionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", cache.NewBackendError(cache.DriverRedis, "version", t.versionKey, err)
	}
	return t.keyPrefix + strconv.FormatInt(version, 10) + ":" + key, nil
}
