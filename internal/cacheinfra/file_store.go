package cacheinfra

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-entity-repository/cache"
)

const fileExt = ".cache"

type fileEnvelope struct {
	Key       string `msgpack:"k"`
	ExpiresAt int64  `msgpack:"e"`
	Value     []byte `msgpack:"v"`
}

// FileStore keeps one file per key under a directory. It cannot evict a
// group of keys at once and is therefore not tag capable.
type FileStore struct {
	dir    string
	prefix string
	now    func() time.Time
}

var _ cache.Store = (*FileStore)(nil)

// NewFileStore creates the directory if needed and returns the file driver.
func NewFileStore(cfg cache.Config) (*FileStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.File.Dir, 0o755); err != nil {
		return nil, cache.NewBackendError(cache.DriverFile, "mkdir", cfg.File.Dir, err)
	}
	return &FileStore{dir: cfg.File.Dir, prefix: cfg.Prefix, now: time.Now}, nil
}

func (s *FileStore) Driver() string { return cache.DriverFile }

func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	key = s.prefix + key
	path := s.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, cache.NewBackendError(cache.DriverFile, "get", key, err)
	}

	var env fileEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, false, cache.NewBackendError(cache.DriverFile, "decode", key, err)
	}

	// hash collision
	if env.Key != key {
		return nil, false, nil
	}

	if env.ExpiresAt > 0 && s.now().UnixNano() >= env.ExpiresAt {
		_ = os.Remove(path)
		return nil, false, nil
	}

	return env.Value, true, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	key = s.prefix + key

	env := fileEnvelope{Key: key, Value: value}
	if ttl > 0 {
		env.ExpiresAt = s.now().Add(ttl).UnixNano()
	}

	data, err := msgpack.Marshal(env)
	if err != nil {
		return cache.NewBackendError(cache.DriverFile, "encode", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return cache.NewBackendError(cache.DriverFile, "set", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return cache.NewBackendError(cache.DriverFile, "set", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return cache.NewBackendError(cache.DriverFile, "set", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return cache.NewBackendError(cache.DriverFile, "set", key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	key = s.prefix + key
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cache.NewBackendError(cache.DriverFile, "delete", key, err)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, strconv.FormatUint(xxhash.Sum64String(key), 16)+fileExt)
}
