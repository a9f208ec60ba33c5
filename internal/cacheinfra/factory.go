// Package cacheinfra holds the cache drivers behind cache.Store.
package cacheinfra

import (
	"context"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-entity-repository/cache"
)

// NewStore builds the driver selected by cfg.Driver.
func NewStore(ctx context.Context, cfg cache.Config) (cache.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		store cache.Store
		err   error
	)

	switch cfg.Driver {
	case cache.DriverMemory:
		store, err = asStore(NewMemoryStore(cfg))
	case cache.DriverRedis:
		store, err = asStore(NewRedisStore(ctx, cfg))
	case cache.DriverFile:
		store, err = asStore(NewFileStore(cfg))
	default:
		err = goerrors.New("unknown cache driver "+cfg.Driver, goerrors.CategoryBadInput)
	}

	if err != nil {
		return nil, err
	}
	return store, nil
}

func asStore[S cache.Store](s S, err error) (cache.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
