package di

import (
	"context"
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-entity-repository/cache"
	"github.com/goliatone/go-entity-repository/internal/cacheinfra"
	"github.com/goliatone/go-entity-repository/pkg/config"
	"github.com/goliatone/go-entity-repository/pkg/logging"
	"github.com/goliatone/go-entity-repository/pkg/metrics"
	"github.com/goliatone/go-entity-repository/queue"
	"github.com/goliatone/go-entity-repository/repositorycache"
	"github.com/goliatone/go-entity-repository/storage"
)

// Container provides dependency injection for the components shared by
// cached repositories. It owns a single cache store, rewarm worker pool,
// logger and optional metrics collector, and provides a factory for
// repositories wired to them.
type Container struct {
	config  config.Config
	logger  zerolog.Logger
	store   cache.Store
	pool    *queue.WorkerPool
	metrics *metrics.Collector
	// ownsStore is false for stores supplied through WithStore.
	ownsStore bool

	closeOnce sync.Once
	closeErr  error
}

// Option customizes a Container.
type Option func(*containerOptions)

type containerOptions struct {
	logger     *zerolog.Logger
	registerer prometheus.Registerer
	store      cache.Store
}

// WithLogger replaces the logger built from the log section.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *containerOptions) { o.logger = &logger }
}

// WithRegisterer sets where metrics are registered when they are enabled.
// Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *containerOptions) { o.registerer = reg }
}

// WithStore uses store instead of building the configured driver. The
// container does not close a store it did not build.
func WithStore(store cache.Store) Option {
	return func(o *containerOptions) { o.store = store }
}

// NewContainer creates a new DI container from cfg. It validates cfg, builds
// the cache driver selected by cfg.Cache.Driver and the rewarm worker pool.
// The pool buffers jobs until Start is called.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	o := containerOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Log)
	if o.logger != nil {
		logger = *o.logger
	}

	c := &Container{config: cfg, logger: logger}

	if cfg.Metrics.Enabled {
		reg := o.registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		collector, err := metrics.New(reg, cfg.Metrics.Namespace)
		if err != nil {
			return nil, err
		}
		c.metrics = collector
	}

	store := o.store
	if store == nil {
		built, err := cacheinfra.NewStore(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		store = built
		c.ownsStore = true
	}
	c.store = store

	queueOpts := []queue.Option{queue.WithLogger(logger)}
	if c.metrics != nil {
		queueOpts = append(queueOpts, queue.WithObserver(c.metrics))
	}
	pool, err := queue.NewWorkerPool(cfg.Queue, queueOpts...)
	if err != nil {
		_ = c.closeStore()
		return nil, err
	}
	c.pool = pool

	logger.Debug().
		Str("driver", store.Driver()).
		Bool("metrics", c.metrics != nil).
		Int("workers", cfg.Queue.Workers).
		Msg("container ready")

	return c, nil
}

// NewContainerWithDefaults creates a new DI container using config.Default.
// This is a convenience constructor for typical use cases where custom
// configuration is not required.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	return NewContainer(ctx, config.Default(), opts...)
}

// Start launches the rewarm workers.
func (c *Container) Start(ctx context.Context) error {
	return c.pool.Start(ctx)
}

// Close stops the worker pool, waiting for queued rewarms until ctx is done,
// then releases the cache driver. Calling Close more than once returns the
// result of the first call.
func (c *Container) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		stopErr := c.pool.Stop(ctx)
		closeErr := c.closeStore()
		if stopErr != nil {
			c.closeErr = stopErr
			return
		}
		c.closeErr = closeErr
	})
	return c.closeErr
}

func (c *Container) closeStore() error {
	if !c.ownsStore {
		return nil
	}
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Store returns the shared cache store.
func (c *Container) Store() cache.Store { return c.store }

// Queue returns the shared rewarm worker pool.
func (c *Container) Queue() *queue.WorkerPool { return c.pool }

func (c *Container) Logger() zerolog.Logger { return c.logger }

// Metrics returns the collector, or nil when metrics are disabled.
func (c *Container) Metrics() *metrics.Collector { return c.metrics }

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config { return c.config }

// NewRepository creates a cached repository over backend that shares the
// container's store, queue, logger, metrics and TTL. opts are applied last
// and may override any of them.
//
// Since Go methods cannot have type parameters, this is provided as a
// package-level function.
// Example: NewRepository[User](container, userStorage)
func NewRepository[T any](c *Container, backend storage.Storage[T], opts ...repositorycache.Option) (*repositorycache.Repository[T], error) {
	base := []repositorycache.Option{
		repositorycache.WithQueue(c.pool),
		repositorycache.WithLogger(c.logger),
		repositorycache.WithTTL(c.config.Cache.EffectiveTTL()),
	}
	if c.metrics != nil {
		base = append(base, repositorycache.WithObserver(c.metrics))
	}
	return repositorycache.New(backend, c.store, append(base, opts...)...)
}
