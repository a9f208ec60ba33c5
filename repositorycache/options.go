package repositorycache

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-entity-repository/cache"
	"github.com/goliatone/go-entity-repository/queue"
)

// Option configures a Repository.
type Option func(*options)

type options struct {
	entity       string
	logger       zerolog.Logger
	queue        queue.Queue
	observer     Observer
	ttl          time.Duration
	singleFlight bool
	codec        cache.KeyCodec
}

func defaultOptions() options {
	return options{
		logger:   zerolog.Nop(),
		observer: NopObserver{},
		ttl:      cache.DefaultTTL,
		codec:    cache.NewKeyCodec(),
	}
}

// WithEntityName overrides the entity tag derived from the record type.
func WithEntityName(name string) Option {
	return func(o *options) { o.entity = name }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithQueue sets the queue rewarm jobs are sent to. Without it jobs run
// inline, after the write that triggered them.
func WithQueue(q queue.Queue) Option {
	return func(o *options) { o.queue = q }
}

func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithTTL sets the lifetime of cached reads. Non positive values keep the
// default of 24 hours.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithSingleFlight collapses concurrent misses of the same key within the
// process into one storage call. Callers then share the returned value.
func WithSingleFlight() Option {
	return func(o *options) { o.singleFlight = true }
}

func WithKeyCodec(codec cache.KeyCodec) Option {
	return func(o *options) {
		if codec != nil {
			o.codec = codec
		}
	}
}
