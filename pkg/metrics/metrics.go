// Package metrics exports repository cache and queue events as Prometheus
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-entity-repository/cache"
	"github.com/goliatone/go-entity-repository/queue"
	"github.com/goliatone/go-entity-repository/repositorycache"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "entity_repository"

// Collector implements repositorycache.Observer and queue.Observer.
type Collector struct {
	cacheRequests *prometheus.CounterVec
	cacheErrors   *prometheus.CounterVec
	evictions     *prometheus.CounterVec
	rewarms       *prometheus.CounterVec
	jobsEnqueued  *prometheus.CounterVec
	jobsCompleted *prometheus.CounterVec
	jobAttempts   *prometheus.HistogramVec
}

var (
	_ repositorycache.Observer = (*Collector)(nil)
	_ queue.Observer           = (*Collector)(nil)
)

// New creates the collector and registers its metrics with reg. An empty
// namespace uses DefaultNamespace. Registering twice under the same namespace
// fails.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cached reads by entity, method and result.",
		}, []string{"entity", "method", "result"}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Cache backend failures absorbed by repositories.",
		}, []string{"entity", "method"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Cache evictions by entity and scope.",
		}, []string{"entity", "scope"}),
		rewarms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "rewarms_total",
			Help:      "Rewarm jobs handed to the queue by entity, method and result.",
		}, []string{"entity", "method", "result"}),
		jobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_enqueued_total",
			Help:      "Jobs offered to the queue by name and result.",
		}, []string{"job", "result"}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "jobs_completed_total",
			Help:      "Finished jobs by name and result.",
		}, []string{"job", "result"}),
		jobAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "job_attempts",
			Help:      "Runs needed to finish a job.",
			Buckets:   []float64{1, 2, 3, 5, 10},
		}, []string{"job"}),
	}

	for _, collector := range []prometheus.Collector{
		c.cacheRequests,
		c.cacheErrors,
		c.evictions,
		c.rewarms,
		c.jobsEnqueued,
		c.jobsCompleted,
		c.jobAttempts,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Collector) CacheHit(entity string, method cache.Method) {
	c.cacheRequests.WithLabelValues(entity, method.String(), "hit").Inc()
}

func (c *Collector) CacheMiss(entity string, method cache.Method) {
	c.cacheRequests.WithLabelValues(entity, method.String(), "miss").Inc()
}

func (c *Collector) CacheError(entity string, method cache.Method, _ error) {
	c.cacheErrors.WithLabelValues(entity, method.String()).Inc()
}

func (c *Collector) Evicted(entity string, scope repositorycache.EvictionScope) {
	c.evictions.WithLabelValues(entity, string(scope)).Inc()
}

func (c *Collector) RewarmEnqueued(entity string, method cache.Method, err error) {
	c.rewarms.WithLabelValues(entity, method.String(), result(err, "enqueued", "rejected")).Inc()
}

func (c *Collector) JobEnqueued(name string, err error) {
	c.jobsEnqueued.WithLabelValues(name, result(err, "accepted", "rejected")).Inc()
}

func (c *Collector) JobCompleted(name string, attempts int, err error) {
	c.jobsCompleted.WithLabelValues(name, result(err, "success", "failure")).Inc()
	c.jobAttempts.WithLabelValues(name).Observe(float64(attempts))
}

func result(err error, ok, failed string) string {
	if err != nil {
		return failed
	}
	return ok
}
