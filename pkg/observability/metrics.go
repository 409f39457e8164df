package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of one process. Metrics live in a
// private registry so several collectors can coexist in tests.
// All recording methods are safe on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	CacheLookups       *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec

	NotificationsEnqueued  *prometheus.CounterVec
	NotificationsProcessed *prometheus.CounterVec
}

// NewCollector creates and registers every metric under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by entity kind, key scope and result",
		}, []string{"kind", "scope", "result"}),
		CacheInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Cache invalidations attempted after writes",
		}, []string{"kind", "result"}),
		NotificationsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_enqueued_total",
			Help:      "Notification enqueue attempts",
		}, []string{"type", "result"}),
		NotificationsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_processed_total",
			Help:      "Notification messages processed by the consumer",
		}, []string{"type", "outcome"}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheLookups,
		c.CacheInvalidations,
		c.NotificationsEnqueued,
		c.NotificationsProcessed,
		collectors.NewGoCollector(),
	)
	return c
}

// Handler exposes the registry for scraping.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordCacheLookup(kind, scope, result string) {
	if c == nil {
		return
	}
	c.CacheLookups.WithLabelValues(kind, scope, result).Inc()
}

func (c *Collector) RecordInvalidation(kind, result string) {
	if c == nil {
		return
	}
	c.CacheInvalidations.WithLabelValues(kind, result).Inc()
}

func (c *Collector) RecordEnqueue(msgType, result string) {
	if c == nil {
		return
	}
	c.NotificationsEnqueued.WithLabelValues(msgType, result).Inc()
}

func (c *Collector) RecordProcessed(msgType, outcome string) {
	if c == nil {
		return
	}
	c.NotificationsProcessed.WithLabelValues(msgType, outcome).Inc()
}
