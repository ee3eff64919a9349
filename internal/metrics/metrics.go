// Package metrics provides Prometheus metrics for the summary service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	// Upstream catalog calls
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// Summary pipeline
	SummariesBuilt     *prometheus.CounterVec
	StaleMergesTotal   prometheus.Counter
	IgnoredTestResults prometheus.Counter
	NotificationsTotal prometheus.Counter
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catsum_upstream_requests_total",
				Help: "Total number of catalog API requests",
			},
			[]string{"operation", "status"},
		),
		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catsum_upstream_request_duration_seconds",
				Help:    "Duration of catalog API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		SummariesBuilt: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catsum_summaries_built_total",
				Help: "Total number of summary view-models served",
			},
			[]string{"entity_type", "display_context"},
		),
		StaleMergesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "catsum_stale_merges_total",
			Help: "Async results discarded because the bound entity changed",
		}),
		IgnoredTestResults: factory.NewCounter(prometheus.CounterOpts{
			Name: "catsum_ignored_test_results_total",
			Help: "Test cases whose status matched no outcome counter",
		}),
		NotificationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "catsum_notifications_total",
			Help: "Non-blocking failure notifications raised",
		}),
	}
}

// ObserveUpstream records one catalog request.
func (m *Metrics) ObserveUpstream(operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(operation, status).Inc()
	m.UpstreamRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// SummaryBuilt records one served summary.
func (m *Metrics) SummaryBuilt(entityType, displayContext string) {
	if m == nil {
		return
	}
	m.SummariesBuilt.WithLabelValues(entityType, displayContext).Inc()
}

// StaleMerge records one discarded async result.
func (m *Metrics) StaleMerge() {
	if m == nil {
		return
	}
	m.StaleMergesTotal.Inc()
}

// IgnoredTestResult records one test case that hit no counter.
func (m *Metrics) IgnoredTestResult() {
	if m == nil {
		return
	}
	m.IgnoredTestResults.Inc()
}

// Notification records one raised notification.
func (m *Metrics) Notification() {
	if m == nil {
		return
	}
	m.NotificationsTotal.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
