// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the engine's counters. A nil *Metrics is a no-op so
// collaborators can run without a registry.
type Metrics struct {
	registry *prometheus.Registry

	jobsProcessed     prometheus.Counter
	jobsFailed        prometheus.Counter
	leaseExtensions   prometheus.Counter
	transformDuration prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		jobsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "transform_jobs_processed_total",
			Help: "Jobs that completed successfully.",
		}),
		jobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "transform_jobs_failed_total",
			Help: "Jobs that ended in the failed state.",
		}),
		leaseExtensions: factory.NewCounter(prometheus.CounterOpts{
			Name: "transform_lease_extensions_total",
			Help: "Successful in-flight lease extensions.",
		}),
		transformDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "transform_pipeline_duration_seconds",
			Help:    "Wall time of the transformation pipeline per job.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncProcessed() {
	if m != nil {
		m.jobsProcessed.Inc()
	}
}

func (m *Metrics) IncFailed() {
	if m != nil {
		m.jobsFailed.Inc()
	}
}

func (m *Metrics) IncLeaseExtensions() {
	if m != nil {
		m.leaseExtensions.Inc()
	}
}

func (m *Metrics) ObserveTransformSeconds(seconds float64) {
	if m != nil {
		m.transformDuration.Observe(seconds)
	}
}
