// Package metrics exposes the dashboard's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors shared by middleware and the proxies
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec
}

// New creates a metrics bundle backed by its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eggsplain_front_requests_total",
			Help: "HTTP requests handled, by route group, method and status.",
		}, []string{"group", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eggsplain_front_request_duration_seconds",
			Help:    "HTTP request latency, by route group.",
			Buckets: prometheus.DefBuckets,
		}, []string{"group"}),
		UpstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eggsplain_front_upstream_errors_total",
			Help: "Failures reaching the eggsplain backend, by proxy and kind.",
		}, []string{"proxy", "kind"}),
	}
}

// Handler serves the /metrics endpoint for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
