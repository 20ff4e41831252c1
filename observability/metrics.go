// Package observability provides Prometheus instrumentation for the HTTP API.
//
// Metrics are registered on a caller supplied registerer so that tests and
// multiple servers in one process do not collide on the global registry.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace for all metrics
const metricsNamespace = "fritter"

// HTTPMetrics holds the request and reaction metrics of the API.
type HTTPMetrics struct {
	// RequestsTotal counts handled requests.
	// Labels: method, route (gin route pattern), status
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures handler latency.
	// Labels: method, route
	RequestDurationSeconds *prometheus.HistogramVec

	// ReactionsTotal counts reaction transitions.
	// Labels: kind (freet, comment), result (up, down, none)
	ReactionsTotal *prometheus.CounterVec
}

// NewHTTPMetrics creates the metrics and registers them on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by method and route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ReactionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "reactions",
				Name:      "transitions_total",
				Help:      "Total number of reaction transitions by target kind and resulting reaction",
			},
			[]string{"kind", "result"},
		),
	}
}

// ObserveRequest records one handled request. Safe on a nil receiver.
func (m *HTTPMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDurationSeconds.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveReaction records one reaction transition. Safe on a nil receiver.
func (m *HTTPMetrics) ObserveReaction(kind, result string) {
	if m == nil {
		return
	}
	m.ReactionsTotal.WithLabelValues(kind, result).Inc()
}

// Handler exposes the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
