// Package metrics bundles the Prometheus collectors used across the server.
// A single Metrics value is created at startup and shared by the gateway and
// the tool layer; all record methods are safe on a nil receiver so tests can
// construct components without metrics plumbing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	toolInvocations  *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	tokenRefreshes   prometheus.Counter
}

// New creates a Metrics value backed by its own registry so tests can create
// as many instances as they need without duplicate-registration panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		toolInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spotify_mcp_tool_invocations_total",
			Help: "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		upstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spotify_mcp_upstream_requests_total",
			Help: "Outbound Spotify API requests by endpoint and status class.",
		}, []string{"endpoint", "status"}),
		upstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spotify_mcp_upstream_request_duration_seconds",
			Help:    "Latency of outbound Spotify API requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		tokenRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "spotify_mcp_token_refreshes_total",
			Help: "Client-credentials token refreshes performed.",
		}),
	}
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTool records one tool invocation with its outcome ("ok" or the
// error kind name).
func (m *Metrics) ObserveTool(tool, outcome string) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(tool, outcome).Inc()
}

// ObserveUpstream records one outbound request. endpoint is the logical path
// template (not the concrete URL, to bound cardinality) and status the HTTP
// status class or failure name.
func (m *Metrics) ObserveUpstream(endpoint, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamRequests.WithLabelValues(endpoint, status).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveTokenRefresh records one refresh against the authorization endpoint.
func (m *Metrics) ObserveTokenRefresh() {
	if m == nil {
		return
	}
	m.tokenRefreshes.Inc()
}
