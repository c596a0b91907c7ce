package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks per-provider request activity.
//
// Metrics:
//   - assistant_provider_requests_total: requests dispatched per provider/model
//   - assistant_provider_errors_total: failures by error kind
//   - assistant_provider_latency_seconds: round-trip latency
//   - assistant_provider_health: reachability (1=healthy, 0=unhealthy)
//   - assistant_token_refreshes_total: token-cache exchanges per provider
type ProviderMetrics struct {
	requests     *prometheus.CounterVec
	errors       *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	health       *prometheus.GaugeVec
	tokenRefresh *prometheus.CounterVec
}

// Options configures metric naming.
type Options struct {
	// Namespace prefixes every metric name. Defaults to "assistant".
	Namespace string
}

// NewProviderMetrics creates and registers provider metrics with registry.
func NewProviderMetrics(opts Options, registry *prometheus.Registry) *ProviderMetrics {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "assistant"
	}

	pm := &ProviderMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of requests dispatched to each provider",
			},
			[]string{"provider", "model"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of provider failures by kind",
			},
			[]string{"provider", "kind"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_latency_seconds",
				Help:      "Provider round-trip latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"provider", "model"},
		),
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_health",
				Help:      "Provider reachability (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),
		tokenRefresh: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Total number of access-token exchanges per provider",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(pm.requests, pm.errors, pm.latency, pm.health, pm.tokenRefresh)
	return pm
}

// RecordRequest records one dispatched request.
func (pm *ProviderMetrics) RecordRequest(provider, model string) {
	pm.requests.WithLabelValues(provider, model).Inc()
}

// RecordError records one failure. kind is the outcome or error class
// (http_error, connection_error, parse_error, remote_error, cancelled).
func (pm *ProviderMetrics) RecordError(provider, kind string) {
	pm.errors.WithLabelValues(provider, kind).Inc()
}

// RecordLatency records one round-trip.
func (pm *ProviderMetrics) RecordLatency(provider, model string, seconds float64) {
	pm.latency.WithLabelValues(provider, model).Observe(seconds)
}

// UpdateHealth updates the reachability gauge.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordTokenRefresh records one token-cache exchange.
func (pm *ProviderMetrics) RecordTokenRefresh(provider string) {
	pm.tokenRefresh.WithLabelValues(provider).Inc()
}
