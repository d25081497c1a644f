package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"insider-hq/relay/pkg/config"
)

// UpstreamMetrics covers calls to configured providers.
//
// Metrics:
//   - upstream_attempts_total{provider,outcome}
//   - upstream_attempt_duration_seconds{provider}
//   - upstream_exhausted_total{provider}
type UpstreamMetrics struct {
	attempts  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	exhausted *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers the upstream metrics.
func NewUpstreamMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_attempts_total",
				Help:      "Upstream attempts by provider and outcome (success, timeout, transport_error)",
			},
			[]string{"provider", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_attempt_duration_seconds",
				Help:      "Duration of single upstream attempts",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"provider"},
		),
		exhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_exhausted_total",
				Help:      "Requests that failed after all attempts",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(um.attempts, um.latency, um.exhausted)
	return um
}

// RecordAttempt records a single attempt.
func (um *UpstreamMetrics) RecordAttempt(provider, outcome string, elapsed time.Duration) {
	um.attempts.WithLabelValues(provider, outcome).Inc()
	um.latency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordExhausted records an exhausted request.
func (um *UpstreamMetrics) RecordExhausted(provider string) {
	um.exhausted.WithLabelValues(provider).Inc()
}
