package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"insider-hq/relay/pkg/config"
)

// RelayMetrics covers the inbound relay endpoints.
//
// Metrics:
//   - relay_requests_total{provider,code,detached}
//   - relay_request_duration_seconds{provider}
//   - relay_polls_total{code}
//   - relay_tasks_in_flight
type RelayMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	polls    *prometheus.CounterVec
	inFlight prometheus.Gauge
}

// NewRelayMetrics creates and registers the relay metrics.
func NewRelayMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RelayMetrics {
	rm := &RelayMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Relay requests by provider, response code and whether the result was deferred",
			},
			[]string{"provider", "code", "detached"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Time until the relay request was answered",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"provider"},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "polls_total",
				Help:      "Task poll requests by response code",
			},
			[]string{"code"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tasks_in_flight",
				Help:      "Relay tasks currently executing",
			},
		),
	}

	registry.MustRegister(rm.requests, rm.duration, rm.polls, rm.inFlight)
	return rm
}

// RecordRelay records one relay exchange.
func (rm *RelayMetrics) RecordRelay(provider, code string, detached bool, duration time.Duration) {
	rm.requests.WithLabelValues(provider, code, strconv.FormatBool(detached)).Inc()
	rm.duration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordPoll records one poll exchange.
func (rm *RelayMetrics) RecordPoll(code string) {
	rm.polls.WithLabelValues(code).Inc()
}
