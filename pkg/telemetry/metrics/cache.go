package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"insider-hq/relay/pkg/config"
)

// CacheMetrics covers results parked for later polling.
type CacheMetrics struct {
	pending prometheus.Gauge
	stored  prometheus.Counter
	claimed prometheus.Counter
	evicted prometheus.Counter
}

// NewCacheMetrics creates and registers the pending result metrics.
func NewCacheMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: cfg.Namespace, Subsystem: cfg.Subsystem, Name: name, Help: help}
	}

	cm := &CacheMetrics{
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "pending_results",
			Help:      "Results waiting to be polled",
		}),
		stored:  prometheus.NewCounter(opts("results_stored_total", "Results parked under a task id")),
		claimed: prometheus.NewCounter(opts("results_claimed_total", "Parked results returned to a poller")),
		evicted: prometheus.NewCounter(opts("results_expired_total", "Parked results dropped after the keep-alive period")),
	}

	registry.MustRegister(cm.pending, cm.stored, cm.claimed, cm.evicted)
	return cm
}

func (cm *CacheMetrics) RecordStored() {
	cm.stored.Inc()
	cm.pending.Inc()
}

func (cm *CacheMetrics) RecordClaimed() {
	cm.claimed.Inc()
	cm.pending.Dec()
}

func (cm *CacheMetrics) RecordEvicted() {
	cm.evicted.Inc()
	cm.pending.Dec()
}
