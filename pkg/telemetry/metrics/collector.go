package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"insider-hq/relay/pkg/config"
)

// otherLabel replaces provider ids once the cardinality limit is reached.
const otherLabel = "other"

// Collector owns the relay's Prometheus metrics. A nil *Collector is valid and
// records nothing, so components can be built without metrics.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	relay    *RelayMetrics
	upstream *UpstreamMetrics
	cache    *CacheMetrics

	providers *CardinalityLimiter
}

// NewCollector registers all relay metrics on registry, or on a fresh
// registry when nil. Go runtime and process collectors are included.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = config.DefaultLatencyBuckets
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		config:    cfg,
		registry:  registry,
		relay:     NewRelayMetrics(cfg, registry),
		upstream:  NewUpstreamMetrics(cfg, registry),
		cache:     NewCacheMetrics(cfg, registry),
		providers: NewCardinalityLimiter(256),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.IsEnabled()
}

func (c *Collector) providerLabel(provider string) string {
	if provider == "" {
		return "none"
	}
	if !c.providers.Allow(provider) {
		return otherLabel
	}
	return provider
}

// RecordRelay records a finished POST /relay/{providerId} exchange.
func (c *Collector) RecordRelay(provider string, status int, detached bool, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.relay.RecordRelay(c.providerLabel(provider), strconv.Itoa(status), detached, duration)
}

// RecordPoll records a GET /relay/task/{taskId} exchange.
func (c *Collector) RecordPoll(status int) {
	if !c.enabled() {
		return
	}
	c.relay.RecordPoll(strconv.Itoa(status))
}

// TaskStarted and TaskFinished track relay tasks executing in the pool.
func (c *Collector) TaskStarted() {
	if !c.enabled() {
		return
	}
	c.relay.inFlight.Inc()
}

func (c *Collector) TaskFinished() {
	if !c.enabled() {
		return
	}
	c.relay.inFlight.Dec()
}

// ObserveAttempt records one upstream attempt.
func (c *Collector) ObserveAttempt(provider, outcome string, elapsed time.Duration) {
	if !c.enabled() {
		return
	}
	c.upstream.RecordAttempt(c.providerLabel(provider), outcome, elapsed)
}

// ObserveExhausted records a request whose attempts all failed.
func (c *Collector) ObserveExhausted(provider string) {
	if !c.enabled() {
		return
	}
	c.upstream.RecordExhausted(c.providerLabel(provider))
}

// ResultStored, ResultClaimed and ResultEvicted track the pending result cache.
func (c *Collector) ResultStored() {
	if !c.enabled() {
		return
	}
	c.cache.RecordStored()
}

func (c *Collector) ResultClaimed() {
	if !c.enabled() {
		return
	}
	c.cache.RecordClaimed()
}

func (c *Collector) ResultEvicted() {
	if !c.enabled() {
		return
	}
	c.cache.RecordEvicted()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// CardinalityLimiter caps the number of distinct values admitted for a label.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter admitting at most maxCardinality values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether value is already admitted or still fits under the limit.
func (cl *CardinalityLimiter) Allow(value string) bool {
	cl.mu.RLock()
	_, exists := cl.current[value]
	cl.mu.RUnlock()
	if exists {
		return true
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[value]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[value] = struct{}{}
	return true
}

// Count returns the number of admitted values.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
