package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultCORSMaxAge      = 3600

	// Relay defaults
	DefaultWaitTimeout    = 20 * time.Second
	DefaultCacheKeepAlive = 120 * time.Second
	DefaultMaxConcurrency = 64

	// Provider defaults. Attempts and timeout are also upper bounds.
	DefaultConnectionAttempts = 3
	DefaultConnectionTimeout  = 20 * time.Second

	// Items defaults
	DefaultItemsBackend        = "memory"
	DefaultSQLitePath          = "data/items.db"
	DefaultSQLiteDriver        = "sqlite"
	DefaultSQLiteBusyTimeout   = 5 * time.Second
	DefaultRedisAddress        = "localhost:6379"
	DefaultRedisPrefix         = "relay:items:"
	DefaultMaintenanceSchedule = "0 4 * * *"

	// Secrets defaults
	DefaultSecretsEnvPrefix = "RELAY_SECRET_"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "insider"
	DefaultMetricsSubsystem   = "relay"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingService     = "insider-relay"
)

// DefaultLatencyBuckets are histogram buckets (seconds) sized around the
// 20 second provider timeout.
var DefaultLatencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 60}

// ApplyDefaults fills every unset field of cfg with its default value.
// Values that are already set are left untouched.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyRelayDefaults(&cfg.Relay)
	for i := range cfg.Providers {
		applyProviderDefaults(&cfg.Providers[i])
	}
	applyItemsDefaults(&cfg.Items)
	if cfg.Secrets.EnvPrefix == "" {
		cfg.Secrets.EnvPrefix = DefaultSecretsEnvPrefix
	}
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxHeaderBytes == 0 {
		s.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if len(s.CORS.AllowedMethods) == 0 {
		s.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	}
	if len(s.CORS.AllowedHeaders) == 0 {
		s.CORS.AllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if s.CORS.MaxAge == 0 {
		s.CORS.MaxAge = DefaultCORSMaxAge
	}
}

func applyRelayDefaults(r *RelayConfig) {
	if r.WaitTimeout == 0 {
		r.WaitTimeout = DefaultWaitTimeout
	}
	if r.CacheKeepAlive == 0 {
		r.CacheKeepAlive = DefaultCacheKeepAlive
	}
	if r.MaxConcurrency == 0 {
		r.MaxConcurrency = DefaultMaxConcurrency
	}
}

func applyProviderDefaults(p *ProviderConfig) {
	if p.ConnectionAttempts == 0 {
		p.ConnectionAttempts = DefaultConnectionAttempts
	}
	if p.ConnectionTimeout == 0 {
		p.ConnectionTimeout = DefaultConnectionTimeout
	}
}

func applyItemsDefaults(i *ItemsConfig) {
	if i.Backend == "" {
		i.Backend = DefaultItemsBackend
	}
	if i.SQLite.Path == "" {
		i.SQLite.Path = DefaultSQLitePath
	}
	if i.SQLite.Driver == "" {
		i.SQLite.Driver = DefaultSQLiteDriver
	}
	if i.SQLite.BusyTimeout == 0 {
		i.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if i.Redis.Address == "" {
		i.Redis.Address = DefaultRedisAddress
	}
	if i.Redis.Prefix == "" {
		i.Redis.Prefix = DefaultRedisPrefix
	}
	if i.MaintenanceSchedule == "" && i.Backend == "sqlite" {
		i.MaintenanceSchedule = DefaultMaintenanceSchedule
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Logging.RedactSecrets == nil {
		enabled := true
		t.Logging.RedactSecrets = &enabled
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.LatencyBuckets) == 0 {
		t.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 && t.Tracing.Sampler == DefaultTracingSampler {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingService
	}
}
