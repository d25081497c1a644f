package config

import "time"

// Config is the root configuration structure for the relay.
// It contains the HTTP server settings, relay behaviour, the provider list,
// configuration item storage, cryptography, secrets and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and CORS.
	Server ServerConfig `yaml:"server"`

	// Relay controls how long inbound requests wait for a provider and how
	// long deferred results are kept.
	Relay RelayConfig `yaml:"relay"`

	// Providers is the ordered list of upstream service providers.
	// Lookup is by exact id; the first enabled provider with a given id wins.
	Providers []ProviderConfig `yaml:"providers"`

	// Items configures the store holding named configuration items
	// (tools and providers details, per-item token overrides).
	Items ItemsConfig `yaml:"items"`

	// Crypto configures the key used to encrypt and decrypt "enc_" tokens.
	Crypto CryptoConfig `yaml:"crypto"`

	// Secrets configures where ${secret:name} references are resolved from.
	Secrets SecretsConfig `yaml:"secrets"`

	// Telemetry contains configuration for logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed relay.wait_timeout or synchronous answers are cut off.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration for the
	// authoring UI.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins. ["*"] allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["GET", "POST", "PUT", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	// Default: ["Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// RelayConfig contains the relay orchestration settings.
type RelayConfig struct {
	// WaitTimeout is how long an inbound request waits for the provider
	// before being answered with a task id.
	// Default: 20s
	WaitTimeout time.Duration `yaml:"wait_timeout"`

	// CacheKeepAlive is how long a deferred task stays retrievable.
	// Default: 120s
	CacheKeepAlive time.Duration `yaml:"cache_keep_alive"`

	// MaxConcurrency bounds the worker pool running upstream calls.
	// Zero means unbounded.
	// Default: 64
	MaxConcurrency int `yaml:"max_concurrency"`

	// DryRun forces every request into dry-run mode.
	// Default: false
	DryRun bool `yaml:"dry_run"`
}

// ProviderConfig contains configuration for a single upstream provider.
type ProviderConfig struct {
	// ID identifies the provider in POST /relay/{id}. Required, unique.
	ID string `yaml:"id"`

	// Enabled controls whether the provider can be looked up.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// URL is the endpoint receiving the relayed payload. Required.
	URL string `yaml:"url"`

	// Token is the bearer token. May be an "enc_" ciphertext or a
	// ${secret:name} reference.
	Token string `yaml:"token"`

	// Proxy is an optional forward proxy URL.
	Proxy string `yaml:"proxy"`

	// SkipSSL disables TLS certificate verification for this provider.
	// Default: false
	SkipSSL bool `yaml:"skip_ssl"`

	// ConnectionAttempts is the number of attempts per request, capped at 3.
	// Default: 3
	ConnectionAttempts int `yaml:"connection_attempts"`

	// ConnectionTimeout applies to connect, request and socket read, capped at 20s.
	// Default: 20s
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// IsEnabled reports whether the provider is enabled. Providers are enabled
// unless explicitly switched off.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// ItemsConfig configures the configuration item store.
type ItemsConfig struct {
	// Backend selects the store: "memory", "sqlite" or "redis".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains settings for the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Redis contains settings for the Redis backend.
	Redis RedisConfig `yaml:"redis"`

	// MaintenanceSchedule is a cron expression for store maintenance
	// (WAL checkpoint and optimize for SQLite). Empty disables it.
	// Default: "0 4 * * *"
	MaintenanceSchedule string `yaml:"maintenance_schedule"`

	// Seed lists items loaded into the store at startup.
	Seed []ItemSeed `yaml:"seed"`
}

// ItemSeed is a configuration item declared in the config file.
type ItemSeed struct {
	Path    string         `yaml:"path"`
	Type    string         `yaml:"type"`
	ID      string         `yaml:"id"`
	Enabled *bool          `yaml:"enabled"`
	Title   string         `yaml:"title"`
	Icon    string         `yaml:"icon"`
	Details map[string]any `yaml:"details"`
}

// SQLiteConfig contains SQLite backend settings.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/items.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver: "sqlite" (pure Go) or
	// "sqlite3" (CGO).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RedisConfig contains Redis backend settings.
type RedisConfig struct {
	// Address is the host:port of the Redis server.
	// Default: "localhost:6379"
	Address string `yaml:"address"`

	// Password is the optional Redis password.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db"`

	// Prefix namespaces item keys.
	// Default: "relay:items:"
	Prefix string `yaml:"prefix"`
}

// CryptoConfig configures the token cryptography service.
type CryptoConfig struct {
	// KeyFile is a file holding a hex encoded 32 byte key.
	KeyFile string `yaml:"key_file"`

	// Key is a hex encoded 32 byte key; takes precedence over KeyFile.
	// Usually supplied as a ${secret:name} reference.
	Key string `yaml:"key"`
}

// SecretsConfig configures ${secret:name} resolution.
type SecretsConfig struct {
	// EnvPrefix is prepended to the upper-cased secret name when reading
	// environment variables.
	// Default: "RELAY_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Directory holds one file per secret. Empty disables file secrets.
	Directory string `yaml:"directory"`

	// Watch reloads file secrets when the directory changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks bearer tokens and encrypted tokens in log output.
	// Default: true
	RedactSecrets *bool `yaml:"redact_secrets"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "insider"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "relay"
	Subsystem string `yaml:"subsystem"`

	// LatencyBuckets defines histogram buckets in seconds.
	// Default: [0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 60]
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// IsEnabled reports whether metrics are enabled (default true).
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is one of "always", "never", "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds span exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is reported on every span.
	// Default: "insider-relay"
	ServiceName string `yaml:"service_name"`
}
