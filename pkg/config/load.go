package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "RELAY_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and applies defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RELAY_SECTION_FIELD (e.g., RELAY_SERVER_LISTEN_ADDRESS) and always
// take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	applyEnvOverrides(cfg)
	// Overrides may have added providers or changed the backend.
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	setString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	setDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setBool("SERVER_CORS_ENABLED", &cfg.Server.CORS.Enabled)
	if val := os.Getenv(EnvPrefix + "SERVER_CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.Server.CORS.AllowedOrigins = splitList(val)
	}

	// Relay overrides
	setDuration("RELAY_WAIT_TIMEOUT", &cfg.Relay.WaitTimeout)
	setDuration("RELAY_CACHE_KEEP_ALIVE", &cfg.Relay.CacheKeepAlive)
	setInt("RELAY_MAX_CONCURRENCY", &cfg.Relay.MaxConcurrency)
	setBool("RELAY_DRY_RUN", &cfg.Relay.DryRun)

	for i := range cfg.Providers {
		applyProviderEnvOverrides(&cfg.Providers[i])
	}

	// Items overrides
	setString("ITEMS_BACKEND", &cfg.Items.Backend)
	setString("ITEMS_SQLITE_PATH", &cfg.Items.SQLite.Path)
	setString("ITEMS_SQLITE_DRIVER", &cfg.Items.SQLite.Driver)
	setString("ITEMS_REDIS_ADDRESS", &cfg.Items.Redis.Address)
	setString("ITEMS_REDIS_PASSWORD", &cfg.Items.Redis.Password)
	setInt("ITEMS_REDIS_DB", &cfg.Items.Redis.DB)
	setString("ITEMS_MAINTENANCE_SCHEDULE", &cfg.Items.MaintenanceSchedule)

	// Crypto and secrets overrides
	setString("CRYPTO_KEY_FILE", &cfg.Crypto.KeyFile)
	setString("CRYPTO_KEY", &cfg.Crypto.Key)
	setString("SECRETS_DIRECTORY", &cfg.Secrets.Directory)

	// Telemetry overrides
	setString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	setString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = &b
		}
	}
	setString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	setBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	setString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

// applyProviderEnvOverrides applies overrides for a configured provider.
// Variables follow RELAY_PROVIDERS_<ID>_<FIELD>, where ID is upper-cased and
// every character outside [A-Z0-9] becomes an underscore.
func applyProviderEnvOverrides(p *ProviderConfig) {
	prefix := "PROVIDERS_" + envKey(p.ID) + "_"

	setString(prefix+"URL", &p.URL)
	setString(prefix+"TOKEN", &p.Token)
	setString(prefix+"PROXY", &p.Proxy)
	setBool(prefix+"SKIP_SSL", &p.SkipSSL)
	setInt(prefix+"CONNECTION_ATTEMPTS", &p.ConnectionAttempts)
	setDuration(prefix+"CONNECTION_TIMEOUT", &p.ConnectionTimeout)
	if val := os.Getenv(EnvPrefix + prefix + "ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			p.Enabled = &b
		}
	}
}

// SecretResolver expands ${secret:name} references.
type SecretResolver interface {
	ResolveReferences(ctx context.Context, value string) (string, error)
}

// ResolveSecrets replaces secret references in the secret-bearing fields of cfg:
// provider tokens, provider proxies, the crypto key and the Redis password.
func ResolveSecrets(ctx context.Context, cfg *Config, resolver SecretResolver) error {
	if resolver == nil {
		return nil
	}

	resolve := func(field string, value *string) error {
		if !strings.Contains(*value, "${secret:") {
			return nil
		}
		resolved, err := resolver.ResolveReferences(ctx, *value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		*value = resolved
		return nil
	}

	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if err := resolve(fmt.Sprintf("providers[%s].token", p.ID), &p.Token); err != nil {
			return err
		}
		if err := resolve(fmt.Sprintf("providers[%s].proxy", p.ID), &p.Proxy); err != nil {
			return err
		}
	}
	if err := resolve("crypto.key", &cfg.Crypto.Key); err != nil {
		return err
	}
	return resolve("items.redis.password", &cfg.Items.Redis.Password)
}

func envKey(id string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(id) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func setBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
