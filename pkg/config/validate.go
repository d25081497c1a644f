package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "relay.wait_timeout").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateRelay(&cfg.Relay)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateItems(&cfg.Items)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(s *ServerConfig) []FieldError {
	var errs []FieldError

	if s.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "must not be empty"})
	} else if !strings.Contains(s.ListenAddress, ":") {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "must be in host:port format"})
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "must not be negative"})
	}
	if s.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_header_bytes", Message: "must not be negative"})
	}

	return errs
}

func validateRelay(r *RelayConfig) []FieldError {
	var errs []FieldError

	if r.WaitTimeout <= 0 {
		errs = append(errs, FieldError{Field: "relay.wait_timeout", Message: "must be positive"})
	}
	if r.CacheKeepAlive <= 0 {
		errs = append(errs, FieldError{Field: "relay.cache_keep_alive", Message: "must be positive"})
	}
	if r.MaxConcurrency < 0 {
		errs = append(errs, FieldError{Field: "relay.max_concurrency", Message: "must not be negative"})
	}

	return errs
}

func validateProviders(providers []ProviderConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(providers))

	for i, p := range providers {
		field := fmt.Sprintf("providers[%d]", i)

		if strings.TrimSpace(p.ID) == "" {
			errs = append(errs, FieldError{Field: field + ".id", Message: "must not be blank"})
		} else if seen[p.ID] {
			errs = append(errs, FieldError{Field: field + ".id", Message: fmt.Sprintf("duplicate provider id %q", p.ID)})
		}
		seen[p.ID] = true

		if p.URL == "" {
			errs = append(errs, FieldError{Field: field + ".url", Message: "must not be empty"})
		} else if u, err := url.Parse(p.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{Field: field + ".url", Message: "must be an absolute http(s) URL"})
		}

		if p.ConnectionAttempts < 0 {
			errs = append(errs, FieldError{Field: field + ".connection_attempts", Message: "must not be negative"})
		}
		if p.ConnectionTimeout < 0 {
			errs = append(errs, FieldError{Field: field + ".connection_timeout", Message: "must not be negative"})
		}
		// A malformed proxy is tolerated at runtime and only logged.
	}

	return errs
}

func validateItems(i *ItemsConfig) []FieldError {
	var errs []FieldError

	switch i.Backend {
	case "memory", "redis":
	case "sqlite":
		if i.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "items.sqlite.path", Message: "must not be empty"})
		}
		if i.SQLite.Driver != "sqlite" && i.SQLite.Driver != "sqlite3" {
			errs = append(errs, FieldError{Field: "items.sqlite.driver", Message: "must be one of: sqlite, sqlite3"})
		}
	default:
		errs = append(errs, FieldError{Field: "items.backend", Message: "must be one of: memory, sqlite, redis"})
	}

	if i.MaintenanceSchedule != "" {
		if _, err := cron.ParseStandard(i.MaintenanceSchedule); err != nil {
			errs = append(errs, FieldError{Field: "items.maintenance_schedule", Message: fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}

	for n, seed := range i.Seed {
		if strings.Count(strings.Trim(seed.Path, "/"), "/") != 1 {
			errs = append(errs, FieldError{Field: fmt.Sprintf("items.seed[%d].path", n), Message: "must be <kind>/<name>"})
		}
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: "must be one of: debug, info, warn, error"})
	}
	switch strings.ToLower(t.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: "must be one of: json, text"})
	}

	if t.Metrics.IsEnabled() && !strings.HasPrefix(t.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	if t.Tracing.Enabled {
		switch t.Tracing.Sampler {
		case "always", "never":
		case "ratio":
			if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
				errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0.0 and 1.0"})
			}
		default:
			errs = append(errs, FieldError{Field: "telemetry.tracing.sampler", Message: "must be one of: always, never, ratio"})
		}
		if t.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "must not be empty"})
		}
	}

	return errs
}
