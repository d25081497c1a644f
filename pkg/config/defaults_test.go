package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{
		Providers: []ProviderConfig{{ID: "p", URL: "https://p.example.com"}},
	}
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Relay.WaitTimeout != 20*time.Second {
		t.Errorf("WaitTimeout = %v, want 20s", cfg.Relay.WaitTimeout)
	}
	if cfg.Relay.CacheKeepAlive != 120*time.Second {
		t.Errorf("CacheKeepAlive = %v, want 120s", cfg.Relay.CacheKeepAlive)
	}
	if cfg.Providers[0].ConnectionAttempts != 3 {
		t.Errorf("ConnectionAttempts = %d, want 3", cfg.Providers[0].ConnectionAttempts)
	}
	if cfg.Providers[0].ConnectionTimeout != 20*time.Second {
		t.Errorf("ConnectionTimeout = %v, want 20s", cfg.Providers[0].ConnectionTimeout)
	}
	if cfg.Items.Backend != "memory" {
		t.Errorf("Items.Backend = %q, want memory", cfg.Items.Backend)
	}
	if cfg.Items.MaintenanceSchedule != "" {
		t.Errorf("memory backend should not get a maintenance schedule, got %q", cfg.Items.MaintenanceSchedule)
	}
	if cfg.Telemetry.Logging.RedactSecrets == nil || !*cfg.Telemetry.Logging.RedactSecrets {
		t.Error("expected secret redaction to default to true")
	}
	if !cfg.Telemetry.Metrics.IsEnabled() {
		t.Error("expected metrics to default to enabled")
	}
	if cfg.Telemetry.Tracing.SampleRatio != DefaultTracingSampleRatio {
		t.Errorf("SampleRatio = %v, want %v", cfg.Telemetry.Tracing.SampleRatio, DefaultTracingSampleRatio)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Relay: RelayConfig{WaitTimeout: time.Second, CacheKeepAlive: 2 * time.Second},
		Items: ItemsConfig{Backend: "sqlite"},
	}
	ApplyDefaults(cfg)

	if cfg.Relay.WaitTimeout != time.Second {
		t.Errorf("WaitTimeout overwritten: %v", cfg.Relay.WaitTimeout)
	}
	if cfg.Relay.CacheKeepAlive != 2*time.Second {
		t.Errorf("CacheKeepAlive overwritten: %v", cfg.Relay.CacheKeepAlive)
	}
	if cfg.Items.MaintenanceSchedule != DefaultMaintenanceSchedule {
		t.Errorf("expected sqlite maintenance schedule, got %q", cfg.Items.MaintenanceSchedule)
	}
}
