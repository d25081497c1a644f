package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/items"
	"insider-hq/relay/pkg/providers"
	"insider-hq/relay/pkg/registry"
	"insider-hq/relay/pkg/relay"
	"insider-hq/relay/pkg/security/crypto"
	"insider-hq/relay/pkg/server"
	"insider-hq/relay/pkg/telemetry/health"
	"insider-hq/relay/pkg/telemetry/metrics"
	"insider-hq/relay/pkg/tokens"
)

// readinessTimeout bounds each readiness check.
const readinessTimeout = 5 * time.Second

// app holds the wired components of a running relay.
type app struct {
	registry     *registry.Manager
	store        items.Store
	scheduler    *items.Scheduler
	orchestrator *relay.Orchestrator
	metrics      *metrics.Collector
	server       *server.Server
}

// newApp wires the relay from cfg. The returned app owns the item store and
// the worker pool; release them with close.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	reg, err := registry.NewManagerFromConfig(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to load providers: %w", err)
	}

	svc, err := loadCrypto(cfg.Crypto)
	if err != nil {
		return nil, err
	}
	var (
		enc crypto.Encrypter
		dec tokens.Decrypter
	)
	if svc != nil {
		enc, dec = svc, svc
	}

	store, err := items.Open(ctx, cfg.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to open item store: %w", err)
	}
	if _, err := items.Seed(ctx, store, cfg.Items.Seed, enc); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to seed item store: %w", err)
	}

	a := &app{registry: reg, store: store}

	if m, ok := store.(items.Maintainer); ok && cfg.Items.MaintenanceSchedule != "" {
		a.scheduler = items.NewScheduler(m, cfg.Items.MaintenanceSchedule)
		if err := a.scheduler.Start(ctx); err != nil {
			slog.Warn("failed to start item store maintenance", "error", err)
			a.scheduler = nil
		}
	}

	upstream := providers.NewRetryingProvider(providers.NewHTTPClient(), tokens.NewResolver(store, dec))
	a.orchestrator = relay.NewOrchestrator(reg, upstream, relay.OptionsFromConfig(cfg.Relay))

	checker := health.New(readinessTimeout)
	checker.Register("providers", health.ProvidersCheck(reg))
	checker.Register("items", health.StoreCheck[*items.Item](store))

	deps := server.Dependencies{
		Relayer:   a.orchestrator,
		Items:     store,
		Encrypter: enc,
		Providers: reg,
		Health:    checker,
		Version:   versionInfo(),
	}

	if cfg.Telemetry.Metrics.IsEnabled() {
		a.metrics = metrics.NewCollector(cfg.Telemetry.Metrics, nil)
		upstream.WithObserver(a.metrics)
		a.orchestrator.WithObserver(a.metrics)
		deps.Recorder = a.metrics
		deps.Metrics = a.metrics.Handler()
		deps.MetricsPath = cfg.Telemetry.Metrics.Path
	}

	a.server = server.NewServer(&cfg.Server, deps)
	return a, nil
}

// reload applies a changed configuration. Only the provider set is swapped;
// server and store settings need a restart.
func (a *app) reload(cfg *config.Config) {
	if err := a.registry.Load(cfg.Providers); err != nil {
		slog.Error("provider reload failed, keeping previous providers", "error", err)
		return
	}
	slog.Info("providers reloaded",
		"providers", a.registry.ProviderCount(),
		"enabled", a.registry.EnabledCount(),
	)
}

func (a *app) close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.orchestrator.Close()
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close item store", "error", err)
	}
}
