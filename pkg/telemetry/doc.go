// Package telemetry groups the relay's observability.
//
// # Components
//
//   - logging: slog setup with token redaction and request-scoped fields
//   - metrics: Prometheus collector for relays, polls, upstream attempts and
//     pending results
//   - tracing: OpenTelemetry spans for relays and upstream calls, with trace
//     context propagated to providers
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.Setup(cfg.Telemetry.Logging, os.Stderr)
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(ctx)
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	orchestrator.WithObserver(collector)
//
//	checker := health.New(5 * time.Second)
//	checker.Register("providers", health.ProvidersCheck(registry))
package telemetry
