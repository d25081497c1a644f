// Package tracing wires OpenTelemetry into the relay.
//
// New installs a global tracer provider exporting over OTLP gRPC, with a
// parent-based sampler ("always", "never" or "ratio"). Instrumented packages
// obtain their tracer through otel.Tracer(InstrumentationName), so they work
// unchanged, as noops, when tracing is disabled.
//
// Inbound requests are joined to remote traces by HTTPMiddleware. Upstream
// calls carry the context onward with Inject.
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    sampler: ratio
//	    sample_ratio: 0.1
//	    endpoint: otel-collector:4317
//	    insecure: true
package tracing
