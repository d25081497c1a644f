// Package server runs the relay's HTTP server.
//
// The server mounts the relay, config, health and metrics routes on a
// standard library ServeMux using method patterns and wraps them in the
// middleware chain, outermost first:
//
//	Recovery → RequestID → Logging → Tracing → CORS → NoCache → mux
//
// # Lifecycle
//
//	srv := server.NewServer(&cfg.Server, deps)
//	if err := srv.Start(ctx); err != nil { ... }
//
// Start blocks until ctx is cancelled, Stop is called or the listener
// fails, then drains in-flight requests for at most
// server.shutdown_timeout. Relay tasks still running in the orchestrator
// are not affected; the caller closes the orchestrator after Start returns.
//
// Signal handling is left to the caller (see cli.SetupSignalHandler).
package server
