// Package health serves the relay's liveness and readiness probes.
//
// GET /health answers 200 while the process runs. GET /ready runs the
// registered checks concurrently, each bounded by the checker timeout, and
// answers 503 when any of them fails:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("providers", health.ProvidersCheck(registry))
//	checker.Register("items", health.StoreCheck[*items.Item](store))
//
//	mux.HandleFunc("GET /health", checker.LivenessHandler())
//	mux.HandleFunc("GET /ready", checker.ReadinessHandler())
package health
