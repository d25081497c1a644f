// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
// The server chains middleware in this order, outermost first:
//
//	handler = Recovery(RequestID(Logging(Tracing(CORS(NoCache(handler))))))
//
// Recovery is outermost so that a panic anywhere below it is turned into a
// 500 {"error": ...} response and logged with its stack. RequestID wraps
// Logging so the "request completed" record carries the request_id.
//
// # Middleware Types
//
// Request tracking:
//   - RequestIDMiddleware: accept or generate X-Request-ID, store it in the context
//   - LoggingMiddleware: log method, path, status and latency of every request
//
// Responses:
//   - CORSMiddleware: answer preflights and add CORS headers for the authoring UI
//   - NoCacheMiddleware: mark responses as not cacheable
//   - RecoveryMiddleware: recover from panics, return 500
package middleware
