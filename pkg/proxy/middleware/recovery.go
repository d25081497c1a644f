package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"insider-hq/relay/pkg/proxy"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and returns a 500
// response in the {"error": ...} envelope. The panic is logged with its stack
// trace; no internal details reach the client.
//
// http.ErrAbortHandler is re-panicked so the server can abort the connection
// as it expects.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			slog.ErrorContext(r.Context(), "panic in handler",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			proxy.WriteError(w, proxy.ErrInternal)
		}()

		next.ServeHTTP(w, r)
	})
}
