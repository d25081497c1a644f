package middleware

import (
	"net/http"

	"insider-hq/relay/pkg/proxy"
)

// NoCacheMiddleware sets Cache-Control: no-cache before the handler runs, so
// that errors written by other middleware carry it too.
func NoCacheMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", proxy.NoCache)
		next.ServeHTTP(w, r)
	})
}
