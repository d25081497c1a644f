package handlers

import (
	"net/http"

	"insider-hq/relay/pkg/proxy"
	"insider-hq/relay/pkg/registry"
)

// ProvidersHandler answers GET /health/providers with the configured
// providers. Tokens are never included, only whether one is set.
type ProvidersHandler struct {
	directory ProviderDirectory
}

// NewProvidersHandler creates a providers handler.
func NewProvidersHandler(directory ProviderDirectory) *ProvidersHandler {
	return &ProvidersHandler{directory: directory}
}

// ServeHTTP implements http.Handler.
func (h *ProvidersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	proxy.WriteJSON(w, http.StatusOK, struct {
		Enabled   int                `json:"enabled"`
		Providers []registry.Summary `json:"providers"`
	}{
		Enabled:   h.directory.EnabledCount(),
		Providers: h.directory.Summaries(),
	})
}
