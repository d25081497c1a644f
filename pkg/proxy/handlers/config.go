package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"insider-hq/relay/pkg/items"
	"insider-hq/relay/pkg/proxy"
	"insider-hq/relay/pkg/security/crypto"
)

// ConfigHandler serves the item listing used by the authoring UI and
// accepts item updates.
type ConfigHandler struct {
	store  ItemStore
	enc    crypto.Encrypter
	logger *slog.Logger
}

// NewConfigHandler creates a config handler. enc may be nil, in which case
// updates asking for encryption are refused.
func NewConfigHandler(store ItemStore, enc crypto.Encrypter) *ConfigHandler {
	return &ConfigHandler{
		store:  store,
		enc:    enc,
		logger: slog.Default().With("component", "config-handler"),
	}
}

// Register adds the config routes to mux.
func (h *ConfigHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /relay/config", h.HandleList)
	mux.HandleFunc("PUT /relay/config/{kind}/{name}", h.HandlePut)
}

// HandleList answers GET /relay/config with {"tools": [...], "providers": [...]}.
func (h *ConfigHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	listing, err := items.BuildListing(r.Context(), h.store)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list config items", "error", err)
		proxy.WriteError(w, err)
		return
	}
	proxy.WriteJSON(w, http.StatusOK, listing)
}

// HandlePut stores the item at /relay/config/{kind}/{name}. Details flagged
// with "<key>@encrypt" are encrypted before they reach the store. The
// response is the stored item as it appears in the listing.
func (h *ConfigHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	it, err := proxy.ParseItem(r, r.PathValue("kind"), r.PathValue("name"))
	if err != nil {
		proxy.WriteError(w, err)
		return
	}

	it.Details, err = items.SealDetails(it.Details, h.enc)
	if err != nil {
		if !errors.Is(err, items.ErrEncryptionUnavailable) {
			err = &proxy.RequestError{Message: err.Error(), Param: "details"}
		}
		h.logger.WarnContext(ctx, "config item rejected", "path", it.Path, "error", err)
		proxy.WriteError(w, err)
		return
	}

	if err := h.store.Put(ctx, it); err != nil {
		h.logger.ErrorContext(ctx, "failed to store config item", "path", it.Path, "error", err)
		proxy.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "config item stored", "path", it.Path, "enabled", it.Enabled)

	list, err := h.store.List(ctx, it.Kind())
	if err != nil {
		proxy.WriteError(w, err)
		return
	}
	for i, stored := range list {
		if stored.Path == it.Path {
			proxy.WriteJSON(w, http.StatusOK, items.NewEntry(stored, i))
			return
		}
	}
	proxy.WriteJSON(w, http.StatusOK, items.NewEntry(it, len(list)))
}
