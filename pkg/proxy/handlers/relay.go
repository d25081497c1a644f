package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"insider-hq/relay/pkg/proxy"
	"insider-hq/relay/pkg/relay"
)

// RelayHandler serves POST /relay/{providerId} and GET /relay/task/{taskId}.
type RelayHandler struct {
	relayer Relayer
	metrics Recorder
	logger  *slog.Logger
}

// NewRelayHandler creates a relay handler. A nil recorder disables metrics.
func NewRelayHandler(relayer Relayer, metrics Recorder) *RelayHandler {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &RelayHandler{
		relayer: relayer,
		metrics: metrics,
		logger:  slog.Default().With("component", "relay-handler"),
	}
}

// Register adds the relay routes to mux.
func (h *RelayHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /relay", h.HandleRelay)
	mux.HandleFunc("POST /relay/{provider...}", h.HandleRelay)
	mux.HandleFunc("GET /relay", h.HandlePoll)
	mux.HandleFunc("GET /relay/{suffix...}", h.HandlePoll)
}

// HandleRelay forwards the request body to the provider named by the rest
// of the path. The answer is the provider's response, a 202 {"task": id}
// when the provider is slow, or an error envelope.
func (h *RelayHandler) HandleRelay(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := proxy.ParseRelayRequest(r, r.PathValue("provider"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid relay request", "error", err)
		proxy.WriteError(w, err)
		return
	}

	resp := h.relayer.Relay(r.Context(), req)
	h.metrics.RecordRelay(req.ProviderID, resp.Status, resp.Status == http.StatusAccepted, time.Since(start))

	proxy.WriteResponse(w, resp)
}

// HandlePoll answers GET /relay/task/{taskId}. Any other GET below /relay
// is rejected with 400 "Task is not specified".
func (h *RelayHandler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	suffix := "/" + r.PathValue("suffix")

	var resp = relay.ErrorResponse(relay.ErrTaskNotSpecified)
	if strings.Contains(suffix, "/task/") {
		resp = h.relayer.Poll(suffix[strings.LastIndex(suffix, "/")+1:])
	}
	h.metrics.RecordPoll(resp.Status)

	proxy.WriteResponse(w, resp)
}
