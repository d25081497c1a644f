package proxy

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"insider-hq/relay/pkg/providers"
)

// NoCache is the Cache-Control value set on every relay response.
const NoCache = "no-cache"

// WriteResponse writes resp as a JSON response. The body is written as is;
// relay bodies are already serialized.
func WriteResponse(w http.ResponseWriter, resp providers.StatusResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", NoCache)
	w.WriteHeader(resp.Status)
	if _, err := w.Write([]byte(resp.Body)); err != nil {
		slog.Debug("failed to write response", "status", resp.Status, "error", err)
	}
}

// WriteJSON encodes v as the JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		WriteError(w, ErrInternal)
		return
	}
	WriteResponse(w, providers.StatusResponse{Status: status, Body: string(body)})
}

// WriteError writes err in the {"error": "<message>"} envelope.
func WriteError(w http.ResponseWriter, err error) {
	WriteResponse(w, HandleError(err))
}
