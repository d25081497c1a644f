package relay

import (
	"encoding/json"
	"errors"
	"net/http"

	"insider-hq/relay/pkg/providers"
)

// Relay failures. The messages are part of the HTTP contract.
var (
	ErrProviderMissing  = errors.New("Service provider is not specified")
	ErrProviderNotFound = errors.New("Service provider is not found")
	ErrTaskNotSpecified = errors.New("Task is not specified")
	ErrTaskNotFound     = errors.New("Task is not found")
	ErrNoResult         = errors.New("No result retrieved")
	ErrInterrupted      = errors.New("No response of processing interrupted")
)

// StatusFor maps err onto the HTTP status returned to the caller. Anything
// not listed, provider failures included, is a 500.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrProviderMissing), errors.Is(err, ErrTaskNotSpecified):
		return http.StatusBadRequest
	case errors.Is(err, ErrProviderNotFound), errors.Is(err, ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoResult), errors.Is(err, ErrInterrupted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse renders err as {"error": "<message>"} with its mapped status.
func ErrorResponse(err error) providers.StatusResponse {
	body, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
	return providers.StatusResponse{Status: StatusFor(err), Body: string(body)}
}

// taskResponse renders {"task": "<id>"}.
func taskResponse(status int, taskID string) providers.StatusResponse {
	body, _ := json.Marshal(struct {
		Task string `json:"task"`
	}{Task: taskID})
	return providers.StatusResponse{Status: status, Body: string(body)}
}
