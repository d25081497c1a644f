package proxy

import (
	"errors"
	"net/http"

	"insider-hq/relay/pkg/items"
	"insider-hq/relay/pkg/providers"
	"insider-hq/relay/pkg/relay"
)

// ErrInternal is reported to clients in place of errors that carry backend
// details.
var ErrInternal = errors.New("An internal error occurred")

// ErrMethodNotAllowed is returned for unsupported methods on relay paths.
var ErrMethodNotAllowed = errors.New("Method not allowed")

// HandleError converts err to a JSON error response with the matching
// status. Relay errors keep their own mapping; config store errors are
// mapped here. Unknown errors are reported as ErrInternal.
func HandleError(err error) providers.StatusResponse {
	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		return errorStatus(http.StatusBadRequest, reqErr.Message)
	case errors.Is(err, items.ErrInvalidPath):
		return errorStatus(http.StatusBadRequest, err.Error())
	case errors.Is(err, items.ErrNotFound):
		return errorStatus(http.StatusNotFound, items.ErrNotFound.Error())
	case errors.Is(err, items.ErrEncryptionUnavailable):
		return errorStatus(http.StatusServiceUnavailable, items.ErrEncryptionUnavailable.Error())
	case errors.Is(err, ErrMethodNotAllowed):
		return errorStatus(http.StatusMethodNotAllowed, ErrMethodNotAllowed.Error())
	case isRelayError(err):
		return relay.ErrorResponse(err)
	default:
		return errorStatus(http.StatusInternalServerError, ErrInternal.Error())
	}
}

func isRelayError(err error) bool {
	for _, target := range []error{
		relay.ErrProviderMissing,
		relay.ErrProviderNotFound,
		relay.ErrTaskNotSpecified,
		relay.ErrTaskNotFound,
		relay.ErrNoResult,
		relay.ErrInterrupted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func errorStatus(status int, msg string) providers.StatusResponse {
	resp := relay.ErrorResponse(errors.New(msg))
	resp.Status = status
	return resp
}
