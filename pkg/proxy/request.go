package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"insider-hq/relay/pkg/items"
	"insider-hq/relay/pkg/providers"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (10MB).
	MaxRequestBodySize = 10 * 1024 * 1024

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"

	// DryRunParam switches a relay request into dry-run mode when "true".
	DryRunParam = "dryRun"
)

// ReadBody reads the request body up to MaxRequestBodySize.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > MaxRequestBodySize {
		return nil, &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", MaxRequestBodySize),
			Param:   "body",
		}
	}
	return body, nil
}

// ParseRelayRequest builds the provider request for POST /relay/{providerId}.
// The body is forwarded untouched. Query parameters become request params,
// first value wins; a form-encoded body contributes parameters as well.
func ParseRelayRequest(r *http.Request, providerID string) (*providers.Request, error) {
	body, err := ReadBody(r)
	if err != nil {
		return nil, err
	}

	params := make(map[string]string)
	if isForm(r) {
		if form, err := url.ParseQuery(string(body)); err == nil {
			mergeFirst(params, form)
		}
	}
	mergeFirst(params, r.URL.Query())

	return &providers.Request{
		ProviderID: strings.Trim(providerID, "/ "),
		Payload:    body,
		Params:     params,
		DryRun:     strings.EqualFold(params[DryRunParam], "true"),
	}, nil
}

// ParseItem decodes the body of PUT /relay/config/{kind}/{name}. The path
// always comes from the URL; a path in the body is ignored.
func ParseItem(r *http.Request, kind, name string) (*items.Item, error) {
	body, err := ReadBody(r)
	if err != nil {
		return nil, err
	}

	var in struct {
		Type    string         `json:"type"`
		ID      string         `json:"id"`
		Enabled *bool          `json:"enabled"`
		Title   string         `json:"title"`
		Icon    string         `json:"icon"`
		Details map[string]any `json:"details"`
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, &RequestError{Message: fmt.Sprintf("invalid JSON: %v", err), Param: "body"}
		}
	}

	if _, _, err := items.ParsePath(items.JoinPath(kind, name)); err != nil {
		return nil, &RequestError{Message: err.Error(), Param: "path"}
	}

	it := &items.Item{
		Path:    items.JoinPath(kind, name),
		Type:    in.Type,
		ID:      in.ID,
		Enabled: in.Enabled == nil || *in.Enabled,
		Title:   in.Title,
		Icon:    in.Icon,
		Details: in.Details,
	}
	return it, nil
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/x-www-form-urlencoded"
}

func mergeFirst(dst map[string]string, src url.Values) {
	for k, v := range src {
		if len(v) > 0 {
			dst[k] = v[0]
		}
	}
}
