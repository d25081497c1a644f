package providers

import (
	"strings"
	"time"

	"insider-hq/relay/pkg/config"
)

// Upper bounds applied to provider settings at construction time.
const (
	MaxAttempts = config.DefaultConnectionAttempts
	MaxTimeout  = config.DefaultConnectionTimeout
)

// EmptyJSON is the canonical response of a dry run.
const EmptyJSON = "{}"

// Provider is an upstream HTTP endpoint able to answer a relay request.
// A Provider is immutable once built; the registry swaps whole values on reload.
type Provider struct {
	// ID identifies the provider in POST /relay/{id}.
	ID string

	// URL is the endpoint receiving the payload.
	URL string

	// Token is the configured bearer token. It may be blank, a placeholder,
	// or an "enc_" ciphertext resolved per request.
	Token string

	// Proxy is an optional forward proxy URL.
	Proxy string

	// SkipTLSVerify disables certificate verification.
	SkipTLSVerify bool

	// MaxAttempts is the number of sequential attempts, in [1, MaxAttempts].
	MaxAttempts int

	// Timeout applies to connect, request queueing and socket read, in (0, MaxTimeout].
	Timeout time.Duration

	// Enabled reports whether the provider may be looked up.
	Enabled bool
}

// FromConfig builds a Provider from its configuration, clamping the attempt
// count and timeout to their maxima.
func FromConfig(cfg config.ProviderConfig) *Provider {
	return &Provider{
		ID:            strings.TrimSpace(cfg.ID),
		URL:           cfg.URL,
		Token:         cfg.Token,
		Proxy:         cfg.Proxy,
		SkipTLSVerify: cfg.SkipSSL,
		MaxAttempts:   clampAttempts(cfg.ConnectionAttempts),
		Timeout:       clampTimeout(cfg.ConnectionTimeout),
		Enabled:       cfg.IsEnabled(),
	}
}

func clampAttempts(n int) int {
	if n < 1 {
		return 1
	}
	return min(n, MaxAttempts)
}

func clampTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return MaxTimeout
	}
	return min(d, MaxTimeout)
}

// Request is a single inbound relay call.
type Request struct {
	// ProviderID names the target provider.
	ProviderID string

	// Payload is forwarded verbatim as the request body.
	Payload []byte

	// Params holds the query/form parameters of the inbound call.
	// "_path" names a configuration item that may override the token.
	Params map[string]string

	// DryRun short-circuits the call with EmptyJSON.
	DryRun bool
}

// Param returns the named parameter or "".
func (r *Request) Param(name string) string {
	if r == nil || r.Params == nil {
		return ""
	}
	return r.Params[name]
}

// StatusResponse is the outcome of a relay call as seen by the HTTP caller.
type StatusResponse struct {
	Status int
	Body   string
}

// IsError reports whether the response carries an error status.
func (s StatusResponse) IsError() bool {
	return s.Status >= 400
}
