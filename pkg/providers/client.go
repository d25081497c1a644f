package providers

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"

	"insider-hq/relay/pkg/telemetry/tracing"
)

// UpstreamClient executes a single POST attempt against a provider.
type UpstreamClient interface {
	// Execute sends payload to p.URL and returns the response body.
	// Any HTTP status counts as a delivered response. Failures are
	// *TimeoutError or *TransportError.
	Execute(ctx context.Context, p *Provider, payload []byte, token string) (string, error)
}

// HTTPClient is the net/http implementation of UpstreamClient. It builds a
// fresh transport for every call and releases it on return.
type HTTPClient struct {
	// MaxResponseBytes caps the response body read into memory.
	// Zero means unlimited.
	MaxResponseBytes int64
}

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{}
}

// Execute implements UpstreamClient.
func (c *HTTPClient) Execute(ctx context.Context, p *Provider, payload []byte, token string) (string, error) {
	client, transport := newClient(p)
	defer transport.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Provider: p.ID, URL: p.URL, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	tracing.Inject(ctx, req.Header)

	resp, err := client.Do(req)
	if err != nil {
		return "", classify(p, err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if c.MaxResponseBytes > 0 {
		body = io.LimitReader(resp.Body, c.MaxResponseBytes)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return "", classify(p, err)
	}

	slog.DebugContext(ctx, "upstream responded",
		"provider", p.ID,
		"status", resp.StatusCode,
		"bytes", len(content),
	)

	return string(content), nil
}

// newClient builds the per-call client. The same timeout bounds dialing, the
// TLS handshake, waiting for response headers and the whole exchange.
func newClient(p *Provider) (*http.Client, *http.Transport) {
	dialer := &net.Dialer{Timeout: p.Timeout}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   p.Timeout,
		ResponseHeaderTimeout: p.Timeout,
		DisableKeepAlives:     true,
		ForceAttemptHTTP2:     true,
	}

	if p.SkipTLSVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicit per-provider opt-in
	}

	if proxyURL := parseProxy(p); proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{Transport: transport, Timeout: p.Timeout}, transport
}

// parseProxy returns the provider's forward proxy, or nil when none is set or
// the setting is malformed. A malformed proxy is logged and ignored.
func parseProxy(p *Provider) *url.URL {
	raw := strings.TrimSpace(p.Proxy)
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "" || u.Host == "") {
		err = fmt.Errorf("missing scheme or host")
	}
	if err != nil {
		slog.Warn("incorrect proxy setting, proceeding without proxy",
			"provider", p.ID,
			"proxy", raw,
			"error", err,
		)
		return nil
	}
	return u
}

// classify maps a client error onto TimeoutError or TransportError.
func classify(p *Provider, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Provider: p.ID, URL: p.URL, Timeout: p.Timeout, Cause: err}
	}
	return &TransportError{Provider: p.ID, URL: p.URL, Cause: err}
}
