package providers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"insider-hq/relay/pkg/telemetry/tracing"
)

// TokenSource resolves the bearer token for one attempt.
type TokenSource interface {
	Resolve(ctx context.Context, p *Provider, req *Request) string
}

// staticTokens returns the provider's configured token unchanged.
type staticTokens struct{}

func (staticTokens) Resolve(_ context.Context, p *Provider, _ *Request) string {
	return p.Token
}

// AttemptObserver receives the outcome of every upstream attempt.
// Outcomes are "success", "timeout" and "transport_error".
type AttemptObserver interface {
	ObserveAttempt(provider, outcome string, elapsed time.Duration)
	ObserveExhausted(provider string)
}

// Attempt outcomes reported to AttemptObserver.
const (
	OutcomeSuccess   = "success"
	OutcomeTimeout   = "timeout"
	OutcomeTransport = "transport_error"
)

// RetryingProvider wraps an UpstreamClient in a bounded, strictly sequential
// retry loop.
type RetryingProvider struct {
	client   UpstreamClient
	tokens   TokenSource
	observer AttemptObserver
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewRetryingProvider creates a RetryingProvider. A nil tokens source uses
// each provider's configured token.
func NewRetryingProvider(client UpstreamClient, tokens TokenSource) *RetryingProvider {
	if tokens == nil {
		tokens = staticTokens{}
	}
	return &RetryingProvider{
		client: client,
		tokens: tokens,
		logger: slog.Default().With("component", "providers.retrying"),
		tracer: otel.Tracer(tracing.InstrumentationName),
	}
}

// WithObserver sets the attempt observer and returns rp.
func (rp *RetryingProvider) WithObserver(o AttemptObserver) *RetryingProvider {
	rp.observer = o
	return rp
}

// WithLogger sets the logger and returns rp.
func (rp *RetryingProvider) WithLogger(l *slog.Logger) *RetryingProvider {
	if l != nil {
		rp.logger = l
	}
	return rp
}

// GetResponse relays req to p and returns the provider's response body.
//
// A blank payload fails with ErrEmptyPayload before anything is contacted.
// Dry runs return EmptyJSON. Otherwise up to p.MaxAttempts attempts are made,
// each with a freshly resolved token; timeouts and transport failures are
// retried. When every attempt fails the result is an *ExhaustedError whose
// cause is the last timeout, if any.
func (rp *RetryingProvider) GetResponse(ctx context.Context, p *Provider, req *Request) (string, error) {
	if len(bytes.TrimSpace(req.Payload)) == 0 {
		return "", ErrEmptyPayload
	}

	rp.logger.InfoContext(ctx, "performing request", "provider", p.ID, "url", p.URL)
	rp.logger.DebugContext(ctx, "sending payload", "provider", p.ID, "payload", string(req.Payload))

	if req.DryRun {
		rp.logger.DebugContext(ctx, "dry run enabled, sending empty response", "provider", p.ID)
		return EmptyJSON, nil
	}

	ctx, span := rp.tracer.Start(ctx, "relay.upstream",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrProviderID, p.ID),
			attribute.Int(tracing.AttrMaxAttempts, p.MaxAttempts),
		),
	)
	defer span.End()

	attempts := max(p.MaxAttempts, 1)
	var lastTimeout error

	for attempt := 1; attempt <= attempts; attempt++ {
		token := rp.tokens.Resolve(ctx, p, req)

		start := time.Now()
		body, err := rp.client.Execute(ctx, p, req.Payload, token)
		elapsed := time.Since(start)

		if err == nil {
			rp.observe(p.ID, OutcomeSuccess, elapsed)
			span.SetAttributes(attribute.Int(tracing.AttrAttempts, attempt))
			tracing.SetStatus(span, nil)
			rp.logger.InfoContext(ctx, "request succeeded", "provider", p.ID, "url", p.URL, "attempt", attempt)
			rp.logger.DebugContext(ctx, "got response", "provider", p.ID, "body", body)
			return body, nil
		}

		outcome := OutcomeTransport
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			outcome = OutcomeTimeout
			lastTimeout = err
		}
		rp.observe(p.ID, outcome, elapsed)
		span.AddEvent("attempt failed", trace.WithAttributes(
			attribute.Int(tracing.AttrAttempt, attempt),
			attribute.String(tracing.AttrOutcome, outcome),
		))

		if attempt < attempts {
			rp.logger.WarnContext(ctx, "upstream attempt failed, retrying",
				"provider", p.ID,
				"url", p.URL,
				"attempt", attempt,
				"max_attempts", attempts,
				"outcome", outcome,
				"error", err,
			)
		}
	}

	exhausted := &ExhaustedError{Provider: p.ID, URL: p.URL, Attempts: attempts, Cause: lastTimeout}
	if rp.observer != nil {
		rp.observer.ObserveExhausted(p.ID)
	}
	span.SetAttributes(attribute.Int(tracing.AttrAttempts, attempts))
	tracing.SetError(span, exhausted)
	tracing.SetStatus(span, exhausted)
	rp.logger.ErrorContext(ctx, "request failed",
		"provider", p.ID,
		"url", p.URL,
		"attempts", attempts,
		"timed_out", lastTimeout != nil,
	)

	return "", exhausted
}

func (rp *RetryingProvider) observe(provider, outcome string, elapsed time.Duration) {
	if rp.observer != nil {
		rp.observer.ObserveAttempt(provider, outcome, elapsed)
	}
}
