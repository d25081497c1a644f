package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys under the "relay.*" namespace.
const (
	AttrProviderID  = "relay.provider.id"
	AttrTaskID      = "relay.task.id"
	AttrRequestID   = "relay.request_id"
	AttrMaxAttempts = "relay.upstream.max_attempts"
	AttrAttempts    = "relay.upstream.attempts"
	AttrAttempt     = "relay.upstream.attempt"
	AttrOutcome     = "relay.upstream.outcome"
	AttrDetached    = "relay.task.detached"
	AttrStatusCode  = "http.status_code"

	AttrErrorMessage = "error.message"
)

// SetTaskAttributes tags span with the task id and whether the request was
// answered with 202.
func SetTaskAttributes(span trace.Span, taskID string, detached bool) {
	span.SetAttributes(
		attribute.String(AttrTaskID, taskID),
		attribute.Bool(AttrDetached, detached),
	)
}
