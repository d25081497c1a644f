// Package providers implements the upstream side of the relay.
//
// # Overview
//
// A Provider is a configured HTTP endpoint (typically an LLM backend) that
// accepts a JSON payload via POST. Two layers sit on top of it:
//
//  1. UpstreamClient executes exactly one attempt. HTTPClient builds a fresh
//     transport per call with the provider's timeout, optional TLS
//     verification bypass and optional forward proxy.
//  2. RetryingProvider validates the payload, honours dry runs and runs up
//     to Provider.MaxAttempts sequential attempts.
//
// # Errors
//
// Single attempts fail with *TimeoutError or *TransportError; these never
// leave RetryingProvider individually. The terminal outcomes are
// ErrEmptyPayload and *ExhaustedError. ExhaustedError.Cause only ever holds a
// timeout:
//
//	var exhausted *providers.ExhaustedError
//	if errors.As(err, &exhausted) && providers.IsTimeout(exhausted.Cause) {
//	    // the last timeout is available for diagnostics
//	}
//
// # Limits
//
// MaxAttempts (3) and MaxTimeout (20s) are upper bounds; FromConfig clamps
// configured values into [1, 3] attempts and (0, 20s] timeouts.
package providers
