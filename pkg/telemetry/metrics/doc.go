// Package metrics exposes Prometheus metrics for the relay.
//
// Three groups are registered under <namespace>_<subsystem>_ (by default
// insider_relay_):
//   - relay: inbound requests, polls and tasks in flight
//   - upstream: attempts per outcome, attempt latency, exhausted requests
//   - cache: results parked for polling, claimed and expired
//
// Collector satisfies providers.AttemptObserver and is safe to use as a nil
// pointer, in which case every call is a no-op. Provider labels are capped by
// a CardinalityLimiter since provider ids arrive in request paths.
package metrics
