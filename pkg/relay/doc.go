// Package relay decides, per request, whether a provider response is returned
// inline or deferred behind a task id.
//
// Orchestrator.Relay submits the provider call to a bounded pond pool and
// waits up to the configured wait timeout. Past that, the running task is
// stored in a Cache under a new id and the caller receives
//
//	202 {"task": "<id>"}
//
// Orchestrator.Poll reports {"task": "<id>"} while the task runs and returns
// the result exactly once after it finishes. Unpolled tasks expire after the
// keep-alive period.
//
// Failures are rendered as {"error": "<message>"} with the status from
// StatusFor.
package relay
