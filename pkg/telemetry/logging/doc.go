// Package logging configures log/slog for the relay.
//
// New returns a *slog.Logger whose handler does two things on top of the JSON
// or text output:
//   - adds request_id, provider, task_id and trace_id from the context
//   - masks credentials: bearer headers, enc_ tokens, sk- keys and any
//     attribute whose key names a secret ("token", "password", ...)
//
// Custom patterns come from telemetry.logging.redact_patterns:
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	    redact_patterns:
//	      - name: internal_id
//	        pattern: 'INT-[0-9]{6}'
//	        replacement: 'INT-******'
package logging
