// Relay forwards client requests to configured upstream service providers.
//
// A request is answered inline when the provider responds within the
// configured wait timeout. Otherwise the client receives a task id and
// collects the result later from GET /relay/task/{taskId}.
//
// Usage:
//
//	# Start the server
//	relay run --config /etc/relay/config.yaml
//
//	# Check a configuration file
//	relay validate --config config.yaml
//
//	# Create a token encryption key and encrypt a token with it
//	relay keys generate --output relay.key
//	relay encrypt --key-file relay.key sk-live-123
//
//	# Inspect and import configuration items
//	relay items list --format csv
//	relay items import items.yaml
package main

func main() {
	Execute()
}
