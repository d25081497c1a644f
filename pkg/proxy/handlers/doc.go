// Package handlers provides the HTTP handlers of the relay.
//
// # Routes
//
//	POST /relay/{providerId}            relay the body to a provider
//	GET  /relay/task/{taskId}           poll a deferred task
//	GET  /relay/config                  list tools and providers
//	PUT  /relay/config/{kind}/{name}    store a config item
//	GET  /health/providers              provider configuration summary
//
// RelayHandler and ConfigHandler register their own routes with Register.
// Handlers depend on small interfaces (Relayer, ItemStore, ProviderDirectory)
// rather than on the concrete orchestrator, store and registry.
//
// # Relay Flow
//
//  1. Strip "/" and spaces around the provider id
//  2. Read the body verbatim and collect query parameters
//  3. Hand the request to the orchestrator
//  4. Write the provider's body, a {"task": id} handle or an error envelope
package handlers
