// Package config provides configuration management for the relay.
//
// Configuration is read from a YAML file, completed with defaults, optionally
// overridden from the environment, and validated:
//
//	cfg, err := config.LoadConfig("config.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RELAY_SECTION_FIELD:
//
//   - RELAY_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - RELAY_RELAY_WAIT_TIMEOUT overrides relay.wait_timeout
//   - RELAY_PROVIDERS_OPENAI_TOKEN overrides the token of provider "openai"
//
// Provider overrides only apply to providers declared in the file.
//
// # Secrets
//
// Secret-bearing fields (provider tokens and proxies, crypto.key,
// items.redis.password) may contain ${secret:name} references, expanded by
// ResolveSecrets with a resolver from pkg/security/secrets.
//
// # Singleton and Reload
//
// Initialize loads the process-wide configuration once; GetConfig returns it.
// Watcher reloads the file on change and passes the new configuration to a
// callback, which the server uses to refresh the provider registry.
package config
