/*
Package secrets resolves ${secret:name} references in the relay
configuration.

Two sources are consulted in order:

  - the environment: "relay-key" is read from RELAY_SECRET_RELAY_KEY
    (the prefix is secrets.env_prefix)
  - a directory with one file per secret (secrets.directory), read with
    surrounding whitespace trimmed; files must be 0600 or 0400

File values are cached. With secrets.watch the cache is dropped whenever the
directory changes, so the next configuration reload picks up rotated values.

	mgr, err := secrets.NewManagerFromConfig(cfg.Secrets)
	if err != nil {
		return err
	}
	defer mgr.Close()

	if err := config.ResolveSecrets(ctx, cfg, mgr); err != nil {
		return err
	}

Secret values are never logged; names are masked at debug level.
*/
package secrets
