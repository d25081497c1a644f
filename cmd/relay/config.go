package main

import (
	"context"
	"errors"
	"log/slog"

	"insider-hq/relay/pkg/cli"
	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/security/crypto"
	"insider-hq/relay/pkg/security/secrets"
)

// loadConfig reads cfgFile with environment overrides applied and resolves
// secret references. The caller closes the returned manager.
func loadConfig(ctx context.Context) (*config.Config, *secrets.Manager, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, nil, cli.NewConfigError("", err.Error())
	}

	mgr, err := secrets.NewManagerFromConfig(cfg.Secrets)
	if err != nil {
		return nil, nil, cli.NewConfigError("secrets", err.Error())
	}
	if err := config.ResolveSecrets(ctx, cfg, mgr); err != nil {
		mgr.Close()
		return nil, nil, cli.NewConfigError("secrets", err.Error())
	}

	return cfg, mgr, nil
}

// loadCrypto returns the token encryption service, or nil when no key is
// configured. Encrypted tokens are then passed upstream as they are.
func loadCrypto(cfg config.CryptoConfig) (*crypto.Service, error) {
	svc, err := crypto.FromConfig(cfg)
	switch {
	case err == nil:
		return svc, nil
	case errors.Is(err, crypto.ErrNoKey):
		slog.Warn("no encryption key configured, encrypted tokens cannot be opened")
		return nil, nil
	default:
		return nil, cli.NewConfigError("crypto", err.Error())
	}
}
