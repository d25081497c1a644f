/*
Package security groups the relay's secret handling.

# Token Encryption

Subpackage crypto encrypts provider tokens and flagged item details with
XChaCha20-Poly1305. Encrypted values carry the "enc_" prefix and are opened
just before each upstream call:

	svc, err := crypto.FromConfig(cfg.Crypto)
	if err != nil {
		return err
	}
	sealed, err := crypto.Seal(svc, "sk-live-123")

# Secret References

Subpackage secrets resolves ${secret:name} references in the configuration
from environment variables and, optionally, a directory of secret files:

	manager, err := secrets.NewManagerFromConfig(cfg.Secrets)
	if err != nil {
		return err
	}
	defer manager.Close()

	if err := config.ResolveSecrets(ctx, cfg, manager); err != nil {
		return err
	}
*/
package security
