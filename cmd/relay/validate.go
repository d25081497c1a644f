package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"insider-hq/relay/pkg/cli"
	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/items"
	"insider-hq/relay/pkg/registry"
	"insider-hq/relay/pkg/security/crypto"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Load the configuration file the way "relay run" does and report problems.

The validate command checks:
  - YAML syntax and field values, after environment overrides
  - Secret references can be resolved
  - Provider ids are unique and URLs are valid
  - The encryption key, when configured, decodes
  - Seed items have valid paths and encryptable details

Examples:
  # Validate the default config file
  relay validate

  # Validate a specific file
  relay validate --config /etc/relay/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, secretMgr, err := loadConfig(context.Background())
	if err != nil {
		return err
	}
	defer secretMgr.Close()
	fmt.Fprintf(out, "✓ Configuration syntax valid (%s)\n", cfgFile)

	reg, err := registry.NewManagerFromConfig(cfg.Providers)
	if err != nil {
		return cli.NewConfigError("providers", err.Error())
	}
	fmt.Fprintf(out, "✓ Providers valid (%d enabled of %d)\n", reg.EnabledCount(), reg.ProviderCount())
	if reg.EnabledCount() == 0 {
		fmt.Fprintln(out, "⚠ No enabled providers: the server will not report ready")
	}

	svc, err := loadCrypto(cfg.Crypto)
	if err != nil {
		return err
	}
	var enc crypto.Encrypter
	if svc != nil {
		enc = svc
		fmt.Fprintln(out, "✓ Encryption key valid")
	} else {
		fmt.Fprintln(out, "⚠ No encryption key: encrypted tokens cannot be opened")
	}

	if err := validateSeeds(cfg.Items.Seed, enc); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Seed items valid (%d)\n", len(cfg.Items.Seed))

	return nil
}

func validateSeeds(seeds []config.ItemSeed, enc crypto.Encrypter) error {
	seen := make(map[string]bool, len(seeds))
	for i, seed := range seeds {
		it, err := items.FromSeed(seed, enc)
		if err != nil {
			return cli.NewConfigError(fmt.Sprintf("items.seed[%d]", i), err.Error())
		}
		if seen[it.Path] {
			return cli.NewConfigError(fmt.Sprintf("items.seed[%d]", i), fmt.Sprintf("duplicate path %q", it.Path))
		}
		seen[it.Path] = true
	}
	return nil
}
