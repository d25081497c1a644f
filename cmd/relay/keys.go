package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"insider-hq/relay/pkg/security/crypto"
)

var keysFlags struct {
	output string
	force  bool
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage token encryption keys",
	Long: `Generate keys for encrypting provider tokens and item details.

Keys are 32 random bytes, hex encoded. Point crypto.key_file at the
generated file, or supply the key through a secret reference in crypto.key.`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new encryption key",
	Long: `Generate a new encryption key and write it to a file readable only by
the owner (0600).

Examples:
  # Generate relay.key in the current directory
  relay keys generate

  # Write to a custom location
  relay keys generate --output /etc/relay/relay.key`,
	RunE: generateKey,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().StringVarP(&keysFlags.output, "output", "o", "relay.key", "key file path")
	keysGenerateCmd.Flags().BoolVar(&keysFlags.force, "force", false, "overwrite an existing key file")
}

func generateKey(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if _, err := os.Stat(keysFlags.output); err == nil && !keysFlags.force {
		return fmt.Errorf("%s already exists (use --force to overwrite; encrypted values will no longer open)", keysFlags.output)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", keysFlags.output, err)
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(keysFlags.output); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// #nosec G304 - User-specified output path is expected behavior for a CLI tool.
	file, err := os.OpenFile(keysFlags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	if _, err := fmt.Fprintln(file, crypto.EncodeKey(key)); err != nil {
		file.Close()
		return fmt.Errorf("failed to write key: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	fmt.Fprintf(out, "Key file: %s\n", keysFlags.output)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "⚠️  Warning: Store the key securely and never commit it to version control")
	fmt.Fprintln(out, "✓  Key generated successfully")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration snippet:")
	fmt.Fprintln(out, "crypto:")
	fmt.Fprintf(out, "  key_file: %q\n", keysFlags.output)

	return nil
}
