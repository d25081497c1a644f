package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"insider-hq/relay/pkg/cli"
	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/security/crypto"
)

var encryptFlags struct {
	keyFile string
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt [value]",
	Short: "Encrypt a token for use in the configuration",
	Long: `Encrypt a value with the configured key and print it with the "enc_"
prefix. Provider tokens and item details holding such values are decrypted
by the relay just before each upstream call.

The value is read from standard input when no argument is given, so it does
not end up in shell history.

Examples:
  # Encrypt with the key from the config file
  relay encrypt sk-live-123

  # Encrypt with an explicit key file, reading the value from stdin
  printf '%s' "$TOKEN" | relay encrypt --key-file relay.key`,
	Args: cobra.MaximumNArgs(1),
	RunE: encryptValue,
}

func init() {
	rootCmd.AddCommand(encryptCmd)

	encryptCmd.Flags().StringVar(&encryptFlags.keyFile, "key-file", "", "key file (uses crypto settings from config if not specified)")
}

func encryptValue(cmd *cobra.Command, args []string) error {
	svc, err := encryptionService()
	if err != nil {
		return err
	}

	var value string
	if len(args) == 1 {
		value = args[0]
	} else {
		value, err = readValue(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}
	if value == "" {
		return fmt.Errorf("nothing to encrypt")
	}

	sealed, err := crypto.Seal(svc, value)
	if err != nil {
		return cli.NewCommandError("encrypt", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sealed)
	return nil
}

func encryptionService() (*crypto.Service, error) {
	if encryptFlags.keyFile != "" {
		svc, err := crypto.FromConfig(config.CryptoConfig{KeyFile: encryptFlags.keyFile})
		if err != nil {
			return nil, cli.NewConfigError("--key-file", err.Error())
		}
		return svc, nil
	}

	cfg, secretMgr, err := loadConfig(context.Background())
	if err != nil {
		return nil, err
	}
	defer secretMgr.Close()

	svc, err := crypto.FromConfig(cfg.Crypto)
	if err != nil {
		return nil, cli.NewConfigError("crypto", err.Error())
	}
	return svc, nil
}

// readValue reads the first line of r without its line ending.
func readValue(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read value: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
