package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"insider-hq/relay/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay - request relay for upstream service providers",
	Long: `Relay forwards client payloads to configured upstream providers.

Requests that finish within the wait timeout are answered directly. Slower
requests are answered with a task id that can be polled once; the result
is kept for a limited time.

It also serves:
  - A configuration item store (tools and providers) with encrypted details
  - Per-provider bearer tokens, optionally encrypted or taken from secrets
  - Health, readiness, version and Prometheus metrics endpoints`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
