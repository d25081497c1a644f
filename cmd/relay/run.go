package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/spf13/cobra"

	"insider-hq/relay/pkg/cli"
	"insider-hq/relay/pkg/config"
	"insider-hq/relay/pkg/telemetry/logging"
	"insider-hq/relay/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay server",
	Long: `Start the relay server with the specified configuration.

The server listens on the configured address and forwards POST /relay/{id}
payloads to the matching provider. Changes to the providers section of the
config file are applied without a restart.

Examples:
  # Start with default config
  relay run

  # Start with custom config
  relay run --config /etc/relay/config.yaml

  # Override listen address
  relay run --listen 0.0.0.0:8080

  # Validate config without starting server
  relay run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.watch, "watch", true, "reload providers when the config file changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	out := cmd.OutOrStdout()

	cfg, secretMgr, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer secretMgr.Close()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	config.SetConfig(cfg)

	if _, err := logging.Setup(cfg.Telemetry.Logging, os.Stderr); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	printBanner(out, cfg)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.close()

	fmt.Fprintf(out, "✓ Providers loaded (%d enabled of %d)\n", a.registry.EnabledCount(), a.registry.ProviderCount())
	fmt.Fprintf(out, "✓ Item store ready (%s)\n", cfg.Items.Backend)

	if runFlags.watch {
		watcher, err := config.NewWatcher(cfgFile, func(next *config.Config) {
			if err := config.ResolveSecrets(ctx, next, secretMgr); err != nil {
				slog.Error("configuration reload failed, secrets unresolved", "error", err)
				return
			}
			a.reload(next)
		})
		if err != nil {
			slog.Warn("config file watching disabled", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	ln, err := net.Listen("tcp", cfg.Server.ListenAddress)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to listen on %s: %w", cfg.Server.ListenAddress, err))
	}

	addr := ln.Addr().String()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Server listening on %s\n", addr)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", addr)
	if a.metrics != nil {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := a.server.Serve(ctx, ln); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func printBanner(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "Relay v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	fmt.Fprintln(out, "✓ Configuration loaded")

	slog.Debug("relay settings",
		"wait_timeout", cfg.Relay.WaitTimeout.String(),
		"cache_keep_alive", cfg.Relay.CacheKeepAlive.String(),
		"max_concurrency", cfg.Relay.MaxConcurrency,
		"dry_run", cfg.Relay.DryRun,
	)
	if cfg.Telemetry.Tracing.Enabled {
		slog.Debug("tracing enabled", "endpoint", cfg.Telemetry.Tracing.Endpoint)
	}
}
