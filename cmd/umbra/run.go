package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"umbra-hq/umbra/pkg/cli"
	"umbra-hq/umbra/pkg/config"
	"umbra-hq/umbra/pkg/server"
	"umbra-hq/umbra/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	shadowTarget  string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the shadowing proxy",
	Long: `Start the shadowing proxy with the specified configuration.

The proxy listens on the configured address, forwards every request to the
origin, and mirrors a clone of each request to the shadow target in the
background.

Examples:
  # Start with default config
  umbra run

  # Start with custom config
  umbra run --config /etc/umbra/config.yaml

  # Override listen address
  umbra run --listen 0.0.0.0:8080

  # Point the shadow path somewhere else for this process
  umbra run --shadow-target http://canary.internal:9090

  # Validate config without starting the proxy
  umbra run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.shadowTarget, "shadow-target", "", "override shadow target URL")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the proxy")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.shadowTarget != "" {
		cfg.Shadow.TargetURL = runFlags.shadowTarget
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	// Initialize logging based on config
	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger.Slog())

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	// Print startup banner
	printBanner(cfg)

	srv, err := server.NewServer(cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Watch the config file and apply the hot-reloadable subset: shadow
	// target and log level. Everything else needs a restart.
	if cfg.Reload.Enabled {
		watcher, err := config.NewWatcher(cfgFile, cfg.Reload.Debounce, logger.Slog())
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				config.SetConfig(next)
				if err := logger.SetLevel(next.Telemetry.Logging.Level); err != nil {
					slog.Warn("reload: log level not applied", "error", err)
				}
				if err := srv.ApplyConfig(next); err != nil {
					slog.Warn("reload: config not applied", "error", err)
				}
			})
			if err != nil {
				slog.Warn("config watcher exited", "error", err)
			}
		}()
		fmt.Println("✓ Config reload enabled")
	}

	// Start proxy in background goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for the proxy to answer its own readiness probe. Skipped under
	// TLS, where the plain HTTP poll cannot reach it.
	if !cfg.Security.TLS.Enabled {
		if err := waitForServerReady(cfg.Server.ListenAddress, 5*time.Second); err != nil {
			select {
			case startErr := <-errChan:
				return cli.NewCommandError("run", startErr)
			default:
			}
			return cli.NewCommandError("run", err)
		}
	}

	fmt.Println()
	fmt.Printf("✓ Proxy listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Origin: %s\n", cfg.Origin.TargetURL)
	fmt.Printf("✓ Shadow target: %s\n", cfg.Shadow.TargetURL)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for shutdown signal or server error
	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		// The budget covers the engine drain and then the listener drain.
		budget := cfg.Shadow.ShutdownGracePeriod + cfg.Server.ShutdownTimeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), budget)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Proxy stopped")
		return nil
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Umbra v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("shadow engine configured",
		"queue_capacity", cfg.Shadow.QueueCapacity,
		"overflow_policy", cfg.Shadow.OverflowPolicy,
		"worker_count", cfg.Shadow.WorkerCount,
		"max_attempts", cfg.Shadow.MaxAttempts,
	)
}

// waitForServerReady polls the readiness endpoint until it answers 200 or
// the timeout elapses.
func waitForServerReady(address string, timeout time.Duration) error {
	url := fmt.Sprintf("http://%s/readyz", address)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	return fmt.Errorf("proxy not ready after %s", timeout)
}
