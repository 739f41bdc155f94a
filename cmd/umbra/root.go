package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "umbra",
	Short: "Umbra - traffic shadowing proxy",
	Long: `Umbra is a traffic shadowing proxy.

It forwards every request to the origin synchronously, so callers always get
the origin's real response, and delivers an asynchronous clone of the request
to a shadow target. Shadow delivery runs from a bounded queue drained by a
fixed worker pool; its failures are recorded but never visible to callers.

Typical uses:
  - Rehearse a new service version against production-shaped traffic
  - Capacity-test a staging stack without risking the caller path
  - Compare origin and shadow behavior offline via logs and metrics`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
