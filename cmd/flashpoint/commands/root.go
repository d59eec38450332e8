package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flashpoint",
	Short: "Flashpoint - autonomous market scanner",
	Long: `Flashpoint Scanner CLI

Scans the symbol universe for early momentum candidates and ranks the
ones positioned to outperform the configured benchmark asset.

Usage:
  go run ./cmd/flashpoint [command]

Examples:
  go run ./cmd/flashpoint scan
  go run ./cmd/flashpoint quick GME AMC
  go run ./cmd/flashpoint watch --interval 5m
  go run ./cmd/flashpoint api`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
