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
	Use:   "factorlab",
	Short: "Factor evaluation engine",
	Long: `factorlab - cross-sectional factor evaluation

Computes rank IC series, quantile group backtests and health
classifications for registered factors over historical windows.

Usage:
  go run ./cmd/factorlab [command]

Examples:
  go run ./cmd/factorlab evaluate --factor momentum --from 2024-01-01 --to 2024-06-30
  go run ./cmd/factorlab status
  go run ./cmd/factorlab serve
  go run ./cmd/factorlab scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
