package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/factorlab/internal/contracts"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest classification of every registered factor",
	Long: `Lists all registered factors with their persisted health status.

Example:
  go run ./cmd/factorlab status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	application, err := initApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer application.close()

	fmt.Println("=== Factor Status ===")
	fmt.Println()

	health, err := application.db.HealthCheck(cmd.Context())
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	fmt.Printf("🗄  Database: ok (%d/%d conns, ping %s)\n\n",
		health.Stats.TotalConns, health.Stats.MaxConns, health.ResponseTime)

	for _, name := range application.registry.Names() {
		factor, _ := application.registry.Get(name)

		status, err := application.store.LoadStatus(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("load status for %s: %w", name, err)
		}

		marker := "❓"
		switch status {
		case contracts.StatusActive:
			marker = "✅"
		case contracts.StatusWarning:
			marker = "⚠️"
		case contracts.StatusInactive:
			marker = "❌"
		}

		label := string(status)
		if label == "" {
			label = "not evaluated"
		}

		fmt.Printf("%s %-12s direction %+d  %s\n", marker, name, factor.Direction(), label)
	}

	fmt.Println()
	return nil
}
