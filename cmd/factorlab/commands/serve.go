package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/factorlab/internal/api"
	"github.com/wonny/factorlab/internal/api/handlers"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves factor metadata, stored evaluation reports and statuses
over HTTP.

Endpoints:
  GET /health
  GET /api/factors
  GET /api/factors/{id}/report?start=&end=&freq=
  GET /api/factors/{id}/status

Example:
  go run ./cmd/factorlab serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := initApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer application.close()

	factorHandler := handlers.NewFactorHandler(application.registry, application.store, application.logger)
	router := api.NewRouter(factorHandler, application.logger)
	server := api.New(application.cfg, application.logger, router)

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		application.logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
