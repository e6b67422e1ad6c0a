package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/refreshkit/refreshkit"
	"github.com/refreshkit/refreshkit/config"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts polling and serving the configured widgets.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start polling and serving widgets",
	Long: `Start the RefreshKit widget server.

The server will:
  - Load configuration from the specified YAML file
  - Start an adaptive polling controller per configured widget
  - Serve the latest snapshots on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  refreshkit serve -c config.yaml
  refreshkit serve --config /etc/refreshkit/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded", "widgets", len(cfg.Widgets))
	logger.Info("starting server", "port", cfg.Port)

	// convert config to SDK widgets
	widgets, err := config.BuildWidgets(cfg)
	if err != nil {
		return fmt.Errorf("failed to build widgets: %w", err)
	}

	hub, err := refreshkit.New(
		refreshkit.WithWidgets(widgets...),
		refreshkit.WithPort(cfg.Port),
		refreshkit.WithDefaultTuning(cfg.Polling.Tuning()),
		refreshkit.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create hub: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- hub.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
