package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vidyalabs/vidya/api"
	"github.com/vidyalabs/vidya/internal/app"
	"github.com/vidyalabs/vidya/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Start the tutoring HTTP API. The server runs migrations on startup
and shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (default from config: server_host:server_port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	addr := serveAddr
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
	}

	srv := api.NewServer(a.TutorFlow, a.Sessions, a.Knowledge, a.DBPool, logger)
	logger.Info("HTTP server ready",
		"addr", addr,
		"ask", "POST /api/ask",
		"health", "/health, /ready",
	)

	return srv.Run(ctx, addr)
}
