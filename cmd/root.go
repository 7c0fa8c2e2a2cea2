// Package cmd implements the vidya command line interface.
//
// Subcommands:
//   - serve: run the HTTP API server
//   - ask: ask a single question from the terminal
//   - ingest: load textbook PDFs into the knowledge base
//   - sessions: inspect active sessions on a running server
//   - version: show build information
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vidyalabs/vidya/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "vidya",
	Short: "Vidya - CBSE Class 10 textbook tutor",
	Long: `Vidya is a retrieval-augmented tutoring backend for CBSE Class 10
Social Science and English textbooks. It answers student questions from
ingested textbook content and keeps per-session conversation memory.

Run "vidya serve" to start the HTTP API, or "vidya ask" for a one-shot
question from the terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the CLI logger. DEBUG in the environment switches to
// debug level; logs go to stderr so stdout stays clean for output.
func newLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.NewWithWriter(os.Stderr, cfg)
}
