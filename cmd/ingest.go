package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vidyalabs/vidya/internal/app"
	"github.com/vidyalabs/vidya/internal/config"
	"github.com/vidyalabs/vidya/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Load textbook PDFs into the knowledge base",
	Long: `Walk a directory of textbook PDFs and index them for retrieval.
The directory layout is one subdirectory per subject:

  textbooks/
    Polity/
      democratic_politics_ch1.pdf
    Geography/
      resources_ch1.pdf

Without an argument, the configured textbook_dir is used. Re-ingesting
the same files updates passages in place.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dir := cfg.TextbookDir
	if len(args) > 0 {
		dir = args[0]
	}

	ctx := context.Background()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	ing := ingest.New(a.Knowledge, logger)
	res, err := ing.IngestDir(ctx, dir)
	if errors.Is(err, ingest.ErrLocked) {
		return fmt.Errorf("another ingestion is already running")
	}
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", dir, err)
	}

	fmt.Printf("Ingested %d files (%d passages) in %s\n",
		res.Files, res.Passages, res.Duration.Round(10*time.Millisecond))
	if res.Failed > 0 {
		fmt.Printf("Failed files: %d (see logs)\n", res.Failed)
	}

	return nil
}
