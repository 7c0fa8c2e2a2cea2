package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vidyalabs/vidya/internal/app"
	"github.com/vidyalabs/vidya/internal/config"
	"github.com/vidyalabs/vidya/internal/tutor"
)

var (
	askSubject string
	askSession string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question from the terminal",
	Long: `Ask one question against the ingested textbooks and print the answer
with its sources. Pass --session to continue a previous conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSubject, "subject", "", "restrict retrieval to one subject (e.g. Polity)")
	askCmd.Flags().StringVar(&askSession, "session", "", "session id to continue a conversation")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
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

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	out, err := a.Tutor.Answer(ctx, tutor.Input{
		Question:  question,
		SessionID: askSession,
		Subject:   askSubject,
	})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(out.Answer)
	if len(out.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, src := range out.Sources {
			page := "?"
			if src.Page > 0 {
				page = fmt.Sprintf("%d", src.Page)
			}
			fmt.Printf("  %s - %s (Page %s)\n", src.Subject, src.Document, page)
		}
	}
	fmt.Printf("\nSession: %s\n", out.SessionID)

	return nil
}
