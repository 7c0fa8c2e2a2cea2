package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vidyalabs/vidya/internal/session"
)

var sessionsServer string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect sessions on a running server",
}

var sessionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show active session statistics",
	RunE:  runSessionsStats,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Clear a session's conversation history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsClear,
}

func init() {
	sessionsCmd.PersistentFlags().StringVar(&sessionsServer, "server",
		"http://localhost:8000", "base URL of the running vidya server")
	sessionsCmd.AddCommand(sessionsStatsCmd)
	sessionsCmd.AddCommand(sessionsClearCmd)
	rootCmd.AddCommand(sessionsCmd)
}

// apiClient returns an HTTP client with a sane timeout for CLI calls.
func apiClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func runSessionsStats(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	url := strings.TrimRight(sessionsServer, "/") + "/api/sessions/stats"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := apiClient().Do(req)
	if err != nil {
		return fmt.Errorf("contacting server at %s: %w", sessionsServer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var stats session.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	fmt.Printf("Active sessions: %d\n", stats.ActiveSessions)
	for _, s := range stats.Sessions {
		fmt.Printf("  %s  messages=%d  age=%.1fm\n", s.ID, s.Messages, s.AgeMinutes)
	}
	return nil
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	url := strings.TrimRight(sessionsServer, "/") + "/api/sessions/clear"

	body := strings.NewReader(fmt.Sprintf(`{"sessionId":%q}`, args[0]))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := apiClient().Do(req)
	if err != nil {
		return fmt.Errorf("contacting server at %s: %w", sessionsServer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	fmt.Printf("Session %s cleared\n", args[0])
	return nil
}
