package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	validProviders := []string{ProviderGemini, ProviderOllama}
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidProvider, c.Provider, validProviders)
	}

	// The Gemini plugin reads GEMINI_API_KEY itself; fail fast here so
	// the first embed call is not the first place the problem shows up.
	if c.Provider == ProviderGemini && os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.Provider == ProviderOllama && c.OllamaHost == "" {
		return fmt.Errorf("%w: ollama_host cannot be empty", ErrInvalidOllamaHost)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.TopK)
	}

	if c.MemoryCapacity < 2 || c.MemoryCapacity > 200 {
		return fmt.Errorf("%w: must be between 2 and 200, got %d",
			ErrInvalidMemoryCapacity, c.MemoryCapacity)
	}

	if c.SessionTimeoutMinutes < 1 {
		return fmt.Errorf("%w: must be at least 1 minute, got %d",
			ErrInvalidSessionTimeout, c.SessionTimeoutMinutes)
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d",
			ErrInvalidServerPort, c.ServerPort)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d",
			ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set in config.yaml",
			ErrInvalidPostgresPassword)
	}
	if c.PostgresPassword == "vidya_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}
	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// Modern SSL modes only; allow/prefer are deprecated.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}
