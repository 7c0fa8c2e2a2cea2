package config

import (
	"errors"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Provider:              ProviderOllama,
		ModelName:             "llama3.1",
		EmbedderModel:         "nomic-embed-text",
		OllamaHost:            "http://localhost:11434",
		TopK:                  5,
		HistoryPairs:          2,
		MemoryCapacity:        10,
		SessionTimeoutMinutes: 60,
		ServerPort:            8000,
		PostgresHost:          "localhost",
		PostgresPort:          5432,
		PostgresUser:          "vidya",
		PostgresPassword:      "vidya_dev_password",
		PostgresDBName:        "vidya",
		PostgresSSLMode:       "disable",
	}
}

func TestValidateOK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidateNil(t *testing.T) {
	var c *Config
	if err := c.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() error = %v, want ErrConfigNil", err)
	}
}

func TestValidateGeminiRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	c := validConfig()
	c.Provider = ProviderGemini
	if err := c.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Validate() error = %v, want ErrMissingAPIKey", err)
	}

	t.Setenv("GEMINI_API_KEY", "test-key")
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() with API key error = %v, want nil", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "bedrock" },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "empty ollama host",
			mutate:  func(c *Config) { c.OllamaHost = "" },
			wantErr: ErrInvalidOllamaHost,
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "" },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "empty embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name:    "top-k zero",
			mutate:  func(c *Config) { c.TopK = 0 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "top-k too large",
			mutate:  func(c *Config) { c.TopK = 50 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "memory capacity too small",
			mutate:  func(c *Config) { c.MemoryCapacity = 1 },
			wantErr: ErrInvalidMemoryCapacity,
		},
		{
			name:    "session timeout zero",
			mutate:  func(c *Config) { c.SessionTimeoutMinutes = 0 },
			wantErr: ErrInvalidSessionTimeout,
		},
		{
			name:    "server port out of range",
			mutate:  func(c *Config) { c.ServerPort = 70000 },
			wantErr: ErrInvalidServerPort,
		},
		{
			name:    "empty postgres host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "postgres port out of range",
			mutate:  func(c *Config) { c.PostgresPort = 0 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty db name",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
		{
			name:    "empty password",
			mutate:  func(c *Config) { c.PostgresPassword = "" },
			wantErr: ErrInvalidPostgresPassword,
		},
		{
			name:    "short password",
			mutate:  func(c *Config) { c.PostgresPassword = "short" },
			wantErr: ErrInvalidPostgresPassword,
		},
		{
			name:    "deprecated ssl mode",
			mutate:  func(c *Config) { c.PostgresSSLMode = "prefer" },
			wantErr: ErrInvalidPostgresSSLMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
