// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (VIDYA_* plus DATABASE_URL)
//  2. Config file (~/.vidya/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, generation model, embedder model
//   - Storage: PostgreSQL connection (see storage.go)
//   - Retrieval: top-k, memory capacity, session timeout
//   - Server: HTTP bind address
//   - Observability: OTLP trace export (see observability.go)
//
// Sensitive values (the PostgreSQL password) are masked in MarshalJSON
// so a Config can be logged safely. Validation lives in validation.go
// and returns sentinel errors checkable with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidMemoryCapacity indicates the memory capacity is out of range.
	ErrInvalidMemoryCapacity = errors.New("invalid memory capacity")

	// ErrInvalidSessionTimeout indicates the session timeout is out of range.
	ErrInvalidSessionTimeout = errors.New("invalid session timeout")

	// ErrInvalidServerPort indicates the HTTP server port is out of range.
	ErrInvalidServerPort = errors.New("invalid server port")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
)

const (
	// DefaultGeminiEmbedderModel outputs 3072 dimensions by default but
	// supports truncation to 768 via OutputDimensionality. The pgvector
	// schema uses 768 dimensions.
	DefaultGeminiEmbedderModel = "gemini-embedding-001"

	// DefaultSessionTimeoutMinutes is how long an idle session lives.
	DefaultSessionTimeoutMinutes = 60

	// DefaultMemoryCapacity is the per-session conversation buffer size
	// in messages.
	DefaultMemoryCapacity = 10
)

// Config stores application configuration.
// The PostgreSQL password is masked in MarshalJSON; when adding new
// sensitive fields, update that method too.
type Config struct {
	// AI provider and model configuration
	Provider      string  `mapstructure:"provider" json:"provider"` // "gemini" (default) or "ollama"
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Retrieval and conversation configuration
	TopK                  int `mapstructure:"top_k" json:"top_k"`
	HistoryPairs          int `mapstructure:"history_pairs" json:"history_pairs"`
	MemoryCapacity        int `mapstructure:"memory_capacity" json:"memory_capacity"`
	SessionTimeoutMinutes int `mapstructure:"session_timeout_minutes" json:"session_timeout_minutes"`

	// Textbook ingestion
	TextbookDir string `mapstructure:"textbook_dir" json:"textbook_dir"`

	// HTTP server configuration
	ServerHost string `mapstructure:"server_host" json:"server_host"`
	ServerPort int    `mapstructure:"server_port" json:"server_port"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Observability configuration (see observability.go)
	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".vidya")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("embedder_model", DefaultGeminiEmbedderModel)
	viper.SetDefault("temperature", 0.3)
	viper.SetDefault("max_tokens", 2048)

	viper.SetDefault("ollama_host", "http://localhost:11434")

	viper.SetDefault("top_k", 5)
	viper.SetDefault("history_pairs", 2)
	viper.SetDefault("memory_capacity", DefaultMemoryCapacity)
	viper.SetDefault("session_timeout_minutes", DefaultSessionTimeoutMinutes)

	viper.SetDefault("textbook_dir", "textbooks")

	viper.SetDefault("server_host", "0.0.0.0")
	viper.SetDefault("server_port", 8000)

	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "vidya")
	viper.SetDefault("postgres_password", "vidya_dev_password")
	viper.SetDefault("postgres_db_name", "vidya")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("telemetry.endpoint", "")
	viper.SetDefault("telemetry.service_name", "vidya")
	viper.SetDefault("telemetry.environment", "dev")
}

// bindEnvVariables binds environment overrides explicitly.
// GEMINI_API_KEY is read directly by the Genkit plugin, not via Viper;
// Validate() only checks its presence for the gemini provider.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "VIDYA_PROVIDER")
	mustBind("model_name", "VIDYA_MODEL_NAME")
	mustBind("embedder_model", "VIDYA_EMBEDDER_MODEL")
	mustBind("ollama_host", "VIDYA_OLLAMA_HOST")
	mustBind("textbook_dir", "VIDYA_TEXTBOOK_DIR")
	mustBind("server_host", "VIDYA_SERVER_HOST")
	mustBind("server_port", "VIDYA_SERVER_PORT")
	mustBind("telemetry.endpoint", "VIDYA_OTLP_ENDPOINT")
}

// maskedValue uses full-width blocks so masked output never contains a
// substring of the real secret.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of eight
// characters or fewer are fully masked; longer ones keep the first and
// last two characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.1".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	if c.Provider == ProviderOllama {
		return ProviderOllama + "/" + c.ModelName
	}
	return ProviderGoogleAI + "/" + c.ModelName
}

// FullEmbedderName returns the provider-qualified embedder name.
func (c *Config) FullEmbedderName() string {
	if strings.Contains(c.EmbedderModel, "/") {
		return c.EmbedderModel
	}
	if c.Provider == ProviderOllama {
		return ProviderOllama + "/" + c.EmbedderModel
	}
	return ProviderGoogleAI + "/" + c.EmbedderModel
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
