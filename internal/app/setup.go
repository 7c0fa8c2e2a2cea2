package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"golang.org/x/time/rate"

	"github.com/vidyalabs/vidya/db"
	"github.com/vidyalabs/vidya/internal/config"
	"github.com/vidyalabs/vidya/internal/knowledge"
	"github.com/vidyalabs/vidya/internal/log"
	"github.com/vidyalabs/vidya/internal/observability"
	"github.com/vidyalabs/vidya/internal/retrieval"
	"github.com/vidyalabs/vidya/internal/session"
	"github.com/vidyalabs/vidya/internal/tutor"
)

// generateRate throttles model calls so one chatty client cannot burn
// the whole API quota.
var generateRate = rate.NewLimiter(rate.Every(time.Second), 5)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup; call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized.
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	a.Knowledge = knowledge.New(knowledge.NewPG(pool), embedder, logger)

	a.Sessions = session.NewRegistry(logger,
		session.WithTimeout(time.Duration(cfg.SessionTimeoutMinutes)*time.Minute),
		session.WithMemoryCapacity(cfg.MemoryCapacity),
	)

	a.Retrieval = retrieval.NewOrchestrator(a.Knowledge, a.Sessions, logger,
		retrieval.WithTopK(cfg.TopK),
	)

	agent, err := tutor.New(tutor.Config{
		Genkit:       g,
		Retriever:    a.Retrieval,
		Logger:       logger,
		ModelName:    cfg.FullModelName(),
		HistoryPairs: cfg.HistoryPairs,
		RateLimiter:  generateRate,
	})
	if err != nil {
		return nil, err
	}
	a.Tutor = agent
	a.TutorFlow = tutor.NewFlow(g, agent)

	return a, nil
}

// provideOtelShutdown sets up trace export before Genkit initialization
// so Genkit's TracerProvider picks up the exporter. Returns a no-op
// cleanup when telemetry is not configured.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger log.Logger) func() {
	if !cfg.Telemetry.Enabled() {
		return func() {}
	}

	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		Environment: cfg.Telemetry.Environment,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		logger.Warn("trace export setup failed, continuing without tracing", "error", err)
		return func() {}
	}

	//nolint:contextcheck // shutdown runs during teardown when the parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool runs migrations and creates a PostgreSQL connection
// pool with pgvector types registered on every connection.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	cleanup := func() {
		pool.Close()
	}

	return pool, cleanup, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Ollama requires explicit model and embedder registration; the Gemini
// plugin discovers models itself.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)
		return g, nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
		return g, nil
	}
}

// provideEmbedder looks up the embedder registered by the provider
// plugin. The Ollama embedder is keyed by server address.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	if cfg.Provider == config.ProviderOllama {
		return ollama.Embedder(g, cfg.OllamaHost)
	}
	return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
}
