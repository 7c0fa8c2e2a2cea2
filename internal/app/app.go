// Package app provides application initialization and dependency wiring.
//
// App is the container that holds every long-lived component: Genkit,
// the database pool, the knowledge store, the session registry, the
// retrieval orchestrator and the tutor agent. Setup builds it in
// dependency order; Close releases resources in reverse.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidyalabs/vidya/internal/config"
	"github.com/vidyalabs/vidya/internal/knowledge"
	"github.com/vidyalabs/vidya/internal/log"
	"github.com/vidyalabs/vidya/internal/retrieval"
	"github.com/vidyalabs/vidya/internal/session"
	"github.com/vidyalabs/vidya/internal/tutor"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	DBPool    *pgxpool.Pool
	Knowledge *knowledge.Store
	Sessions  *session.Registry
	Retrieval *retrieval.Orchestrator
	Tutor     *tutor.Agent
	TutorFlow *tutor.Flow

	// Lifecycle management
	otelCleanup func()
	dbCleanup   func()
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	if a.dbCleanup != nil {
		a.dbCleanup()
	}

	// Flush pending spans last so shutdown itself is traced.
	if a.otelCleanup != nil {
		a.otelCleanup()
	}

	return nil
}
