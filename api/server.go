// Package api provides the HTTP REST API for the tutoring backend.
//
// Endpoints:
//
//	Flow-based (via genkit.Handler):
//	  POST /api/ask  →  genkit.Handler(vidya/tutor Flow)
//
//	Non-Flow (standard HTTP handlers):
//	  GET    /health              →  liveness probe
//	  GET    /ready               →  readiness probe (database ping)
//	  POST   /api/sessions/clear  →  clear a session's conversation
//	  DELETE /api/sessions/{id}   →  remove a session entirely
//	  GET    /api/sessions/stats  →  active session summary
//	  GET    /api/stats           →  passage counts per subject
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: health check endpoints
//   - session.go: session management endpoints
//   - ask.go: question endpoint via Genkit Flow
//   - stats.go: knowledge base statistics
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidyalabs/vidya/internal/knowledge"
	"github.com/vidyalabs/vidya/internal/log"
	"github.com/vidyalabs/vidya/internal/session"
	"github.com/vidyalabs/vidya/internal/tutor"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "0.0.0.0:8000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to stop Slowloris clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation can take a while, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout applies to keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the tutoring REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	health  *HealthHandler
	session *SessionHandler
	ask     *AskHandler
	stats   *StatsHandler
}

// NewServer creates a new HTTP server with all routes registered.
// askFlow is obtained from tutor.NewFlow and backs the /api/ask endpoint.
func NewServer(askFlow *tutor.Flow, registry *session.Registry, store *knowledge.Store, pool *pgxpool.Pool, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	mux := http.NewServeMux()

	// A nil *Store must stay a nil interface so the handler's guard fires.
	var counter PassageCounter
	if store != nil {
		counter = store
	}

	s := &Server{
		mux:     mux,
		logger:  logger,
		health:  NewHealthHandler(pool, logger),
		session: NewSessionHandler(registry, logger),
		ask:     NewAskHandler(askFlow, logger),
		stats:   NewStatsHandler(counter, logger),
	}

	s.health.RegisterRoutes(mux)
	s.session.RegisterRoutes(mux)
	s.ask.RegisterRoutes(mux)
	s.stats.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
