package api

import (
	"context"
	"net/http"

	"github.com/vidyalabs/vidya/internal/knowledge"
	"github.com/vidyalabs/vidya/internal/log"
)

// PassageCounter is the slice of the knowledge store the stats endpoint
// needs. knowledge.Store satisfies it.
type PassageCounter interface {
	Count(ctx context.Context) (int64, error)
	CountBySubject(ctx context.Context) ([]knowledge.SubjectCount, error)
}

// StatsHandler reports knowledge base statistics.
type StatsHandler struct {
	counter PassageCounter
	logger  log.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(counter PassageCounter, logger log.Logger) *StatsHandler {
	return &StatsHandler{counter: counter, logger: logger}
}

// RegisterRoutes registers the stats route on the given mux.
func (h *StatsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats", h.stats)
}

// StatsResponse is the /api/stats payload.
type StatsResponse struct {
	TotalPassages int64                    `json:"total_passages"`
	Subjects      []knowledge.SubjectCount `json:"subjects"`
}

// stats returns total and per-subject passage counts.
func (h *StatsHandler) stats(w http.ResponseWriter, r *http.Request) {
	if h.counter == nil {
		h.logger.Error("knowledge store is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	total, err := h.counter.Count(ctx)
	if err != nil {
		h.logger.Error("failed to count passages", "error", err)
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to count passages")
		return
	}
	subjects, err := h.counter.CountBySubject(ctx)
	if err != nil {
		h.logger.Error("failed to count passages by subject", "error", err)
		writeError(w, http.StatusInternalServerError, "STORE_ERROR", "failed to count passages")
		return
	}
	if subjects == nil {
		subjects = []knowledge.SubjectCount{}
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalPassages: total,
		Subjects:      subjects,
	})
}
