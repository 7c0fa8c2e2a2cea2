package api

import (
	"encoding/json"
	"net/http"

	"github.com/vidyalabs/vidya/internal/log"
	"github.com/vidyalabs/vidya/internal/session"
)

// SessionHandler handles session management endpoints.
type SessionHandler struct {
	registry *session.Registry
	logger   log.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(registry *session.Registry, logger log.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions/clear", h.clear)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.remove)
	mux.HandleFunc("GET /api/sessions/stats", h.stats)
}

// ClearSessionRequest is the request body for clearing a session.
type ClearSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// clear empties a session's conversation buffer. The session itself
// survives, so the client can keep its id.
func (h *SessionHandler) clear(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		h.logger.Error("session registry is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var req ClearSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION_ID", "sessionId is required")
		return
	}

	h.registry.Clear(req.SessionID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "cleared",
		"sessionId": req.SessionID,
	})
}

// remove deletes a session entirely.
func (h *SessionHandler) remove(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		h.logger.Error("session registry is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_SESSION_ID", "session id is required")
		return
	}

	h.registry.Delete(id)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "deleted",
		"sessionId": id,
	})
}

// stats reports active session counts and summaries.
func (h *SessionHandler) stats(w http.ResponseWriter, _ *http.Request) {
	if h.registry == nil {
		h.logger.Error("session registry is nil")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, h.registry.Stats())
}
