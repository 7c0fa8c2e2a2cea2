package api

import (
	"net/http"

	"github.com/firebase/genkit/go/genkit"

	"github.com/vidyalabs/vidya/internal/log"
	"github.com/vidyalabs/vidya/internal/tutor"
)

// AskHandler exposes the tutor Flow over HTTP.
//
// POST /api/ask takes a tutor.Input JSON body and returns tutor.Output.
// genkit.Handler does the decoding, flow invocation and tracing.
type AskHandler struct {
	flow   *tutor.Flow
	logger log.Logger
}

// NewAskHandler creates an ask handler with the given Flow.
// The Flow should be obtained from tutor.NewFlow.
func NewAskHandler(flow *tutor.Flow, logger log.Logger) *AskHandler {
	return &AskHandler{flow: flow, logger: logger}
}

// RegisterRoutes registers the ask route on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	if h.flow == nil {
		if h.logger != nil {
			h.logger.Warn("AskHandler: flow is nil, ask endpoint not registered")
		}
		return
	}
	mux.Handle("POST /api/ask", genkit.Handler(h.flow))
}
