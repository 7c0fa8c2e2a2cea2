// Package retrieval composes query analysis, vector search, reranking, and
// context assembly into the single operation answer generation consumes.
//
// The orchestrator is the sole integration point for callers. Retrieval is
// side-effect-free: it never mutates session memory, so a failed downstream
// generation can be retried with the same session id without corrupting
// history. The caller commits the exchange only after generation succeeds.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/vidyalabs/vidya/internal/knowledge"
	"github.com/vidyalabs/vidya/internal/log"
	"github.com/vidyalabs/vidya/internal/query"
	"github.com/vidyalabs/vidya/internal/rerank"
	"github.com/vidyalabs/vidya/internal/session"
)

// Searcher is the orchestrator's view of the vector index.
// knowledge.Store satisfies it; tests substitute fakes.
type Searcher interface {
	Search(ctx context.Context, text string, opts ...knowledge.SearchOption) ([]knowledge.Match, error)
}

// ContextBundle is the result of one retrieval call: the text handed to
// the language model plus the parallel source list, and the session id the
// caller must echo back (it may differ from the one supplied when the
// supplied id was absent, unknown, or expired).
type ContextBundle struct {
	ContextText string
	Sources     []Source
	SessionID   string
}

// Orchestrator sequences the retrieval pipeline over shared session state.
type Orchestrator struct {
	searcher Searcher
	registry *session.Registry
	topK     int
	logger   log.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTopK sets how many matches each retrieval requests.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// NewOrchestrator creates an Orchestrator over the given searcher and
// session registry.
func NewOrchestrator(searcher Searcher, registry *session.Registry, logger log.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = log.NewNop()
	}
	o := &Orchestrator{
		searcher: searcher,
		registry: registry,
		topK:     knowledge.DefaultTopK,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// AnswerableContext resolves the session, analyzes the query, searches,
// conditionally reranks, and assembles the context bundle.
//
// Degenerate input is never an error: an empty query or an empty result
// set produces the sentinel context so the conversation can continue. A
// transient search failure propagates untouched; the orchestrator performs
// no retries (recovery policy belongs to the caller).
func (o *Orchestrator) AnswerableContext(ctx context.Context, rawQuery, sessionID, explicitSubject string) (ContextBundle, error) {
	// Registry bookkeeping happens under its lock; the search below runs
	// without holding it.
	effectiveID, mem := o.registry.Resolve(sessionID)

	if strings.TrimSpace(rawQuery) == "" {
		text, sources := AssembleContext(nil)
		return ContextBundle{ContextText: text, Sources: sources, SessionID: effectiveID}, nil
	}

	prior, _ := mem.LastQuestion()
	analysis := query.Analyze(query.Request{
		Query:           rawQuery,
		ExplicitSubject: explicitSubject,
		PriorQuestion:   prior,
	})

	opts := []knowledge.SearchOption{knowledge.WithTopK(o.topK)}
	if analysis.SubjectFilter != "" {
		opts = append(opts, knowledge.WithSubject(analysis.SubjectFilter))
	}

	matches, err := o.searcher.Search(ctx, analysis.SearchText, opts...)
	if err != nil {
		return ContextBundle{}, fmt.Errorf("retrieving context: %w", err)
	}

	if analysis.Positional {
		matches = rerank.ByEarlyPages(matches)
	}

	text, sources := AssembleContext(matches)
	o.logger.Debug("assembled context",
		"session", effectiveID,
		"subject", analysis.SubjectFilter,
		"positional", analysis.Positional,
		"matches", len(matches))

	return ContextBundle{ContextText: text, Sources: sources, SessionID: effectiveID}, nil
}

// CommitExchange appends a completed question/answer pair to the session's
// memory. Callers invoke it only after generation succeeds.
func (o *Orchestrator) CommitExchange(sessionID, question, answer string) string {
	id, mem := o.registry.Resolve(sessionID)
	mem.AddExchange(question, answer)
	return id
}

// PromptHistory renders the session's most recent nPairs exchanges as
// Student/Tutor lines for the generation prompt. Empty when the session
// has no history.
func (o *Orchestrator) PromptHistory(sessionID string, nPairs int) string {
	_, mem := o.registry.Resolve(sessionID)
	return mem.PromptHistory(nPairs)
}

// ClearSession empties a session's memory. No-op for unknown ids.
func (o *Orchestrator) ClearSession(sessionID string) {
	o.registry.Clear(sessionID)
}

// DeleteSession removes a session entirely. No-op for unknown ids.
func (o *Orchestrator) DeleteSession(sessionID string) {
	o.registry.Delete(sessionID)
}

// SessionStats reports active session counts and summaries.
func (o *Orchestrator) SessionStats() session.Stats {
	return o.registry.Stats()
}
