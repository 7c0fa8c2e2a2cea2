// Package tutor generates textbook-grounded answers to student questions.
//
// The Agent sequences one turn: retrieve answerable context for the
// question, build the tutoring prompt, call the language model, and, only
// after generation succeeds, commit the exchange to session memory. A
// failed generation leaves memory untouched so the student can retry with
// the same session id.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/vidyalabs/vidya/internal/log"
	"github.com/vidyalabs/vidya/internal/retrieval"
)

// Sentinel errors for tutoring operations.
var (
	// ErrRetrievalFailed indicates context retrieval failed.
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrGenerationFailed indicates the language model call failed.
	ErrGenerationFailed = errors.New("generation failed")
)

// DefaultHistoryPairs is how many recent exchanges the prompt includes.
const DefaultHistoryPairs = 2

// fallbackAnswer is returned when the model produces an empty response.
const fallbackAnswer = "I couldn't put together an answer just now. Please try rephrasing your question."

// systemPrompt holds the tutoring rules. Answers must come strictly from
// the supplied context; the sentinel context makes the model admit when
// the textbook has nothing.
const systemPrompt = `You are a concise, direct CBSE Class 10 tutor for English and Social Science.

STRICT RULES:
1. BREVITY IS KEY: Keep answers short (2-4 sentences max unless explaining complex topics)
2. ANSWER ONLY from the provided CONTEXT - never make up information
3. If info isn't in CONTEXT, say "I don't find this in your textbook" and stop
4. Be direct - no fluff, no repetition
5. For definitions: 1-2 sentences max
6. For explanations: use bullet points when listing multiple items
7. Stay strictly within CBSE Class 10 syllabus

FORMAT:
- Short, clear sentences
- Use simple language (Class 10 level)
- No introductory phrases like "According to the textbook"
- Get straight to the answer

Remember: CONCISE > DETAILED. Students want quick, clear answers.`

// Retriever is the agent's view of the retrieval core.
// retrieval.Orchestrator satisfies it.
type Retriever interface {
	AnswerableContext(ctx context.Context, query, sessionID, subject string) (retrieval.ContextBundle, error)
	PromptHistory(sessionID string, nPairs int) string
	CommitExchange(sessionID, question, answer string) string
	ClearSession(sessionID string)
}

// Config contains all required parameters for the tutor Agent.
type Config struct {
	Genkit    *genkit.Genkit
	Retriever Retriever
	Logger    log.Logger

	// ModelName is the provider-qualified model name
	// (e.g. "googleai/gemini-2.5-flash", "ollama/llama3.2").
	ModelName string

	// HistoryPairs is how many recent exchanges to include in the prompt
	// (zero-value uses DefaultHistoryPairs).
	HistoryPairs int

	// RateLimiter optionally throttles generation calls (nil = unlimited).
	RateLimiter *rate.Limiter
}

// validate checks required parameters.
func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Agent answers student questions from retrieved textbook context.
type Agent struct {
	g            *genkit.Genkit
	retriever    Retriever
	logger       log.Logger
	modelName    string
	historyPairs int
	limiter      *rate.Limiter
}

// New creates a tutor Agent from cfg.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid tutor config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	historyPairs := cfg.HistoryPairs
	if historyPairs <= 0 {
		historyPairs = DefaultHistoryPairs
	}

	return &Agent{
		g:            cfg.Genkit,
		retriever:    cfg.Retriever,
		logger:       logger,
		modelName:    cfg.ModelName,
		historyPairs: historyPairs,
		limiter:      cfg.RateLimiter,
	}, nil
}

// Input is one student turn.
type Input struct {
	Question     string `json:"question"`
	SessionID    string `json:"sessionId,omitempty"`
	Subject      string `json:"subject,omitempty"`
	ClearHistory bool   `json:"clearHistory,omitempty"`
}

// Output is the tutor's answer with the sources that shaped it.
type Output struct {
	Answer    string             `json:"answer"`
	Sources   []retrieval.Source `json:"sources"`
	SessionID string             `json:"sessionId"`
}

// Answer executes one tutoring turn. On generation failure the exchange is
// not committed, so retrying with the returned session id sees the same
// history.
func (a *Agent) Answer(ctx context.Context, in Input) (Output, error) {
	if in.ClearHistory && in.SessionID != "" {
		a.retriever.ClearSession(in.SessionID)
	}

	bundle, err := a.retriever.AnswerableContext(ctx, in.Question, in.SessionID, in.Subject)
	if err != nil {
		return Output{SessionID: in.SessionID}, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	history := a.retriever.PromptHistory(bundle.SessionID, a.historyPairs)
	prompt := buildPrompt(bundle.ContextText, in.Question, history)

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return Output{SessionID: bundle.SessionID}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
	}

	resp, err := genkit.Generate(ctx, a.g,
		ai.WithModelName(a.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return Output{SessionID: bundle.SessionID}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		a.logger.Warn("model returned empty response", "session", bundle.SessionID)
		answer = fallbackAnswer
	}

	a.retriever.CommitExchange(bundle.SessionID, in.Question, answer)
	a.logger.Debug("answered question",
		"session", bundle.SessionID, "sources", len(bundle.Sources))

	return Output{
		Answer:    answer,
		Sources:   bundle.Sources,
		SessionID: bundle.SessionID,
	}, nil
}

// buildPrompt lays out the user prompt: CONTEXT, optional HISTORY, then
// the question.
func buildPrompt(contextText, question, history string) string {
	var b strings.Builder
	b.WriteString("CONTEXT:\n")
	b.WriteString(contextText)
	b.WriteString("\n")
	if history != "" {
		b.WriteString("\nHISTORY:\n")
		b.WriteString(history)
		b.WriteString("\n")
	}
	b.WriteString("\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nANSWER:")
	return b.String()
}
