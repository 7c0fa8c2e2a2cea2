package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/vidyalabs/vidya/internal/retrieval"
)

// fakeRetriever records calls and returns canned bundles.
type fakeRetriever struct {
	bundle       retrieval.ContextBundle
	retrieveErr  error
	history      string
	committed    []string // "question|answer" entries
	clearedIDs   []string
	historyCalls int
}

func (f *fakeRetriever) AnswerableContext(_ context.Context, _, _, _ string) (retrieval.ContextBundle, error) {
	if f.retrieveErr != nil {
		return retrieval.ContextBundle{}, f.retrieveErr
	}
	return f.bundle, nil
}

func (f *fakeRetriever) PromptHistory(string, int) string {
	f.historyCalls++
	return f.history
}

func (f *fakeRetriever) CommitExchange(_, question, answer string) string {
	f.committed = append(f.committed, question+"|"+answer)
	return f.bundle.SessionID
}

func (f *fakeRetriever) ClearSession(id string) {
	f.clearedIDs = append(f.clearedIDs, id)
}

func newTestAgent(t *testing.T, r Retriever) *Agent {
	t.Helper()
	g := genkit.Init(context.Background())
	agent, err := New(Config{
		Genkit:    g,
		Retriever: r,
		ModelName: "test/unregistered-model",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return agent
}

func TestNew_Validation(t *testing.T) {
	g := genkit.Init(context.Background())
	r := &fakeRetriever{}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing genkit", Config{Retriever: r, ModelName: "m"}},
		{"missing retriever", Config{Genkit: g, ModelName: "m"}},
		{"missing model", Config{Genkit: g, Retriever: r}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAnswer_RetrievalErrorPropagatesUncommitted(t *testing.T) {
	wantErr := errors.New("index down")
	r := &fakeRetriever{retrieveErr: wantErr}
	agent := newTestAgent(t, r)

	_, err := agent.Answer(context.Background(), Input{Question: "q"})
	if !errors.Is(err, ErrRetrievalFailed) || !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want ErrRetrievalFailed wrapping %v", err, wantErr)
	}
	if len(r.committed) != 0 {
		t.Error("failed turn must not commit an exchange")
	}
}

func TestAnswer_GenerationFailureKeepsMemoryClean(t *testing.T) {
	// The model name is not registered with this genkit instance, so
	// generation fails without touching the network.
	r := &fakeRetriever{bundle: retrieval.ContextBundle{
		ContextText: "some context",
		SessionID:   "sid-1",
	}}
	agent := newTestAgent(t, r)

	out, err := agent.Answer(context.Background(), Input{Question: "q", SessionID: "sid-1"})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("error = %v, want ErrGenerationFailed", err)
	}
	if out.SessionID != "sid-1" {
		t.Errorf("output session id = %q, want the effective id for retry", out.SessionID)
	}
	if len(r.committed) != 0 {
		t.Error("failed generation must not commit an exchange")
	}
}

func TestAnswer_ClearHistoryFlag(t *testing.T) {
	r := &fakeRetriever{bundle: retrieval.ContextBundle{SessionID: "sid-2"}}
	agent := newTestAgent(t, r)

	agent.Answer(context.Background(), Input{
		Question:     "q",
		SessionID:    "sid-2",
		ClearHistory: true,
	})
	if len(r.clearedIDs) != 1 || r.clearedIDs[0] != "sid-2" {
		t.Errorf("cleared = %v, want [sid-2]", r.clearedIDs)
	}

	// No session id: nothing to clear.
	r.clearedIDs = nil
	agent.Answer(context.Background(), Input{Question: "q", ClearHistory: true})
	if len(r.clearedIDs) != 0 {
		t.Errorf("cleared = %v, want none without a session id", r.clearedIDs)
	}
}

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt("CTX", "What is democracy?", "Student: hi\nTutor: hello")

	for _, want := range []string{
		"CONTEXT:\nCTX",
		"HISTORY:\nStudent: hi\nTutor: hello",
		"QUESTION: What is democracy?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, "ANSWER:") {
		t.Errorf("prompt should end with the answer cue:\n%s", got)
	}

	// Context precedes history precedes question.
	if !(strings.Index(got, "CONTEXT:") < strings.Index(got, "HISTORY:") &&
		strings.Index(got, "HISTORY:") < strings.Index(got, "QUESTION:")) {
		t.Errorf("prompt sections out of order:\n%s", got)
	}
}

func TestBuildPrompt_OmitsEmptyHistory(t *testing.T) {
	got := buildPrompt("CTX", "q", "")
	if strings.Contains(got, "HISTORY") {
		t.Errorf("empty history should be omitted:\n%s", got)
	}
}
