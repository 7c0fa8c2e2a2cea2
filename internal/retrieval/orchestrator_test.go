package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"

	"github.com/vidyalabs/vidya/internal/knowledge"
	"github.com/vidyalabs/vidya/internal/log"
	"github.com/vidyalabs/vidya/internal/query"
	"github.com/vidyalabs/vidya/internal/session"
)

// fakeSearcher records the search request and returns canned matches.
type fakeSearcher struct {
	matches    []knowledge.Match
	err        error
	lastText   string
	lastConfig []knowledge.SearchOption
	calls      int
}

func (f *fakeSearcher) Search(_ context.Context, text string, opts ...knowledge.SearchOption) ([]knowledge.Match, error) {
	f.calls++
	f.lastText = text
	f.lastConfig = opts
	return f.matches, f.err
}

func polityMatches(n int) []knowledge.Match {
	out := make([]knowledge.Match, n)
	for i := range out {
		out[i] = knowledge.Match{
			Text: fmt.Sprintf("passage %d", i),
			Metadata: knowledge.Metadata{
				Subject: "Polity", SourceDocument: "civics.pdf", Page: (i + 1) * 10,
			},
			Distance: float32(i) / 10,
		}
	}
	return out
}

func newTestOrchestrator(s Searcher, opts ...Option) *Orchestrator {
	registry := session.NewRegistry(log.NewNop())
	return NewOrchestrator(s, registry, log.NewNop(), opts...)
}

func TestAnswerableContext_PlainQuery(t *testing.T) {
	searcher := &fakeSearcher{matches: polityMatches(3)}
	o := newTestOrchestrator(searcher, WithTopK(3))

	bundle, err := o.AnswerableContext(context.Background(), "What is democracy?", "", "")
	if err != nil {
		t.Fatalf("AnswerableContext error: %v", err)
	}
	if bundle.SessionID == "" {
		t.Error("missing effective session id")
	}
	if len(bundle.Sources) != 3 {
		t.Errorf("got %d sources, want 3", len(bundle.Sources))
	}
	if strings.Count(bundle.ContextText, "[Source ") != 3 {
		t.Errorf("context should contain 3 labeled blocks:\n%s", bundle.ContextText)
	}
	// No positional keyword: relevance order preserved.
	if !strings.Contains(bundle.ContextText, "[Source 1: Polity") {
		t.Errorf("subject metadata lost:\n%s", bundle.ContextText)
	}
	if strings.Index(bundle.ContextText, "passage 0") > strings.Index(bundle.ContextText, "passage 2") {
		t.Error("relevance order not preserved for non-positional query")
	}
}

func TestAnswerableContext_PositionalQueryReranks(t *testing.T) {
	// Relevance order has the highest page first; a positional query must
	// surface the lowest pages in the top half.
	searcher := &fakeSearcher{matches: []knowledge.Match{
		{Text: "late", Metadata: knowledge.Metadata{Page: 200}},
		{Text: "early", Metadata: knowledge.Metadata{Page: 3}},
		{Text: "mid", Metadata: knowledge.Metadata{Page: 80}},
		{Text: "later", Metadata: knowledge.Metadata{Page: 150}},
	}}
	o := newTestOrchestrator(searcher)

	bundle, err := o.AnswerableContext(context.Background(), "What is the first chapter about?", "", "")
	if err != nil {
		t.Fatalf("AnswerableContext error: %v", err)
	}

	// Expansion appended TOC terms to the search text.
	if !strings.Contains(searcher.lastText, "table of contents") {
		t.Errorf("search text missing expansion terms: %q", searcher.lastText)
	}
	// Lowest-page matches lead the context.
	first := strings.Index(bundle.ContextText, "early")
	second := strings.Index(bundle.ContextText, "mid")
	if first < 0 || second < 0 || first > second {
		t.Errorf("early pages not boosted:\n%s", bundle.ContextText)
	}
}

func TestAnswerableContext_FollowupEmbedsPriorQuestion(t *testing.T) {
	searcher := &fakeSearcher{matches: polityMatches(1)}
	o := newTestOrchestrator(searcher)

	bundle, err := o.AnswerableContext(context.Background(), "What is democracy?", "", "")
	if err != nil {
		t.Fatal(err)
	}
	o.CommitExchange(bundle.SessionID, "What is democracy?", "A form of government.")

	_, err = o.AnswerableContext(context.Background(), "Give an example", bundle.SessionID, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(searcher.lastText, "Previous question: What is democracy?") {
		t.Errorf("reformulated search text = %q", searcher.lastText)
	}
	if !strings.Contains(searcher.lastText, "Current question: Give an example") {
		t.Errorf("reformulated search text = %q", searcher.lastText)
	}
}

func TestAnswerableContext_RetrievalDoesNotMutateMemory(t *testing.T) {
	searcher := &fakeSearcher{matches: polityMatches(1)}
	o := newTestOrchestrator(searcher)

	bundle, _ := o.AnswerableContext(context.Background(), "What is democracy?", "", "")
	// A second retrieval on the same session must not see the first as
	// history: nothing was committed.
	o.AnswerableContext(context.Background(), "Another question", bundle.SessionID, "")

	if strings.Contains(searcher.lastText, "Previous question") {
		t.Errorf("uncommitted exchange leaked into reformulation: %q", searcher.lastText)
	}
}

func TestAnswerableContext_EmptyQueryYieldsSentinel(t *testing.T) {
	searcher := &fakeSearcher{}
	o := newTestOrchestrator(searcher)

	bundle, err := o.AnswerableContext(context.Background(), "   ", "", "")
	if err != nil {
		t.Fatalf("empty query must not error: %v", err)
	}
	if bundle.ContextText != SentinelContext {
		t.Errorf("context = %q, want sentinel", bundle.ContextText)
	}
	if len(bundle.Sources) != 0 {
		t.Errorf("sources = %v, want empty", bundle.Sources)
	}
	if searcher.calls != 0 {
		t.Error("empty query should not hit the index")
	}
	if bundle.SessionID == "" {
		t.Error("empty query still resolves a session")
	}
}

func TestAnswerableContext_EmptyResultYieldsSentinel(t *testing.T) {
	o := newTestOrchestrator(&fakeSearcher{matches: nil})

	bundle, err := o.AnswerableContext(context.Background(), "obscure question", "", "")
	if err != nil {
		t.Fatalf("empty result must not error: %v", err)
	}
	if bundle.ContextText != SentinelContext || len(bundle.Sources) != 0 {
		t.Errorf("bundle = %+v, want sentinel with no sources", bundle)
	}
}

func TestAnswerableContext_SearchErrorPropagates(t *testing.T) {
	wantErr := errors.New("index unreachable")
	o := newTestOrchestrator(&fakeSearcher{err: wantErr})

	_, err := o.AnswerableContext(context.Background(), "What is democracy?", "", "")
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped %v", err, wantErr)
	}
}

func TestAnswerableContext_ExplicitSubjectWins(t *testing.T) {
	searcher := &fakeSearcher{}
	o := newTestOrchestrator(searcher)

	// "democracy" would auto-detect Polity, but the explicit filter wins.
	o.AnswerableContext(context.Background(), "What is democracy?", "", query.SubjectEnglish)

	_, subject := resolveOptions(t, searcher.lastConfig)
	if subject != query.SubjectEnglish {
		t.Errorf("subject filter = %q, want %q", subject, query.SubjectEnglish)
	}
}

func TestAnswerableContext_AutoDetectedSubjectApplied(t *testing.T) {
	searcher := &fakeSearcher{}
	o := newTestOrchestrator(searcher, WithTopK(7))

	o.AnswerableContext(context.Background(), "What is democracy?", "", "")

	topK, subject := resolveOptions(t, searcher.lastConfig)
	if subject != query.SubjectPolity {
		t.Errorf("subject filter = %q, want auto-detected %q", subject, query.SubjectPolity)
	}
	if topK != 7 {
		t.Errorf("topK = %d, want 7", topK)
	}
}

func TestSessionPassThroughs(t *testing.T) {
	o := newTestOrchestrator(&fakeSearcher{matches: polityMatches(1)})

	bundle, _ := o.AnswerableContext(context.Background(), "What is democracy?", "", "")
	o.CommitExchange(bundle.SessionID, "q", "a")

	if got := o.SessionStats().ActiveSessions; got != 1 {
		t.Errorf("ActiveSessions = %d, want 1", got)
	}

	o.ClearSession(bundle.SessionID)
	if got := o.SessionStats().Sessions[0].Messages; got != 0 {
		t.Errorf("messages after clear = %d, want 0", got)
	}

	o.DeleteSession(bundle.SessionID)
	if got := o.SessionStats().ActiveSessions; got != 0 {
		t.Errorf("ActiveSessions after delete = %d, want 0", got)
	}
}

// resolveOptions replays captured search options through a real
// knowledge.Store backed by a recording querier, so tests can assert on
// the effective topK and subject filter.
func resolveOptions(t *testing.T, opts []knowledge.SearchOption) (topK int, subject string) {
	t.Helper()
	q := &captureQuerier{}
	store := knowledge.New(q, probeEmbedder{}, log.NewNop())
	if _, err := store.Search(context.Background(), "probe", opts...); err != nil {
		t.Fatalf("probe search failed: %v", err)
	}
	return int(q.limit), q.subject
}

type captureQuerier struct {
	limit   int32
	subject string
}

func (c *captureQuerier) UpsertPassage(context.Context, knowledge.UpsertPassageParams) error {
	return nil
}

func (c *captureQuerier) SearchPassages(_ context.Context, arg knowledge.SearchPassagesParams) ([]knowledge.PassageRow, error) {
	c.limit = arg.Limit
	return nil, nil
}

func (c *captureQuerier) SearchPassagesBySubject(_ context.Context, arg knowledge.SearchPassagesParams) ([]knowledge.PassageRow, error) {
	c.limit = arg.Limit
	c.subject = arg.Subject
	return nil, nil
}

func (c *captureQuerier) CountPassages(context.Context) (int64, error) { return 0, nil }

func (c *captureQuerier) CountPassagesBySubject(context.Context) ([]knowledge.SubjectCount, error) {
	return nil, nil
}

type probeEmbedder struct{}

func (probeEmbedder) Name() string { return "probe-embedder" }

func (probeEmbedder) Register(api.Registry) {}

func (probeEmbedder) Embed(context.Context, *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{{Embedding: []float32{0.1, 0.2}}},
	}, nil
}
