package retrieval

import (
	"strings"
	"testing"

	"github.com/vidyalabs/vidya/internal/knowledge"
)

func TestAssembleContext_BlocksAndSourcesAligned(t *testing.T) {
	matches := []knowledge.Match{
		{
			Text: "Democracy is a form of government.",
			Metadata: knowledge.Metadata{
				Subject: "Polity", SourceDocument: "civics.pdf", Page: 5,
			},
		},
		{
			Text: "Elections are held every five years.",
			Metadata: knowledge.Metadata{
				Subject: "Polity", SourceDocument: "civics.pdf", Page: 41,
			},
		},
	}

	text, sources := AssembleContext(matches)

	if len(sources) != len(matches) {
		t.Fatalf("got %d sources, want %d", len(sources), len(matches))
	}
	if !strings.Contains(text, "[Source 1: Polity - civics.pdf (Page 5)]") {
		t.Errorf("first block label missing:\n%s", text)
	}
	if !strings.Contains(text, "[Source 2: Polity - civics.pdf (Page 41)]") {
		t.Errorf("second block label missing:\n%s", text)
	}
	// Block order matches source order.
	if strings.Index(text, "Democracy is") > strings.Index(text, "Elections are") {
		t.Error("context blocks out of order")
	}
	if sources[0].Page != 5 || sources[1].Page != 41 {
		t.Errorf("sources out of order: %+v", sources)
	}
}

func TestAssembleContext_MetadataFallbacks(t *testing.T) {
	matches := []knowledge.Match{
		{Text: "Orphan passage."},
	}

	text, sources := AssembleContext(matches)

	if !strings.Contains(text, "[Source 1: Unknown - Unknown (Page ?)]") {
		t.Errorf("fallback label wrong:\n%s", text)
	}
	src := sources[0]
	if src.Subject != "Unknown" || src.Document != "Unknown" || src.Page != 0 {
		t.Errorf("source fallbacks wrong: %+v", src)
	}
}

func TestAssembleContext_EmptyMatchesYieldSentinel(t *testing.T) {
	text, sources := AssembleContext(nil)

	if text != SentinelContext {
		t.Errorf("context = %q, want sentinel", text)
	}
	if sources == nil || len(sources) != 0 {
		t.Errorf("sources = %v, want empty non-nil list", sources)
	}
}
