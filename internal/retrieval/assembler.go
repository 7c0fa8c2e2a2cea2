package retrieval

import (
	"fmt"
	"strings"

	"github.com/vidyalabs/vidya/internal/knowledge"
)

// SentinelContext is returned when search yields no matches. It is still
// handed to generation so the model says the knowledge base has nothing,
// instead of guessing.
const SentinelContext = "No relevant information found in the textbook."

// unknownField replaces absent subject/document metadata in user-facing
// output.
const unknownField = "Unknown"

// Source is one human-readable source record, parallel to a context block.
// Field names match the wire format consumed by clients.
type Source struct {
	Subject  string `json:"subject"`
	Document string `json:"filename"`
	Page     int    `json:"page"`
}

// AssembleContext merges ranked matches into one bounded context string
// plus a parallel source list. The i-th context block always corresponds
// to the i-th source record, in the order the matches were presented, so
// sources can be explained to the student in the order they influenced the
// answer.
//
// An empty match list yields SentinelContext and an empty source list.
func AssembleContext(matches []knowledge.Match) (string, []Source) {
	if len(matches) == 0 {
		return SentinelContext, []Source{}
	}

	blocks := make([]string, 0, len(matches))
	sources := make([]Source, 0, len(matches))
	for i, m := range matches {
		src := Source{
			Subject:  fallback(m.Metadata.Subject),
			Document: fallback(m.Metadata.SourceDocument),
			Page:     m.Metadata.Page,
		}
		sources = append(sources, src)

		blocks = append(blocks, fmt.Sprintf("[Source %d: %s - %s (Page %s)]\n%s\n",
			i+1, src.Subject, src.Document, pageLabel(src.Page), m.Text))
	}
	return strings.Join(blocks, "\n"), sources
}

func fallback(s string) string {
	if s == "" {
		return unknownField
	}
	return s
}

// pageLabel renders a page number for the context label; absent pages show
// as "?" rather than a misleading zero.
func pageLabel(page int) string {
	if page <= 0 {
		return "?"
	}
	return fmt.Sprintf("%d", page)
}
