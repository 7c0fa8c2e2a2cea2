// Package rerank reorders vector search candidates by a secondary signal.
//
// The only reranker implemented is a stable partial rerank by document
// position, applied to queries with positional intent ("what is the first
// chapter about"): the top half of the result list is replaced with the
// lowest-page candidates, while the remainder keeps its original relevance
// order as a safety net. It is not a full resort: relevance ranking still
// breaks ties within the page-ordered half and governs the entire second
// half.
//
// Reranking is a pure function over an ordered sequence: it never mutates
// its input, is total (defined on 0- and 1-length input), and carries no
// state.
package rerank

import (
	"math"
	"sort"

	"github.com/vidyalabs/vidya/internal/knowledge"
)

// pageSentinel sorts passages with missing page metadata after every real
// page.
const pageSentinel = math.MaxInt32

// ByEarlyPages performs the stable partial rerank described above.
// With fewer than two matches it returns the input unchanged.
func ByEarlyPages(matches []knowledge.Match) []knowledge.Match {
	if len(matches) < 2 {
		return matches
	}

	// Stable page order over indices, so equal pages keep relevance order.
	byPage := make([]int, len(matches))
	for i := range byPage {
		byPage[i] = i
	}
	sort.SliceStable(byPage, func(a, b int) bool {
		return pageKey(matches[byPage[a]]) < pageKey(matches[byPage[b]])
	})

	half := len(matches) / 2
	out := make([]knowledge.Match, 0, len(matches))
	taken := make([]bool, len(matches))
	for _, idx := range byPage[:half] {
		out = append(out, matches[idx])
		taken[idx] = true
	}
	// Remainder in original relevance order, never repeating an index.
	for i, m := range matches {
		if !taken[i] {
			out = append(out, m)
		}
	}
	return out
}

// pageKey returns the sort key for a match's page metadata.
func pageKey(m knowledge.Match) int {
	if m.Metadata.Page <= 0 {
		return pageSentinel
	}
	return m.Metadata.Page
}
