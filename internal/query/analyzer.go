// Package query turns a raw student question into a search request.
//
// Three independent transforms run in a fixed order:
//
//  1. Subject detection: classify the raw query into one of the curated
//     subject tags via case-insensitive keyword tables. Skipped entirely
//     when the caller supplies an explicit subject filter.
//  2. Query expansion: append table-of-contents and chapter-label terms
//     for structural questions so recall survives inconsistent source
//     formatting. Expansion only appends; the original query text is
//     never removed or reordered.
//  3. History-aware reformulation: prepend the most recent prior
//     question as labeled context so the search embedding leans toward
//     conversational continuity. Only the single most recent exchange is
//     used; older turns have diminishing retrieval value.
//
// Everything here is deterministic: the same raw query always produces the
// same analysis. Subject rules are an explicit ordered table and the check
// order is the tie-break; no classifier models are involved.
package query

import (
	"fmt"
	"regexp"
	"strings"
)

// Subject tags for the textbook corpus. Values match the subject metadata
// stored alongside passages.
const (
	SubjectPolity    = "Polity"
	SubjectHistory   = "History"
	SubjectGeography = "Geography"
	SubjectEconomics = "Economics"
	SubjectEnglish   = "English"
)

// subjectRule maps a curated keyword list to a subject tag. Rules are
// evaluated in table order; the first rule with any matching keyword wins.
type subjectRule struct {
	subject  string
	keywords []string
}

var subjectRules = []subjectRule{
	{SubjectPolity, []string{
		"democracy", "democratic", "federalism", "constitution", "election",
		"political party", "political parties", "power sharing", "legislature",
		"fundamental rights",
	}},
	{SubjectHistory, []string{
		"nationalism", "gandhi", "revolution", "colonial", "colonialism",
		"civil disobedience", "non-cooperation", "world war", "freedom struggle",
		"print culture", "industrialisation",
	}},
	{SubjectGeography, []string{
		"agriculture", "minerals", "soil", "water resources", "forest",
		"wildlife", "manufacturing industries", "land use", "crops", "monsoon",
	}},
	{SubjectEconomics, []string{
		"economy", "economic development", "gdp", "per capita income",
		"globalisation", "globalization", "credit", "money", "consumer rights",
		"sectors of",
	}},
	{SubjectEnglish, []string{
		"poem", "poet", "story", "author", "literature", "theme of",
		"character of", "grammar", "letter writing",
	}},
}

// positionalKeywords mark queries about what comes first in a book or
// chapter. Matched against the original, pre-expansion query text.
var positionalKeywords = []string{"first", "initial", "beginning", "start"}

// tocKeywords trigger table-of-contents expansion, a subset of the
// positional set: "start" alone ("where do rivers start") is not a
// structural cue.
var tocKeywords = []string{"first", "initial", "beginning"}

// tocTerms are appended to structural chapter queries to match
// front-matter passages.
const tocTerms = "table of contents chapter list introduction overview"

var chapterNumberRe = regexp.MustCompile(`(?i)\bchapter\s*(\d+)\b`)

// Request carries everything the analyzer needs for one query.
type Request struct {
	Query           string
	ExplicitSubject string // skip detection when non-empty
	PriorQuestion   string // most recent question from session memory, "" when none
}

// Analysis is the analyzer output: one search string plus an optional
// subject filter for the vector search, and the positional flag consumed
// by the reranker.
type Analysis struct {
	SearchText    string
	SubjectFilter string // "" means unfiltered
	Positional    bool
}

// Analyze applies subject detection, expansion, and reformulation in order.
func Analyze(req Request) Analysis {
	a := Analysis{
		SubjectFilter: req.ExplicitSubject,
		Positional:    HasPositionalIntent(req.Query),
	}

	if a.SubjectFilter == "" {
		if subject, ok := DetectSubject(req.Query); ok {
			a.SubjectFilter = subject
		}
	}

	a.SearchText = Expand(req.Query)
	a.SearchText = Reformulate(a.SearchText, req.PriorQuestion)
	return a
}

// DetectSubject classifies a raw query against the ordered subject rule
// table. Returns false when no keyword matches; the query is then searched
// unfiltered.
func DetectSubject(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, rule := range subjectRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.subject, true
			}
		}
	}
	return "", false
}

// HasPositionalIntent reports whether the query uses ordinal or positional
// language. The reranker only activates for such queries.
func HasPositionalIntent(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range positionalKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// Expand appends recall-raising terms for structural questions. The
// original query text is kept verbatim at the front.
func Expand(query string) string {
	expanded := query
	q := strings.ToLower(query)

	if strings.Contains(q, "chapter") {
		for _, kw := range tocKeywords {
			if strings.Contains(q, kw) {
				expanded += " " + tocTerms
				break
			}
		}
	}

	// Explicit chapter numbers appear in sources as "Chapter 3", "Ch 3",
	// or a bare unit label; append the variants so any of them can match.
	if m := chapterNumberRe.FindStringSubmatch(query); m != nil {
		n := m[1]
		expanded += fmt.Sprintf(" chapter %s ch %s unit %s lesson %s", n, n, n, n)
	}

	return expanded
}

// Reformulate prepends the most recent prior question as labeled context.
// With no history the query passes through unchanged.
func Reformulate(query, priorQuestion string) string {
	if priorQuestion == "" {
		return query
	}
	return fmt.Sprintf("Previous question: %s\nCurrent question: %s", priorQuestion, query)
}
