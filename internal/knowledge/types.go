package knowledge

import "time"

// Metadata is the fixed-field record attached to every stored passage.
// Fields may be absent in the source material; downstream formatting
// applies "Unknown"/0 fallbacks rather than treating absence as an error.
type Metadata struct {
	Subject        string // e.g. "Polity", "English"; "" when unknown
	SourceDocument string // originating file name; "" when unknown
	Page           int    // 1-based page number; 0 when unknown
}

// Passage is one ingested text chunk with its metadata.
type Passage struct {
	ID        string
	Text      string
	Metadata  Metadata
	CreatedAt time.Time
}

// Match is one candidate passage returned by vector search. Read-only to
// downstream components; lifetime is a single retrieval call.
type Match struct {
	Text     string
	Metadata Metadata
	Distance float32 // cosine distance, lower is better
}

// SearchOption configures search behavior using the functional options
// pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK    int
	subject string
	timeout time.Duration
}

// DefaultTopK is the number of matches returned when WithTopK is not given.
const DefaultTopK = 5

// WithTopK sets the maximum number of matches to return.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithSubject restricts search to passages tagged with the given subject.
// An empty subject leaves the search unfiltered.
func WithSubject(subject string) SearchOption {
	return func(c *searchConfig) {
		c.subject = subject
	}
}

// WithTimeout overrides the per-search timeout (default 10s).
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// buildSearchConfig applies search options over defaults.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    DefaultTopK,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
