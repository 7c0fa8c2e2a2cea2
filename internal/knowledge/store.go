// Package knowledge stores textbook passages and serves filtered
// nearest-neighbor search over them.
//
// The Store pairs an AI embedder with a PostgreSQL + pgvector table. It is
// the system's only view of the vector index: callers hand it query text
// and get back ranked matches, best-first by ascending cosine distance.
// Fewer than the requested number of matches, including zero, is a valid
// terminal state, never an error.
//
// Store is safe for concurrent use by multiple goroutines.
package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"

	"github.com/vidyalabs/vidya/internal/log"
)

// UpsertPassageParams carries one passage insert/update.
type UpsertPassageParams struct {
	ID             string
	Content        string
	Embedding      pgvector.Vector
	Subject        string
	SourceDocument string
	Page           int32
}

// SearchPassagesParams carries one nearest-neighbor query.
// Subject is ignored unless BySubject is set on the call.
type SearchPassagesParams struct {
	Embedding pgvector.Vector
	Subject   string
	Limit     int32
}

// PassageRow is one search result row.
type PassageRow struct {
	ID             string
	Content        string
	Subject        string
	SourceDocument string
	Page           int32
	Distance       float32
}

// SubjectCount is one per-subject passage tally.
type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int64  `json:"count"`
}

// Querier defines the database operations Store needs. The interface is
// defined by the consumer (like io.Reader or http.RoundTripper) so tests
// can substitute a mock and the pgx implementation stays swappable.
type Querier interface {
	// UpsertPassage inserts or updates a passage.
	UpsertPassage(ctx context.Context, arg UpsertPassageParams) error

	// SearchPassages performs unfiltered vector search.
	SearchPassages(ctx context.Context, arg SearchPassagesParams) ([]PassageRow, error)

	// SearchPassagesBySubject performs subject-filtered vector search.
	SearchPassagesBySubject(ctx context.Context, arg SearchPassagesParams) ([]PassageRow, error)

	// CountPassages counts all stored passages.
	CountPassages(ctx context.Context) (int64, error)

	// CountPassagesBySubject tallies passages per subject.
	CountPassagesBySubject(ctx context.Context) ([]SubjectCount, error)
}

// Store manages textbook passages with vector search.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a Store. A nil logger falls back to a no-op logger.
func New(querier Querier, embedder ai.Embedder, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Add embeds a passage's text and upserts it. Re-adding the same ID
// replaces the stored content, so ingestion is idempotent.
func (s *Store) Add(ctx context.Context, p Passage) error {
	embedding, err := s.embed(ctx, p.Text)
	if err != nil {
		return fmt.Errorf("embedding passage %q: %w", p.ID, err)
	}

	err = s.queries.UpsertPassage(ctx, UpsertPassageParams{
		ID:             p.ID,
		Content:        p.Text,
		Embedding:      embedding,
		Subject:        p.Metadata.Subject,
		SourceDocument: p.Metadata.SourceDocument,
		Page:           int32(p.Metadata.Page), // #nosec G115 -- page numbers are small
	})
	if err != nil {
		return fmt.Errorf("upserting passage %q: %w", p.ID, err)
	}

	s.logger.Debug("added passage", "id", p.ID, "subject", p.Metadata.Subject, "page", p.Metadata.Page)
	return nil
}

// Search embeds the query text and returns up to topK matches, best-first
// by ascending distance. An empty result slice is a valid outcome.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Match, error) {
	cfg := buildSearchConfig(opts)

	// Bound the whole embed+search round trip so a slow index cannot
	// block the request indefinitely.
	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	params := SearchPassagesParams{
		Embedding: embedding,
		Subject:   cfg.subject,
		Limit:     int32(cfg.topK), // #nosec G115 -- topK is a small positive bound
	}

	var rows []PassageRow
	if cfg.subject != "" {
		rows, err = s.queries.SearchPassagesBySubject(queryCtx, params)
	} else {
		rows, err = s.queries.SearchPassages(queryCtx, params)
	}
	if err != nil {
		return nil, fmt.Errorf("searching passages: %w", err)
	}

	s.logger.Debug("vector search",
		"top_k", cfg.topK, "subject", cfg.subject, "matches", len(rows))
	return rowsToMatches(rows), nil
}

// Count returns the total number of stored passages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	count, err := s.queries.CountPassages(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting passages: %w", err)
	}
	return count, nil
}

// CountBySubject returns per-subject passage tallies.
func (s *Store) CountBySubject(ctx context.Context) ([]SubjectCount, error) {
	counts, err := s.queries.CountPassagesBySubject(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting passages by subject: %w", err)
	}
	return counts, nil
}

// embed generates the embedding vector for one text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("embedder returned empty embedding")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// rowsToMatches converts database rows to the fixed-field Match records
// consumed downstream.
func rowsToMatches(rows []PassageRow) []Match {
	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, Match{
			Text: row.Content,
			Metadata: Metadata{
				Subject:        row.Subject,
				SourceDocument: row.SourceDocument,
				Page:           int(row.Page),
			},
			Distance: row.Distance,
		})
	}
	return matches
}
