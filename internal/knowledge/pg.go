package knowledge

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PG implements Querier over a pgx connection pool. The pool must have
// pgvector types registered (see app.NewPool).
type PG struct {
	pool *pgxpool.Pool
}

// NewPG creates a pgx-backed Querier.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

const upsertPassageSQL = `
INSERT INTO vidya_passages (id, content, embedding, subject, source_document, page)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    content = EXCLUDED.content,
    embedding = EXCLUDED.embedding,
    subject = EXCLUDED.subject,
    source_document = EXCLUDED.source_document,
    page = EXCLUDED.page`

// UpsertPassage inserts or updates a passage.
func (p *PG) UpsertPassage(ctx context.Context, arg UpsertPassageParams) error {
	_, err := p.pool.Exec(ctx, upsertPassageSQL,
		arg.ID, arg.Content, arg.Embedding, arg.Subject, arg.SourceDocument, arg.Page)
	return err
}

const searchPassagesSQL = `
SELECT id, content, subject, source_document, page,
       (embedding <=> $1)::float4 AS distance
FROM vidya_passages
ORDER BY embedding <=> $1
LIMIT $2`

// SearchPassages performs unfiltered nearest-neighbor search by cosine
// distance, ascending.
func (p *PG) SearchPassages(ctx context.Context, arg SearchPassagesParams) ([]PassageRow, error) {
	rows, err := p.pool.Query(ctx, searchPassagesSQL, arg.Embedding, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPassageRows(rows)
}

const searchPassagesBySubjectSQL = `
SELECT id, content, subject, source_document, page,
       (embedding <=> $1)::float4 AS distance
FROM vidya_passages
WHERE subject = $2
ORDER BY embedding <=> $1
LIMIT $3`

// SearchPassagesBySubject performs subject-filtered nearest-neighbor search.
func (p *PG) SearchPassagesBySubject(ctx context.Context, arg SearchPassagesParams) ([]PassageRow, error) {
	rows, err := p.pool.Query(ctx, searchPassagesBySubjectSQL, arg.Embedding, arg.Subject, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPassageRows(rows)
}

// CountPassages counts all stored passages.
func (p *PG) CountPassages(ctx context.Context) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `SELECT count(*) FROM vidya_passages`).Scan(&count)
	return count, err
}

// CountPassagesBySubject tallies passages per subject.
func (p *PG) CountPassagesBySubject(ctx context.Context) ([]SubjectCount, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT subject, count(*) FROM vidya_passages GROUP BY subject ORDER BY subject`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []SubjectCount
	for rows.Next() {
		var c SubjectCount
		if err := rows.Scan(&c.Subject, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// scanPassageRows drains a passage result set.
func scanPassageRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]PassageRow, error) {
	var out []PassageRow
	for rows.Next() {
		var r PassageRow
		if err := rows.Scan(&r.ID, &r.Content, &r.Subject, &r.SourceDocument, &r.Page, &r.Distance); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
