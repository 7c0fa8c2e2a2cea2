// Package ingest walks a directory of textbook PDFs and loads their
// content into the knowledge store. The expected layout is one
// subdirectory per subject, PDF files inside:
//
//	textbooks/
//	  Polity/
//	    democratic_politics_ch1.pdf
//	  Geography/
//	    resources_ch1.pdf
//
// Each page is chunked into overlapping word windows and upserted with
// a deterministic ID, so re-running ingestion over the same files is
// idempotent.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/vidyalabs/vidya/internal/knowledge"
	"github.com/vidyalabs/vidya/internal/log"
)

// ErrLocked is returned when another ingestion run holds the lock.
var ErrLocked = errors.New("ingest: another ingestion is in progress")

// Store is the slice of the knowledge layer ingestion needs.
type Store interface {
	Add(ctx context.Context, p knowledge.Passage) error
}

// Result summarizes one ingestion run.
type Result struct {
	Files    int
	Failed   int
	Passages int
	Duration time.Duration
}

// Ingester loads subject-organized PDF directories into a Store.
type Ingester struct {
	store     Store
	logger    log.Logger
	chunkSize int
	overlap   int
	lockPath  string
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithChunking overrides the word window size and overlap.
func WithChunking(chunkSize, overlap int) Option {
	return func(ing *Ingester) {
		ing.chunkSize = chunkSize
		ing.overlap = overlap
	}
}

// WithLockPath overrides where the ingestion lock file lives.
func WithLockPath(path string) Option {
	return func(ing *Ingester) {
		ing.lockPath = path
	}
}

// New creates an Ingester writing to store.
func New(store Store, logger log.Logger, opts ...Option) *Ingester {
	if logger == nil {
		logger = log.NewNop()
	}
	ing := &Ingester{
		store:     store,
		logger:    logger,
		chunkSize: DefaultChunkWords,
		overlap:   DefaultOverlapWords,
		lockPath:  filepath.Join(os.TempDir(), "vidya-ingest.lock"),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// IngestDir ingests every PDF under root. The first path element below
// root names the subject. Only one ingestion may run at a time; a held
// lock returns ErrLocked immediately instead of blocking.
func (ing *Ingester) IngestDir(ctx context.Context, root string) (Result, error) {
	lock := flock.New(ing.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire ingest lock: %w", err)
	}
	if !locked {
		return Result{}, ErrLocked
	}
	defer lock.Unlock()

	start := time.Now()
	var res Result

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		subject := subjectFromPath(root, path)
		added, ferr := ing.ingestFile(ctx, path, subject)
		res.Passages += added
		if ferr != nil {
			res.Failed++
			ing.logger.Warn("failed to ingest file",
				"path", path, "error", ferr)
			return nil
		}
		res.Files++
		ing.logger.Info("ingested file",
			"path", path, "subject", subject, "passages", added)
		return nil
	})

	res.Duration = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("walk %s: %w", root, err)
	}
	return res, nil
}

func (ing *Ingester) ingestFile(ctx context.Context, path, subject string) (int, error) {
	pages, err := ExtractPages(path)
	if err != nil {
		return 0, err
	}

	doc := filepath.Base(path)
	added := 0
	for _, page := range pages {
		for i, chunk := range ChunkWords(page.Text, ing.chunkSize, ing.overlap) {
			p := knowledge.Passage{
				ID:   passageID(doc, page.Page, i),
				Text: chunk,
				Metadata: knowledge.Metadata{
					Subject:        subject,
					SourceDocument: doc,
					Page:           page.Page,
				},
			}
			if err := ing.store.Add(ctx, p); err != nil {
				return added, fmt.Errorf("page %d chunk %d: %w", page.Page, i, err)
			}
			added++
		}
	}
	return added, nil
}

// subjectFromPath returns the first directory component of path below
// root, or "Unknown" for files sitting directly in root.
func subjectFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "Unknown"
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return "Unknown"
	}
	return parts[0]
}

// passageID derives a stable identifier from the document name, page
// and chunk index, so re-ingestion updates rows in place.
func passageID(doc string, page, chunk int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%d:%d", doc, page, chunk))
	return hex.EncodeToString(sum[:16])
}
