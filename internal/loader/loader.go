// Package loader runs the retrieve, parse and persist pipeline shared by the
// CLI and the server's reload path.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/matsen/pubcat/internal/bibtex"
	"github.com/matsen/pubcat/internal/publication"
	"github.com/matsen/pubcat/internal/source"
	"github.com/matsen/pubcat/internal/storage"
)

// ErrRetrieval wraps every failure to obtain the document.
var ErrRetrieval = errors.New("retrieval failed")

// IsRetrieval reports whether err came from fetching the document.
func IsRetrieval(err error) bool {
	return errors.Is(err, ErrRetrieval)
}

// IsNoEntries reports whether the document held no entries.
func IsNoEntries(err error) bool {
	return errors.Is(err, bibtex.ErrNoEntries)
}

// Result describes one successful load.
type Result struct {
	Records   []publication.Record
	Source    string
	Bytes     int
	Hash      string
	Unchanged bool // document hash matched the stored snapshot
	SyncedAt  time.Time
}

// Loader fetches a document, parses it and stores the snapshot.
type Loader struct {
	src    source.Source
	db     *storage.DB // optional
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Loader. db may be nil to skip persistence.
func New(src source.Source, db *storage.DB, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{src: src, db: db, logger: logger, now: time.Now}
}

// Load fetches and parses the document. On success the snapshot is replaced;
// on any failure the stored snapshot is left untouched.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	data, err := l.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	res := &Result{
		Source:   l.src.String(),
		Bytes:    len(data),
		Hash:     storage.HashContent(data),
		SyncedAt: l.now().UTC(),
	}
	l.logger.Debug("fetched document", "source", res.Source, "bytes", res.Bytes)

	records, err := bibtex.ParseDocument(string(data))
	if err != nil {
		return nil, err
	}
	res.Records = records
	l.logger.Info("parsed document", "source", res.Source, "bytes", res.Bytes, "entries", len(records))

	if l.db == nil {
		return res, nil
	}

	fresh, err := l.db.IsFresh(res.Hash)
	if err != nil {
		return nil, fmt.Errorf("checking snapshot: %w", err)
	}
	res.Unchanged = fresh

	meta := storage.Meta{Source: res.Source, ContentHash: res.Hash, LastSync: res.SyncedAt}
	if err := l.db.ReplaceAll(records, meta); err != nil {
		return nil, fmt.Errorf("storing snapshot: %w", err)
	}
	return res, nil
}

// Cached returns the stored snapshot without fetching. An empty or missing
// snapshot yields bibtex.ErrNoEntries.
func Cached(db *storage.DB) ([]publication.Record, storage.Meta, error) {
	meta, err := db.Meta()
	if err != nil {
		return nil, meta, err
	}
	records, err := db.ReadAll()
	if err != nil {
		return nil, meta, err
	}
	if len(records) == 0 {
		return nil, meta, bibtex.ErrNoEntries
	}
	return records, meta, nil
}
