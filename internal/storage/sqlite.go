// Package storage persists the last successfully loaded catalog so that
// queries work without refetching the document.
//
// The bibliography document is the source of truth; the SQLite snapshot is a
// cache that is replaced wholesale on every sync.
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/pubcat/internal/publication"
	_ "modernc.org/sqlite"
)

// Meta describes the snapshot currently stored.
type Meta struct {
	Source      string    `json:"source"`
	ContentHash string    `json:"content_hash"`
	LastSync    time.Time `json:"last_sync"`
	Count       int       `json:"count"`
}

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- One row per record; position keeps document order
		CREATE TABLE IF NOT EXISTS publications (
			position INTEGER PRIMARY KEY,
			key TEXT NOT NULL,
			category TEXT NOT NULL,
			year TEXT,
			title TEXT,
			fields_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_publications_category ON publications(category);
		CREATE INDEX IF NOT EXISTS idx_publications_year ON publications(year);

		CREATE TABLE IF NOT EXISTS _meta (
			key TEXT PRIMARY KEY,
			value TEXT
		);
	`

	_, err := db.Exec(schema)
	return err
}

// ReplaceAll swaps the stored snapshot for records in a single transaction.
// Readers see either the old snapshot or the new one, never a mix.
// meta.Count is ignored; it is always derived from the stored rows.
func (d *DB) ReplaceAll(records []publication.Record, meta Meta) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM publications"); err != nil {
		return fmt.Errorf("clearing publications table: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO publications (position, key, category, year, title, fields_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		fields := r.Fields
		if fields == nil {
			fields = map[string]string{}
		}
		fieldsJSON, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("marshaling fields for %s: %w", r.Key, err)
		}

		year, hasYear := r.Field(publication.FieldYear)
		title, hasTitle := r.Field(publication.FieldTitle)

		_, err = stmt.Exec(i, r.Key, r.Category,
			nullableString(year, hasYear), nullableString(title, hasTitle),
			string(fieldsJSON))
		if err != nil {
			return fmt.Errorf("inserting %s: %w", r.Key, err)
		}
	}

	values := map[string]string{
		"source":       meta.Source,
		"content_hash": meta.ContentHash,
		"last_sync":    meta.LastSync.UTC().Format(time.RFC3339),
	}
	for k, v := range values {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO _meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("writing meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// ReadAll returns the stored records in document order.
func (d *DB) ReadAll() ([]publication.Record, error) {
	rows, err := d.db.Query(`SELECT key, category, fields_json FROM publications ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	var records []publication.Record
	for rows.Next() {
		var r publication.Record
		var fieldsJSON string
		if err := rows.Scan(&r.Key, &r.Category, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scanning publication: %w", err)
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &r.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields for %s: %w", r.Key, err)
		}
		if r.Fields == nil {
			r.Fields = map[string]string{}
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// Count returns the number of stored records.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM publications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting publications: %w", err)
	}
	return n, nil
}

// Meta returns the snapshot metadata. A never-synced database returns a
// zero Meta.
func (d *DB) Meta() (Meta, error) {
	var m Meta

	rows, err := d.db.Query(`SELECT key, value FROM _meta`)
	if err != nil {
		return m, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k string
		var v sql.NullString
		if err := rows.Scan(&k, &v); err != nil {
			return m, fmt.Errorf("scanning meta: %w", err)
		}
		switch k {
		case "source":
			m.Source = v.String
		case "content_hash":
			m.ContentHash = v.String
		case "last_sync":
			if t, err := time.Parse(time.RFC3339, v.String); err == nil {
				m.LastSync = t
			}
		}
	}
	if err := rows.Err(); err != nil {
		return m, err
	}

	m.Count, err = d.Count()
	return m, err
}

// IsFresh reports whether the stored snapshot was built from content with
// the given hash.
func (d *DB) IsFresh(contentHash string) (bool, error) {
	m, err := d.Meta()
	if err != nil {
		return false, err
	}
	return m.ContentHash != "" && m.ContentHash == contentHash, nil
}

// HashContent returns the SHA-256 of a document, hex encoded.
func HashContent(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func nullableString(s string, ok bool) interface{} {
	if !ok {
		return nil
	}
	return s
}
