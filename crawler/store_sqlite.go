package crawler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteStoreSchema = `
CREATE TABLE IF NOT EXISTS endpoint_docs (
	idx TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

const (
	defaultSQLiteStoreDir = ".finmcp"
	defaultSQLiteStoreDB  = "docs.db"
)

// SQLiteStore persists crawled endpoint docs in SQLite, keyed by page index.
type SQLiteStore struct {
	db *sql.DB
}

// DefaultSQLitePath returns the default SQLite path for doc storage.
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("crawler: resolve user home: %w", err)
	}
	return filepath.Join(home, defaultSQLiteStoreDir, defaultSQLiteStoreDB), nil
}

// NewSQLiteStore opens (or creates) a SQLite-backed doc store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("crawler: sqlite store dsn is required")
	}

	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("crawler: sqlite store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("crawler: sqlite store open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("crawler: sqlite store set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteStoreSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("crawler: sqlite store create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Upsert inserts or updates a doc by index.
func (s *SQLiteStore) Upsert(ctx context.Context, doc EndpointDoc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return errors.New("crawler: sqlite store is nil")
	}
	if strings.TrimSpace(doc.Index) == "" {
		return errors.New("crawler: doc index is required")
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("crawler: encode doc %s: %w", doc.Index, err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO endpoint_docs (idx, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(idx) DO UPDATE SET
	payload = excluded.payload,
	updated_at = excluded.updated_at`,
		doc.Index, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("crawler: sqlite upsert doc %s: %w", doc.Index, err)
	}
	return nil
}

// Get returns a doc by index.
func (s *SQLiteStore) Get(ctx context.Context, index string) (EndpointDoc, bool, error) {
	if err := ctx.Err(); err != nil {
		return EndpointDoc{}, false, err
	}
	if s == nil || s.db == nil {
		return EndpointDoc{}, false, errors.New("crawler: sqlite store is nil")
	}

	row := s.db.QueryRowContext(ctx, `
SELECT payload
FROM endpoint_docs
WHERE idx = ?`, index)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return EndpointDoc{}, false, nil
		}
		return EndpointDoc{}, false, fmt.Errorf("crawler: sqlite get doc %s: %w", index, err)
	}

	var doc EndpointDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return EndpointDoc{}, false, fmt.Errorf("crawler: decode doc %s: %w", index, err)
	}
	return doc, true, nil
}

// List returns all docs in index order. Empty pages are included; callers
// that only want published endpoints filter on Empty.
func (s *SQLiteStore) List(ctx context.Context) ([]EndpointDoc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, errors.New("crawler: sqlite store is nil")
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT payload
FROM endpoint_docs
ORDER BY idx ASC`)
	if err != nil {
		return nil, fmt.Errorf("crawler: sqlite list docs: %w", err)
	}
	defer rows.Close()

	var docs []EndpointDoc
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("crawler: sqlite scan doc: %w", err)
		}
		var doc EndpointDoc
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, fmt.Errorf("crawler: decode doc: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("crawler: sqlite doc rows: %w", err)
	}

	return docs, nil
}

// DeleteEmpty removes docs recorded as empty pages.
func (s *SQLiteStore) DeleteEmpty(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, errors.New("crawler: sqlite store is nil")
	}

	res, err := s.db.ExecContext(ctx, `
DELETE FROM endpoint_docs
WHERE json_extract(payload, '$.empty') = 1`)
	if err != nil {
		return 0, fmt.Errorf("crawler: sqlite delete empty docs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("crawler: sqlite delete empty docs: %w", err)
	}
	return n, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
