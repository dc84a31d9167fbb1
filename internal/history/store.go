// Package history keeps an append-only log of file versions in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/docwatch/internal/indexer"
)

const createVersionsTable = `
CREATE TABLE IF NOT EXISTS file_versions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	path        TEXT    NOT NULL,
	version     INTEGER NOT NULL,
	diff        TEXT    NOT NULL,
	summary     TEXT    NOT NULL,
	embedding   BLOB,
	hash        TEXT    NOT NULL,
	change_type TEXT    NOT NULL,
	created_at  TEXT    NOT NULL
)`

const createVersionsIndex = `CREATE INDEX IF NOT EXISTS idx_file_versions_path ON file_versions(path, version)`

// Store implements indexer.VersionRecorder on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the version log at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	for _, ddl := range []string{createVersionsTable, createVersionsIndex} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// SaveVersion implements indexer.VersionRecorder.
func (s *Store) SaveVersion(ctx context.Context, rec indexer.VersionRecord) error {
	diff, err := json.Marshal(rec.Diff)
	if err != nil {
		return fmt.Errorf("failed to encode diff: %w", err)
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = sq.Insert("file_versions").
		Columns("path", "version", "diff", "summary", "embedding", "hash", "change_type", "created_at").
		Values(
			rec.Path, rec.Version, string(diff), rec.Summary,
			serializeEmbedding(rec.Embedding), rec.Hash, string(rec.ChangeType),
			createdAt.Format(time.RFC3339Nano),
		).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert version %d of %s: %w", rec.Version, rec.Path, err)
	}
	return nil
}

// List returns the recorded versions of path, oldest first.
func (s *Store) List(ctx context.Context, path string) ([]indexer.VersionRecord, error) {
	rows, err := sq.Select("path", "version", "diff", "summary", "embedding", "hash", "change_type", "created_at").
		From("file_versions").
		Where(sq.Eq{"path": path}).
		OrderBy("id ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query versions of %s: %w", path, err)
	}
	defer rows.Close()

	var out []indexer.VersionRecord
	for rows.Next() {
		var (
			rec        indexer.VersionRecord
			diff       string
			embedding  []byte
			changeType string
			createdAt  string
		)
		if err := rows.Scan(&rec.Path, &rec.Version, &diff, &rec.Summary, &embedding, &rec.Hash, &changeType, &createdAt); err != nil {
			return nil, fmt.Errorf("scan version row: %w", err)
		}
		if err := json.Unmarshal([]byte(diff), &rec.Diff); err != nil {
			return nil, fmt.Errorf("decode diff of %s v%d: %w", rec.Path, rec.Version, err)
		}
		if rec.Embedding, err = deserializeEmbedding(embedding); err != nil {
			return nil, err
		}
		rec.ChangeType = indexer.ChangeStatus(changeType)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Paths returns every path with at least one recorded version, sorted.
func (s *Store) Paths(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("DISTINCT path").
		From("file_versions").
		OrderBy("path").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query history paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
