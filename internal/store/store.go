// Package store is the local bundle index: a small SQLite database mapping
// bundle IDs and root hashes to archives on disk. The core pipeline never
// touches it; only the CLI records and lists bundles here.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no bundle matches the lookup.
var ErrNotFound = errors.New("store: bundle not found")

const schema = `
CREATE TABLE IF NOT EXISTS bundles (
	id         TEXT PRIMARY KEY,
	industry   TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	root_hash  TEXT NOT NULL,
	path       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bundles_root_hash ON bundles(root_hash);
`

// Bundle is one index row.
type Bundle struct {
	ID        uuid.UUID
	Industry  string
	Outcome   string
	RootHash  string
	Path      string
	CreatedAt time.Time
}

// Store wraps the index database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the index at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// The index is single-writer by usage; one connection avoids SQLite
	// write contention entirely.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one bundle row. Recording the same ID twice is an error:
// bundles are immutable, so a second write can only be a mistake.
func (s *Store) Record(ctx context.Context, b Bundle) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bundles (id, industry, outcome, root_hash, path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.Industry, b.Outcome, b.RootHash, b.Path,
		b.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: record bundle %s: %w", b.ID, err)
	}
	return nil
}

// Get returns the bundle with the given ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Bundle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, industry, outcome, root_hash, path, created_at
		 FROM bundles WHERE id = ?`, id.String())
	return scanBundle(row)
}

// FindByRootHash returns the bundle with the given Merkle root.
func (s *Store) FindByRootHash(ctx context.Context, rootHash string) (Bundle, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, industry, outcome, root_hash, path, created_at
		 FROM bundles WHERE root_hash = ?`, rootHash)
	return scanBundle(row)
}

// List returns all bundles, newest first.
func (s *Store) List(ctx context.Context) ([]Bundle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, industry, outcome, root_hash, path, created_at
		 FROM bundles ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list bundles: %w", err)
	}
	defer rows.Close()

	var out []Bundle
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list bundles: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBundle(row rowScanner) (Bundle, error) {
	var b Bundle
	var id, createdAt string
	err := row.Scan(&id, &b.Industry, &b.Outcome, &b.RootHash, &b.Path, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Bundle{}, ErrNotFound
	}
	if err != nil {
		return Bundle{}, fmt.Errorf("store: scan bundle: %w", err)
	}
	if b.ID, err = uuid.Parse(id); err != nil {
		return Bundle{}, fmt.Errorf("store: parse bundle id %q: %w", id, err)
	}
	if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Bundle{}, fmt.Errorf("store: parse created_at %q: %w", createdAt, err)
	}
	return b, nil
}
