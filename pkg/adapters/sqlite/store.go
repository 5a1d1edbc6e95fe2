// Package sqlite implements ports.FlowStore on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/ivrflow/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS flows (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	owner      TEXT NOT NULL DEFAULT '',
	version    INTEGER NOT NULL,
	document   BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// Store implements ports.FlowStore using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path with WAL mode enabled.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the record.
func (s *Store) Save(ctx context.Context, rec *domain.FlowRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("flow id cannot be empty")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flows (id, name, owner, version, document, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner = excluded.owner,
			version = excluded.version,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.Owner, int64(rec.Version), []byte(rec.Document),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving flow %s: %w", rec.ID, err)
	}
	return nil
}

// Load reads one record.
func (s *Store) Load(ctx context.Context, id string) (*domain.FlowRecord, error) {
	var (
		rec     domain.FlowRecord
		version int64
		doc     []byte
		updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner, version, document, updated_at FROM flows WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Name, &rec.Owner, &version, &doc, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFlowNotFound, id)
		}
		return nil, fmt.Errorf("loading flow %s: %w", id, err)
	}
	rec.Version = uint64(version)
	rec.Document = doc
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("flow %s: bad updated_at %q: %w", id, updated, err)
	}
	return &rec, nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting flow %s: %w", id, err)
	}
	return nil
}

// List returns all ids in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM flows ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing flows: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning flow id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
