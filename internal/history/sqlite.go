package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"oddsledger/internal/multiplier"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS observations (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	owner       TEXT NOT NULL,
	value       TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT 'screenshot',
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_observations_owner ON observations(owner, recorded_at, seq);
`

// SQLiteStore persists histories in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serialises writers, which gives every owner a single
	// writer section without extra locking.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, owner string, batch []Observation) error {
	if owner == "" {
		return ErrNoOwner
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertSQLite(ctx, tx, owner, batch)
	})
}

func (s *SQLiteStore) Replace(ctx context.Context, owner string, batch []Observation) error {
	if owner == "" {
		return ErrNoOwner
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM observations WHERE owner = ?`, owner); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		return insertSQLite(ctx, tx, owner, batch)
	})
}

func (s *SQLiteStore) List(ctx context.Context, owner string) ([]Observation, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, owner, value, source, recorded_at
		FROM observations
		WHERE owner = ?
		ORDER BY recorded_at, seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var (
			o          Observation
			value      string
			source     string
			recordedAt int64
		)
		if err := rows.Scan(&o.Seq, &o.ID, &o.Owner, &value, &source, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.Value = multiplier.Value(value)
		o.Source = Source(source)
		o.RecordedAt = time.UnixMicro(recordedAt).UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func insertSQLite(ctx context.Context, tx *sql.Tx, owner string, batch []Observation) error {
	if len(batch) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (id, owner, value, source, recorded_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range batch {
		if _, err := stmt.ExecContext(ctx, o.ID, owner, string(o.Value), string(o.Source), o.RecordedAt.UnixMicro()); err != nil {
			return fmt.Errorf("failed to insert observation %s: %w", o.ID, err)
		}
	}
	return nil
}
