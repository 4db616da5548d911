package history

import (
	"context"
	"fmt"

	"oddsledger/internal/multiplier"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS observations (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	owner       TEXT NOT NULL,
	value       TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT 'screenshot',
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS observations_owner_idx ON observations (owner, recorded_at, seq);
`

var observationColumns = []string{"id", "owner", "value", "source", "recorded_at"}

// PostgresStore persists histories in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgresStore connects to databaseURL and ensures the schema exists.
func OpenPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, owner string, batch []Observation) error {
	if owner == "" {
		return ErrNoOwner
	}
	return s.inOwnerTx(ctx, owner, func(tx pgx.Tx) error {
		return copyObservations(ctx, tx, owner, batch)
	})
}

func (s *PostgresStore) Replace(ctx context.Context, owner string, batch []Observation) error {
	if owner == "" {
		return ErrNoOwner
	}
	return s.inOwnerTx(ctx, owner, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM observations WHERE owner = $1`, owner); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		return copyObservations(ctx, tx, owner, batch)
	})
}

func (s *PostgresStore) List(ctx context.Context, owner string) ([]Observation, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}

	rows, err := s.pool.Query(ctx, `
		SELECT seq, id, owner, value, source, recorded_at
		FROM observations
		WHERE owner = $1
		ORDER BY recorded_at, seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var (
			o      Observation
			value  string
			source string
		)
		if err := rows.Scan(&o.Seq, &o.ID, &o.Owner, &value, &source, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.Value = multiplier.Value(value)
		o.Source = Source(source)
		o.RecordedAt = o.RecordedAt.UTC()
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return out, nil
}

// inOwnerTx runs fn in a transaction holding an advisory lock on owner, so
// writers for the same owner never interleave inside a replace.
func (s *PostgresStore) inOwnerTx(ctx context.Context, owner string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, owner); err != nil {
		return fmt.Errorf("failed to lock owner: %w", err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func copyObservations(ctx context.Context, tx pgx.Tx, owner string, batch []Observation) error {
	if len(batch) == 0 {
		return nil
	}

	rows := make([][]any, len(batch))
	for i, o := range batch {
		rows[i] = []any{o.ID, owner, string(o.Value), string(o.Source), o.RecordedAt}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"observations"}, observationColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to insert observations: %w", err)
	}
	if int(n) != len(batch) {
		return fmt.Errorf("inserted %d of %d observations", n, len(batch))
	}
	return nil
}
