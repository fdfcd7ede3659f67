package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS flowgraph_checkpoints (
	run_id     TEXT        NOT NULL,
	node_id    TEXT        NOT NULL,
	sequence   INTEGER     NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	data       BYTEA       NOT NULL,
	PRIMARY KEY (run_id, node_id)
);
CREATE INDEX IF NOT EXISTS idx_flowgraph_checkpoints_run_seq
	ON flowgraph_checkpoints (run_id, sequence);
`

// PostgresStore persists checkpoints in PostgreSQL through a pgx pool.
// Several processes may share one database; saves for the same run are
// serialized with a transaction-scoped advisory lock so sequence numbers
// stay strictly increasing.
type PostgresStore struct {
	db     *pgxpool.Pool
	owned  bool
	closed atomic.Bool
}

// NewPostgresStore connects to dsn and creates the schema if needed.
// The returned store owns the pool and closes it on Close.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: connect postgres: %w", err)
	}
	s := &PostgresStore{db: pool, owned: true}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromPool wraps an existing pool. Close leaves the pool open.
func NewPostgresStoreFromPool(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// Migrate creates the checkpoint table and index.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("checkpoint: create schema: %w", err)
	}
	return nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, runID, nodeID string, data []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("checkpoint: begin save: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, runID); err != nil {
		return fmt.Errorf("checkpoint: lock run %s: %w", runID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO flowgraph_checkpoints (run_id, node_id, sequence, data)
		VALUES ($1, $2, COALESCE((SELECT MAX(sequence) FROM flowgraph_checkpoints WHERE run_id = $1), 0) + 1, $3)
		ON CONFLICT (run_id, node_id) DO UPDATE SET
			sequence   = (SELECT MAX(sequence) FROM flowgraph_checkpoints WHERE run_id = $1) + 1,
			created_at = now(),
			data       = EXCLUDED.data`,
		runID, nodeID, data)
	if err != nil {
		return fmt.Errorf("checkpoint: save %s/%s: %w", runID, nodeID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("checkpoint: commit save: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, runID, nodeID string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM flowgraph_checkpoints WHERE run_id = $1 AND node_id = $2`,
		runID, nodeID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load %s/%s: %w", runID, nodeID, err)
	}
	return data, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, runID string) ([]Info, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(ctx, `
		SELECT node_id, sequence, created_at, octet_length(data)
		FROM flowgraph_checkpoints WHERE run_id = $1 ORDER BY sequence`, runID)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list %s: %w", runID, err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		info := Info{RunID: runID}
		if err := rows.Scan(&info.NodeID, &info.Sequence, &info.Timestamp, &info.Size); err != nil {
			return nil, fmt.Errorf("checkpoint: scan: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, runID, nodeID string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	_, err := s.db.Exec(ctx,
		`DELETE FROM flowgraph_checkpoints WHERE run_id = $1 AND node_id = $2`, runID, nodeID)
	if err != nil {
		return fmt.Errorf("checkpoint: delete %s/%s: %w", runID, nodeID, err)
	}
	return nil
}

// DeleteRun implements Store.
func (s *PostgresStore) DeleteRun(ctx context.Context, runID string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM flowgraph_checkpoints WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("checkpoint: delete run %s: %w", runID, err)
	}
	return nil
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.owned {
		s.db.Close()
	}
	return nil
}
