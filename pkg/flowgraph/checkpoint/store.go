// Package checkpoint persists workflow state snapshots.
//
// Three backends share one contract: MemoryStore for tests, SQLiteStore
// for single-process deployments and PostgresStore for shared databases.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Store persists checkpoints keyed by (runID, nodeID).
// Implementations must be safe for concurrent use.
type Store interface {
	// Save writes data for (runID, nodeID), replacing any previous value.
	// The entry receives the next sequence number of the run.
	Save(ctx context.Context, runID, nodeID string, data []byte) error

	// Load returns ErrNotFound when (runID, nodeID) has no checkpoint.
	Load(ctx context.Context, runID, nodeID string) ([]byte, error)

	// List returns the run's checkpoints ordered by sequence, or an
	// empty slice when the run is unknown.
	List(ctx context.Context, runID string) ([]Info, error)

	// Delete is a no-op for missing checkpoints.
	Delete(ctx context.Context, runID, nodeID string) error

	// DeleteRun is a no-op for unknown runs.
	DeleteRun(ctx context.Context, runID string) error

	Close() error
}

// Info describes a stored checkpoint without its payload.
type Info struct {
	RunID     string
	NodeID    string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

var (
	// ErrNotFound indicates a checkpoint does not exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")
)

// Latest loads the highest-sequence checkpoint of a run.
// Returns ErrNotFound when the run has no checkpoints.
func Latest(ctx context.Context, store Store, runID string) (*Checkpoint, error) {
	infos, err := store.List(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		return nil, ErrNotFound
	}

	last := infos[len(infos)-1]
	data, err := store.Load(ctx, runID, last.NodeID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", last.NodeID, err)
	}

	cp, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", last.NodeID, err)
	}
	return cp, nil
}
