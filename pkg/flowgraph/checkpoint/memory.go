package checkpoint

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps checkpoints in process memory. Contents are lost on exit.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string]map[string]memoryEntry
	closed bool
}

type memoryEntry struct {
	data      []byte
	sequence  int
	timestamp time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]map[string]memoryEntry)}
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, runID, nodeID string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	run := m.runs[runID]
	if run == nil {
		run = make(map[string]memoryEntry)
		m.runs[runID] = run
	}

	next := 1
	for _, e := range run {
		next = max(next, e.sequence+1)
	}

	run[nodeID] = memoryEntry{
		data:      slices.Clone(data),
		sequence:  next,
		timestamp: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, runID, nodeID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	e, ok := m.runs[runID][nodeID]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(e.data), nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context, runID string) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	run := m.runs[runID]
	infos := make([]Info, 0, len(run))
	for nodeID, e := range run {
		infos = append(infos, Info{
			RunID:     runID,
			NodeID:    nodeID,
			Sequence:  e.sequence,
			Timestamp: e.timestamp,
			Size:      int64(len(e.data)),
		})
	}
	slices.SortFunc(infos, func(a, b Info) int { return a.Sequence - b.Sequence })
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, runID, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.runs[runID], nodeID)
	return nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.runs, runID)
	return nil
}

// Close implements Store. Closing twice is allowed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.runs = nil
	return nil
}

// Runs reports how many runs currently hold at least one checkpoint.
func (m *MemoryStore) Runs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, run := range m.runs {
		if len(run) > 0 {
			n++
		}
	}
	return n
}
