package flowgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/korli/pkg/flowgraph/checkpoint"
)

// ResumeOption configures Resume and ResumeFrom.
type ResumeOption func(*resumeConfig)

type resumeConfig struct {
	stateOverride func(any) any
	validateState func(any) error
	replayNode    bool
	runOpts       []RunOption
}

// WithStateOverride lets fn adjust the restored state before execution.
// fn receives and must return a value of the graph's state type;
// anything else is ignored.
func WithStateOverride(fn func(any) any) ResumeOption {
	return func(c *resumeConfig) { c.stateOverride = fn }
}

// WithValidateState rejects a restored state before anything runs.
func WithValidateState(fn func(any) error) ResumeOption {
	return func(c *resumeConfig) { c.validateState = fn }
}

// WithReplayNode re-executes the checkpointed node instead of starting
// at its successor.
func WithReplayNode() ResumeOption {
	return func(c *resumeConfig) { c.replayNode = true }
}

// WithResumeRunOptions applies run options (logging, tracing, listener,
// policy) to the resumed execution. The store and run ID always come
// from the Resume call.
func WithResumeRunOptions(opts ...RunOption) ResumeOption {
	return func(c *resumeConfig) { c.runOpts = append(c.runOpts, opts...) }
}

// Resume continues execution from the latest checkpoint of a run.
//
// Example:
//
//	// Previous run crashed after node B
//	// Resume continues from node C with state from B's checkpoint
//	result, err := compiled.Resume(ctx, store, "run-123")
func (cg *CompiledGraph[S]) Resume(ctx Context, store checkpoint.Store, runID string, opts ...ResumeOption) (S, error) {
	var zero S
	if ctx == nil {
		return zero, ErrNilContext
	}

	cp, err := checkpoint.Latest(ctx, store, runID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s", ErrNoCheckpoints, runID)
		}
		return zero, err
	}
	return cg.resume(ctx, store, cp, opts)
}

// ResumeFrom continues execution from the checkpoint taken after nodeID.
//
// Example:
//
//	// Retry from a specific node
//	result, err := compiled.ResumeFrom(ctx, store, "run-123", "call_model", flowgraph.WithReplayNode())
func (cg *CompiledGraph[S]) ResumeFrom(ctx Context, store checkpoint.Store, runID, nodeID string, opts ...ResumeOption) (S, error) {
	var zero S
	if ctx == nil {
		return zero, ErrNilContext
	}

	data, err := store.Load(ctx, runID, nodeID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s at node %s", ErrNoCheckpoints, runID, nodeID)
		}
		return zero, fmt.Errorf("load checkpoint: %w", err)
	}

	cp, err := checkpoint.Unmarshal(data)
	if err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}
	return cg.resume(ctx, store, cp, opts)
}

func (cg *CompiledGraph[S]) resume(ctx Context, store checkpoint.Store, cp *checkpoint.Checkpoint, opts []ResumeOption) (S, error) {
	var zero S

	cfg := resumeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	state, err := decodeCheckpoint[S](cp)
	if err != nil {
		return zero, err
	}

	if cfg.stateOverride != nil {
		if typed, ok := cfg.stateOverride(state).(S); ok {
			state = typed
		}
	}

	if cfg.validateState != nil {
		if err := cfg.validateState(state); err != nil {
			return state, fmt.Errorf("state validation failed: %w", err)
		}
	}

	startNode := cp.NextNode
	if cfg.replayNode {
		startNode = cp.NodeID
	}
	if startNode == "" || (startNode != END && !cg.HasNode(startNode)) {
		return zero, fmt.Errorf("%w: %q", ErrInvalidResumeNode, startNode)
	}

	runCfg := newRunConfig(cfg.runOpts)
	runCfg.checkpointStore = store
	runCfg.runID = cp.RunID
	runCfg.sequence = cp.Sequence

	return cg.execute(ctx, state, startNode, &runCfg, false)
}

// LoadLatest returns the state in the latest checkpoint of a run without
// executing anything. The error wraps both ErrNoCheckpoints and
// checkpoint.ErrNotFound when the run has no checkpoints.
func LoadLatest[S any](ctx context.Context, store checkpoint.Store, runID string) (S, error) {
	var zero S

	cp, err := checkpoint.Latest(ctx, store, runID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return zero, fmt.Errorf("%w: %s: %w", ErrNoCheckpoints, runID, checkpoint.ErrNotFound)
		}
		return zero, err
	}
	return decodeCheckpoint[S](cp)
}

func decodeCheckpoint[S any](cp *checkpoint.Checkpoint) (S, error) {
	var state S
	if cp.Version != checkpoint.Version {
		return state, fmt.Errorf("%w: got %d, expected %d",
			ErrCheckpointVersionMismatch, cp.Version, checkpoint.Version)
	}
	if err := cp.Decode(&state); err != nil {
		return state, fmt.Errorf("%w: %v", ErrDeserializeState, err)
	}
	return state, nil
}
