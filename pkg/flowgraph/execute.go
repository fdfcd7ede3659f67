package flowgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/randalmurphal/korli/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/korli/pkg/flowgraph/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Run executes the graph with the given initial state.
// Returns the final state and any error encountered.
//
// On success, returns the state after the last node executed before END.
// On error, returns the state at the point of failure.
//
// Execution flow:
//  1. Start at the entry point node
//  2. Check for cancellation
//  3. Execute the current node
//  4. Determine the next node (via simple or conditional edge)
//  5. Repeat until END is reached or an error occurs
//
// Example:
//
//	ctx := flowgraph.NewContext(context.Background())
//	result, err := compiled.Run(ctx, initialState)
//	if err != nil {
//	    // result contains state at point of failure
//	}
func (cg *CompiledGraph[S]) Run(ctx Context, state S, opts ...RunOption) (S, error) {
	if ctx == nil {
		return state, ErrNilContext
	}

	cfg := newRunConfig(opts)
	if cfg.checkpointStore != nil && cfg.runID == "" {
		return state, ErrRunIDRequired
	}

	return cg.execute(ctx, state, cg.entryPoint, &cfg, true)
}

// execute runs from startNode with run-level logging, tracing and metrics.
// seed asks for the checkpoint sequence to be read from the store first.
func (cg *CompiledGraph[S]) execute(ctx Context, state S, startNode string, cfg *runConfig, seed bool) (result S, runErr error) {
	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}
	ec := asExecutionContext(ctx)

	start := time.Now()
	observability.LogRunStart(cfg.logger, runID, startNode)

	var parent context.Context = ec.Context
	if cfg.tracingEnabled {
		var span trace.Span
		parent, span = cfg.spans.StartRunSpan(parent, "flowgraph", runID)
		defer func() { cfg.spans.EndSpanWithError(span, runErr) }()
	}
	runCtx := ec.withRun(parent, runID)

	if seed && cfg.checkpointStore != nil {
		if err := cg.seedSequence(runCtx, cfg); err != nil {
			return state, err
		}
	}

	var path []string
	result, path, runErr = cg.loop(runCtx, state, startNode, cfg)

	if runErr == nil && cfg.checkpointStore != nil && cfg.checkpointPolicy == OnComplete && len(path) > 0 {
		last := path[len(path)-1]
		prev := ""
		if len(path) > 1 {
			prev = path[len(path)-2]
		}
		runErr = cg.saveCheckpoint(runCtx, cfg, last, prev, result, END)
	}

	elapsed := time.Since(start)
	cfg.metrics.RecordGraphRun(runCtx, runErr == nil, elapsed)
	durationMs := float64(elapsed.Microseconds()) / 1000
	if runErr != nil {
		observability.LogRunError(cfg.logger, runID, runErr, durationMs, failedNode(runErr))
	} else {
		observability.LogRunComplete(cfg.logger, runID, durationMs, path)
	}

	return result, runErr
}

// loop is the sequential node loop. It returns the IDs of the nodes that
// completed, in order.
func (cg *CompiledGraph[S]) loop(ctx *executionContext, state S, startNode string, cfg *runConfig) (S, []string, error) {
	listen := nodeListener[S](cfg)
	current := startNode
	prevNode := ""
	var path []string

	for iterations := 1; current != END; iterations++ {
		if iterations > cfg.maxIterations {
			return state, path, &MaxIterationsError{
				Max:        cfg.maxIterations,
				LastNodeID: current,
				State:      state,
			}
		}

		if err := ctx.Err(); err != nil {
			return state, path, &CancellationError{
				NodeID: current,
				State:  state,
				Cause:  err,
			}
		}

		observability.LogNodeStart(cfg.logger, current)

		nodeParent := ctx.Context
		var span trace.Span
		if cfg.tracingEnabled {
			nodeParent, span = cfg.spans.StartNodeSpan(nodeParent, current)
		}
		nodeCtx := ctx.withNodeID(nodeParent, current)

		nodeStart := time.Now()
		var err error
		state, err = cg.executeNode(nodeCtx, current, state)

		var next string
		if err == nil {
			next, err = cg.nextNode(nodeCtx, state, current)
		}
		elapsed := time.Since(nodeStart)

		cfg.metrics.RecordNodeExecution(nodeParent, current, elapsed, err)
		if cfg.tracingEnabled {
			if err == nil {
				cfg.spans.AddSpanEvent(nodeParent, "flowgraph.route", attribute.String("next", next))
			}
			cfg.spans.EndSpanWithError(span, err)
		}
		if listen != nil {
			listen(NodeEvent[S]{
				RunID:    ctx.runID,
				NodeID:   current,
				Next:     next,
				State:    state,
				Duration: elapsed,
				Err:      err,
			})
		}

		if err != nil {
			observability.LogNodeError(cfg.logger, current, err)
			return state, path, err
		}
		observability.LogNodeComplete(cfg.logger, current, next, float64(elapsed.Microseconds())/1000)
		path = append(path, current)

		if cfg.checkpointStore != nil && cfg.checkpointPolicy == EveryNode {
			if err := cg.saveCheckpoint(ctx, cfg, current, prevNode, state, next); err != nil {
				return state, path, err
			}
		}

		prevNode = current
		current = next
	}

	return state, path, nil
}

// seedSequence continues the run's numbering when the run ID already has
// checkpoints, as it does for every turn after the first.
func (cg *CompiledGraph[S]) seedSequence(ctx *executionContext, cfg *runConfig) error {
	infos, err := cfg.checkpointStore.List(ctx, cfg.runID)
	if err != nil {
		if cfg.checkpointFailureFatal {
			return &CheckpointError{NodeID: cg.entryPoint, Op: "sequence", Err: err}
		}
		observability.LogCheckpointError(cfg.logger, cg.entryPoint, "sequence", err)
		return nil
	}
	if n := len(infos); n > 0 {
		cfg.sequence = infos[n-1].Sequence
	}
	return nil
}

// saveCheckpoint persists state after nodeID. Failures are returned when
// the run treats them as fatal and logged otherwise.
func (cg *CompiledGraph[S]) saveCheckpoint(ctx *executionContext, cfg *runConfig, nodeID, prevNodeID string, state S, nextNode string) error {
	fail := func(op string, err error) error {
		if cfg.checkpointFailureFatal {
			return &CheckpointError{NodeID: nodeID, Op: op, Err: err}
		}
		observability.LogCheckpointError(cfg.logger, nodeID, op, err)
		return nil
	}

	stateBytes, err := json.Marshal(state)
	if err != nil {
		return fail("serialize", err)
	}

	cp := checkpoint.New(cfg.runID, nodeID, cfg.sequence+1, stateBytes, nextNode).
		WithPrevNode(prevNodeID).
		WithAttempt(ctx.attempt)

	data, err := cp.Marshal()
	if err != nil {
		return fail("marshal", err)
	}

	if err := cfg.checkpointStore.Save(ctx, cfg.runID, nodeID, data); err != nil {
		return fail("save", err)
	}
	cfg.sequence++

	observability.LogCheckpoint(cfg.logger, cfg.runID, nodeID, len(data))
	cfg.metrics.RecordCheckpoint(ctx, nodeID, int64(len(data)))
	return nil
}

// executeNode executes a single node with panic recovery.
func (cg *CompiledGraph[S]) executeNode(ctx *executionContext, nodeID string, state S) (result S, err error) {
	fn, exists := cg.nodes[nodeID]
	if !exists {
		return state, &NodeError{
			NodeID: nodeID,
			Op:     "lookup",
			Err:    fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = state
			err = &PanicError{
				NodeID: nodeID,
				Value:  r,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	result, err = fn(ctx, state)
	if err != nil {
		return result, &NodeError{
			NodeID: nodeID,
			Op:     "execute",
			Err:    err,
		}
	}

	return result, nil
}

// nextNode determines the node to run after current.
func (cg *CompiledGraph[S]) nextNode(ctx *executionContext, state S, current string) (string, error) {
	if cond, ok := cg.routers[current]; ok {
		next := cond.router(ctx, state)

		switch {
		case next == "":
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrInvalidRouterResult}
		case next != END && !cg.HasNode(next):
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrRouterTargetNotFound}
		case !cond.allows(next):
			return "", &RouterError{FromNode: current, Returned: next, Err: ErrUndeclaredRouterTarget}
		}
		return next, nil
	}

	next, ok := cg.edges[current]
	if !ok {
		return "", &NodeError{
			NodeID: current,
			Op:     "routing",
			Err:    fmt.Errorf("%w: %s", ErrNoOutgoingEdge, current),
		}
	}
	return next, nil
}
