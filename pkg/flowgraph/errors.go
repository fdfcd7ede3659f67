package flowgraph

import (
	"errors"
	"fmt"
)

// Compile-time problems. Compile joins every one it finds.
var (
	ErrNoEntryPoint       = errors.New("entry point not set")
	ErrEntryNotFound      = errors.New("entry point node not found")
	ErrNodeNotFound       = errors.New("node not found")
	ErrNoPathToEnd        = errors.New("no path to END from entry")
	ErrMultipleSuccessors = errors.New("node has more than one unconditional successor")
	ErrConflictingEdges   = errors.New("node has both conditional and unconditional edges")
	ErrNoOutgoingEdge     = errors.New("node has no outgoing edge")
)

// Run-time problems.
var (
	ErrMaxIterations          = errors.New("exceeded maximum iterations")
	ErrNilContext             = errors.New("context cannot be nil")
	ErrInvalidRouterResult    = errors.New("router returned empty string")
	ErrRouterTargetNotFound   = errors.New("router returned unknown node")
	ErrUndeclaredRouterTarget = errors.New("router returned undeclared target")
)

// Checkpoint and restore problems.
var (
	ErrRunIDRequired             = errors.New("run ID required for checkpointing")
	ErrDeserializeState          = errors.New("failed to deserialize state")
	ErrNoCheckpoints             = errors.New("no checkpoints found for run")
	ErrInvalidResumeNode         = errors.New("invalid resume node")
	ErrCheckpointVersionMismatch = errors.New("checkpoint version mismatch")
)

// NodeError is returned when a node function fails. Op is "execute".
type NodeError struct {
	NodeID string
	Op     string
	Err    error
}

func (e *NodeError) Error() string { return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Op, e.Err) }
func (e *NodeError) Unwrap() error { return e.Err }

// CheckpointError is returned when a checkpoint could not be written.
// Op is one of "sequence", "serialize", "marshal" or "save".
type CheckpointError struct {
	NodeID string
	Op     string
	Err    error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s at node %s: %v", e.Op, e.NodeID, e.Err)
}
func (e *CheckpointError) Unwrap() error { return e.Err }

// PanicError is a recovered node panic with the goroutine stack.
type PanicError struct {
	NodeID string
	Value  any
	Stack  string
}

func (e *PanicError) Error() string { return fmt.Sprintf("node %s panicked: %v", e.NodeID, e.Value) }

// CancellationError reports where a run stopped when its context ended.
// State holds the last good state as an S; WasExecuting tells whether the
// node had already started.
type CancellationError struct {
	NodeID       string
	State        any
	Cause        error
	WasExecuting bool
}

func (e *CancellationError) Error() string {
	when := "before"
	if e.WasExecuting {
		when = "during"
	}
	return fmt.Sprintf("cancelled %s node %s: %v", when, e.NodeID, e.Cause)
}
func (e *CancellationError) Unwrap() error { return e.Cause }

// RouterError is a router result that does not name a usable node.
type RouterError struct {
	FromNode string
	Returned string
	Err      error
}

func (e *RouterError) Error() string {
	return fmt.Sprintf("router from %s returned %q: %v", e.FromNode, e.Returned, e.Err)
}
func (e *RouterError) Unwrap() error { return e.Err }

// MaxIterationsError stops a run that kept cycling. It matches
// ErrMaxIterations with errors.Is.
type MaxIterationsError struct {
	Max        int
	LastNodeID string
	State      any
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("exceeded maximum iterations (%d) at node %s", e.Max, e.LastNodeID)
}
func (e *MaxIterationsError) Unwrap() error { return ErrMaxIterations }

// failedNode names the node a run stopped at, for logging.
func failedNode(err error) string {
	var (
		nodeErr   *NodeError
		panicErr  *PanicError
		routerErr *RouterError
		maxErr    *MaxIterationsError
		cancelErr *CancellationError
		cpErr     *CheckpointError
	)
	switch {
	case errors.As(err, &nodeErr):
		return nodeErr.NodeID
	case errors.As(err, &panicErr):
		return panicErr.NodeID
	case errors.As(err, &routerErr):
		return routerErr.FromNode
	case errors.As(err, &maxErr):
		return maxErr.LastNodeID
	case errors.As(err, &cancelErr):
		return cancelErr.NodeID
	case errors.As(err, &cpErr):
		return cpErr.NodeID
	}
	return ""
}
