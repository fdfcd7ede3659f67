package flowgraph

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/korli/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
)

// Context provides execution context to nodes.
// It extends context.Context with flowgraph-specific services and metadata.
//
// Context is immutable after creation. The executor creates derived contexts
// for each node with updated NodeID and enriched logger.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and node context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// LLM returns the model client, or nil if not configured.
	LLM() llm.Client

	// Checkpointer returns the checkpoint store, or nil if not configured.
	Checkpointer() checkpoint.Store

	// RunID returns the unique identifier for this execution run.
	RunID() string

	// NodeID returns the current node being executed.
	// Empty string before execution starts.
	NodeID() string

	// Attempt returns the attempt number (1 = first attempt).
	Attempt() int
}

type executionContext struct {
	context.Context

	logger       *slog.Logger
	llmClient    llm.Client
	checkpointer checkpoint.Store
	runID        string
	nodeID       string
	attempt      int
}

func (c *executionContext) Logger() *slog.Logger          { return c.logger }
func (c *executionContext) LLM() llm.Client               { return c.llmClient }
func (c *executionContext) Checkpointer() checkpoint.Store { return c.checkpointer }
func (c *executionContext) RunID() string                 { return c.runID }
func (c *executionContext) NodeID() string                { return c.nodeID }
func (c *executionContext) Attempt() int                  { return c.attempt }

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id, node_id, and attempt during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLLM sets the model client for the context.
func WithLLM(client llm.Client) ContextOption {
	return func(c *executionContext) {
		c.llmClient = client
	}
}

// WithCheckpointer sets the checkpoint store for the context.
func WithCheckpointer(store checkpoint.Store) ContextOption {
	return func(c *executionContext) {
		c.checkpointer = store
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID is generated. A WithRunID run option overrides it
// for the duration of that run.
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
//
// Example:
//
//	ctx := flowgraph.NewContext(r.Context(),
//	    flowgraph.WithLogger(logger),
//	    flowgraph.WithLLM(client))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
		attempt: 1,
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// asExecutionContext adopts a caller-supplied Context so the executor can
// derive per-node children from it.
func asExecutionContext(ctx Context) *executionContext {
	if ec, ok := ctx.(*executionContext); ok {
		return ec
	}
	logger := ctx.Logger()
	if logger == nil {
		logger = slog.Default()
	}
	return &executionContext{
		Context:      ctx,
		logger:       logger,
		llmClient:    ctx.LLM(),
		checkpointer: ctx.Checkpointer(),
		runID:        ctx.RunID(),
		nodeID:       ctx.NodeID(),
		attempt:      max(ctx.Attempt(), 1),
	}
}

// withRun returns a copy bound to another parent and run ID.
func (c *executionContext) withRun(parent context.Context, runID string) *executionContext {
	cp := *c
	cp.Context = parent
	cp.runID = runID
	return &cp
}

// withNodeID returns a child for one node execution. parent carries the
// node span, so model calls made by the node nest under it.
func (c *executionContext) withNodeID(parent context.Context, nodeID string) *executionContext {
	return &executionContext{
		Context:      parent,
		logger:       c.logger.With("run_id", c.runID, "node_id", nodeID, "attempt", c.attempt),
		llmClient:    c.llmClient,
		checkpointer: c.checkpointer,
		runID:        c.runID,
		nodeID:       nodeID,
		attempt:      c.attempt,
	}
}
