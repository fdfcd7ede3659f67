package flowgraph

import (
	"log/slog"

	"github.com/randalmurphal/korli/pkg/flowgraph/checkpoint"
	"github.com/randalmurphal/korli/pkg/flowgraph/observability"
)

// CheckpointPolicy decides when a run with checkpointing writes to the store.
type CheckpointPolicy int

const (
	// EveryNode saves after each successful node, so a crashed run can
	// resume where it stopped.
	EveryNode CheckpointPolicy = iota

	// OnComplete saves once, after the run reaches END. A failed run
	// leaves the store untouched.
	OnComplete
)

func (p CheckpointPolicy) String() string {
	switch p {
	case EveryNode:
		return "every_node"
	case OnComplete:
		return "on_complete"
	default:
		return "unknown"
	}
}

// runConfig holds configuration for graph execution.
type runConfig struct {
	maxIterations int

	checkpointStore        checkpoint.Store
	checkpointPolicy       CheckpointPolicy
	checkpointFailureFatal bool
	runID                  string
	sequence               int

	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool

	// listener is a func(NodeEvent[S]); see nodeListener.
	listener any
}

func defaultRunConfig() runConfig {
	return runConfig{
		maxIterations: 1000,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
	}
}

func newRunConfig(opts []RunOption) runConfig {
	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// nodeListener returns the listener if it matches the graph's state type.
func nodeListener[S any](cfg *runConfig) func(NodeEvent[S]) {
	fn, _ := cfg.listener.(func(NodeEvent[S]))
	return fn
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxIterations sets the maximum number of node executions.
// Default: 1000
//
// This prevents infinite loops from hanging forever. If a graph
// exceeds this limit, Run returns a MaxIterationsError.
func WithMaxIterations(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithRunID names the run. Required with WithCheckpointing; checkpoints
// are stored under this ID.
func WithRunID(id string) RunOption {
	return func(c *runConfig) { c.runID = id }
}

// WithCheckpointing persists state to store according to the checkpoint
// policy (EveryNode unless WithCheckpointPolicy says otherwise).
func WithCheckpointing(store checkpoint.Store) RunOption {
	return func(c *runConfig) { c.checkpointStore = store }
}

// WithCheckpointPolicy selects when checkpoints are written.
func WithCheckpointPolicy(p CheckpointPolicy) RunOption {
	return func(c *runConfig) { c.checkpointPolicy = p }
}

// WithCheckpointFailureFatal makes checkpoint failures fail the run.
// By default they are logged and execution continues.
func WithCheckpointFailureFatal() RunOption {
	return func(c *runConfig) { c.checkpointFailureFatal = true }
}

// WithObservabilityLogger enables run, node and checkpoint logs.
func WithObservabilityLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) { c.logger = logger }
}

// WithMetrics toggles OpenTelemetry metrics on the global meter provider.
// Each call builds new instruments; use WithMetricsRecorder to share one
// recorder across runs.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithMetricsRecorder records metrics through rec.
func WithMetricsRecorder(rec observability.MetricsRecorder) RunOption {
	return func(c *runConfig) {
		if rec != nil {
			c.metrics = rec
		}
	}
}

// WithTracing toggles OpenTelemetry spans on the global tracer provider.
// Each call builds a new tracer; use WithSpanManager to share one.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		}
	}
}

// WithSpanManager enables tracing through spans.
func WithSpanManager(spans observability.SpanManager) RunOption {
	return func(c *runConfig) {
		if spans != nil {
			c.spans = spans
			c.tracingEnabled = true
		}
	}
}

// WithNodeListener calls fn after every node, on the run's goroutine.
// A listener for a different state type than the graph's is ignored.
func WithNodeListener[S any](fn func(NodeEvent[S])) RunOption {
	return func(c *runConfig) { c.listener = fn }
}
