package flowgraph

import (
	"context"
	"sync"
	"time"

	"github.com/randalmurphal/korli/pkg/flowgraph/observability"
)

// Counter is a simple state for testing incrementing.
type Counter struct {
	Value int
}

// State is a more complex state for testing branching and checkpoints.
type State struct {
	Step     int
	Progress []string
	Initial  string
	Output   string
	Done     bool
	GoLeft   bool
	Count    int
}

func increment(_ Context, s Counter) (Counter, error) {
	s.Value++
	return s, nil
}

func passthrough[S any](_ Context, s S) (S, error) {
	return s, nil
}

// makeTrackingNode creates a node that records its execution.
func makeTrackingNode(name string, tracker *[]string) NodeFunc[State] {
	return func(_ Context, s State) (State, error) {
		*tracker = append(*tracker, name)
		s.Progress = append(s.Progress, name)
		return s, nil
	}
}

func makeFailingNode(err error) NodeFunc[State] {
	return func(_ Context, s State) (State, error) {
		return s, err
	}
}

func makePanicNode(value any) NodeFunc[State] {
	return func(_ Context, _ State) (State, error) {
		panic(value)
	}
}

func testCtx() Context {
	return NewContext(context.Background())
}

// recordingMetrics captures what the executor reports.
type recordingMetrics struct {
	mu          sync.Mutex
	nodes       []string
	nodeErrors  int
	runs        []bool
	checkpoints []string
}

var _ observability.MetricsRecorder = (*recordingMetrics)(nil)

func (r *recordingMetrics) RecordNodeExecution(_ context.Context, nodeID string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, nodeID)
	if err != nil {
		r.nodeErrors++
	}
}

func (r *recordingMetrics) RecordGraphRun(_ context.Context, success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, success)
}

func (r *recordingMetrics) RecordCheckpoint(_ context.Context, nodeID string, _ int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkpoints = append(r.checkpoints, nodeID)
}

func (r *recordingMetrics) RecordLLMCall(context.Context, observability.LLMCall) {}
