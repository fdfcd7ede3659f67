package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine and model-call metrics.
// NewMetricsRecorder uses the global meter provider; NoopMetrics drops
// everything.
type MetricsRecorder interface {
	RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error)
	RecordGraphRun(ctx context.Context, success bool, duration time.Duration)
	RecordCheckpoint(ctx context.Context, nodeID string, sizeBytes int64)
	RecordLLMCall(ctx context.Context, call LLMCall)
}

// LLMCall describes one completed model request.
type LLMCall struct {
	Model        string
	Purpose      string
	Duration     time.Duration
	InputTokens  int
	OutputTokens int
	Err          error
}

type otelMetrics struct {
	nodeExecutions metric.Int64Counter
	nodeLatency    metric.Float64Histogram
	nodeErrors     metric.Int64Counter
	graphRuns      metric.Int64Counter
	graphLatency   metric.Float64Histogram
	checkpointSize metric.Int64Histogram
	llmCalls       metric.Int64Counter
	llmLatency     metric.Float64Histogram
	llmTokens      metric.Int64Counter
}

// NewMetricsRecorder creates instruments on otel.GetMeterProvider().
// Instrument creation only fails on invalid names; in that case a
// NoopMetrics is returned and a warning logged.
func NewMetricsRecorder() MetricsRecorder {
	m, err := newOtelMetrics(otel.Meter(instrumentationName))
	if err != nil {
		slog.Warn("metrics disabled", slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	var (
		m   otelMetrics
		err error
	)
	if m.nodeExecutions, err = meter.Int64Counter("flowgraph.node.executions",
		metric.WithDescription("Node executions")); err != nil {
		return nil, err
	}
	if m.nodeLatency, err = meter.Float64Histogram("flowgraph.node.latency_ms",
		metric.WithDescription("Node execution latency"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.nodeErrors, err = meter.Int64Counter("flowgraph.node.errors",
		metric.WithDescription("Node executions that returned an error")); err != nil {
		return nil, err
	}
	if m.graphRuns, err = meter.Int64Counter("flowgraph.graph.runs",
		metric.WithDescription("Graph runs")); err != nil {
		return nil, err
	}
	if m.graphLatency, err = meter.Float64Histogram("flowgraph.graph.latency_ms",
		metric.WithDescription("Graph run latency"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.checkpointSize, err = meter.Int64Histogram("flowgraph.checkpoint.size_bytes",
		metric.WithDescription("Checkpoint payload size"), metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.llmCalls, err = meter.Int64Counter("llm.calls",
		metric.WithDescription("Model completion requests")); err != nil {
		return nil, err
	}
	if m.llmLatency, err = meter.Float64Histogram("llm.latency_ms",
		metric.WithDescription("Model completion latency"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.llmTokens, err = meter.Int64Counter("llm.tokens",
		metric.WithDescription("Tokens consumed by model completions")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node_id", nodeID))
	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordGraphRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.graphRuns.Add(ctx, 1, attrs)
	m.graphLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (m *otelMetrics) RecordCheckpoint(ctx context.Context, nodeID string, sizeBytes int64) {
	m.checkpointSize.Record(ctx, sizeBytes, metric.WithAttributes(attribute.String("node_id", nodeID)))
}

func (m *otelMetrics) RecordLLMCall(ctx context.Context, call LLMCall) {
	base := []attribute.KeyValue{
		attribute.String("model", call.Model),
		attribute.String("purpose", call.Purpose),
	}
	m.llmCalls.Add(ctx, 1, metric.WithAttributes(append(base, attribute.Bool("success", call.Err == nil))...))
	m.llmLatency.Record(ctx, float64(call.Duration.Microseconds())/1000, metric.WithAttributes(base...))
	if call.InputTokens > 0 {
		m.llmTokens.Add(ctx, int64(call.InputTokens),
			metric.WithAttributes(append(base, attribute.String("direction", "input"))...))
	}
	if call.OutputTokens > 0 {
		m.llmTokens.Add(ctx, int64(call.OutputTokens),
			metric.WithAttributes(append(base, attribute.String("direction", "output"))...))
	}
}
