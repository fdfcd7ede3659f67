package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/randalmurphal/korli/pkg/flowgraph"

// SpanManager owns span lifecycle for runs, nodes and model calls.
// NewSpanManager traces through the global provider; NoopSpanManager
// does nothing.
type SpanManager interface {
	StartRunSpan(ctx context.Context, graphName, runID string) (context.Context, trace.Span)
	StartNodeSpan(ctx context.Context, nodeID string) (context.Context, trace.Span)
	StartLLMSpan(ctx context.Context, model, purpose string) (context.Context, trace.Span)
	EndSpanWithError(span trace.Span, err error)
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager backed by otel.GetTracerProvider().
// Install the provider (see Setup) before creating the manager.
func NewSpanManager() SpanManager {
	return NewSpanManagerFrom(otel.Tracer(instrumentationName))
}

// NewSpanManagerFrom traces through a specific tracer, typically one from
// a test provider.
func NewSpanManagerFrom(tracer trace.Tracer) SpanManager {
	return &otelSpanManager{tracer: tracer}
}

func (m *otelSpanManager) StartRunSpan(ctx context.Context, graphName, runID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "flowgraph.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("graph.name", graphName),
			attribute.String("run.id", runID),
		),
	)
}

func (m *otelSpanManager) StartNodeSpan(ctx context.Context, nodeID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "flowgraph.node."+nodeID,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("node.id", nodeID)),
	)
}

func (m *otelSpanManager) StartLLMSpan(ctx context.Context, model, purpose string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "llm.complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.String("llm.purpose", purpose),
		),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
