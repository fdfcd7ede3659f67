package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/korli/pkg/flowgraph/observability"
)

// Instrumented wraps a Client with a span, a metric and a debug log per call.
type Instrumented struct {
	next    Client
	spans   observability.SpanManager
	metrics observability.MetricsRecorder
	logger  *slog.Logger
	model   string
}

// Instrument decorates next. Nil collaborators fall back to no-ops;
// defaultModel labels calls that do not name a model.
func Instrument(next Client, spans observability.SpanManager, metrics observability.MetricsRecorder, logger *slog.Logger, defaultModel string) *Instrumented {
	if spans == nil {
		spans = observability.NoopSpanManager{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{next: next, spans: spans, metrics: metrics, logger: logger, model: defaultModel}
}

// Complete implements Client.
func (c *Instrumented) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	ctx, span := c.spans.StartLLMSpan(ctx, model, req.Purpose)
	start := time.Now()
	resp, err := c.next.Complete(ctx, req)
	elapsed := time.Since(start)
	c.spans.EndSpanWithError(span, err)

	call := observability.LLMCall{Model: model, Purpose: req.Purpose, Duration: elapsed, Err: err}
	if resp != nil {
		call.InputTokens = resp.Usage.InputTokens
		call.OutputTokens = resp.Usage.OutputTokens
	}
	c.metrics.RecordLLMCall(ctx, call)

	if err != nil {
		c.logger.WarnContext(ctx, "llm call failed",
			slog.String("model", model),
			slog.String("purpose", req.Purpose),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
		return nil, err
	}
	c.logger.DebugContext(ctx, "llm call completed",
		slog.String("model", model),
		slog.String("purpose", req.Purpose),
		slog.Duration("elapsed", elapsed),
		slog.Int("input_tokens", call.InputTokens),
		slog.Int("output_tokens", call.OutputTokens))
	return resp, nil
}
