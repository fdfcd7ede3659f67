package llm_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
	"github.com/randalmurphal/korli/pkg/flowgraph/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCalls struct {
	observability.NoopMetrics
	mu    sync.Mutex
	calls []observability.LLMCall
}

func (r *recordedCalls) RecordLLMCall(_ context.Context, call observability.LLMCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func TestInstrument_RecordsSuccess(t *testing.T) {
	metrics := &recordedCalls{}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client := llm.Instrument(llm.NewMockClient("a reply of some length"), nil, metrics, logger, "gpt-4o")

	resp, err := client.Complete(context.Background(), llm.CompletionRequest{
		Purpose:  "reply",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hola amigo"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a reply of some length", resp.Content)

	require.Len(t, metrics.calls, 1)
	call := metrics.calls[0]
	assert.Equal(t, "gpt-4o", call.Model)
	assert.Equal(t, "reply", call.Purpose)
	assert.NoError(t, call.Err)
	assert.Positive(t, call.OutputTokens)
	assert.GreaterOrEqual(t, call.Duration, time.Duration(0))
	assert.Contains(t, logs.String(), "llm call completed")
}

func TestInstrument_RecordsFailure(t *testing.T) {
	metrics := &recordedCalls{}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	boom := errors.New("upstream 500")

	client := llm.Instrument(llm.NewMockClient("").WithError(boom), observability.NoopSpanManager{}, metrics, logger, "gpt-4o-mini")

	_, err := client.Complete(context.Background(), llm.CompletionRequest{Purpose: "summary", Model: "gpt-4o-mini"})
	require.ErrorIs(t, err, boom)

	require.Len(t, metrics.calls, 1)
	assert.ErrorIs(t, metrics.calls[0].Err, boom)
	assert.Equal(t, "summary", metrics.calls[0].Purpose)
	assert.Contains(t, logs.String(), "llm call failed")
}

func TestClientFunc(t *testing.T) {
	var c llm.Client = llm.ClientFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: req.SystemPrompt}, nil
	})
	resp, err := c.Complete(context.Background(), llm.CompletionRequest{SystemPrompt: "echo"})
	require.NoError(t, err)
	assert.Equal(t, "echo", resp.Content)
}
