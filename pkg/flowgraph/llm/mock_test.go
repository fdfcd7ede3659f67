package llm_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_FixedResponse(t *testing.T) {
	mock := llm.NewMockClient("¡Hola! ¿Cómo estás?")

	resp, err := mock.Complete(context.Background(), llm.CompletionRequest{
		Model:    "gpt-4o",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Hola"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "¡Hola! ¿Cómo estás?", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "gpt-4o", resp.Model)
}

func TestMockClient_ResponsesCycle(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses("first", "second")

	var got []string
	for range 3 {
		resp, err := mock.Complete(context.Background(), llm.CompletionRequest{})
		require.NoError(t, err)
		got = append(got, resp.Content)
	}
	assert.Equal(t, []string{"first", "second", "first"}, got)
}

func TestMockClient_WithError(t *testing.T) {
	boom := errors.New("provider down")
	mock := llm.NewMockClient("unused").WithError(boom)

	_, err := mock.Complete(context.Background(), llm.CompletionRequest{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mock.CallCount())
}

func TestMockClient_CallTracking(t *testing.T) {
	mock := llm.NewMockClient("ok")
	assert.Nil(t, mock.LastCall())

	_, _ = mock.Complete(context.Background(), llm.CompletionRequest{Purpose: "reply"})
	_, _ = mock.Complete(context.Background(), llm.CompletionRequest{Purpose: "summary"})

	assert.Equal(t, 2, mock.CallCount())
	require.NotNil(t, mock.LastCall())
	assert.Equal(t, "summary", mock.LastCall().Purpose)
	assert.Equal(t, "reply", mock.Calls[0].Purpose)
}

func TestMockClient_Reset(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses("a", "b")
	_, _ = mock.Complete(context.Background(), llm.CompletionRequest{})

	mock.Reset()

	assert.Equal(t, 0, mock.CallCount())
	resp, err := mock.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Content)
}

func TestMockClient_CompleteFunc(t *testing.T) {
	mock := llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "schema=" + req.ResponseFormat.Name}, nil
	})

	resp, err := mock.Complete(context.Background(), llm.CompletionRequest{
		ResponseFormat: llm.ObjectSchema("summary", "", map[string]any{"summary": map[string]any{"type": "string"}}),
	})
	require.NoError(t, err)
	assert.Equal(t, "schema=summary", resp.Content)
}

func TestMockClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := llm.NewMockClient("x").Complete(ctx, llm.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockClient_TokenUsage(t *testing.T) {
	resp, err := llm.NewMockClient("0123456789abcdef").Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "12345678",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "abcd"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Usage.InputTokens)
	assert.Equal(t, 4, resp.Usage.OutputTokens)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
}

func TestMockClient_Concurrent(t *testing.T) {
	mock := llm.NewMockClient("").WithResponses("a", "b", "c")

	var wg sync.WaitGroup
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mock.Complete(context.Background(), llm.CompletionRequest{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 25, mock.CallCount())
}
