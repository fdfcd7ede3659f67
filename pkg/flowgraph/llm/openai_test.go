package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-2024-08-06",
  "choices": [{
    "index": 0,
    "message": {"role": "assistant", "content": "{\"foreign_language_message\":\"¡Claro!\",\"native_language_message\":\"Sure!\"}", "refusal": null},
    "finish_reason": "stop",
    "logprobs": null
  }],
  "usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
}`

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *llm.OpenAI {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return llm.NewOpenAI(
		llm.WithAPIKey("test-key"),
		llm.WithBaseURL(srv.URL+"/v1/"),
		llm.WithModel("gpt-4o-mini"),
		llm.WithMaxRetries(0),
	)
}

func TestOpenAI_Complete(t *testing.T) {
	var body map[string]any
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	})

	resp, err := client.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are a Spanish tutor.",
		Messages: []llm.Message{
			{Role: llm.RoleAssistant, Content: "¡Hola!"},
			{Role: llm.RoleUser, Content: "Hola, ¿qué tal?"},
		},
		Model:       "gpt-4o",
		MaxTokens:   256,
		Temperature: llm.Float(0.7),
		ResponseFormat: llm.ObjectSchema("tutor_turn", "", map[string]any{
			"foreign_language_message": map[string]any{"type": "string"},
			"native_language_message":  map[string]any{"type": "string"},
		}),
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Content, "¡Claro!")
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, "gpt-4o-2024-08-06", resp.Model)
	assert.Equal(t, llm.TokenUsage{InputTokens: 42, OutputTokens: 7, TotalTokens: 49}, resp.Usage)

	assert.Equal(t, "gpt-4o", body["model"])
	assert.Equal(t, float64(256), body["max_completion_tokens"])
	assert.Equal(t, 0.7, body["temperature"])

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 3)
	roles := make([]string, len(msgs))
	for i, m := range msgs {
		roles[i] = m.(map[string]any)["role"].(string)
	}
	assert.Equal(t, []string{"system", "assistant", "user"}, roles)

	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "tutor_turn", schema["name"])
	assert.Equal(t, true, schema["strict"])
}

func TestOpenAI_DefaultModel(t *testing.T) {
	var model string
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		model, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", model)
}

func TestOpenAI_HTTPErrorIsProviderError(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`)
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)

	var provErr *fgerrors.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "openai", provErr.Provider)

	var httpErr *fgerrors.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.True(t, fgerrors.IsTransient(err))
}

func TestOpenAI_NoChoices(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	})

	_, err := client.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	assert.True(t, fgerrors.IsProvider(err))
}
