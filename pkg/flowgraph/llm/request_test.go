package llm_test

import (
	"errors"
	"testing"

	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectSchema(t *testing.T) {
	s := llm.ObjectSchema("tutor_turn", "one reply", map[string]any{
		"native_language_message":  map[string]any{"type": "string"},
		"foreign_language_message": map[string]any{"type": "string"},
	})

	assert.Equal(t, "tutor_turn", s.Name)
	assert.True(t, s.Strict)
	assert.Equal(t, "object", s.Schema["type"])
	assert.Equal(t, false, s.Schema["additionalProperties"])
	assert.Equal(t, []string{"foreign_language_message", "native_language_message"}, s.Schema["required"])
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Summary string `json:"summary"`
	}

	resp := &llm.CompletionResponse{Content: `{"summary":"We discussed trains."}`}
	require.NoError(t, resp.DecodeJSON(&out))
	assert.Equal(t, "We discussed trains.", out.Summary)

	fenced := &llm.CompletionResponse{Content: "```json\n{\"summary\":\"fenced\"}\n```"}
	require.NoError(t, fenced.DecodeJSON(&out))
	assert.Equal(t, "fenced", out.Summary)
}

func TestDecodeJSON_Invalid(t *testing.T) {
	var out map[string]any
	err := (&llm.CompletionResponse{Content: "Sure! Here is your summary."}).DecodeJSON(&out)

	var parseErr *fgerrors.JSONParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "Sure! Here is your summary.", parseErr.Input)
	assert.True(t, fgerrors.IsProvider(err))
}

func TestTokenUsage_Add(t *testing.T) {
	u := llm.TokenUsage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}
	u.Add(llm.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30})
	assert.Equal(t, llm.TokenUsage{InputTokens: 11, OutputTokens: 22, TotalTokens: 33}, u)
}
