package llm

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
)

// CompletionRequest is one model call.
type CompletionRequest struct {
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Messages     []Message `json:"messages"`

	// Model overrides the client default when set.
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`

	// ResponseFormat asks for JSON output matching a schema.
	ResponseFormat *JSONSchema `json:"response_format,omitempty"`

	// Purpose labels the call in traces and metrics ("reply", "summary").
	Purpose string `json:"purpose,omitempty"`
}

// Message is one conversation entry sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// JSONSchema describes a structured output.
type JSONSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema"`
	Strict      bool           `json:"strict"`
}

// ObjectSchema builds a strict JSON schema for an object whose fields are
// all required. props maps field name to its schema.
func ObjectSchema(name, description string, props map[string]any) *JSONSchema {
	required := slices.Sorted(maps.Keys(props))
	return &JSONSchema{
		Name:        name,
		Description: description,
		Strict:      true,
		Schema: map[string]any{
			"type":                 "object",
			"properties":           props,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

// CompletionResponse is the model's answer.
type CompletionResponse struct {
	Content      string        `json:"content"`
	Usage        TokenUsage    `json:"usage"`
	Model        string        `json:"model"`
	FinishReason string        `json:"finish_reason"`
	Duration     time.Duration `json:"duration"`
}

// TokenUsage counts tokens consumed by a call.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates other into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// DecodeJSON unmarshals structured output into v. Models occasionally wrap
// JSON in a markdown fence; that is stripped first.
func (r *CompletionResponse) DecodeJSON(v any) error {
	raw := strings.TrimSpace(r.Content)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return &fgerrors.JSONParseError{Input: r.Content, Message: err.Error()}
	}
	return nil
}

// Float returns a pointer to f, for CompletionRequest.Temperature.
func Float(f float64) *float64 { return &f }
