package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
)

// OpenAI implements Client on the Chat Completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// OpenAIOption configures NewOpenAI.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	timeout    time.Duration
}

// WithAPIKey sets the API key. Without it the SDK reads OPENAI_API_KEY.
func WithAPIKey(key string) OpenAIOption {
	return func(c *openAIConfig) { c.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = url }
}

// WithModel sets the model used when a request does not name one.
func WithModel(model string) OpenAIOption {
	return func(c *openAIConfig) { c.model = model }
}

// WithMaxRetries sets the SDK's own retry count. Zero disables retries.
func WithMaxRetries(n int) OpenAIOption {
	return func(c *openAIConfig) { c.maxRetries = n }
}

// WithRequestTimeout bounds each HTTP attempt.
func WithRequestTimeout(d time.Duration) OpenAIOption {
	return func(c *openAIConfig) { c.timeout = d }
}

// NewOpenAI builds an OpenAI client. Default model is gpt-4o-mini.
func NewOpenAI(opts ...OpenAIOption) *OpenAI {
	cfg := openAIConfig{model: "gpt-4o-mini", maxRetries: 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	reqOpts := []option.RequestOption{option.WithMaxRetries(cfg.maxRetries)}
	if cfg.apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(cfg.apiKey))
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.timeout))
	}

	return &OpenAI{client: openai.NewClient(reqOpts...), model: cfg.model}
}

// Complete implements Client. API failures come back as ProviderError
// wrapping an HTTPError with the response status.
func (c *OpenAI) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	params := c.buildParams(req)
	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fgerrors.Provider("openai", "complete", translateError(err))
	}
	if len(completion.Choices) == 0 {
		return nil, fgerrors.Provider("openai", "complete", errors.New("response has no choices"))
	}

	choice := completion.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fgerrors.Provider("openai", "complete", fmt.Errorf("model refused: %s", choice.Message.Refusal))
	}

	return &CompletionResponse{
		Content:      choice.Message.Content,
		Model:        completion.Model,
		FinishReason: choice.FinishReason,
		Duration:     time.Since(start),
		Usage: TokenUsage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}, nil
}

func (c *OpenAI) buildParams(req CompletionRequest) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = c.model
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if rf := req.ResponseFormat; rf != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        rf.Name,
					Description: openai.String(rf.Description),
					Schema:      rf.Schema,
					Strict:      openai.Bool(rf.Strict),
				},
			},
		}
	}
	return params
}

// translateError turns SDK API errors into HTTPError and leaves
// transport and context errors alone.
func translateError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		endpoint := ""
		if apiErr.Request != nil && apiErr.Request.URL != nil {
			endpoint = apiErr.Request.URL.Path
		}
		msg := apiErr.Message
		if msg == "" {
			msg = err.Error()
		}
		return &fgerrors.HTTPError{StatusCode: apiErr.StatusCode, Message: msg, Endpoint: endpoint}
	}
	return err
}
