// Package llm is the language-model seam of the workflow.
//
// Nodes talk to a Client; the concrete provider is OpenAI (see NewOpenAI),
// tests use MockClient, and Instrument decorates any Client with tracing,
// metrics and logging. Retries are left to the provider SDK.
package llm

import "context"

// Client completes a conversation.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

// Complete implements Client.
func (f ClientFunc) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}
