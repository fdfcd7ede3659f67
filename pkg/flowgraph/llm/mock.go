package llm

import (
	"context"
	"sync"
	"time"
)

// MockClient is a scripted Client for tests and offline demos.
// Responses cycle; an error or complete func, when set, takes precedence.
type MockClient struct {
	mu         sync.Mutex
	responses  []string
	next       int
	err        error
	completeFn func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Calls records every request in order. Read it after the calls finish.
	Calls []CompletionRequest
}

// NewMockClient returns a mock that always answers with response.
func NewMockClient(response string) *MockClient {
	return &MockClient{responses: []string{response}}
}

// WithResponses replaces the scripted answers; they are returned in order
// and then repeat.
func (m *MockClient) WithResponses(responses ...string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = responses
	m.next = 0
	return m
}

// WithError makes every call fail with err.
func (m *MockClient) WithError(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithCompleteFunc routes every call through fn.
func (m *MockClient) WithCompleteFunc(fn func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeFn = fn
	return m
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	fn, err := m.completeFn, m.err
	var content string
	if len(m.responses) > 0 {
		content = m.responses[m.next%len(m.responses)]
		m.next++
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(ctx, req)
	}

	in := approxTokens(req.SystemPrompt)
	for _, msg := range req.Messages {
		in += approxTokens(msg.Content)
	}
	out := approxTokens(content)

	return &CompletionResponse{
		Content:      content,
		Model:        req.Model,
		FinishReason: "stop",
		Duration:     time.Millisecond,
		Usage:        TokenUsage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
	}, nil
}

// CallCount returns how many calls were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or nil.
func (m *MockClient) LastCall() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	last := m.Calls[len(m.Calls)-1]
	return &last
}

// Reset clears recorded calls and rewinds the response script.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.next = 0
}

// approxTokens estimates tokens at four characters each.
func approxTokens(s string) int {
	if s == "" {
		return 0
	}
	return max(1, len(s)/4)
}
