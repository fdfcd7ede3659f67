package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/randalmurphal/korli/pkg/flowgraph"
	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func exampleSettings() Settings {
	return Settings{
		Level:           LevelB2,
		ForeignLanguage: "Spanish (Spain)",
		NativeLanguage:  "English (US)",
		Topic:           "travel and tourism",
	}
}

func jsonResponse(v any) (*llm.CompletionResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: string(b), FinishReason: "stop"}, nil
}

// tutorModel answers each call by purpose with a fixed structured output.
func tutorModel() *llm.MockClient {
	return llm.NewMockClient("").WithCompleteFunc(func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		switch req.Purpose {
		case "reply":
			return jsonResponse(replyOutput{ForeignLanguageMessage: "¿Y después?", NativeLanguageMessage: "And then?"})
		case "summary":
			return jsonResponse(summaryOutput{Summary: "El estudiante habló de su viaje a Sevilla."})
		case "correction":
			return jsonResponse(correctionOutput{
				CorrectedForeignLanguage: "Estoy cansado",
				NativeLanguageMessage:    "I am tired",
				Corrected:                true,
			})
		}
		return nil, fmt.Errorf("unexpected purpose %q", req.Purpose)
	})
}

func newWorkflow(t *testing.T, cfg Config) *flowgraph.CompiledGraph[State] {
	t.Helper()
	wf, err := NewWorkflow(cfg, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return wf
}

func runCtx(client llm.Client) flowgraph.Context {
	return flowgraph.NewContext(context.Background(), flowgraph.WithLLM(client))
}

// runTurn runs one turn and returns the visited node IDs.
func runTurn(t *testing.T, wf *flowgraph.CompiledGraph[State], client llm.Client, s State) (State, []string, error) {
	t.Helper()
	var path []string
	out, err := wf.Run(runCtx(client), s, flowgraph.WithNodeListener(func(e flowgraph.NodeEvent[State]) {
		path = append(path, e.NodeID)
	}))
	return out, path, err
}

// conversation returns an initialized state holding n messages that
// alternate roles and end with a student message.
func conversation(t *testing.T, n int) State {
	t.Helper()
	s, err := NewState(exampleSettings(), nil)
	require.NoError(t, err)
	s.Initialized = true
	for i := range n {
		role := RoleAssistant
		if (n-1-i)%2 == 0 {
			role = RoleUser
		}
		s.Messages = append(s.Messages, Message{
			ID:        fmt.Sprintf("m%02d", i),
			Role:      role,
			Content:   fmt.Sprintf("mensaje %d", i),
			CreatedAt: fixedNow,
		})
	}
	return s
}
