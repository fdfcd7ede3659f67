package chat

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/randalmurphal/korli/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
	"github.com/randalmurphal/korli/pkg/tutor/language"
	"github.com/randalmurphal/korli/pkg/tutor/prompt"
)

// Node IDs of the conversation workflow.
const (
	NodeInitialize      = "initialize"
	NodeInitialQuestion = "initial_question"
	NodeCorrectResponse = "correct_response"
	NodeCallModel       = "call_model"
	NodeSummarize       = "summarize"
)

// ErrNoLLM is returned by model-calling nodes when the run context has
// no llm.Client.
var ErrNoLLM = errors.New("no llm client configured")

var (
	replySchema = llm.ObjectSchema("tutor_reply", "One tutor message in both languages", map[string]any{
		"foreign_language_message": map[string]any{
			"type":        "string",
			"description": "Your response in the student's target language",
		},
		"native_language_message": map[string]any{
			"type":        "string",
			"description": "The same message translated into the student's native language",
		},
	})

	summarySchema = llm.ObjectSchema("conversation_summary", "Rolling summary of older messages", map[string]any{
		"summary": map[string]any{"type": "string"},
	})

	correctionSchema = llm.ObjectSchema("response_correction", "Correction of the student's message", map[string]any{
		"corrected_foreign_language": map[string]any{
			"type":        "string",
			"description": "The corrected message in the foreign language, or an empty string if it was correct",
		},
		"native_language_message": map[string]any{
			"type":        "string",
			"description": "The corrected message in the native language",
		},
		"corrected": map[string]any{
			"type":        "boolean",
			"description": "True if the message was corrected",
		},
	})
)

type replyOutput struct {
	ForeignLanguageMessage string `json:"foreign_language_message"`
	NativeLanguageMessage  string `json:"native_language_message"`
}

type summaryOutput struct {
	Summary string `json:"summary"`
}

type correctionOutput struct {
	CorrectedForeignLanguage string `json:"corrected_foreign_language"`
	NativeLanguageMessage    string `json:"native_language_message"`
	Corrected                bool   `json:"corrected"`
}

// nodes holds what the node functions share across runs. It is read-only
// after NewWorkflow.
type nodes struct {
	cfg   Config
	langs *language.Table
	now   func() time.Time
}

// initialQuestion greets the student in both languages. Above A2 the
// greeting also asks what they would like to talk about.
func (n *nodes) initialQuestion(ctx flowgraph.Context, s State) (State, error) {
	foreign, err := n.opening(s.ForeignLanguage, s.Level)
	if err != nil {
		return s, err
	}
	native, err := n.opening(s.NativeLanguage, s.Level)
	if err != nil {
		return s, err
	}

	s.Messages = append(slices.Clip(s.Messages), newAssistantMessage(foreign, native, n.now()))
	s.Turn++
	ctx.Logger().Debug("opening question asked", "level", s.Level)
	return s, nil
}

func (n *nodes) opening(lang string, level Level) (string, error) {
	l, ok := n.langs.Lookup(lang)
	if !ok {
		return "", n.langs.Validate(lang)
	}
	if level.Beginner() {
		return l.Greeting, nil
	}
	return l.Greeting + " " + l.TopicQuestion, nil
}

// callModel asks the response model for the tutor's next message.
func (n *nodes) callModel(ctx flowgraph.Context, s State) (State, error) {
	last, ok := s.LastMessage()
	if !ok || last.Role != RoleUser {
		return s, fgerrors.Validation("messages", "a reply needs a student message last in the history")
	}
	h, err := prompt.New(s.promptSettings())
	if err != nil {
		return s, err
	}

	var msgs []llm.Message
	if s.Summary != "" {
		ctxMsg, err := h.SummaryMessage(s.Summary, len(s.Messages))
		if err != nil {
			return s, err
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: ctxMsg})
	}
	for _, m := range s.Messages {
		msgs = append(msgs, llm.Message{Role: llmRole(m.Role), Content: m.Content})
	}

	var out replyOutput
	if err := complete(ctx, llm.CompletionRequest{
		SystemPrompt:   h.SystemPrompt(),
		Messages:       msgs,
		Model:          n.cfg.ResponseModel,
		ResponseFormat: replySchema,
		Purpose:        "reply",
	}, &out); err != nil {
		return s, err
	}
	if strings.TrimSpace(out.ForeignLanguageMessage) == "" {
		return s, fgerrors.Provider("llm", "reply", errors.New("model returned an empty message"))
	}

	s.Messages = append(slices.Clip(s.Messages), newAssistantMessage(out.ForeignLanguageMessage, out.NativeLanguageMessage, n.now()))
	s.Turn++
	return s, nil
}

// routeAfterReply compacts the history once it grows past the threshold.
func (n *nodes) routeAfterReply(_ flowgraph.Context, s State) string {
	if ShouldSummarize(s, n.cfg) {
		return NodeSummarize
	}
	return flowgraph.END
}

// correctResponse records a corrected form of the newest student message.
func (n *nodes) correctResponse(ctx flowgraph.Context, s State) (State, error) {
	last, ok := s.LastMessage()
	if !ok || last.Role != RoleUser {
		return s, nil
	}
	h, err := prompt.New(s.promptSettings())
	if err != nil {
		return s, err
	}
	system, human, err := h.CorrectionPrompts(last.Content)
	if err != nil {
		return s, err
	}

	var out correctionOutput
	if err := complete(ctx, llm.CompletionRequest{
		SystemPrompt:   system,
		Messages:       []llm.Message{{Role: llm.RoleUser, Content: human}},
		Model:          n.cfg.CorrectionModel,
		ResponseFormat: correctionSchema,
		Purpose:        "correction",
	}, &out); err != nil {
		return s, err
	}

	c := Correction{Translation: out.NativeLanguageMessage, Corrected: out.Corrected}
	if out.Corrected {
		c.CorrectedMessage = out.CorrectedForeignLanguage
	}
	s.Corrections = maps.Clone(s.Corrections)
	if s.Corrections == nil {
		s.Corrections = map[string]Correction{}
	}
	s.Corrections[last.ID] = c
	ctx.Logger().Debug("student message checked", "message_id", last.ID, "corrected", c.Corrected)
	return s, nil
}

// summarize folds everything but the newest MessagesToKeep messages into
// the running summary and drops them from the history.
func (n *nodes) summarize(ctx flowgraph.Context, s State) (State, error) {
	keep := n.cfg.MessagesToKeep
	if len(s.Messages) <= keep {
		return s, nil
	}
	cut := len(s.Messages) - keep
	old := s.Messages[:cut]

	h, err := prompt.New(s.promptSettings())
	if err != nil {
		return s, err
	}
	lines := make([]prompt.Line, len(old))
	for i, m := range old {
		lines[i] = prompt.Line{Role: string(m.Role), Content: m.Content}
	}
	system, human, err := h.SummaryPrompts(s.Summary, lines)
	if err != nil {
		return s, err
	}

	var out summaryOutput
	if err := complete(ctx, llm.CompletionRequest{
		SystemPrompt:   system,
		Messages:       []llm.Message{{Role: llm.RoleUser, Content: human}},
		Model:          n.cfg.SummaryModel,
		ResponseFormat: summarySchema,
		Purpose:        "summary",
	}, &out); err != nil {
		return s, err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return s, fgerrors.Provider("llm", "summary", errors.New("model returned an empty summary"))
	}

	if len(s.Corrections) > 0 {
		s.Corrections = maps.Clone(s.Corrections)
		for _, m := range old {
			delete(s.Corrections, m.ID)
		}
	}
	s.Messages = slices.Clone(s.Messages[cut:])
	s.Summary = out.Summary
	ctx.Logger().Info("conversation summarized", "summarized", cut, "kept", len(s.Messages))
	return s, nil
}

// complete runs req against the context's client and decodes the JSON
// answer into out. Every failure comes back as a ProviderError.
func complete(ctx flowgraph.Context, req llm.CompletionRequest, out any) error {
	client := ctx.LLM()
	if client == nil {
		return fgerrors.Provider("llm", req.Purpose, ErrNoLLM)
	}
	resp, err := client.Complete(ctx, req)
	if err != nil {
		var provErr *fgerrors.ProviderError
		if errors.As(err, &provErr) {
			return err
		}
		return fgerrors.Provider("llm", req.Purpose, err)
	}
	if err := resp.DecodeJSON(out); err != nil {
		return fgerrors.Provider("llm", req.Purpose, fmt.Errorf("decode %s: %w", req.ResponseFormat.Name, err))
	}
	return nil
}

func llmRole(r Role) llm.Role {
	if r == RoleAssistant {
		return llm.RoleAssistant
	}
	return llm.RoleUser
}
