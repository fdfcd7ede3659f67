package chat

import fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"

// Default history policy.
const (
	DefaultMessagesBeforeSummary = 30
	DefaultMessagesToKeep        = 20
)

// Config controls history compaction and which models the nodes call.
type Config struct {
	// MessagesBeforeSummary is the history length that, when exceeded
	// after a reply, triggers summarization.
	MessagesBeforeSummary int `json:"messages_before_summary" yaml:"messages_before_summary"`
	// MessagesToKeep is how many of the newest messages survive
	// summarization, the new tutor reply included.
	MessagesToKeep int `json:"messages_to_keep" yaml:"messages_to_keep"`
	// CorrectResponses adds the correct_response node ahead of call_model.
	CorrectResponses bool `json:"correct_responses" yaml:"correct_responses"`

	// Empty model names fall back to the client default.
	ResponseModel   string `json:"response_model" yaml:"response_model"`
	SummaryModel    string `json:"summary_model" yaml:"summary_model"`
	CorrectionModel string `json:"correction_model" yaml:"correction_model"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MessagesBeforeSummary: DefaultMessagesBeforeSummary,
		MessagesToKeep:        DefaultMessagesToKeep,
		CorrectResponses:      true,
		ResponseModel:         "gpt-4o",
		SummaryModel:          "gpt-4o-mini",
		CorrectionModel:       "gpt-4o-mini",
	}
}

// Validate requires 0 < MessagesToKeep < MessagesBeforeSummary.
func (c Config) Validate() error {
	var errs fgerrors.ValidationErrors
	if c.MessagesToKeep <= 0 {
		errs = append(errs, fgerrors.Validation("messages_to_keep", "must be positive, got %d", c.MessagesToKeep))
	}
	if c.MessagesBeforeSummary <= c.MessagesToKeep {
		errs = append(errs, fgerrors.Validation("messages_before_summary",
			"must be greater than messages_to_keep (%d), got %d", c.MessagesToKeep, c.MessagesBeforeSummary))
	}
	return errs.OrNil()
}

// ShouldSummarize reports whether the history has grown past the
// threshold. Reaching it exactly does not trigger.
func ShouldSummarize(s State, cfg Config) bool {
	return len(s.Messages) > cfg.MessagesBeforeSummary
}
