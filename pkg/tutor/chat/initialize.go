package chat

import (
	"strings"
	"unicode/utf8"

	"github.com/randalmurphal/korli/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/tutor/language"
)

// Topic length bounds, in characters, after trimming.
const (
	MinTopicLength = 3
	MaxTopicLength = 200
)

// NewState validates settings and returns a fresh, uninitialized
// conversation with an empty history and no summary. langs defaults to
// language.Default when nil.
//
// On error no state is produced; the error is a ValidationErrors listing
// every bad field.
func NewState(settings Settings, langs language.Checker) (State, error) {
	normalized, err := validateSettings(settings, langs)
	if err != nil {
		return State{}, err
	}
	return State{
		Messages:        []Message{},
		Level:           normalized.Level,
		ForeignLanguage: normalized.ForeignLanguage,
		NativeLanguage:  normalized.NativeLanguage,
		Topic:           normalized.Topic,
		TutorGender:     normalized.TutorGender,
		StudentGender:   normalized.StudentGender,
		Corrections:     map[string]Correction{},
	}, nil
}

func validateSettings(s Settings, langs language.Checker) (Settings, error) {
	if langs == nil {
		langs = language.Default
	}
	var errs fgerrors.ValidationErrors

	if !s.Level.Valid() {
		errs = append(errs, levelError(string(s.Level)))
	}
	for _, f := range []struct{ field, value string }{
		{"foreign_language", s.ForeignLanguage},
		{"native_language", s.NativeLanguage},
	} {
		switch {
		case strings.TrimSpace(f.value) == "":
			errs = append(errs, fgerrors.Validation(f.field, "language cannot be empty"))
		case !langs.IsSupported(f.value):
			errs = append(errs, fgerrors.Validation(f.field, "language %q is not supported", f.value))
		}
	}

	s.Topic = strings.TrimSpace(s.Topic)
	if n := utf8.RuneCountInString(s.Topic); n < MinTopicLength || n > MaxTopicLength {
		errs = append(errs, fgerrors.Validation("topic", "must be %d to %d characters, got %d",
			MinTopicLength, MaxTopicLength, n))
	}
	if !s.TutorGender.Valid() {
		errs = append(errs, fgerrors.Validation("tutor_gender", "must be male or female, got %q", s.TutorGender))
	}
	if !s.StudentGender.Valid() {
		errs = append(errs, fgerrors.Validation("student_gender", "must be male or female, got %q", s.StudentGender))
	}

	if err := errs.OrNil(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// initialize validates a conversation the first time it enters the graph.
// Already initialized states pass through untouched.
func (n *nodes) initialize(ctx flowgraph.Context, s State) (State, error) {
	if s.Initialized {
		return s, nil
	}
	normalized, err := validateSettings(s.Settings(), n.langs)
	if err != nil {
		return s, err
	}
	s.Topic = normalized.Topic
	if s.Corrections == nil {
		s.Corrections = map[string]Correction{}
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	s.Initialized = true
	ctx.Logger().Debug("conversation initialized",
		"level", s.Level,
		"foreign_language", s.ForeignLanguage,
		"native_language", s.NativeLanguage)
	return s, nil
}

// routeAfterInit sends a conversation without history to the opening
// question and everything else to the reply path.
func (n *nodes) routeAfterInit(_ flowgraph.Context, s State) string {
	if len(s.Messages) == 0 {
		return NodeInitialQuestion
	}
	if n.cfg.CorrectResponses {
		return NodeCorrectResponse
	}
	return NodeCallModel
}
