// Package prompt holds the tutor's text resources: CEFR level guidance
// and the templates for conversation, summarization and correction calls.
//
// A Helper binds those templates to one session's settings:
//
//	h, err := prompt.New(prompt.Settings{
//	    Level:           "B2",
//	    ForeignLanguage: "Spanish (Spain)",
//	    NativeLanguage:  "English (US)",
//	    Topic:           "travel and tourism",
//	})
//	system := h.SystemPrompt()
package prompt

import (
	"fmt"
	"strings"

	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
)

// Gender selects grammatical gender for languages that mark it.
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
)

// Valid reports whether g is one of the known values.
func (g Gender) Valid() bool {
	switch g {
	case GenderUnspecified, GenderMale, GenderFemale:
		return true
	}
	return false
}

func (g Gender) forms() string {
	if g == GenderMale {
		return "masculine"
	}
	return "feminine"
}

// Settings are the session attributes the prompts depend on.
type Settings struct {
	Level           string
	ForeignLanguage string
	NativeLanguage  string
	Topic           string
	TutorGender     Gender
	StudentGender   Gender
}

// Line is one transcript entry fed to the summarizer.
type Line struct {
	Role    string
	Content string
}

// Helper renders prompts for one session. It is immutable after New.
type Helper struct {
	settings         Settings
	system           string
	correctionSystem string
}

// New renders the per-session prompts. It fails when the level is not a
// CEFR level or a gender is unknown.
func New(s Settings) (*Helper, error) {
	guidance, ok := LevelGuidance(s.Level)
	if !ok {
		return nil, fgerrors.Validation("student_level", "unknown level %q", s.Level)
	}
	if !s.TutorGender.Valid() {
		return nil, fgerrors.Validation("tutor_gender", "must be male or female, got %q", s.TutorGender)
	}
	if !s.StudentGender.Valid() {
		return nil, fgerrors.Validation("student_gender", "must be male or female, got %q", s.StudentGender)
	}

	h := &Helper{settings: s}
	var err error
	h.system, err = systemTemplate.Render(map[string]any{
		"foreign_language": s.ForeignLanguage,
		"native_language":  s.NativeLanguage,
		"level_guidance":   guidance,
		"topic":            s.Topic,
		"tutor_note":       tutorNote(s.TutorGender),
		"student_note":     studentNote(s.StudentGender),
	})
	if err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}
	h.correctionSystem, err = correctionSystemTemplate.Render(map[string]any{
		"foreign_language": s.ForeignLanguage,
		"native_language":  s.NativeLanguage,
		"level":            s.Level,
		"student_note":     studentNote(s.StudentGender),
	})
	if err != nil {
		return nil, fmt.Errorf("render correction prompt: %w", err)
	}
	return h, nil
}

func tutorNote(g Gender) string {
	if g == GenderUnspecified {
		return ""
	}
	return fmt.Sprintf("When referring to yourself, use %s grammatical forms.\n", g.forms())
}

func studentNote(g Gender) string {
	if g == GenderUnspecified {
		return ""
	}
	return fmt.Sprintf("The student is %s; address them with %s grammatical forms.\n", g, g.forms())
}

// Settings returns the settings the helper was built from.
func (h *Helper) Settings() Settings { return h.settings }

// SystemPrompt is the tutor persona for reply calls.
func (h *Helper) SystemPrompt() string { return h.system }

// SummaryMessage wraps an existing summary as a context message placed
// before the retained history. n is the number of retained messages.
func (h *Helper) SummaryMessage(summary string, n int) (string, error) {
	return summaryContextTemplate.Render(map[string]any{
		"summary":       summary,
		"message_count": n,
	})
}

// SummaryPrompts returns the system and human prompts asking the model to
// fold lines into existing, which may be empty.
func (h *Helper) SummaryPrompts(existing string, lines []Line) (system, human string, err error) {
	system, err = summarySystemTemplate.Render(map[string]any{
		"foreign_language": h.settings.ForeignLanguage,
	})
	if err != nil {
		return "", "", err
	}

	section := ""
	if existing != "" {
		section = "Existing summary, to be extended rather than repeated:\n" + existing + "\n\n"
	}
	human, err = summaryHumanTemplate.Render(map[string]any{
		"existing_summary_section": section,
		"message_count":            len(lines),
		"transcript":               transcript(lines),
	})
	if err != nil {
		return "", "", err
	}
	return system, human, nil
}

// CorrectionPrompts returns the system and human prompts for checking one
// student message.
func (h *Helper) CorrectionPrompts(message string) (system, human string, err error) {
	human, err = correctionHumanTemplate.Render(map[string]any{"message": message})
	if err != nil {
		return "", "", err
	}
	return h.correctionSystem, human, nil
}

func transcript(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		speaker := "Tutor"
		if l.Role == "user" {
			speaker = "Student"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(l.Content)
	}
	return b.String()
}
