package chat

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/tutor/prompt"
)

// Level is a CEFR proficiency level.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists every level from beginner to proficient.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// ParseLevel accepts the exact level names A1 through C2.
func ParseLevel(s string) (Level, error) {
	l := Level(s)
	if !l.Valid() {
		return "", levelError(s)
	}
	return l, nil
}

func levelError(s string) *fgerrors.ValidationError {
	return fgerrors.Validation("student_level", "must be one of A1, A2, B1, B2, C1, C2, got %q", s)
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool { return slices.Contains(Levels, l) }

// Beginner reports whether l is A1 or A2.
func (l Level) Beginner() bool { return l == LevelA1 || l == LevelA2 }

// Role is who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation history.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Translation is the tutor's message in the student's native language.
	// Empty for user messages.
	Translation string    `json:"translation,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUserMessage stamps a student message with a fresh ID.
func NewUserMessage(content string, now time.Time) Message {
	return Message{ID: uuid.NewString(), Role: RoleUser, Content: content, CreatedAt: now.UTC()}
}

func newAssistantMessage(content, translation string, now time.Time) Message {
	return Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Content:     content,
		Translation: translation,
		CreatedAt:   now.UTC(),
	}
}

// Correction is the corrected form of one student message.
type Correction struct {
	// CorrectedMessage is empty when the student's message needed no change.
	CorrectedMessage string `json:"corrected_message"`
	Translation      string `json:"translation"`
	Corrected        bool   `json:"corrected"`
}

// Settings are the fields a session is started with.
type Settings struct {
	Level           Level         `json:"student_level"`
	ForeignLanguage string        `json:"foreign_language"`
	NativeLanguage  string        `json:"native_language"`
	Topic           string        `json:"topic"`
	TutorGender     prompt.Gender `json:"tutor_gender,omitempty"`
	StudentGender   prompt.Gender `json:"student_gender,omitempty"`
}

// State is everything persisted for one conversation.
//
// Messages are in chronological order. Nodes only append to or trim the
// front of the history; they never reorder it.
type State struct {
	SessionID       string        `json:"session_id"`
	Messages        []Message     `json:"messages"`
	Summary         string        `json:"summary,omitempty"`
	Level           Level         `json:"student_level"`
	ForeignLanguage string        `json:"foreign_language"`
	NativeLanguage  string        `json:"native_language"`
	Topic           string        `json:"topic"`
	TutorGender     prompt.Gender `json:"tutor_gender,omitempty"`
	StudentGender   prompt.Gender `json:"student_gender,omitempty"`
	// Corrections maps a user message ID to its correction.
	Corrections map[string]Correction `json:"corrections"`
	Initialized bool                  `json:"initialized"`
	// Turn counts completed turns, one per tutor message.
	Turn int `json:"turn"`
}

// Settings returns the session settings held in s.
func (s State) Settings() Settings {
	return Settings{
		Level:           s.Level,
		ForeignLanguage: s.ForeignLanguage,
		NativeLanguage:  s.NativeLanguage,
		Topic:           s.Topic,
		TutorGender:     s.TutorGender,
		StudentGender:   s.StudentGender,
	}
}

// LastMessage returns the newest message, if any.
func (s State) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Clone returns a copy that shares no slices or maps with s.
func (s State) Clone() State {
	s.Messages = slices.Clone(s.Messages)
	s.Corrections = maps.Clone(s.Corrections)
	return s
}

// WithUserMessage returns a copy of s with a student message appended.
func (s State) WithUserMessage(m Message) State {
	s.Messages = append(slices.Clip(s.Messages), m)
	return s
}

func (s State) promptSettings() prompt.Settings {
	return prompt.Settings{
		Level:           string(s.Level),
		ForeignLanguage: s.ForeignLanguage,
		NativeLanguage:  s.NativeLanguage,
		Topic:           s.Topic,
		TutorGender:     s.TutorGender,
		StudentGender:   s.StudentGender,
	}
}

// Phase is where a conversation sits between turns.
type Phase string

const (
	PhaseUninitialized              Phase = "uninitialized"
	PhaseAwaitingFirstQuestion      Phase = "awaiting-first-question"
	PhaseAwaitingUserTurn           Phase = "awaiting-user-turn"
	PhaseAwaitingSummarizationCheck Phase = "awaiting-summarization-check"
)

// Phase derives the lifecycle phase of s under cfg.
func (s State) Phase(cfg Config) Phase {
	switch {
	case !s.Initialized:
		return PhaseUninitialized
	case len(s.Messages) == 0:
		return PhaseAwaitingFirstQuestion
	case ShouldSummarize(s, cfg):
		return PhaseAwaitingSummarizationCheck
	default:
		return PhaseAwaitingUserTurn
	}
}
