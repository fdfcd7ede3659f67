package chat

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/randalmurphal/korli/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/tutor/language"
	"github.com/randalmurphal/korli/pkg/tutor/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState_Example(t *testing.T) {
	s, err := NewState(exampleSettings(), nil)
	require.NoError(t, err)

	assert.Equal(t, LevelB2, s.Level)
	assert.Equal(t, "Spanish (Spain)", s.ForeignLanguage)
	assert.Equal(t, "English (US)", s.NativeLanguage)
	assert.Equal(t, "travel and tourism", s.Topic)
	assert.NotNil(t, s.Messages)
	assert.Empty(t, s.Messages)
	assert.Empty(t, s.Summary)
	assert.False(t, s.Initialized)
	assert.Zero(t, s.Turn)
}

func TestNewState_Independent(t *testing.T) {
	a, err := NewState(exampleSettings(), nil)
	require.NoError(t, err)
	b, err := NewState(exampleSettings(), nil)
	require.NoError(t, err)

	a.Messages = append(a.Messages, NewUserMessage("hola", fixedNow))
	a.Corrections["x"] = Correction{Corrected: true}
	a.Summary = "changed"

	assert.Empty(t, b.Messages)
	assert.Empty(t, b.Corrections)
	assert.Empty(t, b.Summary)
}

func TestNewState_TrimsTopic(t *testing.T) {
	settings := exampleSettings()
	settings.Topic = "  food and dining \n"

	s, err := NewState(settings, nil)
	require.NoError(t, err)
	assert.Equal(t, "food and dining", s.Topic)
}

func TestNewState_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		field  string
	}{
		{"unsupported foreign language", func(s *Settings) { s.ForeignLanguage = "Klingon" }, "foreign_language"},
		{"empty native language", func(s *Settings) { s.NativeLanguage = "" }, "native_language"},
		{"bad level", func(s *Settings) { s.Level = "Z9" }, "student_level"},
		{"short topic", func(s *Settings) { s.Topic = " ab " }, "topic"},
		{"long topic", func(s *Settings) { s.Topic = strings.Repeat("x", MaxTopicLength+1) }, "topic"},
		{"tutor gender", func(s *Settings) { s.TutorGender = "robot" }, "tutor_gender"},
		{"student gender", func(s *Settings) { s.StudentGender = "none" }, "student_gender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := exampleSettings()
			tt.modify(&settings)

			s, err := NewState(settings, nil)
			require.Error(t, err)
			assert.True(t, fgerrors.IsValidation(err))
			assert.Equal(t, State{}, s)

			var valErr *fgerrors.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}

func TestNewState_ReportsEveryField(t *testing.T) {
	_, err := NewState(Settings{Level: "X", ForeignLanguage: "Klingon", NativeLanguage: "Elvish", Topic: ""}, nil)

	var errs fgerrors.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 4)
}

func TestNewState_CustomChecker(t *testing.T) {
	table := language.NewTable(
		language.Language{Name: "Esperanto", Code: "eo", Greeting: "Saluton!", TopicQuestion: "Pri kio ni parolu?"},
		language.Language{Name: "English (US)", Code: "en", Greeting: "Hi!", TopicQuestion: "What shall we talk about?"},
	)
	settings := exampleSettings()
	settings.ForeignLanguage = "Esperanto"

	_, err := NewState(settings, table)
	require.NoError(t, err)

	_, err = NewState(exampleSettings(), table)
	assert.True(t, fgerrors.IsValidation(err))
}

func TestNewState_Genders(t *testing.T) {
	settings := exampleSettings()
	settings.TutorGender = prompt.GenderFemale
	settings.StudentGender = prompt.GenderMale

	s, err := NewState(settings, nil)
	require.NoError(t, err)
	assert.Equal(t, prompt.GenderFemale, s.TutorGender)
	assert.Equal(t, settings, s.Settings())
}

func TestInitializeNode_RejectsUnsupportedLanguage(t *testing.T) {
	wf := newWorkflow(t, DefaultConfig())
	client := tutorModel()

	s := State{Level: LevelB2, ForeignLanguage: "Klingon", NativeLanguage: "English (US)", Topic: "space travel"}
	out, path, err := runTurn(t, wf, client, s)

	require.Error(t, err)
	assert.True(t, fgerrors.IsValidation(err))
	var nodeErr *flowgraph.NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, NodeInitialize, nodeErr.NodeID)

	assert.Empty(t, out.Messages)
	assert.False(t, out.Initialized)
	assert.Equal(t, []string{NodeInitialize}, path)
	assert.Zero(t, client.CallCount())
}

func TestInitializeNode_NoopWhenInitialized(t *testing.T) {
	n := &nodes{cfg: DefaultConfig(), langs: language.Default, now: func() time.Time { return fixedNow }}
	s := conversation(t, 3)
	s.ForeignLanguage = "no longer checked"

	out, err := n.initialize(runCtx(nil), s)
	require.NoError(t, err)
	assert.Equal(t, s, out)
}

func TestInitializeNode_MarksInitialized(t *testing.T) {
	n := &nodes{cfg: DefaultConfig(), langs: language.Default, now: func() time.Time { return fixedNow }}
	s := State{Level: LevelA1, ForeignLanguage: "French", NativeLanguage: "German", Topic: " family "}

	out, err := n.initialize(runCtx(nil), s)
	require.NoError(t, err)
	assert.True(t, out.Initialized)
	assert.Equal(t, "family", out.Topic)
	assert.NotNil(t, out.Messages)
	assert.NotNil(t, out.Corrections)
}
