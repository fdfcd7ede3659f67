package chat

import (
	"testing"

	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, l := range []string{"A1", "A2", "B1", "B2", "C1", "C2"} {
		got, err := ParseLevel(l)
		require.NoError(t, err)
		assert.Equal(t, Level(l), got)
	}

	for _, bad := range []string{"", "b2", "D1", "A0", " B2"} {
		_, err := ParseLevel(bad)
		assert.True(t, fgerrors.IsValidation(err), bad)
	}
}

func TestLevel_Beginner(t *testing.T) {
	assert.True(t, LevelA1.Beginner())
	assert.True(t, LevelA2.Beginner())
	assert.False(t, LevelB1.Beginner())
	assert.False(t, LevelC2.Beginner())
}

func TestState_Phase(t *testing.T) {
	cfg := DefaultConfig()

	s, err := NewState(exampleSettings(), nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseUninitialized, s.Phase(cfg))

	s.Initialized = true
	assert.Equal(t, PhaseAwaitingFirstQuestion, s.Phase(cfg))

	assert.Equal(t, PhaseAwaitingUserTurn, conversation(t, 30).Phase(cfg))
	assert.Equal(t, PhaseAwaitingSummarizationCheck, conversation(t, 31).Phase(cfg))
}

func TestState_Clone(t *testing.T) {
	s := conversation(t, 2)
	s.Corrections["m01"] = Correction{Corrected: true}

	c := s.Clone()
	c.Messages[0].Content = "changed"
	c.Corrections["m01"] = Correction{}

	assert.Equal(t, "mensaje 0", s.Messages[0].Content)
	assert.True(t, s.Corrections["m01"].Corrected)
}

func TestState_WithUserMessageDoesNotAlias(t *testing.T) {
	base := conversation(t, 1)
	base.Messages = append(make([]Message, 0, 8), base.Messages...)

	a := base.WithUserMessage(NewUserMessage("a", fixedNow))
	b := base.WithUserMessage(NewUserMessage("b", fixedNow))

	assert.Len(t, base.Messages, 1)
	assert.Equal(t, "a", a.Messages[1].Content)
	assert.Equal(t, "b", b.Messages[1].Content)
}

func TestState_LastMessage(t *testing.T) {
	_, ok := State{}.LastMessage()
	assert.False(t, ok)

	last, ok := conversation(t, 3).LastMessage()
	require.True(t, ok)
	assert.Equal(t, RoleUser, last.Role)
	assert.Equal(t, "m02", last.ID)
}

func TestNewUserMessage(t *testing.T) {
	a := NewUserMessage("hola", fixedNow)
	b := NewUserMessage("hola", fixedNow)

	assert.Equal(t, RoleUser, a.Role)
	assert.Empty(t, a.Translation)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, fixedNow, a.CreatedAt)
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name      string
		threshold int
		keep      int
		fields    []string
	}{
		{"keep zero", 30, 0, []string{"messages_to_keep"}},
		{"keep equals threshold", 20, 20, []string{"messages_before_summary"}},
		{"keep above threshold", 10, 20, []string{"messages_before_summary"}},
		{"both bad", 0, 0, []string{"messages_to_keep", "messages_before_summary"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MessagesBeforeSummary = tt.threshold
			cfg.MessagesToKeep = tt.keep

			err := cfg.Validate()
			var errs fgerrors.ValidationErrors
			require.ErrorAs(t, err, &errs)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestShouldSummarize_StrictThreshold(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, ShouldSummarize(conversation(t, 29), cfg))
	assert.False(t, ShouldSummarize(conversation(t, 30), cfg))
	assert.True(t, ShouldSummarize(conversation(t, 31), cfg))
}
