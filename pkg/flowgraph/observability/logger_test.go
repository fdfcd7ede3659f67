package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonLogger returns a debug-level JSON logger and a decoder for its lines.
func jsonLogger() (*slog.Logger, func(t *testing.T) []map[string]any) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func(t *testing.T) []map[string]any {
		var out []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if line == "" {
				continue
			}
			var rec map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &rec))
			out = append(out, rec)
		}
		return out
	}
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatText, FormatConsole, ""} {
		t.Run("format="+format, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger, err := NewLogger(buf, format, "info")
			require.NoError(t, err)

			logger.Debug("hidden")
			logger.Info("turn committed", "session_id", "abc")

			out := buf.String()
			assert.Contains(t, out, "turn committed")
			assert.Contains(t, out, "abc")
			assert.NotContains(t, out, "hidden")
		})
	}
}

func TestNewLogger_JSONIsStructured(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewLogger(buf, FormatJSON, "debug")
	require.NoError(t, err)

	logger.Debug("node starting", "node_id", "call_model")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "node starting", rec["msg"])
	assert.Equal(t, "call_model", rec["node_id"])
}

func TestNewLogger_Rejects(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)

	_, err = NewLogger(&bytes.Buffer{}, FormatJSON, "loud")
	assert.Error(t, err)
}

func TestEnrichLogger(t *testing.T) {
	logger, records := jsonLogger()

	EnrichLogger(logger, "session-1", "summarize", 2).Info("working")

	recs := records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "session-1", recs[0]["run_id"])
	assert.Equal(t, "summarize", recs[0]["node_id"])
	assert.Equal(t, float64(2), recs[0]["attempt"])

	assert.Nil(t, EnrichLogger(nil, "r", "n", 1))
}

func TestRunAndNodeHelpers(t *testing.T) {
	logger, records := jsonLogger()

	LogRunStart(logger, "session-1", "initialize")
	LogNodeStart(logger, "initialize")
	LogNodeComplete(logger, "initialize", "call_model", 1.5)
	LogNodeError(logger, "call_model", errors.New("provider down"))
	LogRunError(logger, "session-1", errors.New("provider down"), 12, "call_model")
	LogRunComplete(logger, "session-2", 8, []string{"initialize", "initial_question"})
	LogCheckpoint(logger, "session-2", "initial_question", 256)
	LogCheckpointError(logger, "summarize", "save", errors.New("disk full"))

	recs := records(t)
	require.Len(t, recs, 8)

	assert.Equal(t, "graph run starting", recs[0]["msg"])
	assert.Equal(t, "initialize", recs[0]["entry"])
	assert.Equal(t, "call_model", recs[2]["next"])
	assert.Equal(t, "ERROR", recs[3]["level"])
	assert.Equal(t, "call_model", recs[4]["last_node"])
	assert.Equal(t, "initialize>initial_question", recs[5]["path"])
	assert.Equal(t, float64(2), recs[5]["nodes_executed"])
	assert.Equal(t, float64(256), recs[6]["size_bytes"])
	assert.Equal(t, "WARN", recs[7]["level"])
	assert.Equal(t, "save", recs[7]["operation"])
}

func TestHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogRunStart(nil, "r", "e")
		LogRunComplete(nil, "r", 1, nil)
		LogRunError(nil, "r", errors.New("x"), 1, "n")
		LogNodeStart(nil, "n")
		LogNodeComplete(nil, "n", "m", 1)
		LogNodeError(nil, "n", errors.New("x"))
		LogCheckpoint(nil, "r", "n", 1)
		LogCheckpointError(nil, "n", "save", errors.New("x"))
	})
}
