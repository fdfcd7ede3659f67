// Package observability holds the logging, tracing and metrics plumbing
// shared by the workflow engine and the tutoring service.
//
// Logging is log/slog. Tracing and metrics go through the global
// OpenTelemetry providers, which Setup installs; every recorder has a
// no-op twin for when a signal is disabled.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	console "github.com/phsym/console-slog"
)

// Log formats accepted by NewLogger.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatConsole = "console"
)

// NewLogger builds a slog.Logger writing to w.
// format is one of FormatJSON, FormatText or FormatConsole; level is a
// slog level name such as "debug" or "warn".
func NewLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}

	var h slog.Handler
	switch strings.ToLower(format) {
	case FormatJSON, "":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	case FormatText:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	case FormatConsole:
		h = console.NewHandler(w, &console.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(h), nil
}

// EnrichLogger scopes a logger to one node execution.
func EnrichLogger(logger *slog.Logger, runID, nodeID string, attempt int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.Int("attempt", attempt),
	)
}

// LogRunStart records the beginning of a graph run.
func LogRunStart(logger *slog.Logger, runID, entry string) {
	if logger == nil {
		return
	}
	logger.Info("graph run starting", slog.String("run_id", runID), slog.String("entry", entry))
}

// LogRunComplete records a run that reached END.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, path []string) {
	if logger == nil {
		return
	}
	logger.Info("graph run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("nodes_executed", len(path)),
		slog.String("path", strings.Join(path, ">")),
	)
}

// LogRunError records a failed run and the node it stopped at.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, lastNode string) {
	if logger == nil {
		return
	}
	logger.Error("graph run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("last_node", lastNode),
	)
}

func LogNodeStart(logger *slog.Logger, nodeID string) {
	if logger == nil {
		return
	}
	logger.Debug("node starting", slog.String("node_id", nodeID))
}

func LogNodeComplete(logger *slog.Logger, nodeID, next string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("node completed",
		slog.String("node_id", nodeID),
		slog.String("next", next),
		slog.Float64("duration_ms", durationMs),
	)
}

func LogNodeError(logger *slog.Logger, nodeID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed", slog.String("node_id", nodeID), slog.String("error", err.Error()))
}

// LogCheckpoint records a successful checkpoint write.
func LogCheckpoint(logger *slog.Logger, runID, nodeID string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String("run_id", runID),
		slog.String("node_id", nodeID),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogCheckpointError records a checkpoint failure that did not stop the run.
func LogCheckpointError(logger *slog.Logger, nodeID, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("checkpoint failed",
		slog.String("node_id", nodeID),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}
