package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/randalmurphal/korli/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/tutor/chat"
	"github.com/randalmurphal/korli/pkg/tutor/session"
)

// SSE event names.
const (
	EventNode   = "node"
	EventResult = "result"
	EventError  = "error"
)

// NodeUpdate is the payload of a node event.
type NodeUpdate struct {
	Node       string        `json:"node"`
	Next       string        `json:"next,omitempty"`
	DurationMS int64         `json:"duration_ms"`
	Message    *chat.Message `json:"message,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// StreamError is the payload of an error event.
type StreamError struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func newThreadID() string { return uuid.NewString() }

// handleStream runs a turn and reports every node as it finishes. The
// stream opens with a ": thread_id <id>" comment and ends with exactly one
// result or error event.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	if in.ThreadID == "" {
		in.ThreadID = h.newID()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, ": thread_id %s\n\n", in.ThreadID)
	flusher.Flush()

	logger := h.logger.With("thread_id", in.ThreadID, "request_id", chiMiddleware.GetReqID(r.Context()))

	var seen int
	listener := func(ev flowgraph.NodeEvent[chat.State]) {
		update := NodeUpdate{
			Node:       ev.NodeID,
			Next:       ev.Next,
			DurationMS: ev.Duration.Milliseconds(),
		}
		if ev.Err != nil {
			_, resp := errorResponse(ev.Err)
			update.Error = resp.Error
		} else if n := len(ev.State.Messages); n > 0 && n != seen {
			if last := ev.State.Messages[n-1]; last.Role == chat.RoleAssistant {
				update.Message = &last
			}
		}
		seen = len(ev.State.Messages)
		writeSSE(w, flusher, logger, EventNode, update)
	}

	state, err := h.turns.Invoke(r.Context(), in.request(), session.WithListener(listener))
	if err != nil {
		status, resp := errorResponse(err)
		logger.Warn("stream turn failed", "status", status, "error", err)
		writeSSE(w, flusher, logger, EventError, StreamError{Error: resp.Error, Status: status})
		return
	}
	writeSSE(w, flusher, logger, EventResult, InvokeResponse{ThreadID: state.SessionID, Result: state})
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, logger *slog.Logger, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal SSE payload", "event", event, "error", err)
		data, _ = json.Marshal(StreamError{Error: "internal error", Status: fgerrors.HTTPStatus(err)})
		event = EventError
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		logger.Debug("client went away", "error", err)
		return
	}
	flusher.Flush()
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chiMiddleware.GetReqID(r.Context()))
		})
	}
}
