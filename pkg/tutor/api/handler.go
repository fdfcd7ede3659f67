// Package api exposes the tutor over HTTP.
//
// Routes:
//
//	GET    /                      welcome message
//	GET    /health                liveness
//	POST   /api/chat/invoke       run one turn, JSON response
//	POST   /api/chat/stream       run one turn, Server-Sent Events
//	GET    /api/chat/{threadID}   last committed state
//	DELETE /api/chat/{threadID}   forget a conversation
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/tutor/chat"
	"github.com/randalmurphal/korli/pkg/tutor/prompt"
	"github.com/randalmurphal/korli/pkg/tutor/session"
)

// defaultMaxRequestBodySize caps request bodies at 64KB.
const defaultMaxRequestBodySize = 64 << 10

// Turns is the part of session.Service the handlers use.
type Turns interface {
	Invoke(ctx context.Context, req session.Request, opts ...session.TurnOption) (chat.State, error)
	Get(ctx context.Context, sessionID string) (chat.State, error)
	Delete(ctx context.Context, sessionID string) error
}

var _ Turns = (*session.Service)(nil)

// Handler serves the chat routes.
type Handler struct {
	turns    Turns
	logger   *slog.Logger
	validate *validator.Validate
	maxBody  int64
	newID    func() string
}

// NewHandler builds a Handler. A nil logger means slog.Default().
func NewHandler(turns Turns, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Handler{
		turns:    turns,
		logger:   logger,
		validate: v,
		maxBody:  defaultMaxRequestBodySize,
		newID:    newThreadID,
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// NewRouter wires the handler and the standard middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/invoke", h.handleInvoke)
		r.Post("/stream", h.handleStream)
		r.Get("/{threadID}", h.handleGet)
		r.Delete("/{threadID}", h.handleDelete)
	})
}

// ChatInput is the body of both turn endpoints. Omit Message on the
// first turn to get the opening question; the init fields are then
// required.
type ChatInput struct {
	ThreadID        string  `json:"thread_id" validate:"omitempty,max=128"`
	Message         *string `json:"message" validate:"omitempty,max=4000"`
	StudentLevel    string  `json:"student_level" validate:"omitempty,oneof=A1 A2 B1 B2 C1 C2"`
	ForeignLanguage string  `json:"foreign_language" validate:"omitempty,min=2,max=50"`
	NativeLanguage  string  `json:"native_language" validate:"omitempty,min=2,max=50"`
	Topic           string  `json:"topic" validate:"omitempty,max=200"`
	TutorGender     string  `json:"tutor_gender" validate:"omitempty,oneof=male female"`
	StudentGender   string  `json:"student_gender" validate:"omitempty,oneof=male female"`
}

func (in ChatInput) request() session.Request {
	return session.Request{
		ThreadID: in.ThreadID,
		Message:  in.Message,
		Settings: chat.Settings{
			Level:           chat.Level(in.StudentLevel),
			ForeignLanguage: in.ForeignLanguage,
			NativeLanguage:  in.NativeLanguage,
			Topic:           in.Topic,
			TutorGender:     prompt.Gender(in.TutorGender),
			StudentGender:   prompt.Gender(in.StudentGender),
		},
	}
}

// InvokeResponse is returned by /api/chat/invoke.
type InvokeResponse struct {
	ThreadID string     `json:"thread_id"`
	Result   chat.State `json:"result"`
}

func (h *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"message": "Welcome to Korli Language Learning API"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) handleInvoke(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}

	state, err := h.turns.Invoke(r.Context(), in.request())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, InvokeResponse{ThreadID: state.SessionID, Result: state})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	state, err := h.turns.Get(r.Context(), chi.URLParam(r, "threadID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, state)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.turns.Delete(r.Context(), chi.URLParam(r, "threadID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads and validates a ChatInput, answering the request itself
// when that fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (ChatInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var in ChatInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return in, false
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return in, false
	}
	if err := h.validate.Struct(in); err != nil {
		h.fail(w, r, validationError(err))
		return in, false
	}
	return in, true
}

// validationError converts validator output to the shared taxonomy.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fgerrors.Validation("", "%v", err)
	}
	out := make(fgerrors.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := "failed " + fe.Tag() + " check"
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		out = append(out, fgerrors.Validation(fe.Field(), "%s", msg))
	}
	return out
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error    string        `json:"error"`
	Category string        `json:"category,omitempty"`
	Fields   []FieldReport `json:"fields,omitempty"`
}

// FieldReport names one invalid input field.
type FieldReport struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func errorResponse(err error) (int, ErrorResponse) {
	status := fgerrors.HTTPStatus(err)
	resp := ErrorResponse{Error: err.Error(), Category: fgerrors.Categorize(err).String()}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}

	var many fgerrors.ValidationErrors
	var one *fgerrors.ValidationError
	switch {
	case errors.As(err, &many):
		for _, e := range many {
			resp.Fields = append(resp.Fields, FieldReport{Field: e.Field, Message: e.Message})
		}
	case errors.As(err, &one):
		resp.Fields = []FieldReport{{Field: one.Field, Message: one.Message}}
	}
	return status, resp
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := errorResponse(err)
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		"request_id", chiMiddleware.GetReqID(r.Context()),
		"status", status,
		"error", err)
	JSON(w, status, resp)
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// Error writes a JSON error body with only a message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}
