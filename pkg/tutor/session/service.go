// Package session runs conversation turns against persisted state.
//
// Every turn loads the last committed chat.State of a session, runs the
// workflow once and commits the result with the engine's OnComplete
// checkpoint policy. A turn that fails anywhere leaves the previous
// commit untouched. Turns on one session are serialized; different
// sessions run concurrently.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/randalmurphal/korli/pkg/flowgraph"
	"github.com/randalmurphal/korli/pkg/flowgraph/checkpoint"
	fgerrors "github.com/randalmurphal/korli/pkg/flowgraph/errors"
	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
	"github.com/randalmurphal/korli/pkg/flowgraph/observability"
	"github.com/randalmurphal/korli/pkg/tutor/chat"
	"github.com/randalmurphal/korli/pkg/tutor/language"
)

// Service owns the turn lifecycle. It is safe for concurrent use.
type Service struct {
	workflow *flowgraph.CompiledGraph[chat.State]
	store    checkpoint.Store
	client   llm.Client
	logger   *slog.Logger
	langs    language.Checker
	runOpts  []flowgraph.RunOption
	now      func() time.Time
	newID    func() string

	mu sync.Mutex
	// locks holds an entry per session with a turn running or waiting.
	locks map[string]*sessionLock
}

// sessionLock is a one-slot channel used as a mutex. refs counts the
// holder and waiters; the entry is dropped when it reaches zero.
type sessionLock struct {
	slot chan struct{}
	refs int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLanguages sets the lookup used to validate new sessions.
func WithLanguages(c language.Checker) Option {
	return func(s *Service) {
		if c != nil {
			s.langs = c
		}
	}
}

// WithTelemetry records engine spans and metrics of every turn through
// the given instruments. A nil argument leaves that signal off.
func WithTelemetry(spans observability.SpanManager, metrics observability.MetricsRecorder) Option {
	return func(s *Service) {
		s.runOpts = append(s.runOpts, flowgraph.WithSpanManager(spans), flowgraph.WithMetricsRecorder(metrics))
	}
}

// WithRunOptions appends engine options to every turn.
func WithRunOptions(opts ...flowgraph.RunOption) Option {
	return func(s *Service) {
		s.runOpts = append(s.runOpts, opts...)
	}
}

// WithClock sets the time source for user message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets how new session IDs are made. Defaults to UUIDv4.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New builds a Service. workflow, store and client are required.
func New(workflow *flowgraph.CompiledGraph[chat.State], store checkpoint.Store, client llm.Client, opts ...Option) (*Service, error) {
	switch {
	case workflow == nil:
		return nil, errors.New("session: workflow is required")
	case store == nil:
		return nil, errors.New("session: checkpoint store is required")
	case client == nil:
		return nil, errors.New("session: llm client is required")
	}

	s := &Service{
		workflow: workflow,
		store:    store,
		client:   client,
		logger:   slog.Default(),
		langs:    language.Default,
		now:      time.Now,
		newID:    uuid.NewString,
		locks:    make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Listener observes each node of a turn as it completes.
type Listener func(flowgraph.NodeEvent[chat.State])

// TurnOption configures a single turn.
type TurnOption func(*turnConfig)

type turnConfig struct {
	listener Listener
}

// WithListener streams node events of the turn to fn. fn runs on the
// turn's goroutine and must not block for long.
func WithListener(fn Listener) TurnOption {
	return func(c *turnConfig) { c.listener = fn }
}

// Start opens a session and runs its first turn, which asks the opening
// question. Settings are validated before anything is persisted.
func (s *Service) Start(ctx context.Context, settings chat.Settings, opts ...TurnOption) (chat.State, error) {
	return s.start(ctx, s.newID(), settings, "", opts)
}

// Send appends a student message to an existing session and runs a turn.
// It returns a NotFoundError when the session has no committed state.
func (s *Service) Send(ctx context.Context, sessionID, text string, opts ...TurnOption) (chat.State, error) {
	if strings.TrimSpace(text) == "" {
		return chat.State{}, fgerrors.Validation("message", "message cannot be empty")
	}
	if sessionID == "" {
		return chat.State{}, fgerrors.Validation("thread_id", "thread_id cannot be empty")
	}

	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return chat.State{}, err
	}
	defer unlock()

	state, err := s.load(ctx, sessionID)
	if err != nil {
		return chat.State{}, err
	}
	state = state.WithUserMessage(chat.NewUserMessage(text, s.now()))
	return s.run(ctx, sessionID, state, opts)
}

// Request is the single-endpoint form of a turn.
//
// Without Message it starts a session and asks the opening question; the
// settings are then required. With Message it continues the session, or
// starts one from that message when ThreadID has no state yet and
// settings are given.
type Request struct {
	ThreadID string
	Message  *string
	Settings chat.Settings
}

func (r Request) hasSettings() bool {
	return r.Settings != chat.Settings{}
}

// Invoke runs one turn described by req. The returned state carries the
// session ID, generated when req.ThreadID is empty.
func (s *Service) Invoke(ctx context.Context, req Request, opts ...TurnOption) (chat.State, error) {
	id := req.ThreadID
	if id == "" {
		id = s.newID()
	}

	if req.Message == nil {
		if err := requireInitFields(req.Settings); err != nil {
			return chat.State{}, err
		}
		return s.start(ctx, id, req.Settings, "", opts)
	}

	text := *req.Message
	if strings.TrimSpace(text) == "" {
		return chat.State{}, fgerrors.Validation("message", "message cannot be empty")
	}
	if req.ThreadID != "" {
		exists, err := s.exists(ctx, id)
		if err != nil {
			return chat.State{}, err
		}
		if exists {
			return s.Send(ctx, id, text, opts...)
		}
	}
	if !req.hasSettings() {
		return chat.State{}, &fgerrors.NotFoundError{Kind: "session", ID: id}
	}
	return s.start(ctx, id, req.Settings, text, opts)
}

func requireInitFields(st chat.Settings) error {
	var missing []string
	if st.Level == "" {
		missing = append(missing, "student_level")
	}
	if st.ForeignLanguage == "" {
		missing = append(missing, "foreign_language")
	}
	if st.NativeLanguage == "" {
		missing = append(missing, "native_language")
	}
	if st.Topic == "" {
		missing = append(missing, "topic")
	}
	if len(missing) > 0 {
		return fgerrors.Validation("", "missing required initialization fields for first turn: %s",
			strings.Join(missing, ", "))
	}
	return nil
}

// start validates settings and runs the first turn of id. With a
// non-empty firstMessage the conversation opens on the student's message
// instead of the greeting.
func (s *Service) start(ctx context.Context, id string, settings chat.Settings, firstMessage string, opts []TurnOption) (chat.State, error) {
	state, err := chat.NewState(settings, s.langs)
	if err != nil {
		return chat.State{}, err
	}
	state.SessionID = id

	unlock, err := s.lock(ctx, id)
	if err != nil {
		return chat.State{}, err
	}
	defer unlock()

	exists, err := s.exists(ctx, id)
	if err != nil {
		return chat.State{}, err
	}
	if exists {
		return chat.State{}, fgerrors.Validation("thread_id", "session %q already started; send a message instead", id)
	}

	if firstMessage != "" {
		state = state.WithUserMessage(chat.NewUserMessage(firstMessage, s.now()))
	}
	return s.run(ctx, id, state, opts)
}

// Get returns the last committed state of a session.
func (s *Service) Get(ctx context.Context, sessionID string) (chat.State, error) {
	return s.load(ctx, sessionID)
}

// Delete removes every checkpoint of a session.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	unlock, err := s.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	exists, err := s.exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return &fgerrors.NotFoundError{Kind: "session", ID: sessionID}
	}
	if err := s.store.DeleteRun(ctx, sessionID); err != nil {
		return fgerrors.Provider("checkpoint", "delete", err)
	}
	s.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

func (s *Service) run(ctx context.Context, id string, state chat.State, opts []TurnOption) (chat.State, error) {
	var tc turnConfig
	for _, opt := range opts {
		opt(&tc)
	}

	logger := s.logger.With("session_id", id)
	fctx := flowgraph.NewContext(ctx,
		flowgraph.WithLogger(logger),
		flowgraph.WithLLM(s.client),
		flowgraph.WithCheckpointer(s.store),
		flowgraph.WithContextRunID(id))

	runOpts := append(slices.Clone(s.runOpts),
		flowgraph.WithRunID(id),
		flowgraph.WithCheckpointing(s.store),
		flowgraph.WithCheckpointPolicy(flowgraph.OnComplete),
		flowgraph.WithCheckpointFailureFatal(),
		flowgraph.WithObservabilityLogger(logger))
	if tc.listener != nil {
		runOpts = append(runOpts, flowgraph.WithNodeListener(tc.listener))
	}

	start := time.Now()
	out, err := s.workflow.Run(fctx, state, runOpts...)
	if err != nil {
		var cpErr *flowgraph.CheckpointError
		if errors.As(err, &cpErr) {
			err = fgerrors.Provider("checkpoint", cpErr.Op, err)
		}
		logger.Warn("turn failed", "turn", state.Turn+1, "error", err)
		return chat.State{}, fmt.Errorf("session %s: %w", id, err)
	}

	logger.Info("turn committed",
		"turn", out.Turn,
		"messages", len(out.Messages),
		"summarized", out.Summary != state.Summary,
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (s *Service) load(ctx context.Context, id string) (chat.State, error) {
	state, err := flowgraph.LoadLatest[chat.State](ctx, s.store, id)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return chat.State{}, &fgerrors.NotFoundError{Kind: "session", ID: id}
		}
		return chat.State{}, fgerrors.Provider("checkpoint", "load", err)
	}
	return state, nil
}

func (s *Service) exists(ctx context.Context, id string) (bool, error) {
	infos, err := s.store.List(ctx, id)
	if err != nil {
		return false, fgerrors.Provider("checkpoint", "list", err)
	}
	return len(infos) > 0, nil
}

// lock serializes turns of one session. Waiting gives up when ctx ends.
func (s *Service) lock(ctx context.Context, id string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{slot: make(chan struct{}, 1)}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.slot <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.slot
				s.release(id, l)
			})
		}, nil
	case <-ctx.Done():
		s.release(id, l)
		return nil, ctx.Err()
	}
}

func (s *Service) release(id string, l *sessionLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}
