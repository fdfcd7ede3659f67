package chat

import (
	"time"

	"github.com/randalmurphal/korli/pkg/flowgraph"
	"github.com/randalmurphal/korli/pkg/tutor/language"
)

// Option configures NewWorkflow.
type Option func(*nodes)

// WithLanguages replaces the built-in language table.
func WithLanguages(t *language.Table) Option {
	return func(n *nodes) {
		if t != nil {
			n.langs = t
		}
	}
}

// WithClock sets the time source for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *nodes) {
		if now != nil {
			n.now = now
		}
	}
}

// NewWorkflow compiles the conversation graph:
//
//	initialize ─(no history)─► initial_question ─► END
//	    └─(history)─► [correct_response] ─► call_model ─(len > threshold)─► summarize ─► END
//	                                            └─(otherwise)─► END
//
// correct_response is wired only when cfg.CorrectResponses is set. The
// compiled graph is safe for concurrent runs.
func NewWorkflow(cfg Config, opts ...Option) (*flowgraph.CompiledGraph[State], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := &nodes{cfg: cfg, langs: language.Default, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}

	reply := NodeCallModel
	if cfg.CorrectResponses {
		reply = NodeCorrectResponse
	}

	g := flowgraph.NewGraph[State]().
		AddNode(NodeInitialize, n.initialize).
		AddNode(NodeInitialQuestion, n.initialQuestion).
		AddNode(NodeCallModel, n.callModel).
		AddNode(NodeSummarize, n.summarize).
		AddConditionalEdge(NodeInitialize, n.routeAfterInit, NodeInitialQuestion, reply).
		AddEdge(NodeInitialQuestion, flowgraph.END).
		AddConditionalEdge(NodeCallModel, n.routeAfterReply, NodeSummarize, flowgraph.END).
		AddEdge(NodeSummarize, flowgraph.END).
		SetEntry(NodeInitialize)

	if cfg.CorrectResponses {
		g.AddNode(NodeCorrectResponse, n.correctResponse).
			AddEdge(NodeCorrectResponse, NodeCallModel)
	}

	return g.Compile()
}
