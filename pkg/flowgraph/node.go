package flowgraph

import "time"

// END is the terminal node identifier.
// Use this as an edge target to indicate the graph should terminate.
const END = "__end__"

// NodeFunc is the signature for all node functions.
// Nodes receive the execution context and current state,
// and return the updated state (or the same state) and any error.
//
// The state parameter is passed by value. Nodes should modify and return
// a new state value, not rely on pointer mutation.
//
// Example:
//
//	func greet(ctx flowgraph.Context, s Conversation) (Conversation, error) {
//	    s.Turns++
//	    return s, nil
//	}
type NodeFunc[S any] func(ctx Context, state S) (S, error)

// RouterFunc determines the next node based on state.
// It is used for conditional edges where the next node depends on runtime state.
//
// The router should return one of the targets declared with
// AddConditionalEdge, or END.
//
// Example:
//
//	func route(ctx flowgraph.Context, s Conversation) string {
//	    if len(s.Messages) == 0 {
//	        return "opening"
//	    }
//	    return "reply"
//	}
type RouterFunc[S any] func(ctx Context, state S) string

// NodeEvent reports one finished node to a listener registered with
// WithNodeListener. Next is the node chosen to run afterwards; it is
// empty when Err is set.
type NodeEvent[S any] struct {
	RunID    string
	NodeID   string
	Next     string
	State    S
	Duration time.Duration
	Err      error
}
