package flowgraph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/korli/pkg/flowgraph/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func branchGraph(t *testing.T, tracker *[]string) *CompiledGraph[State] {
	t.Helper()
	router := func(_ Context, s State) string {
		if s.GoLeft {
			return "left"
		}
		return "right"
	}
	compiled, err := NewGraph[State]().
		AddNode("start", makeTrackingNode("start", tracker)).
		AddNode("left", makeTrackingNode("left", tracker)).
		AddNode("right", makeTrackingNode("right", tracker)).
		AddConditionalEdge("start", router, "left", "right").
		AddEdge("left", END).
		AddEdge("right", END).
		SetEntry("start").
		Compile()
	require.NoError(t, err)
	return compiled
}

func TestRun_LinearFlow(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc1", increment).
		AddNode("inc2", increment).
		AddNode("inc3", increment).
		AddEdge("inc1", "inc2").
		AddEdge("inc2", "inc3").
		AddEdge("inc3", END).
		SetEntry("inc1").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{Value: 0})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Value)
}

func TestRun_StatePassedBetweenNodes(t *testing.T) {
	var nodeAState, nodeBState State

	compiled, err := NewGraph[State]().
		AddNode("a", func(_ Context, s State) (State, error) {
			nodeAState = s
			s.Step = 1
			return s, nil
		}).
		AddNode("b", func(_ Context, s State) (State, error) {
			nodeBState = s
			s.Step = 2
			return s, nil
		}).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), State{Initial: "test"})

	require.NoError(t, err)
	assert.Equal(t, "test", nodeAState.Initial)
	assert.Equal(t, 1, nodeBState.Step)
	assert.Equal(t, 2, result.Step)
}

func TestRun_ConditionalEdge(t *testing.T) {
	for _, goLeft := range []bool{true, false} {
		var executed []string
		compiled := branchGraph(t, &executed)

		_, err := compiled.Run(testCtx(), State{GoLeft: goLeft})
		require.NoError(t, err)

		want := "right"
		if goLeft {
			want = "left"
		}
		assert.Equal(t, []string{"start", want}, executed)
	}
}

func TestRun_ConditionalEdge_ToEND(t *testing.T) {
	var executed []string
	compiled, err := NewGraph[State]().
		AddNode("check", makeTrackingNode("check", &executed)).
		AddNode("work", makeTrackingNode("work", &executed)).
		AddConditionalEdge("check", func(_ Context, s State) string {
			if s.Done {
				return END
			}
			return "work"
		}, "work", END).
		AddEdge("work", END).
		SetEntry("check").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), State{Done: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"check"}, executed)
}

func TestRun_Loop(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc", increment).
		AddConditionalEdge("inc", func(_ Context, c Counter) string {
			if c.Value >= 5 {
				return END
			}
			return "inc"
		}, "inc", END).
		SetEntry("inc").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Value)
}

func TestRun_NodeError_WrapsWithNodeID(t *testing.T) {
	boom := errors.New("model unavailable")
	compiled, err := NewGraph[State]().
		AddNode("ok", passthrough[State]).
		AddNode("fail", makeFailingNode(boom)).
		AddEdge("ok", "fail").
		AddEdge("fail", END).
		SetEntry("ok").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), State{})

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "fail", nodeErr.NodeID)
	assert.Equal(t, "execute", nodeErr.Op)
	assert.ErrorIs(t, err, boom)
}

func TestRun_NodeError_StatePreserved(t *testing.T) {
	compiled, err := NewGraph[State]().
		AddNode("set", func(_ Context, s State) (State, error) {
			s.Output = "partial"
			return s, nil
		}).
		AddNode("fail", makeFailingNode(errors.New("nope"))).
		AddEdge("set", "fail").
		AddEdge("fail", END).
		SetEntry("set").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), State{})
	require.Error(t, err)
	assert.Equal(t, "partial", result.Output)
}

func TestRun_PanicRecovery(t *testing.T) {
	compiled, err := NewGraph[State]().
		AddNode("panic", makePanicNode("kaboom")).
		AddEdge("panic", END).
		SetEntry("panic").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), State{})

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "panic", panicErr.NodeID)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.Contains(t, panicErr.Stack, "goroutine")
}

func TestRun_CancellationBetweenNodes(t *testing.T) {
	var executed []string
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	compiled, err := NewGraph[State]().
		AddNode("first", func(_ Context, s State) (State, error) {
			executed = append(executed, "first")
			cancel()
			return s, nil
		}).
		AddNode("second", makeTrackingNode("second", &executed)).
		AddEdge("first", "second").
		AddEdge("second", END).
		SetEntry("first").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(NewContext(ctx), State{})

	assert.ErrorIs(t, err, context.Canceled)
	var cancelErr *CancellationError
	require.ErrorAs(t, err, &cancelErr)
	assert.Equal(t, "second", cancelErr.NodeID)
	assert.False(t, cancelErr.WasExecuting)
	assert.Equal(t, []string{"first"}, executed)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed []string
	compiled := branchGraph(t, &executed)

	_, err := compiled.Run(NewContext(ctx), State{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, executed)
}

func TestRun_DeadlineSeenByNode(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	compiled, err := NewGraph[State]().
		AddNode("slow", func(ctx Context, s State) (State, error) {
			<-ctx.Done()
			return s, ctx.Err()
		}).
		AddEdge("slow", END).
		SetEntry("slow").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(NewContext(ctx), State{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_MaxIterations_PreventsInfiniteLoop(t *testing.T) {
	compiled, err := NewGraph[State]().
		AddNode("loop", func(_ Context, s State) (State, error) {
			s.Count++
			return s, nil
		}).
		AddConditionalEdge("loop", func(Context, State) string { return "loop" }, "loop", END).
		SetEntry("loop").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), State{}, WithMaxIterations(10))

	assert.ErrorIs(t, err, ErrMaxIterations)
	var maxErr *MaxIterationsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 10, maxErr.Max)
	assert.Equal(t, "loop", maxErr.LastNodeID)
	assert.Equal(t, 10, result.Count)
}

func TestRun_NilContext_Error(t *testing.T) {
	var executed []string
	compiled := branchGraph(t, &executed)

	//nolint:staticcheck // nil context on purpose
	_, err := compiled.Run(nil, State{})
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestRun_RouterErrors(t *testing.T) {
	tests := []struct {
		name     string
		returned string
		want     error
	}{
		{"empty", "", ErrInvalidRouterResult},
		{"unknown", "nowhere", ErrRouterTargetNotFound},
		{"undeclared", "other", ErrUndeclaredRouterTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled, err := NewGraph[State]().
				AddNode("start", passthrough[State]).
				AddNode("next", passthrough[State]).
				AddNode("other", passthrough[State]).
				AddConditionalEdge("start", func(Context, State) string { return tt.returned }, "next", END).
				AddEdge("next", END).
				AddEdge("other", END).
				SetEntry("start").
				Compile()
			require.NoError(t, err)

			_, err = compiled.Run(testCtx(), State{})

			var routerErr *RouterError
			require.ErrorAs(t, err, &routerErr)
			assert.Equal(t, "start", routerErr.FromNode)
			assert.Equal(t, tt.returned, routerErr.Returned)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRun_ContextPropagated(t *testing.T) {
	var captured Context
	mock := llm.NewMockClient("hi")

	compiled, err := NewGraph[State]().
		AddNode("capture", func(ctx Context, s State) (State, error) {
			captured = ctx
			return s, nil
		}).
		AddEdge("capture", END).
		SetEntry("capture").
		Compile()
	require.NoError(t, err)

	ctx := NewContext(context.Background(), WithContextRunID("ctx-run"), WithLLM(mock))
	_, err = compiled.Run(ctx, State{})
	require.NoError(t, err)

	assert.Equal(t, "ctx-run", captured.RunID())
	assert.Equal(t, "capture", captured.NodeID())
	assert.Same(t, mock, captured.LLM())

	_, err = compiled.Run(ctx, State{}, WithRunID("opt-run"))
	require.NoError(t, err)
	assert.Equal(t, "opt-run", captured.RunID())
}

func TestRun_InitialStateNotMutated(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc", increment).
		AddEdge("inc", END).
		SetEntry("inc").
		Compile()
	require.NoError(t, err)

	initial := Counter{Value: 5}
	result, err := compiled.Run(testCtx(), initial)

	require.NoError(t, err)
	assert.Equal(t, 5, initial.Value)
	assert.Equal(t, 6, result.Value)
}

func TestRun_NodeListener(t *testing.T) {
	var executed []string
	compiled := branchGraph(t, &executed)

	var events []NodeEvent[State]
	_, err := compiled.Run(testCtx(), State{GoLeft: true},
		WithRunID("listen"),
		WithNodeListener(func(e NodeEvent[State]) { events = append(events, e) }))
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "start", events[0].NodeID)
	assert.Equal(t, "left", events[0].Next)
	assert.Equal(t, []string{"start"}, events[0].State.Progress)
	assert.Equal(t, "left", events[1].NodeID)
	assert.Equal(t, END, events[1].Next)
	assert.Equal(t, "listen", events[1].RunID)
}

func TestRun_NodeListener_ReportsFailure(t *testing.T) {
	boom := errors.New("boom")
	compiled, err := NewGraph[State]().
		AddNode("fail", makeFailingNode(boom)).
		AddEdge("fail", END).
		SetEntry("fail").
		Compile()
	require.NoError(t, err)

	var events []NodeEvent[State]
	_, err = compiled.Run(testCtx(), State{},
		WithNodeListener(func(e NodeEvent[State]) { events = append(events, e) }))
	require.Error(t, err)

	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, boom)
	assert.Empty(t, events[0].Next)
}

func TestRun_NodeListener_WrongTypeIgnored(t *testing.T) {
	var executed []string
	compiled := branchGraph(t, &executed)

	called := false
	_, err := compiled.Run(testCtx(), State{},
		WithNodeListener(func(NodeEvent[Counter]) { called = true }))
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRun_ConcurrentRunsShareCompiledGraph(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("a", increment).
		AddNode("b", increment).
		AddEdge("a", "b").
		AddEdge("b", END).
		SetEntry("a").
		Compile()
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]int, 20)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := compiled.Run(testCtx(), Counter{Value: i})
			assert.NoError(t, err)
			results[i] = r.Value
		}()
	}
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, i+2, v)
	}
}

func TestContext_DefaultValues(t *testing.T) {
	ctx := NewContext(context.Background())

	assert.NotNil(t, ctx.Logger())
	assert.Nil(t, ctx.LLM())
	assert.Nil(t, ctx.Checkpointer())
	assert.NotEmpty(t, ctx.RunID())
	assert.Equal(t, "", ctx.NodeID())
	assert.Equal(t, 1, ctx.Attempt())
}

func TestContext_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fgCtx := NewContext(ctx)

	cancel()

	assert.ErrorIs(t, fgCtx.Err(), context.Canceled)
}

func TestContext_ValuesFromParent(t *testing.T) {
	type keyType string
	key := keyType("custom")

	fgCtx := NewContext(context.WithValue(context.Background(), key, "value"))

	assert.Equal(t, "value", fgCtx.Value(key))
}
