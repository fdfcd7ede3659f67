package flowgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGraph(t *testing.T) {
	graph := NewGraph[Counter]()
	assert.NotNil(t, graph)
	assert.NotNil(t, graph.nodes)
	assert.NotNil(t, graph.edges)
	assert.NotNil(t, graph.conditionalEdges)
	assert.Empty(t, graph.entryPoint)
}

func TestGraph_AddNode(t *testing.T) {
	graph := NewGraph[Counter]().
		AddNode("b", increment).
		AddNode("a", increment)

	assert.Len(t, graph.nodes, 2)
	assert.Equal(t, []string{"b", "a"}, graph.order)
}

func TestGraph_AddNode_Chaining(t *testing.T) {
	graph := NewGraph[Counter]()
	assert.Same(t, graph, graph.AddNode("a", increment))
}

func TestGraph_AddNode_EmptyID_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: node ID cannot be empty", func() {
		NewGraph[Counter]().AddNode("", increment)
	})
}

func TestGraph_AddNode_ReservedID_Panics(t *testing.T) {
	for _, id := range []string{"END", "end", "End", "__end__", "__END__"} {
		t.Run(id, func(t *testing.T) {
			assert.PanicsWithValue(t, "flowgraph: node ID cannot be reserved word 'END'", func() {
				NewGraph[Counter]().AddNode(id, increment)
			})
		})
	}
}

func TestGraph_AddNode_WhitespaceID_Panics(t *testing.T) {
	for _, id := range []string{"call model", "call\tmodel", "call\nmodel", " lead"} {
		t.Run(id, func(t *testing.T) {
			assert.PanicsWithValue(t, "flowgraph: node ID cannot contain whitespace", func() {
				NewGraph[Counter]().AddNode(id, increment)
			})
		})
	}
}

func TestGraph_AddNode_NilFunc_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: node function cannot be nil", func() {
		NewGraph[Counter]().AddNode("a", nil)
	})
}

func TestGraph_AddNode_DuplicateID_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: duplicate node ID: a", func() {
		NewGraph[Counter]().AddNode("a", increment).AddNode("a", increment)
	})
}

func TestGraph_AddNode_ValidIDs(t *testing.T) {
	for _, id := range []string{"initialize", "call_model", "initial-question", "node.1", "endgame", "Ende"} {
		assert.NotPanics(t, func() { NewGraph[Counter]().AddNode(id, increment) }, id)
	}
}

func TestGraph_AddEdge(t *testing.T) {
	graph := NewGraph[Counter]().AddEdge("a", "b").AddEdge("b", END)
	assert.Equal(t, []string{"b"}, graph.edges["a"])
	assert.Equal(t, []string{END}, graph.edges["b"])
}

func TestGraph_AddConditionalEdge(t *testing.T) {
	router := func(_ Context, c Counter) string { return END }
	graph := NewGraph[Counter]().AddConditionalEdge("a", router, "b", END)

	cond, ok := graph.conditionalEdges["a"]
	assert.True(t, ok)
	assert.Equal(t, []string{"b", END}, cond.targets)
	assert.True(t, cond.allows("b"))
	assert.True(t, cond.allows(END))
	assert.False(t, cond.allows("c"))
}

func TestGraph_AddConditionalEdge_NoTargetsAllowsAnything(t *testing.T) {
	router := func(_ Context, c Counter) string { return END }
	graph := NewGraph[Counter]().AddConditionalEdge("a", router)
	assert.True(t, graph.conditionalEdges["a"].allows("anything"))
}

func TestGraph_AddConditionalEdge_NilRouter_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "flowgraph: router function cannot be nil", func() {
		NewGraph[Counter]().AddConditionalEdge("a", nil)
	})
}

func TestGraph_SetEntry_CanBeOverwritten(t *testing.T) {
	graph := NewGraph[Counter]().SetEntry("a").SetEntry("b")
	assert.Equal(t, "b", graph.entryPoint)
}
