package flowgraph

import "slices"

// CompiledGraph is an immutable, executable graph.
// It is created by calling Compile() on a Graph builder.
//
// CompiledGraph is safe for concurrent Run() calls. A single run
// executes its nodes one at a time.
type CompiledGraph[S any] struct {
	nodes        map[string]NodeFunc[S]
	order        []string
	edges        map[string]string
	routers      map[string]conditionalEdge[S]
	entryPoint   string
	predecessors map[string][]string
}

// EntryPoint returns the entry node ID.
func (cg *CompiledGraph[S]) EntryPoint() string {
	return cg.entryPoint
}

// NodeIDs returns all node identifiers in the order they were added.
func (cg *CompiledGraph[S]) NodeIDs() []string {
	return slices.Clone(cg.order)
}

// HasNode checks if a node exists in the graph.
func (cg *CompiledGraph[S]) HasNode(id string) bool {
	_, exists := cg.nodes[id]
	return exists
}

// Successors returns the possible next nodes of id: the single
// unconditional target, or the declared router targets.
// Returns nil for END, unknown nodes and unconstrained routers.
func (cg *CompiledGraph[S]) Successors(id string) []string {
	if id == END {
		return nil
	}
	if cond, ok := cg.routers[id]; ok {
		return slices.Clone(cond.targets)
	}
	if next, ok := cg.edges[id]; ok {
		return []string{next}
	}
	return nil
}

// Predecessors returns the node IDs with an edge or declared router
// target pointing at id, sorted.
func (cg *CompiledGraph[S]) Predecessors(id string) []string {
	return slices.Clone(cg.predecessors[id])
}

// IsConditional returns true if the node has a conditional edge.
func (cg *CompiledGraph[S]) IsConditional(id string) bool {
	_, ok := cg.routers[id]
	return ok
}
