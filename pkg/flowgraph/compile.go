package flowgraph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
)

// Compile validates the graph and creates an executable CompiledGraph.
// Returns an error if validation fails. Multiple errors are joined together.
//
// Validation checks:
//  1. Entry point must be set and reference an existing node
//  2. Edge sources and targets must reference existing nodes (or END)
//  3. Declared router targets must reference existing nodes (or END)
//  4. A node has at most one unconditional successor, and never both
//     kinds of edge
//  5. Every node reachable from entry has an outgoing edge
//  6. A path to END exists from entry
//
// Unreachable nodes are logged as warnings but do not fail compilation.
func (g *Graph[S]) Compile() (*CompiledGraph[S], error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error

	if g.entryPoint == "" {
		errs = append(errs, ErrNoEntryPoint)
	} else if _, exists := g.nodes[g.entryPoint]; !exists {
		errs = append(errs, fmt.Errorf("%w: %s", ErrEntryNotFound, g.entryPoint))
	}

	for _, from := range sortedKeys(g.edges) {
		targets := g.edges[from]
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		for _, to := range targets {
			if !g.isTarget(to) {
				errs = append(errs, fmt.Errorf("%w: edge target '%s' does not exist", ErrNodeNotFound, to))
			}
		}
		if len(targets) > 1 {
			errs = append(errs, fmt.Errorf("%w: %s -> %v", ErrMultipleSuccessors, from, targets))
		}
		if _, conditional := g.conditionalEdges[from]; conditional {
			errs = append(errs, fmt.Errorf("%w: %s", ErrConflictingEdges, from))
		}
	}

	for _, from := range sortedKeys(g.conditionalEdges) {
		if _, exists := g.nodes[from]; !exists {
			errs = append(errs, fmt.Errorf("%w: conditional edge source '%s' does not exist", ErrNodeNotFound, from))
		}
		for _, to := range g.conditionalEdges[from].targets {
			if !g.isTarget(to) {
				errs = append(errs, fmt.Errorf("%w: router target '%s' of '%s' does not exist", ErrNodeNotFound, to, from))
			}
		}
	}

	if _, exists := g.nodes[g.entryPoint]; exists {
		reachable := g.findReachableNodes()
		for _, id := range g.order {
			if !reachable[id] {
				slog.Warn("node is unreachable from entry", "node_id", id)
				continue
			}
			if len(g.edges[id]) == 0 {
				if _, conditional := g.conditionalEdges[id]; !conditional {
					errs = append(errs, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, id))
				}
			}
		}
		if !reachable[END] {
			errs = append(errs, ErrNoPathToEnd)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return g.buildCompiledGraph(), nil
}

func (g *Graph[S]) isTarget(id string) bool {
	if id == END {
		return true
	}
	_, exists := g.nodes[id]
	return exists
}

// successorsOf lists where execution may go after id. An unconstrained
// router may go anywhere.
func (g *Graph[S]) successorsOf(id string) []string {
	if cond, ok := g.conditionalEdges[id]; ok {
		if len(cond.targets) > 0 {
			return cond.targets
		}
		return append(slices.Clone(g.order), END)
	}
	return g.edges[id]
}

// findReachableNodes returns the set of IDs, END included, reachable
// from the entry point.
func (g *Graph[S]) findReachableNodes() map[string]bool {
	reachable := map[string]bool{g.entryPoint: true}
	queue := []string{g.entryPoint}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range g.successorsOf(current) {
			if reachable[next] {
				continue
			}
			reachable[next] = true
			if next != END {
				queue = append(queue, next)
			}
		}
	}

	return reachable
}

// buildCompiledGraph copies the builder state into an immutable CompiledGraph.
func (g *Graph[S]) buildCompiledGraph() *CompiledGraph[S] {
	nodes := make(map[string]NodeFunc[S], len(g.nodes))
	for id, fn := range g.nodes {
		nodes[id] = fn
	}

	edges := make(map[string]string, len(g.edges))
	predecessors := make(map[string][]string)
	for from, targets := range g.edges {
		edges[from] = targets[0]
		if targets[0] != END {
			predecessors[targets[0]] = append(predecessors[targets[0]], from)
		}
	}

	routers := make(map[string]conditionalEdge[S], len(g.conditionalEdges))
	for from, cond := range g.conditionalEdges {
		routers[from] = conditionalEdge[S]{router: cond.router, targets: slices.Clone(cond.targets)}
		for _, to := range cond.targets {
			if to != END {
				predecessors[to] = append(predecessors[to], from)
			}
		}
	}
	for _, preds := range predecessors {
		sort.Strings(preds)
	}

	return &CompiledGraph[S]{
		nodes:        nodes,
		order:        slices.Clone(g.order),
		edges:        edges,
		routers:      routers,
		entryPoint:   g.entryPoint,
		predecessors: predecessors,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
