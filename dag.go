package postindex

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrResourceCycle is returned when a dependency cycle between
	// resources is found. It always indicates a misconfiguration: the
	// relation calculators of two or more resources disagree about which
	// one renders first.
	ErrResourceCycle = errors.New("resource cycle detected")
)

// orderable is implemented by the resource types that can be placed in a
// graph.
type orderable[T any] interface {
	resourceKey() string
	relationTo(context.Context, T) ResourceRelationship
	implicitlyOrdered() bool
}

// graph is a directed acyclic graph of resources. Nodes point to their
// dependencies, and dependencies are always walked first.
type graph[T orderable[T]] struct {
	nodes []T

	// edgesFrom is keyed by the position of a node and holds the
	// positions of the nodes it depends on.
	edgesFrom map[int]map[int]struct{}

	// edgesTo is keyed by the position of a node and holds the positions
	// of the nodes that depend on it.
	edgesTo map[int]map[int]struct{}
}

// addEdge records that the node at from depends on the node at to.
func (g *graph[T]) addEdge(from, to int) {
	if from == to {
		return
	}
	if g.edgesFrom[from] == nil {
		g.edgesFrom[from] = map[int]struct{}{}
	}
	if g.edgesTo[to] == nil {
		g.edgesTo[to] = map[int]struct{}{}
	}
	g.edgesFrom[from][to] = struct{}{}
	g.edgesTo[to][from] = struct{}{}
}

// buildGraph creates a graph containing every resource in groups, each group
// being the resources of one Component. Duplicate resources are dropped.
//
// Each resource depends on the previous implicitly ordered resource of its
// group, so the order within a group is preserved. Resources with a relation
// calculator are then compared against every other resource.
func buildGraph[T orderable[T]](ctx context.Context, groups [][]T) *graph[T] {
	g := &graph[T]{
		edgesFrom: map[int]map[int]struct{}{},
		edgesTo:   map[int]map[int]struct{}{},
	}
	for _, group := range groups {
		last := -1
		for _, res := range group {
			if slices.ContainsFunc(g.nodes, func(existing T) bool {
				return existing.resourceKey() == res.resourceKey()
			}) {
				continue
			}
			g.nodes = append(g.nodes, res)
			if !res.implicitlyOrdered() {
				continue
			}
			this := len(g.nodes) - 1
			if last >= 0 {
				g.addEdge(this, last)
			}
			last = this
		}
	}
	for pos, res := range g.nodes {
		for compPos, other := range g.nodes {
			if pos == compPos {
				continue
			}
			switch res.relationTo(ctx, other) {
			case ResourceRelationshipAfter:
				g.addEdge(pos, compPos)
			case ResourceRelationshipBefore:
				g.addEdge(compPos, pos)
			case ResourceRelationshipNeutral:
				// no dependency
			}
		}
	}
	return g
}

// walk returns the nodes of the graph with every node after its
// dependencies. Among nodes that are ready at the same time, the one with the
// lowest key goes first, so the output is deterministic. walk consumes the
// graph's edges.
func (g *graph[T]) walk() ([]T, error) {
	ready := make([]int, 0, len(g.nodes))
	results := make([]T, 0, len(g.nodes))
	byKey := func(a, b int) int {
		return strings.Compare(g.nodes[a].resourceKey(), g.nodes[b].resourceKey())
	}
	for pos := range g.nodes {
		if len(g.edgesFrom[pos]) < 1 {
			ready = append(ready, pos)
		}
	}
	slices.SortFunc(ready, byKey)
	for len(ready) > 0 {
		pos := ready[0]
		ready = ready[1:]
		results = append(results, g.nodes[pos])
		var changed bool
		for child := range g.edgesTo[pos] {
			delete(g.edgesFrom[child], pos)
			if len(g.edgesFrom[child]) < 1 {
				delete(g.edgesFrom, child)
				ready = append(ready, child)
				changed = true
			}
		}
		delete(g.edgesTo, pos)
		if changed {
			slices.SortFunc(ready, byKey)
		}
	}
	if len(g.edgesFrom) > 0 {
		var stuck []string
		for pos := range g.edgesFrom {
			stuck = append(stuck, g.nodes[pos].resourceKey())
		}
		slices.Sort(stuck)
		return results, fmt.Errorf("%w: unresolved=[%s]", ErrResourceCycle, strings.Join(stuck, ", "))
	}
	return results, nil
}

func orderResources[T orderable[T]](ctx context.Context, groups [][]T) ([]T, error) {
	return buildGraph(ctx, groups).walk()
}
