package astar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vertex is a node of a small weighted digraph. The label is deliberately
// not part of the key, to exercise key-based deduplication.
type vertex struct {
	id    string
	label string
	g     *graph
}

type graph struct {
	edges map[string]map[string]float64
	// order preserves edge insertion order, so neighbor generation is
	// deterministic
	order map[string][]string
	calls map[string]int
}

func newGraph() *graph {
	return &graph{
		edges: make(map[string]map[string]float64),
		order: make(map[string][]string),
		calls: make(map[string]int),
	}
}

func (g *graph) edge(from, to string, cost float64) *graph {
	if g.edges[from] == nil {
		g.edges[from] = make(map[string]float64)
	}
	if _, ok := g.edges[from][to]; !ok {
		g.order[from] = append(g.order[from], to)
	}
	g.edges[from][to] = cost
	return g
}

func (g *graph) vertex(id string) vertex {
	return vertex{id: id, g: g}
}

func (g *graph) neighbors(v vertex) []vertex {
	g.calls[v.id]++
	var out []vertex
	for _, to := range g.order[v.id] {
		// a fresh value every time, never the same instance
		out = append(out, vertex{id: to, label: v.id + "->" + to, g: g})
	}
	return out
}

func (v vertex) Key() string { return v.id }

func (v vertex) DistanceTo(n vertex) float64 { return v.g.edges[v.id][n.id] }

func ids(path []Step[vertex]) []string {
	out := make([]string, 0, len(path))
	for _, s := range path {
		out = append(out, s.Node.id)
	}
	return out
}

func problem(g *graph, start, goal string) Problem[vertex] {
	return Problem[vertex]{
		Start:     g.vertex(start),
		IsGoal:    func(v vertex) bool { return v.id == goal },
		Neighbors: g.neighbors,
	}
}

func TestFindPath_Optimal(t *testing.T) {
	t.Parallel()

	// two routes to E, plus a cycle A -> B -> A
	g := newGraph().
		edge("A", "B", 1).
		edge("B", "A", 1).
		edge("A", "C", 4).
		edge("B", "D", 5).
		edge("C", "E", 1).
		edge("D", "E", 1).
		edge("B", "C", 1)

	path, found := FindPath[string, vertex](problem(g, "A", "E"))
	require.True(t, found)
	assert.Equal(t, []string{"A", "B", "C", "E"}, ids(path))
	assert.Equal(t, 3.0, path[len(path)-1].G)
	assert.Equal(t, 0.0, path[0].G)
}

func TestFindPath_Unreachable(t *testing.T) {
	t.Parallel()

	g := newGraph().
		edge("A", "B", 1).
		edge("B", "A", 1).
		edge("Z", "E", 1)

	path, found := FindPath[string, vertex](problem(g, "A", "E"))
	assert.False(t, found)
	assert.Nil(t, path)
}

func TestFindPath_StartIsGoal(t *testing.T) {
	t.Parallel()

	g := newGraph().edge("A", "B", 1)
	path, found := FindPath[string, vertex](problem(g, "A", "A"))
	require.True(t, found)
	assert.Equal(t, []string{"A"}, ids(path))
	assert.Zero(t, g.calls["A"], "goal test must happen before expansion")
}

func TestFindPath_DeduplicatesByKey(t *testing.T) {
	t.Parallel()

	// D is reachable through both B and C; every call to neighbors yields a
	// distinct value for D, which must still be expanded only once
	g := newGraph().
		edge("A", "B", 1).
		edge("A", "C", 1).
		edge("B", "D", 1).
		edge("C", "D", 1).
		edge("D", "A", 1)

	_, found := FindPath[string, vertex](problem(g, "A", "missing"))
	assert.False(t, found)
	for _, id := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, 1, g.calls[id], "vertex %s expanded more than once", id)
	}
}

func TestFindPath_RelinksCheaperParent(t *testing.T) {
	t.Parallel()

	// C is first opened through the expensive A -> C edge, then improved
	// via B before it is expanded
	g := newGraph().
		edge("A", "C", 10).
		edge("A", "B", 1).
		edge("B", "C", 1).
		edge("C", "E", 1)

	path, found := FindPath[string, vertex](problem(g, "A", "E"))
	require.True(t, found)
	assert.Equal(t, []string{"A", "B", "C", "E"}, ids(path))
	assert.Equal(t, "B->C", path[2].Node.label, "stored node must be the one reached by the cheaper edge")
}

func TestFindPath_TieBreakIsInsertionOrder(t *testing.T) {
	t.Parallel()

	g := newGraph().
		edge("S", "X", 1).
		edge("S", "Y", 1).
		edge("X", "G", 1).
		edge("Y", "G", 1)

	for i := 0; i < 10; i++ {
		path, found := FindPath[string, vertex](problem(g, "S", "G"))
		require.True(t, found)
		assert.Equal(t, []string{"S", "X", "G"}, ids(path))
	}
}

func TestFindPath_HeuristicOrdersExpansion(t *testing.T) {
	t.Parallel()

	g := newGraph().
		edge("S", "L", 1).
		edge("S", "R", 1).
		edge("L", "G", 5).
		edge("R", "G", 1)

	p := problem(g, "S", "G")
	p.Heuristic = func(v vertex) float64 {
		if v.id == "L" {
			return 5
		}
		return 0
	}
	path, found := FindPath[string, vertex](p)
	require.True(t, found)
	assert.Equal(t, []string{"S", "R", "G"}, ids(path))
	assert.Zero(t, g.calls["L"])
	assert.Equal(t, 1.0, path[1].F())
}

func TestSearch_IterationLimit(t *testing.T) {
	t.Parallel()

	g := newGraph().
		edge("A", "B", 1).
		edge("B", "C", 1).
		edge("C", "D", 1)

	_, found, stats, err := Search[string, vertex](context.Background(), problem(g, "A", "D"), Options{MaxIterations: 2})
	require.ErrorIs(t, err, ErrAborted)
	assert.False(t, found)
	assert.Equal(t, 2, stats.Expanded)

	path, found, _, err := Search[string, vertex](context.Background(), problem(g, "A", "D"), Options{MaxIterations: 3})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(path))
}

func TestSearch_Cancelled(t *testing.T) {
	t.Parallel()

	g := newGraph().edge("A", "B", 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, found, _, err := Search[string, vertex](ctx, problem(g, "A", "B"), Options{})
	assert.False(t, found)
	assert.True(t, errors.Is(err, ErrAborted))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSearch_ExhaustedIsNotAnError(t *testing.T) {
	t.Parallel()

	g := newGraph().edge("A", "B", 1)
	_, found, stats, err := Search[string, vertex](context.Background(), problem(g, "A", "C"), Options{MaxIterations: 100})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 2, stats.Expanded)
	assert.Equal(t, 1, stats.Generated)
}
