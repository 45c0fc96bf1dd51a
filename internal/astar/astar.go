// Package astar implements a domain-agnostic A* best-first search.
//
// Nodes are plain values. The search owns an arena of entries holding the
// accumulated cost, heuristic estimate and parent index of every node it has
// seen, so node types never need to carry back-references themselves.
// Membership of the open and closed sets is decided by Node.Key, which MUST
// be derived from the same fields the node type considers for equality.
package astar

import (
	"context"
	"errors"
	"fmt"
)

// ErrAborted is returned by Search when the search was stopped before the
// open set was exhausted, either by context cancellation or by reaching the
// configured iteration limit. It is distinct from "no path", which is
// reported as a nil error and found == false.
var ErrAborted = errors.New("astar: search aborted")

// Node is the capability contract for searchable nodes.
//
// K identifies a node for open/closed set membership: two nodes with equal
// keys are the same node as far as the search is concerned. N is the node
// type itself.
type Node[K comparable, N any] interface {
	// Key returns the identity of the node.
	Key() K

	// DistanceTo returns the finite, non-negative edge cost of moving from
	// this node to the given neighbor.
	DistanceTo(neighbor N) float64
}

// Step is a single element of a found path.
type Step[N any] struct {
	Node N
	// G is the accumulated cost from the start node.
	G float64
	// H is the heuristic estimate recorded when the node was first opened.
	H float64
}

// F returns the total score, G + H.
func (s Step[N]) F() float64 {
	return s.G + s.H
}

// Problem describes a single search.
type Problem[N any] struct {
	// Start is the node the search begins from.
	Start N

	// IsGoal reports whether a node satisfies the goal. It is evaluated when
	// a node is selected for expansion, independently of its cost.
	IsGoal func(node N) bool

	// Heuristic estimates the remaining cost from node to a goal. It is only
	// used to order the open set. Nil means zero (uniform-cost search).
	Heuristic func(node N) float64

	// Neighbors returns every legal successor of node. It is called exactly
	// once per expanded node.
	Neighbors func(node N) []N
}

// Options bound a search.
type Options struct {
	// MaxIterations caps the number of node expansions, 0 meaning unbounded.
	MaxIterations int
}

// Stats reports what a search did.
type Stats struct {
	// Expanded is the number of nodes moved to the closed set.
	Expanded int
	// Generated is the number of successor nodes produced by Neighbors.
	Generated int
}

type entry[N any] struct {
	node   N
	g      float64
	h      float64
	parent int
	closed bool
}

// FindPath runs an unbounded search, returning the optimal path from
// problem.Start to a goal node, start node first. The boolean is false if
// no goal node is reachable.
func FindPath[K comparable, N Node[K, N]](problem Problem[N]) ([]Step[N], bool) {
	path, found, _, err := Search[K, N](context.Background(), problem, Options{})
	if err != nil {
		// unreachable: only cancellation or limits abort, and neither is set
		panic(fmt.Sprintf("astar.FindPath: unexpected error: %v", err))
	}
	return path, found
}

// Search runs a bounded, cancellable search. A nil error with found == false
// means the open set was exhausted without reaching a goal. ErrAborted
// (wrapping the context error, if any) means the search was stopped early.
func Search[K comparable, N Node[K, N]](ctx context.Context, problem Problem[N], opts Options) (path []Step[N], found bool, stats Stats, err error) {
	if problem.IsGoal == nil {
		panic("astar.Search: IsGoal must not be nil")
	}
	if problem.Neighbors == nil {
		panic("astar.Search: Neighbors must not be nil")
	}
	heuristic := problem.Heuristic
	if heuristic == nil {
		heuristic = func(N) float64 { return 0 }
	}

	var (
		arena = []entry[N]{{
			node:   problem.Start,
			h:      heuristic(problem.Start),
			parent: -1,
		}}
		// index maps every node key ever seen to its arena slot
		index = map[K]int{problem.Start.Key(): 0}
		// open holds arena slots in insertion order, which makes the
		// lowest-f selection stable for equal scores
		open = []int{0}
	)

	for len(open) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, false, stats, fmt.Errorf("%w: %w", ErrAborted, err)
		}
		best := 0
		for i := 1; i < len(open); i++ {
			if f(arena[open[i]]) < f(arena[open[best]]) {
				best = i
			}
		}
		current := open[best]

		if problem.IsGoal(arena[current].node) {
			return reconstruct(arena, current), true, stats, nil
		}

		if opts.MaxIterations > 0 && stats.Expanded >= opts.MaxIterations {
			return nil, false, stats, fmt.Errorf("%w: iteration limit %d reached", ErrAborted, opts.MaxIterations)
		}

		open = append(open[:best], open[best+1:]...)
		arena[current].closed = true
		stats.Expanded++

		neighbors := problem.Neighbors(arena[current].node)
		stats.Generated += len(neighbors)

		for _, neighbor := range neighbors {
			key := neighbor.Key()
			tentative := arena[current].g + arena[current].node.DistanceTo(neighbor)

			slot, seen := index[key]
			switch {
			case !seen:
				slot = len(arena)
				arena = append(arena, entry[N]{h: heuristic(neighbor)})
				index[key] = slot
				open = append(open, slot)
			case arena[slot].closed:
				continue
			case tentative >= arena[slot].g:
				continue
			}

			// the node value is replaced as well as the link, so data the
			// neighbor carries about how it was reached stays consistent
			arena[slot].node = neighbor
			arena[slot].g = tentative
			arena[slot].parent = current
		}
	}

	return nil, false, stats, nil
}

func f[N any](e entry[N]) float64 {
	return e.g + e.h
}

func reconstruct[N any](arena []entry[N], goal int) []Step[N] {
	var path []Step[N]
	for i := goal; i >= 0; i = arena[i].parent {
		path = append(path, Step[N]{Node: arena[i].node, G: arena[i].g, H: arena[i].h})
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
