package goap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joeycumines/goap/internal/astar"
)

// Result is the outcome of a plan search.
type Result struct {
	// Actions is the plan, in execution order. It is empty both when no plan
	// exists and when the start state already satisfies the goal.
	Actions []*Action
	// Found is false when no sequence of valid actions reaches the goal.
	Found bool
	// Cost is the total cost of Actions.
	Cost float64
	// Expanded is the number of states the search expanded.
	Expanded int
	// Generated is the number of transitions the search produced.
	Generated int
}

// String renders the plan as "A -> B -> C (cost N)".
func (r Result) String() string {
	if !r.Found {
		return "no plan"
	}
	names := make([]string, len(r.Actions))
	for i, a := range r.Actions {
		names[i] = a.Name
	}
	if len(names) == 0 {
		return fmt.Sprintf("<nothing to do> (cost %g)", r.Cost)
	}
	return fmt.Sprintf("%s (cost %g)", strings.Join(names, " -> "), r.Cost)
}

// node is the search node of a plan: a world state, the action that
// produced it (-1 for the start node) and that action's cost, which the
// search uses as the edge weight.
type node struct {
	state  WorldState
	action int
	cost   float64
}

var _ astar.Node[uint64, node] = node{}

// Key identifies a node by its cared values, the same projection
// WorldState.Equals compares.
func (n node) Key() uint64 {
	return n.state.CaredValues()
}

// DistanceTo returns the cost of the action that produced next.
func (n node) DistanceTo(next node) float64 {
	return next.cost
}

type transition struct {
	action *Action
	pre    WorldState
	post   WorldState
	cost   float64
}

// Plan returns the cheapest sequence of actions transforming start into a
// state that satisfies goal. An empty slice with a nil error means there is
// nothing to do, or no plan exists; use PlanContext to tell these apart.
// Errors are reserved for misconfiguration, such as a fact registry that
// overflows while compiling actions.
func (p *ActionPlanner) Plan(start, goal WorldState) ([]*Action, error) {
	res, err := p.PlanContext(context.Background(), start, goal)
	if err != nil {
		return nil, err
	}
	if res.Actions == nil {
		return []*Action{}, nil
	}
	return res.Actions, nil
}

// PlanContext is Plan with cancellation and the planner's iteration limit
// applied. A search stopped early returns an error wrapping
// ErrSearchAborted, which is distinct from a search that proved no plan
// exists (Result.Found == false, nil error).
func (p *ActionPlanner) PlanContext(ctx context.Context, start, goal WorldState) (Result, error) {
	transitions, err := p.transitions()
	if err != nil {
		return Result{}, err
	}

	log := p.log()
	if debugPlan {
		p.mu.RLock()
		log.Debug("[GOAP] plan search started",
			"start", start.Describe(p.facts),
			"goal", goal.Describe(p.facts),
			"actions", len(transitions))
		p.mu.RUnlock()
	}

	match := p.match
	heuristic := p.heuristic
	path, found, stats, err := astar.Search[uint64, node](ctx, astar.Problem[node]{
		Start: node{state: start, action: -1},
		IsGoal: func(n node) bool {
			return match.match(goal, n.state)
		},
		Heuristic: func(n node) float64 {
			return heuristic(n.state, goal)
		},
		Neighbors: func(n node) []node {
			var out []node
			for i, t := range transitions {
				if !match.match(t.pre, n.state) {
					continue
				}
				out = append(out, node{
					state:  t.post.Apply(n.state),
					action: i,
					cost:   t.cost,
				})
			}
			return out
		},
	}, astar.Options{MaxIterations: p.maxIterations})

	res := Result{Found: found, Expanded: stats.Expanded, Generated: stats.Generated}
	if err != nil {
		if errors.Is(err, astar.ErrAborted) {
			err = fmt.Errorf("%w: %w", ErrSearchAborted, err)
		}
		log.Warn("[GOAP] plan search aborted", "expanded", stats.Expanded, "error", err)
		return res, err
	}
	if found {
		for _, step := range path {
			if step.Node.action >= 0 {
				res.Actions = append(res.Actions, transitions[step.Node.action].action)
			}
		}
		res.Cost = path[len(path)-1].G
	}

	if debugPlan {
		log.Debug("[GOAP] plan search finished",
			"found", res.Found,
			"plan", res.String(),
			"expanded", res.Expanded,
			"generated", res.Generated)
	}
	return res, nil
}

// transitions compiles every action, then evaluates each validator exactly
// once, outside the planner lock, keeping registration order.
func (p *ActionPlanner) transitions() ([]transition, error) {
	p.mu.Lock()
	for i := range p.actions {
		if err := p.compileLocked(i); err != nil {
			p.mu.Unlock()
			return nil, err
		}
	}
	candidates := make([]transition, len(p.actions))
	for i, a := range p.actions {
		candidates[i] = transition{
			action: a,
			pre:    p.compiled[i].pre,
			post:   p.compiled[i].post,
			cost:   float64(a.Cost),
		}
	}
	p.mu.Unlock()

	out := candidates[:0]
	for _, t := range candidates {
		if !t.action.Validate() {
			if debugPlan {
				p.log().Debug("[GOAP] action rejected by validator", "action", t.action.Name)
			}
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
