package goap

import (
	"fmt"
	"log/slog"
	"strings"
)

// MatchMode selects how a precondition or goal is tested against a state.
type MatchMode int

const (
	// MatchSubset requires the state to agree with every fact the required
	// state knows, ignoring facts the required state does not mention. This
	// is classic STRIPS matching and the default.
	MatchSubset MatchMode = iota

	// MatchExact requires the cared values of both states to be bitwise
	// identical, so a state that knows an extra true fact never matches.
	MatchExact
)

// String returns the config name of the mode.
func (m MatchMode) String() string {
	switch m {
	case MatchSubset:
		return "subset"
	case MatchExact:
		return "exact"
	default:
		return "unknown"
	}
}

func (m MatchMode) match(required, state WorldState) bool {
	if m == MatchExact {
		return required.Equals(state)
	}
	return required.Satisfies(state)
}

// ParseMatchMode parses "subset" or "exact".
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "subset", "":
		return MatchSubset, nil
	case "exact":
		return MatchExact, nil
	default:
		return 0, fmt.Errorf("invalid match mode: %q", s)
	}
}

// SetMode selects how ActionPlanner.SetFact updates a state.
type SetMode int

const (
	// SetAssign always marks the fact as known. This is the default.
	SetAssign SetMode = iota

	// SetToggle flips the fact's don't-care bit, like WorldState.Set, so
	// setting a fact twice makes it unknown again.
	SetToggle
)

// String returns the config name of the mode.
func (m SetMode) String() string {
	switch m {
	case SetAssign:
		return "assign"
	case SetToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// ParseSetMode parses "assign" (alias "idempotent") or "toggle".
func ParseSetMode(s string) (SetMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assign", "idempotent", "":
		return SetAssign, nil
	case "toggle":
		return SetToggle, nil
	default:
		return 0, fmt.Errorf("invalid set mode: %q", s)
	}
}

// Heuristic estimates the remaining cost from state to goal.
type Heuristic func(state, goal WorldState) float64

// HammingHeuristic counts the facts known by goal that state gets wrong.
// It is the default.
func HammingHeuristic(state, goal WorldState) float64 {
	return float64(goal.Distance(state))
}

// ZeroHeuristic always returns zero, turning the search into a uniform-cost
// search. Use it when a single action may fix several facts at a cost lower
// than their number, where HammingHeuristic would overestimate.
func ZeroHeuristic(state, goal WorldState) float64 {
	return 0
}

// ParseHeuristic parses "hamming" or "zero".
func ParseHeuristic(s string) (Heuristic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hamming", "":
		return HammingHeuristic, nil
	case "zero", "none":
		return ZeroHeuristic, nil
	default:
		return nil, fmt.Errorf("invalid heuristic: %q", s)
	}
}

// Option configures an ActionPlanner.
type Option func(*ActionPlanner)

// WithHeuristic sets the search heuristic. Nil restores the default.
func WithHeuristic(h Heuristic) Option {
	return func(p *ActionPlanner) {
		if h == nil {
			h = HammingHeuristic
		}
		p.heuristic = h
	}
}

// WithMatch sets how preconditions and goals are matched.
func WithMatch(m MatchMode) Option {
	return func(p *ActionPlanner) { p.match = m }
}

// WithSetMode sets how SetFact updates states.
func WithSetMode(m SetMode) Option {
	return func(p *ActionPlanner) { p.setMode = m }
}

// WithMaxIterations caps the node expansions of PlanContext, 0 meaning
// unbounded.
func WithMaxIterations(n int) Option {
	return func(p *ActionPlanner) {
		if n < 0 {
			n = 0
		}
		p.maxIterations = n
	}
}

// WithLogger sets the logger used for plan diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *ActionPlanner) { p.logger = logger }
}
