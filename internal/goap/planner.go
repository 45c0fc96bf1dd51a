package goap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
)

// debugPlan controls verbose plan search output.
// Set GOAP_DEBUG_PLAN=1 to enable.
var debugPlan = os.Getenv("GOAP_DEBUG_PLAN") == "1"

// ActionPlanner owns a fact registry and a set of actions, and searches for
// the cheapest sequence of those actions leading from a start state to a
// goal state.
//
// Registration (facts, actions, conditions of added actions) takes the
// planner lock, so it is safe to call concurrently, but it must not overlap
// a search that depends on it: do not add actions mid-search. Once every
// action is compiled the planner is read only, and concurrent plan calls are
// safe.
type ActionPlanner struct {
	mu sync.RWMutex

	facts     []string
	factIndex map[string]int

	actions     []*Action
	actionIndex map[*Action]int
	compiled    []compiledAction

	heuristic     Heuristic
	match         MatchMode
	setMode       SetMode
	maxIterations int
	logger        *slog.Logger
}

type compiledAction struct {
	pre      WorldState
	post     WorldState
	revision uint64
	ok       bool
}

// New creates an empty planner.
func New(opts ...Option) *ActionPlanner {
	p := &ActionPlanner{
		factIndex:   make(map[string]int),
		actionIndex: make(map[*Action]int),
		heuristic:   HammingHeuristic,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ActionPlanner) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// RegisterFact returns the bit index of name, registering it if needed.
func (p *ActionPlanner) RegisterFact(name string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.registerFactLocked(name)
}

func (p *ActionPlanner) registerFactLocked(name string) (int, error) {
	if i, ok := p.factIndex[name]; ok {
		return i, nil
	}
	if name == "" {
		return -1, errors.New("goap: empty fact name")
	}
	if len(p.facts) >= MaxConditions {
		return -1, fmt.Errorf("%w: cannot register %q, all %d facts in use", ErrRegistryExhausted, name, MaxConditions)
	}
	i := len(p.facts)
	p.facts = append(p.facts, name)
	p.factIndex[name] = i
	return i, nil
}

// FactIndex returns the bit index of a registered fact.
func (p *ActionPlanner) FactIndex(name string) (int, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	i, ok := p.factIndex[name]
	return i, ok
}

// Facts returns the registered fact names in index order.
func (p *ActionPlanner) Facts() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.facts))
	copy(out, p.facts)
	return out
}

// AddAction registers an action and returns its index. Adding the same
// action instance again is a no-op that returns the existing index.
func (p *ActionPlanner) AddAction(a *Action) (int, error) {
	if a == nil {
		panic("goap.AddAction: action must not be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if i, ok := p.actionIndex[a]; ok {
		return i, nil
	}
	if a.Cost < 0 {
		return -1, fmt.Errorf("%w: action %q has cost %d", ErrNegativeCost, a.Name, a.Cost)
	}
	i := len(p.actions)
	p.actions = append(p.actions, a)
	p.actionIndex[a] = i
	p.compiled = append(p.compiled, compiledAction{})
	return i, nil
}

// Actions returns the registered actions in registration order.
func (p *ActionPlanner) Actions() []*Action {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Action, len(p.actions))
	copy(out, p.actions)
	return out
}

// Compile resolves the conditions of a registered action to bitmasks,
// registering any facts they name for the first time. Plan compiles every
// action automatically; calling Compile up front surfaces misconfiguration
// early.
func (p *ActionPlanner) Compile(a *Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.actionIndex[a]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, actionName(a))
	}
	return p.compileLocked(i)
}

func actionName(a *Action) string {
	if a == nil {
		return "<nil>"
	}
	return a.Name
}

func (p *ActionPlanner) compileLocked(i int) error {
	a := p.actions[i]
	pre, post, revision := a.snapshot()
	if c := p.compiled[i]; c.ok && c.revision == revision {
		return nil
	}
	if a.Cost < 0 {
		return fmt.Errorf("%w: action %q has cost %d", ErrNegativeCost, a.Name, a.Cost)
	}
	c := compiledAction{
		pre:      NewWorldState(),
		post:     NewWorldState(),
		revision: revision,
		ok:       true,
	}
	for _, cond := range pre {
		idx, err := p.registerFactLocked(cond.Fact)
		if err != nil {
			return fmt.Errorf("compile action %q precondition %q: %w", a.Name, cond.Fact, err)
		}
		c.pre.Assign(idx, cond.Value)
	}
	for _, cond := range post {
		idx, err := p.registerFactLocked(cond.Fact)
		if err != nil {
			return fmt.Errorf("compile action %q postcondition %q: %w", a.Name, cond.Fact, err)
		}
		c.post.Assign(idx, cond.Value)
	}
	p.compiled[i] = c
	return nil
}

// Compiled returns the precondition and postcondition masks of a registered
// action, compiling it if needed.
func (p *ActionPlanner) Compiled(a *Action) (pre, post WorldState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.actionIndex[a]
	if !ok {
		return WorldState{}, WorldState{}, fmt.Errorf("%w: %q", ErrUnknownAction, actionName(a))
	}
	if err := p.compileLocked(i); err != nil {
		return WorldState{}, WorldState{}, err
	}
	return p.compiled[i].pre, p.compiled[i].post, nil
}

// WorldState returns a state that knows nothing about any fact.
func (p *ActionPlanner) WorldState() WorldState {
	return NewWorldState()
}

// SetFact sets fact name in s, registering the name if needed. Whether a
// fact that is already known is overwritten or toggled back to unknown
// depends on the planner's SetMode.
func (p *ActionPlanner) SetFact(s *WorldState, name string, value bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, err := p.registerFactLocked(name)
	if err != nil {
		return err
	}
	if p.setMode == SetToggle {
		s.Set(i, value)
	} else {
		s.Assign(i, value)
	}
	return nil
}

// State builds a state knowing exactly the given facts. New names are
// registered in lexical order.
func (p *ActionPlanner) State(facts map[string]bool) (WorldState, error) {
	names := make([]string, 0, len(facts))
	for name := range facts {
		names = append(names, name)
	}
	sort.Strings(names)

	p.mu.Lock()
	defer p.mu.Unlock()
	s := NewWorldState()
	for _, name := range names {
		i, err := p.registerFactLocked(name)
		if err != nil {
			return WorldState{}, err
		}
		s.Assign(i, facts[name])
	}
	return s, nil
}

// Lookup returns the value of a registered fact in s, and whether it is known.
func (p *ActionPlanner) Lookup(s WorldState, name string) (value, known bool, err error) {
	i, ok := p.FactIndex(name)
	if !ok {
		return false, false, fmt.Errorf("%w: %q", ErrUnknownFact, name)
	}
	value, known = s.Get(i)
	return value, known, nil
}

// Describe renders s using the registered fact names.
func (p *ActionPlanner) Describe(s WorldState) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return s.Describe(p.facts)
}

// Matches reports whether state satisfies goal under the planner's match
// mode.
func (p *ActionPlanner) Matches(goal, state WorldState) bool {
	return p.match.match(goal, state)
}
