package goap

import (
	"fmt"
	"strings"
	"sync"
)

// Validator decides whether an action may be considered by a plan search.
// It is called once per action per plan, never per expanded node, so it may
// inspect arbitrary host state.
type Validator interface {
	Validate() bool
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc func() bool

// Validate implements Validator.
func (f ValidatorFunc) Validate() bool {
	return f()
}

// Condition is a single (fact, value) pair of an action's preconditions or
// postconditions.
type Condition struct {
	Fact  string
	Value bool
}

func (c Condition) String() string {
	if c.Value {
		return c.Fact
	}
	return "!" + c.Fact
}

// conditions is an insertion ordered set keyed by fact name. Order matters
// only because compiling an action may register new facts, and fact indices
// must not depend on map iteration order.
type conditions struct {
	items []Condition
	index map[string]int
}

func (c *conditions) set(fact string, value bool) {
	if i, ok := c.index[fact]; ok {
		c.items[i].Value = value
		return
	}
	if c.index == nil {
		c.index = make(map[string]int)
	}
	c.index[fact] = len(c.items)
	c.items = append(c.items, Condition{Fact: fact, Value: value})
}

func (c *conditions) get(fact string) (value, ok bool) {
	i, ok := c.index[fact]
	if !ok {
		return false, false
	}
	return c.items[i].Value, true
}

func (c *conditions) list() []Condition {
	out := make([]Condition, len(c.items))
	copy(out, c.items)
	return out
}

// Action is a named, costed operation with symbolic preconditions and
// postconditions.
//
// Conditions may be changed after the action was added to a planner; the
// planner recompiles it before the next search. Do not change an action
// while a search that uses it is running.
type Action struct {
	// Name identifies the action in plans and diagnostics.
	Name string

	// Cost is the edge weight contributed when the action is taken.
	// NewAction defaults it to 1. It must not be negative.
	Cost int

	// Validator gates the action for a single plan call. Nil means always
	// valid.
	Validator Validator

	mu       sync.RWMutex
	pre      conditions
	post     conditions
	revision uint64
}

// NewAction creates an action with the given name and a cost of 1.
func NewAction(name string) *Action {
	return &Action{Name: name, Cost: 1}
}

// WithCost sets the cost and returns the action.
func (a *Action) WithCost(cost int) *Action {
	a.Cost = cost
	return a
}

// WithValidator sets the validator and returns the action.
func (a *Action) WithValidator(v Validator) *Action {
	a.Validator = v
	return a
}

// SetPrecondition requires fact to hold value before the action applies.
// The last write for a fact wins.
func (a *Action) SetPrecondition(fact string, value bool) *Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pre.set(fact, value)
	a.revision++
	return a
}

// SetPostcondition declares that fact holds value after the action.
// The last write for a fact wins.
func (a *Action) SetPostcondition(fact string, value bool) *Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.post.set(fact, value)
	a.revision++
	return a
}

// Preconditions returns the preconditions in the order they were first set.
func (a *Action) Preconditions() []Condition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pre.list()
}

// Postconditions returns the postconditions in the order they were first set.
func (a *Action) Postconditions() []Condition {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.post.list()
}

// Postcondition returns the declared value of fact, if any.
func (a *Action) Postcondition(fact string) (value, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.post.get(fact)
}

// Validate reports whether the action may be used by the current plan.
func (a *Action) Validate() bool {
	if a.Validator == nil {
		return true
	}
	return a.Validator.Validate()
}

func (a *Action) snapshot() (pre, post []Condition, revision uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pre.list(), a.post.list(), a.revision
}

// String renders the action as "name(cost) pre -> post".
func (a *Action) String() string {
	pre, post, _ := a.snapshot()
	return fmt.Sprintf("%s(%d) %s -> %s", a.Name, a.Cost, joinConditions(pre), joinConditions(post))
}

func joinConditions(conds []Condition) string {
	if len(conds) == 0 {
		return "{}"
	}
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
