package pabt

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/goap/internal/goap"
)

// FactCondition requires a fact to hold a value. It implements
// pabtpkg.Condition; the key is the fact name.
type FactCondition struct {
	goap.Condition
}

var _ pabtpkg.Condition = FactCondition{}

// Key implements pabtpkg.Variable.Key.
func (c FactCondition) Key() any {
	return c.Fact
}

// Match implements pabtpkg.Condition.Match. Anything but a bool reads as
// false.
func (c FactCondition) Match(value any) bool {
	v, _ := value.(bool)
	return v == c.Value
}

// FactEffect sets a fact to a value. It implements pabtpkg.Effect.
type FactEffect struct {
	goap.Condition
}

var _ pabtpkg.Effect = FactEffect{}

// Key implements pabtpkg.Variable.Key.
func (e FactEffect) Key() any {
	return e.Fact
}

// Value implements pabtpkg.Effect.Value.
func (e FactEffect) Value() any {
	return e.Condition.Value
}

// Action adapts a goap.Action to pabtpkg.IAction. Its preconditions form a
// single AND group and its postconditions become effects.
type Action struct {
	action     *goap.Action
	conditions []pabtpkg.IConditions
	effects    pabtpkg.Effects
	node       bt.Node
}

var _ pabtpkg.IAction = (*Action)(nil)

// NewAction adapts action, running node when PA-BT selects it.
//
// Panics if action or node is nil.
func NewAction(action *goap.Action, node bt.Node) *Action {
	if action == nil {
		panic("pabt.NewAction: action must not be nil")
	}
	if node == nil {
		panic(fmt.Sprintf("pabt.NewAction: node cannot be nil (action=%s)", action.Name))
	}
	conditions := []pabtpkg.IConditions{}
	if pre := action.Preconditions(); len(pre) > 0 {
		group := make(pabtpkg.IConditions, len(pre))
		for i, c := range pre {
			group[i] = FactCondition{c}
		}
		conditions = append(conditions, group)
	}
	post := action.Postconditions()
	effects := make(pabtpkg.Effects, len(post))
	for i, c := range post {
		effects[i] = FactEffect{c}
	}
	return &Action{
		action:     action,
		conditions: conditions,
		effects:    effects,
		node:       node,
	}
}

// Name returns the name of the wrapped action.
func (a *Action) Name() string {
	return a.action.Name
}

// Unwrap returns the wrapped action.
func (a *Action) Unwrap() *goap.Action {
	return a.action
}

// Conditions implements pabtpkg.IAction.Conditions.
func (a *Action) Conditions() []pabtpkg.IConditions {
	return a.conditions
}

// Effects implements pabtpkg.IAction.Effects.
func (a *Action) Effects() pabtpkg.Effects {
	return a.effects
}

// Node implements pabtpkg.IAction.Node.
func (a *Action) Node() bt.Node {
	return a.node
}
