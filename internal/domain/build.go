package domain

import (
	"fmt"

	"github.com/joeycumines/goap/internal/condition"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/world"
)

// Domain is a loaded domain, ready to plan or run.
type Domain struct {
	Planner    *goap.ActionPlanner
	Blackboard *world.Blackboard
	Actions    []*goap.Action
	Start      goap.WorldState
	Goal       goap.WorldState
}

// Build creates a planner configured with opts and registers the domain's
// facts and actions. The blackboard is seeded with the world entries, then
// with the start facts as bools, so validators and executors see the start
// state.
func (f *File) Build(opts ...goap.Option) (*Domain, error) {
	d := &Domain{
		Planner:    goap.New(opts...),
		Blackboard: new(world.Blackboard),
	}
	d.Blackboard.Merge(f.World)

	for _, name := range f.Facts {
		if _, err := d.Planner.RegisterFact(name); err != nil {
			return nil, fmt.Errorf("facts: %w", err)
		}
	}

	for _, spec := range f.Actions {
		a := goap.NewAction(spec.Name)
		if spec.Cost != nil {
			a.WithCost(*spec.Cost)
		}
		for _, c := range spec.Pre {
			a.SetPrecondition(c.Fact, c.Value)
		}
		for _, c := range spec.Post {
			a.SetPostcondition(c.Fact, c.Value)
		}
		if spec.Valid != "" {
			v := condition.NewExpr(spec.Valid, d.Blackboard)
			if err := v.Compile(); err != nil {
				return nil, fmt.Errorf("action %q: invalid validator: %w", spec.Name, err)
			}
			a.WithValidator(v)
		}
		if _, err := d.Planner.AddAction(a); err != nil {
			return nil, err
		}
		if err := d.Planner.Compile(a); err != nil {
			return nil, err
		}
		d.Actions = append(d.Actions, a)
	}

	var err error
	if d.Start, err = d.state(f.Start); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	if d.Goal, err = d.state(f.Goal); err != nil {
		return nil, fmt.Errorf("goal: %w", err)
	}
	d.Blackboard.ApplyConditions(f.Start)
	return d, nil
}

// state registers conds in order and returns the state knowing exactly them.
func (d *Domain) state(conds Conditions) (goap.WorldState, error) {
	s := d.Planner.WorldState()
	for _, c := range conds {
		i, err := d.Planner.RegisterFact(c.Fact)
		if err != nil {
			return goap.WorldState{}, err
		}
		s.Assign(i, c.Value)
	}
	return s, nil
}

// Action returns the named action.
func (d *Domain) Action(name string) (*goap.Action, bool) {
	for _, a := range d.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
