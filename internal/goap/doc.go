// Package goap provides a goal-oriented action planner.
//
// World facts are named booleans, registered with an ActionPlanner that
// assigns each one a bit in a 64-bit mask. A WorldState holds two masks:
// the fact values, and the facts it does not care about. Actions declare
// symbolic preconditions and postconditions against fact names; the planner
// compiles them to masks and searches, with A*, for the cheapest sequence of
// actions whose postconditions turn a start state into one satisfying the
// goal.
//
// Usage:
//
//	p := goap.New()
//	chop := goap.NewAction("ChopTree").
//	    SetPrecondition("hasAxe", true).
//	    SetPostcondition("treeChopped", true)
//	if _, err := p.AddAction(chop); err != nil {
//	    return err
//	}
//	start, _ := p.State(map[string]bool{"hasAxe": true, "treeChopped": false})
//	goal, _ := p.State(map[string]bool{"treeChopped": true})
//	plan, err := p.Plan(start, goal) // [ChopTree]
//
// Whether an action is available is decided by its Validator, called once
// per action per plan. A missing plan is not an error: Plan returns an empty
// slice, and PlanContext reports Result.Found == false.
package goap
