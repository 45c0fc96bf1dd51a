// Package pabt exposes an ActionPlanner's actions to the PA-BT reactive
// planner (github.com/joeycumines/go-pabt).
//
// Where goap.ActionPlanner searches for a whole plan up front, PA-BT grows a
// behavior tree at run time, expanding only the conditions that fail when
// ticked. Both share the same actions, facts and blackboard:
//
//	state := pabt.NewState(planner, bb)
//	node, err := state.Node(goal)
//	// tick node, or drive it with bt.NewTicker
//
// Facts are blackboard entries holding bools. A fact with no entry, or a
// non-bool one, reads as false.
package pabt
