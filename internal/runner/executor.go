package runner

import (
	"context"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/world"
)

// Executor performs an action against the world. It is called on every tick
// of the action's leaf until it returns something other than bt.Running; a
// non-nil error stops the run.
type Executor interface {
	Execute(ctx context.Context, action *goap.Action, bb *world.Blackboard) (bt.Status, error)
}

// ExecutorFunc adapts a plain function to Executor.
type ExecutorFunc func(ctx context.Context, action *goap.Action, bb *world.Blackboard) (bt.Status, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, action *goap.Action, bb *world.Blackboard) (bt.Status, error) {
	return f(ctx, action, bb)
}

// ApplyPostconditions is the default executor: it writes the action's
// postconditions to the blackboard and succeeds immediately. It turns a
// plan into a simulation of its own effects.
var ApplyPostconditions Executor = ExecutorFunc(func(ctx context.Context, action *goap.Action, bb *world.Blackboard) (bt.Status, error) {
	if err := ctx.Err(); err != nil {
		return bt.Failure, err
	}
	bb.ApplyConditions(action.Postconditions())
	return bt.Success, nil
})

// ActionNode wraps a single action as a behavior tree leaf that delegates
// every tick to exec.
func ActionNode(ctx context.Context, exec Executor, bb *world.Blackboard, action *goap.Action) bt.Node {
	if exec == nil {
		exec = ApplyPostconditions
	}
	return bt.New(func([]bt.Node) (bt.Status, error) {
		return exec.Execute(ctx, action, bb)
	})
}

// Sequence composes leaves into a memorized sequence: a running leaf is
// resumed on the next tick without re-ticking the leaves before it. An
// empty sequence succeeds.
func Sequence(leaves ...bt.Node) bt.Node {
	return bt.New(bt.Memorize(bt.Sequence), leaves...)
}
