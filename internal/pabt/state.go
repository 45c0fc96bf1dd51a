package pabt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/runner"
	"github.com/joeycumines/goap/internal/world"
)

var _ pabtpkg.IState = (*State)(nil)

// debugPABT controls verbose PA-BT debugging output.
// Set GOAP_DEBUG_PABT=1 to enable.
var debugPABT = os.Getenv("GOAP_DEBUG_PABT") == "1"

// State implements pabtpkg.IState over a planner's actions and a blackboard.
type State struct {
	planner  *goap.ActionPlanner
	bb       *world.Blackboard
	ctx      context.Context
	executor runner.Executor
	logger   *slog.Logger
}

// Option configures a State.
type Option func(*State)

// WithExecutor sets the executor run by action nodes. Nil restores
// runner.ApplyPostconditions.
func WithExecutor(exec runner.Executor) Option {
	return func(s *State) {
		if exec == nil {
			exec = runner.ApplyPostconditions
		}
		s.executor = exec
	}
}

// WithContext sets the context passed to the executor.
func WithContext(ctx context.Context) Option {
	return func(s *State) {
		if ctx == nil {
			ctx = context.Background()
		}
		s.ctx = ctx
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *State) { s.logger = logger }
}

// NewState creates a State. Panics if planner or bb is nil.
func NewState(planner *goap.ActionPlanner, bb *world.Blackboard, opts ...Option) *State {
	if planner == nil {
		panic("pabt.NewState: planner must not be nil")
	}
	if bb == nil {
		panic("pabt.NewState: blackboard must not be nil")
	}
	s := &State{
		planner:  planner,
		bb:       bb,
		ctx:      context.Background(),
		executor: runner.ApplyPostconditions,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *State) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Variable implements pabtpkg.IState.Variable. Keys are fact names; a
// missing entry is (nil, nil).
func (s *State) Variable(key any) (any, error) {
	name, ok := key.(string)
	if !ok {
		return nil, fmt.Errorf("unsupported key type: %T", key)
	}
	value := s.bb.Get(name)
	if debugPABT {
		s.log().Debug("[PA-BT] variable", "key", name, "value", value)
	}
	return value, nil
}

// Actions implements pabtpkg.IState.Actions. It returns, in registration
// order, every planner action that is currently valid and has an effect
// satisfying failed. A nil failed condition returns every valid action.
func (s *State) Actions(failed pabtpkg.Condition) ([]pabtpkg.IAction, error) {
	var out []pabtpkg.IAction
	for _, a := range s.planner.Actions() {
		if !a.Validate() {
			continue
		}
		if failed != nil {
			name, ok := failed.Key().(string)
			if !ok {
				return nil, fmt.Errorf("unsupported key type: %T", failed.Key())
			}
			value, ok := a.Postcondition(name)
			if !ok || !failed.Match(value) {
				continue
			}
		}
		out = append(out, NewAction(a, runner.ActionNode(s.ctx, s.executor, s.bb, a)))
	}
	if debugPABT {
		names := make([]string, len(out))
		for i, a := range out {
			names[i] = a.(*Action).Name()
		}
		var key any
		if failed != nil {
			key = failed.Key()
		}
		s.log().Debug("[PA-BT] actions", "failedKey", key, "actions", names)
	}
	return out, nil
}

// Goal converts every fact known by goal into a single AND group of
// conditions. Facts must be registered with the planner.
func (s *State) Goal(goal goap.WorldState) ([]pabtpkg.IConditions, error) {
	facts := s.planner.Facts()
	var group pabtpkg.IConditions
	for i := 0; i < goap.MaxConditions; i++ {
		value, known := goal.Get(i)
		if !known {
			continue
		}
		if i >= len(facts) {
			return nil, fmt.Errorf("%w: goal uses unregistered fact index %d", goap.ErrUnknownFact, i)
		}
		group = append(group, FactCondition{goap.Condition{Fact: facts[i], Value: value}})
	}
	if len(group) == 0 {
		return nil, errors.New("pabt: goal knows no facts")
	}
	return []pabtpkg.IConditions{group}, nil
}

// Node builds the reactive PA-BT tree pursuing goal.
func (s *State) Node(goal goap.WorldState) (bt.Node, error) {
	conditions, err := s.Goal(goal)
	if err != nil {
		return nil, err
	}
	plan, err := pabtpkg.INew(s, conditions)
	if err != nil {
		return nil, err
	}
	return plan.Node(), nil
}
