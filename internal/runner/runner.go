// Package runner executes plans as behavior trees, replanning against the
// blackboard whenever a plan stops making progress.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/world"
)

const (
	// DefaultTickInterval is the tree tick period used when none is set.
	DefaultTickInterval = 10 * time.Millisecond

	// DefaultMaxReplans bounds how often a run may plan again after the
	// first plan.
	DefaultMaxReplans = 3
)

var (
	// ErrNoPlan is returned when the goal is unmet and no plan reaches it.
	ErrNoPlan = errors.New("runner: no plan reaches the goal")

	// ErrReplanLimit is returned when every allowed plan failed.
	ErrReplanLimit = errors.New("runner: replan limit reached")
)

// sentinels used to stop the ticker once the tree settles
var (
	errTreeSucceeded = errors.New("tree succeeded")
	errTreeFailed    = errors.New("tree failed")
)

// Step describes one action leaf settling.
type Step struct {
	RunID  string
	Plan   int
	Action *goap.Action
	Status bt.Status
}

// Report summarises a run.
type Report struct {
	// RunID identifies the run in logs.
	RunID string
	// Plans is the number of plans made, including the first.
	Plans int
	// Executed lists the actions that succeeded, in order, across plans.
	Executed []*goap.Action
	// Reached is true when the blackboard satisfied the goal at the end.
	Reached bool
}

// Runner drives a planner towards a goal, executing each plan as a
// behavior tree over a blackboard.
type Runner struct {
	planner      *goap.ActionPlanner
	bb           *world.Blackboard
	goal         goap.WorldState
	executor     Executor
	tickInterval time.Duration
	maxReplans   int
	planTimeout  time.Duration
	logger       *slog.Logger
	observer     func(Step)
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor sets the executor for every action. Nil restores
// ApplyPostconditions.
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec == nil {
			exec = ApplyPostconditions
		}
		r.executor = exec
	}
}

// WithTickInterval sets the tree tick period. Non-positive values restore
// the default.
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d <= 0 {
			d = DefaultTickInterval
		}
		r.tickInterval = d
	}
}

// WithMaxReplans sets how many times a run may plan again after its first
// plan fails.
func WithMaxReplans(n int) Option {
	return func(r *Runner) {
		if n < 0 {
			n = 0
		}
		r.maxReplans = n
	}
}

// WithPlanTimeout bounds each search. Zero means no bound other than the
// run's context.
func WithPlanTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d < 0 {
			d = 0
		}
		r.planTimeout = d
	}
}

// WithLogger sets the logger. Each run logs with a "run" attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithObserver registers a callback invoked, from the ticker goroutine, each
// time an action leaf succeeds or fails.
func WithObserver(fn func(Step)) Option {
	return func(r *Runner) { r.observer = fn }
}

// New creates a runner. Panics if planner or bb is nil.
func New(planner *goap.ActionPlanner, bb *world.Blackboard, goal goap.WorldState, opts ...Option) *Runner {
	if planner == nil {
		panic("runner.New: planner must not be nil")
	}
	if bb == nil {
		panic("runner.New: blackboard must not be nil")
	}
	r := &Runner{
		planner:      planner,
		bb:           bb,
		goal:         goal,
		executor:     ApplyPostconditions,
		tickInterval: DefaultTickInterval,
		maxReplans:   DefaultMaxReplans,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plans from the current blackboard and executes the plan, replanning
// whenever it fails, until the blackboard satisfies the goal. A failed plan
// includes one whose actions all succeeded without reaching the goal.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	log := r.logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("run", report.RunID)

	for {
		start := r.bb.Facts(r.planner)
		if r.planner.Matches(r.goal, start) {
			report.Reached = true
			log.Info("goal reached", "plans", report.Plans, "executed", len(report.Executed))
			return report, nil
		}
		if report.Plans > r.maxReplans {
			return report, fmt.Errorf("%w: %d plans failed", ErrReplanLimit, report.Plans)
		}

		res, err := r.plan(ctx, start)
		if err != nil {
			return report, err
		}
		if !res.Found {
			log.Warn("no plan found", "state", r.planner.Describe(start))
			return report, ErrNoPlan
		}
		report.Plans++
		log.Info("plan found", "plan", res.String(), "attempt", report.Plans)

		succeeded, err := r.execute(ctx, log, res.Actions, &report)
		if err != nil {
			return report, err
		}
		if !succeeded {
			log.Warn("plan failed, replanning", "attempt", report.Plans)
		}
	}
}

func (r *Runner) plan(ctx context.Context, start goap.WorldState) (goap.Result, error) {
	if r.planTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.planTimeout)
		defer cancel()
	}
	return r.planner.PlanContext(ctx, start, r.goal)
}

// execute ticks the plan's tree until it settles, reporting whether every
// action succeeded.
func (r *Runner) execute(ctx context.Context, log *slog.Logger, actions []*goap.Action, report *Report) (bool, error) {
	plan := report.Plans
	leaves := make([]bt.Node, len(actions))
	for i, a := range actions {
		leaves[i] = r.leaf(ctx, log, plan, a, report)
	}
	tree := Sequence(leaves...)

	root := bt.New(func(children []bt.Node) (bt.Status, error) {
		status, err := children[0].Tick()
		if err != nil {
			return status, err
		}
		switch status {
		case bt.Success:
			return status, errTreeSucceeded
		case bt.Failure:
			return status, errTreeFailed
		default:
			return status, nil
		}
	}, tree)

	ticker := bt.NewTicker(ctx, r.tickInterval, root)
	<-ticker.Done()
	err := ticker.Err()
	switch {
	case errors.Is(err, errTreeSucceeded):
		return true, nil
	case errors.Is(err, errTreeFailed):
		return false, nil
	case err != nil:
		return false, err
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, errors.New("runner: ticker stopped unexpectedly")
	}
}

// leaf checks the action is still valid and applicable before delegating
// to the executor. The check runs while the leaf is not already running.
func (r *Runner) leaf(ctx context.Context, log *slog.Logger, plan int, a *goap.Action, report *Report) bt.Node {
	exec := ActionNode(ctx, r.executor, r.bb, a)
	running := false
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if !running {
			ok, err := r.applicable(a)
			if err != nil {
				return bt.Failure, err
			}
			if !ok {
				log.Warn("action no longer applicable", "action", a.Name)
				r.notify(Step{RunID: report.RunID, Plan: plan, Action: a, Status: bt.Failure})
				return bt.Failure, nil
			}
		}
		status, err := exec.Tick()
		if err != nil {
			return status, err
		}
		running = status == bt.Running
		switch status {
		case bt.Success:
			report.Executed = append(report.Executed, a)
			log.Debug("action succeeded", "action", a.Name)
			r.notify(Step{RunID: report.RunID, Plan: plan, Action: a, Status: status})
		case bt.Failure:
			log.Warn("action failed", "action", a.Name)
			r.notify(Step{RunID: report.RunID, Plan: plan, Action: a, Status: status})
		}
		return status, nil
	})
}

func (r *Runner) applicable(a *goap.Action) (bool, error) {
	if !a.Validate() {
		return false, nil
	}
	pre, _, err := r.planner.Compiled(a)
	if err != nil {
		return false, err
	}
	return r.planner.Matches(pre, r.bb.Facts(r.planner)), nil
}

func (r *Runner) notify(step Step) {
	if r.observer != nil {
		r.observer(step)
	}
}
