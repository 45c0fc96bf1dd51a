package command

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/pabt"
	"github.com/joeycumines/goap/internal/runner"
	"github.com/joeycumines/goap/internal/world"
)

// PlanCommand searches a domain file for the cheapest plan.
type PlanCommand struct {
	*BaseCommand
	config *config.Config
	flags  plannerFlags
	stats  bool
}

// NewPlanCommand creates a new plan command.
func NewPlanCommand(cfg *config.Config) *PlanCommand {
	return &PlanCommand{
		BaseCommand: NewBaseCommand(
			"plan",
			"Find the cheapest plan from a domain's start state to its goal",
			"plan [options] <domain.yaml>",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the plan command.
func (c *PlanCommand) SetupFlags(fs *flag.FlagSet) {
	c.flags.setup(fs)
	fs.BoolVar(&c.stats, "stats", false, "Print search statistics")
}

// Execute prints one action per line followed by the total cost, or "no
// plan found". A search stopped by -timeout or -max-iterations is an error.
func (c *PlanCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	path, err := domainArg(args, stderr)
	if err != nil {
		return err
	}
	s, err := c.flags.openSession(c.config, path, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := s.settings.searchContext(ctx)
	defer cancel()

	d := s.domain
	res, err := d.Planner.PlanContext(ctx, d.Start, d.Goal)
	if c.stats {
		defer func() {
			_, _ = fmt.Fprintf(stdout, "expanded: %d\ngenerated: %d\n", res.Expanded, res.Generated)
		}()
	}
	if err != nil {
		return err
	}
	if !res.Found {
		_, _ = fmt.Fprintln(stdout, "no plan found")
		return nil
	}
	for _, a := range res.Actions {
		_, _ = fmt.Fprintln(stdout, a.Name)
	}
	_, _ = fmt.Fprintf(stdout, "total cost: %g\n", res.Cost)
	return nil
}

// DescribeCommand prints a domain file as the planner sees it.
type DescribeCommand struct {
	*BaseCommand
	config *config.Config
	flags  plannerFlags
}

// NewDescribeCommand creates a new describe command.
func NewDescribeCommand(cfg *config.Config) *DescribeCommand {
	return &DescribeCommand{
		BaseCommand: NewBaseCommand(
			"describe",
			"Show a domain's facts, actions, start and goal",
			"describe [options] <domain.yaml>",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the describe command.
func (c *DescribeCommand) SetupFlags(fs *flag.FlagSet) {
	c.flags.setup(fs)
}

// Execute prints the domain.
func (c *DescribeCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	path, err := domainArg(args, stderr)
	if err != nil {
		return err
	}
	s, err := c.flags.openSession(c.config, path, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	d := s.domain
	w := tabwriter.NewWriter(stdout, 0, 8, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "Facts:")
	for i, name := range d.Planner.Facts() {
		_, _ = fmt.Fprintf(w, "  %d\t%s\n", i, name)
	}

	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Actions:")
	for _, a := range d.Actions {
		_, _ = fmt.Fprintf(w, "  %s\n", a)
	}

	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintf(w, "Start:\t%s\n", d.Planner.Describe(d.Start))
	_, _ = fmt.Fprintf(w, "Goal:\t%s\n", d.Planner.Describe(d.Goal))
	return w.Flush()
}

// RunCommand plans and executes a domain against its blackboard.
type RunCommand struct {
	*BaseCommand
	config   *config.Config
	flags    plannerFlags
	reactive bool
	maxTicks int
}

// NewRunCommand creates a new run command.
func NewRunCommand(cfg *config.Config) *RunCommand {
	return &RunCommand{
		BaseCommand: NewBaseCommand(
			"run",
			"Plan and execute a domain, replanning when a plan fails",
			"run [options] <domain.yaml>",
		),
		config: cfg,
	}
}

// SetupFlags configures the flags for the run command.
func (c *RunCommand) SetupFlags(fs *flag.FlagSet) {
	c.flags.setup(fs)
	fs.BoolVar(&c.reactive, "reactive", false, "Execute with a PA-BT tree grown from the goal instead of A* plans")
	fs.IntVar(&c.maxTicks, "max-ticks", 1000, "Tick limit of a reactive run")
}

// Execute runs the domain, printing each action as it succeeds.
func (c *RunCommand) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	path, err := domainArg(args, stderr)
	if err != nil {
		return err
	}
	s, err := c.flags.openSession(c.config, path, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	if c.reactive {
		return c.runReactive(ctx, s, stdout)
	}

	d := s.domain
	r := runner.New(d.Planner, d.Blackboard, d.Goal,
		runner.WithTickInterval(s.settings.tickInterval),
		runner.WithMaxReplans(s.settings.maxReplans),
		runner.WithPlanTimeout(s.settings.timeout),
		runner.WithLogger(s.logger),
		runner.WithObserver(func(step runner.Step) {
			switch step.Status {
			case bt.Success:
				_, _ = fmt.Fprintln(stdout, step.Action.Name)
			case bt.Failure:
				_, _ = fmt.Fprintf(stdout, "%s failed\n", step.Action.Name)
			}
		}),
	)
	report, err := r.Run(ctx)
	if err != nil {
		if errors.Is(err, runner.ErrNoPlan) {
			_, _ = fmt.Fprintln(stdout, "no plan found")
		}
		return err
	}
	_, _ = fmt.Fprintf(stdout, "goal reached: %d action(s), %d plan(s), run %s\n", len(report.Executed), report.Plans, report.RunID)
	return nil
}

// runReactive ticks the PA-BT tree of the domain's goal until it succeeds.
func (c *RunCommand) runReactive(ctx context.Context, s *session, stdout io.Writer) error {
	d := s.domain
	exec := runner.ExecutorFunc(func(ctx context.Context, a *goap.Action, bb *world.Blackboard) (bt.Status, error) {
		status, err := runner.ApplyPostconditions.Execute(ctx, a, bb)
		if err == nil && status == bt.Success {
			_, _ = fmt.Fprintln(stdout, a.Name)
		}
		return status, err
	})
	state := pabt.NewState(d.Planner, d.Blackboard,
		pabt.WithExecutor(exec),
		pabt.WithContext(ctx),
		pabt.WithLogger(s.logger))
	node, err := state.Node(d.Goal)
	if err != nil {
		return err
	}

	interval := s.settings.tickInterval
	if interval <= 0 {
		interval = runner.DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for tick := 1; ; tick++ {
		status, err := node.Tick()
		if err != nil {
			return err
		}
		switch status {
		case bt.Success:
			_, _ = fmt.Fprintf(stdout, "goal reached after %d tick(s)\n", tick)
			return nil
		case bt.Failure:
			return errors.New("reactive run failed: no action sequence reaches the goal")
		}
		if c.maxTicks > 0 && tick >= c.maxTicks {
			return fmt.Errorf("reactive run stopped after %d ticks", tick)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
