package command

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const woodcutter = `
facts: [hasAxe, treeChopped]
actions:
  - name: GetAxe
    cost: 2
    post: {hasAxe: true}
    valid: 'has("axe")'
  - name: ChopTree
    pre: {hasAxe: true}
    post: {treeChopped: true}
start: {hasAxe: false, treeChopped: false}
goal: {treeChopped: true}
world: {axe: 1}
`

func writeDomain(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute parses args with the command's flags, as main does, and runs it.
func execute(t *testing.T, cmd Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetupFlags(fs)
	require.NoError(t, fs.Parse(args))
	var out, errOut bytes.Buffer
	err = cmd.Execute(context.Background(), fs.Args(), &out, &errOut)
	return out.String(), errOut.String(), err
}

func quietConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.SetGlobalOption("log.level", "error")
	cfg.SetSectionOption(config.SectionRun, "tick-interval", "1ms")
	return cfg
}

func TestPlanCommand(t *testing.T) {
	path := writeDomain(t, woodcutter)

	t.Run("found", func(t *testing.T) {
		out, _, err := execute(t, NewPlanCommand(quietConfig()), path)
		require.NoError(t, err)
		assert.Equal(t, "GetAxe\nChopTree\ntotal cost: 3\n", out)
	})

	t.Run("stats", func(t *testing.T) {
		out, _, err := execute(t, NewPlanCommand(quietConfig()), "-stats", "-heuristic", "zero", path)
		require.NoError(t, err)
		assert.Contains(t, out, "total cost: 3\n")
		assert.Regexp(t, regexp.MustCompile(`expanded: [1-9]\d*\ngenerated: [1-9]\d*\n$`), out)
	})

	t.Run("not found", func(t *testing.T) {
		noAxe := writeDomain(t, strings.Replace(woodcutter, "world: {axe: 1}", "world: {}", 1))
		out, _, err := execute(t, NewPlanCommand(quietConfig()), noAxe)
		require.NoError(t, err)
		assert.Equal(t, "no plan found\n", out)
	})

	t.Run("aborted", func(t *testing.T) {
		_, _, err := execute(t, NewPlanCommand(quietConfig()), "-max-iterations", "1", path)
		require.ErrorIs(t, err, goap.ErrSearchAborted)
	})

	t.Run("max iterations from config", func(t *testing.T) {
		cfg := quietConfig()
		cfg.SetSectionOption(config.SectionPlanner, "max-iterations", "1")
		_, _, err := execute(t, NewPlanCommand(cfg), path)
		require.ErrorIs(t, err, goap.ErrSearchAborted)

		// the flag wins
		out, _, err := execute(t, NewPlanCommand(cfg), "-max-iterations", "0", path)
		require.NoError(t, err)
		assert.Contains(t, out, "total cost: 3")
	})

	t.Run("invalid flag value", func(t *testing.T) {
		_, _, err := execute(t, NewPlanCommand(quietConfig()), "-match", "fuzzy", path)
		require.EqualError(t, err, `invalid match mode: "fuzzy"`)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, stderr, err := execute(t, NewPlanCommand(quietConfig()))
		require.Error(t, err)
		assert.Contains(t, stderr, "expected exactly one domain file argument")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, NewPlanCommand(quietConfig()), filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.yaml")
	})
}

func TestDescribeCommand(t *testing.T) {
	out, _, err := execute(t, NewDescribeCommand(quietConfig()), writeDomain(t, woodcutter))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`(?m)^  0\s+hasAxe$`), out)
	assert.Regexp(t, regexp.MustCompile(`(?m)^  1\s+treeChopped$`), out)
	assert.Contains(t, out, "  GetAxe(2) {} -> ")
	assert.Contains(t, out, "  ChopTree(1) ")
	assert.Regexp(t, regexp.MustCompile(`(?m)^Start:\s+hasaxe,treechopped$`), out)
	assert.Regexp(t, regexp.MustCompile(`(?m)^Goal:\s+TREECHOPPED$`), out)
}

func TestRunCommand(t *testing.T) {
	path := writeDomain(t, woodcutter)

	t.Run("planned", func(t *testing.T) {
		out, _, err := execute(t, NewRunCommand(quietConfig()), path)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^GetAxe\nChopTree\ngoal reached: 2 action\(s\), 1 plan\(s\), run [0-9a-f-]{36}\n$`), out)
	})

	t.Run("reactive", func(t *testing.T) {
		out, _, err := execute(t, NewRunCommand(quietConfig()), "-reactive", path)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^GetAxe\nChopTree\ngoal reached after \d+ tick\(s\)\n$`), out)
	})

	t.Run("no plan", func(t *testing.T) {
		noAxe := writeDomain(t, strings.Replace(woodcutter, "world: {axe: 1}", "world: {}", 1))
		out, _, err := execute(t, NewRunCommand(quietConfig()), noAxe)
		require.ErrorIs(t, err, runner.ErrNoPlan)
		assert.Equal(t, "no plan found\n", out)
	})

	t.Run("reactive without a way", func(t *testing.T) {
		noAxe := writeDomain(t, strings.Replace(woodcutter, "world: {axe: 1}", "world: {}", 1))
		_, _, err := execute(t, NewRunCommand(quietConfig()), "-reactive", "-max-ticks", "50", noAxe)
		require.Error(t, err)
	})
}

func TestResolveSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var f plannerFlags
		f.setup(flag.NewFlagSet("x", flag.ContinueOnError))
		s, err := f.resolveSettings(nil)
		require.NoError(t, err)
		assert.Equal(t, goap.MatchSubset, s.match)
		assert.Equal(t, goap.SetAssign, s.setMode)
		assert.Zero(t, s.maxIterations)
		assert.Zero(t, s.timeout)
		assert.Equal(t, runner.DefaultTickInterval, s.tickInterval)
		assert.Equal(t, runner.DefaultMaxReplans, s.maxReplans)
		assert.Equal(t, 1000, s.cacheSize)
	})

	t.Run("config then flags", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.SetSectionOption(config.SectionPlanner, "match", "exact")
		cfg.SetSectionOption(config.SectionPlanner, "set-mode", "toggle")
		cfg.SetSectionOption(config.SectionPlanner, "timeout", "2s")
		cfg.SetSectionOption(config.SectionRun, "max-replans", "9")

		var f plannerFlags
		fs := flag.NewFlagSet("x", flag.ContinueOnError)
		f.setup(fs)
		require.NoError(t, fs.Parse([]string{"-timeout", "5s", "-max-iterations", "7"}))

		s, err := f.resolveSettings(cfg)
		require.NoError(t, err)
		assert.Equal(t, goap.MatchExact, s.match)
		assert.Equal(t, goap.SetToggle, s.setMode)
		assert.Equal(t, 5*time.Second, s.timeout)
		assert.Equal(t, 7, s.maxIterations)
		assert.Equal(t, 9, s.maxReplans)
	})

	t.Run("environment beats config", func(t *testing.T) {
		t.Setenv("GOAP_MATCH", "exact")
		cfg := config.NewConfig()
		cfg.SetSectionOption(config.SectionPlanner, "match", "subset")

		var f plannerFlags
		f.setup(flag.NewFlagSet("x", flag.ContinueOnError))
		s, err := f.resolveSettings(cfg)
		require.NoError(t, err)
		assert.Equal(t, goap.MatchExact, s.match)
	})

	t.Run("bad config value", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.SetSectionOption(config.SectionRun, "tick-interval", "often")

		var f plannerFlags
		f.setup(flag.NewFlagSet("x", flag.ContinueOnError))
		_, err := f.resolveSettings(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run.tick-interval")
	})
}
