package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeycumines/goap/internal/goap"
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
    post: {treeChopped: true, tired: true}
start: {hasAxe: false, treeChopped: false}
goal: {treeChopped: true}
world: {axe: 1, weather: sunny}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(woodcutter))
	require.NoError(t, err)

	assert.Equal(t, []string{"hasAxe", "treeChopped"}, f.Facts)
	require.Len(t, f.Actions, 2)
	assert.Equal(t, 2, *f.Actions[0].Cost)
	assert.Nil(t, f.Actions[1].Cost)
	assert.Equal(t, Conditions{{"treeChopped", true}, {"tired", true}}, f.Actions[1].Post, "declaration order is kept")
	assert.Equal(t, map[string]bool{"hasAxe": false, "treeChopped": false}, f.Start.Map())
	assert.Equal(t, "sunny", f.World["weather"])
}

func TestParse_Errors(t *testing.T) {
	for _, tc := range []struct {
		name, doc, want string
	}{
		{"unknown key", "goal: {a: true}\nplans: []\n", "plans"},
		{"not a bool", "goal: {a: maybe}\n", `fact "a"`},
		{"not a mapping", "goal: [a]\n", "expected a mapping"},
		{"duplicate fact", "goal: {a: true, a: false}\n", "a"},
		{"missing goal", "facts: [a]\n", "goal"},
		{"empty", "", "goal"},
		{"missing name", "goal: {a: true}\nactions:\n  - cost: 1\n", "missing name"},
		{"duplicate action", "goal: {a: true}\nactions:\n  - name: x\n  - name: x\n", `duplicate action "x"`},
		{"negative cost", "goal: {a: true}\nactions:\n  - name: x\n    cost: -1\n", "negative"},
		{"duplicate declared fact", "facts: [a, a]\ngoal: {a: true}\n", `duplicate fact "a"`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestBuild(t *testing.T) {
	f, err := Parse([]byte(woodcutter))
	require.NoError(t, err)
	d, err := f.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"hasAxe", "treeChopped", "tired"}, d.Planner.Facts())
	assert.Equal(t, "hasaxe,treechopped", d.Planner.Describe(d.Start))
	assert.Equal(t, "TREECHOPPED", d.Planner.Describe(d.Goal))
	assert.Equal(t, false, d.Blackboard.Get("hasAxe"))
	assert.Equal(t, 1, d.Blackboard.Get("axe"))
	assert.Equal(t, d.Start, d.Blackboard.Facts(d.Planner))

	getAxe, ok := d.Action("GetAxe")
	require.True(t, ok)
	assert.Equal(t, 2, getAxe.Cost)
	_, ok = d.Action("Nope")
	assert.False(t, ok)

	plan, err := d.Planner.Plan(d.Start, d.Goal)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "GetAxe", plan[0].Name)
	assert.Equal(t, "ChopTree", plan[1].Name)

	// the validator reads the blackboard
	d.Blackboard.Delete("axe")
	plan, err = d.Planner.Plan(d.Start, d.Goal)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestBuild_Options(t *testing.T) {
	f, err := Parse([]byte(woodcutter))
	require.NoError(t, err)
	d, err := f.Build(goap.WithMaxIterations(1))
	require.NoError(t, err)
	_, err = d.Planner.Plan(d.Start, d.Goal)
	assert.ErrorIs(t, err, goap.ErrSearchAborted)
}

func TestBuild_InvalidValidator(t *testing.T) {
	f, err := Parse([]byte("goal: {a: true}\nactions:\n  - name: x\n    valid: 'a >'\n"))
	require.NoError(t, err)
	_, err = f.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `action "x": invalid validator`)
}

func TestBuild_TooManyFacts(t *testing.T) {
	var b strings.Builder
	b.WriteString("facts: [")
	for i := 0; i < goap.MaxConditions; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "f%d", i)
	}
	b.WriteString("]\nactions:\n  - name: x\n    post: {extra: true}\ngoal: {f0: true}\n")

	f, err := Parse([]byte(b.String()))
	require.NoError(t, err)
	_, err = f.Build()
	assert.ErrorIs(t, err, goap.ErrRegistryExhausted)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "woodcutter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(woodcutter), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Actions, 2)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("goal: nope\n"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}
