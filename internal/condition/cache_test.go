package condition

import (
	"testing"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/joeycumines/goap/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, expression string) *vm.Program {
	t.Helper()
	program, err := expr.Compile(expression)
	require.NoError(t, err)
	return program
}

func TestProgramCache_Eviction(t *testing.T) {
	c := NewProgramCache(2)
	a, b, d := compile(t, "1"), compile(t, "2"), compile(t, "3")

	c.Put("a", a)
	c.Put("b", b)
	got, ok := c.Get("a") // a is now most recently used
	require.True(t, ok)
	assert.Same(t, a, got)

	c.Put("d", d)
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)

	size, hits, misses, ratio := c.Stats()
	assert.Equal(t, 2, size)
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
	assert.InDelta(t, 2.0/3.0, ratio, 1e-9)
	assert.Contains(t, c.String(), "size=2")
}

func TestProgramCache_ReplaceAndResize(t *testing.T) {
	c := NewProgramCache(0)
	first, second := compile(t, "1"), compile(t, "2")
	c.Put("x", first)
	c.Put("x", second)
	got, _ := c.Get("x")
	assert.Same(t, second, got)

	c.Put("y", first)
	c.Put("z", first)
	c.Resize(0)
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("z")
	assert.True(t, ok)

	c.Clear()
	assert.Zero(t, c.Len())
}

func TestSetCacheSize(t *testing.T) {
	defer SetCacheSize(DefaultCacheSize)
	ClearCache()

	SetCacheSize(1)
	assert.Equal(t, 1, CacheSize())

	bb := new(world.Blackboard)
	require.NoError(t, NewExpr(`has("a")`, bb).Compile())
	require.NoError(t, NewExpr(`has("b")`, bb).Compile())
	size, _, _ := CacheStats()
	assert.Equal(t, 1, size)

	SetCacheSize(-5)
	assert.Equal(t, 1, CacheSize())
}
