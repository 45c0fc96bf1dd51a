package condition

import (
	"sync"
	"testing"

	"github.com/joeycumines/goap/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpr_Panics(t *testing.T) {
	bb := new(world.Blackboard)
	assert.PanicsWithValue(t, "condition.NewExpr: expression cannot be empty", func() {
		NewExpr("", bb)
	})
	assert.PanicsWithValue(t, "condition.NewExpr: blackboard must not be nil", func() {
		NewExpr("true", nil)
	})
}

func TestExpr_Validate(t *testing.T) {
	bb := new(world.Blackboard)
	bb.Set("axe", 1)
	bb.Set("wood", 4)
	bb.Set("weather", "sunny")
	bb.Set("hasAxe", true)

	for _, tc := range []struct {
		expression string
		want       bool
	}{
		{`has("axe")`, true},
		{`has("saw")`, false},
		{`wood >= 3`, true},
		{`wood > 10`, false},
		{`weather in ["sunny", "cloudy"]`, true},
		{`hasAxe`, true},
		{`hasAxe && !(onFire ?? false)`, true},
		{`missing == true`, false},
		{`missing == nil`, true},
	} {
		t.Run(tc.expression, func(t *testing.T) {
			c := NewExpr(tc.expression, bb)
			assert.Equal(t, tc.want, c.Validate())
			assert.NoError(t, c.LastError())
		})
	}
}

func TestExpr_TracksBlackboard(t *testing.T) {
	bb := new(world.Blackboard)
	c := NewExpr(`has("axe")`, bb)
	assert.False(t, c.Validate())

	bb.Set("axe", nil)
	assert.True(t, c.Validate(), "has reports presence, not truthiness")

	bb.Delete("axe")
	assert.False(t, c.Validate())
}

func TestExpr_Errors(t *testing.T) {
	bb := new(world.Blackboard)

	t.Run("compile", func(t *testing.T) {
		c := NewExpr(`wood >=`, bb)
		require.Error(t, c.Compile())
		assert.False(t, c.Validate())
		require.Error(t, c.LastError())
		assert.Contains(t, c.LastError().Error(), "compilation failed")
	})

	t.Run("not boolean", func(t *testing.T) {
		c := NewExpr(`"text"`, bb)
		assert.Error(t, c.Compile())
		assert.False(t, c.Validate())
	})

	t.Run("evaluation", func(t *testing.T) {
		c := NewExpr(`!hungry`, bb)
		require.NoError(t, c.Compile())
		assert.False(t, c.Validate())
		require.Error(t, c.LastError())
		assert.Contains(t, c.LastError().Error(), "evaluation failed")

		bb.Set("hungry", false)
		assert.True(t, c.Validate())
		assert.NoError(t, c.LastError(), "a clean evaluation clears the error")
	})
}

func TestExpr_Concurrent(t *testing.T) {
	bb := new(world.Blackboard)
	bb.Set("n", 1)
	c := NewExpr(`n > 0`, bb)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.True(t, c.Validate())
			}
		}()
	}
	wg.Wait()
}

func TestValidators(t *testing.T) {
	assert.True(t, Always.Validate())
	assert.False(t, Never.Validate())
	assert.False(t, Func(nil).Validate())
	assert.True(t, Func(func() bool { return true }).Validate())

	assert.True(t, All().Validate())
	assert.True(t, All(Always, nil).Validate())
	assert.False(t, All(Always, Never).Validate())
}
