// Package condition provides action validators: plain functions, constants,
// and expr-lang expressions evaluated over a world blackboard.
//
// Expression syntax follows expr-lang (github.com/expr-lang/expr). Every
// blackboard key is a variable; keys that are absent evaluate to nil, so
// prefer has("key") or a nil-safe form such as `hungry ?? false` over a bare
// `!hungry`. Examples:
//
//	has("axe")
//	wood >= 3 && !(onFire ?? false)
//	weather in ["sunny", "cloudy"]
package condition

import (
	"github.com/joeycumines/goap/internal/goap"
)

var (
	// Always is a validator that accepts every plan.
	Always goap.Validator = goap.ValidatorFunc(func() bool { return true })

	// Never is a validator that rejects every plan.
	Never goap.Validator = goap.ValidatorFunc(func() bool { return false })
)

// Func adapts fn to goap.Validator. A nil fn is never valid.
func Func(fn func() bool) goap.Validator {
	if fn == nil {
		return Never
	}
	return goap.ValidatorFunc(fn)
}

// All is valid when every validator is. Nil entries are skipped, so All()
// with no validators is always valid.
func All(validators ...goap.Validator) goap.Validator {
	return goap.ValidatorFunc(func() bool {
		for _, v := range validators {
			if v != nil && !v.Validate() {
				return false
			}
		}
		return true
	})
}
