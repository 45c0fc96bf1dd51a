package condition

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/joeycumines/goap/internal/goap"
	"github.com/joeycumines/goap/internal/world"
)

// compileEnv declares the helpers every expression may call. Blackboard
// keys are not known at compile time and resolve as undefined variables.
var compileEnv = map[string]any{
	"has": func(string) bool { return false },
}

// Expr is a validator evaluating an expr-lang boolean expression against a
// snapshot of a blackboard. Compile and evaluation errors make it invalid,
// and are kept for LastError.
type Expr struct {
	expression string
	bb         *world.Blackboard

	mu      sync.RWMutex
	program *vm.Program
	lastErr error
}

var _ goap.Validator = (*Expr)(nil)

// NewExpr creates an expression validator reading bb. The expression is
// compiled lazily, on the first Validate or Compile call.
//
// Panics if expression is empty or bb is nil.
func NewExpr(expression string, bb *world.Blackboard) *Expr {
	if expression == "" {
		panic("condition.NewExpr: expression cannot be empty")
	}
	if bb == nil {
		panic("condition.NewExpr: blackboard must not be nil")
	}
	return &Expr{expression: expression, bb: bb}
}

// Expression returns the source text.
func (c *Expr) Expression() string {
	return c.expression
}

func (c *Expr) String() string {
	return c.expression
}

// Compile compiles the expression now, returning any syntax or type error.
func (c *Expr) Compile() error {
	_, err := c.getOrCompileProgram()
	return err
}

// Validate evaluates the expression. It implements goap.Validator.
func (c *Expr) Validate() bool {
	if c == nil {
		return false
	}

	program, err := c.getOrCompileProgram()
	if err != nil {
		c.setLastError(fmt.Errorf("expression compilation failed: %w", err))
		slog.Error("[GOAP] expression compilation error",
			"expression", c.expression,
			"error", err)
		return false
	}

	snapshot := c.bb.Snapshot()
	env := make(map[string]any, len(snapshot)+1)
	for k, v := range snapshot {
		env[k] = v
	}
	env["has"] = func(key string) bool {
		_, ok := snapshot[key]
		return ok
	}

	result, err := expr.Run(program, env)
	if err != nil {
		c.setLastError(fmt.Errorf("expression evaluation failed: %w", err))
		slog.Warn("[GOAP] expression evaluation error",
			"expression", c.expression,
			"error", err)
		return false
	}
	b, ok := result.(bool)
	if !ok {
		c.setLastError(fmt.Errorf("expression returned non-boolean result: %T", result))
		return false
	}
	c.setLastError(nil)
	return b
}

// LastError returns the error of the most recent Validate call, nil if it
// evaluated cleanly.
func (c *Expr) LastError() error {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *Expr) setLastError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Expr) getOrCompileProgram() (*vm.Program, error) {
	c.mu.RLock()
	program := c.program
	c.mu.RUnlock()
	if program != nil {
		return program, nil
	}

	program, ok := programs.Get(c.expression)
	if !ok {
		var err error
		program, err = expr.Compile(c.expression,
			expr.Env(compileEnv),
			expr.AsBool(),
			expr.AllowUndefinedVariables(),
		)
		if err != nil {
			return nil, err
		}
		programs.Put(c.expression, program)
	}

	c.mu.Lock()
	if c.program == nil {
		c.program = program
	}
	program = c.program
	c.mu.Unlock()
	return program, nil
}
