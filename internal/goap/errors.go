package goap

import (
	"errors"
)

var (
	// ErrRegistryExhausted is returned when registering more than
	// MaxConditions distinct facts. Facts registered before the failure
	// remain usable.
	ErrRegistryExhausted = errors.New("goap: fact registry exhausted")

	// ErrUnknownAction is returned when compiling an action that was never
	// added to the planner.
	ErrUnknownAction = errors.New("goap: unknown action")

	// ErrUnknownFact is returned when looking up a fact name that is not
	// registered, by operations that must not grow the registry.
	ErrUnknownFact = errors.New("goap: unknown fact")

	// ErrNegativeCost is returned when adding an action with a cost below
	// zero, which would break the optimality of the search.
	ErrNegativeCost = errors.New("goap: negative action cost")

	// ErrSearchAborted is returned when a bounded or cancellable plan search
	// stopped before it could decide whether a plan exists.
	ErrSearchAborted = errors.New("goap: search aborted")
)
