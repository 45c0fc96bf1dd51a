package goap

import (
	"math/bits"
	"strings"
)

// MaxConditions is the number of distinct facts a single planner can track,
// bounded so that a WorldState fits in one machine word per mask.
const MaxConditions = 64

// WorldState is a partial assignment over the facts of a planner.
//
// Each fact occupies one bit. A set bit in dontCare means the fact is
// unknown; otherwise the matching bit in values holds its truth value.
// WorldState is a value type and is copied freely; the zero value knows
// every fact to be false, which is rarely what you want, so use
// ActionPlanner.WorldState or NewWorldState.
type WorldState struct {
	values   uint64
	dontCare uint64
}

// NewWorldState returns a state that knows nothing.
func NewWorldState() WorldState {
	return WorldState{dontCare: ^uint64(0)}
}

// Values returns the raw value bits, including bits of unknown facts.
func (s WorldState) Values() uint64 { return s.values }

// DontCare returns the mask of unknown facts.
func (s WorldState) DontCare() uint64 { return s.dontCare }

// Care returns the mask of known facts.
func (s WorldState) Care() uint64 { return ^s.dontCare }

// CaredValues returns the value bits restricted to known facts.
func (s WorldState) CaredValues() uint64 { return s.values &^ s.dontCare }

// Set declares the fact at index with the given value by flipping its
// don't-care bit. Calling Set twice on the same fact returns it to unknown.
// Use Assign when the fact must end up known regardless of its prior state.
// Out of range indices are ignored.
func (s *WorldState) Set(index int, value bool) {
	if index < 0 || index >= MaxConditions {
		return
	}
	bit := uint64(1) << index
	s.dontCare ^= bit
	s.setValue(bit, value)
}

// Assign marks the fact at index as known with the given value.
// Out of range indices are ignored.
func (s *WorldState) Assign(index int, value bool) {
	if index < 0 || index >= MaxConditions {
		return
	}
	bit := uint64(1) << index
	s.dontCare &^= bit
	s.setValue(bit, value)
}

// Forget marks the fact at index as unknown and clears its value bit.
func (s *WorldState) Forget(index int) {
	if index < 0 || index >= MaxConditions {
		return
	}
	bit := uint64(1) << index
	s.dontCare |= bit
	s.values &^= bit
}

func (s *WorldState) setValue(bit uint64, value bool) {
	if value {
		s.values |= bit
	} else {
		s.values &^= bit
	}
}

// Get returns the value of the fact at index, and whether it is known.
func (s WorldState) Get(index int) (value, known bool) {
	if index < 0 || index >= MaxConditions {
		return false, false
	}
	bit := uint64(1) << index
	return s.values&bit != 0, s.dontCare&bit == 0
}

// Known returns the number of known facts.
func (s WorldState) Known() int {
	return bits.OnesCount64(^s.dontCare)
}

// Equals reports whether both states hold identical cared values, each
// computed with its own don't-care mask.
func (s WorldState) Equals(other WorldState) bool {
	return s.CaredValues() == other.CaredValues()
}

// Satisfies reports whether state agrees with every fact s knows. Facts that
// s does not know are ignored, however state assigns them. A fact state does
// not know counts as false.
func (s WorldState) Satisfies(state WorldState) bool {
	return s.CaredValues() == state.CaredValues()&s.Care()
}

// Apply returns state with the facts s knows overwritten by the values s
// holds. A fact is known in the result if it was known in state or in s.
func (s WorldState) Apply(state WorldState) WorldState {
	care := s.Care()
	return WorldState{
		values:   state.CaredValues()&^care | s.CaredValues(),
		dontCare: state.dontCare & s.dontCare,
	}
}

// Distance is the number of facts known by s whose value differs in state.
func (s WorldState) Distance(state WorldState) int {
	return bits.OnesCount64((s.CaredValues() ^ state.CaredValues()) & s.Care())
}

// Describe renders every known fact as its name, uppercased when true and
// lowercased when false, comma separated in index order. Facts without a
// registered name are skipped.
func (s WorldState) Describe(names []string) string {
	var b strings.Builder
	for i := 0; i < MaxConditions && i < len(names); i++ {
		value, known := s.Get(i)
		if !known {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if value {
			b.WriteString(strings.ToUpper(names[i]))
		} else {
			b.WriteString(strings.ToLower(names[i]))
		}
	}
	return b.String()
}
