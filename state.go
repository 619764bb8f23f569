// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import "github.com/gaissmai/ensemble/internal/bitset"

// StateOp tags the not-yet-lowered operation a State represents (§3
// "State"). Only the handful of ops needed to exercise lowering/rc/operand
// bookkeeping are modeled; the full bit-vector mimicking builder that
// would emit dozens of these is out of scope.
type StateOp byte

const (
	// OpOpaque is a free, unconstrained input of Bitwidth bits.
	OpOpaque StateOp = iota
	// OpCopy binds every output bit to the corresponding operand bit.
	OpCopy
	// OpStaticLut applies a fixed lookup table over the concatenated
	// bits of Operands, producing a single output bit replicated across
	// Bitwidth (mirrors a 1-bit StaticLut state fanned out by the
	// caller).
	OpStaticLut
	// OpFunnel selects a BitWidth-wide window of a wider rhs operand at
	// an offset given by a selector operand (Operands[0] = rhs,
	// Operands[1] = selector); lowered as one DynamicLut LNode per
	// output bit, muxing over the selector.
	OpFunnel
)

// State is a not-yet-lowered bit-vector operation (§3 "State"). Stored in
// its own arena with a reference count and an operand list of other
// States; lowering expands it into LNodes/TNodes and binds each output bit
// to a fresh equivalence.
type State struct {
	PSelf     PState
	Op        StateOp
	Bitwidth  int
	Operands  []PState
	Rc        int
	Lowered   bool

	// LutTable backs OpStaticLut (one table over all Operand bits) and
	// OpFunnel (unused, kept zero); nil for Opaque/Copy.
	LutTable bitset.BitSet

	// Bits holds one ThisStateBit PBack per output bit, created at state
	// insertion time and consumed (but not removed) by lowering.
	Bits []PBack
}

func newState(self PState, op StateOp, bitwidth int, operands []PState, table bitset.BitSet) State {
	return State{
		PSelf:    self,
		Op:       op,
		Bitwidth: bitwidth,
		Operands: operands,
		Rc:       0,
		LutTable: table,
		Bits:     make([]PBack, bitwidth),
	}
}

// incRc bumps the reference count; called whenever another State takes this
// one as an operand.
func (s *State) incRc() { s.Rc++ }

// decRc drops the reference count, floored at zero (an over-decrement is an
// internal bug the caller should have prevented, not a panic).
func (s *State) decRc() {
	if s.Rc > 0 {
		s.Rc--
	}
}

// prunable reports whether this state is eligible for the pruning sweep of
// §4.C: unreferenced and not yet bound to any live backref key.
func (s *State) prunable(live func(PBack) bool) bool {
	if s.Rc != 0 {
		return false
	}
	for _, b := range s.Bits {
		if b.Valid() && live(b) {
			return false
		}
	}
	return true
}
