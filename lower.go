// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import "github.com/gaissmai/ensemble/internal/bitset"

// lowerState expands st into LNodes/TNodes, wiring each output bit's
// existing ThisStateBit equivalence directly (§4.C, §4.D "lower that
// state"). Operand states are *not* eagerly lowered here — the evaluator
// lowers them lazily the first time it walks into their own ThisStateBit
// key, matching the demand-driven contract.
func (e *Ensemble) lowerState(ps PState) {
	st, ok := e.States.Get(ps.h)
	if !ok || st.Lowered {
		return
	}
	st.Lowered = true

	switch st.Op {
	case OpOpaque:
		// A free input: its per-bit classes already exist with no
		// driving LNode, so request_value correctly reports Unknown
		// until something calls change_value on them.

	case OpCopy:
		src := st.Operands[0]
		for bit, outKey := range st.Bits {
			e.attachCopy(outKey, e.stateBit(src, bit))
		}

	case OpStaticLut:
		inputs := make([]PBack, len(st.Operands))
		for i, o := range st.Operands {
			inputs[i] = e.stateBit(o, 0)
		}
		for _, outKey := range st.Bits {
			e.attachLut(outKey, inputs, st.LutTable)
		}

	case OpFunnel:
		e.lowerFunnel(st)
	}
}

// lowerFunnel lowers an OpFunnel state: out[i] = rhs[s*outWidth + i] where
// s ranges over every value the selector operand can take, muxed by a
// DynamicLut whose table_sources are the corresponding rhs bit classes.
func (e *Ensemble) lowerFunnel(st *State) {
	rhs := st.Operands[0]
	sel := st.Operands[1]
	selSt, ok := e.States.Get(sel.h)
	if !ok {
		return
	}
	numSel := len(selSt.Bits)
	rhsSt, ok := e.States.Get(rhs.h)
	if !ok {
		return
	}
	rhsWidth := len(rhsSt.Bits)
	outWidth := len(st.Bits)

	selInputs := make([]PBack, numSel)
	for i := range selInputs {
		selInputs[i] = e.stateBit(sel, i)
	}

	for i, outKey := range st.Bits {
		sources := make([]PBack, 1<<numSel)
		for s := range sources {
			rhsBit := (s*outWidth + i) % rhsWidth
			sources[s] = e.stateBit(rhs, rhsBit)
		}
		e.attachDynamicLut(outKey, selInputs, sources)
	}
}

// buildStaticLutTable is a convenience for callers constructing an
// OpStaticLut state: it mirrors LNode's own table layout (input 0 = least
// significant index bit).
func buildStaticLutTable(numInputs int, fn func(inputs []bool) bool) bitset.BitSet {
	width := uint(1) << numInputs
	table := bitset.New(width)
	bits := make([]bool, numInputs)
	for idx := uint(0); idx < width; idx++ {
		for b := 0; b < numInputs; b++ {
			bits[b] = idx&(1<<uint(b)) != 0
		}
		table.SetBit(idx, fn(bits))
	}
	return table
}
