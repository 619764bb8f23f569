// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import "github.com/gaissmai/ensemble/internal/bitset"

// LNodeKind tags which case of LNode applies (§3 "LNode").
type LNodeKind byte

const (
	// KindCopy passes a single input through unchanged.
	KindCopy LNodeKind = iota
	// KindLut evaluates a fixed lookup table over an ordered input list.
	KindLut
	// KindDynamicLut evaluates a lookup table whose entries are
	// themselves equivalences (table_sources), not fixed bits.
	KindDynamicLut
)

// LNode represents a combinational lookup-table node (§3 "LNode").
//
//	Invariant: len(Table)*64 bits cover 1<<len(Inputs) entries for Kind ==
//	KindLut, len(Inputs) >= 1, and 1<<len(Inputs) is a power of two
//	(trivially true).
type LNode struct {
	PSelf PBack
	Kind  LNodeKind

	// Copy
	CopyInput PBack

	// Lut / DynamicLut
	Inputs       []PBack
	Table        bitset.BitSet // KindLut: fixed table, 1<<len(Inputs) bits
	TableSources []PBack       // KindDynamicLut: one equivalence per table entry
}

// NumInputs returns the number of ordered inputs for Lut/DynamicLut kinds.
func (n *LNode) NumInputs() int {
	return len(n.Inputs)
}

// newLut constructs a KindLut LNode. table must have exactly 1<<len(inputs)
// bits meaningful (it may be over-allocated in words).
func newLut(self PBack, inputs []PBack, table bitset.BitSet) LNode {
	return LNode{
		PSelf:  self,
		Kind:   KindLut,
		Inputs: inputs,
		Table:  table,
	}
}

func newCopy(self PBack, input PBack) LNode {
	return LNode{PSelf: self, Kind: KindCopy, CopyInput: input}
}

func newDynamicLut(self PBack, inputs []PBack, tableSources []PBack) LNode {
	return LNode{PSelf: self, Kind: KindDynamicLut, Inputs: inputs, TableSources: tableSources}
}

// reduceLut halves table by fixing input i to bit, per §4.E: stride
// w = 1<<i, one w-wide stripe per period 2w, selecting the bit-selected
// stripe. The stripe walk itself is internal/bitset's CopyStripe.
func reduceLut(table bitset.BitSet, numInputs, i int, bit bool) bitset.BitSet {
	return bitset.CopyStripe(table, numInputs, i, bit)
}

// reduceIndependentLut returns the halved table (with the ith input
// removed) iff the LUT's output does not depend on the ith input, i.e. the
// bit=0 and bit=1 halves are bit-for-bit identical.
func reduceIndependentLut(table bitset.BitSet, numInputs, i int) (bitset.BitSet, bool) {
	half0 := bitset.CopyStripe(table, numInputs, i, false)
	half1 := bitset.CopyStripe(table, numInputs, i, true)
	if !bitset.Equal(half0, half1, uint(1)<<(numInputs-1)) {
		return nil, false
	}
	return half0, true
}

// evalLut looks up table by the packed input bits, input 0 = least
// significant bit of the index (§4.D "LUT application").
func evalLut(table bitset.BitSet, bits []bool) bool {
	idx := uint(0)
	for i, b := range bits {
		if b {
			idx |= 1 << uint(i)
		}
	}
	return table.Bit(idx)
}
