// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaissmai/ensemble/internal/bitset"
)

// lutTable packs bits[i] into entry i of a freshly allocated truth table,
// input 0 = least significant bit of the index (§4.D packing order).
func lutTable(bits ...bool) bitset.BitSet {
	t := bitset.New(uint(len(bits)))
	for i, b := range bits {
		t.SetBit(uint(i), b)
	}
	return t
}

func newTestEnsemble() *Ensemble {
	return New(NewNotary(nil))
}

// TestRetroactiveReassignmentPropagatesThroughCopy exercises the exact
// two-write scenario: writing a lazy input, reading the dependent output,
// then writing the opposite bit and confirming the second read reflects it
// rather than sticking at the first value.
func TestRetroactiveReassignmentPropagatesThroughCopy(t *testing.T) {
	e := newTestEnsemble()
	in := e.NewRNode(1, true)
	inBits, ok := e.RNodeBits(in)
	require.True(t, ok)

	outKey := e.InsertCopy(inBits[0])
	out := e.NewRNode(1, false)
	outBits, ok := e.RNodeBits(out)
	require.True(t, ok)
	e.AttachRoutedCopy(outBits[0], outKey)

	require.NoError(t, e.WriteRNode(in, []bool{true}))
	vals, err := e.ReadRNode(out)
	require.NoError(t, err)
	require.True(t, vals[0].IsKnown())
	require.True(t, vals[0].Bit)
	require.False(t, vals[0].IsConst(), "a retro-assigned input's dependent must stay Known, not freeze Const")

	require.NoError(t, e.WriteRNode(in, []bool{false}))
	vals, err = e.ReadRNode(out)
	require.NoError(t, err)
	require.True(t, vals[0].IsKnown())
	require.False(t, vals[0].Bit, "second WriteRNode must propagate, not stick at the first value")
}

// TestRetroactiveReassignmentPropagatesThroughLut exercises the same
// scenario one level deeper, through a 1-input LUT (logical NOT) rather
// than a bare Copy.
func TestRetroactiveReassignmentPropagatesThroughLut(t *testing.T) {
	e := newTestEnsemble()
	in := e.NewRNode(1, true)
	inBits, _ := e.RNodeBits(in)

	notTable := lutTable(true, false) // NOT: f(0)=1, f(1)=0
	notKey := e.InsertLut([]PBack{inBits[0]}, notTable)

	require.False(t, e.RequestValue(inBits[0]).IsKnown())

	require.NoError(t, e.WriteRNode(in, []bool{true}))
	v := e.RequestValue(notKey)
	require.True(t, v.IsKnown())
	require.False(t, v.Bit)

	require.NoError(t, e.WriteRNode(in, []bool{false}))
	v = e.RequestValue(notKey)
	require.True(t, v.IsKnown())
	require.True(t, v.Bit, "NOT of a retro-reassigned false input must re-evaluate to true")
}

func TestInsertLutAndConstPropagation(t *testing.T) {
	e := newTestEnsemble()
	// Two Const RNode-less inputs: wire an AND LUT directly over two fixed
	// TNodes with no loop driver, which resolve to a fixed Init value.
	a := e.InsertTNode(ConstValue(true, 1), PBack{})
	b := e.InsertTNode(ConstValue(false, 1), PBack{})

	andTable := lutTable(false, false, false, true) // AND
	out := e.InsertLut([]PBack{a, b}, andTable)

	v := e.RequestValue(out)
	require.True(t, v.IsKnown())
	require.False(t, v.Bit)
	require.True(t, v.IsConst(), "a LUT over all-Const inputs must itself resolve Const")
}

func TestEvalLutReducesUnknownIndependentInput(t *testing.T) {
	e := newTestEnsemble()
	known := e.InsertTNode(KnownValue(true, 1), PBack{})
	unresolved := e.NewRNode(1, true) // left Unknown: never written
	unresolvedBits, _ := e.RNodeBits(unresolved)

	// f(known, unresolved) = known, independent of the second input.
	table := lutTable(false, true, false, true)
	out := e.InsertLut([]PBack{known, unresolvedBits[0]}, table)

	v := e.RequestValue(out)
	require.True(t, v.IsKnown())
	require.True(t, v.Bit)
}

func TestEvalDynamicLutSelectsSource(t *testing.T) {
	e := newTestEnsemble()
	sel := e.InsertTNode(ConstValue(true, 1), PBack{})
	src0 := e.InsertTNode(ConstValue(false, 1), PBack{})
	src1 := e.InsertTNode(ConstValue(true, 1), PBack{})

	eqKey, _ := e.newEquivClass()
	e.attachDynamicLut(eqKey.PBack, []PBack{sel}, []PBack{src0, src1})

	v := e.RequestValue(eqKey.PBack)
	require.True(t, v.IsKnown())
	require.True(t, v.Bit, "selector true must pick TableSources[1]")
}
