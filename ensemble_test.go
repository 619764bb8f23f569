// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChangeValueInvalidatesDependentChain(t *testing.T) {
	e := newTestEnsemble()
	in := e.NewRNode(1, true)
	inBits, _ := e.RNodeBits(in)

	mid := e.InsertCopy(inBits[0])
	out := e.InsertCopy(mid)

	e.ChangeValue(inBits[0], KnownValue(true, e.visitGen))
	v := e.RequestValue(out)
	require.True(t, v.IsKnown())
	require.True(t, v.Bit)

	e.ChangeValue(inBits[0], KnownValue(false, e.visitGen))
	v = e.RequestValue(out)
	require.True(t, v.IsKnown())
	require.False(t, v.Bit, "invalidation must propagate through a chain of Copies, not just one hop")
}

func TestChangeValueNeverRevertsConst(t *testing.T) {
	e := newTestEnsemble()
	key, _ := e.newEquivClass()
	e.ChangeValue(key.PBack, ConstValue(true, 1))

	e.ChangeValue(key.PBack, KnownValue(false, 2))

	eq, _, ok := e.equivOf(key.PBack)
	require.True(t, ok)
	require.True(t, eq.Val.IsConst())
	require.True(t, eq.Val.Bit, "a Const value must never revert, per the monotonicity invariant")
}

// TestClearOutputSkipsConstEquivalences forces a Copy output Const (as
// evalLut does when every input is already provably Const) and confirms
// invalidateConsumers/clearOutput refuse to clear it even when its input
// is subsequently rewritten — the monotonicity half of §3 invariant 3 that
// complements ChangeValue's own direct-target guard.
func TestClearOutputSkipsConstEquivalences(t *testing.T) {
	e := newTestEnsemble()
	in := e.NewRNode(1, true)
	inBits, _ := e.RNodeBits(in)
	out := e.InsertCopy(inBits[0])

	e.ChangeValue(out, ConstValue(true, 1))

	e.ChangeValue(inBits[0], KnownValue(false, e.visitGen))

	v := e.RequestValue(out)
	require.True(t, v.IsKnown())
	require.True(t, v.IsConst())
	require.True(t, v.Bit, "a Const output must not be cleared by a later change to its input")
}

func TestDriveLoopsSeesOnlyPriorCycleState(t *testing.T) {
	e := newTestEnsemble()
	driver := e.NewRNode(1, true)
	driverBits, _ := e.RNodeBits(driver)

	reg := e.InsertTNode(KnownValue(false, 1), driverBits[0])

	v0 := e.RequestValue(reg)
	require.True(t, v0.IsKnown())
	require.False(t, v0.Bit, "register starts at its Init value")

	require.NoError(t, e.WriteRNode(driver, []bool{true}))
	// Before DriveLoops fires, the register must still read its old value;
	// a loop driver only takes effect on the next explicit fire.
	require.False(t, e.RequestValue(reg).Bit)

	e.DriveLoops()

	v1 := e.RequestValue(reg)
	require.True(t, v1.IsKnown())
	require.True(t, v1.Bit, "after one DriveLoops, the register adopts the loop driver's value")
}

// TestDriveLoopsFiresEveryRegisterFromOneVisit builds a two-register swap
// (r1 driven by r2, r2 driven by r1) and confirms one DriveLoops pass swaps
// both simultaneously — if the implementation fired registers one at a
// time instead of reading every driver before writing any register, the
// second fire would observe the first's already-updated value instead of
// its prior-cycle value.
func TestDriveLoopsFiresEveryRegisterFromOneVisit(t *testing.T) {
	e := newTestEnsemble()
	r2 := e.InsertTNode(KnownValue(true, 1), PBack{})
	r1 := e.InsertTNode(KnownValue(false, 1), r2)
	// Retroactively wire r2's driver to r1, completing the swap pair; r2
	// was created first so it cannot yet name r1 as its own driver.
	for k := range e.backrefs.Keys(r2) {
		r, ok := e.backrefs.Referent(k)
		if ok && r.Kind == ThisTNode {
			node, ok := e.TNodes.Get(r.TNode.h)
			require.True(t, ok)
			node.LoopDriver = r1
			e.backrefs.InsertKey(r1, referentLoopDriver(r.TNode))
		}
	}

	e.DriveLoops()

	v1 := e.RequestValue(r1)
	v2 := e.RequestValue(r2)
	require.True(t, v1.IsKnown())
	require.True(t, v2.IsKnown())
	require.True(t, v1.Bit, "r1 adopts r2's prior value (true)")
	require.False(t, v2.Bit, "r2 adopts r1's prior value (false), read before either write")
}
