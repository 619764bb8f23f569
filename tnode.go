// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

// TNode is a state-holding (sequential) node: a single-bit register driven
// by an optional loop_driver equivalence, with an initial value sampled at
// epoch-construction time (§3 "TNode").
type TNode struct {
	PSelf PBack

	// LoopDriver, if Valid, is the equivalence whose value this TNode
	// copies on the next Loop firing (§4.F "drive_loops").
	LoopDriver PBack

	// Init is the value this TNode holds before any Loop firing. A firing
	// overwrites Val with whatever LoopDriver resolved to, Unknown
	// included; nothing restores Init afterwards.
	Init Value

	// Val is the TNode's current register content.
	Val Value
}

func newTNode(self PBack, init Value) TNode {
	return TNode{PSelf: self, Init: init, Val: init}
}

// hasLoopDriver reports whether this TNode is driven by a Loop rather than
// holding a free-running register value.
func (n *TNode) hasLoopDriver() bool { return n.LoopDriver.Valid() }

// fire copies in (the resolved value of LoopDriver's equivalence) into Val,
// stamping it with visit. Called once per TNode per drive_loops pass (§4.F).
func (n *TNode) fire(in Value, visit uint64) {
	in.KnownSince = visit
	n.Val = in
}
