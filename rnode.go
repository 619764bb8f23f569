// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import "github.com/google/uuid"

// RNode is the externally observable view of an n-bit value (§3 "RNode").
// It owns one equivalence key per bit and the PExternal the notary uses to
// find it back.
type RNode struct {
	PSelf      PRNode
	PExternal  uuid.UUID
	Bits       []PBack // one ThisRNodeBit key per bit, Invalid until bound
	IsLazy     bool    // true for a writable LazyAwi-backed RNode
	PStateBits PState  // the State this RNode reads from/drives, if any
}

func newRNode(self PRNode, external uuid.UUID, bitwidth int, lazy bool) RNode {
	return RNode{
		PSelf:     self,
		PExternal: external,
		Bits:      make([]PBack, bitwidth),
		IsLazy:    lazy,
	}
}

// Bitwidth returns the number of bits this RNode exposes.
func (n *RNode) Bitwidth() int { return len(n.Bits) }

// bound reports whether bit i has been linked to a live equivalence.
func (n *RNode) bound(i int) bool {
	return i >= 0 && i < len(n.Bits) && n.Bits[i].Valid()
}
