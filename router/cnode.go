// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package router

import (
	"github.com/gaissmai/ensemble/internal/arena"
	"github.com/gaissmai/ensemble/internal/sparse"
)

// PCNode is a typed handle to a CNode. Unlike PLNode/PTNode/etc. in the
// ensemble package, which address a node's own arena slot separately from
// its backref self-key, a CNode has no existing equivalence to attach
// into — it *is* the channeler's unit of equivalence — so PCNode wraps
// the backref key directly and CNode values live inside the Channeler's
// backref.Store as their class's payload, mirroring ensemble's own
// Equiv/PEquiv pairing rather than its LNode/PLNode one.
type PCNode struct {
	h arena.Handle
}

// Valid reports whether h addresses a (possibly stale) slot at all.
func (p PCNode) Valid() bool { return p.h.Valid() }

// CNode is a node of one level of the Channeler's concentrated view: either
// a leaf standing for one ensemble equivalence class (Level == 0), or a
// super-node concentrating several lower-level CNodes into one (Level > 0).
// SubNodes uses a popcount-compressed sparse.Array rather than a plain
// slice (SuperNode is a single PCNode): a level's concentration factor leaves most index slots in a
// super-node's child space unused, exactly the sparse-but-wide index space
// the teacher's own sparse array targets.
type CNode struct {
	PSelf PCNode

	Level int

	// SubNodes concentrates this node's children one level down, keyed by
	// their position within this node's child index space. Empty for leaf
	// (Level == 0) nodes.
	SubNodes sparse.Array[PCNode]

	// SuperNode is the node one level up that concentrates this node,
	// invalid if this node has not yet been concentrated (e.g. the
	// current top level).
	SuperNode PCNode

	// SuperSlot is the index this node occupies within SuperNode.SubNodes.
	SuperSlot uint

	// EnsembleBackRef is the ensemble arena.Handle this leaf CNode was
	// built from. Meaningful only when Level == 0.
	EnsembleBackRef arena.Handle
}

func newLeafCNode(self PCNode, ensembleBackRef arena.Handle) CNode {
	return CNode{PSelf: self, Level: 0, EnsembleBackRef: ensembleBackRef}
}

func newSuperCNode(self PCNode, level int) CNode {
	return CNode{PSelf: self, Level: level}
}

// addSub records child at the given slot within n's child index space; it
// does not touch child, whose SuperNode/SuperSlot the caller sets.
func (n *CNode) addSub(slot uint, child PCNode) {
	n.SubNodes.InsertAt(slot, child)
}
