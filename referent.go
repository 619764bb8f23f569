// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

// ReferentKind tags why a PBack key exists in the backref surject store
// (§3 "Backref surject").
type ReferentKind byte

const (
	ThisEquiv ReferentKind = iota
	ThisLNode
	ThisTNode
	ThisStateBit
	ThisRNode
	Input
	LoopDriver
	ThisRNodeBit
)

// Referent is the per-key role tag stored alongside every PBack in the
// backref store. Only the fields relevant to Kind are meaningful; this
// mirrors the teacher's own small tagged-union style (a byte kind plus
// plain struct fields) rather than an interface hierarchy, per §9's note
// that node kinds dispatch on a tag, not a class hierarchy.
type Referent struct {
	Kind ReferentKind

	LNode PLNode // ThisLNode, Input
	TNode PTNode // ThisTNode, LoopDriver
	State PState // ThisStateBit
	RNode PRNode // ThisRNode, ThisRNodeBit

	Bit  int // ThisStateBit, ThisRNodeBit
	Slot int // Input
}

func referentThisEquiv() Referent { return Referent{Kind: ThisEquiv} }

func referentThisLNode(p PLNode) Referent { return Referent{Kind: ThisLNode, LNode: p} }

func referentThisTNode(p PTNode) Referent { return Referent{Kind: ThisTNode, TNode: p} }

func referentThisStateBit(p PState, bit int) Referent {
	return Referent{Kind: ThisStateBit, State: p, Bit: bit}
}

func referentThisRNode(p PRNode) Referent { return Referent{Kind: ThisRNode, RNode: p} }

func referentInput(p PLNode, slot int) Referent {
	return Referent{Kind: Input, LNode: p, Slot: slot}
}

func referentLoopDriver(p PTNode) Referent { return Referent{Kind: LoopDriver, TNode: p} }

func referentThisRNodeBit(p PRNode, bit int) Referent {
	return Referent{Kind: ThisRNodeBit, RNode: p, Bit: bit}
}

// isSelfKey reports whether this referent is a "self" key — the key that
// exists solely because some node owns it, as opposed to a consumer
// back-reference (Input/LoopDriver/ThisRNodeBit). RemoveUnused (§4.E) only
// drops nodes whose equivalence has no non-self keys.
func (r Referent) isSelfKey() bool {
	switch r.Kind {
	case ThisEquiv, ThisLNode, ThisTNode, ThisStateBit, ThisRNode:
		return true
	default:
		return false
	}
}
