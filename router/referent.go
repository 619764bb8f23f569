// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package router

import "github.com/gaissmai/ensemble/internal/arena"

// ReferentKind tags which role a backref key plays in the channeler's
// surject store, mirroring the ensemble package's own referent-tag
// dispatch (§9 "Deep polymorphism") rather than a class hierarchy.
type ReferentKind byte

const (
	// ThisCNode is the key a CNode's class was created with; the class
	// representative.
	ThisCNode ReferentKind = iota
	// SubNode tags a key as belonging to a super-CNode's set of sub-CNodes
	// one level down.
	SubNode
	// SuperNode tags a key as belonging to a sub-CNode's enclosing
	// super-CNode one level up.
	SuperNode
	// CEdgeIncidence tags a key as one endpoint of a CEdge.
	CEdgeIncidence
	// EnsembleBackRef tags a leaf CNode's class with the ensemble PBack it
	// was built from.
	EnsembleBackRef
)

// Referent is the payload every channeler backref key carries.
type Referent struct {
	Kind ReferentKind

	// CEdge, Slot, IsSource are meaningful only when Kind == CEdgeIncidence.
	CEdge    arena.Handle
	Slot     int
	IsSource bool

	// EnsemblePBack is meaningful only when Kind == EnsembleBackRef.
	EnsemblePBack arena.Handle
}

func referentThisCNode() Referent { return Referent{Kind: ThisCNode} }

func referentSubNode() Referent { return Referent{Kind: SubNode} }

func referentSuperNode() Referent { return Referent{Kind: SuperNode} }

func referentCEdgeIncidence(edge arena.Handle, slot int, isSource bool) Referent {
	return Referent{Kind: CEdgeIncidence, CEdge: edge, Slot: slot, IsSource: isSource}
}

func referentEnsembleBackRef(pback arena.Handle) Referent {
	return Referent{Kind: EnsembleBackRef, EnsemblePBack: pback}
}

func (r Referent) isSelfKey() bool { return r.Kind == ThisCNode }
