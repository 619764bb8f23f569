// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import "github.com/gaissmai/ensemble/internal/arena"

// PBack is the generic key type of the backref surject store (§3, §4.B).
// Its Referent tag (see referent.go) distinguishes why the key exists.
type PBack = arena.Handle

// PEquiv is a PBack guaranteed to be the ThisEquiv key of its class, i.e.
// the class's canonical representative.
type PEquiv struct {
	PBack
}

// PLNode addresses an LNode in the Ensemble's LNode arena.
type PLNode struct {
	h arena.Handle
}

// PTNode addresses a TNode in the Ensemble's TNode arena.
type PTNode struct {
	h arena.Handle
}

// PState addresses a State in the Ensemble's State arena.
type PState struct {
	h arena.Handle
}

// PRNode addresses an RNode in the Ensemble's RNode arena.
type PRNode struct {
	h arena.Handle
}

func (p PLNode) Valid() bool { return p.h.Valid() }
func (p PTNode) Valid() bool { return p.h.Valid() }
func (p PState) Valid() bool { return p.h.Valid() }
func (p PRNode) Valid() bool { return p.h.Valid() }
