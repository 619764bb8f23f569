// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import "github.com/gaissmai/ensemble/internal/arena"

// ValueKind tags which case of the Value lattice (§3 "Equiv") applies.
type ValueKind byte

const (
	Unknown ValueKind = iota
	Known
	ConstUnknown
	Const
)

// Value is one bit of the evaluator's value lattice: Unknown, Known(bit),
// ConstUnknown (provably constant, bit not yet determined), or Const(bit).
// KnownSince is the visit_gen the value was last (re)computed at; the
// evaluator treats a Known value as stale and recomputes it if
// KnownSince is behind the current visit generation, while a Const value
// is returned as it is.
type Value struct {
	Kind       ValueKind
	Bit        bool
	KnownSince uint64
}

// UnknownValue is the zero/bottom lattice element.
func UnknownValue() Value { return Value{Kind: Unknown} }

// KnownValue returns a Known value stamped with the given visit
// generation.
func KnownValue(bit bool, visit uint64) Value {
	return Value{Kind: Known, Bit: bit, KnownSince: visit}
}

// ConstValue returns a Const value. Const values are monotonic (§3
// invariant 3): once set, a class's value may never revert to Unknown.
func ConstValue(bit bool, visit uint64) Value {
	return Value{Kind: Const, Bit: bit, KnownSince: visit}
}

// IsKnown reports whether the value carries a resolved bit (Known or
// Const).
func (v Value) IsKnown() bool { return v.Kind == Known || v.Kind == Const }

// IsConst reports whether the value is permanently fixed.
func (v Value) IsConst() bool { return v.Kind == Const || v.Kind == ConstUnknown }

// ResolvedAt reports whether v is a Known/Const value whose KnownSince is
// at least as recent as visit — the evaluator's "already done" check.
func (v Value) ResolvedAt(visit uint64) bool {
	return v.IsKnown() && v.KnownSince >= visit
}

// PNodeEmbed is an opaque routing-time binding an Equiv may carry once the
// router has embedded it into a Channeler; ensemble itself never
// interprets it. Kept as a bare arena.Handle (rather than a concrete
// router.CNode type) so that the router package can depend on ensemble
// without a reverse import.
type PNodeEmbed = arena.Handle

// Equiv is the payload shared by every key in one backref surject class
// (§3 "Equiv").
type Equiv struct {
	PSelfEquiv            PEquiv
	Val                   Value
	EvaluatorPartialOrder uint64
	AlgVisit              uint64
	PNodeEmbed            *PNodeEmbed
}

func newEquiv(self PEquiv) Equiv {
	return Equiv{
		PSelfEquiv:            self,
		Val:                   UnknownValue(),
		EvaluatorPartialOrder: 1,
		AlgVisit:              1,
	}
}
