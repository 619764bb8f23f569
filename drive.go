// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import "github.com/google/uuid"

// LazyAwi is a writable, retro-assignable input handle: a thin wrapper
// around the PExternal of a lazy RNode; no State is created for it
// (§6 "front-end contract").
type LazyAwi struct {
	epoch     *Epoch
	PExternal uuid.UUID
	bitwidth  int
}

// NewLazyAwi allocates a fresh bitwidth-bit opaque input in ep and returns
// a handle to it.
func NewLazyAwi(ep *Epoch, bitwidth int) (LazyAwi, error) {
	external, err := ep.NewRNode(bitwidth, true)
	if err != nil {
		return LazyAwi{}, err
	}
	return LazyAwi{epoch: ep, PExternal: external, bitwidth: bitwidth}, nil
}

// Bitwidth returns the number of bits this handle addresses.
func (l LazyAwi) Bitwidth() int { return l.bitwidth }

// Retro retroactively assigns bits to this input (§6 "write_rnode").
func (l LazyAwi) Retro(bits []bool) error {
	return l.epoch.ensemble.WriteRNode(l.PExternal, bits)
}

// EvalAwi is a read handle bound to a PExternal (§6 "front-end contract").
type EvalAwi struct {
	epoch     *Epoch
	PExternal uuid.UUID
	bitwidth  int
}

// NewEvalAwi allocates a fresh bitwidth-bit output and returns a handle to
// it; callers wire its driving logic separately before calling Eval.
func NewEvalAwi(ep *Epoch, bitwidth int) (EvalAwi, error) {
	external, err := ep.NewRNode(bitwidth, false)
	if err != nil {
		return EvalAwi{}, err
	}
	return EvalAwi{epoch: ep, PExternal: external, bitwidth: bitwidth}, nil
}

// Bitwidth returns the number of bits this handle addresses.
func (e EvalAwi) Bitwidth() int { return e.bitwidth }

// Eval evaluates and returns every bit (§6 "read_rnode").
func (e EvalAwi) Eval() ([]Value, error) {
	return e.epoch.ensemble.ReadRNode(e.PExternal)
}

// Drive links rhs's bits to lhs's source bits (§6 "Drive operation"):
//   - both present, widths match: rhs's output equivalences become lhs's
//     opaque bits' replacement drivers (lhs becomes a Copy of rhs per bit).
//   - lhs absent: DrivenValueIsNone(rhs.PExternal).
//   - rhs absent: DrivenValueIsNone(lhs.PExternal).
//   - both absent: DrivenValueIsNone(nil).
//   - width mismatch: BitwidthMismatch(lhs_w, rhs_w).
func Drive(lhs *LazyAwi, rhs *EvalAwi) error {
	switch {
	case lhs == nil && rhs == nil:
		return DrivenValueIsNoneError{}
	case lhs == nil:
		ext := rhs.PExternal
		return DrivenValueIsNoneError{PExternal: &ext}
	case rhs == nil:
		ext := lhs.PExternal
		return DrivenValueIsNoneError{PExternal: &ext}
	}
	if lhs.bitwidth != rhs.bitwidth {
		return BitwidthMismatchError{A: lhs.bitwidth, B: rhs.bitwidth}
	}
	e := lhs.epoch.ensemble
	lhsNode, ok := e.lookupRNode(lhs.PExternal)
	if !ok {
		return InvalidPExternalError{PExternal: lhs.PExternal}
	}
	rhsNode, ok := e.lookupRNode(rhs.PExternal)
	if !ok {
		return InvalidPExternalError{PExternal: rhs.PExternal}
	}
	if len(lhsNode.Bits) != len(rhsNode.Bits) {
		return BitwidthMismatchError{A: len(lhsNode.Bits), B: len(rhsNode.Bits)}
	}
	for i := range lhsNode.Bits {
		e.attachCopy(lhsNode.Bits[i], rhsNode.Bits[i])
	}
	return nil
}
