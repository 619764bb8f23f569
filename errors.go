// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// InvalidPtrError indicates a stale generation or wrong-typed handle was
// dereferenced.
type InvalidPtrError struct{}

func (InvalidPtrError) Error() string { return "InvalidPtr" }

// ErrInvalidPtr is returned wherever a caller-supplied handle no longer
// addresses a live slot.
var ErrInvalidPtr error = InvalidPtrError{}

// UnevaluatableError indicates an operation has no legal evaluation rule
// for its operands.
type UnevaluatableError struct{}

func (UnevaluatableError) Error() string { return "Unevaluatable" }

var ErrUnevaluatable error = UnevaluatableError{}

// BitwidthMismatchError reports a width contract violation between two
// operands.
type BitwidthMismatchError struct {
	A, B int
}

func (e BitwidthMismatchError) Error() string {
	return fmt.Sprintf("bitwidth mismatch: lhs: %d, rhs: %d", e.A, e.B)
}

// ConstBitwidthMismatchError reports a mismatch between a requested
// constant width and the width actually required.
type ConstBitwidthMismatchError struct {
	Got, Want int
}

func (e ConstBitwidthMismatchError) Error() string {
	return fmt.Sprintf("bitwidth %d does not match the const required bitwidth %d", e.Got, e.Want)
}

// DrivenValueIsNoneError reports a nil operand to Drive; PExternal is the
// other, non-nil operand's external id, if any.
type DrivenValueIsNoneError struct {
	PExternal *uuid.UUID
}

func (e DrivenValueIsNoneError) Error() string {
	if e.PExternal == nil {
		return "an operand to Drive was nil, the other operand was also nil"
	}
	return fmt.Sprintf("an operand to Drive was nil, the other operand was %s", e.PExternal)
}

// NoCurrentlyActiveEpochError indicates an operation requiring an active
// Epoch was called with none active.
type NoCurrentlyActiveEpochError struct{}

func (NoCurrentlyActiveEpochError) Error() string {
	return "there is no Epoch that is currently active"
}

var ErrNoCurrentlyActiveEpoch error = NoCurrentlyActiveEpochError{}

// WrongCurrentlyActiveEpochError indicates an Epoch operation was called
// while a *different* Epoch was active.
type WrongCurrentlyActiveEpochError struct{}

func (WrongCurrentlyActiveEpochError) Error() string {
	return "the currently active Epoch is not the correct one for this operation"
}

var ErrWrongCurrentlyActiveEpoch error = WrongCurrentlyActiveEpochError{}

// InvalidPExternalError indicates an external handle was not found in the
// notary.
type InvalidPExternalError struct {
	PExternal uuid.UUID
}

func (e InvalidPExternalError) Error() string {
	return fmt.Sprintf("could not find RNode corresponding to %s, probably an EvalAwi or LazyAwi was used outside the Epoch it was created in", e.PExternal)
}

// StatePrunedError indicates an RNode's backing state was lowered away or
// pruned before it could be reused.
type StatePrunedError struct {
	PExternal uuid.UUID
}

func (e StatePrunedError) Error() string {
	return fmt.Sprintf("state corresponding to %s was already pruned or optimized away", e.PExternal)
}

// CorrespondenceNotFoundError indicates a routing-time mapping was
// missing.
type CorrespondenceNotFoundError struct {
	PExternal uuid.UUID
}

func (e CorrespondenceNotFoundError) Error() string {
	return fmt.Sprintf("could not find %s in the corresponder", e.PExternal)
}

// OtherStrError wraps an internal-bug catch-all with a fixed message.
func OtherStrError(msg string) error {
	return errors.WithStack(otherStrError(msg))
}

type otherStrError string

func (e otherStrError) Error() string { return string(e) }

// OtherStringError wraps an internal-bug catch-all with a formatted
// message.
func OtherStringError(msg string) error {
	return errors.WithStack(otherStringError(msg))
}

type otherStringError string

func (e otherStringError) Error() string { return string(e) }
