// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNotaryRegisterAndLookup(t *testing.T) {
	n := NewNotary(nil)
	external := uuid.New()
	rnode := PRNode{}
	n.Register(external, 7, rnode)

	got, err := n.Lookup(external, 7)
	require.NoError(t, err)
	require.Equal(t, rnode, got)
}

func TestNotaryLookupUnregisteredFails(t *testing.T) {
	n := NewNotary(nil)
	_, err := n.Lookup(uuid.New(), 1)
	require.Error(t, err)
	var want InvalidPExternalError
	require.ErrorAs(t, err, &want)
}

func TestNotaryLookupWrongEpochFails(t *testing.T) {
	n := NewNotary(nil)
	external := uuid.New()
	n.Register(external, 1, PRNode{})

	_, err := n.Lookup(external, 2)
	require.ErrorIs(t, err, ErrWrongCurrentlyActiveEpoch)
}

func TestNotaryDeregister(t *testing.T) {
	n := NewNotary(nil)
	external := uuid.New()
	n.Register(external, 1, PRNode{})
	n.Deregister(external)

	_, err := n.Lookup(external, 1)
	require.Error(t, err)
}

func TestNotaryDeregisterEpochRemovesOnlyThatEpoch(t *testing.T) {
	n := NewNotary(nil)
	a := uuid.New()
	b := uuid.New()
	n.Register(a, 1, PRNode{})
	n.Register(b, 2, PRNode{})

	n.DeregisterEpoch(1)

	_, err := n.Lookup(a, 1)
	require.Error(t, err)
	got, err := n.Lookup(b, 2)
	require.NoError(t, err)
	require.Equal(t, PRNode{}, got)
}
