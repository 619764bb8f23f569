// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEpochLifecycleNewRNodeSuspendResumeDrop(t *testing.T) {
	notary := NewNotary(nil)
	ep := NewEpoch(notary, nil)
	defer ep.Drop()

	external, err := ep.NewRNode(1, true)
	require.NoError(t, err)

	rnode, err := notary.Lookup(external, ep.id)
	require.NoError(t, err)
	require.True(t, rnode.Valid())

	require.NoError(t, ep.Suspend())
	_, err = ep.NewRNode(1, true)
	require.ErrorIs(t, err, ErrNoCurrentlyActiveEpoch)

	ep.Resume()
	_, err = ep.NewRNode(1, false)
	require.NoError(t, err)
}

func TestEpochRequireActiveRejectsWrongEpoch(t *testing.T) {
	notary := NewNotary(nil)
	a := NewEpoch(notary, nil)
	defer a.Drop()
	b := NewEpoch(notary, nil)
	defer b.Drop()

	// b is now the top of the stack; a is no longer active.
	require.ErrorIs(t, a.Prune(), ErrNoCurrentlyActiveEpoch)
	require.NoError(t, b.Prune())
}

func TestEpochDropDeregistersFromNotary(t *testing.T) {
	notary := NewNotary(nil)
	ep := NewEpoch(notary, nil)

	external, err := ep.NewRNode(1, true)
	require.NoError(t, err)

	ep.Drop()

	_, err = notary.Lookup(external, ep.id)
	require.Error(t, err)
}

func TestEpochAssertAssertionsFailsOnUnevaluatableBit(t *testing.T) {
	notary := NewNotary(nil)
	ep := NewEpoch(notary, nil)
	defer ep.Drop()

	_, err := ep.NewRNode(1, true) // lazy input, never written: stays Unknown
	require.NoError(t, err)

	require.ErrorIs(t, ep.AssertAssertions(), ErrUnevaluatable)
}

func TestEpochOptimizeAndLowerRunUnderActiveEpoch(t *testing.T) {
	notary := NewNotary(nil)
	ep := NewEpoch(notary, nil)
	defer ep.Drop()

	external, err := ep.NewRNode(1, true)
	require.NoError(t, err)
	require.NoError(t, ep.Ensemble().WriteRNode(external, []bool{true}))

	require.NoError(t, ep.Lower())
	require.NoError(t, ep.Optimize(64))
	require.NoError(t, ep.AssertAssertions())
}
