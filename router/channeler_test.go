// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaissmai/ensemble"
	"github.com/gaissmai/ensemble/internal/arena"
)

func newTestEnsemble() *ensemble.Ensemble {
	return ensemble.New(ensemble.NewNotary(nil))
}

func TestBuildChannelerConcentratesToSingleTop(t *testing.T) {
	e := newTestEnsemble()
	in := e.NewRNode(1, true)
	out := e.NewRNode(1, false)

	c := BuildChanneler(e, nil, nil)
	require.GreaterOrEqual(t, c.Levels(), 1)

	inBits, ok := e.RNodeBits(in)
	require.True(t, ok)
	outBits, ok := e.RNodeBits(out)
	require.True(t, ok)

	srcLeaf, ok := c.LeafFor(inBits[0])
	require.True(t, ok)
	sinkLeaf, ok := c.LeafFor(outBits[0])
	require.True(t, ok)
	require.NotEqual(t, srcLeaf, sinkLeaf)

	top := c.levels[len(c.levels)-1]
	require.Len(t, top, 1, "two unconnected leaves should concentrate to one top node")
}

func TestFindPathReachesSinkThroughConcentration(t *testing.T) {
	e := newTestEnsemble()
	in := e.NewRNode(1, true)
	out := e.NewRNode(1, false)

	c := BuildChanneler(e, nil, nil)
	inBits, _ := e.RNodeBits(in)
	outBits, _ := e.RNodeBits(out)
	src, _ := c.LeafFor(inBits[0])
	sink, _ := c.LeafFor(outBits[0])

	path, steps, found, exhausted := c.findPath(src, sink, 0)
	require.True(t, found)
	require.False(t, exhausted)
	require.Positive(t, steps)
	require.NotEmpty(t, path.Edges())
	require.Equal(t, sink, path.Sink())
}

func TestFindPathSameNodeIsTrivial(t *testing.T) {
	e := newTestEnsemble()
	in := e.NewRNode(1, true)
	c := BuildChanneler(e, nil, nil)
	inBits, _ := e.RNodeBits(in)
	leaf, _ := c.LeafFor(inBits[0])

	path, steps, found, exhausted := c.findPath(leaf, leaf, 0)
	require.True(t, found)
	require.False(t, exhausted)
	require.Zero(t, steps)
	require.Empty(t, path.Edges())
}

func TestFindPathExhaustsGas(t *testing.T) {
	e := newTestEnsemble()
	in := e.NewRNode(1, true)
	out := e.NewRNode(1, false)

	c := BuildChanneler(e, nil, nil)
	inBits, _ := e.RNodeBits(in)
	outBits, _ := e.RNodeBits(out)
	src, _ := c.LeafFor(inBits[0])
	sink, _ := c.LeafFor(outBits[0])

	_, _, found, exhausted := c.findPath(src, sink, 1)
	require.False(t, found)
	require.True(t, exhausted)
}

func TestConfiguratorExcludesConfigBits(t *testing.T) {
	e := newTestEnsemble()
	in := e.NewRNode(1, true)
	inBits, _ := e.RNodeBits(in)

	cfg := excludeAll{bit: inBits[0]}
	c := BuildChanneler(e, cfg, nil)
	_, ok := c.LeafFor(inBits[0])
	require.False(t, ok, "config bit must not get a leaf CNode")
}

type excludeAll struct {
	bit arena.Handle
}

func (x excludeAll) IsConfigBit(h arena.Handle) bool { return h == x.bit }
