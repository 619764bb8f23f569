// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package router builds a multi-level, concentrated Channeler view of a
// stabilized program ensemble and a target ensemble, and routes each
// program bit through the target as a HyperPath.
package router

import (
	"go.uber.org/zap"

	"github.com/gaissmai/ensemble"
	"github.com/gaissmai/ensemble/internal/arena"
	"github.com/gaissmai/ensemble/internal/backref"
)

// Configurator reports which bits of a target ensemble are configuration
// bits (fixed once by the router, not routed as program signal) versus
// signal bits eligible to carry a routed program value (§6.H).
type Configurator interface {
	IsConfigBit(pback arena.Handle) bool
}

// AllSignals is the trivial Configurator: every bit is a signal bit, no
// bit is reserved as configuration.
type AllSignals struct{}

// IsConfigBit always reports false.
func (AllSignals) IsConfigBit(arena.Handle) bool { return false }

// Channeler is the multi-level concentrated view of an ensemble: level 0
// holds one CNode per routable equivalence class, each higher level
// concentrates roughly half as many CNodes as the level below. A CNode has
// no pre-existing equivalence to attach into the way an LNode does — it
// *is* the channeler's unit of equivalence — so CNode values live inside
// the backref store itself as each class's payload (mirroring the
// ensemble package's Equiv, not its LNode), and CEdges get their own plain
// arena since they are not themselves equivalence classes.
type Channeler struct {
	CEdges *arena.Arena[CEdge]

	backrefs *backref.Store[Referent, CNode]

	// levels[i] holds every CNode at level i, in stable build order.
	levels [][]PCNode

	// leafOf maps an ensemble equivalence representative to the level-0
	// CNode built from it.
	leafOf map[arena.Handle]PCNode

	log *zap.Logger
}

// LeafFor returns the level-0 CNode built from the ensemble equivalence
// representative pback, if any (pback is not itself a config bit and was
// live when the Channeler was built).
func (c *Channeler) LeafFor(pback arena.Handle) (PCNode, bool) {
	p, ok := c.leafOf[pback]
	return p, ok
}

// cnode resolves p to its CNode payload.
func (c *Channeler) cnode(p PCNode) (*CNode, bool) {
	val, _, ok := c.backrefs.GetVal(p.h)
	return val, ok
}

// newChanneler returns an empty Channeler.
func newChanneler(log *zap.Logger) *Channeler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Channeler{
		CEdges:   arena.New[CEdge](),
		backrefs: backref.New[Referent, CNode](),
		leafOf:   map[arena.Handle]PCNode{},
		log:      log,
	}
}

// Levels returns the number of concentration levels this Channeler built,
// level 0 being the leaf (unconcentrated) level.
func (c *Channeler) Levels() int { return len(c.levels) }

// newCNode allocates a fresh backref class tagged ThisCNode, populates its
// payload via mk, and returns its handle.
func (c *Channeler) newCNode(mk func(PCNode) CNode) PCNode {
	key := c.backrefs.InsertClass(referentThisCNode(), CNode{})
	p := PCNode{h: key}
	val, _, _ := c.backrefs.GetVal(key)
	*val = mk(p)
	return p
}

// BuildChanneler builds a level-0 CNode for every signal equivalence class
// of target (every class cfg does not mark as a config bit via its
// EnsembleBackRef handle), wires level-0 CEdges from LNode input/output
// incidence, then repeatedly concentrates pairs of same-level CNodes into
// a level above until a single top-level CNode remains or no further
// pairing is possible (§4.H).
func BuildChanneler(target *ensemble.Ensemble, cfg Configurator, log *zap.Logger) *Channeler {
	if cfg == nil {
		cfg = AllSignals{}
	}
	c := newChanneler(log)

	var leafLevel []PCNode

	target.EachEquivClass(func(pback arena.Handle) {
		if cfg.IsConfigBit(pback) {
			return
		}
		p := c.newCNode(func(self PCNode) CNode { return newLeafCNode(self, pback) })
		c.backrefs.InsertKey(p.h, referentEnsembleBackRef(pback))
		c.leafOf[pback] = p
		leafLevel = append(leafLevel, p)
	})
	c.levels = append(c.levels, leafLevel)

	target.EachLNodeIncidence(func(pself arena.Handle, inputs []arena.Handle) {
		sinkNode, ok := c.leafOf[pself]
		if !ok {
			return
		}
		sources := make([]PCNode, 0, len(inputs))
		for _, in := range inputs {
			if sn, ok := c.leafOf[in]; ok {
				sources = append(sources, sn)
			}
		}
		if len(sources) == 0 {
			return
		}
		c.newCEdge(0, sources, sinkNode)
	})

	c.concentrateToFixpoint()
	return c
}

// newCEdge allocates a CEdge at level and records CEdgeIncidence keys on
// every source and the sink.
func (c *Channeler) newCEdge(level int, sources []PCNode, sink PCNode) PCEdge {
	h := c.CEdges.Insert(CEdge{})
	p := PCEdge{h: h}
	node, _ := c.CEdges.Get(h)
	*node = newCEdge(p, level, sources, sink)

	for slot, src := range sources {
		c.backrefs.InsertKey(src.h, referentCEdgeIncidence(p.h, slot, true))
	}
	c.backrefs.InsertKey(sink.h, referentCEdgeIncidence(p.h, -1, false))
	return p
}

// concentrateToFixpoint repeatedly pairs up the current top level's
// CNodes into a level above, halving the node count each time, until a
// single CNode remains or pairing would not shrink the level further.
func (c *Channeler) concentrateToFixpoint() {
	for {
		cur := c.levels[len(c.levels)-1]
		if len(cur) <= 1 {
			return
		}
		next := c.concentrateLevel(cur)
		if len(next) >= len(cur) {
			return
		}
		c.levels = append(c.levels, next)
	}
}

// concentrateLevel pairs consecutive CNodes of cur into super-nodes one
// level up, carrying an odd leftover node up unpaired, and projects every
// CEdge incident on cur's members to the new level, merging duplicate
// projected edges by summing Weight.
func (c *Channeler) concentrateLevel(cur []PCNode) []PCNode {
	level := c.cnodeLevel(cur[0]) + 1
	var next []PCNode
	superOf := map[PCNode]PCNode{}

	for i := 0; i < len(cur); i += 2 {
		var members []PCNode
		members = append(members, cur[i])
		if i+1 < len(cur) {
			members = append(members, cur[i+1])
		}
		super := c.newCNode(func(self PCNode) CNode { return newSuperCNode(self, level) })
		for slot, m := range members {
			// re-fetch each time: InsertKey below may grow the store and
			// move the payload
			superNode, _ := c.cnode(super)
			superNode.addSub(uint(slot), m)
			mNode, _ := c.cnode(m)
			mNode.SuperNode = super
			mNode.SuperSlot = uint(slot)
			c.backrefs.InsertKey(m.h, referentSuperNode())
			c.backrefs.InsertKey(super.h, referentSubNode())
			superOf[m] = super
		}
		next = append(next, super)
	}

	c.projectEdges(cur, superOf, level)
	return next
}

// projectEdges lifts every CEdge whose endpoints lie entirely within cur's
// level to the corresponding super-nodes at level, merging duplicates.
func (c *Channeler) projectEdges(cur []PCNode, superOf map[PCNode]PCNode, level int) {
	seen := map[PCEdge]struct{}{}
	merged := map[[2]PCNode]PCEdge{} // keyed by (sink, first source) for simple de-dup

	for _, n := range cur {
		for k := range c.backrefs.Keys(n.h) {
			r, ok := c.backrefs.Referent(k)
			if !ok || r.Kind != CEdgeIncidence || r.IsSource {
				continue
			}
			edgeH := r.CEdge
			if _, done := seen[PCEdge{h: edgeH}]; done {
				continue
			}
			seen[PCEdge{h: edgeH}] = struct{}{}

			edge, ok := c.CEdges.Get(edgeH)
			if !ok || edge.Level != level-1 {
				continue
			}
			sinkSuper, ok := superOf[edge.Sink]
			if !ok {
				continue
			}
			sources := make([]PCNode, 0, len(edge.Sources))
			for _, s := range edge.Sources {
				if ss, ok := superOf[s]; ok {
					sources = append(sources, ss)
				}
			}
			if len(sources) == 0 {
				continue
			}
			key := [2]PCNode{sinkSuper, sources[0]}
			if existing, ok := merged[key]; ok {
				existingEdge, _ := c.CEdges.Get(existing.h)
				existingEdge.Weight += edge.Weight
				continue
			}
			p := c.newCEdge(level, sources, sinkSuper)
			merged[key] = p
		}
	}
}

// neighbors returns every Edge reachable from n in one step: Transverse
// across a CEdge n is a source of, Concentrate to n's SuperNode, and
// Dilute to each of n's SubNodes.
func (c *Channeler) neighbors(n PCNode) []Edge {
	var out []Edge
	for k := range c.backrefs.Keys(n.h) {
		r, ok := c.backrefs.Referent(k)
		if !ok || r.Kind != CEdgeIncidence || !r.IsSource {
			continue
		}
		edge, ok := c.CEdges.Get(r.CEdge)
		if !ok {
			continue
		}
		out = append(out, newTransverseEdge(PCEdge{h: r.CEdge}, r.Slot, edge.Sink))
	}
	node, ok := c.cnode(n)
	if !ok {
		return out
	}
	if node.SuperNode.Valid() {
		out = append(out, newEdge(Concentrate, node.SuperNode))
	}
	for _, sub := range node.SubNodes.Items {
		out = append(out, newEdge(Dilute, sub))
	}
	return out
}

// findPath runs a breadth-first search from src to sink over the
// Channeler's graph (§4.H "route produces... a hyperpath"), spending at
// most gas node-expansions (0 means unbounded). Returns the discovered
// path, the number of expansions actually spent, and whether sink was
// reached.
func (c *Channeler) findPath(src, sink PCNode, gas uint64) (path Path, steps uint64, found, exhausted bool) {
	if src == sink {
		return Path{source: src, sink: sink}, 0, true, false
	}

	type queued struct {
		node PCNode
		via  Edge
		prev *queued
	}

	visited := map[PCNode]bool{src: true}
	queue := []*queued{{node: src}}

	for len(queue) > 0 {
		if gas != 0 && steps >= gas {
			return Path{}, steps, false, true
		}
		cur := queue[0]
		queue = queue[1:]
		steps++

		for _, edge := range c.neighbors(cur.node) {
			if visited[edge.To] {
				continue
			}
			visited[edge.To] = true
			nq := &queued{node: edge.To, via: edge, prev: cur}
			if edge.To == sink {
				var edges []Edge
				for q := nq; q.prev != nil; q = q.prev {
					edges = append(edges, q.via)
				}
				for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
					edges[i], edges[j] = edges[j], edges[i]
				}
				return Path{source: src, sink: sink, edges: edges}, steps, true, false
			}
			queue = append(queue, nq)
		}
	}
	return Path{}, steps, false, false
}

func (c *Channeler) cnodeLevel(p PCNode) int {
	n, ok := c.cnode(p)
	if !ok {
		return 0
	}
	return n.Level
}
