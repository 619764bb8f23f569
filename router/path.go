// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package router

// EdgeKind is the method of traversal one Edge of a Path takes, ported
// from original_source/starlight/src/route/path.rs.
type EdgeKind byte

const (
	// Transverse crosses a CEdge between CNodes on the same level. Slot,
	// when present, names which of the CEdge's Sources this traversal
	// entered from.
	Transverse EdgeKind = iota
	// Concentrate moves to the higher level CNode that concentrates this
	// one.
	Concentrate
	// Dilute moves to one of the lower level CNodes this one concentrates.
	Dilute
)

// Edge is one step of a Path: the method of traversal and the CNode it
// reaches. For Concentrate/Dilute steps, To can be derived from the
// previous step's CNode, but is carried explicitly for uniform iteration.
type Edge struct {
	Kind EdgeKind
	Edge PCEdge // meaningful only when Kind == Transverse
	Slot int    // meaningful only when Kind == Transverse; -1 if absent
	To   PCNode
}

func newEdge(kind EdgeKind, to PCNode) Edge {
	return Edge{Kind: kind, To: to, Slot: -1}
}

func newTransverseEdge(edge PCEdge, slot int, to PCNode) Edge {
	return Edge{Kind: Transverse, Edge: edge, Slot: slot, To: to}
}

// Path is a single path from a source to a sink, crossing zero or more
// CEdges and level changes.
type Path struct {
	source PCNode
	sink   PCNode
	edges  []Edge
}

// NewPath returns an empty Path from source ending at sink.
func NewPath(source, sink PCNode) Path {
	return Path{source: source, sink: sink}
}

// Source returns the CNode this path departs from.
func (p Path) Source() PCNode { return p.source }

// Sink returns the CNode this path terminates at.
func (p Path) Sink() PCNode { return p.sink }

// Edges returns the ordered steps of this path.
func (p Path) Edges() []Edge { return p.edges }

// Push appends one step to the path.
func (p *Path) Push(e Edge) { p.edges = append(p.edges, e) }

// Extend appends several steps to the path.
func (p *Path) Extend(es []Edge) { p.edges = append(p.edges, es...) }

// HyperPath is the routed form of one program bit: one source CNode and
// the (possibly several, differently prioritized) Paths fanning out to its
// sinks.
type HyperPath struct {
	source PCNode
	paths  []Path
}

// NewHyperPath returns an empty HyperPath rooted at source.
func NewHyperPath(source PCNode) HyperPath {
	return HyperPath{source: source}
}

// Source returns the CNode this hyperpath originates from.
func (h HyperPath) Source() PCNode { return h.source }

// Push appends one path to the hyperpath.
func (h *HyperPath) Push(p Path) { h.paths = append(h.paths, p) }

// Paths returns every path of this hyperpath.
func (h HyperPath) Paths() []Path { return h.paths }
