// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package router

import "github.com/gaissmai/ensemble/internal/arena"

// PCEdge is a typed handle to a CEdge.
type PCEdge struct {
	h arena.Handle
}

// Valid reports whether h addresses a (possibly stale) slot at all.
func (p PCEdge) Valid() bool { return p.h.Valid() }

// CEdge is a possibly-weighted connection between CNodes on the same
// level, derived from one LNode's input/output incidence: Sources mirror
// the LNode's ordered inputs, Sink its single output.
type CEdge struct {
	PSelf PCEdge

	Level int

	Sources []PCNode
	Sink    PCNode

	// Weight is a routing cost hint; 1 per source by default, higher when
	// an edge has been concentrated from several merged lower-level edges.
	Weight int
}

func newCEdge(self PCEdge, level int, sources []PCNode, sink PCNode) CEdge {
	return CEdge{
		PSelf:   self,
		Level:   level,
		Sources: append([]PCNode(nil), sources...),
		Sink:    sink,
		Weight:  len(sources),
	}
}
