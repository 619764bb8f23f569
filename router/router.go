// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package router

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gaissmai/ensemble"
	"github.com/gaissmai/ensemble/internal/arena"
)

// mapKind distinguishes the two correspondence directions a Router tracks.
type mapKind byte

const (
	mapLazyKind mapKind = iota
	mapEvalKind
)

type mapping struct {
	kind            mapKind
	programExternal uuid.UUID
	targetExternal  uuid.UUID
}

// Router reads a stabilized program ensemble and routes its mapped
// input/output bits through a target ensemble's Channeler, per §4.H.
type Router struct {
	program *ensemble.Ensemble
	target  *ensemble.Ensemble

	channeler *Channeler

	mappings   []mapping
	hyperpaths map[uuid.UUID]HyperPath

	log *zap.Logger
}

// NewRouter builds a Channeler over target (excluding cfg's config bits)
// and returns a Router ready to accept MapLazy/MapEval correspondences.
func NewRouter(program, target *ensemble.Ensemble, cfg Configurator, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		program:    program,
		target:     target,
		channeler:  BuildChanneler(target, cfg, log),
		hyperpaths: map[uuid.UUID]HyperPath{},
		log:        log,
	}
}

// Channeler returns the Router's underlying concentrated view of target.
func (r *Router) Channeler() *Channeler { return r.channeler }

// MapLazy records that programExternal (a program LazyAwi) corresponds to
// targetExternal (a target LazyAwi, a fabric input). Both must exist and
// agree in bitwidth.
func (r *Router) MapLazy(programExternal, targetExternal uuid.UUID) error {
	return r.addMapping(mapLazyKind, programExternal, targetExternal)
}

// MapEval records that programExternal (a program EvalAwi) corresponds to
// targetExternal (a target EvalAwi, a fabric output). Both must exist and
// agree in bitwidth.
func (r *Router) MapEval(programExternal, targetExternal uuid.UUID) error {
	return r.addMapping(mapEvalKind, programExternal, targetExternal)
}

func (r *Router) addMapping(kind mapKind, programExternal, targetExternal uuid.UUID) error {
	pBits, ok := r.program.RNodeBits(programExternal)
	if !ok {
		return ensemble.InvalidPExternalError{PExternal: programExternal}
	}
	tBits, ok := r.target.RNodeBits(targetExternal)
	if !ok {
		return ensemble.InvalidPExternalError{PExternal: targetExternal}
	}
	if len(pBits) != len(tBits) {
		return ensemble.BitwidthMismatchError{A: len(pBits), B: len(tBits)}
	}
	r.mappings = append(r.mappings, mapping{kind: kind, programExternal: programExternal, targetExternal: targetExternal})
	return nil
}

// Route finds, for every MapLazy/MapEval pair sharing the same program
// external across a lazy/eval pair, a HyperPath per bit through the
// Channeler from the target lazy bit's leaf CNode to the target eval bit's
// leaf CNode, then realizes it by wiring a Copy chain between the leaf
// CNodes the path passes through (§4.H "route pure copy"). gas bounds the
// total BFS work across all bits; exhausting it yields
// CapacityExhaustedError.
func (r *Router) Route(gas uint64) error {
	lazyByProgram := map[uuid.UUID]uuid.UUID{}
	evalByProgram := map[uuid.UUID]uuid.UUID{}
	var order []uuid.UUID
	for _, m := range r.mappings {
		switch m.kind {
		case mapLazyKind:
			if _, ok := lazyByProgram[m.programExternal]; !ok {
				order = append(order, m.programExternal)
			}
			lazyByProgram[m.programExternal] = m.targetExternal
		case mapEvalKind:
			evalByProgram[m.programExternal] = m.targetExternal
		}
	}

	used := uint64(0)
	for _, progExt := range order {
		targetLazyExt, hasLazy := lazyByProgram[progExt]
		targetEvalExt, hasEval := evalByProgram[progExt]
		if !hasLazy || !hasEval {
			continue
		}
		lazyBits, _ := r.target.RNodeBits(targetLazyExt)
		evalBits, _ := r.target.RNodeBits(targetEvalExt)

		hp := NewHyperPath(r.leafMust(lazyBits[0]))
		for bit := range lazyBits {
			src, ok := r.channeler.LeafFor(lazyBits[bit])
			if !ok {
				return UnreachableSinkError{Bit: bit}
			}
			sink, ok := r.channeler.LeafFor(evalBits[bit])
			if !ok {
				return UnreachableSinkError{Bit: bit}
			}
			remaining := uint64(0)
			if gas != 0 {
				if used >= gas {
					return CapacityExhaustedError{GasUsed: used}
				}
				remaining = gas - used
			}
			path, steps, found, exhausted := r.channeler.findPath(src, sink, remaining)
			used += steps
			if !found {
				if exhausted {
					return CapacityExhaustedError{GasUsed: used}
				}
				return UnreachableSinkError{Bit: bit}
			}
			r.realize(path)
			hp.Push(path)
		}
		r.hyperpaths[progExt] = hp
	}
	return nil
}

func (r *Router) leafMust(pback arena.Handle) PCNode {
	p, _ := r.channeler.LeafFor(pback)
	return p
}

// HyperPathFor returns the routed HyperPath for the program RNode
// identified by programExternal, if Route has run successfully for it.
func (r *Router) HyperPathFor(programExternal uuid.UUID) (HyperPath, bool) {
	hp, ok := r.hyperpaths[programExternal]
	return hp, ok
}

// realize wires a Copy LNode from the last real leaf touched to every new
// leaf path passes through, so that evaluating the sink's equivalence
// reproduces the source's value end to end. Concentrate/Dilute steps are
// bookkeeping over the Channeler's hierarchy, not physical connections, so
// they carry the current leaf forward unchanged rather than breaking the
// chain; only a leaf CNode (Level 0) has an EnsembleBackRef to wire.
func (r *Router) realize(path Path) {
	at := r.ensembleBackRefOf(path.Source())
	for _, e := range path.Edges() {
		toBackRef := r.ensembleBackRefOf(e.To)
		if !toBackRef.Valid() {
			continue // super-node hop, nothing to wire yet
		}
		if at.Valid() && toBackRef != at {
			r.target.AttachRoutedCopy(toBackRef, at)
		}
		at = toBackRef
	}
}

func (r *Router) ensembleBackRefOf(n PCNode) arena.Handle {
	node, ok := r.channeler.cnode(n)
	if !ok || node.Level != 0 {
		return arena.Handle{}
	}
	return node.EnsembleBackRef
}
