// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package ensemble implements the in-memory DAG of lookup-table nodes, its
// equivalence surjects, demand-driven evaluator, and priority-ordered
// optimizer described by the Ensemble data model.
package ensemble

import (
	"github.com/google/uuid"

	"github.com/gaissmai/ensemble/internal/arena"
	"github.com/gaissmai/ensemble/internal/backref"
	"github.com/gaissmai/ensemble/internal/bitset"
)

// Ensemble is the in-memory graph: arenas of LNodes, TNodes, States, and
// RNodes, the backref surject store tying them into equivalence classes,
// and the monotonic visit generation counter the evaluator stamps values
// with.
type Ensemble struct {
	LNodes *arena.Arena[LNode]
	TNodes *arena.Arena[TNode]
	States *arena.Arena[State]
	RNodes *arena.Arena[RNode]

	backrefs *backref.Store[Referent, Equiv]

	visitGen uint64
	algGen   uint64

	notary *Notary
}

// New returns an empty Ensemble registered with the given notary.
func New(notary *Notary) *Ensemble {
	return &Ensemble{
		LNodes:   arena.New[LNode](),
		TNodes:   arena.New[TNode](),
		States:   arena.New[State](),
		RNodes:   arena.New[RNode](),
		backrefs: backref.New[Referent, Equiv](),
		visitGen: 1,
		algGen:   1,
		notary:   notary,
	}
}

// LenBackrefKeys and LenBackrefVals expose the backref store's size,
// mirroring the teacher's own len()-style accessors and used by tests that
// check optimizer shrinkage.
func (e *Ensemble) LenBackrefKeys() int { return e.backrefs.LenKeys() }
func (e *Ensemble) LenBackrefVals() int { return e.backrefs.LenVals() }

// EachEquivClass calls fn once per live equivalence class with its current
// representative key. Exported for the router package, which builds one
// leaf CNode per routable equivalence (§4.H).
func (e *Ensemble) EachEquivClass(fn func(pback PBack)) {
	e.backrefs.AllClasses(func(rep PBack, _ *Equiv) bool {
		fn(rep)
		return true
	})
}

// EachLNodeIncidence calls fn once per live LNode with its output class's
// representative key and its ordered inputs' class representative keys
// (CopyInput counts as a single-element input list). Exported for the
// router package, which derives CEdges from LUT input/output incidence
// (§4.H).
func (e *Ensemble) EachLNodeIncidence(fn func(output PBack, inputs []PBack)) {
	for _, node := range e.LNodes.All() {
		_, outRep, ok := e.equivOf(node.PSelf)
		if !ok {
			continue
		}
		var rawInputs []PBack
		switch node.Kind {
		case KindCopy:
			rawInputs = []PBack{node.CopyInput}
		case KindLut, KindDynamicLut:
			rawInputs = node.Inputs
		}
		ins := make([]PBack, 0, len(rawInputs))
		for _, in := range rawInputs {
			if _, rep, ok := e.equivOf(in); ok {
				ins = append(ins, rep)
			}
		}
		fn(outRep, ins)
	}
}

// newEquivClass creates a fresh equivalence class (a ThisEquiv representative
// key) and returns both the representative key and its Equiv value pointer.
func (e *Ensemble) newEquivClass() (PEquiv, *Equiv) {
	key := e.backrefs.InsertClass(referentThisEquiv(), Equiv{})
	val, _, _ := e.backrefs.GetVal(key)
	*val = newEquiv(PEquiv{PBack: key})
	return PEquiv{PBack: key}, val
}

// equivOf resolves key to its class's Equiv value and current
// representative.
func (e *Ensemble) equivOf(key PBack) (*Equiv, PBack, bool) {
	return e.backrefs.GetVal(key)
}

// attachLut wires a new LNode.Lut into the class addressed by
// existingClassKey, rather than minting a fresh equivalence — the form
// lowering needs, since the output class already exists (created when its
// owning State was inserted).
func (e *Ensemble) attachLut(existingClassKey PBack, inputs []PBack, table bitset.BitSet) PLNode {
	lh := e.LNodes.Insert(LNode{})
	plnode := PLNode{h: lh}
	selfKey, _ := e.backrefs.InsertKey(existingClassKey, referentThisLNode(plnode))
	node, _ := e.LNodes.Get(lh)
	*node = newLut(selfKey, append([]PBack(nil), inputs...), table)
	for slot, in := range inputs {
		e.backrefs.InsertKey(in, referentInput(plnode, slot))
	}
	return plnode
}

// attachCopy wires a new LNode.Copy into an existing equivalence class; see
// attachLut.
func (e *Ensemble) attachCopy(existingClassKey PBack, input PBack) PLNode {
	lh := e.LNodes.Insert(LNode{})
	plnode := PLNode{h: lh}
	selfKey, _ := e.backrefs.InsertKey(existingClassKey, referentThisLNode(plnode))
	node, _ := e.LNodes.Get(lh)
	*node = newCopy(selfKey, input)
	e.backrefs.InsertKey(input, referentInput(plnode, 0))
	return plnode
}

// attachDynamicLut wires a new LNode.DynamicLut into an existing
// equivalence class; see attachLut.
func (e *Ensemble) attachDynamicLut(existingClassKey PBack, inputs []PBack, tableSources []PBack) PLNode {
	lh := e.LNodes.Insert(LNode{})
	plnode := PLNode{h: lh}
	selfKey, _ := e.backrefs.InsertKey(existingClassKey, referentThisLNode(plnode))
	node, _ := e.LNodes.Get(lh)
	*node = newDynamicLut(selfKey, append([]PBack(nil), inputs...), append([]PBack(nil), tableSources...))
	for slot, in := range inputs {
		e.backrefs.InsertKey(in, referentInput(plnode, slot))
	}
	return plnode
}

// InsertLut creates a new LNode.Lut with the given ordered inputs and truth
// table, binds its output to a fresh equivalence, and returns that
// equivalence's representative key (the handle callers wire up as another
// node's input).
func (e *Ensemble) InsertLut(inputs []PBack, table bitset.BitSet) PBack {
	eqKey, _ := e.newEquivClass()
	e.attachLut(eqKey.PBack, inputs, table)
	return eqKey.PBack
}

// InsertCopy creates a new LNode.Copy of input, bound to a fresh
// equivalence.
func (e *Ensemble) InsertCopy(input PBack) PBack {
	eqKey, _ := e.newEquivClass()
	e.attachCopy(eqKey.PBack, input)
	return eqKey.PBack
}

// InsertTNode creates a new temporal node with the given initial value and
// (optionally invalid) loop driver, bound to a fresh equivalence.
func (e *Ensemble) InsertTNode(init Value, loopDriver PBack) PBack {
	eqKey, _ := e.newEquivClass()
	th := e.TNodes.Insert(TNode{})
	ptnode := PTNode{h: th}
	selfKey, _ := e.backrefs.InsertKey(eqKey.PBack, referentThisTNode(ptnode))
	node, _ := e.TNodes.Get(th)
	*node = newTNode(selfKey, init)
	node.LoopDriver = loopDriver
	if loopDriver.Valid() {
		e.backrefs.InsertKey(loopDriver, referentLoopDriver(ptnode))
	}
	return eqKey.PBack
}

// InsertState creates a new State of the given op over operands, bumping
// each operand's reference count, and returns its arena handle. table is
// only meaningful for OpStaticLut.
func (e *Ensemble) InsertState(op StateOp, bitwidth int, operands []PState, table bitset.BitSet) PState {
	sh := e.States.Insert(State{})
	pstate := PState{h: sh}
	st := newState(pstate, op, bitwidth, operands, table)
	for _, o := range operands {
		if n, ok := e.States.Get(o.h); ok {
			n.incRc()
		}
	}
	for bit := range st.Bits {
		eqKey, _ := e.newEquivClass()
		key, _ := e.backrefs.InsertKey(eqKey.PBack, referentThisStateBit(pstate, bit))
		st.Bits[bit] = key
	}
	node, _ := e.States.Get(sh)
	*node = st
	return pstate
}

// stateBit returns the backref key for bit i of state ps (panics-free;
// returns an invalid PBack if ps or i is out of range).
func (e *Ensemble) stateBit(ps PState, i int) PBack {
	st, ok := e.States.Get(ps.h)
	if !ok || i < 0 || i >= len(st.Bits) {
		return PBack{}
	}
	return st.Bits[i]
}

// NewRNode registers a fresh externally observable n-bit node and returns
// its PExternal (§6 "new_rnode").
func (e *Ensemble) NewRNode(bitwidth int, lazy bool) uuid.UUID {
	external := uuid.New()
	rh := e.RNodes.Insert(RNode{})
	prnode := PRNode{h: rh}
	node, _ := e.RNodes.Get(rh)
	*node = newRNode(prnode, external, bitwidth, lazy)
	for bit := range node.Bits {
		eqKey, _ := e.newEquivClass()
		key, _ := e.backrefs.InsertKey(eqKey.PBack, referentThisRNodeBit(prnode, bit))
		node.Bits[bit] = key
	}
	return external
}

// AttachRoutedCopy wires a Copy LNode from source into sink's existing
// equivalence class, unless sink already has a producing LNode/TNode —
// idempotent against a sink a previous routing pass already wired.
// Exported for the router package's realize step (§4.H).
func (e *Ensemble) AttachRoutedCopy(sink, source PBack) {
	if e.hasProducer(sink) {
		return
	}
	e.attachCopy(sink, source)
}

func (e *Ensemble) hasProducer(key PBack) bool {
	for k := range e.backrefs.Keys(key) {
		r, ok := e.backrefs.Referent(k)
		if ok && (r.Kind == ThisLNode || r.Kind == ThisTNode) {
			return true
		}
	}
	return false
}

// RNodeBits returns, for every bit of the RNode identified by external,
// the current representative key of that bit's equivalence class (the same
// key EachEquivClass reports). Exported for consumers (e.g. the router)
// that need to locate an RNode's underlying equivalence classes directly
// rather than through WriteRNode/ReadRNode.
func (e *Ensemble) RNodeBits(external uuid.UUID) ([]PBack, bool) {
	node, ok := e.lookupRNode(external)
	if !ok {
		return nil, false
	}
	out := make([]PBack, len(node.Bits))
	for i, b := range node.Bits {
		out[i] = b
		if _, rep, ok := e.equivOf(b); ok {
			out[i] = rep
		}
	}
	return out, true
}

// lookupRNode resolves a PExternal through this Ensemble's RNode arena by
// linear scan; real deployments resolve through the Notary (§4.F) which
// this helper backs.
func (e *Ensemble) lookupRNode(external uuid.UUID) (*RNode, bool) {
	for _, n := range e.RNodes.All() {
		if n.PExternal == external {
			return n, true
		}
	}
	return nil, false
}

// WriteRNode assigns bits to a lazy RNode's equivalences, clearing any
// dependent Known values transitively (§6 "write_rnode"). Retro-assigned
// bits are Known, not Const: Const is reserved for provably-monotonic
// values (§3 invariant 3) and, once set, may never revert — a lazy input
// must remain free to be written again by a later WriteRNode.
func (e *Ensemble) WriteRNode(external uuid.UUID, bits []bool) error {
	node, ok := e.lookupRNode(external)
	if !ok {
		return InvalidPExternalError{PExternal: external}
	}
	if len(bits) != len(node.Bits) {
		return BitwidthMismatchError{A: len(bits), B: len(node.Bits)}
	}
	for i, b := range bits {
		key := node.Bits[i]
		if !key.Valid() {
			continue
		}
		e.ChangeValue(key, KnownValue(b, e.visitGen))
	}
	return nil
}

// ReadRNode evaluates and returns every bit of an RNode (§6 "read_rnode").
func (e *Ensemble) ReadRNode(external uuid.UUID) ([]Value, error) {
	node, ok := e.lookupRNode(external)
	if !ok {
		return nil, InvalidPExternalError{PExternal: external}
	}
	out := make([]Value, len(node.Bits))
	for i, key := range node.Bits {
		if !key.Valid() {
			return nil, StatePrunedError{PExternal: external}
		}
		out[i] = e.RequestValue(key)
	}
	return out, nil
}

// AssertBit requires bit i of external to evaluate to expected, returning
// Unevaluatable otherwise (§6 "assert_bit").
func (e *Ensemble) AssertBit(external uuid.UUID, bit int, expected bool) error {
	vals, err := e.ReadRNode(external)
	if err != nil {
		return err
	}
	if bit < 0 || bit >= len(vals) {
		return OtherStringError("assert_bit: bit index out of range")
	}
	v := vals[bit]
	if !v.IsKnown() || v.Bit != expected {
		return ErrUnevaluatable
	}
	return nil
}

// ChangeValue retroactively assigns val to key's class, then invalidates
// every dependent non-const equivalence reachable through Input back-
// references (§4.C "change_value").
func (e *Ensemble) ChangeValue(key PBack, val Value) {
	eq, _, ok := e.equivOf(key)
	if !ok {
		return
	}
	if eq.Val.IsConst() && !val.IsConst() {
		return // invariant §3.3: Const never reverts
	}
	eq.Val = val
	e.invalidateConsumers(key, map[PBack]bool{})
}

// invalidateConsumers walks every Input/LoopDriver consumer of key's class
// and clears their output equivalence back to Unknown, recursing through
// the graph. Const equivalences are never touched (monotonicity).
func (e *Ensemble) invalidateConsumers(key PBack, seen map[PBack]bool) {
	for k := range e.backrefs.Keys(key) {
		r, ok := e.backrefs.Referent(k)
		if !ok {
			continue
		}
		switch r.Kind {
		case Input:
			e.clearOutput(r.LNode, seen)
		case LoopDriver:
			// TNode output is driven only by drive_loops; nothing to clear
			// here, the stale value is overwritten on the next fire.
		}
	}
}

// clearOutput clears the equivalence owned by an LNode's ThisLNode self key
// and recurses to its own consumers.
func (e *Ensemble) clearOutput(plnode PLNode, seen map[PBack]bool) {
	node, ok := e.LNodes.Get(plnode.h)
	if !ok {
		return
	}
	self := node.PSelf
	if seen[self] {
		return
	}
	seen[self] = true
	eq, _, ok := e.equivOf(self)
	if !ok || eq.Val.IsConst() {
		return
	}
	eq.Val = UnknownValue()
	e.invalidateConsumers(self, seen)
}
