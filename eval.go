// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

// RequestValue evaluates one observable equivalence, starting a fresh
// visit generation (§4.C "request_value"). The combinational graph is
// acyclic (§3 invariant 6), so the walk is expressed as ordinary recursion
// rather than an explicit stack machine; an in-progress set of class
// representatives detects any accidental cycle and reports Unknown for it
// rather than stack-overflow or loop forever.
func (e *Ensemble) RequestValue(key PBack) Value {
	e.visitGen++
	return e.resolveClass(key, e.visitGen, make(map[PBack]bool))
}

// resolveClass walks key's equivalence class chain looking for a
// ThisLNode/ThisTNode that can resolve a value, or a ThisStateBit that
// needs lowering first, restarting the walk after a lowering pass. It
// mirrors the iterative algorithm of §4.D one-for-one, just expressed with
// the call stack standing in for the explicit frame stack.
func (e *Ensemble) resolveClass(key PBack, visit uint64, inProgress map[PBack]bool) Value {
	eq, rep, ok := e.equivOf(key)
	if !ok {
		return UnknownValue()
	}
	if eq.Val.IsConst() {
		return eq.Val
	}
	if eq.Val.ResolvedAt(visit) {
		return eq.Val
	}
	if inProgress[rep] {
		// cycle guard: reachable only through a combinational path that
		// loops back on itself, which §3 invariant 6 forbids outside of
		// a TNode.loop_driver edge; report Unknown rather than recurse
		// forever.
		return UnknownValue()
	}
	if eq.EvaluatorPartialOrder == 0 {
		eq.EvaluatorPartialOrder = 1
	}
	inProgress[rep] = true
	defer delete(inProgress, rep)

	var recordedState PState
	haveState := false
	resolved := false
	var result Value

	for k := range e.backrefs.Keys(rep) {
		r, ok := e.backrefs.Referent(k)
		if !ok {
			continue
		}
		switch r.Kind {
		case ThisLNode:
			if node, ok := e.LNodes.Get(r.LNode.h); ok {
				if v, ok := e.evalLNode(node, visit, inProgress); ok {
					result = v
					resolved = true
				}
			}
		case ThisTNode:
			if node, ok := e.TNodes.Get(r.TNode.h); ok {
				v := node.Val
				v.KnownSince = visit
				result = v
				resolved = true
			}
		case ThisStateBit:
			// an already-lowered state has nothing left to lower; its
			// leftover key must not trigger another lowering pass
			if st, ok := e.States.Get(r.State.h); ok && !st.Lowered {
				recordedState = r.State
				haveState = true
			}
		}
		if resolved {
			break
		}
	}

	if resolved {
		eq.Val = result
		eq.AlgVisit = visit
		return eq.Val
	}

	if haveState {
		e.lowerState(recordedState)
		delete(inProgress, rep)
		return e.resolveClass(key, visit, inProgress)
	}

	// No producer at all: rep is a primary input (an RNode bit retro-
	// assigned via WriteRNode/ChangeValue, never wired to an LNode/TNode).
	// Its value does not get recomputed, only explicitly overwritten, so a
	// stale KnownSince must not be treated as "needs re-deriving" the way a
	// produced equivalence's would; just re-stamp it fresh for this visit.
	if eq.Val.Kind != Unknown {
		eq.Val.KnownSince = visit
		return eq.Val
	}

	eq.Val = Value{Kind: Unknown, KnownSince: visit}
	return eq.Val
}

// evalLNode resolves node's inputs (recursively) and applies its kind's
// rule, returning ok=false if the output remains Unevaluatable in the
// Unknown sense (i.e. it legitimately has no value this visit, which is
// still "resolved" — ok is only false when no rule applied at all, which
// does not happen for any well-formed LNode).
func (e *Ensemble) evalLNode(node *LNode, visit uint64, inProgress map[PBack]bool) (Value, bool) {
	switch node.Kind {
	case KindCopy:
		v := e.resolveClass(node.CopyInput, visit, inProgress)
		v.KnownSince = visit
		return v, true

	case KindLut:
		return e.evalLut(node, visit, inProgress), true

	case KindDynamicLut:
		return e.evalDynamicLut(node, visit, inProgress), true
	}
	return UnknownValue(), false
}

// evalLut resolves every input, repeatedly folding away inputs the table
// is structurally independent of when their value is still Unknown (§4.D
// "LUT application"), and indexes the remaining table once every
// surviving input is Known.
func (e *Ensemble) evalLut(node *LNode, visit uint64, inProgress map[PBack]bool) Value {
	vals := make([]Value, len(node.Inputs))
	for i, in := range node.Inputs {
		vals[i] = e.resolveClass(in, visit, inProgress)
	}

	table := node.Table
	n := len(vals)
	for i := 0; i < n; {
		if vals[i].IsKnown() {
			i++
			continue
		}
		reduced, ok := reduceIndependentLut(table, n, i)
		if !ok {
			return Value{Kind: Unknown, KnownSince: visit}
		}
		table = reduced
		vals = append(vals[:i], vals[i+1:]...)
		n--
	}

	bits := make([]bool, len(vals))
	for i, v := range vals {
		bits[i] = v.Bit
	}
	isConst := true
	for _, v := range vals {
		if !v.IsConst() {
			isConst = false
			break
		}
	}
	bit := evalLut(table, bits)
	if isConst {
		return ConstValue(bit, visit)
	}
	return KnownValue(bit, visit)
}

// evalDynamicLut resolves the (assumed fully known) inputs to an index
// into TableSources, then resolves that single selected equivalence as the
// output.
func (e *Ensemble) evalDynamicLut(node *LNode, visit uint64, inProgress map[PBack]bool) Value {
	idx := uint(0)
	for i, in := range node.Inputs {
		v := e.resolveClass(in, visit, inProgress)
		if !v.IsKnown() {
			return Value{Kind: Unknown, KnownSince: visit}
		}
		if v.Bit {
			idx |= 1 << uint(i)
		}
	}
	if int(idx) >= len(node.TableSources) {
		return Value{Kind: Unknown, KnownSince: visit}
	}
	v := e.resolveClass(node.TableSources[idx], visit, inProgress)
	v.KnownSince = visit
	return v
}
