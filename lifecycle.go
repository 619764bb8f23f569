// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

// Prune removes every State whose Rc is zero and whose bits are not
// referenced by any live backref key (§4.C "prune", §4.E "State
// pruning"). Runs to a fixed point since removing one state can zero out
// its operands' reference counts in turn.
func (e *Ensemble) Prune() {
	for {
		removedAny := false
		for h, st := range e.States.All() {
			if st.Lowered {
				continue
			}
			if !st.prunable(e.backrefs.Contains) {
				continue
			}
			for _, b := range st.Bits {
				if b.Valid() {
					e.backrefs.RemoveKey(b)
				}
			}
			for _, o := range st.Operands {
				if n, ok := e.States.Get(o.h); ok {
					n.decRc()
				}
			}
			e.States.Remove(h)
			removedAny = true
		}
		if !removedAny {
			return
		}
	}
}

// DriveLoops fires every TNode's loop_driver edge: all inputs are
// evaluated first, then every TNode's register value is written, so a
// cyclic loop net sees only the prior cycle's state (§4.C "drive_loops").
// Idempotent when no loop driver's resolved value changes between calls
// (§8 property 6), since fire always writes the same Value it just read.
func (e *Ensemble) DriveLoops() {
	type firing struct {
		node *TNode
		val  Value
	}
	var fires []firing

	for _, node := range e.TNodes.All() {
		if !node.hasLoopDriver() {
			continue
		}
		fires = append(fires, firing{node: node, val: e.RequestValue(node.LoopDriver)})
	}
	e.visitGen++
	for _, f := range fires {
		f.node.fire(f.val, e.visitGen)
	}
}
