// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import (
	"container/heap"
	"encoding/binary"

	"github.com/gaissmai/ensemble/internal/arena"
)

// simplKind orders the four rewrite families by priority: lower values run
// first (§4.E: "cheap deletions precede expensive rewrites").
type simplKind int

const (
	simplRemoveUnused simplKind = iota
	simplConstPropagate
	simplReduceIndependent
	simplMergeEquivalents
)

// simplification is one unit of optimizer work: apply kind to target.
type simplification struct {
	kind   simplKind
	target arena.Handle // an LNode arena handle
	seq    uint64       // enqueue order, the tie-break of the Open Question
}

// simplQueue is a binary min-heap ordered first by kind, then by seq — the
// priority queue of §4.E.
type simplQueue []simplification

func (q simplQueue) Len() int { return len(q) }
func (q simplQueue) Less(i, j int) bool {
	if q[i].kind != q[j].kind {
		return q[i].kind < q[j].kind
	}
	return q[i].seq < q[j].seq
}
func (q simplQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *simplQueue) Push(x any)        { *q = append(*q, x.(simplification)) }
func (q *simplQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// optimizer runs the gas-bounded priority-queue rewrite loop of §4.E over
// one Ensemble.
type optimizer struct {
	e     *Ensemble
	queue simplQueue
	seq   uint64
}

func newOptimizer(e *Ensemble) *optimizer {
	return &optimizer{e: e}
}

func (o *optimizer) enqueue(kind simplKind, target arena.Handle) {
	o.seq++
	heap.Push(&o.queue, simplification{kind: kind, target: target, seq: o.seq})
}

// seedAll enqueues every applicable simplification kind for every live
// LNode, giving the optimizer a full first pass to work from.
func (o *optimizer) seedAll() {
	for h := range o.e.LNodes.All() {
		o.enqueue(simplRemoveUnused, h)
		o.enqueue(simplConstPropagate, h)
		o.enqueue(simplReduceIndependent, h)
	}
	o.seedMerges()
}

// Optimize runs §4.E's rewrite loop to a fixed point or until gas rewrite
// steps have been consumed, whichever comes first.
func (e *Ensemble) Optimize(gas uint64) {
	o := newOptimizer(e)
	o.seedAll()
	var spent uint64
	for o.queue.Len() > 0 && spent < gas {
		item := heap.Pop(&o.queue).(simplification)
		if o.apply(item) {
			spent++
		}
	}
}

// apply performs one simplification, returning whether it actually
// rewrote anything (a no-op dequeue doesn't count against gas).
func (o *optimizer) apply(s simplification) bool {
	node, ok := o.e.LNodes.Get(s.target)
	if !ok {
		return false
	}
	switch s.kind {
	case simplRemoveUnused:
		return o.tryRemoveUnused(s.target, node)
	case simplConstPropagate:
		return o.tryConstPropagate(s.target, node)
	case simplReduceIndependent:
		return o.tryReduceIndependent(s.target, node)
	case simplMergeEquivalents:
		return o.tryMergeInto(s.target, node)
	}
	return false
}

// hasConsumers reports whether class has any non-self key (Input,
// LoopDriver, or ThisRNodeBit) — §4.E RemoveUnused's survival test.
func (o *optimizer) hasConsumers(class PBack) bool {
	for k := range o.e.backrefs.Keys(class) {
		r, ok := o.e.backrefs.Referent(k)
		if ok && !r.isSelfKey() {
			return true
		}
	}
	return false
}

// removeLNode unlinks node's self key and all of its Input back-references
// on its operands, then frees the arena slot. Used both by RemoveUnused
// and to discard a MergeEquivalents loser.
func (o *optimizer) removeLNode(h arena.Handle, node *LNode) {
	for _, in := range node.Inputs {
		findAndRemoveInputKey(o.e, in, h)
	}
	if node.Kind == KindCopy {
		findAndRemoveInputKey(o.e, node.CopyInput, h)
	}
	o.e.backrefs.RemoveKey(node.PSelf)
	o.e.LNodes.Remove(h)
}

// findAndRemoveInputKey removes the Input(h, _) backref key living in
// class's chain, if present.
func findAndRemoveInputKey(e *Ensemble, class PBack, owner arena.Handle) {
	for k := range e.backrefs.Keys(class) {
		r, ok := e.backrefs.Referent(k)
		if ok && r.Kind == Input && r.LNode.h == owner {
			e.backrefs.RemoveKey(k)
			return
		}
	}
}

func (o *optimizer) tryRemoveUnused(h arena.Handle, node *LNode) bool {
	_, rep, ok := o.e.equivOf(node.PSelf)
	if !ok {
		return false
	}
	if o.hasConsumers(rep) {
		return false
	}
	o.removeLNode(h, node)
	return true
}

func (o *optimizer) tryConstPropagate(h arena.Handle, node *LNode) bool {
	if node.Kind != KindLut {
		return false
	}
	bits := make([]bool, len(node.Inputs))
	for i, in := range node.Inputs {
		eq, _, ok := o.e.equivOf(in)
		if !ok || !eq.Val.IsConst() {
			return false
		}
		bits[i] = eq.Val.Bit
	}
	bit := evalLut(node.Table, bits)
	eq, _, ok := o.e.equivOf(node.PSelf)
	if !ok {
		return false
	}
	o.e.algGen++
	eq.Val = ConstValue(bit, o.e.algGen)
	o.removeLNode(h, node)
	return true
}

func (o *optimizer) tryReduceIndependent(h arena.Handle, node *LNode) bool {
	if node.Kind != KindLut || len(node.Inputs) < 2 {
		return false
	}
	n := len(node.Inputs)
	for i := 0; i < n; i++ {
		reduced, ok := reduceIndependentLut(node.Table, n, i)
		if !ok {
			continue
		}
		findAndRemoveInputKey(o.e, node.Inputs[i], h)
		node.Inputs = append(append([]PBack(nil), node.Inputs[:i]...), node.Inputs[i+1:]...)
		node.Table = reduced
		o.enqueue(simplReduceIndependent, h)
		return true
	}
	return false
}

// mergeSig is the structural signature MergeEquivalents groups LNodes by:
// each input's *current class representative* (so two LUTs over
// equivalent-but-not-identical input wires still collapse) plus the table
// bits.
type mergeSig struct {
	numInputs int
	inputs    string // concatenated little-endian rep handles
	table     string
}

func (o *optimizer) signatureOf(node *LNode) (mergeSig, bool) {
	if node.Kind != KindLut {
		return mergeSig{}, false
	}
	buf := make([]byte, 0, len(node.Inputs)*8)
	var tmp [8]byte
	for _, in := range node.Inputs {
		_, rep, ok := o.e.equivOf(in)
		if !ok {
			return mergeSig{}, false
		}
		binary.LittleEndian.PutUint32(tmp[0:4], rep.Index())
		binary.LittleEndian.PutUint32(tmp[4:8], rep.Generation())
		buf = append(buf, tmp[:]...)
	}
	return mergeSig{
		numInputs: len(node.Inputs),
		inputs:    string(buf),
		table:     bitsetSig(node.Table),
	}, true
}

// bitsetSig renders a BitSet's words as a comparable/hashable byte string.
func bitsetSig(b []uint64) string {
	buf := make([]byte, len(b)*8)
	for i, w := range b {
		binary.LittleEndian.PutUint64(buf[i*8:], w)
	}
	return string(buf)
}

// seedMerges groups every Lut LNode by structural signature using an
// OrderedArena (§4.A "ordered arena" / "region advancer") and enqueues a
// MergeEquivalents simplification for every duplicate beyond the first in
// each group.
func (o *optimizer) seedMerges() {
	less := func(a, b mergeSig) bool {
		if a.numInputs != b.numInputs {
			return a.numInputs < b.numInputs
		}
		if a.inputs != b.inputs {
			return a.inputs < b.inputs
		}
		return a.table < b.table
	}

	ordered := arena.NewOrdered[mergeSig, arena.Handle](less)
	for h, node := range o.e.LNodes.All() {
		sig, ok := o.signatureOf(node)
		if !ok {
			continue
		}
		ordered.Insert(sig, h)
	}
	seen := map[arena.Handle]bool{}
	for h := range o.e.LNodes.All() {
		if seen[h] {
			continue
		}
		node, ok := o.e.LNodes.Get(h)
		if !ok {
			continue
		}
		sig, ok := o.signatureOf(node)
		if !ok {
			continue
		}
		first := true
		for rh := range ordered.Region(sig) {
			member, ok := ordered.Get(rh)
			if !ok {
				continue
			}
			if first {
				first = false
				seen[*member] = true
				continue
			}
			if seen[*member] {
				continue
			}
			seen[*member] = true
			o.enqueue(simplMergeEquivalents, *member)
		}
	}
}

// tryMergeInto merges h's output equivalence into whichever other LNode
// currently shares its structural signature, discarding h as the
// redundant producer. If no duplicate remains (an earlier rewrite already
// changed h's shape), this is a no-op.
func (o *optimizer) tryMergeInto(h arena.Handle, node *LNode) bool {
	sig, ok := o.signatureOf(node)
	if !ok {
		return false
	}
	for oh, other := range o.e.LNodes.All() {
		if oh == h {
			continue
		}
		osig, ok := o.signatureOf(other)
		if !ok || osig != sig {
			continue
		}
		_, merged := o.e.backrefs.Union(other.PSelf, node.PSelf)
		if !merged {
			continue
		}
		o.removeLNode(h, node)
		return true
	}
	return false
}
