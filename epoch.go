// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package ensemble

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// epochStack is the process-wide active-epoch stack. Go has no
// goroutine-local storage, so unlike a thread-scoped stack this is a
// single shared stack guarded by a mutex: callers that need independent
// concurrent epochs must not share a process, matching how the rest of
// this package already treats the Notary as the one process-wide
// singleton (§9 "Global mutable state").
var epochStack struct {
	mu     sync.Mutex
	stack  []*Epoch
	nextID uint64
}

// Epoch is a lifecycle-scoped Ensemble: construction pushes it active,
// Suspend/Resume move it in and out of activeness, and dropping it
// deregisters every RNode it owns from the Notary (§4.G).
type Epoch struct {
	id       uint64
	ensemble *Ensemble
	notary   *Notary
	log      *zap.Logger
	active   bool
}

// NewEpoch pushes a fresh Epoch onto the active stack and returns it.
func NewEpoch(notary *Notary, log *zap.Logger) *Epoch {
	if log == nil {
		log = zap.NewNop()
	}
	epochStack.mu.Lock()
	epochStack.nextID++
	id := epochStack.nextID
	epochStack.mu.Unlock()

	ep := &Epoch{id: id, ensemble: New(notary), notary: notary, log: log, active: true}
	epochStack.mu.Lock()
	epochStack.stack = append(epochStack.stack, ep)
	epochStack.mu.Unlock()
	return ep
}

// activeEpoch returns the top of the active-epoch stack, or nil if none.
func activeEpoch() *Epoch {
	epochStack.mu.Lock()
	defer epochStack.mu.Unlock()
	if n := len(epochStack.stack); n > 0 {
		return epochStack.stack[n-1]
	}
	return nil
}

// requireActive returns NoCurrentlyActiveEpoch unless ep is the currently
// active epoch.
func (ep *Epoch) requireActive() error {
	if activeEpoch() != ep || !ep.active {
		return ErrNoCurrentlyActiveEpoch
	}
	return nil
}

// Ensemble returns a read/write view of this epoch's Ensemble. Callers
// outside this package are expected to treat it as read-only except
// through the methods this file exposes, per §4.C's contract.
func (ep *Epoch) Ensemble() *Ensemble { return ep.ensemble }

// Suspend marks ep inactive and pops it from the active stack, preserving
// its Ensemble so it can later be passed to a router or Resumed. Requires
// no pending state lowering to keep the invariant that a suspended
// Ensemble is self-consistent.
func (ep *Epoch) Suspend() error {
	if err := ep.requireActive(); err != nil {
		return err
	}
	epochStack.mu.Lock()
	defer epochStack.mu.Unlock()
	n := len(epochStack.stack)
	if n == 0 || epochStack.stack[n-1] != ep {
		return ErrWrongCurrentlyActiveEpoch
	}
	epochStack.stack = epochStack.stack[:n-1]
	ep.active = false
	return nil
}

// Resume pushes ep back onto the active stack.
func (ep *Epoch) Resume() {
	epochStack.mu.Lock()
	defer epochStack.mu.Unlock()
	epochStack.stack = append(epochStack.stack, ep)
	ep.active = true
}

// Drop drains ep's Ensemble and deregisters every RNode it owns from the
// Notary. ep must not be used afterward.
func (ep *Epoch) Drop() {
	epochStack.mu.Lock()
	for i := len(epochStack.stack) - 1; i >= 0; i-- {
		if epochStack.stack[i] == ep {
			epochStack.stack = append(epochStack.stack[:i], epochStack.stack[i+1:]...)
			break
		}
	}
	epochStack.mu.Unlock()
	if ep.notary != nil {
		ep.notary.DeregisterEpoch(ep.id)
	}
	ep.active = false
}

// NewRNode registers a new RNode with this epoch's Ensemble and Notary and
// returns its PExternal.
func (ep *Epoch) NewRNode(bitwidth int, lazy bool) (uuid.UUID, error) {
	if err := ep.requireActive(); err != nil {
		return uuid.UUID{}, err
	}
	external := ep.ensemble.NewRNode(bitwidth, lazy)
	rnode, _ := ep.ensemble.lookupRNode(external)
	if ep.notary != nil {
		ep.notary.Register(external, ep.id, rnode.PSelf)
	}
	return external, nil
}

// Prune runs Ensemble.Prune (§4.C "prune"): it removes every
// not-yet-lowered State whose Rc is zero and none of whose bit keys is
// still live. It does not trace reachability from RNodes and removes no
// equivalence classes.
func (ep *Epoch) Prune() error {
	if err := ep.requireActive(); err != nil {
		return err
	}
	ep.ensemble.Prune()
	return nil
}

// Lower forces lowering of every not-yet-lowered state reachable from an
// RNode, by requesting each RNode bit's value (which lazily lowers on
// demand per §4.D).
func (ep *Epoch) Lower() error {
	if err := ep.requireActive(); err != nil {
		return err
	}
	for _, node := range ep.ensemble.RNodes.All() {
		for _, bit := range node.Bits {
			if bit.Valid() {
				ep.ensemble.RequestValue(bit)
			}
		}
	}
	return nil
}

// Optimize runs the optimizer to a fixed point or gas exhaustion.
func (ep *Epoch) Optimize(gas uint64) error {
	if err := ep.requireActive(); err != nil {
		return err
	}
	ep.ensemble.Optimize(gas)
	return nil
}

// AssertAssertions evaluates every RNode bit and requires it to be Known;
// a lowering or construction bug that leaves a bit permanently Unknown
// surfaces here instead of silently propagating.
func (ep *Epoch) AssertAssertions() error {
	if err := ep.requireActive(); err != nil {
		return err
	}
	for _, node := range ep.ensemble.RNodes.All() {
		for _, bit := range node.Bits {
			if !bit.Valid() {
				continue
			}
			if v := ep.ensemble.RequestValue(bit); !v.IsKnown() {
				return ErrUnevaluatable
			}
		}
	}
	return nil
}

// DriveLoops fires every TNode once: all reads happen before any write, so
// a loop net's next-state function sees only the previous cycle's values
// (§4.C "drive_loops").
func (ep *Epoch) DriveLoops() error {
	if err := ep.requireActive(); err != nil {
		return err
	}
	ep.ensemble.DriveLoops()
	return nil
}
