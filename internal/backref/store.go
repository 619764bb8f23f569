// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package backref implements the many-to-one backref surject store of
// §4.B: a set of keys ("backrefs") partitioned into classes that each
// share one payload value. It layers a classic union-find (disjoint-set,
// path-compressed forwarding pointers) over arena.ChainArena's O(1)
// doubly-linked lists: the chain gives O(1) iteration/removal-with-
// promotion, the forwarding pointers give amortized O(1) value lookup and
// O(1) union, together realizing the surject's full contract.
package backref

import "github.com/gaissmai/ensemble/internal/arena"

// Key is an opaque handle into the store; spec's generic PBack.
type Key = arena.Handle

type slotData[R any, V any] struct {
	referent R
	val      V // meaningful only when isRep
	parent   Key
	isRep    bool
}

// Store is a backref surject store: keys of type Key carry a caller-chosen
// referent tag R, and all keys of one class share one value V.
type Store[R any, V any] struct {
	chain      *arena.ChainArena[slotData[R, V]]
	classCount int
}

// New returns an empty Store.
func New[R any, V any]() *Store[R, V] {
	return &Store[R, V]{chain: arena.NewChain[slotData[R, V]]()}
}

// InsertClass creates a new class with one key tagged referent and payload
// value, and returns that key (the class representative).
func (s *Store[R, V]) InsertClass(referent R, value V) Key {
	h := s.chain.InsertNew(slotData[R, V]{referent: referent, val: value, isRep: true})
	slot, _ := s.chain.Get(h)
	slot.parent = h
	s.classCount++
	return h
}

// InsertKey adds a new member, tagged referent, to the class that
// existingClassKey belongs to. O(1).
func (s *Store[R, V]) InsertKey(existingClassKey Key, referent R) (Key, bool) {
	h, ok := s.chain.InsertAfter(existingClassKey, slotData[R, V]{referent: referent, parent: existingClassKey})
	return h, ok
}

// resolve follows forwarding pointers from h to h's class representative,
// path-compressing as it goes. ok is false only if h itself is stale.
func (s *Store[R, V]) resolve(h Key) (rep Key, slot *slotData[R, V], ok bool) {
	cur := h
	for {
		cs, present := s.chain.Get(cur)
		if !present {
			// the cached forwarding pointer went stale, most likely
			// because the old representative was removed and promotion
			// retargeted a *different* member of the same list. Fall
			// back to scanning h's own circular chain for whichever
			// member currently carries the representative flag.
			for m := range s.chain.Members(h) {
				ms, _ := s.chain.Get(m)
				if ms.isRep {
					if hs, hok := s.chain.Get(h); hok {
						hs.parent = m
					}
					return m, ms, true
				}
			}
			return h, nil, false
		}
		if cs.isRep {
			if cur != h {
				if hs, hok := s.chain.Get(h); hok {
					hs.parent = cur
				}
			}
			return cur, cs, true
		}
		cur = cs.parent
	}
}

// GetVal returns a pointer to the value of h's class, and the class's
// current representative key.
func (s *Store[R, V]) GetVal(h Key) (*V, Key, bool) {
	rep, slot, ok := s.resolve(h)
	if !ok {
		return nil, Key{}, false
	}
	return &slot.val, rep, true
}

// Referent returns the referent tag h was inserted with.
func (s *Store[R, V]) Referent(h Key) (R, bool) {
	slot, ok := s.chain.Get(h)
	if !ok {
		var zero R
		return zero, false
	}
	return slot.referent, true
}

// Contains reports whether h addresses a live key.
func (s *Store[R, V]) Contains(h Key) bool {
	_, ok := s.chain.Get(h)
	return ok
}

// Union merges the classes of a and b, keeping a's class as the survivor.
// O(1): splices the two circular lists and retargets b's representative
// slot; other members of b's former class are repointed lazily on their
// next GetVal. Returns ok=false if a and b are the same key (forbidden
// duplicate self-referent) or either is stale.
func (s *Store[R, V]) Union(a, b Key) (survivor Key, ok bool) {
	if a == b {
		return a, false
	}
	ra, _, oka := s.resolve(a)
	rb, sb, okb := s.resolve(b)
	if !oka || !okb {
		return Key{}, false
	}
	if ra == rb {
		// already the same class
		return ra, true
	}
	if !s.chain.SpliceInto(ra, rb) {
		return Key{}, false
	}
	sb.isRep = false
	sb.parent = ra
	var zero V
	sb.val = zero
	s.classCount--
	return ra, true
}

// RemoveKey removes h. If h was its class's representative and other
// members remain, the next key in the chain is promoted to representative
// and inherits the class's value. Returns classEmptied=true if h was the
// last member of its class.
func (s *Store[R, V]) RemoveKey(h Key) (classEmptied bool, ok bool) {
	rep, repSlot, ok0 := s.resolve(h)
	if !ok0 {
		return false, false
	}
	wasRep := h == rep
	var savedVal V
	if wasRep {
		savedVal = repSlot.val
	}
	next, _ := s.chain.Next(h)
	_, emptied, ok1 := s.chain.Remove(h)
	if !ok1 {
		return false, false
	}
	if emptied {
		if wasRep {
			s.classCount--
		}
		return true, true
	}
	if wasRep {
		nextSlot, _ := s.chain.Get(next)
		nextSlot.isRep = true
		nextSlot.parent = next
		nextSlot.val = savedVal
	}
	return false, true
}

// Keys iterates every key in the class that class belongs to.
func (s *Store[R, V]) Keys(class Key) func(yield func(Key) bool) {
	return s.chain.Members(class)
}

// AllClasses iterates every class's representative key and value, in
// unspecified order. Used by consumers (e.g. the router) that need to
// enumerate every class rather than walk outward from one known key.
func (s *Store[R, V]) AllClasses(yield func(Key, *V) bool) {
	for h, slot := range s.chain.All() {
		if !slot.isRep {
			continue
		}
		if !yield(h, &slot.val) {
			return
		}
	}
}

// LenKeys returns the total number of live keys across all classes.
func (s *Store[R, V]) LenKeys() int { return s.chain.Len() }

// LenVals returns the number of distinct classes.
func (s *Store[R, V]) LenVals() int { return s.classCount }
