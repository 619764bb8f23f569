// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arena

// chainLink adds doubly-linked prev/next handles to a plain slot. Grounded
// on other_examples' phuslu-lru shard.go, which threads its LRU list through
// a flat slice via next/prev uint32 indices rather than pointers; here the
// same trick gives O(1) splice (union) and unlink (remove_key) for the
// backref surject store built on top of ChainArena.
type chainLink[T any] struct {
	value T
	prev  Handle
	next  Handle
	gen   uint32
	used  bool
}

// ChainArena is a generational arena where every live entry additionally
// belongs to a circular doubly-linked list. Lists are identified by any
// member Handle; Next/Prev walk to the next/prev member without knowing the
// list's head. Used by the backref surject store: all keys of one
// equivalence class form one circular list.
type ChainArena[T any] struct {
	slots []chainLink[T]
	free  []uint32
	live  int
}

// NewChain returns an empty ChainArena.
func NewChain[T any]() *ChainArena[T] {
	return &ChainArena[T]{}
}

func (a *ChainArena[T]) alloc(v T) Handle {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = v
		s.used = true
		return Handle{idx: idx, gen: s.gen}
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, chainLink[T]{value: v, gen: 1, used: true})
	return Handle{idx: idx, gen: 1}
}

// InsertNew creates a brand new singleton list containing only v, and
// returns its Handle.
func (a *ChainArena[T]) InsertNew(v T) Handle {
	h := a.alloc(v)
	s := &a.slots[h.idx]
	s.prev, s.next = h, h
	return h
}

// InsertAfter adds v as a new member of the list that existing belongs to,
// splicing it in immediately after existing. Returns the new member's
// Handle. O(1).
func (a *ChainArena[T]) InsertAfter(existing Handle, v T) (Handle, bool) {
	exSlot, ok := a.slotOf(existing)
	if !ok {
		var zero Handle
		return zero, false
	}
	h := a.alloc(v)
	// re-fetch exSlot: alloc may have grown a.slots and invalidated the pointer
	exSlot, _ = a.slotOf(existing)
	newSlot := &a.slots[h.idx]
	nextH := exSlot.next
	nextSlot, _ := a.slotOf(nextH)

	newSlot.prev = existing
	newSlot.next = nextH
	exSlot.next = h
	nextSlot.prev = h
	return h, true
}

func (a *ChainArena[T]) slotOf(h Handle) (*chainLink[T], bool) {
	if !h.Valid() || int(h.idx) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.idx]
	if !s.used || s.gen != h.gen {
		return nil, false
	}
	return s, true
}

// Get returns a pointer to the value at h.
func (a *ChainArena[T]) Get(h Handle) (*T, bool) {
	s, ok := a.slotOf(h)
	if !ok {
		return nil, false
	}
	return &s.value, true
}

// Next returns the next Handle in h's list (wraps around to itself if h is
// the only member).
func (a *ChainArena[T]) Next(h Handle) (Handle, bool) {
	s, ok := a.slotOf(h)
	if !ok {
		var zero Handle
		return zero, false
	}
	return s.next, true
}

// Prev returns the previous Handle in h's list.
func (a *ChainArena[T]) Prev(h Handle) (Handle, bool) {
	s, ok := a.slotOf(h)
	if !ok {
		var zero Handle
		return zero, false
	}
	return s.prev, true
}

// SpliceInto unions the list containing h1 with the list containing h2,
// producing one combined circular list. O(1) pointer splice. Returns false
// if either handle is stale.
func (a *ChainArena[T]) SpliceInto(h1, h2 Handle) bool {
	s1, ok1 := a.slotOf(h1)
	s2, ok2 := a.slotOf(h2)
	if !ok1 || !ok2 {
		return false
	}
	n1, n2 := s1.next, s2.next
	ns1, _ := a.slotOf(n1)
	ns2, _ := a.slotOf(n2)
	s1.next = n2
	ns2.prev = h1
	s2.next = n1
	ns1.prev = h2
	return true
}

// Remove unlinks h from its list and frees its slot. Reports whether the
// list it belonged to is now empty (h was its last member).
func (a *ChainArena[T]) Remove(h Handle) (value T, listEmptied bool, ok bool) {
	s, present := a.slotOf(h)
	if !present {
		return value, false, false
	}
	value = s.value
	listEmptied = s.next == h

	if !listEmptied {
		prevS, _ := a.slotOf(s.prev)
		nextS, _ := a.slotOf(s.next)
		prevS.next = s.next
		nextS.prev = s.prev
	}

	var zero T
	s.value = zero
	s.used = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	a.free = append(a.free, h.idx)
	a.live--
	return value, listEmptied, true
}

// Len returns the number of live entries across all lists.
func (a *ChainArena[T]) Len() int { return a.live }

// Members iterates every Handle in h's list, starting at h, in next order.
func (a *ChainArena[T]) Members(h Handle) func(yield func(Handle) bool) {
	return func(yield func(Handle) bool) {
		if _, ok := a.slotOf(h); !ok {
			return
		}
		cur := h
		for {
			if !yield(cur) {
				return
			}
			s, ok := a.slotOf(cur)
			if !ok {
				return
			}
			cur = s.next
			if cur == h {
				return
			}
		}
	}
}

// All iterates every live (Handle, *T) pair across all lists, in unspecified
// order.
func (a *ChainArena[T]) All() func(yield func(Handle, *T) bool) {
	return func(yield func(Handle, *T) bool) {
		for i := range a.slots {
			s := &a.slots[i]
			if !s.used {
				continue
			}
			h := Handle{idx: uint32(i), gen: s.gen}
			if !yield(h, &s.value) {
				return
			}
		}
	}
}
