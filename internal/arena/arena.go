// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arena

// slot holds one arena entry; occupied is false between Remove and reuse.
type slot[T any] struct {
	value    T
	gen      uint32
	occupied bool
}

// Arena is a generic generational slot arena: O(1) Insert/Remove/Get,
// unordered iteration, generation bump on slot reuse so stale Handles fail
// Get rather than silently aliasing a new value.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

// New returns an empty Arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores v and returns a fresh Handle for it.
func (a *Arena[T]) Insert(v T) Handle {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.value = v
		s.occupied = true
		return Handle{idx: idx, gen: s.gen}
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, slot[T]{value: v, gen: 1, occupied: true})
	return Handle{idx: idx, gen: 1}
}

// Get returns a pointer to the value at h, or (nil, false) if h is stale
// or out of range. The pointer is invalidated by any later Insert: one
// that reuses the slot (after a matching Remove), or one that grows the
// backing slice and so moves every slot.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if !h.Valid() || int(h.idx) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.idx]
	if !s.occupied || s.gen != h.gen {
		return nil, false
	}
	return &s.value, true
}

// Contains reports whether h addresses a live slot.
func (a *Arena[T]) Contains(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

// Remove invalidates h, returning the removed value. The slot's generation
// is bumped so any other outstanding Handle to it now fails Get.
func (a *Arena[T]) Remove(h Handle) (T, bool) {
	var zero T
	if !h.Valid() || int(h.idx) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[h.idx]
	if !s.occupied || s.gen != h.gen {
		return zero, false
	}
	out := s.value
	s.value = zero
	s.occupied = false
	s.gen++
	if s.gen == 0 {
		// generation wraparound: astronomically unlikely at uint32 width
		// for any real workload; bump past the reserved zero value.
		s.gen = 1
	}
	a.free = append(a.free, h.idx)
	a.live--
	return out, true
}

// Len returns the number of live entries.
func (a *Arena[T]) Len() int { return a.live }

// All iterates all live (Handle, *T) pairs in unspecified order. The
// pointer is valid only for the duration of one iteration step.
func (a *Arena[T]) All() func(yield func(Handle, *T) bool) {
	return func(yield func(Handle, *T) bool) {
		for i := range a.slots {
			s := &a.slots[i]
			if !s.occupied {
				continue
			}
			h := Handle{idx: uint32(i), gen: s.gen}
			if !yield(h, &s.value) {
				return
			}
		}
	}
}
