// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package sparse implements a generic popcount-compressed sparse array,
// used by the router package to hold a CNode's SubNodes list without
// paying for a full dense slot per possible child index.
package sparse

import "github.com/gaissmai/ensemble/internal/bitset"

// Array is a sparse array with popcount compression and payload T: Items
// holds one entry per set bit, in bit-index order, and BitSet records
// which indices are occupied.
type Array[T any] struct {
	bitset.BitSet
	Items []T
}

// Get returns the value at i, or ok=false if i is unoccupied.
//
// example: Array.Get(5) -> Array.Items[1]
//
//	                   ⬇
//	BitSet: [0|0|1|0|0|1|0|1|...] <- 3 bits set
//	Items:  [*|*|*]               <- len(Items) = 3
//	           ⬆
//
//	BitSet.Test(5):  true
//	BitSet.Rank0(5): 1
func (s *Array[T]) Get(i uint) (value T, ok bool) {
	if s.Test(i) {
		return s.Items[s.Rank0(i)], true
	}
	return
}

// MustGet returns the value at i; valid only after a successful Test.
func (s *Array[T]) MustGet(i uint) T {
	return s.Items[s.Rank0(i)]
}

// UpdateAt sets the value at i via callback cb(oldValue, wasPresent) and
// returns the new value and whether i was already occupied.
func (s *Array[T]) UpdateAt(i uint, cb func(T, bool) T) (newValue T, wasPresent bool) {
	var rank0 int
	var oldValue T

	if wasPresent = s.Test(i); wasPresent {
		rank0 = s.Rank0(i)
		oldValue = s.Items[rank0]
	}

	newValue = cb(oldValue, wasPresent)

	if wasPresent {
		s.Items[rank0] = newValue
		return newValue, wasPresent
	}

	s.Set(i)
	rank0 = s.Rank0(i)
	s.insertItem(rank0, newValue)

	return newValue, wasPresent
}

// Len returns the number of items in the sparse array.
func (s *Array[T]) Len() int {
	return len(s.Items)
}

// Copy returns a shallow copy of the Array. Elements are copied by
// assignment; this is not a deep clone.
func (s *Array[T]) Copy() *Array[T] {
	if s == nil {
		return nil
	}
	return &Array[T]{
		BitSet: s.BitSet.Clone(),
		Items:  append(s.Items[:0:0], s.Items...),
	}
}

// InsertAt inserts value at i. If i was already occupied, value overwrites
// it and InsertAt returns true.
func (s *Array[T]) InsertAt(i uint, value T) (exists bool) {
	if s.Len() != 0 && s.Test(i) {
		s.Items[s.Rank0(i)] = value
		return true
	}

	s.Set(i)
	s.insertItem(s.Rank0(i), value)

	return false
}

// DeleteAt removes the value at i, zeroing the tail slot it vacates.
func (s *Array[T]) DeleteAt(i uint) (value T, exists bool) {
	if s.Len() == 0 || !s.Test(i) {
		return
	}

	rank0 := s.Rank0(i)
	value = s.Items[rank0]

	s.deleteItem(rank0)
	s.Clear(i)

	return value, true
}

// insertItem inserts item at index i, shifting the rest one slot right.
// Panics if i is out of range.
func (s *Array[T]) insertItem(i int, item T) {
	if len(s.Items) < cap(s.Items) {
		s.Items = s.Items[:len(s.Items)+1]
	} else {
		var zero T
		s.Items = append(s.Items, zero)
	}

	copy(s.Items[i+1:], s.Items[i:])
	s.Items[i] = item
}

// deleteItem removes the item at index i, shifting the rest one slot left
// and clearing the vacated tail slot. Panics if i is out of range.
func (s *Array[T]) deleteItem(i int) {
	var zero T

	nl := len(s.Items) - 1
	copy(s.Items[i:], s.Items[i+1:])

	s.Items[nl] = zero
	s.Items = s.Items[:nl]
}
