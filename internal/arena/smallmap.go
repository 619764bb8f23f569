// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arena

// SmallMap is a small hereditary map intended for the handful-of-entries
// case (most of the time no more than 8), backed by a plain slice rather
// than a hash table. Ported from
// original_source/starlight/src/misc/small_map.rs. No other code in this
// module uses it; the optimizer pushes rewrite candidates straight onto
// its priority queue.
type SmallMap[K comparable, V any] struct {
	set []smallMapEntry[K, V]
}

type smallMapEntry[K comparable, V any] struct {
	key K
	val V
}

// NewSmallMap returns an empty SmallMap.
func NewSmallMap[K comparable, V any]() *SmallMap[K, V] {
	return &SmallMap[K, V]{}
}

// Insert sets k to v, returning the previous value if k was already
// present.
func (m *SmallMap[K, V]) Insert(k K, v V) (prev V, had bool) {
	for i := range m.set {
		if m.set[i].key == k {
			prev = m.set[i].val
			m.set[i].val = v
			return prev, true
		}
	}
	m.set = append(m.set, smallMapEntry[K, V]{key: k, val: v})
	return prev, false
}

// Get returns the value for k, if present.
func (m *SmallMap[K, V]) Get(k K) (V, bool) {
	for i := range m.set {
		if m.set[i].key == k {
			return m.set[i].val, true
		}
	}
	var zero V
	return zero, false
}

// Len returns the number of entries.
func (m *SmallMap[K, V]) Len() int { return len(m.set) }

// All iterates every (key, value) pair in insertion order.
func (m *SmallMap[K, V]) All() func(yield func(K, V) bool) {
	return func(yield func(K, V) bool) {
		for _, e := range m.set {
			if !yield(e.key, e.val) {
				return
			}
		}
	}
}
