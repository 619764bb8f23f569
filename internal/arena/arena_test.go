// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arena

import "testing"

func TestInsertGetRemove(t *testing.T) {
	a := New[string]()
	h1 := a.Insert("one")
	h2 := a.Insert("two")

	v, ok := a.Get(h1)
	if !ok || *v != "one" {
		t.Fatalf("Get(h1) = %v, %v, want one, true", v, ok)
	}
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}

	removed, ok := a.Remove(h1)
	if !ok || removed != "one" {
		t.Fatalf("Remove(h1) = %v, %v, want one, true", removed, ok)
	}
	if a.Len() != 1 {
		t.Fatalf("Len() after remove = %d, want 1", a.Len())
	}
	if _, ok := a.Get(h1); ok {
		t.Errorf("Get(h1) after Remove should fail")
	}
	if v, ok := a.Get(h2); !ok || *v != "two" {
		t.Errorf("Get(h2) = %v, %v, want two, true", v, ok)
	}
}

func TestStaleHandleAfterReuse(t *testing.T) {
	a := New[int]()
	h1 := a.Insert(1)
	a.Remove(h1)
	h2 := a.Insert(2)

	if h1.Index() != h2.Index() {
		t.Fatalf("expected slot reuse, got distinct indices %d, %d", h1.Index(), h2.Index())
	}
	if h1.Generation() == h2.Generation() {
		t.Fatalf("expected generation bump on reuse, both %d", h1.Generation())
	}
	if _, ok := a.Get(h1); ok {
		t.Errorf("stale handle h1 must not resolve after slot reuse")
	}
	if v, ok := a.Get(h2); !ok || *v != 2 {
		t.Errorf("Get(h2) = %v, %v, want 2, true", v, ok)
	}
}

func TestZeroHandleIsNeverValid(t *testing.T) {
	a := New[int]()
	var zero Handle
	if zero.Valid() {
		t.Errorf("zero Handle must be invalid")
	}
	if _, ok := a.Get(zero); ok {
		t.Errorf("Get(zero Handle) should fail")
	}
}

func TestAllIteratesLiveOnly(t *testing.T) {
	a := New[int]()
	h1 := a.Insert(10)
	a.Insert(20)
	a.Remove(h1)
	a.Insert(30)

	seen := map[int]bool{}
	for _, v := range a.All() {
		seen[*v] = true
	}
	if seen[10] {
		t.Errorf("removed value 10 should not appear in All()")
	}
	if !seen[20] || !seen[30] {
		t.Errorf("expected live values 20 and 30, got %v", seen)
	}
}

func TestGetOutOfRangeFails(t *testing.T) {
	a := New[int]()
	a.Insert(1)
	bogus := Handle{idx: 999, gen: 1}
	if _, ok := a.Get(bogus); ok {
		t.Errorf("Get should fail for an out-of-range index")
	}
}
