// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package arena

import "testing"

func membersOf[T any](a *ChainArena[T], h Handle) []Handle {
	var out []Handle
	for m := range a.Members(h) {
		out = append(out, m)
	}
	return out
}

func TestInsertAfterGrowsOneList(t *testing.T) {
	a := NewChain[string]()
	h1 := a.InsertNew("a")
	h2, ok := a.InsertAfter(h1, "b")
	if !ok {
		t.Fatalf("InsertAfter failed")
	}
	h3, ok := a.InsertAfter(h1, "c")
	if !ok {
		t.Fatalf("InsertAfter failed")
	}

	members := membersOf(a, h1)
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d: %v", len(members), members)
	}
	seen := map[Handle]bool{}
	for _, m := range members {
		seen[m] = true
	}
	if !seen[h1] || !seen[h2] || !seen[h3] {
		t.Errorf("expected all three handles in the list, got %v", members)
	}
}

func TestSpliceIntoUnionsTwoLists(t *testing.T) {
	a := NewChain[int]()
	x1 := a.InsertNew(1)
	x2, _ := a.InsertAfter(x1, 2)

	y1 := a.InsertNew(10)
	y2, _ := a.InsertAfter(y1, 20)

	if !a.SpliceInto(x1, y1) {
		t.Fatalf("SpliceInto failed")
	}

	members := membersOf(a, x1)
	if len(members) != 4 {
		t.Fatalf("expected 4 members after splice, got %d: %v", len(members), members)
	}
	for _, h := range []Handle{x1, x2, y1, y2} {
		found := false
		for _, m := range members {
			if m == h {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %v in merged list", h)
		}
	}
}

func TestRemoveUnlinksAndReportsEmptied(t *testing.T) {
	a := NewChain[int]()
	h1 := a.InsertNew(1)
	h2, _ := a.InsertAfter(h1, 2)

	_, emptied, ok := a.Remove(h2)
	if !ok || emptied {
		t.Fatalf("Remove(h2) = emptied=%v, ok=%v, want false, true", emptied, ok)
	}
	members := membersOf(a, h1)
	if len(members) != 1 || members[0] != h1 {
		t.Fatalf("expected only h1 left, got %v", members)
	}

	_, emptied, ok = a.Remove(h1)
	if !ok || !emptied {
		t.Fatalf("Remove(h1) = emptied=%v, ok=%v, want true, true", emptied, ok)
	}
}

func TestRemoveLeavesSurvivorAsSingleton(t *testing.T) {
	a := NewChain[string]()
	h1 := a.InsertNew("rep")
	h2, _ := a.InsertAfter(h1, "member")

	a.Remove(h1)
	// h1 is gone; h2 should still resolve and be a singleton list of itself.
	if v, ok := a.Get(h2); !ok || *v != "member" {
		t.Fatalf("Get(h2) after removing h1 = %v, %v", v, ok)
	}
	next, ok := a.Next(h2)
	if !ok || next != h2 {
		t.Errorf("h2 should be a singleton list pointing to itself, got %v", next)
	}
}

func TestMembersOnStaleHandleYieldsNothing(t *testing.T) {
	a := NewChain[int]()
	h1 := a.InsertNew(1)
	a.Remove(h1)

	count := 0
	for range a.Members(h1) {
		count++
	}
	if count != 0 {
		t.Errorf("Members on a stale handle should yield nothing, got %d", count)
	}
}
