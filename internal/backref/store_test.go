// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package backref

import "testing"

func TestInsertClassAndInsertKeyShareValue(t *testing.T) {
	s := New[string, int]()
	rep := s.InsertClass("rep", 42)
	member, ok := s.InsertKey(rep, "member")
	if !ok {
		t.Fatalf("InsertKey failed")
	}

	v, cls, ok := s.GetVal(member)
	if !ok || *v != 42 || cls != rep {
		t.Fatalf("GetVal(member) = %v, %v, %v, want 42, %v, true", v, cls, ok, rep)
	}
	if s.LenKeys() != 2 {
		t.Errorf("LenKeys() = %d, want 2", s.LenKeys())
	}
	if s.LenVals() != 1 {
		t.Errorf("LenVals() = %d, want 1", s.LenVals())
	}
}

func TestUnionMergesTwoClasses(t *testing.T) {
	s := New[string, int]()
	a := s.InsertClass("a", 1)
	b := s.InsertClass("b", 2)

	survivor, ok := s.Union(a, b)
	if !ok || survivor != a {
		t.Fatalf("Union(a, b) = %v, %v, want %v, true", survivor, ok, a)
	}
	if s.LenVals() != 1 {
		t.Errorf("LenVals() after Union = %d, want 1", s.LenVals())
	}

	va, _, _ := s.GetVal(a)
	vb, repB, _ := s.GetVal(b)
	if *va != 1 || *vb != 1 {
		t.Errorf("both keys should resolve to a's surviving value 1, got %d, %d", *va, *vb)
	}
	if repB != a {
		t.Errorf("b's class representative should now be a, got %v", repB)
	}
}

func TestUnionRejectsSelfReferent(t *testing.T) {
	s := New[string, int]()
	a := s.InsertClass("a", 1)
	if _, ok := s.Union(a, a); ok {
		t.Errorf("Union(a, a) should fail, not a valid union of distinct classes")
	}
}

func TestUnionOfSameClassIsNoop(t *testing.T) {
	s := New[string, int]()
	a := s.InsertClass("a", 1)
	m, _ := s.InsertKey(a, "m")

	survivor, ok := s.Union(a, m)
	if !ok || survivor != a {
		t.Fatalf("Union within one class = %v, %v, want %v, true", survivor, ok, a)
	}
	if s.LenVals() != 1 {
		t.Errorf("LenVals() should stay 1, got %d", s.LenVals())
	}
}

func TestRemoveKeyPromotesNextMember(t *testing.T) {
	s := New[string, int]()
	rep := s.InsertClass("rep", 7)
	member, _ := s.InsertKey(rep, "member")

	emptied, ok := s.RemoveKey(rep)
	if !ok || emptied {
		t.Fatalf("RemoveKey(rep) = emptied=%v, ok=%v, want false, true", emptied, ok)
	}

	v, cls, ok := s.GetVal(member)
	if !ok || *v != 7 || cls != member {
		t.Fatalf("GetVal(member) after promotion = %v, %v, %v, want 7, %v, true", v, cls, ok, member)
	}
}

func TestRemoveKeyEmptiesClass(t *testing.T) {
	s := New[string, int]()
	rep := s.InsertClass("rep", 1)

	emptied, ok := s.RemoveKey(rep)
	if !ok || !emptied {
		t.Fatalf("RemoveKey(rep) = emptied=%v, ok=%v, want true, true", emptied, ok)
	}
	if s.LenVals() != 0 || s.LenKeys() != 0 {
		t.Errorf("store should be empty, got LenVals=%d LenKeys=%d", s.LenVals(), s.LenKeys())
	}
}

func TestKeysIteratesWholeClass(t *testing.T) {
	s := New[string, int]()
	rep := s.InsertClass("rep", 1)
	m1, _ := s.InsertKey(rep, "m1")
	m2, _ := s.InsertKey(rep, "m2")

	seen := map[Key]bool{}
	for k := range s.Keys(rep) {
		seen[k] = true
	}
	if !seen[rep] || !seen[m1] || !seen[m2] || len(seen) != 3 {
		t.Errorf("Keys(rep) = %v, want exactly {rep, m1, m2}", seen)
	}
}

func TestAllClassesYieldsOneRepresentativePerClass(t *testing.T) {
	s := New[string, int]()
	a := s.InsertClass("a", 1)
	s.InsertKey(a, "a-member")
	b := s.InsertClass("b", 2)

	classes := map[Key]int{}
	s.AllClasses(func(rep Key, v *int) bool {
		classes[rep] = *v
		return true
	})
	if len(classes) != 2 {
		t.Fatalf("AllClasses yielded %d classes, want 2: %v", len(classes), classes)
	}
	if classes[a] != 1 || classes[b] != 2 {
		t.Errorf("AllClasses = %v, want {a:1, b:2}", classes)
	}
}

func TestReferentIsPreservedAcrossUnion(t *testing.T) {
	s := New[string, int]()
	a := s.InsertClass("tagA", 1)
	b := s.InsertClass("tagB", 2)
	s.Union(a, b)

	r, ok := s.Referent(b)
	if !ok || r != "tagB" {
		t.Errorf("Referent(b) = %v, %v, want tagB, true; tags are member-local, not replaced by union", r, ok)
	}
}

func TestContainsAndStaleKey(t *testing.T) {
	s := New[string, int]()
	rep := s.InsertClass("rep", 1)
	if !s.Contains(rep) {
		t.Errorf("Contains(rep) should be true")
	}
	s.RemoveKey(rep)
	if s.Contains(rep) {
		t.Errorf("Contains(rep) should be false after RemoveKey emptied the class")
	}
}
