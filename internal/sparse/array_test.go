package sparse

import "testing"

func TestInsertGetDelete(t *testing.T) {
	var a Array[string]

	if _, ok := a.Get(5); ok {
		t.Fatalf("Get on empty array should fail")
	}

	if exists := a.InsertAt(5, "five"); exists {
		t.Fatalf("InsertAt(5) should report not-exists on first insert")
	}
	if exists := a.InsertAt(2, "two"); exists {
		t.Fatalf("InsertAt(2) should report not-exists on first insert")
	}
	if exists := a.InsertAt(7, "seven"); exists {
		t.Fatalf("InsertAt(7) should report not-exists on first insert")
	}

	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}

	if v, ok := a.Get(5); !ok || v != "five" {
		t.Errorf("Get(5) = %q, %v, want \"five\", true", v, ok)
	}
	if v, ok := a.Get(2); !ok || v != "two" {
		t.Errorf("Get(2) = %q, %v, want \"two\", true", v, ok)
	}

	if exists := a.InsertAt(5, "FIVE"); !exists {
		t.Errorf("InsertAt(5) overwrite should report exists")
	}
	if v, ok := a.Get(5); !ok || v != "FIVE" {
		t.Errorf("Get(5) after overwrite = %q, %v, want \"FIVE\", true", v, ok)
	}

	if v, exists := a.DeleteAt(2); !exists || v != "two" {
		t.Errorf("DeleteAt(2) = %q, %v, want \"two\", true", v, exists)
	}
	if a.Len() != 2 {
		t.Fatalf("Len() after delete = %d, want 2", a.Len())
	}
	if _, ok := a.Get(2); ok {
		t.Errorf("Get(2) after delete should fail")
	}
	if v, ok := a.Get(7); !ok || v != "seven" {
		t.Errorf("Get(7) after unrelated delete = %q, %v, want \"seven\", true", v, ok)
	}
}

func TestUpdateAt(t *testing.T) {
	var a Array[int]

	newVal, wasPresent := a.UpdateAt(3, func(old int, present bool) int {
		if present {
			t.Fatalf("first UpdateAt(3) should see wasPresent=false")
		}
		return 10
	})
	if wasPresent || newVal != 10 {
		t.Errorf("UpdateAt(3) = %d, %v, want 10, false", newVal, wasPresent)
	}

	newVal, wasPresent = a.UpdateAt(3, func(old int, present bool) int {
		if !present || old != 10 {
			t.Fatalf("second UpdateAt(3) should see old=10, present=true")
		}
		return old + 1
	})
	if !wasPresent || newVal != 11 {
		t.Errorf("UpdateAt(3) = %d, %v, want 11, true", newVal, wasPresent)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	var a Array[int]
	a.InsertAt(1, 100)
	a.InsertAt(9, 900)

	b := a.Copy()
	b.InsertAt(1, 999)

	if v, _ := a.Get(1); v != 100 {
		t.Errorf("original mutated through copy: Get(1) = %d, want 100", v)
	}
	if v, _ := b.Get(1); v != 999 {
		t.Errorf("Get(1) on copy = %d, want 999", v)
	}
}
