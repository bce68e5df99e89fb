package crdt

import "testing"

func TestGSetInsertAndContains(t *testing.T) {
	s, err := NewGSet[string](Capacity{MaxElements: 2})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Insert("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert("a"); err != nil {
		t.Fatal(err) // duplicate insert is a no-op, not an error
	}
	if s.Len() != 1 {
		t.Errorf("expected len 1, got %d", s.Len())
	}

	if err := s.Insert("b"); err != nil {
		t.Fatal(err)
	}
	if err := s.Insert("c"); err == nil {
		t.Error("expected CapacityExceeded")
	}
	if s.Len() != 2 {
		t.Errorf("expected failed insert to leave len unchanged, got %d", s.Len())
	}
}

func TestGSetMembershipMonotone(t *testing.T) {
	s, _ := NewGSet[int](Capacity{MaxElements: 4})
	_ = s.Insert(1)
	if !s.Contains(1) {
		t.Fatal("expected 1 to be present immediately after insert")
	}
	_ = s.Insert(2)
	_ = s.Insert(3)
	if !s.Contains(1) {
		t.Error("membership regressed: contains is not monotone")
	}
}

func TestGSetMergeUnionAndCapacity(t *testing.T) {
	cap := Capacity{MaxElements: 3}
	a, _ := NewGSet[int](cap)
	b, _ := NewGSet[int](cap)
	_ = a.Insert(1)
	_ = b.Insert(1)
	_ = b.Insert(2)

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}
	if a.Len() != 2 || !a.Contains(2) {
		t.Errorf("expected union {1,2}, got %v", a.Values())
	}

	c, _ := NewGSet[int](cap)
	_ = c.Insert(10)
	_ = c.Insert(20)
	_ = c.Insert(30)
	if err := a.Merge(c); err == nil {
		t.Fatal("expected CapacityExceeded for oversized union")
	}
	if a.Len() != 2 {
		t.Error("failed merge must leave receiver unchanged")
	}
}

func TestGSetMergeAlgebra(t *testing.T) {
	cap := Capacity{MaxElements: 8}
	mk := func(vs ...int) *GSet[int] {
		s, _ := NewGSet[int](cap)
		for _, v := range vs {
			_ = s.Insert(v)
		}
		return s
	}

	a := mk(1, 2)
	b := mk(2, 3)
	c := mk(3, 4)

	ab := a.Clone()
	_ = ab.Merge(b)
	ba := b.Clone()
	_ = ba.Merge(a)
	if ab.Len() != ba.Len() {
		t.Error("merge is not commutative")
	}

	left := a.Clone()
	_ = left.Merge(b)
	_ = left.Merge(c)
	right := b.Clone()
	_ = right.Merge(c)
	combined := a.Clone()
	_ = combined.Merge(right)
	if left.Len() != combined.Len() {
		t.Error("merge is not associative")
	}

	idem := a.Clone()
	_ = idem.Merge(a)
	if idem.Len() != a.Len() {
		t.Error("merge is not idempotent")
	}
}
