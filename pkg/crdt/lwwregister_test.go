package crdt

import "testing"

func TestLWWRegisterSetAndGet(t *testing.T) {
	r, err := NewLWWRegister[string](0, Capacity{MaxNodes: 2})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := r.Get(); ok {
		t.Error("expected empty register to report not-ok")
	}

	if err := r.Set("a", 1); err != nil {
		t.Fatal(err)
	}
	if v, ok := r.Get(); !ok || v != "a" {
		t.Errorf("expected a, got %v (%v)", v, ok)
	}

	t.Run("rewrite at identical timestamp is a no-op", func(t *testing.T) {
		if err := r.Set("a", 1); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("timestamp regression is rejected", func(t *testing.T) {
		if err := r.Set("b", 0); err == nil {
			t.Error("expected InvalidTimestamp")
		}
	})
}

// S2. LWWRegister tie-break (spec.md §8, scenario S2).
func TestLWWRegisterScenarioS2TieBreak(t *testing.T) {
	cap := Capacity{MaxNodes: 3}
	a, _ := NewLWWRegister[string](1, cap)
	b, _ := NewLWWRegister[string](2, cap)

	if err := a.Set("x", 10); err != nil {
		t.Fatal(err)
	}
	if err := b.Set("y", 10); err != nil {
		t.Fatal(err)
	}

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}
	if err := b.Merge(a); err != nil {
		t.Fatal(err)
	}

	av, _ := a.Get()
	bv, _ := b.Get()
	if av != "y" || bv != "y" {
		t.Fatalf("expected both replicas to hold y, got a=%v b=%v", av, bv)
	}
}

func TestLWWRegisterMergeAlgebra(t *testing.T) {
	cap := Capacity{MaxNodes: 3}
	mk := func(node NodeID, v string, ts Timestamp) *LWWRegister[string] {
		r, _ := NewLWWRegister[string](node, cap)
		_ = r.Set(v, ts)
		return r
	}

	a := mk(0, "a", 5)
	b := mk(1, "b", 5)
	c := mk(2, "c", 7)

	ab := a.Clone()
	_ = ab.Merge(b)
	ba := b.Clone()
	_ = ba.Merge(a)
	av, _ := ab.Get()
	bv, _ := ba.Get()
	if av != bv {
		t.Error("merge is not commutative")
	}

	left := a.Clone()
	_ = left.Merge(b)
	_ = left.Merge(c)
	right := b.Clone()
	_ = right.Merge(c)
	combined := a.Clone()
	_ = combined.Merge(right)
	lv, _ := left.Get()
	cv, _ := combined.Get()
	if lv != cv {
		t.Error("merge is not associative")
	}

	idem := a.Clone()
	_ = idem.Merge(a)
	iv, _ := idem.Get()
	origv, _ := a.Get()
	if iv != origv {
		t.Error("merge is not idempotent")
	}
}
