package crdt

import "testing"

func TestPNCounterIncDecValue(t *testing.T) {
	cap := Capacity{MaxNodes: 2}
	c, err := NewPNCounter(0, cap)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Increment(10); err != nil {
		t.Fatal(err)
	}
	if err := c.Decrement(4); err != nil {
		t.Fatal(err)
	}
	if c.Value() != 6 {
		t.Errorf("expected 6, got %d", c.Value())
	}
}

func TestPNCounterMergeConverges(t *testing.T) {
	cap := Capacity{MaxNodes: 2}
	a, _ := NewPNCounter(0, cap)
	b, _ := NewPNCounter(1, cap)

	_ = a.Increment(5)
	_ = a.Decrement(2)
	_ = b.Increment(1)
	_ = b.Decrement(7)

	_ = a.Merge(b)
	_ = b.Merge(a)

	if a.Value() != b.Value() {
		t.Fatalf("replicas diverged: a=%d b=%d", a.Value(), b.Value())
	}
	if a.Value() != (5+1)-(2+7) {
		t.Errorf("unexpected converged value %d", a.Value())
	}
}

func TestPNCounterPerHalfMonotonic(t *testing.T) {
	cap := Capacity{MaxNodes: 1}
	c, _ := NewPNCounter(0, cap)

	prevP, prevN := c.p.Value(), c.n.Value()
	_ = c.Increment(3)
	_ = c.Decrement(1)
	if c.p.Value() < prevP || c.n.Value() < prevN {
		t.Error("p or n regressed across increment/decrement")
	}
}
