package crdt

import "testing"

func containsValue(vs []string, want string) bool {
	for _, v := range vs {
		if v == want {
			return true
		}
	}
	return false
}

// S3. MVRegister concurrency (spec.md §8, scenario S3).
func TestMVRegisterScenarioS3Concurrency(t *testing.T) {
	cap := Capacity{MaxNodes: 4}
	a, _ := NewMVRegister[string](1, cap)
	b, _ := NewMVRegister[string](2, cap)

	a.Set("x", 5)
	b.Set("y", 5)

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}
	if err := b.Merge(a); err != nil {
		t.Fatal(err)
	}

	for _, r := range []*MVRegister[string]{a, b} {
		vs := r.Values()
		if len(vs) != 2 || !containsValue(vs, "x") || !containsValue(vs, "y") {
			t.Fatalf("expected {x,y}, got %v", vs)
		}
	}

	c, _ := NewMVRegister[string](3, cap)
	c.Set("z", 6)

	if err := a.Merge(c); err != nil {
		t.Fatal(err)
	}
	vs := a.Values()
	if len(vs) != 1 || vs[0] != "z" {
		t.Fatalf("expected dominating write {z} alone, got %v", vs)
	}
}

func TestMVRegisterAntichainInvariant(t *testing.T) {
	cap := Capacity{MaxNodes: 3}
	r, _ := NewMVRegister[int](0, cap)
	r.Set(1, 10)

	other, _ := NewMVRegister[int](1, cap)
	other.Set(2, 10)
	_ = r.Merge(other)

	if len(r.Values()) != 2 {
		t.Fatalf("expected two concurrent tied cells, got %v", r.Values())
	}

	winner, _ := NewMVRegister[int](2, cap)
	winner.Set(3, 11)
	_ = r.Merge(winner)

	if vs := r.Values(); len(vs) != 1 || vs[0] != 3 {
		t.Fatalf("expected sole dominating cell {3}, got %v", vs)
	}
}

func TestMVRegisterMergeIdempotent(t *testing.T) {
	cap := Capacity{MaxNodes: 2}
	a, _ := NewMVRegister[string](0, cap)
	a.Set("a", 1)
	clone := a.Clone()
	if err := clone.Merge(a); err != nil {
		t.Fatal(err)
	}
	if len(clone.Values()) != len(a.Values()) {
		t.Error("merge with self is not idempotent")
	}
}
