package crdt

import (
	"sync"
	"testing"
)

func TestMVRegisterAtomicSetAndValues(t *testing.T) {
	r, err := NewMVRegisterAtomic[string](Capacity{MaxNodes: 2})
	if err != nil {
		t.Fatal(err)
	}
	if vs := r.Values(); len(vs) != 0 {
		t.Fatalf("expected empty register, got %v", vs)
	}
	if err := r.Set(0, "x", 5); err != nil {
		t.Fatal(err)
	}
	if err := r.Set(1, "y", 5); err != nil {
		t.Fatal(err)
	}
	vs := r.Values()
	if len(vs) != 2 || !containsValue(vs, "x") || !containsValue(vs, "y") {
		t.Fatalf("expected {x,y}, got %v", vs)
	}

	if err := r.Set(0, "z", 6); err != nil {
		t.Fatal(err)
	}
	if vs := r.Values(); len(vs) != 1 || vs[0] != "z" {
		t.Fatalf("expected dominating write {z} alone, got %v", vs)
	}
}

func TestMVRegisterAtomicConcurrentDistinctNodesNoRace(t *testing.T) {
	r, _ := NewMVRegisterAtomic[int](Capacity{MaxNodes: 4})
	var wg sync.WaitGroup
	for n := 0; n < 4; n++ {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				_ = r.Set(NodeID(n), i, Timestamp(i))
			}
		}()
	}
	wg.Wait()

	vs := r.Values()
	if len(vs) == 0 {
		t.Fatal("expected at least one surviving value")
	}
}

func TestMVRegisterAtomicMergeConverges(t *testing.T) {
	cap := Capacity{MaxNodes: 2}
	a, _ := NewMVRegisterAtomic[string](cap)
	b, _ := NewMVRegisterAtomic[string](cap)
	_ = a.Set(0, "x", 5)
	_ = b.Set(1, "y", 5)

	if err := a.Merge(b); err != nil {
		t.Fatal(err)
	}
	if err := b.Merge(a); err != nil {
		t.Fatal(err)
	}
	va, vb := a.Values(), b.Values()
	if len(va) != 2 || len(vb) != 2 {
		t.Fatalf("expected both sides to converge to {x,y}, got a=%v b=%v", va, vb)
	}
}
