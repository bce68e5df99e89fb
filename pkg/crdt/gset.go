package crdt

import "github.com/vertexclique/crdtosphere/pkg/errors"

// GSet is a bounded, grow-only set CRDT. Membership is monotone: once an
// element is inserted it is never removed. Merge is set union; it fails
// closed (leaving the receiver unchanged) if the union would exceed
// MaxElements. GSet is single-owner; see GSetAtomic for the concurrent-safe
// variant.
type GSet[V comparable] struct {
	cap   Capacity
	elems []V // len 0..MaxElements, cap == MaxElements, preallocated
}

// NewGSet constructs an empty GSet.
func NewGSet[V comparable](cap Capacity) (*GSet[V], error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}
	return &GSet[V]{cap: cap, elems: make([]V, 0, cap.MaxElements)}, nil
}

// Contains reports whether v is a member.
func (s *GSet[V]) Contains(v V) bool {
	for _, e := range s.elems {
		if e == v {
			return true
		}
	}
	return false
}

// Insert adds v if absent. Inserting an already-present value is a no-op.
// It fails with CapacityExceeded if the set is full and v is new.
func (s *GSet[V]) Insert(v V) error {
	if s.Contains(v) {
		return nil
	}
	if len(s.elems) >= s.cap.MaxElements {
		return errors.CapacityExceeded("gset: no room for new element", nil)
	}
	s.elems = append(s.elems, v)
	return nil
}

// Len returns the number of elements currently present.
func (s *GSet[V]) Len() int { return len(s.elems) }

// Remaining returns how many more elements can be inserted before the set
// is full.
func (s *GSet[V]) Remaining() int { return s.cap.MaxElements - len(s.elems) }

// Values returns a copy of the current members, in no particular order.
func (s *GSet[V]) Values() []V {
	out := make([]V, len(s.elems))
	copy(out, s.elems)
	return out
}

// Capacity returns the configuration this GSet was built with.
func (s *GSet[V]) Capacity() Capacity { return s.cap }

// Merge computes the union of s and peer. If the union would exceed
// MaxElements, Merge fails with CapacityExceeded and s is left unchanged
// (the prospective union is computed before anything is mutated).
func (s *GSet[V]) Merge(peer *GSet[V]) error {
	if err := checkCapacityMatch(s.cap, peer.cap); err != nil {
		return err
	}

	var toAdd []V
	for _, v := range peer.elems {
		if !s.Contains(v) {
			toAdd = append(toAdd, v)
		}
	}
	if len(s.elems)+len(toAdd) > s.cap.MaxElements {
		return errors.CapacityExceeded("gset: union exceeds capacity", nil)
	}
	s.elems = append(s.elems, toAdd...)
	return nil
}

// Clone returns an independent copy of s.
func (s *GSet[V]) Clone() *GSet[V] {
	elems := make([]V, len(s.elems), s.cap.MaxElements)
	copy(elems, s.elems)
	return &GSet[V]{cap: s.cap, elems: elems}
}
