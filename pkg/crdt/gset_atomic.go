package crdt

import (
	"sync/atomic"

	"github.com/vertexclique/crdtosphere/pkg/errors"
)

type claimState int32

const (
	slotEmpty claimState = iota
	slotClaiming
	slotOccupied
)

// GSetAtomic is the concurrent-safe variant of GSet. Each backing slot
// carries its own claim-state (empty / claiming / occupied); Insert claims
// a free slot with a single CAS, writes the value, then publishes it —
// no lock, no per-operation allocation. Concurrent Insert of the same new
// value from two goroutines may both succeed into separate slots (Values
// and Len then count that value twice, and it uses two slots of capacity);
// this trades a small amount of false capacity pressure for lock freedom.
type GSetAtomic[V comparable] struct {
	cap    Capacity
	states []atomic.Int32
	elems  []V
}

// NewGSetAtomic constructs an empty GSetAtomic.
func NewGSetAtomic[V comparable](cap Capacity) (*GSetAtomic[V], error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}
	return &GSetAtomic[V]{
		cap:    cap,
		states: make([]atomic.Int32, cap.MaxElements),
		elems:  make([]V, cap.MaxElements),
	}, nil
}

// Contains reports whether v is a member.
func (s *GSetAtomic[V]) Contains(v V) bool {
	for i := range s.states {
		if s.states[i].Load() == int32(slotOccupied) && s.elems[i] == v {
			return true
		}
	}
	return false
}

func (s *GSetAtomic[V]) occupiedCount() int {
	n := 0
	for i := range s.states {
		if s.states[i].Load() == int32(slotOccupied) {
			n++
		}
	}
	return n
}

// Insert adds v if absent. Safe to call concurrently. Fails with
// CapacityExceeded if no empty slot is found.
func (s *GSetAtomic[V]) Insert(v V) error {
	if s.Contains(v) {
		return nil
	}
	for i := range s.states {
		if s.states[i].CompareAndSwap(int32(slotEmpty), int32(slotClaiming)) {
			s.elems[i] = v
			s.states[i].Store(int32(slotOccupied))
			return nil
		}
	}
	return errors.CapacityExceeded("gset: no room for new element", nil)
}

// Len returns the number of occupied slots at the moment of the call.
func (s *GSetAtomic[V]) Len() int { return s.occupiedCount() }

// Remaining reports how many more elements can be inserted before the set
// is full, as observed at the moment of the call.
func (s *GSetAtomic[V]) Remaining() int { return s.cap.MaxElements - s.occupiedCount() }

// Values returns a snapshot of the current members, in no particular order.
func (s *GSetAtomic[V]) Values() []V {
	out := make([]V, 0, len(s.elems))
	for i := range s.states {
		if s.states[i].Load() == int32(slotOccupied) {
			out = append(out, s.elems[i])
		}
	}
	return out
}

// Capacity returns the configuration this GSetAtomic was built with.
func (s *GSetAtomic[V]) Capacity() Capacity { return s.cap }

// Merge inserts every value peer currently holds that s lacks. It computes
// the prospective addition count against free slots before mutating, so a
// merge that would not fit fails closed without partial insertion under
// single-threaded use; concurrent mutation during Merge is not serialized
// against the capacity check.
func (s *GSetAtomic[V]) Merge(peer *GSetAtomic[V]) error {
	if err := checkCapacityMatch(s.cap, peer.cap); err != nil {
		return err
	}
	peerValues := peer.Values()
	var toAdd []V
	for _, v := range peerValues {
		if !s.Contains(v) {
			toAdd = append(toAdd, v)
		}
	}
	if len(toAdd) > s.Remaining() {
		return errors.CapacityExceeded("gset: union exceeds capacity", nil)
	}
	for _, v := range toAdd {
		if err := s.Insert(v); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an independent snapshot of s.
func (s *GSetAtomic[V]) Clone() *GSetAtomic[V] {
	clone := &GSetAtomic[V]{
		cap:    s.cap,
		states: make([]atomic.Int32, len(s.states)),
		elems:  make([]V, len(s.elems)),
	}
	for i := range s.states {
		st := s.states[i].Load()
		clone.states[i].Store(st)
		clone.elems[i] = s.elems[i]
	}
	return clone
}
