package crdt

import (
	"sync/atomic"

	"github.com/vertexclique/crdtosphere/pkg/errors"
)

type orAddSlotAtomic[V comparable] struct {
	state atomic.Int32
	value V
	tag   Tag
}

type tagSlotAtomic struct {
	state atomic.Int32
	tag   Tag
}

// ORSetAtomic is the concurrent-safe variant of ORSet. Add-tags and
// remove-tags each live in their own claim-state slot array (the same
// technique GSetAtomic uses). Unlike the single-owner ORSet, this variant
// deliberately does not coalesce matched add/remove pairs: safely
// reclaiming a slot requires knowing no concurrent reader is mid-scan of
// it, which this package has no lock-free mechanism for — coalescing is
// left to the non-atomic variant, and this variant simply accepts that a
// tombstoned add keeps occupying its slot for the set's lifetime.
type ORSetAtomic[V comparable] struct {
	self    NodeID
	cap     Capacity
	counter atomic.Uint64
	adds    []orAddSlotAtomic[V]
	removed []tagSlotAtomic
}

// NewORSetAtomic constructs an empty ORSetAtomic owned by node self.
func NewORSetAtomic[V comparable](self NodeID, cap Capacity) (*ORSetAtomic[V], error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}
	if err := validateNodeID(self, cap); err != nil {
		return nil, err
	}
	return &ORSetAtomic[V]{
		self:    self,
		cap:     cap,
		adds:    make([]orAddSlotAtomic[V], cap.MaxElements),
		removed: make([]tagSlotAtomic, cap.MaxElements),
	}, nil
}

func (s *ORSetAtomic[V]) isRemoved(tag Tag) bool {
	for i := range s.removed {
		if s.removed[i].state.Load() == int32(slotOccupied) && s.removed[i].tag == tag {
			return true
		}
	}
	return false
}

// Insert stamps v with a fresh tag unique to this node and records it.
// Safe to call concurrently. Fails with CapacityExceeded if no add slot
// remains.
func (s *ORSetAtomic[V]) Insert(v V) (Tag, error) {
	counter := s.counter.Add(1)
	tag := Tag{Node: s.self, Counter: counter}
	for i := range s.adds {
		if s.adds[i].state.CompareAndSwap(int32(slotEmpty), int32(slotClaiming)) {
			s.adds[i].value = v
			s.adds[i].tag = tag
			s.adds[i].state.Store(int32(slotOccupied))
			return tag, nil
		}
	}
	return Tag{}, errors.CapacityExceeded("orset: no room for new add-tag", nil)
}

// Remove tombstones tag. Safe to call concurrently. Removing an
// already-tombstoned or never-seen tag is permitted. Fails with
// CapacityExceeded if no tombstone slot remains.
func (s *ORSetAtomic[V]) Remove(tag Tag) error {
	if s.isRemoved(tag) {
		return nil
	}
	for i := range s.removed {
		if s.removed[i].state.CompareAndSwap(int32(slotEmpty), int32(slotClaiming)) {
			s.removed[i].tag = tag
			s.removed[i].state.Store(int32(slotOccupied))
			return nil
		}
	}
	return errors.CapacityExceeded("orset: no room for new tombstone", nil)
}

// Contains reports whether v has at least one surviving add-tag.
func (s *ORSetAtomic[V]) Contains(v V) bool {
	for i := range s.adds {
		if s.adds[i].state.Load() == int32(slotOccupied) && s.adds[i].value == v && !s.isRemoved(s.adds[i].tag) {
			return true
		}
	}
	return false
}

// Values returns the deduplicated set of currently-present values.
func (s *ORSetAtomic[V]) Values() []V {
	seen := make(map[V]struct{}, len(s.adds))
	out := make([]V, 0, len(s.adds))
	for i := range s.adds {
		if s.adds[i].state.Load() != int32(slotOccupied) {
			continue
		}
		v := s.adds[i].value
		if s.isRemoved(s.adds[i].tag) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Capacity returns the configuration this ORSetAtomic was built with.
func (s *ORSetAtomic[V]) Capacity() Capacity { return s.cap }

// Merge unions both the add-tag and remove-tag sets, claiming fresh slots
// for anything peer has that s lacks. It fails closed if either union
// would exceed capacity, checked before any slot is claimed.
func (s *ORSetAtomic[V]) Merge(peer *ORSetAtomic[V]) error {
	if err := checkCapacityMatch(s.cap, peer.cap); err != nil {
		return err
	}

	hasAdd := func(tag Tag) bool {
		for i := range s.adds {
			if s.adds[i].state.Load() == int32(slotOccupied) && s.adds[i].tag == tag {
				return true
			}
		}
		return false
	}

	var addsToAdd []orAddSlotAtomic[V]
	for i := range peer.adds {
		if peer.adds[i].state.Load() != int32(slotOccupied) {
			continue
		}
		if !hasAdd(peer.adds[i].tag) {
			addsToAdd = append(addsToAdd, peer.adds[i])
		}
	}
	var tagsToAdd []Tag
	for i := range peer.removed {
		if peer.removed[i].state.Load() != int32(slotOccupied) {
			continue
		}
		if !s.isRemoved(peer.removed[i].tag) {
			tagsToAdd = append(tagsToAdd, peer.removed[i].tag)
		}
	}

	freeAdds, freeRemoved := 0, 0
	for i := range s.adds {
		if s.adds[i].state.Load() == int32(slotEmpty) {
			freeAdds++
		}
	}
	for i := range s.removed {
		if s.removed[i].state.Load() == int32(slotEmpty) {
			freeRemoved++
		}
	}
	if len(addsToAdd) > freeAdds {
		return errors.CapacityExceeded("orset: add-tag union exceeds capacity", nil)
	}
	if len(tagsToAdd) > freeRemoved {
		return errors.CapacityExceeded("orset: remove-tag union exceeds capacity", nil)
	}

	for _, a := range addsToAdd {
		for i := range s.adds {
			if s.adds[i].state.CompareAndSwap(int32(slotEmpty), int32(slotClaiming)) {
				s.adds[i].value = a.value
				s.adds[i].tag = a.tag
				s.adds[i].state.Store(int32(slotOccupied))
				break
			}
		}
	}
	for _, tag := range tagsToAdd {
		if err := s.Remove(tag); err != nil {
			return err
		}
	}

	for {
		cur := s.counter.Load()
		peerVal := peer.counter.Load()
		if peerVal <= cur || s.counter.CompareAndSwap(cur, peerVal) {
			break
		}
	}
	return nil
}

// Clone returns an independent snapshot of s.
func (s *ORSetAtomic[V]) Clone() *ORSetAtomic[V] {
	clone := &ORSetAtomic[V]{
		self:    s.self,
		cap:     s.cap,
		adds:    make([]orAddSlotAtomic[V], len(s.adds)),
		removed: make([]tagSlotAtomic, len(s.removed)),
	}
	clone.counter.Store(s.counter.Load())
	for i := range s.adds {
		clone.adds[i].state.Store(s.adds[i].state.Load())
		clone.adds[i].value = s.adds[i].value
		clone.adds[i].tag = s.adds[i].tag
	}
	for i := range s.removed {
		clone.removed[i].state.Store(s.removed[i].state.Load())
		clone.removed[i].tag = s.removed[i].tag
	}
	return clone
}
