package crdt

import "github.com/vertexclique/crdtosphere/pkg/errors"

// Tag uniquely identifies one observation of an insert: the node that
// performed it and that node's local, strictly increasing insert counter.
// A Remove targets a specific Tag, so it only removes what the remover has
// actually observed — "observed-remove" semantics.
type Tag struct {
	Node    NodeID
	Counter uint64
}

type orAdd[V comparable] struct {
	value V
	tag   Tag
}

// ORSet is an observed-remove set CRDT: presence of v is determined by
// whether at least one add-tag for v survives removal. ORSet is
// single-owner; see ORSetAtomic for the concurrent-safe variant.
//
// The non-atomic variant coalesces deterministically: whenever an add-tag
// also appears in the remove-tag set, the add entry is dropped, reclaiming
// its add slot, while the remove-tag stays recorded. This is a pure function
// of visible state, so replicas that coalesce independently still converge.
type ORSet[V comparable] struct {
	self    NodeID
	cap     Capacity
	counter uint64
	adds    []orAdd[V] // bounded to MaxElements
	removed []Tag      // bounded to MaxElements
}

// NewORSet constructs an empty ORSet owned by node self.
func NewORSet[V comparable](self NodeID, cap Capacity) (*ORSet[V], error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}
	if err := validateNodeID(self, cap); err != nil {
		return nil, err
	}
	return &ORSet[V]{
		self:    self,
		cap:     cap,
		adds:    make([]orAdd[V], 0, cap.MaxElements),
		removed: make([]Tag, 0, cap.MaxElements),
	}, nil
}

// Insert stamps v with a fresh tag unique to this node and records it. The
// tag must be kept by the caller so a later Remove can target exactly this
// observation. Fails with CapacityExceeded if no add slot remains.
func (s *ORSet[V]) Insert(v V) (Tag, error) {
	if len(s.adds) >= s.cap.MaxElements {
		return Tag{}, errors.CapacityExceeded("orset: no room for new add-tag", nil)
	}
	s.counter++
	tag := Tag{Node: s.self, Counter: s.counter}
	s.adds = append(s.adds, orAdd[V]{value: v, tag: tag})
	s.coalesce()
	return tag, nil
}

// Remove tombstones tag. Removing a tag that was never observed as an add
// is permitted — it simply pre-empts a future arrival of that exact add.
// Fails with CapacityExceeded if no tombstone slot remains.
func (s *ORSet[V]) Remove(v V, tag Tag) error {
	for _, t := range s.removed {
		if t == tag {
			return nil
		}
	}
	if len(s.removed) >= s.cap.MaxElements {
		return errors.CapacityExceeded("orset: no room for new tombstone", nil)
	}
	s.removed = append(s.removed, tag)
	s.coalesce()
	return nil
}

func (s *ORSet[V]) isRemoved(tag Tag) bool {
	for _, t := range s.removed {
		if t == tag {
			return true
		}
	}
	return false
}

// Contains reports whether v has at least one surviving add-tag.
func (s *ORSet[V]) Contains(v V) bool {
	for _, a := range s.adds {
		if a.value == v && !s.isRemoved(a.tag) {
			return true
		}
	}
	return false
}

// Values returns the deduplicated set of currently-present values.
func (s *ORSet[V]) Values() []V {
	seen := make(map[V]struct{}, len(s.adds))
	out := make([]V, 0, len(s.adds))
	for _, a := range s.adds {
		if s.isRemoved(a.tag) {
			continue
		}
		if _, ok := seen[a.value]; ok {
			continue
		}
		seen[a.value] = struct{}{}
		out = append(out, a.value)
	}
	return out
}

// Remaining reports how many more add-tags can be recorded before the set
// is full.
func (s *ORSet[V]) Remaining() int { return s.cap.MaxElements - len(s.adds) }

// Capacity returns the configuration this ORSet was built with.
func (s *ORSet[V]) Capacity() Capacity { return s.cap }

// Merge unions both the add-tag and remove-tag sets. It fails closed,
// leaving the receiver unchanged, if either union would exceed
// MaxElements.
func (s *ORSet[V]) Merge(peer *ORSet[V]) error {
	if err := checkCapacityMatch(s.cap, peer.cap); err != nil {
		return err
	}

	var addsToAdd []orAdd[V]
	for _, pa := range peer.adds {
		found := false
		for _, a := range s.adds {
			if a.tag == pa.tag {
				found = true
				break
			}
		}
		if !found {
			addsToAdd = append(addsToAdd, pa)
		}
	}

	var removedToAdd []Tag
	for _, pt := range peer.removed {
		if !s.isRemoved(pt) {
			removedToAdd = append(removedToAdd, pt)
		}
	}

	if len(s.adds)+len(addsToAdd) > s.cap.MaxElements {
		return errors.CapacityExceeded("orset: add-tag union exceeds capacity", nil)
	}
	if len(s.removed)+len(removedToAdd) > s.cap.MaxElements {
		return errors.CapacityExceeded("orset: remove-tag union exceeds capacity", nil)
	}

	s.adds = append(s.adds, addsToAdd...)
	s.removed = append(s.removed, removedToAdd...)
	if s.counter < peer.counter {
		s.counter = peer.counter
	}
	s.coalesce()
	return nil
}

// coalesce drops every add entry whose tag has been tombstoned, reclaiming
// its add slot. The remove-tag itself is kept, so the same add arriving
// again from a peer is still recognised as removed. Purely a function of
// (adds, removed).
func (s *ORSet[V]) coalesce() {
	if len(s.removed) == 0 || len(s.adds) == 0 {
		return
	}

	w := 0
	for _, a := range s.adds {
		if s.isRemoved(a.tag) {
			continue
		}
		s.adds[w] = a
		w++
	}
	s.adds = s.adds[:w]
}

// Clone returns an independent copy of s.
func (s *ORSet[V]) Clone() *ORSet[V] {
	adds := make([]orAdd[V], len(s.adds))
	copy(adds, s.adds)
	removed := make([]Tag, len(s.removed))
	copy(removed, s.removed)
	return &ORSet[V]{self: s.self, cap: s.cap, counter: s.counter, adds: adds, removed: removed}
}
