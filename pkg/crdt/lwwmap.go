package crdt

import "github.com/vertexclique/crdtosphere/pkg/errors"

type lwwMapSlot[K comparable, V any] struct {
	key     K
	value   V
	ts      Timestamp
	node    NodeID
	removed bool
	used    bool
}

// LWWMap is a last-writer-wins map CRDT: each key independently behaves
// like an LWWRegister plus a tombstone bit, so a Remove at a given
// (timestamp, node) can itself be overwritten by a later Insert — there is
// no permanent tombstone, only the same domination rule LWWRegister uses.
// LWWMap is single-owner; see LWWMapAtomic for the concurrent-safe variant.
//
// Keys occupy a fixed-size slot array sized by Capacity.MaxElements; a
// tombstoned key still occupies its slot until capacity pressure requires
// reclaiming it, which this variant never does automatically (unlike
// ORSet's coalescing, dropping a still-relevant tombstone here would let a
// late-arriving stale write resurrect a value that should stay deleted).
type LWWMap[K comparable, V any] struct {
	self  NodeID
	cap   Capacity
	slots []lwwMapSlot[K, V] // len 0..MaxElements, cap == MaxElements

	selfLastTS Timestamp
	sawSelfTS  bool
}

// NewLWWMap constructs an empty LWWMap owned by node self.
func NewLWWMap[K comparable, V any](self NodeID, cap Capacity) (*LWWMap[K, V], error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}
	if err := validateNodeID(self, cap); err != nil {
		return nil, err
	}
	return &LWWMap[K, V]{self: self, cap: cap, slots: make([]lwwMapSlot[K, V], 0, cap.MaxElements)}, nil
}

func (m *LWWMap[K, V]) find(key K) int {
	for i := range m.slots {
		if m.slots[i].key == key {
			return i
		}
	}
	return -1
}

func (m *LWWMap[K, V]) checkSelfMonotonic(ts Timestamp) error {
	if m.sawSelfTS && ts < m.selfLastTS {
		return errors.InvalidTimestamp("lwwmap: timestamp regresses for this node", nil)
	}
	return nil
}

// Set writes value for key at timestamp ts from the owning node, allocating
// a new slot if key has never been seen. Fails with InvalidTimestamp if ts
// regresses behind a timestamp this node has already used, and with
// CapacityExceeded if key is new and no slot remains.
func (m *LWWMap[K, V]) Set(key K, value V, ts Timestamp) error {
	if err := m.checkSelfMonotonic(ts); err != nil {
		return err
	}

	i := m.find(key)
	if i == -1 {
		if len(m.slots) >= m.cap.MaxElements {
			return errors.CapacityExceeded("lwwmap: no room for new key", nil)
		}
		m.slots = append(m.slots, lwwMapSlot[K, V]{key: key})
		i = len(m.slots) - 1
	}

	m.selfLastTS = ts
	m.sawSelfTS = true

	slot := &m.slots[i]
	if !slot.used || dominates(ts, m.self, slot.ts, slot.node) || (ts == slot.ts && m.self == slot.node) {
		slot.value = value
		slot.ts = ts
		slot.node = m.self
		slot.removed = false
		slot.used = true
	}
	return nil
}

// Remove tombstones key at timestamp ts from the owning node, returning the
// last live value for key (if any) before the tombstone is recorded.
// Removing a key never seen allocates a tombstone slot so a concurrent,
// older Set for the same key cannot race past it; a later Set with a
// greater (ts, node) still resurrects the key, matching ordinary LWW
// domination.
func (m *LWWMap[K, V]) Remove(key K, ts Timestamp) (V, bool, error) {
	if err := m.checkSelfMonotonic(ts); err != nil {
		var zero V
		return zero, false, err
	}

	i := m.find(key)
	if i == -1 {
		if len(m.slots) >= m.cap.MaxElements {
			var zero V
			return zero, false, errors.CapacityExceeded("lwwmap: no room for new tombstone", nil)
		}
		m.slots = append(m.slots, lwwMapSlot[K, V]{key: key})
		i = len(m.slots) - 1
	}

	m.selfLastTS = ts
	m.sawSelfTS = true

	slot := &m.slots[i]
	prevLive := slot.used && !slot.removed
	var prevValue V
	if prevLive {
		prevValue = slot.value
	}

	if !slot.used || dominates(ts, m.self, slot.ts, slot.node) || (ts == slot.ts && m.self == slot.node) {
		var zero V
		slot.value = zero
		slot.ts = ts
		slot.node = m.self
		slot.removed = true
		slot.used = true
	}
	return prevValue, prevLive, nil
}

// Get returns the live value for key, if any.
func (m *LWWMap[K, V]) Get(key K) (V, bool) {
	if i := m.find(key); i != -1 && m.slots[i].used && !m.slots[i].removed {
		return m.slots[i].value, true
	}
	var zero V
	return zero, false
}

// Len returns the number of keys currently live (excluding tombstones).
func (m *LWWMap[K, V]) Len() int {
	n := 0
	for _, s := range m.slots {
		if s.used && !s.removed {
			n++
		}
	}
	return n
}

// Remaining reports how many more distinct keys can be recorded (live or
// tombstoned) before the map is full.
func (m *LWWMap[K, V]) Remaining() int { return m.cap.MaxElements - len(m.slots) }

// Capacity returns the configuration this LWWMap was built with.
func (m *LWWMap[K, V]) Capacity() Capacity { return m.cap }

// Merge applies, for every key peer knows about, whichever of the two
// slots has the greater (timestamp, node) pair. It fails closed, leaving
// the receiver unchanged, if absorbing peer's new keys would exceed
// MaxElements.
func (m *LWWMap[K, V]) Merge(peer *LWWMap[K, V]) error {
	if err := checkCapacityMatch(m.cap, peer.cap); err != nil {
		return err
	}

	newKeys := 0
	for _, ps := range peer.slots {
		if m.find(ps.key) == -1 {
			newKeys++
		}
	}
	if len(m.slots)+newKeys > m.cap.MaxElements {
		return errors.CapacityExceeded("lwwmap: merge would exceed capacity", nil)
	}

	for _, ps := range peer.slots {
		i := m.find(ps.key)
		if i == -1 {
			m.slots = append(m.slots, ps)
			continue
		}
		slot := &m.slots[i]
		if !slot.used || dominates(ps.ts, ps.node, slot.ts, slot.node) {
			*slot = ps
		}
	}
	return nil
}

// Clone returns an independent copy of m.
func (m *LWWMap[K, V]) Clone() *LWWMap[K, V] {
	slots := make([]lwwMapSlot[K, V], len(m.slots), m.cap.MaxElements)
	copy(slots, m.slots)
	return &LWWMap[K, V]{self: m.self, cap: m.cap, slots: slots, selfLastTS: m.selfLastTS, sawSelfTS: m.sawSelfTS}
}
