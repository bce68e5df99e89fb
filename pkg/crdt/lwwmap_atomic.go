package crdt

import (
	"sync/atomic"

	"github.com/vertexclique/crdtosphere/pkg/errors"
)

type lwwMapSlotAtomic[K comparable, V any] struct {
	state   atomic.Int32
	key     K
	version atomic.Uint64 // packVersion(ts, node, tombstone)
	value   V
}

// LWWMapAtomic is the concurrent-safe variant of LWWMap. Key slots are
// claimed the way GSetAtomic claims element slots; once a slot holds a
// key, its value is guarded by the same version-word seqlock
// LWWRegisterAtomic uses. As with GSetAtomic, two goroutines racing to
// insert the same brand-new key may each claim a separate slot; a
// subsequent Merge-with-self or read will simply see both, each converging
// independently under the usual (timestamp, node) domination rule.
type LWWMapAtomic[K comparable, V any] struct {
	self  NodeID
	cap   Capacity
	slots []lwwMapSlotAtomic[K, V]
}

// NewLWWMapAtomic constructs an empty LWWMapAtomic owned by node self.
func NewLWWMapAtomic[K comparable, V any](self NodeID, cap Capacity) (*LWWMapAtomic[K, V], error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}
	if err := validateNodeID(self, cap); err != nil {
		return nil, err
	}
	return &LWWMapAtomic[K, V]{self: self, cap: cap, slots: make([]lwwMapSlotAtomic[K, V], cap.MaxElements)}, nil
}

func (m *LWWMapAtomic[K, V]) find(key K) int {
	for i := range m.slots {
		if m.slots[i].state.Load() == int32(slotOccupied) && m.slots[i].key == key {
			return i
		}
	}
	return -1
}

func (m *LWWMapAtomic[K, V]) writeSlot(i int, ts Timestamp, node NodeID, value V, tombstone bool) {
	slot := &m.slots[i]
	for {
		current := slot.version.Load()
		if isClaimed(current) {
			continue
		}
		curTS, curNode, _ := unpackVersion(current)
		if slot.state.Load() == int32(slotOccupied) && !dominates(ts, node, curTS, curNode) && !(ts == curTS && node == curNode) {
			return
		}
		newVersion := packVersion(ts, node, tombstone)
		if seqlockWrite(&slot.version, current, newVersion, func() {
			slot.value = value
		}) {
			return
		}
	}
}

// Set writes value for key at timestamp ts, claiming a new slot if key has
// never been seen. Safe to call concurrently. Fails with CapacityExceeded
// if key is new and no slot remains.
func (m *LWWMapAtomic[K, V]) Set(key K, value V, ts Timestamp) error {
	if i := m.find(key); i != -1 {
		m.writeSlot(i, ts, m.self, value, false)
		return nil
	}
	for i := range m.slots {
		if m.slots[i].state.CompareAndSwap(int32(slotEmpty), int32(slotClaiming)) {
			m.slots[i].key = key
			m.writeSlot(i, ts, m.self, value, false)
			m.slots[i].state.Store(int32(slotOccupied))
			return nil
		}
	}
	return errors.CapacityExceeded("lwwmap: no room for new key", nil)
}

// Remove tombstones key at timestamp ts, claiming a new slot if key has
// never been seen. Safe to call concurrently. Returns the last live value
// for key, if any, as observed just before the tombstone write.
func (m *LWWMapAtomic[K, V]) Remove(key K, ts Timestamp) (V, bool, error) {
	var zero V
	if i := m.find(key); i != -1 {
		prevValue, prevHas := m.readSlot(i)
		m.writeSlot(i, ts, m.self, zero, true)
		return prevValue, prevHas, nil
	}
	for i := range m.slots {
		if m.slots[i].state.CompareAndSwap(int32(slotEmpty), int32(slotClaiming)) {
			m.slots[i].key = key
			m.writeSlot(i, ts, m.self, zero, true)
			m.slots[i].state.Store(int32(slotOccupied))
			return zero, false, nil
		}
	}
	return zero, false, errors.CapacityExceeded("lwwmap: no room for new tombstone", nil)
}

func (m *LWWMapAtomic[K, V]) readSlot(i int) (V, bool) {
	slot := &m.slots[i]
	var out V
	var has bool
	seqlockRead(&slot.version, func() {
		v := slot.version.Load()
		_, _, tomb := unpackVersion(v)
		has = !tomb
		if has {
			out = slot.value
		}
	})
	return out, has
}

// Get returns the live value for key, if any.
func (m *LWWMapAtomic[K, V]) Get(key K) (V, bool) {
	i := m.find(key)
	if i == -1 {
		var zero V
		return zero, false
	}
	return m.readSlot(i)
}

// Len returns the number of keys currently live (excluding tombstones), as
// observed at the moment of the call.
func (m *LWWMapAtomic[K, V]) Len() int {
	n := 0
	for i := range m.slots {
		if m.slots[i].state.Load() != int32(slotOccupied) {
			continue
		}
		_, _, tomb := unpackVersion(m.slots[i].version.Load())
		if !tomb {
			n++
		}
	}
	return n
}

// Remaining reports how many more distinct keys can be recorded before the
// map is full.
func (m *LWWMapAtomic[K, V]) Remaining() int {
	free := 0
	for i := range m.slots {
		if m.slots[i].state.Load() == int32(slotEmpty) {
			free++
		}
	}
	return free
}

// Capacity returns the configuration this LWWMapAtomic was built with.
func (m *LWWMapAtomic[K, V]) Capacity() Capacity { return m.cap }

// Merge applies, for every key peer knows about, whichever of the two
// slots has the greater (timestamp, node) pair. It fails closed if
// absorbing peer's new keys would exceed capacity, checked before any new
// slot is claimed.
func (m *LWWMapAtomic[K, V]) Merge(peer *LWWMapAtomic[K, V]) error {
	if err := checkCapacityMatch(m.cap, peer.cap); err != nil {
		return err
	}

	type peerEntry struct {
		key  K
		ts   Timestamp
		node NodeID
		val  V
		tomb bool
	}
	var entries []peerEntry
	for i := range peer.slots {
		if peer.slots[i].state.Load() != int32(slotOccupied) {
			continue
		}
		slot := &peer.slots[i]
		var e peerEntry
		e.key = slot.key
		seqlockRead(&slot.version, func() {
			v := slot.version.Load()
			e.ts, e.node, e.tomb = unpackVersion(v)
			e.val = slot.value
		})
		entries = append(entries, e)
	}

	newKeys := 0
	for _, e := range entries {
		if m.find(e.key) == -1 {
			newKeys++
		}
	}
	if newKeys > m.Remaining() {
		return errors.CapacityExceeded("lwwmap: merge would exceed capacity", nil)
	}

	for _, e := range entries {
		if i := m.find(e.key); i != -1 {
			m.writeSlot(i, e.ts, e.node, e.val, e.tomb)
			continue
		}
		for i := range m.slots {
			if m.slots[i].state.CompareAndSwap(int32(slotEmpty), int32(slotClaiming)) {
				m.slots[i].key = e.key
				m.writeSlot(i, e.ts, e.node, e.val, e.tomb)
				m.slots[i].state.Store(int32(slotOccupied))
				break
			}
		}
	}
	return nil
}

// Clone returns an independent snapshot of m.
func (m *LWWMapAtomic[K, V]) Clone() *LWWMapAtomic[K, V] {
	clone := &LWWMapAtomic[K, V]{self: m.self, cap: m.cap, slots: make([]lwwMapSlotAtomic[K, V], len(m.slots))}
	for i := range m.slots {
		clone.slots[i].state.Store(m.slots[i].state.Load())
		clone.slots[i].key = m.slots[i].key
		clone.slots[i].value = m.slots[i].value
		clone.slots[i].version.Store(m.slots[i].version.Load() &^ versionClaimedBit)
	}
	return clone
}
