package crdt

import (
	"sync/atomic"

	"github.com/vertexclique/crdtosphere/pkg/errors"
)

// LWWRegisterAtomic is the concurrent-safe variant of LWWRegister. The cell
// is guarded by a packed version word (timestamp + node + claimed bit)
// rather than a Mutex: a writer claims the word with CAS, writes the plain
// value field, then publishes the new version; a reader uses a
// seqlock-style read-verify-retry loop. See atomic_helpers.go.
type LWWRegisterAtomic[V any] struct {
	self    NodeID
	cap     Capacity
	version atomic.Uint64
	value   V
	has     atomic.Bool

	selfLastTS atomic.Uint64
}

// NewLWWRegisterAtomic constructs an empty LWWRegisterAtomic owned by node
// self.
func NewLWWRegisterAtomic[V any](self NodeID, cap Capacity) (*LWWRegisterAtomic[V], error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}
	if err := validateNodeID(self, cap); err != nil {
		return nil, err
	}
	r := &LWWRegisterAtomic[V]{self: self, cap: cap}
	r.selfLastTS.Store(^uint64(0)) // sentinel: no write yet (see noSelfTSSentinel below)
	return r, nil
}

const noSelfTSSentinel = ^uint64(0)

// Set writes value at timestamp ts, safe to call from multiple goroutines
// concurrently. Fails with InvalidTimestamp if ts regresses behind a
// timestamp this node has already used. A well-formed ts that loses the LWW
// race is not an error.
func (r *LWWRegisterAtomic[V]) Set(value V, ts Timestamp) error {
	for {
		lastTS := r.selfLastTS.Load()
		if lastTS != noSelfTSSentinel && ts < Timestamp(lastTS) {
			return errors.InvalidTimestamp("lwwregister: timestamp regresses for this node", nil)
		}
		if r.selfLastTS.CompareAndSwap(lastTS, uint64(ts)) {
			break
		}
	}

	for {
		current := r.version.Load()
		if isClaimed(current) {
			continue
		}
		curTS, curNode, _ := unpackVersion(current)
		hadValue := r.has.Load()
		if hadValue && !dominates(ts, r.self, curTS, curNode) && !(ts == curTS && r.self == curNode) {
			return nil // loses the race against the currently published cell
		}
		newVersion := packVersion(ts, r.self, false)
		if seqlockWrite(&r.version, current, newVersion, func() {
			r.value = value
			r.has.Store(true)
		}) {
			return nil
		}
	}
}

// Get returns the stored value, if any.
func (r *LWWRegisterAtomic[V]) Get() (V, bool) {
	var out V
	var has bool
	seqlockRead(&r.version, func() {
		out = r.value
		has = r.has.Load()
	})
	return out, has
}

// Capacity returns the configuration this LWWRegisterAtomic was built with.
func (r *LWWRegisterAtomic[V]) Capacity() Capacity { return r.cap }

// Merge keeps whichever cell has the greater (timestamp, node) pair. Safe
// to call concurrently with Set on either register.
func (r *LWWRegisterAtomic[V]) Merge(peer *LWWRegisterAtomic[V]) error {
	if err := checkCapacityMatch(r.cap, peer.cap); err != nil {
		return err
	}

	var peerValue V
	var peerHas bool
	var peerTS Timestamp
	var peerNode NodeID
	seqlockRead(&peer.version, func() {
		peerValue = peer.value
		peerHas = peer.has.Load()
		v := peer.version.Load()
		peerTS, peerNode, _ = unpackVersion(v)
	})
	if !peerHas {
		return nil
	}

	for {
		current := r.version.Load()
		if isClaimed(current) {
			continue
		}
		curTS, curNode, _ := unpackVersion(current)
		if r.has.Load() && !dominates(peerTS, peerNode, curTS, curNode) {
			return nil
		}
		newVersion := packVersion(peerTS, peerNode, false)
		if seqlockWrite(&r.version, current, newVersion, func() {
			r.value = peerValue
			r.has.Store(true)
		}) {
			return nil
		}
	}
}

// Clone returns an independent snapshot of r.
func (r *LWWRegisterAtomic[V]) Clone() *LWWRegisterAtomic[V] {
	clone := &LWWRegisterAtomic[V]{self: r.self, cap: r.cap}
	clone.selfLastTS.Store(r.selfLastTS.Load())
	seqlockRead(&r.version, func() {
		clone.value = r.value
		clone.has.Store(r.has.Load())
	})
	clone.version.Store(r.version.Load() &^ versionClaimedBit)
	return clone
}
