package crdt

import "github.com/vertexclique/crdtosphere/pkg/errors"

type lwwCell[V any] struct {
	value V
	ts    Timestamp
	node  NodeID
	has   bool
}

// LWWRegister is a last-writer-wins register CRDT: exactly one live cell,
// replaced only by a strictly newer (timestamp, node) pair. LWWRegister is
// single-owner; see LWWRegisterAtomic for the concurrent-safe variant.
type LWWRegister[V any] struct {
	self       NodeID
	cap        Capacity
	cell       lwwCell[V]
	selfLastTS Timestamp
	sawSelfTS  bool
}

// NewLWWRegister constructs an empty LWWRegister owned by node self.
func NewLWWRegister[V any](self NodeID, cap Capacity) (*LWWRegister[V], error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}
	if err := validateNodeID(self, cap); err != nil {
		return nil, err
	}
	return &LWWRegister[V]{self: self, cap: cap}, nil
}

// Set writes value at timestamp ts from the owning node. It fails with
// InvalidTimestamp if ts regresses behind a timestamp this node has already
// used (the clock contract requires per-node monotonicity); a re-write at
// an identical (ts, self) is accepted as a no-op. A well-formed ts that
// loses the LWW race against the currently stored cell is not an error —
// it simply does not become visible until it wins a later comparison.
func (r *LWWRegister[V]) Set(value V, ts Timestamp) error {
	if r.sawSelfTS && ts < r.selfLastTS {
		return errors.InvalidTimestamp("lwwregister: timestamp regresses for this node", nil)
	}
	r.selfLastTS = ts
	r.sawSelfTS = true

	if !r.cell.has || dominates(ts, r.self, r.cell.ts, r.cell.node) {
		r.cell = lwwCell[V]{value: value, ts: ts, node: r.self, has: true}
	}
	return nil
}

// Get returns the stored value, if any.
func (r *LWWRegister[V]) Get() (V, bool) {
	return r.cell.value, r.cell.has
}

// Capacity returns the configuration this LWWRegister was built with.
func (r *LWWRegister[V]) Capacity() Capacity { return r.cap }

// Merge keeps whichever cell has the greater (timestamp, node) pair.
func (r *LWWRegister[V]) Merge(peer *LWWRegister[V]) error {
	if err := checkCapacityMatch(r.cap, peer.cap); err != nil {
		return err
	}
	if peer.cell.has && (!r.cell.has || dominates(peer.cell.ts, peer.cell.node, r.cell.ts, r.cell.node)) {
		r.cell = peer.cell
	}
	return nil
}

// Clone returns an independent copy of r.
func (r *LWWRegister[V]) Clone() *LWWRegister[V] {
	clone := *r
	return &clone
}
