// Package crdt implements a library of Conflict-free Replicated Data Types
// (CRDTs) sized for a hosted environment with no dynamic memory allocator:
// every CRDT is parameterised by a Capacity fixed at construction, and every
// mutating operation runs in bounded steps proportional to that capacity,
// never to wall-clock history.
//
// Each of the seven CRDTs (GCounter, PNCounter, LWWRegister, MVRegister,
// GSet, ORSet, LWWMap) is implemented twice: a single-owner variant for
// exclusive-access use, and an atomic variant (suffixed Atomic) safe for
// concurrent mutation from multiple goroutines or interrupt contexts. The
// two variants share a merge algebra, not a code path — see the comment
// at the top of pkg/crdt/atomic_helpers.go for why.
package crdt

import "github.com/vertexclique/crdtosphere/pkg/errors"

// Capacity fixes, per replica, the maximum node count and the maximum
// element count a container-shaped CRDT (GSet, ORSet, LWWMap) may hold.
// TotalMemoryBudget is an optional advisory ceiling in bytes; it is not
// enforced at runtime (there is no allocator to police), but a caller
// building for a real target is expected to size MaxNodes/MaxElements so
// the resulting struct footprint fits the budget.
//
// A Capacity is the single source of sizing truth: every constructor in
// this package validates it, and merge is only defined between two CRDTs
// built from an equal Capacity (spec's open question on mixed-capacity
// merge is resolved here: a mismatch fails closed with InvalidOperation
// rather than silently merging incompatible states).
type Capacity struct {
	MaxNodes          int
	MaxElements       int
	TotalMemoryBudget int // bytes; 0 means unchecked
}

// Validate rejects a Capacity that cannot back any CRDT in this package.
// MaxNodes may be 0 for container types that never index by node identity
// (GSet, GSetAtomic); every type that does take a self NodeID enforces a
// usable MaxNodes itself, through validateNodeID rejecting any NodeID
// against a zero node ceiling.
func (c Capacity) Validate() error {
	if c.MaxNodes < 0 {
		return errors.InvalidOperation("capacity: MaxNodes must not be negative", nil)
	}
	if c.MaxElements < 0 {
		return errors.InvalidOperation("capacity: MaxElements must not be negative", nil)
	}
	return nil
}

// Equal reports whether two capacities describe the same fixed layout.
// Two CRDTs may only be merged if their capacities are Equal.
func (c Capacity) Equal(other Capacity) bool {
	return c.MaxNodes == other.MaxNodes &&
		c.MaxElements == other.MaxElements &&
		c.TotalMemoryBudget == other.TotalMemoryBudget
}

func checkCapacityMatch(a, b Capacity) error {
	if !a.Equal(b) {
		return errors.InvalidOperation("merge: capacity configurations differ", nil)
	}
	return nil
}

// NodeID identifies a replica; it is a plain index in [0, MaxNodes) used
// both as an array index and as the deterministic tie-breaker in LWW
// comparisons.
type NodeID uint32

func validateNodeID(id NodeID, cap Capacity) error {
	if int(id) < 0 || int(id) >= cap.MaxNodes {
		return errors.InvalidNodeID("node id out of range for capacity", nil)
	}
	return nil
}

// Timestamp is an opaque, caller-supplied unsigned counter, monotonic
// per-node. No ordering is assumed between nodes; ties are broken by
// NodeID.
type Timestamp uint64

// dominates reports whether (ts1, n1) strictly dominates (ts2, n2) under
// lexicographic order with timestamp dominant, the tie-break rule used by
// every LWW-family comparison in this package.
func dominates(ts1 Timestamp, n1 NodeID, ts2 Timestamp, n2 NodeID) bool {
	if ts1 != ts2 {
		return ts1 > ts2
	}
	return n1 > n2
}
