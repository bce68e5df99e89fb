package crdt

import (
	"math"

	"github.com/vertexclique/crdtosphere/pkg/errors"
)

// GCounter is a grow-only counter CRDT: a vector of per-node counts whose
// merge is a per-index max. Counts never decrease across Increment or
// Merge; overflow is the only failure. GCounter is single-owner: it must
// not be shared across goroutines for mutation. See GCounterAtomic for the
// concurrent-safe variant.
type GCounter struct {
	self   NodeID
	cap    Capacity
	counts []uint64 // len == cap.MaxNodes, allocated once at construction
}

// NewGCounter constructs an empty GCounter owned by node self.
func NewGCounter(self NodeID, cap Capacity) (*GCounter, error) {
	if err := cap.Validate(); err != nil {
		return nil, err
	}
	if err := validateNodeID(self, cap); err != nil {
		return nil, err
	}
	return &GCounter{self: self, cap: cap, counts: make([]uint64, cap.MaxNodes)}, nil
}

// Increment adds delta to this node's count. It fails with Overflow if the
// sum would wrap uint64.
func (c *GCounter) Increment(delta uint64) error {
	cur := c.counts[c.self]
	if delta > math.MaxUint64-cur {
		return errors.Overflow("gcounter: increment would overflow uint64", nil)
	}
	c.counts[c.self] = cur + delta
	return nil
}

// Value returns the sum of all per-node counts.
func (c *GCounter) Value() uint64 {
	var total uint64
	for _, v := range c.counts {
		total += v
	}
	return total
}

// NodeValue returns the count for a single node index.
func (c *GCounter) NodeValue(i NodeID) (uint64, error) {
	if err := validateNodeID(i, c.cap); err != nil {
		return 0, err
	}
	return c.counts[i], nil
}

// Capacity returns the configuration this GCounter was built with.
func (c *GCounter) Capacity() Capacity { return c.cap }

// Merge folds peer's state into c: for each index, count[i] = max(count[i],
// peer.count[i]). Commutative, associative, and idempotent because max is.
func (c *GCounter) Merge(peer *GCounter) error {
	if err := checkCapacityMatch(c.cap, peer.cap); err != nil {
		return err
	}
	for i := range c.counts {
		if peer.counts[i] > c.counts[i] {
			c.counts[i] = peer.counts[i]
		}
	}
	return nil
}

// Clone returns an independent copy of c.
func (c *GCounter) Clone() *GCounter {
	counts := make([]uint64, len(c.counts))
	copy(counts, c.counts)
	return &GCounter{self: c.self, cap: c.cap, counts: counts}
}
