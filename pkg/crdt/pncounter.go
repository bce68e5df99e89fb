package crdt

// PNCounter is a positive/negative counter CRDT built from two GCounters:
// p tracks increments, n tracks decrements. Value is Σp − Σn as an int64,
// exact whenever the difference itself lies in the int64 range, however
// large the two sums are. Each half is independently monotonic; PNCounter is single-owner.
type PNCounter struct {
	p *GCounter
	n *GCounter
}

// NewPNCounter constructs a zeroed PNCounter owned by node self.
func NewPNCounter(self NodeID, cap Capacity) (*PNCounter, error) {
	p, err := NewGCounter(self, cap)
	if err != nil {
		return nil, err
	}
	n, err := NewGCounter(self, cap)
	if err != nil {
		return nil, err
	}
	return &PNCounter{p: p, n: n}, nil
}

// Increment routes delta to the positive half.
func (c *PNCounter) Increment(delta uint64) error {
	return c.p.Increment(delta)
}

// Decrement routes delta to the negative half.
func (c *PNCounter) Decrement(delta uint64) error {
	return c.n.Increment(delta)
}

// Value returns p.Value() - n.Value() as a signed 64-bit integer.
func (c *PNCounter) Value() int64 {
	return int64(c.p.Value() - c.n.Value())
}

// Capacity returns the configuration this PNCounter was built with.
func (c *PNCounter) Capacity() Capacity { return c.p.Capacity() }

// Merge merges both halves component-wise against peer's.
func (c *PNCounter) Merge(peer *PNCounter) error {
	if err := c.p.Merge(peer.p); err != nil {
		return err
	}
	return c.n.Merge(peer.n)
}

// Clone returns an independent copy of c.
func (c *PNCounter) Clone() *PNCounter {
	return &PNCounter{p: c.p.Clone(), n: c.n.Clone()}
}
