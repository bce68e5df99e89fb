package crdt

// PNCounterAtomic is the concurrent-safe variant of PNCounter: increment and
// decrement may each be called from multiple goroutines without external
// locking, built from two GCounterAtomic halves.
type PNCounterAtomic struct {
	p *GCounterAtomic
	n *GCounterAtomic
}

// NewPNCounterAtomic constructs a zeroed PNCounterAtomic owned by node self.
func NewPNCounterAtomic(self NodeID, cap Capacity) (*PNCounterAtomic, error) {
	p, err := NewGCounterAtomic(self, cap)
	if err != nil {
		return nil, err
	}
	n, err := NewGCounterAtomic(self, cap)
	if err != nil {
		return nil, err
	}
	return &PNCounterAtomic{p: p, n: n}, nil
}

// Increment adds delta to this node's positive half.
func (c *PNCounterAtomic) Increment(delta uint64) error { return c.p.Increment(delta) }

// Decrement adds delta to this node's negative half.
func (c *PNCounterAtomic) Decrement(delta uint64) error { return c.n.Increment(delta) }

// Value returns sum(positive) - sum(negative) at the moment of the call.
func (c *PNCounterAtomic) Value() int64 { return int64(c.p.Value()) - int64(c.n.Value()) }

// Capacity returns the configuration this PNCounterAtomic was built with.
func (c *PNCounterAtomic) Capacity() Capacity { return c.p.Capacity() }

// Merge merges both halves independently.
func (c *PNCounterAtomic) Merge(peer *PNCounterAtomic) error {
	if err := c.p.Merge(peer.p); err != nil {
		return err
	}
	return c.n.Merge(peer.n)
}

// Clone returns an independent snapshot of c.
func (c *PNCounterAtomic) Clone() *PNCounterAtomic {
	return &PNCounterAtomic{p: c.p.Clone(), n: c.n.Clone()}
}
