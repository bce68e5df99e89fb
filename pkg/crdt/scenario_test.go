package crdt

import (
	"testing"

	"github.com/vertexclique/crdtosphere/pkg/test"
)

// ConvergenceSuite exercises eventual consistency under pairwise merge for
// the single-owner GCounter, PNCounter, LWWRegister, GSet, ORSet and
// LWWMap, using testify's suite runner through pkg/test.Suite.
type ConvergenceSuite struct {
	test.Suite
	cap Capacity
}

func (s *ConvergenceSuite) SetupTest() {
	s.Suite.SetupTest()
	s.cap = Capacity{MaxNodes: 4, MaxElements: 16}
}

func (s *ConvergenceSuite) TestGCounterEventualConsistency() {
	a, err := NewGCounter(0, s.cap)
	s.Require().NoError(err)
	b, err := NewGCounter(1, s.cap)
	s.Require().NoError(err)
	s.Require().NoError(a.Increment(3))
	s.Require().NoError(b.Increment(5))

	s.Require().NoError(a.Merge(b))
	s.Require().NoError(b.Merge(a))
	s.Equal(a.Value(), b.Value())
	s.Equal(uint64(8), a.Value())
}

func (s *ConvergenceSuite) TestPNCounterEventualConsistency() {
	a, err := NewPNCounter(0, s.cap)
	s.Require().NoError(err)
	b, err := NewPNCounter(1, s.cap)
	s.Require().NoError(err)
	s.Require().NoError(a.Increment(10))
	s.Require().NoError(b.Decrement(4))

	s.Require().NoError(a.Merge(b))
	s.Require().NoError(b.Merge(a))
	s.Equal(a.Value(), b.Value())
	s.Equal(int64(6), a.Value())
}

func (s *ConvergenceSuite) TestLWWRegisterEventualConsistency() {
	a, err := NewLWWRegister[string](0, s.cap)
	s.Require().NoError(err)
	b, err := NewLWWRegister[string](1, s.cap)
	s.Require().NoError(err)
	s.Require().NoError(a.Set("from-a", 1))
	s.Require().NoError(b.Set("from-b", 2))

	s.Require().NoError(a.Merge(b))
	s.Require().NoError(b.Merge(a))
	va, _ := a.Get()
	vb, _ := b.Get()
	s.Equal(vb, va)
	s.Equal("from-b", va)
}

func (s *ConvergenceSuite) TestGSetEventualConsistency() {
	a, err := NewGSet[int](s.cap)
	s.Require().NoError(err)
	b, err := NewGSet[int](s.cap)
	s.Require().NoError(err)
	s.Require().NoError(a.Insert(1))
	s.Require().NoError(b.Insert(2))

	s.Require().NoError(a.Merge(b))
	s.Require().NoError(b.Merge(a))
	s.ElementsMatch(a.Values(), b.Values())
}

func (s *ConvergenceSuite) TestORSetEventualConsistency() {
	a, err := NewORSet[int](0, s.cap)
	s.Require().NoError(err)
	b, err := NewORSet[int](1, s.cap)
	s.Require().NoError(err)
	_, err = a.Insert(1)
	s.Require().NoError(err)
	_, err = b.Insert(2)
	s.Require().NoError(err)

	s.Require().NoError(a.Merge(b))
	s.Require().NoError(b.Merge(a))
	s.ElementsMatch(a.Values(), b.Values())
}

func (s *ConvergenceSuite) TestLWWMapEventualConsistency() {
	a, err := NewLWWMap[string, int](0, s.cap)
	s.Require().NoError(err)
	b, err := NewLWWMap[string, int](1, s.cap)
	s.Require().NoError(err)
	s.Require().NoError(a.Set("x", 1, 1))
	s.Require().NoError(b.Set("y", 2, 1))

	s.Require().NoError(a.Merge(b))
	s.Require().NoError(b.Merge(a))
	s.Equal(a.Len(), b.Len())
}

func TestConvergenceSuite(t *testing.T) {
	test.Run(t, new(ConvergenceSuite))
}
