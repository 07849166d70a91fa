package protocols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlay-sim/overlay-sim/sim"
	"github.com/overlay-sim/overlay-sim/sim/internal/testutil"
)

func TestWireKOut_Directed(t *testing.T) {
	// GIVEN 10 nodes wired with k=3
	s := runWith(t, sim.Config{EndTime: 10, Seed: 3, Network: stack(t, 10, 0, 0)},
		&WireKOut{PID: pidLinks, K: 3})

	// THEN every node has exactly 3 distinct live neighbors, none of them itself
	for _, n := range s.Network().Nodes() {
		links := neighborsOf(t, n)
		require.Equal(t, 3, links.Degree(), "node %d", n.ID())
		for i := 0; i < links.Degree(); i++ {
			id := links.Neighbor(i)
			assert.NotEqual(t, n.ID(), id)
			_, ok := s.Network().Lookup(id)
			assert.True(t, ok)
		}
	}
}

func TestWireKOut_Undirected(t *testing.T) {
	s := runWith(t, sim.Config{EndTime: 10, Seed: 5, Network: stack(t, 8, 0, 0)},
		&WireKOut{PID: pidLinks, K: 2, Undirected: true})

	// every link has its reverse
	for _, n := range s.Network().Nodes() {
		links := neighborsOf(t, n)
		assert.GreaterOrEqual(t, links.Degree(), 2)
		for i := 0; i < links.Degree(); i++ {
			peer, ok := s.Network().Lookup(links.Neighbor(i))
			require.True(t, ok)
			assert.True(t, neighborsOf(t, peer).Contains(n.ID()))
		}
	}
}

func TestWireKOut_KLargerThanNetwork(t *testing.T) {
	// GIVEN k larger than the number of other nodes
	s := runWith(t, sim.Config{EndTime: 10, Network: stack(t, 4, 0, 0)},
		&WireKOut{PID: pidLinks, K: 10})

	// THEN the graph is complete
	for _, n := range s.Network().Nodes() {
		assert.Equal(t, 3, neighborsOf(t, n).Degree())
	}
}

func TestWireKOut_InitializeJoiningNode(t *testing.T) {
	// GIVEN a wired network of 5 and a node about to join
	w := &WireKOut{PID: pidLinks, K: 2}
	var joined *sim.Node
	runWith(t, sim.Config{EndTime: 10, Network: stack(t, 5, 0, 0)},
		w,
		sim.ControlFunc(func(s *sim.Simulator) (bool, error) {
			joined = s.Network().NewNode()
			if err := w.Initialize(s, joined); err != nil {
				return false, err
			}
			s.Network().Add(joined)
			return false, nil
		}))

	// THEN the newcomer points at two existing nodes
	assert.Equal(t, 2, neighborsOf(t, joined).Degree())
	assert.False(t, neighborsOf(t, joined).Contains(joined.ID()))
}

func TestWireKOut_WrongProtocol(t *testing.T) {
	s, _ := testutil.NewSimulator(t, sim.Config{EndTime: 10, Network: stack(t, 3, 0, 0)})
	s.AddInitializer("wire", &WireKOut{PID: pidAvg, K: 1})

	_, err := s.Run()
	assert.ErrorContains(t, err, "not a linkable protocol")
}
