package dynamics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlay-sim/overlay-sim/sim"
	"github.com/overlay-sim/overlay-sim/sim/internal/testutil"
)

func TestDynamicNetwork_FractionalGrowth_SizesAndInitializers(t *testing.T) {
	// GIVEN 4 nodes, churn adding half the population every 10 units, max 10
	s, _ := testutil.NewSimulator(t, sim.Config{EndTime: 21, Seed: 1, Network: testutil.IdleNetwork(4)})
	counter := testutil.NewCountingInitializer()
	churn := NewDynamicNetwork("churn", 0.5, counter)
	churn.MaxSize = 10

	// AND an observer declared before the churn control
	observer := &testutil.SizeRecorder{}
	every10 := testutil.Scheduler(t, 0, 10, math.MaxInt64)
	s.AddControl("observer", observer, every10)
	s.AddControl("churn", churn, every10)

	// WHEN the experiment runs
	_, err := s.Run()
	require.NoError(t, err)

	// THEN the population seen at t=0,10,20 was 4,6,9
	assert.Equal(t, []int{4, 6, 9}, observer.Sizes())
	assert.Equal(t, 10, s.Network().Size())

	// AND each of the 6 added nodes was initialized exactly once before joining
	require.Len(t, counter.Calls, 6)
	for id, calls := range counter.Calls {
		assert.Equal(t, 1, calls, "node %d", id)
		_, live := s.Network().Lookup(id)
		assert.True(t, live, "node %d", id)
	}
}

func TestDynamicNetwork_Delta(t *testing.T) {
	tests := []struct {
		name       string
		add        float64
		min, max   int
		substitute bool
		size       int
		wantAdd    int
		wantRemove int
	}{
		{"zero rate", 0, 0, 100, false, 10, 0, 0},
		{"fraction", 0.5, 0, 100, false, 4, 2, 0},
		{"fraction rounds half up", 0.5, 0, 100, false, 5, 3, 0},
		{"fraction capped by max", 0.5, 0, 10, false, 9, 1, 0},
		{"absolute", 3, 0, 100, false, 4, 3, 0},
		{"at max", 2, 0, 10, false, 10, 0, 0},
		{"fractional shrink", -0.25, 0, 100, false, 8, 0, 2},
		{"shrink capped by min", -5, 5, 100, false, 8, 0, 3},
		{"at min", -1, 8, 100, false, 8, 0, 0},
		{"substitute ignores max", 2, 0, 5, true, 5, 2, 2},
		{"substitute shrink", -0.5, 0, 100, true, 4, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDynamicNetwork("d", tt.add)
			d.MinSize, d.MaxSize, d.Substitute = tt.min, tt.max, tt.substitute
			gotAdd, gotRemove := d.Delta(tt.size)
			assert.Equal(t, tt.wantAdd, gotAdd)
			assert.Equal(t, tt.wantRemove, gotRemove)
		})
	}
}

func TestDynamicNetwork_Shrink_RemovesRandomNodesDown(t *testing.T) {
	s, _ := testutil.NewSimulator(t, sim.Config{EndTime: 100, Seed: 5, Network: testutil.IdleNetwork(20)})
	churn := NewDynamicNetwork("shrink", -3)
	churn.MinSize = 5
	s.AddControl("shrink", churn, testutil.Scheduler(t, 0, 10, math.MaxInt64))
	observer := &testutil.SizeRecorder{}
	s.AddControl("observer", observer, testutil.Scheduler(t, 0, 10, math.MaxInt64))

	var initial []*sim.Node
	s.AddInitializer("snapshot", sim.ControlFunc(func(sm *sim.Simulator) (bool, error) {
		initial = append(initial, sm.Network().Nodes()...)
		return false, nil
	}))

	_, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, []int{17, 14, 11, 8, 5, 5, 5, 5, 5, 5}, observer.Sizes())
	dead := 0
	for _, n := range initial {
		if n.FailState() == sim.Dead {
			dead++
			continue
		}
		got, err := s.Network().Get(n.Index())
		require.NoError(t, err)
		assert.Same(t, n, got)
	}
	assert.Equal(t, 15, dead)
}

func TestDynamicNetwork_Substitute_KeepsSizeAndReplacesNodes(t *testing.T) {
	s, _ := testutil.NewSimulator(t, sim.Config{EndTime: 50, Seed: 2, Network: testutil.IdleNetwork(10)})
	counter := testutil.NewCountingInitializer()
	churn := NewDynamicNetwork("sub", 0.2, counter)
	churn.Substitute = true
	observer := &testutil.SizeRecorder{}
	s.AddControl("sub", churn, testutil.Scheduler(t, 0, 10, math.MaxInt64))
	s.AddControl("observer", observer, testutil.Scheduler(t, 0, 10, math.MaxInt64))

	_, err := s.Run()
	require.NoError(t, err)

	assert.Equal(t, []int{10, 10, 10, 10, 10}, observer.Sizes())
	assert.Len(t, counter.Calls, 10)
}

func TestDynamicNetwork_InitializerError_AbortsRun(t *testing.T) {
	s, _ := testutil.NewSimulator(t, sim.Config{EndTime: 50, Network: testutil.IdleNetwork(2)})
	churn := NewDynamicNetwork("churn", 1, failingInit{})
	s.AddControl("churn", churn, sim.Always(10))

	_, err := s.Run()
	assert.ErrorIs(t, err, errInit)
	assert.Equal(t, 2, s.Network().Size(), "node must not join when its initializer fails")
}

// cycleTimes records the cycles of every node sharing it.
type cycleTimes map[sim.NodeID][]int64

type ticker struct{ seen cycleTimes }

func (t ticker) Clone() sim.Protocol { return t }

func (t ticker) OnCycle(s *sim.Simulator, node *sim.Node, _ int) error {
	t.seen[node.ID()] = append(t.seen[node.ID()], s.Clock())
	return nil
}

// joinTimes records the clock at which each node was initialized.
type joinTimes map[sim.NodeID]int64

func (j joinTimes) Initialize(s *sim.Simulator, node *sim.Node) error {
	j[node.ID()] = s.Clock()
	return nil
}

func TestDynamicNetwork_JoiningNodes_CycleOnIntervalBoundaries(t *testing.T) {
	// GIVEN 2 nodes cycling every 10 units from 0
	seen := cycleTimes{}
	s, _ := testutil.NewSimulator(t, sim.Config{EndTime: 50, Seed: 3, Network: sim.NetworkConfig{
		Size:      2,
		Protocols: []sim.ProtocolSpec{{Name: "tick", New: func() (sim.Protocol, error) { return ticker{seen: seen}, nil }}},
	}})
	cs := sim.NewCycleScheduler(0, sim.Always(10), sim.FixedDelay{}, false)
	s.AddInitializer("cycle.tick", cs)

	// AND churn adding one node every 7 units, joining the cycle through cs
	joined := joinTimes{}
	churn := NewDynamicNetwork("churn", 1, joined, cs)
	s.AddControl("churn", churn, testutil.Scheduler(t, 7, 7, math.MaxInt64))

	// WHEN the experiment runs
	_, err := s.Run()
	require.NoError(t, err)

	// THEN 7 nodes joined, at 7,14,...,49
	require.Len(t, joined, 7)
	assert.Equal(t, 9, s.Network().Size())

	// AND every node cycled once per interval, on the boundaries only,
	// starting at the first boundary at or after its join time
	for _, n := range s.Network().Nodes() {
		start := int64(0)
		if at, ok := joined[n.ID()]; ok {
			start = (at + 9) / 10 * 10
		}
		var want []int64
		for b := start; b < 50; b += 10 {
			want = append(want, b)
		}
		assert.Equal(t, want, seen[n.ID()], "node %d joined at %d", n.ID(), joined[n.ID()])
	}
}
