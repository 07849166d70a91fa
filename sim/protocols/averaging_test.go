package protocols

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overlay-sim/overlay-sim/sim"
)

func spread(t *testing.T, s *sim.Simulator) (mean, width float64) {
	t.Helper()
	lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
	for _, n := range s.Network().Nodes() {
		v := averagingOf(t, n).Value()
		sum += v
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return sum / float64(s.Network().Size()), hi - lo
}

func TestAveraging_ConvergesToInvariantMean(t *testing.T) {
	// GIVEN 20 nodes wired k=4 with values 0..19 averaging every time unit
	cycles, err := sim.NewScheduler(0, 1, 30, false)
	require.NoError(t, err)
	s := runWith(t, sim.Config{EndTime: 40, Seed: 11, Network: stack(t, 20, 0, 0)},
		&WireKOut{PID: pidLinks, K: 4},
		&ValueDistribution{PID: pidAvg, Mode: DistributionLinear, Min: 0, Max: 19},
		sim.NewCycleScheduler(pidAvg, cycles, sim.FixedDelay{}, false))

	// THEN the mean is unchanged and the values have converged
	mean, width := spread(t, s)
	assert.InDelta(t, 9.5, mean, 1e-9)
	assert.Less(t, width, 1.0)
}

func TestAveraging_WithoutNeighborsKeepsValue(t *testing.T) {
	cycles, err := sim.NewScheduler(0, 1, 5, false)
	require.NoError(t, err)
	s := runWith(t, sim.Config{EndTime: 10, Network: stack(t, 3, 0, 0)},
		&ValueDistribution{PID: pidAvg, Mode: DistributionLinear, Min: 1, Max: 3},
		sim.NewCycleScheduler(pidAvg, cycles, nil, false))

	for i, n := range s.Network().Nodes() {
		assert.Equal(t, float64(i+1), averagingOf(t, n).Value())
	}
}

func TestAveraging_CloneCopiesValue(t *testing.T) {
	a := NewAveraging(0)
	a.SetValue(4)
	c := a.Clone().(*Averaging)
	c.SetValue(1)

	assert.Equal(t, 4.0, a.Value())
	assert.Equal(t, 1.0, c.Value())
}
