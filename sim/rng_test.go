package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draws(r *rand.Rand, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = r.Int63()
	}
	return out
}

func TestPartitionedRNG_SameSeedSameStreams(t *testing.T) {
	a, b := NewPartitionedRNG(42), NewPartitionedRNG(42)

	for _, name := range []string{SubsystemQueue, SubsystemChurn, SubsystemComponent("obs")} {
		assert.Equal(t, draws(a.ForSubsystem(name), 5), draws(b.ForSubsystem(name), 5), name)
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestPartitionedRNG_StreamsAreIsolated(t *testing.T) {
	// GIVEN one generator whose queue stream was drained heavily
	busy := NewPartitionedRNG(7)
	draws(busy.ForSubsystem(SubsystemQueue), 100)

	// WHEN its churn stream is read
	got := draws(busy.ForSubsystem(SubsystemChurn), 5)

	// THEN it matches the churn stream of an untouched generator
	assert.Equal(t, draws(NewPartitionedRNG(7).ForSubsystem(SubsystemChurn), 5), got)
}

func TestPartitionedRNG_QueueStreamUsesSeed(t *testing.T) {
	got := draws(NewPartitionedRNG(99).ForSubsystem(SubsystemQueue), 10)
	assert.Equal(t, draws(rand.New(rand.NewSource(99)), 10), got)
}

func TestPartitionedRNG_StreamsDiffer(t *testing.T) {
	p := NewPartitionedRNG(1)
	seen := map[int64]string{}
	for _, name := range []string{SubsystemQueue, SubsystemNetwork, SubsystemChurn, SubsystemCycle, SubsystemProtocol} {
		first := p.ForSubsystem(name).Int63()
		prev, dup := seen[first]
		require.False(t, dup, "%s and %s start identically", name, prev)
		seen[first] = name
	}
}

func TestPartitionedRNG_CachesStreams(t *testing.T) {
	p := NewPartitionedRNG(3)
	assert.Empty(t, p.streams)

	assert.Same(t, p.ForSubsystem(SubsystemCycle), p.ForSubsystem(SubsystemCycle))
	assert.Len(t, p.streams, 1)
}

func TestSubsystemComponent(t *testing.T) {
	assert.Equal(t, "component_grow", SubsystemComponent("grow"))
	assert.NotEqual(t, fnv1a64(SubsystemComponent("a")), fnv1a64(SubsystemComponent("b")))
}
