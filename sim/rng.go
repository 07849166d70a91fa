package sim

import (
	"hash/fnv"
	"math/rand"
)

// Random streams of one experiment. Each consumer draws from its own stream
// so that extra draws in one place (an observer, a new protocol) never shift
// the event order produced elsewhere.
const (
	// SubsystemQueue draws the tie-break priorities of non-control events.
	// It is seeded with the experiment seed itself.
	SubsystemQueue = "queue"
	// SubsystemNetwork drives Network.Shuffle.
	SubsystemNetwork = "network"
	// SubsystemChurn picks the nodes removed by the dynamics controls.
	SubsystemChurn = "churn"
	// SubsystemCycle draws cycle start offsets and cycle delays.
	SubsystemCycle = "cycle"
	// SubsystemProtocol is shared by protocol logic: neighbor choice,
	// transport latency, wiring and value distributions.
	SubsystemProtocol = "protocol"
)

// SubsystemComponent names a private stream for one configured component.
func SubsystemComponent(name string) string {
	return "component_" + name
}

// PartitionedRNG hands out one *rand.Rand per named stream, all derived from
// a single experiment seed: the queue stream uses the seed as is, every other
// stream uses seed XOR fnv1a64(name). Streams are created on first use and
// cached. Not safe for concurrent use.
type PartitionedRNG struct {
	seed    int64
	streams map[string]*rand.Rand
}

// NewPartitionedRNG returns the streams of the experiment seeded with seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{seed: seed, streams: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the stream called name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if r, ok := p.streams[name]; ok {
		return r
	}
	derived := p.seed
	if name != SubsystemQueue {
		derived ^= fnv1a64(name)
	}
	r := rand.New(rand.NewSource(derived))
	p.streams[name] = r
	return r
}

// Seed returns the experiment seed.
func (p *PartitionedRNG) Seed() int64 { return p.seed }

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}
