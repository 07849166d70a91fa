package sim

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// hit is one handler invocation observed by a probe.
type hit struct {
	time  int64
	node  NodeID
	event any // nil for cycles
}

// hitLog is shared by a probe prototype and all of its clones.
type hitLog struct {
	hits []hit
}

func (l *hitLog) times() []int64 {
	out := make([]int64, len(l.hits))
	for i, h := range l.hits {
		out[i] = h.time
	}
	return out
}

// probe is Reactive, Cyclic and Cleanable, recording every call.
type probe struct {
	log       *hitLog
	cycles    int
	destroyed int
	onEvent   func(sim *Simulator, node *Node, pid int, event any) error
	onCycle   func(sim *Simulator, node *Node, pid int) error
}

func (p *probe) Clone() Protocol {
	c := *p
	c.cycles, c.destroyed = 0, 0
	return &c
}

func (p *probe) OnEvent(sim *Simulator, node *Node, pid int, event any) error {
	p.log.hits = append(p.log.hits, hit{time: sim.Clock(), node: node.ID(), event: event})
	if p.onEvent != nil {
		return p.onEvent(sim, node, pid, event)
	}
	return nil
}

func (p *probe) OnCycle(sim *Simulator, node *Node, pid int) error {
	p.cycles++
	p.log.hits = append(p.log.hits, hit{time: sim.Clock(), node: node.ID()})
	if p.onCycle != nil {
		return p.onCycle(sim, node, pid)
	}
	return nil
}

func (p *probe) OnDestroy() { p.destroyed++ }

// inert implements no capability beyond Protocol.
type inert struct{}

func (inert) Clone() Protocol { return inert{} }

// stateless is shared across nodes instead of cloned.
type stateless struct{ clones int }

func (s *stateless) Clone() Protocol {
	s.clones++
	return &stateless{}
}

func (*stateless) SharedAcrossNodes() {}

func probeSpec(name string, p *probe) ProtocolSpec {
	return ProtocolSpec{Name: name, New: func() (Protocol, error) { return p.Clone(), nil }}
}

func probeNetwork(size int, p *probe) NetworkConfig {
	return NetworkConfig{Size: size, Protocols: []ProtocolSpec{probeSpec("probe", p)}}
}

// newTestSimulator builds a Simulator logging to a null logger.
func newTestSimulator(t *testing.T, cfg Config, opts ...SimulatorOption) (*Simulator, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	all := append([]SimulatorOption{WithLogger(logger)}, opts...)
	s, err := NewSimulator(cfg, all...)
	require.NoError(t, err)
	return s, hook
}

func mustScheduler(t *testing.T, from, step, until int64, final bool) Scheduler {
	t.Helper()
	s, err := NewScheduler(from, step, until, final)
	require.NoError(t, err)
	return s
}
