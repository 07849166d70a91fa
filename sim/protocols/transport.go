package protocols

import (
	"fmt"

	"github.com/overlay-sim/overlay-sim/sim"
)

// Transport delivers messages between nodes after a protocol-defined delay.
// It only schedules; it never blocks.
type Transport interface {
	Send(s *sim.Simulator, src, dest *sim.Node, msg any, pid int) error
}

// UniformTransport delays every message by a uniform draw from [Min, Max].
// It has no per-node state and is shared by all nodes.
type UniformTransport struct {
	Min int64
	Max int64
}

// NewUniformTransport validates the delay bounds.
func NewUniformTransport(minDelay, maxDelay int64) (*UniformTransport, error) {
	if minDelay < 0 || maxDelay < minDelay {
		return nil, fmt.Errorf("uniform transport: need 0 <= min <= max, got [%d, %d]", minDelay, maxDelay)
	}
	return &UniformTransport{Min: minDelay, Max: maxDelay}, nil
}

func (t *UniformTransport) Clone() sim.Protocol { return t }

func (*UniformTransport) SharedAcrossNodes() {}

// Send schedules msg for (dest, pid).
func (t *UniformTransport) Send(s *sim.Simulator, _, dest *sim.Node, msg any, pid int) error {
	delay := t.Min
	if t.Max > t.Min {
		delay += s.RNG().ForSubsystem(sim.SubsystemProtocol).Int63n(t.Max - t.Min + 1)
	}
	return s.Add(delay, msg, dest, pid)
}

func (t *UniformTransport) String() string {
	return fmt.Sprintf("uniform[%d,%d]", t.Min, t.Max)
}

func transportAt(node *sim.Node, pid int) (Transport, error) {
	p, err := node.Protocol(pid)
	if err != nil {
		return nil, err
	}
	tr, ok := p.(Transport)
	if !ok {
		return nil, fmt.Errorf("pid %d holds %T, not a transport", pid, p)
	}
	return tr, nil
}
