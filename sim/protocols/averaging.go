package protocols

import (
	"fmt"

	"github.com/overlay-sim/overlay-sim/sim"
)

// ValueHolder exposes a single numeric value per node for initializers and
// observers.
type ValueHolder interface {
	Value() float64
	SetValue(v float64)
}

// Averaging is a push-pull aggregation protocol: each cycle a node picks a
// random live neighbor and both adopt the mean of their values. The global
// mean is invariant; the variance shrinks every cycle.
type Averaging struct {
	Linkable int
	value    float64
}

// NewAveraging reads neighbors from the Linkable at pid linkable.
func NewAveraging(linkable int) *Averaging {
	return &Averaging{Linkable: linkable}
}

func (a *Averaging) Clone() sim.Protocol {
	c := *a
	return &c
}

func (a *Averaging) Value() float64     { return a.value }
func (a *Averaging) SetValue(v float64) { a.value = v }

// OnCycle averages with one random neighbor. Nodes without live neighbors skip the cycle.
func (a *Averaging) OnCycle(s *sim.Simulator, node *sim.Node, pid int) error {
	peers, err := LiveNeighbors(s.Network(), node, a.Linkable)
	if err != nil {
		return err
	}
	up := peers[:0]
	for _, p := range peers {
		if p.IsUp() {
			up = append(up, p)
		}
	}
	if len(up) == 0 {
		return nil
	}
	peer := up[s.RNG().ForSubsystem(sim.SubsystemProtocol).Intn(len(up))]
	pp, err := peer.Protocol(pid)
	if err != nil {
		return err
	}
	other, ok := pp.(*Averaging)
	if !ok {
		return fmt.Errorf("averaging: peer %d holds %T at pid %d", peer.ID(), pp, pid)
	}
	mean := (a.value + other.value) / 2
	a.value, other.value = mean, mean
	return nil
}

func (a *Averaging) String() string { return fmt.Sprintf("avg=%g", a.value) }
