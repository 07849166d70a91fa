package protocols

import (
	"fmt"

	"github.com/overlay-sim/overlay-sim/sim"
)

// Distribution modes.
const (
	DistributionLinear  = "linear"
	DistributionPeak    = "peak"
	DistributionUniform = "uniform"
)

// ValueDistribution seeds the ValueHolder at PID on every node:
//   - linear: evenly spaced from Min to Max over the node indices
//   - peak: Peak split across the first Peaks nodes, 0 elsewhere
//   - uniform: independent draws from [Min, Max)
//
// Joining nodes get Min (linear, uniform draws) or 0 (peak).
type ValueDistribution struct {
	PID   int
	Mode  string
	Min   float64
	Max   float64
	Peak  float64
	Peaks int
}

// Execute assigns values to the current population.
func (d *ValueDistribution) Execute(s *sim.Simulator) (bool, error) {
	nodes := s.Network().Nodes()
	n := len(nodes)
	rng := s.RNG().ForSubsystem(sim.SubsystemProtocol)
	for i, node := range nodes {
		var v float64
		switch d.Mode {
		case DistributionLinear:
			if n > 1 {
				v = d.Min + float64(i)*(d.Max-d.Min)/float64(n-1)
			} else {
				v = d.Min
			}
		case DistributionPeak:
			if i < d.Peaks {
				v = d.Peak / float64(d.Peaks)
			}
		case DistributionUniform:
			v = d.Min + rng.Float64()*(d.Max-d.Min)
		default:
			return false, fmt.Errorf("value distribution: unknown mode %q", d.Mode)
		}
		if err := d.set(node, v); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Initialize assigns the value of a joining node.
func (d *ValueDistribution) Initialize(s *sim.Simulator, node *sim.Node) error {
	switch d.Mode {
	case DistributionPeak:
		return d.set(node, 0)
	case DistributionUniform:
		return d.set(node, d.Min+s.RNG().ForSubsystem(sim.SubsystemProtocol).Float64()*(d.Max-d.Min))
	}
	return d.set(node, d.Min)
}

func (d *ValueDistribution) set(node *sim.Node, v float64) error {
	p, err := node.Protocol(d.PID)
	if err != nil {
		return err
	}
	h, ok := p.(ValueHolder)
	if !ok {
		return fmt.Errorf("value distribution: pid %d holds %T, which has no settable value", d.PID, p)
	}
	h.SetValue(v)
	return nil
}
