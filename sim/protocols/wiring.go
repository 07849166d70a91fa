package protocols

import (
	"github.com/overlay-sim/overlay-sim/sim"
)

// WireKOut links every node to K distinct random other nodes through the
// Linkable at PID. As a node initializer it links a joining node to K random
// live nodes.
type WireKOut struct {
	PID        int
	K          int
	Undirected bool
}

// Execute wires the whole network, then packs every neighbor set.
func (w *WireKOut) Execute(s *sim.Simulator) (bool, error) {
	nodes := s.Network().Nodes()
	n := len(nodes)
	if n < 2 || w.K <= 0 {
		return false, nil
	}
	rng := s.RNG().ForSubsystem(sim.SubsystemProtocol)
	k := min(w.K, n-1)
	others := make([]int, n-1)
	for i, node := range nodes {
		// every index but i, then a partial Fisher-Yates over them
		for j := range others {
			if j < i {
				others[j] = j
			} else {
				others[j] = j + 1
			}
		}
		for j := 0; j < k; j++ {
			r := j + rng.Intn(len(others)-j)
			others[j], others[r] = others[r], others[j]
			if err := w.link(node, nodes[others[j]]); err != nil {
				return false, err
			}
		}
	}
	for _, node := range nodes {
		l, err := linkableAt(node, w.PID)
		if err != nil {
			return false, err
		}
		l.Pack()
	}
	return false, nil
}

// Initialize links a node that is about to join to K random live nodes.
func (w *WireKOut) Initialize(s *sim.Simulator, node *sim.Node) error {
	nodes := s.Network().Nodes()
	k := min(w.K, len(nodes))
	if k <= 0 {
		return nil
	}
	rng := s.RNG().ForSubsystem(sim.SubsystemProtocol)
	picked := rng.Perm(len(nodes))[:k]
	for _, idx := range picked {
		if nodes[idx] == node {
			continue
		}
		if err := w.link(node, nodes[idx]); err != nil {
			return err
		}
	}
	return nil
}

func (w *WireKOut) link(from, to *sim.Node) error {
	l, err := linkableAt(from, w.PID)
	if err != nil {
		return err
	}
	l.AddNeighbor(to.ID())
	if !w.Undirected {
		return nil
	}
	back, err := linkableAt(to, w.PID)
	if err != nil {
		return err
	}
	back.AddNeighbor(from.ID())
	return nil
}
