// Package protocols provides reference protocols for overlay experiments:
// a neighbor set, an averaging aggregate, a ping exchange and a uniform
// latency transport, plus initializers that wire and seed them.
package protocols

import (
	"fmt"
	"slices"

	"github.com/overlay-sim/overlay-sim/sim"
)

// Neighbors is a Linkable set of node identifiers. Identifiers are relations,
// not handles: a neighbor that died simply no longer resolves.
type Neighbors struct {
	ids []sim.NodeID
}

// NewNeighbors returns an empty set with room for capacity entries.
func NewNeighbors(capacity int) *Neighbors {
	return &Neighbors{ids: make([]sim.NodeID, 0, max(capacity, 0))}
}

// Clone copies the current entries into an independent set.
func (n *Neighbors) Clone() sim.Protocol {
	return &Neighbors{ids: append(make([]sim.NodeID, 0, cap(n.ids)), n.ids...)}
}

func (n *Neighbors) Degree() int { return len(n.ids) }

// Neighbor returns the i-th identifier. Panics if i is out of range.
func (n *Neighbors) Neighbor(i int) sim.NodeID { return n.ids[i] }

// AddNeighbor adds id unless already present.
func (n *Neighbors) AddNeighbor(id sim.NodeID) bool {
	if n.Contains(id) {
		return false
	}
	n.ids = append(n.ids, id)
	return true
}

func (n *Neighbors) Contains(id sim.NodeID) bool {
	return slices.Contains(n.ids, id)
}

// Pack releases spare capacity.
func (n *Neighbors) Pack() { n.ids = slices.Clip(n.ids) }

// OnDestroy drops every relation held by a dead node.
func (n *Neighbors) OnDestroy() { n.ids = nil }

// Prune removes identifiers that no longer resolve to a live node and
// returns how many were removed.
func (n *Neighbors) Prune(net *sim.Network) int {
	before := len(n.ids)
	n.ids = slices.DeleteFunc(n.ids, func(id sim.NodeID) bool {
		_, ok := net.Lookup(id)
		return !ok
	})
	return before - len(n.ids)
}

func (n *Neighbors) String() string {
	return fmt.Sprintf("neighbors%v", n.ids)
}

// linkableAt returns the Linkable held by node at pid.
func linkableAt(node *sim.Node, pid int) (sim.Linkable, error) {
	p, err := node.Protocol(pid)
	if err != nil {
		return nil, err
	}
	l, ok := p.(sim.Linkable)
	if !ok {
		return nil, fmt.Errorf("pid %d holds %T, not a linkable protocol", pid, p)
	}
	return l, nil
}

// LiveNeighbors resolves the neighbors of node at pid to registry nodes,
// skipping identifiers of nodes that are gone.
func LiveNeighbors(net *sim.Network, node *sim.Node, pid int) ([]*sim.Node, error) {
	l, err := linkableAt(node, pid)
	if err != nil {
		return nil, err
	}
	out := make([]*sim.Node, 0, l.Degree())
	for i := 0; i < l.Degree(); i++ {
		if peer, ok := net.Lookup(l.Neighbor(i)); ok {
			out = append(out, peer)
		}
	}
	return out, nil
}
