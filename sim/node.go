package sim

import (
	"fmt"
	"strings"
)

// NodeID is the process-unique, immutable identity of a node. IDs are never
// reused within a Network, even across experiments.
type NodeID int64

// FailState governs whether a node accepts delivered events.
type FailState int

const (
	// OK nodes receive events.
	OK FailState = iota
	// Down nodes silently drop events but may come back up.
	Down
	// Dead nodes have left the network for good.
	Dead
)

func (s FailState) String() string {
	switch s {
	case OK:
		return "OK"
	case Down:
		return "DOWN"
	case Dead:
		return "DEAD"
	}
	return fmt.Sprintf("FailState(%d)", int(s))
}

// Protocol is a per-node state machine held in a protocol slot. The same slot
// index (pid) denotes the same role on every node. Clone returns an
// independent copy used to stamp new nodes out of the prototype.
//
// A protocol opts into behaviors by also implementing Reactive, Cyclic,
// Linkable, Cleanable or SharedProtocol.
type Protocol interface {
	Clone() Protocol
}

// Reactive protocols receive the events addressed to their (node, pid).
type Reactive interface {
	OnEvent(sim *Simulator, node *Node, pid int, event any) error
}

// Cyclic protocols advance once per configured cycle length.
type Cyclic interface {
	OnCycle(sim *Simulator, node *Node, pid int) error
}

// Linkable protocols maintain a neighbor set. Neighbors are node identifiers,
// resolved through Network.Lookup; a stale identifier simply fails to resolve
// once its node is dead.
type Linkable interface {
	Degree() int
	Neighbor(i int) NodeID
	AddNeighbor(id NodeID) bool
	Contains(id NodeID) bool
	// Pack releases spare capacity once wiring is complete.
	Pack()
}

// Cleanable protocols drop cross-node references when their node dies.
// OnDestroy is called exactly once; afterwards only String is expected to work.
type Cleanable interface {
	OnDestroy()
}

// SharedProtocol marks protocols without per-node state. A single instance is
// shared by the prototype and every node instead of being cloned.
type SharedProtocol interface {
	Protocol
	SharedAcrossNodes()
}

// Node is a simulated participant: a stable ID, a position in the Network,
// a fail-state and a fixed array of protocol slots.
type Node struct {
	id        NodeID
	index     int
	state     FailState
	protocols []Protocol
}

func newNode(id NodeID, protocols []Protocol) *Node {
	return &Node{id: id, index: -1, state: OK, protocols: protocols}
}

// ID returns the node's immutable identifier.
func (n *Node) ID() NodeID { return n.id }

// Index returns the node's current position in the Network, or -1 when the
// node is not part of it (prototype, fresh clone, removed node).
func (n *Node) Index() int { return n.index }

// FailState returns the current fail-state.
func (n *Node) FailState() FailState { return n.state }

// IsUp reports whether the node accepts events.
func (n *Node) IsUp() bool { return n.state == OK }

// SetFailState changes the fail-state. The transition to Dead runs OnDestroy
// on every Cleanable protocol exactly once; dead nodes cannot be revived.
// A node still held by a Network can only die through Network.Remove.
func (n *Node) SetFailState(s FailState) error {
	if n.state == Dead {
		if s == Dead {
			return nil
		}
		return fmt.Errorf("node %d: cannot move from DEAD to %s", n.id, s)
	}
	if s == Dead && n.index >= 0 {
		return fmt.Errorf("%w: node %d at index %d", ErrNodeInNetwork, n.id, n.index)
	}
	n.state = s
	if s == Dead {
		for _, p := range n.protocols {
			if c, ok := p.(Cleanable); ok {
				c.OnDestroy()
			}
		}
	}
	return nil
}

// Protocol returns the instance held in slot pid.
func (n *Node) Protocol(pid int) (Protocol, error) {
	if pid < 0 || pid >= len(n.protocols) {
		return nil, fmt.Errorf("%w: %d (node %d has %d protocols)", ErrInvalidProtocolID, pid, n.id, len(n.protocols))
	}
	return n.protocols[pid], nil
}

// ProtocolCount returns the number of protocol slots.
func (n *Node) ProtocolCount() int { return len(n.protocols) }

// clone stamps a new node with the given id; shared protocols are reused,
// all others are cloned.
func (n *Node) clone(id NodeID) *Node {
	protocols := make([]Protocol, len(n.protocols))
	for i, p := range n.protocols {
		if _, shared := p.(SharedProtocol); shared {
			protocols[i] = p
			continue
		}
		protocols[i] = p.Clone()
	}
	return newNode(id, protocols)
}

func (n *Node) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "node %d [index=%d state=%s]", n.id, n.index, n.state)
	for i, p := range n.protocols {
		fmt.Fprintf(&sb, " %d:%v", i, p)
	}
	return sb.String()
}
