package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// ProtocolSpec names a protocol slot and supplies the factory that builds the
// prototype's instance for it. The slot's position in NetworkConfig.Protocols
// is its protocol id.
type ProtocolSpec struct {
	Name string
	New  func() (Protocol, error)
}

// NetworkConfig describes the population built at every Reset.
type NetworkConfig struct {
	// Size is the number of nodes cloned from the prototype at reset.
	Size int
	// Capacity pre-allocates room for churn; values below Size are raised to Size.
	Capacity int
	// Protocols lists the protocol slots in pid order.
	Protocols []ProtocolSpec
}

// Network is the registry of live nodes. It owns a dense array in which
// nodes[n.Index()] == n holds for every live node, and the prototype from
// which new nodes are stamped.
type Network struct {
	config    NetworkConfig
	nodes     []*Node
	byID      map[NodeID]*Node
	prototype *Node
	pids      map[string]int
	nextID    NodeID
	rng       *rand.Rand
	metrics   *Metrics
}

// NewNetwork creates an empty network. Reset must be called before use.
// Panics if rng is nil.
func NewNetwork(config NetworkConfig, rng *rand.Rand) *Network {
	if rng == nil {
		panic("NewNetwork: rng must not be nil")
	}
	pids := make(map[string]int, len(config.Protocols))
	for i, p := range config.Protocols {
		pids[p.Name] = i
	}
	return &Network{
		config: config,
		byID:   make(map[NodeID]*Node),
		pids:   pids,
		rng:    rng,
	}
}

// Reset destroys every node (from the last index down), rebuilds the
// prototype from the protocol factories and clones it Size times.
func (net *Network) Reset() error {
	for len(net.nodes) > 0 {
		if _, err := net.RemoveLast(); err != nil {
			return err
		}
	}
	if net.config.Size < 0 {
		return fmt.Errorf("network size must be non-negative, got %d", net.config.Size)
	}

	protocols := make([]Protocol, len(net.config.Protocols))
	for i, spec := range net.config.Protocols {
		if spec.New == nil {
			return fmt.Errorf("protocol %q has no factory", spec.Name)
		}
		p, err := spec.New()
		if err != nil {
			return fmt.Errorf("building protocol %q: %w", spec.Name, err)
		}
		protocols[i] = p
	}
	net.prototype = newNode(net.newID(), protocols)

	capacity := max(net.config.Capacity, net.config.Size)
	net.nodes = make([]*Node, 0, capacity)
	for i := 0; i < net.config.Size; i++ {
		net.Add(net.NewNode())
	}
	return nil
}

func (net *Network) newID() NodeID {
	id := net.nextID
	net.nextID++
	return id
}

// Prototype returns the node new nodes are cloned from. It never receives events.
func (net *Network) Prototype() *Node { return net.prototype }

// NewNode stamps a fresh node out of the prototype. The node is not added.
func (net *Network) NewNode() *Node {
	if net.prototype == nil {
		panic("Network.NewNode called before Reset")
	}
	return net.prototype.clone(net.newID())
}

// Size returns the number of live nodes.
func (net *Network) Size() int { return len(net.nodes) }

// Capacity returns the currently allocated room in the node array.
func (net *Network) Capacity() int { return cap(net.nodes) }

// Get returns the node at index i.
func (net *Network) Get(i int) (*Node, error) {
	if i < 0 || i >= len(net.nodes) {
		return nil, fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(net.nodes))
	}
	return net.nodes[i], nil
}

// Nodes returns the registry contents for iteration.
// The returned slice is the network's internal storage: callers may iterate
// over it but MUST NOT append to, reslice, or reorder it.
func (net *Network) Nodes() []*Node { return net.nodes }

// Lookup resolves a node identifier to a live node.
func (net *Network) Lookup(id NodeID) (*Node, bool) {
	n, ok := net.byID[id]
	return n, ok
}

// PID returns the protocol id configured under name.
func (net *Network) PID(name string) (int, bool) {
	pid, ok := net.pids[name]
	return pid, ok
}

// ProtocolCount returns the number of configured protocol slots.
func (net *Network) ProtocolCount() int { return len(net.config.Protocols) }

// ProtocolName returns the configured name of slot pid.
func (net *Network) ProtocolName(pid int) string {
	if pid < 0 || pid >= len(net.config.Protocols) {
		return fmt.Sprintf("pid_%d", pid)
	}
	return net.config.Protocols[pid].Name
}

// Add appends n, growing storage by half its size when full.
func (net *Network) Add(n *Node) {
	if len(net.nodes) == cap(net.nodes) {
		grown := make([]*Node, len(net.nodes), cap(net.nodes)+cap(net.nodes)/2+1)
		copy(grown, net.nodes)
		net.nodes = grown
	}
	n.index = len(net.nodes)
	net.nodes = append(net.nodes, n)
	net.byID[n.id] = n
	net.metrics.nodeAdded(len(net.nodes))
}

// RemoveLast pops the highest-indexed node and marks it Dead.
func (net *Network) RemoveLast() (*Node, error) {
	if len(net.nodes) == 0 {
		return nil, ErrEmptyRegistry
	}
	last := len(net.nodes) - 1
	n := net.nodes[last]
	net.nodes[last] = nil
	net.nodes = net.nodes[:last]
	delete(net.byID, n.id)
	n.index = -1
	if err := n.SetFailState(Dead); err != nil {
		return nil, err
	}
	net.metrics.nodeRemoved(len(net.nodes))
	return n, nil
}

// Remove removes the node at index i by swapping it with the last node.
// Only the node previously at the last index changes position.
func (net *Network) Remove(i int) (*Node, error) {
	if err := net.Swap(i, len(net.nodes)-1); err != nil {
		return nil, err
	}
	return net.RemoveLast()
}

// Swap exchanges the nodes at indices i and j.
func (net *Network) Swap(i, j int) error {
	if i < 0 || i >= len(net.nodes) {
		return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, i, len(net.nodes))
	}
	if j < 0 || j >= len(net.nodes) {
		return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, j, len(net.nodes))
	}
	net.nodes[i], net.nodes[j] = net.nodes[j], net.nodes[i]
	net.nodes[i].index = i
	net.nodes[j].index = j
	return nil
}

// Shuffle randomly permutes the nodes using the network's RNG stream.
func (net *Network) Shuffle() {
	net.rng.Shuffle(len(net.nodes), func(i, j int) {
		net.nodes[i], net.nodes[j] = net.nodes[j], net.nodes[i]
	})
	net.reindex()
}

// Sort orders the nodes with less; ties keep their current relative order.
func (net *Network) Sort(less func(a, b *Node) bool) {
	sort.SliceStable(net.nodes, func(i, j int) bool {
		return less(net.nodes[i], net.nodes[j])
	})
	net.reindex()
}

func (net *Network) reindex() {
	for i, n := range net.nodes {
		n.index = i
	}
}
