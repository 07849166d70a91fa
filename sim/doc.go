// Package sim provides the discrete-event kernel for overlay network simulation.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - node.go: Node handles, fail-states and the protocol capability interfaces
//   - queue.go: the time/priority heap with bit-packed keys
//   - simulator.go: the experiment driver (reset, initializers, event loop, finalization)
//
// # Architecture
//
// The sim package owns the simulation context; components live in sub-packages:
//   - sim/dynamics/: churn controls that grow and shrink the network
//   - sim/protocols/: reference protocols (neighbor sets, averaging, ping, transport)
//   - sim/observe/: observer controls reporting population and overlay statistics
//   - sim/config/: YAML experiment descriptions and the component factory registry
//   - sim/trace/: dispatch trace recording
//
// Nothing is package-global: every handler receives the *Simulator it runs in,
// so independent simulators can share a process.
//
// # Key Interfaces
//
// Protocols opt into behaviors by implementing small interfaces:
//   - Reactive: receives events addressed to its (node, pid)
//   - Cyclic: advances once per cycle, bridged into the queue by CycleScheduler
//   - Linkable: neighbor set of node identifiers
//   - Cleanable: drops cross-node references when its node dies
//   - SharedProtocol: one instance shared by all nodes
//
// Controls (Control) run at the active times of a Scheduler; initializers are
// controls run once before the event loop. Event wrappers return an Outcome and
// the driver performs any re-enqueue.
package sim
