package sim

import (
	"fmt"
	"math/rand"
)

// Control is a globally scoped action that observes or mutates the whole
// simulation. Returning stop=true ends the running phase early.
type Control interface {
	Execute(sim *Simulator) (stop bool, err error)
}

// ControlFunc adapts a plain function to the Control interface.
type ControlFunc func(sim *Simulator) (bool, error)

// Execute calls f(sim).
func (f ControlFunc) Execute(sim *Simulator) (bool, error) { return f(sim) }

// NodeInitializer prepares a freshly created node before it joins the network.
type NodeInitializer interface {
	Initialize(sim *Simulator, node *Node) error
}

// Outcome tells the Simulator what to do after an event wrapper fired:
// whether to stop the run and whether (and when) to queue the wrapper again.
// Wrappers never touch the queue themselves.
type Outcome struct {
	Stop  bool
	Again bool
	Next  int64
}

// ControlEvent fires a control at the active times of its Scheduler. Order is
// the explicit queue priority, so controls due at the same time run in
// declaration order.
type ControlEvent struct {
	Name      string
	Control   Control
	Scheduler Scheduler
	Order     int64
}

// First returns the first active time at or after now.
func (e *ControlEvent) First(now int64) (int64, bool) {
	return e.Scheduler.Next(now)
}

// Fire runs the control and reports the next active time after the clock.
func (e *ControlEvent) Fire(sim *Simulator) (Outcome, error) {
	stop, err := e.Control.Execute(sim)
	if err != nil {
		return Outcome{}, fmt.Errorf("control %q: %w", e.Name, err)
	}
	next, ok := e.Scheduler.After(sim.Clock())
	return Outcome{Stop: stop, Again: ok, Next: next}, nil
}

// CycleDelay computes the delay from now to the next cycle of a protocol.
type CycleDelay interface {
	NextDelay(now int64, sched Scheduler, rng *rand.Rand) int64
}

// FixedDelay fires cycles exactly one step apart.
type FixedDelay struct{}

func (FixedDelay) NextDelay(_ int64, sched Scheduler, _ *rand.Rand) int64 {
	return sched.Step
}

// RandomDelay draws delays uniformly from [1, 2*step-1], averaging one
// cycle per step.
type RandomDelay struct{}

func (RandomDelay) NextDelay(_ int64, sched Scheduler, rng *rand.Rand) int64 {
	if sched.Step <= 1 {
		return 1
	}
	return 1 + rng.Int63n(2*sched.Step-1)
}

// RegularRandomDelay fires at a uniformly random point inside the next step
// interval, so exactly one cycle happens per interval.
type RegularRandomDelay struct{}

func (RegularRandomDelay) NextDelay(now int64, sched Scheduler, rng *rand.Rand) int64 {
	k := (now - sched.From) / sched.Step
	if now < sched.From {
		k = -1
	}
	start := sched.From + (k+1)*sched.Step
	return start + rng.Int63n(sched.Step) - now
}

// NextCycleEvent bridges a Cyclic protocol into the event queue. A single
// instance is shared by all nodes running the same cyclic protocol; the
// Simulator re-queues it addressed to the same (node, pid).
type NextCycleEvent struct {
	Scheduler Scheduler
	Delay     CycleDelay
}

// Fire runs one cycle of the protocol at (node, pid).
func (e *NextCycleEvent) Fire(sim *Simulator, node *Node, pid int) (Outcome, error) {
	p, err := node.Protocol(pid)
	if err != nil {
		return Outcome{}, err
	}
	cyclic, ok := p.(Cyclic)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: pid %d (%T)", ErrNotCyclic, pid, p)
	}
	if err := cyclic.OnCycle(sim, node, pid); err != nil {
		return Outcome{}, err
	}
	now := sim.Clock()
	next := now + e.Delay.NextDelay(now, e.Scheduler, sim.RNG().ForSubsystem(SubsystemCycle))
	return Outcome{Again: next < e.Scheduler.Until, Next: next}, nil
}
