package sim

import "fmt"

// CycleScheduler starts the cycles of one Cyclic protocol. Run as an
// initializer it schedules the first NextCycleEvent of every live node; used
// as a NodeInitializer it lets nodes added by churn join the cycle.
type CycleScheduler struct {
	PID         int
	Scheduler   Scheduler
	Delay       CycleDelay
	RandomStart bool

	event *NextCycleEvent
}

// NewCycleScheduler creates a scheduler for the cyclic protocol at pid.
// A nil delay defaults to FixedDelay.
func NewCycleScheduler(pid int, sched Scheduler, delay CycleDelay, randomStart bool) *CycleScheduler {
	if delay == nil {
		delay = FixedDelay{}
	}
	return &CycleScheduler{
		PID:         pid,
		Scheduler:   sched,
		Delay:       delay,
		RandomStart: randomStart,
		event:       &NextCycleEvent{Scheduler: sched, Delay: delay},
	}
}

// Execute schedules the first cycle of every node in the network.
func (c *CycleScheduler) Execute(sim *Simulator) (bool, error) {
	for _, n := range sim.Network().Nodes() {
		if err := c.Initialize(sim, n); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Initialize schedules the first cycle of node at the first interval
// boundary at or after now, plus a random offset in [0, step) when
// RandomStart is set. Nodes joining after the last boundary never cycle.
func (c *CycleScheduler) Initialize(sim *Simulator, node *Node) error {
	p, err := node.Protocol(c.PID)
	if err != nil {
		return err
	}
	if _, ok := p.(Cyclic); !ok {
		return fmt.Errorf("%w: pid %d (%T)", ErrNotCyclic, c.PID, p)
	}
	now := sim.Clock()
	first, ok := c.Scheduler.Next(now)
	if !ok {
		return nil
	}
	if c.RandomStart {
		first += sim.RNG().ForSubsystem(SubsystemCycle).Int63n(c.Scheduler.Step)
	}
	if first >= c.Scheduler.Until {
		return nil
	}
	return sim.Add(first-now, c.event, node, c.PID)
}
