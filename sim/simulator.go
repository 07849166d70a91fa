// sim/simulator.go
package sim

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/overlay-sim/overlay-sim/sim/trace"
)

// Phase is the experiment state machine position.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseRunning
	PhasePostSimulation
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseRunning:
		return "running"
	case PhasePostSimulation:
		return "post-simulation"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Termination tells how the running phase ended.
type Termination int

const (
	// TerminationEmptyQueue: nothing was left to dispatch.
	TerminationEmptyQueue Termination = iota
	// TerminationEndTime: the run was cut at the configured end time.
	TerminationEndTime
	// TerminationControlStop: a control asked to stop.
	TerminationControlStop
)

func (t Termination) String() string {
	switch t {
	case TerminationEmptyQueue:
		return "empty-queue"
	case TerminationEndTime:
		return "end-time"
	case TerminationControlStop:
		return "control-stop"
	}
	return fmt.Sprintf("Termination(%d)", int(t))
}

// Config holds the experiment-wide parameters of a Simulator.
type Config struct {
	// EndTime is exclusive: nothing at or after it is ever dispatched.
	EndTime int64
	// LogTime is the interval between progress markers; <= 0 disables them.
	LogTime int64
	// PriorityBits is the number of tie-break bits in the queue key;
	// 0 selects DefaultPriorityBits.
	PriorityBits uint
	Seed         int64
	Network      NetworkConfig
}

// Report summarizes one Run.
type Report struct {
	Termination Termination
	Clock       int64
	Pending     int
	Dispatched  int
	Dropped     int
}

// SimulatorOption customises Simulator construction.
type SimulatorOption func(*Simulator)

// WithLogger routes the simulator's diagnostics to log.
func WithLogger(log logrus.FieldLogger) SimulatorOption {
	return func(s *Simulator) {
		s.log = log
	}
}

// WithTrace records every dispatch into st.
func WithTrace(st *trace.SimulationTrace) SimulatorOption {
	return func(s *Simulator) {
		s.trace = st
	}
}

// WithRegisterer registers the engine metrics against reg instead of a
// private registry.
func WithRegisterer(reg prometheus.Registerer) SimulatorOption {
	return func(s *Simulator) {
		s.registerer = reg
	}
}

type initializer struct {
	name    string
	control Control
}

// Simulator is the simulation context: logical clock, event queue, node
// registry and the ordered initializers and controls of an experiment. It is
// passed to every handler; nothing about a run lives in package state, so
// independent simulators can run side by side.
type Simulator struct {
	cfg        Config
	log        logrus.FieldLogger
	trace      *trace.SimulationTrace
	registerer prometheus.Registerer
	metrics    *Metrics

	rng   *PartitionedRNG
	net   *Network
	queue PriorityQ

	clock   int64
	phase   Phase
	nextlog int64
	// set when an event was cut because it fell at or after EndTime
	truncated bool

	initializers []initializer
	controls     []*ControlEvent

	currentNode *Node
	currentPID  int

	dispatched int
	dropped    int
}

// NewSimulator validates cfg and builds a Simulator. The queue must be able
// to represent EndTime with the configured priority bits.
func NewSimulator(cfg Config, opts ...SimulatorOption) (*Simulator, error) {
	if cfg.PriorityBits == 0 {
		cfg.PriorityBits = DefaultPriorityBits
	}
	if cfg.EndTime <= 0 {
		return nil, fmt.Errorf("end time must be positive, got %d", cfg.EndTime)
	}
	s := &Simulator{
		cfg:        cfg,
		log:        logrus.StandardLogger(),
		currentPID: -1,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rng = NewPartitionedRNG(cfg.Seed)
	q, err := NewHeap(cfg.PriorityBits, s.rng.ForSubsystem(SubsystemQueue))
	if err != nil {
		return nil, err
	}
	if q.MaxTime() < cfg.EndTime {
		return nil, fmt.Errorf("%w: end time %d exceeds %d with %d priority bits",
			ErrEndTimeTooLarge, cfg.EndTime, q.MaxTime(), cfg.PriorityBits)
	}
	s.queue = q

	m, err := NewMetrics(s.registerer)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}
	s.metrics = m
	s.net = NewNetwork(cfg.Network, s.rng.ForSubsystem(SubsystemNetwork))
	s.net.metrics = m
	return s, nil
}

// AddInitializer appends a control run exactly once before any control is
// scheduled, in the order added.
func (sim *Simulator) AddInitializer(name string, c Control) {
	if c == nil {
		panic(fmt.Sprintf("AddInitializer(%q): nil control", name))
	}
	sim.initializers = append(sim.initializers, initializer{name: name, control: c})
}

// AddControl appends a periodic control. Controls due at the same time run
// in the order they were added.
func (sim *Simulator) AddControl(name string, c Control, sched Scheduler) {
	if c == nil {
		panic(fmt.Sprintf("AddControl(%q): nil control", name))
	}
	sim.controls = append(sim.controls, &ControlEvent{
		Name:      name,
		Control:   c,
		Scheduler: sched,
		Order:     int64(len(sim.controls)),
	})
}

// Add schedules event for delivery to (node, pid) after delay time units,
// with a random tie-break priority. Events falling at or after the end time
// are discarded without error.
func (sim *Simulator) Add(delay int64, event any, node *Node, pid int) error {
	if delay < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDelay, delay)
	}
	if node != nil && (pid < 0 || pid >= node.ProtocolCount()) {
		return fmt.Errorf("%w: %d (node %d has %d protocols)", ErrInvalidProtocolID, pid, node.ID(), node.ProtocolCount())
	}
	// now+delay < endtime, written so it cannot overflow
	if sim.cfg.EndTime-sim.clock <= delay {
		sim.truncated = true
		return nil
	}
	return sim.queue.Add(sim.clock+delay, event, node, pid)
}

func (sim *Simulator) addControl(time int64, ce *ControlEvent) error {
	if time >= sim.cfg.EndTime {
		sim.truncated = true
		return nil
	}
	return sim.queue.AddWithPriority(time, ce, nil, 0, ce.Order)
}

// Clock returns the current logical time.
func (sim *Simulator) Clock() int64 { return sim.clock }

// EndTime returns the configured exclusive end time.
func (sim *Simulator) EndTime() int64 { return sim.cfg.EndTime }

// Phase returns the experiment phase.
func (sim *Simulator) Phase() Phase { return sim.phase }

// Network returns the node registry.
func (sim *Simulator) Network() *Network { return sim.net }

// RNG returns the random streams of the current run. Components must fetch
// their stream here at execution time rather than caching it across runs.
func (sim *Simulator) RNG() *PartitionedRNG { return sim.rng }

// Pending returns the number of queued events.
func (sim *Simulator) Pending() int { return sim.queue.Size() }

// CurrentNode returns the node being dispatched to, or nil for controls.
func (sim *Simulator) CurrentNode() *Node { return sim.currentNode }

// CurrentPID returns the protocol being dispatched to, or -1.
func (sim *Simulator) CurrentPID() int { return sim.currentPID }

// Metrics returns the engine metrics.
func (sim *Simulator) Metrics() *Metrics { return sim.metrics }

// Logger returns the diagnostic sink.
func (sim *Simulator) Logger() logrus.FieldLogger { return sim.log }

// Trace returns the dispatch trace, or nil when tracing is off.
func (sim *Simulator) Trace() *trace.SimulationTrace { return sim.trace }

// Run performs one complete experiment: reset, initializers, control
// scheduling, the event loop and the finalization controls. Repeated calls
// with the same configuration produce identical runs.
func (sim *Simulator) Run() (Report, error) {
	if err := CheckControlCount(len(sim.controls), sim.MaxControls()); err != nil {
		return Report{}, err
	}
	if err := sim.reset(); err != nil {
		return Report{}, err
	}

	sim.phase = PhaseInitializing
	for _, init := range sim.initializers {
		sim.log.WithField("control", init.name).Info("running initializer")
		if _, err := init.control.Execute(sim); err != nil {
			sim.phase = PhaseDone
			return sim.report(TerminationEmptyQueue), fmt.Errorf("initializer %q: %w", init.name, err)
		}
	}

	if err := sim.scheduleControls(); err != nil {
		sim.phase = PhaseDone
		return sim.report(TerminationEmptyQueue), err
	}

	sim.phase = PhaseRunning
	term, err := sim.loop()
	if err != nil {
		sim.phase = PhaseDone
		return sim.report(term), err
	}

	sim.phase = PhasePostSimulation
	sim.currentNode, sim.currentPID = nil, -1
	for _, ce := range sim.controls {
		if !ce.Scheduler.IsActiveAt(PostSimulationTime) {
			continue
		}
		sim.log.WithField("control", ce.Name).Info("running final control")
		if _, err := ce.Control.Execute(sim); err != nil {
			sim.phase = PhaseDone
			return sim.report(term), fmt.Errorf("final control %q: %w", ce.Name, err)
		}
	}
	sim.phase = PhaseDone
	return sim.report(term), nil
}

func (sim *Simulator) reset() error {
	sim.phase = PhaseUninitialized
	sim.rng = NewPartitionedRNG(sim.cfg.Seed)
	q, err := NewHeap(sim.cfg.PriorityBits, sim.rng.ForSubsystem(SubsystemQueue))
	if err != nil {
		return err
	}
	sim.queue = q
	sim.clock = 0
	sim.nextlog = 0
	if sim.cfg.LogTime <= 0 {
		sim.nextlog = math.MaxInt64
	}
	sim.truncated = false
	sim.dispatched, sim.dropped = 0, 0
	sim.currentNode, sim.currentPID = nil, -1
	sim.trace.Reset()

	sim.net.rng = sim.rng.ForSubsystem(SubsystemNetwork)
	if err := sim.net.Reset(); err != nil {
		return fmt.Errorf("resetting network: %w", err)
	}
	sim.metrics.NetworkSize.Set(float64(sim.net.Size()))
	sim.log.WithFields(logrus.Fields{
		"size": sim.net.Size(),
		"seed": sim.cfg.Seed,
	}).Info("network reset")
	return nil
}

// MaxControls returns how many controls the queue can order by declaration.
func (sim *Simulator) MaxControls() int64 { return sim.queue.MaxPriority() + 1 }

// CheckControlCount fails with ErrTooManyControls when n controls cannot
// each get a distinct queue priority.
func CheckControlCount(n int, limit int64) error {
	if int64(n) > limit {
		return fmt.Errorf("%w: %d controls, at most %d", ErrTooManyControls, n, limit)
	}
	return nil
}

func (sim *Simulator) scheduleControls() error {
	for _, ce := range sim.controls {
		first, ok := ce.First(sim.clock)
		if !ok {
			continue
		}
		if err := sim.addControl(first, ce); err != nil {
			return fmt.Errorf("scheduling control %q: %w", ce.Name, err)
		}
		sim.log.WithFields(logrus.Fields{
			"control":  ce.Name,
			"schedule": ce.Scheduler.String(),
		}).Info("control scheduled")
	}
	return nil
}

func (sim *Simulator) loop() (Termination, error) {
	for {
		entry := sim.queue.RemoveFirst()
		if entry == nil {
			if sim.truncated {
				sim.log.WithField("time", sim.clock).Info("reached end time, no events left")
				return TerminationEndTime, nil
			}
			sim.log.WithField("time", sim.clock).Info("queue is empty, quitting")
			return TerminationEmptyQueue, nil
		}
		if entry.Time >= sim.nextlog {
			sim.log.WithFields(logrus.Fields{
				"time":    entry.Time,
				"pending": sim.queue.Size(),
			}).Info("current time")
			for entry.Time >= sim.nextlog {
				if sim.nextlog > math.MaxInt64-sim.cfg.LogTime {
					sim.nextlog = math.MaxInt64
					break
				}
				sim.nextlog += sim.cfg.LogTime
			}
		}
		if entry.Time >= sim.cfg.EndTime {
			sim.log.WithFields(logrus.Fields{
				"time":    entry.Time,
				"pending": sim.queue.Size() + 1,
			}).Info("reached end time, quitting")
			return TerminationEndTime, nil
		}
		stop, err := sim.dispatch(entry)
		if err != nil {
			return TerminationEmptyQueue, err
		}
		if stop {
			sim.log.WithField("time", sim.clock).Info("stopped by control")
			return TerminationControlStop, nil
		}
	}
}

// dispatch advances the clock to entry and delivers it.
func (sim *Simulator) dispatch(entry *QueueEntry) (bool, error) {
	if entry.Time < sim.clock {
		panic(fmt.Sprintf("clock moved backwards: %d -> %d", sim.clock, entry.Time))
	}
	sim.clock = entry.Time
	sim.metrics.observe(sim.clock, sim.queue.Size())

	if entry.Node == nil {
		ce, ok := entry.Event.(*ControlEvent)
		if !ok {
			return false, fmt.Errorf("t=%d: %w: %T", sim.clock, ErrNoTarget, entry.Event)
		}
		return sim.fireControl(ce)
	}

	node := entry.Node
	if !node.IsUp() || node == sim.net.Prototype() {
		sim.dropped++
		sim.metrics.drop()
		sim.record(trace.KindDropped, sim.net.ProtocolName(entry.PID), int64(node.ID()), entry.PID)
		sim.log.Debugf("[t=%d] dropped event for node %d (%s)", sim.clock, node.ID(), node.FailState())
		return false, nil
	}

	sim.currentNode, sim.currentPID = node, entry.PID
	defer func() { sim.currentNode, sim.currentPID = nil, -1 }()

	if cycle, ok := entry.Event.(*NextCycleEvent); ok {
		sim.dispatched++
		sim.metrics.dispatch(KindCycle)
		sim.record(trace.KindCycle, sim.net.ProtocolName(entry.PID), int64(node.ID()), entry.PID)
		out, err := cycle.Fire(sim, node, entry.PID)
		if err != nil {
			return false, fmt.Errorf("t=%d node %d pid %d: %w", sim.clock, node.ID(), entry.PID, err)
		}
		if out.Again {
			if err := sim.Add(out.Next-sim.clock, cycle, node, entry.PID); err != nil {
				return false, err
			}
		}
		return out.Stop, nil
	}

	p, err := node.Protocol(entry.PID)
	if err != nil {
		return false, err
	}
	reactive, ok := p.(Reactive)
	if !ok {
		return false, fmt.Errorf("t=%d node %d pid %d: %w (%T)", sim.clock, node.ID(), entry.PID, ErrNotReactive, p)
	}
	sim.dispatched++
	sim.metrics.dispatch(KindEvent)
	sim.record(trace.KindEvent, sim.net.ProtocolName(entry.PID), int64(node.ID()), entry.PID)
	sim.log.Debugf("[t=%d] event %T to node %d pid %d", sim.clock, entry.Event, node.ID(), entry.PID)
	if err := reactive.OnEvent(sim, node, entry.PID, entry.Event); err != nil {
		return false, fmt.Errorf("t=%d node %d pid %d: %w", sim.clock, node.ID(), entry.PID, err)
	}
	return false, nil
}

func (sim *Simulator) fireControl(ce *ControlEvent) (bool, error) {
	sim.currentNode, sim.currentPID = nil, -1
	sim.dispatched++
	sim.metrics.dispatch(KindControl)
	sim.record(trace.KindControl, ce.Name, -1, -1)
	sim.log.Debugf("[t=%d] control %s", sim.clock, ce.Name)
	out, err := ce.Fire(sim)
	if err != nil {
		return false, fmt.Errorf("t=%d: %w", sim.clock, err)
	}
	if out.Again {
		if err := sim.addControl(out.Next, ce); err != nil {
			return false, err
		}
	}
	return out.Stop, nil
}

func (sim *Simulator) record(kind trace.Kind, target string, node int64, pid int) {
	if sim.trace == nil {
		return
	}
	sim.trace.Record(trace.DispatchRecord{
		Clock:  sim.clock,
		Kind:   kind,
		Target: target,
		NodeID: node,
		PID:    pid,
	})
}

func (sim *Simulator) report(term Termination) Report {
	return Report{
		Termination: term,
		Clock:       sim.clock,
		Pending:     sim.queue.Size(),
		Dispatched:  sim.dispatched,
		Dropped:     sim.dropped,
	}
}
