package config

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/overlay-sim/overlay-sim/sim"
)

// Build turns a validated Config into a Simulator with its protocols,
// initializers and controls in place. Every factory runs once here so that
// parameter errors surface before any event is processed.
func Build(cfg *Config, reg *Registry, opts ...sim.SimulatorOption) (*sim.Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &env{
		pids:  make(map[string]int, len(cfg.Protocols)),
		inits: make(map[string]sim.Control),
	}
	for i, p := range cfg.Protocols {
		e.pids[p.Name] = i
	}

	specs := make([]sim.ProtocolSpec, len(cfg.Protocols))
	for i, pc := range cfg.Protocols {
		factory, err := reg.Protocol(pc.Type)
		if err != nil {
			return nil, fmt.Errorf("protocols[%d] %q: %w", i, pc.Name, err)
		}
		params := Params{component: pc.Name, values: pc.Params, env: e}
		if _, err := factory(params); err != nil {
			return nil, fmt.Errorf("protocols[%d] %q: %w", i, pc.Name, err)
		}
		specs[i] = sim.ProtocolSpec{
			Name: pc.Name,
			New:  func() (sim.Protocol, error) { return factory(params) },
		}
	}

	s, err := sim.NewSimulator(sim.Config{
		EndTime:      cfg.Simulation.EndTime,
		LogTime:      cfg.Simulation.LogTime,
		PriorityBits: cfg.Simulation.PriorityBits,
		Seed:         cfg.Seed,
		Network: sim.NetworkConfig{
			Size:      cfg.Network.Size,
			Capacity:  cfg.Network.Capacity,
			Protocols: specs,
		},
	}, opts...)
	if err != nil {
		return nil, err
	}

	for i, ic := range cfg.Init {
		factory, err := reg.Control(ic.Type)
		if err != nil {
			return nil, fmt.Errorf("init[%d] %q: %w", i, ic.Name, err)
		}
		c, err := factory(Params{component: ic.Name, values: ic.Params, env: e})
		if err != nil {
			return nil, fmt.Errorf("init[%d] %q: %w", i, ic.Name, err)
		}
		e.inits[ic.Name] = c
		s.AddInitializer(ic.Name, c)
	}

	for i, pc := range cfg.Protocols {
		if pc.Cycle == nil {
			continue
		}
		cs, err := cycleScheduler(i, *pc.Cycle)
		if err != nil {
			return nil, fmt.Errorf("protocols[%d] %q cycle: %w", i, pc.Name, err)
		}
		name := CycleInitName(pc.Name)
		e.inits[name] = cs
		s.AddInitializer(name, cs)
	}

	controls := cfg.includedControls()
	if err := sim.CheckControlCount(len(controls), s.MaxControls()); err != nil {
		return nil, err
	}
	for _, cc := range controls {
		factory, err := reg.Control(cc.Type)
		if err != nil {
			return nil, fmt.Errorf("control %q: %w", cc.Name, err)
		}
		c, err := factory(Params{component: cc.Name, values: cc.Params, env: e})
		if err != nil {
			return nil, fmt.Errorf("control %q: %w", cc.Name, err)
		}
		sched, err := cc.Schedule.scheduler()
		if err != nil {
			return nil, fmt.Errorf("control %q: %w", cc.Name, err)
		}
		s.AddControl(cc.Name, c, sched)
	}

	logrus.WithFields(logrus.Fields{
		"protocols":    len(cfg.Protocols),
		"initializers": len(e.inits),
		"controls":     len(controls),
	}).Debug("experiment built")
	return s, nil
}

func (c *Config) includedControls() []ControlConfig {
	if len(c.Include) == 0 {
		return c.Control
	}
	byName := make(map[string]ControlConfig, len(c.Control))
	for _, cc := range c.Control {
		byName[cc.Name] = cc
	}
	out := make([]ControlConfig, 0, len(c.Include))
	for _, name := range c.Include {
		out = append(out, byName[name])
	}
	return out
}

func (s ScheduleConfig) scheduler() (sim.Scheduler, error) {
	if s.At != nil {
		return sim.AtTime(*s.At, s.Final)
	}
	step := s.Step
	if step == 0 {
		step = 1
	}
	until := int64(math.MaxInt64)
	if s.Until != nil {
		until = *s.Until
	}
	return sim.NewScheduler(s.From, step, until, s.Final)
}

func cycleScheduler(pid int, c CycleConfig) (*sim.CycleScheduler, error) {
	until := int64(math.MaxInt64)
	if c.Until != nil {
		until = *c.Until
	}
	sched, err := sim.NewScheduler(c.From, c.Step, until, false)
	if err != nil {
		return nil, err
	}
	var delay sim.CycleDelay
	switch c.Delay {
	case "", "fixed":
		delay = sim.FixedDelay{}
	case "random":
		delay = sim.RandomDelay{}
	case "regular-random":
		delay = sim.RegularRandomDelay{}
	default:
		return nil, fmt.Errorf("%w: unknown delay %q", ErrIllegalParameter, c.Delay)
	}
	return sim.NewCycleScheduler(pid, sched, delay, c.RandStart), nil
}

// ExperimentSeeds returns the seeds of n batch experiments: the first is
// seed itself, the rest are drawn from a master stream seeded with it.
func ExperimentSeeds(seed int64, n int) []int64 {
	seeds := make([]int64, n)
	master := rand.New(rand.NewSource(seed))
	for i := range seeds {
		if i == 0 {
			seeds[i] = seed
			continue
		}
		seeds[i] = master.Int63()
	}
	return seeds
}
