// Package config loads YAML experiment descriptions and turns them into
// ready-to-run simulators through a registry of component factories.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is a complete experiment description.
// Every section must be listed here: decoding rejects unknown keys.
type Config struct {
	Seed        int64             `yaml:"seed"`
	Experiments int               `yaml:"experiments,omitempty"` // 0 = 1
	Simulation  SimulationConfig  `yaml:"simulation"`
	Network     NetworkConfig     `yaml:"network"`
	Protocols   []ProtocolConfig  `yaml:"protocols"`
	Init        []ComponentConfig `yaml:"init,omitempty"`
	Control     []ControlConfig   `yaml:"control,omitempty"`
	Include     []string          `yaml:"include,omitempty"` // controls to run, in order; empty = all
	Ranges      []RangeConfig     `yaml:"ranges,omitempty"`
}

// SimulationConfig holds the driver parameters.
type SimulationConfig struct {
	EndTime      int64 `yaml:"endtime"`
	LogTime      int64 `yaml:"logtime,omitempty"`
	PriorityBits uint  `yaml:"priority_bits,omitempty"`
}

// NetworkConfig sizes the initial population.
type NetworkConfig struct {
	Size     int `yaml:"size"`
	Capacity int `yaml:"capacity,omitempty"`
}

// ProtocolConfig declares one protocol slot. Slots get protocol ids in
// declaration order.
type ProtocolConfig struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params,omitempty"`
	Cycle  *CycleConfig   `yaml:"cycle,omitempty"`
}

// CycleConfig makes a protocol cycle-driven.
type CycleConfig struct {
	From      int64  `yaml:"from,omitempty"`
	Step      int64  `yaml:"step"`
	Until     *int64 `yaml:"until,omitempty"`
	Delay     string `yaml:"delay,omitempty"` // fixed (default), random, regular-random
	RandStart bool   `yaml:"randstart,omitempty"`
}

// ComponentConfig declares an initializer.
type ComponentConfig struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Params map[string]any `yaml:"params,omitempty"`
}

// ControlConfig declares a scheduled control.
type ControlConfig struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Params   map[string]any `yaml:"params,omitempty"`
	Schedule ScheduleConfig `yaml:"schedule,omitempty"`
}

// ScheduleConfig is the YAML form of a sim.Scheduler. Step defaults to 1 and
// until to unbounded; at selects a single-shot schedule.
type ScheduleConfig struct {
	From  int64  `yaml:"from,omitempty"`
	Step  int64  `yaml:"step,omitempty"`
	Until *int64 `yaml:"until,omitempty"`
	At    *int64 `yaml:"at,omitempty"`
	Final bool   `yaml:"final,omitempty"`
}

// RangeConfig is one swept parameter: an override path and a value list.
type RangeConfig struct {
	Param  string `yaml:"param"`
	Values string `yaml:"values"`
}

// Valid cycle delay strategies.
var validCycleDelays = map[string]bool{"": true, "fixed": true, "random": true, "regular-random": true}

// Load reads the experiment description at path and applies overrides.
func Load(path string, overrides []string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment config: %w", err)
	}
	return Parse(data, overrides)
}

// Parse decodes an experiment description with strict field checking after
// applying overrides of the form path=value.
func Parse(data []byte, overrides []string) (*Config, error) {
	if len(overrides) > 0 {
		var err error
		data, err = applyOverrides(data, overrides)
		if err != nil {
			return nil, err
		}
	}
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing experiment config: %w", err)
	}
	if cfg.Experiments == 0 {
		cfg.Experiments = 1
	}
	return &cfg, nil
}

// Validate checks names, sizes and schedule ranges.
func (c *Config) Validate() error {
	if c.Simulation.EndTime <= 0 {
		return fmt.Errorf("simulation.endtime must be positive, got %d", c.Simulation.EndTime)
	}
	if c.Simulation.LogTime < 0 {
		return fmt.Errorf("simulation.logtime must be non-negative, got %d", c.Simulation.LogTime)
	}
	if c.Experiments < 1 {
		return fmt.Errorf("experiments must be at least 1, got %d", c.Experiments)
	}
	if c.Network.Size < 0 {
		return fmt.Errorf("network.size must be non-negative, got %d", c.Network.Size)
	}
	if c.Network.Capacity < 0 {
		return fmt.Errorf("network.capacity must be non-negative, got %d", c.Network.Capacity)
	}

	names := make(map[string]string)
	claim := func(section, name string) error {
		if name == "" {
			return fmt.Errorf("%s: name must not be empty", section)
		}
		if prev, dup := names[name]; dup {
			return fmt.Errorf("%s: name %q already used in %s", section, name, prev)
		}
		names[name] = section
		return nil
	}
	for i, p := range c.Protocols {
		prefix := fmt.Sprintf("protocols[%d]", i)
		if err := claim(prefix, p.Name); err != nil {
			return err
		}
		if p.Type == "" {
			return fmt.Errorf("%s: type must not be empty", prefix)
		}
		if p.Cycle != nil {
			if err := p.Cycle.validate(prefix + ".cycle"); err != nil {
				return err
			}
			if err := claim(prefix+".cycle", CycleInitName(p.Name)); err != nil {
				return err
			}
		}
	}
	for i, in := range c.Init {
		prefix := fmt.Sprintf("init[%d]", i)
		if err := claim(prefix, in.Name); err != nil {
			return err
		}
		if in.Type == "" {
			return fmt.Errorf("%s: type must not be empty", prefix)
		}
	}
	controls := make(map[string]bool)
	for i, ctl := range c.Control {
		prefix := fmt.Sprintf("control[%d]", i)
		if err := claim(prefix, ctl.Name); err != nil {
			return err
		}
		if ctl.Type == "" {
			return fmt.Errorf("%s: type must not be empty", prefix)
		}
		if err := ctl.Schedule.validate(prefix + ".schedule"); err != nil {
			return err
		}
		controls[ctl.Name] = true
	}
	for i, name := range c.Include {
		if !controls[name] {
			return fmt.Errorf("include[%d]: no control named %q", i, name)
		}
	}
	for i, r := range c.Ranges {
		if r.Param == "" || r.Values == "" {
			return fmt.Errorf("ranges[%d]: param and values are required", i)
		}
	}
	return nil
}

func (s CycleConfig) validate(prefix string) error {
	if s.Step < 1 {
		return fmt.Errorf("%s: step must be >= 1, got %d", prefix, s.Step)
	}
	if s.From < 0 {
		return fmt.Errorf("%s: from must be non-negative, got %d", prefix, s.From)
	}
	if s.Until != nil && *s.Until < s.From {
		return fmt.Errorf("%s: until %d precedes from %d", prefix, *s.Until, s.From)
	}
	if !validCycleDelays[s.Delay] {
		return fmt.Errorf("%s: unknown delay %q; valid: fixed, random, regular-random", prefix, s.Delay)
	}
	return nil
}

func (s ScheduleConfig) validate(prefix string) error {
	if s.At != nil {
		if *s.At < 0 {
			return fmt.Errorf("%s: at must be non-negative, got %d", prefix, *s.At)
		}
		return nil
	}
	if s.Step < 0 {
		return fmt.Errorf("%s: step must be >= 1, got %d", prefix, s.Step)
	}
	if s.From < 0 {
		return fmt.Errorf("%s: from must be non-negative, got %d", prefix, s.From)
	}
	if s.Until != nil && *s.Until < s.From {
		return fmt.Errorf("%s: until %d precedes from %d", prefix, *s.Until, s.From)
	}
	return nil
}

// CycleInitName is the initializer name under which the cycle scheduler of
// protocol is registered, for use in node initializer lists.
func CycleInitName(protocol string) string {
	return "cycle." + protocol
}
