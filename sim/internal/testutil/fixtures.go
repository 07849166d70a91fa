// Package testutil provides shared fixtures for tests of the sim packages:
// recording controls and initializers, and small protocol builders.
package testutil

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/overlay-sim/overlay-sim/sim"
)

// Sample is one observation of the network size.
type Sample struct {
	Time int64
	Size int
}

// SizeRecorder is a control that records the network size each time it fires.
type SizeRecorder struct {
	Samples []Sample
}

func (r *SizeRecorder) Execute(s *sim.Simulator) (bool, error) {
	r.Samples = append(r.Samples, Sample{Time: s.Clock(), Size: s.Network().Size()})
	return false, nil
}

// Sizes returns the recorded sizes in order.
func (r *SizeRecorder) Sizes() []int {
	out := make([]int, len(r.Samples))
	for i, smp := range r.Samples {
		out[i] = smp.Size
	}
	return out
}

// CountingInitializer counts how often each node was initialized.
type CountingInitializer struct {
	Calls map[sim.NodeID]int
}

// NewCountingInitializer returns an initializer with an empty tally.
func NewCountingInitializer() *CountingInitializer {
	return &CountingInitializer{Calls: make(map[sim.NodeID]int)}
}

func (c *CountingInitializer) Initialize(_ *sim.Simulator, node *sim.Node) error {
	c.Calls[node.ID()]++
	return nil
}

// Execute initializes every current node, so the fixture can also be
// declared as an experiment initializer.
func (c *CountingInitializer) Execute(s *sim.Simulator) (bool, error) {
	for _, n := range s.Network().Nodes() {
		if err := c.Initialize(s, n); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Idle is a protocol with no behavior.
type Idle struct{}

func (Idle) Clone() sim.Protocol { return Idle{} }

// IdleNetwork returns a network of size nodes holding one Idle protocol.
func IdleNetwork(size int) sim.NetworkConfig {
	return sim.NetworkConfig{
		Size:      size,
		Protocols: []sim.ProtocolSpec{{Name: "idle", New: func() (sim.Protocol, error) { return Idle{}, nil }}},
	}
}

// NewSimulator builds a Simulator that logs to a null logger and returns the
// hook capturing its entries.
func NewSimulator(t *testing.T, cfg sim.Config, opts ...sim.SimulatorOption) (*sim.Simulator, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s, err := sim.NewSimulator(cfg, append([]sim.SimulatorOption{sim.WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return s, hook
}

// Scheduler builds a periodic schedule, failing the test on bad input.
func Scheduler(t *testing.T, from, step, until int64) sim.Scheduler {
	t.Helper()
	s, err := sim.NewScheduler(from, step, until, false)
	require.NoError(t, err)
	return s
}
