package protocols

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/overlay-sim/overlay-sim/sim"
	"github.com/overlay-sim/overlay-sim/sim/internal/testutil"
)

const (
	pidLinks = iota
	pidAvg
	pidTransport
	pidPing
)

// stack is the protocol layout used across these tests.
func stack(t *testing.T, size int, lo, hi int64) sim.NetworkConfig {
	t.Helper()
	tr, err := NewUniformTransport(lo, hi)
	require.NoError(t, err)
	return sim.NetworkConfig{
		Size: size,
		Protocols: []sim.ProtocolSpec{
			{Name: "links", New: func() (sim.Protocol, error) { return NewNeighbors(8), nil }},
			{Name: "avg", New: func() (sim.Protocol, error) { return NewAveraging(pidLinks), nil }},
			{Name: "transport", New: func() (sim.Protocol, error) { return tr, nil }},
			{Name: "ping", New: func() (sim.Protocol, error) { return NewPing(pidLinks, pidTransport), nil }},
		},
	}
}

func neighborsOf(t *testing.T, n *sim.Node) *Neighbors {
	t.Helper()
	p, err := n.Protocol(pidLinks)
	require.NoError(t, err)
	return p.(*Neighbors)
}

func averagingOf(t *testing.T, n *sim.Node) *Averaging {
	t.Helper()
	p, err := n.Protocol(pidAvg)
	require.NoError(t, err)
	return p.(*Averaging)
}

func pingOf(t *testing.T, n *sim.Node) *Ping {
	t.Helper()
	p, err := n.Protocol(pidPing)
	require.NoError(t, err)
	return p.(*Ping)
}

// runWith runs a simulator of size nodes whose only initializers are inits.
func runWith(t *testing.T, cfg sim.Config, inits ...sim.Control) *sim.Simulator {
	t.Helper()
	s, _ := testutil.NewSimulator(t, cfg)
	for i, c := range inits {
		s.AddInitializer(string(rune('a'+i)), c)
	}
	_, err := s.Run()
	require.NoError(t, err)
	return s
}
