package protocols

import (
	"fmt"

	"github.com/overlay-sim/overlay-sim/sim"
	"github.com/overlay-sim/overlay-sim/sim/config"
)

// Register adds the protocols and initializers of this package to r.
//
// Protocols: neighbors, averaging, ping, uniform-transport.
// Initializers: wire-kout, distribution.
func Register(r *config.Registry) {
	r.RegisterProtocol("neighbors", func(p config.Params) (sim.Protocol, error) {
		capacity, err := p.IntOr("capacity", 0)
		if err != nil {
			return nil, err
		}
		return NewNeighbors(int(capacity)), nil
	})
	r.RegisterProtocol("averaging", func(p config.Params) (sim.Protocol, error) {
		linkable, err := p.PID("linkable")
		if err != nil {
			return nil, err
		}
		return NewAveraging(linkable), nil
	})
	r.RegisterProtocol("ping", func(p config.Params) (sim.Protocol, error) {
		linkable, err := p.PID("linkable")
		if err != nil {
			return nil, err
		}
		transport, err := p.PID("transport")
		if err != nil {
			return nil, err
		}
		return NewPing(linkable, transport), nil
	})
	r.RegisterProtocol("uniform-transport", func(p config.Params) (sim.Protocol, error) {
		lo, err := p.IntOr("min", 0)
		if err != nil {
			return nil, err
		}
		hi, err := p.IntOr("max", lo)
		if err != nil {
			return nil, err
		}
		t, err := NewUniformTransport(lo, hi)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %v", p.Component(), config.ErrIllegalParameter, err)
		}
		return t, nil
	})

	r.RegisterControl("wire-kout", func(p config.Params) (sim.Control, error) {
		pid, err := p.PID("protocol")
		if err != nil {
			return nil, err
		}
		k, err := p.Int("k")
		if err != nil {
			return nil, err
		}
		if k < 0 {
			return nil, fmt.Errorf("%s.params.k: %w: must be non-negative, got %d", p.Component(), config.ErrIllegalParameter, k)
		}
		undirected, err := p.BoolOr("undirected", false)
		if err != nil {
			return nil, err
		}
		return &WireKOut{PID: pid, K: int(k), Undirected: undirected}, nil
	})
	r.RegisterControl("distribution", func(p config.Params) (sim.Control, error) {
		pid, err := p.PID("protocol")
		if err != nil {
			return nil, err
		}
		mode, err := p.StringOr("mode", DistributionLinear)
		if err != nil {
			return nil, err
		}
		d := &ValueDistribution{PID: pid, Mode: mode}
		switch mode {
		case DistributionLinear, DistributionUniform:
			if d.Min, err = p.Float("min"); err != nil {
				return nil, err
			}
			if d.Max, err = p.Float("max"); err != nil {
				return nil, err
			}
		case DistributionPeak:
			if d.Peak, err = p.Float("value"); err != nil {
				return nil, err
			}
			peaks, err := p.IntOr("peaks", 1)
			if err != nil {
				return nil, err
			}
			if peaks < 1 {
				return nil, fmt.Errorf("%s.params.peaks: %w: must be >= 1, got %d", p.Component(), config.ErrIllegalParameter, peaks)
			}
			d.Peaks = int(peaks)
		default:
			return nil, fmt.Errorf("%s.params.mode: %w: %q; valid: linear, peak, uniform", p.Component(), config.ErrIllegalParameter, mode)
		}
		return d, nil
	})
}
