package dynamics

import (
	"fmt"
	"math"

	"github.com/overlay-sim/overlay-sim/sim"
	"github.com/overlay-sim/overlay-sim/sim/config"
)

// Register adds the churn controls to r: dynamic-network and
// oscillating-network.
func Register(r *config.Registry) {
	r.RegisterControl("dynamic-network", func(p config.Params) (sim.Control, error) {
		add, err := p.Float("add")
		if err != nil {
			return nil, err
		}
		minSize, err := p.IntOr("minsize", 0)
		if err != nil {
			return nil, err
		}
		maxSize, err := p.IntOr("maxsize", math.MaxInt)
		if err != nil {
			return nil, err
		}
		if minSize < 0 || maxSize < minSize {
			return nil, fmt.Errorf("%s: %w: need 0 <= minsize <= maxsize, got [%d, %d]", p.Component(), config.ErrIllegalParameter, minSize, maxSize)
		}
		substitute, err := p.BoolOr("substitute", false)
		if err != nil {
			return nil, err
		}
		inits, err := p.NodeInitializers("init")
		if err != nil {
			return nil, err
		}
		d := NewDynamicNetwork(p.Component(), add, inits...)
		d.MinSize, d.MaxSize, d.Substitute = int(minSize), int(maxSize), substitute
		return d, nil
	})
	r.RegisterControl("oscillating-network", func(p config.Params) (sim.Control, error) {
		minSize, err := p.Int("minsize")
		if err != nil {
			return nil, err
		}
		maxSize, err := p.Int("maxsize")
		if err != nil {
			return nil, err
		}
		if minSize < 0 || maxSize < minSize {
			return nil, fmt.Errorf("%s: %w: need 0 <= minsize <= maxsize, got [%d, %d]", p.Component(), config.ErrIllegalParameter, minSize, maxSize)
		}
		period, err := p.Int("period")
		if err != nil {
			return nil, err
		}
		if period <= 0 {
			return nil, fmt.Errorf("%s.params.period: %w: must be positive, got %d", p.Component(), config.ErrIllegalParameter, period)
		}
		inits, err := p.NodeInitializers("init")
		if err != nil {
			return nil, err
		}
		return NewOscillatingNetwork(p.Component(), int(minSize), int(maxSize), period, inits...), nil
	})
}
