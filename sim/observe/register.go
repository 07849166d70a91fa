package observe

import (
	"github.com/overlay-sim/overlay-sim/sim"
	"github.com/overlay-sim/overlay-sim/sim/config"
)

// Register adds the observer controls to r: population-observer and
// overlay-observer.
func Register(r *config.Registry) {
	r.RegisterControl("population-observer", func(p config.Params) (sim.Control, error) {
		pid, err := p.PID("protocol")
		if err != nil {
			return nil, err
		}
		accuracy, err := p.FloatOr("accuracy", -1)
		if err != nil {
			return nil, err
		}
		o := NewPopulationObserver(p.Component(), pid)
		o.Accuracy = accuracy
		return o, nil
	})
	r.RegisterControl("overlay-observer", func(p config.Params) (sim.Control, error) {
		pid, err := p.PID("protocol")
		if err != nil {
			return nil, err
		}
		return NewOverlayObserver(p.Component(), pid), nil
	})
}
