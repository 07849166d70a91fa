package dynamics

import (
	"math"

	"github.com/overlay-sim/overlay-sim/sim"
)

// DynamicNetwork grows or shrinks the network by Add nodes per firing.
// |Add| < 1 is a fraction of the current size, otherwise an absolute count;
// the sign selects growth or shrinkage. MinSize and MaxSize bound the
// population. In Substitute mode as many nodes leave as join (or join as
// leave), so the size stays constant and the bounds are ignored.
type DynamicNetwork struct {
	churn
	Name       string
	Add        float64
	MinSize    int
	MaxSize    int
	Substitute bool
}

// NewDynamicNetwork returns a control without bounds.
func NewDynamicNetwork(name string, add float64, inits ...sim.NodeInitializer) *DynamicNetwork {
	return &DynamicNetwork{
		churn:   churn{Initializers: inits},
		Name:    name,
		Add:     add,
		MaxSize: math.MaxInt,
	}
}

// Execute applies one round of churn. It never stops the run.
func (d *DynamicNetwork) Execute(s *sim.Simulator) (bool, error) {
	toAdd, toRemove := d.Delta(s.Network().Size())
	if err := d.remove(s, toRemove); err != nil {
		return false, err
	}
	if err := d.add(s, toAdd); err != nil {
		return false, err
	}
	if toAdd > 0 || toRemove > 0 {
		logChurn(s, d.Name, toAdd, toRemove)
	}
	return false, nil
}

// Delta returns how many nodes to add and to remove at the given size.
func (d *DynamicNetwork) Delta(size int) (toAdd, toRemove int) {
	if d.Add == 0 {
		return 0, 0
	}
	if !d.Substitute {
		if (d.MaxSize <= size && d.Add > 0) || (d.MinSize >= size && d.Add < 0) {
			return 0, 0
		}
	}
	if d.Add > 0 {
		toAdd = scaled(d.Add, size)
		if !d.Substitute && toAdd > d.MaxSize-size {
			toAdd = d.MaxSize - size
		}
		if d.Substitute {
			toRemove = toAdd
		}
		return toAdd, toRemove
	}
	toRemove = scaled(-d.Add, size)
	if !d.Substitute && toRemove > size-d.MinSize {
		toRemove = size - d.MinSize
	}
	if d.Substitute {
		toAdd = toRemove
	}
	return toAdd, toRemove
}

// scaled converts a rate into a node count, rounding half up.
func scaled(rate float64, size int) int {
	if rate < 1 {
		rate *= float64(size)
	}
	return int(math.Floor(rate + 0.5))
}
