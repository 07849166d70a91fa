package dynamics

import (
	"math"

	"github.com/overlay-sim/overlay-sim/sim"
)

// OscillatingNetwork drives the population along a sine wave between MinSize
// and MaxSize, completing a half oscillation every Period time units.
type OscillatingNetwork struct {
	churn
	Name    string
	MinSize int
	MaxSize int
	Period  int64
}

// NewOscillatingNetwork returns an oscillating control.
func NewOscillatingNetwork(name string, minSize, maxSize int, period int64, inits ...sim.NodeInitializer) *OscillatingNetwork {
	return &OscillatingNetwork{
		churn:   churn{Initializers: inits},
		Name:    name,
		MinSize: minSize,
		MaxSize: maxSize,
		Period:  period,
	}
}

// Target returns the population the wave prescribes at time.
func (o *OscillatingNetwork) Target(time int64) int {
	amplitude := (o.MaxSize - o.MinSize) / 2
	mid := (o.MaxSize + o.MinSize) / 2
	return mid + int(math.Sin(float64(time)/float64(o.Period)*math.Pi)*float64(amplitude))
}

// Execute moves the population to the current target.
func (o *OscillatingNetwork) Execute(s *sim.Simulator) (bool, error) {
	diff := o.Target(s.Clock()) - s.Network().Size()
	switch {
	case diff < 0:
		if err := o.remove(s, -diff); err != nil {
			return false, err
		}
		logChurn(s, o.Name, 0, -diff)
	case diff > 0:
		if err := o.add(s, diff); err != nil {
			return false, err
		}
		logChurn(s, o.Name, diff, 0)
	}
	return false, nil
}
