// Package dynamics provides controls that change the population of the
// network while an experiment runs.
package dynamics

import (
	"github.com/sirupsen/logrus"

	"github.com/overlay-sim/overlay-sim/sim"
)

// churn holds what every population control shares: the initializers run on
// joining nodes.
type churn struct {
	Initializers []sim.NodeInitializer
}

// add stamps n nodes out of the prototype, initializes each and appends it.
func (c *churn) add(s *sim.Simulator, n int) error {
	net := s.Network()
	for i := 0; i < n; i++ {
		node := net.NewNode()
		for _, init := range c.Initializers {
			if err := init.Initialize(s, node); err != nil {
				return err
			}
		}
		net.Add(node)
	}
	return nil
}

// remove evicts n nodes chosen uniformly at random.
func (c *churn) remove(s *sim.Simulator, n int) error {
	net := s.Network()
	rng := s.RNG().ForSubsystem(sim.SubsystemChurn)
	for i := 0; i < n && net.Size() > 0; i++ {
		if _, err := net.Remove(rng.Intn(net.Size())); err != nil {
			return err
		}
	}
	return nil
}

func logChurn(s *sim.Simulator, control string, added, removed int) {
	s.Logger().WithFields(logrus.Fields{
		"control": control,
		"time":    s.Clock(),
		"added":   added,
		"removed": removed,
		"size":    s.Network().Size(),
	}).Debug("churn")
}
