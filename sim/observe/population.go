// Package observe provides observer controls that summarize the state of a
// running simulation: the distribution of per-node protocol values and the
// connectivity of the overlay built by a Linkable protocol.
package observe

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/overlay-sim/overlay-sim/sim"
)

// valuer is any protocol exposing one numeric value per node.
type valuer interface {
	Value() float64
}

// PopulationStats summarizes the values held by the live nodes at one time.
type PopulationStats struct {
	Time   int64
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// PopulationObserver reports mean, standard deviation and range of the
// values of protocol PID over the up nodes. With Accuracy >= 0 it stops the
// simulation once the standard deviation is at most Accuracy.
type PopulationObserver struct {
	Name     string
	PID      int
	Accuracy float64

	History []PopulationStats
}

// NewPopulationObserver returns an observer that never stops the run.
func NewPopulationObserver(name string, pid int) *PopulationObserver {
	return &PopulationObserver{Name: name, PID: pid, Accuracy: -1}
}

// Last returns the most recent observation.
func (o *PopulationObserver) Last() (PopulationStats, bool) {
	if len(o.History) == 0 {
		return PopulationStats{}, false
	}
	return o.History[len(o.History)-1], true
}

func (o *PopulationObserver) Execute(s *sim.Simulator) (bool, error) {
	values := make([]float64, 0, s.Network().Size())
	for _, n := range s.Network().Nodes() {
		if !n.IsUp() {
			continue
		}
		p, err := n.Protocol(o.PID)
		if err != nil {
			return false, err
		}
		v, ok := p.(valuer)
		if !ok {
			return false, fmt.Errorf("%s: pid %d holds %T, which has no value", o.Name, o.PID, p)
		}
		values = append(values, v.Value())
	}

	st := PopulationStats{Time: s.Clock(), Count: len(values)}
	if len(values) > 0 {
		st.Mean, st.StdDev = stat.MeanStdDev(values, nil)
		if len(values) == 1 {
			st.StdDev = 0
		}
		st.Min, st.Max = floats.Min(values), floats.Max(values)
	}
	o.History = append(o.History, st)

	s.Logger().WithFields(logrus.Fields{
		"control": o.Name,
		"time":    st.Time,
		"count":   st.Count,
		"mean":    st.Mean,
		"stddev":  st.StdDev,
		"min":     st.Min,
		"max":     st.Max,
	}).Info("population")

	return o.Accuracy >= 0 && st.Count > 0 && st.StdDev <= o.Accuracy, nil
}
