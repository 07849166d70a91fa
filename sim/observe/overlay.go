package observe

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"

	"github.com/overlay-sim/overlay-sim/sim"
)

// OverlayStats describes the live overlay at one time. Links are taken as
// undirected, so Components counts weakly connected components.
type OverlayStats struct {
	Time       int64
	Nodes      int
	Edges      int
	Components int
	Largest    int
	Isolated   int
	MeanDegree float64
}

// OverlayObserver analyses the graph formed by the Linkable protocol PID over
// the nodes currently in the network. Links to nodes that are gone are
// ignored.
type OverlayObserver struct {
	Name string
	PID  int

	History []OverlayStats
}

func NewOverlayObserver(name string, pid int) *OverlayObserver {
	return &OverlayObserver{Name: name, PID: pid}
}

// Last returns the most recent observation.
func (o *OverlayObserver) Last() (OverlayStats, bool) {
	if len(o.History) == 0 {
		return OverlayStats{}, false
	}
	return o.History[len(o.History)-1], true
}

func (o *OverlayObserver) Execute(s *sim.Simulator) (bool, error) {
	st, err := Overlay(s.Network(), o.PID)
	if err != nil {
		return false, err
	}
	st.Time = s.Clock()
	o.History = append(o.History, st)

	s.Logger().WithFields(logrus.Fields{
		"control":    o.Name,
		"time":       st.Time,
		"nodes":      st.Nodes,
		"edges":      st.Edges,
		"components": st.Components,
		"largest":    st.Largest,
		"isolated":   st.Isolated,
		"degree":     st.MeanDegree,
	}).Info("overlay")
	return false, nil
}

// Overlay computes the statistics of the Linkable at pid over net.
func Overlay(net *sim.Network, pid int) (OverlayStats, error) {
	g := simple.NewUndirectedGraph()
	for _, n := range net.Nodes() {
		g.AddNode(simple.Node(n.ID()))
	}

	degrees := make([]float64, 0, net.Size())
	for _, n := range net.Nodes() {
		p, err := n.Protocol(pid)
		if err != nil {
			return OverlayStats{}, err
		}
		l, ok := p.(sim.Linkable)
		if !ok {
			return OverlayStats{}, fmt.Errorf("pid %d holds %T, not a linkable protocol", pid, p)
		}
		live := 0
		for i := 0; i < l.Degree(); i++ {
			id := l.Neighbor(i)
			if _, ok := net.Lookup(id); !ok {
				continue
			}
			live++
			if id == n.ID() {
				continue
			}
			g.SetEdge(g.NewEdge(simple.Node(n.ID()), simple.Node(id)))
		}
		degrees = append(degrees, float64(live))
	}

	st := OverlayStats{Nodes: net.Size(), Edges: g.Edges().Len()}
	for _, cc := range topo.ConnectedComponents(g) {
		st.Components++
		st.Largest = max(st.Largest, len(cc))
		if len(cc) == 1 {
			st.Isolated++
		}
	}
	if len(degrees) > 0 {
		st.MeanDegree = stat.Mean(degrees, nil)
	}
	return st, nil
}
