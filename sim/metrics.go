// Tracks engine-level counters and gauges: dispatched and dropped events,
// node churn, queue depth, population and the logical clock.

package sim

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch kinds used as the "kind" label of events_dispatched_total.
const (
	KindControl = "control"
	KindEvent   = "event"
	KindCycle   = "cycle"
)

// Metrics bundles the Prometheus collectors of one Simulator. Each Simulator
// registers against its own registry unless told otherwise, so independent
// simulations in one process never share series.
type Metrics struct {
	gatherer prometheus.Gatherer

	Dispatched   *prometheus.CounterVec
	Dropped      prometheus.Counter
	NodesAdded   prometheus.Counter
	NodesRemoved prometheus.Counter
	QueueSize    prometheus.Gauge
	NetworkSize  prometheus.Gauge
	Clock        prometheus.Gauge
}

// NewMetrics registers the engine metrics against reg, defaulting to a
// fresh private registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	dispatched, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "events_dispatched_total",
		Help: "Events delivered by the simulator, labeled by kind (control, event, cycle).",
	}, []string{"kind"}), "events_dispatched_total")
	if err != nil {
		return nil, err
	}
	dropped, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "events_dropped_total",
		Help: "Events extracted but not delivered because their node was down, dead or the prototype.",
	}), "events_dropped_total")
	if err != nil {
		return nil, err
	}
	added, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nodes_added_total",
		Help: "Nodes appended to the network.",
	}), "nodes_added_total")
	if err != nil {
		return nil, err
	}
	removed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nodes_removed_total",
		Help: "Nodes evicted from the network.",
	}), "nodes_removed_total")
	if err != nil {
		return nil, err
	}
	queueSize, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "queue_size",
		Help: "Events pending in the queue.",
	}), "queue_size")
	if err != nil {
		return nil, err
	}
	networkSize, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "network_size",
		Help: "Live nodes in the network.",
	}), "network_size")
	if err != nil {
		return nil, err
	}
	clock, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clock",
		Help: "Current logical time.",
	}), "clock")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:     gatherer,
		Dispatched:   dispatched,
		Dropped:      dropped,
		NodesAdded:   added,
		NodesRemoved: removed,
		QueueSize:    queueSize,
		NetworkSize:  networkSize,
		Clock:        clock,
	}, nil
}

// Gatherer exposes the registry the metrics were registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.gatherer }

// WriteTextfile writes all gathered series to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.gatherer)
}

func (m *Metrics) dispatch(kind string) {
	if m == nil {
		return
	}
	m.Dispatched.WithLabelValues(kind).Inc()
}

func (m *Metrics) drop() {
	if m == nil {
		return
	}
	m.Dropped.Inc()
}

func (m *Metrics) nodeAdded(size int) {
	if m == nil {
		return
	}
	m.NodesAdded.Inc()
	m.NetworkSize.Set(float64(size))
}

func (m *Metrics) nodeRemoved(size int) {
	if m == nil {
		return
	}
	m.NodesRemoved.Inc()
	m.NetworkSize.Set(float64(size))
}

func (m *Metrics) observe(clock int64, pending int) {
	if m == nil {
		return
	}
	m.Clock.Set(float64(clock))
	m.QueueSize.Set(float64(pending))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
