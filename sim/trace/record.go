// Package trace provides dispatch-trace recording for reproducibility analysis.
// It has no dependencies on sim/ and stores pure data types.
package trace

// Kind classifies a dispatched queue entry.
type Kind string

const (
	KindControl Kind = "control"
	KindEvent   Kind = "event"
	KindCycle   Kind = "cycle"
	// KindDropped marks entries addressed to a down, dead or prototype node.
	KindDropped Kind = "dropped"
)

// DispatchRecord captures one extracted queue entry.
type DispatchRecord struct {
	Clock  int64  `yaml:"clock"`
	Kind   Kind   `yaml:"kind"`
	Target string `yaml:"target"` // control name, or protocol name for node events
	NodeID int64  `yaml:"node"`   // -1 for controls
	PID    int    `yaml:"pid"`
}
