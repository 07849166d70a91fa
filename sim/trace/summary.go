package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDispatches int
	DroppedCount    int
	UniqueNodes     int
	LastClock       int64
	KindCounts      map[Kind]int
	ControlFirings  map[string]int // control name → number of firings
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		KindCounts:     make(map[Kind]int),
		ControlFirings: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	nodes := make(map[int64]struct{})
	summary.TotalDispatches = len(st.Dispatches)
	for _, d := range st.Dispatches {
		summary.KindCounts[d.Kind]++
		switch d.Kind {
		case KindDropped:
			summary.DroppedCount++
		case KindControl:
			summary.ControlFirings[d.Target]++
		}
		if d.NodeID >= 0 {
			nodes[d.NodeID] = struct{}{}
		}
		if d.Clock > summary.LastClock {
			summary.LastClock = d.Clock
		}
	}
	summary.UniqueNodes = len(nodes)

	return summary
}
