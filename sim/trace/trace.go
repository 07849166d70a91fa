package trace

// TraceLevel controls the verbosity of dispatch tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelControls records control firings only.
	TraceLevelControls TraceLevel = "controls"
	// TraceLevelAll records every extracted entry, including drops.
	TraceLevelAll TraceLevel = "all"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:     true,
	TraceLevelControls: true,
	TraceLevelAll:      true,
	"":                 true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects dispatch records during a run.
type SimulationTrace struct {
	Config     TraceConfig
	Dispatches []DispatchRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Dispatches: make([]DispatchRecord, 0),
	}
}

// Record appends a dispatch record if the configured level admits it.
// Safe to call on a nil trace.
func (st *SimulationTrace) Record(record DispatchRecord) {
	if st == nil {
		return
	}
	switch st.Config.Level {
	case TraceLevelAll:
	case TraceLevelControls:
		if record.Kind != KindControl {
			return
		}
	default:
		return
	}
	st.Dispatches = append(st.Dispatches, record)
}

// Reset discards all records, keeping the configuration.
func (st *SimulationTrace) Reset() {
	if st == nil {
		return
	}
	st.Dispatches = st.Dispatches[:0]
}
