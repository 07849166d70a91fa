package trace

import (
	"testing"
)

func TestSimulationTrace_RecordAll_AppendsEveryKind(t *testing.T) {
	// GIVEN a trace recording everything
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelAll})

	// WHEN a control firing and a dropped event are recorded
	st.Record(DispatchRecord{Clock: 0, Kind: KindControl, Target: "churn", NodeID: -1})
	st.Record(DispatchRecord{Clock: 5, Kind: KindDropped, Target: "link", NodeID: 3, PID: 0})

	// THEN both records are kept in order
	if len(st.Dispatches) != 2 {
		t.Fatalf("expected 2 dispatches, got %d", len(st.Dispatches))
	}
	if st.Dispatches[0].Target != "churn" {
		t.Errorf("expected first target churn, got %s", st.Dispatches[0].Target)
	}
	if st.Dispatches[1].Kind != KindDropped {
		t.Errorf("expected second kind dropped, got %s", st.Dispatches[1].Kind)
	}
}

func TestSimulationTrace_ControlsLevel_FiltersNodeEvents(t *testing.T) {
	// GIVEN a trace recording controls only
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelControls})

	// WHEN a node event and a control firing are recorded
	st.Record(DispatchRecord{Clock: 1, Kind: KindEvent, Target: "ping", NodeID: 1})
	st.Record(DispatchRecord{Clock: 2, Kind: KindControl, Target: "observer", NodeID: -1})

	// THEN only the control firing is kept
	if len(st.Dispatches) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(st.Dispatches))
	}
	if st.Dispatches[0].Kind != KindControl {
		t.Errorf("expected control, got %s", st.Dispatches[0].Kind)
	}
}

func TestSimulationTrace_NoneLevel_RecordsNothing(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})
	st.Record(DispatchRecord{Clock: 1, Kind: KindControl, Target: "c"})
	if len(st.Dispatches) != 0 {
		t.Errorf("expected no dispatches, got %d", len(st.Dispatches))
	}
}

func TestSimulationTrace_NilReceiver_IsSafe(t *testing.T) {
	var st *SimulationTrace
	st.Record(DispatchRecord{Clock: 1, Kind: KindControl})
	st.Reset()
}

func TestSimulationTrace_Reset_KeepsConfig(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelAll})
	st.Record(DispatchRecord{Clock: 1, Kind: KindCycle, Target: "avg", NodeID: 2})
	st.Reset()
	if len(st.Dispatches) != 0 {
		t.Errorf("expected empty trace after reset, got %d", len(st.Dispatches))
	}
	if st.Config.Level != TraceLevelAll {
		t.Errorf("expected level all after reset, got %s", st.Config.Level)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"controls", true},
		{"all", true},
		{"", true},
		{"decisions", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
		}
	}
}
