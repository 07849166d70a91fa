package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverrides_ByNameIndexAndNewKey(t *testing.T) {
	// GIVEN overrides addressing list entries by name, by index, and a new param
	overrides := []string{
		"seed=99",
		"protocols.links.params.capacity=12",
		"protocols.1.cycle.step=3",
		"control.watch.params.label=hello",
		"network.capacity=64",
	}

	// WHEN the document is parsed with them
	cfg, err := Parse([]byte(baseYAML), overrides)
	require.NoError(t, err)

	// THEN each value lands with its YAML type
	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, 12, cfg.Protocols[0].Params["capacity"])
	assert.Equal(t, int64(3), cfg.Protocols[1].Cycle.Step)
	assert.Equal(t, "hello", cfg.Control[0].Params["label"])
	assert.Equal(t, 64, cfg.Network.Capacity)
}

func TestOverrides_FlowListValue(t *testing.T) {
	cfg, err := Parse([]byte(baseYAML), []string{"include=[last, watch]"})
	require.NoError(t, err)
	assert.Equal(t, []string{"last", "watch"}, cfg.Include)
}

func TestOverrides_Errors(t *testing.T) {
	tests := []struct {
		name     string
		override string
		wantErr  string
	}{
		{"no equals", "seed", "want path=value"},
		{"empty path", "=3", "want path=value"},
		{"unknown entry", "protocols.nope.type=x", `no list entry named "nope"`},
		{"replace entry", "protocols.links=x", "cannot replace list entry"},
		{"scalar descent", "seed.deep=1", "not a mapping or list"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(baseYAML), []string{tc.override})
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestOverrides_OnEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil, []string{"simulation.endtime=5", "network.size=2"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), cfg.Simulation.EndTime)
	assert.Equal(t, 2, cfg.Network.Size)
}

func TestParseOverride(t *testing.T) {
	path, value, err := ParseOverride(" a.b =x=y")
	require.NoError(t, err)
	assert.Equal(t, "a.b", path)
	assert.Equal(t, "x=y", value)
}
