package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/overlay-sim/overlay-sim/sim/config"
	"github.com/overlay-sim/overlay-sim/sim/trace"
)

const smallYAML = `
seed: 3
experiments: 2
simulation:
  endtime: 50
network:
  size: 20
protocols:
  - name: links
    type: neighbors
  - name: avg
    type: averaging
    params: {linkable: links}
    cycle: {step: 1}
init:
  - name: wire
    type: wire-kout
    params: {protocol: links, k: 3}
  - name: values
    type: distribution
    params: {protocol: avg, mode: linear, min: 0, max: 1}
control:
  - name: grow
    type: dynamic-network
    params: {add: 2, maxsize: 30, init: [wire, values, cycle.avg]}
    schedule: {from: 10, step: 10}
  - name: stats
    type: population-observer
    params: {protocol: avg}
    schedule: {step: 10, final: true}
ranges:
  - param: network.size
    values: "10,20"
  - param: init.wire.params.k
    values: "1:3"
`

func parseSmall(t *testing.T, extra ...string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(smallYAML), extra)
	require.NoError(t, err)
	return cfg
}

func TestRunExperiments_BatchSeedsAndOutputs(t *testing.T) {
	// GIVEN two batch experiments with metrics and trace outputs
	dir := t.TempDir()
	out := outputs{
		metrics:    filepath.Join(dir, "metrics.prom"),
		trace:      filepath.Join(dir, "trace.yaml"),
		traceLevel: trace.TraceLevelAll,
	}

	// WHEN they run
	results, err := runExperiments(parseSmall(t), newRegistry(), out)
	require.NoError(t, err)

	// THEN the first keeps the configured seed and the second derives one
	require.Len(t, results, 2)
	seeds := config.ExperimentSeeds(3, 2)
	assert.Equal(t, seeds[0], results[0].Seed)
	assert.Equal(t, seeds[1], results[1].Seed)
	for _, r := range results {
		assert.Equal(t, "EndTime", r.Termination)
		assert.Equal(t, 28, r.Size)
		assert.Positive(t, r.Dispatched)
	}

	// AND the metrics file holds the engine series
	metrics, err := os.ReadFile(out.metrics)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "events_dispatched_total")
	assert.Contains(t, string(metrics), "nodes_added_total")

	// AND the trace holds one document per experiment whose summary matches
	data, err := os.ReadFile(out.trace)
	require.NoError(t, err)
	var docs []traceDocument
	require.NoError(t, yaml.Unmarshal(data, &docs))
	require.Len(t, docs, 2)
	for i, doc := range docs {
		assert.Equal(t, i, doc.Experiment)
		assert.Len(t, doc.Dispatches, doc.Summary.TotalDispatches)
		assert.Equal(t, results[i].Dispatched+results[i].Dropped, doc.Summary.TotalDispatches)
		assert.Equal(t, 5, doc.Summary.ControlFirings["stats"])
	}
}

func TestRunExperiments_Reproducible(t *testing.T) {
	first, err := runExperiments(parseSmall(t), newRegistry(), outputs{})
	require.NoError(t, err)
	second, err := runExperiments(parseSmall(t), newRegistry(), outputs{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunExperiments_InvalidConfig(t *testing.T) {
	_, err := runExperiments(parseSmall(t, "experiments=-1"), newRegistry(), outputs{})
	assert.ErrorContains(t, err, "experiments must be at least 1")

	_, err = runExperiments(parseSmall(t, "control.grow.type=nope"), newRegistry(), outputs{})
	assert.ErrorIs(t, err, config.ErrUnknownComponent)
}

func TestRunSweep_OnePerPoint(t *testing.T) {
	// GIVEN 2 sizes times 3 degrees, one experiment each
	load := func(extra []string) (*config.Config, error) {
		return config.Parse([]byte(smallYAML), append([]string{"experiments=1"}, extra...))
	}

	// WHEN the sweep runs
	results, err := runSweep(load, newRegistry())
	require.NoError(t, err)

	// THEN every point ran with its own seed, last range varying fastest
	require.Len(t, results, 6)
	assert.Equal(t, []string{"network.size=10", "init.wire.params.k=1"}, results[0].Point)
	assert.Equal(t, []string{"network.size=20", "init.wire.params.k=3"}, results[5].Point)
	seen := map[int64]bool{}
	for _, r := range results {
		require.Len(t, r.Results, 1)
		assert.Equal(t, r.Seed, r.Results[0].Seed)
		seen[r.Seed] = true
	}
	assert.Len(t, seen, 6)
}

func TestRunSweep_PointMaySetSeed(t *testing.T) {
	load := func(extra []string) (*config.Config, error) {
		return config.Parse([]byte(smallYAML), append([]string{"experiments=1", "ranges=[{param: seed, values: '5,6'}]"}, extra...))
	}

	results, err := runSweep(load, newRegistry())
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, int64(5), results[0].Seed)
	assert.Equal(t, int64(6), results[1].Seed)
}

func TestSetsSeed(t *testing.T) {
	assert.True(t, setsSeed(config.Point{"network.size=3", "seed=4"}))
	assert.False(t, setsSeed(config.Point{"network.size=3"}))
}
