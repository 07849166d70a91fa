package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/overlay-sim/overlay-sim/sim"
	"github.com/overlay-sim/overlay-sim/sim/config"
	"github.com/overlay-sim/overlay-sim/sim/dynamics"
	"github.com/overlay-sim/overlay-sim/sim/observe"
	"github.com/overlay-sim/overlay-sim/sim/protocols"
	"github.com/overlay-sim/overlay-sim/sim/trace"
)

// newRegistry returns a registry holding every component shipped with the CLI.
func newRegistry() *config.Registry {
	r := config.NewRegistry()
	protocols.Register(r)
	dynamics.Register(r)
	observe.Register(r)
	return r
}

// outputs selects the optional files written after a batch.
type outputs struct {
	metrics    string
	trace      string
	traceLevel trace.TraceLevel
}

// experimentResult is the printed outcome of one experiment.
type experimentResult struct {
	Experiment  int    `yaml:"experiment"`
	Seed        int64  `yaml:"seed"`
	Termination string `yaml:"termination"`
	Clock       int64  `yaml:"clock"`
	Pending     int    `yaml:"pending"`
	Dispatched  int    `yaml:"dispatched"`
	Dropped     int    `yaml:"dropped"`
	Size        int    `yaml:"size"`
}

// traceDocument is the YAML layout of --trace-out.
type traceDocument struct {
	Experiment int                    `yaml:"experiment"`
	Seed       int64                  `yaml:"seed"`
	Summary    *trace.TraceSummary    `yaml:"summary"`
	Dispatches []trace.DispatchRecord `yaml:"dispatches"`
}

// runExperiments runs the cfg.Experiments independent experiments of cfg.
// The metrics of all experiments accumulate in one registry.
func runExperiments(cfg *config.Config, reg *config.Registry, out outputs) ([]experimentResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	promReg := prometheus.NewRegistry()
	var (
		results []experimentResult
		traces  []traceDocument
		last    *sim.Simulator
	)
	for i, expSeed := range config.ExperimentSeeds(cfg.Seed, cfg.Experiments) {
		expCfg := *cfg
		expCfg.Seed = expSeed
		log := logrus.WithFields(logrus.Fields{"experiment": i, "seed": expSeed})

		opts := []sim.SimulatorOption{sim.WithLogger(log), sim.WithRegisterer(promReg)}
		var st *trace.SimulationTrace
		if out.trace != "" {
			st = trace.NewSimulationTrace(trace.TraceConfig{Level: out.traceLevel})
			opts = append(opts, sim.WithTrace(st))
		}

		s, err := config.Build(&expCfg, reg, opts...)
		if err != nil {
			return nil, fmt.Errorf("experiment %d: %w", i, err)
		}
		log.Info("experiment started")
		report, err := s.Run()
		if err != nil {
			return nil, fmt.Errorf("experiment %d: %w", i, err)
		}
		log.WithFields(logrus.Fields{
			"termination": report.Termination,
			"time":        report.Clock,
			"dispatched":  report.Dispatched,
		}).Info("experiment finished")

		results = append(results, experimentResult{
			Experiment:  i,
			Seed:        expSeed,
			Termination: report.Termination.String(),
			Clock:       report.Clock,
			Pending:     report.Pending,
			Dispatched:  report.Dispatched,
			Dropped:     report.Dropped,
			Size:        s.Network().Size(),
		})
		if st != nil {
			traces = append(traces, traceDocument{
				Experiment: i,
				Seed:       expSeed,
				Summary:    trace.Summarize(st),
				Dispatches: st.Dispatches,
			})
		}
		last = s
	}

	if out.metrics != "" && last != nil {
		if err := last.Metrics().WriteTextfile(out.metrics); err != nil {
			return nil, fmt.Errorf("writing metrics: %w", err)
		}
	}
	if out.trace != "" {
		if err := writeYAML(out.trace, traces); err != nil {
			return nil, fmt.Errorf("writing trace: %w", err)
		}
	}
	return results, nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printResults(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
