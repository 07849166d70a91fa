package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/overlay-sim/overlay-sim/sim/config"
	"github.com/overlay-sim/overlay-sim/sim/trace"
)

var (
	configPath  string   // Experiment description (YAML)
	seed        int64    // Overrides the seed of the config
	experiments int      // Overrides the number of batch experiments
	overrides   []string // path=value overrides applied to the config
	logLevel    string   // Log verbosity level
	metricsOut  string   // Prometheus textfile written after the run
	traceOut    string   // Dispatch trace written after the run
	traceLevel  string   // Dispatch trace verbosity
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "overlay-sim",
	Short: "Discrete-event simulator for overlay networks",
}

// runCmd executes the experiments of one config file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the experiments described by a YAML config",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			logrus.Fatalf("Invalid experiment config: %v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		logrus.Infof("Starting %d experiment(s) from %s, seed=%d, endtime=%d",
			cfg.Experiments, configPath, cfg.Seed, cfg.Simulation.EndTime)
		startTime := time.Now()

		results, err := runExperiments(cfg, newRegistry(), outputs{
			metrics:    metricsOut,
			trace:      traceOut,
			traceLevel: trace.TraceLevel(traceLevel),
		})
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		if err := printResults(os.Stdout, results); err != nil {
			logrus.Fatalf("Writing results failed: %v", err)
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// loadConfig reads the config with the --set overrides and then extra, and
// applies the flags the user set explicitly.
func loadConfig(cmd *cobra.Command, extra []string) (*config.Config, error) {
	cfg, err := config.Load(configPath, append(append([]string(nil), overrides...), extra...))
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("experiments") {
		cfg.Experiments = experiments
	}
	return cfg, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, sweepCmd} {
		c.Flags().StringVar(&configPath, "config", "", "Experiment description (YAML)")
		c.Flags().Int64Var(&seed, "seed", 0, "Seed of the first experiment (overrides the config)")
		c.Flags().StringArrayVar(&overrides, "set", nil, "Override a config value, as path=value (repeatable)")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
		_ = c.MarkFlagRequired("config")
	}
	runCmd.Flags().IntVar(&experiments, "experiments", 1, "Number of batch experiments (overrides the config)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write engine metrics in Prometheus text format to this file")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the dispatch trace as YAML to this file")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelAll), "Dispatch trace verbosity (none, controls, all)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sweepCmd)
}
