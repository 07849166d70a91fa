package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/overlay-sim/overlay-sim/sim/config"
)

// sweepResult groups the experiments of one range point.
type sweepResult struct {
	Point   []string           `yaml:"point"`
	Seed    int64              `yaml:"seed"`
	Results []experimentResult `yaml:"results"`
}

// sweepCmd runs the config once per point of its ranges
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the experiments once per combination of the configured ranges",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		results, err := runSweep(func(extra []string) (*config.Config, error) {
			return loadConfig(cmd, extra)
		}, newRegistry())
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		if err := printResults(os.Stdout, results); err != nil {
			logrus.Fatalf("Writing results failed: %v", err)
		}
	},
}

// runSweep expands the ranges of the base config and runs every point with
// a seed drawn from a master stream seeded by the base seed. A point that
// sets the seed itself keeps it.
func runSweep(load func(extra []string) (*config.Config, error), reg *config.Registry) ([]sweepResult, error) {
	base, err := load(nil)
	if err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	points, err := config.Points(base.Ranges)
	if err != nil {
		return nil, err
	}

	master := rand.New(rand.NewSource(base.Seed))
	out := make([]sweepResult, 0, len(points))
	for _, p := range points {
		pointSeed := master.Int63()
		cfg, err := load(p)
		if err != nil {
			return nil, fmt.Errorf("point %s: %w", strings.Join(p, " "), err)
		}
		if !setsSeed(p) {
			cfg.Seed = pointSeed
		}
		logrus.WithFields(logrus.Fields{
			"point": strings.Join(p, " "),
			"seed":  cfg.Seed,
		}).Info("sweep point")

		results, err := runExperiments(cfg, reg, outputs{})
		if err != nil {
			return nil, fmt.Errorf("point %s: %w", strings.Join(p, " "), err)
		}
		out = append(out, sweepResult{Point: p, Seed: cfg.Seed, Results: results})
	}
	return out, nil
}

func setsSeed(p config.Point) bool {
	for _, o := range p {
		if path, _, err := config.ParseOverride(o); err == nil && path == "seed" {
			return true
		}
	}
	return false
}
