package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/orneryd/skuld/pkg/cloud"
	"github.com/orneryd/skuld/pkg/config"
	"github.com/orneryd/skuld/pkg/graph"
	"github.com/orneryd/skuld/pkg/logging"
	"github.com/orneryd/skuld/pkg/orchestrator"
	"github.com/orneryd/skuld/pkg/physics"
	"github.com/orneryd/skuld/pkg/protocol"
)

func runSimulate(cmd *cobra.Command, args []string) error {
	catalogPath, _ := cmd.Flags().GetString("catalog")
	devices, _ := cmd.Flags().GetInt("devices")
	days, _ := cmd.Flags().GetInt("days")
	cohortName, _ := cmd.Flags().GetString("cohort")
	seed, _ := cmd.Flags().GetInt64("seed")

	cfg := config.LoadFromEnv()
	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	catalog, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	cloudEngine := cloud.NewEngine(cloud.Options{Logger: logger})
	engineConfig := physics.DefaultConfig()
	engineConfig.HistoryWindow = cfg.Physics.HistoryWindow
	engineConfig.Weights = cfg.Physics.Weights
	engineConfig.Logger = logger

	orch, err := orchestrator.New(orchestrator.Options{
		Cloud:        cloudEngine,
		Catalog:      catalog,
		EngineConfig: engineConfig,
		Logger:       logger,
		Parallelism:  cfg.Orchestrator.BatchParallelism,
	})
	if err != nil {
		return err
	}

	cohort := protocol.Cohort(cohortName)
	engines := make([]*physics.Engine, 0, devices)
	for i := 0; i < devices; i++ {
		engine, err := orch.CreateLocalEngine(fmt.Sprintf("sim-device-%02d", i+1), cohort)
		if err != nil {
			return err
		}
		engines = append(engines, engine)
	}

	rng := rand.New(rand.NewSource(seed))
	for day := 1; day <= days; day++ {
		fmt.Printf("--- day %d ---\n", day)
		for _, engine := range engines {
			msg, ok, err := orch.FullCycle(engine, syntheticValues(catalog, rng, day))
			switch {
			case err != nil:
				fmt.Printf("%s: sync failed: %v\n", engine.DeviceID(), err)
			case ok:
				fmt.Printf("%s: %s\n", engine.DeviceID(), msg)
			default:
				fmt.Printf("%s: all indicators ignorable\n", engine.DeviceID())
			}
		}
	}
	return nil
}

func loadCatalog(path string) (*graph.Catalog, error) {
	if path == "" {
		return graph.ParseCatalog(defaultCatalog)
	}
	return graph.LoadCatalog(path)
}

// syntheticValues drifts each indicator from its ignorable band toward its
// irreversible band over the run, with per-device jitter, so alerts start
// appearing after a few days.
func syntheticValues(catalog *graph.Catalog, rng *rand.Rand, day int) map[graph.NodeID]float64 {
	values := make(map[graph.NodeID]float64, len(catalog.Nodes))
	for i := range catalog.Nodes {
		n := &catalog.Nodes[i]
		jitter := rng.Float64()
		drift := float64(day) * 0.08 * jitter
		switch n.Direction {
		case graph.HigherBetter:
			span := n.Thresholds.Ignorable - n.Thresholds.Irreversible
			values[n.ID] = n.Thresholds.Ignorable - span*drift
		case graph.LowerBetter:
			span := n.Thresholds.Irreversible - n.Thresholds.Ignorable
			values[n.ID] = n.Thresholds.Ignorable + span*drift
		case graph.TargetRange:
			values[n.ID] = n.Thresholds.Target + n.Thresholds.Irreversible*drift
		default: // contextual, already 0..1
			values[n.ID] = graph.Clamp01(drift)
		}
	}
	return values
}
