// Package main provides the Skuld CLI entry point.
package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "skuld",
		Short: "Skuld - Two-tier pressure diffusion for life and business indicators",
		Long: `Skuld simulates pressure diffusion over a graph of measured indicators
(cash, revenue, sleep, pipeline) on each device, and recalibrates the
physics constants fleet-wide from anonymized daily aggregates.

Features:
  • Per-device physics engine with typed diffusion edges
  • Privacy-validated upstream aggregates (no raw values ever leave)
  • Cloud calibration with streaming per-cohort statistics
  • Early-warning rules in a restricted boolean trigger language`,
	}

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Skuld v%s (%s)\n", version, commit)
		},
	})

	// Simulate command
	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a local fleet simulation against an in-process cloud engine",
		Long:  "Simulate N devices over D days: ingest synthetic indicator values, run compute cycles, sync both directions, and print each device's daily alert.",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().String("catalog", "", "Catalog YAML path (default: built-in catalog)")
	simulateCmd.Flags().Int("devices", 3, "Number of simulated devices")
	simulateCmd.Flags().Int("days", 7, "Number of simulated days")
	simulateCmd.Flags().String("cohort", "solo_operator", "Cohort tag for all simulated devices")
	simulateCmd.Flags().Int64("seed", 1, "Random seed for synthetic values")
	rootCmd.AddCommand(simulateCmd)

	// Calibrate command
	calibrateCmd := &cobra.Command{
		Use:   "calibrate [upstream.json ...]",
		Short: "Fold upstream packet files into the calibration store and print a downstream packet",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCalibrate,
	}
	calibrateCmd.Flags().String("data-dir", "./data", "Calibration store directory")
	calibrateCmd.Flags().Bool("in-memory", false, "Run the store in memory (no persistence)")
	calibrateCmd.Flags().String("cohort", "solo_operator", "Cohort to generate the downstream packet for")
	rootCmd.AddCommand(calibrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
