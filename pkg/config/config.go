// Package config handles Skuld configuration via environment variables.
//
// All settings are prefixed with SKULD_ and carry working defaults, so a
// bare process starts with an in-memory cloud engine and a quiet JSON
// logger. Load configuration with LoadFromEnv() and check it with
// Validate() before use.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//
// Environment Variables:
//   - SKULD_CATALOG_PATH="./catalog.yaml"
//   - SKULD_DATA_DIR="./data"
//   - SKULD_STORE_IN_MEMORY=true
//   - SKULD_STORE_SYNC_WRITES=false
//   - SKULD_HISTORY_WINDOW=24
//   - SKULD_CALIBRATION_ALPHA=0.2
//   - SKULD_CALIBRATION_BETA=0.3
//   - SKULD_CALIBRATION_GAMMA=0.5
//   - SKULD_BATCH_PARALLELISM=4
//   - SKULD_LOG_LEVEL="info"
//   - SKULD_LOG_FORMAT="json" or "text"
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/orneryd/skuld/pkg/protocol"
)

// Config holds all Skuld configuration loaded from environment variables.
type Config struct {
	// Catalog settings
	Catalog CatalogConfig

	// Store settings for the calibration engine's persistence
	Store StoreConfig

	// Physics settings applied to every local engine
	Physics PhysicsConfig

	// Orchestrator settings
	Orchestrator OrchestratorConfig

	// Logging
	Logging LoggingConfig
}

// CatalogConfig locates the indicator catalog.
type CatalogConfig struct {
	// Path to the YAML catalog file
	Path string
}

// StoreConfig holds calibration persistence settings.
type StoreConfig struct {
	// DataDir is the directory for BadgerDB files
	DataDir string
	// InMemory skips disk persistence entirely
	InMemory bool
	// SyncWrites forces fsync after each write
	SyncWrites bool
}

// PhysicsConfig holds local-engine tuning.
type PhysicsConfig struct {
	// HistoryWindow is the rolling sample window per node
	HistoryWindow int
	// Weights blend global/cohort/personal constants during calibration
	Weights protocol.CalibrationWeights
}

// OrchestratorConfig holds fleet settings.
type OrchestratorConfig struct {
	// BatchParallelism bounds concurrent devices in batch sync
	BatchParallelism int
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string
	// Format is json or text
	Format string
}

// LoadFromEnv reads all SKULD_* environment variables, falling back to
// defaults for anything unset or unparseable.
func LoadFromEnv() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path: getEnv("SKULD_CATALOG_PATH", "./catalog.yaml"),
		},
		Store: StoreConfig{
			DataDir:    getEnv("SKULD_DATA_DIR", "./data"),
			InMemory:   getEnvBool("SKULD_STORE_IN_MEMORY", true),
			SyncWrites: getEnvBool("SKULD_STORE_SYNC_WRITES", false),
		},
		Physics: PhysicsConfig{
			HistoryWindow: getEnvInt("SKULD_HISTORY_WINDOW", 24),
			Weights: protocol.CalibrationWeights{
				Alpha: getEnvFloat("SKULD_CALIBRATION_ALPHA", protocol.DefaultCalibrationWeights.Alpha),
				Beta:  getEnvFloat("SKULD_CALIBRATION_BETA", protocol.DefaultCalibrationWeights.Beta),
				Gamma: getEnvFloat("SKULD_CALIBRATION_GAMMA", protocol.DefaultCalibrationWeights.Gamma),
			},
		},
		Orchestrator: OrchestratorConfig{
			BatchParallelism: getEnvInt("SKULD_BATCH_PARALLELISM", 4),
		},
		Logging: LoggingConfig{
			Level:  getEnv("SKULD_LOG_LEVEL", "info"),
			Format: getEnv("SKULD_LOG_FORMAT", "json"),
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("SKULD_CATALOG_PATH must not be empty")
	}
	if !c.Store.InMemory && c.Store.DataDir == "" {
		return fmt.Errorf("SKULD_DATA_DIR required when SKULD_STORE_IN_MEMORY=false")
	}
	if c.Physics.HistoryWindow < 1 {
		return fmt.Errorf("SKULD_HISTORY_WINDOW must be at least 1, got %d", c.Physics.HistoryWindow)
	}
	if err := c.Physics.Weights.Validate(); err != nil {
		return fmt.Errorf("calibration weights: %w", err)
	}
	if c.Orchestrator.BatchParallelism < 1 {
		return fmt.Errorf("SKULD_BATCH_PARALLELISM must be at least 1, got %d", c.Orchestrator.BatchParallelism)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("SKULD_LOG_LEVEL must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("SKULD_LOG_FORMAT must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
