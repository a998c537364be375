// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	LogLevel  string
	LogPretty bool
	Port      int
	DevMode   bool

	Rebalancer RebalancerConfig
	Solver     SolverConfig
	Drift      DriftConfig
	Files      FilesConfig
}

// RebalancerConfig selects the default strategy and its parameters
type RebalancerConfig struct {
	Strategy  string
	Tolerance float64 // trade-minimization band, as a fraction of portfolio value
}

// SolverConfig bounds the MILP search
type SolverConfig struct {
	MaxNodes    int
	TimeLimit   time.Duration
	RelativeGap float64
}

// DriftConfig controls the scheduled drift check
type DriftConfig struct {
	Threshold float64
	Schedule  string // cron schedule with seconds; empty disables the check
}

// FilesConfig points at the portfolio snapshot checked by the scheduler
type FilesConfig struct {
	Holdings   string
	Target     string
	Prices     string
	PricesPath string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		Port:      getEnvAsInt("GO_PORT", 8001),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		Rebalancer: RebalancerConfig{
			Strategy:  getEnv("REBALANCER_STRATEGY", "simple"),
			Tolerance: getEnvAsFloat("REBALANCER_TOLERANCE", 0.02),
		},
		Solver: SolverConfig{
			MaxNodes:    getEnvAsInt("SOLVER_MAX_NODES", 20000),
			TimeLimit:   getEnvAsDuration("SOLVER_TIME_LIMIT", 10*time.Second),
			RelativeGap: getEnvAsFloat("SOLVER_RELATIVE_GAP", 1e-4),
		},
		Drift: DriftConfig{
			Threshold: getEnvAsFloat("DRIFT_THRESHOLD", 0.02),
			Schedule:  getEnv("DRIFT_CHECK_SCHEDULE", ""),
		},
		Files: FilesConfig{
			Holdings:   getEnv("PORTFOLIO_HOLDINGS_FILE", ""),
			Target:     getEnv("PORTFOLIO_TARGET_FILE", ""),
			Prices:     getEnv("PORTFOLIO_PRICES_FILE", ""),
			PricesPath: getEnv("PRICES_JSONPATH", "$.prices"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that values are in range and that the drift check has
// the files it needs
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.Rebalancer.Tolerance <= 0 || c.Rebalancer.Tolerance >= 1 {
		return fmt.Errorf("REBALANCER_TOLERANCE must be in (0, 1), got %g", c.Rebalancer.Tolerance)
	}
	if c.Solver.MaxNodes <= 0 {
		return fmt.Errorf("SOLVER_MAX_NODES must be positive, got %d", c.Solver.MaxNodes)
	}
	if c.Solver.RelativeGap < 0 || c.Solver.RelativeGap >= 1 {
		return fmt.Errorf("SOLVER_RELATIVE_GAP must be in [0, 1), got %v", c.Solver.RelativeGap)
	}
	if c.Solver.TimeLimit < 0 {
		return fmt.Errorf("SOLVER_TIME_LIMIT must not be negative, got %s", c.Solver.TimeLimit)
	}
	if c.Drift.Threshold <= 0 || c.Drift.Threshold >= 1 {
		return fmt.Errorf("DRIFT_THRESHOLD must be in (0, 1), got %g", c.Drift.Threshold)
	}
	if c.Drift.Schedule != "" && (c.Files.Holdings == "" || c.Files.Target == "") {
		return fmt.Errorf("DRIFT_CHECK_SCHEDULE requires PORTFOLIO_HOLDINGS_FILE and PORTFOLIO_TARGET_FILE")
	}
	return nil
}

// DriftCheckEnabled reports whether a drift check schedule is configured
func (c *Config) DriftCheckEnabled() bool {
	return c.Drift.Schedule != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
