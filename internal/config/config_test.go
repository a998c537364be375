package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no .env file is picked up
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "simple", cfg.Rebalancer.Strategy)
	assert.Equal(t, 0.02, cfg.Rebalancer.Tolerance)
	assert.Equal(t, 20000, cfg.Solver.MaxNodes)
	assert.Equal(t, 10*time.Second, cfg.Solver.TimeLimit)
	assert.Equal(t, 1e-4, cfg.Solver.RelativeGap)
	assert.Equal(t, 0.02, cfg.Drift.Threshold)
	assert.False(t, cfg.DriftCheckEnabled())
	assert.Equal(t, "$.prices", cfg.Files.PricesPath)
}

func TestLoad_FromEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GO_PORT", "9090")
	t.Setenv("REBALANCER_STRATEGY", "trade_minimization")
	t.Setenv("REBALANCER_TOLERANCE", "0.05")
	t.Setenv("SOLVER_TIME_LIMIT", "2s")
	t.Setenv("DRIFT_CHECK_SCHEDULE", "0 0 9 * * MON-FRI")
	t.Setenv("PORTFOLIO_HOLDINGS_FILE", "holdings.csv")
	t.Setenv("PORTFOLIO_TARGET_FILE", "target.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "trade_minimization", cfg.Rebalancer.Strategy)
	assert.Equal(t, 0.05, cfg.Rebalancer.Tolerance)
	assert.Equal(t, 2*time.Second, cfg.Solver.TimeLimit)
	assert.True(t, cfg.DriftCheckEnabled())
}

func TestLoad_DotEnv(t *testing.T) {
	chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("SOLVER_MAX_NODES=500\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("SOLVER_MAX_NODES") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Solver.MaxNodes)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GO_PORT", "not-a-port")
	t.Setenv("SOLVER_TIME_LIMIT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Solver.TimeLimit)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:       8001,
			Rebalancer: RebalancerConfig{Strategy: "simple", Tolerance: 0.02},
			Solver:     SolverConfig{MaxNodes: 1, TimeLimit: time.Second},
			Drift:      DriftConfig{Threshold: 0.02},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port", mutate: func(c *Config) { c.Port = 70000 }},
		{name: "tolerance", mutate: func(c *Config) { c.Rebalancer.Tolerance = 1.5 }},
		{name: "max nodes", mutate: func(c *Config) { c.Solver.MaxNodes = 0 }},
		{name: "time limit", mutate: func(c *Config) { c.Solver.TimeLimit = -time.Second }},
		{name: "relative gap", mutate: func(c *Config) { c.Solver.RelativeGap = 1 }},
		{name: "threshold", mutate: func(c *Config) { c.Drift.Threshold = 0 }},
		{name: "schedule without files", mutate: func(c *Config) { c.Drift.Schedule = "@hourly" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
