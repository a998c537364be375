package di

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the background jobs and adds the scheduled ones to
// the container's scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{}

	if !cfg.DriftCheckEnabled() {
		log.Info().Msg("Drift check disabled")
		return jobs, nil
	}

	jobs.DriftCheck = scheduler.NewDriftCheckJob(scheduler.DriftCheckConfig{
		HoldingsFile:   cfg.Files.Holdings,
		TargetFile:     cfg.Files.Target,
		PricesFile:     cfg.Files.Prices,
		PricesJSONPath: cfg.Files.PricesPath,
		Strategy:       cfg.Rebalancer.Strategy,
	}, container.Service, log)

	if err := container.Scheduler.AddJob(cfg.Drift.Schedule, jobs.DriftCheck); err != nil {
		return nil, fmt.Errorf("invalid drift check schedule %q: %w", cfg.Drift.Schedule, err)
	}
	return jobs, nil
}
