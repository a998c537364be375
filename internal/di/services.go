package di

import (
	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/scheduler"
	"github.com/rs/zerolog"
)

// InitializeServices creates the solver, the portfolio service and the
// scheduler
func InitializeServices(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	solver := optimization.NewBranchAndBound(optimization.Config{
		MaxNodes:    cfg.Solver.MaxNodes,
		TimeLimit:   cfg.Solver.TimeLimit,
		RelativeGap: cfg.Solver.RelativeGap,
	}, log)

	service := portfolio.NewService(solver, cfg.Rebalancer.Tolerance, cfg.Drift.Threshold, log)
	if _, err := service.Registry().Get(cfg.Rebalancer.Strategy); err != nil {
		return nil, err
	}

	return &Container{
		Solver:    solver,
		Service:   service,
		Scheduler: scheduler.New(log),
	}, nil
}
