package di

import (
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/scheduler"
)

// Container holds the wired services
type Container struct {
	Solver    optimization.Solver
	Service   *portfolio.Service
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered background jobs. A job is nil when its
// schedule is not configured.
type JobInstances struct {
	DriftCheck *scheduler.DriftCheckJob
}
