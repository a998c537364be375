package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/sources"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DriftCheckConfig names the files that make up the checked portfolio
type DriftCheckConfig struct {
	HoldingsFile   string
	TargetFile     string
	PricesFile     string // optional; refreshes holding prices when set
	PricesJSONPath string
	Strategy       string
}

// DriftCheckResult is the outcome of the most recent drift check
type DriftCheckResult struct {
	CheckedAt time.Time              `json:"checked_at"`
	Drift     allocation.DriftReport `json:"drift"`
	Plan      *rebalancing.Plan      `json:"plan,omitempty"` // nil when nothing drifted past the threshold
}

// DriftCheckJob loads the configured portfolio, measures drift against its
// target and logs the plan that would restore it. Nothing is persisted.
type DriftCheckJob struct {
	cfg     DriftCheckConfig
	service *portfolio.Service
	log     zerolog.Logger

	mu   sync.Mutex
	last *DriftCheckResult
}

// NewDriftCheckJob creates a drift check job
func NewDriftCheckJob(cfg DriftCheckConfig, service *portfolio.Service, log zerolog.Logger) *DriftCheckJob {
	if cfg.Strategy == "" {
		cfg.Strategy = rebalancing.SimpleStrategyName
	}
	return &DriftCheckJob{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("job", "drift_check").Logger(),
	}
}

// Name returns the job name
func (j *DriftCheckJob) Name() string {
	return "drift_check"
}

// Run executes the drift check
func (j *DriftCheckJob) Run() error {
	holdings, err := sources.LoadHoldings(j.cfg.HoldingsFile)
	if err != nil {
		return err
	}
	target, err := sources.LoadTarget(j.cfg.TargetFile)
	if err != nil {
		return err
	}

	prices := rebalancing.Prices{}
	if j.cfg.PricesFile != "" {
		prices, err = sources.LoadPrices(j.cfg.PricesFile, j.cfg.PricesJSONPath)
		if err != nil {
			return err
		}
	}

	p, err := j.service.Build(holdings, target, 0)
	if err != nil {
		return fmt.Errorf("failed to build portfolio: %w", err)
	}
	updated := p.UpdatePrices(prices)

	result := &DriftCheckResult{
		CheckedAt: time.Now(),
		Drift:     p.Drift(j.service.DriftThreshold()),
	}

	if result.Drift.NeedsRebalance() {
		plan, err := p.Plan(j.cfg.Strategy, prices, decimal.Zero)
		if err != nil {
			return fmt.Errorf("failed to plan rebalance: %w", err)
		}
		result.Plan = plan

		j.log.Warn().
			Strs("breaches", result.Drift.Breaches).
			Float64("max_abs_drift", result.Drift.MaxAbsDrift).
			Str("plan_id", plan.ID.String()).
			Str("method", string(plan.Method)).
			Int("orders", len(plan.Orders)).
			Msg("Portfolio drifted past threshold")
		for _, o := range plan.Orders {
			j.log.Info().Str("plan_id", plan.ID.String()).Msg(o.String())
		}
	} else {
		j.log.Debug().
			Int("prices_updated", updated).
			Float64("max_abs_drift", result.Drift.MaxAbsDrift).
			Msg("Portfolio within drift threshold")
	}

	j.mu.Lock()
	j.last = result
	j.mu.Unlock()
	return nil
}

// Last returns the result of the most recent successful run
func (j *DriftCheckJob) Last() (DriftCheckResult, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return DriftCheckResult{}, false
	}
	return *j.last, true
}
