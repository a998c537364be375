package portfolio

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PlanRequest is a self-contained rebalance request: a holdings snapshot, the
// target to move toward and prices for symbols not yet held.
type PlanRequest struct {
	Holdings  []domain.Holding
	Target    allocation.Target
	Prices    rebalancing.PriceLookup
	Strategy  string
	ExtraCash decimal.Decimal

	// Tolerance overrides the trade-minimization band when positive
	Tolerance float64
}

// PlanOutcome is a plan together with the portfolio before and after it fills
type PlanOutcome struct {
	Plan        *rebalancing.Plan
	Before      *Portfolio
	After       *Portfolio
	DriftBefore allocation.DriftReport
	DriftAfter  allocation.DriftReport
}

// Service builds portfolios from request snapshots and plans rebalances.
//
// Every call works on a fresh Portfolio, so a Service can be shared across
// goroutines.
type Service struct {
	solver         optimization.Solver
	registry       *rebalancing.Registry
	tolerance      float64
	driftThreshold float64
	log            zerolog.Logger
}

// NewService creates a service whose optimizing strategies share solver
func NewService(solver optimization.Solver, tolerance, driftThreshold float64, log zerolog.Logger) *Service {
	if driftThreshold <= 0 {
		driftThreshold = allocation.DefaultDriftThreshold
	}
	return &Service{
		solver:         solver,
		registry:       rebalancing.NewDefaultRegistry(solver, tolerance, log),
		tolerance:      tolerance,
		driftThreshold: driftThreshold,
		log:            log.With().Str("service", "portfolio").Logger(),
	}
}

// Strategies returns the names of the available strategies
func (s *Service) Strategies() []string {
	return s.registry.Names()
}

// Registry returns the default strategy registry
func (s *Service) Registry() *rebalancing.Registry {
	return s.registry
}

// DriftThreshold returns the drift above which a symbol counts as out of balance
func (s *Service) DriftThreshold() float64 {
	return s.driftThreshold
}

// Build creates a portfolio from a holdings snapshot and target
func (s *Service) Build(holdings []domain.Holding, target allocation.Target, tolerance float64) (*Portfolio, error) {
	p := New(s.registryFor(tolerance), s.log)
	for _, h := range holdings {
		if _, err := domain.NewHolding(h.Symbol, h.Quantity, h.Price); err != nil {
			return nil, err
		}
		p.AddHolding(h)
	}
	if err := p.SetTargetAllocation(target); err != nil {
		return nil, err
	}
	return p, nil
}

// Plan computes the orders for req and the portfolio they lead to
func (s *Service) Plan(req PlanRequest) (*PlanOutcome, error) {
	before, err := s.Build(req.Holdings, req.Target, req.Tolerance)
	if err != nil {
		return nil, err
	}

	plan, err := before.Plan(req.Strategy, req.Prices, req.ExtraCash)
	if err != nil {
		return nil, err
	}

	after, err := Apply(before, plan.Orders)
	if err != nil {
		return nil, fmt.Errorf("failed to apply plan %s: %w", plan.ID, err)
	}

	s.log.Info().
		Str("plan_id", plan.ID.String()).
		Str("strategy", plan.Strategy).
		Str("method", string(plan.Method)).
		Int("orders", len(plan.Orders)).
		Str("bought", plan.TotalBought().StringFixed(2)).
		Str("sold", plan.TotalSold().StringFixed(2)).
		Msg("Plan computed")

	return &PlanOutcome{
		Plan:        plan,
		Before:      before,
		After:       after,
		DriftBefore: before.Drift(s.driftThreshold),
		DriftAfter:  after.Drift(s.driftThreshold),
	}, nil
}

func (s *Service) registryFor(tolerance float64) *rebalancing.Registry {
	if tolerance <= 0 || tolerance == s.tolerance {
		return s.registry
	}
	return rebalancing.NewDefaultRegistry(s.solver, tolerance, s.log)
}
