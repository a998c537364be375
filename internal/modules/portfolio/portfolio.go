// Package portfolio holds whole-share holdings together with a target
// allocation and asks a rebalancing strategy for the orders that realign them.
package portfolio

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Portfolio owns an ordered set of holdings and a target allocation.
//
// Holdings keep insertion order; overwriting a symbol keeps its position.
// A Portfolio is not safe for concurrent mutation. Rebalance and Plan only
// read from it.
type Portfolio struct {
	holdings  []domain.Holding
	index     map[string]int
	target    allocation.Target
	hasTarget bool

	strategies *rebalancing.Registry
	log        zerolog.Logger
}

// New creates an empty portfolio that resolves strategies from registry
func New(registry *rebalancing.Registry, log zerolog.Logger) *Portfolio {
	return &Portfolio{
		index:      make(map[string]int),
		strategies: registry,
		log:        log.With().Str("component", "portfolio").Logger(),
	}
}

// AddHolding inserts h, replacing any holding with the same symbol
func (p *Portfolio) AddHolding(h domain.Holding) {
	if i, ok := p.index[h.Symbol]; ok {
		p.holdings[i] = h
		return
	}
	p.index[h.Symbol] = len(p.holdings)
	p.holdings = append(p.holdings, h)
}

// RemoveHolding removes and returns the holding for symbol. The bool is
// false when the symbol was not held.
func (p *Portfolio) RemoveHolding(symbol string) (domain.Holding, bool) {
	i, ok := p.index[symbol]
	if !ok {
		return domain.Holding{}, false
	}

	removed := p.holdings[i]
	p.holdings = append(p.holdings[:i], p.holdings[i+1:]...)
	delete(p.index, symbol)
	for j := i; j < len(p.holdings); j++ {
		p.index[p.holdings[j].Symbol] = j
	}
	return removed, true
}

// Holding returns the holding for symbol
func (p *Portfolio) Holding(symbol string) (domain.Holding, bool) {
	i, ok := p.index[symbol]
	if !ok {
		return domain.Holding{}, false
	}
	return p.holdings[i], true
}

// Holdings returns a copy of the holdings in insertion order
func (p *Portfolio) Holdings() []domain.Holding {
	out := make([]domain.Holding, len(p.holdings))
	copy(out, p.holdings)
	return out
}

// SetTargetAllocation validates and stores target. On error the previous
// target is kept.
func (p *Portfolio) SetTargetAllocation(target allocation.Target) error {
	if err := target.Validate(); err != nil {
		return err
	}
	p.target = target
	p.hasTarget = true
	return nil
}

// TargetAllocation returns the current target and whether one was set
func (p *Portfolio) TargetAllocation() (allocation.Target, bool) {
	return p.target, p.hasTarget
}

// TotalValue sums the market value of all holdings
func (p *Portfolio) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, h := range p.holdings {
		total = total.Add(h.MarketValue())
	}
	return total
}

// CurrentAllocation returns each holding's share of the total value, in
// holdings order. It is empty when the portfolio is worth nothing.
func (p *Portfolio) CurrentAllocation() allocation.Target {
	total := p.TotalValue()
	if !total.IsPositive() {
		return allocation.NewTarget()
	}

	weights := make([]allocation.Weight, 0, len(p.holdings))
	for _, h := range p.holdings {
		weights = append(weights, allocation.Weight{
			Symbol: h.Symbol,
			Weight: h.MarketValue().Div(total),
		})
	}
	return allocation.NewTarget(weights...)
}

// UpdatePrices refreshes the price of every held symbol the lookup knows
// and returns how many were updated.
func (p *Portfolio) UpdatePrices(prices rebalancing.PriceLookup) int {
	updated := 0
	for i := range p.holdings {
		if price, ok := prices.Price(p.holdings[i].Symbol); ok {
			p.holdings[i].UpdatePrice(price)
			updated++
		}
	}
	return updated
}

// Drift compares current weights with the target. Without a target every
// holding is reported against a weight of zero.
func (p *Portfolio) Drift(threshold float64) allocation.DriftReport {
	values := make([]allocation.Value, 0, len(p.holdings))
	for _, h := range p.holdings {
		values = append(values, allocation.Value{Symbol: h.Symbol, Value: h.MarketValue()})
	}
	return allocation.CalculateDrift(values, p.target, p.TotalValue(), threshold)
}

// Rebalance returns the orders the named strategy proposes. Holdings and
// target are left untouched.
func (p *Portfolio) Rebalance(strategyName string, prices rebalancing.PriceLookup, extraCash decimal.Decimal) ([]domain.Order, error) {
	plan, err := p.Plan(strategyName, prices, extraCash)
	if err != nil {
		return nil, err
	}
	return plan.Orders, nil
}

// Plan is Rebalance with the result tagged by the method that produced it
func (p *Portfolio) Plan(strategyName string, prices rebalancing.PriceLookup, extraCash decimal.Decimal) (*rebalancing.Plan, error) {
	if !p.hasTarget {
		return nil, domain.ErrNoTargetAllocation
	}

	total := p.TotalValue()
	if total.IsZero() {
		return rebalancing.NewPlan(strategyName, extraCash, rebalancing.Result{Method: rebalancing.MethodNone}), nil
	}

	strategy, err := p.strategies.Get(strategyName)
	if err != nil {
		return nil, err
	}

	result, err := strategy.CalculateOrders(rebalancing.Input{
		Holdings:   p.Holdings(),
		Target:     p.target,
		TotalValue: total,
		Prices:     prices,
		ExtraCash:  extraCash,
	})
	if err != nil {
		return nil, fmt.Errorf("strategy %s failed: %w", strategyName, err)
	}

	plan := rebalancing.NewPlan(strategyName, extraCash, result)
	event := p.log.Debug()
	if result.Method == rebalancing.MethodFallback {
		event = p.log.Warn()
	}
	event.
		Str("plan_id", plan.ID.String()).
		Str("strategy", strategyName).
		Str("method", string(result.Method)).
		Str("solver_status", result.SolverStatus).
		Int("orders", len(result.Orders)).
		Msg("Rebalance planned")

	return plan, nil
}
