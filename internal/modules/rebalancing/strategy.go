// Package rebalancing turns holdings and target weights into whole-share
// buy/sell orders.
package rebalancing

import (
	"fmt"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/shopspring/decimal"
)

// Strategy computes rebalance orders.
//
// Implementations hold no per-call state and are safe for concurrent use as
// long as callers do not mutate an Input while it is being processed.
type Strategy interface {
	Name() string
	CalculateOrders(in Input) (Result, error)
}

// PriceLookup supplies prices for target symbols that are not held
type PriceLookup interface {
	Price(symbol string) (decimal.Decimal, bool)
}

// Prices is a map-backed PriceLookup
type Prices map[string]decimal.Decimal

// Price implements PriceLookup
func (p Prices) Price(symbol string) (decimal.Decimal, bool) {
	price, ok := p[symbol]
	return price, ok
}

// Input is an immutable snapshot of everything a strategy needs
type Input struct {
	Holdings   []domain.Holding
	Target     allocation.Target
	TotalValue decimal.Decimal
	Prices     PriceLookup

	// ExtraCash is fresh cash available on top of TotalValue. Only the
	// trade-minimization strategy spends it.
	ExtraCash decimal.Decimal
}

// Method tells which algorithm produced a result
type Method string

const (
	MethodGreedy   Method = "greedy"
	MethodOptimal  Method = "optimal"
	MethodFallback Method = "fallback"
	// MethodNone marks a plan for a portfolio with nothing to rebalance
	MethodNone Method = "none"
)

// Result is a strategy's output.
//
// Orders for target symbols come first in target order, followed by
// liquidations in holdings order. SolverStatus is empty when no solver ran.
type Result struct {
	Orders       []domain.Order `json:"orders"`
	Method       Method         `json:"method"`
	SolverStatus string         `json:"solver_status,omitempty"`
}

// position is a target symbol resolved against holdings and prices
type position struct {
	symbol       string
	weight       decimal.Decimal
	price        decimal.Decimal
	quantity     int64
	currentValue decimal.Decimal
	targetValue  decimal.Decimal
}

// resolvePositions resolves every target symbol, in target order. Held
// symbols take price and quantity from the holding; others need a price from
// the lookup and start at zero shares.
func resolvePositions(in Input) ([]position, error) {
	held := make(map[string]domain.Holding, len(in.Holdings))
	for _, h := range in.Holdings {
		held[h.Symbol] = h
	}

	positions := make([]position, 0, in.Target.Len())
	for _, w := range in.Target.Weights() {
		pos := position{
			symbol:      w.Symbol,
			weight:      w.Weight,
			targetValue: in.TotalValue.Mul(w.Weight),
		}

		if h, ok := held[w.Symbol]; ok {
			pos.price = h.Price
			pos.quantity = h.Quantity
			pos.currentValue = h.MarketValue()
		} else {
			var price decimal.Decimal
			var found bool
			if in.Prices != nil {
				price, found = in.Prices.Price(w.Symbol)
			}
			if !found {
				return nil, fmt.Errorf("%w: no price for %s", domain.ErrMissingPrice, w.Symbol)
			}
			pos.price = price
			pos.currentValue = decimal.Zero
		}

		if !pos.price.IsPositive() {
			return nil, fmt.Errorf("%w: price for %s must be positive, got %s",
				domain.ErrMissingPrice, w.Symbol, pos.price)
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// liquidations sells every held symbol that is not in the target
func liquidations(in Input) []domain.Order {
	var orders []domain.Order
	for _, h := range in.Holdings {
		if h.Quantity <= 0 || in.Target.Has(h.Symbol) {
			continue
		}
		orders = append(orders, domain.LiquidationOrder(h))
	}
	return orders
}

// ordersFromShares derives orders from final share counts, one per position
func ordersFromShares(positions []position, shares []int64) []domain.Order {
	orders := make([]domain.Order, 0, len(positions))
	for i, pos := range positions {
		delta := shares[i] - pos.quantity
		if delta == 0 {
			continue
		}

		action := domain.ActionBuy
		if delta < 0 {
			action = domain.ActionSell
			delta = -delta
		}

		finalValue := decimal.NewFromInt(shares[i]).Mul(pos.price)
		orders = append(orders, domain.Order{
			Action:           action,
			Symbol:           pos.symbol,
			Shares:           delta,
			DollarAmount:     decimal.NewFromInt(delta).Mul(pos.price),
			TargetDollars:    pos.targetValue.Sub(pos.currentValue).Abs(),
			DeviationDollars: pos.targetValue.Sub(finalValue).Abs(),
		})
	}
	return orders
}

func emptyResult(method Method) Result {
	return Result{Orders: []domain.Order{}, Method: method}
}
