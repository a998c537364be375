package portfolio

import (
	"fmt"
	"math/rand"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultRandomBudget is the value spread across symbols by NewRandomDrifted
var DefaultRandomBudget = decimal.NewFromInt(50000)

// Apply returns the portfolio that results from filling orders against p.
//
// Symbols bought for the first time are priced at the order's average fill
// price. Holdings that end with zero shares are dropped. The target carries
// over unchanged.
func Apply(p *Portfolio, orders []domain.Order) (*Portfolio, error) {
	quantities := make(map[string]int64, len(p.holdings))
	prices := make(map[string]decimal.Decimal, len(p.holdings))
	var symbols []string
	for _, h := range p.holdings {
		quantities[h.Symbol] = h.Quantity
		prices[h.Symbol] = h.Price
		symbols = append(symbols, h.Symbol)
	}

	for _, o := range orders {
		if o.Shares <= 0 {
			return nil, fmt.Errorf("order for %s has %d shares", o.Symbol, o.Shares)
		}
		if _, ok := quantities[o.Symbol]; !ok {
			if !o.IsBuy() {
				return nil, fmt.Errorf("cannot sell %s: not held", o.Symbol)
			}
			prices[o.Symbol] = o.DollarAmount.Div(decimal.NewFromInt(o.Shares))
			symbols = append(symbols, o.Symbol)
		}
		quantities[o.Symbol] += o.SignedShares()
		if quantities[o.Symbol] < 0 {
			return nil, fmt.Errorf("selling %d %s leaves a negative position", o.Shares, o.Symbol)
		}
	}

	result := &Portfolio{
		index:      make(map[string]int, len(symbols)),
		target:     p.target,
		hasTarget:  p.hasTarget,
		strategies: p.strategies,
		log:        p.log,
	}
	for _, symbol := range symbols {
		if quantities[symbol] > 0 {
			result.AddHolding(domain.Holding{
				Symbol:   symbol,
				Quantity: quantities[symbol],
				Price:    prices[symbol],
			})
		}
	}
	return result, nil
}

// NewRandomDrifted builds a portfolio for target whose holdings split budget
// with random weights, simulating a portfolio that drifted away from its
// target. Every symbol gets at least one share.
func NewRandomDrifted(
	registry *rebalancing.Registry,
	log zerolog.Logger,
	target allocation.Target,
	prices rebalancing.PriceLookup,
	budget decimal.Decimal,
	rng *rand.Rand,
) (*Portfolio, error) {
	p := New(registry, log)
	if err := p.SetTargetAllocation(target); err != nil {
		return nil, err
	}

	weights := make([]float64, target.Len())
	sum := 0.0
	for i := range weights {
		weights[i] = rng.Float64()
		sum += weights[i]
	}
	if sum == 0 {
		for i := range weights {
			weights[i] = 1
		}
		sum = float64(len(weights))
	}

	for i, symbol := range target.Symbols() {
		price, ok := prices.Price(symbol)
		if !ok || !price.IsPositive() {
			return nil, fmt.Errorf("%w: no price for %s", domain.ErrMissingPrice, symbol)
		}

		share := decimal.NewFromFloat(weights[i] / sum)
		quantity := budget.Mul(share).Div(price).IntPart()
		if quantity < 1 {
			quantity = 1
		}
		p.AddHolding(domain.Holding{Symbol: symbol, Quantity: quantity, Price: price})
	}
	return p, nil
}
