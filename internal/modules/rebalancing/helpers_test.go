package rebalancing

import (
	"testing"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func holding(symbol string, qty int64, price string) domain.Holding {
	return domain.Holding{Symbol: symbol, Quantity: qty, Price: d(price)}
}

// target builds a target from symbol, weight pairs
func target(pairs ...string) allocation.Target {
	weights := make([]allocation.Weight, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		weights = append(weights, allocation.Weight{Symbol: pairs[i], Weight: d(pairs[i+1])})
	}
	return allocation.NewTarget(weights...)
}

func input(holdings []domain.Holding, t allocation.Target, prices Prices) Input {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.MarketValue())
	}
	return Input{Holdings: holdings, Target: t, TotalValue: total, Prices: prices}
}

func order(action domain.Action, symbol string, shares int64, amount, target, deviation string) domain.Order {
	return domain.Order{
		Action:           action,
		Symbol:           symbol,
		Shares:           shares,
		DollarAmount:     d(amount),
		TargetDollars:    d(target),
		DeviationDollars: d(deviation),
	}
}

func assertOrders(t *testing.T, want, got []domain.Order) {
	t.Helper()
	if diff := cmp.Diff(want, got, decimalComparer); diff != "" {
		t.Errorf("orders mismatch (-want +got):\n%s", diff)
	}
}

func newSolver() optimization.Solver {
	return optimization.NewBranchAndBound(optimization.DefaultConfig(), zerolog.Nop())
}

// postTradeDeviation sums |target value - value after orders| over target symbols
func postTradeDeviation(t *testing.T, in Input, orders []domain.Order) decimal.Decimal {
	t.Helper()

	value := make(map[string]decimal.Decimal)
	for _, h := range in.Holdings {
		value[h.Symbol] = h.MarketValue()
	}
	for _, o := range orders {
		if o.IsBuy() {
			value[o.Symbol] = value[o.Symbol].Add(o.DollarAmount)
		} else {
			value[o.Symbol] = value[o.Symbol].Sub(o.DollarAmount)
		}
	}

	total := decimal.Zero
	for _, w := range in.Target.Weights() {
		total = total.Add(in.TotalValue.Mul(w.Weight).Sub(value[w.Symbol]).Abs())
	}
	return total
}

func totalBought(orders []domain.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		if o.IsBuy() {
			total = total.Add(o.DollarAmount)
		}
	}
	return total
}

func requireBudget(t *testing.T, in Input, orders []domain.Order) {
	t.Helper()
	budget := in.TotalValue.Add(in.ExtraCash)
	require.True(t, totalBought(orders).LessThanOrEqual(budget),
		"bought %s with budget %s", totalBought(orders), budget)
}
