package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func planOutcome(t *testing.T) *portfolio.PlanOutcome {
	t.Helper()
	solver := optimization.NewBranchAndBound(optimization.DefaultConfig(), zerolog.Nop())
	svc := portfolio.NewService(solver, 0, 0, zerolog.Nop())

	outcome, err := svc.Plan(portfolio.PlanRequest{
		Holdings: []domain.Holding{
			{Symbol: "AAPL", Quantity: 1, Price: d("370")},
			{Symbol: "META", Quantity: 1, Price: d("580")},
		},
		Target: allocation.NewTarget(
			allocation.Weight{Symbol: "AAPL", Weight: d("0.8")},
			allocation.Weight{Symbol: "META", Weight: d("0.2")},
		),
		Strategy: rebalancing.SimpleStrategyName,
	})
	require.NoError(t, err)
	return outcome
}

func TestMoney_Format(t *testing.T) {
	m := NewMoney("USD")
	assert.Equal(t, "$1,234.57", m.Format(d("1234.567")))
	assert.Equal(t, "$0.00", m.Format(decimal.Zero))
	assert.Equal(t, "+$5.00", m.Signed(d("5")))
	assert.Equal(t, "-$5.00", m.Signed(d("-5")))
}

func TestMoney_UnknownCurrencyFallsBack(t *testing.T) {
	assert.Equal(t, NewMoney(DefaultCurrency), NewMoney("XXX-not-a-code"))
	assert.Contains(t, NewMoney(domain.CurrencyEUR).Format(d("10")), "\u20ac")
}

func TestMarkdown(t *testing.T) {
	outcome := planOutcome(t)
	md := Markdown(outcome, Options{Title: "Weekly"})

	assert.True(t, strings.HasPrefix(md, "# Weekly\n"))
	assert.Contains(t, md, "- **Strategy:** simple")
	assert.Contains(t, md, "- **Method:** greedy\n")
	assert.Contains(t, md, "- **Portfolio value:** $950.00")

	// 0.8 × 950 = 760 → BUY 1 AAPL; META gap 390 → SELL 0 whole shares
	assert.Contains(t, md, "| BUY | AAPL |  | 1 | $370.00 | $390.00 | $20.00 |")
	assert.Contains(t, md, "| Bought | $370.00 |")
	assert.Contains(t, md, "| Sold | $0.00 |")
	assert.Contains(t, md, "| Uninvested cash | -$370.00 |")
	assert.NotContains(t, md, "Smallest sell")
	assert.Contains(t, md, "| AAPL | 80.00% |")
}

func TestMarkdown_NoOrders(t *testing.T) {
	outcome := planOutcome(t)
	outcome.Plan = rebalancing.NewPlan("simple", decimal.Zero, rebalancing.Result{Method: rebalancing.MethodNone})

	md := Markdown(outcome, Options{})
	assert.True(t, strings.HasPrefix(md, "# Rebalance plan\n"))
	assert.Contains(t, md, "No orders")
}

func TestMarkdown_SmallestSellAndNames(t *testing.T) {
	outcome := planOutcome(t)
	outcome.Plan = rebalancing.NewPlan("simple", d("100"), rebalancing.Result{
		Method: rebalancing.MethodGreedy,
		Orders: []domain.Order{
			{Action: domain.ActionSell, Symbol: "BND", Shares: 2, DollarAmount: d("147.8")},
			{Action: domain.ActionSell, Symbol: "TIP", Shares: 1, DollarAmount: d("110.25")},
		},
	})

	md := Markdown(outcome, Options{})
	assert.Contains(t, md, "Vanguard Total Bond")
	assert.Contains(t, md, "| Smallest sell | $110.25 (TIP) |")
	assert.Contains(t, md, "| Uninvested cash | $358.05 |")
	assert.Contains(t, md, "- **Extra cash:** $100.00")
}

func TestWrite_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, planOutcome(t), Options{}, false))
	assert.Contains(t, buf.String(), "## Orders")
}

func TestRender(t *testing.T) {
	out, err := Render("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n", 80)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}
