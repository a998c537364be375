package rebalancing

import (
	"errors"
	"testing"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewDefaultRegistry(newSolver(), 0.05, zerolog.Nop())

	assert.Equal(t, []string{"simple", "tracking_error", "trade_minimization"}, r.Names())

	s, err := r.Get(TradeMinimizationStrategyName)
	require.NoError(t, err)
	tm, ok := s.(*TradeMinimizationStrategy)
	require.True(t, ok)
	assert.Equal(t, 0.05, tm.Tolerance())

	_, err = r.Get("random_walk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownStrategy))
	assert.Contains(t, err.Error(), "random_walk")
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry(NewSimpleStrategy())
	replacement := NewSimpleStrategy()
	r.Register(replacement)

	s, err := r.Get(SimpleStrategyName)
	require.NoError(t, err)
	assert.Same(t, replacement, s)
	assert.Len(t, r.Names(), 1)
}

func TestPlan_Totals(t *testing.T) {
	plan := NewPlan(SimpleStrategyName, d("100"), Result{
		Method: MethodGreedy,
		Orders: []domain.Order{
			order(domain.ActionBuy, "AAPL", 4, "740", "786", "46"),
			order(domain.ActionSell, "META", 1, "580", "786", "206"),
			order(domain.ActionSell, "CASH", 1, "90", "90", "0"),
		},
	})

	assert.NotEqual(t, [16]byte{}, [16]byte(plan.ID))
	assert.Equal(t, SimpleStrategyName, plan.Strategy)
	assert.True(t, plan.TotalBought().Equal(d("740")))
	assert.True(t, plan.TotalSold().Equal(d("670")))
	assert.True(t, plan.Uninvested().Equal(d("30")))
	assert.Len(t, plan.Buys(), 1)

	smallest, ok := plan.SmallestSell()
	require.True(t, ok)
	assert.Equal(t, "CASH", smallest.Symbol)
}

func TestPlan_Empty(t *testing.T) {
	plan := NewPlan(TrackingErrorStrategyName, decimal.Zero, Result{Method: MethodOptimal})

	assert.NotNil(t, plan.Orders)
	assert.True(t, plan.Uninvested().IsZero())
	_, ok := plan.SmallestSell()
	assert.False(t, ok)
}
