package allocation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateDrift(t *testing.T) {
	target := NewTarget(w("AAPL", "0.6"), w("META", "0.3"), w("VUG", "0.1"))
	values := []Value{
		{Symbol: "AAPL", Value: decimal.NewFromInt(500)},
		{Symbol: "META", Value: decimal.NewFromInt(400)},
		{Symbol: "GOOG", Value: decimal.NewFromInt(100)},
	}

	report := CalculateDrift(values, target, decimal.NewFromInt(1000), DefaultDriftThreshold)

	require.Len(t, report.Symbols, 4)
	assert.Equal(t, "AAPL", report.Symbols[0].Symbol)
	assert.InDelta(t, -0.1, report.Symbols[0].Drift, 1e-9)
	assert.Equal(t, "META", report.Symbols[1].Symbol)
	assert.InDelta(t, 0.1, report.Symbols[1].Drift, 1e-9)
	assert.Equal(t, "GOOG", report.Symbols[2].Symbol)
	assert.InDelta(t, 0.1, report.Symbols[2].Drift, 1e-9)
	assert.Equal(t, "VUG", report.Symbols[3].Symbol)
	assert.InDelta(t, 0.0, report.Symbols[3].CurrentPct, 1e-9)
	assert.InDelta(t, -0.1, report.Symbols[3].Drift, 1e-9)

	assert.InDelta(t, 0.1, report.MaxAbsDrift, 1e-9)
	assert.InDelta(t, 0.1, report.MeanAbsDrift, 1e-9)
	assert.Equal(t, []string{"AAPL", "META", "GOOG", "VUG"}, report.Breaches)
	assert.True(t, report.NeedsRebalance())
}

func TestCalculateDrift_WithinThreshold(t *testing.T) {
	target := NewTarget(w("AAPL", "0.5"), w("META", "0.5"))
	values := []Value{
		{Symbol: "AAPL", Value: decimal.NewFromInt(505)},
		{Symbol: "META", Value: decimal.NewFromInt(495)},
	}

	report := CalculateDrift(values, target, decimal.NewFromInt(1000), DefaultDriftThreshold)

	assert.False(t, report.NeedsRebalance())
	assert.InDelta(t, 0.005, report.MaxAbsDrift, 1e-9)
}

func TestCalculateDrift_EmptyPortfolio(t *testing.T) {
	report := CalculateDrift(nil, NewTarget(), decimal.Zero, DefaultDriftThreshold)

	assert.Empty(t, report.Symbols)
	assert.Zero(t, report.MaxAbsDrift)
	assert.Zero(t, report.MeanAbsDrift)
	assert.False(t, report.NeedsRebalance())
}
