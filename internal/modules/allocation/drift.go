package allocation

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// DefaultDriftThreshold is the absolute weight drift above which a symbol is
// considered out of balance (2 percentage points).
const DefaultDriftThreshold = 0.02

// Value is a symbol's current dollar value
type Value struct {
	Symbol string
	Value  decimal.Decimal
}

// SymbolDrift represents current vs target allocation for a single symbol
type SymbolDrift struct {
	Symbol       string  `json:"symbol"`
	TargetPct    float64 `json:"target_pct"`
	CurrentPct   float64 `json:"current_pct"`
	CurrentValue float64 `json:"current_value"`
	Drift        float64 `json:"drift"`
}

// DriftReport summarises how far a portfolio sits from its target
type DriftReport struct {
	Symbols      []SymbolDrift `json:"symbols"`
	MaxAbsDrift  float64       `json:"max_abs_drift"`
	MeanAbsDrift float64       `json:"mean_abs_drift"`
	Breaches     []string      `json:"breaches"`
	Threshold    float64       `json:"threshold"`
}

// NeedsRebalance reports whether any symbol drifted past the threshold
func (r DriftReport) NeedsRebalance() bool {
	return len(r.Breaches) > 0
}

// CalculateDrift compares current values against the target weights.
// Symbols appear in the order of values, followed by target symbols that are
// not currently held.
func CalculateDrift(values []Value, target Target, totalValue decimal.Decimal, threshold float64) DriftReport {
	total := totalValue.InexactFloat64()
	seen := make(map[string]bool, len(values))

	report := DriftReport{Threshold: threshold}
	addRow := func(symbol string, value decimal.Decimal) {
		currentValue := value.InexactFloat64()
		targetWeight, _ := target.Get(symbol)
		targetPct := targetWeight.InexactFloat64()

		var currentPct float64
		if total > 0 {
			currentPct = currentValue / total
		}

		drift := currentPct - targetPct
		report.Symbols = append(report.Symbols, SymbolDrift{
			Symbol:       symbol,
			TargetPct:    targetPct,
			CurrentPct:   round(currentPct, 4),
			CurrentValue: round(currentValue, 2),
			Drift:        round(drift, 4),
		})
		if math.Abs(drift) >= threshold {
			report.Breaches = append(report.Breaches, symbol)
		}
	}

	for _, v := range values {
		seen[v.Symbol] = true
		addRow(v.Symbol, v.Value)
	}
	for _, w := range target.Weights() {
		if !seen[w.Symbol] {
			addRow(w.Symbol, decimal.Zero)
		}
	}

	absDrifts := make(stats.Float64Data, 0, len(report.Symbols))
	for _, s := range report.Symbols {
		absDrifts = append(absDrifts, math.Abs(s.Drift))
	}
	// Both only fail on empty input, which leaves the zero values in place
	if maxDrift, err := stats.Max(absDrifts); err == nil {
		report.MaxAbsDrift = round(maxDrift, 4)
	}
	if meanDrift, err := stats.Mean(absDrifts); err == nil {
		report.MeanAbsDrift = round(meanDrift, 4)
	}

	return report
}

// round rounds a float64 to n decimal places
func round(val float64, decimals int) float64 {
	multiplier := math.Pow(10, float64(decimals))
	return math.Round(val*multiplier) / multiplier
}
