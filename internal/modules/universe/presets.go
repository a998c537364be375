package universe

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/shopspring/decimal"
)

// Fund names
const (
	RiskyNorris            = "risky-norris"
	ModeratePitt           = "moderate-pitt"
	ConservativeClooney    = "conservative-clooney"
	VeryConservativeStreep = "very-conservative-streep"
)

// ErrUnknownFund is returned for a fund name with no preset
var ErrUnknownFund = errors.New("unknown fund")

// DefaultFund is the fund used when none is named
const DefaultFund = RiskyNorris

// Fallback prices as of 2026-02-04
var securities = []Security{
	{Symbol: "ESGV", Name: "Vanguard ESG US Stock", RealAssetID: 15581, FallbackPrice: decimal.RequireFromString("119.97")},
	{Symbol: "QQQM", Name: "Invesco NASDAQ 100", RealAssetID: 19179, FallbackPrice: decimal.RequireFromString("249.38")},
	{Symbol: "FTEC", Name: "Fidelity MSCI Info Tech", RealAssetID: 15903, FallbackPrice: decimal.RequireFromString("215.16")},
	{Symbol: "SOXX", Name: "iShares Semiconductor", RealAssetID: 22435, FallbackPrice: decimal.RequireFromString("330.38")},
	{Symbol: "XLY", Name: "Consumer Discret SPDR", RealAssetID: 22691, FallbackPrice: decimal.RequireFromString("120.10")},
	{Symbol: "FLCH", Name: "Franklin FTSE China", RealAssetID: 22687, FallbackPrice: decimal.RequireFromString("23.96")},
	{Symbol: "FLIN", Name: "Franklin FTSE India", RealAssetID: 22690, FallbackPrice: decimal.RequireFromString("38.14")},
	{Symbol: "VUG", Name: "Vanguard Growth", RealAssetID: 22688, FallbackPrice: decimal.RequireFromString("467.37")},
	{Symbol: "IAUM", Name: "iShares Gold Micro", RealAssetID: 22689, FallbackPrice: decimal.RequireFromString("49.25")},
	{Symbol: "BND", Name: "Vanguard Total Bond", RealAssetID: 226, FallbackPrice: decimal.RequireFromString("73.90")},
	{Symbol: "BLV", Name: "Vanguard Long-Term Bond", RealAssetID: 15814, FallbackPrice: decimal.RequireFromString("69.17")},
	{Symbol: "TIP", Name: "iShares TIPS", RealAssetID: 16724, FallbackPrice: decimal.RequireFromString("110.25")},
}

type preset struct {
	label   string
	weights []string // symbol, weight pairs
}

// The bond-heavy funds hold opaque local fixed-income sub-funds, approximated
// here with BND, BLV and TIP.
var presets = map[string]preset{
	RiskyNorris: {
		label: "Risky (Norris)",
		weights: []string{
			"ESGV", "0.31", "QQQM", "0.18", "FTEC", "0.18", "SOXX", "0.10", "XLY", "0.05",
			"FLCH", "0.04", "FLIN", "0.04", "VUG", "0.05", "IAUM", "0.05",
		},
	},
	ModeratePitt: {
		label: "Moderate (Pitt)",
		weights: []string{
			"ESGV", "0.25", "QQQM", "0.10", "IAUM", "0.06", "FLCH", "0.04", "FLIN", "0.03",
			"BND", "0.25", "BLV", "0.14", "TIP", "0.13",
		},
	},
	ConservativeClooney: {
		label:   "Conservative (Clooney)",
		weights: []string{"ESGV", "0.12", "IAUM", "0.03", "BND", "0.40", "BLV", "0.25", "TIP", "0.20"},
	},
	VeryConservativeStreep: {
		label:   "Very Conservative (Streep)",
		weights: []string{"BND", "0.65", "TIP", "0.20", "BLV", "0.15"},
	},
}

// Securities returns every security in the universe
func Securities() []Security {
	out := make([]Security, len(securities))
	copy(out, securities)
	return out
}

// Lookup returns the security for symbol
func Lookup(symbol string) (Security, bool) {
	for _, s := range securities {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return Security{}, false
}

// FallbackPrices returns the last known price of every security
func FallbackPrices() rebalancing.Prices {
	prices := make(rebalancing.Prices, len(securities))
	for _, s := range securities {
		prices[s.Symbol] = s.FallbackPrice
	}
	return prices
}

// FundNames returns the preset fund names, sorted
func FundNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fund returns the target allocation of the named fund
func Fund(name string) (allocation.Target, error) {
	p, err := GetPreset(name)
	if err != nil {
		return allocation.Target{}, err
	}
	return p.Target, nil
}

// GetPreset returns the named fund preset
func GetPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w %q", ErrUnknownFund, name)
	}

	weights := make([]allocation.Weight, 0, len(p.weights)/2)
	for i := 0; i+1 < len(p.weights); i += 2 {
		weights = append(weights, allocation.Weight{
			Symbol: p.weights[i],
			Weight: decimal.RequireFromString(p.weights[i+1]),
		})
	}
	return Preset{Name: name, Label: p.label, Target: allocation.NewTarget(weights...)}, nil
}

// Presets returns every fund preset in name order
func Presets() []Preset {
	funds := make([]Preset, 0, len(presets))
	for _, name := range FundNames() {
		f, _ := GetPreset(name)
		funds = append(funds, f)
	}
	return funds
}
