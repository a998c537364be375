// Package allocation provides target allocations and drift measurement.
package allocation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
)

// SumTolerance is the maximum distance between the sum of target weights and 1.
var SumTolerance = decimal.RequireFromString("0.0001")

// Weight is a single symbol's share of the portfolio, in [0,1].
type Weight struct {
	Symbol string          `json:"symbol"`
	Weight decimal.Decimal `json:"weight"`
}

// Target is an ordered symbol -> weight mapping.
//
// Iteration order is insertion order; strategies emit orders in this order,
// so it must stay stable. A Target is never mutated after construction.
type Target struct {
	weights []Weight
	index   map[string]int
}

// NewTarget builds a target from weights. A repeated symbol overwrites the
// earlier weight but keeps its original position.
func NewTarget(weights ...Weight) Target {
	t := Target{
		weights: make([]Weight, 0, len(weights)),
		index:   make(map[string]int, len(weights)),
	}
	for _, w := range weights {
		if i, ok := t.index[w.Symbol]; ok {
			t.weights[i].Weight = w.Weight
			continue
		}
		t.index[w.Symbol] = len(t.weights)
		t.weights = append(t.weights, w)
	}
	return t
}

// FromMap builds a target from an unordered map, ordering symbols alphabetically.
func FromMap(m map[string]decimal.Decimal) Target {
	symbols := make([]string, 0, len(m))
	for symbol := range m {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	weights := make([]Weight, 0, len(symbols))
	for _, symbol := range symbols {
		weights = append(weights, Weight{Symbol: symbol, Weight: m[symbol]})
	}
	return NewTarget(weights...)
}

// Len returns the number of symbols
func (t Target) Len() int {
	return len(t.weights)
}

// IsEmpty reports whether the target has no symbols
func (t Target) IsEmpty() bool {
	return len(t.weights) == 0
}

// Weights returns a copy of the ordered weights
func (t Target) Weights() []Weight {
	out := make([]Weight, len(t.weights))
	copy(out, t.weights)
	return out
}

// Symbols returns the symbols in order
func (t Target) Symbols() []string {
	out := make([]string, len(t.weights))
	for i, w := range t.weights {
		out[i] = w.Symbol
	}
	return out
}

// Get returns the weight for a symbol
func (t Target) Get(symbol string) (decimal.Decimal, bool) {
	i, ok := t.index[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return t.weights[i].Weight, true
}

// Has reports whether symbol is part of the target
func (t Target) Has(symbol string) bool {
	_, ok := t.index[symbol]
	return ok
}

// Sum returns the sum of all weights
func (t Target) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, w := range t.weights {
		total = total.Add(w.Weight)
	}
	return total
}

// Map returns the weights as an unordered map
func (t Target) Map() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(t.weights))
	for _, w := range t.weights {
		out[w.Symbol] = w.Weight
	}
	return out
}

// Validate checks every weight is within [0,1] and that weights sum to 1
// within SumTolerance.
func (t Target) Validate() error {
	one := decimal.NewFromInt(1)
	for _, w := range t.weights {
		if w.Weight.IsNegative() || w.Weight.GreaterThan(one) {
			return fmt.Errorf("%w: weight for %s must be between 0 and 1, got %s",
				domain.ErrInvalidAllocation, w.Symbol, w.Weight)
		}
	}

	total := t.Sum()
	if total.Sub(one).Abs().GreaterThan(SumTolerance) {
		return fmt.Errorf("%w: weights must sum to 1.0, got %s", domain.ErrInvalidAllocation, total)
	}
	return nil
}

// MarshalJSON encodes the target as a JSON object in target order
func (t Target) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, w := range t.weights {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(w.Symbol)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(w.Weight.String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of symbol -> weight, keeping key order.
// Weights may be JSON numbers or numeric strings.
func (t *Target) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read target allocation: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("target allocation must be a JSON object")
	}

	var weights []Weight
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read target symbol: %w", err)
		}
		symbol, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected target key %v", keyTok)
		}

		var weight decimal.Decimal
		if err := dec.Decode(&weight); err != nil {
			return fmt.Errorf("invalid weight for %s: %w", symbol, err)
		}
		weights = append(weights, Weight{Symbol: symbol, Weight: weight})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read target allocation: %w", err)
	}

	*t = NewTarget(weights...)
	return nil
}
