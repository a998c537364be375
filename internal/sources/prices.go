package sources

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/shopspring/decimal"
)

// DefaultPricesPath selects the price object in a price file
const DefaultPricesPath = "$.prices"

// ReadPrices decodes a JSON document and extracts the symbol -> price object
// found at path. Prices may be JSON numbers or numeric strings.
//
//	{"as_of": "2026-02-04", "prices": {"BND": 73.90, "TIP": "110.25"}}
func ReadPrices(r io.Reader, path string) (rebalancing.Prices, error) {
	if path == "" {
		path = DefaultPricesPath
	}

	var doc any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode price file: %w", err)
	}

	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %q: %w", path, err)
	}
	// a filter expression yields a list; keep its first match
	if list, ok := val.([]any); ok && len(list) > 0 {
		val = list[0]
	}

	obj, ok := val.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q does not select an object of prices, got %T", path, val)
	}

	prices := make(rebalancing.Prices, len(obj))
	for symbol, raw := range obj {
		price, err := parsePrice(raw)
		if err != nil {
			return nil, fmt.Errorf("price for %s: %w", symbol, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("price for %s must be >= 0, got %s", symbol, price)
		}
		prices[normalizeSymbol(symbol)] = price
	}
	return prices, nil
}

// LoadPrices reads a price file
func LoadPrices(path, jsonPath string) (rebalancing.Prices, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()
	return ReadPrices(f, jsonPath)
}

func parsePrice(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported price value %v", raw)
	}
}
