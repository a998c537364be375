package sources

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aristath/rebalancer/internal/modules/allocation"
)

// ReadTarget decodes a target allocation from a JSON object of
// symbol -> weight. Key order is kept and symbols are upper-cased like
// holdings and prices. The target is not validated.
func ReadTarget(r io.Reader) (allocation.Target, error) {
	var target allocation.Target
	if err := json.NewDecoder(r).Decode(&target); err != nil {
		return allocation.Target{}, fmt.Errorf("failed to decode target allocation: %w", err)
	}

	weights := target.Weights()
	seen := make(map[string]string, len(weights))
	for i, w := range weights {
		symbol := normalizeSymbol(w.Symbol)
		if symbol == "" {
			return allocation.Target{}, fmt.Errorf("target allocation has an empty symbol")
		}
		if prev, ok := seen[symbol]; ok {
			return allocation.Target{}, fmt.Errorf("target allocation lists %q and %q", prev, w.Symbol)
		}
		seen[symbol] = w.Symbol
		weights[i].Symbol = symbol
	}
	return allocation.NewTarget(weights...), nil
}

// normalizeSymbol is the form every source keys symbols by
func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// LoadTarget reads a target allocation file
func LoadTarget(path string) (allocation.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return allocation.Target{}, fmt.Errorf("failed to open target file: %w", err)
	}
	defer f.Close()
	return ReadTarget(f)
}
