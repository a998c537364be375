// Package sources loads portfolio snapshots from files: holdings from CSV,
// prices and target allocations from JSON.
package sources

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// holdingRow is one line of a holdings CSV:
//
//	symbol,quantity,price
//	AAPL,10,185.20
type holdingRow struct {
	Symbol   string `csv:"symbol"`
	Quantity int64  `csv:"quantity"`
	Price    string `csv:"price"`
}

// ReadHoldings decodes holdings from CSV. The price column may be empty when
// prices come from a separate price file.
func ReadHoldings(r io.Reader) ([]domain.Holding, error) {
	var rows []*holdingRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse holdings csv: %w", err)
	}

	holdings := make([]domain.Holding, 0, len(rows))
	for i, row := range rows {
		symbol := normalizeSymbol(row.Symbol)

		price := decimal.Zero
		if raw := strings.TrimSpace(row.Price); raw != "" {
			p, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("holdings line %d: invalid price %q: %w", i+2, raw, err)
			}
			price = p
		}

		h, err := domain.NewHolding(symbol, row.Quantity, price)
		if err != nil {
			return nil, fmt.Errorf("holdings line %d: %w", i+2, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

// LoadHoldings reads a holdings CSV file
func LoadHoldings(path string) ([]domain.Holding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open holdings file: %w", err)
	}
	defer f.Close()
	return ReadHoldings(f)
}

// WriteHoldings encodes holdings as CSV with a header line
func WriteHoldings(w io.Writer, holdings []domain.Holding) error {
	rows := make([]*holdingRow, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, &holdingRow{Symbol: h.Symbol, Quantity: h.Quantity, Price: h.Price.String()})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write holdings csv: %w", err)
	}
	return nil
}
