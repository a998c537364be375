// Package universe holds the investable ETFs and the fund allocations built
// from them.
package universe

import (
	"github.com/aristath/rebalancer/internal/modules/allocation"
	"github.com/shopspring/decimal"
)

// Security is an ETF in the investment universe
type Security struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	RealAssetID   int             `json:"real_asset_id"`   // price feed identifier
	FallbackPrice decimal.Decimal `json:"fallback_price"` // last known price, used when no feed is available
}

// Preset is a named fund allocation over universe securities
type Preset struct {
	Name   string            `json:"name"`
	Label  string            `json:"label"`
	Target allocation.Target `json:"target"`
}
