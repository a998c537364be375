// Package domain provides core domain models and types.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents the currency code used when rendering amounts.
// All amounts of a single portfolio share one currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyCLP Currency = "CLP"
)

// Action is the side of a rebalance order
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Holding represents a whole-share position with its current price.
type Holding struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// NewHolding creates a holding, rejecting negative quantities and prices.
func NewHolding(symbol string, quantity int64, price decimal.Decimal) (Holding, error) {
	if symbol == "" {
		return Holding{}, fmt.Errorf("%w: symbol is required", ErrInvalidHolding)
	}
	if quantity < 0 {
		return Holding{}, fmt.Errorf("%w %s: quantity must be >= 0, got %d", ErrInvalidHolding, symbol, quantity)
	}
	if price.IsNegative() {
		return Holding{}, fmt.Errorf("%w %s: price must be >= 0, got %s", ErrInvalidHolding, symbol, price)
	}
	return Holding{Symbol: symbol, Quantity: quantity, Price: price}, nil
}

// MarketValue returns quantity × price
func (h Holding) MarketValue() decimal.Decimal {
	return decimal.NewFromInt(h.Quantity).Mul(h.Price)
}

// UpdatePrice refreshes the holding's price in place
func (h *Holding) UpdatePrice(price decimal.Decimal) {
	h.Price = price
}

// Order is a single whole-share trade produced by a rebalancing strategy.
//
// TargetDollars is the absolute pre-trade gap between the symbol's current
// and target dollar value. DeviationDollars is the gap that remains after the
// trade; it is zero for full liquidations.
type Order struct {
	Action           Action          `json:"action"`
	Symbol           string          `json:"symbol"`
	Shares           int64           `json:"shares"`
	DollarAmount     decimal.Decimal `json:"dollar_amount"`
	TargetDollars    decimal.Decimal `json:"target_dollars"`
	DeviationDollars decimal.Decimal `json:"deviation_dollars"`
}

// IsBuy reports whether the order buys shares
func (o Order) IsBuy() bool {
	return o.Action == ActionBuy
}

// SignedShares returns the share delta the order applies to a holding.
func (o Order) SignedShares() int64 {
	if o.IsBuy() {
		return o.Shares
	}
	return -o.Shares
}

// String renders the order as a one-line summary
func (o Order) String() string {
	return fmt.Sprintf("%s %d %s ($%s, target: $%s, deviation: $%s)",
		o.Action, o.Shares, o.Symbol,
		o.DollarAmount.StringFixed(2),
		o.TargetDollars.StringFixed(2),
		o.DeviationDollars.StringFixed(2),
	)
}

// LiquidationOrder builds the full-sell order for a holding that is no
// longer part of the target allocation.
func LiquidationOrder(h Holding) Order {
	value := h.MarketValue()
	return Order{
		Action:           ActionSell,
		Symbol:           h.Symbol,
		Shares:           h.Quantity,
		DollarAmount:     value,
		TargetDollars:    value,
		DeviationDollars: decimal.Zero,
	}
}
