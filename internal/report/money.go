package report

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/aristath/rebalancer/internal/domain"
)

// DefaultCurrency is used when a report names no currency
const DefaultCurrency = domain.CurrencyUSD

// Money formats decimal amounts in a currency
type Money struct {
	currency string
	factor   decimal.Decimal
}

// NewMoney returns a formatter for currency, falling back to DefaultCurrency
// for unknown codes.
func NewMoney(currency domain.Currency) Money {
	code := string(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		code = string(DefaultCurrency)
		cur = money.GetCurrency(code)
	}
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	return Money{currency: code, factor: factor}
}

// Format renders amount with the currency symbol and grouping, rounded to the
// currency's minor unit.
func (m Money) Format(amount decimal.Decimal) string {
	minor := amount.Mul(m.factor).Round(0).IntPart()
	return money.New(minor, m.currency).Display()
}

// Signed is Format with an explicit plus sign for positive amounts
func (m Money) Signed(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return "+" + m.Format(amount)
	}
	return m.Format(amount)
}
