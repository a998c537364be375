package rebalancing

import (
	"time"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is a strategy result stamped with an identity, for logging and for
// returning to API clients.
type Plan struct {
	ID        uuid.UUID       `json:"plan_id"`
	Strategy  string          `json:"strategy"`
	CreatedAt time.Time       `json:"created_at"`
	ExtraCash decimal.Decimal `json:"extra_cash"`
	Result
}

// NewPlan wraps a result produced by strategy
func NewPlan(strategy string, extraCash decimal.Decimal, result Result) *Plan {
	if result.Orders == nil {
		result.Orders = []domain.Order{}
	}
	return &Plan{
		ID:        uuid.New(),
		Strategy:  strategy,
		CreatedAt: time.Now().UTC(),
		ExtraCash: extraCash,
		Result:    result,
	}
}

// Buys returns the buy orders in plan order
func (p *Plan) Buys() []domain.Order {
	return filterOrders(p.Orders, domain.ActionBuy)
}

// Sells returns the sell orders in plan order
func (p *Plan) Sells() []domain.Order {
	return filterOrders(p.Orders, domain.ActionSell)
}

// TotalBought sums the dollar amount of all buys
func (p *Plan) TotalBought() decimal.Decimal {
	return sumDollars(p.Buys())
}

// TotalSold sums the dollar amount of all sells
func (p *Plan) TotalSold() decimal.Decimal {
	return sumDollars(p.Sells())
}

// Uninvested is the cash left once every order fills: extra cash plus sale
// proceeds minus purchases.
func (p *Plan) Uninvested() decimal.Decimal {
	return p.ExtraCash.Add(p.TotalSold()).Sub(p.TotalBought())
}

// SmallestSell returns the sell with the lowest dollar amount, if any.
// Ties keep the earliest order.
func (p *Plan) SmallestSell() (domain.Order, bool) {
	var smallest domain.Order
	found := false
	for _, o := range p.Sells() {
		if !found || o.DollarAmount.LessThan(smallest.DollarAmount) {
			smallest = o
			found = true
		}
	}
	return smallest, found
}

func filterOrders(orders []domain.Order, action domain.Action) []domain.Order {
	var out []domain.Order
	for _, o := range orders {
		if o.Action == action {
			out = append(out, o)
		}
	}
	return out
}

func sumDollars(orders []domain.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.DollarAmount)
	}
	return total
}
