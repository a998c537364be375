package rebalancing

import (
	"github.com/aristath/rebalancer/internal/domain"
)

// SimpleStrategyName is the registry name of the greedy strategy
const SimpleStrategyName = "simple"

// SimpleStrategy moves each target symbol toward its target value
// independently, buying or selling as many whole shares as fit in the gap.
// It never rounds up, so no single symbol overshoots its target.
type SimpleStrategy struct{}

// NewSimpleStrategy creates the greedy strategy
func NewSimpleStrategy() *SimpleStrategy {
	return &SimpleStrategy{}
}

// Name implements Strategy
func (s *SimpleStrategy) Name() string {
	return SimpleStrategyName
}

// CalculateOrders implements Strategy
func (s *SimpleStrategy) CalculateOrders(in Input) (Result, error) {
	if !in.TotalValue.IsPositive() {
		return emptyResult(MethodGreedy), nil
	}

	orders, err := greedyOrders(in)
	if err != nil {
		return Result{}, err
	}
	return Result{Orders: orders, Method: MethodGreedy}, nil
}

func greedyOrders(in Input) ([]domain.Order, error) {
	positions, err := resolvePositions(in)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(positions))
	for _, pos := range positions {
		delta := pos.targetValue.Sub(pos.currentValue)
		if delta.IsZero() {
			continue
		}

		gap := delta.Abs()
		// QuoRem with zero precision is exact integer division, floor for positives
		quotient, _ := gap.QuoRem(pos.price, 0)
		shares := quotient.IntPart()
		if shares == 0 {
			continue
		}

		action := domain.ActionBuy
		if delta.IsNegative() {
			action = domain.ActionSell
		}
		amount := quotient.Mul(pos.price)

		orders = append(orders, domain.Order{
			Action:           action,
			Symbol:           pos.symbol,
			Shares:           shares,
			DollarAmount:     amount,
			TargetDollars:    gap,
			DeviationDollars: gap.Sub(amount),
		})
	}

	return append(orders, liquidations(in)...), nil
}
