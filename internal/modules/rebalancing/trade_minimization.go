package rebalancing

import (
	"math"

	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

const (
	// TradeMinimizationStrategyName is the registry name of the trade-minimization strategy
	TradeMinimizationStrategyName = "trade_minimization"

	// DefaultTolerance is the default band around each target weight, as a
	// fraction of the budget
	DefaultTolerance = 0.02

	// bandSlack absorbs float error when a band edge is an exact share count
	bandSlack = 1e-9
)

// TradeMinimizationStrategy trades as few symbols as possible while keeping
// every symbol within Tolerance of its target weight. Among plans touching
// the same number of symbols it prefers the one that invests the most.
type TradeMinimizationStrategy struct {
	runner    milpRunner
	tolerance float64
}

// NewTradeMinimizationStrategy creates the strategy around solver. A
// non-positive tolerance selects DefaultTolerance.
func NewTradeMinimizationStrategy(solver optimization.Solver, tolerance float64, log zerolog.Logger) *TradeMinimizationStrategy {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &TradeMinimizationStrategy{
		runner:    newMILPRunner(TradeMinimizationStrategyName, solver, log),
		tolerance: tolerance,
	}
}

// Name implements Strategy
func (s *TradeMinimizationStrategy) Name() string {
	return TradeMinimizationStrategyName
}

// Tolerance returns the band width around each target weight
func (s *TradeMinimizationStrategy) Tolerance() float64 {
	return s.tolerance
}

// CalculateOrders implements Strategy
func (s *TradeMinimizationStrategy) CalculateOrders(in Input) (Result, error) {
	if !in.TotalValue.IsPositive() {
		return emptyResult(MethodOptimal), nil
	}

	positions, err := resolvePositions(in)
	if err != nil {
		return Result{}, err
	}

	if len(positions) == 0 {
		return liquidationOnly(in), nil
	}

	budget := budgetFor(in)
	p := buildTradeMinimizationProblem(positions, budget.InexactFloat64(), s.tolerance)
	return s.runner.run(in, positions, p, budget)
}

// buildTradeMinimizationProblem lays out the variables as [x | t+ | t- | y],
// all integer, with B the budget:
//
//	minimize    Σ y_i - ε Σ p_i x_i                    ε = 0.5 / B
//	subject to  x_i - t+_i + t-_i = h_i
//	            t+_i + t-_i - M_i y_i <= 0
//	            p_i x_i <= (w_i + tol) B
//	            -p_i x_i <= -max((w_i - tol) B, 0)
//	            Σ p_i x_i <= B
//	            y_i in {0, 1}
//
// The ε term can never outweigh one traded symbol since Σ p_i x_i <= B.
//
// Share counts are boxed by the band: x_i <= U_i = floor((w_i + tol) B / p_i)
// and x_i >= L_i = ceil((w_i - tol) B / p_i). That caps t+_i at U_i - h_i,
// t-_i at h_i - L_i and gives each symbol its own M_i. A holding outside
// [L_i, U_i] must trade, so its y_i is fixed at 1. None of this removes a
// feasible share vector; it only tightens the relaxations, and the solver
// branches on y before any quantity.
func buildTradeMinimizationProblem(positions []position, budget, tolerance float64) *optimization.Problem {
	n := len(positions)
	prices := floatPrices(positions)
	epsilon := 0.5 / budget

	x := func(i int) int { return i }
	buy := func(i int) int { return n + i }
	sell := func(i int) int { return 2*n + i }
	traded := func(i int) int { return 3*n + i }

	p := optimization.NewProblem(4 * n)
	p.Priority = make([]int, 4*n)
	for j := range p.Integrality {
		p.Integrality[j] = true
	}

	type row struct {
		coeffs map[int]float64
		rhs    float64
	}
	var rows []row

	p.EqualityA = mat.NewDense(n, 4*n, nil)
	p.EqualityB = make([]float64, n)
	for i, pos := range positions {
		h := float64(pos.quantity)
		w := pos.weight.InexactFloat64()
		upperValue := (w + tolerance) * budget
		lowerValue := (w - tolerance) * budget

		upperShares := math.Floor(upperValue/prices[i] + bandSlack)
		lowerShares := 0.0
		if lowerValue > 0 {
			lowerShares = math.Ceil(lowerValue/prices[i] - bandSlack)
		}
		buyCap := math.Max(upperShares-h, 0)
		sellCap := math.Max(h-lowerShares, 0)

		p.Objective[x(i)] = -epsilon * prices[i]
		p.Objective[traded(i)] = 1
		p.Upper[x(i)] = upperShares
		p.Upper[buy(i)] = buyCap
		p.Upper[sell(i)] = sellCap
		p.Upper[traded(i)] = 1
		p.Priority[traded(i)] = 1
		if h < lowerShares || h > upperShares {
			p.Lower[traded(i)] = 1
		}

		p.EqualityA.Set(i, x(i), 1)
		p.EqualityA.Set(i, buy(i), -1)
		p.EqualityA.Set(i, sell(i), 1)
		p.EqualityB[i] = h

		rows = append(rows, row{
			coeffs: map[int]float64{buy(i): 1, sell(i): 1, traded(i): -math.Max(buyCap, sellCap)},
		})
		rows = append(rows, row{
			coeffs: map[int]float64{x(i): prices[i]},
			rhs:    upperValue,
		})
		if lowerValue > 0 {
			rows = append(rows, row{
				coeffs: map[int]float64{x(i): -prices[i]},
				rhs:    -lowerValue,
			})
		}
	}
	budgetRow := row{coeffs: make(map[int]float64, n), rhs: budget}
	for i := 0; i < n; i++ {
		budgetRow.coeffs[x(i)] = prices[i]
	}
	rows = append(rows, budgetRow)

	p.InequalityA = mat.NewDense(len(rows), 4*n, nil)
	p.InequalityB = make([]float64, len(rows))
	for r, rw := range rows {
		for j, v := range rw.coeffs {
			p.InequalityA.Set(r, j, v)
		}
		p.InequalityB[r] = rw.rhs
	}

	return p
}

// budgetFor returns the cash the strategy may deploy for in
func budgetFor(in Input) decimal.Decimal {
	if in.ExtraCash.IsPositive() {
		return in.TotalValue.Add(in.ExtraCash)
	}
	return in.TotalValue
}
