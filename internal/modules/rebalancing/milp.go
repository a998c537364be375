package rebalancing

import (
	"fmt"
	"math"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// milpRunner is the part shared by both optimizing strategies. It runs the
// solver and falls back to greedy orders when the solve is unusable.
type milpRunner struct {
	name   string
	solver optimization.Solver
	log    zerolog.Logger
}

func newMILPRunner(name string, solver optimization.Solver, log zerolog.Logger) milpRunner {
	return milpRunner{
		name:   name,
		solver: solver,
		log:    log.With().Str("strategy", name).Logger(),
	}
}

// run solves p and turns its first len(positions) variables into orders.
// Any solver trouble degrades to the greedy orders for the same input.
func (m milpRunner) run(in Input, positions []position, p *optimization.Problem, budget decimal.Decimal) (Result, error) {
	sol, err := m.solver.Solve(p)
	if err != nil {
		m.log.Warn().Err(err).Msg("Solver rejected problem, falling back to simple strategy")
		return m.fallback(in, optimization.StatusError)
	}
	if !sol.Success() {
		m.log.Warn().
			Str("status", sol.Status.String()).
			Int("nodes", sol.Nodes).
			Msg("Solver did not find a solution, falling back to simple strategy")
		return m.fallback(in, sol.Status)
	}

	shares, err := sharesFromSolution(positions, sol.X, budget)
	if err != nil {
		m.log.Warn().Err(err).Msg("Discarding solver solution, falling back to simple strategy")
		return m.fallback(in, sol.Status)
	}

	m.log.Debug().
		Str("status", sol.Status.String()).
		Int("nodes", sol.Nodes).
		Float64("objective", sol.Objective).
		Msg("Solver finished")

	orders := append(ordersFromShares(positions, shares), liquidations(in)...)
	return Result{
		Orders:       orders,
		Method:       MethodOptimal,
		SolverStatus: sol.Status.String(),
	}, nil
}

func (m milpRunner) fallback(in Input, status optimization.Status) (Result, error) {
	orders, err := greedyOrders(in)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Orders:       orders,
		Method:       MethodFallback,
		SolverStatus: status.String(),
	}, nil
}

// sharesFromSolution rounds the share variables and checks the rounded
// holdings still fit the budget when priced exactly.
func sharesFromSolution(positions []position, x []float64, budget decimal.Decimal) ([]int64, error) {
	if len(x) < len(positions) {
		return nil, fmt.Errorf("solution has %d values, expected at least %d", len(x), len(positions))
	}

	shares := make([]int64, len(positions))
	cost := decimal.Zero
	for i, pos := range positions {
		v := math.Round(x[i])
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid share count %v for %s", x[i], pos.symbol)
		}
		shares[i] = int64(v)
		cost = cost.Add(decimal.NewFromInt(shares[i]).Mul(pos.price))
	}

	if cost.GreaterThan(budget) {
		return nil, fmt.Errorf("solution costs %s, budget is %s", cost.StringFixed(2), budget.StringFixed(2))
	}
	return shares, nil
}

func floatPrices(positions []position) []float64 {
	out := make([]float64, len(positions))
	for i, pos := range positions {
		out[i] = pos.price.InexactFloat64()
	}
	return out
}

// liquidationOnly handles an empty target, which leaves nothing to optimize
func liquidationOnly(in Input) Result {
	return Result{
		Orders: append([]domain.Order{}, liquidations(in)...),
		Method: MethodOptimal,
	}
}
