package rebalancing

import (
	"github.com/aristath/rebalancer/internal/modules/optimization"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// TrackingErrorStrategyName is the registry name of the tracking-error strategy
const TrackingErrorStrategyName = "tracking_error"

// TrackingErrorStrategy picks the whole-share holdings that minimize the
// total absolute dollar deviation from target without spending more than the
// portfolio is worth.
type TrackingErrorStrategy struct {
	runner milpRunner
}

// NewTrackingErrorStrategy creates the strategy around solver
func NewTrackingErrorStrategy(solver optimization.Solver, log zerolog.Logger) *TrackingErrorStrategy {
	return &TrackingErrorStrategy{
		runner: newMILPRunner(TrackingErrorStrategyName, solver, log),
	}
}

// Name implements Strategy
func (s *TrackingErrorStrategy) Name() string {
	return TrackingErrorStrategyName
}

// CalculateOrders implements Strategy
func (s *TrackingErrorStrategy) CalculateOrders(in Input) (Result, error) {
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

	p := buildTrackingErrorProblem(positions, in.TotalValue.InexactFloat64())
	return s.runner.run(in, positions, p, in.TotalValue)
}

// buildTrackingErrorProblem lays out the variables as [x | e+ | e-]:
//
//	minimize    Σ (e+_i + e-_i)
//	subject to  p_i x_i - e+_i + e-_i = w_i V    for each symbol
//	            Σ p_i x_i <= V
//	            x integer, x, e+, e- >= 0
func buildTrackingErrorProblem(positions []position, totalValue float64) *optimization.Problem {
	n := len(positions)
	prices := floatPrices(positions)

	p := optimization.NewProblem(3 * n)
	for i := 0; i < n; i++ {
		p.Integrality[i] = true
		p.Objective[n+i] = 1
		p.Objective[2*n+i] = 1
	}

	p.EqualityA = mat.NewDense(n, 3*n, nil)
	p.EqualityB = make([]float64, n)
	for i, pos := range positions {
		p.EqualityA.Set(i, i, prices[i])
		p.EqualityA.Set(i, n+i, -1)
		p.EqualityA.Set(i, 2*n+i, 1)
		p.EqualityB[i] = pos.targetValue.InexactFloat64()
	}

	p.InequalityA = mat.NewDense(1, 3*n, nil)
	for i := 0; i < n; i++ {
		p.InequalityA.Set(0, i, prices[i])
	}
	p.InequalityB = []float64{totalValue}

	return p
}
