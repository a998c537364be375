package optimization

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var (
	errInfeasible = errors.New("relaxation infeasible")
	errUnbounded  = errors.New("relaxation unbounded")
)

// feasibilityTol is the slack allowed on rows left without free variables
const feasibilityTol = 1e-7

// relaxation is the solution of a node's continuous LP
type relaxation struct {
	x         []float64
	objective float64
}

// stdRow is one constraint after bounds are substituted in.
// Rows with a slack are inequalities (coeffs·z <= rhs).
type stdRow struct {
	coeffs []float64
	rhs    float64
	slack  bool
}

// solveRelaxation solves the LP relaxation of p under the given bounds.
//
// gonum's simplex works on standard form (A z = b, z >= 0), so variables are
// shifted to z = x - lower, fixed variables are folded into the right-hand
// side, finite upper bounds become rows, and every inequality gets a slack
// column.
func solveRelaxation(p *Problem, lower, upper []float64, tol float64) (relaxation, error) {
	n := p.NumVars()
	x := make([]float64, n)

	// col maps a variable to its position among the free variables, -1 if fixed
	col := make([]int, n)
	var free []int
	for j := 0; j < n; j++ {
		if lower[j] > upper[j]+feasibilityTol {
			return relaxation{}, errInfeasible
		}
		x[j] = lower[j]
		if upper[j]-lower[j] <= feasibilityTol {
			col[j] = -1
			continue
		}
		col[j] = len(free)
		free = append(free, j)
	}

	var rows []stdRow
	addBlock := func(a *mat.Dense, b []float64, slack bool) {
		if a == nil {
			return
		}
		m, _ := a.Dims()
		for i := 0; i < m; i++ {
			r := stdRow{coeffs: make([]float64, len(free)), rhs: b[i], slack: slack}
			for j := 0; j < n; j++ {
				v := a.At(i, j)
				if v == 0 {
					continue
				}
				r.rhs -= v * lower[j]
				if col[j] >= 0 {
					r.coeffs[col[j]] = v
				}
			}
			rows = append(rows, r)
		}
	}
	addBlock(p.EqualityA, p.EqualityB, false)
	addBlock(p.InequalityA, p.InequalityB, true)
	for k, j := range free {
		if math.IsInf(upper[j], 1) {
			continue
		}
		r := stdRow{coeffs: make([]float64, len(free)), rhs: upper[j] - lower[j], slack: true}
		r.coeffs[k] = 1
		rows = append(rows, r)
	}

	// Rows without free variables are checked here and dropped; gonum
	// rejects all-zero rows.
	kept := rows[:0]
	for _, r := range rows {
		if floats.Norm(r.coeffs, math.Inf(1)) > 0 {
			kept = append(kept, r)
			continue
		}
		scale := math.Max(1, math.Abs(r.rhs))
		if r.slack && r.rhs < -feasibilityTol*scale {
			return relaxation{}, errInfeasible
		}
		if !r.slack && math.Abs(r.rhs) > feasibilityTol*scale {
			return relaxation{}, errInfeasible
		}
	}
	rows = kept

	// Free variables that appear in no row sit at their lower bound; gonum
	// rejects all-zero columns.
	used := make([]bool, len(free))
	for _, r := range rows {
		for k, v := range r.coeffs {
			if v != 0 {
				used[k] = true
			}
		}
	}
	var cols []int
	for k, j := range free {
		if used[k] {
			cols = append(cols, k)
			continue
		}
		if p.Objective[j] < 0 {
			return relaxation{}, errUnbounded
		}
	}

	if len(rows) > 0 {
		z, err := solveStandardForm(p, free, cols, rows, tol)
		if err != nil {
			return relaxation{}, err
		}
		for idx, k := range cols {
			j := free[k]
			x[j] = lower[j] + math.Max(0, z[idx])
		}
	}

	return relaxation{x: x, objective: floats.Dot(p.Objective, x)}, nil
}

// solveStandardForm assembles A z = b over the used columns plus one slack
// per inequality row and runs the simplex method.
func solveStandardForm(p *Problem, free, cols []int, rows []stdRow, tol float64) ([]float64, error) {
	nSlack := 0
	for _, r := range rows {
		if r.slack {
			nSlack++
		}
	}
	m := len(rows)
	nCols := len(cols) + nSlack
	if m > nCols {
		return nil, fmt.Errorf("relaxation has %d rows but only %d columns", m, nCols)
	}

	c := make([]float64, nCols)
	for idx, k := range cols {
		c[idx] = p.Objective[free[k]]
	}

	a := mat.NewDense(m, nCols, nil)
	b := make([]float64, m)
	slackCol := len(cols)
	for i, r := range rows {
		// Keep b non-negative so the initial basis search starts closer to feasibility
		sign := 1.0
		if r.rhs < 0 {
			sign = -1.0
		}
		for idx, k := range cols {
			if v := r.coeffs[k]; v != 0 {
				a.Set(i, idx, sign*v)
			}
		}
		if r.slack {
			a.Set(i, slackCol, sign)
			slackCol++
		}
		b[i] = sign * r.rhs
	}

	return simplex(c, a, b, tol)
}

// simplex wraps lp.Simplex, mapping its errors and converting panics on
// degenerate input into errors.
func simplex(c []float64, a *mat.Dense, b []float64, tol float64) (z []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			z = nil
			err = fmt.Errorf("simplex panicked: %v", r)
		}
	}()

	_, z, err = lp.Simplex(c, a, b, tol, nil)
	switch {
	case err == nil:
		return z, nil
	case errors.Is(err, lp.ErrInfeasible):
		return nil, errInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return nil, errUnbounded
	default:
		return nil, fmt.Errorf("simplex failed: %w", err)
	}
}
