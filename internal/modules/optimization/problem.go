// Package optimization provides the mixed-integer linear program solver used
// by the optimizing rebalancing strategies.
package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Problem is a mixed-integer linear program in inequality form:
//
//	minimize    cᵀx
//	subject to  A_eq x  = b_eq
//	            A_ub x <= b_ub
//	            lower <= x <= upper
//	            x_j integer where Integrality[j]
//
// Either constraint block may be nil. Lower bounds must be finite; upper
// bounds may be +Inf.
type Problem struct {
	Objective   []float64
	EqualityA   *mat.Dense
	EqualityB   []float64
	InequalityA *mat.Dense
	InequalityB []float64
	Integrality []bool
	Lower       []float64
	Upper       []float64

	// Priority ranks integer variables for branching, higher first. Nil
	// ranks them all alike.
	Priority []int
}

// NewProblem creates a problem with n variables, zero objective, bounds
// [0, +Inf) and no integrality requirements.
func NewProblem(n int) *Problem {
	upper := make([]float64, n)
	for i := range upper {
		upper[i] = math.Inf(1)
	}
	return &Problem{
		Objective:   make([]float64, n),
		Integrality: make([]bool, n),
		Lower:       make([]float64, n),
		Upper:       upper,
	}
}

// NumVars returns the number of decision variables
func (p *Problem) NumVars() int {
	return len(p.Objective)
}

// Validate checks dimensions and bounds
func (p *Problem) Validate() error {
	n := p.NumVars()
	if n == 0 {
		return fmt.Errorf("problem has no variables")
	}
	if len(p.Integrality) != n {
		return fmt.Errorf("integrality mask has %d entries, expected %d", len(p.Integrality), n)
	}
	if len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("bounds have %d/%d entries, expected %d", len(p.Lower), len(p.Upper), n)
	}
	if p.Priority != nil && len(p.Priority) != n {
		return fmt.Errorf("priority has %d entries, expected %d", len(p.Priority), n)
	}
	if err := checkBlock("equality", p.EqualityA, p.EqualityB, n); err != nil {
		return err
	}
	if err := checkBlock("inequality", p.InequalityA, p.InequalityB, n); err != nil {
		return err
	}

	for j := 0; j < n; j++ {
		if math.IsInf(p.Lower[j], 0) || math.IsNaN(p.Lower[j]) {
			return fmt.Errorf("variable %d: lower bound must be finite, got %v", j, p.Lower[j])
		}
		if math.IsNaN(p.Upper[j]) || math.IsInf(p.Upper[j], -1) {
			return fmt.Errorf("variable %d: invalid upper bound %v", j, p.Upper[j])
		}
		if math.IsNaN(p.Objective[j]) || math.IsInf(p.Objective[j], 0) {
			return fmt.Errorf("variable %d: objective coefficient must be finite", j)
		}
	}
	return nil
}

func checkBlock(name string, a *mat.Dense, b []float64, n int) error {
	if a == nil {
		if len(b) != 0 {
			return fmt.Errorf("%s right-hand side given without a matrix", name)
		}
		return nil
	}
	rows, cols := a.Dims()
	if cols != n {
		return fmt.Errorf("%s matrix has %d columns, expected %d", name, cols, n)
	}
	if len(b) != rows {
		return fmt.Errorf("%s right-hand side has %d entries, expected %d", name, len(b), rows)
	}
	for i, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s right-hand side %d must be finite", name, i)
		}
	}
	return nil
}
