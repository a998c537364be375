package optimization

// Status describes how a solve ended
type Status int

const (
	// StatusOptimal means the search finished and the solution is optimal.
	StatusOptimal Status = iota
	// StatusFeasible means an integer solution was found but optimality was
	// not proven (node/time limit or numerical trouble in part of the tree).
	StatusFeasible
	// StatusInfeasible means no integer solution exists.
	StatusInfeasible
	// StatusUnbounded means the objective can decrease without limit.
	StatusUnbounded
	// StatusLimitReached means a limit was hit before any solution was found.
	StatusLimitReached
	// StatusError means the LP relaxations could not be solved.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusLimitReached:
		return "limit_reached"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Solution is the outcome of a solve
type Solution struct {
	Status    Status
	X         []float64
	Objective float64
	Nodes     int
}

// Success reports whether X holds a usable integer-feasible solution
func (s Solution) Success() bool {
	return (s.Status == StatusOptimal || s.Status == StatusFeasible) && s.X != nil
}

//go:generate mockgen -source=solver.go -destination=mocks/mock_solver.go -package=mock_optimization

// Solver solves mixed-integer linear programs.
//
// Solve returns an error only for malformed problems. Infeasibility and
// solver trouble are reported through Solution.Status.
type Solver interface {
	Solve(p *Problem) (Solution, error)
}
