package optimization

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// Config holds the search limits of the branch-and-bound solver
type Config struct {
	MaxNodes       int           // relaxations solved before giving up
	TimeLimit      time.Duration // wall-clock budget per solve, 0 disables
	IntegralityTol float64       // distance from an integer still treated as integral
	SimplexTol     float64       // reduced-cost tolerance passed to the simplex method

	// RelativeGap stops the search once no open node can beat the incumbent
	// by more than this fraction of its objective
	RelativeGap float64
}

// DefaultConfig returns the limits used by the rebalancing strategies
func DefaultConfig() Config {
	return Config{
		MaxNodes:       20000,
		TimeLimit:      10 * time.Second,
		IntegralityTol: 1e-6,
		SimplexTol:     1e-9,
		RelativeGap:    1e-4,
	}
}

// BranchAndBound solves mixed-integer programs by branch and bound over LP
// relaxations. The search dives depth-first until it has an incumbent, then
// always expands the open node with the lowest relaxation bound.
type BranchAndBound struct {
	cfg Config
	log zerolog.Logger
	now func() time.Time
}

// NewBranchAndBound creates a solver. Zero-valued limits fall back to the
// defaults.
func NewBranchAndBound(cfg Config, log zerolog.Logger) *BranchAndBound {
	def := DefaultConfig()
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = def.MaxNodes
	}
	if cfg.IntegralityTol <= 0 {
		cfg.IntegralityTol = def.IntegralityTol
	}
	if cfg.SimplexTol <= 0 {
		cfg.SimplexTol = def.SimplexTol
	}
	if cfg.RelativeGap <= 0 {
		cfg.RelativeGap = def.RelativeGap
	}
	return &BranchAndBound{
		cfg: cfg,
		log: log.With().Str("component", "milp").Logger(),
		now: time.Now,
	}
}

// node is a subproblem: the original problem under tightened bounds. bound
// is the relaxation objective of its parent.
type node struct {
	lower []float64
	upper []float64
	depth int
	bound float64
}

// nodeQueue is a min-heap on bound, deeper nodes first among equal bounds
type nodeQueue []node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound < q[j].bound
	}
	return q[i].depth > q[j].depth
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(node)) }

func (q *nodeQueue) Pop() any {
	old := *q
	last := old[len(old)-1]
	*q = old[:len(old)-1]
	return last
}

// Solve implements Solver
func (bb *BranchAndBound) Solve(p *Problem) (Solution, error) {
	if err := p.Validate(); err != nil {
		return Solution{Status: StatusError}, fmt.Errorf("invalid problem: %w", err)
	}

	n := p.NumVars()
	root := node{lower: make([]float64, n), upper: make([]float64, n), bound: math.Inf(-1)}
	for j := 0; j < n; j++ {
		root.lower[j], root.upper[j] = p.Lower[j], p.Upper[j]
		if p.Integrality[j] {
			root.lower[j] = math.Ceil(root.lower[j] - bb.cfg.IntegralityTol)
			root.upper[j] = math.Floor(root.upper[j] + bb.cfg.IntegralityTol)
		}
	}

	start := bb.now()
	var (
		best        []float64
		bestObj     = math.Inf(1)
		nodes       int
		limitHit    bool
		nodeFailed  bool
		rootOutcome error
		bestFirst   bool
	)
	dominated := func(bound float64) bool {
		if math.IsInf(bestObj, 1) {
			return false
		}
		gap := math.Max(1e-9*math.Max(1, math.Abs(bestObj)), bb.cfg.RelativeGap*math.Abs(bestObj))
		return bound >= bestObj-gap
	}

	open := nodeQueue{root}
	for open.Len() > 0 {
		var cur node
		if bestFirst {
			cur = heap.Pop(&open).(node)
		} else {
			cur = open[len(open)-1]
			open = open[:len(open)-1]
		}
		if dominated(cur.bound) {
			if bestFirst {
				// every remaining node has a bound at least as large
				break
			}
			continue
		}

		if nodes >= bb.cfg.MaxNodes {
			limitHit = true
			break
		}
		if bb.cfg.TimeLimit > 0 && bb.now().Sub(start) > bb.cfg.TimeLimit {
			limitHit = true
			break
		}
		nodes++

		rel, err := solveRelaxation(p, cur.lower, cur.upper, bb.cfg.SimplexTol)
		if cur.depth == 0 {
			rootOutcome = err
		}
		if err != nil {
			if !errors.Is(err, errInfeasible) && !errors.Is(err, errUnbounded) {
				nodeFailed = true
				bb.log.Debug().Err(err).Int("depth", cur.depth).Msg("Relaxation failed")
			}
			if errors.Is(err, errUnbounded) && cur.depth == 0 {
				break
			}
			continue
		}

		if dominated(rel.objective) {
			continue
		}

		j := bb.branchVariable(p, rel.x, cur)
		if j < 0 {
			best = roundIntegers(p, rel.x)
			bestObj = rel.objective
			bb.log.Debug().
				Float64("objective", bestObj).
				Int("nodes", nodes).
				Msg("New incumbent")
			if !bestFirst {
				bestFirst = true
				heap.Init(&open)
			}
			continue
		}

		v := rel.x[j]
		down := node{lower: clone(cur.lower), upper: clone(cur.upper), depth: cur.depth + 1, bound: rel.objective}
		down.upper[j] = math.Floor(v)
		up := node{lower: clone(cur.lower), upper: clone(cur.upper), depth: cur.depth + 1, bound: rel.objective}
		up.lower[j] = math.Ceil(v)

		if bestFirst {
			heap.Push(&open, down)
			heap.Push(&open, up)
			continue
		}
		// While diving, the side closer to the relaxed value is popped first
		if v-math.Floor(v) < 0.5 {
			open = append(open, up, down)
		} else {
			open = append(open, down, up)
		}
	}

	sol := Solution{Nodes: nodes}
	switch {
	case best != nil:
		sol.X = best
		sol.Objective = bestObj
		sol.Status = StatusOptimal
		if limitHit || nodeFailed {
			sol.Status = StatusFeasible
		}
	case limitHit:
		sol.Status = StatusLimitReached
	case errors.Is(rootOutcome, errUnbounded):
		sol.Status = StatusUnbounded
	case nodeFailed:
		sol.Status = StatusError
	default:
		sol.Status = StatusInfeasible
	}

	bb.log.Debug().
		Str("status", sol.Status.String()).
		Int("nodes", nodes).
		Dur("elapsed", bb.now().Sub(start)).
		Msg("MILP solve finished")

	return sol, nil
}

// branchVariable picks the fractional integer variable to split on, or -1
// when the relaxation is already integral. Higher priority goes first, then
// the smallest domain, then the most fractional value.
func (bb *BranchAndBound) branchVariable(p *Problem, x []float64, cur node) int {
	pick := -1
	var pickPriority int
	var pickWidth, pickFrac float64
	for j, isInt := range p.Integrality {
		if !isInt {
			continue
		}
		f := x[j] - math.Floor(x[j])
		if f <= bb.cfg.IntegralityTol || f >= 1-bb.cfg.IntegralityTol {
			continue
		}
		priority := 0
		if p.Priority != nil {
			priority = p.Priority[j]
		}
		frac := math.Min(f, 1-f)
		width := cur.upper[j] - cur.lower[j]

		better := pick < 0 ||
			priority > pickPriority ||
			(priority == pickPriority && (width < pickWidth || (width == pickWidth && frac > pickFrac)))
		if better {
			pick, pickPriority, pickWidth, pickFrac = j, priority, width, frac
		}
	}
	return pick
}

func roundIntegers(p *Problem, x []float64) []float64 {
	out := clone(x)
	for j, isInt := range p.Integrality {
		if isInt {
			out[j] = math.Round(out[j])
		}
	}
	return out
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
