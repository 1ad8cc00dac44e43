// Package solver answers binary integer programs with best-bound branch and
// bound over gonum's simplex LP relaxation.
package solver

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/okian/arcade/internal/domain/ilp"
	"github.com/okian/arcade/internal/domain/model"
	"github.com/okian/arcade/pkg/logger"
	"github.com/okian/arcade/pkg/metrics"
)

const (
	defaultMaxNodes = 100000
	defaultTol      = 1e-6
	simplexTol      = 1e-10
	eliminationTol  = 1e-9
)

// BranchAndBound implements ilp.Solver. It is stateless between calls and
// safe for concurrent use.
type BranchAndBound struct {
	maxNodes int
	tol      float64
	log      logger.Logger
}

var _ ilp.Solver = (*BranchAndBound)(nil)

// New creates a BranchAndBound solver.
func New(opts ...Option) *BranchAndBound {
	s := &BranchAndBound{
		maxNodes: defaultMaxNodes,
		tol:      defaultTol,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// node is a partial assignment: fixed[j] is -1 when x[j] is free. bound is
// the relaxed score of its parent, an upper limit on anything below it.
type node struct {
	fixed []int8
	bound float64
	seq   int
}

func (n node) with(j int, v int8, bound float64) node {
	f := make([]int8, len(n.fixed))
	copy(f, n.fixed)
	f[j] = v
	return node{fixed: f, bound: bound}
}

// frontier is a max-heap on bound. Equal bounds pop the newest node first so
// the search dives before it widens.
type frontier []node

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].bound != f[j].bound {
		return f[i].bound > f[j].bound
	}
	return f[i].seq > f[j].seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(node)) }
func (f *frontier) Pop() any {
	old := *f
	n := old[len(old)-1]
	*f = old[:len(old)-1]
	return n
}

// search holds the state of one Solve call.
type search struct {
	*BranchAndBound
	ctx       context.Context
	m         *ilp.Model
	sign      float64 // +1 maximize, -1 minimize; the search maximizes sign·obj
	best      []bool
	bestScore float64
	nodes     int
	seq       int
	open      frontier
}

// Solve explores the 0/1 assignments of m, always expanding the open node with
// the highest bound. Each node fixes some variables, solves the LP relaxation
// of the rest and either prunes (infeasible, or bound no better than the
// incumbent), records an integral solution, or branches on the most
// fractional variable. When the relaxation fails numerically the node is
// branched without a bound. A feasible m.Start seeds the incumbent.
func (s *BranchAndBound) Solve(ctx context.Context, m *ilp.Model) (ilp.Solution, error) {
	if err := m.Validate(); err != nil {
		return ilp.Solution{}, err
	}
	st := &search{BranchAndBound: s, ctx: ctx, m: m, sign: 1, bestScore: math.Inf(-1)}
	if !m.Maximize {
		st.sign = -1
	}
	if m.Start != nil && st.offer(append([]bool(nil), m.Start...)) {
		s.log.Debug(ctx, "branch and bound seeded", logger.Float64("objective", m.Evaluate(st.best)))
	}

	root := node{fixed: make([]int8, m.NumVars), bound: math.Inf(1)}
	for j := range root.fixed {
		root.fixed[j] = -1
	}
	st.push(root)
	exhausted := true

	for st.open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return ilp.Solution{}, fmt.Errorf("%w: search interrupted after %d nodes: %w", model.ErrSolver, st.nodes, err)
		}
		n := heap.Pop(&st.open).(node)
		if st.dominated(n.bound) {
			continue
		}
		if st.nodes >= s.maxNodes {
			exhausted = false
			break
		}
		st.nodes++

		children, err := st.expand(n)
		if err != nil {
			return ilp.Solution{}, err
		}
		for _, c := range children {
			st.push(c)
		}
	}
	metrics.RecordSolverNodes(st.nodes)

	sol := ilp.Solution{Nodes: st.nodes}
	switch {
	case st.best == nil && exhausted:
		sol.Status = ilp.Infeasible
	case st.best == nil:
		return ilp.Solution{}, fmt.Errorf("%w: node limit %d reached without a feasible assignment", model.ErrSolver, s.maxNodes)
	default:
		sol.Values = st.best
		sol.Objective = m.Evaluate(st.best)
		sol.Status = ilp.Optimal
		if !exhausted {
			sol.Status = ilp.Feasible
		}
	}
	s.log.Debug(ctx, "branch and bound finished",
		logger.String("status", string(sol.Status)),
		logger.Int("nodes", st.nodes),
		logger.Float64("objective", sol.Objective))
	return sol, nil
}

func (st *search) push(n node) {
	st.seq++
	n.seq = st.seq
	heap.Push(&st.open, n)
}

// dominated reports whether a bound cannot beat the incumbent.
func (st *search) dominated(bound float64) bool {
	return st.best != nil && bound <= st.bestScore+st.tol*math.Max(1, math.Abs(st.bestScore))
}

// expand processes one node and returns its children.
func (st *search) expand(n node) ([]node, error) {
	free := make([]int, 0, len(n.fixed))
	for j, v := range n.fixed {
		if v < 0 {
			free = append(free, j)
		}
	}

	if len(free) == 0 {
		x := make([]bool, len(n.fixed))
		for j, v := range n.fixed {
			x[j] = v == 1
		}
		st.offer(x)
		return nil, nil
	}

	rel, feasible := st.relax(n, free)
	if !feasible {
		return nil, nil
	}

	bound, values, err := rel.solve()
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, nil
	case err != nil:
		// Numerical trouble in the relaxation; keep the node and branch blind.
		st.log.Debug(st.ctx, "lp relaxation failed, branching without bound",
			logger.Int("free", len(free)), logger.Error(err))
		return st.branch(n, free[0], n.bound), nil
	}

	total := rel.fixedScore + bound
	if st.dominated(total) {
		return nil, nil
	}

	pick, worst := -1, 0.0
	for k, j := range free {
		frac := math.Min(values[k], 1-values[k])
		if frac > worst+st.tol {
			pick, worst = j, frac
		}
	}
	if pick < 0 {
		x := make([]bool, len(n.fixed))
		for j, v := range n.fixed {
			x[j] = v == 1
		}
		for k, j := range free {
			x[j] = values[k] > 0.5
		}
		if st.offer(x) {
			return nil, nil
		}
		// Rounded point violates the model; fall back to plain branching.
		return st.branch(n, free[0], total), nil
	}
	return st.branch(n, pick, total), nil
}

// branch returns the children of n on variable j. x=1 is pushed last so it
// is explored first among equal bounds.
func (st *search) branch(n node, j int, bound float64) []node {
	return []node{n.with(j, 0, bound), n.with(j, 1, bound)}
}

// offer records x as the incumbent when it is feasible and better. It reports
// whether x was feasible.
func (st *search) offer(x []bool) bool {
	if ok, _ := st.m.Satisfied(x, st.tol); !ok {
		return false
	}
	score := st.sign * st.m.Evaluate(x)
	if st.best == nil || score > st.bestScore {
		st.best, st.bestScore = x, score
	}
	return true
}

// relaxation is the LP over the free variables of a node in standard form:
// minimize c·z subject to A·z = b, z ≥ 0, where z holds the free x, one
// upper-bound complement per free x not already capped by a row and one
// slack per inequality row.
type relaxation struct {
	c          []float64
	a          *mat.Dense
	b          []float64
	nFree      int
	fixedScore float64
}

// lpRow is a constraint restricted to the free variables of a node.
type lpRow struct {
	coefs []float64
	op    ilp.Op
	rhs   float64
}

// relax builds the relaxation of n. It reports false when a constraint with
// no free variables left is already violated.
func (st *search) relax(n node, free []int) (*relaxation, bool) {
	m := st.m
	nf := len(free)

	var ineq, eq []lpRow
	for _, c := range m.Constraints {
		rhs := c.RHS
		for j, v := range n.fixed {
			if v == 1 {
				rhs -= c.Coefs[j]
			}
		}
		coefs := make([]float64, nf)
		zero := true
		for k, j := range free {
			coefs[k] = c.Coefs[j]
			if coefs[k] != 0 {
				zero = false
			}
		}
		if zero {
			if !c.Op.Holds(0, rhs, st.tol) {
				return nil, false
			}
			continue
		}
		r := lpRow{coefs: coefs, op: c.Op, rhs: rhs}
		if c.Op == ilp.Equal {
			eq = append(eq, r)
		} else {
			ineq = append(ineq, r)
		}
	}

	// Equality rows must be linearly independent for the simplex.
	kept, consistent := independent(eq)
	if !consistent {
		return nil, false
	}

	// A free variable needs an explicit x ≤ 1 row unless some row already
	// caps it there: all coefficients non-negative, op ≤ or ==, rhs ≤ coef.
	capped := make([]bool, nf)
	for _, group := range [][]lpRow{ineq, kept} {
		for _, r := range group {
			if r.op == ilp.GreaterEq || r.rhs < 0 || !nonNegative(r.coefs) {
				continue
			}
			for k, v := range r.coefs {
				if v > 0 && r.rhs <= v {
					capped[k] = true
				}
			}
		}
	}
	var bounded []int
	for k := range capped {
		if !capped[k] {
			bounded = append(bounded, k)
		}
	}

	rows := len(ineq) + len(kept) + len(bounded)
	cols := nf + len(bounded) + len(ineq)
	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	r := 0
	for i, w := range ineq {
		for k, v := range w.coefs {
			a.Set(r, k, v)
		}
		slack := 1.0
		if w.op == ilp.GreaterEq {
			slack = -1
		}
		a.Set(r, nf+len(bounded)+i, slack)
		b[r] = w.rhs
		r++
	}
	for _, w := range kept {
		for k, v := range w.coefs {
			a.Set(r, k, v)
		}
		b[r] = w.rhs
		r++
	}
	for i, k := range bounded {
		a.Set(r, k, 1)
		a.Set(r, nf+i, 1)
		b[r] = 1
		r++
	}
	for i := range b {
		if b[i] < 0 {
			b[i] = -b[i]
			for j := 0; j < cols; j++ {
				a.Set(i, j, -a.At(i, j))
			}
		}
	}

	c := make([]float64, cols)
	for k, j := range free {
		c[k] = -st.sign * m.Objective[j]
	}
	var fixedScore float64
	for j, v := range n.fixed {
		if v == 1 {
			fixedScore += st.sign * m.Objective[j]
		}
	}
	return &relaxation{c: c, a: a, b: b, nFree: nf, fixedScore: fixedScore}, true
}

// solve returns the best relaxed score of the free part and the free x values.
func (r *relaxation) solve() (float64, []float64, error) {
	opt, z, err := lp.Simplex(r.c, r.a, r.b, simplexTol, nil)
	if err != nil {
		return 0, nil, err
	}
	values := make([]float64, r.nFree)
	for k := range values {
		values[k] = math.Min(1, math.Max(0, z[k]))
	}
	return -opt, values, nil
}

// independent keeps the rows that are not linear combinations of earlier
// ones, by Gaussian elimination on the rows augmented with their right-hand
// side. It reports false when a dependent row disagrees on the right-hand
// side, which makes the system unsolvable.
func independent(rows []lpRow) ([]lpRow, bool) {
	var (
		kept   []lpRow
		basis  [][]float64
		pivots []int
	)
	for _, r := range rows {
		coefs := r.coefs
		v := append(append(make([]float64, 0, len(coefs)+1), coefs...), r.rhs)
		scale := 1.0
		for _, c := range v {
			scale = math.Max(scale, math.Abs(c))
		}
		for i, b := range basis {
			if f := v[pivots[i]]; f != 0 {
				for k := range v {
					v[k] -= f * b[k]
				}
			}
		}
		p, big := -1, 0.0
		for k := range coefs {
			if a := math.Abs(v[k]); a > big {
				p, big = k, a
			}
		}
		if big <= eliminationTol*scale {
			if math.Abs(v[len(coefs)]) > eliminationTol*scale {
				return nil, false
			}
			continue
		}
		inv := 1 / v[p]
		for k := range v {
			v[k] *= inv
		}
		kept = append(kept, r)
		basis = append(basis, v)
		pivots = append(pivots, p)
	}
	return kept, true
}

func nonNegative(xs []float64) bool {
	for _, x := range xs {
		if x < 0 {
			return false
		}
	}
	return true
}
