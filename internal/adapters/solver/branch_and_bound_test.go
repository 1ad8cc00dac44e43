package solver

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/arcade/internal/domain/ilp"
	"github.com/okian/arcade/internal/domain/model"
)

// bruteForce returns the best objective over all feasible assignments, or
// false when none exists.
func bruteForce(m *ilp.Model) (float64, bool) {
	best, found := 0.0, false
	x := make([]bool, m.NumVars)
	for mask := 0; mask < 1<<m.NumVars; mask++ {
		for j := range x {
			x[j] = mask&(1<<j) != 0
		}
		if ok, _ := m.Satisfied(x, 1e-9); !ok {
			continue
		}
		v := m.Evaluate(x)
		if !found || (m.Maximize && v > best) || (!m.Maximize && v < best) {
			best, found = v, true
		}
	}
	return best, found
}

func randomModel(rng *rand.Rand) *ilp.Model {
	n := 2 + rng.Intn(8)
	m := &ilp.Model{NumVars: n, Objective: make([]float64, n), Maximize: rng.Intn(4) != 0}
	for j := range m.Objective {
		m.Objective[j] = float64(rng.Intn(21) - 5)
	}
	for c := 0; c < 1+rng.Intn(4); c++ {
		con := ilp.Constraint{Coefs: make([]float64, n), Op: ilp.Op(rng.Intn(3))}
		sum := 0.0
		for j := range con.Coefs {
			con.Coefs[j] = float64(rng.Intn(9) - 2)
			if rng.Intn(2) == 0 {
				sum += con.Coefs[j]
			}
		}
		con.RHS = math.Round(sum)
		m.Constraints = append(m.Constraints, con)
	}
	return m
}

func TestBranchAndBound(t *testing.T) {
	Convey("Given random small binary programs", t, func() {
		rng := rand.New(rand.NewSource(3))
		s := New()

		for round := 0; round < 150; round++ {
			m := randomModel(rng)
			want, feasible := bruteForce(m)

			sol, err := s.Solve(context.Background(), m)
			So(err, ShouldBeNil)
			if !feasible {
				So(sol.Status, ShouldEqual, ilp.Infeasible)
				So(sol.Values, ShouldBeNil)
				continue
			}
			So(sol.Status, ShouldEqual, ilp.Optimal)
			ok, _ := m.Satisfied(sol.Values, 1e-6)
			So(ok, ShouldBeTrue)
			So(sol.Objective, ShouldAlmostEqual, want, 1e-6)
			So(sol.Nodes, ShouldBeGreaterThan, 0)
		}
	})

	Convey("Given a pick-two model with redundant equalities", t, func() {
		m := &ilp.Model{
			NumVars:   4,
			Objective: []float64{4, 3, 2, 1},
			Maximize:  true,
			Constraints: []ilp.Constraint{
				{Name: "two", Coefs: []float64{1, 1, 1, 1}, Op: ilp.Equal, RHS: 2},
				{Name: "two again", Coefs: []float64{2, 2, 2, 2}, Op: ilp.Equal, RHS: 4},
				{Name: "budget", Coefs: []float64{5, 4, 1, 1}, Op: ilp.LessEq, RHS: 6},
			},
		}
		sol, err := New().Solve(context.Background(), m)
		So(err, ShouldBeNil)
		So(sol.Status, ShouldEqual, ilp.Optimal)
		So(sol.Values, ShouldResemble, []bool{true, false, true, false})
		So(sol.Objective, ShouldEqual, 6)

		Convey("Conflicting equalities are infeasible", func() {
			m.Constraints[1].RHS = 3
			sol, err := New().Solve(context.Background(), m)
			So(err, ShouldBeNil)
			So(sol.Status, ShouldEqual, ilp.Infeasible)
		})
	})

	Convey("Given a model with a fractional relaxation", t, func() {
		m := &ilp.Model{
			NumVars:     3,
			Objective:   []float64{1, 1, 1},
			Maximize:    true,
			Constraints: []ilp.Constraint{{Name: "cap", Coefs: []float64{2, 2, 2}, Op: ilp.LessEq, RHS: 3}},
		}

		Convey("A one-node limit without an incumbent is a solver error", func() {
			_, err := New(WithMaxNodes(1)).Solve(context.Background(), m)
			So(errors.Is(err, model.ErrSolver), ShouldBeTrue)
		})

		Convey("A cancelled context stops the search", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := New().Solve(ctx, m)
			So(errors.Is(err, model.ErrSolver), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("The optimum picks one variable", func() {
			sol, err := New().Solve(context.Background(), m)
			So(err, ShouldBeNil)
			So(sol.Status, ShouldEqual, ilp.Optimal)
			So(sol.Objective, ShouldEqual, 1)
		})

		Convey("A feasible start is kept when the node limit stops the search", func() {
			m.Start = []bool{false, true, false}
			sol, err := New(WithMaxNodes(1)).Solve(context.Background(), m)
			So(err, ShouldBeNil)
			So(sol.Status, ShouldEqual, ilp.Feasible)
			So(sol.Values, ShouldResemble, []bool{false, true, false})
			So(sol.Objective, ShouldEqual, 1)
		})

		Convey("A start that breaks the model is ignored", func() {
			m.Start = []bool{true, true, false}
			_, err := New(WithMaxNodes(1)).Solve(context.Background(), m)
			So(errors.Is(err, model.ErrSolver), ShouldBeTrue)
		})

		Convey("A start of the wrong length is invalid input", func() {
			m.Start = []bool{true}
			_, err := New().Solve(context.Background(), m)
			So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
		})
	})

	Convey("Given one-of-each groups tied by redundant equalities", t, func() {
		const group = 6
		n := 2 * group
		m := &ilp.Model{NumVars: n, Objective: make([]float64, n), Maximize: true}
		left, right, all := make([]float64, n), make([]float64, n), make([]float64, n)
		cost := make([]float64, n)
		for j := 0; j < n; j++ {
			m.Objective[j] = float64((j*7)%11 + 1)
			cost[j] = float64((j*5)%9 + 1)
			all[j] = 1
			if j < group {
				left[j] = 1
			} else {
				right[j] = 1
			}
		}
		m.Constraints = []ilp.Constraint{
			{Name: "left", Coefs: left, Op: ilp.Equal, RHS: 1},
			{Name: "right", Coefs: right, Op: ilp.Equal, RHS: 1},
			{Name: "total", Coefs: all, Op: ilp.Equal, RHS: 2},
			{Name: "cost", Coefs: cost, Op: ilp.LessEq, RHS: 9},
		}
		want, feasible := bruteForce(m)
		So(feasible, ShouldBeTrue)

		sol, err := New().Solve(context.Background(), m)
		So(err, ShouldBeNil)
		So(sol.Status, ShouldEqual, ilp.Optimal)
		So(sol.Objective, ShouldAlmostEqual, want, 1e-9)
		ok, _ := m.Satisfied(sol.Values, 1e-9)
		So(ok, ShouldBeTrue)
	})

	Convey("Invalid models are rejected before solving", t, func() {
		_, err := New().Solve(context.Background(), &ilp.Model{NumVars: 2, Objective: []float64{1}})
		So(errors.Is(err, model.ErrInvalidInput), ShouldBeTrue)
	})
}
