// Package ilp describes binary integer linear programs and the contract a
// solver must meet to answer them. It holds no solving algorithm.
package ilp

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/arcade/internal/domain/model"
)

// Op is a constraint relation.
type Op int

// Constraint relations.
const (
	LessEq Op = iota
	Equal
	GreaterEq
)

func (o Op) String() string {
	switch o {
	case LessEq:
		return "<="
	case Equal:
		return "=="
	case GreaterEq:
		return ">="
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Holds reports whether lhs op rhs within tol.
func (o Op) Holds(lhs, rhs, tol float64) bool {
	switch o {
	case LessEq:
		return lhs <= rhs+tol
	case Equal:
		return math.Abs(lhs-rhs) <= tol
	case GreaterEq:
		return lhs >= rhs-tol
	default:
		return false
	}
}

// Constraint is Σ Coefs[j]·x[j] Op RHS with dense coefficients.
type Constraint struct {
	Name  string
	Coefs []float64
	Op    Op
	RHS   float64
}

// Model is a program over NumVars binary variables.
type Model struct {
	NumVars     int
	Names       []string // optional, one per variable
	Objective   []float64
	Maximize    bool
	Constraints []Constraint

	// Start is an optional assignment the solver may use as its first
	// incumbent. Solvers ignore it when it breaks a constraint.
	Start []bool
}

// Status is the outcome class of a solve.
type Status string

// Solve statuses.
const (
	// Optimal means no feasible assignment has a better objective.
	Optimal Status = "optimal"
	// Feasible means Values satisfies every constraint but optimality was not
	// proven, e.g. because a search limit was reached.
	Feasible Status = "feasible"
	// Infeasible means no assignment satisfies the constraints.
	Infeasible Status = "infeasible"
)

// Solution is a solver answer. Values is nil when Status is Infeasible.
type Solution struct {
	Status    Status
	Values    []bool
	Objective float64
	Nodes     int // search nodes explored, when the solver reports it
}

// Solver answers binary programs. Implementations return an error wrapping
// model.ErrSolver on internal failure or when limits are hit before any
// feasible assignment is found; infeasibility is a Status, not an error.
type Solver interface {
	Solve(ctx context.Context, m *Model) (Solution, error)
}

// Validate checks dimensions and that all numbers are finite.
func (m *Model) Validate() error {
	if m.NumVars <= 0 {
		return fmt.Errorf("%w: model has no variables", model.ErrInvalidInput)
	}
	if len(m.Objective) != m.NumVars {
		return fmt.Errorf("%w: objective has %d coefficients for %d variables", model.ErrInvalidInput, len(m.Objective), m.NumVars)
	}
	if m.Names != nil && len(m.Names) != m.NumVars {
		return fmt.Errorf("%w: %d names for %d variables", model.ErrInvalidInput, len(m.Names), m.NumVars)
	}
	if m.Start != nil && len(m.Start) != m.NumVars {
		return fmt.Errorf("%w: start has %d values for %d variables", model.ErrInvalidInput, len(m.Start), m.NumVars)
	}
	if !allFinite(m.Objective) {
		return fmt.Errorf("%w: objective has a non-finite coefficient", model.ErrInvalidInput)
	}
	for i, c := range m.Constraints {
		if len(c.Coefs) != m.NumVars {
			return fmt.Errorf("%w: constraint %d (%s) has %d coefficients for %d variables", model.ErrInvalidInput, i, c.Name, len(c.Coefs), m.NumVars)
		}
		if c.Op < LessEq || c.Op > GreaterEq {
			return fmt.Errorf("%w: constraint %d (%s) has unknown relation %v", model.ErrInvalidInput, i, c.Name, c.Op)
		}
		if !allFinite(c.Coefs) || !allFinite([]float64{c.RHS}) {
			return fmt.Errorf("%w: constraint %d (%s) has a non-finite number", model.ErrInvalidInput, i, c.Name)
		}
	}
	return nil
}

// Evaluate returns the objective value of x.
func (m *Model) Evaluate(x []bool) float64 {
	var v float64
	for j, on := range x {
		if on {
			v += m.Objective[j]
		}
	}
	return v
}

// Satisfied reports whether x meets every constraint within tol. When it
// does not, the first violated constraint is returned.
func (m *Model) Satisfied(x []bool, tol float64) (bool, *Constraint) {
	for i := range m.Constraints {
		c := &m.Constraints[i]
		var lhs float64
		for j, on := range x {
			if on {
				lhs += c.Coefs[j]
			}
		}
		if !c.Op.Holds(lhs, c.RHS, tol) {
			return false, c
		}
	}
	return true, nil
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
