package model

import "errors"

// Sentinel error kinds shared by all solving engines. Engines wrap these with
// fmt.Errorf("...: %w", ...) so callers can branch with errors.Is.
var (
	// ErrInvalidInput marks malformed or out-of-range input. Raised before any
	// solving begins.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInfeasibleConstraints marks instances where no feasible answer exists.
	ErrInfeasibleConstraints = errors.New("infeasible constraints")
	// ErrSolver marks failures of an external solver collaborator, including
	// exhausted resource limits. Never conflated with infeasibility.
	ErrSolver = errors.New("solver error")
)
