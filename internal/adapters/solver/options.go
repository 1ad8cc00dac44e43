package solver

import "github.com/okian/arcade/pkg/logger"

// Option applies a configuration option to the BranchAndBound solver.
type Option func(*BranchAndBound)

// WithMaxNodes caps the number of search nodes per solve.
func WithMaxNodes(n int) Option {
	return func(s *BranchAndBound) {
		if n > 0 {
			s.maxNodes = n
		}
	}
}

// WithTolerance sets the integrality and feasibility tolerance.
func WithTolerance(tol float64) Option {
	return func(s *BranchAndBound) {
		if tol > 0 {
			s.tol = tol
		}
	}
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(s *BranchAndBound) {
		if l != nil {
			s.log = l
		}
	}
}
