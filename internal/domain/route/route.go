// Package route builds closed tours that start and end at a fixed home stop.
//
// Tours are handled internally in open form: t[0] is home (index 0), t[1:]
// is a permutation of the stop indices, and the closing leg back to home is
// implicit. Results are expanded to the closed form by model.NewRouteResult.
package route

import (
	"fmt"
	"math"

	"github.com/okian/arcade/internal/domain/compare"
	"github.com/okian/arcade/internal/domain/distance"
	"github.com/okian/arcade/internal/domain/model"
	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultMaxPasses caps full 2-opt sweeps.
	DefaultMaxPasses = 100
	// DefaultIterations is the simulated annealing move budget.
	DefaultIterations = 10000
	// DefaultCoolingRate is the per-iteration geometric temperature factor.
	DefaultCoolingRate = 0.999
	// minTempRatio sets the default temperature floor relative to T0.
	minTempRatio = 1e-4
	// improveEps is the smallest length decrease 2-opt accepts.
	improveEps = 1e-9
)

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithMaxPasses sets the 2-opt pass cap.
func WithMaxPasses(n int) Option {
	return func(s *Solver) { s.maxPasses = n }
}

// WithIterations sets the simulated annealing iteration budget.
func WithIterations(n int) Option {
	return func(s *Solver) { s.iterations = n }
}

// WithInitialTemp fixes T0. Zero derives it from the instance: the mean leg
// length of the starting tour.
func WithInitialTemp(t float64) Option {
	return func(s *Solver) { s.initialTemp = t }
}

// WithCoolingRate sets the factor applied to the temperature every iteration.
func WithCoolingRate(alpha float64) Option {
	return func(s *Solver) { s.coolingRate = alpha }
}

// WithMinTemp sets the temperature floor. Zero means T0·1e-4.
func WithMinTemp(t float64) Option {
	return func(s *Solver) { s.minTemp = t }
}

// Solver runs the route algorithms. It holds configuration only; every call
// builds its own matrix and random source, so a Solver is safe for concurrent
// use.
type Solver struct {
	maxPasses   int
	iterations  int
	initialTemp float64
	coolingRate float64
	minTemp     float64
}

// New creates a Solver, validating the schedule options.
func New(opts ...Option) (*Solver, error) {
	s := &Solver{
		maxPasses:   DefaultMaxPasses,
		iterations:  DefaultIterations,
		coolingRate: DefaultCoolingRate,
	}
	for _, opt := range opts {
		opt(s)
	}
	switch {
	case s.maxPasses < 1:
		return nil, fmt.Errorf("%w: max passes must be positive, got %d", model.ErrInvalidInput, s.maxPasses)
	case s.iterations < 0:
		return nil, fmt.Errorf("%w: iterations must be non-negative, got %d", model.ErrInvalidInput, s.iterations)
	case !(s.coolingRate > 0 && s.coolingRate <= 1):
		return nil, fmt.Errorf("%w: cooling rate must be in (0, 1], got %v", model.ErrInvalidInput, s.coolingRate)
	case !finiteNonNegative(s.initialTemp):
		return nil, fmt.Errorf("%w: initial temperature must be finite and non-negative", model.ErrInvalidInput)
	case !finiteNonNegative(s.minTemp):
		return nil, fmt.Errorf("%w: minimum temperature must be finite and non-negative", model.ErrInvalidInput)
	}
	return s, nil
}

// Comparison is the payload of a 2-opt vs. simulated annealing run.
type Comparison struct {
	TwoOpt             model.RouteResult `json:"2opt"`
	SimulatedAnnealing model.RouteResult `json:"simulated_annealing"`
	Comparison         compare.Report    `json:"comparison"`
}

// Compare runs both algorithms on inst. Simulated annealing is the primary
// side: a positive difference means it found the shorter tour.
func (s *Solver) Compare(inst model.RouteInstance, seed int64) (Comparison, error) {
	two, err := s.SolveTwoOpt(inst)
	if err != nil {
		return Comparison{}, err
	}
	sa, err := s.SolveAnnealing(inst, seed)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		TwoOpt:             two,
		SimulatedAnnealing: sa,
		Comparison:         compare.Compare(sa, two, compare.Minimize),
	}, nil
}

// Solve dispatches on the algorithm tag ("2opt" or "simulated_annealing").
func (s *Solver) Solve(inst model.RouteInstance, algorithm string, seed int64) (model.RouteResult, error) {
	switch algorithm {
	case model.AlgorithmTwoOpt, "":
		return s.SolveTwoOpt(inst)
	case model.AlgorithmSimulatedAnnealing:
		return s.SolveAnnealing(inst, seed)
	default:
		return model.RouteResult{}, fmt.Errorf("%w: unknown route algorithm %q", model.ErrInvalidInput, algorithm)
	}
}

// prepare validates inst and returns its distance matrix and the input-order
// starting tour.
func prepare(inst model.RouteInstance) (*mat.SymDense, []int, error) {
	if err := validatePoint("home", inst.Home.Coordinates); err != nil {
		return nil, nil, err
	}
	for i, st := range inst.Stops {
		if err := validatePoint(fmt.Sprintf("stop %d (%q)", i, st.Name), st.Coordinates); err != nil {
			return nil, nil, err
		}
		if st.Duration < 0 {
			return nil, nil, fmt.Errorf("%w: stop %d (%q) duration must be non-negative", model.ErrInvalidInput, i, st.Name)
		}
	}
	tour := make([]int, len(inst.Stops)+1)
	for i := range tour {
		tour[i] = i
	}
	return distance.Matrix(inst.Points()), tour, nil
}

func validatePoint(what string, p model.Point) error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: %s coordinates must be finite", model.ErrInvalidInput, what)
	}
	return nil
}

// reverse flips t[i..k] in place.
func reverse(t []int, i, k int) {
	for i < k {
		t[i], t[k] = t[k], t[i]
		i++
		k--
	}
}

// reversalDelta is the length change of reversing t[i..k], 1 ≤ i < k < len(t).
func reversalDelta(m *mat.SymDense, t []int, i, k int) float64 {
	a, b, c := t[i-1], t[i], t[k]
	d := t[(k+1)%len(t)]
	return m.At(a, c) + m.At(b, d) - m.At(a, b) - m.At(c, d)
}

func finiteNonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}
