// Package knapsack solves the two-capacity 0/1 knapsack: pick items
// maximizing total value while total cost stays within the budget and total
// weight within the weight limit.
//
// Capacities are compared in integer units of 1/ScaleFactor. Item costs and
// weights are rounded up and the capacities rounded down, so any selection
// that fits in units also fits in the original fractional quantities. The
// price is precision: sub-unit fractions are charged as a full unit, which
// can exclude a selection that would fit exactly. Both algorithms use the same
// units, so the exact solver is never beaten by the greedy one.
package knapsack

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/okian/arcade/internal/domain/compare"
	"github.com/okian/arcade/internal/domain/model"
)

// ScaleFactor converts costs and weights into integer units (two decimals).
const ScaleFactor = 100

// scaleExp is log10(ScaleFactor), used for exact decimal shifting.
const scaleExp = 2

// MaxAmount is the largest item cost or weight accepted. Larger amounts do
// not survive scaling to units without overflow.
const MaxAmount = 1e13

// maxTotalUnits bounds the summed item units so no partial sum can overflow.
const maxTotalUnits = math.MaxInt64 / 2

// defaultMaxStates bounds the DP trace kept for backtracking.
const defaultMaxStates = 4_000_000

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithMaxStates caps the number of DP states kept across all item prefixes.
func WithMaxStates(n int) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxStates = n
		}
	}
}

// Solver runs the knapsack algorithms. It holds configuration only and is safe
// for concurrent use.
type Solver struct {
	maxStates int
}

// New creates a Solver.
func New(opts ...Option) *Solver {
	s := &Solver{maxStates: defaultMaxStates}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Comparison is the payload of a DP vs. greedy run on one instance.
type Comparison struct {
	DP         model.PackingResult `json:"dp"`
	Greedy     model.PackingResult `json:"greedy"`
	Comparison compare.Report      `json:"comparison"`
}

// Compare solves the instance with both algorithms. The DP result is the
// primary side, so the reported difference is never negative.
func (s *Solver) Compare(items []model.Item, c model.PackingConstraints) (Comparison, error) {
	dp, err := s.SolveExact(items, c)
	if err != nil {
		return Comparison{}, err
	}
	greedy, err := s.SolveGreedy(items, c)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		DP:         dp,
		Greedy:     greedy,
		Comparison: compare.Compare(dp, greedy, compare.Maximize),
	}, nil
}

// Solve dispatches on the algorithm tag ("dp" or "greedy").
func (s *Solver) Solve(items []model.Item, c model.PackingConstraints, algorithm string) (model.PackingResult, error) {
	switch algorithm {
	case model.AlgorithmDP, "":
		return s.SolveExact(items, c)
	case model.AlgorithmGreedy:
		return s.SolveGreedy(items, c)
	default:
		return model.PackingResult{}, fmt.Errorf("%w: unknown packing algorithm %q", model.ErrInvalidInput, algorithm)
	}
}

// SolveExact runs the DP with default settings.
func SolveExact(items []model.Item, c model.PackingConstraints) (model.PackingResult, error) {
	return New().SolveExact(items, c)
}

// SolveGreedy runs the greedy heuristic with default settings.
func SolveGreedy(items []model.Item, c model.PackingConstraints) (model.PackingResult, error) {
	return New().SolveGreedy(items, c)
}

// ToUnitsCeil scales x to integer units, rounding up. x must not exceed
// MaxAmount.
func ToUnitsCeil(x float64) int64 {
	return decimal.NewFromFloat(x).Shift(scaleExp).Ceil().IntPart()
}

// ToUnitsFloor scales x to integer units, rounding down. x must not exceed
// MaxAmount; capacities go through capacityUnits instead.
func ToUnitsFloor(x float64) int64 {
	return decimal.NewFromFloat(x).Shift(scaleExp).Floor().IntPart()
}

// instance is a validated problem in integer units.
type instance struct {
	items   []model.Item
	cost    []int64
	weight  []int64
	budget  int64
	maxW    int64
	rawCons model.PackingConstraints
}

func validate(items []model.Item, c model.PackingConstraints) (*instance, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", model.ErrInvalidInput)
	}
	if !finiteNonNegative(c.Budget) {
		return nil, fmt.Errorf("%w: budget must be a finite non-negative number", model.ErrInvalidInput)
	}
	if !finiteNonNegative(c.MaxWeight) {
		return nil, fmt.Errorf("%w: max_weight must be a finite non-negative number", model.ErrInvalidInput)
	}
	for cat, limit := range c.CategoryLimit {
		if limit < 0 {
			return nil, fmt.Errorf("%w: category_limit[%q] must be non-negative", model.ErrInvalidInput, cat)
		}
	}
	inst := &instance{
		items:   items,
		cost:    make([]int64, len(items)),
		weight:  make([]int64, len(items)),
		rawCons: c,
	}
	var totalCost, totalWeight int64
	for i, it := range items {
		switch {
		case !finiteNonNegative(it.Value):
			return nil, fmt.Errorf("%w: item %d (%q) value must be a finite non-negative number", model.ErrInvalidInput, i, it.Name)
		case !finiteNonNegative(it.Cost):
			return nil, fmt.Errorf("%w: item %d (%q) cost must be a finite non-negative number", model.ErrInvalidInput, i, it.Name)
		case !finiteNonNegative(it.Weight):
			return nil, fmt.Errorf("%w: item %d (%q) weight must be a finite non-negative number", model.ErrInvalidInput, i, it.Name)
		case it.Cost > MaxAmount || it.Weight > MaxAmount:
			return nil, fmt.Errorf("%w: item %d (%q) cost and weight must not exceed %g", model.ErrInvalidInput, i, it.Name, MaxAmount)
		}
		inst.cost[i] = ToUnitsCeil(it.Cost)
		inst.weight[i] = ToUnitsCeil(it.Weight)
		totalCost += inst.cost[i]
		totalWeight += inst.weight[i]
		if totalCost > maxTotalUnits || totalWeight > maxTotalUnits {
			return nil, fmt.Errorf("%w: total item cost or weight too large", model.ErrInvalidInput)
		}
	}
	inst.budget = capacityUnits(c.Budget, totalCost)
	inst.maxW = capacityUnits(c.MaxWeight, totalWeight)
	return inst, nil
}

// capacityUnits scales a capacity down to units, clamped to total. A capacity
// at or above the total of all items never binds.
func capacityUnits(x float64, total int64) int64 {
	units := decimal.NewFromFloat(x).Shift(scaleExp).Floor()
	if units.GreaterThanOrEqual(decimal.NewFromInt(total)) {
		return total
	}
	return units.IntPart()
}

// fits reports whether item i can ever be packed on its own.
func (in *instance) fits(i int) bool {
	return in.cost[i] <= in.budget && in.weight[i] <= in.maxW
}

func finiteNonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 0) && !math.IsNaN(x)
}
