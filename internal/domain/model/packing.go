// Package model contains the plain problem and result values exchanged
// between the solving engines and their callers.
package model

// Algorithm tags carried on results.
const (
	AlgorithmDP                 = "dp"
	AlgorithmGreedy             = "greedy"
	AlgorithmTwoOpt             = "2opt"
	AlgorithmSimulatedAnnealing = "simulated_annealing"
	AlgorithmILP                = "ilp"
)

// Item is a candidate for the knapsack.
type Item struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Cost     float64 `json:"cost"`
	Category string  `json:"category"`
}

// PackingConstraints bounds a knapsack selection.
type PackingConstraints struct {
	Budget    float64 `json:"budget"`
	MaxWeight float64 `json:"max_weight"`
	// CategoryLimit optionally caps how many items of a category may be selected.
	CategoryLimit map[string]int `json:"category_limit,omitempty"`
}

// PackingResult is the outcome of one knapsack solve.
type PackingResult struct {
	SelectedItems []Item  `json:"selected_items"`
	TotalValue    float64 `json:"total_value"`
	TotalCost     float64 `json:"total_cost"`
	TotalWeight   float64 `json:"total_weight"`
	BudgetUsedPct float64 `json:"budget_used_pct"`
	WeightUsedPct float64 `json:"weight_used_pct"`
	Algorithm     string  `json:"algorithm"`
}

// Kind implements compare.Metric.
func (r PackingResult) Kind() string { return r.Algorithm }

// Objective implements compare.Metric; knapsack results are maximized.
func (r PackingResult) Objective() float64 { return r.TotalValue }

// NewPackingResult totals the selection and fills the usage percentages.
func NewPackingResult(selected []Item, c PackingConstraints, algorithm string) PackingResult {
	res := PackingResult{
		SelectedItems: selected,
		Algorithm:     algorithm,
	}
	if res.SelectedItems == nil {
		res.SelectedItems = []Item{}
	}
	for _, it := range selected {
		res.TotalValue += it.Value
		res.TotalCost += it.Cost
		res.TotalWeight += it.Weight
	}
	res.BudgetUsedPct = percent(res.TotalCost, c.Budget)
	res.WeightUsedPct = percent(res.TotalWeight, c.MaxWeight)
	return res
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}
