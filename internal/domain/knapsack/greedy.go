package knapsack

import (
	"math"
	"sort"

	"github.com/okian/arcade/internal/domain/model"
)

// SolveGreedy orders items by value/cost ratio (descending, ties in input
// order) and packs each one that still fits both capacities and its category
// limit. It never backtracks. Selected items are returned in input order.
func (s *Solver) SolveGreedy(items []model.Item, c model.PackingConstraints) (model.PackingResult, error) {
	in, err := validate(items, c)
	if err != nil {
		return model.PackingResult{}, err
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return ratio(items[order[a]]) > ratio(items[order[b]])
	})

	var (
		usedCost, usedWeight int64
		taken                = map[string]int{}
		take                 = make([]bool, len(items))
	)
	for _, i := range order {
		if usedCost+in.cost[i] > in.budget || usedWeight+in.weight[i] > in.maxW {
			continue
		}
		cat := items[i].Category
		if limit, ok := c.CategoryLimit[cat]; ok && taken[cat] >= limit {
			continue
		}
		taken[cat]++
		usedCost += in.cost[i]
		usedWeight += in.weight[i]
		take[i] = true
	}

	selected := make([]model.Item, 0, len(items))
	for i, t := range take {
		if t {
			selected = append(selected, items[i])
		}
	}
	return model.NewPackingResult(selected, c, model.AlgorithmGreedy), nil
}

// ratio is value per unit cost; free items with value rank first.
func ratio(it model.Item) float64 {
	if it.Cost > 0 {
		return it.Value / it.Cost
	}
	if it.Value > 0 {
		return math.Inf(1)
	}
	return 0
}
