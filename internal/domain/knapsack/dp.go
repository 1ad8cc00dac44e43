package knapsack

import (
	"fmt"
	"sort"

	"github.com/okian/arcade/internal/domain/model"
)

// ErrInstanceTooLarge is returned when the DP would need more states than the
// solver allows. It wraps model.ErrInvalidInput.
var ErrInstanceTooLarge = fmt.Errorf("%w: instance too large for exact solve", model.ErrInvalidInput)

// node is a reachable (cost, weight, category code) point with the best value
// found for it along one path.
type node struct {
	cost   int64
	weight int64
	code   int64
	value  float64
}

// link records how a node was reached from the previous item prefix.
type link struct {
	parent int32
	took   bool
}

// SolveExact returns a value-maximizing selection that respects both
// capacities (in units) and the category limits.
//
// The DP walks items in input order keeping, per prefix, only states that are
// not dominated by another state with the same category code and no more
// cost, no more weight and at least as much value. Links are kept per layer to
// rebuild the chosen subset. Ties go to the lower cost, then the lower weight.
func (s *Solver) SolveExact(items []model.Item, c model.PackingConstraints) (model.PackingResult, error) {
	in, err := validate(items, c)
	if err != nil {
		return model.PackingResult{}, err
	}
	limits := newCategoryLimits(items, c.CategoryLimit)
	if limits.saturated() {
		return model.PackingResult{}, fmt.Errorf("%w: category combinations overflow", ErrInstanceTooLarge)
	}
	if limits.states > int64(s.maxStates) {
		return model.PackingResult{}, fmt.Errorf("%w: %d category combinations", ErrInstanceTooLarge, limits.states)
	}

	cur := []node{{}}
	layers := make([][]link, 0, len(items))
	kept := 1

	for i, it := range items {
		next := make([]node, 0, 2*len(cur))
		links := make([]link, 0, 2*len(cur))
		for p, n := range cur {
			next = append(next, n)
			links = append(links, link{parent: int32(p)})
		}
		if in.fits(i) {
			for p, n := range cur {
				cost, weight := n.cost+in.cost[i], n.weight+in.weight[i]
				if cost > in.budget || weight > in.maxW {
					continue
				}
				code, ok := limits.add(n.code, it.Category)
				if !ok {
					continue
				}
				next = append(next, node{cost: cost, weight: weight, code: code, value: n.value + it.Value})
				links = append(links, link{parent: int32(p), took: true})
			}
		}
		cur, links = prune(next, links)
		kept += len(cur)
		if kept > s.maxStates {
			return model.PackingResult{}, fmt.Errorf("%w: more than %d states after %d of %d items",
				ErrInstanceTooLarge, s.maxStates, i+1, len(items))
		}
		layers = append(layers, links)
	}

	best := 0
	for idx := 1; idx < len(cur); idx++ {
		if better(cur[idx], cur[best]) {
			best = idx
		}
	}

	take := make([]bool, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		l := layers[i][best]
		take[i] = l.took
		best = int(l.parent)
	}
	if best != 0 {
		return model.PackingResult{}, fmt.Errorf("%w: knapsack backtrack did not reach the empty state", model.ErrSolver)
	}

	selected := make([]model.Item, 0, len(items))
	for i, t := range take {
		if t {
			selected = append(selected, items[i])
		}
	}
	return model.NewPackingResult(selected, c, model.AlgorithmDP), nil
}

// better orders final states: higher value, then lower cost, then lower weight.
func better(a, b node) bool {
	if a.value != b.value {
		return a.value > b.value
	}
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	return a.weight < b.weight
}

// prune drops dominated states. The returned nodes and links stay parallel.
// States are visited per category code by ascending cost, weight and then
// descending value; a state survives only when its value beats every earlier
// state of the same code with no more weight.
func prune(nodes []node, links []link) ([]node, []link) {
	idx := make([]int, len(nodes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		x, y := nodes[idx[a]], nodes[idx[b]]
		if x.code != y.code {
			return x.code < y.code
		}
		if x.cost != y.cost {
			return x.cost < y.cost
		}
		if x.weight != y.weight {
			return x.weight < y.weight
		}
		return x.value > y.value
	})

	outNodes := make([]node, 0, len(nodes))
	outLinks := make([]link, 0, len(nodes))
	for start := 0; start < len(idx); {
		end := start
		for end < len(idx) && nodes[idx[end]].code == nodes[idx[start]].code {
			end++
		}
		group := idx[start:end]

		weights := make([]int64, len(group))
		for j, g := range group {
			weights[j] = nodes[g].weight
		}
		sort.Slice(weights, func(a, b int) bool { return weights[a] < weights[b] })
		weights = uniq(weights)

		tree := newMaxTree(len(weights))
		for _, g := range group {
			n := nodes[g]
			rank := sort.Search(len(weights), func(k int) bool { return weights[k] >= n.weight })
			if found, best := tree.prefixMax(rank); found && best >= n.value {
				continue
			}
			tree.update(rank, n.value)
			outNodes = append(outNodes, n)
			outLinks = append(outLinks, links[g])
		}
		start = end
	}
	return outNodes, outLinks
}

func uniq(xs []int64) []int64 {
	if len(xs) == 0 {
		return xs
	}
	out := xs[:1]
	for _, x := range xs[1:] {
		if x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}

// maxTree is a Fenwick tree answering prefix maxima over weight ranks.
type maxTree struct {
	val []float64
	set []bool
}

func newMaxTree(n int) *maxTree {
	return &maxTree{val: make([]float64, n+1), set: make([]bool, n+1)}
}

func (t *maxTree) update(rank int, v float64) {
	for i := rank + 1; i < len(t.val); i += i & -i {
		if !t.set[i] || v > t.val[i] {
			t.val[i], t.set[i] = v, true
		}
	}
}

// prefixMax returns the maximum over ranks 0..rank inclusive.
func (t *maxTree) prefixMax(rank int) (bool, float64) {
	found, best := false, 0.0
	for i := rank + 1; i > 0; i -= i & -i {
		if t.set[i] && (!found || t.val[i] > best) {
			found, best = true, t.val[i]
		}
	}
	return found, best
}
