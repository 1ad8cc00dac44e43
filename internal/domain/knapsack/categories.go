package knapsack

import (
	"math"
	"sort"

	"github.com/okian/arcade/internal/domain/model"
)

// categoryLimits encodes per-category selection counts as one mixed-radix
// integer so the DP can carry them in its state. Only binding limits (smaller
// than the number of items in the category) take part.
type categoryLimits struct {
	digit  map[string]int // category -> digit position
	limit  []int64        // digit position -> max count
	radix  []int64        // digit position -> place value
	states int64          // number of distinct codes, math.MaxInt64 once it no longer fits
}

func newCategoryLimits(items []model.Item, limits map[string]int) categoryLimits {
	cl := categoryLimits{digit: map[string]int{}, states: 1}
	if len(limits) == 0 {
		return cl
	}
	counts := map[string]int{}
	for _, it := range items {
		counts[it.Category]++
	}
	cats := make([]string, 0, len(limits))
	for cat, limit := range limits {
		if limit < counts[cat] {
			cats = append(cats, cat)
		}
	}
	sort.Strings(cats)
	for _, cat := range cats {
		base := int64(limits[cat]) + 1
		if cl.states > math.MaxInt64/base {
			return categoryLimits{digit: map[string]int{}, states: math.MaxInt64}
		}
		cl.digit[cat] = len(cl.limit)
		cl.limit = append(cl.limit, int64(limits[cat]))
		cl.radix = append(cl.radix, cl.states)
		cl.states *= base
	}
	return cl
}

// saturated reports whether the code space overflowed int64. Such limits have
// no digits and must not be used to encode state.
func (cl categoryLimits) saturated() bool {
	return cl.states == math.MaxInt64
}

// add returns code with one more item of category, or false when the limit
// for that category is already reached.
func (cl categoryLimits) add(code int64, category string) (int64, bool) {
	d, ok := cl.digit[category]
	if !ok {
		return code, true
	}
	count := (code / cl.radix[d]) % (cl.limit[d] + 1)
	if count >= cl.limit[d] {
		return code, false
	}
	return code + cl.radix[d], true
}
