// Package compare packages two results of the same kind into a relative
// improvement report. It is shared by the knapsack and route comparisons.
package compare

// Sense says whether a larger or a smaller objective is better.
type Sense int

// Objective senses.
const (
	Maximize Sense = iota
	Minimize
)

// Metric is the small tagged-result view every engine result exposes.
type Metric interface {
	// Kind tags the producing algorithm, e.g. "dp" or "2opt".
	Kind() string
	// Objective is the value being optimized.
	Objective() float64
}

// Report compares a primary result against a secondary one.
//
// Difference is positive exactly when the primary result is better under the
// given sense. ImprovementPct is Difference relative to the secondary
// objective, or 0 when that objective is 0.
type Report struct {
	Primary        string  `json:"primary"`
	Secondary      string  `json:"secondary"`
	Difference     float64 `json:"difference"`
	ImprovementPct float64 `json:"improvement_pct"`
	PrimaryBetter  bool    `json:"primary_better"`
	// Winner is the Kind of the strictly better result, empty on a tie.
	Winner string `json:"winner"`
}

// Compare builds a Report for primary vs. secondary.
func Compare(primary, secondary Metric, sense Sense) Report {
	p, s := primary.Objective(), secondary.Objective()
	diff := p - s
	if sense == Minimize {
		diff = s - p
	}
	r := Report{
		Primary:       primary.Kind(),
		Secondary:     secondary.Kind(),
		Difference:    diff,
		PrimaryBetter: diff > 0,
	}
	if s != 0 {
		r.ImprovementPct = diff / s * 100
	}
	switch {
	case diff > 0:
		r.Winner = r.Primary
	case diff < 0:
		r.Winner = r.Secondary
	}
	return r
}
