package route

import (
	"github.com/okian/arcade/internal/domain/distance"
	"github.com/okian/arcade/internal/domain/model"
)

// SolveTwoOpt improves the input-order tour with first-improvement 2-opt.
//
// Each pass scans every segment t[i..k] (1 ≤ i < k ≤ n) and applies a
// reversal as soon as it shortens the tour by more than a tiny epsilon, then
// keeps scanning. It stops after a pass with no improving move or after the
// pass cap. The result is never longer than the input-order tour.
func (s *Solver) SolveTwoOpt(inst model.RouteInstance) (model.RouteResult, error) {
	m, tour, err := prepare(inst)
	if err != nil {
		return model.RouteResult{}, err
	}
	if len(tour) < 4 {
		// Fewer than three stops: every closed tour has the same length.
		return model.NewRouteResult(inst, tour, distance.TourLength(m, tour), model.AlgorithmTwoOpt), nil
	}

	last := len(tour) - 1
	for pass := 0; pass < s.maxPasses; pass++ {
		improved := false
		for i := 1; i < last; i++ {
			for k := i + 1; k <= last; k++ {
				if reversalDelta(m, tour, i, k) < -improveEps {
					reverse(tour, i, k)
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return model.NewRouteResult(inst, tour, distance.TourLength(m, tour), model.AlgorithmTwoOpt), nil
}
