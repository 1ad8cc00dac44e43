package route

import (
	"math"
	"math/rand"

	"github.com/okian/arcade/internal/domain/distance"
	"github.com/okian/arcade/internal/domain/model"
)

// defaultSeed replaces a zero seed so that zero still yields a fixed stream.
const defaultSeed int64 = 1

// newRand returns a deterministic source for seed.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewSource(seed))
}

// SolveAnnealing runs simulated annealing from the input-order tour.
//
// Every iteration proposes reversing a random segment t[i..k] and accepts it
// when it does not lengthen the tour, or otherwise with probability
// exp(−Δ/T). T starts at T0 and is multiplied by the cooling rate each
// iteration, never dropping below the floor. The best tour visited is
// returned, so the result is never longer than the starting tour. The output
// depends only on the instance, the options and seed.
func (s *Solver) SolveAnnealing(inst model.RouteInstance, seed int64) (model.RouteResult, error) {
	m, tour, err := prepare(inst)
	if err != nil {
		return model.RouteResult{}, err
	}
	current := distance.TourLength(m, tour)
	if len(tour) < 3 {
		return model.NewRouteResult(inst, tour, current, model.AlgorithmSimulatedAnnealing), nil
	}

	temp, floor := s.schedule(current, len(tour))
	rng := newRand(seed)
	best := append([]int(nil), tour...)
	bestLen := current
	last := len(tour) - 1

	for it := 0; it < s.iterations; it++ {
		i := 1 + rng.Intn(last-1)
		k := i + 1 + rng.Intn(last-i)
		delta := reversalDelta(m, tour, i, k)
		if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
			reverse(tour, i, k)
			current += delta
			if current < bestLen {
				// Resync to drop accumulated rounding before recording a new best.
				current = distance.TourLength(m, tour)
				if current < bestLen {
					bestLen = current
					copy(best, tour)
				}
			}
		}
		temp = math.Max(temp*s.coolingRate, floor)
	}

	return model.NewRouteResult(inst, best, bestLen, model.AlgorithmSimulatedAnnealing), nil
}

// schedule resolves T0 and the floor for a tour of the given length over
// legs edges.
func (s *Solver) schedule(length float64, legs int) (t0, floor float64) {
	t0 = s.initialTemp
	if t0 == 0 {
		t0 = length / float64(legs)
	}
	if t0 == 0 {
		// Every point coincides; any positive temperature behaves the same.
		t0 = 1
	}
	floor = s.minTemp
	if floor == 0 {
		floor = t0 * minTempRatio
	}
	if floor > t0 {
		floor = t0
	}
	return t0, floor
}
