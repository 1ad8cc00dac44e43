package loadtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/okian/arcade/internal/domain/distance"
	"github.com/okian/arcade/internal/domain/knapsack"
	"github.com/okian/arcade/internal/domain/model"
	"github.com/okian/arcade/internal/domain/route"
)

// tolerance absorbs float noise in sums reported by the service.
const tolerance = 1e-6

// ErrViolation marks an answer that breaks a solver guarantee.
var ErrViolation = errors.New("property violated")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrViolation, fmt.Sprintf(format, args...))
}

// verify checks the body of a 200 answer to c.
func verify(c Case, body []byte) error {
	switch c.Engine {
	case EnginePacking:
		var res knapsack.Comparison
		if err := json.Unmarshal(body, &res); err != nil {
			return fmt.Errorf("failed to decode packing answer: %w", err)
		}
		req, _ := c.Request.(PackingRequest)
		return verifyPacking(req, res)
	case EngineRoute:
		var res route.Comparison
		if err := json.Unmarshal(body, &res); err != nil {
			return fmt.Errorf("failed to decode route answer: %w", err)
		}
		req, _ := c.Request.(RouteRequest)
		return verifyRoute(req, res)
	case EngineLineup:
		var res model.LineupResult
		if err := json.Unmarshal(body, &res); err != nil {
			return fmt.Errorf("failed to decode lineup answer: %w", err)
		}
		req, _ := c.Request.(LineupRequest)
		return verifyLineup(req, res)
	}
	return fmt.Errorf("unknown engine %q", c.Engine)
}

// verifyPacking checks both selections fit and that DP is at least as good
// as greedy.
func verifyPacking(req PackingRequest, res knapsack.Comparison) error {
	for _, r := range []model.PackingResult{res.DP, res.Greedy} {
		var cost, weight float64
		perCategory := map[string]int{}
		for _, it := range r.SelectedItems {
			cost += it.Cost
			weight += it.Weight
			perCategory[it.Category]++
		}
		if cost > req.Budget+tolerance {
			return violation("%s cost %.2f exceeds budget %.2f", r.Algorithm, cost, req.Budget)
		}
		if weight > req.MaxWeight+tolerance {
			return violation("%s weight %.2f exceeds max weight %.2f", r.Algorithm, weight, req.MaxWeight)
		}
		for cat, limit := range req.CategoryLimit {
			if perCategory[cat] > limit {
				return violation("%s takes %d items of %s, limit %d", r.Algorithm, perCategory[cat], cat, limit)
			}
		}
	}
	if res.DP.TotalValue < res.Greedy.TotalValue-tolerance {
		return violation("dp value %.2f below greedy %.2f", res.DP.TotalValue, res.Greedy.TotalValue)
	}
	return nil
}

// verifyRoute checks both tours are closed permutations whose reported
// length matches the coordinates and never exceeds the input-order tour.
func verifyRoute(req RouteRequest, res route.Comparison) error {
	inst := model.RouteInstance{Home: req.Home, Stops: req.Stops}
	points := inst.Points()
	naive := make([]int, len(points))
	for i := range naive {
		naive[i] = i
	}
	limit := tourLength(points, naive)

	for _, r := range []model.RouteResult{res.TwoOpt, res.SimulatedAnnealing} {
		order := r.RouteOrder
		if len(order) != len(points)+1 || order[0] != 0 || order[len(order)-1] != 0 {
			return violation("%s order %v is not a closed tour from home", r.Algorithm, order)
		}
		seen := make([]bool, len(points))
		for _, idx := range order[:len(order)-1] {
			if idx < 0 || idx >= len(points) || seen[idx] {
				return violation("%s order %v is not a permutation", r.Algorithm, order)
			}
			seen[idx] = true
		}
		length := tourLength(points, order[:len(order)-1])
		if math.Abs(length-r.TotalDistance) > tolerance*math.Max(1, length) {
			return violation("%s reports %.6f, tour measures %.6f", r.Algorithm, r.TotalDistance, length)
		}
		if length > limit+tolerance*math.Max(1, limit) {
			return violation("%s tour %.6f longer than input order %.6f", r.Algorithm, length, limit)
		}
	}
	return nil
}

// verifyLineup checks salary and slot counts for a solved roster and that an
// infeasible answer carries no players.
func verifyLineup(req LineupRequest, res model.LineupResult) error {
	switch res.ConstraintInfo.Status {
	case model.StatusInfeasible:
		if len(res.Lineup) != 0 {
			return violation("infeasible answer lists %d players", len(res.Lineup))
		}
		return nil
	case model.StatusOptimal, model.StatusFeasible:
	default:
		return violation("unknown lineup status %q", res.ConstraintInfo.Status)
	}

	required := 0
	for _, n := range req.Positions {
		required += n
	}
	if len(res.Lineup) != required {
		return violation("lineup has %d players, want %d", len(res.Lineup), required)
	}
	salary := 0
	counts := map[model.Position]int{}
	for _, p := range res.Lineup {
		salary += p.Salary
		counts[p.Position]++
	}
	if salary > req.SalaryCap {
		return violation("salary %d exceeds cap %d", salary, req.SalaryCap)
	}
	if salary != res.TotalSalary {
		return violation("reported salary %d, players sum to %d", res.TotalSalary, salary)
	}
	flex := 0
	for pos, n := range req.Positions {
		if pos == model.PositionFLEX {
			continue
		}
		if counts[pos] < n {
			return violation("lineup has %d %s, want %d", counts[pos], pos, n)
		}
		if counts[pos] > n {
			if !flexEligible(pos) {
				return violation("lineup has %d %s, want %d", counts[pos], pos, n)
			}
			flex += counts[pos] - n
		}
	}
	if flex != req.Positions[model.PositionFLEX] {
		return violation("lineup fills %d flex slots, want %d", flex, req.Positions[model.PositionFLEX])
	}
	return nil
}

func flexEligible(pos model.Position) bool {
	for _, p := range model.DefaultFlexPositions {
		if p == pos {
			return true
		}
	}
	return false
}

func tourLength(points []model.Point, order []int) float64 {
	var total float64
	for i := 1; i < len(order); i++ {
		total += distance.Euclidean(points[order[i-1]], points[order[i]])
	}
	if len(order) > 1 {
		total += distance.Euclidean(points[order[len(order)-1]], points[order[0]])
	}
	return total
}
