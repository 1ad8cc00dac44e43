package loadtest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/arcade/internal/adapters/solver"
	"github.com/okian/arcade/internal/domain/knapsack"
	"github.com/okian/arcade/internal/domain/lineup"
	"github.com/okian/arcade/internal/domain/model"
	"github.com/okian/arcade/internal/domain/route"
)

func TestGenerate_Deterministic(t *testing.T) {
	engines := []string{EnginePacking, EngineRoute, EngineLineup}
	a := Generate(7, 30, engines)
	b := Generate(7, 30, engines)
	require.Len(t, a, 30)
	assert.Equal(t, a, b)

	c := Generate(8, 30, engines)
	assert.NotEqual(t, a, c)

	for i, cs := range a {
		assert.Equal(t, i, cs.ID)
		assert.Equal(t, engines[i%3], cs.Engine)
		assert.Equal(t, endpoints[cs.Engine], cs.Path)
	}
}

func TestGenerate_ZeroSeed(t *testing.T) {
	assert.Equal(t, Generate(1, 5, []string{EngineRoute}), Generate(0, 5, []string{EngineRoute}))
}

func TestGenerate_LineupPoolsIncludeShortRunningBacks(t *testing.T) {
	short := 0
	for _, cs := range Generate(3, 300, []string{EngineLineup}) {
		req := cs.Request.(LineupRequest)
		rb := 0
		for _, p := range req.Players {
			if p.Position == model.PositionRB {
				rb++
			}
		}
		if rb < 2 {
			short++
		}
	}
	assert.Positive(t, short)
	assert.Less(t, short, 100)
}

func TestVerifyPacking(t *testing.T) {
	for _, cs := range Generate(11, 20, []string{EnginePacking}) {
		req := cs.Request.(PackingRequest)
		res, err := knapsack.New().Compare(req.Items, model.PackingConstraints{
			Budget: req.Budget, MaxWeight: req.MaxWeight, CategoryLimit: req.CategoryLimit,
		})
		require.NoError(t, err)
		assert.NoError(t, verifyPacking(req, res), "case %d", cs.ID)
	}

	req := PackingRequest{Budget: 10, MaxWeight: 10}
	over := knapsack.Comparison{
		DP: model.PackingResult{Algorithm: model.AlgorithmDP, SelectedItems: []model.Item{{Name: "x", Value: 1, Weight: 1, Cost: 11}}},
	}
	assert.True(t, errors.Is(verifyPacking(req, over), ErrViolation))

	worse := knapsack.Comparison{
		DP:     model.PackingResult{Algorithm: model.AlgorithmDP, TotalValue: 1},
		Greedy: model.PackingResult{Algorithm: model.AlgorithmGreedy, TotalValue: 2},
	}
	assert.True(t, errors.Is(verifyPacking(req, worse), ErrViolation))
}

func TestVerifyRoute(t *testing.T) {
	tours, err := route.New()
	require.NoError(t, err)
	for _, cs := range Generate(5, 15, []string{EngineRoute}) {
		req := cs.Request.(RouteRequest)
		res, err := tours.Compare(model.RouteInstance{Home: req.Home, Stops: req.Stops}, *req.Seed)
		require.NoError(t, err)
		assert.NoError(t, verifyRoute(req, res), "case %d", cs.ID)
	}

	req := RouteRequest{
		Home: model.Stop{Name: "home"},
		Stops: []model.Stop{
			{Name: "a", Coordinates: model.Point{Lat: 3}},
			{Name: "b", Coordinates: model.Point{Lat: 3, Lon: 4}},
		},
	}
	good := model.RouteResult{Algorithm: model.AlgorithmTwoOpt, RouteOrder: []int{0, 1, 2, 0}, TotalDistance: 12}
	res := route.Comparison{TwoOpt: good, SimulatedAnnealing: good}
	assert.NoError(t, verifyRoute(req, res))

	res.SimulatedAnnealing = model.RouteResult{RouteOrder: []int{0, 1, 1, 0}, TotalDistance: 12}
	assert.True(t, errors.Is(verifyRoute(req, res), ErrViolation))

	res.SimulatedAnnealing = model.RouteResult{RouteOrder: []int{0, 1, 2, 0}, TotalDistance: 10}
	assert.True(t, errors.Is(verifyRoute(req, res), ErrViolation))
}

func TestVerifyLineup(t *testing.T) {
	engine := lineup.New(solver.New())
	infeasible := 0
	for _, cs := range Generate(9, 30, []string{EngineLineup}) {
		req := cs.Request.(LineupRequest)
		res, err := engine.Solve(t.Context(), req.Players, model.LineupConstraints{
			SalaryCap: req.SalaryCap, Positions: req.Positions,
		})
		require.NoError(t, err)
		if res.ConstraintInfo.Status == model.StatusInfeasible {
			infeasible++
		}
		assert.NoError(t, verifyLineup(req, res), "case %d", cs.ID)
	}
	assert.Less(t, infeasible, 30)

	req := LineupRequest{SalaryCap: 100, Positions: map[model.Position]int{model.PositionQB: 1}}
	pricey := model.LineupResult{
		Lineup:         []model.Player{{Name: "q", Position: model.PositionQB, Salary: 200}},
		TotalSalary:    200,
		ConstraintInfo: model.ConstraintInfo{Status: model.StatusOptimal},
	}
	assert.True(t, errors.Is(verifyLineup(req, pricey), ErrViolation))

	nonEmpty := model.LineupResult{
		Lineup:         []model.Player{{Name: "q", Position: model.PositionQB, Salary: 50}},
		ConstraintInfo: model.ConstraintInfo{Status: model.StatusInfeasible},
	}
	assert.True(t, errors.Is(verifyLineup(req, nonEmpty), ErrViolation))
}
