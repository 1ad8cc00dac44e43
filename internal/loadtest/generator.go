package loadtest

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/arcade/internal/domain/model"
)

var (
	categories = []string{"food", "gear", "clothes", "tools"}
	positions  = []model.Position{model.PositionQB, model.PositionRB, model.PositionWR, model.PositionTE, model.PositionDST}
	rosterSlot = map[model.Position]int{
		model.PositionQB:   1,
		model.PositionRB:   2,
		model.PositionWR:   2,
		model.PositionTE:   1,
		model.PositionFLEX: 1,
		model.PositionDST:  1,
	}
)

// PackingRequest is the body of the packing endpoints.
type PackingRequest struct {
	Items         []model.Item   `json:"items"`
	Budget        float64        `json:"budget"`
	MaxWeight     float64        `json:"max_weight"`
	CategoryLimit map[string]int `json:"category_limit,omitempty"`
}

// RouteRequest is the body of the route endpoints.
type RouteRequest struct {
	Home  model.Stop   `json:"home"`
	Stops []model.Stop `json:"stops"`
	Seed  *int64       `json:"seed,omitempty"`
}

// LineupRequest is the body of the lineup endpoint.
type LineupRequest struct {
	Players   []model.Player         `json:"players"`
	SalaryCap int                    `json:"salary_cap"`
	Positions map[model.Position]int `json:"positions"`
}

// Case is one generated request.
type Case struct {
	ID      int    `json:"id"`
	Engine  string `json:"engine"`
	Path    string `json:"path"`
	Request any    `json:"request"`
}

// Generate builds n cases cycling through engines. Case i depends only on
// seed and i.
func Generate(seed int64, n int, engines []string) []Case {
	if seed == 0 {
		seed = 1
	}
	cases := make([]Case, n)
	for i := range cases {
		rng := rand.New(rand.NewSource(deriveSeed(seed, uint64(i))))
		engine := engines[i%len(engines)]
		c := Case{ID: i, Engine: engine, Path: endpoints[engine]}
		switch engine {
		case EnginePacking:
			c.Request = packingCase(rng)
		case EngineRoute:
			c.Request = routeCase(rng)
		case EngineLineup:
			c.Request = lineupCase(rng)
		}
		cases[i] = c
	}
	return cases
}

// deriveSeed mixes a parent seed and a stream id with the SplitMix64
// finalizer.
func deriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// cents rounds to two decimals, the resolution the knapsack solver uses.
func cents(x float64) float64 { return math.Round(x*100) / 100 }

func packingCase(rng *rand.Rand) PackingRequest {
	n := 5 + rng.Intn(16)
	req := PackingRequest{
		Items:     make([]model.Item, n),
		Budget:    cents(100 + rng.Float64()*900),
		MaxWeight: cents(10 + rng.Float64()*50),
	}
	for i := range req.Items {
		req.Items[i] = model.Item{
			Name:     fmt.Sprintf("item-%d", i),
			Value:    cents(1 + rng.Float64()*99),
			Weight:   cents(0.5 + rng.Float64()*19.5),
			Cost:     cents(1 + rng.Float64()*199),
			Category: categories[rng.Intn(len(categories))],
		}
	}
	if rng.Intn(2) == 0 {
		req.CategoryLimit = map[string]int{categories[rng.Intn(len(categories))]: 1 + rng.Intn(3)}
	}
	return req
}

func routeCase(rng *rand.Rand) RouteRequest {
	n := 3 + rng.Intn(10)
	point := func() model.Point {
		return model.Point{Lat: cents(rng.Float64() * 100), Lon: cents(rng.Float64() * 100)}
	}
	seed := rng.Int63()
	req := RouteRequest{
		Home:  model.Stop{Name: "home", Coordinates: point()},
		Stops: make([]model.Stop, n),
		Seed:  &seed,
	}
	for i := range req.Stops {
		req.Stops[i] = model.Stop{
			Name:        fmt.Sprintf("stop-%d", i),
			Duration:    rng.Intn(60),
			Coordinates: point(),
		}
	}
	return req
}

// lineupCase draws a pool of 2 to 4 players per position. Roughly one pool in
// ten lacks a second running back, so infeasible answers are exercised too.
func lineupCase(rng *rand.Rand) LineupRequest {
	req := LineupRequest{
		SalaryCap: 50000,
		Positions: rosterSlot,
	}
	for _, pos := range positions {
		count := 2 + rng.Intn(3)
		if pos == model.PositionRB && rng.Intn(10) == 0 {
			count = 1
		}
		for j := 0; j < count; j++ {
			req.Players = append(req.Players, model.Player{
				Name:       fmt.Sprintf("%s-%d", pos, j),
				Position:   pos,
				Salary:     3000 + 100*rng.Intn(61),
				Projection: cents(2 + rng.Float64()*25),
			})
		}
	}
	return req
}
