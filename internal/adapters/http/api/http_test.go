package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/arcade/internal/adapters/http/api"
	service "github.com/okian/arcade/internal/app"
	"github.com/okian/arcade/internal/domain/compare"
	"github.com/okian/arcade/internal/domain/knapsack"
	"github.com/okian/arcade/internal/domain/model"
	"github.com/okian/arcade/internal/domain/route"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps records the last call and answers with err when set. A lineup
// call answers with no roster when noLineup is set.
type mockDeps struct {
	err      error
	noLineup bool

	algorithm   string
	seed        *int64
	constraints model.PackingConstraints
	lineup      model.LineupConstraints
	items       []model.Item
}

func (m *mockDeps) KnapsackSolve(_ context.Context, items []model.Item, c model.PackingConstraints, algorithm string) (model.PackingResult, error) {
	m.items, m.constraints, m.algorithm = items, c, algorithm
	if m.err != nil {
		return model.PackingResult{}, m.err
	}
	return model.NewPackingResult(items, c, algorithm), nil
}

func (m *mockDeps) KnapsackCompare(_ context.Context, items []model.Item, c model.PackingConstraints) (knapsack.Comparison, error) {
	m.items, m.constraints = items, c
	if m.err != nil {
		return knapsack.Comparison{}, m.err
	}
	dp := model.NewPackingResult(items, c, model.AlgorithmDP)
	greedy := model.NewPackingResult(nil, c, model.AlgorithmGreedy)
	return knapsack.Comparison{DP: dp, Greedy: greedy, Comparison: compare.Compare(dp, greedy, compare.Maximize)}, nil
}

func (m *mockDeps) RouteSolve(_ context.Context, inst model.RouteInstance, algorithm string, seed *int64) (model.RouteResult, error) {
	m.algorithm, m.seed = algorithm, seed
	if m.err != nil {
		return model.RouteResult{}, m.err
	}
	return model.NewRouteResult(inst, []int{0, 1}, 2, algorithm), nil
}

func (m *mockDeps) RouteCompare(_ context.Context, inst model.RouteInstance, seed *int64) (route.Comparison, error) {
	m.seed = seed
	if m.err != nil {
		return route.Comparison{}, m.err
	}
	a := model.NewRouteResult(inst, []int{0, 1}, 2, model.AlgorithmTwoOpt)
	b := model.NewRouteResult(inst, []int{0, 1}, 2, model.AlgorithmSimulatedAnnealing)
	return route.Comparison{TwoOpt: a, SimulatedAnnealing: b, Comparison: compare.Compare(b, a, compare.Minimize)}, nil
}

func (m *mockDeps) LineupSolve(_ context.Context, players []model.Player, c model.LineupConstraints) (model.LineupResult, error) {
	m.lineup = c
	if m.err != nil {
		return model.LineupResult{}, m.err
	}
	if m.noLineup {
		return model.LineupResult{
			Lineup: []model.Player{},
			ConstraintInfo: model.ConstraintInfo{
				Status:         model.StatusInfeasible,
				PositionCounts: map[model.Position]int{},
				Error:          model.NoLineupMessage,
			},
		}, nil
	}
	return model.LineupResult{
		Lineup:          players[:1],
		TotalProjection: players[0].Projection,
		TotalSalary:     players[0].Salary,
		ConstraintInfo:  model.ConstraintInfo{Status: model.StatusOptimal},
	}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

const packingBody = `{"items":[{"name":"tent","value":10,"weight":3,"cost":50}],"budget":500,"max_weight":50}`

func newMux(deps *mockDeps, opts ...api.Option) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		mux := newMux(&mockDeps{})

		Convey("Then health endpoint should expose metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("And stats endpoint should be accessible", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And dashboard endpoint should serve HTML with refresh control", func() {
			w := do(mux, http.MethodGet, "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := w.Body.String()
			So(body, ShouldContainSubstring, "id=\"refresh-interval\"")
			So(body, ShouldContainSubstring, "id=\"refresh-control\"")
		})

		Convey("And solve endpoints should reject GET", func() {
			for _, path := range []string{"/api/packing/solve", "/api/packing/compare", "/api/route/solve", "/api/route/compare", "/api/lineup/solve"} {
				So(do(mux, http.MethodGet, path, "").Code, ShouldEqual, http.StatusNotFound)
			}
		})

		Convey("And a nil mux should panic", func() {
			So(func() { api.NewServer(&mockDeps{}, &mockStatsProvider{}).Register(context.Background(), nil) }, ShouldPanic)
		})
	})
}

func TestPackingHandler(t *testing.T) {
	Convey("Given the packing endpoints", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When solving with the greedy algorithm", func() {
			body := `{"items":[{"name":"tent","value":10,"weight":3,"cost":50,"category":"camp"}],
				"budget":500,"max_weight":50,"category_limit":{"camp":1},"algorithm":"greedy"}`
			w := do(mux, http.MethodPost, "/api/packing/solve", body)

			Convey("Then the request should reach the service intact", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.algorithm, ShouldEqual, model.AlgorithmGreedy)
				So(deps.constraints.Budget, ShouldEqual, 500)
				So(deps.constraints.CategoryLimit["camp"], ShouldEqual, 1)
				So(deps.items[0].Category, ShouldEqual, "camp")
			})

			Convey("And the result should use the wire field names", func() {
				var res map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res["total_value"], ShouldEqual, 10.0)
				So(res["budget_used_pct"], ShouldEqual, 10.0)
				So(res["algorithm"], ShouldEqual, "greedy")
			})
		})

		Convey("When comparing", func() {
			w := do(mux, http.MethodPost, "/api/packing/compare", packingBody)

			Convey("Then the payload should hold dp, greedy and comparison", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res map[string]json.RawMessage
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res, ShouldContainKey, "dp")
				So(res, ShouldContainKey, "greedy")
				So(res, ShouldContainKey, "comparison")
			})
		})

		Convey("When the request is malformed", func() {
			cases := []string{
				`{"items":`,
				`{"items":[],"budget":5,"max_weight":5}`,
				`{"items":[{"name":"a","value":1,"weight":1,"cost":1}],"budget":0,"max_weight":5}`,
				`{"items":[{"name":"a","value":1,"weight":1,"cost":1}],"budget":5,"max_weight":-1}`,
				`{"items":[{"name":"a","value":0,"weight":1,"cost":1}],"budget":5,"max_weight":5}`,
				`{"items":[{"name":"a","value":1,"weight":1,"cost":1}],"budget":5,"max_weight":5,"algorithm":"bogo"}`,
			}

			Convey("Then every case should be a bad request", func() {
				for _, body := range cases {
					w := do(mux, http.MethodPost, "/api/packing/solve", body)
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(decodeError(w)["code"], ShouldEqual, "bad_request")
				}
			})
		})

		Convey("When the content type is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/packing/solve", strings.NewReader(packingBody))
			req.Header.Set("Content-Type", "text/plain")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should be refused", func() {
				So(w.Code, ShouldEqual, http.StatusUnsupportedMediaType)
			})
		})
	})

	Convey("Given a server with a small body limit", t, func() {
		mux := newMux(&mockDeps{}, api.WithMaxBodyBytes(16))

		Convey("When the body is larger", func() {
			w := do(mux, http.MethodPost, "/api/packing/solve", packingBody)

			Convey("Then it should be too large", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
				So(decodeError(w)["code"], ShouldEqual, "body_too_large")
			})
		})
	})
}

func TestErrorMapping(t *testing.T) {
	Convey("Given a service that fails", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("%w: negative cost", model.ErrInvalidInput), http.StatusBadRequest, "invalid_input"},
			{fmt.Errorf("%w: nothing fits", model.ErrInfeasibleConstraints), http.StatusUnprocessableEntity, "infeasible"},
			{fmt.Errorf("%w: knapsack dp", service.ErrBackpressure), http.StatusTooManyRequests, "backpressure"},
			{fmt.Errorf("%w: %w", service.ErrTimeout, fmt.Errorf("%w: %w", model.ErrSolver, context.DeadlineExceeded)), http.StatusGatewayTimeout, "timeout"},
			{service.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
			{fmt.Errorf("%w: node limit", model.ErrSolver), http.StatusBadGateway, "solver_error"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}

		Convey("Then each error should map to its status and code", func() {
			for _, c := range cases {
				mux := newMux(&mockDeps{err: c.err})
				w := do(mux, http.MethodPost, "/api/packing/compare", packingBody)
				So(w.Code, ShouldEqual, c.status)
				body := decodeError(w)
				So(body["code"], ShouldEqual, c.code)
				So(body["message"], ShouldEqual, c.err.Error())
			}
		})
	})
}

func TestRouteHandler(t *testing.T) {
	Convey("Given the route endpoints", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)
		body := `{"home":{"name":"home","address":"1 Main","coordinates":{"lat":0,"lon":0}},
			"stops":[{"name":"a","address":"2 Main","duration":15,"hours":{"open":"09:00","close":"17:00"},"coordinates":{"lat":0,"lon":1}}]`

		Convey("When comparing with a seed", func() {
			w := do(mux, http.MethodPost, "/api/route/compare", body+`,"seed":7}`)

			Convey("Then the seed should be passed and both tours returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.seed, ShouldNotBeNil)
				So(*deps.seed, ShouldEqual, 7)
				So(w.Body.String(), ShouldContainSubstring, `"2opt"`)
				So(w.Body.String(), ShouldContainSubstring, `"simulated_annealing"`)
				So(w.Body.String(), ShouldContainSubstring, `"open":"09:00"`)
			})
		})

		Convey("When solving without a seed", func() {
			w := do(mux, http.MethodPost, "/api/route/solve", body+`,"algorithm":"simulated_annealing"}`)

			Convey("Then the seed should be left to the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.seed, ShouldBeNil)
				So(deps.algorithm, ShouldEqual, model.AlgorithmSimulatedAnnealing)
			})
		})

		Convey("When the algorithm is unknown", func() {
			w := do(mux, http.MethodPost, "/api/route/solve", body+`,"algorithm":"3opt"}`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When there are no stops", func() {
			w := do(mux, http.MethodPost, "/api/route/compare", `{"home":{"name":"home"},"stops":[]}`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestLineupHandler(t *testing.T) {
	Convey("Given the lineup endpoint", t, func() {
		deps := &mockDeps{}
		mux := newMux(deps)

		Convey("When solving a valid request", func() {
			body := `{"players":[{"name":"QB One","position":"QB","salary":8000,"projection":22.5}],
				"salary_cap":50000,"positions":{"QB":1,"FLEX":0},"flex_positions":["RB","WR"]}`
			w := do(mux, http.MethodPost, "/api/lineup/solve", body)

			Convey("Then the constraints should reach the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lineup.SalaryCap, ShouldEqual, 50000)
				So(deps.lineup.Positions[model.PositionQB], ShouldEqual, 1)
				So(deps.lineup.FlexPositions, ShouldResemble, []model.Position{model.PositionRB, model.PositionWR})
				So(w.Body.String(), ShouldContainSubstring, `"status":"optimal"`)
			})
		})

		Convey("When no roster fits", func() {
			deps.noLineup = true
			body := `{"players":[{"name":"QB One","position":"QB","salary":8000,"projection":22.5}],
				"salary_cap":5000,"positions":{"QB":1}`

			Convey("Then a plain request gets the infeasible result", func() {
				w := do(mux, http.MethodPost, "/api/lineup/solve", body+`}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"infeasible"`)
			})

			Convey("Then a strict request gets an infeasible error", func() {
				w := do(mux, http.MethodPost, "/api/lineup/solve", body+`,"strict":true}`)
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeError(w)["code"], ShouldEqual, "infeasible")
				So(decodeError(w)["message"], ShouldContainSubstring, model.NoLineupMessage)
			})
		})

		Convey("When the request is missing fields", func() {
			for _, body := range []string{
				`{"players":[],"salary_cap":100,"positions":{"QB":1}}`,
				`{"players":[{"name":"a","position":"QB","salary":1,"projection":1}],"salary_cap":0,"positions":{"QB":1}}`,
				`{"players":[{"name":"a","position":"QB","salary":1,"projection":1}],"salary_cap":100}`,
			} {
				w := do(mux, http.MethodPost, "/api/lineup/solve", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given the middleware chain", t, func() {
		var seen string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestID(r.Context())
			w.WriteHeader(http.StatusOK)
		})
		h := api.CORSMiddleware([]string{"http://localhost:5173"}, api.RequestIDMiddleware(inner))

		Convey("When a request has no request id", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then one should be minted and echoed", func() {
				So(seen, ShouldNotBeEmpty)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, seen)
			})
		})

		Convey("When a request carries a request id", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			h.ServeHTTP(httptest.NewRecorder(), req)

			Convey("Then it should be kept", func() {
				So(seen, ShouldEqual, "abc-123")
			})
		})

		Convey("When an allowed origin sends a preflight", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/lineup/solve", nil)
			req.Header.Set("Origin", "http://localhost:5173")
			req.Header.Set("Access-Control-Request-Method", "POST")
			w := httptest.NewRecorder()
			seen = ""
			h.ServeHTTP(w, req)

			Convey("Then it should be answered without reaching the handler", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://localhost:5173")
				So(seen, ShouldBeEmpty)
			})
		})

		Convey("When an unknown origin calls", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			req.Header.Set("Origin", "http://evil.example")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then no CORS headers should be set", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
			})
		})
	})
}
