package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/arcade/internal/domain/model"
	"github.com/okian/arcade/internal/domain/route"
)

// RouteDependencies defines the route operations the API calls.
type RouteDependencies interface {
	RouteSolve(ctx context.Context, inst model.RouteInstance, algorithm string, seed *int64) (model.RouteResult, error)
	RouteCompare(ctx context.Context, inst model.RouteInstance, seed *int64) (route.Comparison, error)
}

// routeRequest mirrors the OpenAPI schema for the route endpoints. Stops
// arrive with coordinates already resolved.
type routeRequest struct {
	Home      model.Stop   `json:"home"`
	Stops     []model.Stop `json:"stops"`
	Algorithm string       `json:"algorithm,omitempty"`
	Seed      *int64       `json:"seed,omitempty"`
}

func (q routeRequest) validate() error {
	if len(q.Stops) == 0 {
		return errors.New("missing stops")
	}
	switch q.Algorithm {
	case "", model.AlgorithmTwoOpt, model.AlgorithmSimulatedAnnealing:
		return nil
	default:
		return fmt.Errorf("algorithm must be 2opt or simulated_annealing, got %q", q.Algorithm)
	}
}

func (q routeRequest) instance() model.RouteInstance {
	return model.RouteInstance{Home: q.Home, Stops: q.Stops}
}

// RouteHandler handles tour requests.
type RouteHandler struct {
	base
	deps RouteDependencies
}

// HandleSolve handles POST /api/route/solve requests.
func (h *RouteHandler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.route_solve"
	req, ok := h.read(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.RouteSolve(r.Context(), req.instance(), req.Algorithm, req.Seed)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCompare handles POST /api/route/compare requests.
func (h *RouteHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.route_compare"
	req, ok := h.read(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.RouteCompare(r.Context(), req.instance(), req.Seed)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *RouteHandler) read(w http.ResponseWriter, r *http.Request, op string) (routeRequest, bool) {
	var req routeRequest
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return req, false
	}
	if err := h.decode(w, r, op, &req); err != nil {
		h.fail(w, r, op, err)
		return req, false
	}
	if err := req.validate(); err != nil {
		h.fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return req, false
	}
	return req, true
}
