package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/arcade/internal/domain/knapsack"
	"github.com/okian/arcade/internal/domain/model"
)

// PackingDependencies defines the knapsack operations the API calls.
type PackingDependencies interface {
	KnapsackSolve(ctx context.Context, items []model.Item, c model.PackingConstraints, algorithm string) (model.PackingResult, error)
	KnapsackCompare(ctx context.Context, items []model.Item, c model.PackingConstraints) (knapsack.Comparison, error)
}

// packingRequest mirrors the OpenAPI schema for the packing endpoints.
type packingRequest struct {
	Items         []model.Item   `json:"items"`
	Budget        float64        `json:"budget"`
	MaxWeight     float64        `json:"max_weight"`
	CategoryLimit map[string]int `json:"category_limit,omitempty"`
	Algorithm     string         `json:"algorithm,omitempty"`
}

func (p packingRequest) constraints() model.PackingConstraints {
	return model.PackingConstraints{
		Budget:        p.Budget,
		MaxWeight:     p.MaxWeight,
		CategoryLimit: p.CategoryLimit,
	}
}

func (p packingRequest) validate() error {
	switch {
	case len(p.Items) == 0:
		return errors.New("missing items")
	case p.Budget <= 0:
		return errors.New("budget must be positive")
	case p.MaxWeight <= 0:
		return errors.New("max_weight must be positive")
	}
	switch p.Algorithm {
	case "", model.AlgorithmDP, model.AlgorithmGreedy:
	default:
		return fmt.Errorf("algorithm must be dp or greedy, got %q", p.Algorithm)
	}
	for i, it := range p.Items {
		if it.Value <= 0 {
			return fmt.Errorf("items[%d]: value must be positive", i)
		}
	}
	return nil
}

// PackingHandler handles knapsack requests.
type PackingHandler struct {
	base
	deps PackingDependencies
}

// HandleSolve handles POST /api/packing/solve requests.
func (h *PackingHandler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.packing_solve"
	req, ok := h.read(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.KnapsackSolve(r.Context(), req.Items, req.constraints(), req.Algorithm)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCompare handles POST /api/packing/compare requests.
func (h *PackingHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.packing_compare"
	req, ok := h.read(w, r, op)
	if !ok {
		return
	}
	res, err := h.deps.KnapsackCompare(r.Context(), req.Items, req.constraints())
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PackingHandler) read(w http.ResponseWriter, r *http.Request, op string) (packingRequest, bool) {
	var req packingRequest
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
