package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/arcade/internal/domain/model"
)

// LineupDependencies defines the lineup operation the API calls.
type LineupDependencies interface {
	LineupSolve(ctx context.Context, players []model.Player, c model.LineupConstraints) (model.LineupResult, error)
}

// lineupRequest mirrors the OpenAPI schema for POST /api/lineup/solve.
type lineupRequest struct {
	Players       []model.Player         `json:"players"`
	SalaryCap     int                    `json:"salary_cap"`
	Positions     map[model.Position]int `json:"positions"`
	FlexPositions []model.Position       `json:"flex_positions,omitempty"`
	Strict        bool                   `json:"strict,omitempty"`
}

func (l lineupRequest) validate() error {
	switch {
	case len(l.Players) == 0:
		return errors.New("missing players")
	case l.SalaryCap <= 0:
		return errors.New("salary_cap must be positive")
	case len(l.Positions) == 0:
		return errors.New("missing positions")
	}
	return nil
}

// LineupHandler handles roster requests.
type LineupHandler struct {
	base
	deps LineupDependencies
}

// HandleSolve handles POST /api/lineup/solve requests. An unsatisfiable roster
// is a 200 response whose constraint_info.status is "infeasible", or a 422
// error when the request sets strict.
func (h *LineupHandler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.lineup_solve"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req lineupRequest
	if err := h.decode(w, r, op, &req); err != nil {
		h.fail(w, r, op, err)
		return
	}
	if err := req.validate(); err != nil {
		h.fail(w, r, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.LineupSolve(r.Context(), req.Players, model.LineupConstraints{
		SalaryCap:     req.SalaryCap,
		Positions:     req.Positions,
		FlexPositions: req.FlexPositions,
	})
	if err == nil && req.Strict {
		err = res.Err()
	}
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
