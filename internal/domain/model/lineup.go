package model

import "fmt"

// Position is a roster slot. Any string is accepted as an exact-count slot;
// the constants below are the football defaults.
type Position string

// Known positions.
const (
	PositionQB   Position = "QB"
	PositionRB   Position = "RB"
	PositionWR   Position = "WR"
	PositionTE   Position = "TE"
	PositionDST  Position = "DST"
	PositionFLEX Position = "FLEX" // virtual slot, never a player position
)

// DefaultFlexPositions are the positions that may fill FLEX when the caller
// does not say otherwise.
var DefaultFlexPositions = []Position{PositionRB, PositionWR, PositionTE}

// Player is a roster candidate.
type Player struct {
	Name       string   `json:"name"`
	Position   Position `json:"position"`
	Salary     int      `json:"salary"`
	Projection float64  `json:"projection"`
}

// LineupConstraints bounds a roster.
type LineupConstraints struct {
	SalaryCap int              `json:"salary_cap"`
	Positions map[Position]int `json:"positions"`
	// FlexPositions lists the positions eligible for FLEX; empty means
	// DefaultFlexPositions.
	FlexPositions []Position `json:"flex_positions,omitempty"`
}

// Lineup result statuses.
const (
	StatusOptimal    = "optimal"
	StatusFeasible   = "feasible"
	StatusInfeasible = "infeasible"
)

// ConstraintInfo carries diagnostics about a lineup solve.
type ConstraintInfo struct {
	Status          string           `json:"status"`
	SalaryUsed      int              `json:"salary_used"`
	SalaryRemaining int              `json:"salary_remaining"`
	SalaryUsedPct   float64          `json:"salary_used_pct"`
	PositionCounts  map[Position]int `json:"position_counts"`
	Error           string           `json:"error,omitempty"`
}

// LineupResult is the outcome of a lineup solve.
type LineupResult struct {
	Lineup          []Player       `json:"lineup"`
	TotalProjection float64        `json:"total_projection"`
	TotalSalary     int            `json:"total_salary"`
	ConstraintInfo  ConstraintInfo `json:"constraint_info"`
}

// Kind implements compare.Metric.
func (r LineupResult) Kind() string { return AlgorithmILP }

// Objective implements compare.Metric; lineups are maximized.
func (r LineupResult) Objective() float64 { return r.TotalProjection }

// NoLineupMessage is reported when no roster satisfies the constraints.
const NoLineupMessage = "No valid lineup found with given constraints"

// Err returns an error wrapping ErrInfeasibleConstraints for infeasible
// results and nil otherwise.
func (r LineupResult) Err() error {
	if r.ConstraintInfo.Status != StatusInfeasible {
		return nil
	}
	msg := r.ConstraintInfo.Error
	if msg == "" {
		msg = NoLineupMessage
	}
	return fmt.Errorf("%w: %s", ErrInfeasibleConstraints, msg)
}
