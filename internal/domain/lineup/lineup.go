// Package lineup picks a fantasy roster that maximizes total projection under
// a salary cap and per-position slot counts.
//
// The roster is modeled as a binary program, one variable per player, and
// handed to an ilp.Solver. This package only builds the model and interprets
// the answer.
package lineup

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/arcade/internal/domain/ilp"
	"github.com/okian/arcade/internal/domain/model"
)

// Engine solves lineups with an injected ILP solver.
type Engine struct {
	solver ilp.Solver
}

// New creates an Engine.
func New(solver ilp.Solver) *Engine {
	return &Engine{solver: solver}
}

// Solve returns the best roster for players under c.
//
// Players that some optimal roster can do without are left out of the model
// handed to the solver, and a greedy roster is passed along as its starting
// point. Unsatisfiable constraints are reported through the result status,
// not as an error. Errors wrap model.ErrInvalidInput for bad input and
// model.ErrSolver when the solver fails or returns an assignment that breaks
// the model.
func (e *Engine) Solve(ctx context.Context, players []model.Player, c model.LineupConstraints) (model.LineupResult, error) {
	m, err := BuildModel(players, c)
	if err != nil {
		return model.LineupResult{}, err
	}
	if short := shortage(players, c); short != "" {
		return infeasible(model.NoLineupMessage + ": " + short), nil
	}

	keep := candidates(players, c)
	pool := make([]model.Player, len(keep))
	for k, i := range keep {
		pool[k] = players[i]
	}
	reduced, err := BuildModel(pool, c)
	if err != nil {
		return model.LineupResult{}, err
	}
	reduced.Start = startingRoster(pool, c)

	sol, err := e.solver.Solve(ctx, reduced)
	if err != nil {
		return model.LineupResult{}, err
	}
	if sol.Status == ilp.Infeasible {
		return infeasible(model.NoLineupMessage), nil
	}
	if len(sol.Values) != len(pool) {
		return model.LineupResult{}, fmt.Errorf("%w: solver returned %d values for %d players", model.ErrSolver, len(sol.Values), len(pool))
	}
	x := make([]bool, len(players))
	for k, i := range keep {
		x[i] = sol.Values[k]
	}
	if ok, bad := m.Satisfied(x, 1e-6); !ok {
		return model.LineupResult{}, fmt.Errorf("%w: solver assignment violates %s", model.ErrSolver, bad.Name)
	}
	status := model.StatusOptimal
	if sol.Status == ilp.Feasible {
		status = model.StatusFeasible
	}
	return interpret(players, c, x, status), nil
}

// BuildModel validates the input and formulates the roster program:
//
//	salary:     Σ salary·x ≤ cap
//	slot P:     Σ x[P] == required(P), or ≥ when P can also fill FLEX
//	FLEX:       Σ x[flex-eligible] == Σ required(flex-eligible) + required(FLEX)
//	total:      Σ x == Σ required
//
// The objective maximizes Σ projection·x.
func BuildModel(players []model.Player, c model.LineupConstraints) (*ilp.Model, error) {
	if err := validate(players, c); err != nil {
		return nil, err
	}
	flex := flexSet(c)
	flexRequired, hasFlex := c.Positions[model.PositionFLEX]
	hasFlex = hasFlex && flexRequired > 0

	n := len(players)
	m := &ilp.Model{
		NumVars:   n,
		Names:     make([]string, n),
		Objective: make([]float64, n),
		Maximize:  true,
	}
	salary := make([]float64, n)
	ones := make([]float64, n)
	for i, p := range players {
		m.Names[i] = p.Name
		m.Objective[i] = p.Projection
		salary[i] = float64(p.Salary)
		ones[i] = 1
	}
	m.Constraints = append(m.Constraints, ilp.Constraint{Name: "salary", Coefs: salary, Op: ilp.LessEq, RHS: float64(c.SalaryCap)})

	total, flexTotal := 0, flexRequired
	for _, pos := range sortedPositions(c.Positions) {
		required := c.Positions[pos]
		total += required
		if pos == model.PositionFLEX {
			continue
		}
		op := ilp.Equal
		if hasFlex && flex[pos] {
			op = ilp.GreaterEq
			flexTotal += required
		}
		m.Constraints = append(m.Constraints, ilp.Constraint{
			Name:  "position " + string(pos),
			Coefs: indicator(players, func(p model.Player) bool { return p.Position == pos }),
			Op:    op,
			RHS:   float64(required),
		})
	}
	if hasFlex {
		m.Constraints = append(m.Constraints, ilp.Constraint{
			Name:  "flex",
			Coefs: indicator(players, func(p model.Player) bool { return flex[p.Position] }),
			Op:    ilp.Equal,
			RHS:   float64(flexTotal),
		})
	}
	m.Constraints = append(m.Constraints, ilp.Constraint{Name: "total", Coefs: ones, Op: ilp.Equal, RHS: float64(total)})
	return m, nil
}

func validate(players []model.Player, c model.LineupConstraints) error {
	if len(players) == 0 {
		return fmt.Errorf("%w: at least one player is required", model.ErrInvalidInput)
	}
	for i, p := range players {
		switch {
		case p.Position == "":
			return fmt.Errorf("%w: player %d (%q) has no position", model.ErrInvalidInput, i, p.Name)
		case p.Position == model.PositionFLEX:
			return fmt.Errorf("%w: player %d (%q) cannot have position FLEX", model.ErrInvalidInput, i, p.Name)
		case p.Salary < 0:
			return fmt.Errorf("%w: player %d (%q) salary must be non-negative", model.ErrInvalidInput, i, p.Name)
		case p.Projection < 0 || math.IsNaN(p.Projection) || math.IsInf(p.Projection, 0):
			return fmt.Errorf("%w: player %d (%q) projection must be a finite non-negative number", model.ErrInvalidInput, i, p.Name)
		}
	}
	if c.SalaryCap < 0 {
		return fmt.Errorf("%w: salary_cap must be non-negative", model.ErrInvalidInput)
	}
	if len(c.Positions) == 0 {
		return fmt.Errorf("%w: positions must list at least one slot", model.ErrInvalidInput)
	}
	total := 0
	for pos, n := range c.Positions {
		if pos == "" {
			return fmt.Errorf("%w: positions has an empty slot name", model.ErrInvalidInput)
		}
		if n < 0 {
			return fmt.Errorf("%w: positions[%s] must be non-negative", model.ErrInvalidInput, pos)
		}
		total += n
	}
	if total == 0 {
		return fmt.Errorf("%w: positions must require at least one player", model.ErrInvalidInput)
	}
	for _, pos := range c.FlexPositions {
		if pos == model.PositionFLEX || pos == "" {
			return fmt.Errorf("%w: flex_positions cannot contain %q", model.ErrInvalidInput, pos)
		}
	}
	return nil
}

// shortage returns a message when a slot obviously cannot be filled.
func shortage(players []model.Player, c model.LineupConstraints) string {
	flex := flexSet(c)
	have := map[model.Position]int{}
	flexPool := 0
	for _, p := range players {
		have[p.Position]++
		if flex[p.Position] {
			flexPool++
		}
	}
	needFlex := c.Positions[model.PositionFLEX]
	for _, pos := range sortedPositions(c.Positions) {
		if pos == model.PositionFLEX {
			continue
		}
		if need := c.Positions[pos]; have[pos] < need {
			return fmt.Sprintf("not enough %s players: need %d, have %d", pos, need, have[pos])
		}
		if flex[pos] {
			needFlex += c.Positions[pos]
		}
	}
	if c.Positions[model.PositionFLEX] > 0 && flexPool < needFlex {
		return fmt.Sprintf("not enough FLEX-eligible players: need %d, have %d", needFlex, flexPool)
	}
	return ""
}

func interpret(players []model.Player, c model.LineupConstraints, x []bool, status string) model.LineupResult {
	flex := flexSet(c)
	res := model.LineupResult{
		Lineup: []model.Player{},
		ConstraintInfo: model.ConstraintInfo{
			Status:         status,
			PositionCounts: map[model.Position]int{},
		},
	}
	flexCount := 0
	for i, on := range x {
		if !on {
			continue
		}
		p := players[i]
		res.Lineup = append(res.Lineup, p)
		res.TotalProjection += p.Projection
		res.TotalSalary += p.Salary
		res.ConstraintInfo.PositionCounts[p.Position]++
		if flex[p.Position] {
			flexCount++
		}
	}
	if _, ok := c.Positions[model.PositionFLEX]; ok {
		res.ConstraintInfo.PositionCounts[model.PositionFLEX] = flexCount
	}
	info := &res.ConstraintInfo
	info.SalaryUsed = res.TotalSalary
	info.SalaryRemaining = c.SalaryCap - res.TotalSalary
	if c.SalaryCap > 0 {
		info.SalaryUsedPct = float64(res.TotalSalary) / float64(c.SalaryCap) * 100
	}
	return res
}

func infeasible(msg string) model.LineupResult {
	return model.LineupResult{
		Lineup: []model.Player{},
		ConstraintInfo: model.ConstraintInfo{
			Status:         model.StatusInfeasible,
			PositionCounts: map[model.Position]int{},
			Error:          msg,
		},
	}
}

func flexSet(c model.LineupConstraints) map[model.Position]bool {
	positions := c.FlexPositions
	if len(positions) == 0 {
		positions = model.DefaultFlexPositions
	}
	set := make(map[model.Position]bool, len(positions))
	for _, p := range positions {
		set[p] = true
	}
	return set
}

func indicator(players []model.Player, match func(model.Player) bool) []float64 {
	coefs := make([]float64, len(players))
	for i, p := range players {
		if match(p) {
			coefs[i] = 1
		}
	}
	return coefs
}

// sortedPositions gives a stable constraint order.
func sortedPositions(positions map[model.Position]int) []model.Position {
	out := make([]model.Position, 0, len(positions))
	for p := range positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
