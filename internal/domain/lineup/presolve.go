package lineup

import (
	"sort"

	"github.com/okian/arcade/internal/domain/model"
)

// room returns the most players of each position a valid roster can hold:
// its own slots plus FLEX when it can fill FLEX.
func room(c model.LineupConstraints) func(model.Position) int {
	flex := flexSet(c)
	extra := c.Positions[model.PositionFLEX]
	return func(pos model.Position) int {
		n := c.Positions[pos]
		if extra > 0 && flex[pos] {
			n += extra
		}
		return n
	}
}

// candidates returns, in input order, the indices of players an optimal
// roster may need. A player is dropped when its position has no room, or when
// at least as many same-position players as the position can hold cost no
// more and project no less. Some optimal roster never uses a dropped player:
// one of those rivals is always free to take its place.
func candidates(players []model.Player, c model.LineupConstraints) []int {
	limit := room(c)
	keep := make([]int, 0, len(players))
	for i, p := range players {
		n := limit(p.Position)
		if n == 0 {
			continue
		}
		beaten := 0
		for j, q := range players {
			if j != i && q.Position == p.Position && dominates(q, j, p, i) {
				beaten++
				if beaten >= n {
					break
				}
			}
		}
		if beaten < n {
			keep = append(keep, i)
		}
	}
	return keep
}

// dominates reports whether q (at index qi) is at least as good as p (at pi)
// on both salary and projection. Exact ties go to the earlier player.
func dominates(q model.Player, qi int, p model.Player, pi int) bool {
	if q.Salary > p.Salary || q.Projection < p.Projection {
		return false
	}
	if q.Salary < p.Salary || q.Projection > p.Projection {
		return true
	}
	return qi < pi
}

// startingRoster fills every slot with the cheapest players, then applies the
// best projection-raising swap that keeps slots and cap valid until none is
// left. It returns nil when even the cheapest roster breaks the cap.
func startingRoster(players []model.Player, c model.LineupConstraints) []bool {
	flex := flexSet(c)
	extra := c.Positions[model.PositionFLEX]
	cheaper := func(idx []int) func(a, b int) bool {
		return func(a, b int) bool {
			pa, pb := players[idx[a]], players[idx[b]]
			if pa.Salary != pb.Salary {
				return pa.Salary < pb.Salary
			}
			return pa.Projection > pb.Projection
		}
	}

	in := make([]bool, len(players))
	count := map[model.Position]int{}
	salary := 0
	take := func(i int) {
		in[i] = true
		count[players[i].Position]++
		salary += players[i].Salary
	}

	byPos := map[model.Position][]int{}
	for i, p := range players {
		byPos[p.Position] = append(byPos[p.Position], i)
	}
	for _, pos := range sortedPositions(c.Positions) {
		need := c.Positions[pos]
		if pos == model.PositionFLEX || need == 0 {
			continue
		}
		idx := byPos[pos]
		if len(idx) < need {
			return nil
		}
		sort.SliceStable(idx, cheaper(idx))
		for _, i := range idx[:need] {
			take(i)
		}
	}
	if extra > 0 {
		var spare []int
		for i, p := range players {
			if !in[i] && flex[p.Position] {
				spare = append(spare, i)
			}
		}
		if len(spare) < extra {
			return nil
		}
		sort.SliceStable(spare, cheaper(spare))
		for _, i := range spare[:extra] {
			take(i)
		}
	}
	if salary > c.SalaryCap {
		return nil
	}

	swappable := func(from, to model.Position) bool {
		if from == to {
			return true
		}
		return extra > 0 && flex[from] && flex[to] && count[from] > c.Positions[from]
	}
	for range players {
		out, into, gain := -1, -1, 1e-9
		for i := range players {
			if !in[i] {
				continue
			}
			for j := range players {
				if in[j] || !swappable(players[i].Position, players[j].Position) {
					continue
				}
				if salary-players[i].Salary+players[j].Salary > c.SalaryCap {
					continue
				}
				if g := players[j].Projection - players[i].Projection; g > gain {
					out, into, gain = i, j, g
				}
			}
		}
		if out < 0 {
			break
		}
		in[out] = false
		count[players[out].Position]--
		salary -= players[out].Salary
		take(into)
	}
	return in
}
