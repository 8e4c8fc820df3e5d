// Package ghost decides where each pursuer steps on an AI tick.
//
// A chasing ghost takes the single step that minimizes the Manhattan distance
// to the player. It does not search for a path and can stall behind walls;
// the difficulty tiers are tuned around that.
package ghost

import (
	"math/rand"

	"github.com/zucenko/mathkombat/maze"
	"github.com/zucenko/mathkombat/model"
)

var Names = []string{"Blinky", "Pinky", "Inky", "Clyde", "Glitchy"}

// candidates are evaluated in this order; the first minimal one wins ties.
var order = []model.Direction{model.DOWN, model.UP, model.RIGHT, model.LEFT}

// Spawn places count ghosts on the grid's ghost spawns, reusing spawns in
// order when there are fewer spawns than ghosts.
func Spawn(g *maze.Grid, count int) []model.Ghost {
	ghosts := make([]model.Ghost, 0, count)
	spawns := g.GhostSpawns
	if len(spawns) == 0 {
		spawns = []model.Position{g.Spawn}
	}
	for i := 0; i < count; i++ {
		ghosts = append(ghosts, model.Ghost{
			Id:   i,
			Name: Names[i%len(Names)],
			Pos:  spawns[i%len(spawns)],
		})
	}
	return ghosts
}

// Moves lists the in bounds walkable neighbours of pos in evaluation order.
func Moves(g *maze.Grid, pos model.Position) []model.Position {
	moves := make([]model.Position, 0, len(order))
	for _, d := range order {
		next := pos.Add(d.Delta())
		if g.Walkable(next) {
			moves = append(moves, next)
		}
	}
	return moves
}

// Step returns the next cell of a ghost at pos. With probability chaseProb it
// greedily closes in on target, otherwise it wanders to a random neighbour.
// A boxed in ghost stays where it is.
func Step(g *maze.Grid, pos, target model.Position, chaseProb float64, rng *rand.Rand) model.Position {
	moves := Moves(g, pos)
	if len(moves) == 0 {
		return pos
	}
	if rng.Float64() < chaseProb {
		best := moves[0]
		bestDist := best.Manhattan(target)
		for _, m := range moves[1:] {
			if d := m.Manhattan(target); d < bestDist {
				best, bestDist = m, d
			}
		}
		return best
	}
	return moves[rng.Intn(len(moves))]
}

// Tick moves every ghost one step. Ghosts are evaluated independently and
// in slice order, each against the same target.
func Tick(g *maze.Grid, ghosts []model.Ghost, target model.Position, chaseProb float64, rng *rand.Rand) {
	for i := range ghosts {
		ghosts[i].Pos = Step(g, ghosts[i].Pos, target, chaseProb, rng)
	}
}
