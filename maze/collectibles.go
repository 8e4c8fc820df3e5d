package maze

import (
	"math/rand"
	"sort"

	"github.com/zucenko/mathkombat/model"
)

// Collectibles is the set of score nodes still on the grid. It only shrinks.
type Collectibles struct {
	cells map[model.Position]struct{}
}

// Place seeds a node on each walkable non spawn cell with probability prob.
// A match never starts already won: if the dice leave the grid empty, one
// node goes on a random eligible cell.
func Place(g *Grid, prob float64, rng *rand.Rand) *Collectibles {
	c := &Collectibles{cells: make(map[model.Position]struct{})}
	eligible := make([]model.Position, 0)
	for _, p := range g.Cells() {
		if g.IsSpawn(p) {
			continue
		}
		eligible = append(eligible, p)
		if rng.Float64() < prob {
			c.cells[p] = struct{}{}
		}
	}
	if len(c.cells) == 0 && len(eligible) > 0 {
		c.cells[eligible[rng.Intn(len(eligible))]] = struct{}{}
	}
	return c
}

// NewCollectibles builds a set from explicit cells, skipping non walkable ones.
func NewCollectibles(g *Grid, cells ...model.Position) *Collectibles {
	c := &Collectibles{cells: make(map[model.Position]struct{})}
	for _, p := range cells {
		if g.Walkable(p) {
			c.cells[p] = struct{}{}
		}
	}
	return c
}

func (c *Collectibles) Len() int {
	return len(c.cells)
}

func (c *Collectibles) Has(p model.Position) bool {
	_, ok := c.cells[p]
	return ok
}

// Take removes the node at p and reports whether there was one.
func (c *Collectibles) Take(p model.Position) bool {
	if _, ok := c.cells[p]; !ok {
		return false
	}
	delete(c.cells, p)
	return true
}

// Positions lists the nodes row by row, left to right.
func (c *Collectibles) Positions() []model.Position {
	out := make([]model.Position, 0, len(c.cells))
	for p := range c.cells {
		out = append(out, p)
	}
	sortPositions(out)
	return out
}

func sortPositions(ps []model.Position) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Y != ps[j].Y {
			return ps[i].Y < ps[j].Y
		}
		return ps[i].X < ps[j].X
	})
}
