package ghost

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/mathkombat/maze"
	"github.com/zucenko/mathkombat/model"
)

// open returns a walled square of side n with nothing inside.
func open(t *testing.T, n int) *maze.Grid {
	rows := make([]string, n)
	for y := range rows {
		if y == 0 || y == n-1 {
			rows[y] = strings.Repeat("#", n)
			continue
		}
		rows[y] = "#" + strings.Repeat(".", n-2) + "#"
	}
	rows[1] = "#P" + strings.Repeat(".", n-4) + "1#"
	g, err := maze.FromRows(rows...)
	require.NoError(t, err)
	return g
}

func TestStepChasesDown(t *testing.T) {
	g := open(t, 11)
	rng := rand.New(rand.NewSource(1))
	next := Step(g, model.Position{X: 5, Y: 5}, model.Position{X: 5, Y: 7}, 1, rng)
	assert.Equal(t, model.Position{X: 5, Y: 6}, next)
}

func TestStepTieGoesToFirstDirection(t *testing.T) {
	g := open(t, 11)
	rng := rand.New(rand.NewSource(1))
	// down and right both close in by one
	next := Step(g, model.Position{X: 2, Y: 2}, model.Position{X: 4, Y: 4}, 1, rng)
	assert.Equal(t, model.Position{X: 2, Y: 3}, next)
	// up and left
	next = Step(g, model.Position{X: 5, Y: 5}, model.Position{X: 3, Y: 3}, 1, rng)
	assert.Equal(t, model.Position{X: 5, Y: 4}, next)
}

func TestStepBoxedIn(t *testing.T) {
	g, err := maze.FromRows("#####", "#P#1#", "#####")
	require.NoError(t, err)
	pos := g.GhostSpawns[0]
	for seed := int64(0); seed < 10; seed++ {
		assert.Equal(t, pos, Step(g, pos, g.Spawn, .5, rand.New(rand.NewSource(seed))))
	}
}

func TestStepWanders(t *testing.T) {
	g := maze.Default()
	rng := rand.New(rand.NewSource(7))
	for _, pos := range g.Cells() {
		next := Step(g, pos, g.Spawn, 0, rng)
		assert.True(t, g.Walkable(next))
		assert.Equal(t, 1, pos.Manhattan(next), "%v -> %v", pos, next)
	}
}

func TestSpawnCyclesSpawns(t *testing.T) {
	g := open(t, 7)
	ghosts := Spawn(g, 3)
	require.Len(t, ghosts, 3)
	for i, gh := range ghosts {
		assert.Equal(t, i, gh.Id)
		assert.Equal(t, Names[i], gh.Name)
		assert.Equal(t, g.GhostSpawns[0], gh.Pos)
	}
	assert.Len(t, Spawn(maze.Default(), 5), 5)
}

func TestTickMovesEveryGhost(t *testing.T) {
	g := open(t, 9)
	ghosts := []model.Ghost{{Id: 0, Pos: model.Position{X: 4, Y: 4}}, {Id: 1, Pos: model.Position{X: 6, Y: 6}}}
	Tick(g, ghosts, model.Position{X: 1, Y: 1}, 1, rand.New(rand.NewSource(3)))
	assert.Equal(t, model.Position{X: 4, Y: 3}, ghosts[0].Pos)
	assert.Equal(t, model.Position{X: 6, Y: 5}, ghosts[1].Pos)
}
