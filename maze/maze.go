// Package maze is the static walkable grid of a match and the placement of
// what lies on it.
package maze

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zucenko/mathkombat/model"
)

//go:embed data/maze.txt
var defaultLayout string

var ErrBadMaze = errors.New("bad maze layout")

const MaxGhosts = 5

// Grid is immutable once loaded and may be shared between sessions.
type Grid struct {
	Cols, Rows  int
	Spawn       model.Position
	GhostSpawns []model.Position
	// walkable[col][row]
	walkable [][]bool
}

// Default returns the hand authored layout every match is played on.
func Default() *Grid {
	g, err := Parse(strings.NewReader(defaultLayout))
	if err != nil {
		panic(err)
	}
	return g
}

// Load reads a layout from path; an empty path yields the default.
func Load(path string) (*Grid, error) {
	if path == "" {
		return Default(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open maze %s: %w", path, err)
	}
	defer file.Close()
	return Parse(file)
}

// FromRows builds a grid from literal rows, mostly for tests.
func FromRows(rows ...string) (*Grid, error) {
	return Parse(strings.NewReader(strings.Join(rows, "\n")))
}

// Parse reads '#' walls and '.' floor; 'P' marks the player spawn and the
// digits 1-5 mark ghost spawns in ghost order. Spawns are floor.
func Parse(reader io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)

	lines := make([][]bool, 0)
	ghosts := make(map[int]model.Position)
	spawnFound := false
	g := &Grid{}
	row := 0
	for scanner.Scan() {
		s := strings.TrimRight(scanner.Text(), "\r ")
		if s == "" {
			continue
		}
		if row > 0 && len(s) != len(lines[0]) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadMaze, row, len(s), len(lines[0]))
		}
		line := make([]bool, 0, len(s))
		for col, char := range s {
			switch {
			case char == '#':
				line = append(line, false)
			case char == '.':
				line = append(line, true)
			case char == 'P':
				if spawnFound {
					return nil, fmt.Errorf("%w: second player spawn at %d,%d", ErrBadMaze, col, row)
				}
				spawnFound = true
				g.Spawn = model.Position{X: col, Y: row}
				line = append(line, true)
			case char >= '1' && char <= '0'+MaxGhosts:
				n := int(char - '1')
				if _, dup := ghosts[n]; dup {
					return nil, fmt.Errorf("%w: ghost %c placed twice", ErrBadMaze, char)
				}
				ghosts[n] = model.Position{X: col, Y: row}
				line = append(line, true)
			default:
				return nil, fmt.Errorf("%w: unknown cell %q at %d,%d", ErrBadMaze, char, col, row)
			}
		}
		lines = append(lines, line)
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadMaze)
	}
	if !spawnFound {
		return nil, fmt.Errorf("%w: no player spawn", ErrBadMaze)
	}
	for i := 0; i < len(ghosts); i++ {
		p, ok := ghosts[i]
		if !ok {
			return nil, fmt.Errorf("%w: ghost %d missing", ErrBadMaze, i+1)
		}
		g.GhostSpawns = append(g.GhostSpawns, p)
	}
	g.walkable = swap(lines)
	g.Cols = len(lines[0])
	g.Rows = len(lines)
	return g, nil
}

// swap turns the row major lines into a column major matrix.
func swap(lines [][]bool) [][]bool {
	cols := make([][]bool, 0, len(lines[0]))
	for c := 0; c < len(lines[0]); c++ {
		col := make([]bool, 0, len(lines))
		for r := 0; r < len(lines); r++ {
			col = append(col, lines[r][c])
		}
		cols = append(cols, col)
	}
	return cols
}

func (g *Grid) InBounds(p model.Position) bool {
	return p.X >= 0 && p.X < g.Cols && p.Y >= 0 && p.Y < g.Rows
}

func (g *Grid) Walkable(p model.Position) bool {
	return g.InBounds(p) && g.walkable[p.X][p.Y]
}

// TryMove returns from+delta when that lands on a walkable cell, from
// otherwise. Bumping into a wall is not an error.
func (g *Grid) TryMove(from, delta model.Position) model.Position {
	to := from.Add(delta)
	if !g.Walkable(to) {
		return from
	}
	return to
}

// Cells lists walkable cells row by row, left to right.
func (g *Grid) Cells() []model.Position {
	cells := make([]model.Position, 0)
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if g.walkable[x][y] {
				cells = append(cells, model.Position{X: x, Y: y})
			}
		}
	}
	return cells
}

// FreeCells lists walkable cells for which taken reports false.
func (g *Grid) FreeCells(taken func(model.Position) bool) []model.Position {
	free := make([]model.Position, 0)
	for _, p := range g.Cells() {
		if !taken(p) {
			free = append(free, p)
		}
	}
	return free
}

func (g *Grid) IsSpawn(p model.Position) bool {
	if p == g.Spawn {
		return true
	}
	for _, s := range g.GhostSpawns {
		if s == p {
			return true
		}
	}
	return false
}

// String renders the grid back to its text form, without spawn markers.
func (g *Grid) String() string {
	var b strings.Builder
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			if g.walkable[x][y] {
				b.WriteByte('.')
			} else {
				b.WriteByte('#')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
