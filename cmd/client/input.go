package main

import (
	"math"

	"github.com/hajimehoshi/ebiten"
	"github.com/hajimehoshi/ebiten/inpututil"
	"github.com/zucenko/mathkombat/model"
)

// StrokeSource represents a input device to provide strokes.
type StrokeSource interface {
	Position() (int, int)
	IsJustReleased() bool
}

type MouseStrokeSource struct{}

func (m *MouseStrokeSource) Position() (int, int) {
	return ebiten.CursorPosition()
}

func (m *MouseStrokeSource) IsJustReleased() bool {
	return inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft)
}

type TouchStrokeSource struct {
	ID int
}

func (t *TouchStrokeSource) Position() (int, int) {
	return ebiten.TouchPosition(t.ID)
}

func (t *TouchStrokeSource) IsJustReleased() bool {
	return inpututil.IsTouchJustReleased(t.ID)
}

// Stroke is a swipe in progress; once it travels half a cell it turns into
// a move and is released.
type Stroke struct {
	source       StrokeSource
	initX, initY int
	released     bool
}

func NewStroke(source StrokeSource) *Stroke {
	x, y := source.Position()
	return &Stroke{source: source, initX: x, initY: y}
}

// Update returns the swiped direction, if the stroke got far enough.
func (s *Stroke) Update() (model.Direction, bool) {
	if s.released {
		return 0, false
	}
	if s.source.IsJustReleased() {
		s.released = true
		return 0, false
	}
	x, y := s.source.Position()
	dx, dy := x-s.initX, y-s.initY
	if math.Abs(float64(dx)) < size/2 && math.Abs(float64(dy)) < size/2 {
		return 0, false
	}
	s.released = true
	if math.Abs(float64(dx)) > math.Abs(float64(dy)) {
		if dx > 0 {
			return model.RIGHT, true
		}
		return model.LEFT, true
	}
	if dy > 0 {
		return model.DOWN, true
	}
	return model.UP, true
}

var arrowKeys = map[ebiten.Key]model.Direction{
	ebiten.KeyRight: model.RIGHT,
	ebiten.KeyDown:  model.DOWN,
	ebiten.KeyLeft:  model.LEFT,
	ebiten.KeyUp:    model.UP,
}

var optionKeys = []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4}

// held arrows repeat every few frames, the server throttles the rest
const repeatFrames = 6

func (g *Game) handleInput() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	switch g.State {
	case BRIEFING:
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			g.Conn.Send(model.ClientMessage{Start: true})
		}
	case ROAMING:
		g.handleMoves()
	case QUESTION:
		if g.Snapshot == nil || len(g.Snapshot.Prompt) == 0 {
			return nil
		}
		options := g.Snapshot.Prompt[0].Options
		for i, k := range optionKeys {
			if i < len(options) && inpututil.IsKeyJustPressed(k) {
				g.Conn.Send(model.ClientMessage{Answers: []int{options[i]}})
				break
			}
		}
	case REPORT:
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			g.Conn.Send(model.ClientMessage{Quit: true})
			g.onboard()
		}
	}
	return nil
}

func (g *Game) handleMoves() {
	for k, d := range arrowKeys {
		if inpututil.IsKeyJustPressed(k) || (ebiten.IsKeyPressed(k) && inpututil.KeyPressDuration(k)%repeatFrames == 0) {
			g.move(d)
			return
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.strokes[NewStroke(&MouseStrokeSource{})] = struct{}{}
	}
	for _, id := range inpututil.JustPressedTouchIDs() {
		g.strokes[NewStroke(&TouchStrokeSource{id})] = struct{}{}
	}
	for s := range g.strokes {
		if d, ok := s.Update(); ok {
			g.move(d)
		}
		if s.released {
			delete(g.strokes, s)
		}
	}
}

func (g *Game) move(d model.Direction) {
	g.Conn.Send(model.ClientMessage{Moves: []model.Direction{d}})
}
