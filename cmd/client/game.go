package main

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten"
	"github.com/hajimehoshi/ebiten/inpututil"
	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/zucenko/mathkombat/maze"
	"github.com/zucenko/mathkombat/model"
)

var errQuit = errors.New("quit")

type ViewState int

const (
	BRIEFING ViewState = iota + 1
	ROAMING
	QUESTION
	OVER
	REPORT
	DISCONNECTED
)

func (s ViewState) Name() string {
	switch s {
	case BRIEFING:
		return "BRIEFING"
	case ROAMING:
		return "ROAMING"
	case QUESTION:
		return "QUESTION"
	case OVER:
		return "OVER"
	case REPORT:
		return "REPORT"
	case DISCONNECTED:
		return "DISCONNECTED"
	default:
		return fmt.Sprintf("N/A(%d)", s)
	}
}

type Game struct {
	State   ViewState
	Conn    *Connection
	Grid    *maze.Grid
	Profile model.Profile

	Snapshot *model.Snapshot
	Intro    *model.Intro
	Result   *model.MatchResult
	Analysis *model.Analysis
	History  []model.GameRecord
	Errors   []string

	Tweens  map[*gween.Tween]*Action
	strokes map[*Stroke]struct{}
	panel   *Nine

	// drawn player position in cells, trails the snapshot while tweening
	drawnX, drawnY float64
	flash          float64
}

func NewGame(conn *Connection, grid *maze.Grid, p model.Profile) *Game {
	g := &Game{
		Conn:    conn,
		Grid:    grid,
		Profile: p,
		Tweens:  make(map[*gween.Tween]*Action),
		strokes: map[*Stroke]struct{}{},
		drawnX:  float64(grid.Spawn.X),
		drawnY:  float64(grid.Spawn.Y),
	}
	panel, err := NewPanel(4, COLOR_NODE)
	if err != nil {
		log.Warnf("no question panel: %v", err)
	}
	g.panel = panel
	g.onboard()
	return g
}

func (g *Game) onboard() {
	p := g.Profile
	g.Conn.Send(model.ClientMessage{Profile: &p})
	g.State = BRIEFING
	g.Snapshot, g.Intro, g.Result, g.Analysis = nil, nil, nil, nil
}

// drain applies everything the server sent since the last frame.
func (g *Game) drain() {
	for {
		select {
		case msg, ok := <-g.Conn.In:
			if !ok {
				g.State = DISCONNECTED
				return
			}
			g.apply(msg)
		default:
			return
		}
	}
}

func (g *Game) apply(msg model.ServerMessage) {
	for i := range msg.Intro {
		g.Intro = &msg.Intro[i]
	}
	for _, s := range msg.Snapshots {
		g.onSnapshot(s)
	}
	for i := range msg.Results {
		g.Result = &msg.Results[i]
		g.State = REPORT
	}
	if len(msg.History) > 0 {
		g.History = msg.History
	}
	for i := range msg.Analysis {
		g.Analysis = &msg.Analysis[i]
	}
	g.Errors = append(g.Errors, msg.Errors...)
	if len(g.Errors) > 3 {
		g.Errors = g.Errors[len(g.Errors)-3:]
	}
}

func (g *Game) onSnapshot(s model.Snapshot) {
	prev := g.Snapshot
	g.Snapshot = &s
	if g.State == REPORT {
		return
	}
	switch s.State {
	case "ACTIVE":
		g.State = ROAMING
	case "COLLIDING":
		if g.State != QUESTION {
			g.animate(1, 0, .6, ease.OutQuad, func(v float32) { g.flash = float64(v) }).
				addOnFinish(func() { g.flash = 0 })
		}
		g.State = QUESTION
	case "WON", "LOST":
		g.State = OVER
	}

	if prev == nil || prev.Player != s.Player {
		fromX, fromY := g.drawnX, g.drawnY
		toX, toY := float64(s.Player.X), float64(s.Player.Y)
		if fromX-toX > 1 || toX-fromX > 1 || fromY-toY > 1 || toY-fromY > 1 {
			// respawn, no sliding across the maze
			g.drawnX, g.drawnY = toX, toY
			return
		}
		g.animate(0, 1, .1, ease.Linear, func(v float32) {
			g.drawnX = fromX + (toX-fromX)*float64(v)
			g.drawnY = fromY + (toY-fromY)*float64(v)
		}).addOnFinish(func() {
			g.drawnX, g.drawnY = toX, toY
		})
	}
}

func (g *Game) update(screen *ebiten.Image) error {
	g.drain()
	g.updateTweens()
	if g.State != DISCONNECTED {
		if err := g.handleInput(); err != nil {
			return err
		}
	} else if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if ebiten.IsDrawingSkipped() {
		return nil
	}
	g.draw(screen)
	return nil
}
