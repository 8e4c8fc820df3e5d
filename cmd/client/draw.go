package main

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/golang/freetype/truetype"
	"github.com/hajimehoshi/ebiten"
	"github.com/hajimehoshi/ebiten/ebitenutil"
	"github.com/hajimehoshi/ebiten/text"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/mathkombat/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	size      = 40
	hudHeight = 200
)

func HexToF32(u uint32) GameColor {
	b := float64(0xff&u) / 255
	g := float64(0xff&(u>>8)) / 255
	r := float64(0xff&(u>>16)) / 255
	return GameColor{r, g, b}
}

type GameColor struct {
	r, g, b float64
}

func (c GameColor) Alpha(a float64) color.Color {
	return color.NRGBA{uint8(c.r * 255), uint8(c.g * 255), uint8(c.b * 255), uint8(a * 255)}
}

var (
	COLOR_FLOOR  = HexToF32(0x1a1a1a)
	COLOR_WALL   = HexToF32(0x444444)
	COLOR_NODE   = HexToF32(0xedbc1e)
	COLOR_PLAYER = HexToF32(0x34fbf6)
	COLOR_FLASH  = HexToF32(0xfa3636)
)

var GHOST_COLORS = []GameColor{
	HexToF32(0xfa3636),
	HexToF32(0xcb18dd),
	HexToF32(0x0abd38),
	HexToF32(0xff9a1f),
	HexToF32(0x321ecc),
}

var POWER_COLORS = map[model.PowerUpKind]GameColor{
	model.PowerShield:     HexToF32(0x8ecbff),
	model.PowerSpeed:      HexToF32(0x0abd38),
	model.PowerPoints:     HexToF32(0xffffff),
	model.PowerFreeze:     HexToF32(0x34fbf6),
	model.PowerMultiplier: HexToF32(0xedbc1e),
	model.PowerPhase:      HexToF32(0xcb18dd),
}

var Font font.Face

func init() {
	tt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		log.Fatal(err)
	}
	Font = truetype.NewFace(tt, &truetype.Options{
		Size:    18,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func cellRect(screen *ebiten.Image, x, y, inset float64, c color.Color) {
	ebitenutil.DrawRect(screen, x*size+inset, y*size+inset, size-2*inset, size-2*inset, c)
}

func (g *Game) draw(screen *ebiten.Image) {
	if err := screen.Fill(COLOR_FLOOR.Alpha(1)); err != nil {
		log.Printf("%v", err)
	}
	for _, p := range g.wallCells() {
		cellRect(screen, float64(p.X), float64(p.Y), 1, COLOR_WALL.Alpha(1))
	}

	if s := g.Snapshot; s != nil {
		for _, p := range s.Collectibles {
			cellRect(screen, float64(p.X), float64(p.Y), size*.4, COLOR_NODE.Alpha(1))
		}
		for _, pu := range s.PowerUps {
			cellRect(screen, float64(pu.Pos.X), float64(pu.Pos.Y), size*.3, POWER_COLORS[pu.Kind].Alpha(.9))
		}
		for i, gh := range s.Ghosts {
			alpha := 1.0
			if _, frozen := s.Effects["freeze"]; frozen {
				alpha = .4
			}
			cellRect(screen, float64(gh.Pos.X), float64(gh.Pos.Y), 6, GHOST_COLORS[i%len(GHOST_COLORS)].Alpha(alpha))
		}
		alpha := 1.0
		if _, shield := s.Effects["shield"]; shield {
			alpha = .55
		}
		cellRect(screen, g.drawnX, g.drawnY, 8, COLOR_PLAYER.Alpha(alpha))
	}
	if g.flash > 0 {
		w, h := screen.Size()
		ebitenutil.DrawRect(screen, 0, 0, float64(w), float64(h), COLOR_FLASH.Alpha(g.flash*.5))
	}
	g.drawHud(screen)
}

func (g *Game) wallCells() []model.Position {
	walls := make([]model.Position, 0)
	for x := 0; x < g.Grid.Cols; x++ {
		for y := 0; y < g.Grid.Rows; y++ {
			p := model.Position{X: x, Y: y}
			if !g.Grid.Walkable(p) {
				walls = append(walls, p)
			}
		}
	}
	return walls
}

func (g *Game) drawHud(screen *ebiten.Image) {
	top := g.Grid.Rows*size + 24
	if s := g.Snapshot; s != nil {
		text.Draw(screen, fmt.Sprintf("LIVES %d   POINTS %05d   NODES %d", s.Lives, s.Points, s.Collected), Font, 8, top, color.White)
	}
	lines := make([]string, 0)
	switch g.State {
	case BRIEFING:
		if g.Intro != nil {
			lines = append(lines, wrap(g.Intro.Story, 70)...)
		} else {
			lines = append(lines, "decrypting your origin story...")
		}
		lines = append(lines, "", "ENTER to enter the maze")
	case ROAMING:
		lines = append(lines, "arrows or swipe to move", effectLine(g.Snapshot))
	case QUESTION:
		if g.Snapshot != nil && len(g.Snapshot.Prompt) > 0 {
			pr := g.Snapshot.Prompt[0]
			if g.panel != nil {
				g.panel.SetPosition(2, top+4)
				g.panel.SetSize(g.Grid.Cols*size-4, 70)
				g.panel.Draw(screen)
			}
			text.Draw(screen, fmt.Sprintf("%s = ?   (%d)", pr.Text, pr.Countdown), Font, 8, top+28, COLOR_NODE.Alpha(1))
			opts := make([]string, len(pr.Options))
			for i, o := range pr.Options {
				opts[i] = fmt.Sprintf("%d) %d", i+1, o)
			}
			lines = append(lines, "", strings.Join(opts, "    "))
		}
	case OVER:
		if g.Snapshot != nil {
			lines = append(lines, g.Snapshot.State)
		}
	case REPORT:
		if r := g.Result; r != nil {
			lines = append(lines, fmt.Sprintf("SCORE %d  ACCURACY %d%%  SOLVED %d  FAILED %d", r.Points, r.Accuracy(), r.Correct, r.Incorrect))
		}
		if a := g.Analysis; a != nil {
			lines = append(lines, wrap(a.Strengths, 70)...)
			lines = append(lines, wrap(a.StudyPlan, 70)...)
		} else {
			lines = append(lines, "running diagnostics...")
		}
		lines = append(lines, "", "ENTER to play again, ESC to leave")
	case DISCONNECTED:
		lines = append(lines, "connection lost, ESC to leave")
	}
	ebitenutil.DebugPrintAt(screen, strings.Join(append(lines, g.Errors...), "\n"), 8, top+40)
	ebitenutil.DebugPrintAt(screen, g.State.Name(), g.Grid.Cols*size-100, top-20)
}

func effectLine(s *model.Snapshot) string {
	if s == nil || len(s.Effects) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.Effects))
	for _, k := range model.PowerUpKinds {
		if ms, ok := s.Effects[string(k)]; ok {
			parts = append(parts, fmt.Sprintf("%s %.1fs", k, float64(ms)/1000))
		}
	}
	return strings.Join(parts, "  ")
}

func wrap(s string, width int) []string {
	lines := make([]string, 0)
	line := ""
	for _, w := range strings.Fields(s) {
		if len(line)+len(w)+1 > width && line != "" {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += w
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}
