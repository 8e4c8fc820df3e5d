package main

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten"
)

// Nine draws a frame of any size from a nine slice image: corners keep
// their scale, edges and center stretch.
type Nine struct {
	image               *ebiten.Image
	alpha               float64
	R, G, B, Scale      float64
	positions           [4][2]int
	x, y, width, height int
	scaleCenterWidth    float64
	scaleCenterHeight   float64
	targetPositions     [3][2]float64
}

// NewPanel builds a nine slice of a plain bordered square, so the client
// ships no image assets.
func NewPanel(border int, c GameColor) (*Nine, error) {
	side := 3 * border
	img, err := ebiten.NewImage(side, side, ebiten.FilterNearest)
	if err != nil {
		return nil, err
	}
	if err := img.Fill(color.White); err != nil {
		return nil, err
	}
	inner, err := ebiten.NewImage(border, border, ebiten.FilterNearest)
	if err != nil {
		return nil, err
	}
	if err := inner.Fill(color.Black); err != nil {
		return nil, err
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(border), float64(border))
	if err := img.DrawImage(inner, op); err != nil {
		return nil, err
	}
	return &Nine{
		image:     img,
		alpha:     .85,
		R:         c.r,
		G:         c.g,
		B:         c.b,
		Scale:     1,
		positions: [4][2]int{{0, 0}, {border, border}, {2 * border, 2 * border}, {side, side}},
	}, nil
}

func (n *Nine) SetPosition(x, y int) {
	n.x = x
	n.y = y
	n.SetSize(n.width, n.height)
}

func (n *Nine) SetSize(width, height int) {
	n.width = width
	n.height = height
	n.targetPositions[0][0] = float64(n.x)
	n.targetPositions[0][1] = float64(n.y)

	n.targetPositions[1][0] = float64(n.x) + n.Scale*float64(n.positions[1][0])
	n.targetPositions[1][1] = float64(n.y) + n.Scale*float64(n.positions[1][1])

	n.targetPositions[2][0] = float64(n.x+n.width) - n.Scale*float64(n.positions[3][0]-n.positions[2][0])
	n.targetPositions[2][1] = float64(n.y+n.height) - n.Scale*float64(n.positions[3][1]-n.positions[2][1])

	innerWidth := n.targetPositions[2][0] - n.targetPositions[1][0]
	innerHigh := n.targetPositions[2][1] - n.targetPositions[1][1]

	n.scaleCenterWidth = innerWidth / float64(n.positions[2][0]-n.positions[1][0])
	n.scaleCenterHeight = innerHigh / float64(n.positions[2][1]-n.positions[1][1])
}

func (n *Nine) Draw(screen *ebiten.Image) {
	scalesX := [3]float64{n.Scale, n.scaleCenterWidth, n.Scale}
	scalesY := [3]float64{n.Scale, n.scaleCenterHeight, n.Scale}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(scalesX[col], scalesY[row])
			op.GeoM.Translate(n.targetPositions[col][0], n.targetPositions[row][1])
			op.ColorM.Scale(n.R, n.G, n.B, n.alpha)
			src := image.Rect(n.positions[col][0], n.positions[row][1], n.positions[col+1][0], n.positions[row+1][1])
			screen.DrawImage(n.image.SubImage(src).(*ebiten.Image), op)
		}
	}
}
