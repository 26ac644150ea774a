package main

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"quadsim/quadtree"
	"quadsim/sim"
)

var (
	colorBackground = color.RGBA{20, 20, 40, 255}
	colorCandidate  = color.RGBA{90, 90, 110, 255}
	colorVisible    = color.RGBA{230, 230, 230, 255}
	colorCull       = color.RGBA{0, 0, 255, 255}
)

// Legend rows, one per level color
const legendLevels = 7

// Game draws a sim.Session and feeds it keyboard and mouse input
type Game struct {
	session *sim.Session
	face    *text.GoXFace
}

func NewGame(s *sim.Session) *Game {
	return &Game{
		session: s,
		face:    text.NewGoXFace(basicfont.Face7x13),
	}
}

// Update handles input and advances the simulation by one tick
func (g *Game) Update() error {
	g.handleInput()
	g.session.Update(1 / float64(ebiten.TPS()))
	g.session.SampleMemory(time.Now())
	return nil
}

func (g *Game) handleInput() {
	s := g.session

	var dx, dy float64
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		dx++
	} else if ebiten.IsKeyPressed(ebiten.KeyA) {
		dx--
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		dy++
	} else if ebiten.IsKeyPressed(ebiten.KeyS) {
		dy--
	}
	if dx != 0 || dy != 0 {
		s.MoveCamera(dx, dy)
	}

	dx, dy = 0, 0
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		dx++
	} else if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		dx--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		dy++
	} else if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		dy--
	}
	if dx != 0 || dy != 0 {
		s.ShiftSprites(dx, dy)
	}

	// Q zooms out, E and wheel up zoom in
	if ebiten.IsKeyPressed(ebiten.KeyQ) {
		s.Zoom(1)
	} else if ebiten.IsKeyPressed(ebiten.KeyE) {
		s.Zoom(-1)
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		s.Zoom(-wy)
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace), inpututil.IsKeyJustPressed(ebiten.KeyR):
		s.Randomize()
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		s.ToggleTree()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		s.TogglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd):
		s.AdjustMaxLevel(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract):
		s.AdjustMaxLevel(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketRight):
		s.AdjustMaxItems(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft):
		s.AdjustMaxItems(-1)
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		s.ScaleSprites(0.5, maxSprites)
	case inpututil.IsKeyJustPressed(ebiten.KeyM):
		s.ScaleSprites(2, maxSprites)
	}
}

// Draw renders sprites, node outlines, the cull rect and the HUD
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)

	s := g.session
	cull := s.CullRect()
	for _, sp := range s.Candidates() {
		clr := colorCandidate
		if sp.Bounds.Overlaps(cull) {
			clr = colorVisible
		}
		x, y, w, h := s.Camera.RectToScreen(sp.Bounds)
		vector.DrawFilledRect(screen, float32(x), float32(y), float32(max(w, 1)), float32(max(h, 1)), clr, false)
	}

	if s.Field.TreeEnabled() {
		s.Field.Tree().Walk(func(n quadtree.NodeInfo) {
			g.strokeRect(screen, n.Bounds, sim.LevelColor(n.Level))
		})
	}
	g.strokeRect(screen, cull, colorCull)

	ebitenutil.DebugPrint(screen, s.Status(ebiten.ActualFPS(), ebiten.ActualTPS()))
	g.drawLegend(screen)
}

func (g *Game) strokeRect(screen *ebiten.Image, r quadtree.Rect, clr color.Color) {
	x, y, w, h := g.session.Camera.RectToScreen(r)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, clr, false)
}

func (g *Game) drawLegend(screen *ebiten.Image) {
	x := g.session.Camera.Width - 90
	for level := range legendLevels {
		label := fmt.Sprintf("level %d", level)
		if level == legendLevels-1 {
			label += "+"
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(x, 10+float64(level)*16)
		op.ColorScale.ScaleWithColor(sim.LevelColor(level))
		text.Draw(screen, label, g.face, op)
	}
}

// Layout follows the window size so the camera covers the whole window
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.session.Camera.Resize(float64(outsideWidth), float64(outsideHeight))
	return outsideWidth, outsideHeight
}
