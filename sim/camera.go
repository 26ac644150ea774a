package sim

import (
	"math"

	"quadsim/quadtree"
)

const (
	MinZoom = 0.5
	MaxZoom = 200.0
)

// Camera is an orthographic view into the world. Zoom is world units per
// screen pixel; world y grows upward while screen y grows downward.
type Camera struct {
	X, Y   float64 // center in world coordinates
	Zoom   float64
	Width  float64 // viewport width in pixels
	Height float64 // viewport height in pixels
}

// NewCamera creates a camera centered on (x, y)
func NewCamera(x, y, zoom, width, height float64) *Camera {
	return &Camera{X: x, Y: y, Zoom: clampZoom(zoom), Width: width, Height: height}
}

// ViewRect returns the part of the world covered by the viewport.
func (c *Camera) ViewRect() quadtree.Rect {
	w := c.Width * c.Zoom
	h := c.Height * c.Zoom
	return quadtree.Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

// CullRect returns the view shrunk by insetX, insetY pixels on every side, so
// culling can be watched from inside the window. It never inverts.
func (c *Camera) CullRect(insetX, insetY float64) quadtree.Rect {
	view := c.ViewRect()
	dx := math.Min(insetX*c.Zoom, view.Width/2)
	dy := math.Min(insetY*c.Zoom, view.Height/2)
	return quadtree.Rect{
		X:      view.X + dx,
		Y:      view.Y + dy,
		Width:  view.Width - 2*dx,
		Height: view.Height - 2*dy,
	}
}

// Pan moves the camera by a screen-space offset.
func (c *Camera) Pan(dx, dy float64) {
	c.X += dx * c.Zoom
	c.Y += dy * c.Zoom
}

// ZoomBy adds delta to the zoom, clamped to [MinZoom, MaxZoom].
func (c *Camera) ZoomBy(delta float64) {
	c.Zoom = clampZoom(c.Zoom + delta)
}

func (c *Camera) Resize(width, height float64) {
	c.Width = width
	c.Height = height
}

// WorldToScreen converts world coordinates to screen coordinates
func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	sx := (wx-c.X)/c.Zoom + c.Width/2
	sy := c.Height/2 - (wy-c.Y)/c.Zoom
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates
func (c *Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	wx := (sx-c.Width/2)*c.Zoom + c.X
	wy := (c.Height/2-sy)*c.Zoom + c.Y
	return wx, wy
}

// RectToScreen returns the screen-space top-left corner and size of r.
func (c *Camera) RectToScreen(r quadtree.Rect) (x, y, w, h float64) {
	x, y = c.WorldToScreen(r.X, r.Y+r.Height)
	return x, y, r.Width / c.Zoom, r.Height / c.Zoom
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
