package quadtree

import "strconv"

// Rect represents an axis-aligned rectangle in 2D space. X and Y locate the
// bottom-left corner; y increases upward.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Overlaps reports whether the open interiors of r and o intersect.
// Rectangles that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Width && r.X+r.Width > o.X &&
		r.Y < o.Y+o.Height && r.Y+r.Height > o.Y
}

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width*0.5, r.Y + r.Height*0.5
}

// quadrants splits r into NW, NE, SW, SE halves.
func (r Rect) quadrants() [4]Rect {
	hw := r.Width * 0.5
	hh := r.Height * 0.5
	return [4]Rect{
		northWest: {X: r.X, Y: r.Y + hh, Width: hw, Height: hh},
		northEast: {X: r.X + hw, Y: r.Y + hh, Width: hw, Height: hh},
		southWest: {X: r.X, Y: r.Y, Width: hw, Height: hh},
		southEast: {X: r.X + hw, Y: r.Y, Width: hw, Height: hh},
	}
}

func (r Rect) String() string {
	return "[" + strconv.FormatFloat(r.X, 'f', -1, 64) + "," +
		strconv.FormatFloat(r.Y, 'f', -1, 64) + " " +
		strconv.FormatFloat(r.Width, 'f', -1, 64) + "x" +
		strconv.FormatFloat(r.Height, 'f', -1, 64) + "]"
}
