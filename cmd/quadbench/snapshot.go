package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/bmp"

	"quadsim/quadtree"
	"quadsim/sim"
)

// Snapshot renders the tree of field into a size x size image: node outlines
// in level colors, sprites in white, world y pointing up.
func Snapshot(field *sim.Field, size int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	world := field.Tree().Bounds()
	sx := float64(size) / world.Width
	sy := float64(size) / world.Height
	clamp := func(v int) int {
		return min(max(v, 0), size-1)
	}
	// pixel box of r, top-left and bottom-right inclusive
	box := func(r quadtree.Rect) (x1, y1, x2, y2 int) {
		x1 = clamp(int((r.X - world.X) * sx))
		x2 = clamp(int((r.X + r.Width - world.X) * sx))
		y1 = clamp(size - 1 - int((r.Y+r.Height-world.Y)*sy))
		y2 = clamp(size - 1 - int((r.Y-world.Y)*sy))
		return x1, y1, x2, y2
	}

	field.Tree().Walk(func(n quadtree.NodeInfo) {
		col := sim.LevelColor(n.Level)
		x1, y1, x2, y2 := box(n.Bounds)
		for x := x1; x <= x2; x++ {
			frame.SetRGBA(x, y1, col)
			frame.SetRGBA(x, y2, col)
		}
		for y := y1; y <= y2; y++ {
			frame.SetRGBA(x1, y, col)
			frame.SetRGBA(x2, y, col)
		}
	})

	white := color.RGBA{255, 255, 255, 255}
	for _, sp := range field.Sprites() {
		x1, y1, x2, y2 := box(sp.Bounds)
		draw.Draw(frame, image.Rect(x1, y1, x2+1, y2+1), &image.Uniform{white}, image.Point{}, draw.Src)
	}
	return frame
}

// WriteSnapshot encodes Snapshot(field, size) as a BMP file
func WriteSnapshot(path string, field *sim.Field, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := bmp.Encode(f, Snapshot(field, size)); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
