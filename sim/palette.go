package sim

import "image/color"

var levelColors = []color.RGBA{
	{255, 165, 0, 255}, // orange
	{255, 255, 0, 255}, // yellow
	{255, 0, 0, 255},   // red
	{0, 255, 0, 255},   // green
	{0, 0, 255, 255},   // blue
	{255, 0, 255, 255}, // magenta
}

var deepColor = color.RGBA{0, 255, 255, 255} // cyan

// LevelColor returns the debug outline color for a node depth.
func LevelColor(level int) color.RGBA {
	if level < 0 || level >= len(levelColors) {
		return deepColor
	}
	return levelColors[level]
}
