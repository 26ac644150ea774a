package main

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Chart plots rebuild and query times, in microseconds, against sprite count
func Chart(path string, results []Result) error {
	p := plot.New()
	p.Title.Text = "Quadtree rebuild and query cost"
	p.X.Label.Text = "Sprites"
	p.Y.Label.Text = "µs per operation"

	rebuild := make(plotter.XYs, len(results))
	tree := make(plotter.XYs, len(results))
	scan := make(plotter.XYs, len(results))
	for i, res := range results {
		x := float64(res.Sprites)
		rebuild[i] = plotter.XY{X: x, Y: float64(res.RebuildNs) / 1e3}
		tree[i] = plotter.XY{X: x, Y: float64(res.TreeQueryNs) / 1e3}
		scan[i] = plotter.XY{X: x, Y: float64(res.ScanQueryNs) / 1e3}
	}

	if err := plotutil.AddLinePoints(p,
		"rebuild", rebuild,
		"tree query", tree,
		"linear scan", scan,
	); err != nil {
		return fmt.Errorf("add lines: %w", err)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
