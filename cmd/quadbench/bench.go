package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"time"

	"quadsim/quadtree"
	"quadsim/sim"
)

// Result is one row of the benchmark: all timings are per operation
type Result struct {
	Sprites     int
	RebuildNs   int64
	TreeQueryNs int64
	ScanQueryNs int64
	Candidates  float64 // average candidates per tree query
	Visible     float64 // average exact hits per query
	Allocs      uint64  // heap objects allocated per rebuild after warm-up
}

// Workload describes one benchmark run
type Workload struct {
	Config   sim.Config
	Rebuilds int
	Queries  int
	// View size of each query, in world units
	ViewWidth  float64
	ViewHeight float64
}

// Measure builds a field of n sprites and times rebuilds and queries on it.
// Query views are drawn from the spawn area so most of them hit sprites.
func Measure(w Workload, n int, r *rand.Rand) Result {
	cfg := w.Config
	cfg.Sprites = n
	field := sim.NewField(cfg, r)

	// Warm the pools up before counting allocations
	for range warmupRebuilds {
		field.Step(tickSeconds)
		field.Rebuild()
	}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	var rebuild time.Duration
	for range w.Rebuilds {
		field.Step(tickSeconds)
		start := time.Now()
		field.Rebuild()
		rebuild += time.Since(start)
	}
	runtime.ReadMemStats(&after)

	views := make([]quadtree.Rect, w.Queries)
	area := cfg.SpawnBounds
	for i := range views {
		views[i] = quadtree.Rect{
			X:      area.X + r.Float64()*(area.Width-w.ViewWidth),
			Y:      area.Y + r.Float64()*(area.Height-w.ViewHeight),
			Width:  w.ViewWidth,
			Height: w.ViewHeight,
		}
	}

	var candidates, visible int
	var buf []*sim.Sprite
	start := time.Now()
	for _, view := range views {
		buf = field.Candidates(view, buf[:0])
		candidates += len(buf)
		for _, sp := range buf {
			if sp.Bounds.Overlaps(view) {
				visible++
			}
		}
	}
	tree := time.Since(start)

	field.SetTreeEnabled(false)
	start = time.Now()
	for _, view := range views {
		buf = field.Candidates(view, buf[:0])
	}
	scan := time.Since(start)

	res := Result{Sprites: n}
	if w.Rebuilds > 0 {
		res.RebuildNs = rebuild.Nanoseconds() / int64(w.Rebuilds)
		res.Allocs = (after.Mallocs - before.Mallocs) / uint64(w.Rebuilds)
	}
	if w.Queries > 0 {
		res.TreeQueryNs = tree.Nanoseconds() / int64(w.Queries)
		res.ScanQueryNs = scan.Nanoseconds() / int64(w.Queries)
		res.Candidates = float64(candidates) / float64(w.Queries)
		res.Visible = float64(visible) / float64(w.Queries)
	}
	return res
}

var csvHeader = []string{"sprites", "rebuild_ns", "tree_query_ns", "scan_query_ns", "candidates", "visible", "allocs_per_rebuild"}

// Record writes one result as a CSV row
func Record(w *csv.Writer, res Result) {
	w.Write([]string{
		strconv.Itoa(res.Sprites),
		strconv.FormatInt(res.RebuildNs, 10),
		strconv.FormatInt(res.TreeQueryNs, 10),
		strconv.FormatInt(res.ScanQueryNs, 10),
		strconv.FormatFloat(res.Candidates, 'f', 2, 64),
		strconv.FormatFloat(res.Visible, 'f', 2, 64),
		strconv.FormatUint(res.Allocs, 10),
	})
}

// WriteCSV writes a header and every result to path
func WriteCSV(path string, results []Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write(csvHeader)
	for _, res := range results {
		Record(w, res)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
