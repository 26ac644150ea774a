package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"slices"
	"strconv"
	"strings"

	"quadsim/sim"
)

const (
	defaultCounts   = "1000,5000,10000,50000,100000"
	defaultQueries  = 1000
	defaultRebuilds = 50
	warmupRebuilds  = 10
	tickSeconds     = 0.05

	// Query view of the default viewer camera (1024x768 at zoom 7.5)
	viewWidth  = 1024 * 7.5
	viewHeight = 768 * 7.5

	snapshotSize = 1024
)

func parseCounts(s string) ([]int, error) {
	var counts []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid count %q: %w", field, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("count must be positive, got %d", n)
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no counts in %q", s)
	}
	slices.Sort(counts)
	return counts, nil
}

func main() {
	countsFlag := flag.String("counts", defaultCounts, "comma separated sprite counts")
	queries := flag.Int("queries", defaultQueries, "queries per count")
	rebuilds := flag.Int("rebuilds", defaultRebuilds, "timed rebuilds per count")
	out := flag.String("out", "quadbench.png", "chart output (png, svg or pdf); empty to skip")
	csvPath := flag.String("csv", "quadbench.csv", "CSV output; empty to skip")
	snapshot := flag.String("snapshot", "", "BMP snapshot of the tree at the largest count")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	counts, err := parseCounts(*countsFlag)
	if err != nil {
		log.Fatalf("Invalid -counts: %v", err)
	}

	w := Workload{
		Config:     sim.DefaultConfig(),
		Rebuilds:   *rebuilds,
		Queries:    *queries,
		ViewWidth:  viewWidth,
		ViewHeight: viewHeight,
	}
	r := rand.New(rand.NewSource(*seed))

	fmt.Printf("%10s %12s %12s %12s %11s %9s %8s\n",
		"sprites", "rebuild", "tree query", "scan query", "candidates", "visible", "allocs")
	results := make([]Result, 0, len(counts))
	for _, n := range counts {
		res := Measure(w, n, r)
		results = append(results, res)
		fmt.Printf("%10d %10dns %10dns %10dns %11.1f %9.1f %8d\n",
			res.Sprites, res.RebuildNs, res.TreeQueryNs, res.ScanQueryNs,
			res.Candidates, res.Visible, res.Allocs)
	}

	if *csvPath != "" {
		if err := WriteCSV(*csvPath, results); err != nil {
			log.Fatalf("Failed to write CSV: %v", err)
		}
		log.Printf("Wrote %s", *csvPath)
	}
	if *out != "" {
		if err := Chart(*out, results); err != nil {
			log.Fatalf("Failed to render chart: %v", err)
		}
		log.Printf("Wrote %s", *out)
	}
	if *snapshot != "" {
		cfg := w.Config
		cfg.Sprites = counts[len(counts)-1]
		field := sim.NewField(cfg, r)
		if err := WriteSnapshot(*snapshot, field, snapshotSize); err != nil {
			log.Fatalf("Failed to write snapshot: %v", err)
		}
		log.Printf("Wrote %s", *snapshot)
	}
}
