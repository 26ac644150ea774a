package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"quadsim/sim"
)

const (
	defaultWidth  = 1280
	defaultHeight = 800

	// Upper bound for the N/M sprite keys
	maxSprites = 200000
)

func main() {
	cfg := sim.DefaultConfig()
	width := flag.Int("width", defaultWidth, "window width")
	height := flag.Int("height", defaultHeight, "window height")
	flag.IntVar(&cfg.Sprites, "sprites", cfg.Sprites, "number of sprites")
	flag.IntVar(&cfg.MaxLevel, "max-level", cfg.MaxLevel, "quadtree max level")
	flag.IntVar(&cfg.MaxItemsPerNode, "max-items", cfg.MaxItemsPerNode, "quadtree max items per node")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()
	if cfg.MaxLevel < 0 || cfg.MaxLevel > sim.MaxTreeLevel {
		log.Fatalf("-max-level must be between 0 and %d, got %d", sim.MaxTreeLevel, cfg.MaxLevel)
	}

	field := sim.NewField(cfg, rand.New(rand.NewSource(*seed)))
	g := NewGame(sim.NewSession(field, float64(*width), float64(*height)))

	ebiten.SetWindowSize(*width, *height)
	ebiten.SetWindowTitle("Quadtree")
	ebiten.SetWindowResizable(true)

	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
