package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"quadsim/sim"
)

const (
	// Simulation parameters
	defaultSprites    = 1000
	defaultMaxLevel   = 6
	defaultMaxItems   = 4
	updateInterval    = 50 * time.Millisecond // rebuild the tree every tick
	broadcastInterval = 100 * time.Millisecond
	statsInterval     = 5 * time.Second

	// Upper bound for sprite counts requested by clients
	maxSprites = 200000

	// Server settings
	serverAddr = ":8080"
)

// Default client camera
const (
	defaultCameraX      = 30000
	defaultCameraY      = 30000
	defaultCameraZoom   = 7.5
	defaultCameraWidth  = 1024
	defaultCameraHeight = 768
)

// Options are the command line tunables of the server
type Options struct {
	Addr              string
	Sprites           int
	MaxLevel          int
	MaxItemsPerNode   int
	UpdateInterval    time.Duration
	BroadcastInterval time.Duration
	StatsInterval     time.Duration
	Seed              int64
}

func parseOptions(args []string) (Options, error) {
	var opts Options
	fs := flag.NewFlagSet("quadsim", flag.ContinueOnError)
	fs.StringVar(&opts.Addr, "addr", serverAddr, "HTTP listen address")
	fs.IntVar(&opts.Sprites, "sprites", defaultSprites, "number of simulated sprites")
	fs.IntVar(&opts.MaxLevel, "max-level", defaultMaxLevel, "quadtree max level")
	fs.IntVar(&opts.MaxItemsPerNode, "max-items", defaultMaxItems, "quadtree max items per node")
	fs.DurationVar(&opts.UpdateInterval, "tick", updateInterval, "simulation tick; the tree is rebuilt every tick")
	fs.DurationVar(&opts.BroadcastInterval, "broadcast", broadcastInterval, "websocket frame interval")
	fs.DurationVar(&opts.StatsInterval, "stats", statsInterval, "statistics print interval")
	fs.Int64Var(&opts.Seed, "seed", time.Now().UnixNano(), "random seed")
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"tick", opts.UpdateInterval},
		{"broadcast", opts.BroadcastInterval},
		{"stats", opts.StatsInterval},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return Options{}, fmt.Errorf("-%s must be positive, got %v", iv.name, iv.d)
		}
	}
	if opts.Sprites < 0 || opts.Sprites > maxSprites {
		return Options{}, fmt.Errorf("-sprites must be between 0 and %d, got %d", maxSprites, opts.Sprites)
	}
	if opts.MaxLevel < 0 || opts.MaxLevel > sim.MaxTreeLevel {
		return Options{}, fmt.Errorf("-max-level must be between 0 and %d, got %d", sim.MaxTreeLevel, opts.MaxLevel)
	}
	if opts.MaxItemsPerNode < 0 {
		return Options{}, fmt.Errorf("-max-items must not be negative, got %d", opts.MaxItemsPerNode)
	}
	return opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	cfg := sim.DefaultConfig()
	cfg.Sprites = opts.Sprites
	cfg.MaxLevel = opts.MaxLevel
	cfg.MaxItemsPerNode = opts.MaxItemsPerNode

	r := rand.New(rand.NewSource(opts.Seed))
	s := NewSimulation(cfg, r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv, err := StartServer(opts.Addr, s)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	s.Run(ctx, opts.UpdateInterval, opts.BroadcastInterval, opts.StatsInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}
