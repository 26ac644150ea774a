package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quadsim/quadtree"
	"quadsim/sim"
)

// SpriteResponse is the JSON format for one sprite
type SpriteResponse struct {
	ID     int           `json:"id"`
	Bounds quadtree.Rect `json:"bounds"`
	VX     float64       `json:"vx"`
	VY     float64       `json:"vy"`
}

// NodeResponse is the JSON format for one quadtree node
type NodeResponse struct {
	Bounds quadtree.Rect `json:"bounds"`
	Level  int           `json:"level"`
	Items  int           `json:"items"`
	Color  string        `json:"color"`
}

// ConfigMessage changes the simulation at runtime. Nil fields are left as they are.
type ConfigMessage struct {
	MaxLevel        *int  `json:"maxLevel,omitempty"`
	MaxItemsPerNode *int  `json:"maxItemsPerNode,omitempty"`
	Sprites         *int  `json:"sprites,omitempty"`
	Randomize       bool  `json:"randomize,omitempty"`
	DisableQuadtree *bool `json:"disableQuadtree,omitempty"`
}

// ConfigResponse is the JSON format of the current runtime configuration
type ConfigResponse struct {
	MaxLevel        int           `json:"maxLevel"`
	MaxItemsPerNode int           `json:"maxItemsPerNode"`
	Sprites         int           `json:"sprites"`
	DisableQuadtree bool          `json:"disableQuadtree"`
	WorldBounds     quadtree.Rect `json:"worldBounds"`
	SpawnBounds     quadtree.Rect `json:"spawnBounds"`
}

// Simulation moves sprites, rebuilds the quadtree every tick and serves
// culling queries to HTTP and websocket clients
type Simulation struct {
	field   *sim.Field
	fieldMu sync.Mutex

	lastRebuild time.Time
	tree        quadtree.Stats

	// WebSocket related fields
	clients   map[string]*WebSocketClient
	clientsMu sync.RWMutex
	upgrader  websocket.Upgrader
}

// NewSimulation creates a new sprite simulation
func NewSimulation(cfg sim.Config, r *rand.Rand) *Simulation {
	field := sim.NewField(cfg, r)
	return &Simulation{
		field:       field,
		lastRebuild: time.Now(),
		tree:        field.Tree().Stats(),
		clients:     make(map[string]*WebSocketClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
	}
}

// Tick moves every sprite by dt seconds and rebuilds the quadtree
func (s *Simulation) Tick(dt float64) {
	s.fieldMu.Lock()
	defer s.fieldMu.Unlock()

	s.field.Step(dt)
	s.field.Rebuild()
	s.tree = s.field.Tree().Stats()
	s.lastRebuild = time.Now()
}

// Query returns the sprites found for view. With exact set, candidates are
// re-tested against view; otherwise the broad-phase superset is returned.
func (s *Simulation) Query(view quadtree.Rect, exact bool) ([]SpriteResponse, sim.QueryStats) {
	s.fieldMu.Lock()
	defer s.fieldMu.Unlock()
	return s.query(view, exact)
}

func (s *Simulation) query(view quadtree.Rect, exact bool) ([]SpriteResponse, sim.QueryStats) {
	var found []*sim.Sprite
	if exact {
		found = s.field.Visible(view, nil)
	} else {
		found = s.field.Candidates(view, nil)
	}

	sprites := make([]SpriteResponse, 0, len(found))
	for _, sp := range found {
		sprites = append(sprites, SpriteResponse{ID: sp.ID, Bounds: sp.Bounds, VX: sp.VX, VY: sp.VY})
	}
	return sprites, s.field.Stats()
}

// Nodes returns the geometry of every live quadtree node, children first
func (s *Simulation) Nodes() []NodeResponse {
	s.fieldMu.Lock()
	defer s.fieldMu.Unlock()
	return s.nodes()
}

func (s *Simulation) nodes() []NodeResponse {
	var nodes []NodeResponse
	s.field.Tree().Walk(func(n quadtree.NodeInfo) {
		c := sim.LevelColor(n.Level)
		nodes = append(nodes, NodeResponse{
			Bounds: n.Bounds,
			Level:  n.Level,
			Items:  n.Items,
			Color:  fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B),
		})
	})
	return nodes
}

// Frame queries view and, with withNodes set, captures the tree geometry
// under the same lock, so both come from one rebuild.
func (s *Simulation) Frame(view quadtree.Rect, exact, withNodes bool) FrameResponse {
	s.fieldMu.Lock()
	defer s.fieldMu.Unlock()

	sprites, stats := s.query(view, exact)
	frame := FrameResponse{
		Type:       "frame",
		Sprites:    sprites,
		Count:      len(sprites),
		Candidates: stats.LastCandidates,
		View:       view,
		Stats:      stats,
		Rebuild:    stats.Rebuilds,
		Time:       time.Now().UnixMilli(),
	}
	if withNodes {
		frame.Nodes = s.nodes()
	}
	return frame
}

// ApplyConfig validates msg and applies it
func (s *Simulation) ApplyConfig(msg ConfigMessage) error {
	if msg.Sprites != nil && (*msg.Sprites < 0 || *msg.Sprites > maxSprites) {
		return fmt.Errorf("sprites must be between 0 and %d, got %d", maxSprites, *msg.Sprites)
	}
	if msg.MaxLevel != nil && (*msg.MaxLevel < 0 || *msg.MaxLevel > sim.MaxTreeLevel) {
		return fmt.Errorf("maxLevel must be between 0 and %d, got %d", sim.MaxTreeLevel, *msg.MaxLevel)
	}
	if msg.MaxItemsPerNode != nil && *msg.MaxItemsPerNode < 0 {
		return fmt.Errorf("maxItemsPerNode must not be negative, got %d", *msg.MaxItemsPerNode)
	}

	s.fieldMu.Lock()
	defer s.fieldMu.Unlock()

	if msg.MaxLevel != nil {
		s.field.SetMaxLevel(*msg.MaxLevel)
	}
	if msg.MaxItemsPerNode != nil {
		s.field.SetMaxItemsPerNode(*msg.MaxItemsPerNode)
	}
	if msg.DisableQuadtree != nil {
		s.field.SetTreeEnabled(!*msg.DisableQuadtree)
	}
	if msg.Sprites != nil {
		s.field.Resize(*msg.Sprites)
	} else if msg.Randomize {
		s.field.Randomize()
	}
	s.field.Rebuild()
	s.tree = s.field.Tree().Stats()
	return nil
}

// Config returns the current runtime configuration
func (s *Simulation) Config() ConfigResponse {
	s.fieldMu.Lock()
	defer s.fieldMu.Unlock()

	cfg := s.field.Config()
	return ConfigResponse{
		MaxLevel:        s.field.Tree().MaxLevel(),
		MaxItemsPerNode: s.field.Tree().MaxItemsPerNode(),
		Sprites:         len(s.field.Sprites()),
		DisableQuadtree: !s.field.TreeEnabled(),
		WorldBounds:     cfg.WorldBounds,
		SpawnBounds:     cfg.SpawnBounds,
	}
}

// PrintStats prints the current simulation statistics
func (s *Simulation) PrintStats() {
	s.fieldMu.Lock()
	stats := s.field.Stats()
	tree := s.tree
	sprites := len(s.field.Sprites())
	lastRebuild := s.lastRebuild
	s.fieldMu.Unlock()

	s.clientsMu.RLock()
	clients := len(s.clients)
	s.clientsMu.RUnlock()

	avgCandidates := 0.0
	if stats.Queries > 0 {
		avgCandidates = float64(stats.Candidates) / float64(stats.Queries)
	}

	fmt.Printf("\n--- Simulation Statistics ---\n")
	fmt.Printf("Sprites: %d, Clients: %d\n", sprites, clients)
	fmt.Printf("Queries: %d total, %.2f candidates/query avg\n", stats.Queries, avgCandidates)
	fmt.Printf("Average Query Time: %v\n", stats.AvgQueryTime)
	fmt.Printf("Quadtree Rebuilds: %d (last took %v, %v ago)\n",
		stats.Rebuilds, stats.LastRebuild, time.Since(lastRebuild).Round(time.Millisecond))
	fmt.Printf("Pools: %d/%d nodes, %d/%d items in use\n",
		tree.Nodes, tree.NodesAllocated, tree.Items, tree.ItemsAllocated)
	fmt.Printf("-----------------------------\n")
}

// Run drives the simulation until ctx is done
func (s *Simulation) Run(ctx context.Context, update, broadcast, stats time.Duration) {
	updateTicker := time.NewTicker(update)
	broadcastTicker := time.NewTicker(broadcast)
	statsTicker := time.NewTicker(stats)
	defer updateTicker.Stop()
	defer broadcastTicker.Stop()
	defer statsTicker.Stop()

	fmt.Println("Starting sprite simulation with", s.Config().Sprites, "sprites")
	fmt.Println("Press Ctrl+C to stop the simulation")

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopping simulation...")
			return

		case <-updateTicker.C:
			s.Tick(update.Seconds())

		case <-broadcastTicker.C:
			s.BroadcastFrames()

		case <-statsTicker.C:
			s.PrintStats()
		}
	}
}
