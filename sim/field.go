package sim

import (
	"math"
	"math/rand"
	"time"

	"quadsim/quadtree"
)

const (
	// Movement parameters, same feel as a wandering vehicle
	turnProbability  = 0.05
	turnMaxAngle     = 0.15
	accelerationProb = 0.05
	accelerationMax  = 0.15
)

// Sprite is a moving rectangle in the demo world
type Sprite struct {
	ID     int           `json:"id"`
	Bounds quadtree.Rect `json:"bounds"`
	VX     float64       `json:"vx"`
	VY     float64       `json:"vy"`
}

// QueryStats tracks culling queries made against a Field
type QueryStats struct {
	Queries        int           `json:"queries"`
	Candidates     int           `json:"candidates"`
	Visible        int           `json:"visible"`
	LastCandidates int           `json:"lastCandidates"`
	LastVisible    int           `json:"lastVisible"`
	AvgQueryTime   time.Duration `json:"avgQueryTimeNs"`
	Rebuilds       int           `json:"rebuilds"`
	LastRebuild    time.Duration `json:"lastRebuildNs"`
}

// Field owns the sprites and the quadtree rebuilt from them every tick.
// It is not safe for concurrent use.
type Field struct {
	cfg         Config
	rand        *rand.Rand
	sprites     []*Sprite
	tree        *quadtree.Quadtree[*Sprite]
	treeEnabled bool
	stats       QueryStats
}

// NewField creates cfg.Sprites sprites at random positions and indexes them.
func NewField(cfg Config, r *rand.Rand) *Field {
	f := &Field{
		cfg:         cfg,
		rand:        r,
		tree:        quadtree.New[*Sprite](cfg.WorldBounds, cfg.MaxLevel, cfg.MaxItemsPerNode, cfg.PoolSize),
		treeEnabled: true,
	}
	f.Resize(cfg.Sprites)
	f.Rebuild()
	return f
}

func (f *Field) Config() Config {
	return f.cfg
}

func (f *Field) Sprites() []*Sprite {
	return f.sprites
}

// Tree exposes the index for debug drawing.
func (f *Field) Tree() *quadtree.Quadtree[*Sprite] {
	return f.tree
}

func (f *Field) TreeEnabled() bool {
	return f.treeEnabled
}

// SetTreeEnabled switches culling between the quadtree and a linear scan.
func (f *Field) SetTreeEnabled(enabled bool) {
	f.treeEnabled = enabled
	if !enabled {
		f.tree.Clear()
	}
}

func (f *Field) SetMaxLevel(level int) {
	f.tree.SetMaxLevel(level)
}

func (f *Field) SetMaxItemsPerNode(n int) {
	f.tree.SetMaxItemsPerNode(n)
}

func (f *Field) Stats() QueryStats {
	return f.stats
}

// Resize replaces the sprite set with n freshly randomized sprites.
func (f *Field) Resize(n int) {
	if n < 0 {
		n = 0
	}
	f.sprites = make([]*Sprite, n)
	for i := range f.sprites {
		heading := f.rand.Float64() * 2 * math.Pi
		speed := f.cfg.MinSpeed + f.rand.Float64()*(f.cfg.MaxSpeed-f.cfg.MinSpeed)
		f.sprites[i] = &Sprite{
			ID:     i + 1,
			Bounds: quadtree.Rect{Width: f.cfg.SpriteWidth, Height: f.cfg.SpriteHeight},
			VX:     math.Cos(heading) * speed,
			VY:     math.Sin(heading) * speed,
		}
	}
	f.Randomize()
}

// Randomize scatters the sprites over the spawn area. A sprite that would
// stick out past the far edge is pulled back by its own size.
func (f *Field) Randomize() {
	area := f.cfg.SpawnBounds
	for _, s := range f.sprites {
		x := area.X + f.rand.Float64()*area.Width
		if x+s.Bounds.Width > area.X+area.Width {
			x -= s.Bounds.Width
		}
		y := area.Y + f.rand.Float64()*area.Height
		if y+s.Bounds.Height > area.Y+area.Height {
			y -= s.Bounds.Height
		}
		s.Bounds.X = x
		s.Bounds.Y = y
	}
}

// Shift moves every sprite by the same offset.
func (f *Field) Shift(dx, dy float64) {
	for _, s := range f.sprites {
		s.Bounds.X += dx
		s.Bounds.Y += dy
	}
}

// Step advances every sprite by dt seconds, wandering and bouncing off the
// spawn area edges.
func (f *Field) Step(dt float64) {
	area := f.cfg.SpawnBounds
	for _, s := range f.sprites {
		if f.rand.Float64() < turnProbability {
			turn := (f.rand.Float64()*2 - 1.0) * turnMaxAngle
			sin, cos := math.Sincos(turn)
			s.VX, s.VY = s.VX*cos-s.VY*sin, s.VX*sin+s.VY*cos
		}

		if f.rand.Float64() < accelerationProb {
			change := 1.0 + (f.rand.Float64()*2-1.0)*accelerationMax
			speed := math.Hypot(s.VX, s.VY)
			if speed > 0 {
				next := math.Max(f.cfg.MinSpeed, math.Min(f.cfg.MaxSpeed, speed*change))
				s.VX *= next / speed
				s.VY *= next / speed
			}
		}

		s.Bounds.X += s.VX * dt
		s.Bounds.Y += s.VY * dt

		if s.Bounds.X < area.X {
			s.Bounds.X = area.X
			s.VX = math.Abs(s.VX)
		} else if maxX := area.X + area.Width - s.Bounds.Width; s.Bounds.X > maxX {
			s.Bounds.X = maxX
			s.VX = -math.Abs(s.VX)
		}
		if s.Bounds.Y < area.Y {
			s.Bounds.Y = area.Y
			s.VY = math.Abs(s.VY)
		} else if maxY := area.Y + area.Height - s.Bounds.Height; s.Bounds.Y > maxY {
			s.Bounds.Y = maxY
			s.VY = -math.Abs(s.VY)
		}
	}
}

// Rebuild clears the tree and inserts every sprite with its current bounds.
// It returns how many sprites the tree accepted.
func (f *Field) Rebuild() int {
	start := time.Now()
	f.tree.Clear()
	if !f.treeEnabled {
		return 0
	}

	inserted := 0
	for _, s := range f.sprites {
		if _, ok := f.tree.Add(s, s.Bounds); ok {
			inserted++
		}
	}
	f.stats.Rebuilds++
	f.stats.LastRebuild = time.Since(start)
	return inserted
}

// Candidates appends the broad-phase result for view to dst. With the tree
// enabled this is every sprite held by a node overlapping view; otherwise
// it is a linear scan.
func (f *Field) Candidates(view quadtree.Rect, dst []*Sprite) []*Sprite {
	start := time.Now()
	before := len(dst)
	if f.treeEnabled {
		for _, it := range f.tree.Retrieve(view) {
			dst = append(dst, f.tree.Payload(it))
		}
	} else {
		for _, s := range f.sprites {
			if s.Bounds.Overlaps(view) {
				dst = append(dst, s)
			}
		}
	}
	f.record(time.Since(start), len(dst)-before)
	return dst
}

// Visible appends the sprites whose bounds actually overlap view.
func (f *Field) Visible(view quadtree.Rect, dst []*Sprite) []*Sprite {
	before := len(dst)
	dst = f.Candidates(view, dst)
	kept := dst[:before]
	for _, s := range dst[before:] {
		if s.Bounds.Overlaps(view) {
			kept = append(kept, s)
		}
	}
	f.stats.LastVisible = len(kept) - before
	f.stats.Visible += f.stats.LastVisible
	return kept
}

func (f *Field) record(elapsed time.Duration, candidates int) {
	f.stats.Queries++
	f.stats.Candidates += candidates
	f.stats.LastCandidates = candidates

	// Weighted average of query time
	if f.stats.Queries == 1 {
		f.stats.AvgQueryTime = elapsed
	} else {
		weight := 0.1
		f.stats.AvgQueryTime = time.Duration(
			float64(f.stats.AvgQueryTime)*(1-weight) + float64(elapsed)*weight,
		)
	}
}
