package sim

import "quadsim/quadtree"

// Config holds the layout of the demo world and the initial tree limits.
type Config struct {
	// WorldBounds is the area covered by the quadtree root.
	WorldBounds quadtree.Rect

	// SpawnBounds is where sprites are placed and bounce around.
	SpawnBounds quadtree.Rect

	// SpriteWidth and SpriteHeight size every sprite in world units.
	SpriteWidth  float64
	SpriteHeight float64

	// Sprites is the number of sprites created by NewField.
	Sprites int

	MaxLevel        int
	MaxItemsPerNode int

	// PoolSize pre-fills the tree's node and item pools.
	PoolSize int

	// MinSpeed and MaxSpeed bound sprite speed in world units per second.
	MinSpeed float64
	MaxSpeed float64
}

// MaxTreeLevel is the deepest tree a caller may ask for. Deeper trees only
// add nodes: at level 16 a default world cell is about 1.5 units wide.
const MaxTreeLevel = 16

// DefaultConfig returns a 1000 sprite world with a depth 6 tree.
func DefaultConfig() Config {
	return Config{
		WorldBounds:     quadtree.Rect{X: -20000, Y: -20000, Width: 100000, Height: 100000},
		SpawnBounds:     quadtree.Rect{X: 10000, Y: 10000, Width: 40000, Height: 40000},
		SpriteWidth:     256,
		SpriteHeight:    256,
		Sprites:         1000,
		MaxLevel:        6,
		MaxItemsPerNode: 4,
		PoolSize:        32,
		MinSpeed:        150,
		MaxSpeed:        600,
	}
}
