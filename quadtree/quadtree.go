/*
Package quadtree implements a pooled region quadtree for broad-phase overlap
queries over axis-aligned rectangles.

The tree is meant to be rebuilt every tick: Clear it, insert every live item
with its current bounds, then Retrieve once per query. Nodes and items live in
free-list arenas owned by the tree, so a rebuild of the same volume of items
does not allocate.

Retrieve returns a candidate superset chosen by node bounds, not by item
bounds. Callers needing exact results re-test each returned item.

A Quadtree is not safe for concurrent use.
*/
package quadtree

// Quadrant order used for delegation and traversal.
const (
	northWest = iota
	northEast
	southWest
	southEast
)

const noNode int32 = -1

// Item is a handle to a pooled item slot. It is only meaningful to the tree
// it was obtained from, and only until that tree releases it.
type Item int32

// NoItem is never returned by ObtainItem.
const NoItem Item = -1

type item[T any] struct {
	payload T
	bounds  Rect
}

type node struct {
	bounds   Rect
	level    int
	children [4]int32
	items    []Item
}

func (n *node) hasChildren() bool {
	return n.children[northWest] != noNode
}

// NodeInfo describes one live node for debug drawing.
type NodeInfo struct {
	Bounds Rect
	Level  int
	Items  int
}

// Stats reports pool usage. Allocated counts are high-water marks.
type Stats struct {
	Nodes          int
	NodesAllocated int
	Items          int
	ItemsAllocated int
}

// Quadtree is the root of the tree. It owns the configuration, the node and
// item pools and the buffer returned by Retrieve.
type Quadtree[T any] struct {
	maxLevel        int
	maxItemsPerNode int
	root            int32
	nodes           *pool[node]
	items           *pool[item[T]]
	retrieved       []Item
}

// New creates a Quadtree covering bounds. Both pools are pre-filled with
// poolSize slots.
func New[T any](bounds Rect, maxLevel, maxItemsPerNode, poolSize int) *Quadtree[T] {
	if poolSize < 0 {
		poolSize = 0
	}
	qt := &Quadtree[T]{
		maxLevel:        maxLevel,
		maxItemsPerNode: maxItemsPerNode,
		nodes:           newPool(poolSize, resetNode),
		items:           newPool(poolSize, resetItem[T]),
		retrieved:       make([]Item, 0, poolSize),
	}
	qt.root = qt.nodes.obtain()
	qt.nodes.at(qt.root).bounds = bounds
	return qt
}

func resetNode(n *node) {
	n.bounds = Rect{}
	n.level = 0
	n.children = [4]int32{noNode, noNode, noNode, noNode}
	n.items = n.items[:0]
}

func resetItem[T any](it *item[T]) {
	var zero T
	it.payload = zero
	it.bounds = Rect{}
}

// Bounds returns the area covered by the root.
func (qt *Quadtree[T]) Bounds() Rect {
	return qt.nodes.at(qt.root).bounds
}

func (qt *Quadtree[T]) MaxLevel() int {
	return qt.maxLevel
}

// SetMaxLevel changes the depth ceiling for future splits. Existing nodes are
// left as they are.
func (qt *Quadtree[T]) SetMaxLevel(level int) {
	qt.maxLevel = level
}

func (qt *Quadtree[T]) MaxItemsPerNode() int {
	return qt.maxItemsPerNode
}

// SetMaxItemsPerNode changes the split threshold for future insertions.
func (qt *Quadtree[T]) SetMaxItemsPerNode(n int) {
	qt.maxItemsPerNode = n
}

// ObtainItem takes an item from the pool. Initialize it with Init before
// inserting it.
func (qt *Quadtree[T]) ObtainItem() Item {
	return Item(qt.items.obtain())
}

// Init sets the payload and bounds of an obtained item. Init on a handle that
// is not currently obtained does nothing.
func (qt *Quadtree[T]) Init(it Item, payload T, bounds Rect) {
	if !qt.items.isLive(int32(it)) {
		return
	}
	slot := qt.items.at(int32(it))
	slot.payload = payload
	slot.bounds = bounds
}

// Payload returns the payload of it, or the zero value for a released handle.
func (qt *Quadtree[T]) Payload(it Item) T {
	if !qt.items.isLive(int32(it)) {
		var zero T
		return zero
	}
	return qt.items.at(int32(it)).payload
}

// ItemBounds returns the bounds it was initialized with.
func (qt *Quadtree[T]) ItemBounds(it Item) Rect {
	if !qt.items.isLive(int32(it)) {
		return Rect{}
	}
	return qt.items.at(int32(it)).bounds
}

// Insert places it in the tree. If its bounds do not overlap the root, the
// item is released back to the pool, false is returned and the handle must
// not be used again.
func (qt *Quadtree[T]) Insert(it Item) bool {
	if !qt.items.isLive(int32(it)) {
		return false
	}
	if !qt.insert(qt.root, it) {
		qt.items.release(int32(it))
		return false
	}
	return true
}

// Add obtains, initializes and inserts an item in one call.
func (qt *Quadtree[T]) Add(payload T, bounds Rect) (Item, bool) {
	it := qt.ObtainItem()
	qt.Init(it, payload, bounds)
	if !qt.Insert(it) {
		return NoItem, false
	}
	return it, true
}

func (qt *Quadtree[T]) insert(id int32, it Item) bool {
	bounds := qt.items.at(int32(it)).bounds
	n := qt.nodes.at(id)
	if !bounds.Overlaps(n.bounds) {
		return false
	}

	if n.hasChildren() && qt.delegate(id, it) {
		return true
	}

	// delegate and split may grow the node arena, so n is re-read after them.
	n = qt.nodes.at(id)
	n.items = append(n.items, it)
	if len(n.items) <= qt.maxItemsPerNode || n.level >= qt.maxLevel {
		return true
	}

	if !n.hasChildren() {
		qt.split(id)
	}

	local := qt.nodes.at(id).items
	kept := local[:0]
	for _, held := range local {
		if !qt.delegate(id, held) {
			kept = append(kept, held)
		}
	}
	qt.nodes.at(id).items = kept
	return true
}

// delegate offers it to the children of id in NW, NE, SW, SE order and stops
// at the first one that accepts it.
func (qt *Quadtree[T]) delegate(id int32, it Item) bool {
	children := qt.nodes.at(id).children
	for _, child := range children {
		if qt.insert(child, it) {
			return true
		}
	}
	return false
}

func (qt *Quadtree[T]) split(id int32) {
	n := qt.nodes.at(id)
	quads := n.bounds.quadrants()
	level := n.level + 1

	var children [4]int32
	for q := range children {
		child := qt.nodes.obtain()
		c := qt.nodes.at(child)
		c.bounds = quads[q]
		c.level = level
		children[q] = child
	}
	qt.nodes.at(id).children = children
}

// Retrieve returns every item held by a node whose bounds overlap area. The
// returned slice is reused: it is only valid until the next Retrieve or Clear.
func (qt *Quadtree[T]) Retrieve(area Rect) []Item {
	qt.retrieved = qt.retrieve(qt.root, area, qt.retrieved[:0])
	return qt.retrieved
}

func (qt *Quadtree[T]) retrieve(id int32, area Rect, list []Item) []Item {
	n := qt.nodes.at(id)
	if n.hasChildren() {
		for _, child := range n.children {
			if qt.nodes.at(child).bounds.Overlaps(area) {
				list = qt.retrieve(child, area, list)
			}
		}
	}
	return append(list, n.items...)
}

// Clear returns every node and item to the pools, leaving the root as an
// empty leaf with its original bounds.
func (qt *Quadtree[T]) Clear() {
	qt.retrieved = qt.retrieved[:0]
	qt.clear(qt.root)
}

func (qt *Quadtree[T]) clear(id int32) {
	n := qt.nodes.at(id)
	for _, it := range n.items {
		qt.items.release(int32(it))
	}
	n.items = n.items[:0]

	children := n.children
	for q, child := range children {
		if child == noNode {
			continue
		}
		qt.clear(child)
		qt.nodes.release(child)
		qt.nodes.at(id).children[q] = noNode
	}
}

// Walk calls fn for every live node, children before their parent.
func (qt *Quadtree[T]) Walk(fn func(NodeInfo)) {
	qt.walk(qt.root, fn)
}

func (qt *Quadtree[T]) walk(id int32, fn func(NodeInfo)) {
	n := qt.nodes.at(id)
	if n.hasChildren() {
		for _, child := range n.children {
			qt.walk(child, fn)
		}
	}
	fn(NodeInfo{Bounds: n.bounds, Level: n.level, Items: len(n.items)})
}

// Stats reports how many nodes and items are in use and how many the pools
// have ever constructed.
func (qt *Quadtree[T]) Stats() Stats {
	return Stats{
		Nodes:          qt.nodes.inUse(),
		NodesAllocated: qt.nodes.allocated(),
		Items:          qt.items.inUse(),
		ItemsAllocated: qt.items.allocated(),
	}
}
