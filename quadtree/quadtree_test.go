package quadtree

import (
	"math/rand"
	"sort"
	"testing"
)

func rootOf[T any](qt *Quadtree[T]) *node {
	return qt.nodes.at(qt.root)
}

func childOf[T any](qt *Quadtree[T], parent *node, q int) *node {
	return qt.nodes.at(parent.children[q])
}

func payloads(qt *Quadtree[string], items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, qt.Payload(it))
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestThreeItemsSplitOnce(t *testing.T) {
	qt := New[string](Rect{0, 0, 100, 100}, 2, 1, 16)
	for _, tc := range []struct {
		name   string
		bounds Rect
	}{
		{"a", Rect{10, 10, 5, 5}},
		{"b", Rect{60, 10, 5, 5}},
		{"c", Rect{10, 60, 5, 5}},
	} {
		if _, ok := qt.Add(tc.name, tc.bounds); !ok {
			t.Fatalf("Add(%s) rejected", tc.name)
		}
	}

	root := rootOf(qt)
	if !root.hasChildren() {
		t.Fatal("root did not split")
	}
	if len(root.items) != 0 {
		t.Errorf("root holds %d items, want 0", len(root.items))
	}

	want := map[int]string{southWest: "a", southEast: "b", northWest: "c"}
	for q := northWest; q <= southEast; q++ {
		child := childOf(qt, root, q)
		if child.level != 1 {
			t.Errorf("quadrant %d level = %d, want 1", q, child.level)
		}
		if child.hasChildren() {
			t.Errorf("quadrant %d split, want leaf", q)
		}
		name, ok := want[q]
		if !ok {
			if len(child.items) != 0 {
				t.Errorf("quadrant %d holds %d items, want 0", q, len(child.items))
			}
			continue
		}
		if len(child.items) != 1 || qt.Payload(child.items[0]) != name {
			t.Errorf("quadrant %d holds %v, want [%s]", q, payloads(qt, child.items), name)
		}
	}

	got := payloads(qt, qt.Retrieve(Rect{0, 0, 100, 100}))
	if !equalStrings(got, []string{"a", "b", "c"}) {
		t.Errorf("Retrieve = %v, want [a b c]", got)
	}
	if s := qt.Stats(); s.Nodes != 5 {
		t.Errorf("Stats().Nodes = %d, want 5", s.Nodes)
	}
}

func TestQuadrantGeometry(t *testing.T) {
	qt := New[string](Rect{-20, 10, 40, 80}, 1, 0, 0)
	qt.Add("x", Rect{-10, 20, 1, 1})

	root := rootOf(qt)
	if !root.hasChildren() {
		t.Fatal("root did not split")
	}
	want := [4]Rect{
		northWest: {-20, 50, 20, 40},
		northEast: {0, 50, 20, 40},
		southWest: {-20, 10, 20, 40},
		southEast: {0, 10, 20, 40},
	}
	for q, w := range want {
		if got := childOf(qt, root, q).bounds; got != w {
			t.Errorf("quadrant %d bounds = %v, want %v", q, got, w)
		}
	}
}

func TestSplitTrigger(t *testing.T) {
	qt := New[string](Rect{0, 0, 100, 100}, 4, 3, 0)
	items := map[int]Rect{
		northWest: {10, 60, 5, 5},
		northEast: {60, 60, 5, 5},
		southWest: {10, 10, 5, 5},
		southEast: {60, 10, 5, 5},
	}
	names := map[int]string{northWest: "nw", northEast: "ne", southWest: "sw", southEast: "se"}

	for q := northWest; q <= southEast; q++ {
		qt.Add(names[q], items[q])
		if q < southEast && rootOf(qt).hasChildren() {
			t.Fatalf("root split after %d items, want no split before %d", q+1, 4)
		}
	}

	root := rootOf(qt)
	if !root.hasChildren() {
		t.Fatal("root did not split")
	}
	if len(root.items) != 0 {
		t.Errorf("root holds %v, want nothing", payloads(qt, root.items))
	}
	for q := northWest; q <= southEast; q++ {
		child := childOf(qt, root, q)
		if len(child.items) != 1 || qt.Payload(child.items[0]) != names[q] {
			t.Errorf("quadrant %d holds %v, want [%s]", q, payloads(qt, child.items), names[q])
		}
	}
}

func TestDepthCeiling(t *testing.T) {
	t.Run("root", func(t *testing.T) {
		qt := New[int](Rect{0, 0, 100, 100}, 0, 1, 0)
		for i := 0; i < 10; i++ {
			qt.Add(i, Rect{float64(i * 9), float64(i * 9), 2, 2})
		}
		root := rootOf(qt)
		if root.hasChildren() {
			t.Error("root split at max level")
		}
		if len(root.items) != 10 {
			t.Errorf("root holds %d items, want 10", len(root.items))
		}
	})

	t.Run("nested", func(t *testing.T) {
		qt := New[int](Rect{0, 0, 100, 100}, 1, 1, 0)
		for i := 0; i < 6; i++ {
			qt.Add(i, Rect{float64(5 + i*5), 5, 1, 1})
		}
		root := rootOf(qt)
		sw := childOf(qt, root, southWest)
		if sw.hasChildren() {
			t.Error("level 1 node split with max level 1")
		}
		if len(sw.items) != 6 {
			t.Errorf("south west holds %d items, want 6", len(sw.items))
		}
		if s := qt.Stats(); s.Nodes != 5 {
			t.Errorf("Stats().Nodes = %d, want 5", s.Nodes)
		}
	})
}

func TestStraddlingItemGoesToFirstQuadrant(t *testing.T) {
	qt := New[string](Rect{0, 0, 100, 100}, 3, 1, 0)
	qt.Add("a", Rect{10, 10, 5, 5})
	qt.Add("wide", Rect{40, 40, 20, 20})

	root := rootOf(qt)
	nw := childOf(qt, root, northWest)
	if len(nw.items) != 1 || qt.Payload(nw.items[0]) != "wide" {
		t.Fatalf("north west holds %v, want [wide]", payloads(qt, nw.items))
	}
	if len(root.items) != 0 {
		t.Fatalf("root holds %v, want nothing", payloads(qt, root.items))
	}

	// The item overlaps this area but lives in a quadrant that does not.
	got := payloads(qt, qt.Retrieve(Rect{52, 52, 5, 5}))
	if len(got) != 0 {
		t.Errorf("Retrieve in north east = %v, want nothing", got)
	}
	got = payloads(qt, qt.Retrieve(Rect{45, 55, 2, 2}))
	if !equalStrings(got, []string{"wide"}) {
		t.Errorf("Retrieve in north west = %v, want [wide]", got)
	}
}

func TestItemOnPartitionLineStaysAtParent(t *testing.T) {
	qt := New[string](Rect{0, 0, 100, 100}, 3, 1, 0)
	qt.Add("a", Rect{10, 10, 5, 5})
	if _, ok := qt.Add("line", Rect{50, 10, 0, 5}); !ok {
		t.Fatal("line item rejected by root")
	}

	root := rootOf(qt)
	if !root.hasChildren() {
		t.Fatal("root did not split")
	}
	if len(root.items) != 1 || qt.Payload(root.items[0]) != "line" {
		t.Fatalf("root holds %v, want [line]", payloads(qt, root.items))
	}

	// Root items are returned for any area that reaches the root.
	got := payloads(qt, qt.Retrieve(Rect{90, 90, 1, 1}))
	if !equalStrings(got, []string{"line"}) {
		t.Errorf("Retrieve = %v, want [line]", got)
	}
}

func TestRetrieveIsNodeGranular(t *testing.T) {
	qt := New[string](Rect{0, 0, 100, 100}, 0, 4, 0)
	qt.Add("far", Rect{90, 90, 5, 5})
	got := payloads(qt, qt.Retrieve(Rect{1, 1, 1, 1}))
	if !equalStrings(got, []string{"far"}) {
		t.Errorf("Retrieve = %v, want [far]", got)
	}
}

func TestRejection(t *testing.T) {
	qt := New[string](Rect{0, 0, 100, 100}, 2, 1, 4)
	it := qt.ObtainItem()
	qt.Init(it, "outside", Rect{100, 0, 10, 10})
	if qt.Insert(it) {
		t.Fatal("Insert of touching item succeeded")
	}
	if s := qt.Stats(); s.Items != 0 {
		t.Errorf("Stats().Items = %d after rejection, want 0", s.Items)
	}
	if p := qt.Payload(it); p != "" {
		t.Errorf("Payload of released item = %q, want empty", p)
	}
	if qt.Insert(it) {
		t.Error("Insert of released item succeeded")
	}
	if _, ok := qt.Add("far", Rect{-50, -50, 10, 10}); ok {
		t.Error("Add of far item succeeded")
	}
	if got := qt.Retrieve(Rect{0, 0, 100, 100}); len(got) != 0 {
		t.Errorf("Retrieve = %v, want nothing", got)
	}
}

func TestClear(t *testing.T) {
	qt := New[int](Rect{0, 0, 1000, 1000}, 6, 4, 8)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 300; i++ {
		qt.Add(i, Rect{r.Float64() * 990, r.Float64() * 990, 10, 10})
	}
	if len(qt.Retrieve(Rect{0, 0, 1000, 1000})) != 300 {
		t.Fatal("Retrieve before Clear lost items")
	}

	qt.Clear()

	root := rootOf(qt)
	if root.hasChildren() {
		t.Error("root has children after Clear")
	}
	if len(root.items) != 0 {
		t.Errorf("root holds %d items after Clear", len(root.items))
	}
	if root.bounds != (Rect{0, 0, 1000, 1000}) || root.level != 0 {
		t.Errorf("root = %v level %d after Clear", root.bounds, root.level)
	}
	if got := qt.Retrieve(Rect{0, 0, 1000, 1000}); len(got) != 0 {
		t.Errorf("Retrieve after Clear returned %d items", len(got))
	}
	if s := qt.Stats(); s.Nodes != 1 || s.Items != 0 {
		t.Errorf("Stats() after Clear = %+v, want 1 node and 0 items", s)
	}
}

func TestPoolSteadyState(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	bounds := make([]Rect, 2000)
	for i := range bounds {
		bounds[i] = Rect{r.Float64() * 9900, r.Float64() * 9900, 1 + r.Float64()*100, 1 + r.Float64()*100}
	}

	qt := New[int](Rect{0, 0, 10000, 10000}, 6, 4, 32)
	rebuild := func() {
		qt.Clear()
		for i, b := range bounds {
			qt.Add(i, b)
		}
	}

	rebuild()
	first := qt.Stats()
	if first.Items != len(bounds) {
		t.Fatalf("Stats().Items = %d, want %d", first.Items, len(bounds))
	}
	for i := 0; i < 5; i++ {
		rebuild()
		if s := qt.Stats(); s != first {
			t.Fatalf("rebuild %d: Stats() = %+v, want %+v", i, s, first)
		}
	}
}

func TestConfigIsNotRetroactive(t *testing.T) {
	qt := New[int](Rect{0, 0, 100, 100}, 4, 1, 0)
	qt.Add(1, Rect{10, 10, 5, 5})
	qt.Add(2, Rect{60, 60, 5, 5})
	before := qt.Stats()

	qt.SetMaxItemsPerNode(100)
	qt.SetMaxLevel(0)
	if qt.MaxItemsPerNode() != 100 || qt.MaxLevel() != 0 {
		t.Fatalf("setters not applied: %d %d", qt.MaxItemsPerNode(), qt.MaxLevel())
	}
	if s := qt.Stats(); s != before {
		t.Errorf("Stats() = %+v after setters, want %+v", s, before)
	}
	if !rootOf(qt).hasChildren() {
		t.Error("setters merged the tree")
	}

	// New inserts still delegate into existing children.
	qt.Add(3, Rect{12, 12, 1, 1})
	sw := childOf(qt, rootOf(qt), southWest)
	if len(sw.items) != 2 {
		t.Errorf("south west holds %d items, want 2", len(sw.items))
	}
}

func TestDegenerateConfig(t *testing.T) {
	for _, tc := range []struct {
		name            string
		maxLevel        int
		maxItemsPerNode int
	}{
		{"zero items", 5, 0},
		{"zero level", 0, 0},
		{"negative items", 3, -4},
		{"negative level", -1, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			qt := New[int](Rect{0, 0, 64, 64}, tc.maxLevel, tc.maxItemsPerNode, -1)
			r := rand.New(rand.NewSource(3))
			for i := 0; i < 200; i++ {
				if _, ok := qt.Add(i, Rect{r.Float64() * 60, r.Float64() * 60, 2, 2}); !ok {
					t.Fatalf("Add(%d) rejected", i)
				}
			}
			if got := len(qt.Retrieve(Rect{0, 0, 64, 64})); got != 200 {
				t.Errorf("Retrieve returned %d items, want 200", got)
			}
			maxSeen := 0
			qt.Walk(func(n NodeInfo) {
				if n.Level > maxSeen {
					maxSeen = n.Level
				}
			})
			if limit := max(tc.maxLevel, 0); maxSeen > limit {
				t.Errorf("deepest level = %d, want at most %d", maxSeen, limit)
			}
		})
	}
}

func TestIdenticalItemsStopAtMaxLevel(t *testing.T) {
	qt := New[int](Rect{0, 0, 100, 100}, 8, 1, 0)
	for i := 0; i < 20; i++ {
		qt.Add(i, Rect{33, 33, 1, 1})
	}
	deepest := 0
	held := 0
	qt.Walk(func(n NodeInfo) {
		if n.Level > deepest {
			deepest = n.Level
		}
		if n.Items > 0 {
			held = n.Items
		}
	})
	if deepest != 8 {
		t.Errorf("deepest level = %d, want 8", deepest)
	}
	if held != 20 {
		t.Errorf("items in the deepest holder = %d, want 20", held)
	}
}

// holders maps every stored item to the bounds of the node holding it.
func holders[T any](qt *Quadtree[T]) map[Item]Rect {
	out := make(map[Item]Rect)
	var visit func(id int32)
	visit = func(id int32) {
		n := qt.nodes.at(id)
		for _, it := range n.items {
			out[it] = n.bounds
		}
		if n.hasChildren() {
			for _, c := range n.children {
				visit(c)
			}
		}
	}
	visit(qt.root)
	return out
}

func TestNoFalseNegativesAtNodeGranularity(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	qt := New[int](Rect{-500, -500, 1000, 1000}, 5, 3, 16)
	for i := 0; i < 1000; i++ {
		qt.Add(i, Rect{r.Float64()*1100 - 550, r.Float64()*1100 - 550, r.Float64() * 40, r.Float64() * 40})
	}
	stored := holders(qt)

	for q := 0; q < 200; q++ {
		area := Rect{r.Float64()*1000 - 500, r.Float64()*1000 - 500, r.Float64() * 200, r.Float64() * 200}
		got := make(map[Item]bool)
		for _, it := range qt.Retrieve(area) {
			if got[it] {
				t.Fatalf("query %v returned item %d twice", area, it)
			}
			got[it] = true
		}
		for it, nb := range stored {
			if nb.Overlaps(area) && !got[it] {
				t.Fatalf("query %v missed item %d held by node %v", area, it, nb)
			}
			if !nb.Overlaps(area) && got[it] {
				t.Fatalf("query %v returned item %d held by non-overlapping node %v", area, it, nb)
			}
		}
	}
}

func TestRetrieveReusesBuffer(t *testing.T) {
	qt := New[int](Rect{0, 0, 10, 10}, 2, 2, 4)
	qt.Add(1, Rect{1, 1, 1, 1})
	first := qt.Retrieve(Rect{0, 0, 10, 10})
	if len(first) != 1 {
		t.Fatalf("Retrieve returned %d items, want 1", len(first))
	}
	second := qt.Retrieve(Rect{0, 0, 10, 10})
	if &first[0] != &second[0] {
		t.Error("Retrieve allocated a new buffer")
	}
}

func TestWalkVisitsChildrenFirst(t *testing.T) {
	qt := New[string](Rect{0, 0, 100, 100}, 2, 1, 16)
	qt.Add("a", Rect{10, 10, 5, 5})
	qt.Add("b", Rect{60, 10, 5, 5})

	var seen []NodeInfo
	qt.Walk(func(n NodeInfo) { seen = append(seen, n) })
	if len(seen) != 5 {
		t.Fatalf("Walk visited %d nodes, want 5", len(seen))
	}
	last := seen[len(seen)-1]
	if last.Level != 0 || last.Bounds != qt.Bounds() {
		t.Errorf("last visited = %+v, want the root", last)
	}
	items := 0
	for _, n := range seen[:4] {
		if n.Level != 1 {
			t.Errorf("child level = %d, want 1", n.Level)
		}
		items += n.Items
	}
	if items != 2 {
		t.Errorf("children hold %d items, want 2", items)
	}
}

func TestInitIgnoresReleasedItem(t *testing.T) {
	qt := New[string](Rect{0, 0, 10, 10}, 1, 1, 1)
	it := qt.ObtainItem()
	qt.Init(it, "x", Rect{20, 20, 1, 1})
	qt.Insert(it)
	qt.Init(it, "y", Rect{1, 1, 1, 1})
	if b := qt.ItemBounds(it); b != (Rect{}) {
		t.Errorf("ItemBounds of released item = %v, want zero", b)
	}
}
