package sim

import (
	"fmt"
	"runtime"
	"time"

	"quadsim/quadtree"
)

// Cull inset in screen pixels, so the culling edge is visible inside the window
const (
	cullInsetX = 300
	cullInsetY = 200
)

// Session is the interactive state behind a viewer: a field, a camera and
// the knobs a user can turn. It has no rendering or input dependencies.
type Session struct {
	Field  *Field
	Camera *Camera

	Paused bool

	// CameraSpeed is in screen pixels per update, ZoomSpeed in zoom units
	// per update, SpriteShift in world units per update.
	CameraSpeed float64
	ZoomSpeed   float64
	SpriteShift float64

	candidates []*Sprite
	visible    int

	mem         runtime.MemStats
	lastSample  time.Time
	lastMallocs uint64
	heapMB      float64
	mallocsPerS float64
}

// NewSession frames the camera over the middle of the spawn area.
func NewSession(field *Field, width, height float64) *Session {
	x, y := field.Config().SpawnBounds.Center()
	return &Session{
		Field:       field,
		Camera:      NewCamera(x, y, 7.5, width, height),
		CameraSpeed: 15,
		ZoomSpeed:   0.1,
		SpriteShift: 5,
	}
}

// Update advances the simulation by dt seconds, rebuilds the tree and culls
// against the camera.
func (s *Session) Update(dt float64) {
	if !s.Paused {
		s.Field.Step(dt)
	}
	s.Field.Rebuild()

	cull := s.CullRect()
	s.candidates = s.Field.Candidates(cull, s.candidates[:0])
	s.visible = 0
	for _, sp := range s.candidates {
		if sp.Bounds.Overlaps(cull) {
			s.visible++
		}
	}
}

// SampleMemory refreshes heap figures at most once a second.
func (s *Session) SampleMemory(now time.Time) {
	if !s.lastSample.IsZero() && now.Sub(s.lastSample) < time.Second {
		return
	}
	runtime.ReadMemStats(&s.mem)
	if !s.lastSample.IsZero() {
		elapsed := now.Sub(s.lastSample).Seconds()
		s.mallocsPerS = float64(s.mem.Mallocs-s.lastMallocs) / elapsed
	}
	s.heapMB = float64(s.mem.HeapAlloc) / 1024 / 1024
	s.lastMallocs = s.mem.Mallocs
	s.lastSample = now
}

// CullRect is the area sprites are culled against.
func (s *Session) CullRect() quadtree.Rect {
	return s.Camera.CullRect(cullInsetX, cullInsetY)
}

// Candidates are the sprites returned by the last cull. Valid until the
// next Update.
func (s *Session) Candidates() []*Sprite {
	return s.candidates
}

func (s *Session) Visible() int {
	return s.visible
}

func (s *Session) ToggleTree() {
	s.Field.SetTreeEnabled(!s.Field.TreeEnabled())
}

func (s *Session) TogglePause() {
	s.Paused = !s.Paused
}

func (s *Session) Randomize() {
	s.Field.Randomize()
}

// AdjustMaxLevel changes the depth ceiling within [0, MaxTreeLevel].
func (s *Session) AdjustMaxLevel(delta int) {
	s.Field.SetMaxLevel(min(max(0, s.Field.Tree().MaxLevel()+delta), MaxTreeLevel))
}

// AdjustMaxItems changes the split threshold, never below zero.
func (s *Session) AdjustMaxItems(delta int) {
	s.Field.SetMaxItemsPerNode(max(0, s.Field.Tree().MaxItemsPerNode()+delta))
}

// ScaleSprites multiplies the sprite count by factor, keeping at least one
// sprite and at most limit.
func (s *Session) ScaleSprites(factor float64, limit int) {
	n := int(float64(len(s.Field.Sprites())) * factor)
	s.Field.Resize(min(max(n, 1), limit))
}

// ShiftSprites moves every sprite by dx, dy steps of SpriteShift.
func (s *Session) ShiftSprites(dx, dy float64) {
	s.Field.Shift(dx*s.SpriteShift, dy*s.SpriteShift)
}

// MoveCamera pans by dx, dy steps of CameraSpeed.
func (s *Session) MoveCamera(dx, dy float64) {
	s.Camera.Pan(dx*s.CameraSpeed, dy*s.CameraSpeed)
}

// Zoom changes the zoom by steps of ZoomSpeed.
func (s *Session) Zoom(steps float64) {
	s.Camera.ZoomBy(steps * s.ZoomSpeed)
}

// Status is the multi-line HUD text.
func (s *Session) Status(fps, tps float64) string {
	tree := s.Field.Tree()
	stats := tree.Stats()
	q := s.Field.Stats()
	mode := "quadtree"
	if !s.Field.TreeEnabled() {
		mode = "linear scan"
	}
	paused := ""
	if s.Paused {
		paused = " (paused)"
	}
	return fmt.Sprintf(
		"FPS: %0.1f TPS: %0.1f\n"+
			"Heap: %0.1f MB, %0.0f allocs/s\n"+
			"Sprites: %d%s, candidates %d, visible %d\n"+
			"Mode: %s, max level %d, max items %d\n"+
			"Nodes %d/%d, items %d/%d\n"+
			"Query %v, rebuild %v\n"+
			"Zoom %0.2f\n",
		fps, tps,
		s.heapMB, s.mallocsPerS,
		len(s.Field.Sprites()), paused, len(s.candidates), s.visible,
		mode, tree.MaxLevel(), tree.MaxItemsPerNode(),
		stats.Nodes, stats.NodesAllocated, stats.Items, stats.ItemsAllocated,
		q.AvgQueryTime, q.LastRebuild,
		s.Camera.Zoom,
	)
}
