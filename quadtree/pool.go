package quadtree

// pool is a free-list arena. Slots are addressed by index and never move out
// from under a caller that holds the index, only the backing slice may grow.
// Pointers returned by at are valid until the next obtain.
type pool[E any] struct {
	slots []E
	live  []bool
	free  []int32
	reset func(*E)
}

func newPool[E any](size int, reset func(*E)) *pool[E] {
	p := &pool[E]{reset: reset}
	p.fill(size)
	return p
}

// fill pre-populates n fresh slots on the free list.
func (p *pool[E]) fill(n int) {
	for i := 0; i < n; i++ {
		id := p.grow()
		p.live[id] = false
		p.free = append(p.free, id)
	}
}

// grow constructs one reset slot at the end of the arena.
func (p *pool[E]) grow() int32 {
	var zero E
	p.slots = append(p.slots, zero)
	p.live = append(p.live, true)
	id := int32(len(p.slots) - 1)
	if p.reset != nil {
		p.reset(&p.slots[id])
	}
	return id
}

// obtain pops a reset slot, growing the arena when the free list is empty.
func (p *pool[E]) obtain() int32 {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		p.live[id] = true
		return id
	}
	return p.grow()
}

// release resets the slot and pushes it back onto the free list.
// Releasing a slot that is not live is a no-op.
func (p *pool[E]) release(id int32) {
	if !p.isLive(id) {
		return
	}
	if p.reset != nil {
		p.reset(&p.slots[id])
	}
	p.live[id] = false
	p.free = append(p.free, id)
}

func (p *pool[E]) at(id int32) *E {
	return &p.slots[id]
}

func (p *pool[E]) isLive(id int32) bool {
	return id >= 0 && int(id) < len(p.live) && p.live[id]
}

// allocated is the high-water mark: every slot ever constructed.
func (p *pool[E]) allocated() int {
	return len(p.slots)
}

func (p *pool[E]) inUse() int {
	return len(p.slots) - len(p.free)
}
