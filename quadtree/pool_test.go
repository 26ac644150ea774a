package quadtree

import "testing"

type slot struct {
	n     int
	reset int
}

func resetSlot(s *slot) {
	s.n = 0
	s.reset++
}

func TestPoolFillAndReuse(t *testing.T) {
	p := newPool(2, resetSlot)
	if p.allocated() != 2 || p.inUse() != 0 {
		t.Fatalf("after fill: allocated %d in use %d, want 2 and 0", p.allocated(), p.inUse())
	}

	a := p.obtain()
	b := p.obtain()
	c := p.obtain()
	if p.allocated() != 3 {
		t.Errorf("allocated = %d after growing, want 3", p.allocated())
	}
	if a == b || b == c || a == c {
		t.Fatalf("obtain returned duplicate slots %d %d %d", a, b, c)
	}

	p.at(b).n = 9
	p.release(b)
	if p.at(b).n != 0 {
		t.Error("release did not reset the slot")
	}
	if got := p.obtain(); got != b {
		t.Errorf("obtain = %d, want reused slot %d", got, b)
	}
	if p.allocated() != 3 {
		t.Errorf("allocated = %d after reuse, want 3", p.allocated())
	}
}

func TestPoolReleaseIsIdempotent(t *testing.T) {
	p := newPool(0, resetSlot)
	a := p.obtain()
	p.release(a)
	p.release(a)
	p.release(-1)
	p.release(99)
	if len(p.free) != 1 {
		t.Fatalf("free list has %d entries, want 1", len(p.free))
	}
	if p.isLive(a) {
		t.Error("released slot still live")
	}
}

func TestPoolResetsFreshSlots(t *testing.T) {
	p := newPool(3, resetSlot)
	for i := int32(0); i < 3; i++ {
		if p.at(i).reset != 1 {
			t.Errorf("slot %d reset %d times, want 1", i, p.at(i).reset)
		}
	}
	for i := 0; i < 3; i++ {
		p.obtain()
	}
	grown := p.obtain()
	if p.at(grown).reset != 1 {
		t.Errorf("grown slot reset %d times, want 1", p.at(grown).reset)
	}
}
