package game

import "testing"

func TestUIDPoolLowestFree(t *testing.T) {
	p := newUIDPool(1, 3)
	for want := 1; want <= 3; want++ {
		uid, ok := p.Acquire()
		if !ok || uid != want {
			t.Fatalf("expected uid %d, got %d (ok=%v)", want, uid, ok)
		}
	}
	if _, ok := p.Acquire(); ok {
		t.Fatal("expected the pool to be exhausted")
	}

	p.Release(2)
	if p.Taken(2) {
		t.Error("expected uid 2 to be free after release")
	}
	uid, ok := p.Acquire()
	if !ok || uid != 2 {
		t.Errorf("expected released uid 2 to be reused, got %d", uid)
	}
	if p.Len() != 3 {
		t.Errorf("expected 3 taken, got %d", p.Len())
	}
}

func TestUIDPoolReleaseUnknown(t *testing.T) {
	p := newUIDPool(0, 1)
	p.Release(5)
	p.Release(0)
	if p.Len() != 0 {
		t.Errorf("expected an empty pool, got %d", p.Len())
	}
}
