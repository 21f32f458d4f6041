package main

import "testing"

func TestPlatformIndexQuery(t *testing.T) {
	idx := testIndex()

	// box right above the first platform
	p := idx.Platform(0)
	got := idx.QueryBuf(Rect{X: p.X + 10, Y: p.Y - 30, W: 20, H: 40}, nil)
	found := false
	for _, i := range got {
		if i == 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected platform 0 in %v", got)
	}

	// empty sky far from every platform
	got = idx.QueryBuf(Rect{X: 10, Y: 10, W: 20, H: 20}, got)
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestPlatformIndexResultsSortedAndUnique(t *testing.T) {
	w := World{Width: 1000, Height: 800, GroundY: 700}
	platforms := []Platform{
		{X: 50, Y: 450, W: 400, H: 20}, // spans several cells
		{X: 120, Y: 420, W: 50, H: 20},
		{X: 10, Y: 410, W: 30, H: 20},
	}
	idx := NewPlatformIndex(w, platforms)
	got := idx.QueryBuf(Rect{X: 0, Y: 400, W: 500, H: 80}, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %v", got)
	}
	for i, v := range got {
		if v != i {
			t.Errorf("expected list order, got %v", got)
			break
		}
	}
}

func TestPlatformIndexOutOfBoundsQuery(t *testing.T) {
	idx := testIndex()
	// must clamp, not panic
	_ = idx.QueryBuf(Rect{X: -500, Y: -500, W: 10, H: 10}, nil)
	_ = idx.QueryBuf(Rect{X: 1e6, Y: 1e6, W: 10, H: 10}, nil)
}

func TestPlatformIndexNil(t *testing.T) {
	var idx *PlatformIndex
	if got := idx.QueryBuf(Rect{W: 10, H: 10}, nil); len(got) != 0 {
		t.Errorf("nil index should return nothing, got %v", got)
	}
}
