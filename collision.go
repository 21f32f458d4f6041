package main

// Rect is an axis-aligned hitbox with X,Y at the top-left corner
type Rect struct {
	X, Y, W, H float64
}

// Overlaps uses strict inequality, so touching edges do not collide
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W &&
		r.X+r.W > o.X &&
		r.Y < o.Y+o.H &&
		r.Y+r.H > o.Y
}

// CheckCollision tests two hitboxes for overlap
func CheckCollision(a, b Rect) bool {
	return a.Overlaps(b)
}

// CenteredRect builds a w×h box centred on (cx, cy)
func CenteredRect(cx, cy, w, h float64) Rect {
	return Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}
}
