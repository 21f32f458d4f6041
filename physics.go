package main

// Units are world pixels and ticks.
const (
	Gravity      = 0.5
	MaxFallSpeed = 18.0
	MaxJumps     = 2
)

// Body is the positioned, moving part of players and enemies.
// X,Y is the top-left corner of a W×H hitbox.
type Body struct {
	X, Y      float64
	VX, VY    float64
	W, H      float64
	OnGround  bool
	JumpCount int
}

// Rect returns the hitbox in world coordinates
func (b *Body) Rect() Rect {
	return Rect{X: b.X, Y: b.Y, W: b.W, H: b.H}
}

// Center returns the centre of the hitbox
func (b *Body) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Bottom returns the y of the bottom edge
func (b *Body) Bottom() float64 {
	return b.Y + b.H
}

// Sane reports whether position and velocity are finite
func (b *Body) Sane() bool {
	return Finite(b.X, b.Y, b.VX, b.VY)
}

// Stop zeroes velocity
func (b *Body) Stop() {
	b.VX = 0
	b.VY = 0
}

// Jump applies an upward impulse if the double-jump budget allows it
func (b *Body) Jump(velocity float64) bool {
	if b.JumpCount >= MaxJumps {
		return false
	}
	b.VY = -velocity
	b.JumpCount++
	b.OnGround = false
	return true
}

// ApplyGravity accelerates the body downward, capped at MaxFallSpeed
func ApplyGravity(b *Body) {
	b.VY += Gravity
	if b.VY > MaxFallSpeed {
		b.VY = MaxFallSpeed
	}
}

// Move integrates velocity into position
func Move(b *Body) {
	b.X += b.VX
	b.Y += b.VY
}

// Land snaps the body on a surface at y
func Land(b *Body, y float64) {
	b.Y = y - b.H
	b.VY = 0
	b.OnGround = true
	b.JumpCount = 0
}

// Resolve runs one-way platform collision, the absolute floor test and the
// horizontal clamp. scratch is reused between calls to avoid allocations and
// is returned (possibly grown).
//
// Platforms are tested in list order and the first qualifying one wins, which
// is not necessarily the closest.
func Resolve(b *Body, w World, idx *PlatformIndex, scratch []int) []int {
	b.OnGround = false

	if b.VY >= 0 && idx != nil {
		bottom := b.Bottom()
		prevBottom := bottom - b.VY
		swept := Rect{X: b.X, Y: b.Y - b.VY, W: b.W, H: b.H + b.VY}
		scratch = idx.QueryBuf(swept, scratch)
		for _, i := range scratch {
			p := idx.Platform(i)
			if b.X < p.X+p.W && b.X+b.W > p.X &&
				bottom >= p.Top() && prevBottom <= p.Y+p.H {
				Land(b, p.Top())
				break
			}
		}
	}

	if b.Y > w.GroundY-b.H {
		Land(b, w.GroundY)
	}

	b.X = Clamp(b.X, 0, w.Width-b.W)
	return scratch
}
