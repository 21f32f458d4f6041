package main

// World is the immutable simulation bounds. GroundY is the universal floor.
type World struct {
	Width   float64 `json:"width" msgpack:"width"`
	Height  float64 `json:"height" msgpack:"height"`
	GroundY float64 `json:"groundY" msgpack:"groundY"`
}

// Platform is a static one-way rectangle
type Platform struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	W float64 `json:"w" msgpack:"w"`
	H float64 `json:"h" msgpack:"h"`
}

// Top returns the landing line of the platform
func (p Platform) Top() float64 { return p.Y }

// Rect returns the platform as a hitbox
func (p Platform) Rect() Rect { return Rect{X: p.X, Y: p.Y, W: p.W, H: p.H} }

// DefaultWorld is the single level served by this process
var DefaultWorld = World{
	Width:   3000,
	Height:  800,
	GroundY: 700,
}

// DefaultPlatforms returns a fresh copy of the level layout
func DefaultPlatforms() []Platform {
	return []Platform{
		{X: 300, Y: 580, W: 120, H: 20},
		{X: 600, Y: 500, W: 120, H: 20},
		{X: 900, Y: 420, W: 120, H: 20},
		{X: 1300, Y: 520, W: 160, H: 20},
		{X: 1700, Y: 450, W: 120, H: 20},
		{X: 2050, Y: 560, W: 180, H: 20},
		{X: 2400, Y: 480, W: 140, H: 20},
		{X: 2700, Y: 400, W: 120, H: 20},
	}
}

// Contains reports whether the point lies inside the world rectangle
func (w World) Contains(x, y float64) bool {
	return x >= 0 && x <= w.Width && y >= 0 && y <= w.Height
}
