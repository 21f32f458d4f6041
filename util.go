package main

import (
	"math"
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// GenerateID returns a new random connection/player id
func GenerateID() string {
	return uuid.NewString()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Distance returns the distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	return mgl64.Vec2{x2 - x1, y2 - y1}.Len()
}

// Finite reports whether every value is neither NaN nor infinite
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sign returns -1, 0 or 1
func Sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// RNG is the random source used by AI and spawning. Tests pass a seeded one.
type RNG interface {
	Float64() float64
	IntN(n int) int
}

// NewRNG returns a deterministic PCG source for a non-zero seed and a
// time-seeded one otherwise.
func NewRNG(seed uint64) RNG {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
