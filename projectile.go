package main

import (
	"math"
	"regexp"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	ProjectileSpeed     = 8.0
	ProjectileLifetime  = 120 // ticks
	ProjectileSize      = 8.0
	ProjectileDamage    = 12.0 // vs enemies
	ProjectilePvPDamage = 10.0 // vs players
	MaxProjectiles      = 256
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ProjectilePalette is used when a client sends no usable colour
var ProjectilePalette = []string{"#ff4d4d", "#ffd24d", "#4dff88", "#4dc3ff", "#c44dff", "#ffffff"}

// Projectile is a shot in flight. X,Y is the centre of the hitbox.
type Projectile struct {
	X, Y     float64
	VX, VY   float64
	Life     int
	Color    string
	Owner    string
	Consumed bool
}

// NormalizeColor returns c if it is a #rrggbb colour, else a palette pick
func NormalizeColor(c string, rng RNG) string {
	if colorRe.MatchString(c) {
		return c
	}
	return ProjectilePalette[rng.IntN(len(ProjectilePalette))]
}

// AimAngle converts an aim point into an angle from (fromX, fromY).
// ok is false for non-finite input.
func AimAngle(fromX, fromY, toX, toY float64) (float64, bool) {
	if !Finite(toX, toY) {
		return 0, false
	}
	dx, dy := toX-fromX, toY-fromY
	if dx == 0 && dy == 0 {
		return 0, true
	}
	return math.Atan2(dy, dx), true
}

// NewProjectile fires from the owner's centre along angle at ProjectileSpeed
func NewProjectile(owner *Player, angle float64, color string) *Projectile {
	cx, cy := owner.Center()
	v := mgl64.Vec2{math.Cos(angle), math.Sin(angle)}.Mul(ProjectileSpeed)
	return &Projectile{
		X:     cx,
		Y:     cy,
		VX:    v.X(),
		VY:    v.Y(),
		Life:  ProjectileLifetime,
		Color: color,
		Owner: owner.ID,
	}
}

// Rect returns the hitbox
func (p *Projectile) Rect() Rect {
	return CenteredRect(p.X, p.Y, ProjectileSize, ProjectileSize)
}

// Update moves the projectile one tick and marks it consumed when it runs
// out of life or leaves the world.
func (p *Projectile) Update(w World) {
	if p.Consumed {
		return
	}
	p.X += p.VX
	p.Y += p.VY
	p.Life--
	if p.Life <= 0 || !w.Contains(p.X, p.Y) || !Finite(p.X, p.Y) {
		p.Consumed = true
	}
}

// ToView converts to protocol state
func (p *Projectile) ToView() ProjectileView {
	return ProjectileView{
		X:     p.X,
		Y:     p.Y,
		VX:    p.VX,
		VY:    p.VY,
		Life:  p.Life,
		Color: p.Color,
		Owner: p.Owner,
	}
}
