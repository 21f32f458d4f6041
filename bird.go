package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	BirdWidth          = 36.0
	BirdHeight         = 24.0
	BirdMaxHP          = 40.0
	BirdPatrolSpeed    = 1.5
	BirdRelax          = 0.02 // how fast horizontal speed returns to patrol after a swoop
	BirdDamping        = 0.96
	SwoopRadius        = 400.0
	SwoopSpeed         = 6.0
	SwoopCooldownTicks = 120
	BirdContactDamage  = 0.3
	BirdMinSpawnY      = 80.0
	BirdSpawnBand      = 300.0
)

// Bird is a flying enemy. No gravity; it drifts and swoops.
type Bird struct {
	ID string
	Body
	HP            float64
	MaxHP         float64
	SwoopCooldown int
	Dead          bool
	RespawnTimer  int
}

// NewBird spawns a bird somewhere in the sky band
func NewBird(n int, w World, rng RNG) *Bird {
	b := &Bird{
		ID:    fmt.Sprintf("bird-%d", n),
		Body:  Body{W: BirdWidth, H: BirdHeight},
		HP:    BirdMaxHP,
		MaxHP: BirdMaxHP,
	}
	b.spawn(w, rng)
	return b
}

func (b *Bird) spawn(w World, rng RNG) {
	b.X = rng.Float64() * (w.Width - b.W)
	band := BirdSpawnBand
	if top := w.GroundY - b.H - BirdMinSpawnY; top < band {
		band = top
	}
	b.Y = BirdMinSpawnY + rng.Float64()*band
	b.VX = BirdPatrolSpeed
	if rng.Float64() < 0.5 {
		b.VX = -BirdPatrolSpeed
	}
	b.VY = 0
	b.SwoopCooldown = SwoopCooldownTicks
}

// Think counts down the swoop cooldown and, when ready, launches toward the
// nearest live player inside SwoopRadius.
func (b *Bird) Think(players []*Player) bool {
	if b.SwoopCooldown > 0 {
		b.SwoopCooldown--
	}
	if b.SwoopCooldown > 0 {
		return false
	}
	cx, cy := b.Center()
	target, dist := nearestLivePlayer(cx, cy, players)
	if target == nil || dist > SwoopRadius {
		return false
	}
	tx, ty := target.Center()
	dir := mgl64.Vec2{tx - cx, ty - cy}
	if dir.Len() == 0 {
		return false
	}
	v := dir.Normalize().Mul(SwoopSpeed)
	b.VX, b.VY = v.X(), v.Y()
	b.SwoopCooldown = SwoopCooldownTicks
	return true
}

// Update runs AI and movement for one tick
func (b *Bird) Update(players []*Player, rng RNG, w World) {
	if b.Dead {
		return
	}
	swooped := b.Think(players)

	if !swooped {
		// drift back toward patrol speed, keeping direction
		dir := Sign(b.VX)
		if dir == 0 {
			dir = 1
		}
		b.VX += (dir*BirdPatrolSpeed - b.VX) * BirdRelax
	}
	b.VY *= BirdDamping

	Move(&b.Body)

	if b.X <= 0 {
		b.X = 0
		if b.VX < 0 {
			b.VX = -b.VX
		}
	} else if b.X >= w.Width-b.W {
		b.X = w.Width - b.W
		if b.VX > 0 {
			b.VX = -b.VX
		}
	}
	if b.Bottom() >= w.GroundY {
		b.Y = w.GroundY - b.H
		if b.VY > 0 {
			b.VY = -b.VY
		}
	} else if b.Y <= 0 {
		b.Y = 0
		if b.VY < 0 {
			b.VY = -b.VY
		}
	}

	if !b.Sane() {
		b.spawn(w, rng)
	}
}

// TakeDamage reduces HP and returns true if this hit killed the bird
func (b *Bird) TakeDamage(dmg float64) bool {
	if b.Dead || !Finite(dmg) || dmg <= 0 {
		return false
	}
	b.HP = Clamp(b.HP-dmg, 0, b.MaxHP)
	if b.HP <= 0 {
		b.Dead = true
		b.Stop()
		b.RespawnTimer = RespawnTicks
		return true
	}
	return false
}

// TickRespawn counts down while dead and resets the bird at zero
func (b *Bird) TickRespawn(w World, rng RNG) bool {
	if !b.Dead {
		return false
	}
	b.RespawnTimer--
	if b.RespawnTimer > 0 {
		return false
	}
	b.spawn(w, rng)
	b.HP = b.MaxHP
	b.Dead = false
	b.RespawnTimer = 0
	return true
}

// ToView converts to protocol state
func (b *Bird) ToView() BirdView {
	return BirdView{
		ID:            b.ID,
		X:             b.X,
		Y:             b.Y,
		VX:            b.VX,
		VY:            b.VY,
		HP:            b.HP,
		MaxHP:         b.MaxHP,
		SwoopCooldown: b.SwoopCooldown,
		Dead:          b.Dead,
	}
}
