package main

import (
	"fmt"
	"math"
)

const (
	MouseWidth         = 40.0
	MouseHeight        = 28.0
	MouseMaxHP         = 60.0
	MousePatrolSpeed   = 1.2
	MouseChaseSpeed    = 2.2
	MouseAggroRadius   = 300.0
	MouseJump          = 10.0
	MouseJumpChance    = 0.02 // per tick while chasing
	MouseFlipChance    = 0.01 // per tick while patrolling
	MouseClimbTrigger  = 40.0 // target this much higher triggers a jump
	MouseClimbRange    = 150.0
	MouseContactDamage = 0.5 // hp per tick of overlap
)

// Mouse is a ground enemy. The pool is fixed; dead mice are reset in place.
type Mouse struct {
	ID string
	Body
	HP           float64
	MaxHP        float64
	Dead         bool
	RespawnTimer int
	Chasing      bool
}

// NewMouse spawns a mouse at a random spot on the floor
func NewMouse(n int, w World, rng RNG) *Mouse {
	m := &Mouse{
		ID:    fmt.Sprintf("mouse-%d", n),
		Body:  Body{W: MouseWidth, H: MouseHeight},
		HP:    MouseMaxHP,
		MaxHP: MouseMaxHP,
	}
	m.spawn(w, rng)
	return m
}

func (m *Mouse) spawn(w World, rng RNG) {
	m.X = rng.Float64() * (w.Width - m.W)
	m.Y = w.GroundY - m.H
	m.VY = 0
	m.VX = MousePatrolSpeed
	if rng.Float64() < 0.5 {
		m.VX = -MousePatrolSpeed
	}
	m.OnGround = true
	m.JumpCount = 0
	m.Chasing = false
}

// nearestLivePlayer returns the closest live player to (x, y) by centre
// distance. Ties go to the earlier player in the slice.
func nearestLivePlayer(x, y float64, players []*Player) (*Player, float64) {
	var best *Player
	bestDist := math.MaxFloat64
	for _, p := range players {
		if p.Dead {
			continue
		}
		px, py := p.Center()
		if d := Distance(x, y, px, py); d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best, bestDist
}

// Think steers the mouse: chase the nearest player inside the aggro radius,
// otherwise random-walk along the floor.
func (m *Mouse) Think(players []*Player, rng RNG) {
	cx, cy := m.Center()
	target, dist := nearestLivePlayer(cx, cy, players)

	if target != nil && dist <= MouseAggroRadius {
		m.Chasing = true
		tx, ty := target.Center()
		m.VX = Sign(tx-cx) * MouseChaseSpeed

		if m.VY >= 0 && m.JumpCount < MaxJumps {
			climb := cy-ty >= MouseClimbTrigger && math.Abs(tx-cx) <= MouseClimbRange
			if climb || rng.Float64() < MouseJumpChance {
				m.Body.Jump(MouseJump)
			}
		}
		return
	}

	m.Chasing = false
	dir := Sign(m.VX)
	if dir == 0 {
		dir = 1
		if rng.Float64() < 0.5 {
			dir = -1
		}
	}
	if rng.Float64() < MouseFlipChance {
		dir = -dir
	}
	m.VX = dir * MousePatrolSpeed
}

// Update runs AI and physics for one tick
func (m *Mouse) Update(players []*Player, rng RNG, w World, idx *PlatformIndex, scratch []int) []int {
	if m.Dead {
		return scratch
	}
	ApplyGravity(&m.Body)
	m.Think(players, rng)
	Move(&m.Body)
	scratch = Resolve(&m.Body, w, idx, scratch)

	// turn around at the world edges
	if m.X <= 0 && m.VX < 0 || m.X >= w.Width-m.W && m.VX > 0 {
		m.VX = -m.VX
	}
	if !m.Sane() {
		m.spawn(w, rng)
	}
	return scratch
}

// TakeDamage reduces HP and returns true if this hit killed the mouse
func (m *Mouse) TakeDamage(dmg float64) bool {
	if m.Dead || !Finite(dmg) || dmg <= 0 {
		return false
	}
	m.HP = Clamp(m.HP-dmg, 0, m.MaxHP)
	if m.HP <= 0 {
		m.Dead = true
		m.Stop()
		m.Chasing = false
		m.RespawnTimer = RespawnTicks
		return true
	}
	return false
}

// TickRespawn counts down while dead and resets the mouse at zero
func (m *Mouse) TickRespawn(w World, rng RNG) bool {
	if !m.Dead {
		return false
	}
	m.RespawnTimer--
	if m.RespawnTimer > 0 {
		return false
	}
	m.spawn(w, rng)
	m.HP = m.MaxHP
	m.Dead = false
	m.RespawnTimer = 0
	return true
}

// ToView converts to protocol state
func (m *Mouse) ToView() MouseView {
	return MouseView{
		ID:        m.ID,
		X:         m.X,
		Y:         m.Y,
		VX:        m.VX,
		VY:        m.VY,
		HP:        m.HP,
		MaxHP:     m.MaxHP,
		OnGround:  m.OnGround,
		JumpCount: m.JumpCount,
		Dead:      m.Dead,
	}
}
