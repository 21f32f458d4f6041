package main

const (
	PlayerWidth       = 48.0
	PlayerHeight      = 48.0
	PlayerSpeed       = 4.0
	JumpVelocity      = 11.0
	PlayerMaxHP       = 100.0
	PlayerSpawnX      = 100.0
	RespawnTicks      = 180 // shared by every entity type
	FireCooldownTicks = 8
	maxNameLen        = 16
)

// JumpPolicy decides how a held jump key is read
type JumpPolicy int

const (
	// JumpEdge fires once per press; holding the key does nothing more
	JumpEdge JumpPolicy = iota
	// JumpLevel fires every tick the key is held, bounded by MaxJumps
	JumpLevel
)

// ParseJumpPolicy maps a config string to a policy, defaulting to edge
func ParseJumpPolicy(s string) JumpPolicy {
	if s == "level" {
		return JumpLevel
	}
	return JumpEdge
}

func (p JumpPolicy) String() string {
	if p == JumpLevel {
		return "level"
	}
	return "edge"
}

// Intent is the normalized control state of a player
type Intent struct {
	Left  bool
	Right bool
	Jump  bool
}

// ShotRequest is a pending shoot action, applied on the next tick
type ShotRequest struct {
	Angle float64
	Color string
}

// Player represents a connected player in the world
type Player struct {
	ID   string
	Name string
	Body
	HP           float64
	MaxHP        float64
	Facing       int // -1 left, 1 right
	Dead         bool
	RespawnTimer int
	Score        int
	Named        bool

	Intent       Intent
	JumpQueued   bool // rising edge seen since the last tick
	FireCooldown int
	PendingShot  *ShotRequest
}

// NewPlayer creates a player standing at the spawn point
func NewPlayer(id, name string, w World) *Player {
	p := &Player{
		ID:     id,
		Name:   name,
		Body:   Body{W: PlayerWidth, H: PlayerHeight},
		HP:     PlayerMaxHP,
		MaxHP:  PlayerMaxHP,
		Facing: 1,
	}
	p.placeAtSpawn(w)
	return p
}

func (p *Player) placeAtSpawn(w World) {
	p.X = PlayerSpawnX
	p.Y = w.GroundY - p.H
	p.Stop()
	p.OnGround = true
	p.JumpCount = 0
}

// ApplyIntent stores the latest control state. Called between ticks.
func (p *Player) ApplyIntent(in Intent) {
	if in.Jump && !p.Intent.Jump {
		p.JumpQueued = true
	}
	p.Intent = in
}

// RequestShot queues a shot; a later request in the same tick replaces it
func (p *Player) RequestShot(angle float64, color string) bool {
	if !Finite(angle) {
		return false
	}
	p.PendingShot = &ShotRequest{Angle: angle, Color: color}
	return true
}

// Update moves the player one tick and resolves collisions
func (p *Player) Update(policy JumpPolicy, w World, idx *PlatformIndex, scratch []int) []int {
	if p.FireCooldown > 0 {
		p.FireCooldown--
	}
	if p.Dead {
		p.JumpQueued = false
		p.PendingShot = nil
		return scratch
	}

	ApplyGravity(&p.Body)

	switch {
	case p.Intent.Left:
		p.VX = -PlayerSpeed
		p.Facing = -1
	case p.Intent.Right:
		p.VX = PlayerSpeed
		p.Facing = 1
	default:
		p.VX = 0
	}

	jump := p.JumpQueued
	if policy == JumpLevel {
		jump = p.Intent.Jump
	}
	p.JumpQueued = false
	if jump {
		p.Body.Jump(JumpVelocity)
	}

	Move(&p.Body)
	scratch = Resolve(&p.Body, w, idx, scratch)

	if !p.Sane() {
		p.placeAtSpawn(w)
	}
	return scratch
}

// TakeDamage reduces HP and returns true if this hit killed the player
func (p *Player) TakeDamage(dmg float64) bool {
	if p.Dead || !Finite(dmg) || dmg <= 0 {
		return false
	}
	p.HP = Clamp(p.HP-dmg, 0, p.MaxHP)
	if p.HP <= 0 {
		p.die()
		return true
	}
	return false
}

func (p *Player) die() {
	p.Dead = true
	p.Stop()
	p.RespawnTimer = RespawnTicks
	p.PendingShot = nil
}

// TickRespawn counts down while dead and respawns at zero
func (p *Player) TickRespawn(w World) bool {
	if !p.Dead {
		return false
	}
	p.RespawnTimer--
	if p.RespawnTimer > 0 {
		return false
	}
	p.Respawn(w)
	return true
}

// Respawn resets the player after death
func (p *Player) Respawn(w World) {
	p.placeAtSpawn(w)
	p.HP = p.MaxHP
	p.Dead = false
	p.RespawnTimer = 0
	p.FireCooldown = 0
	p.JumpQueued = false
}

// CanFire returns true if the player has a shot queued and is ready
func (p *Player) CanFire() bool {
	return !p.Dead && p.PendingShot != nil && p.FireCooldown <= 0
}

// ToView converts to protocol state
func (p *Player) ToView() PlayerView {
	return PlayerView{
		ID:           p.ID,
		Name:         p.Name,
		X:            p.X,
		Y:            p.Y,
		VX:           p.VX,
		VY:           p.VY,
		HP:           p.HP,
		MaxHP:        p.MaxHP,
		OnGround:     p.OnGround,
		JumpCount:    p.JumpCount,
		Facing:       p.Facing,
		Dead:         p.Dead,
		RespawnTimer: p.RespawnTimer,
		Score:        p.Score,
	}
}
