package main

// SimConfig configures a new simulation
type SimConfig struct {
	World      World
	Platforms  []Platform
	Mice       int
	Birds      int
	Seed       uint64 // 0 seeds from the clock
	PvP        bool
	JumpPolicy JumpPolicy
	RNG        RNG // overrides Seed when set
}

// DefaultSimConfig returns the standard level with the default enemy pools
func DefaultSimConfig() SimConfig {
	return SimConfig{
		World:     DefaultWorld,
		Platforms: DefaultPlatforms(),
		Mice:      6,
		Birds:     4,
		PvP:       true,
	}
}

// State is the whole simulation. It is owned by a single goroutine; nothing
// here is safe for concurrent use.
type State struct {
	World       World
	Platforms   []Platform
	Index       *PlatformIndex
	Players     map[string]*Player
	order       []string // join order
	Mice        []*Mouse
	Birds       []*Bird
	Projectiles []*Projectile
	Tick        uint64
	Score       int
	PvP         bool
	JumpPolicy  JumpPolicy
	Events      []GameEvent // cleared at the start of every Step

	rng     RNG
	scratch []int
	live    []*Player
}

// NewState builds the world and fills the enemy pools
func NewState(cfg SimConfig) *State {
	if cfg.World.Width <= 0 || cfg.World.Height <= 0 {
		cfg.World = DefaultWorld
	}
	rng := cfg.RNG
	if rng == nil {
		rng = NewRNG(cfg.Seed)
	}
	platforms := make([]Platform, len(cfg.Platforms))
	copy(platforms, cfg.Platforms)

	s := &State{
		World:      cfg.World,
		Platforms:  platforms,
		Index:      NewPlatformIndex(cfg.World, platforms),
		Players:    make(map[string]*Player),
		PvP:        cfg.PvP,
		JumpPolicy: cfg.JumpPolicy,
		rng:        rng,
	}
	for i := 0; i < cfg.Mice; i++ {
		s.Mice = append(s.Mice, NewMouse(i, s.World, rng))
	}
	for i := 0; i < cfg.Birds; i++ {
		s.Birds = append(s.Birds, NewBird(i, s.World, rng))
	}
	return s
}

// AddPlayer inserts a player at the spawn point. Re-adding an existing id
// returns the existing player.
func (s *State) AddPlayer(id, name string) *Player {
	if p, ok := s.Players[id]; ok {
		return p
	}
	p := NewPlayer(id, name, s.World)
	s.Players[id] = p
	s.order = append(s.order, id)
	return p
}

// RemovePlayer deletes a player. Unknown ids are ignored.
func (s *State) RemovePlayer(id string) bool {
	if _, ok := s.Players[id]; !ok {
		return false
	}
	delete(s.Players, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Player looks up a player by id
func (s *State) Player(id string) (*Player, bool) {
	p, ok := s.Players[id]
	return p, ok
}

// PlayerCount returns the number of players
func (s *State) PlayerCount() int {
	return len(s.Players)
}

// OrderedPlayers returns players in join order
func (s *State) OrderedPlayers() []*Player {
	out := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.Players[id])
	}
	return out
}

// livePlayers fills a reused slice with players that can be targeted
func (s *State) livePlayers() []*Player {
	s.live = s.live[:0]
	for _, id := range s.order {
		if p := s.Players[id]; !p.Dead {
			s.live = append(s.live, p)
		}
	}
	return s.live
}

// Step advances the simulation by one tick
func (s *State) Step() {
	s.Tick++
	s.Events = s.Events[:0]

	// 1. players
	for _, id := range s.order {
		s.scratch = s.Players[id].Update(s.JumpPolicy, s.World, s.Index, s.scratch)
	}

	// 2. enemies
	live := s.livePlayers()
	for _, m := range s.Mice {
		s.scratch = m.Update(live, s.rng, s.World, s.Index, s.scratch)
	}
	for _, b := range s.Birds {
		b.Update(live, s.rng, s.World)
	}

	// 3. firing and combat
	s.fire()
	s.updateProjectiles()
	s.applyContactDamage()

	// 4. lifecycle
	for _, id := range s.order {
		s.Players[id].TickRespawn(s.World)
	}
	for _, m := range s.Mice {
		m.TickRespawn(s.World, s.rng)
	}
	for _, b := range s.Birds {
		b.TickRespawn(s.World, s.rng)
	}
}

// fire turns pending shot requests into projectiles
func (s *State) fire() {
	for _, id := range s.order {
		p := s.Players[id]
		if !p.CanFire() {
			continue
		}
		shot := p.PendingShot
		p.PendingShot = nil
		if len(s.Projectiles) >= MaxProjectiles {
			continue
		}
		color := NormalizeColor(shot.Color, s.rng)
		s.Projectiles = append(s.Projectiles, NewProjectile(p, shot.Angle, color))
		p.FireCooldown = FireCooldownTicks
	}
}

// Snapshot builds the wire view of the current state
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		Players:     make(map[string]PlayerView, len(s.Players)),
		Mice:        make([]MouseView, 0, len(s.Mice)),
		Birds:       make([]BirdView, 0, len(s.Birds)),
		Platforms:   s.Platforms,
		Projectiles: make([]ProjectileView, 0, len(s.Projectiles)),
		World:       s.World,
		Score:       s.Score,
		Tick:        s.Tick,
	}
	for _, id := range s.order {
		snap.Players[id] = s.Players[id].ToView()
	}
	for _, m := range s.Mice {
		snap.Mice = append(snap.Mice, m.ToView())
	}
	for _, b := range s.Birds {
		snap.Birds = append(snap.Birds, b.ToView())
	}
	for _, p := range s.Projectiles {
		snap.Projectiles = append(snap.Projectiles, p.ToView())
	}
	return snap
}
