package main

// Event kinds emitted by the combat stage
const (
	EventKill  = "kill"  // a player's projectile killed something
	EventDeath = "death" // a player died to an enemy or a player
)

// Victim and killer kinds
const (
	KindPlayer = "player"
	KindMouse  = "mouse"
	KindBird   = "bird"
)

// GameEvent records a kill or death during a tick
type GameEvent struct {
	Kind       string `json:"kind" msgpack:"kind"`
	Tick       uint64 `json:"tick" msgpack:"tick"`
	KillerID   string `json:"killerId" msgpack:"killerId"`
	KillerName string `json:"killerName,omitempty" msgpack:"killerName,omitempty"`
	KillerKind string `json:"killerKind" msgpack:"killerKind"`
	VictimID   string `json:"victimId" msgpack:"victimId"`
	VictimName string `json:"victimName,omitempty" msgpack:"victimName,omitempty"`
	VictimKind string `json:"victimKind" msgpack:"victimKind"`
}

// updateProjectiles moves every projectile and applies the first hit each
// one makes. Targets are tested mice, then birds, then players.
func (s *State) updateProjectiles() {
	for _, proj := range s.Projectiles {
		proj.Update(s.World)
		if proj.Consumed {
			continue
		}
		s.resolveHit(proj)
	}
	s.compactProjectiles()
}

func (s *State) resolveHit(proj *Projectile) {
	r := proj.Rect()
	owner := s.Players[proj.Owner] // nil once the shooter has left

	for _, m := range s.Mice {
		if m.Dead || !CheckCollision(r, m.Rect()) {
			continue
		}
		proj.Consumed = true
		if m.TakeDamage(ProjectileDamage) {
			s.creditEnemyKill(proj, owner, m.ID, KindMouse)
		}
		return
	}
	for _, b := range s.Birds {
		if b.Dead || !CheckCollision(r, b.Rect()) {
			continue
		}
		proj.Consumed = true
		if b.TakeDamage(ProjectileDamage) {
			s.creditEnemyKill(proj, owner, b.ID, KindBird)
		}
		return
	}
	if !s.PvP {
		return
	}
	for _, id := range s.order {
		p := s.Players[id]
		if p.Dead || p.ID == proj.Owner || !CheckCollision(r, p.Rect()) {
			continue
		}
		proj.Consumed = true
		if p.TakeDamage(ProjectilePvPDamage) {
			ev := GameEvent{
				Kind:       EventDeath,
				Tick:       s.Tick,
				KillerID:   proj.Owner,
				KillerKind: KindPlayer,
				VictimID:   p.ID,
				VictimName: p.Name,
				VictimKind: KindPlayer,
			}
			if owner != nil {
				owner.Score++
				ev.KillerName = owner.Name
			}
			s.emit(ev)
		}
		return
	}
}

func (s *State) creditEnemyKill(proj *Projectile, owner *Player, victimID, victimKind string) {
	s.Score++
	ev := GameEvent{
		Kind:       EventKill,
		Tick:       s.Tick,
		KillerID:   proj.Owner,
		KillerKind: KindPlayer,
		VictimID:   victimID,
		VictimKind: victimKind,
	}
	if owner != nil {
		owner.Score++
		ev.KillerName = owner.Name
	}
	s.emit(ev)
}

// applyContactDamage drains HP from every live player overlapping a live
// enemy. The damage is per tick of overlap.
func (s *State) applyContactDamage() {
	for _, id := range s.order {
		p := s.Players[id]
		if p.Dead {
			continue
		}
		pr := p.Rect()
		for _, m := range s.Mice {
			if m.Dead || !CheckCollision(pr, m.Rect()) {
				continue
			}
			if p.TakeDamage(MouseContactDamage) {
				s.emitEnemyKill(p, m.ID, KindMouse)
				break
			}
		}
		if p.Dead {
			continue
		}
		for _, b := range s.Birds {
			if b.Dead || !CheckCollision(pr, b.Rect()) {
				continue
			}
			if p.TakeDamage(BirdContactDamage) {
				s.emitEnemyKill(p, b.ID, KindBird)
				break
			}
		}
	}
}

func (s *State) emitEnemyKill(p *Player, killerID, killerKind string) {
	s.emit(GameEvent{
		Kind:       EventDeath,
		Tick:       s.Tick,
		KillerID:   killerID,
		KillerKind: killerKind,
		VictimID:   p.ID,
		VictimName: p.Name,
		VictimKind: KindPlayer,
	})
}

func (s *State) compactProjectiles() {
	n := 0
	for _, p := range s.Projectiles {
		if !p.Consumed {
			s.Projectiles[n] = p
			n++
		}
	}
	for i := n; i < len(s.Projectiles); i++ {
		s.Projectiles[i] = nil
	}
	s.Projectiles = s.Projectiles[:n]
}

func (s *State) emit(ev GameEvent) {
	s.Events = append(s.Events, ev)
}
