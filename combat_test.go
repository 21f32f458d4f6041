package main

import (
	"math"
	"testing"
)

// contactState has one player, one mouse and one bird, with every enemy
// parked far away.
func contactState(t *testing.T) (*State, *Player) {
	t.Helper()
	cfg := DefaultSimConfig()
	cfg.Mice = 1
	cfg.Birds = 1
	cfg.RNG = noRandom()
	s := NewState(cfg)
	p := s.AddPlayer("p", "p")
	p.X = 1500
	s.Mice[0].X = 2800
	s.Birds[0].X, s.Birds[0].Y = 2800, 100
	s.Birds[0].SwoopCooldown = 1 << 20
	return s, p
}

func TestMouseContactDamage(t *testing.T) {
	s, p := contactState(t)
	m := s.Mice[0]
	m.X = p.X + 4

	s.Step()
	if math.Abs(p.HP-(PlayerMaxHP-MouseContactDamage)) > 1e-9 {
		t.Errorf("expected hp %f, got %f", PlayerMaxHP-MouseContactDamage, p.HP)
	}
	s.Step()
	if math.Abs(p.HP-(PlayerMaxHP-2*MouseContactDamage)) > 1e-9 {
		t.Errorf("damage should accrue per tick of overlap, got %f", p.HP)
	}
}

func TestBirdContactDamage(t *testing.T) {
	s, p := contactState(t)
	b := s.Birds[0]
	b.X, b.Y = p.X+4, p.Y+10
	b.VY = 0

	s.Step()
	if math.Abs(p.HP-(PlayerMaxHP-BirdContactDamage)) > 1e-9 {
		t.Errorf("expected hp %f, got %f", PlayerMaxHP-BirdContactDamage, p.HP)
	}
}

func TestContactKillEmitsDeathEvent(t *testing.T) {
	s, p := contactState(t)
	s.Mice[0].X = p.X + 4
	p.HP = MouseContactDamage / 2

	s.Step()
	if !p.Dead {
		t.Fatal("expected player dead")
	}
	if len(s.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(s.Events))
	}
	ev := s.Events[0]
	if ev.Kind != EventDeath || ev.VictimID != p.ID || ev.KillerKind != KindMouse || ev.KillerID != s.Mice[0].ID {
		t.Errorf("unexpected event %+v", ev)
	}

	// dead players take no further damage and emit nothing
	s.Step()
	if len(s.Events) != 0 || p.HP != 0 {
		t.Errorf("dead player should be inert, events=%d hp=%f", len(s.Events), p.HP)
	}
}

func TestDeadEnemiesDealNoDamage(t *testing.T) {
	s, p := contactState(t)
	m := s.Mice[0]
	m.X = p.X + 4
	m.TakeDamage(MouseMaxHP)

	s.Step()
	if p.HP != PlayerMaxHP {
		t.Errorf("dead mouse dealt damage, hp=%f", p.HP)
	}
}

func TestProjectileKillCreditsOwner(t *testing.T) {
	s, p := contactState(t)
	b := s.Birds[0]
	b.HP = 1
	cx, cy := b.Center()
	s.Projectiles = append(s.Projectiles, &Projectile{
		X: cx, Y: cy, Life: 10, Color: "#ffffff", Owner: p.ID,
	})

	s.Step()
	if !b.Dead {
		t.Fatal("expected bird dead")
	}
	if p.Score != 1 || s.Score != 1 {
		t.Errorf("expected kill credited, player=%d world=%d", p.Score, s.Score)
	}
	if len(s.Events) != 1 || s.Events[0].Kind != EventKill || s.Events[0].VictimKind != KindBird {
		t.Errorf("unexpected events %+v", s.Events)
	}
	if s.Events[0].KillerName != p.Name {
		t.Errorf("expected killer name %s, got %s", p.Name, s.Events[0].KillerName)
	}
}

func TestKillByDepartedShooterStillCountsForWorld(t *testing.T) {
	s, _ := contactState(t)
	b := s.Birds[0]
	b.HP = 1
	cx, cy := b.Center()
	s.Projectiles = append(s.Projectiles, &Projectile{
		X: cx, Y: cy, Life: 10, Color: "#ffffff", Owner: "gone",
	})

	s.Step()
	if !b.Dead || s.Score != 1 {
		t.Errorf("expected world score credited, dead=%v score=%d", b.Dead, s.Score)
	}
}

func TestCompactProjectiles(t *testing.T) {
	s := &State{Projectiles: []*Projectile{
		{Owner: "a"}, {Owner: "b", Consumed: true}, {Owner: "c"}, {Owner: "d", Consumed: true},
	}}
	s.compactProjectiles()
	if len(s.Projectiles) != 2 || s.Projectiles[0].Owner != "a" || s.Projectiles[1].Owner != "c" {
		t.Errorf("unexpected survivors %+v", s.Projectiles)
	}
}
