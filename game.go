package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTickRate = 60 // physics ticks per second
	inboxSize       = 1024
)

// Broadcaster is a connection the game loop can write to
type Broadcaster interface {
	SendJSON(msg any)
	SendRaw(data []byte)
	SendBinary(data []byte)
	WantsBinary() bool
}

// Game owns the simulation. Run is the only goroutine that touches state;
// everything else talks to it through Inbox.
type Game struct {
	Inbox chan any

	state     *State
	clients   map[string]Broadcaster
	tickRate  int
	log       *zap.Logger
	analytics *Analytics
	auth      *Auth

	snapshot atomic.Pointer[Snapshot]
	players  atomic.Int64
	ticks    atomic.Uint64
	dropped  atomic.Uint64
}

// NewGame creates a game around a fresh State. analytics and auth may be nil.
func NewGame(cfg SimConfig, tickRate int, log *zap.Logger, analytics *Analytics, auth *Auth) *Game {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	if log == nil {
		log = zap.NewNop()
	}
	g := &Game{
		Inbox:     make(chan any, inboxSize),
		state:     NewState(cfg),
		clients:   make(map[string]Broadcaster),
		tickRate:  tickRate,
		log:       log,
		analytics: analytics,
		auth:      auth,
	}
	g.snapshot.Store(g.state.Snapshot())
	return g
}

// Run drives the fixed-rate loop until ctx is cancelled
func (g *Game) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(g.tickRate))
	defer ticker.Stop()

	g.log.Info("game loop started",
		zap.Int("tick_rate", g.tickRate),
		zap.Int("mice", len(g.state.Mice)),
		zap.Int("birds", len(g.state.Birds)),
		zap.Bool("pvp", g.state.PvP),
		zap.Stringer("jump_policy", g.state.JumpPolicy))

	for {
		select {
		case <-ctx.Done():
			g.log.Info("game loop stopped", zap.Uint64("tick", g.state.Tick))
			return
		case cmd := <-g.Inbox:
			g.handleCommand(cmd)
		case <-ticker.C:
			g.tick()
		}
	}
}

// Enqueue hands a command to the loop. Input is dropped when the inbox is
// full since a newer one will follow; everything else waits.
func (g *Game) Enqueue(ctx context.Context, cmd any) bool {
	if _, ok := cmd.(Input); ok {
		select {
		case g.Inbox <- cmd:
			return true
		default:
			g.dropped.Add(1)
			return false
		}
	}
	select {
	case g.Inbox <- cmd:
		return true
	case <-ctx.Done():
		return false
	}
}

// Snapshot returns the state published after the last tick
func (g *Game) Snapshot() *Snapshot {
	return g.snapshot.Load()
}

// PlayerCount returns the number of players as of the last command
func (g *Game) PlayerCount() int {
	return int(g.players.Load())
}

// Ticks returns the number of ticks run
func (g *Game) Ticks() uint64 {
	return g.ticks.Load()
}

// DroppedInputs returns how many inputs were discarded on a full inbox
func (g *Game) DroppedInputs() uint64 {
	return g.dropped.Load()
}

func (g *Game) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		g.handleJoin(c)
	case Leave:
		g.handleLeave(c)
	case Input:
		p, ok := g.state.Player(c.PlayerID)
		if !ok {
			return
		}
		p.ApplyIntent(c.Intent)
		if c.Shoot && !p.Dead {
			angle := c.Angle
			if !c.Aimed {
				angle = facingAngle(p.Facing)
			}
			p.RequestShot(angle, c.Color)
		}
	case Shoot:
		p, ok := g.state.Player(c.PlayerID)
		if !ok || p.Dead {
			return
		}
		cx, cy := p.Center()
		if angle, ok := AimAngle(cx, cy, c.X, c.Y); ok {
			p.RequestShot(angle, c.Color)
		}
	case Rename:
		g.handleRename(c)
	default:
		g.log.Warn("unknown command", zap.String("type", fmt.Sprintf("%T", cmd)))
	}
}

func (g *Game) handleJoin(c Join) {
	id := c.ID
	if id == "" {
		id = GenerateID()
	}
	name := cleanName(c.Name)
	if name == "" {
		name = "Player" + Truncate(id, 4)
	}
	p := g.state.AddPlayer(id, name)
	if c.Name != "" {
		p.Named = true
	}
	if c.Conn != nil {
		g.clients[id] = c.Conn
		c.Conn.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
			ID:     id,
			Name:   p.Name,
			Ticket: g.issueTicket(id, p.Name),
			World:  g.state.World,
		}})
	}
	g.players.Store(int64(g.state.PlayerCount()))
	g.analytics.Track(EvtSessionStart, id, "")
	g.log.Debug("player joined", zap.String("id", id), zap.String("name", p.Name))

	if c.Reply != nil {
		c.Reply <- JoinResult{PlayerID: id, Name: p.Name, World: g.state.World}
	}
}

func (g *Game) handleLeave(c Leave) {
	delete(g.clients, c.PlayerID)
	if !g.state.RemovePlayer(c.PlayerID) {
		return
	}
	g.players.Store(int64(g.state.PlayerCount()))
	g.analytics.Track(EvtSessionEnd, c.PlayerID, "")
	g.log.Debug("player left", zap.String("id", c.PlayerID))
}

func (g *Game) handleRename(c Rename) {
	p, ok := g.state.Player(c.PlayerID)
	if !ok || p.Named {
		return
	}
	name := cleanName(c.Name)
	if name == "" {
		return
	}
	p.Name = name
	p.Named = true
	if conn, ok := g.clients[p.ID]; ok {
		conn.SendJSON(Envelope{T: MsgNamed, Data: NamedMsg{
			Name:   name,
			Ticket: g.issueTicket(p.ID, name),
		}})
	}
}

func (g *Game) issueTicket(id, name string) string {
	if g.auth == nil {
		return ""
	}
	t, err := g.auth.IssueTicket(id, name)
	if err != nil {
		g.log.Warn("issue ticket", zap.Error(err))
		return ""
	}
	return t
}

// tick advances the simulation and publishes the result
func (g *Game) tick() {
	g.state.Step()
	g.ticks.Store(g.state.Tick)

	for _, ev := range g.state.Events {
		g.broadcast(Envelope{T: MsgKill, Data: ev})
		g.trackEvent(ev)
	}

	snap := g.state.Snapshot()
	g.snapshot.Store(snap)
	g.broadcastState(snap)
}

func (g *Game) trackEvent(ev GameEvent) {
	if g.analytics == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	switch ev.Kind {
	case EventKill:
		g.analytics.Track(EvtPlayerKill, ev.KillerID, string(data))
	case EventDeath:
		g.analytics.Track(EvtPlayerDeath, ev.VictimID, string(data))
		if ev.KillerKind == KindPlayer {
			g.analytics.Track(EvtPlayerKill, ev.KillerID, string(data))
		}
	}
}

// broadcastState encodes the snapshot once per codec and fans it out
func (g *Game) broadcastState(snap *Snapshot) {
	if len(g.clients) == 0 {
		return
	}
	var text, bin []byte
	for _, c := range g.clients {
		if c.WantsBinary() {
			if bin == nil {
				b, err := EncodeMsgpack(MsgState, snap)
				if err != nil {
					g.log.Error("encode msgpack snapshot", zap.Error(err))
					return
				}
				bin = b
			}
			c.SendBinary(bin)
			continue
		}
		if text == nil {
			b, err := EncodeJSON(MsgState, snap)
			if err != nil {
				g.log.Error("encode json snapshot", zap.Error(err))
				return
			}
			text = b
		}
		c.SendRaw(text)
	}
}

func (g *Game) broadcast(msg Envelope) {
	for _, c := range g.clients {
		c.SendJSON(msg)
	}
}

func facingAngle(facing int) float64 {
	if facing < 0 {
		return math.Pi
	}
	return 0
}

func cleanName(s string) string {
	return Truncate(strings.TrimSpace(s), maxNameLen)
}
