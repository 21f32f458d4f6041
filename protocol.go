package main

import "encoding/json"

// Client -> Server message types
const (
	MsgInput = "input"
	MsgShoot = "shoot"
	MsgName  = "name"
	MsgChat  = "chat"
)

// Server -> Client message types
const (
	MsgState   = "state"
	MsgWelcome = "welcome"
	MsgNamed   = "named"
	MsgKill    = "kill"
	MsgError   = "error"
	// MsgChat is also relayed back out
)

// Binary client frames
const (
	BinInput byte = 0x01

	InputFlagLeft  = 1 << 0
	InputFlagRight = 1 << 1
	InputFlagJump  = 1 << 2
	InputFlagShoot = 1 << 3
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string `json:"t" msgpack:"t"`
	Data any    `json:"d,omitempty" msgpack:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// InputMsg is the held control state. Shoot and Angle are optional.
type InputMsg struct {
	Left  bool     `json:"left"`
	Right bool     `json:"right"`
	Jump  bool     `json:"jump"`
	Shoot bool     `json:"shoot,omitempty"`
	Angle *float64 `json:"angle,omitempty"`
	Color string   `json:"color,omitempty"`
}

// ShootMsg fires at a world point
type ShootMsg struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
}

// NameMsg sets the display name. Ticket restores a name from an earlier connection.
type NameMsg struct {
	Name   string `json:"name"`
	Ticket string `json:"ticket,omitempty"`
}

// ChatMsg is relayed to every connection
type ChatMsg struct {
	Name string `json:"name,omitempty"`
	Text string `json:"text"`
}

// PlayerView is the broadcast state of a player
type PlayerView struct {
	ID           string  `json:"id" msgpack:"id"`
	Name         string  `json:"name" msgpack:"name"`
	X            float64 `json:"x" msgpack:"x"`
	Y            float64 `json:"y" msgpack:"y"`
	VX           float64 `json:"vx" msgpack:"vx"`
	VY           float64 `json:"vy" msgpack:"vy"`
	HP           float64 `json:"hp" msgpack:"hp"`
	MaxHP        float64 `json:"maxHp" msgpack:"maxHp"`
	OnGround     bool    `json:"onGround" msgpack:"onGround"`
	JumpCount    int     `json:"jumpCount" msgpack:"jumpCount"`
	Facing       int     `json:"facing" msgpack:"facing"`
	Dead         bool    `json:"dead" msgpack:"dead"`
	RespawnTimer int     `json:"respawnTimer" msgpack:"respawnTimer"`
	Score        int     `json:"score" msgpack:"score"`
}

// MouseView is the broadcast state of a ground enemy
type MouseView struct {
	ID        string  `json:"id" msgpack:"id"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	VX        float64 `json:"vx" msgpack:"vx"`
	VY        float64 `json:"vy" msgpack:"vy"`
	HP        float64 `json:"hp" msgpack:"hp"`
	MaxHP     float64 `json:"maxHp" msgpack:"maxHp"`
	OnGround  bool    `json:"onGround" msgpack:"onGround"`
	JumpCount int     `json:"jumpCount" msgpack:"jumpCount"`
	Dead      bool    `json:"dead" msgpack:"dead"`
}

// BirdView is the broadcast state of a flying enemy
type BirdView struct {
	ID            string  `json:"id" msgpack:"id"`
	X             float64 `json:"x" msgpack:"x"`
	Y             float64 `json:"y" msgpack:"y"`
	VX            float64 `json:"vx" msgpack:"vx"`
	VY            float64 `json:"vy" msgpack:"vy"`
	HP            float64 `json:"hp" msgpack:"hp"`
	MaxHP         float64 `json:"maxHp" msgpack:"maxHp"`
	SwoopCooldown int     `json:"swoopCooldown" msgpack:"swoopCooldown"`
	Dead          bool    `json:"dead" msgpack:"dead"`
}

// ProjectileView is the broadcast state of a projectile
type ProjectileView struct {
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
	VX    float64 `json:"vx" msgpack:"vx"`
	VY    float64 `json:"vy" msgpack:"vy"`
	Life  int     `json:"life" msgpack:"life"`
	Color string  `json:"color" msgpack:"color"`
	Owner string  `json:"owner" msgpack:"owner"`
}

// Snapshot is the full state broadcast every tick
type Snapshot struct {
	Players     map[string]PlayerView `json:"players" msgpack:"players"`
	Mice        []MouseView           `json:"mice" msgpack:"mice"`
	Birds       []BirdView            `json:"birds" msgpack:"birds"`
	Platforms   []Platform            `json:"platforms" msgpack:"platforms"`
	Projectiles []ProjectileView      `json:"projectiles" msgpack:"projectiles"`
	World       World                 `json:"world" msgpack:"world"`
	Score       int                   `json:"score" msgpack:"score"`
	Tick        uint64                `json:"tick" msgpack:"tick"`
}

// WelcomeMsg is sent to a connection once its player exists
type WelcomeMsg struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Ticket string `json:"ticket"`
	World  World  `json:"world"`
}

// NamedMsg confirms a name change
type NamedMsg struct {
	Name   string `json:"name"`
	Ticket string `json:"ticket"`
}

// ErrorMsg sends an error to a client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
