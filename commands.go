package main

// Commands are sent to Game.Inbox by transport goroutines and applied by the
// game loop between ticks.

// Join adds a player for a connection
type Join struct {
	ID    string
	Name  string
	Conn  Broadcaster
	Reply chan<- JoinResult
}

// JoinResult answers a Join
type JoinResult struct {
	PlayerID string
	Name     string
	World    World
}

// Leave removes a player on disconnect
type Leave struct {
	PlayerID string
}

// Input replaces a player's held control state
type Input struct {
	PlayerID string
	Intent   Intent
	Shoot    bool
	Aimed    bool // Angle is set; otherwise shots go the way the player faces
	Angle    float64
	Color    string
}

// Shoot fires at a world point
type Shoot struct {
	PlayerID string
	X, Y     float64
	Color    string
}

// Rename sets a player's display name
type Rename struct {
	PlayerID string
	Name     string
}
