package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	joinTimeout       = 5 * time.Second
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // inputs arrive at tick rate plus shots and chat
	maxChatLen        = 200
)

// Client is one websocket connection. It owns at most one player.
type Client struct {
	hub        *Hub
	game       *Game
	conn       *websocket.Conn
	send       chan []byte
	log        *zap.Logger
	playerID   string
	name       string
	remoteAddr string
	binary     bool // snapshots as msgpack
	named      bool
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client with a fresh player id
func NewClient(hub *Hub, game *Game, conn *websocket.Conn, remoteAddr string, binary bool) *Client {
	id := GenerateID()
	return &Client{
		hub:        hub,
		game:       game,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		log:        hub.log.With(zap.String("player", id), zap.String("addr", remoteAddr)),
		playerID:   id,
		remoteAddr: remoteAddr,
		binary:     binary,
	}
}

// Join asks the game loop for a player and waits until it exists
func (c *Client) Join(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()

	reply := make(chan JoinResult, 1)
	if !c.game.Enqueue(ctx, Join{ID: c.playerID, Conn: c, Reply: reply}) {
		return ctx.Err()
	}
	select {
	case res := <-reply:
		c.name = res.Name
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Info("ws read error", zap.Error(err))
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.log.Warn("rate limit exceeded, disconnecting")
			break
		}

		if msgType == websocket.BinaryMessage {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix from SendBinary
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal", zap.Error(err))
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }() // send may already be closed
	select {
	case c.send <- data:
	default:
		// client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF so WritePump can tell it from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// WantsBinary reports whether snapshots go out as msgpack
func (c *Client) WantsBinary() bool {
	return c.binary
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		c.log.Debug("bad envelope", zap.Error(err))
		return
	}

	switch env.T {
	case MsgInput:
		c.handleInput(env)
	case MsgShoot:
		c.handleShoot(env)
	case MsgName:
		c.handleName(env)
	case MsgChat:
		c.handleChat(env)
	default:
		c.log.Debug("unknown message type", zap.String("t", env.T))
	}
}

func (c *Client) handleInput(env InEnvelope) {
	msg, err := DecodePayload[InputMsg](env)
	if err != nil {
		c.log.Debug("bad input", zap.Error(err))
		return
	}
	c.enqueueInput(msg)
}

// handleBinaryInput decodes the compact 4-byte input frame
func (c *Client) handleBinaryInput(raw []byte) {
	msg, err := DecodeBinaryInput(raw)
	if err != nil {
		c.log.Debug("bad binary input", zap.Error(err))
		return
	}
	c.enqueueInput(msg)
}

func (c *Client) enqueueInput(msg InputMsg) {
	in := Input{
		PlayerID: c.playerID,
		Intent:   Intent{Left: msg.Left, Right: msg.Right, Jump: msg.Jump},
		Shoot:    msg.Shoot,
		Color:    msg.Color,
	}
	if msg.Angle != nil {
		in.Aimed = true
		in.Angle = *msg.Angle
	}
	c.game.Enqueue(context.Background(), in)
}

func (c *Client) handleShoot(env InEnvelope) {
	msg, err := DecodePayload[ShootMsg](env)
	if err != nil {
		c.log.Debug("bad shoot", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	c.game.Enqueue(ctx, Shoot{PlayerID: c.playerID, X: msg.X, Y: msg.Y, Color: msg.Color})
}

func (c *Client) handleName(env InEnvelope) {
	if c.named {
		c.sendError("name already set")
		return
	}
	msg, err := DecodePayload[NameMsg](env)
	if err != nil {
		c.log.Debug("bad name", zap.Error(err))
		return
	}
	name := msg.Name
	if msg.Ticket != "" && c.hub.auth != nil {
		restored, err := c.hub.auth.Redeem(msg.Ticket, c.remoteAddr)
		switch {
		case err == nil:
			name = restored
		case errors.Is(err, ErrRateLimited):
			c.sendError(err.Error())
			return
		default:
			c.log.Debug("ticket rejected", zap.Error(err))
		}
	}
	name = cleanName(name)
	if name == "" {
		c.sendError("empty name")
		return
	}
	c.named = true
	c.name = name

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	c.game.Enqueue(ctx, Rename{PlayerID: c.playerID, Name: name})
}

func (c *Client) handleChat(env InEnvelope) {
	msg, err := DecodePayload[ChatMsg](env)
	if err != nil {
		c.log.Debug("bad chat", zap.Error(err))
		return
	}
	text := Truncate(msg.Text, maxChatLen)
	if strings.TrimSpace(text) == "" {
		return
	}
	c.hub.BroadcastChat(ChatMsg{Name: c.name, Text: text})
}
