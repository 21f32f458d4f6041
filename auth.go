package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	ticketExpiry      = 24 * time.Hour
	ticketIssuer      = "platformer-server"
	redeemRateWindow  = 60 * time.Second
	maxRedeemAttempts = 10
)

var (
	ErrInvalidTicket = errors.New("invalid ticket")
	ErrRateLimited   = errors.New("too many attempts, try again later")
)

// TicketClaims binds a display name to the connection that chose it
type TicketClaims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Auth issues and checks rejoin tickets. A reconnecting client presents its
// ticket with the name message to get its old name back.
type Auth struct {
	secret []byte
	log    *zap.Logger

	rateMu  sync.Mutex
	rateMap map[string]*rateEntry
}

type rateEntry struct {
	Count   int
	ResetAt time.Time
}

// NewAuth creates an Auth. The signing secret is read from the settings
// table when db is set and generated otherwise.
func NewAuth(db *DB, log *zap.Logger) (*Auth, error) {
	if log == nil {
		log = zap.NewNop()
	}
	secret, err := loadOrCreateSecret(db, log)
	if err != nil {
		return nil, err
	}
	return &Auth{
		secret:  secret,
		log:     log,
		rateMap: make(map[string]*rateEntry),
	}, nil
}

func loadOrCreateSecret(db *DB, log *zap.Logger) ([]byte, error) {
	if db != nil {
		if h := db.GetSetting("ticket_secret"); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b, nil
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate ticket secret: %w", err)
	}
	if db != nil {
		if err := db.SetSetting("ticket_secret", hex.EncodeToString(secret)); err != nil {
			log.Warn("could not store ticket secret", zap.Error(err))
		}
	}
	return secret, nil
}

// IssueTicket signs a ticket for a player id and name
func (a *Auth) IssueTicket(playerID, name string) (string, error) {
	now := time.Now()
	claims := TicketClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			Issuer:    ticketIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ticketExpiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return s, nil
}

// ValidateTicket checks the signature and expiry and returns the claims
func (a *Auth) ValidateTicket(ticket string) (*TicketClaims, error) {
	claims := &TicketClaims{}
	token, err := jwt.ParseWithClaims(ticket, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ticketIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTicket, err)
	}
	if !token.Valid || claims.Name == "" {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}

// Redeem validates a ticket presented from ip, rate limited per ip
func (a *Auth) Redeem(ticket, ip string) (string, error) {
	if !a.checkRate(ip) {
		return "", ErrRateLimited
	}
	claims, err := a.ValidateTicket(ticket)
	if err != nil {
		return "", err
	}
	return claims.Name, nil
}

func (a *Auth) checkRate(ip string) bool {
	a.rateMu.Lock()
	defer a.rateMu.Unlock()

	now := time.Now()
	entry, ok := a.rateMap[ip]
	if !ok || now.After(entry.ResetAt) {
		a.rateMap[ip] = &rateEntry{Count: 1, ResetAt: now.Add(redeemRateWindow)}
		return true
	}
	entry.Count++
	return entry.Count <= maxRedeemAttempts
}
