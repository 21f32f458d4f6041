package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ServerStats is the /stats payload
type ServerStats struct {
	Players       int            `json:"players"`
	Connections   int            `json:"connections"`
	Tick          uint64         `json:"tick"`
	DroppedInputs uint64         `json:"dropped_inputs"`
	Events        map[string]int `json:"events,omitempty"`
	TopKillers    []KillerCount  `json:"top_killers,omitempty"`
}

// SetupRoutes configures HTTP routes. ctx bounds the lifetime of joins.
func SetupRoutes(ctx context.Context, hub *Hub, game *Game, cfg Config, log *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	fs := http.FileServer(http.Dir(cfg.ClientDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug("upgrade failed", zap.Error(err))
			return
		}

		hub.TrackConnect(ip)

		binary := r.URL.Query().Get("codec") == "msgpack"
		client := NewClient(hub, game, conn, ip, binary)
		hub.register <- client

		go client.WritePump()
		if err := client.Join(ctx); err != nil {
			log.Warn("join failed", zap.String("addr", ip), zap.Error(err))
		}
		go client.ReadPump()
	})

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, log, game.Snapshot())
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := ServerStats{
			Players:       game.PlayerCount(),
			Connections:   hub.TotalConns(),
			Tick:          game.Ticks(),
			DroppedInputs: game.DroppedInputs(),
		}
		if hub.analytics != nil {
			hub.analytics.Flush()
			if counts, err := hub.analytics.EventCounts(1); err == nil {
				stats.Events = counts
			} else {
				log.Warn("event counts", zap.Error(err))
			}
			if top, err := hub.analytics.TopKillers(10); err == nil {
				stats.TopKillers = top
			} else {
				log.Warn("top killers", zap.Error(err))
			}
		}
		writeJSON(w, log, stats)
	})

	mux.HandleFunc("/qr.png", func(w http.ResponseWriter, r *http.Request) {
		link := cfg.PublicURL
		if link == "" {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			link = scheme + "://" + r.Host + "/"
		}
		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			log.Error("qr encode", zap.Error(err))
			http.Error(w, "qr failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("write response", zap.Error(err))
	}
}
