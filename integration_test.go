package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// ---------- helpers ----------

type testServer struct {
	srv   *httptest.Server
	wsURL string
	game  *Game
	hub   *Hub
}

// startTestServer runs a game, a hub and the HTTP routes against an
// in-memory database. Everything stops when the test ends.
func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Create a temp client dir with a minimal index.html
	tmpDir := t.TempDir()
	jsDir := filepath.Join(tmpDir, "js")
	os.MkdirAll(jsDir, 0o755)
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<html>test</html>"), 0o644)
	os.WriteFile(filepath.Join(jsDir, "main.js"), []byte("// test"), 0o644)

	cfg := DefaultConfig()
	cfg.ClientDir = tmpDir
	cfg.Mice = 0
	cfg.Birds = 0
	cfg.Seed = 1

	log := zap.NewNop()
	db, err := OpenDB("", log)
	if err != nil {
		t.Fatal(err)
	}
	analytics := NewAnalytics(db, log)
	auth, err := NewAuth(db, log)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	game := NewGame(cfg.SimConfig(), cfg.TickRate, log, analytics, auth)
	go game.Run(ctx)
	hub := NewHub(game, auth, analytics, log)
	go hub.Run(ctx)

	srv := httptest.NewServer(SetupRoutes(ctx, hub, game, cfg, log))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		analytics.Stop()
		db.Close()
	})

	return &testServer{
		srv:   srv,
		wsURL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		game:  game,
		hub:   hub,
	}
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads text frames until one of type want arrives, skipping
// everything else (mostly snapshots).
func readUntil(t *testing.T, conn *websocket.Conn, want string) InEnvelope {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", want, err)
		}
		if msgType != websocket.TextMessage {
			continue
		}
		var env InEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if env.T == want {
			return env
		}
	}
}

// decodeData unmarshals the payload of env into T.
func decodeData[T any](t *testing.T, env InEnvelope) T {
	t.Helper()
	out, err := DecodePayload[T](env)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// sendMsg sends a typed message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	raw, _ := json.Marshal(Envelope{T: msgType, Data: data})
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// eventually polls cond until it holds or two seconds pass.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

// ---------- static files ----------

func TestStaticRoot(t *testing.T) {
	ts := startTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("GET / status = %d, want 200", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", cc)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "<html>") {
		t.Errorf("expected index.html, got %q", body)
	}
}

func TestStaticFiles(t *testing.T) {
	ts := startTestServer(t)

	resp, err := http.Get(ts.srv.URL + "/js/main.js")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("GET /js/main.js status = %d, want 200", resp.StatusCode)
	}
}

// ---------- websocket flow ----------

func TestWelcomeThenState(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)

	welcome := decodeData[WelcomeMsg](t, readUntil(t, conn, MsgWelcome))
	if _, err := uuid.Parse(welcome.ID); err != nil {
		t.Errorf("player id %q is not a uuid: %v", welcome.ID, err)
	}
	if welcome.Ticket == "" || welcome.World != DefaultWorld {
		t.Errorf("unexpected welcome %+v", welcome)
	}
	if welcome.Name != "Player"+welcome.ID[:4] {
		t.Errorf("unexpected default name %q", welcome.Name)
	}

	snap := decodeData[Snapshot](t, readUntil(t, conn, MsgState))
	pv, ok := snap.Players[welcome.ID]
	if !ok {
		t.Fatalf("own player missing from snapshot %+v", snap.Players)
	}
	if pv.HP != PlayerMaxHP || pv.Dead {
		t.Errorf("fresh player should be alive at full hp: %+v", pv)
	}
	if len(snap.Platforms) != len(DefaultPlatforms()) {
		t.Errorf("expected %d platforms, got %d", len(DefaultPlatforms()), len(snap.Platforms))
	}
}

func TestInputMovesPlayer(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)
	welcome := decodeData[WelcomeMsg](t, readUntil(t, conn, MsgWelcome))

	sendMsg(t, conn, MsgInput, InputMsg{Right: true})
	eventually(t, "player to move right", func() bool {
		var snap Snapshot
		getJSON(t, ts.srv.URL+"/state", &snap)
		return snap.Players[welcome.ID].X > PlayerSpawnX
	})
}

func TestNameOnce(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)
	readUntil(t, conn, MsgWelcome)

	sendMsg(t, conn, MsgName, NameMsg{Name: "  alice  "})
	named := decodeData[NamedMsg](t, readUntil(t, conn, MsgNamed))
	if named.Name != "alice" || named.Ticket == "" {
		t.Errorf("unexpected named %+v", named)
	}

	sendMsg(t, conn, MsgName, NameMsg{Name: "mallory"})
	errMsg := decodeData[ErrorMsg](t, readUntil(t, conn, MsgError))
	if errMsg.Msg != "name already set" {
		t.Errorf("unexpected error %q", errMsg.Msg)
	}
}

func TestTicketRestoresName(t *testing.T) {
	ts := startTestServer(t)

	first := dialWS(t, ts.wsURL)
	readUntil(t, first, MsgWelcome)
	sendMsg(t, first, MsgName, NameMsg{Name: "alice"})
	named := decodeData[NamedMsg](t, readUntil(t, first, MsgNamed))
	first.Close()

	second := dialWS(t, ts.wsURL)
	readUntil(t, second, MsgWelcome)
	sendMsg(t, second, MsgName, NameMsg{Ticket: named.Ticket})
	restored := decodeData[NamedMsg](t, readUntil(t, second, MsgNamed))
	if restored.Name != "alice" {
		t.Errorf("expected restored name alice, got %q", restored.Name)
	}
}

func TestChatRelay(t *testing.T) {
	ts := startTestServer(t)

	a := dialWS(t, ts.wsURL)
	readUntil(t, a, MsgWelcome)
	sendMsg(t, a, MsgName, NameMsg{Name: "alice"})
	readUntil(t, a, MsgNamed)

	b := dialWS(t, ts.wsURL)
	readUntil(t, b, MsgWelcome)

	sendMsg(t, a, MsgChat, ChatMsg{Text: "  hello there "})
	chat := decodeData[ChatMsg](t, readUntil(t, b, MsgChat))
	if chat.Name != "alice" || chat.Text != "  hello there " {
		t.Errorf("unexpected chat %+v", chat)
	}
	// the sender hears it too
	readUntil(t, a, MsgChat)
}

func TestMsgpackCodec(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL+"?codec=msgpack")
	welcome := decodeData[WelcomeMsg](t, readUntil(t, conn, MsgWelcome))

	angle := 0.0
	frame := EncodeBinaryInput(InputMsg{Right: true, Shoot: true, Angle: &angle})
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for binary snapshot: %v", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		var env struct {
			T string   `msgpack:"t"`
			D Snapshot `msgpack:"d"`
		}
		if err := msgpack.Unmarshal(raw, &env); err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		if env.T != MsgState {
			t.Fatalf("unexpected binary message %s", env.T)
		}
		if env.D.Players[welcome.ID].X > PlayerSpawnX && len(env.D.Projectiles) > 0 {
			return
		}
	}
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)
	readUntil(t, conn, MsgWelcome)
	eventually(t, "player to join", func() bool { return ts.game.PlayerCount() == 1 })

	conn.Close()
	eventually(t, "player to leave", func() bool { return ts.game.PlayerCount() == 0 })
	eventually(t, "connection to be released", func() bool { return ts.hub.TotalConns() == 0 })
}

func TestConnectionLimitPerIP(t *testing.T) {
	ts := startTestServer(t)
	for i := 0; i < maxConnsPerIP; i++ {
		conn := dialWS(t, ts.wsURL)
		readUntil(t, conn, MsgWelcome)
	}
	_, resp, err := websocket.DefaultDialer.Dial(ts.wsURL, nil)
	if err == nil {
		t.Fatal("expected the extra connection to be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", resp)
	}
}

func TestForeignOriginRejected(t *testing.T) {
	ts := startTestServer(t)
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(ts.wsURL, header)
	if err == nil {
		t.Fatal("expected cross-origin upgrade to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
}

// ---------- http endpoints ----------

func TestStatsEndpoint(t *testing.T) {
	ts := startTestServer(t)
	conn := dialWS(t, ts.wsURL)
	readUntil(t, conn, MsgWelcome)

	eventually(t, "stats to show the player", func() bool {
		var stats ServerStats
		getJSON(t, ts.srv.URL+"/stats", &stats)
		return stats.Players == 1 && stats.Connections == 1 &&
			stats.Tick > 0 && stats.Events[EvtSessionStart] == 1
	})
}

func TestQRCode(t *testing.T) {
	ts := startTestServer(t)
	resp, err := http.Get(ts.srv.URL + "/qr.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("body is not a png")
	}
}
