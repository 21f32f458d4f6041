package main

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB("", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func killData(t *testing.T, killer string) string {
	t.Helper()
	b, err := json.Marshal(GameEvent{Kind: EventKill, KillerName: killer, VictimKind: KindMouse})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)
	if v := db.GetSetting("missing"); v != "" {
		t.Errorf("expected empty, got %q", v)
	}
	if err := db.SetSetting("k", "one"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetSetting("k", "two"); err != nil {
		t.Fatal(err)
	}
	if v := db.GetSetting("k"); v != "two" {
		t.Errorf("expected two, got %q", v)
	}
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := OpenDB(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SetSetting("k", "v"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = OpenDB(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if v := db.GetSetting("k"); v != "v" {
		t.Errorf("setting lost across reopen, got %q", v)
	}
}

func TestAnalyticsTrackAndCount(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db, nil)
	defer a.Stop()

	a.Track(EvtSessionStart, "p1", "")
	a.Track(EvtSessionStart, "p2", "")
	a.Track(EvtChat, "p1", `{"text":"hi"}`)
	a.Flush()

	counts, err := a.EventCounts(1)
	if err != nil {
		t.Fatal(err)
	}
	if counts[EvtSessionStart] != 2 || counts[EvtChat] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestAnalyticsTopKillers(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db, nil)
	defer a.Stop()

	for i := 0; i < 3; i++ {
		a.Track(EvtPlayerKill, "p1", killData(t, "alice"))
	}
	a.Track(EvtPlayerKill, "p2", killData(t, "bob"))
	a.Track(EvtPlayerKill, "p3", "not json")
	a.Track(EvtPlayerDeath, "p2", "")
	a.Flush()

	top, err := a.TopKillers(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %+v", top)
	}
	if top[0].PlayerID != "p1" || top[0].Name != "alice" || top[0].Kills != 3 {
		t.Errorf("unexpected leader %+v", top[0])
	}
	if top[1].Kills != 1 {
		t.Errorf("unexpected runner-up %+v", top[1])
	}
}

func TestAnalyticsStopDrains(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db, nil)
	for i := 0; i < 10; i++ {
		a.Track(EvtSessionEnd, "p1", "")
	}
	a.Stop()
	a.Stop()

	var n int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM analytics_events").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Errorf("expected 10 events after stop, got %d", n)
	}
	// flushing a stopped writer returns
	a.Flush()
}

func TestAnalyticsNilSafe(t *testing.T) {
	var a *Analytics
	a.Track(EvtChat, "p", "")
	a.Flush()
	a.Stop()
	if counts, err := a.EventCounts(1); counts != nil || err != nil {
		t.Errorf("nil analytics should return nothing, got %v %v", counts, err)
	}
	if top, err := a.TopKillers(5); top != nil || err != nil {
		t.Errorf("nil analytics should return nothing, got %v %v", top, err)
	}

	// no database: events are accepted and dropped
	b := NewAnalytics(nil, nil)
	b.Track(EvtChat, "p", "")
	b.Flush()
	b.Stop()
}
