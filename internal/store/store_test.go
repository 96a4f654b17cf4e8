package store

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"arena-server/internal/entity"
	"arena-server/internal/game"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "arena.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMatchLifecycle(t *testing.T) {
	db := openTestDB(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := db.StartMatch("TDM", start)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.EndMatch(id, start.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	m, err := db.GetMatch(id)
	if err != nil {
		t.Fatal(err)
	}
	if m.Mode != "TDM" || !m.StartedAt.Equal(start) || !m.EndedAt.Equal(start.Add(time.Hour)) {
		t.Errorf("unexpected match %+v", m)
	}
}

func TestRecorderWritesKillsAndSessions(t *testing.T) {
	db := openTestDB(t)
	r, err := NewRecorder(db, "FFA", 2, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	joined := time.Now().Add(-time.Minute)
	r.OnSession(game.SessionEvent{SessionID: "s1", UID: 1, Username: "alice", Mode: "FFA", Joined: true, At: joined})
	r.OnSession(game.SessionEvent{SessionID: "s2", UID: 2, Username: "bob", Mode: "FFA", Joined: true, At: joined})
	r.OnKill(game.KillEvent{Tick: 40, VictimUID: 2, Victim: "bob", VictimSession: "s2",
		KillerUID: 1, Killer: "alice", KillerSession: "s1", Gun: entity.Sniper})
	r.OnKill(game.KillEvent{Tick: 90, VictimUID: 1, Victim: "alice", VictimSession: "s1"})
	r.OnSession(game.SessionEvent{SessionID: "s1", UID: 1, At: time.Now(), Score: 450, Kills: 1})
	r.Stop()

	kills, err := db.RecentKills(r.MatchID(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(kills) != 2 {
		t.Fatalf("expected 2 kills, got %d", len(kills))
	}
	if kills[0].Tick != 90 || kills[0].KillerUID != 0 {
		t.Errorf("expected the environment kill first, got %+v", kills[0])
	}
	if kills[1].Killer != "alice" || kills[1].Gun != int(entity.Sniper) {
		t.Errorf("unexpected kill %+v", kills[1])
	}

	byGun, err := db.KillsByGun(r.MatchID())
	if err != nil {
		t.Fatal(err)
	}
	if len(byGun) != 1 || byGun[int(entity.Sniper)] != 1 {
		t.Errorf("expected one sniper kill, got %v", byGun)
	}

	sessions, err := db.TopSessions(r.MatchID(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].SessionID != "s1" || sessions[0].Score != 450 || sessions[0].LeftAt.IsZero() {
		t.Errorf("unexpected top session %+v", sessions[0])
	}
	if sessions[1].LeftAt.IsZero() {
		t.Error("expected Stop to close the open session")
	}

	m, err := db.GetMatch(r.MatchID())
	if err != nil {
		t.Fatal(err)
	}
	if m.EndedAt.IsZero() {
		t.Error("expected the match to be ended")
	}
}

func TestRecorderStopIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	r, err := NewRecorder(db, "CTF", 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Stop()
	r.Stop()
	if r.Dropped() != 0 {
		t.Errorf("expected no dropped records, got %d", r.Dropped())
	}
}
