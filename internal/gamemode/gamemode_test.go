package gamemode

import (
	"errors"
	"strings"
	"testing"

	"arena-server/internal/entity"
)

type fakeWorld struct {
	tick     int
	players  map[int]*entity.Player
	spawns   map[int]int
	packets  []string
	flags    []*entity.MapObject
	nextFlag int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{players: map[int]*entity.Player{}, spawns: map[int]int{}}
}

func (w *fakeWorld) Tick() int { return w.tick }

func (w *fakeWorld) Players() []*entity.Player {
	out := make([]*entity.Player, 0, len(w.players))
	for _, p := range w.players {
		out = append(out, p)
	}
	return out
}

func (w *fakeWorld) Player(uid int) (*entity.Player, bool) {
	p, ok := w.players[uid]
	return p, ok
}

func (w *fakeWorld) Spawn(p *entity.Player, team int) { w.spawns[p.UID] = team }

func (w *fakeWorld) Broadcast(packet string) { w.packets = append(w.packets, packet) }

func (w *fakeWorld) AddFlag(team int, x, y float64) *entity.MapObject {
	w.nextFlag++
	f := entity.NewFlag(w.nextFlag, team, x, y)
	w.flags = append(w.flags, f)
	return f
}

func (w *fakeWorld) MoveObject(o *entity.MapObject, x, y float64) { o.X, o.Y = x, y }

func (w *fakeWorld) add(uid int) *entity.Player {
	p := entity.NewPlayer(uid, entity.Pistol, entity.ArmorNone, entity.Red, entity.DefaultTuning())
	w.players[uid] = p
	return p
}

func TestNewRejectsUnknownMode(t *testing.T) {
	if _, err := New("KOTH", newFakeWorld(), Options{}); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("expected ErrUnknownMode, got %v", err)
	}
	g, err := New("tdm", newFakeWorld(), Options{})
	if err != nil || g.Name() != "TDM" || g.Teams() != 2 {
		t.Errorf("expected TDM, got %v %v", g, err)
	}
}

func TestFFAScoreSquare(t *testing.T) {
	w := newFakeWorld()
	g, _ := New("FFA", w, Options{ScoreSquareEnabled: true})
	p := w.add(1)
	p.X, p.Y = 3500, 3500

	w.tick = 38
	g.UpdatePlayer(p)
	if p.Score != 315 {
		t.Fatalf("expected 315, got %d", p.Score)
	}
	w.tick = 50
	g.UpdatePlayer(p)
	if p.Score != 315 {
		t.Errorf("expected no gain within the interval, got %d", p.Score)
	}
	w.tick = 76
	g.UpdatePlayer(p)
	if p.Score != 330 {
		t.Errorf("expected 330, got %d", p.Score)
	}

	p.X = 100
	w.tick = 200
	g.UpdatePlayer(p)
	if p.Score != 330 {
		t.Errorf("expected no gain outside the square, got %d", p.Score)
	}
}

func TestTeamsBalance(t *testing.T) {
	w := newFakeWorld()
	g, _ := New("TDM", w, Options{})
	a, b, c := w.add(1), w.add(2), w.add(3)
	g.SpawnPlayer(a)
	g.SpawnPlayer(b)
	if a.TeamCode == b.TeamCode {
		t.Fatal("expected players split across teams")
	}
	g.ClosePlayer(a)
	g.SpawnPlayer(c)
	if c.TeamCode != a.TeamCode {
		t.Errorf("expected the emptied team to be filled, got %d", c.TeamCode)
	}
	if w.spawns[3] != c.TeamCode {
		t.Error("expected spawn in the team area")
	}
}

func TestSetLeaderMovesCrown(t *testing.T) {
	w := newFakeWorld()
	g, _ := New("FFA", w, Options{})
	a, b := w.add(1), w.add(2)
	g.SetLeader(a)
	g.SetLeader(b)
	if a.IsLeader || !b.IsLeader {
		t.Errorf("expected crown on b, got a=%v b=%v", a.IsLeader, b.IsLeader)
	}
}

func TestDOMCapture(t *testing.T) {
	w := newFakeWorld()
	g, _ := New("DOM", w, Options{})
	p := w.add(1)
	g.SpawnPlayer(p)
	sq := g.ScoreSquares()[0]
	p.X, p.Y = sq.X+10, sq.Y+10

	g.Update()
	if g.ScoreSquares()[0].Team != p.TeamCode {
		t.Fatal("expected square captured")
	}
	if len(w.packets) != 1 || !strings.HasPrefix(w.packets[0], "sq,") {
		t.Errorf("expected one sq broadcast, got %v", w.packets)
	}
	g.Update()
	if len(w.packets) != 1 {
		t.Error("unchanged squares must not be rebroadcast")
	}
}

func TestCTFCapture(t *testing.T) {
	w := newFakeWorld()
	g, _ := New("CTF", w, Options{})
	if len(w.flags) != 2 {
		t.Fatalf("expected two flags, got %d", len(w.flags))
	}
	p := w.add(1)
	g.SpawnPlayer(p)

	enemy := w.flags[0]
	if enemy.Team == p.TeamCode {
		enemy = w.flags[1]
	}
	p.X, p.Y = enemy.X, enemy.Y
	g.UpdatePlayer(p)
	if enemy.ParentID != p.UID {
		t.Fatal("expected flag picked up")
	}

	home := g.ScoreSquares()[p.TeamCode-1]
	p.X, p.Y = home.X+home.W/2, 3500
	g.UpdatePlayer(p)
	if p.Score != 300+ctfCapture {
		t.Errorf("expected capture bonus, got %d", p.Score)
	}
	if g.TeamScores()[p.TeamCode] != 1 {
		t.Errorf("expected one capture, got %v", g.TeamScores())
	}
	if enemy.ParentID != 0 {
		t.Error("expected flag returned home")
	}
}
