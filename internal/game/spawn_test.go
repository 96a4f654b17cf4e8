package game

import (
	"math/rand/v2"
	"testing"

	"arena-server/internal/entity"
)

type listedPlayers []*entity.Player

func (l listedPlayers) list() []*entity.Player { return l }

func TestSpawnAvoidsObstacles(t *testing.T) {
	crates := newCrateManager(&stubArena{})
	// fills every candidate of the north-west chunk of the 2000 fog square
	crates.load(Layout{{Type: layoutCrate, X: 2750, Y: 2750}})
	m := newSpawnManager(crates, listedPlayers(nil), rand.New(rand.NewPCG(1, 2)), 2000)

	if n := len(m.areas[0][0].candidates); n != 0 {
		t.Fatalf("expected the blocked chunk to have no candidates, got %d", n)
	}
	obstacles := crates.list()
	for range 200 {
		pt := m.pick(0)
		if !clearOfObstacles(pt.X, pt.Y, obstacles) {
			t.Fatalf("spawn %v overlaps an obstacle", pt)
		}
		if m.areas[0][0].contains(pt.X, pt.Y) {
			t.Fatalf("spawn %v in the chunk without candidates", pt)
		}
	}
}

func TestSpawnPrefersEmptyChunk(t *testing.T) {
	crates := newCrateManager(&stubArena{})
	var players listedPlayers
	m := newSpawnManager(crates, &players, rand.New(rand.NewPCG(3, 4)), 2000)

	// occupy every chunk but the last
	chunks := m.areas[0]
	for _, c := range chunks[:len(chunks)-1] {
		p := entity.NewPlayer(len(players)+1, entity.Pistol, entity.ArmorNone, entity.Red, entity.DefaultTuning())
		p.X, p.Y = c.center().X, c.center().Y
		players = append(players, p)
	}
	pt := m.pick(0)
	if !chunks[len(chunks)-1].contains(pt.X, pt.Y) {
		t.Errorf("expected a spawn in the empty chunk, got %v", pt)
	}
}

func TestSpawnFallsBackToCenter(t *testing.T) {
	crates := newCrateManager(&stubArena{})
	m := newSpawnManager(crates, listedPlayers(nil), rand.New(rand.NewPCG(5, 6)), 2000)
	for _, c := range m.areas[1] {
		c.candidates = nil
	}
	want := m.areas[1][0].center()
	if got := m.pick(1); got != want {
		t.Errorf("expected the first chunk center %v, got %v", want, got)
	}
}

func TestTeamSpawnAreas(t *testing.T) {
	crates := newCrateManager(&stubArena{})
	m := newSpawnManager(crates, listedPlayers(nil), rand.New(rand.NewPCG(7, 8)), 2000)
	mid := ArenaSize / 2.0
	for range 50 {
		if pt := m.pick(1); pt.X >= mid {
			t.Fatalf("team 1 spawn %v outside the west half", pt)
		}
		if pt := m.pick(2); pt.X < mid {
			t.Fatalf("team 2 spawn %v outside the east half", pt)
		}
	}
}
