package game

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"arena-server/internal/config"
	"arena-server/internal/entity"
)

// fakeSender records every frame written to it
type fakeSender struct {
	mu     sync.Mutex
	frames []string
}

func (s *fakeSender) SendRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, string(data))
}

func (s *fakeSender) all() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.frames, "")
}

type fakeObserver struct {
	ticks    []TickStats
	kills    []KillEvent
	sessions []SessionEvent
}

func (o *fakeObserver) OnTick(s TickStats)       { o.ticks = append(o.ticks, s) }
func (o *fakeObserver) OnKill(e KillEvent)       { o.kills = append(o.kills, e) }
func (o *fakeObserver) OnSession(e SessionEvent) { o.sessions = append(o.sessions, e) }

// stubArena stands in for the game when a manager is tested alone
type stubArena struct {
	tick    int
	packets []string
	deaths  int
}

func (a *stubArena) tickNow() int               { return a.tick }
func (a *stubArena) broadcast(packet string)    { a.packets = append(a.packets, packet) }
func (a *stubArena) killed(_, _ *entity.Player) { a.deaths++ }

func newTestGame(t *testing.T, mutate func(*config.Game), opts ...Option) *Game {
	t.Helper()
	cfg := config.DefaultGame()
	cfg.Seed = 7
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]Option{WithLayout(Layout{})}, opts...)
	g, err := New(cfg, zap.NewNop(), opts...)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g
}

func join(t *testing.T, g *Game, s Sender, gun entity.Gun) *entity.Player {
	t.Helper()
	uid, err := g.Join(s, int(gun), 0, 0)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	p, ok := g.players.get(uid)
	if !ok {
		t.Fatalf("player %d not registered", uid)
	}
	return p
}

// place moves p to (x, y) and makes it hittable
func place(g *Game, p *entity.Player, x, y float64) {
	oldX, oldY := p.X, p.Y
	p.X, p.Y = x, y
	g.players.grid.Update(p, oldX, oldY)
	p.HasMoved = true
	p.CanBeHit = true
	p.CanShoot = true
	p.Invincible = false
}

func TestNewRejectsInvalidFog(t *testing.T) {
	cfg := config.DefaultGame()
	cfg.FogSize = 9000
	if _, err := New(cfg, zap.NewNop()); !errors.Is(err, config.ErrFogSizeTooLarge) {
		t.Errorf("expected ErrFogSizeTooLarge, got %v", err)
	}
}

func TestNewLoadsDefaultLayout(t *testing.T) {
	g, err := New(config.DefaultGame(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if g.crates.len() == 0 {
		t.Error("expected the built-in layout to place crates")
	}
}

func TestJoinReusesLowestUID(t *testing.T) {
	g := newTestGame(t, nil)
	s1, s2, s3 := &fakeSender{}, &fakeSender{}, &fakeSender{}

	p1 := join(t, g, s1, entity.Pistol)
	p2 := join(t, g, s2, entity.Pistol)
	if p1.UID != 1 || p2.UID != 2 {
		t.Fatalf("expected uids 1 and 2, got %d and %d", p1.UID, p2.UID)
	}

	g.Close(s1)
	if g.PlayerCount() != 1 {
		t.Fatalf("expected 1 player after close, got %d", g.PlayerCount())
	}
	p3 := join(t, g, s3, entity.Pistol)
	if p3.UID != 1 {
		t.Errorf("expected freed uid 1 to be reused, got %d", p3.UID)
	}

	g.Step()
	if !strings.Contains(s2.all(), "e,1|") {
		t.Errorf("expected unload of uid 1 to reach the remaining player, got %q", s2.all())
	}
	if !strings.HasPrefix(s3.all(), "a,") {
		t.Errorf("expected the first frame to start with the join packet, got %q", s3.all())
	}
}

func TestServerFull(t *testing.T) {
	g := newTestGame(t, func(c *config.Game) { c.MaxPlayers = 1 })
	join(t, g, &fakeSender{}, entity.Pistol)

	s := &fakeSender{}
	if _, err := g.Join(s, 0, 0, 0); !errors.Is(err, ErrServerFull) {
		t.Fatalf("expected ErrServerFull, got %v", err)
	}
	if s.all() != "full|" {
		t.Errorf("expected full packet, got %q", s.all())
	}
	if !g.Full() {
		t.Error("expected Full to report true")
	}
}

func TestPingBeforeJoin(t *testing.T) {
	g := newTestGame(t, nil)
	s := &fakeSender{}
	g.HandleMessage(s, []byte(".|"))
	if s.all() != ".|" {
		t.Errorf("expected a direct ping reply, got %q", s.all())
	}
}

func TestMoveRightOneTick(t *testing.T) {
	g := newTestGame(t, nil)
	s := &fakeSender{}
	p := join(t, g, s, entity.Pistol)
	oldX, oldY := p.X, p.Y
	p.X, p.Y = 3500, 3500
	g.players.grid.Update(p, oldX, oldY)

	g.HandleMessage(s, []byte("k,1,1|"))
	g.Step()

	want := 3500 + p.Accel*p.Friction
	if math.Abs(p.X-want) > 1e-9 {
		t.Errorf("expected x %v, got %v", want, p.X)
	}
	if p.Y != 3500 {
		t.Errorf("expected y unchanged, got %v", p.Y)
	}
	if p.SpdX > p.MaxSpeed {
		t.Errorf("speed %v exceeds max %v", p.SpdX, p.MaxSpeed)
	}
	if p.Invincible {
		t.Error("expected the first movement to end spawn protection")
	}
}

func TestShootPelletCount(t *testing.T) {
	tests := []struct {
		gun  entity.Gun
		want int
	}{
		{entity.Shotgun, 8},
		{entity.Assault, 1},
	}
	for _, tt := range tests {
		g := newTestGame(t, nil)
		p := join(t, g, &fakeSender{}, tt.gun)
		place(g, p, 3000, 3000)

		g.net.shooting(p, 100)
		if g.bullets.len() != tt.want {
			t.Errorf("%s: expected %d bullets, got %d", tt.gun.Stats().Name, tt.want, g.bullets.len())
		}
		if len(p.PendingBullets) != tt.want {
			t.Errorf("%s: expected %d pending activations, got %d", tt.gun.Stats().Name, tt.want, len(p.PendingBullets))
		}
	}
}

func TestDoubleBulletStep(t *testing.T) {
	for _, double := range []bool{false, true} {
		g := newTestGame(t, func(c *config.Game) { c.DoubleBulletStep = double })
		p := join(t, g, &fakeSender{}, entity.Pistol)

		b := g.bullets.createCustom(p, false, false)
		b.Launch(1000, 1000, 0, 10, 0)
		b.MaxDistance = 1000
		g.Step()

		want := 1010.0
		if double {
			want = 1020
		}
		if math.Abs(b.X-want) > 1e-9 {
			t.Errorf("double=%v: expected x %v, got %v", double, want, b.X)
		}
	}
}

func TestBulletHitsPlayer(t *testing.T) {
	obs := &fakeObserver{}
	g := newTestGame(t, nil, WithObserver(obs))
	shooter := join(t, g, &fakeSender{}, entity.Pistol)
	target := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, shooter, 600, 1000)
	place(g, target, 1000, 1000)

	b := g.bullets.createCustom(shooter, false, false)
	b.Launch(950, 998, 0, 10, 0)
	b.Width, b.Height = 4, 4
	b.Damage = 30
	b.MaxDistance = 500

	for range 5 {
		g.bullets.update()
	}
	if g.bullets.len() != 0 {
		t.Fatalf("expected the bullet to be consumed, %d left", g.bullets.len())
	}
	if target.HP != target.HPMax-30 {
		t.Errorf("expected hp %v, got %v", target.HPMax-30, target.HP)
	}
	if !strings.Contains(shooter.Queue.Format(), "|q,") {
		t.Error("expected a hit marker for the shooter")
	}
	if len(obs.kills) != 0 {
		t.Errorf("expected no kills, got %d", len(obs.kills))
	}

	b = g.bullets.createCustom(shooter, false, false)
	b.Launch(950, 998, 0, 10, 0)
	b.Width, b.Height = 4, 4
	b.Damage = 500
	b.MaxDistance = 500
	for range 5 {
		g.bullets.update()
	}
	if !target.Dead {
		t.Fatal("expected the target to die")
	}
	if len(obs.kills) != 1 || obs.kills[0].KillerUID != shooter.UID || obs.kills[0].VictimUID != target.UID {
		t.Errorf("unexpected kill events %+v", obs.kills)
	}
}

func TestBulletDamageDisabledPassesThrough(t *testing.T) {
	g := newTestGame(t, func(c *config.Game) { c.BulletDamageEnabled = false })
	shooter := join(t, g, &fakeSender{}, entity.Pistol)
	target := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, shooter, 600, 1000)
	place(g, target, 1000, 1000)

	b := g.bullets.createCustom(shooter, false, false)
	b.Launch(950, 998, 0, 10, 0)
	b.Width, b.Height = 4, 4
	b.Damage = 30
	b.MaxDistance = 500
	for range 8 {
		g.bullets.update()
	}
	if target.HP != target.HPMax {
		t.Errorf("expected no damage, got hp %v", target.HP)
	}
	if g.bullets.len() != 1 {
		t.Errorf("expected the bullet to pass through, %d left", g.bullets.len())
	}
}

func TestLandMineExpiresAndReturnsCharge(t *testing.T) {
	g := newTestGame(t, nil)
	p := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, p, 2000, 2000)
	p.NumExplosivesLeft = 2

	ex, el := entity.NewExplosive(entity.LandMine, p)
	if !g.explosives.add(ex, el) {
		t.Fatal("add failed")
	}

	checkPairs := func(step int) {
		for uid := range g.explosives.exploding {
			if _, ok := g.explosives.explosives[uid]; !ok {
				t.Fatalf("step %d: exploding %d has no explosive", step, uid)
			}
		}
	}

	for i := 1; i < ex.TravelTime; i++ {
		g.explosives.update()
		checkPairs(i)
		if g.explosives.len() != 1 {
			t.Fatalf("mine removed early at update %d", i)
		}
	}
	g.explosives.update()
	checkPairs(ex.TravelTime)
	if g.explosives.len() != 0 {
		t.Fatalf("expected the mine to be removed on update %d", ex.TravelTime)
	}
	if p.NumExplosivesLeft != 3 {
		t.Errorf("expected 3 charges, got %d", p.NumExplosivesLeft)
	}
}

func TestLandMineTriggersOnEnemy(t *testing.T) {
	g := newTestGame(t, nil)
	owner := join(t, g, &fakeSender{}, entity.Pistol)
	enemy := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, owner, 2000, 2000)
	place(g, enemy, 4000, 4000)

	ex, el := entity.NewExplosive(entity.LandMine, owner)
	g.explosives.add(ex, el)
	g.explosives.update()
	if el.Exploding {
		t.Fatal("mine should not trigger on its owner")
	}

	place(g, enemy, el.X, el.Y)
	g.explosives.update()
	if !el.Exploding || el.Phase != entity.PhaseDetonating {
		t.Fatal("expected the mine to detonate")
	}
	if !enemy.Dead {
		t.Errorf("expected the enemy to die, hp %v", enemy.HP)
	}
	for range el.ExplosionTicks {
		g.explosives.update()
	}
	if g.explosives.len() != 0 {
		t.Error("expected the mine to be removed after the explosion")
	}
}

func TestFogDamage(t *testing.T) {
	g := newTestGame(t, func(c *config.Game) {
		c.FogEnabled = true
		c.FogDamagePerTick = 3
	})
	p := join(t, g, &fakeSender{}, entity.Pistol)
	place(g, p, 500, 500)

	g.Step()
	if !p.InFog {
		t.Error("expected the player to be in the fog")
	}
	if p.HP != p.HPMax-3 {
		t.Errorf("expected hp %v, got %v", p.HPMax-3, p.HP)
	}
}

func TestDeathAndRejoinKeepsUID(t *testing.T) {
	g := newTestGame(t, nil)
	s := &fakeSender{}
	p := join(t, g, s, entity.Pistol)
	place(g, p, 3000, 3000)
	uid := p.UID

	g.mu.Lock()
	p.Damage(1000, nil, g.tick)
	g.mu.Unlock()

	for i := 0; i < 60 && !p.AwaitingRespawn; i++ {
		g.Step()
	}
	if !p.AwaitingRespawn {
		t.Fatal("expected the dying animation to finish")
	}
	if !strings.Contains(s.all(), "|s|") {
		t.Error("expected a dead packet")
	}

	got, err := g.Join(s, 0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != uid {
		t.Errorf("expected uid %d after rejoin, got %d", uid, got)
	}
	if p.Dead || p.HP != p.HPMax || p.AwaitingRespawn {
		t.Errorf("expected a full reset, dead=%v hp=%v", p.Dead, p.HP)
	}
}

func TestObserverSessionsAndTicks(t *testing.T) {
	obs := &fakeObserver{}
	g := newTestGame(t, nil, WithObserver(obs))
	s := &fakeSender{}
	join(t, g, s, entity.Pistol)
	g.Step()
	g.Step()
	g.Close(s)

	if len(obs.ticks) != 2 || obs.ticks[1].Tick != 1 || obs.ticks[0].Players != 1 {
		t.Errorf("unexpected tick stats %+v", obs.ticks)
	}
	if len(obs.sessions) != 2 || !obs.sessions[0].Joined || obs.sessions[1].Joined {
		t.Fatalf("unexpected sessions %+v", obs.sessions)
	}
	if obs.sessions[0].SessionID == "" || obs.sessions[0].SessionID != obs.sessions[1].SessionID {
		t.Error("expected join and leave to share a session id")
	}
	if obs.sessions[0].Mode != "FFA" {
		t.Errorf("expected mode FFA, got %s", obs.sessions[0].Mode)
	}
}

func TestSnapshot(t *testing.T) {
	g := newTestGame(t, nil, WithLayout(Layout{{Type: layoutCrate, X: 100, Y: 100}}))
	join(t, g, &fakeSender{}, entity.Sniper)
	join(t, g, &fakeSender{}, entity.LMG)
	g.Step()

	s := g.Snapshot()
	if s.Tick != 1 || s.Mode != "FFA" || s.ArenaSize != ArenaSize {
		t.Errorf("unexpected header %+v", s)
	}
	if len(s.Players) != 2 || s.Players[0].Gun != int(entity.Sniper) {
		t.Errorf("unexpected players %+v", s.Players)
	}
	if len(s.Objects) != 1 {
		t.Errorf("expected 1 object, got %d", len(s.Objects))
	}
}

func TestInfiniteAimIsIgnored(t *testing.T) {
	g := newTestGame(t, nil)
	s := &fakeSender{}
	p := join(t, g, s, entity.Pistol)
	place(g, p, 3000, 3000)

	g.HandleMessage(s, []byte("m,10,10,45|"))
	g.HandleMessage(s, []byte("m,0,0,Inf|m,0,0,-Inf|"))
	if p.PlayerAngle != 45 {
		t.Fatalf("expected angle 45, got %v", p.PlayerAngle)
	}

	g.net.shooting(p, 100)
	if g.bullets.len() != 1 {
		t.Fatalf("expected 1 bullet, got %d", g.bullets.len())
	}
	b := p.PendingBullets[0]
	if math.IsNaN(b.X) || math.IsNaN(b.SpdX) {
		t.Fatalf("expected finite kinematics, got x=%v spdX=%v", b.X, b.SpdX)
	}
	for range 100 {
		g.bullets.update()
	}
	if g.bullets.len() != 0 {
		t.Errorf("expected the bullet to expire, %d still live", g.bullets.len())
	}
}

func TestUnknownKeyIsIgnored(t *testing.T) {
	g := newTestGame(t, nil)
	s := &fakeSender{}
	p := join(t, g, s, entity.Pistol)
	oldX, oldY := p.X, p.Y
	p.X, p.Y = 3500, 3500
	g.players.grid.Update(p, oldX, oldY)

	g.HandleMessage(s, []byte("k,256,1|k,-1,1|"))
	g.Step()

	if p.X != 3500 || p.Y != 3500 {
		t.Errorf("expected no movement, got (%v, %v)", p.X, p.Y)
	}
	if !p.Invincible {
		t.Error("expected spawn protection to survive an unknown key")
	}
}

func TestJoinRejectsOutOfRangeLoadout(t *testing.T) {
	g := newTestGame(t, nil)
	uid, err := g.Join(&fakeSender{}, 258, 257, 300)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := g.players.get(uid)
	if p.Gun != entity.Pistol || p.Armor != entity.ArmorNone || p.Color != entity.Red {
		t.Errorf("expected the default loadout, got gun=%v armor=%v color=%v", p.Gun, p.Armor, p.Color)
	}
}

func waitRunning(t *testing.T, g *Game) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		g.mu.Lock()
		running := g.running
		g.mu.Unlock()
		if running {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("game loop did not start")
}

func TestRunAfterStop(t *testing.T) {
	g := newTestGame(t, nil)
	for i := range 2 {
		done := make(chan struct{})
		go func() {
			g.Run()
			close(done)
		}()
		waitRunning(t, g)
		g.Stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d: loop did not stop", i)
		}
	}
	g.Stop()
}
