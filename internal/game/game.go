// Package game runs one authoritative match: the fixed-rate tick, the
// entity managers it drives and the join/close/message entry points the
// transport calls into.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"arena-server/internal/codec"
	"arena-server/internal/config"
	"arena-server/internal/entity"
	"arena-server/internal/gamemode"
	"arena-server/internal/snapshot"
)

var (
	ErrNoFreeUID  = errors.New("no free uid")
	ErrServerFull = errors.New("server full")
)

const ArenaSize = gamemode.ArenaSize

// Sender is a connection the game writes frames to. SendRaw must not block.
type Sender interface {
	SendRaw(data []byte)
}

// TickStats summarizes one completed tick
type TickStats struct {
	Tick       int
	Duration   time.Duration
	Players    int
	Bullets    int
	Explosives int
	Objects    int
	FramesSent int
	Dropped    int
}

// KillEvent is emitted when a player dies
type KillEvent struct {
	Tick          int
	VictimUID     int
	Victim        string
	VictimSession string
	KillerUID     int // 0 for fog or self inflicted deaths
	Killer        string
	KillerSession string
	Gun           entity.Gun
}

// SessionEvent is emitted when a player joins or leaves
type SessionEvent struct {
	SessionID string
	UID       int
	Username  string
	Mode      string
	Joined    bool
	At        time.Time
	Score     int
	Kills     int
}

// Observer receives tick, kill and session notifications. Calls happen
// inside the tick with the game locked and must not block.
type Observer interface {
	OnTick(TickStats)
	OnKill(KillEvent)
	OnSession(SessionEvent)
}

type Option func(*Game)

// WithObserver registers o for notifications
func WithObserver(o Observer) Option {
	return func(g *Game) { g.observers = append(g.observers, o) }
}

// WithLayout replaces the configured crate layout
func WithLayout(l Layout) Option {
	return func(g *Game) { g.layout = l }
}

// arena is what the managers need from the running game
type arena interface {
	tickNow() int
	broadcast(packet string)
	killed(victim, killer *entity.Player)
}

// Game holds the state of one match
type Game struct {
	mu      sync.Mutex
	cfg     config.Game
	log     *zap.Logger
	rng     *rand.Rand
	tick    int
	fogSize float64
	tuning  entity.Tuning
	layout  Layout

	mode       gamemode.Gamemode
	players    *playerManager
	bullets    *bulletManager
	crates     *crateManager
	explosives *explosiveManager
	spawns     *spawnManager
	net        *networkManager
	observers  []Observer

	running bool
	stop    chan struct{}
}

// New builds a match from cfg. It fails when the options are invalid or
// the crate layout cannot be loaded.
func New(cfg config.Game, log *zap.Logger, opts ...Option) (*Game, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid game config", zap.Error(err))
		return nil, fmt.Errorf("game config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	g := &Game{
		cfg:     cfg,
		log:     log,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		fogSize: cfg.FogSize,
		tuning:  tuningFrom(cfg),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.layout == nil {
		l, err := LoadLayout(cfg.CrateLayout)
		if err != nil {
			log.Error("crate layout", zap.String("path", cfg.CrateLayout), zap.Error(err))
			return nil, err
		}
		g.layout = l
	}

	g.crates = newCrateManager(g)
	g.crates.load(g.layout)
	g.players = newPlayerManager(g, cfg, g.tuning, g.crates, g.rng)
	g.spawns = newSpawnManager(g.crates, g.players, g.rng, g.fogSize)
	g.players.spawns = g.spawns
	g.bullets = newBulletManager(g, cfg, g.players, g.crates, g.rng, log.Named("bullets"))
	g.explosives = newExplosiveManager(g, g.players, g.bullets, g.rng, log.Named("explosives"))
	g.net = newNetworkManager(g, log.Named("network"))

	mode, err := gamemode.New(cfg.Mode, world{g}, gamemode.Options{ScoreSquareEnabled: cfg.ScoreSquareEnabled})
	if err != nil {
		return nil, err
	}
	g.mode = mode

	log.Info("game initialized",
		zap.String("mode", mode.Name()),
		zap.Float64("fog_size", g.fogSize),
		zap.Int("objects", g.crates.len()))
	return g, nil
}

func tuningFrom(cfg config.Game) entity.Tuning {
	return entity.Tuning{
		MaxHealth:       cfg.MaxHealth,
		MaxSpeed:        cfg.MaxSpeed,
		StartingScore:   cfg.StartingScore,
		ScoreSquareGain: cfg.ScoreSquareGain,
		HealthRegen:     cfg.HealthRegenPerTick,
		ArmorRegen:      cfg.ArmorRegenPerTick,
		BottomlessMags:  cfg.BottomlessMags,
		SpeedMultiplier: cfg.BulletSpeedMultiplier,
		DamageMultplier: cfg.DamageMultiplier,
		RangeMultiplier: cfg.RangeMultiplier,
		QueueSize:       cfg.QueueSize,
	}
}

// Run starts the game loop and blocks until Stop. A stopped game can be
// run again.
func (g *Game) Run() {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return
	}
	g.running = true
	stop := make(chan struct{})
	g.stop = stop
	g.mu.Unlock()

	ticker := time.NewTicker(g.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Step()
		case <-stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// Step runs one tick
func (g *Game) Step() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.step()
}

func (g *Game) step() {
	start := time.Now()

	g.bullets.update()
	g.players.update(g.net.drain, g.afterMove)
	g.mode.Update()
	g.net.dispatch()
	g.crates.update()
	g.explosives.update()
	if g.cfg.DoubleBulletStep {
		g.bullets.update()
	}
	sent, dropped := g.net.flush()

	stats := TickStats{
		Tick:       g.tick,
		Duration:   time.Since(start),
		Players:    g.players.len(),
		Bullets:    g.bullets.len(),
		Explosives: g.explosives.len(),
		Objects:    g.crates.len(),
		FramesSent: sent,
		Dropped:    dropped,
	}
	g.tick++
	for _, o := range g.observers {
		o.OnTick(stats)
	}
}

// afterMove runs once p has moved: level changes, gamemode scoring and
// fog damage
func (g *Game) afterMove(p *entity.Player) {
	if p.AwaitingRespawn {
		return
	}
	if p.UpdateLevel() {
		p.Queue.Push(codec.Level(p.Level))
	}
	g.mode.UpdatePlayer(p)

	if !g.cfg.FogEnabled {
		return
	}
	p.InFog = g.players.inFog(p)
	if p.InFog && targetable(p) {
		if p.Damage(g.cfg.FogDamagePerTick, nil, g.tick) {
			g.killed(p, nil)
		}
	}
}

// Join handles a join packet from s. A sender that already owns a player
// respawns it in place.
func (g *Game) Join(s Sender, gun, armor, color int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, err := g.net.join(s, gun, armor, color)
	if err != nil {
		return 0, err
	}
	return p.UID, nil
}

// Close removes the player owned by s, if any
func (g *Game) Close(s Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.net.close(s)
}

// HandleMessage decodes and dispatches one inbound frame from s
func (g *Game) HandleMessage(s Sender, frame []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.net.onMessage(s, frame)
}

// PlayerCount returns the number of joined players
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players.len()
}

// Full reports whether no further player can join
func (g *Game) Full() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.players.len() >= g.cfg.MaxPlayers
}

// CurrentTick returns the number of completed ticks
func (g *Game) CurrentTick() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick
}

func (g *Game) Mode() string { return g.mode.Name() }

// Snapshot copies the arena state
func (g *Game) Snapshot() snapshot.State {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := snapshot.State{
		Tick:       g.tick,
		Mode:       g.mode.Name(),
		ArenaSize:  ArenaSize,
		FogSize:    g.fogSize,
		TeamScores: g.mode.TeamScores(),
	}
	for _, p := range g.players.list() {
		s.Players = append(s.Players, snapshot.Player{
			UID: p.UID, Username: p.Username, X: p.X, Y: p.Y, Radius: p.Radius,
			Angle: p.PlayerAngle, HP: p.HP, Armor: p.ArmorAmount, Score: p.Score,
			Kills: p.Kills, Level: p.Level, Gun: int(p.Gun), Color: int(p.Color),
			Team: p.TeamCode, Dead: p.Dead || p.AwaitingRespawn, Leader: p.IsLeader, InFog: p.InFog,
		})
	}
	for _, b := range g.bullets.list() {
		s.Bullets = append(s.Bullets, snapshot.Bullet{
			UID: b.UID, OwnerID: b.OwnerID, X: b.X, Y: b.Y, Width: b.Width, Height: b.Height, Angle: b.Angle,
		})
	}
	for _, o := range g.crates.list() {
		s.Objects = append(s.Objects, snapshot.Object{
			UID: o.UID, Kind: int(o.Kind), X: o.X, Y: o.Y, Width: o.Width, Height: o.Height,
			Angle: o.Angle, HP: o.HP, Team: o.Team,
		})
	}
	g.explosives.pairs(func(ex *entity.Explosive, el *entity.Exploding) {
		r := el.EmissionRadius
		if ex.Kind == entity.LandMine && !el.Exploding {
			r = el.Radius
		}
		s.Explosives = append(s.Explosives, snapshot.Explosive{
			UID: el.UID, Kind: int(ex.Kind), OwnerID: ex.OwnerID, X: el.X, Y: el.Y,
			Radius: r, Exploding: el.Exploding,
		})
	})
	return s
}

// Config returns the match options
func (g *Game) Config() config.Game { return g.cfg }

// Broadcast queues packet for every connected player
func (g *Game) Broadcast(packet string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.net.broadcast(packet)
}

func (g *Game) tickNow() int { return g.tick }

func (g *Game) broadcast(packet string) { g.net.broadcast(packet) }

func (g *Game) broadcastExcept(p *entity.Player, packet string) { g.net.broadcastExcept(p, packet) }

// killed reports a death to the gamemode-independent observers
func (g *Game) killed(victim, killer *entity.Player) {
	ev := KillEvent{
		Tick:          g.tick,
		VictimUID:     victim.UID,
		Victim:        victim.Username,
		VictimSession: g.net.sessionOf(victim),
	}
	if killer != nil && killer != victim {
		ev.KillerUID = killer.UID
		ev.Killer = killer.Username
		ev.KillerSession = g.net.sessionOf(killer)
		ev.Gun = killer.Gun
	}
	for _, o := range g.observers {
		o.OnKill(ev)
	}
}

func (g *Game) session(ev SessionEvent) {
	ev.Mode = g.mode.Name()
	for _, o := range g.observers {
		o.OnSession(ev)
	}
}

// world adapts the game for gamemodes. Its methods run inside the tick
// or a join/close flow and expect the game to be locked.
type world struct{ g *Game }

func (w world) Tick() int { return w.g.tick }

func (w world) Players() []*entity.Player { return w.g.players.list() }

func (w world) Player(uid int) (*entity.Player, bool) { return w.g.players.get(uid) }

func (w world) Spawn(p *entity.Player, team int) { w.g.players.spawn(p, team) }

func (w world) Broadcast(packet string) { w.g.net.broadcast(packet) }

func (w world) AddFlag(team int, x, y float64) *entity.MapObject {
	return w.g.crates.addFlag(team, x, y)
}

func (w world) MoveObject(o *entity.MapObject, x, y float64) { w.g.crates.move(o, x, y) }
