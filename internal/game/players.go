package game

import (
	"math"
	"math/rand/v2"

	"arena-server/internal/config"
	"arena-server/internal/entity"
	"arena-server/internal/spatial"
)

const (
	minPlayerUID       = 1
	maxPlayerUID       = config.MaxPlayers
	playerCellSize     = 200
	neighborRange      = 250
	crateQueryPadding  = 250
	blockedSpeedFactor = 0.3
)

// playerManager owns the player uid pool, the player grid and movement
// resolution against crates and other players.
type playerManager struct {
	cfg     config.Game
	tuning  entity.Tuning
	uids    *uidPool
	players map[int]*entity.Player
	grid    *spatial.Grid[*entity.Player]
	crates  *crateManager
	spawns  *spawnManager
	rng     *rand.Rand
	fogSize float64
	tick    func() int
}

func newPlayerManager(a arena, cfg config.Game, tuning entity.Tuning, crates *crateManager, rng *rand.Rand) *playerManager {
	return &playerManager{
		cfg:     cfg,
		tuning:  tuning,
		uids:    newUIDPool(minPlayerUID, maxPlayerUID),
		players: make(map[int]*entity.Player),
		grid:    spatial.NewGrid[*entity.Player](playerCellSize),
		crates:  crates,
		rng:     rng,
		fogSize: cfg.FogSize,
		tick:    a.tickNow,
	}
}

// add creates a player on the lowest free uid. It is not placed on the
// map until spawn is called.
func (m *playerManager) add(gun entity.Gun, armor entity.Armor, color entity.Color) (*entity.Player, error) {
	if len(m.players) >= m.cfg.MaxPlayers {
		return nil, ErrServerFull
	}
	uid, ok := m.uids.Acquire()
	if !ok {
		return nil, ErrNoFreeUID
	}
	p := entity.NewPlayer(uid, gun, armor, color, m.tuning)
	m.players[uid] = p
	return p, nil
}

func (m *playerManager) remove(p *entity.Player) {
	if m.players[p.UID] != p {
		return
	}
	delete(m.players, p.UID)
	m.uids.Release(p.UID)
	m.grid.Remove(p)
}

func (m *playerManager) get(uid int) (*entity.Player, bool) {
	p, ok := m.players[uid]
	return p, ok
}

// list returns the players in uid order
func (m *playerManager) list() []*entity.Player {
	out := make([]*entity.Player, 0, len(m.players))
	for uid := minPlayerUID; uid <= maxPlayerUID; uid++ {
		if p, ok := m.players[uid]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (m *playerManager) len() int { return len(m.players) }

// near returns the live players whose cell overlaps the query square
func (m *playerManager) near(x, y, r float64) []*entity.Player {
	return m.grid.Query(x, y, r)
}

// spawn places p in the spawn area of team and indexes it
func (m *playerManager) spawn(p *entity.Player, team int) {
	oldX, oldY := p.X, p.Y
	if m.spawns != nil {
		pt := m.spawns.pick(team)
		p.X, p.Y = pt.X, pt.Y
	} else {
		m.randomPosition(p)
	}
	if m.grid.Contains(p) {
		m.grid.Update(p, oldX, oldY)
	} else {
		m.grid.Insert(p)
	}
}

// randomPosition samples the arena until p clears every crate or the
// attempt cap is hit, keeping the last sample either way
func (m *playerManager) randomPosition(p *entity.Player) {
	for range randomSpawnAttempts {
		p.X = math.Floor(m.rng.Float64() * ArenaSize)
		p.Y = math.Floor(m.rng.Float64() * ArenaSize)
		if !collidesAny(p.X, p.Y, p.Radius, m.blockingNear(p.X, p.Y, p.Radius)) {
			return
		}
	}
}

// update advances every player one tick. before runs first for each
// player, including those awaiting a respawn; after runs once movement
// is resolved.
func (m *playerManager) update(before, after func(p *entity.Player)) {
	tick := m.tick()
	for _, p := range m.list() {
		if before != nil {
			before(p)
		}
		if !p.AwaitingRespawn {
			if p.LevelTwo != nil {
				p.LevelTwo.Update(tick)
			}
			p.UpdatePos()
			m.collide(p)
		}
		if after != nil {
			after(p)
		}
	}
}

func (m *playerManager) inFog(p *entity.Player) bool {
	half := m.fogSize / 2
	c := ArenaSize / 2.0
	return p.X < c-half || p.X > c+half || p.Y < c-half || p.Y > c+half
}

// collide moves p by its velocity. Stationary players only get pushed
// apart from moving neighbors.
func (m *playerManager) collide(p *entity.Player) {
	if !p.Moving() {
		if m.movingNeighbor(p) {
			m.separate(p, nil)
		}
		return
	}

	blocking, medkits := m.nearbyObjects(p)
	m.pickUp(p, medkits)
	m.slide(p, blocking)
	m.separate(p, blocking)

	oldX, oldY := p.X, p.Y
	p.X = clamp(p.X, p.Radius, ArenaSize-p.Radius)
	p.Y = clamp(p.Y, p.Radius, ArenaSize-p.Radius)
	if p.X != oldX || p.Y != oldY {
		m.grid.Update(p, oldX, oldY)
	}
}

func (m *playerManager) movingNeighbor(p *entity.Player) bool {
	for _, o := range m.grid.Query(p.X, p.Y, neighborRange) {
		if o != p && !o.AwaitingRespawn && o.Moving() {
			return true
		}
	}
	return false
}

func (m *playerManager) nearbyObjects(p *entity.Player) (blocking, medkits []*entity.MapObject) {
	for _, o := range m.crates.near(p.X, p.Y, p.Radius+crateQueryPadding) {
		switch {
		case o.Kind == entity.KindMedKit:
			medkits = append(medkits, o)
		case o.Blocking():
			blocking = append(blocking, o)
		}
	}
	return blocking, medkits
}

func (m *playerManager) blockingNear(x, y, r float64) []*entity.MapObject {
	var out []*entity.MapObject
	for _, o := range m.crates.near(x, y, r+crateQueryPadding) {
		if o.Blocking() {
			out = append(out, o)
		}
	}
	return out
}

// pickUp consumes medkits p touches while below full health
func (m *playerManager) pickUp(p *entity.Player, medkits []*entity.MapObject) {
	for _, k := range medkits {
		if p.HP >= p.HPMax {
			return
		}
		dx := p.X - k.X
		dy := p.Y - k.Y
		reach := p.Radius + math.Max(k.Width, k.Height)/2
		if dx*dx+dy*dy < reach*reach {
			p.Heal()
			m.crates.remove(k)
		}
	}
}

// slide applies the velocity, falling back to single-axis moves when the
// full move is blocked. A blocked axis loses most of its speed.
func (m *playerManager) slide(p *entity.Player, crates []*entity.MapObject) {
	oldX, oldY := p.X, p.Y
	targetX := p.X + p.SpdX
	targetY := p.Y + p.SpdY

	if !collidesAny(targetX, targetY, p.Radius, crates) {
		p.X, p.Y = targetX, targetY
	} else {
		finalX, finalY := p.X, p.Y
		movedX := !collidesAny(targetX, p.Y, p.Radius, crates)
		if movedX {
			finalX = targetX
		}
		movedY := !collidesAny(p.X, targetY, p.Radius, crates)
		if movedY {
			finalY = targetY
		}

		switch {
		case movedX && movedY:
			// each axis is free alone but not together
			if math.Abs(p.SpdX) > math.Abs(p.SpdY) {
				p.X = finalX
				p.SpdY *= blockedSpeedFactor
			} else {
				p.Y = finalY
				p.SpdX *= blockedSpeedFactor
			}
		default:
			p.X, p.Y = finalX, finalY
			if !movedX {
				p.SpdX *= blockedSpeedFactor
			}
			if !movedY {
				p.SpdY *= blockedSpeedFactor
			}
		}
	}

	if p.X != oldX || p.Y != oldY {
		m.grid.Update(p, oldX, oldY)
	}
}

// separate pushes p and each overlapping neighbor apart by half the
// overlap. A side whose new position would sit inside a crate stays put.
func (m *playerManager) separate(p *entity.Player, crates []*entity.MapObject) {
	if !m.cfg.PlayerCollisionsEnabled {
		return
	}
	for _, o := range m.grid.Query(p.X, p.Y, neighborRange) {
		if o == p || o.AwaitingRespawn {
			continue
		}
		dx := p.X - o.X
		dy := p.Y - o.Y
		distSq := dx*dx + dy*dy
		minDist := p.Radius + o.Radius
		if distSq >= minDist*minDist || distSq <= 0.0001 {
			continue
		}

		dist := math.Sqrt(distSq)
		push := (minDist - dist) / 2
		pushX := dx / dist * push
		pushY := dy / dist * push

		pCrates, oCrates := crates, crates
		if pCrates == nil {
			pCrates = m.blockingNear(p.X, p.Y, p.Radius)
			oCrates = m.blockingNear(o.X, o.Y, o.Radius)
		}

		if px, py := p.X+pushX, p.Y+pushY; !collidesAny(px, py, p.Radius, pCrates) {
			oldX, oldY := p.X, p.Y
			p.X, p.Y = px, py
			m.grid.Update(p, oldX, oldY)
		}
		if ox, oy := o.X-pushX, o.Y-pushY; !collidesAny(ox, oy, o.Radius, oCrates) {
			oldX, oldY := o.X, o.Y
			o.X, o.Y = ox, oy
			m.grid.Update(o, oldX, oldY)
		}
	}
}
