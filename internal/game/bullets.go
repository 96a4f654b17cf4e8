package game

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"arena-server/internal/codec"
	"arena-server/internal/config"
	"arena-server/internal/entity"
)

const (
	maxBulletUID     = 350
	bulletQueryRange = 250
)

// bulletManager owns live bullets and resolves their hits
type bulletManager struct {
	a       arena
	cfg     config.Game
	log     *zap.Logger
	uids    *uidPool
	bullets map[int]*entity.Bullet
	players *playerManager
	crates  *crateManager
	rng     *rand.Rand
}

func newBulletManager(a arena, cfg config.Game, players *playerManager, crates *crateManager, rng *rand.Rand, log *zap.Logger) *bulletManager {
	return &bulletManager{
		a:       a,
		cfg:     cfg,
		log:     log,
		uids:    newUIDPool(0, maxBulletUID),
		bullets: make(map[int]*entity.Bullet),
		players: players,
		crates:  crates,
		rng:     rng,
	}
}

// create fires a gun bullet from owner's muzzle. It returns nil when
// every bullet uid is taken.
func (m *bulletManager) create(owner *entity.Player) *entity.Bullet {
	uid, ok := m.uids.Acquire()
	if !ok {
		m.log.Warn("no free bullet uid", zap.Int("owner", owner.UID))
		return nil
	}
	b := entity.NewBullet(uid, owner)
	b.SetSpawn(owner, m.a.tickNow(), m.rng)
	m.bullets[uid] = b
	return b
}

// createCustom registers a bullet whose kinematics the caller sets
func (m *bulletManager) createCustom(owner *entity.Player, shrapnel, knife bool) *entity.Bullet {
	uid, ok := m.uids.Acquire()
	if !ok {
		m.log.Warn("no free bullet uid", zap.Int("owner", owner.UID))
		return nil
	}
	b := entity.NewCustomBullet(uid, owner, shrapnel, knife)
	m.bullets[uid] = b
	return b
}

func (m *bulletManager) unload(b *entity.Bullet) {
	if m.bullets[b.UID] != b {
		return
	}
	m.a.broadcast(codec.UnloadBullet(b.UID))
	delete(m.bullets, b.UID)
	m.uids.Release(b.UID)
}

func (m *bulletManager) len() int { return len(m.bullets) }

// list returns the live bullets in uid order
func (m *bulletManager) list() []*entity.Bullet {
	out := make([]*entity.Bullet, 0, len(m.bullets))
	for uid := 0; uid <= maxBulletUID; uid++ {
		if b, ok := m.bullets[uid]; ok {
			out = append(out, b)
		}
	}
	return out
}

// update advances every bullet and resolves expiry and collisions. The
// first crate or player hit consumes the bullet.
func (m *bulletManager) update() {
	tick := m.a.tickNow()
	for _, b := range m.list() {
		b.Update(tick)
		if b.Expired() {
			m.unload(b)
			continue
		}
		if !m.cfg.BulletCollisionsEnabled {
			continue
		}
		if m.hitObject(b) || m.hitPlayer(b, tick) {
			m.unload(b)
		}
	}
}

// hitObject tests the bullet's next position against nearby crates.
// Invulnerable bullets pass through every object.
func (m *bulletManager) hitObject(b *entity.Bullet) bool {
	if b.Invulnerable {
		return false
	}
	nx, ny := b.X+b.SpdX, b.Y+b.SpdY
	for _, o := range m.crates.near(nx, ny, bulletQueryRange) {
		switch o.Kind {
		case entity.KindMedKit, entity.KindFlag:
			continue
		case entity.KindShield:
			if o.ParentID == b.OwnerID || !rectHitsShield(nx, ny, b.Width, b.Height, o) {
				continue
			}
			return true
		}

		l, t, _, _ := o.Bounds()
		if !rectsOverlap(nx, ny, b.Width, b.Height, l, t, o.Width, o.Height) {
			continue
		}
		if o.Kind == entity.KindUserCrate {
			if o.Hit(b.Damage) {
				m.crates.remove(o)
			}
			if owner := m.ownerOf(b); owner != nil {
				owner.AddScore(1)
			}
		}
		return true
	}
	return false
}

// hitPlayer tests the bullet's next position against nearby players and
// applies damage on the first hit. With bullet damage disabled bullets
// pass through players.
func (m *bulletManager) hitPlayer(b *entity.Bullet, tick int) bool {
	nx, ny := b.X+b.SpdX, b.Y+b.SpdY
	for _, p := range m.players.near(nx, ny, bulletQueryRange) {
		if !targetable(p) || p.UID == b.OwnerID || sameTeam(b.TeamCode, p.TeamCode) {
			continue
		}

		dx := p.X - (nx + b.Width/2)
		dy := p.Y - (ny + b.Height/2)
		buffer := p.Radius + math.Max(b.Width, b.Height)/2
		if dx*dx+dy*dy > buffer*buffer {
			continue
		}
		if !rectCircle(nx, ny, b.Width, b.Height, p.X, p.Y, p.Radius) {
			continue
		}
		if !m.cfg.BulletDamageEnabled {
			continue
		}

		owner := m.ownerOf(b)
		died := p.Damage(b.Damage, owner, tick)
		if owner != nil {
			owner.Queue.Push(codec.HitMarker(p))
		}
		if died {
			m.a.killed(p, owner)
		}
		return true
	}
	return false
}

// ownerOf returns the bullet's owner while it is still connected
func (m *bulletManager) ownerOf(b *entity.Bullet) *entity.Player {
	if p, ok := m.players.get(b.OwnerID); ok && p == b.Owner {
		return p
	}
	return nil
}
