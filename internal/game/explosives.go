package game

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"

	"arena-server/internal/codec"
	"arena-server/internal/entity"
	"arena-server/internal/protocol"
)

const (
	maxExplosiveUID = 500
	gasGrowth       = 5
	shrapnelSpeed   = 10
)

var shrapnelFields = protocol.Fields(protocol.BulletUID, protocol.BulletX, protocol.BulletY,
	protocol.BulletHeight, protocol.BulletWidth, protocol.BulletAngle, protocol.BulletSpdX,
	protocol.BulletSpdY, protocol.BulletIsShrapnel, protocol.BulletOwnerID, protocol.BulletTeamCode)

// explosiveManager drives thrown and placed explosives. Each live
// explosive is a pair sharing one uid: the Explosive carries the damage
// parameters and the Exploding carries kinematics and phase.
type explosiveManager struct {
	a          arena
	log        *zap.Logger
	uids       *uidPool
	explosives map[int]*entity.Explosive
	exploding  map[int]*entity.Exploding
	players    *playerManager
	bullets    *bulletManager
	rng        *rand.Rand
}

func newExplosiveManager(a arena, players *playerManager, bullets *bulletManager, rng *rand.Rand, log *zap.Logger) *explosiveManager {
	return &explosiveManager{
		a:          a,
		log:        log,
		uids:       newUIDPool(0, maxExplosiveUID),
		explosives: make(map[int]*entity.Explosive),
		exploding:  make(map[int]*entity.Exploding),
		players:    players,
		bullets:    bullets,
		rng:        rng,
	}
}

// add registers both halves under the lowest free uid. It reports false
// when the pool is exhausted.
func (m *explosiveManager) add(ex *entity.Explosive, el *entity.Exploding) bool {
	uid, ok := m.uids.Acquire()
	if !ok {
		m.log.Warn("no free explosive uid", zap.Int("owner", ex.OwnerID), zap.Stringer("kind", ex.Kind))
		return false
	}
	ex.UID, el.UID = uid, uid
	m.explosives[uid] = ex
	m.exploding[uid] = el
	return true
}

// remove drops both halves of uid together. A placed landmine hands its
// charge back to the owner.
func (m *explosiveManager) remove(uid int) {
	ex, okEx := m.explosives[uid]
	_, okEl := m.exploding[uid]
	if !okEx || !okEl {
		m.log.Warn("explosive pair incomplete on remove", zap.Int("uid", uid),
			zap.Bool("explosive", okEx), zap.Bool("exploding", okEl))
		return
	}

	if ex.Kind == entity.LandMine {
		if owner, ok := m.players.get(ex.OwnerID); ok && owner.NumExplosivesLeft < entity.MaxLandMines {
			owner.NumExplosivesLeft++
			owner.Fields.Update(entity.Change{
				States:      protocol.States(protocol.StateFirstPerson),
				FirstPerson: protocol.Fields(protocol.FPNumExplosivesLeft),
			})
		}
	}

	m.a.broadcast(codec.UnloadExplosive(uid))
	delete(m.explosives, uid)
	delete(m.exploding, uid)
	m.uids.Release(uid)
}

func (m *explosiveManager) len() int { return len(m.exploding) }

// pairs calls fn for every complete pair in uid order
func (m *explosiveManager) pairs(fn func(ex *entity.Explosive, el *entity.Exploding)) {
	for uid := 0; uid <= maxExplosiveUID; uid++ {
		el, ok := m.exploding[uid]
		if !ok {
			continue
		}
		if ex, ok := m.explosives[uid]; ok {
			fn(ex, el)
		}
	}
}

// update advances every explosive one tick. A pair missing its damage
// half is skipped.
func (m *explosiveManager) update() {
	for uid := 0; uid <= maxExplosiveUID; uid++ {
		el, ok := m.exploding[uid]
		if !ok {
			continue
		}
		ex, ok := m.explosives[uid]
		if !ok {
			m.log.Warn("exploding object without explosive", zap.Int("uid", uid))
			continue
		}

		if !ex.Activated {
			m.a.broadcast(codec.ExplosiveActivation(ex, el, protocol.AllExplosiveFields))
			m.a.broadcast(codec.Exploding(el, protocol.AllExplodingFields))
			el.TimeTraveled++
			ex.Activated = true
		}

		var removed bool
		switch ex.Kind {
		case entity.Grenade:
			removed = m.updateBlast(ex, el, ex.TravelTime, false)
		case entity.Frag:
			removed = m.updateBlast(ex, el, entity.FragFuseTicks, true)
		case entity.Gas:
			removed = m.updateGas(ex, el)
		case entity.LandMine:
			removed = m.updateLandMine(ex, el)
		}
		if !removed {
			m.a.broadcast(codec.Exploding(el, protocol.AllExplodingFields))
		}
	}
}

// updateBlast runs grenades and frags: travel, wait out the fuse, then one
// damage pulse followed by the explosion animation
func (m *explosiveManager) updateBlast(ex *entity.Explosive, el *entity.Exploding, fuse int, shrapnel bool) bool {
	switch el.Phase {
	case entity.PhaseTraveling:
		el.Move()
		if el.TimeTraveled >= ex.TravelTime {
			el.Phase = entity.PhaseDetonating
			el.TimeTraveled = 0
		}
	case entity.PhaseDetonating:
		if el.TimeTraveled < fuse {
			el.TimeTraveled++
			return false
		}
		el.Exploding = true
		if el.TicksElapsed == 0 {
			m.damageArea(el.X, el.Y, el.EmissionRadius, ex)
			if shrapnel {
				m.shrapnel(entity.FragShrapnel, el.X, el.Y, ex.OwnerID)
			}
		}
		el.TicksElapsed++
		if el.TicksElapsed >= el.ExplosionTicks {
			m.remove(el.UID)
			return true
		}
	}
	return false
}

// updateGas travels, then emits a growing cloud that damages every tick
// for EmissionTicks and lingers harmlessly before removal
func (m *explosiveManager) updateGas(ex *entity.Explosive, el *entity.Exploding) bool {
	if el.Phase == entity.PhaseTraveling {
		el.Move()
		if el.TimeTraveled >= ex.TravelTime {
			el.Phase = entity.PhaseDetonating
		}
		return false
	}

	el.Exploding = true
	el.Emitting = true
	if el.TicksElapsed >= el.ExplosionTicks {
		el.Exploding = false
	}
	if el.EmissionRadius < el.Radius {
		el.EmissionRadius = math.Min(el.EmissionRadius+gasGrowth, el.Radius)
	}
	el.TicksElapsed++

	switch {
	case el.TicksElapsed <= el.EmissionTicks:
		m.damageArea(el.X, el.Y, el.EmissionRadius, ex)
	case el.TicksElapsed <= el.EmissionTicks+entity.GasLingerTicks:
		el.Emitting = false
	default:
		m.remove(el.UID)
		return true
	}
	return false
}

// updateLandMine watches for players until TravelTime runs out. A
// trigger detonates at once and the mine is removed after the animation.
func (m *explosiveManager) updateLandMine(ex *entity.Explosive, el *entity.Exploding) bool {
	switch el.Phase {
	case entity.PhaseTraveling:
		if el.TimeTraveled >= ex.TravelTime {
			m.remove(el.UID)
			return true
		}
		el.TimeTraveled++
		m.checkTrigger(ex, el)
	case entity.PhaseDetonating:
		el.TicksElapsed++
		if el.TicksElapsed >= el.ExplosionTicks {
			m.remove(el.UID)
			return true
		}
	}
	return false
}

func (m *explosiveManager) checkTrigger(ex *entity.Explosive, el *entity.Exploding) {
	for _, p := range m.players.near(el.X, el.Y, el.EmissionRadius) {
		if p.UID == ex.OwnerID || !targetable(p) || sameTeam(ex.TeamCode, p.TeamCode) {
			continue
		}
		if math.Hypot(p.X-el.X, p.Y-el.Y) <= el.Radius+p.Radius {
			el.Exploding = true
			m.damageArea(el.X, el.Y, el.EmissionRadius, ex)
			el.TicksElapsed = 0
			el.Phase = entity.PhaseDetonating
			return
		}
	}
}

// damageArea hurts every player within radius of (x, y). Owners are hit
// by their own explosives; teammates are not.
func (m *explosiveManager) damageArea(x, y, radius float64, ex *entity.Explosive) {
	owner, _ := m.players.get(ex.OwnerID)
	tick := m.a.tickNow()
	for _, p := range m.players.near(x, y, radius) {
		if !targetable(p) {
			continue
		}
		if p != owner && sameTeam(ex.TeamCode, p.TeamCode) {
			continue
		}
		dmg := ex.DamageAt(math.Hypot(p.X-x, p.Y-y), radius)
		if dmg <= 0 {
			continue
		}
		if p.Damage(dmg, owner, tick) {
			m.a.killed(p, owner)
		}
	}
}

// shrapnel sprays n short-lived bullets in random directions
func (m *explosiveManager) shrapnel(n int, x, y float64, ownerID int) {
	owner, ok := m.players.get(ownerID)
	if !ok {
		return
	}
	tick := m.a.tickNow()
	for range n {
		b := m.bullets.createCustom(owner, true, false)
		if b == nil {
			continue
		}
		angle := m.rng.Float64() * 360
		b.Launch(x, y, angle, shrapnelSpeed, tick)
		b.MaxDistance = m.between(80, 160)
		b.Damage = m.between(20, 40)
		b.Width = m.between(1, 5)
		b.Height = m.between(1, 5)
		b.Invulnerable = false
		m.a.broadcast(codec.BulletActivation(b, shrapnelFields))
	}
}

func (m *explosiveManager) between(lo, hi float64) float64 {
	return math.Floor(lo + m.rng.Float64()*(hi-lo+1))
}

func targetable(p *entity.Player) bool {
	return !p.Dead && !p.AwaitingRespawn && !p.Invincible && p.CanBeHit
}

func sameTeam(a, b int) bool { return a > 0 && a == b }
