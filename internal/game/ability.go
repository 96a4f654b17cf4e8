package game

import (
	"math"

	"arena-server/internal/codec"
	"arena-server/internal/entity"
	"arena-server/internal/protocol"
)

const (
	defaultCooldown   = 50
	medKitCooldown    = 300
	userCrateCooldown = 10
	dashDuration      = 9
	dashSpeed         = 25
	shieldGap         = 5
	shieldSlowdown    = 0.33
	medKitDistance    = 150
	userCrateDistance = 50
	knifeSpeed        = 8
	knifeRange        = 400
	knifeDamage       = 500
)

var knifeFields = protocol.Fields(protocol.BulletUID, protocol.BulletX, protocol.BulletY,
	protocol.BulletHeight, protocol.BulletWidth, protocol.BulletAngle, protocol.BulletSpdX,
	protocol.BulletSpdY, protocol.BulletIsKnife, protocol.BulletOwnerID, protocol.BulletTeamCode)

// newAbility builds the level two ability u for owner, or nil when u is
// not a secondary upgrade
func (g *Game) newAbility(u entity.Upgrade, owner *entity.Player) entity.Ability {
	base := ability{g: g, owner: owner, kind: u, cooldown: defaultCooldown}
	switch u {
	case entity.UpgradeShield:
		return &shieldAbility{ability: base}
	case entity.UpgradeMedKit:
		base.cooldown = medKitCooldown
		return &medKitAbility{ability: base}
	case entity.UpgradeUserCrate:
		base.cooldown = userCrateCooldown
		return &userCrateAbility{ability: base}
	case entity.UpgradeKnife:
		return &knifeAbility{ability: base}
	case entity.UpgradeGrenade:
		return &throwAbility{ability: base, explosive: entity.Grenade}
	case entity.UpgradeGas:
		return &throwAbility{ability: base, explosive: entity.Gas}
	case entity.UpgradeFrag:
		return &throwAbility{ability: base, explosive: entity.Frag}
	case entity.UpgradeLandMine:
		return &landMineAbility{ability: base}
	case entity.UpgradeDash:
		return &dashAbility{ability: base}
	}
	return nil
}

// ability holds what every level two perk shares. Instant perks only
// override Activate.
type ability struct {
	g        *Game
	owner    *entity.Player
	kind     entity.Upgrade
	cooldown int
}

func (a *ability) Kind() entity.Upgrade { return a.kind }
func (a *ability) Cooldown() int        { return a.cooldown }
func (a *ability) Duration() int        { return 0 }
func (a *ability) Deactivate(int)       {}
func (a *ability) Update(int)           {}
func (a *ability) IgnoresInput() bool   { return false }

// recharge restarts the client side cooldown display
func (a *ability) recharge(extra ...protocol.State) {
	a.owner.RechargeTimer = a.cooldown
	states := protocol.States(extra...)
	states.Add(protocol.StateFirstPerson)
	a.owner.Fields.Update(entity.Change{
		States:      states,
		FirstPerson: protocol.Fields(protocol.FPRechargeTimer),
	})
}

// ahead returns the point d units along the owner's aim
func (a *ability) ahead(d float64) (float64, float64) {
	rad := a.owner.AngleRad()
	return a.owner.X + math.Cos(rad)*d, a.owner.Y + math.Sin(rad)*d
}

// shieldAbility holds a rotating barrier in front of the owner while
// SPACE stays down, slowing the owner to a third of its speed
type shieldAbility struct {
	ability
	obj   *entity.MapObject
	speed float64
}

func (s *shieldAbility) Activate(int) {
	if s.obj != nil {
		return
	}
	s.obj = entity.NewShield(s.g.crates.nextID(), s.owner.UID)
	s.speed = s.owner.MaxSpeed
	s.owner.MaxSpeed = math.Floor(s.owner.MaxSpeed * shieldSlowdown)
	s.place()
	s.g.crates.add(s.obj)
	s.owner.Fields.Update(entity.Change{States: protocol.States(protocol.StateShielding)})
}

func (s *shieldAbility) Update(int) {
	if s.obj != nil {
		x, y := s.ahead(s.owner.Radius + shieldGap)
		s.obj.Angle = s.owner.PlayerAngle
		s.g.crates.move(s.obj, x, y)
	}
}

func (s *shieldAbility) place() {
	s.obj.X, s.obj.Y = s.ahead(s.owner.Radius + shieldGap)
	s.obj.Angle = s.owner.PlayerAngle
}

func (s *shieldAbility) Deactivate(tick int) {
	if s.obj == nil {
		return
	}
	s.owner.MaxSpeed = s.speed
	s.owner.ActivationTick = tick
	s.owner.Fields.RemoveState(protocol.StateShielding)
	s.recharge(protocol.StateProtected)
	s.g.crates.remove(s.obj)
	s.obj = nil
}

type medKitAbility struct{ ability }

func (m *medKitAbility) Activate(tick int) {
	x, y := m.ahead(medKitDistance)
	kit := entity.NewMedKit(m.g.crates.nextID(), m.owner.UID, x, y, tick)
	kit.Angle = m.owner.PlayerAngle
	m.g.crates.add(kit)
	m.g.broadcast(objectPacket(kit))
	m.recharge()
}

type userCrateAbility struct{ ability }

func (u *userCrateAbility) Activate(tick int) {
	x, y := u.ahead(userCrateDistance)
	crate := entity.NewUserCrate(u.g.crates.nextID(), u.owner.UID, x, y, u.g.cfg.PremiumCratesEnabled, tick)
	u.g.crates.add(crate)
	u.g.broadcast(objectPacket(crate))
	u.recharge()
}

type knifeAbility struct{ ability }

func (k *knifeAbility) Activate(tick int) {
	b := k.g.bullets.createCustom(k.owner, false, true)
	if b == nil {
		return
	}
	b.Launch(k.owner.X, k.owner.Y, k.owner.PlayerAngle, knifeSpeed, tick)
	b.MaxDistance = knifeRange
	b.Damage = knifeDamage
	b.Width, b.Height = 1, 1
	b.Invulnerable = false
	k.g.broadcast(codec.BulletActivation(b, knifeFields))
	k.recharge()
}

// throwAbility lobs a grenade, gas canister or frag along the aim
type throwAbility struct {
	ability
	explosive entity.ExplosiveKind
}

func (t *throwAbility) Activate(int) {
	ex, el := entity.NewExplosive(t.explosive, t.owner)
	if !t.g.explosives.add(ex, el) {
		return
	}
	t.recharge()
}

// landMineAbility places mines from a pool of charges. A mine returns its
// charge when it is removed.
type landMineAbility struct{ ability }

func (l *landMineAbility) Activate(int) {
	if l.owner.NumExplosivesLeft <= 0 {
		return
	}
	ex, el := entity.NewExplosive(entity.LandMine, l.owner)
	if !l.g.explosives.add(ex, el) {
		return
	}
	l.owner.NumExplosivesLeft--
	l.recharge()
	l.owner.Fields.Update(entity.Change{FirstPerson: protocol.Fields(protocol.FPNumExplosivesLeft)})
}

// dashAbility launches the owner along its aim for a few ticks, ignoring
// movement keys meanwhile
type dashAbility struct {
	ability
	active bool
}

func (d *dashAbility) Duration() int      { return dashDuration }
func (d *dashAbility) IgnoresInput() bool { return d.active }

func (d *dashAbility) Activate(int) {
	if d.active {
		return
	}
	d.active = true
	d.owner.Dashing = true
	d.owner.Fields.Update(entity.Change{
		States: protocol.States(protocol.StateDashing, protocol.StateAux, protocol.StateProtected),
		Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxDashing),
	})
}

func (d *dashAbility) Update(int) {
	if !d.active || !d.owner.CanMove {
		return
	}
	rad := d.owner.AngleRad()
	d.owner.SpdX = math.Cos(rad) * dashSpeed
	d.owner.SpdY = math.Sin(rad) * dashSpeed
}

func (d *dashAbility) Deactivate(tick int) {
	if !d.active {
		return
	}
	d.active = false
	d.owner.Dashing = false
	d.owner.ActivationTick = tick
	d.owner.Fields.RemoveState(protocol.StateDashing)
	d.recharge(protocol.StateAux, protocol.StateProtected)
	d.owner.Fields.Update(entity.Change{Aux: protocol.Fields(protocol.AuxUID, protocol.AuxDashing)})
}
