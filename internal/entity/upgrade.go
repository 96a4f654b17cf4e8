package entity

import "arena-server/internal/protocol"

// Upgrade identifies a perk. Primary upgrades (0-9) fill the level one and
// level three slots; secondary upgrades (10+) fill the level two slot.
type Upgrade int

const NoUpgrade Upgrade = -1

const (
	UpgradeNoRecoil Upgrade = iota
	UpgradeBinoculars
	UpgradeThermal
	UpgradeDamage
	UpgradeLargeMag
	UpgradeAccuracy
	UpgradeSilencer
	UpgradeSpeed
	UpgradeRange
	UpgradeKevlar
	UpgradeShield
	UpgradeMedKit
	UpgradeGrenade
	UpgradeKnife
	UpgradeUserCrate
	_ // 15 unused
	UpgradeDash
	UpgradeGas
	UpgradeLandMine
	UpgradeFrag
)

// Primary reports whether u belongs to the level one/three pool
func (u Upgrade) Primary() bool { return u >= UpgradeNoRecoil && u <= UpgradeKevlar }

// Secondary reports whether u belongs to the level two pool
func (u Upgrade) Secondary() bool {
	return u >= UpgradeShield && u <= UpgradeFrag && u != 15
}

// Ability is an active level two perk. Transitions happen only from
// Activate/Deactivate/Update, all of which run inside the tick.
type Ability interface {
	Kind() Upgrade
	Cooldown() int
	// Duration is the number of ticks the ability stays active, 0 for instant
	Duration() int
	Activate(tick int)
	Deactivate(tick int)
	Update(tick int)
	// IgnoresInput reports whether movement keys are ignored while active
	IgnoresInput() bool
}

// ApplyPrimary installs a primary upgrade into the first free primary slot.
// It reports false when the upgrade is not primary, already owned, or both
// slots are taken.
func (p *Player) ApplyPrimary(u Upgrade) bool {
	if !u.Primary() || p.LevelOne == u || p.LevelThree == u {
		return false
	}
	switch {
	case p.LevelOne == NoUpgrade && p.Level >= 1:
		p.LevelOne = u
	case p.LevelThree == NoUpgrade && p.Level >= 3:
		p.LevelThree = u
	default:
		return false
	}

	switch u {
	case UpgradeNoRecoil:
		p.Recoil = 0
	case UpgradeBinoculars:
		p.Width = int(float64(p.Width) * 1.25)
		p.Fields.Update(Change{
			States:      protocol.States(protocol.StateFirstPerson),
			FirstPerson: protocol.Fields(protocol.FPWidth),
		})
	case UpgradeThermal:
		p.Thermal = true
		p.Fields.Update(Change{
			States:      protocol.States(protocol.StateFirstPerson),
			FirstPerson: protocol.Fields(protocol.FPThermal),
		})
	case UpgradeDamage:
		p.BulletDamage += float64(int(p.BulletDamage * 0.33))
	case UpgradeLargeMag:
		p.MaxBullets += int(float64(p.MaxBullets) * 0.33)
		p.CurrentBullets = p.MaxBullets
		p.Fields.Update(Change{
			States:      protocol.States(protocol.StateFirstPerson, protocol.StateAux),
			FirstPerson: protocol.Fields(protocol.FPMaxBullets, protocol.FPCurrentBullets),
			Aux:         protocol.Fields(protocol.AuxUID, protocol.AuxCurrentBullets, protocol.AuxMaxBullets),
		})
	case UpgradeAccuracy:
		p.BulletSpread -= 0.2
		if p.BulletSpread < 0 {
			p.BulletSpread = 0
		}
	case UpgradeSilencer:
		p.Silenced = true
	case UpgradeSpeed:
		p.MaxSpeed += 1.5
	case UpgradeRange:
		p.RangeMultiplier = 1.25
	case UpgradeKevlar:
		p.DamageReduction = 0.3
	}
	return true
}

// InstallAbility fills the level two slot
func (p *Player) InstallAbility(a Ability) bool {
	if p.LevelTwo != nil || p.Level < 2 {
		return false
	}
	p.LevelTwo = a
	p.RechargeTimer = a.Cooldown()
	p.Fields.Update(Change{
		States:      protocol.States(protocol.StateFirstPerson),
		FirstPerson: protocol.Fields(protocol.FPRechargeTimer),
	})
	return true
}
