package game

import (
	"math"
	"strings"

	"arena-server/internal/codec"
	"arena-server/internal/entity"
	"arena-server/internal/protocol"
)

const (
	deathShrink   = 0.8
	radiusEpsilon = 1e-6
)

// statePackets runs the state handlers of p and returns the packets every
// client receives for it this tick. Private packets go to p's queue.
func (n *networkManager) statePackets(p *entity.Player, tick int) string {
	var b strings.Builder
	if !p.AwaitingRespawn {
		b.WriteString(codec.PlayerUpdate(p))
	}
	p.Fields.States.Each(func(st protocol.State) {
		n.handleState(p, st, tick, &b)
	})
	p.Fields.Cleanup()
	return b.String()
}

func (n *networkManager) handleState(p *entity.Player, st protocol.State, tick int, b *strings.Builder) {
	switch st {
	case protocol.StateDying:
		n.dying(p, tick)
	case protocol.StateRegenerating:
		regenerate(p, tick)
	case protocol.StateShooting:
		n.shooting(p, tick)
	case protocol.StateReloading:
		if tick-p.ReloadTick >= p.ReloadSpeed {
			p.FinishReload()
		}
	case protocol.StateDashing:
		dashing(p, tick)
	case protocol.StateShielding:
		if p.LevelTwo == nil {
			p.Fields.RemoveState(protocol.StateShielding)
		} else if !p.Held.Has(protocol.InputSpace) {
			p.LevelTwo.Deactivate(tick)
		}
	case protocol.StateAux:
		b.WriteString(codec.Aux(p, p.Fields.Aux))
	case protocol.StateActivation:
		b.WriteString(codec.Activation(p))
	case protocol.StateUnload:
		b.WriteString(codec.UnloadPlayer(p.UID))
	case protocol.StateBulletActivation:
		for _, bl := range p.PendingBullets {
			b.WriteString(codec.BulletActivation(bl, p.Fields.Bullet))
		}
		p.PendingBullets = p.PendingBullets[:0]
	case protocol.StateFirstPerson:
		p.Queue.Push(codec.FirstPerson(p, p.Fields.FirstPerson))
		if p.Fields.FirstPerson.Has(protocol.FPScore) {
			n.leaderboardDirty = true
		}
	}
}

// dying shrinks a dead player to nothing, then tells it who killed it
// and hides it from everyone else until it rejoins
func (n *networkManager) dying(p *entity.Player, tick int) {
	if p.Radius > radiusEpsilon {
		p.Radius = math.Max(p.Radius-deathShrink, 0)
		p.Fields.Update(entity.Change{
			States: protocol.States(protocol.StateAux),
			Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxRadius, protocol.AuxHP),
		})
		return
	}

	if p.LevelTwo != nil {
		p.LevelTwo.Deactivate(tick)
	}
	p.Fields.ClearStates()
	p.Fields.ClearFields()

	killer := p.Killer
	if killer == nil {
		killer = p
	}
	p.Queue.Push(codec.KillerOverlay(killer))
	p.Queue.Push(codec.Dead())
	p.Queue.Push(codec.KillerInfo(p, killer))
	p.Queue.Push(codec.Respawn())
	n.broadcastExcept(p, codec.UnloadPlayer(p.UID))
	p.AwaitingRespawn = true
}

// regenerate restores health first, then armor, one step per regen
// interval. The state drops once both pools are full.
func regenerate(p *entity.Player, tick int) {
	p.Fields.Aux.Remove(protocol.AuxBeingHit)
	p.BeingHit = false
	if p.Dead {
		p.Fields.RemoveState(protocol.StateRegenerating)
		return
	}

	due := tick-p.LastRegenTick > p.TicksPerRegen
	switch {
	case p.HP < p.HPMax:
		if due {
			p.HP = math.Min(p.HP+p.HealthRegen, p.HPMax)
			p.LastRegenTick = tick
			p.Fields.Update(entity.Change{
				States: protocol.States(protocol.StateAux),
				Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxHP),
			})
		}
	case p.ArmorAmount < p.MaxArmor:
		if due {
			p.ArmorAmount = math.Min(p.ArmorAmount+p.ArmorRegen, p.MaxArmor)
			p.LastRegenTick = tick
			p.Fields.Update(entity.Change{
				States: protocol.States(protocol.StateAux),
				Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxArmorAmount),
			})
		}
	default:
		p.Fields.RemoveState(protocol.StateRegenerating)
	}
}

// shooting fires while the trigger is held and reloads an empty magazine
func (n *networkManager) shooting(p *entity.Player, tick int) {
	if p.Dead {
		p.Fields.RemoveState(protocol.StateShooting)
		return
	}
	switch {
	case p.CanFire(tick):
		p.Shoot(tick, func(owner *entity.Player) {
			if b := n.g.bullets.create(owner); b != nil {
				owner.PendingBullets = append(owner.PendingBullets, b)
			}
		})
	case p.CurrentBullets == 0 && !p.Reloading:
		p.Shooting = false
		p.Fields.RemoveState(protocol.StateShooting)
		p.StartReload(tick)
		p.Fields.Update(entity.Change{States: protocol.States(protocol.StateProtected)})
	}
}

func dashing(p *entity.Player, tick int) {
	if p.LevelTwo == nil {
		p.Fields.RemoveState(protocol.StateDashing)
		return
	}
	if tick-p.ActivationTick > p.LevelTwo.Duration() {
		p.LevelTwo.Deactivate(tick)
		return
	}
	p.Fields.Update(entity.Change{
		States: protocol.States(protocol.StateAux, protocol.StateProtected),
		Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxDashing),
	})
}
