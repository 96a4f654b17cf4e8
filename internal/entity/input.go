package entity

import (
	"math"
	"strings"

	"arena-server/internal/protocol"
)

// ApplyKey applies one key edge. It runs inside the tick so every
// state change it makes is ordered with the simulation.
func (p *Player) ApplyKey(in protocol.Input, down bool, tick int, noMidPerkTimeout bool) {
	if !in.Valid() {
		return
	}
	if down {
		p.Held.Add(in)
	} else {
		p.Held.Remove(in)
	}

	switch {
	case in.IsMovement():
		p.unlock(down)
	case in == protocol.InputReload:
		p.handleReload(down, tick)
	case in == protocol.InputSpace:
		if down && p.Level > 1 {
			p.UsePowerup(tick, noMidPerkTimeout)
		}
	case in == protocol.InputMouseDown:
		p.handleMouseDown(down)
	case in == protocol.InputChat:
		p.ChatBoxOpen = down
		aux := protocol.Fields(protocol.AuxUID, protocol.AuxChatBoxOpen)
		if p.ChatMessage != "" {
			aux.Add(protocol.AuxChatMessage)
		}
		p.Fields.Update(Change{States: protocol.States(protocol.StateAux), Aux: aux})
	}
}

// unlock ends spawn protection on the first movement press
func (p *Player) unlock(down bool) {
	if p.HasMoved || !down || p.Dead {
		return
	}
	p.HasMoved = true
	p.CanShoot = true
	p.CanBeHit = true
	p.CanMove = true
	p.Invincible = false
	p.Fields.Update(Change{
		States: protocol.States(protocol.StateAux),
		Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxInvincible),
	})
}

func (p *Player) handleReload(down bool, tick int) {
	if !down {
		if !p.Reloading {
			p.CanShoot = p.HasMoved && !p.Dead
		}
		return
	}
	p.StartReload(tick)
}

// StartReload begins a reload unless one is in progress
func (p *Player) StartReload(tick int) bool {
	if p.Reloading {
		return false
	}
	p.Reloading = true
	p.CanShoot = false
	p.ReloadTick = tick
	if p.Gun == Shotgun {
		p.ReloadSpeed = p.Gun.Stats().ReloadTicks * (p.MaxBullets - p.CurrentBullets)
	}
	p.Fields.Update(Change{
		States: protocol.States(protocol.StateReloading, protocol.StateAux),
		Aux: protocol.Fields(protocol.AuxUID, protocol.AuxShooting, protocol.AuxCurrentBullets,
			protocol.AuxMaxBullets, protocol.AuxReloading),
	})
	return true
}

// FinishReload refills the magazine
func (p *Player) FinishReload() {
	p.CurrentBullets = p.MaxBullets
	p.Reloading = false
	p.CanShoot = true
	p.Fields.RemoveState(protocol.StateReloading)
	p.Fields.Update(Change{
		States:      protocol.States(protocol.StateAux, protocol.StateFirstPerson, protocol.StateProtected),
		FirstPerson: protocol.Fields(protocol.FPCurrentBullets),
		Aux:         protocol.Fields(protocol.AuxUID, protocol.AuxCurrentBullets, protocol.AuxReloading),
	})
}

func (p *Player) handleMouseDown(down bool) {
	if down && p.CanShoot {
		p.Fields.Update(Change{States: protocol.States(protocol.StateShooting)})
		return
	}
	p.Fields.RemoveState(protocol.StateShooting)
	p.Shooting = false
	p.Fields.Update(Change{
		States: protocol.States(protocol.StateAux, protocol.StateProtected),
		Aux: protocol.Fields(protocol.AuxUID, protocol.AuxShooting, protocol.AuxCurrentBullets,
			protocol.AuxMaxBullets),
	})
}

// SetChat stores a chat line and flags it for broadcast
func (p *Player) SetChat(msg string) {
	msg = strings.TrimSpace(strings.ReplaceAll(msg, "\x00", ""))
	p.ChatMessage = msg
	p.Fields.Update(Change{
		States: protocol.States(protocol.StateAux),
		Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxChatBoxOpen, protocol.AuxChatMessage),
	})
}

// SetAim updates the mouse position and aim angle
func (p *Player) SetAim(mouseX, mouseY, angle float64) {
	if !finite(mouseX) || !finite(mouseY) || !finite(angle) {
		return
	}
	p.MouseX = mouseX
	p.MouseY = mouseY
	p.PlayerAngle = angle
}

// UsePowerup activates the level two ability, honoring its cooldown
// unless noMidPerkTimeout is set.
func (p *Player) UsePowerup(tick int, noMidPerkTimeout bool) bool {
	if p.LevelTwo == nil {
		return false
	}
	if !noMidPerkTimeout && tick-p.ActivationTick <= p.LevelTwo.Cooldown() {
		return false
	}
	p.LevelTwo.Activate(tick)
	p.ActivationTick = tick
	return true
}

// CanFire reports whether the fire-rate and magazine allow a shot
func (p *Player) CanFire(tick int) bool {
	return tick-p.LastShotTick >= p.FireRate && p.CurrentBullets > 0 && !p.Reloading
}

// Shoot fires one trigger pull, calling spawn once per pellet. It
// reports false when the player may not shoot.
func (p *Player) Shoot(tick int, spawn func(owner *Player)) bool {
	if !p.CanShoot || p.Invincible {
		return false
	}
	p.Shooting = true
	p.LastShotTick = tick

	for range p.Gun.Stats().Pellets {
		spawn(p)
	}

	if !p.tuning.BottomlessMags {
		p.CurrentBullets--
	}

	angle := p.AngleRad() + math.Pi
	p.SpdX += math.Cos(angle) * p.Recoil
	p.SpdY += math.Sin(angle) * p.Recoil

	p.Fields.Update(Change{
		States: protocol.States(protocol.StateAux, protocol.StateFirstPerson,
			protocol.StateBulletActivation, protocol.StateProtected),
		Aux:         protocol.Fields(protocol.AuxUID, protocol.AuxShooting, protocol.AuxCurrentBullets),
		FirstPerson: protocol.Fields(protocol.FPCurrentBullets),
		Bullet: protocol.Fields(protocol.BulletUID, protocol.BulletAngle, protocol.BulletHeight,
			protocol.BulletWidth, protocol.BulletSpdX, protocol.BulletSpdY, protocol.BulletIsKnife,
			protocol.BulletIsShrapnel, protocol.BulletOwnerID, protocol.BulletSilenced),
	})
	return true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
