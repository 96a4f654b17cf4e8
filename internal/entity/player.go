package entity

import (
	"math"

	"arena-server/internal/protocol"
)

const (
	PlayerRadius   = 20
	ViewportWidth  = 1355
	ViewportHeight = 768
	baseMaxSpeed   = 10
)

// Tuning carries the configuration values a player depends on
type Tuning struct {
	MaxHealth       float64
	MaxSpeed        float64 // 0 derives the speed from the loadout
	StartingScore   int
	ScoreSquareGain int
	HealthRegen     float64
	ArmorRegen      float64
	BottomlessMags  bool
	SpeedMultiplier float64
	DamageMultplier float64
	RangeMultiplier float64
	QueueSize       int
}

// DefaultTuning mirrors the default game configuration
func DefaultTuning() Tuning {
	return Tuning{
		MaxHealth:       100,
		StartingScore:   300,
		ScoreSquareGain: 15,
		HealthRegen:     1,
		ArmorRegen:      1,
		SpeedMultiplier: 1,
		DamageMultplier: 1,
		RangeMultiplier: 1,
		QueueSize:       DefaultQueueSize,
	}
}

// Player is a connected combatant
type Player struct {
	UID int

	X, Y       float64
	SpdX, SpdY float64
	Radius     float64

	CanBeHit bool
	CanMove  bool
	CanShoot bool
	HasMoved bool

	Gun   Gun
	Armor Armor
	Color Color

	Username  string
	TeamCode  int
	IsMember  bool
	IsPremium bool

	PlayerAngle    float64 // degrees
	MouseX, MouseY float64

	HP, HPMax              float64
	ArmorAmount, MaxArmor  float64
	CurrentBullets         int
	MaxBullets             int
	Score, Kills, Level    int
	Width, Height          int
	FireRate, ReloadSpeed  int
	Reloading, Shooting    bool
	BeingHit, Invincible   bool
	IsLeader, ChatBoxOpen  bool
	ChatMessage            string
	Ghillie, Dashing       bool
	Thermal, Silenced      bool
	NumExplosivesLeft      int
	Recoil                 float64
	BulletSpread           float64
	BulletDamage           float64
	DamageReduction        float64
	RangeMultiplier        float64
	Accel, Friction        float64
	DiagonalMultiplier     float64
	MaxSpeed, MinVelocity  float64
	HealthRegen            float64
	ArmorRegen             float64
	TicksPerRegen          int
	ScoreSquareGain        int
	LastShotTick           int
	LastRegenTick          int
	ActivationTick         int
	ReloadTick             int
	RechargeTimer          int
	LastScoreSquareTick    int
	InFog                  bool
	Dead                   bool
	Killer                 *Player
	AwaitingRespawn        bool
	Held                   protocol.InputSet
	PendingBullets         []*Bullet
	LevelOne, LevelThree   Upgrade
	LevelTwo               Ability
	Fields                 FieldManager
	Queue                  *Queue

	tuning Tuning
}

// NewPlayer builds a player with the given loadout. Invalid loadout
// values are clamped to the first entry of each table.
func NewPlayer(uid int, gun Gun, armor Armor, color Color, t Tuning) *Player {
	if !gun.Valid() {
		gun = Pistol
	}
	if !armor.Valid() {
		armor = ArmorNone
	}
	if !color.Valid() {
		color = Red
	}
	p := &Player{
		UID:      uid,
		Gun:      gun,
		Armor:    armor,
		Color:    color,
		Username: "GatsCustom",
		Queue:    NewQueue(t.QueueSize),
		tuning:   t,
	}
	p.reset()
	return p
}

// Position implements spatial.Entity
func (p *Player) Position() (float64, float64) { return p.X, p.Y }

func (p *Player) reset() {
	stats := p.Gun.Stats()
	t := p.tuning

	p.Radius = PlayerRadius
	p.HPMax = 100
	if t.MaxHealth > 0 {
		p.HPMax = t.MaxHealth
	}
	p.HP = p.HPMax
	p.MaxArmor = p.Armor.Capacity()
	p.ArmorAmount = p.MaxArmor
	p.MaxBullets = stats.MaxBullets
	p.CurrentBullets = p.MaxBullets
	p.FireRate = stats.FireRate
	p.ReloadSpeed = stats.ReloadTicks
	p.BulletSpread = stats.Spread
	p.BulletDamage = stats.Damage
	p.Recoil = 1
	p.RangeMultiplier = 1
	p.DamageReduction = 0
	p.Accel = 2
	p.Friction = 0.85
	p.DiagonalMultiplier = 0.93
	p.MinVelocity = 0.5
	p.MaxSpeed = baseMaxSpeed - stats.Weight - p.Armor.Weight()
	if t.MaxSpeed > 0 {
		p.MaxSpeed = t.MaxSpeed
	}
	p.HealthRegen = 1
	if t.HealthRegen > 0 {
		p.HealthRegen = t.HealthRegen
	}
	p.ArmorRegen = 1
	if t.ArmorRegen > 0 {
		p.ArmorRegen = t.ArmorRegen
	}
	p.ScoreSquareGain = 15
	if t.ScoreSquareGain > 0 {
		p.ScoreSquareGain = t.ScoreSquareGain
	}
	p.TicksPerRegen = 2
	p.Width = ViewportWidth
	p.Height = ViewportHeight
	p.Score = t.StartingScore
	p.Kills = 0
	p.Level = 0
	p.UpdateLevel()

	p.Reloading = false
	p.Shooting = false
	p.BeingHit = false
	p.Invincible = true
	p.IsLeader = false
	p.ChatBoxOpen = false
	p.ChatMessage = ""
	p.Ghillie = false
	p.Dashing = false
	p.Thermal = false
	p.Silenced = false
	p.NumExplosivesLeft = 0
	p.SpdX, p.SpdY = 0, 0
	p.LastShotTick = 0
	p.LastScoreSquareTick = 0
	p.ActivationTick = 0
	p.RechargeTimer = 0
	p.Dead = false
	p.Killer = nil
	p.AwaitingRespawn = false
	p.PendingBullets = nil

	p.CanShoot = false
	p.CanBeHit = false
	p.CanMove = false
	p.HasMoved = false

	p.LevelOne = NoUpgrade
	p.LevelThree = NoUpgrade
	p.LevelTwo = nil

	p.Held = 0
	p.Fields.ClearStates()
	p.Fields.ClearFields()
	p.Queue.Clear()
}

// Respawn soft-resets the player in place, keeping its uid and loadout
func (p *Player) Respawn() {
	p.reset()
}

// UpdatePos integrates held movement keys into the velocity. While an
// ability overrides movement the velocity is left to the ability.
func (p *Player) UpdatePos() {
	if !p.CanMove {
		return
	}
	if p.LevelTwo != nil && p.LevelTwo.IgnoresInput() {
		return
	}

	var inputX, inputY float64
	if p.Held.Has(protocol.InputLeft) {
		inputX--
	}
	if p.Held.Has(protocol.InputRight) {
		inputX++
	}
	if p.Held.Has(protocol.InputUp) {
		inputY--
	}
	if p.Held.Has(protocol.InputDown) {
		inputY++
	}
	if inputX != 0 && inputY != 0 {
		factor := math.Sqrt2 / 2 * p.DiagonalMultiplier
		inputX *= factor
		inputY *= factor
	}
	p.SpdX += inputX * p.Accel
	p.SpdY += inputY * p.Accel

	p.SpdX *= p.Friction
	p.SpdY *= p.Friction

	if speed := math.Hypot(p.SpdX, p.SpdY); speed > p.MaxSpeed {
		scale := p.MaxSpeed / speed
		p.SpdX *= scale
		p.SpdY *= scale
	}

	if math.Abs(p.SpdX) < p.MinVelocity {
		p.SpdX = 0
	}
	if math.Abs(p.SpdY) < p.MinVelocity {
		p.SpdY = 0
	}
}

// Moving reports whether the player has a non-negligible velocity
func (p *Player) Moving() bool {
	return math.Abs(p.SpdX) > 0.001 || math.Abs(p.SpdY) > 0.001
}

// UpdateLevel recomputes the level from the score and reports a change
func (p *Player) UpdateLevel() bool {
	level := 0
	switch {
	case p.Score >= 600:
		level = 3
	case p.Score >= 300:
		level = 2
	case p.Score >= 100:
		level = 1
	}
	if level == p.Level {
		return false
	}
	p.Level = level
	return true
}

// AddScore credits points and marks the score dirty
func (p *Player) AddScore(points int) {
	p.Score += points
	p.Fields.Update(Change{
		States:      protocol.States(protocol.StateFirstPerson),
		FirstPerson: protocol.Fields(protocol.FPScore),
	})
}

// CreditDamage awards the score for dealing damage
func (p *Player) CreditDamage(amount float64) {
	p.AddScore(int(math.Round(math.Min(amount, 100) * 0.9)))
}

// Damage applies amount from owner. Armor absorbs first; the remainder
// scaled by the damage reduction hits health. It reports whether this
// call killed the player and is a no-op on a dead player.
func (p *Player) Damage(amount float64, owner *Player, tick int) bool {
	if p.Dead || amount <= 0 {
		return false
	}
	p.BeingHit = true

	left := amount
	if p.ArmorAmount > 0 {
		if left > p.ArmorAmount {
			left -= p.ArmorAmount
			p.ArmorAmount = 0
		} else {
			p.ArmorAmount -= left
			left = 0
		}
	}

	died := false
	if left > 0 {
		dealt := left * (1 - p.DamageReduction)
		if dealt >= p.HP {
			p.die(owner, tick)
			died = true
		} else {
			p.HP -= dealt
		}
	}

	if owner != nil && owner != p {
		owner.CreditDamage(amount)
	}

	p.Fields.Update(Change{
		States: protocol.States(protocol.StateAux, protocol.StateFirstPerson, protocol.StateRegenerating),
		Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxHP, protocol.AuxArmorAmount, protocol.AuxBeingHit),
	})
	return died
}

func (p *Player) die(killer *Player, tick int) {
	p.HP = 0
	p.CanBeHit = false
	p.CanShoot = false
	p.CanMove = false
	p.Dead = true
	p.SpdX, p.SpdY = 0, 0
	p.LastRegenTick = tick
	p.Killer = killer
	p.Fields.Update(Change{States: protocol.States(protocol.StateDying)})

	if killer != nil && killer != p {
		killer.Kills++
		killer.Fields.Update(Change{
			States:      protocol.States(protocol.StateFirstPerson),
			FirstPerson: protocol.Fields(protocol.FPKills, protocol.FPScore),
		})
	}
}

// Heal restores full health, as a medkit does
func (p *Player) Heal() {
	p.HP = p.HPMax
	p.Fields.Update(Change{
		States: protocol.States(protocol.StateAux),
		Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxHP),
	})
}

// AngleRad returns the aim angle in radians
func (p *Player) AngleRad() float64 {
	return p.PlayerAngle * math.Pi / 180
}

// Tuning returns the configuration the player was built with
func (p *Player) Tuning() Tuning { return p.tuning }
