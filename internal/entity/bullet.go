package entity

import (
	"math"
	"math/rand/v2"
)

// Bullet is a projectile owned by exactly one player
type Bullet struct {
	UID     int
	OwnerID int
	Owner   *Player

	X, Y          float64
	SpdX, SpdY    float64
	Width, Height float64
	Angle         float64 // degrees

	Speed       float64
	Damage      float64
	Spread      float64
	DropOff     float64
	MinDamage   float64
	MaxDistance float64
	Traveled    float64

	Gun          Gun
	Invulnerable bool
	SpawnTick    int
	Silenced     bool
	IsKnife      bool
	IsShrapnel   bool
	TeamCode     int
}

// NewBullet builds a gun bullet whose parameters derive from the owner's
// weapon, upgrades and tuning. Position and velocity are set by SetSpawn.
func NewBullet(uid int, owner *Player) *Bullet {
	t := owner.tuning
	stats := owner.Gun.Stats()
	b := &Bullet{
		UID:          uid,
		OwnerID:      owner.UID,
		Owner:        owner,
		Gun:          owner.Gun,
		Spread:       owner.BulletSpread,
		Damage:       owner.BulletDamage * multiplier(t.DamageMultplier),
		Speed:        stats.Speed * multiplier(t.SpeedMultiplier),
		MaxDistance:  stats.Range * owner.RangeMultiplier * multiplier(t.RangeMultiplier),
		DropOff:      stats.DropOff,
		MinDamage:    stats.MinDamage,
		Silenced:     owner.Silenced,
		TeamCode:     owner.TeamCode,
		Invulnerable: owner.Gun != Pistol,
	}
	return b
}

// NewCustomBullet builds a bullet whose kinematics are set by the caller,
// used for shrapnel and knives.
func NewCustomBullet(uid int, owner *Player, shrapnel, knife bool) *Bullet {
	return &Bullet{
		UID:        uid,
		OwnerID:    owner.UID,
		Owner:      owner,
		Gun:        Pistol,
		IsShrapnel: shrapnel,
		IsKnife:    knife,
		TeamCode:   owner.TeamCode,
	}
}

func multiplier(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// Position implements spatial.Entity
func (b *Bullet) Position() (float64, float64) { return b.X, b.Y }

// SetSpawn places the bullet at the owner's muzzle and applies spread
func (b *Bullet) SetSpawn(owner *Player, tick int, rng *rand.Rand) {
	stats := b.Gun.Stats()
	b.Width = stats.Width
	b.Height = stats.Length

	angleRad := owner.AngleRad()
	sideRad := angleRad + math.Pi/2

	scale := owner.Radius / PlayerRadius
	forward := stats.Forward * scale
	side := stats.Side * scale

	b.X = owner.X + math.Cos(angleRad)*forward + math.Cos(sideRad)*side + math.Cos(angleRad)*(owner.Radius/2)
	b.Y = owner.Y + math.Sin(angleRad)*forward + math.Sin(sideRad)*side + math.Sin(angleRad)*(owner.Radius/2)

	b.SpawnTick = tick
	b.Angle = owner.PlayerAngle

	offset := (rng.Float64() + rng.Float64() - 1) * b.Spread
	b.Angle += offset * 180 / math.Pi
	heading := angleRad + offset
	b.SpdX = math.Cos(heading) * b.Speed
	b.SpdY = math.Sin(heading) * b.Speed
}

// Launch sets custom kinematics: speed along angle (degrees) from (x, y)
func (b *Bullet) Launch(x, y, angle, speed float64, tick int) {
	b.X, b.Y = x, y
	b.Angle = angle
	b.Speed = speed
	rad := angle * math.Pi / 180
	b.SpdX = math.Cos(rad) * speed
	b.SpdY = math.Sin(rad) * speed
	b.SpawnTick = tick
}

// Update advances the bullet one tick
func (b *Bullet) Update(tick int) {
	b.X += b.SpdX
	b.Y += b.SpdY

	if b.Gun != Pistol {
		if tick-b.SpawnTick > 1 {
			b.Invulnerable = false
		}
		if b.Damage > b.MinDamage {
			b.Damage = math.Max(b.Damage-b.DropOff, b.MinDamage)
		}
	}
	b.Traveled += math.Hypot(b.SpdX, b.SpdY)
}

// Expired reports whether the bullet has reached its range. A bullet
// whose position is no longer finite can never hit anything and expires too.
func (b *Bullet) Expired() bool {
	if !finite(b.X) || !finite(b.Y) || !finite(b.Traveled) {
		return true
	}
	return b.Traveled >= b.MaxDistance
}
