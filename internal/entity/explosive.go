package entity

import "math"

// ExplosiveKind is the on-wire explosive type
type ExplosiveKind int

const (
	Grenade ExplosiveKind = iota
	Gas
	LandMine
	Frag
)

func (k ExplosiveKind) String() string {
	switch k {
	case Grenade:
		return "grenade"
	case Gas:
		return "gas"
	case LandMine:
		return "landmine"
	case Frag:
		return "frag"
	}
	return "unknown"
}

// Phase of an exploding object
type Phase int

const (
	PhaseTraveling Phase = iota + 1
	PhaseDetonating
)

const (
	ThrowVelocity     = 15
	ThrowTravelTicks  = 24
	FragFuseTicks     = 18
	FragShrapnel      = 25
	GasLingerTicks    = 25
	MaxLandMines      = 3
	LandMinePlacement = 50
)

// Explosive holds the damage parameters of one live explosive
type Explosive struct {
	UID        int
	Kind       ExplosiveKind
	X, Y       float64
	SpdX, SpdY float64
	TravelTime int
	Damage     float64 // per pulse
	OwnerID    int
	TeamCode   int
	Emitting   bool
	Activated  bool
}

// Exploding holds the kinematic and phase state of the same explosive
type Exploding struct {
	UID            int
	X, Y           float64
	SpdX, SpdY     float64
	Exploding      bool
	Emitting       bool
	EmissionRadius float64
	Radius         float64 // gas cap or landmine trigger radius
	TimeTraveled   int
	TicksElapsed   int
	EmissionTicks  int
	ExplosionTicks int
	Phase          Phase
}

// Position implements spatial.Entity
func (e *Exploding) Position() (float64, float64) { return e.X, e.Y }

// Move advances the traveling kinematics one tick
func (e *Exploding) Move() {
	e.X += e.SpdX
	e.Y += e.SpdY
	e.TimeTraveled++
}

// Falloff reports whether damage scales with distance for this kind
func (k ExplosiveKind) Falloff() bool {
	return k == Gas || k == LandMine
}

// DamageAt returns the damage dealt at distance d from the center of a
// blast of the given radius, or 0 outside it.
func (x *Explosive) DamageAt(d, radius float64) float64 {
	if d > radius || radius <= 0 {
		return 0
	}
	if !x.Kind.Falloff() {
		return x.Damage
	}
	f := 1 - d/radius
	return x.Damage * f * f
}

// NewExplosive builds the pair for a thrown or placed explosive from the
// owner's current position and aim.
func NewExplosive(kind ExplosiveKind, owner *Player) (*Explosive, *Exploding) {
	rad := owner.AngleRad()
	x, y := owner.X, owner.Y
	spdX, spdY := math.Cos(rad)*ThrowVelocity, math.Sin(rad)*ThrowVelocity

	ex := &Explosive{Kind: kind, OwnerID: owner.UID, TeamCode: owner.TeamCode}
	el := &Exploding{Phase: PhaseTraveling}

	switch kind {
	case Grenade:
		ex.TravelTime = ThrowTravelTicks
		ex.Damage = 250
		el.EmissionRadius = 200
		el.ExplosionTicks = 7
	case Gas:
		ex.TravelTime = ThrowTravelTicks
		ex.Damage = 1
		el.Radius = 175
		el.ExplosionTicks = 7
		el.EmissionTicks = 375
	case LandMine:
		x += math.Cos(rad) * LandMinePlacement
		y += math.Sin(rad) * LandMinePlacement
		spdX, spdY = 0, 0
		ex.TravelTime = 1500
		ex.Damage = 500
		el.EmissionRadius = 175
		el.ExplosionTicks = 7
		el.Radius = 20
	case Frag:
		ex.TravelTime = ThrowTravelTicks
		ex.Damage = 60
		el.EmissionRadius = 200
		el.ExplosionTicks = 7
	}

	ex.X, ex.Y, ex.SpdX, ex.SpdY = x, y, spdX, spdY
	el.X, el.Y, el.SpdX, el.SpdY = x, y, spdX, spdY
	return ex, el
}
