package entity

// ObjectKind is the on-wire type code of a map object
type ObjectKind int

const (
	KindShield    ObjectKind = 0
	KindCrate     ObjectKind = 1
	KindLongCrate ObjectKind = 2
	KindUserCrate ObjectKind = 3
	KindMedKit    ObjectKind = 5
	KindFlag      ObjectKind = 6
)

const (
	UserCrateHP       = 1000
	UserCrateDuration = 10000
	MedKitDuration    = 500
)

// MapObject is any rectangular placed object. X and Y are the center.
// Kind selects which of the optional payload fields are meaningful.
type MapObject struct {
	UID           int
	Kind          ObjectKind
	X, Y          float64
	Width, Height float64
	Angle         float64

	// user crates
	HP, MaxHP float64
	IsPremium bool

	// shields, medkits, user crates and flags
	ParentID int

	// TTL-bearing kinds; Duration 0 never expires
	SpawnTick int
	Duration  int

	// flags
	Team int
}

// NewCrate builds a static crate. Long crates lie horizontally at angle 90
// and vertically otherwise.
func NewCrate(uid int, kind ObjectKind, x, y, angle float64) *MapObject {
	o := &MapObject{UID: uid, Kind: kind, X: x, Y: y, Angle: angle, Width: 100, Height: 100}
	if kind == KindLongCrate {
		if angle == 90 {
			o.Width, o.Height = 100, 50
		} else {
			o.Width, o.Height = 50, 100
		}
	}
	return o
}

func NewUserCrate(uid, parent int, x, y float64, premium bool, tick int) *MapObject {
	return &MapObject{
		UID: uid, Kind: KindUserCrate, X: x, Y: y, Width: 33, Height: 33,
		HP: UserCrateHP, MaxHP: UserCrateHP, IsPremium: premium, ParentID: parent,
		SpawnTick: tick, Duration: UserCrateDuration,
	}
}

func NewMedKit(uid, parent int, x, y float64, tick int) *MapObject {
	return &MapObject{
		UID: uid, Kind: KindMedKit, X: x, Y: y, Width: 33, Height: 33,
		ParentID: parent, SpawnTick: tick, Duration: MedKitDuration,
	}
}

func NewShield(uid, parent int) *MapObject {
	return &MapObject{UID: uid, Kind: KindShield, Width: 16, Height: 50, ParentID: parent}
}

func NewFlag(uid, team int, x, y float64) *MapObject {
	return &MapObject{UID: uid, Kind: KindFlag, X: x, Y: y, Width: 50, Height: 50, Team: team}
}

// Position implements spatial.Entity
func (o *MapObject) Position() (float64, float64) { return o.X, o.Y }

// Bounds returns the axis-aligned box as left, top, right, bottom
func (o *MapObject) Bounds() (l, t, r, b float64) {
	return o.X - o.Width/2, o.Y - o.Height/2, o.X + o.Width/2, o.Y + o.Height/2
}

// Blocking reports whether players collide with the object
func (o *MapObject) Blocking() bool {
	return o.Kind != KindShield && o.Kind != KindMedKit && o.Kind != KindFlag
}

// Dynamic reports whether the object is re-broadcast every tick
func (o *MapObject) Dynamic() bool {
	return o.Kind == KindShield || o.Kind == KindUserCrate || o.Kind == KindFlag
}

// Expired reports whether a TTL-bearing object has outlived its duration
func (o *MapObject) Expired(tick int) bool {
	return o.Duration > 0 && tick-o.SpawnTick > o.Duration
}

// Hit applies bullet damage to a user crate and reports whether it broke
func (o *MapObject) Hit(dmg float64) bool {
	if o.Kind != KindUserCrate {
		return false
	}
	o.HP -= dmg
	return o.HP <= 0
}
