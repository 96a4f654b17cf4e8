package protocol

import "math/bits"

// FieldSet is a set of field indices of one packet schema. Field order is
// the on-wire order, so the highest member bounds the encoded window.
type FieldSet[F ~uint8] uint32

// Fields builds a set from the given members
func Fields[F ~uint8](fs ...F) FieldSet[F] {
	var s FieldSet[F]
	for _, f := range fs {
		s |= 1 << f
	}
	return s
}

func (s FieldSet[F]) Has(f F) bool { return s&(1<<f) != 0 }
func (s FieldSet[F]) Empty() bool  { return s == 0 }

// Add inserts members; duplicates are ignored
func (s *FieldSet[F]) Add(fs ...F) {
	for _, f := range fs {
		*s |= 1 << f
	}
}

// Merge inserts every member of other
func (s *FieldSet[F]) Merge(other FieldSet[F]) { *s |= other }

func (s *FieldSet[F]) Remove(f F) { *s &^= 1 << f }
func (s *FieldSet[F]) Clear()     { *s = 0 }

// Window returns the number of positional slots an encoder must emit:
// the index of the last member plus one, or 0 for an empty set.
func (s FieldSet[F]) Window() int {
	return bits.Len32(uint32(s))
}

// AuxField is a member of the auxiliary player update schema
type AuxField uint8

const (
	AuxUID AuxField = iota
	AuxCurrentBullets
	AuxShooting
	AuxReloading
	AuxHP
	AuxBeingHit
	AuxArmorAmount
	AuxRadius
	AuxGhillie
	AuxMaxBullets
	AuxInvincible
	AuxDashing
	AuxChatBoxOpen
	AuxIsLeader
	AuxColor
	AuxChatMessage
)

// ActivationField is a member of the full player activation schema
type ActivationField uint8

const (
	ActUID ActivationField = iota
	ActGun
	ActColor
	ActX
	ActY
	ActRadius
	ActPlayerAngle
	ActArmorAmount
	ActHP
	ActMaxBullets
	ActUsername
	ActGhillie
	ActInvincible
	ActIsLeader
	ActIsPremium
	ActTeamCode
	ActChatBoxOpen
	activationFieldCount
)

// AllActivationFields covers the whole activation schema
var AllActivationFields = FieldSet[ActivationField](1<<activationFieldCount - 1)

// FirstPersonField is a member of the private first-person schema
type FirstPersonField uint8

const (
	FPCurrentBullets FirstPersonField = iota
	FPScore
	FPKills
	FPRechargeTimer
	FPMaxBullets
	FPWidth
	FPThermal
	FPNumExplosivesLeft
)

// BulletField is a member of the bullet activation schema
type BulletField uint8

const (
	BulletUID BulletField = iota
	BulletX
	BulletY
	BulletHeight
	BulletWidth
	BulletAngle
	BulletSpdX
	BulletSpdY
	BulletSilenced
	BulletIsKnife
	BulletIsShrapnel
	BulletOwnerID
	BulletTeamCode
)

// ObjectField is a member of the map object schema
type ObjectField uint8

const (
	ObjUID ObjectField = iota
	ObjType
	ObjX
	ObjY
	ObjAngle
	ObjParentID
	ObjHP
	ObjMaxHP
	ObjIsPremium
	ObjTeam
)

// ExplosiveField is a member of the explosive activation schema
type ExplosiveField uint8

const (
	ExpUID ExplosiveField = iota
	ExpType
	ExpX
	ExpY
	ExpSpdX
	ExpSpdY
	ExpTravelTime
	ExpEmitting
	ExpEmissionRadius
	ExpOwnerID
	ExpTeamCode
	explosiveFieldCount
)

// AllExplosiveFields covers the whole explosive activation schema
var AllExplosiveFields = FieldSet[ExplosiveField](1<<explosiveFieldCount - 1)

// ExplodingField is a member of the exploding update schema
type ExplodingField uint8

const (
	ExplUID ExplodingField = iota
	ExplX
	ExplY
	ExplExploding
	ExplEmitting
	ExplEmissionRadius
	explodingFieldCount
)

// AllExplodingFields covers the whole exploding update schema
var AllExplodingFields = FieldSet[ExplodingField](1<<explodingFieldCount - 1)
