package entity

// Gun is a player weapon class
type Gun uint8

const (
	Pistol Gun = iota
	SMG
	Shotgun
	Assault
	Sniper
	LMG
	gunCount
)

// Armor is a player armor tier
type Armor uint8

const (
	ArmorNone Armor = iota
	ArmorLight
	ArmorMedium
	ArmorHeavy
	armorCount
)

// Color is a player skin color
type Color uint8

const (
	Red Color = iota
	Orange
	Yellow
	Green
	Blue
	Pink
	colorCount
)

// GunStats are the per-class weapon parameters
type GunStats struct {
	Name        string
	FireRate    int // ticks between shots
	ReloadTicks int
	MaxBullets  int
	Speed       float64
	Range       float64
	Spread      float64
	Damage      float64
	DropOff     float64 // damage lost per tick
	MinDamage   float64 // drop-off floor
	Weight      float64
	Forward     float64 // muzzle offset along the aim
	Side        float64 // muzzle offset perpendicular to the aim
	Width       float64
	Length      float64
	Pellets     int
}

var gunTable = [gunCount]GunStats{
	Pistol:  {Name: "PISTOL", FireRate: 9, ReloadTicks: 40, MaxBullets: 16, Speed: 12, Range: 360, Spread: 0.08, Damage: 60, DropOff: 1, MinDamage: 30, Weight: 2.0, Forward: 14, Side: -12, Width: 2, Length: 5, Pellets: 1},
	SMG:     {Name: "SMG", FireRate: 2, ReloadTicks: 45, MaxBullets: 30, Speed: 10, Range: 280, Spread: 0.08, Damage: 37, DropOff: 1, MinDamage: 19, Weight: 2.3, Forward: 34, Side: -12, Width: 2, Length: 5, Pellets: 1},
	Shotgun: {Name: "SHOTGUN", FireRate: 21, ReloadTicks: 18, MaxBullets: 5, Speed: 12, Range: 280, Spread: 0.1, Damage: 40, DropOff: 2, MinDamage: 10, Weight: 2.7, Forward: 32, Side: -12, Width: 2, Length: 2, Pellets: 8},
	Assault: {Name: "ASSAULT", FireRate: 4, ReloadTicks: 60, MaxBullets: 30, Speed: 10, Range: 360, Spread: 0.08, Damage: 48, DropOff: 1, MinDamage: 24, Weight: 2.7, Forward: 44, Side: -12, Width: 2, Length: 5, Pellets: 1},
	Sniper:  {Name: "SNIPER", FireRate: 40, ReloadTicks: 40, MaxBullets: 6, Speed: 18, Range: 620, Spread: 0.05, Damage: 90, DropOff: 0, MinDamage: 90, Weight: 2.5, Forward: 48, Side: -12, Width: 2, Length: 8, Pellets: 1},
	LMG:     {Name: "LMG", FireRate: 3, ReloadTicks: 120, MaxBullets: 100, Speed: 10, Range: 340, Spread: 0.08, Damage: 38, DropOff: 1, MinDamage: 24, Weight: 3.3, Forward: 42, Side: -12, Width: 2, Length: 5, Pellets: 1},
}

var armorWeights = [armorCount]float64{0, 1.2, 2.2, 3.2}

// Valid reports whether g is a known class
func (g Gun) Valid() bool { return g < gunCount }

// GunFrom converts a wire value to a Gun
func GunFrom(v int) (Gun, bool) {
	if v < 0 || v >= int(gunCount) {
		return Pistol, false
	}
	return Gun(v), true
}

func ArmorFrom(v int) (Armor, bool) {
	if v < 0 || v >= int(armorCount) {
		return ArmorNone, false
	}
	return Armor(v), true
}

func ColorFrom(v int) (Color, bool) {
	if v < 0 || v >= int(colorCount) {
		return Red, false
	}
	return Color(v), true
}

// Stats returns the class parameters; unknown guns fall back to the pistol
func (g Gun) Stats() GunStats {
	if !g.Valid() {
		return gunTable[Pistol]
	}
	return gunTable[g]
}

func (a Armor) Valid() bool { return a < armorCount }

// Weight is the speed penalty of the armor tier
func (a Armor) Weight() float64 {
	if !a.Valid() {
		return 0
	}
	return armorWeights[a]
}

// Capacity is the armor pool granted by the tier
func (a Armor) Capacity() float64 {
	return float64(a) * 30
}

func (c Color) Valid() bool { return c < colorCount }
