// Package protocol defines the pipe-delimited wire format shared by the
// arena server and its clients: packet codes, field schemas and inbound
// frame decoding.
package protocol

// Inbound packet codes
const (
	InJoin    = "0"
	InMouse   = "m"
	InKey     = "k"
	InChat    = "c"
	InUpgrade = "u"
	InPing    = "."
)

// Outbound packet codes
const (
	OutJoin              = "a"
	OutPlayerUpdate      = "b"
	OutAux               = "c"
	OutActivation        = "d"
	OutUnloadPlayer      = "e"
	OutFirstPerson       = "f"
	OutBulletActivate    = "g"
	OutBulletUpdate      = "h"
	OutBulletDeactivate  = "i"
	OutObject            = "j"
	OutObjectUnload      = "l"
	OutExplosiveActivate = "m"
	OutExploding         = "n"
	OutExplosiveUnload   = "o"
	OutLevel             = "p"
	OutHitMarker         = "q"
	OutOverlay           = "r"
	OutDead              = "s"
	OutRespawn           = "t"
	OutDisconnect        = "u"
	OutLeaderboard       = "v"
	OutError             = "x"
	OutDomSquares        = "sq"
	OutFogSize           = "sz"
	OutKillerInfo        = "sta"
	OutFull              = "full"
	OutGameType          = "gameType"
	OutScoreSquare       = "scoreSquare"
	OutFlagPosition      = "flagPos"
	OutPing              = "."
)

// Overlay message types
const (
	OverlayKiller = 2
	OverlayCustom = 10
)

const (
	RecordSep = '|'
	FieldSep  = ','
)

// Input identifies a key toggled by an inbound key packet
type Input uint8

const (
	InputLeft Input = iota
	InputRight
	InputUp
	InputDown
	InputReload
	InputSpace
	InputMouseDown
	InputChat
	inputCount
)

// Valid reports whether the input index is known
func (in Input) Valid() bool { return in < inputCount }

// InputFrom converts a wire value to an Input, rejecting unknown keys
func InputFrom(v int) (Input, bool) {
	if v < 0 || v >= int(inputCount) {
		return 0, false
	}
	return Input(v), true
}

// IsMovement reports whether the input is a direction key
func (in Input) IsMovement() bool { return in <= InputDown }

// InputSet is a set of held keys
type InputSet uint8

func (s InputSet) Has(in Input) bool { return s&(1<<in) != 0 }
func (s *InputSet) Add(in Input)     { *s |= 1 << in }
func (s *InputSet) Remove(in Input)  { *s &^= 1 << in }
