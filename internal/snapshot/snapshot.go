// Package snapshot holds a transport-neutral copy of the arena state and
// its msgpack encoding, used by the admin endpoints and the tick journal.
package snapshot

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type Player struct {
	UID       int     `msgpack:"uid"`
	Username  string  `msgpack:"name"`
	X         float64 `msgpack:"x"`
	Y         float64 `msgpack:"y"`
	Radius    float64 `msgpack:"r"`
	Angle     float64 `msgpack:"a"`
	HP        float64 `msgpack:"hp"`
	Armor     float64 `msgpack:"armor"`
	Score     int     `msgpack:"score"`
	Kills     int     `msgpack:"kills"`
	Level     int     `msgpack:"level"`
	Gun       int     `msgpack:"gun"`
	Color     int     `msgpack:"color"`
	Team      int     `msgpack:"team"`
	Dead      bool    `msgpack:"dead"`
	Leader    bool    `msgpack:"leader"`
	InFog     bool    `msgpack:"fog"`
}

type Bullet struct {
	UID     int     `msgpack:"uid"`
	OwnerID int     `msgpack:"owner"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	Width   float64 `msgpack:"w"`
	Height  float64 `msgpack:"h"`
	Angle   float64 `msgpack:"a"`
}

type Object struct {
	UID    int     `msgpack:"uid"`
	Kind   int     `msgpack:"kind"`
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Width  float64 `msgpack:"w"`
	Height float64 `msgpack:"h"`
	Angle  float64 `msgpack:"a"`
	HP     float64 `msgpack:"hp,omitempty"`
	Team   int     `msgpack:"team,omitempty"`
}

type Explosive struct {
	UID       int     `msgpack:"uid"`
	Kind      int     `msgpack:"kind"`
	OwnerID   int     `msgpack:"owner"`
	X         float64 `msgpack:"x"`
	Y         float64 `msgpack:"y"`
	Radius    float64 `msgpack:"r"`
	Exploding bool    `msgpack:"exploding"`
}

// State is the full arena at the end of one tick
type State struct {
	Tick       int         `msgpack:"tick"`
	Mode       string      `msgpack:"mode"`
	ArenaSize  float64     `msgpack:"arena"`
	FogSize    float64     `msgpack:"fog"`
	TeamScores []int       `msgpack:"teams,omitempty"`
	Players    []Player    `msgpack:"players"`
	Bullets    []Bullet    `msgpack:"bullets"`
	Objects    []Object    `msgpack:"objects"`
	Explosives []Explosive `msgpack:"explosives"`
}

// Encode serializes s with msgpack
func Encode(s State) ([]byte, error) {
	b, err := msgpack.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

func Decode(b []byte) (State, error) {
	var s State
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
