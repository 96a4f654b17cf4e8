// Package gamemode implements the pluggable rule sets the tick driver
// consults for spawning, per-player scoring and mode-wide updates.
package gamemode

import (
	"errors"
	"fmt"
	"strings"

	"arena-server/internal/entity"
	"arena-server/internal/protocol"
)

var ErrUnknownMode = errors.New("unknown gamemode")

const (
	ArenaSize        = 7000
	ScoreSquareTicks = 38
	centerSquareMin  = 3400
	centerSquareMax  = 3600
)

// World is the slice of the game a gamemode may touch
type World interface {
	Tick() int
	Players() []*entity.Player
	Player(uid int) (*entity.Player, bool)
	// Spawn places p inside the spawn area of team (0 = whole map)
	Spawn(p *entity.Player, team int)
	Broadcast(packet string)
	AddFlag(team int, x, y float64) *entity.MapObject
	MoveObject(o *entity.MapObject, x, y float64)
}

// Square is an axis-aligned scoring region owned by a team (0 = none)
type Square struct {
	X, Y, W, H float64
	Team       int
}

// Contains reports whether the point lies inside the square
func (s Square) Contains(x, y float64) bool {
	return x >= s.X && x <= s.X+s.W && y >= s.Y && y <= s.Y+s.H
}

// Gamemode is consulted by the tick driver and the join/close flows
type Gamemode interface {
	Name() string
	Teams() int
	ScoreSquares() []Square
	// JoinPackets returns mode state a newly joined client needs
	JoinPackets() []string
	SpawnPlayer(p *entity.Player)
	ClosePlayer(p *entity.Player)
	UpdatePlayer(p *entity.Player)
	Update()
	SetLeader(p *entity.Player)
	TeamScores() []int
}

// Options tune mode behavior from configuration
type Options struct {
	ScoreSquareEnabled bool
}

// New builds the named mode
func New(name string, w World, opts Options) (Gamemode, error) {
	switch strings.ToUpper(name) {
	case "FFA":
		return newFFA(w, opts), nil
	case "TDM":
		return newTDM(w), nil
	case "DOM":
		return newDOM(w), nil
	case "CTF":
		return newCTF(w), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// base holds what every mode shares: the world, the current leader and
// per-team member counts.
type base struct {
	w       World
	name    string
	teams   int
	leader  int
	members []int
	scores  []int
}

func newBase(w World, name string, teams int) base {
	return base{w: w, name: name, teams: teams, members: make([]int, teams+1), scores: make([]int, teams+1)}
}

func (b *base) Name() string                  { return b.name }
func (b *base) Teams() int                    { return b.teams }
func (b *base) ScoreSquares() []Square        { return nil }
func (b *base) JoinPackets() []string         { return nil }
func (b *base) Update()                       {}
func (b *base) UpdatePlayer(p *entity.Player) {}

// TeamScores returns the accumulated score per team, index 0 unused
func (b *base) TeamScores() []int {
	out := make([]int, len(b.scores))
	copy(out, b.scores)
	return out
}

// SetLeader moves the leader crown to p
func (b *base) SetLeader(p *entity.Player) {
	if p == nil || p.UID == b.leader && p.IsLeader {
		return
	}
	if prev, ok := b.w.Player(b.leader); ok && prev != p {
		prev.IsLeader = false
		prev.Fields.Update(entity.Change{
			States: protocol.States(protocol.StateAux),
			Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxIsLeader),
		})
	}
	b.leader = p.UID
	p.IsLeader = true
	p.Fields.Update(entity.Change{
		States: protocol.States(protocol.StateAux),
		Aux:    protocol.Fields(protocol.AuxUID, protocol.AuxIsLeader),
	})
}

// assignTeam puts p on the smallest team
func (b *base) assignTeam(p *entity.Player) {
	team := 1
	for t := 2; t <= b.teams; t++ {
		if b.members[t] < b.members[team] {
			team = t
		}
	}
	p.TeamCode = team
	b.members[team]++
}

func (b *base) releaseTeam(p *entity.Player) {
	if p.TeamCode > 0 && p.TeamCode <= b.teams && b.members[p.TeamCode] > 0 {
		b.members[p.TeamCode]--
	}
}

// awardSquare grants the player's score-square gain at most once every
// ScoreSquareTicks while it stands inside sq.
func awardSquare(p *entity.Player, sq Square, tick int) bool {
	if p.Dead || p.AwaitingRespawn || !sq.Contains(p.X, p.Y) {
		return false
	}
	if tick-p.LastScoreSquareTick < ScoreSquareTicks {
		return false
	}
	p.LastScoreSquareTick = tick
	p.AddScore(p.ScoreSquareGain)
	return true
}
