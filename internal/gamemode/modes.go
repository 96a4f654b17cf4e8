package gamemode

import (
	"math"

	"arena-server/internal/codec"
	"arena-server/internal/entity"
)

func (b *base) forget(p *entity.Player) {
	if p.UID == b.leader {
		b.leader = 0
	}
}

// ffa is free-for-all with the centre score square
type ffa struct {
	base
	square  Square
	enabled bool
}

func newFFA(w World, opts Options) *ffa {
	return &ffa{
		base:    newBase(w, "FFA", 0),
		square:  Square{X: centerSquareMin, Y: centerSquareMin, W: centerSquareMax - centerSquareMin, H: centerSquareMax - centerSquareMin},
		enabled: opts.ScoreSquareEnabled,
	}
}

func (m *ffa) SpawnPlayer(p *entity.Player) {
	p.TeamCode = 0
	m.w.Spawn(p, 0)
}

func (m *ffa) ClosePlayer(p *entity.Player) { m.forget(p) }

// UpdatePlayer awards the centre square; the client draws it natively
func (m *ffa) UpdatePlayer(p *entity.Player) {
	if m.enabled {
		awardSquare(p, m.square, m.w.Tick())
	}
}

// tdm is two-team deathmatch; kills score for the killer's team
type tdm struct {
	base
	kills map[int]int
}

func newTDM(w World) *tdm {
	return &tdm{base: newBase(w, "TDM", 2), kills: map[int]int{}}
}

func (m *tdm) SpawnPlayer(p *entity.Player) {
	if p.TeamCode == 0 {
		m.assignTeam(p)
	}
	m.w.Spawn(p, p.TeamCode)
}

func (m *tdm) ClosePlayer(p *entity.Player) {
	m.releaseTeam(p)
	m.forget(p)
	delete(m.kills, p.UID)
}

// UpdatePlayer credits new kills to the player's team
func (m *tdm) UpdatePlayer(p *entity.Player) {
	if p.Kills > m.kills[p.UID] {
		m.scores[p.TeamCode] += p.Kills - m.kills[p.UID]
	}
	m.kills[p.UID] = p.Kills
}

const (
	domSquareSize = 300
	domInterval   = 25
)

// dom is two-team domination over four squares
type dom struct {
	base
	squares []Square
	dirty   bool
}

func newDOM(w World) *dom {
	lo, hi := ArenaSize/4.0, ArenaSize*3/4.0
	half := domSquareSize / 2.0
	m := &dom{base: newBase(w, "DOM", 2)}
	for _, c := range [][2]float64{{lo, lo}, {hi, lo}, {lo, hi}, {hi, hi}} {
		m.squares = append(m.squares, Square{X: c[0] - half, Y: c[1] - half, W: domSquareSize, H: domSquareSize})
	}
	return m
}

func (m *dom) ScoreSquares() []Square {
	out := make([]Square, len(m.squares))
	copy(out, m.squares)
	return out
}

func (m *dom) JoinPackets() []string { return []string{codec.DomSquares(m.owners())} }

func (m *dom) owners() []int {
	owners := make([]int, len(m.squares))
	for i, sq := range m.squares {
		owners[i] = sq.Team
	}
	return owners
}

func (m *dom) SpawnPlayer(p *entity.Player) {
	if p.TeamCode == 0 {
		m.assignTeam(p)
	}
	m.w.Spawn(p, p.TeamCode)
}

func (m *dom) ClosePlayer(p *entity.Player) {
	m.releaseTeam(p)
	m.forget(p)
}

// UpdatePlayer awards players standing in a square their team holds
func (m *dom) UpdatePlayer(p *entity.Player) {
	for _, sq := range m.squares {
		if sq.Team == p.TeamCode && awardSquare(p, sq, m.w.Tick()) {
			return
		}
	}
}

// Update captures squares held by exactly one team and scores holdings
func (m *dom) Update() {
	for i := range m.squares {
		sq := &m.squares[i]
		present := make([]bool, m.teams+1)
		for _, p := range m.w.Players() {
			if p.Dead || p.AwaitingRespawn || !sq.Contains(p.X, p.Y) {
				continue
			}
			if p.TeamCode > 0 && p.TeamCode <= m.teams {
				present[p.TeamCode] = true
			}
		}
		holder, count := 0, 0
		for t := 1; t <= m.teams; t++ {
			if present[t] {
				holder = t
				count++
			}
		}
		if count == 1 && sq.Team != holder {
			sq.Team = holder
			m.dirty = true
		}
	}

	tick := m.w.Tick()
	if tick%domInterval == 0 {
		for _, sq := range m.squares {
			if sq.Team > 0 {
				m.scores[sq.Team]++
			}
		}
	}
	if m.dirty {
		m.w.Broadcast(codec.DomSquares(m.owners()))
		m.dirty = false
	}
}

const (
	ctfStripWidth = 500
	ctfPickup     = 25
	ctfCapture    = 100
)

type ctfFlag struct {
	obj     *entity.MapObject
	homeX   float64
	homeY   float64
	carrier int
}

// ctf is two-team capture the flag. Each team scores by carrying the
// enemy flag into its own strip.
type ctf struct {
	base
	strips []Square
	flags  []*ctfFlag // index team-1
}

func newCTF(w World) *ctf {
	m := &ctf{base: newBase(w, "CTF", 2)}
	m.strips = []Square{
		{X: 0, Y: 0, W: ctfStripWidth, H: ArenaSize, Team: 1},
		{X: ArenaSize - ctfStripWidth, Y: 0, W: ctfStripWidth, H: ArenaSize, Team: 2},
	}
	for _, s := range m.strips {
		x, y := s.X+s.W/2, s.Y+s.H/2
		m.flags = append(m.flags, &ctfFlag{obj: w.AddFlag(s.Team, x, y), homeX: x, homeY: y})
	}
	return m
}

func (m *ctf) ScoreSquares() []Square {
	out := make([]Square, len(m.strips))
	copy(out, m.strips)
	return out
}

func (m *ctf) JoinPackets() []string {
	var out []string
	for _, f := range m.flags {
		out = append(out, codec.FlagPosition(f.obj))
	}
	return out
}

func (m *ctf) SpawnPlayer(p *entity.Player) {
	if p.TeamCode == 0 {
		m.assignTeam(p)
	}
	m.w.Spawn(p, p.TeamCode)
}

func (m *ctf) ClosePlayer(p *entity.Player) {
	m.drop(p.UID)
	m.releaseTeam(p)
	m.forget(p)
}

func (m *ctf) drop(uid int) {
	for _, f := range m.flags {
		if f.carrier == uid {
			m.reset(f)
		}
	}
}

func (m *ctf) reset(f *ctfFlag) {
	f.carrier = 0
	f.obj.ParentID = 0
	m.w.MoveObject(f.obj, f.homeX, f.homeY)
	m.w.Broadcast(codec.FlagPosition(f.obj))
}

// UpdatePlayer handles pickups and captures for p
func (m *ctf) UpdatePlayer(p *entity.Player) {
	if p.Dead || p.AwaitingRespawn {
		m.drop(p.UID)
		return
	}
	for _, f := range m.flags {
		switch {
		case f.carrier == p.UID:
			m.w.MoveObject(f.obj, p.X, p.Y)
			if m.strips[p.TeamCode-1].Contains(p.X, p.Y) {
				m.scores[p.TeamCode]++
				p.AddScore(ctfCapture)
				m.reset(f)
			}
		case f.carrier == 0 && f.obj.Team != p.TeamCode:
			if math.Hypot(p.X-f.obj.X, p.Y-f.obj.Y) <= p.Radius+ctfPickup {
				f.carrier = p.UID
				f.obj.ParentID = p.UID
			}
		}
	}
}

// Update broadcasts carried flag positions
func (m *ctf) Update() {
	for _, f := range m.flags {
		if f.carrier == 0 {
			continue
		}
		if _, ok := m.w.Player(f.carrier); !ok {
			m.reset(f)
			continue
		}
		m.w.Broadcast(codec.FlagPosition(f.obj))
	}
}
