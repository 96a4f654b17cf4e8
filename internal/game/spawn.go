package game

import (
	"math/rand/v2"

	"arena-server/internal/entity"
)

const (
	spawnCols           = 4
	spawnRows           = 4
	spawnResolution     = 100
	spawnPadding        = 100
	spawnRadius         = 100
	candidatesPerChunk  = 10
	randomSpawnAttempts = 100
)

type point struct{ X, Y float64 }

type spawnChunk struct {
	minX, maxX float64
	minY, maxY float64
	players    int
	candidates []point
}

func (c *spawnChunk) contains(x, y float64) bool {
	return x >= c.minX && x < c.maxX && y >= c.minY && y < c.maxY
}

func (c *spawnChunk) center() point {
	return point{X: (c.minX + c.maxX) / 2, Y: (c.minY + c.maxY) / 2}
}

// playerLister yields the live players for chunk occupancy counts
type playerLister interface {
	list() []*entity.Player
}

// spawnManager picks spawn points inside the fog square. Area 0 spans the
// whole square; areas 1 and 2 are its west and east halves for team modes.
type spawnManager struct {
	players playerLister
	rng     *rand.Rand
	areas   [3][]*spawnChunk
}

func newSpawnManager(crates *crateManager, players playerLister, rng *rand.Rand, fogSize float64) *spawnManager {
	m := &spawnManager{players: players, rng: rng}
	obstacles := make([]*entity.MapObject, 0, crates.len())
	for _, o := range crates.list() {
		if o.Blocking() {
			obstacles = append(obstacles, o)
		}
	}

	start := ArenaSize/2 - fogSize/2
	m.areas[0] = buildChunks(start, start, fogSize, fogSize, obstacles)
	m.areas[1] = buildChunks(start, start, fogSize/2, fogSize, obstacles)
	m.areas[2] = buildChunks(start+fogSize/2, start, fogSize/2, fogSize, obstacles)
	return m
}

func buildChunks(x, y, w, h float64, obstacles []*entity.MapObject) []*spawnChunk {
	cw, ch := w/spawnCols, h/spawnRows
	chunks := make([]*spawnChunk, 0, spawnCols*spawnRows)
	for row := range spawnRows {
		for col := range spawnCols {
			c := &spawnChunk{
				minX: x + float64(col)*cw,
				maxX: x + float64(col+1)*cw,
				minY: y + float64(row)*ch,
				maxY: y + float64(row+1)*ch,
			}
			c.candidates = sampleChunk(c, obstacles)
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func sampleChunk(c *spawnChunk, obstacles []*entity.MapObject) []point {
	var out []point
	for x := c.minX + spawnPadding; x < c.maxX-spawnPadding; x += spawnResolution {
		for y := c.minY + spawnPadding; y < c.maxY-spawnPadding; y += spawnResolution {
			if len(out) == candidatesPerChunk {
				return out
			}
			if clearOfObstacles(x, y, obstacles) {
				out = append(out, point{x, y})
			}
		}
	}
	return out
}

// clearOfObstacles reports whether (x, y) lies outside every obstacle box
// grown by the spawn radius
func clearOfObstacles(x, y float64, obstacles []*entity.MapObject) bool {
	for _, o := range obstacles {
		halfW := o.Width/2 + spawnRadius
		halfH := o.Height/2 + spawnRadius
		if x >= o.X-halfW && x <= o.X+halfW && y >= o.Y-halfH && y <= o.Y+halfH {
			return false
		}
	}
	return true
}

// pick returns a spawn point in the area of team. The least crowded chunk
// with candidates wins, ties going to the chunk with more candidates.
func (m *spawnManager) pick(team int) point {
	if team < 0 || team >= len(m.areas) {
		team = 0
	}
	chunks := m.areas[team]
	for _, c := range chunks {
		c.players = 0
	}
	for _, p := range m.players.list() {
		if p.AwaitingRespawn {
			continue
		}
		for _, c := range chunks {
			if c.contains(p.X, p.Y) {
				c.players++
				break
			}
		}
	}

	var best *spawnChunk
	for _, c := range chunks {
		if len(c.candidates) == 0 {
			continue
		}
		if best == nil || c.players < best.players ||
			c.players == best.players && len(c.candidates) > len(best.candidates) {
			best = c
		}
	}
	if best == nil {
		return chunks[0].center()
	}
	return best.candidates[m.rng.IntN(len(best.candidates))]
}
