package spatial

import "math"

// Entity is anything with a position that can be indexed by the grid.
type Entity interface {
	comparable
	Position() (x, y float64)
}

type cellKey struct {
	cx, cy int
}

// Grid is a sparse uniform-cell index for broad-phase proximity queries.
// An entity lives in exactly one cell; callers must call Update after
// moving it or queries will miss it.
type Grid[T Entity] struct {
	cellSize float64
	cells    map[cellKey][]T
	where    map[T]cellKey
}

// NewGrid creates a grid with the given cell size
func NewGrid[T Entity](cellSize float64) *Grid[T] {
	if cellSize <= 0 {
		cellSize = 500
	}
	return &Grid[T]{
		cellSize: cellSize,
		cells:    make(map[cellKey][]T),
		where:    make(map[T]cellKey),
	}
}

func (g *Grid[T]) key(x, y float64) cellKey {
	return cellKey{
		cx: int(math.Floor(x / g.cellSize)),
		cy: int(math.Floor(y / g.cellSize)),
	}
}

// Insert adds the entity at its current position
func (g *Grid[T]) Insert(e T) {
	if _, ok := g.where[e]; ok {
		g.Remove(e)
	}
	k := g.key(e.Position())
	g.cells[k] = append(g.cells[k], e)
	g.where[e] = k
}

// Remove erases the entity from whichever cell holds it
func (g *Grid[T]) Remove(e T) {
	k, ok := g.where[e]
	if !ok {
		return
	}
	delete(g.where, e)
	bucket := g.cells[k]
	for i, other := range bucket {
		if other == e {
			last := len(bucket) - 1
			bucket[i] = bucket[last]
			var zero T
			bucket[last] = zero
			bucket = bucket[:last]
			break
		}
	}
	if len(bucket) == 0 {
		delete(g.cells, k)
		return
	}
	g.cells[k] = bucket
}

// Update re-indexes the entity after it moved from (oldX, oldY).
// It is a no-op when the cell did not change.
func (g *Grid[T]) Update(e T, oldX, oldY float64) {
	x, y := e.Position()
	newKey := g.key(x, y)
	if g.key(oldX, oldY) == newKey {
		if cur, ok := g.where[e]; ok && cur == newKey {
			return
		}
	}
	g.Remove(e)
	g.cells[newKey] = append(g.cells[newKey], e)
	g.where[e] = newKey
}

// Query returns every entity in the cells overlapping the square
// [x-r, x+r] x [y-r, y+r]. The result is over-inclusive; callers
// re-check exact distances.
func (g *Grid[T]) Query(x, y, r float64) []T {
	return g.QueryBuf(x, y, r, nil)
}

// QueryBuf appends results to buf and returns the extended slice
func (g *Grid[T]) QueryBuf(x, y, r float64, buf []T) []T {
	if r < 0 {
		r = 0
	}
	lo := g.key(x-r, y-r)
	hi := g.key(x+r, y+r)
	for cx := lo.cx; cx <= hi.cx; cx++ {
		for cy := lo.cy; cy <= hi.cy; cy++ {
			buf = append(buf, g.cells[cellKey{cx, cy}]...)
		}
	}
	return buf
}

// Contains reports whether the entity is indexed
func (g *Grid[T]) Contains(e T) bool {
	_, ok := g.where[e]
	return ok
}

// Len returns the number of indexed entities
func (g *Grid[T]) Len() int {
	return len(g.where)
}

// Clear drops every entity
func (g *Grid[T]) Clear() {
	g.cells = make(map[cellKey][]T)
	g.where = make(map[T]cellKey)
}
