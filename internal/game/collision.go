package game

import (
	"math"

	"arena-server/internal/entity"
)

// circlesOverlap checks if two circles strictly overlap
func circlesOverlap(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	radSum := r1 + r2
	return dx*dx+dy*dy < radSum*radSum
}

// rectsOverlap tests two axis-aligned boxes given by top-left corner and size
func rectsOverlap(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
	return ax < bx+bw && ax+aw > bx && ay < by+bh && ay+ah > by
}

// rectCircle tests a top-left anchored box against a circle. Touching counts.
func rectCircle(rx, ry, rw, rh, cx, cy, cr float64) bool {
	closestX := math.Max(rx, math.Min(cx, rx+rw))
	closestY := math.Max(ry, math.Min(cy, ry+rh))
	dx := cx - closestX
	dy := cy - closestY
	return dx*dx+dy*dy <= cr*cr
}

// circleHitsObject tests a circle against a centered object box. Touching
// does not count, so a player can slide along a crate face.
func circleHitsObject(cx, cy, r float64, o *entity.MapObject) bool {
	l, t, right, bottom := o.Bounds()
	closestX := math.Max(l, math.Min(cx, right))
	closestY := math.Max(t, math.Min(cy, bottom))
	dx := cx - closestX
	dy := cy - closestY
	return dx*dx+dy*dy < r*r
}

func collidesAny(x, y, r float64, crates []*entity.MapObject) bool {
	for _, c := range crates {
		if circleHitsObject(x, y, r, c) {
			return true
		}
	}
	return false
}

// rotate returns (x, y) rotated by rad around (cx, cy)
func rotate(x, y, cx, cy, rad float64) (float64, float64) {
	cosR := math.Cos(rad)
	sinR := math.Sin(rad)
	rx := x - cx
	ry := y - cy
	return cx + rx*cosR - ry*sinR, cy + rx*sinR + ry*cosR
}

// rectHitsShield tests a top-left anchored box against a shield rotated
// by its angle around its center. Either a box corner lies inside the
// shield or a shield corner lies inside the box.
func rectHitsShield(bx, by, bw, bh float64, shield *entity.MapObject) bool {
	rad := shield.Angle * math.Pi / 180
	halfW, halfH := shield.Width/2, shield.Height/2

	corners := [4][2]float64{{bx, by}, {bx + bw, by}, {bx + bw, by + bh}, {bx, by + bh}}
	for _, c := range corners {
		lx, ly := rotate(c[0], c[1], shield.X, shield.Y, -rad)
		if math.Abs(lx-shield.X) <= halfW && math.Abs(ly-shield.Y) <= halfH {
			return true
		}
	}

	l, t, r, b := shield.Bounds()
	for _, c := range [4][2]float64{{l, t}, {r, t}, {r, b}, {l, b}} {
		x, y := rotate(c[0], c[1], shield.X, shield.Y, rad)
		if x >= bx && x <= bx+bw && y >= by && y <= by+bh {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
