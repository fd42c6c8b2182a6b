package physics

import (
	"math"

	"github.com/kreid06/pirate-game-4/internal/sim/entities"
)

// Overlap is the result of a Separating-Axis-Theorem test between two
// convex polygons: whether they intersect and, if so, the minimum
// translation vector needed to push the first polygon out of the second.
type Overlap struct {
	Colliding bool
	Normal    entities.Vec2
	Depth     float64
}

// PolygonsOverlap runs the Separating Axis Theorem against two convex
// polygons (e.g. two ship hulls) and reports whether they intersect. Both
// polygons must already be in the same (world) coordinate frame.
func PolygonsOverlap(a, b []entities.Vec2) Overlap {
	minDepth := math.Inf(1)
	var minAxis entities.Vec2

	axes := append(edgeNormals(a), edgeNormals(b)...)
	for _, axis := range axes {
		if axis.LengthSq() == 0 {
			continue
		}
		axis = axis.Normalize()
		aMin, aMax := projectPolygon(a, axis)
		bMin, bMax := projectPolygon(b, axis)

		if aMax < bMin || bMax < aMin {
			return Overlap{Colliding: false}
		}

		depth := math.Min(aMax, bMax) - math.Max(aMin, bMin)
		if depth < minDepth {
			minDepth = depth
			minAxis = axis
		}
	}

	return Overlap{Colliding: true, Normal: minAxis.Normalize(), Depth: minDepth}
}

// edgeNormals returns a normal of every edge in a convex polygon (the edge
// rotated 90° counter-clockwise, not normalized), used as SAT candidate
// separating axes.
func edgeNormals(poly []entities.Vec2) []entities.Vec2 {
	n := len(poly)
	normals := make([]entities.Vec2, 0, n)
	for i := 0; i < n; i++ {
		edge := poly[(i+1)%n].Sub(poly[i])
		normals = append(normals, edge.Perp())
	}
	return normals
}

// projectPolygon projects every vertex of a polygon onto axis and returns
// the [min,max] range of the resulting scalar projections.
func projectPolygon(poly []entities.Vec2, axis entities.Vec2) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, v := range poly {
		p := v.Dot(axis)
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max
}

// CircleOverlapsPolygon reports whether a circle (e.g. a cannonball) is
// touching or inside a convex polygon (e.g. a ship hull), both in world
// coordinates. Used for projectile-hull hits.
func CircleOverlapsPolygon(center entities.Vec2, radius float64, poly []entities.Vec2) bool {
	if entities.PointInPolygon(center, poly) {
		return true
	}
	n := len(poly)
	for i := 0; i < n; i++ {
		if distancePointToSegment(center, poly[i], poly[(i+1)%n]) <= radius {
			return true
		}
	}
	return false
}

// distancePointToSegment returns the shortest distance from p to the
// segment ab.
func distancePointToSegment(p, a, b entities.Vec2) float64 {
	ab := b.Sub(a)
	lengthSq := ab.LengthSq()
	if lengthSq == 0 {
		return p.DistanceTo(a)
	}
	t := p.Sub(a).Dot(ab) / lengthSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Scale(t))
	return p.DistanceTo(closest)
}

// CirclesOverlap reports whether two circles (e.g. two players, or a
// player and a cannonball) intersect, given their centers and radii.
func CirclesOverlap(centerA entities.Vec2, radiusA float64, centerB entities.Vec2, radiusB float64) bool {
	r := radiusA + radiusB
	return centerA.DistanceTo(centerB) <= r
}
