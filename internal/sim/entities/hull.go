package entities

// HullPointCount is the fixed number of points in a generated ship hull
// polygon (spec: 49 points from 6 control points via three quadratic Bézier
// arcs and three linear edges).
const HullPointCount = 49

// hullSegmentCounts gives the number of sampled points contributed by each
// of the six hull segments, in order (arc, edge, arc, edge, arc, edge).
// They sum to HullPointCount.
var hullSegmentCounts = [6]int{9, 7, 9, 7, 9, 8}

// hullCurvature scales how far a Bézier arc's implicit control point bulges
// outward from the straight line between its two endpoints.
const hullCurvature = 0.35

// GenerateHull builds a closed HullPointCount-point polygon in ship-local
// coordinates from 6 control points, alternating three quadratic Bézier
// arcs (rounding the bow/stern/waist) with three linear edges (the
// straight sides). The control points are visited in
// order P0..P5 and back to P0; segments alternate arc, edge, arc, edge,
// arc, edge.
func GenerateHull(control [6]Vec2) []Vec2 {
	points := make([]Vec2, 0, HullPointCount)
	for seg := 0; seg < 6; seg++ {
		start := control[seg]
		end := control[(seg+1)%6]
		count := hullSegmentCounts[seg]
		isArc := seg%2 == 0

		for i := 0; i < count; i++ {
			// t in (0,1], so each segment contributes its end point but not
			// a duplicate of the previous segment's end point.
			t := float64(i+1) / float64(count)
			if isArc {
				points = append(points, quadraticBezier(start, arcControlPoint(start, end), end, t))
			} else {
				points = append(points, start.Lerp(end, t))
			}
		}
	}
	return points
}

// arcControlPoint derives the implicit quadratic Bézier control point for
// an arc between two hull corners: the segment midpoint, bulged outward
// along the perpendicular bisector.
func arcControlPoint(start, end Vec2) Vec2 {
	mid := start.Lerp(end, 0.5)
	edge := end.Sub(start)
	normal := edge.Perp().Normalize()
	return mid.Add(normal.Scale(edge.Length() * hullCurvature))
}

// quadraticBezier evaluates a quadratic Bézier curve with control points
// p0, p1, p2 at parameter t in [0,1].
func quadraticBezier(p0, p1, p2 Vec2, t float64) Vec2 {
	u := 1 - t
	a := p0.Scale(u * u)
	b := p1.Scale(2 * u * t)
	c := p2.Scale(t * t)
	return a.Add(b).Add(c)
}

// PointInPolygon reports whether point p lies inside the closed polygon
// described by vertices, using the ray-casting algorithm; a point exactly on
// an edge may be reported either way. Used for carrier deck-polygon containment checks and
// projectile/hull hit tests.
func PointInPolygon(p Vec2, vertices []Vec2) bool {
	inside := false
	n := len(vertices)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := vertices[i], vertices[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xIntersect := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < xIntersect {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
