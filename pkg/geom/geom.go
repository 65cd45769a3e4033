// Package geom provides 2D primitives for the crane's configuration
// plane, where a point's X is the pivot angle in radians and Y is the
// elevator height in meters.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Segment is a bounded line segment from A to B.
type Segment struct {
	A, B r2.Point
}

// Ray starts at Origin and extends infinitely along Dir.
// Dir need not be normalized.
type Ray struct {
	Origin r2.Point
	Dir    r2.Point
}

// NewRay returns a ray from origin toward the direction of the given
// vector. A zero vector yields a degenerate ray that intersects nothing.
func NewRay(origin, dir r2.Point) Ray {
	return Ray{Origin: origin, Dir: dir}
}

const parallelEps = 1e-12

// Intersect returns the point where the ray crosses the segment, if any.
// Collinear overlap is treated as no intersection.
func (s Segment) Intersect(r Ray) (r2.Point, bool) {
	e := s.B.Sub(s.A)
	denom := r.Dir.Cross(e)
	if math.Abs(denom) < parallelEps {
		return r2.Point{}, false
	}
	ao := s.A.Sub(r.Origin)
	t := ao.Cross(e) / denom     // distance along the ray, in units of Dir
	u := ao.Cross(r.Dir) / denom // fraction along the segment
	if t < 0 || u < 0 || u > 1 {
		return r2.Point{}, false
	}
	return r.Origin.Add(r.Dir.Mul(t)), true
}

// Box returns the four segments bounding an axis-aligned rectangle, in
// bottom, right, top, left order.
func Box(min, max r2.Point) []Segment {
	return []Segment{
		{A: r2.Point{X: min.X, Y: min.Y}, B: r2.Point{X: max.X, Y: min.Y}},
		{A: r2.Point{X: max.X, Y: min.Y}, B: r2.Point{X: max.X, Y: max.Y}},
		{A: r2.Point{X: max.X, Y: max.Y}, B: r2.Point{X: min.X, Y: max.Y}},
		{A: r2.Point{X: min.X, Y: max.Y}, B: r2.Point{X: min.X, Y: min.Y}},
	}
}
