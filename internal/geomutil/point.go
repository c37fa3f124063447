// Package geomutil holds the small vector/point primitives shared by every
// geometry producer (aperture, stroke, arctess, region, macro, steprepeat).
package geomutil

import "math"

// Point is a board-space coordinate in millimetres.
type Point struct {
	X, Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Len returns the Euclidean length of p treated as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Len() }

// Equal reports whether p and q are within tol of each other on both axes.
func (p Point) Equal(q Point, tol float64) bool {
	return math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol
}

// Perp returns the vector p rotated +90 degrees: (-y, x).
func (p Point) Perp() Point { return Point{-p.Y, p.X} }

// Unit returns p normalized to unit length, and false if p has ~zero length.
func (p Point) Unit() (Point, bool) {
	l := p.Len()
	if l < 1e-12 {
		return Point{}, false
	}
	return Point{p.X / l, p.Y / l}, true
}

// Rotate rotates p about the origin by theta radians.
func (p Point) Rotate(theta float64) Point {
	s, c := math.Sin(theta), math.Cos(theta)
	return Point{p.X*c - p.Y*s, p.X*s + p.Y*c}
}

// Finite reports whether both components are finite (not NaN/Inf).
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * math.Pi / 180 }

// NormalizeDegrees reduces deg to the half-open range [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
