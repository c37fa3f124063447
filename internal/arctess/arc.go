// Package arctess tessellates multi-quadrant Gerber arcs into chord
// segments and widens each chord with the stroke package, per spec §4.4.
package arctess

import (
	"math"

	"gerbermesh/internal/aperture"
	"gerbermesh/internal/builder"
	"gerbermesh/internal/geomutil"
	"gerbermesh/internal/stroke"
)

// Direction is the arc winding direction.
type Direction int

const (
	CW Direction = iota
	CCW
)

// MaxChordLength is the maximum straight-segment length used to approximate
// an arc, in millimetres (§9: "sub-pixel error at 100x zoom on a 1000-pixel
// viewport of a 50mm board"). A design-time constant, never user-supplied.
const MaxChordLength = 0.02

// MinSegments is the minimum number of chords used for any non-degenerate
// arc, regardless of how small the sweep is.
const MinSegments = 8

// Sample returns N+1 points along the arc from `from` to `to`, centred at
// from+centerOffset, swept in the given direction. It returns ok=false for
// degenerate arcs (zero radius, or zero offset with from==to), in which
// case the caller should warn and skip.
func Sample(from, to, centerOffset geomutil.Point, dir Direction) (points []geomutil.Point, ok bool, radiusMismatch bool) {
	center := from.Add(centerOffset)
	r0 := from.Dist(center)
	r1 := to.Dist(center)

	if r0 < 1e-9 {
		return nil, false, false
	}

	fullCircle := from.Equal(to, 1e-9) && !centerOffset.Equal(geomutil.Point{}, 1e-12)

	r := r0
	mismatch := false
	tol := math.Max(1e-6, 0.001*r0)
	if !fullCircle && math.Abs(r1-r0) > tol {
		mismatch = true
		r = (r0 + r1) / 2
	}

	theta0 := math.Atan2(from.Y-center.Y, from.X-center.X)
	var sweep float64
	if fullCircle {
		if dir == CCW {
			sweep = 2 * math.Pi
		} else {
			sweep = -2 * math.Pi
		}
	} else {
		theta1 := math.Atan2(to.Y-center.Y, to.X-center.X)
		d := theta1 - theta0
		if dir == CCW {
			if d < 0 {
				d += 2 * math.Pi
			}
			sweep = d
		} else {
			if d > 0 {
				d -= 2 * math.Pi
			}
			sweep = d
		}
	}

	n := MinSegments
	if want := int(math.Ceil(math.Abs(sweep) * r / MaxChordLength)); want > n {
		n = want
	}

	pts := make([]geomutil.Point, n+1)
	for i := 0; i <= n; i++ {
		theta := theta0 + sweep*float64(i)/float64(n)
		pts[i] = geomutil.Point{
			X: center.X + r*math.Cos(theta),
			Y: center.Y + r*math.Sin(theta),
		}
	}
	// Snap endpoints to the caller-supplied from/to exactly so downstream
	// consumers (region boundary stitching) see no floating drift.
	pts[0] = from
	if !fullCircle {
		pts[n] = to
	}
	return pts, true, mismatch
}

// DrawArc tessellates the arc and widens each chord with aperture ap.
func DrawArc(b *builder.Builder, from, to, centerOffset geomutil.Point, dir Direction, ap aperture.Aperture, eval aperture.MacroEvaluator) error {
	pts, ok, mismatch := Sample(from, to, centerOffset, dir)
	if !ok {
		b.Warn("degenerate arc (zero radius), skipping")
		return nil
	}
	if mismatch {
		b.Warn("arc endpoint radius mismatch, averaging radii")
	}
	for i := 0; i+1 < len(pts); i++ {
		if err := stroke.DrawLinear(b, pts[i], pts[i+1], ap, eval); err != nil {
			return err
		}
	}
	return nil
}
