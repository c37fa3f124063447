// Package stroke widens a straight segment drawn with an aperture into a
// quad plus optional round endcaps, per spec §4.3.
package stroke

import (
	"math"

	"gerbermesh/internal/aperture"
	"gerbermesh/internal/builder"
	"gerbermesh/internal/geomutil"
)

// CapSegments is the per-endcap resolution for circular apertures.
const CapSegments = 16

// DrawLinear emits the swept region of ap translated along from->to.
func DrawLinear(b *builder.Builder, from, to geomutil.Point, ap aperture.Aperture, eval aperture.MacroEvaluator) error {
	h := ap.BoundingRadius()

	if from.Equal(to, 1e-9) {
		if ap.IsCircular() {
			return aperture.Flash(b, ap, from, eval)
		}
		b.Warn("zero-length stroke with non-circular aperture, skipping")
		return nil
	}

	if h <= 0 {
		b.Warn("stroke aperture has zero bounding radius, skipping")
		return nil
	}

	dir := to.Sub(from)
	unit, ok := dir.Unit()
	if !ok {
		b.Warn("degenerate stroke direction, skipping")
		return nil
	}
	n := unit.Perp()
	offset := n.Scale(h)

	p0 := from.Add(offset)
	p1 := to.Add(offset)
	p2 := to.Sub(offset)
	p3 := from.Sub(offset)

	i0, ok0 := b.PushVertex(p0.X, p0.Y)
	i1, ok1 := b.PushVertex(p1.X, p1.Y)
	i2, ok2 := b.PushVertex(p2.X, p2.Y)
	i3, ok3 := b.PushVertex(p3.X, p3.Y)
	if !(ok0 && ok1 && ok2 && ok3) {
		return nil
	}
	b.PushQuad(i0, i1, i2, i3)

	if ap.IsCircular() {
		pushSemicircleCap(b, from, unit.Scale(-1), h)
		pushSemicircleCap(b, to, unit, h)
	}
	return nil
}

// pushSemicircleCap emits a half-disc centred at centre, whose flat edge is
// perpendicular to outward and which bulges in the outward direction,
// approximating a round endcap.
func pushSemicircleCap(b *builder.Builder, centre, outward geomutil.Point, radius float64) {
	baseAngle := math.Atan2(outward.Y, outward.X)
	center, ok := b.PushVertex(centre.X, centre.Y)
	if !ok {
		return
	}
	rim := make([]int, CapSegments+1)
	for i := 0; i <= CapSegments; i++ {
		theta := baseAngle - math.Pi/2 + math.Pi*float64(i)/float64(CapSegments)
		vx := centre.X + radius*math.Cos(theta)
		vy := centre.Y + radius*math.Sin(theta)
		vi, vok := b.PushVertex(vx, vy)
		if !vok {
			return
		}
		rim[i] = vi
	}
	for i := 0; i < CapSegments; i++ {
		b.PushTriangle(center, rim[i], rim[i+1])
	}
}
