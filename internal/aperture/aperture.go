// Package aperture expands a standard Gerber aperture (circle, rectangle,
// obround, regular polygon) positioned at a point into triangles in the
// builder. Macro-instance apertures delegate to the macro package through
// the Evaluator hook to avoid a cyclic import.
package aperture

import (
	"math"

	"gerbermesh/internal/builder"
	"gerbermesh/internal/geomutil"
)

// Kind tags the variant held by an Aperture.
type Kind int

const (
	Circle Kind = iota
	Rectangle
	Obround
	Polygon
	MacroInstance
)

// CircleSegments is the fan resolution used to flash a circular aperture.
const CircleSegments = 32

// ObroundCapSegments is the per-cap resolution for an obround's two
// semicircular ends.
const ObroundCapSegments = 16

// Aperture is a tagged variant over the four standard shapes plus a macro
// reference. Only the fields relevant to Kind are meaningful.
type Aperture struct {
	Kind Kind

	Diameter float64 // Circle, Polygon
	Width    float64 // Rectangle, Obround
	Height   float64 // Rectangle, Obround

	VertexCount int     // Polygon: clamped to [3,12]
	RotationDeg float64 // Polygon

	MacroID    string // MacroInstance
	Parameters []float64
}

// BoundingRadius returns the half-width used by the stroke widener to
// determine how far a segment drawn with this aperture should be offset.
// For circular apertures this is the true radius; rectangles and obrounds
// use min(w,h)/2, polygons half their circumscribed diameter, and macro
// instances 0.
func (a Aperture) BoundingRadius() float64 {
	switch a.Kind {
	case Circle:
		return a.Diameter / 2
	case Rectangle, Obround:
		w, h := a.Width, a.Height
		if w > h {
			return h / 2
		}
		return w / 2
	case Polygon:
		return a.Diameter / 2
	default:
		return 0
	}
}

// IsCircular reports whether the aperture should be drawn with round
// endcaps when stroking (§4.3).
func (a Aperture) IsCircular() bool { return a.Kind == Circle }

// MacroEvaluator instantiates a macro-defined aperture. It is supplied by
// the caller (the Gerber interpreter) to break the aperture<->macro import
// cycle: the macro package itself calls back into aperture/stroke/region.
type MacroEvaluator func(b *builder.Builder, macroID string, params []float64, pos geomutil.Point) error

// Flash emits a closed shape for aperture centred at pos. eval is used only
// for MacroInstance apertures and may be nil otherwise.
func Flash(b *builder.Builder, a Aperture, pos geomutil.Point, eval MacroEvaluator) error {
	switch a.Kind {
	case Circle:
		return flashCircle(b, a.Diameter, pos)
	case Rectangle:
		return flashRectangle(b, a.Width, a.Height, pos, 0)
	case Obround:
		return flashObround(b, a, pos)
	case Polygon:
		return flashPolygon(b, a, pos)
	case MacroInstance:
		if eval == nil {
			b.Warn("macro aperture %q flashed with no evaluator bound", a.MacroID)
			return nil
		}
		return eval(b, a.MacroID, a.Parameters, pos)
	default:
		b.Warn("unknown aperture kind flashed, skipping")
		return nil
	}
}

func sanitizeDimension(b *builder.Builder, name string, v float64) (float64, bool) {
	if v < 0 {
		b.Warn("%s dimension %.6g is negative, using absolute value", name, v)
		v = -v
	}
	if v == 0 {
		b.Warn("%s dimension is zero, emitting no geometry", name)
		return 0, false
	}
	return v, true
}

func flashCircle(b *builder.Builder, diameter float64, pos geomutil.Point) error {
	d, ok := sanitizeDimension(b, "circle", diameter)
	if !ok {
		return nil
	}
	_, pushed := b.PushNgon(pos.X, pos.Y, d/2, CircleSegments)
	if !pushed {
		b.Warn("circle flash at (%g, %g) dropped: resource limit or invalid vertex", pos.X, pos.Y)
	}
	return nil
}

func flashRectangle(b *builder.Builder, width, height float64, pos geomutil.Point, rotationDeg float64) error {
	w, wok := sanitizeDimension(b, "rectangle width", width)
	h, hok := sanitizeDimension(b, "rectangle height", height)
	if !wok || !hok {
		return nil
	}
	hw, hh := w/2, h/2
	corners := [4]geomutil.Point{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	}
	theta := geomutil.DegToRad(rotationDeg)
	idx := make([]int, 4)
	for i, c := range corners {
		if rotationDeg != 0 {
			c = c.Rotate(theta)
		}
		p := pos.Add(c)
		vi, ok := b.PushVertex(p.X, p.Y)
		if !ok {
			return nil
		}
		idx[i] = vi
	}
	b.PushQuad(idx[0], idx[1], idx[2], idx[3])
	return nil
}

func flashObround(b *builder.Builder, a Aperture, pos geomutil.Point) error {
	if a.Width == a.Height {
		return flashCircle(b, a.Width, pos)
	}
	w, wok := sanitizeDimension(b, "obround width", a.Width)
	h, hok := sanitizeDimension(b, "obround height", a.Height)
	if !wok || !hok {
		return nil
	}

	horizontal := w > h
	var bodyW, bodyH, capRadius float64
	if horizontal {
		capRadius = h / 2
		bodyW = w - h
		bodyH = h
	} else {
		capRadius = w / 2
		bodyW = w
		bodyH = h - w
	}

	if bodyW > 0 && bodyH > 0 {
		if err := flashRectangle(b, bodyW, bodyH, pos, 0); err != nil {
			return err
		}
	}

	var cap1, cap2, outward1, outward2 geomutil.Point
	if horizontal {
		off := bodyW / 2
		cap1 = geomutil.Point{X: pos.X - off, Y: pos.Y}
		cap2 = geomutil.Point{X: pos.X + off, Y: pos.Y}
		outward1, outward2 = geomutil.Point{X: -1}, geomutil.Point{X: 1}
	} else {
		off := bodyH / 2
		cap1 = geomutil.Point{X: pos.X, Y: pos.Y - off}
		cap2 = geomutil.Point{X: pos.X, Y: pos.Y + off}
		outward1, outward2 = geomutil.Point{Y: -1}, geomutil.Point{Y: 1}
	}
	pushSemicircleCap(b, cap1, outward1, capRadius)
	pushSemicircleCap(b, cap2, outward2, capRadius)
	return nil
}

// pushSemicircleCap emits a half-disc of ObroundCapSegments chords centred
// at centre, bulging away from the body in the outward direction (§4.2:
// "two N=16 semicircle caps").
func pushSemicircleCap(b *builder.Builder, centre, outward geomutil.Point, radius float64) {
	baseAngle := math.Atan2(outward.Y, outward.X)
	center, ok := b.PushVertex(centre.X, centre.Y)
	if !ok {
		return
	}
	rim := make([]int, ObroundCapSegments+1)
	for i := 0; i <= ObroundCapSegments; i++ {
		theta := baseAngle - math.Pi/2 + math.Pi*float64(i)/float64(ObroundCapSegments)
		vx := centre.X + radius*math.Cos(theta)
		vy := centre.Y + radius*math.Sin(theta)
		vi, vok := b.PushVertex(vx, vy)
		if !vok {
			return
		}
		rim[i] = vi
	}
	for i := 0; i < ObroundCapSegments; i++ {
		b.PushTriangle(center, rim[i], rim[i+1])
	}
}

func flashPolygon(b *builder.Builder, a Aperture, pos geomutil.Point) error {
	d, ok := sanitizeDimension(b, "polygon", a.Diameter)
	if !ok {
		return nil
	}
	n := a.VertexCount
	if n < 3 || n > 12 {
		clamped := n
		if clamped < 3 {
			clamped = 3
		}
		if clamped > 12 {
			clamped = 12
		}
		b.Warn("polygon aperture vertex count %d clamped to %d", n, clamped)
		n = clamped
	}
	rot := geomutil.NormalizeDegrees(a.RotationDeg)
	radius := d / 2
	theta0 := geomutil.DegToRad(rot)

	center, ok := b.PushVertex(pos.X, pos.Y)
	if !ok {
		return nil
	}
	perimeter := make([]int, n)
	for i := 0; i < n; i++ {
		theta := theta0 + 2*math.Pi*float64(i)/float64(n)
		vx := pos.X + radius*math.Cos(theta)
		vy := pos.Y + radius*math.Sin(theta)
		vi, vok := b.PushVertex(vx, vy)
		if !vok {
			return nil
		}
		perimeter[i] = vi
	}
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		b.PushTriangle(center, perimeter[i], perimeter[j])
	}
	return nil
}
