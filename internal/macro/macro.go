// Package macro evaluates parameterised aperture macro templates (§3, §4.6):
// arithmetic expressions bound to actual parameters, routed to the circle,
// vector-line, center-line, outline, and regular-polygon primitives.
package macro

import (
	"gerbermesh/internal/aperture"
	"gerbermesh/internal/builder"
	"gerbermesh/internal/geomutil"
	"gerbermesh/internal/region"
	"gerbermesh/internal/stroke"
)

// PrimitiveCode identifies an aperture macro primitive by its Gerber code.
type PrimitiveCode int

const (
	PrimCircle       PrimitiveCode = 1
	PrimVectorLine   PrimitiveCode = 20
	PrimCenterLine   PrimitiveCode = 21
	PrimOutline      PrimitiveCode = 4
	PrimRegularPoly  PrimitiveCode = 5
)

// Primitive is one operation in a macro body. Modifiers are parsed
// expressions in the order the Gerber primitive defines them; the first
// modifier is always exposure. Outline's vertex count is evaluated like
// any other modifier and truncated to an integer.
type Primitive struct {
	Code      PrimitiveCode
	Modifiers []Expr
}

// Template is a named, parameterised macro body.
type Template struct {
	Name       string
	Primitives []Primitive
}

// maxExprDepth caps arithmetic expression nesting (§3: "Expression depth
// capped at 20").
const maxExprDepth = 20

// Instantiate evaluates template against actualParams and emits geometry at
// flashPosition, routing each primitive to its backing producer (§4.6).
// unitScale converts the macro's own length-bearing fields (diameters,
// widths, center coordinates) from the defining file's unit to millimetres
// (25.4 for inch files, 1 for mm files); exposure flags, vertex counts, and
// rotations are never scaled.
func Instantiate(b *builder.Builder, template Template, actualParams []float64, flashPosition geomutil.Point, unitScale float64) error {
	for pi, prim := range template.Primitives {
		if err := instantiateOne(b, prim, actualParams, flashPosition, unitScale); err != nil {
			b.Warn("macro %q primitive #%d aborted: %v", template.Name, pi, err)
		}
	}
	return nil
}

func instantiateOne(b *builder.Builder, prim Primitive, params []float64, flashPos geomutil.Point, unitScale float64) error {
	vals := make([]float64, len(prim.Modifiers))
	for i, e := range prim.Modifiers {
		v, err := e.Eval(params, b, 0)
		if err != nil {
			return err
		}
		vals[i] = v
	}

	switch prim.Code {
	case PrimCircle:
		return evalCircle(b, vals, flashPos, unitScale)
	case PrimVectorLine:
		return evalVectorLine(b, vals, flashPos, unitScale)
	case PrimCenterLine:
		return evalCenterLine(b, vals, flashPos, unitScale)
	case PrimOutline:
		return evalOutline(b, vals, flashPos, unitScale)
	case PrimRegularPoly:
		return evalRegularPolygon(b, vals, flashPos, unitScale)
	default:
		b.Warn("unsupported macro primitive code %d", prim.Code)
		return nil
	}
}

// exposureGuard opens/closes a clear range around emission when exposure==0.
func exposureGuard(b *builder.Builder, exposure float64, emit func()) {
	clear := exposure == 0
	if clear {
		b.OpenClearRange()
	}
	emit()
	if clear {
		b.CloseClearRange()
	}
}

// evalCircle: exposure, diameter, cx, cy, [rotation].
func evalCircle(b *builder.Builder, v []float64, flashPos geomutil.Point, unitScale float64) error {
	if len(v) < 4 {
		b.Warn("circle primitive needs at least 4 modifiers, got %d", len(v))
		return nil
	}
	exposure, diameter, cx, cy := v[0], v[1]*unitScale, v[2]*unitScale, v[3]*unitScale
	center := geomutil.Point{X: cx, Y: cy}
	if len(v) >= 5 {
		center = center.Rotate(geomutil.DegToRad(v[4]))
	}
	pos := flashPos.Add(center)
	exposureGuard(b, exposure, func() {
		aperture.Flash(b, aperture.Aperture{Kind: aperture.Circle, Diameter: diameter}, pos, nil)
	})
	return nil
}

// evalVectorLine: exposure, width, startX, startY, endX, endY, rotation.
func evalVectorLine(b *builder.Builder, v []float64, flashPos geomutil.Point, unitScale float64) error {
	if len(v) < 7 {
		b.Warn("vector line primitive needs 7 modifiers, got %d", len(v))
		return nil
	}
	exposure, width := v[0], v[1]*unitScale
	start := geomutil.Point{X: v[2] * unitScale, Y: v[3] * unitScale}
	end := geomutil.Point{X: v[4] * unitScale, Y: v[5] * unitScale}
	rot := geomutil.DegToRad(v[6])
	start = start.Rotate(rot).Add(flashPos)
	end = end.Rotate(rot).Add(flashPos)

	ap := aperture.Aperture{Kind: aperture.Circle, Diameter: width}
	exposureGuard(b, exposure, func() {
		stroke.DrawLinear(b, start, end, ap, nil)
	})
	return nil
}

// evalCenterLine: exposure, width, height, centerX, centerY, rotation.
func evalCenterLine(b *builder.Builder, v []float64, flashPos geomutil.Point, unitScale float64) error {
	if len(v) < 6 {
		b.Warn("center line primitive needs 6 modifiers, got %d", len(v))
		return nil
	}
	exposure, width, height := v[0], v[1]*unitScale, v[2]*unitScale
	center := geomutil.Point{X: v[3] * unitScale, Y: v[4] * unitScale}
	rot := v[5]
	center = center.Rotate(geomutil.DegToRad(rot)).Add(flashPos)

	ap := aperture.Aperture{Kind: aperture.Rectangle, Width: width, Height: height}
	exposureGuard(b, exposure, func() {
		flashRotatedRectangle(b, ap, center, rot)
	})
	return nil
}

func flashRotatedRectangle(b *builder.Builder, ap aperture.Aperture, center geomutil.Point, rotationDeg float64) {
	hw, hh := ap.Width/2, ap.Height/2
	corners := [4]geomutil.Point{
		{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh},
	}
	theta := geomutil.DegToRad(rotationDeg)
	idx := make([]int, 4)
	for i, c := range corners {
		p := center.Add(c.Rotate(theta))
		vi, ok := b.PushVertex(p.X, p.Y)
		if !ok {
			return
		}
		idx[i] = vi
	}
	b.PushQuad(idx[0], idx[1], idx[2], idx[3])
}

// evalOutline: exposure, n, then n+1 (x,y) vertex pairs, then rotation.
func evalOutline(b *builder.Builder, v []float64, flashPos geomutil.Point, unitScale float64) error {
	if len(v) < 2 {
		b.Warn("outline primitive needs exposure and vertex count")
		return nil
	}
	exposure := v[0]
	n := int(v[1])
	need := 2 + 2*(n+1) + 1
	if n < 1 || len(v) < need {
		b.Warn("outline primitive has inconsistent vertex count %d", n)
		return nil
	}
	rot := geomutil.DegToRad(v[len(v)-1])

	pts := make([]geomutil.Point, n+1)
	for i := 0; i <= n; i++ {
		x := v[2+2*i] * unitScale
		y := v[2+2*i+1] * unitScale
		pts[i] = geomutil.Point{X: x, Y: y}.Rotate(rot).Add(flashPos)
	}

	var segs []region.Segment
	for i := 1; i <= n; i++ {
		segs = append(segs, region.Segment{Kind: region.Line, To: pts[i]})
	}

	exposureGuard(b, exposure, func() {
		region.Fill(b, pts[0], segs)
	})
	return nil
}

// evalRegularPolygon: exposure, vertexCount, centerX, centerY, diameter, rotation.
func evalRegularPolygon(b *builder.Builder, v []float64, flashPos geomutil.Point, unitScale float64) error {
	if len(v) < 6 {
		b.Warn("regular polygon primitive needs 6 modifiers, got %d", len(v))
		return nil
	}
	exposure := v[0]
	n := int(v[1])
	diameter := v[4] * unitScale
	rot := v[5]
	center := geomutil.Point{X: v[2] * unitScale, Y: v[3] * unitScale}.Rotate(geomutil.DegToRad(rot)).Add(flashPos)

	ap := aperture.Aperture{Kind: aperture.Polygon, Diameter: diameter, VertexCount: n, RotationDeg: rot}
	exposureGuard(b, exposure, func() {
		aperture.Flash(b, ap, center, nil)
	})
	return nil
}
