// Package region triangulates a closed polygon boundary (possibly
// containing arc segments) via ear-clipping, per spec §4.5.
package region

import (
	"math"

	"gerbermesh/internal/arctess"
	"gerbermesh/internal/builder"
	"gerbermesh/internal/geomutil"
)

// SegmentKind distinguishes a straight boundary segment from an arc one.
type SegmentKind int

const (
	Line SegmentKind = iota
	Arc
)

// Segment is one edge of a region boundary, expressed relative to the
// region's running current point: From is implicit (the previous
// segment's To, or the region's start point for the first segment).
type Segment struct {
	Kind SegmentKind
	To   geomutil.Point

	// Arc-only fields, meaningful when Kind == Arc.
	CenterOffset geomutil.Point
	Direction    arctess.Direction
}

// areaTolerance is applied relative to the polygon's bounding-box area to
// decide whether a polygon is degenerately collinear (§4.5 step 5).
const areaTolerance = 1e-9

// Fill flattens boundary (starting from start), deduplicates, auto-closes,
// and triangulates it by ear-clipping. Triangles are pushed into b.
func Fill(b *builder.Builder, start geomutil.Point, boundary []Segment) error {
	verts := flatten(start, boundary)
	verts = dedupe(verts)
	verts = autoClose(verts)

	if len(verts) < 4 { // closed ring needs >=3 distinct + repeated first
		b.Warn("region has fewer than three distinct vertices, skipping")
		return nil
	}
	// Drop the repeated closing vertex; ear-clipping works on an open ring.
	ring := verts[:len(verts)-1]

	area := signedArea(ring)
	bbArea := bboxArea(ring)
	if math.Abs(area) <= areaTolerance*math.Max(bbArea, 1) {
		b.Warn("region is degenerate (zero area), skipping")
		return nil
	}
	if area < 0 {
		reverse(ring)
	}

	return earClip(b, ring)
}

func flatten(start geomutil.Point, boundary []Segment) []geomutil.Point {
	pts := []geomutil.Point{start}
	cur := start
	for _, seg := range boundary {
		switch seg.Kind {
		case Line:
			pts = append(pts, seg.To)
			cur = seg.To
		case Arc:
			sampled, ok, _ := arctess.Sample(cur, seg.To, seg.CenterOffset, seg.Direction)
			if ok {
				pts = append(pts, sampled[1:]...)
			} else {
				pts = append(pts, seg.To)
			}
			cur = seg.To
		}
	}
	return pts
}

func dedupe(pts []geomutil.Point) []geomutil.Point {
	if len(pts) == 0 {
		return pts
	}
	out := pts[:1]
	for _, p := range pts[1:] {
		if !p.Equal(out[len(out)-1], 1e-9) {
			out = append(out, p)
		}
	}
	return out
}

func autoClose(pts []geomutil.Point) []geomutil.Point {
	if len(pts) == 0 {
		return pts
	}
	if !pts[0].Equal(pts[len(pts)-1], 1e-9) {
		pts = append(pts, pts[0])
	}
	return pts
}

func signedArea(ring []geomutil.Point) float64 {
	sum := 0.0
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += ring[i].X*ring[j].Y - ring[j].X*ring[i].Y
	}
	return sum / 2
}

func bboxArea(ring []geomutil.Point) float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range ring {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return (maxX - minX) * (maxY - minY)
}

func reverse(ring []geomutil.Point) {
	for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
		ring[i], ring[j] = ring[j], ring[i]
	}
}

// earClip triangulates a CCW simple polygon in place, emitting triangles
// into b. Degenerate/self-intersecting input that stalls (no ear found in
// a full pass) is emitted as a best-effort triangle fan with a warning, per
// §4.5.
func earClip(b *builder.Builder, ring []geomutil.Point) error {
	n := len(ring)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	// Push all vertices once; triangles reference these indices.
	vIdx := make([]int, n)
	for i, p := range ring {
		vi, ok := b.PushVertex(p.X, p.Y)
		if !ok {
			return nil
		}
		vIdx[i] = vi
	}

	remaining := append([]int(nil), idx...)

	for len(remaining) > 3 {
		best := -1
		bestAngle := math.Inf(1)

		for k := 0; k < len(remaining); k++ {
			a := remaining[(k-1+len(remaining))%len(remaining)]
			bI := remaining[k]
			c := remaining[(k+1)%len(remaining)]

			if !isConvex(ring[a], ring[bI], ring[c]) {
				continue
			}
			if containsAnyOther(ring, remaining, a, bI, c) {
				continue
			}
			angle := interiorAngle(ring[a], ring[bI], ring[c])
			if angle < bestAngle {
				bestAngle = angle
				best = k
			}
		}

		if best == -1 {
			break
		}

		a := remaining[(best-1+len(remaining))%len(remaining)]
		bI := remaining[best]
		c := remaining[(best+1)%len(remaining)]
		b.PushTriangle(vIdx[a], vIdx[bI], vIdx[c])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	if len(remaining) == 3 {
		b.PushTriangle(vIdx[remaining[0]], vIdx[remaining[1]], vIdx[remaining[2]])
		return nil
	}

	if len(remaining) > 3 {
		b.Warn("region triangulation stalled on a twisted/self-intersecting polygon, falling back to a triangle fan")
		for k := 1; k+1 < len(remaining); k++ {
			b.PushTriangle(vIdx[remaining[0]], vIdx[remaining[k]], vIdx[remaining[k+1]])
		}
	}
	return nil
}

func isConvex(a, bb, c geomutil.Point) bool {
	return cross(bb.Sub(a), c.Sub(bb)) > 1e-12
}

func cross(u, v geomutil.Point) float64 { return u.X*v.Y - u.Y*v.X }

func containsAnyOther(ring []geomutil.Point, remaining []int, a, bI, c int) bool {
	for _, p := range remaining {
		if p == a || p == bI || p == c {
			continue
		}
		if pointInTriangle(ring[p], ring[a], ring[bI], ring[c]) {
			return true
		}
	}
	return false
}

func pointInTriangle(p, a, b, c geomutil.Point) bool {
	d1 := cross(b.Sub(a), p.Sub(a))
	d2 := cross(c.Sub(b), p.Sub(b))
	d3 := cross(a.Sub(c), p.Sub(c))
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func interiorAngle(a, bb, c geomutil.Point) float64 {
	u := a.Sub(bb)
	v := c.Sub(bb)
	ul, _ := u.Unit()
	vl, _ := v.Unit()
	dot := ul.X*vl.X + ul.Y*vl.Y
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	return math.Acos(dot)
}
