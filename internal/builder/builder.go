// Package builder implements the append-only geometry accumulator shared by
// every producer in the pipeline: vertices, triangle indices, the running
// bounding box, warnings, and clear-polarity ranges. It is the one place
// that owns a mutable cursor; everything upstream of it is read-only.
package builder

import (
	"fmt"
	"math"

	"gerbermesh/internal/geomutil"
)

// MaxTriangles bounds the per-invocation output. It exists so a pathological
// or adversarial input cannot run the process out of memory (§5 resource
// model); it is a design-time constant, never a caller-supplied parameter.
const MaxTriangles = 10_000_000

// Bounds is an axis-aligned bounding box in millimetres.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// ClearRange identifies a contiguous run of triangle indices drawn under
// clear polarity. FirstIndex and IndexCount are measured in indices (not
// triangles), matching GeometryRecord.Indices.
type ClearRange struct {
	FirstIndex int
	IndexCount int
}

// Record is the final, caller-owned output of a single parse.
type Record struct {
	Positions     []float32
	Indices       []uint32
	Bounds        Bounds
	CommandCount  uint32
	VertexCount   uint32
	IndexCount    uint32
	WarningCount  uint32
	Warnings      []string
	ClearRanges   []ClearRange
}

// Builder accumulates geometry for a single parse invocation. It is not
// safe for concurrent use; each entry-façade call constructs its own.
type Builder struct {
	positions []float64 // interleaved x,y pairs, float64 until finish()
	indices   []uint32

	haveBounds bool
	bounds     Bounds

	warnings []string

	commandCount uint32

	clearStart   int  // index count at most recent open; meaningful only while clearOpen
	clearOpen    bool
	clearRanges  []ClearRange

	limitHit bool
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{
		positions: make([]float64, 0, 1024),
		indices:   make([]uint32, 0, 1536),
	}
}

// IncrementCommandCount records that one more Gerber/Excellon command was
// processed, regardless of whether it produced geometry.
func (b *Builder) IncrementCommandCount() { b.commandCount++ }

// Warn appends a human-readable warning message.
func (b *Builder) Warn(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

// VertexCount returns the number of vertices pushed so far.
func (b *Builder) VertexCount() int { return len(b.positions) / 2 }

// IndexCount returns the number of indices pushed so far.
func (b *Builder) IndexCount() int { return len(b.indices) }

// TriangleCount returns the number of triangles pushed so far.
func (b *Builder) TriangleCount() int { return len(b.indices) / 3 }

// LimitReached reports whether the triangle cap has already stopped
// accepting geometry.
func (b *Builder) LimitReached() bool { return b.limitHit }

// PushVertex appends one vertex and returns its index. Non-finite
// coordinates are rejected: a warning is recorded and the sentinel index
// 0 is returned together with ok=false; callers must not use the result.
func (b *Builder) PushVertex(x, y float64) (index int, ok bool) {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		b.Warn("rejected non-finite vertex (%g, %g)", x, y)
		return 0, false
	}
	idx := len(b.positions) / 2
	b.positions = append(b.positions, x, y)
	b.updateBounds(x, y)
	return idx, true
}

func (b *Builder) updateBounds(x, y float64) {
	if !b.haveBounds {
		b.bounds = Bounds{MinX: x, MinY: y, MaxX: x, MaxY: y}
		b.haveBounds = true
		return
	}
	if x < b.bounds.MinX {
		b.bounds.MinX = x
	}
	if y < b.bounds.MinY {
		b.bounds.MinY = y
	}
	if x > b.bounds.MaxX {
		b.bounds.MaxX = x
	}
	if y > b.bounds.MaxY {
		b.bounds.MaxY = y
	}
}

// PushTriangle appends one triangle referencing three existing vertex
// indices. Indices beyond 2^31-1 or beyond the triangle cap are refused.
func (b *Builder) PushTriangle(i0, i1, i2 int) bool {
	if b.limitHit {
		return false
	}
	if !b.validIndex(i0) || !b.validIndex(i1) || !b.validIndex(i2) {
		b.Warn("dropped triangle referencing out-of-range vertex index")
		return false
	}
	if b.TriangleCount()+1 > MaxTriangles {
		b.limitHit = true
		b.Warn("resource limit: reached %d triangles, remainder of file ignored", MaxTriangles)
		return false
	}
	b.indices = append(b.indices, uint32(i0), uint32(i1), uint32(i2))
	return true
}

func (b *Builder) validIndex(i int) bool {
	return i >= 0 && i < len(b.positions)/2 && i < math.MaxInt32
}

// PushQuad appends two triangles (i0,i1,i2) and (i0,i2,i3), matching the
// winding convention documented in §4.1.
func (b *Builder) PushQuad(i0, i1, i2, i3 int) bool {
	ok1 := b.PushTriangle(i0, i1, i2)
	ok2 := b.PushTriangle(i0, i2, i3)
	return ok1 && ok2
}

// PushNgon emits a centre vertex plus `segments` perimeter vertices evenly
// spaced around (cx,cy) starting at angle 0, and a fan of `segments`
// triangles. Returns the index of the centre vertex.
func (b *Builder) PushNgon(cx, cy, radius float64, segments int) (firstIndex int, ok bool) {
	if segments < 3 {
		b.Warn("push_ngon: segment count %d clamped to 3", segments)
		segments = 3
	}
	center, ok := b.PushVertex(cx, cy)
	if !ok {
		return 0, false
	}
	perimeter := make([]int, segments)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		vx := cx + radius*math.Cos(theta)
		vy := cy + radius*math.Sin(theta)
		idx, vok := b.PushVertex(vx, vy)
		if !vok {
			return center, false
		}
		perimeter[i] = idx
	}
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		b.PushTriangle(center, perimeter[i], perimeter[j])
	}
	return center, true
}

// OpenClearRange marks the current index count as the start of a clear-
// polarity run. Nested/duplicate opens are idempotent: the start does not
// move until a matching Close.
func (b *Builder) OpenClearRange() {
	if b.clearOpen {
		return
	}
	b.clearOpen = true
	b.clearStart = len(b.indices)
}

// CloseClearRange closes the currently open clear range, if any, recording
// its [start, len) extent. Calling Close without a matching Open is a no-op.
func (b *Builder) CloseClearRange() {
	if !b.clearOpen {
		return
	}
	b.clearOpen = false
	length := len(b.indices) - b.clearStart
	if length > 0 {
		b.clearRanges = append(b.clearRanges, ClearRange{FirstIndex: b.clearStart, IndexCount: length})
	}
}

// Finish closes any still-open clear range, coalesces overlapping/zero-
// length ranges, narrows positions to float32, and returns the owned
// Record. The Builder must not be reused afterwards.
func (b *Builder) Finish() Record {
	if b.clearOpen {
		b.CloseClearRange()
	}

	bounds := b.bounds
	if !b.haveBounds {
		bounds = Bounds{}
	}

	positions := make([]float32, len(b.positions))
	for i, v := range b.positions {
		positions[i] = float32(v)
	}

	return Record{
		Positions:    positions,
		Indices:      append([]uint32(nil), b.indices...),
		Bounds:       bounds,
		CommandCount: b.commandCount,
		VertexCount:  uint32(len(positions) / 2),
		IndexCount:   uint32(len(b.indices)),
		WarningCount: uint32(len(b.warnings)),
		Warnings:     append([]string(nil), b.warnings...),
		ClearRanges:  coalesceRanges(b.clearRanges),
	}
}

func coalesceRanges(ranges []ClearRange) []ClearRange {
	var kept []ClearRange
	for _, r := range ranges {
		if r.IndexCount <= 0 {
			continue
		}
		if n := len(kept); n > 0 {
			last := &kept[n-1]
			if r.FirstIndex <= last.FirstIndex+last.IndexCount {
				end := r.FirstIndex + r.IndexCount
				lastEnd := last.FirstIndex + last.IndexCount
				if end > lastEnd {
					last.IndexCount = end - last.FirstIndex
				}
				continue
			}
		}
		kept = append(kept, r)
	}
	return kept
}

// Point is re-exported for producer packages that want it without importing
// geomutil directly from call sites that already hold a builder.Bounds.
type Point = geomutil.Point

// SnapshotPositions returns a copy of the interleaved x,y values for
// vertices [fromVertex, toVertex), used by the step-repeat expander to
// capture a range for later duplication.
func (b *Builder) SnapshotPositions(fromVertex, toVertex int) []float64 {
	lo, hi := fromVertex*2, toVertex*2
	out := make([]float64, hi-lo)
	copy(out, b.positions[lo:hi])
	return out
}

// SnapshotIndices returns a copy of the triangle indices [fromIndex,
// toIndex), relative to nothing in particular (callers offset them
// themselves), used by the step-repeat expander.
func (b *Builder) SnapshotIndices(fromIndex, toIndex int) []int {
	out := make([]int, toIndex-fromIndex)
	for i, v := range b.indices[fromIndex:toIndex] {
		out[i] = int(v)
	}
	return out
}
