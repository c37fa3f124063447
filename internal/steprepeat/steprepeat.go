// Package steprepeat implements Gerber SR block expansion: capture a
// geometry range, then duplicate it on an n x m grid at a given pitch,
// per spec §4.7.
package steprepeat

import "gerbermesh/internal/builder"

// Mark captures the vertex/index counts at SR block entry.
type Mark struct {
	startVertex int
	startIndex  int
}

// Begin records the current extent of b, to be passed to End once the
// block body has been interpreted.
func Begin(b *builder.Builder) Mark {
	return Mark{startVertex: b.VertexCount(), startIndex: b.IndexCount()}
}

// End duplicates everything emitted since mark onto an nx*ny grid spaced
// stepX/stepY apart, skipping the (0,0) copy (the body's own emission
// already serves as that copy). Nested SR blocks are expected to have
// already been flattened by the time End is called for the outer block,
// since the interpreter processes them in natural (inner-first) order.
func End(b *builder.Builder, mark Mark, nx, ny int, stepX, stepY float64) {
	if nx <= 0 || ny <= 0 {
		b.Warn("step-repeat block has zero-sized grid (%dx%d), emitting nothing", nx, ny)
		return
	}

	endVertex := b.VertexCount()
	endIndex := b.IndexCount()
	vertexSpan := endVertex - mark.startVertex
	indexSpan := endIndex - mark.startIndex
	if vertexSpan == 0 || indexSpan == 0 {
		return
	}

	positions := b.SnapshotPositions(mark.startVertex, endVertex)
	indices := b.SnapshotIndices(mark.startIndex, endIndex)

	// Row-major (i,j): j major, i minor (§5).
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			if i == 0 && j == 0 {
				continue
			}
			dx := float64(i) * stepX
			dy := float64(j) * stepY

			base := b.VertexCount()
			for k := 0; k+1 < len(positions); k += 2 {
				b.PushVertex(positions[k]+dx, positions[k+1]+dy)
			}
			offset := base - mark.startVertex
			for k := 0; k+2 < len(indices); k += 3 {
				b.PushTriangle(indices[k]+offset, indices[k+1]+offset, indices[k+2]+offset)
			}
		}
	}
}
