package main

import (
	"bufio"
	"fmt"
	"os"

	"gerbermesh"
)

// Point is a 3D vertex, mirroring the teacher tool's flat Point struct.
type Point struct {
	X, Y, Z float64
}

// WriteSTL writes an ASCII STL solid, same format and structure as the
// teacher tool's writer: one "facet normal 0 0 0" per triangle, since we
// don't bother computing real normals (consumers recompute them anyway).
func WriteSTL(filename string, triangles [][3]Point) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	w.WriteString("solid gerbermesh\n")
	for _, t := range triangles {
		w.WriteString("facet normal 0 0 0\n")
		w.WriteString("  outer loop\n")
		for _, p := range t {
			fmt.Fprintf(w, "    vertex %f %f %f\n", p.X, p.Y, p.Z)
		}
		w.WriteString("  endloop\n")
		w.WriteString("endfacet\n")
	}
	w.WriteString("endsolid gerbermesh\n")
	return nil
}

func writeSTL(filename string, triangles [][3]Point) error {
	return WriteSTL(filename, triangles)
}

// extrude lifts a flat triangulated GeometryRecord into a closed 3D solid:
// a copy of every triangle at z=0 (bottom, reversed so its normal faces
// down) and at z=height (top), plus a quad wall along every boundary edge
// (an edge touched by exactly one triangle). Clear ranges are not treated
// as holes here -- polarity-aware solid geometry is a renderer/CAM
// concern outside this tool's scope.
func extrude(rec gerbermesh.GeometryRecord, height float64) [][3]Point {
	vertexAt := func(i uint32) (float64, float64) {
		return float64(rec.Positions[2*i]), float64(rec.Positions[2*i+1])
	}

	var tris [][3]Point
	for t := 0; t+2 < len(rec.Indices); t += 3 {
		i0, i1, i2 := rec.Indices[t], rec.Indices[t+1], rec.Indices[t+2]
		x0, y0 := vertexAt(i0)
		x1, y1 := vertexAt(i1)
		x2, y2 := vertexAt(i2)

		// Top face at z=height, same winding.
		tris = append(tris, [3]Point{{x0, y0, height}, {x1, y1, height}, {x2, y2, height}})
		// Bottom face at z=0, reversed winding so the normal faces outward (down).
		tris = append(tris, [3]Point{{x0, y0, 0}, {x2, y2, 0}, {x1, y1, 0}})
	}

	for _, edge := range boundaryEdges(rec.Indices) {
		ax, ay := vertexAt(edge.a)
		bx, by := vertexAt(edge.b)
		addWallQuad(&tris, Point{ax, ay, 0}, Point{bx, by, 0}, Point{bx, by, height}, Point{ax, ay, height})
	}
	return tris
}

func addWallQuad(tris *[][3]Point, a, b, c, d Point) {
	*tris = append(*tris, [3]Point{a, b, c})
	*tris = append(*tris, [3]Point{c, d, a})
}

type edgeKey struct{ a, b uint32 }

// boundaryEdges finds every edge that appears in exactly one triangle
// (i.e. the silhouette of the triangle soup), counting each undirected
// edge regardless of winding.
func boundaryEdges(indices []uint32) []edgeKey {
	counts := make(map[edgeKey]int)
	orient := make(map[edgeKey]edgeKey) // canonical key -> the edge as first seen, directed
	addEdge := func(u, v uint32) {
		key := edgeKey{u, v}
		if u > v {
			key = edgeKey{v, u}
		}
		if counts[key] == 0 {
			orient[key] = edgeKey{u, v}
		}
		counts[key]++
	}
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		addEdge(i0, i1)
		addEdge(i1, i2)
		addEdge(i2, i0)
	}

	var out []edgeKey
	for key, n := range counts {
		if n == 1 {
			out = append(out, orient[key])
		}
	}
	return out
}
