package main

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"gerbermesh"
)

// previewDPI controls the raster resolution of the debug preview, the same
// knob the teacher tool exposed as a package constant rather than a flag.
const previewDPI = 400.0
const previewPixelToMM = 25.4 / previewDPI

// writePreviewPNG rasterizes every triangle in rec onto a white canvas,
// purely for eyeballing the parse result; it is not part of the mesh
// pipeline and carries no polarity/clear-range semantics.
func writePreviewPNG(filename string, rec gerbermesh.GeometryRecord) error {
	width := int((float64(rec.Bounds.MaxX)-float64(rec.Bounds.MinX))/previewPixelToMM) + 2
	height := int((float64(rec.Bounds.MaxY)-float64(rec.Bounds.MinY))/previewPixelToMM) + 2
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	toPixel := func(x, y float32) (int, int) {
		px := int((float64(x) - float64(rec.Bounds.MinX)) / previewPixelToMM)
		py := height - 1 - int((float64(y)-float64(rec.Bounds.MinY))/previewPixelToMM)
		return px, py
	}

	black := color.RGBA{0, 0, 0, 255}
	for t := 0; t+2 < len(rec.Indices); t += 3 {
		i0, i1, i2 := rec.Indices[t], rec.Indices[t+1], rec.Indices[t+2]
		x0, y0 := toPixel(rec.Positions[2*i0], rec.Positions[2*i0+1])
		x1, y1 := toPixel(rec.Positions[2*i1], rec.Positions[2*i1+1])
		x2, y2 := toPixel(rec.Positions[2*i2], rec.Positions[2*i2+1])
		fillTriangle(img, x0, y0, x1, y1, x2, y2, black)
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// fillTriangle rasterizes one triangle with a barycentric scan over its
// bounding box, the simplest correct approach for a debug-only preview.
func fillTriangle(img *image.RGBA, x0, y0, x1, y1, x2, y2 int, c color.Color) {
	minX, maxX := minInt3(x0, x1, x2), maxInt3(x0, x1, x2)
	minY, maxY := minInt3(y0, y1, y2), maxInt3(y0, y1, y2)

	bounds := img.Bounds()
	if minX < bounds.Min.X {
		minX = bounds.Min.X
	}
	if minY < bounds.Min.Y {
		minY = bounds.Min.Y
	}
	if maxX > bounds.Max.X-1 {
		maxX = bounds.Max.X - 1
	}
	if maxY > bounds.Max.Y-1 {
		maxY = bounds.Max.Y - 1
	}

	area := edgeFn(x0, y0, x1, y1, x2, y2)
	if area == 0 {
		return
	}

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			w0 := edgeFn(x1, y1, x2, y2, px, py)
			w1 := edgeFn(x2, y2, x0, y0, px, py)
			w2 := edgeFn(x0, y0, x1, y1, px, py)
			if (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0) {
				img.Set(px, py, c)
			}
		}
	}
}

func edgeFn(ax, ay, bx, by, px, py int) int {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func minInt3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func maxInt3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
