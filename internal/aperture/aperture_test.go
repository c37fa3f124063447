package aperture_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gerbermesh/internal/aperture"
	"gerbermesh/internal/builder"
	"gerbermesh/internal/geomutil"
)

func TestFlashCircleVertexCount(t *testing.T) {
	b := builder.New()
	err := aperture.Flash(b, aperture.Aperture{Kind: aperture.Circle, Diameter: 1.0}, geomutil.Point{}, nil)
	require.NoError(t, err)

	rec := b.Finish()
	assert.Equal(t, uint32(aperture.CircleSegments+1), rec.VertexCount)
	assert.Equal(t, uint32(aperture.CircleSegments*3), rec.IndexCount)
}

func TestFlashCircleVerticesOnRadius(t *testing.T) {
	b := builder.New()
	d := 2.0
	err := aperture.Flash(b, aperture.Aperture{Kind: aperture.Circle, Diameter: d}, geomutil.Point{X: 5, Y: -3}, nil)
	require.NoError(t, err)
	rec := b.Finish()

	for i := 2; i < len(rec.Positions); i += 2 { // skip the fan centre
		x := float64(rec.Positions[i]) - 5
		y := float64(rec.Positions[i+1]) - (-3)
		r := math.Hypot(x, y)
		assert.InDelta(t, d/2, r, 1e-5*d)
	}
}

func TestFlashZeroDiameterWarnsAndEmitsNothing(t *testing.T) {
	b := builder.New()
	err := aperture.Flash(b, aperture.Aperture{Kind: aperture.Circle, Diameter: 0}, geomutil.Point{}, nil)
	require.NoError(t, err)
	rec := b.Finish()
	assert.Equal(t, uint32(0), rec.VertexCount)
	assert.Equal(t, uint32(1), rec.WarningCount)
}

func TestFlashNegativeDimensionAbsoluteValued(t *testing.T) {
	b := builder.New()
	err := aperture.Flash(b, aperture.Aperture{Kind: aperture.Rectangle, Width: -2, Height: 3}, geomutil.Point{}, nil)
	require.NoError(t, err)
	rec := b.Finish()
	assert.Equal(t, uint32(4), rec.VertexCount)
	assert.NotZero(t, rec.WarningCount)
	assert.InDelta(t, -1.0, float64(rec.Bounds.MinX), 1e-9)
	assert.InDelta(t, 1.0, float64(rec.Bounds.MaxX), 1e-9)
}

func TestFlashRectangle(t *testing.T) {
	b := builder.New()
	err := aperture.Flash(b, aperture.Aperture{Kind: aperture.Rectangle, Width: 2, Height: 4}, geomutil.Point{}, nil)
	require.NoError(t, err)
	rec := b.Finish()
	assert.Equal(t, uint32(4), rec.VertexCount)
	assert.Equal(t, uint32(6), rec.IndexCount)
	assert.Equal(t, -1.0, float64(rec.Bounds.MinX))
	assert.Equal(t, -2.0, float64(rec.Bounds.MinY))
}

func TestFlashObroundEqualDimensionsDelegatesToCircle(t *testing.T) {
	b := builder.New()
	err := aperture.Flash(b, aperture.Aperture{Kind: aperture.Obround, Width: 2, Height: 2}, geomutil.Point{}, nil)
	require.NoError(t, err)
	rec := b.Finish()
	assert.Equal(t, uint32(aperture.CircleSegments+1), rec.VertexCount)
}

func TestFlashObroundElongated(t *testing.T) {
	b := builder.New()
	err := aperture.Flash(b, aperture.Aperture{Kind: aperture.Obround, Width: 4, Height: 2}, geomutil.Point{}, nil)
	require.NoError(t, err)
	rec := b.Finish()
	assert.Greater(t, rec.VertexCount, uint32(4))
	assert.InDelta(t, -2.0, float64(rec.Bounds.MinX), 1e-6)
	assert.InDelta(t, 2.0, float64(rec.Bounds.MaxX), 1e-6)
	assert.InDelta(t, -1.0, float64(rec.Bounds.MinY), 1e-6)
	assert.InDelta(t, 1.0, float64(rec.Bounds.MaxY), 1e-6)
}

func TestFlashPolygonVertexCountClamped(t *testing.T) {
	b := builder.New()
	err := aperture.Flash(b, aperture.Aperture{Kind: aperture.Polygon, Diameter: 1, VertexCount: 99}, geomutil.Point{}, nil)
	require.NoError(t, err)
	rec := b.Finish()
	assert.Equal(t, uint32(13), rec.VertexCount) // centre + 12 clamped
	assert.NotZero(t, rec.WarningCount)
}

func TestFlashPolygonRotationalIdempotence(t *testing.T) {
	ap1 := aperture.Aperture{Kind: aperture.Polygon, Diameter: 2, VertexCount: 6, RotationDeg: 37}
	ap2 := aperture.Aperture{Kind: aperture.Polygon, Diameter: 2, VertexCount: 6, RotationDeg: 37 + 360}

	b1, b2 := builder.New(), builder.New()
	require.NoError(t, aperture.Flash(b1, ap1, geomutil.Point{}, nil))
	require.NoError(t, aperture.Flash(b2, ap2, geomutil.Point{}, nil))

	r1, r2 := b1.Finish(), b2.Finish()
	require.Equal(t, len(r1.Positions), len(r2.Positions))
	for i := range r1.Positions {
		assert.InDelta(t, float64(r1.Positions[i]), float64(r2.Positions[i]), 1e-4)
	}
}

func TestFlashMacroInstanceDelegatesToEvaluator(t *testing.T) {
	b := builder.New()
	called := false
	eval := func(b *builder.Builder, macroID string, params []float64, pos geomutil.Point) error {
		called = true
		assert.Equal(t, "THERMAL80", macroID)
		assert.Equal(t, []float64{0.5}, params)
		return nil
	}
	err := aperture.Flash(b, aperture.Aperture{Kind: aperture.MacroInstance, MacroID: "THERMAL80", Parameters: []float64{0.5}}, geomutil.Point{}, eval)
	require.NoError(t, err)
	assert.True(t, called)
}
