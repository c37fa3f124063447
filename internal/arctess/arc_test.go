package arctess_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gerbermesh/internal/aperture"
	"gerbermesh/internal/arctess"
	"gerbermesh/internal/builder"
	"gerbermesh/internal/geomutil"
)

func TestSampleQuarterCircleCCW(t *testing.T) {
	from := geomutil.Point{X: 1, Y: 0}
	to := geomutil.Point{X: 0, Y: 1}
	center := geomutil.Point{X: -1, Y: 0} // centerOffset relative to `from`

	pts, ok, mismatch := arctess.Sample(from, to, center, arctess.CCW)
	require.True(t, ok)
	assert.False(t, mismatch)
	assert.Equal(t, from, pts[0])
	assert.Equal(t, to, pts[len(pts)-1])

	c := from.Add(center)
	for _, p := range pts {
		assert.InDelta(t, 1.0, p.Dist(c), 1e-6)
	}
}

func TestSampleFullCircleSweepsAllTheWayAround(t *testing.T) {
	from := geomutil.Point{X: 1, Y: 0}
	center := geomutil.Point{X: -1, Y: 0}

	pts, ok, _ := arctess.Sample(from, from, center, arctess.CW)
	require.True(t, ok)
	require.Greater(t, len(pts), arctess.MinSegments)
	assert.Equal(t, from, pts[0])

	c := from.Add(center)
	for _, p := range pts {
		assert.InDelta(t, 1.0, p.Dist(c), 1e-6)
	}
}

func TestSampleZeroRadiusDegenerate(t *testing.T) {
	from := geomutil.Point{X: 1, Y: 1}
	_, ok, _ := arctess.Sample(from, geomutil.Point{X: 2, Y: 2}, geomutil.Point{}, arctess.CW)
	assert.False(t, ok)
}

func TestSampleRadiusMismatchAverages(t *testing.T) {
	from := geomutil.Point{X: 1, Y: 0}
	to := geomutil.Point{X: 0, Y: 2} // inconsistent radius vs `from`
	center := geomutil.Point{X: -1, Y: 0}

	pts, ok, mismatch := arctess.Sample(from, to, center, arctess.CCW)
	require.True(t, ok)
	assert.True(t, mismatch)
	assert.NotEmpty(t, pts)
}

func TestSampleChordLengthBound(t *testing.T) {
	from := geomutil.Point{X: 50, Y: 0}
	to := geomutil.Point{X: -50, Y: 0}
	center := geomutil.Point{X: -50, Y: 0}

	pts, ok, _ := arctess.Sample(from, to, center, arctess.CCW)
	require.True(t, ok)
	for i := 0; i+1 < len(pts); i++ {
		assert.LessOrEqual(t, pts[i].Dist(pts[i+1]), arctess.MaxChordLength*1.01)
	}
}

func TestDrawArcWidensEachChord(t *testing.T) {
	b := builder.New()
	ap := aperture.Aperture{Kind: aperture.Circle, Diameter: 0.2}
	err := arctess.DrawArc(b, geomutil.Point{X: 1, Y: 0}, geomutil.Point{X: 0, Y: 1}, geomutil.Point{X: -1, Y: 0}, arctess.CCW, ap, nil)
	require.NoError(t, err)
	rec := b.Finish()
	assert.NotZero(t, rec.VertexCount)
	assert.NotZero(t, rec.IndexCount)
}

func TestDrawArcDegenerateWarns(t *testing.T) {
	b := builder.New()
	ap := aperture.Aperture{Kind: aperture.Circle, Diameter: 0.2}
	err := arctess.DrawArc(b, geomutil.Point{X: 1, Y: 1}, geomutil.Point{X: 2, Y: 2}, geomutil.Point{}, arctess.CW, ap, nil)
	require.NoError(t, err)
	rec := b.Finish()
	assert.Equal(t, uint32(1), rec.WarningCount)
}

func TestFullCircleSweepSign(t *testing.T) {
	from := geomutil.Point{X: 1, Y: 0}
	center := geomutil.Point{X: -1, Y: 0}

	ccw, _, _ := arctess.Sample(from, from, center, arctess.CCW)
	cw, _, _ := arctess.Sample(from, from, center, arctess.CW)

	// Opposite directions should visit the second point on opposite sides of Y=0.
	assert.True(t, math.Signbit(ccw[1].Y) != math.Signbit(cw[1].Y) || ccw[1].Y == cw[1].Y)
}
