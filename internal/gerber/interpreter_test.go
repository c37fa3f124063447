package gerber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gerbermesh/internal/builder"
)

// Minimal flash: one circular aperture, flashed once at the origin.
func TestParseMinimalFlash(t *testing.T) {
	src := "%FSLAX24Y24*%\n%MOMM*%\n%ADD10C,1.0*%\nD10*\nX000000Y000000D03*\nM02*\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()

	assert.Equal(t, uint32(33), rec.VertexCount) // CircleSegments(32) + 1 centre
	assert.Equal(t, uint32(96), rec.IndexCount)
	assert.Zero(t, rec.WarningCount)
}

// Square region: G36, four line segments forming a 10x10mm square, G37.
func TestParseSquareRegion(t *testing.T) {
	src := "%FSLAX24Y24*%\n%MOMM*%\nG01*\nG36*\nX000000Y000000D02*\nX100000Y000000D01*\nX100000Y100000D01*\nX000000Y100000D01*\nX000000Y000000D01*\nG37*\nM02*\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()

	assert.Equal(t, uint32(4), rec.VertexCount)
	assert.Equal(t, uint32(6), rec.IndexCount)
	assert.Equal(t, 0.0, float64(rec.Bounds.MinX))
	assert.InDelta(t, 10.0, float64(rec.Bounds.MaxX), 1e-6)
}

// Full-circle arc: G75 multi-quadrant, from==to with a center offset.
func TestParseFullCircleArc(t *testing.T) {
	src := "%FSLAX24Y24*%\n%MOMM*%\n%ADD10C,0.1*%\nD10*\nG75*\nG02*\nX050000Y000000D02*\nI-050000J000000X050000Y000000D01*\nM02*\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()

	// bounding box of a circle of radius 5mm centred at (0,0)
	assert.InDelta(t, -5.0, float64(rec.Bounds.MinX), 0.05)
	assert.InDelta(t, 5.0, float64(rec.Bounds.MaxX), 0.05)
	assert.InDelta(t, -5.0, float64(rec.Bounds.MinY), 0.05)
	assert.InDelta(t, 5.0, float64(rec.Bounds.MaxY), 0.05)
}

// Step-repeat 2x3: a single flash body duplicated on a grid.
func TestParseStepRepeat2x3(t *testing.T) {
	src := "%FSLAX24Y24*%\n%MOMM*%\n%ADD10C,1.0*%\nD10*\n%SRX2Y3I10J10*%\nX000000Y000000D03*\n%SR*%\nM02*\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()

	assert.Equal(t, uint32(33*6), rec.VertexCount)
	assert.Equal(t, uint32(96*6), rec.IndexCount)
	assert.InDelta(t, 10.0, float64(rec.Bounds.MaxX), 0.6)
	assert.InDelta(t, 20.0, float64(rec.Bounds.MaxY), 0.6)
}

func TestParseUndefinedApertureFlashWarns(t *testing.T) {
	src := "%FSLAX24Y24*%\n%MOMM*%\nD10*\nX000000Y000000D03*\nM02*\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()
	assert.Zero(t, rec.VertexCount)
	assert.NotZero(t, rec.WarningCount)
}

func TestParseTruncatedFileWarns(t *testing.T) {
	src := "%FSLAX24Y24*%\n%MOMM*%\n%ADD10C,1.0*%\nD10*\nX000000Y000000D03*\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()
	require.NotEmpty(t, rec.Warnings)
	found := false
	for _, w := range rec.Warnings {
		if w == "truncated file: M02 never observed" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParsePolarityClearOpensClearRange(t *testing.T) {
	src := "%FSLAX24Y24*%\n%MOMM*%\n%ADD10C,1.0*%\nD10*\nX000000Y000000D03*\n%LPC*%\nX005000Y000000D03*\n%LPD*%\nM02*\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()
	require.Len(t, rec.ClearRanges, 1)
}

func TestParseInchUnitsConvertToMM(t *testing.T) {
	src := "%FSLAX24Y24*%\n%MOIN*%\n%ADD10C,1.0*%\nD10*\nX000000Y000000D03*\nM02*\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()
	assert.InDelta(t, -12.7, float64(rec.Bounds.MinX), 1e-6) // 0.5in radius * 25.4
	assert.InDelta(t, 12.7, float64(rec.Bounds.MaxX), 1e-6)
}
