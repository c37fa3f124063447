package excellon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gerbermesh/internal/builder"
)

// Simple two-hole Excellon file: one tool, two holes.
func TestParseTwoHoles(t *testing.T) {
	src := "M48\nMETRIC\nT01C0.5\n%\nT01\nX010000Y010000\nX020000Y020000\nM30\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()

	assert.Equal(t, uint32(2*33), rec.VertexCount)
	assert.Equal(t, uint32(2*96), rec.IndexCount)
	assert.Zero(t, rec.WarningCount)
}

func TestParseInchUnitsConvertDiameterToMM(t *testing.T) {
	src := "M48\nINCH\nT01C0.0200\n%\nT01\nX01Y01\nM30\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()
	assert.NotZero(t, rec.VertexCount)
	r := (float64(rec.Bounds.MaxX) - float64(rec.Bounds.MinX)) / 2
	assert.InDelta(t, 0.02*25.4/2, r, 1e-3)
}

func TestParseToolSelectBeforeDefinitionWarns(t *testing.T) {
	src := "M48\nMETRIC\n%\nT01\nX010000Y010000\nM30\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()
	assert.NotZero(t, rec.WarningCount)
}

func TestParseCoordinateBeforeToolSelectWarns(t *testing.T) {
	src := "M48\nMETRIC\nT01C0.5\n%\nX010000Y010000\nM30\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()
	assert.Zero(t, rec.VertexCount)
	assert.NotZero(t, rec.WarningCount)
}

func TestParseMissingM48HeaderWarnsOnce(t *testing.T) {
	src := "METRIC\nT01C0.5\n%\nT01\nX010000Y010000\nM30\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()
	count := 0
	for _, w := range rec.Warnings {
		if w == "Excellon file has no M48 header; defaulting to inch, 2.4 format, leading-zero suppression" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestParseTruncatedFileWithoutM30Warns(t *testing.T) {
	src := "M48\nMETRIC\nT01C0.5\n%\nT01\nX010000Y010000\n"
	b := builder.New()
	Parse(b, src)
	rec := b.Finish()
	found := false
	for _, w := range rec.Warnings {
		if w == "truncated file: M30 never observed" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseCoordLeadingZeroSuppression(t *testing.T) {
	st := newState()
	st.zeros = leadingZeroSuppress
	st.decDigits = 4
	v, ok := st.parseCoord("10000")
	require.True(t, ok)
	assert.InDelta(t, 1.0*25.4, v, 1e-9) // inch default, 1.0000 -> mm
}

func TestParseCoordTrailingZeroSuppression(t *testing.T) {
	st := newState()
	st.zeros = trailingZeroSuppress
	st.intDigits, st.decDigits = 2, 4
	st.inch = false
	v, ok := st.parseCoord("1")
	require.True(t, ok)
	assert.InDelta(t, 10.0, v, 1e-9) // "1" padded to width 6 -> "100000" -> 10.0000
}
