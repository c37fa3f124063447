package gerber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(src string) []Command {
	lex := NewLexer(src)
	var out []Command
	for {
		cmd, ok := lex.Next()
		if !ok {
			break
		}
		out = append(out, cmd)
	}
	return out
}

func TestLexerFormatSpecAndUnits(t *testing.T) {
	cmds := collect("%FSLAX24Y24*%\n%MOMM*%\n")
	require.Len(t, cmds, 2)
	assert.Equal(t, CmdFormatSpec, cmds[0].Kind)
	assert.Equal(t, 2, cmds[0].IntDigits)
	assert.Equal(t, 4, cmds[0].DecDigits)
	assert.Equal(t, CmdUnits, cmds[1].Kind)
	assert.False(t, cmds[1].Inch)
}

func TestLexerApertureDefinition(t *testing.T) {
	cmds := collect("%ADD10C,0.5*%\n")
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdApertureDef, cmds[0].Kind)
	assert.Equal(t, 10, cmds[0].ApertureID)
	assert.Equal(t, "C", cmds[0].ApertureTmpl)
	assert.Equal(t, []float64{0.5}, cmds[0].ApertureMods)
}

func TestLexerCoordinateWord(t *testing.T) {
	cmds := collect("X001000Y002000D02*\n")
	require.Len(t, cmds, 1)
	c := cmds[0]
	assert.Equal(t, CmdCoordinate, c.Kind)
	assert.True(t, c.HasX)
	assert.Equal(t, "001000", c.XRaw)
	assert.True(t, c.HasY)
	assert.Equal(t, "002000", c.YRaw)
	assert.Equal(t, 2, c.DCode)
}

func TestLexerApertureSelect(t *testing.T) {
	cmds := collect("D11*\n")
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdApertureSelect, cmds[0].Kind)
	assert.Equal(t, 11, cmds[0].SelectID)
}

func TestLexerGCodes(t *testing.T) {
	cmds := collect("G01*\nG02*\nG03*\nG36*\nG37*\nG74*\nG75*\n")
	require.Len(t, cmds, 7)
	assert.Equal(t, CmdInterpMode, cmds[0].Kind)
	assert.Equal(t, ModeLinear, cmds[0].InterpMode)
	assert.Equal(t, CmdRegionOpen, cmds[3].Kind)
	assert.Equal(t, CmdRegionClose, cmds[4].Kind)
	assert.Equal(t, CmdQuadMode, cmds[5].Kind)
	assert.Equal(t, QuadSingle, cmds[5].QuadMode)
	assert.Equal(t, QuadMulti, cmds[6].QuadMode)
}

func TestLexerUnsupportedGCodeWarnsViaUnsupportedKind(t *testing.T) {
	cmds := collect("G54*\n")
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdUnsupported, cmds[0].Kind)
}

func TestLexerEndOfFile(t *testing.T) {
	cmds := collect("M02*\n")
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdEndOfFile, cmds[0].Kind)
}

func TestLexerMacroDefinitionSpansMultipleLines(t *testing.T) {
	src := "%AMTHERMAL*\n1,1,0.5,0,0*\n20,1,0.1,0,0,1,0,0*\n%\n"
	cmds := collect(src)
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdMacroDef, cmds[0].Kind)
	assert.Equal(t, "THERMAL", cmds[0].MacroName)
	assert.Len(t, cmds[0].MacroBody, 2)
}

func TestLexerStepRepeatOpenAndClose(t *testing.T) {
	cmds := collect("%SRX2Y3I5J6*%\n%SR*%\n")
	require.Len(t, cmds, 2)
	assert.Equal(t, CmdSROpen, cmds[0].Kind)
	assert.Equal(t, 2, cmds[0].SRNX)
	assert.Equal(t, 3, cmds[0].SRNY)
	assert.Equal(t, 5.0, cmds[0].SRStepX)
	assert.Equal(t, 6.0, cmds[0].SRStepY)
	assert.Equal(t, CmdSRClose, cmds[1].Kind)
}

func TestLexerMalformedApertureSelect(t *testing.T) {
	cmds := collect("DXX*\n")
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdMalformed, cmds[0].Kind)
}

func TestLexerUnterminatedExtendedIsMalformed(t *testing.T) {
	cmds := collect("%FSLAX24Y24*\n")
	require.Len(t, cmds, 1)
	assert.Equal(t, CmdMalformed, cmds[0].Kind)
}
