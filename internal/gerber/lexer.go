// Package gerber implements the line-oriented Gerber RS-274X lexer and the
// interpreter/state machine that drives the geometry producers (spec §4.8,
// §4.9).
package gerber

import (
	"fmt"
	"strings"
)

// CommandKind tags the variant held by a Command.
type CommandKind int

const (
	CmdFormatSpec CommandKind = iota
	CmdUnits
	CmdApertureDef
	CmdMacroDef
	CmdPolarity
	CmdSROpen
	CmdSRClose
	CmdInterpMode
	CmdRegionOpen
	CmdRegionClose
	CmdQuadMode
	CmdApertureSelect
	CmdCoordinate
	CmdEndOfFile
	CmdUnsupported
	CmdMalformed
)

// InterpMode mirrors G01/G02/G03.
type InterpMode int

const (
	ModeLinear InterpMode = iota
	ModeCWArc
	ModeCCWArc
)

// Polarity mirrors %LP D*% / %LP C*%.
type Polarity int

const (
	PolarityDark Polarity = iota
	PolarityClear
)

// QuadMode mirrors G74/G75.
type QuadMode int

const (
	QuadMulti QuadMode = iota
	QuadSingle
)

// Command is one decoded token from the command stream. Only the fields
// relevant to Kind are meaningful; zero values mean "not present/modal".
type Command struct {
	Kind CommandKind

	// CmdFormatSpec
	IntDigits, DecDigits int
	TrailingZeroSuppress bool

	// CmdUnits
	Inch bool

	// CmdApertureDef
	ApertureID   int
	ApertureTmpl string // "C", "R", "O", "P", or a macro name
	ApertureMods []float64

	// CmdMacroDef
	MacroName string
	MacroBody []string // raw `*`-terminated primitive lines

	// CmdPolarity
	Polarity Polarity

	// CmdSROpen
	SRNX, SRNY     int
	SRStepX, SRStepY float64

	// CmdInterpMode
	InterpMode InterpMode

	// CmdQuadMode
	QuadMode QuadMode

	// CmdApertureSelect
	SelectID int

	// CmdCoordinate. Values are raw digit strings (sign + digits, optional
	// decimal point); the interpreter applies the current coordinate
	// format (§3) to turn them into millimetres, since the lexer has no
	// state of its own.
	HasX, HasY, HasI, HasJ bool
	XRaw, YRaw, IRaw, JRaw  string
	DCode                   int // 1=draw, 2=move, 3=flash

	// CmdMalformed / CmdUnsupported
	Detail string
}

// Lexer scans Gerber source text into a sequence of Commands. It is a
// single-pass, line-oriented scanner: extended commands (%...%) may span
// multiple physical lines (aperture macro bodies in particular).
type Lexer struct {
	src  string
	pos  int
	n    int
}

// NewLexer returns a Lexer over src, which must already be validated UTF-8
// (the caller checks this before constructing a Lexer, per §4.8's "bytes
// >= 0x80 outside comments abort the lexer with an error").
func NewLexer(src string) *Lexer {
	return &Lexer{src: normalizeLineEndings(src), n: len(src)}
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// Next returns the next command, or ok=false at end of input.
func (l *Lexer) Next() (Command, bool) {
	for {
		l.skipWhitespaceAndEmptyLines()
		if l.pos >= len(l.src) {
			return Command{}, false
		}

		if l.src[l.pos] == '%' {
			return l.lexExtended(), true
		}

		// Non-extended ('word') command line, '*'-terminated, possibly
		// several on one physical line.
		cmd, ok := l.lexWord()
		if ok {
			return cmd, true
		}
		// lexWord consumed a blank/garbage segment; loop for the next one.
	}
}

func (l *Lexer) skipWhitespaceAndEmptyLines() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' {
			l.pos++
			continue
		}
		return
	}
}

// lexWord consumes one '*'-terminated token from a non-extended command
// line and decodes it. Returns ok=false if nothing meaningful was found
// (e.g. a stray '*' or end of line with no content).
func (l *Lexer) lexWord() (Command, bool) {
	start := l.pos
	end := strings.IndexAny(l.src[start:], "*\n")
	var word string
	if end < 0 {
		word = l.src[start:]
		l.pos = len(l.src)
	} else {
		word = l.src[start : start+end]
		l.pos = start + end
		if l.pos < len(l.src) && l.src[l.pos] == '*' {
			l.pos++
		}
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return Command{}, false
	}
	return decodeWord(word), true
}

// lexExtended consumes a %...% block, possibly containing embedded `*`
// and, for %AM, embedded newlines before the closing %.
func (l *Lexer) lexExtended() Command {
	start := l.pos
	l.pos++ // consume leading '%'
	end := strings.Index(l.src[l.pos:], "%")
	if end < 0 {
		l.pos = len(l.src)
		return Command{Kind: CmdMalformed, Detail: fmt.Sprintf("unterminated extended command %q", l.src[start:])}
	}
	body := l.src[l.pos : l.pos+end]
	l.pos += end + 1
	return decodeExtended(body)
}
