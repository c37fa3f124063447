// Package gerbermesh turns Gerber RS-274X image files and Excellon NC-drill
// files into a flat triangulated mesh (interleaved float32 positions, 32-bit
// triangle indices) plus a compact metadata record. It is a pure function
// library: no I/O, no globals observable outside a single call. ZIP
// extraction, layer classification, and rendering are left to the caller.
package gerbermesh

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"gerbermesh/internal/builder"
	"gerbermesh/internal/excellon"
	"gerbermesh/internal/gerber"
)

// Error kinds per spec §7. Only ErrInvalidEncoding (and empty input, which
// is reported with the same sentinel) ever escape as a returned error;
// every other recoverable failure becomes a warning string in the result.
var (
	ErrInvalidEncoding = errors.New("gerbermesh: invalid or empty input encoding")
)

// Bounds is an axis-aligned bounding box in millimetres.
type Bounds = builder.Bounds

// ClearRange identifies a contiguous run of triangle indices drawn under
// clear polarity; the host may paint them in the background color.
type ClearRange = builder.ClearRange

// GeometryRecord is the full owned result of one parse: geometry plus
// metadata, per spec §3/§6.
type GeometryRecord = builder.Record

// ParseGerber parses a Gerber RS-274X file and returns its triangulated
// geometry and metadata. It never panics. It returns an error only for
// empty input or a non-UTF-8 byte outside a comment; every other failure
// (malformed command, undefined aperture, degenerate geometry, resource
// limit, truncation, ...) is recorded as a warning in the returned record
// and parsing continues best-effort.
func ParseGerber(data []byte) (GeometryRecord, error) {
	src, err := validate(data)
	if err != nil {
		return GeometryRecord{}, err
	}
	b := builder.New()
	gerber.Parse(b, src)
	return b.Finish(), nil
}

// ParseExcellon parses an Excellon NC-drill file (M48 header + tool table +
// absolute-coordinate hole body) and returns one circle flash per hole,
// plus metadata. Same error/warning policy as ParseGerber.
func ParseExcellon(data []byte) (GeometryRecord, error) {
	src, err := validate(data)
	if err != nil {
		return GeometryRecord{}, err
	}
	b := builder.New()
	excellon.Parse(b, src)
	return b.Finish(), nil
}

func validate(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty input", ErrInvalidEncoding)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: non-UTF-8 byte in input", ErrInvalidEncoding)
	}
	if hasHighByteOutsideComment(data) {
		return "", fmt.Errorf("%w: byte >= 0x80 outside a comment", ErrInvalidEncoding)
	}
	return string(data), nil
}

// hasHighByteOutsideComment implements §4.8's "bytes >= 0x80 outside of
// comments abort the lexer": a G04 directive runs to the next '*' or line
// end and may contain arbitrary text; everywhere else a high byte is a hard
// error. Aperture-macro comment primitives ("0,...") are free-form text
// inside an already-delimited %AM...% block and never themselves contain
// raw high bytes in practice, so they are not special-cased here.
func hasHighByteOutsideComment(data []byte) bool {
	inComment := false
	i := 0
	for i < len(data) {
		c := data[i]
		if !inComment && c == 'G' && i+3 <= len(data) && string(data[i:i+3]) == "G04" {
			inComment = true
			i += 3
			continue
		}
		if inComment && (c == '*' || c == '\n') {
			inComment = false
		}
		if !inComment && c >= 0x80 {
			return true
		}
		i++
	}
	return false
}
