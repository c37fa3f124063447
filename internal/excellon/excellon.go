// Package excellon implements the NC-drill parser: M48 header + tool table
// + hole body, producing drill holes flashed as circles (spec §4.10).
package excellon

import (
	"math"
	"strconv"
	"strings"

	"gerbermesh/internal/aperture"
	"gerbermesh/internal/builder"
	"gerbermesh/internal/geomutil"
)

type zeroSuppression int

const (
	leadingZeroSuppress zeroSuppression = iota
	trailingZeroSuppress
)

type state struct {
	inHeader bool
	sawM48   bool
	inch     bool
	zeros    zeroSuppression
	intDigits, decDigits int

	tools map[int]float64 // tool id -> diameter, mm

	currentTool int
	haveTool    bool

	point geomutil.Point

	done bool
}

func newState() *state {
	return &state{
		inHeader:  true,
		inch:      true,
		zeros:     leadingZeroSuppress,
		intDigits: 2,
		decDigits: 4,
		tools:     make(map[int]float64),
	}
}

// Parse runs the Excellon parser over src, emitting one circle flash per
// drill hole into b. Like gerber.Parse, it never returns an error; the
// entry façade handles empty-input/invalid-encoding before calling this.
func Parse(b *builder.Builder, src string) {
	st := newState()
	lines := splitLines(src)
	for _, raw := range lines {
		if st.done {
			break
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !st.sawM48 && strings.TrimSpace(strings.ToUpper(line)) != "M48" {
			b.Warn("Excellon file has no M48 header; defaulting to inch, 2.4 format, leading-zero suppression")
			st.sawM48 = true // warn only once
		} else if strings.TrimSpace(strings.ToUpper(line)) == "M48" {
			st.sawM48 = true
		}
		b.IncrementCommandCount()
		st.handleLine(b, line)
	}

	if !st.done {
		b.Warn("truncated file: M30 never observed")
	}
}

func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	return strings.Split(src, "\n")
}

func (st *state) handleLine(b *builder.Builder, line string) {
	upper := strings.ToUpper(line)

	switch {
	case upper == "M48":
		st.inHeader = true
		return
	case upper == "%" || upper == "M95":
		st.inHeader = false
		return
	case upper == "M30":
		st.done = true
		return
	}

	if st.inHeader {
		st.handleHeaderLine(b, upper)
		return
	}
	st.handleBodyLine(b, line, upper)
}

func (st *state) handleHeaderLine(b *builder.Builder, upper string) {
	switch {
	case upper == "METRIC":
		st.inch = false
		// Metric Excellon bodies conventionally use a 3.3 fixed-point format
		// (000.000) rather than the inch-default 2.4; real tool tables never
		// spell the digit counts out explicitly, so this is the format
		// assumed whenever METRIC is declared without further qualification.
		st.intDigits, st.decDigits = 3, 3
	case upper == "INCH":
		st.inch = true
		st.intDigits, st.decDigits = 2, 4
	case strings.HasPrefix(upper, "TZ"):
		st.zeros = trailingZeroSuppress
	case strings.HasPrefix(upper, "LZ"):
		st.zeros = leadingZeroSuppress
	case strings.HasPrefix(upper, "T"):
		st.defineTool(b, upper)
	default:
		b.Warn("unrecognised Excellon header line %q, ignored", upper)
	}
}

func (st *state) defineTool(b *builder.Builder, upper string) {
	cIdx := strings.IndexByte(upper, 'C')
	if cIdx < 0 {
		b.Warn("malformed tool definition %q, ignored", upper)
		return
	}
	idStr := upper[1:cIdx]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		b.Warn("malformed tool id in %q, ignored", upper)
		return
	}
	diaStr := upper[cIdx+1:]
	// Trailing feed/speed fields (F.., S..) are common; stop at the first
	// non-numeric character after the diameter.
	end := len(diaStr)
	for i, c := range diaStr {
		if !(c == '.' || c == '-' || (c >= '0' && c <= '9')) {
			end = i
			break
		}
	}
	dia, err := strconv.ParseFloat(diaStr[:end], 64)
	if err != nil {
		b.Warn("malformed tool diameter in %q, ignored", upper)
		return
	}
	if st.inch {
		dia *= 25.4
	}
	if _, exists := st.tools[id]; exists {
		b.Warn("tool T%d redefined, last definition wins", id)
	}
	st.tools[id] = dia
}

func (st *state) handleBodyLine(b *builder.Builder, line, upper string) {
	if strings.HasPrefix(upper, "G") {
		b.Warn("routing command %q is not supported, skipping", line)
		return
	}
	if strings.HasPrefix(upper, "T") && !strings.ContainsAny(upper, "XY") {
		id, err := strconv.Atoi(strings.TrimPrefix(upper, "T"))
		if err != nil {
			b.Warn("malformed tool selection %q, ignored", line)
			return
		}
		if _, ok := st.tools[id]; !ok {
			b.Warn("tool T%d selected before definition", id)
		}
		st.currentTool = id
		st.haveTool = true
		return
	}

	if strings.ContainsAny(upper, "XY") {
		st.handleHole(b, upper)
		return
	}

	b.Warn("unrecognised Excellon body line %q, ignored", line)
}

func (st *state) handleHole(b *builder.Builder, upper string) {
	if !st.haveTool {
		b.Warn("coordinate before any tool selection, skipping")
		return
	}
	target := st.point
	xIdx := strings.IndexByte(upper, 'X')
	yIdx := strings.IndexByte(upper, 'Y')

	if xIdx >= 0 {
		end := len(upper)
		if yIdx > xIdx {
			end = yIdx
		}
		v, ok := st.parseCoord(upper[xIdx+1 : end])
		if !ok {
			b.Warn("malformed X coordinate in %q, skipping", upper)
			return
		}
		target.X = v
	}
	if yIdx >= 0 {
		end := len(upper)
		if xIdx > yIdx {
			end = xIdx
		}
		v, ok := st.parseCoord(upper[yIdx+1 : end])
		if !ok {
			b.Warn("malformed Y coordinate in %q, skipping", upper)
			return
		}
		target.Y = v
	}
	st.point = target

	dia, ok := st.tools[st.currentTool]
	if !ok {
		b.Warn("tool T%d has no known diameter, skipping hole", st.currentTool)
		return
	}
	aperture.Flash(b, aperture.Aperture{Kind: aperture.Circle, Diameter: dia}, target, nil)
}

func (st *state) parseCoord(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	if strings.Contains(raw, ".") {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, false
		}
		return st.toMM(v), true
	}
	neg := strings.HasPrefix(raw, "-")
	s := strings.TrimPrefix(strings.TrimPrefix(raw, "-"), "+")
	if s == "" {
		return 0, false
	}
	iv, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	var v float64
	switch st.zeros {
	case trailingZeroSuppress:
		// Trailing-zero suppression: digits are left-aligned to intDigits+decDigits;
		// pad on the right to the full width, then apply the decimal point.
		width := st.intDigits + st.decDigits
		digits := s
		for len(digits) < width {
			digits += "0"
		}
		iv2, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0, false
		}
		v = float64(iv2) / math.Pow(10, float64(st.decDigits))
	default: // leading-zero suppression: value is already right-aligned
		v = float64(iv) / math.Pow(10, float64(st.decDigits))
	}
	if neg {
		v = -v
	}
	return st.toMM(v), true
}

func (st *state) toMM(v float64) float64 {
	if st.inch {
		return v * 25.4
	}
	return v
}
