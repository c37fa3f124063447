package gerber

import (
	"strconv"
	"strings"
)

// decodeWord decodes one non-extended, '*'-terminated word: G-codes,
// D-codes (aperture select or draw/move/flash verb), M02, or a coordinate.
func decodeWord(word string) Command {
	switch {
	case word == "G01" || word == "G1":
		return Command{Kind: CmdInterpMode, InterpMode: ModeLinear}
	case word == "G02" || word == "G2":
		return Command{Kind: CmdInterpMode, InterpMode: ModeCWArc}
	case word == "G03" || word == "G3":
		return Command{Kind: CmdInterpMode, InterpMode: ModeCCWArc}
	case word == "G36":
		return Command{Kind: CmdRegionOpen}
	case word == "G37":
		return Command{Kind: CmdRegionClose}
	case word == "G74":
		return Command{Kind: CmdQuadMode, QuadMode: QuadSingle}
	case word == "G75":
		return Command{Kind: CmdQuadMode, QuadMode: QuadMulti}
	case word == "M02" || word == "M00":
		return Command{Kind: CmdEndOfFile}
	case strings.HasPrefix(word, "G"):
		return Command{Kind: CmdUnsupported, Detail: "unsupported G-code " + word}
	}

	if strings.HasPrefix(word, "D") && !strings.ContainsAny(word, "XYIJ") {
		idStr := word[1:]
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return Command{Kind: CmdMalformed, Detail: "malformed D-code " + word}
		}
		if id >= 10 {
			return Command{Kind: CmdApertureSelect, SelectID: id}
		}
		// D01/D02/D03 with no coordinates: repeats previous draw verb at
		// the current point. Rare but legal; treat as a coordinate command
		// with no axes present.
		return Command{Kind: CmdCoordinate, DCode: id}
	}

	return decodeCoordinateWord(word)
}

// decodeCoordinateWord parses X<n>Y<n>[I<n>J<n>]D0?.
func decodeCoordinateWord(word string) Command {
	cmd := Command{Kind: CmdCoordinate, DCode: 1} // D01 implicit if omitted (rare)
	i := 0
	n := len(word)
	ok := false
	for i < n {
		axis := word[i]
		if axis != 'X' && axis != 'Y' && axis != 'I' && axis != 'J' && axis != 'D' {
			return Command{Kind: CmdMalformed, Detail: "malformed coordinate word " + word}
		}
		j := i + 1
		for j < n && (word[j] == '-' || word[j] == '+' || word[j] == '.' || (word[j] >= '0' && word[j] <= '9')) {
			j++
		}
		if j == i+1 && axis != 'D' {
			return Command{Kind: CmdMalformed, Detail: "malformed coordinate word " + word}
		}
		valStr := word[i+1 : j]
		switch axis {
		case 'X':
			cmd.HasX, cmd.XRaw = true, valStr
			ok = true
		case 'Y':
			cmd.HasY, cmd.YRaw = true, valStr
			ok = true
		case 'I':
			cmd.HasI, cmd.IRaw = true, valStr
			ok = true
		case 'J':
			cmd.HasJ, cmd.JRaw = true, valStr
			ok = true
		case 'D':
			v, err := strconv.Atoi(valStr)
			if err != nil {
				return Command{Kind: CmdMalformed, Detail: "malformed D value in " + word}
			}
			cmd.DCode = v
		}
		i = j
	}
	if !ok {
		return Command{Kind: CmdMalformed, Detail: "empty coordinate word"}
	}
	return cmd
}

// decodeExtended decodes the body of a %...% block (without the %
// delimiters). body may contain embedded `*` (aperture definitions) or
// embedded newlines (macro bodies, already split off by lexExtended's
// single-% scan — the macro body is everything up to the matching %).
func decodeExtended(body string) Command {
	trimmed := strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(trimmed, "FS"):
		return decodeFS(trimmed)
	case strings.HasPrefix(trimmed, "MO"):
		return decodeMO(trimmed)
	case strings.HasPrefix(trimmed, "ADD"):
		return decodeAD(trimmed)
	case strings.HasPrefix(trimmed, "AM"):
		return decodeAM(trimmed)
	case strings.HasPrefix(trimmed, "LP"):
		return decodeLP(trimmed)
	case strings.HasPrefix(trimmed, "SR"):
		return decodeSR(trimmed)
	case trimmed == "":
		return Command{Kind: CmdMalformed, Detail: "empty extended command"}
	default:
		return Command{Kind: CmdUnsupported, Detail: "unsupported extended directive %" + trimmed + "%"}
	}
}

// decodeFS parses FSLAX<n><n>Y<n><n>*. Trailing-zero suppression (T) is
// flagged on the command so the interpreter warns about it; incremental
// notation (I) is accepted without a warning and its coordinates are read
// as absolute.
func decodeFS(body string) Command {
	body = strings.TrimSuffix(body, "*")
	rest := strings.TrimPrefix(body, "FS")
	trailingZero := false
	if len(rest) > 0 && rest[0] == 'T' {
		trailingZero = true
		rest = rest[1:]
	} else if len(rest) > 0 && rest[0] == 'L' {
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0] == 'A' {
		rest = rest[1:]
	} else if len(rest) > 0 && rest[0] == 'I' {
		rest = rest[1:]
	}
	xIdx := strings.IndexByte(rest, 'X')
	yIdx := strings.IndexByte(rest, 'Y')
	if xIdx < 0 || yIdx < 0 || yIdx < xIdx || len(rest) < yIdx+3 {
		return Command{Kind: CmdMalformed, Detail: "malformed format spec %FS" + body}
	}
	xDigits := rest[xIdx+1 : yIdx]
	yDigits := rest[yIdx+1:]
	if len(xDigits) != 2 {
		return Command{Kind: CmdMalformed, Detail: "malformed format spec X digits"}
	}
	intDigits := int(xDigits[0] - '0')
	decDigits := int(xDigits[1] - '0')
	_ = yDigits
	return Command{Kind: CmdFormatSpec, IntDigits: intDigits, DecDigits: decDigits, TrailingZeroSuppress: trailingZero}
}

func decodeMO(body string) Command {
	body = strings.TrimSuffix(body, "*")
	switch strings.TrimPrefix(body, "MO") {
	case "MM":
		return Command{Kind: CmdUnits, Inch: false}
	case "IN":
		return Command{Kind: CmdUnits, Inch: true}
	default:
		return Command{Kind: CmdMalformed, Detail: "malformed units directive %" + body}
	}
}

// decodeAD parses ADD<id><template>[,<mods>]*
func decodeAD(body string) Command {
	body = strings.TrimSuffix(body, "*")
	rest := strings.TrimPrefix(body, "ADD")
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return Command{Kind: CmdMalformed, Detail: "malformed aperture definition %" + body}
	}
	id, _ := strconv.Atoi(rest[:i])
	tail := rest[i:]

	commaIdx := strings.IndexByte(tail, ',')
	var tmpl, modsStr string
	if commaIdx < 0 {
		tmpl = tail
	} else {
		tmpl = tail[:commaIdx]
		modsStr = tail[commaIdx+1:]
	}
	var mods []float64
	if modsStr != "" {
		for _, part := range strings.Split(modsStr, "X") {
			if part == "" {
				continue
			}
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return Command{Kind: CmdMalformed, Detail: "malformed aperture modifiers in %" + body}
			}
			mods = append(mods, v)
		}
	}
	return Command{Kind: CmdApertureDef, ApertureID: id, ApertureTmpl: tmpl, ApertureMods: mods}
}

// decodeAM parses AM<name>*<primitive>*<primitive>*...
func decodeAM(body string) Command {
	rest := strings.TrimPrefix(body, "AM")
	parts := strings.Split(rest, "*")
	if len(parts) < 1 || parts[0] == "" {
		return Command{Kind: CmdMalformed, Detail: "malformed macro definition %" + body}
	}
	name := parts[0]
	var lines []string
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p != "" {
			lines = append(lines, p)
		}
	}
	return Command{Kind: CmdMacroDef, MacroName: name, MacroBody: lines}
}

func decodeLP(body string) Command {
	body = strings.TrimSuffix(body, "*")
	rest := strings.TrimSpace(strings.TrimPrefix(body, "LP"))
	switch rest {
	case "D":
		return Command{Kind: CmdPolarity, Polarity: PolarityDark}
	case "C":
		return Command{Kind: CmdPolarity, Polarity: PolarityClear}
	default:
		return Command{Kind: CmdMalformed, Detail: "malformed polarity directive %" + body}
	}
}

// decodeSR parses SRX<n>Y<n>I<n>J<n>* (open) or a bare SR* (close).
func decodeSR(body string) Command {
	body = strings.TrimSuffix(body, "*")
	rest := strings.TrimPrefix(body, "SR")
	if rest == "" {
		return Command{Kind: CmdSRClose}
	}
	xIdx := strings.IndexByte(rest, 'X')
	yIdx := strings.IndexByte(rest, 'Y')
	iIdx := strings.IndexByte(rest, 'I')
	jIdx := strings.IndexByte(rest, 'J')
	if xIdx < 0 || yIdx < 0 || iIdx < 0 || jIdx < 0 {
		return Command{Kind: CmdMalformed, Detail: "malformed step-repeat directive %" + body}
	}
	nx, err1 := strconv.Atoi(rest[xIdx+1 : yIdx])
	ny, err2 := strconv.Atoi(rest[yIdx+1 : iIdx])
	stepX, err3 := strconv.ParseFloat(rest[iIdx+1:jIdx], 64)
	stepY, err4 := strconv.ParseFloat(rest[jIdx+1:], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return Command{Kind: CmdMalformed, Detail: "malformed step-repeat directive %" + body}
	}
	return Command{Kind: CmdSROpen, SRNX: nx, SRNY: ny, SRStepX: stepX, SRStepY: stepY}
}
