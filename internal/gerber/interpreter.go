package gerber

import (
	"math"
	"strconv"
	"strings"

	"gerbermesh/internal/aperture"
	"gerbermesh/internal/arctess"
	"gerbermesh/internal/builder"
	"gerbermesh/internal/geomutil"
	"gerbermesh/internal/macro"
	"gerbermesh/internal/region"
	"gerbermesh/internal/steprepeat"
	"gerbermesh/internal/stroke"
)

// regionState mirrors §4.9's region-mode state machine: off, open
// (G36 seen, no subpath start yet), collecting (subpath started by D02).
type regionState int

const (
	regionOff regionState = iota
	regionOpen
	regionCollecting
)

type coordFormat struct {
	intDigits, decDigits int
	set                  bool
}

// srFrame captures one active (possibly nested) step-repeat block.
type srFrame struct {
	mark             steprepeat.Mark
	nx, ny           int
	stepX, stepY     float64
}

// interpState is the mutable per-invocation state described in §3. It is
// created fresh for every ParseGerber call and never observed outside it.
type interpState struct {
	point geomutil.Point

	apertureID int // 0 == none selected
	mode       InterpMode
	polarity   Polarity
	region     regionState
	quad       QuadMode
	warnedG74  bool

	inch   bool
	unitSet bool
	format coordFormat

	apertures map[int]aperture.Aperture
	macros    map[string]macro.Template

	regionStart geomutil.Point
	regionSegs  []region.Segment

	srStack []srFrame

	done bool
}

func newState() *interpState {
	return &interpState{
		apertures: make(map[int]aperture.Aperture),
		macros:    make(map[string]macro.Template),
	}
}

// Parse runs the Gerber interpreter over src, emitting geometry into b.
// Parse never returns an error: §7 reserves hard errors for the entry
// façade (empty input / invalid encoding), which the caller checks before
// calling Parse.
func Parse(b *builder.Builder, src string) {
	st := newState()
	lex := NewLexer(src)

	for !st.done {
		cmd, ok := lex.Next()
		if !ok {
			break
		}
		b.IncrementCommandCount()
		st.dispatch(b, cmd)
	}

	if !st.done {
		b.Warn("truncated file: M02 never observed")
	}
}

func (st *interpState) dispatch(b *builder.Builder, cmd Command) {
	switch cmd.Kind {
	case CmdFormatSpec:
		st.format = coordFormat{intDigits: cmd.IntDigits, decDigits: cmd.DecDigits, set: true}
		if cmd.TrailingZeroSuppress {
			b.Warn("trailing-zero suppression selected; only leading-zero suppression is fully supported")
		}
	case CmdUnits:
		st.inch = cmd.Inch
		st.unitSet = true
	case CmdApertureDef:
		st.defineAperture(b, cmd)
	case CmdMacroDef:
		st.defineMacro(b, cmd)
	case CmdPolarity:
		st.setPolarity(b, cmd.Polarity)
	case CmdSROpen:
		st.srStack = append(st.srStack, srFrame{
			mark: steprepeat.Begin(b), nx: cmd.SRNX, ny: cmd.SRNY,
			stepX: st.toMM(cmd.SRStepX), stepY: st.toMM(cmd.SRStepY),
		})
	case CmdSRClose:
		if len(st.srStack) == 0 {
			b.Warn("%%SR*%% with no matching open block, ignored")
			return
		}
		f := st.srStack[len(st.srStack)-1]
		st.srStack = st.srStack[:len(st.srStack)-1]
		steprepeat.End(b, f.mark, f.nx, f.ny, f.stepX, f.stepY)
	case CmdInterpMode:
		st.mode = cmd.InterpMode
	case CmdQuadMode:
		if cmd.QuadMode == QuadSingle {
			if !st.warnedG74 {
				b.Warn("G74 (single-quadrant arc mode) is deprecated and unsupported; treating as G75")
				st.warnedG74 = true
			}
		}
		st.quad = QuadMulti
	case CmdRegionOpen:
		st.region = regionOpen
		st.regionStart = st.point
		st.regionSegs = nil
	case CmdRegionClose:
		st.closeRegion(b)
	case CmdApertureSelect:
		if _, ok := st.apertures[cmd.SelectID]; !ok {
			b.Warn("aperture D%d selected before definition", cmd.SelectID)
		}
		st.apertureID = cmd.SelectID
	case CmdCoordinate:
		st.handleCoordinate(b, cmd)
	case CmdEndOfFile:
		st.done = true
	case CmdUnsupported:
		b.Warn("unsupported directive: %s", cmd.Detail)
	case CmdMalformed:
		b.Warn("malformed command: %s", cmd.Detail)
	}
}

func (st *interpState) defineAperture(b *builder.Builder, cmd Command) {
	if _, exists := st.apertures[cmd.ApertureID]; exists {
		b.Warn("aperture D%d redefined, last definition wins", cmd.ApertureID)
	}
	ap, ok := st.buildAperture(cmd.ApertureTmpl, cmd.ApertureMods)
	if !ok {
		b.Warn("unrecognised aperture template %q for D%d", cmd.ApertureTmpl, cmd.ApertureID)
		return
	}
	st.apertures[cmd.ApertureID] = ap
}

func (st *interpState) buildAperture(tmpl string, mods []float64) (aperture.Aperture, bool) {
	switch tmpl {
	case "C":
		if len(mods) < 1 {
			return aperture.Aperture{}, false
		}
		return aperture.Aperture{Kind: aperture.Circle, Diameter: st.toMM(mods[0])}, true
	case "R":
		if len(mods) < 2 {
			return aperture.Aperture{}, false
		}
		return aperture.Aperture{Kind: aperture.Rectangle, Width: st.toMM(mods[0]), Height: st.toMM(mods[1])}, true
	case "O":
		if len(mods) < 2 {
			return aperture.Aperture{}, false
		}
		return aperture.Aperture{Kind: aperture.Obround, Width: st.toMM(mods[0]), Height: st.toMM(mods[1])}, true
	case "P":
		if len(mods) < 2 {
			return aperture.Aperture{}, false
		}
		rot := 0.0
		if len(mods) >= 3 {
			rot = mods[2]
		}
		return aperture.Aperture{
			Kind: aperture.Polygon, Diameter: st.toMM(mods[0]),
			VertexCount: int(mods[1]), RotationDeg: rot,
		}, true
	default:
		if _, ok := st.macros[tmpl]; !ok {
			return aperture.Aperture{}, false
		}
		// Parameters stay in the file's native unit; macro.Instantiate
		// applies unit scaling itself, field by field, so that exposure
		// flags, vertex counts, and rotations are never scaled.
		return aperture.Aperture{Kind: aperture.MacroInstance, MacroID: tmpl, Parameters: append([]float64(nil), mods...)}, true
	}
}

func (st *interpState) defineMacro(b *builder.Builder, cmd Command) {
	var prims []macro.Primitive
	for _, line := range cmd.MacroBody {
		if strings.HasPrefix(line, "0") {
			continue // comment primitive
		}
		parts := strings.Split(line, ",")
		code, err := strconv.Atoi(parts[0])
		if err != nil {
			b.Warn("malformed macro primitive %q in %%AM%s%%", line, cmd.MacroName)
			continue
		}
		var exprs []macro.Expr
		for _, raw := range parts[1:] {
			e, err := macro.ParseExpr(raw)
			if err != nil {
				b.Warn("malformed macro expression %q in %%AM%s%%: %v", raw, cmd.MacroName, err)
				e = nil
			}
			exprs = append(exprs, e)
		}
		prims = append(prims, macro.Primitive{Code: macro.PrimitiveCode(code), Modifiers: exprs})
	}
	if _, exists := st.macros[cmd.MacroName]; exists {
		b.Warn("macro %q redefined, last definition wins", cmd.MacroName)
	}
	st.macros[cmd.MacroName] = macro.Template{Name: cmd.MacroName, Primitives: prims}
}

func (st *interpState) setPolarity(b *builder.Builder, p Polarity) {
	if st.polarity == PolarityDark && p == PolarityClear {
		b.OpenClearRange()
	} else if st.polarity == PolarityClear && p == PolarityDark {
		b.CloseClearRange()
	}
	st.polarity = p
}

// macroEvaluator adapts the macro package to the aperture.MacroEvaluator
// signature expected by Flash/DrawLinear/DrawArc.
func (st *interpState) macroEvaluator() aperture.MacroEvaluator {
	return func(b *builder.Builder, macroID string, params []float64, pos geomutil.Point) error {
		tmpl, ok := st.macros[macroID]
		if !ok {
			b.Warn("undefined macro %q referenced by aperture", macroID)
			return nil
		}
		scale := 1.0
		if st.inch {
			scale = 25.4
		}
		return macro.Instantiate(b, tmpl, params, pos, scale)
	}
}

func (st *interpState) handleCoordinate(b *builder.Builder, cmd Command) {
	if !st.unitSet {
		b.Warn("coordinate encountered before %%MO%% unit directive; assuming millimetres")
	}
	if !st.format.set {
		b.Warn("coordinate encountered before %%FS%% format directive; assuming 2.4 format")
		st.format = coordFormat{intDigits: 2, decDigits: 4, set: true}
	}

	target := st.point
	if cmd.HasX {
		v, ok := st.parseCoord(cmd.XRaw)
		if !ok {
			b.Warn("malformed X coordinate %q, skipping command", cmd.XRaw)
			return
		}
		target.X = v
	}
	if cmd.HasY {
		v, ok := st.parseCoord(cmd.YRaw)
		if !ok {
			b.Warn("malformed Y coordinate %q, skipping command", cmd.YRaw)
			return
		}
		target.Y = v
	}

	switch cmd.DCode {
	case 2:
		st.point = target
		if st.region == regionOpen || st.region == regionCollecting {
			st.regionStart = target
			st.region = regionCollecting
			st.regionSegs = nil
		}
	case 3:
		st.point = target
		ap, ok := st.apertures[st.apertureID]
		if !ok {
			b.Warn("flash with no aperture selected, skipping")
			return
		}
		aperture.Flash(b, ap, target, st.macroEvaluator())
	case 1:
		var offset geomutil.Point
		if cmd.HasI {
			v, ok := st.parseCoord(cmd.IRaw)
			if ok {
				offset.X = v
			}
		}
		if cmd.HasJ {
			v, ok := st.parseCoord(cmd.JRaw)
			if ok {
				offset.Y = v
			}
		}

		if st.region == regionOpen || st.region == regionCollecting {
			st.region = regionCollecting
			if st.mode == ModeLinear {
				st.regionSegs = append(st.regionSegs, region.Segment{Kind: region.Line, To: target})
			} else {
				dir := arctess.CCW
				if st.mode == ModeCWArc {
					dir = arctess.CW
				}
				st.regionSegs = append(st.regionSegs, region.Segment{Kind: region.Arc, To: target, CenterOffset: offset, Direction: dir})
			}
			st.point = target
			return
		}

		ap, ok := st.apertures[st.apertureID]
		if !ok {
			b.Warn("draw with no aperture selected, skipping")
			st.point = target
			return
		}
		from := st.point
		if st.mode == ModeLinear {
			stroke.DrawLinear(b, from, target, ap, st.macroEvaluator())
		} else {
			dir := arctess.CCW
			if st.mode == ModeCWArc {
				dir = arctess.CW
			}
			arctess.DrawArc(b, from, target, offset, dir, ap, st.macroEvaluator())
		}
		st.point = target
	default:
		st.point = target
	}
}

func (st *interpState) closeRegion(b *builder.Builder) {
	if st.region == regionOff {
		b.Warn("G37 with no matching G36, ignored")
		return
	}
	region.Fill(b, st.regionStart, st.regionSegs)
	st.region = regionOff
	st.regionSegs = nil
}

// toMM converts a raw-format numeric value (already scaled per coordinate
// format for coordinates, or a direct decimal for aperture modifiers) from
// the current unit to millimetres.
func (st *interpState) toMM(v float64) float64 {
	if st.inch {
		return v * 25.4
	}
	return v
}

// parseCoord applies the current coordinate format (fixed-point,
// leading-zero-suppressed) to a raw digit string, then converts to mm.
func (st *interpState) parseCoord(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	if strings.ContainsAny(raw, ".") {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, false
		}
		return st.toMM(v), true
	}
	neg := false
	s := raw
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	iv, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	v := float64(iv) / math.Pow(10, float64(st.format.decDigits))
	if neg {
		v = -v
	}
	return st.toMM(v), true
}
