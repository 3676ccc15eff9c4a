package emu

import "math"

const (
	// cutoffCenter6581 is the DAC output at the midpoint of the 6581
	// cutoff curve; indexes are taken relative to it.
	cutoffCenter6581 = 1024
	// cutoffBase6581 is the w0*T term at the curve midpoint.
	cutoffBase6581 = 0x1400
	// cutoffIndexMax bounds the curve index. Values outside the measured
	// range are clamped, not wrapped.
	cutoffIndexMax = 1023

	// dcOffset6581 approximates the 6581's voice DC level, about 1/18 of
	// one voice's dynamic range, applied to the unfiltered path.
	dcOffset6581 = -(4096 * 255) / 18
)

// resonance8580 is 1/Q << 8 for each 4-bit resonance setting of the 8580:
// ceil(256 * 2^((4-r)/8)).
var resonance8580 = func() [16]int16 {
	var t [16]int16
	for r := 0; r < 16; r++ {
		t[r] = int16(math.Ceil(256 * math.Pow(2, float64(4-r)/8)))
	}
	return t
}()

// madd is the signed 16x16 multiply-accumulate step shared by every filter
// stage: c + a*b, or c - a*b when sub is set.
func madd(c int32, sub bool, a, b int16) int32 {
	p := int32(a) * int32(b)
	if sub {
		return c - p
	}
	return c + p
}

// filter is the state-variable filter and output mixer of one chip.
type filter struct {
	model Model
	curve *[cutoffTableSize]int16
	dac   func(uint16) uint16

	// Accumulators. Each sample updates band-pass, then low-pass, then
	// high-pass; each stage feeds the next.
	lp, bp, hp int32

	// Register mirror
	fc   uint16 // 11-bit cutoff
	res  uint8  // 4-bit resonance
	filt uint8  // voices 1-3 and EXT IN routed through the filter
	mode uint8  // LP, BP, HP, voice 3 off
	vol  uint8  // 4-bit master volume
	ext  int32  // EXT IN sample, voice units
}

func (f *filter) init(model Model, curve *[cutoffTableSize]int16, dac func(uint16) uint16) {
	f.model = model
	f.curve = curve
	f.dac = dac
}

func (f *filter) reset() {
	f.lp, f.bp, f.hp = 0, 0, 0
	f.fc, f.res, f.filt, f.mode, f.vol = 0, 0, 0, 0, 0
	f.ext = 0
}

// cutoff returns the w0*T coefficient for the current cutoff register.
func (f *filter) cutoff() int16 {
	if f.model == Model8580 {
		return int16(f.fc<<2 + f.fc)
	}

	x := int32(f.dac(f.fc&0x7FF)) - cutoffCenter6581
	if x > cutoffIndexMax {
		x = cutoffIndexMax
	} else if x < -cutoffIndexMax {
		x = -cutoffIndexMax
	}
	// The curve is odd-symmetric about the midpoint; only the
	// non-negative half is stored.
	w := int32(cutoffBase6581)
	if x < 0 {
		w -= int32(f.curve[-x])
	} else {
		w += int32(f.curve[x])
	}
	return int16(clampInt32(w, 0, math.MaxInt16))
}

// resonance returns 1/Q << 8 for the current resonance register.
func (f *filter) resonance() int16 {
	if f.model == Model8580 {
		return resonance8580[f.res&0x0F]
	}
	return int16(^f.res&0x0F) << 5
}

// clock runs the filter for one sample over the three voice samples and
// returns the mixed, volume-scaled chip output.
func (f *filter) clock(v [3]int32) int32 {
	w0T := f.cutoff()
	q8 := f.resonance()

	var vi, vd int32
	for i := 0; i < 3; i++ {
		switch {
		case f.filt&(1<<uint(i)) != 0:
			vi += v[i]
		case i == 2 && f.mode&modeVoice3Off != 0:
		default:
			vd += v[i]
		}
	}
	if f.filt&0x08 != 0 {
		vi += f.ext
	} else {
		vd += f.ext
	}
	if f.model == Model6581 {
		vd += dcOffset6581
	}

	p := madd(0, true, w0T, sample16(f.hp))
	f.bp += p >> 9
	p = madd(0, true, w0T, sample16(f.bp))
	f.lp += p >> 9
	p = madd(0, false, q8, sample16(f.bp))
	f.hp = p - (f.lp + vi)

	mix := vd
	if f.mode&modeLP != 0 {
		mix += f.lp
	}
	if f.mode&modeBP != 0 {
		mix += f.bp
	}
	if f.mode&modeHP != 0 {
		mix += f.hp
	}
	return madd(0, false, int16(f.vol), sample16(mix))
}

// sample16 narrows an accumulator to a multiplier operand: the top 16 bits
// of a 24-bit value, saturated.
func sample16(x int32) int16 {
	return int16(clampInt32(x>>8, math.MinInt16, math.MaxInt16))
}
