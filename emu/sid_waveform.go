package emu

// Waveform select values: control register bits 4-7 shifted down.
const (
	wfTriangle = 0x1
	wfSawtooth = 0x2
	wfPulse    = 0x4
	wfNoise    = 0x8

	wfST  = wfSawtooth | wfTriangle
	wfPT  = wfPulse | wfTriangle
	wfPS  = wfPulse | wfSawtooth
	wfPST = wfPulse | wfSawtooth | wfTriangle
)

// sawTri returns the 12-bit sawtooth/triangle value of a voice. The low 11
// bits are inverted while the (ring modulated) MSB is set, unless the
// sawtooth is selected; selecting the triangle shifts the result up one bit.
func (c *Chip) sawTri(n int) uint16 {
	v := &c.voice[n]
	st := uint16(v.osc.phase>>12) & 0xFFF
	if v.control&ctrlSawtooth == 0 {
		msb := v.osc.phase&oscMSB != 0
		if v.control&ctrlRing != 0 {
			msb = msb != (c.voice[syncSource[n]].osc.phase&oscMSB != 0)
		}
		if msb {
			st ^= 0x7FF
		}
	}
	if v.control&ctrlTriangle != 0 {
		st = (st << 1) & 0xFFF
	}
	return st
}

// waveform produces a voice's 12-bit output for this sample.
func (c *Chip) waveform(n int, tick bool) uint16 {
	v := &c.voice[n]

	st := c.sawTri(n)
	if c.model == Model8580 {
		// The 8580 latches the sawtooth/triangle one sample later.
		st, v.stLatch = v.stLatch, st
	}

	var pulse uint16
	if v.osc.pulse {
		pulse = 0xFFF
	}

	// Only the previous sample's selection may write into the taps.
	v.noise.wbPending = false

	sel := v.control >> 4
	if sel == 0 {
		ttl := wave0TTL6581
		if c.model == Model8580 {
			ttl = wave0TTL8580
		}
		return v.wave0.hold(tick, ttl)
	}

	var out uint16
	switch sel & wfPST {
	case wfTriangle, wfSawtooth:
		out = st
	case wfST:
		out = combinedST(st)
	case wfPulse:
		out = pulse
	case wfPT:
		out = uint16(c.tables.PT(c.model, st>>1)) << 4 & pulse
	case wfPS:
		out = uint16(c.tables.PS(c.model, st)) << 4 & pulse
	case wfPST:
		out = combinedPST(st) & pulse
	}

	if sel&wfNoise != 0 {
		// The 8 tap bits drive output bits 11..4; bits 3..0 stay low.
		noise := uint16(v.noise.output()) << 4
		if sel == wfNoise {
			out = noise
		} else {
			// Noise can only pull bits low. The masked value is also
			// driven back into the shift register. Effects on
			// neighbouring bits have not been verified.
			out &= noise | 0x00F
			v.noise.writeback(uint8(out >> 4))
		}
	}

	v.wave0.refresh(out)
	return out
}

// combinedST is the sawtooth+triangle combination. An output bit survives
// only where the two bits below it are also set.
func combinedST(st uint16) uint16 {
	return st & (st << 1) & (st << 2) & 0xFF0
}

// combinedPST is the pulse+sawtooth+triangle combination before pulse
// gating. It is silent in the lower half of the cycle and otherwise keeps
// an output bit only where the three bits below it are set.
func combinedPST(st uint16) uint16 {
	if st&0x800 == 0 {
		return 0
	}
	return st & (st << 1) & (st << 2) & (st << 3) & 0xFF0
}
