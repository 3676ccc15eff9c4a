package emu

import "testing"

func TestNoise_ResetState(t *testing.T) {
	var n noiseGen
	n.reset()
	if n.lfsr != noiseMask {
		t.Errorf("lfsr = %06X, want %06X", n.lfsr, noiseMask)
	}
	if got := n.output(); got != 0xFF {
		t.Errorf("output = %02X, want FF", got)
	}
}

func TestShiftNoise(t *testing.T) {
	if got := shiftNoise(noiseMask, false); got != 0x7FFFFE {
		t.Errorf("first shift = %06X, want 7FFFFE", got)
	}
	// Feedback is bit 22 xor bit 17; a released register feeds a one in
	// place of bit 22.
	if got := shiftNoise(1<<17, false); got != 1<<18|1 {
		t.Errorf("bit 17 only: %06X, want %06X", got, 1<<18|1)
	}
	if got := shiftNoise(0, true); got != 1 {
		t.Errorf("released from zero: %06X, want 000001", got)
	}
	if got := shiftNoise(1<<22, false); got != 1 {
		t.Errorf("bit 22 only: %06X, want 000001", got)
	}
}

func TestNoiseTaps(t *testing.T) {
	if got := noiseTapBits(0x7FFFFE); got != 0xFE {
		t.Errorf("taps of 7FFFFE = %02X, want FE", got)
	}
	for i, bit := range noiseTaps {
		if got := noiseTapBits(1 << bit); got != 1<<uint(i) {
			t.Errorf("tap %d (bit %d): output %02X", i, bit, got)
		}
	}

	var tapMask uint32
	for _, bit := range noiseTaps {
		tapMask |= 1 << bit
	}
	if got := setNoiseTaps(noiseMask, 0); got != noiseMask&^tapMask {
		t.Errorf("clear taps = %06X, want %06X", got, noiseMask&^tapMask)
	}
	if got := setNoiseTaps(0, 0xA5); noiseTapBits(got) != 0xA5 || got&^tapMask != 0 {
		t.Errorf("set taps A5 = %06X", got)
	}
}

func TestNoise_TwoSampleDelay(t *testing.T) {
	var n noiseGen
	n.reset()

	steps := []struct {
		phase uint32
		want  uint32
	}{
		{0, noiseMask},
		{oscBit19, noiseMask}, // bit 19 rises
		{oscBit19, noiseMask},
		{oscBit19, 0x7FFFFE}, // clocked two samples later
		{oscBit19, 0x7FFFFE},
	}
	for i, s := range steps {
		n.clock(s.phase, false, false, noiseTTL6581)
		if n.lfsr != s.want {
			t.Errorf("sample %d: lfsr = %06X, want %06X", i, n.lfsr, s.want)
		}
	}
}

func TestNoise_TestHoldsAllOnes(t *testing.T) {
	var n noiseGen
	n.reset()
	n.lfsr = 0x123456
	for i := 0; i < 4; i++ {
		phase := uint32(0)
		if i%2 == 1 {
			phase = oscBit19
		}
		n.clock(phase, true, true, noiseTTL6581)
		if n.lfsr != noiseMask {
			t.Fatalf("sample %d: lfsr = %06X under test", i, n.lfsr)
		}
	}
}

func TestNoise_ReleaseFeedsOne(t *testing.T) {
	var n noiseGen
	n.reset()
	n.clock(0, true, false, noiseTTL6581)
	n.clock(0, false, false, noiseTTL6581)
	if !n.released {
		t.Fatal("release not latched")
	}

	n.lfsr = 0
	n.clock(oscBit19, false, false, noiseTTL6581)
	n.clock(oscBit19, false, false, noiseTTL6581)
	n.clock(oscBit19, false, false, noiseTTL6581)
	if n.lfsr != 1 {
		t.Errorf("first shift after release = %06X, want 000001", n.lfsr)
	}
	if n.released {
		t.Error("release latch not cleared by the shift")
	}
}

func TestNoise_Decay(t *testing.T) {
	for _, ttl := range []uint32{noiseTTL6581, noiseTTL8580} {
		var n noiseGen
		n.reset()
		n.lfsr = 0x123456
		n.bit19 = true

		// Bit 19 held high: no edges.
		n.clock(oscBit19, false, false, ttl)
		for i := uint32(1); i < ttl; i++ {
			n.clock(oscBit19, false, true, ttl)
		}
		if n.lfsr != 0x123456 {
			t.Fatalf("ttl %d: decayed early, lfsr = %06X", ttl, n.lfsr)
		}
		// Samples without a tick do not age the register.
		n.clock(oscBit19, false, false, ttl)
		if n.lfsr != 0x123456 {
			t.Fatalf("ttl %d: aged without tick", ttl)
		}
		n.clock(oscBit19, false, true, ttl)
		if n.lfsr != noiseMask {
			t.Errorf("ttl %d: lfsr = %06X after %d ticks, want all ones", ttl, n.lfsr, ttl)
		}

		// Further ticks keep it at all ones until a real edge shifts it.
		for i := 0; i < 1000; i++ {
			n.clock(oscBit19, false, true, ttl)
		}
		n.clock(0, false, true, ttl)
		if n.lfsr != noiseMask {
			t.Fatalf("ttl %d: decayed register moved to %06X without an edge", ttl, n.lfsr)
		}
		n.clock(oscBit19, false, true, ttl) // bit 19 rises
		n.clock(oscBit19, false, true, ttl)
		n.clock(oscBit19, false, true, ttl)
		if n.lfsr != 0x7FFFFE {
			t.Errorf("ttl %d: first shift after decay = %06X, want 7FFFFE", ttl, n.lfsr)
		}
		if n.age != 0 {
			t.Errorf("ttl %d: age = %d after edge, want 0", ttl, n.age)
		}
	}
}

func TestNoise_WritebackBeforeShift(t *testing.T) {
	var n noiseGen
	n.reset()
	n.writeback(0x00)

	n.clock(0, false, false, noiseTTL6581)
	if n.lfsr != noiseMask {
		t.Fatal("writeback applied without a clock edge")
	}
	n.clock(oscBit19, false, false, noiseTTL6581)
	n.clock(oscBit19, false, false, noiseTTL6581)
	n.clock(oscBit19, false, false, noiseTTL6581)

	want := shiftNoise(setNoiseTaps(noiseMask, 0x00), false)
	if n.lfsr != want {
		t.Errorf("lfsr = %06X, want %06X", n.lfsr, want)
	}
	if n.wbPending {
		t.Error("writeback still pending after edge")
	}
}

func TestChip_NoiseOutput(t *testing.T) {
	c := newTestChip(t, Model6581)
	c.WriteRegister(regPWLo, 0xFF)
	c.WriteRegister(regPWHi, 0x0F)
	c.WriteRegister(regControl, ctrlNoise)
	c.Clock(false)
	if got := c.VoiceOutput(0); got != 0xFF0 {
		t.Errorf("noise from all ones: out = %03X, want FF0", got)
	}
	if c.voice[0].noise.wbPending {
		t.Error("noise alone must not write back")
	}

	// Noise + pulse with the pulse low pulls every bit to zero and feeds
	// that back to the register.
	c.WriteRegister(regControl, ctrlNoise|ctrlPulse)
	c.Clock(false)
	if got := c.VoiceOutput(0); got != 0 {
		t.Errorf("noise+pulse low: out = %03X, want 0", got)
	}
	if !c.voice[0].noise.wbPending || c.voice[0].noise.wbValue != 0 {
		t.Errorf("writeback pending=%v value=%02X, want true 00",
			c.voice[0].noise.wbPending, c.voice[0].noise.wbValue)
	}
}

// A combined selection that is dropped before the next edge leaves the
// shift register on the same sequence as plain noise.
func TestChip_NoiseWritebackNeedsCurrentSelection(t *testing.T) {
	for _, ctrl := range []uint8{ctrlNoise | ctrlPulse, ctrlNoise | ctrlSawtooth, ctrlNoise | ctrlTriangle} {
		a := newTestChip(t, Model6581)
		b := newTestChip(t, Model6581)
		for _, c := range []*Chip{a, b} {
			zeroPhases(c)
			c.WriteRegister(regPWLo, 0xFF)
			c.WriteRegister(regPWHi, 0x0F)
			c.SetFrequency(0, 0x1000)
		}

		a.WriteRegister(regControl, ctrl)
		b.WriteRegister(regControl, ctrlNoise)
		a.Clock(false)
		b.Clock(false)
		if !a.voice[0].noise.wbPending {
			t.Fatalf("control %02X did not queue a writeback", ctrl)
		}

		a.WriteRegister(regControl, ctrlNoise)
		for i := 0; i < 0x200; i++ {
			a.Clock(false)
			b.Clock(false)
			if a.voice[0].noise.wbPending {
				t.Fatalf("control %02X sample %d: writeback still queued with noise alone", ctrl, i)
			}
			if a.voice[0].noise.lfsr != b.voice[0].noise.lfsr {
				t.Fatalf("control %02X sample %d: lfsr = %06X, want %06X",
					ctrl, i, a.voice[0].noise.lfsr, b.voice[0].noise.lfsr)
			}
			if a.VoiceOutput(0) != b.VoiceOutput(0) {
				t.Fatalf("control %02X sample %d: out = %03X, want %03X",
					ctrl, i, a.VoiceOutput(0), b.VoiceOutput(0))
			}
		}
		if a.voice[0].noise.lfsr == noiseMask {
			t.Errorf("control %02X: no edge reached the register", ctrl)
		}
	}
}

// Noise alone ignores the pulse width and the comparator state.
func TestChip_NoiseIgnoresPulse(t *testing.T) {
	lo := newTestChip(t, Model6581)
	hi := newTestChip(t, Model6581)
	for _, c := range []*Chip{lo, hi} {
		zeroPhases(c)
		c.SetFrequency(0, 0x4000)
		c.WriteRegister(regControl, ctrlNoise)
	}
	hi.WriteRegister(regPWLo, 0xFF)
	hi.WriteRegister(regPWHi, 0x0F)

	sawPulse := false
	for i := 0; i < 0x400; i++ {
		lo.Clock(false)
		hi.Clock(false)
		if lo.voice[0].osc.pulse != hi.voice[0].osc.pulse {
			sawPulse = true
		}
		if a, b := lo.VoiceOutput(0), hi.VoiceOutput(0); a != b {
			t.Fatalf("sample %d: out %03X with width 0, %03X with width FFF", i, a, b)
		}
		if lo.VoiceOutput(0)&0x00F != 0 {
			t.Fatalf("sample %d: low nibble set in %03X", i, lo.VoiceOutput(0))
		}
	}
	if !sawPulse {
		t.Error("pulse comparators never differed")
	}
}
