package emu

import "testing"

func TestParseModel(t *testing.T) {
	tests := []struct {
		in   string
		want Model
	}{
		{"6581", Model6581},
		{"8580", Model8580},
		{"MOS8580", Model8580},
		{" mos6581", Model6581},
	}
	for _, tt := range tests {
		got, err := ParseModel(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseModel(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if got.String() != tt.want.String() {
			t.Errorf("String mismatch for %q", tt.in)
		}
	}
	if _, err := ParseModel("6582"); err == nil {
		t.Error("ParseModel(6582): expected error")
	}
}

// playNote sets voice v to a gated sawtooth with instant attack and full
// sustain.
func playNote(c *Chip, v int) {
	base := uint8(v * voiceStride)
	c.WriteRegister(base+regFreqLo, 0x00)
	c.WriteRegister(base+regFreqHi, 0x40)
	c.WriteRegister(base+regAD, 0x00)
	c.WriteRegister(base+regSR, 0xF0)
	c.WriteRegister(base+regControl, ctrlGate|ctrlSawtooth)
	c.WriteRegister(regModeVol, 0x0F)
}

func TestChip_Mute(t *testing.T) {
	c := newTestChip(t, Model8580)
	playNote(c, 0)
	c.SetVoiceMute(0, true)
	if !c.VoiceMuted(0) {
		t.Fatal("VoiceMuted(0) = false after mute")
	}

	var moved bool
	first := c.VoiceOutput(0)
	for i := 0; i < 5000; i++ {
		c.Clock(false)
		if c.Output() != 0 {
			t.Fatalf("sample %d: muted voice reached output (%d)", i, c.Output())
		}
		if c.VoiceOutput(0) != first {
			moved = true
		}
	}
	if !moved {
		t.Error("muted voice stopped generating its waveform")
	}

	c.SetVoiceMute(0, false)
	var heard bool
	for i := 0; i < 5000; i++ {
		c.Clock(false)
		if c.Output() != 0 {
			heard = true
		}
	}
	if !heard {
		t.Error("unmuted voice is silent")
	}

	if c.VoiceMuted(3) || c.VoiceMuted(-1) {
		t.Error("out of range voice reported muted")
	}
}

func TestChip_ResetKeepsMute(t *testing.T) {
	c := newTestChip(t, Model6581)
	playNote(c, 1)
	c.SetVoiceMute(1, true)
	for i := 0; i < 1000; i++ {
		c.Clock(false)
	}
	c.Reset()
	if !c.VoiceMuted(1) {
		t.Error("Reset cleared a host mute")
	}
	if c.Phase(1) != oscPowerOn || c.Envelope(1) != 0 {
		t.Errorf("Reset: phase %06X env %d", c.Phase(1), c.Envelope(1))
	}
	if c.voice[1].noise.lfsr != noiseMask {
		t.Errorf("Reset: lfsr %06X", c.voice[1].noise.lfsr)
	}
}

func TestChip_ResetHoldsNoise(t *testing.T) {
	c := newTestChip(t, Model6581)
	c.SetFrequency(0, 0x80000) // bit 19 rises every other sample
	c.WriteRegister(regControl, ctrlNoise)
	for i := 0; i < 200; i++ {
		c.Clock(false)
	}
	if c.voice[0].noise.lfsr == noiseMask {
		t.Fatal("noise register never clocked")
	}

	c.SetReset(true)
	c.Clock(false)
	if c.voice[0].noise.lfsr != noiseMask {
		t.Errorf("reset held: lfsr = %06X, want all ones", c.voice[0].noise.lfsr)
	}
	if c.Phase(0) != oscPowerOn {
		t.Errorf("reset held: phase = %06X", c.Phase(0))
	}
}

func TestChip_FilterRegisters(t *testing.T) {
	c := newTestChip(t, Model8580)
	c.WriteRegister(regFCLo, 0xFF)
	c.WriteRegister(regFCHi, 0xAB)
	if c.filter.fc != 0xAB<<3|0x07 {
		t.Errorf("fc = %03X, want %03X", c.filter.fc, 0xAB<<3|0x07)
	}
	c.WriteRegister(regResFilt, 0xC5)
	if c.filter.res != 0xC || c.filter.filt != 0x5 {
		t.Errorf("res/filt = %X/%X", c.filter.res, c.filter.filt)
	}
	c.WriteRegister(regModeVol, 0x9A)
	if c.filter.mode != modeVoice3Off|modeLP || c.filter.vol != 0xA {
		t.Errorf("mode/vol = %X/%X", c.filter.mode, c.filter.vol)
	}
	c.WriteRegister(regPWLo, 0x34)
	c.WriteRegister(regPWHi, 0xF2)
	if c.voice[0].pw != 0x234 {
		t.Errorf("pw = %03X, want 234", c.voice[0].pw)
	}
}

func TestChip_SerializeContinuation(t *testing.T) {
	for _, m := range []Model{Model6581, Model8580} {
		t.Run(m.String(), func(t *testing.T) {
			a := newTestChip(t, m)
			playNote(a, 0)
			playNote(a, 2)
			a.WriteRegister(voiceStride+regControl, ctrlGate|ctrlNoise|ctrlPulse)
			a.WriteRegister(voiceStride+regFreqHi, 0x22)
			a.WriteRegister(regResFilt, 0xF3)
			a.WriteRegister(regModeVol, 0x1F)
			a.WriteRegister(regFCHi, 0x40)
			for i := 0; i < 3000; i++ {
				a.Clock(i%985 == 0)
			}

			buf := make([]byte, ChipSerializeSize)
			if err := a.Serialize(buf); err != nil {
				t.Fatalf("Serialize: %v", err)
			}

			b := newTestChip(t, m)
			if err := b.Deserialize(buf); err != nil {
				t.Fatalf("Deserialize: %v", err)
			}
			for i := 0; i < 3000; i++ {
				tick := i%985 == 0
				a.Clock(tick)
				b.Clock(tick)
				if a.Output() != b.Output() {
					t.Fatalf("sample %d: restored chip diverged: %d vs %d", i, b.Output(), a.Output())
				}
			}
		})
	}
}

func TestChip_DeserializeErrors(t *testing.T) {
	a := newTestChip(t, Model6581)
	buf := make([]byte, ChipSerializeSize)
	if err := a.Serialize(buf); err != nil {
		t.Fatal(err)
	}

	b := newTestChip(t, Model8580)
	if err := b.Deserialize(buf); err == nil {
		t.Error("expected model mismatch error")
	}
	if err := a.Deserialize(buf[:10]); err == nil {
		t.Error("expected short buffer error")
	}
	if err := a.Serialize(buf[:10]); err == nil {
		t.Error("expected small buffer error")
	}
	buf[0] = 99
	if err := a.Deserialize(buf); err == nil {
		t.Error("expected version error")
	}
}
