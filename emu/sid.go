package emu

import (
	"errors"
	"fmt"
	"strings"
)

// Model selects the SID chip revision.
type Model uint8

const (
	Model6581 Model = iota // NMOS, nonlinear filter cutoff
	Model8580              // HMOS-II, linear filter cutoff
)

// String returns the part number of the model.
func (m Model) String() string {
	if m == Model8580 {
		return "8580"
	}
	return "6581"
}

// ParseModel converts a part number ("6581" or "8580") to a Model.
func ParseModel(s string) (Model, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "6581", "mos6581":
		return Model6581, nil
	case "8580", "mos8580":
		return Model8580, nil
	}
	return Model6581, fmt.Errorf("unknown SID model %q (use 6581 or 8580)", s)
}

// Register offsets within one chip. Voice registers repeat every 7 bytes.
const (
	regFreqLo   = 0x00
	regFreqHi   = 0x01
	regPWLo     = 0x02
	regPWHi     = 0x03 // bits 0-3 only
	regControl  = 0x04
	regAD       = 0x05
	regSR       = 0x06
	regFCLo     = 0x15 // bits 0-2 only
	regFCHi     = 0x16
	regResFilt  = 0x17 // resonance (bits 4-7), filter routing (bits 0-3)
	regModeVol  = 0x18 // mode (bits 4-7), volume (bits 0-3)
	regPotX     = 0x19
	regPotY     = 0x1A
	regOsc3     = 0x1B
	regEnv3     = 0x1C
	voiceStride = 7

	// FrameRegisters is the number of writable registers per chip.
	FrameRegisters = 0x19
)

// Control register bits.
const (
	ctrlGate     = 0x01
	ctrlSync     = 0x02
	ctrlRing     = 0x04
	ctrlTest     = 0x08
	ctrlTriangle = 0x10
	ctrlSawtooth = 0x20
	ctrlPulse    = 0x40
	ctrlNoise    = 0x80
)

// Mode/volume register bits (high nibble, shifted down).
const (
	modeLP        = 0x01
	modeBP        = 0x02
	modeHP        = 0x04
	modeVoice3Off = 0x08
)

// ErrNoTables is returned when a chip is created without lookup data.
var ErrNoTables = errors.New("sid: no lookup tables supplied")

// voice holds all per-voice pipeline state. Each voice exclusively owns its
// oscillator, noise, fade and envelope state.
type voice struct {
	osc   oscillator
	noise noiseGen
	wave0 wave0Fade
	env   envelope

	control uint8
	pw      uint16 // 12-bit pulse width threshold

	stLatch uint16 // sawtooth/triangle value held for the 8580 latch delay
	out     uint16 // 12-bit waveform output of the current sample
	muted   bool   // host-side mute, not chip state
}

// ChipConfig describes one SID instance.
type ChipConfig struct {
	Model  Model
	Tables *Tables

	// DAC converts the 11-bit cutoff register into the voltage domain
	// value used by the 6581 cutoff curve. When nil, the DAC from the
	// table dataset is used, falling back to an ideal converter.
	DAC func(fc uint16) uint16
}

// Chip is one MOS 6581/8580 SID. It is clocked once per output sample and
// is not safe for concurrent use.
type Chip struct {
	model  Model
	tables *Tables

	voice  [3]voice
	filter filter

	resetHeld bool
	out       int32
}

// NewChip creates a chip in its power-on state. Missing lookup data is
// reported here, before any sample is produced.
func NewChip(cfg ChipConfig) (*Chip, error) {
	if cfg.Tables == nil {
		return nil, ErrNoTables
	}
	dac := cfg.DAC
	if dac == nil {
		dac = cfg.Tables.CutoffDAC()
	}
	c := &Chip{
		model:  cfg.Model,
		tables: cfg.Tables,
	}
	c.filter.init(cfg.Model, &cfg.Tables.cutoff, dac)
	c.Reset()
	return c, nil
}

// Model returns the chip revision.
func (c *Chip) Model() Model {
	return c.model
}

// Reset returns the chip to its power-on state. Voice mutes are preserved
// since they are host-side settings.
func (c *Chip) Reset() {
	for i := range c.voice {
		v := &c.voice[i]
		muted := v.muted
		*v = voice{muted: muted}
		v.osc.phase = oscPowerOn
		v.noise.reset()
		v.env.reset()
	}
	c.filter.reset()
	c.resetHeld = false
	c.out = 0
}

// SetReset holds or releases the chip reset line. While held, oscillators
// sit at the power-on pattern, noise registers are all ones and envelopes
// are silent.
func (c *Chip) SetReset(held bool) {
	if held && !c.resetHeld {
		for i := range c.voice {
			c.voice[i].env.reset()
		}
	}
	c.resetHeld = held
}

// SetVoiceMute removes a voice from the audio path without altering its
// waveform generation.
func (c *Chip) SetVoiceMute(v int, muted bool) {
	if v >= 0 && v < 3 {
		c.voice[v].muted = muted
	}
}

// VoiceMuted reports whether a voice is muted.
func (c *Chip) VoiceMuted(v int) bool {
	if v < 0 || v > 2 {
		return false
	}
	return c.voice[v].muted
}

// SetExternalInput sets the EXT IN sample, in voice units.
func (c *Chip) SetExternalInput(sample int32) {
	c.filter.ext = sample
}

// WriteRegister writes one of the 25 writable registers.
func (c *Chip) WriteRegister(reg uint8, val uint8) {
	if reg < regFCLo {
		c.writeVoiceRegister(int(reg/voiceStride), reg%voiceStride, val)
		return
	}
	switch reg {
	case regFCLo:
		c.filter.fc = (c.filter.fc & 0x7F8) | uint16(val&0x07)
	case regFCHi:
		c.filter.fc = (c.filter.fc & 0x007) | uint16(val)<<3
	case regResFilt:
		c.filter.res = val >> 4
		c.filter.filt = val & 0x0F
	case regModeVol:
		c.filter.mode = val >> 4
		c.filter.vol = val & 0x0F
	}
}

// writeVoiceRegister decodes a register in a voice's 7-byte block.
func (c *Chip) writeVoiceRegister(n int, reg uint8, val uint8) {
	v := &c.voice[n]
	switch reg {
	case regFreqLo:
		v.osc.freq = (v.osc.freq & 0xFF00) | uint32(val)
	case regFreqHi:
		v.osc.freq = (v.osc.freq & 0x00FF) | uint32(val)<<8
	case regPWLo:
		v.pw = (v.pw & 0xF00) | uint16(val)
	case regPWHi:
		v.pw = (v.pw & 0x0FF) | uint16(val&0x0F)<<8
	case regControl:
		v.control = val
		v.env.setGate(val&ctrlGate != 0)
	case regAD:
		v.env.setAttackDecay(val)
	case regSR:
		v.env.setSustainRelease(val)
	}
}

// ReadRegister reads a chip register. Only the voice 3 oscillator and
// envelope, and the paddle inputs, are readable; the rest read as zero.
func (c *Chip) ReadRegister(reg uint8) uint8 {
	switch reg {
	case regPotX, regPotY:
		return 0xFF
	case regOsc3:
		return uint8(c.voice[2].out >> 4)
	case regEnv3:
		return c.voice[2].env.counter
	}
	return 0
}

// SetFrequency sets a voice's oscillator increment directly. The
// increment is 20 bits wide; the register interface only reaches the
// low 16.
func (c *Chip) SetFrequency(v int, inc uint32) {
	c.voice[v].osc.freq = inc & freqMask
}

// Phase returns a voice's 24-bit oscillator phase.
func (c *Chip) Phase(v int) uint32 {
	return c.voice[v].osc.phase
}

// VoiceOutput returns a voice's 12-bit waveform sample.
func (c *Chip) VoiceOutput(v int) uint16 {
	return c.voice[v].out
}

// Envelope returns a voice's 8-bit envelope level.
func (c *Chip) Envelope(v int) uint8 {
	return c.voice[v].env.counter
}

// Output returns the signed filtered and mixed chip sample.
func (c *Chip) Output() int32 {
	return c.out
}

// Clock evaluates one sample. tick marks the passing of one unit of
// elapsed time for the decay counters.
//
// The evaluation order is fixed: oscillators, noise, waveform selection,
// envelopes, then the filter.
func (c *Chip) Clock(tick bool) {
	c.clockOscillators()

	noiseTTL := noiseTTL6581
	if c.model == Model8580 {
		noiseTTL = noiseTTL8580
	}
	for i := range c.voice {
		v := &c.voice[i]
		v.noise.clock(v.osc.phase, c.resetHeld || v.control&ctrlTest != 0, tick, noiseTTL)
	}

	for i := range c.voice {
		c.voice[i].out = c.waveform(i, tick)
	}

	if !c.resetHeld {
		for i := range c.voice {
			c.voice[i].env.clock()
		}
	}

	var in [3]int32
	for i := range c.voice {
		v := &c.voice[i]
		if v.muted {
			continue
		}
		in[i] = (int32(v.out) - 0x800) * int32(v.env.counter)
	}
	c.out = c.filter.clock(in)
}
