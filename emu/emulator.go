package emu

import "fmt"

// Emulator plays a Song on one or two SID chips and produces 48 kHz
// stereo PCM, one video frame at a time.
type Emulator struct {
	chips   []*Chip
	song    *Song
	songCRC uint32

	// Playback position
	frame    int  // next song frame to apply
	finished bool // song ran off its last frame with no loop

	// Region timing
	region        Region
	timing        RegionTiming
	cycleRem      int // fractional cycles carried between frames, in 1/FPS units
	cyclesPerTick int
	tickCount     int // cycles since the last elapsed-time tick

	// Resampler: chip samples are box-averaged between output samples.
	resampAccum int
	boxSum      [2]int64
	boxCount    int

	// Pre-allocated audio buffer for external consumption
	audioBuffer []int16

	// Per-voice oscilloscope capture at the output rate, cleared each frame
	scope [MaxChips][3][]int16

	// C64 output stage state (persists across frames)
	lpfPrev  [2]float64
	dcPrevIn [2]float64
	dcPrev   [2]float64
}

// NewEmulator creates an emulator for song. Every chip shares the lookup
// tables.
func NewEmulator(song *Song, tables *Tables) (*Emulator, error) {
	if err := song.Validate(); err != nil {
		return nil, err
	}

	timing := GetTimingForRegion(song.Region)
	e := &Emulator{
		song:          song,
		songCRC:       song.CRC(),
		region:        song.Region,
		timing:        timing,
		cyclesPerTick: timing.CyclesPerTick(),
		audioBuffer:   make([]int16, 0, 2*(sampleRate/timing.FPS+1)),
	}
	for i := 0; i < song.Chips; i++ {
		c, err := NewChip(ChipConfig{Model: song.Models[i], Tables: tables})
		if err != nil {
			return nil, fmt.Errorf("chip %d: %w", i, err)
		}
		e.chips = append(e.chips, c)
	}
	return e, nil
}

// RunFrame applies the next song frame and renders one frame of audio.
func (e *Emulator) RunFrame() {
	e.audioBuffer = e.audioBuffer[:0]
	for c := range e.scope {
		for v := range e.scope[c] {
			e.scope[c][v] = e.scope[c][v][:0]
		}
	}

	e.applyFrame()

	e.cycleRem += e.timing.ClockHz
	cycles := e.cycleRem / e.timing.FPS
	e.cycleRem %= e.timing.FPS

	for i := 0; i < cycles; i++ {
		e.tickCount++
		tick := e.tickCount >= e.cyclesPerTick
		if tick {
			e.tickCount = 0
		}

		for n, c := range e.chips {
			c.Clock(tick)
			e.boxSum[n] += int64(c.Output())
		}
		e.boxCount++

		// Bresenham resample from the chip clock (~1 MHz) to sampleRate
		e.resampAccum += sampleRate
		if e.resampAccum >= e.timing.ClockHz {
			e.resampAccum -= e.timing.ClockHz
			e.emitSample()
		}
	}

	e.applyOutputStage()
}

// applyFrame writes the registers of the next song frame to the chips.
func (e *Emulator) applyFrame() {
	if e.finished {
		return
	}
	regs := e.song.Frames[e.frame]
	for n, c := range e.chips {
		base := n * FrameRegisters
		for r := 0; r < FrameRegisters; r++ {
			c.WriteRegister(uint8(r), regs[base+r])
		}
	}

	e.frame++
	if e.frame >= len(e.song.Frames) {
		if e.song.Loop >= 0 {
			e.frame = e.song.Loop
		} else {
			e.frame = len(e.song.Frames)
			e.finished = true
		}
	}
}

// emitSample closes the current averaging box and appends one stereo
// sample. A single chip feeds both channels.
func (e *Emulator) emitSample() {
	var out [2]int16
	for n := range e.chips {
		avg := e.boxSum[n] / int64(e.boxCount)
		out[n] = int16(clampInt32(int32(avg>>chipOutputShift), -32768, 32767))
		e.boxSum[n] = 0
	}
	if len(e.chips) == 1 {
		out[1] = out[0]
	}
	e.boxCount = 0
	e.audioBuffer = append(e.audioBuffer, out[0], out[1])

	for n, c := range e.chips {
		for v := 0; v < 3; v++ {
			e.scope[n][v] = append(e.scope[n][v], int16(int32(c.VoiceOutput(v))-0x800)<<4)
		}
	}
}

// GetAudioSamples returns the last frame's samples as 16-bit stereo PCM.
func (e *Emulator) GetAudioSamples() []int16 {
	return e.audioBuffer
}

// ScopeSamples returns the last frame's waveform of one voice, one value
// per output sample, centred on zero.
func (e *Emulator) ScopeSamples(chip, voice int) []int16 {
	if chip < 0 || chip >= len(e.chips) || voice < 0 || voice > 2 {
		return nil
	}
	return e.scope[chip][voice]
}

// Chips returns the number of chips being played.
func (e *Emulator) Chips() int {
	return len(e.chips)
}

// Chip returns chip n.
func (e *Emulator) Chip(n int) *Chip {
	return e.chips[n]
}

// SetVoiceMute mutes or unmutes one voice of one chip.
func (e *Emulator) SetVoiceMute(chip, voice int, muted bool) {
	if chip >= 0 && chip < len(e.chips) {
		e.chips[chip].SetVoiceMute(voice, muted)
	}
}

// Finished reports whether a non-looping song has played its last frame.
func (e *Emulator) Finished() bool {
	return e.finished
}

// Frame returns the index of the next song frame to be played.
func (e *Emulator) Frame() int {
	return e.frame
}

// GetRegion returns the emulator's region setting.
func (e *Emulator) GetRegion() Region {
	return e.region
}

// GetTiming returns the clock and frame rate for the current region.
func (e *Emulator) GetTiming() RegionTiming {
	return e.timing
}

// Reset restarts the song from the first frame with all chips at power-on.
func (e *Emulator) Reset() {
	for _, c := range e.chips {
		c.Reset()
	}
	e.frame = 0
	e.finished = false
	e.cycleRem = 0
	e.tickCount = 0
	e.resampAccum = 0
	e.boxSum = [2]int64{}
	e.boxCount = 0
	e.lpfPrev = [2]float64{}
	e.dcPrevIn = [2]float64{}
	e.dcPrev = [2]float64{}
}
