package emu

import "math"

const (
	sampleRate  = 48000
	lpfCutoffHz = 16000.0
	dcCutoffHz  = 1.6

	// chipOutputShift scales the chip's volume-multiplied output into
	// int16 range. Three full-scale voices at volume 15 reach about
	// +/-92000.
	chipOutputShift = 2
)

// SampleRate is the output rate of GetAudioSamples.
const SampleRate = sampleRate

// lpfAlpha is the smoothing factor for the first-order RC low-pass filter.
// Derived from: alpha = dt / (RC + dt) where RC = 1/(2*pi*fc).
var lpfAlpha = 1.0 / (float64(sampleRate)/(2*math.Pi*lpfCutoffHz) + 1)

// dcPole is the feedback coefficient of the DC-blocking high-pass filter.
var dcPole = 1.0 - 2*math.Pi*dcCutoffHz/float64(sampleRate)

// applyOutputStage runs the audio buffer through the C64 output stage: an
// RC low-pass (fc ~= 16 kHz) followed by the coupling capacitor, a
// high-pass at about 1.6 Hz that removes the chip's DC level. Applied per
// stereo channel with state persisting across frames.
func (e *Emulator) applyOutputStage() {
	for i := 0; i < len(e.audioBuffer); i += 2 {
		for ch := 0; ch < 2; ch++ {
			in := float64(e.audioBuffer[i+ch])
			e.lpfPrev[ch] = lpfAlpha*in + (1-lpfAlpha)*e.lpfPrev[ch]

			lp := e.lpfPrev[ch]
			out := lp - e.dcPrevIn[ch] + dcPole*e.dcPrev[ch]
			e.dcPrevIn[ch] = lp
			e.dcPrev[ch] = out

			e.audioBuffer[i+ch] = int16(clampInt32(int32(math.Round(out)), -32768, 32767))
		}
	}
}

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
