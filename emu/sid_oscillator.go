package emu

const (
	oscMask    = 0xFFFFFF // 24-bit phase accumulator
	oscMSB     = 0x800000
	oscBit19   = 0x080000
	oscPowerOn = 0x555555 // accumulator contents after chip reset
	freqMask   = 0xFFFFF  // 20-bit increment
)

// syncSource maps each voice to the voice whose MSB rise hard-syncs it and
// whose MSB drives its ring modulation: voice 1 from voice 3, voice 2 from
// voice 1, voice 3 from voice 2.
var syncSource = [3]int{2, 0, 1}

// syncTarget is the inverse of syncSource.
var syncTarget = [3]int{1, 2, 0}

// oscillator is one voice's phase accumulator and pulse comparator.
type oscillator struct {
	phase   uint32 // 24-bit
	freq    uint32 // 20-bit increment per sample
	msbRose bool   // MSB went 0->1 on the last update

	// Pulse comparator pipeline. pulse is what the waveform stage sees
	// this sample; pulseNext was computed from the previous phase.
	pulse     bool
	pulseNext bool
}

// advance returns the phase the accumulator takes this sample if it is not
// reset, and whether that phase raises the MSB. primed is false only while
// chip reset is held, which forces the power-on pattern. Test and hard sync
// are applied afterwards by resolveSyncResets and force zero instead.
func (o *oscillator) advance(primed bool) (uint32, bool) {
	next := uint32(oscPowerOn)
	if primed {
		next = (o.phase + o.freq) & oscMask
	}
	return next, o.phase&oscMSB == 0 && next&oscMSB != 0
}

// commit latches the new phase and records the MSB edge.
func (o *oscillator) commit(next uint32) {
	o.msbRose = o.phase&oscMSB == 0 && next&oscMSB != 0
	o.phase = next
}

// compare runs the pulse width comparator on the committed phase. The
// result reaches the waveform stage one sample later.
func (o *oscillator) compare(pw uint16, test bool) {
	o.pulseNext = uint16(o.phase>>12) >= pw || test
}

// resolveSyncResets decides which oscillators are forced to zero this
// sample. A voice resets when test is held, or when its sync bit is set and
// its source's MSB rose while the source itself was not reset.
//
// The sync graph is a 3-cycle, so the rule is evaluated from a voice whose
// result does not depend on its source (test held, or no sync event) and
// propagated around the ring. When every voice would sync its neighbour on
// the same sample there is no such voice; the real circuit races like a
// ring oscillator and the tie is broken by resetting none of them.
func resolveSyncResets(test, sync, rose [3]bool) [3]bool {
	var reset, fire [3]bool
	anchor := -1
	for i := 0; i < 3; i++ {
		fire[i] = sync[i] && rose[syncSource[i]]
		if anchor < 0 && (test[i] || !fire[i]) {
			anchor = i
		}
	}
	if anchor < 0 {
		return reset
	}

	i := anchor
	reset[i] = test[i]
	for n := 0; n < 2; n++ {
		j := syncTarget[i]
		reset[j] = test[j] || (fire[j] && !reset[i])
		i = j
	}
	return reset
}

// clockOscillators advances all three accumulators of the chip, resolving
// hard sync and test resets.
func (c *Chip) clockOscillators() {
	primed := !c.resetHeld

	var next [3]uint32
	var test, sync, rose [3]bool
	for i := range c.voice {
		v := &c.voice[i]
		v.osc.pulse = v.osc.pulseNext
		next[i], rose[i] = v.osc.advance(primed)
		test[i] = v.control&ctrlTest != 0
		sync[i] = v.control&ctrlSync != 0
	}

	var reset [3]bool
	if primed {
		reset = resolveSyncResets(test, sync, rose)
	}

	for i := range c.voice {
		v := &c.voice[i]
		if reset[i] {
			next[i] = 0
		}
		v.osc.commit(next[i])
		v.osc.compare(v.pw, test[i])
	}
}
