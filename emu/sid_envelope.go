package emu

// Envelope states
const (
	envAttack       = 0
	envDecaySustain = 1
	envRelease      = 2
)

// envRatePeriod is the rate counter comparison value for each 4-bit
// attack/decay/release setting, in cycles per envelope step. The values
// are one above the datasheet rates (e.g. 2 ms * 1 MHz / 256 = 7.81 -> 9)
// as measured by sampling ENV3.
var envRatePeriod = [16]uint16{
	9, 32, 63, 95, 149, 220, 267, 313,
	392, 977, 1954, 3126, 3907, 11720, 19532, 31251,
}

// envelope is one voice's ADSR generator, clocked once per cycle.
type envelope struct {
	rateCounter uint16 // 15-bit
	ratePeriod  uint16
	expCounter  uint8
	expPeriod   uint8
	counter     uint8 // envelope level
	holdZero    bool  // counter frozen at zero
	state       uint8
	gate        bool

	attack  uint8
	decay   uint8
	sustain uint8
	release uint8
}

func (e *envelope) reset() {
	*e = envelope{
		expPeriod:  1,
		state:      envRelease,
		ratePeriod: envRatePeriod[0],
		holdZero:   true,
	}
}

// setGate starts attack on a rising gate and release on a falling gate.
func (e *envelope) setGate(gate bool) {
	if gate && !e.gate {
		e.state = envAttack
		e.ratePeriod = envRatePeriod[e.attack]
		// Attack unfreezes a counter held at zero.
		e.holdZero = false
	} else if !gate && e.gate {
		e.state = envRelease
		e.ratePeriod = envRatePeriod[e.release]
	}
	e.gate = gate
}

func (e *envelope) setAttackDecay(val uint8) {
	e.attack = val >> 4
	e.decay = val & 0x0F
	switch e.state {
	case envAttack:
		e.ratePeriod = envRatePeriod[e.attack]
	case envDecaySustain:
		e.ratePeriod = envRatePeriod[e.decay]
	}
}

func (e *envelope) setSustainRelease(val uint8) {
	e.sustain = val >> 4
	e.release = val & 0x0F
	if e.state == envRelease {
		e.ratePeriod = envRatePeriod[e.release]
	}
}

// clock advances the envelope by one cycle.
func (e *envelope) clock() {
	// The rate counter is compared for equality only. Lowering the period
	// below the current count makes it run on until it wraps at 0x8000
	// (the ADSR delay bug).
	e.rateCounter++
	if e.rateCounter&0x8000 != 0 {
		e.rateCounter = (e.rateCounter + 1) & 0x7FFF
	}
	if e.rateCounter != e.ratePeriod {
		return
	}
	e.rateCounter = 0

	// The first step in attack also resets the exponential counter.
	if e.state != envAttack {
		e.expCounter++
		if e.expCounter != e.expPeriod {
			return
		}
	}
	e.expCounter = 0

	if e.holdZero {
		return
	}

	switch e.state {
	case envAttack:
		// Release then attack at level 0xFF wraps the counter to zero,
		// where it freezes.
		e.counter++
		if e.counter == 0xFF {
			e.state = envDecaySustain
			e.ratePeriod = envRatePeriod[e.decay]
		}
	case envDecaySustain:
		if e.counter != e.sustain*0x11 {
			e.counter--
		}
	case envRelease:
		e.counter--
	}

	switch e.counter {
	case 0xFF:
		e.expPeriod = 1
	case 0x5D:
		e.expPeriod = 2
	case 0x36:
		e.expPeriod = 4
	case 0x1A:
		e.expPeriod = 8
	case 0x0E:
		e.expPeriod = 16
	case 0x06:
		e.expPeriod = 30
	case 0x00:
		e.expPeriod = 1
		e.holdZero = true
	}
}
