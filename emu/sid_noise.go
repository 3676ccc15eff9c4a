package emu

const (
	noiseMask = 0x7FFFFF // 23-bit shift register

	// Idle time, in elapsed-time ticks (1 ms), after which an unclocked
	// shift register has leaked to all ones. Measured as 0x8000 cycles on
	// the 6581 and 0x950000 cycles on the 8580.
	noiseTTL6581 uint32 = 33
	noiseTTL8580 uint32 = 9910
)

// noiseTaps lists the shift register bit feeding each noise output bit,
// from output bit 0 upwards.
var noiseTaps = [8]uint{0, 2, 5, 9, 11, 14, 18, 20}

// noiseGen is one voice's noise LFSR.
type noiseGen struct {
	lfsr uint32
	age  uint32 // ticks since the register was last clocked

	bit19    bool    // oscillator bit 19 on the previous sample
	rst      bool    // reset or test on the previous sample
	released bool    // reset was released and no edge has clocked since
	edge     [2]bool // bit 19 rises delayed by one and two samples

	// Combined waveform output waiting to be written into the taps.
	wbPending bool
	wbValue   uint8
}

func (n *noiseGen) reset() {
	*n = noiseGen{lfsr: noiseMask}
}

// writeback queues a combined waveform value for the next clocked edge.
// The queue holds for one sample only; the waveform stage clears it
// before each selection.
func (n *noiseGen) writeback(v uint8) {
	n.wbPending = true
	n.wbValue = v
}

// clock advances the generator by one sample. phase is the voice's
// oscillator after this sample's update; the shift register clocks two
// samples after bit 19 rises.
func (n *noiseGen) clock(phase uint32, resetOrTest, tick bool, ttl uint32) {
	b := phase&oscBit19 != 0
	rose := b && !n.bit19
	n.bit19 = b
	clk := n.edge[1]
	n.edge[1] = n.edge[0]
	n.edge[0] = rose

	if n.rst && !resetOrTest {
		n.released = true
	}
	n.rst = resetOrTest

	if resetOrTest {
		n.lfsr = noiseMask
		n.age = 0
		return
	}

	if !clk {
		if tick && n.age < ttl {
			n.age++
			if n.age == ttl {
				n.lfsr = noiseMask
			}
		}
		return
	}

	if n.wbPending {
		n.lfsr = setNoiseTaps(n.lfsr, n.wbValue)
		n.wbPending = false
	}
	n.lfsr = shiftNoise(n.lfsr, n.released)
	n.released = false
	n.age = 0
}

// output returns the 8 tap bits of the shift register.
func (n *noiseGen) output() uint8 {
	return noiseTapBits(n.lfsr)
}

// shiftNoise performs one LFSR step.
func shiftNoise(lfsr uint32, released bool) uint32 {
	fb := (lfsr >> 22) & 1
	if released {
		fb = 1
	}
	fb ^= (lfsr >> 17) & 1
	return (lfsr<<1 | fb) & noiseMask
}

func noiseTapBits(lfsr uint32) uint8 {
	var out uint8
	for i, bit := range noiseTaps {
		out |= uint8((lfsr>>bit)&1) << uint(i)
	}
	return out
}

// setNoiseTaps overwrites the tap positions of lfsr with the bits of v.
func setNoiseTaps(lfsr uint32, v uint8) uint32 {
	for i, bit := range noiseTaps {
		lfsr &^= 1 << bit
		lfsr |= uint32((v>>uint(i))&1) << bit
	}
	return lfsr
}
