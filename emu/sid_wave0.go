package emu

// Time, in elapsed-time ticks (1 ms), for which the voice output bus holds
// its last value with no waveform selected. Measured as 182000 cycles on
// the 6581 and 4400000 cycles on the 8580.
const (
	wave0TTL6581 uint32 = 185
	wave0TTL8580 uint32 = 4466
)

// wave0Fade models the charge left on a voice's output bus when no
// waveform is selected.
type wave0Fade struct {
	value uint16
	age   uint32
}

// hold returns the cached output, ageing it on tick. Once the deadline is
// reached the cache is zeroed and stays zero.
func (w *wave0Fade) hold(tick bool, ttl uint32) uint16 {
	if tick && w.age < ttl {
		w.age++
		if w.age >= ttl {
			w.value = 0
		}
	}
	return w.value
}

// refresh latches the live output of a selected waveform.
func (w *wave0Fade) refresh(out uint16) {
	w.value = out
	w.age = 0
}
