package emu

import (
	"encoding/binary"
	"errors"
)

const (
	sidSerializeVersion = 1
	// Per-voice serialization size:
	// osc: phase(4) + freq(4) + msbRose(1) + pulse(1) + pulseNext(1) = 11
	// noise: lfsr(4) + age(4) + bit19(1) + rst(1) + released(1) + edge(2) +
	// wbPending(1) + wbValue(1) = 15
	// wave0: value(2) + age(4) = 6
	// env: rateCounter(2) + ratePeriod(2) + expCounter(1) + expPeriod(1) +
	// counter(1) + holdZero(1) + state(1) + gate(1) + attack/decay/sustain/release(4) = 14
	// control(1) + pw(2) + stLatch(2) + out(2) + muted(1) = 8
	sidVoiceSerializeSize = 11 + 15 + 6 + 14 + 8
	// Filter: lp(4) + bp(4) + hp(4) + fc(2) + res(1) + filt(1) + mode(1) + vol(1) + ext(4) = 22
	sidFilterSerializeSize = 22
	// ChipSerializeSize is the total bytes needed for Chip serialization.
	// version(1) + model(1) + resetHeld(1) + out(4) + 3 voices + filter
	ChipSerializeSize = 7 + 3*sidVoiceSerializeSize + sidFilterSerializeSize
)

// Serialize writes chip state to buf. buf must be at least ChipSerializeSize bytes.
func (c *Chip) Serialize(buf []byte) error {
	if len(buf) < ChipSerializeSize {
		return errors.New("SID serialize buffer too small")
	}

	buf[0] = sidSerializeVersion
	buf[1] = uint8(c.model)
	buf[2] = boolByte(c.resetHeld)
	binary.LittleEndian.PutUint32(buf[3:], uint32(c.out))
	offset := 7

	for i := range c.voice {
		offset = serializeVoice(&c.voice[i], buf, offset)
	}

	f := &c.filter
	binary.LittleEndian.PutUint32(buf[offset:], uint32(f.lp))
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], uint32(f.bp))
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], uint32(f.hp))
	offset += 4
	binary.LittleEndian.PutUint16(buf[offset:], f.fc)
	offset += 2
	buf[offset] = f.res
	buf[offset+1] = f.filt
	buf[offset+2] = f.mode
	buf[offset+3] = f.vol
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], uint32(f.ext))

	return nil
}

// VerifyState checks that buf holds chip state this chip can load.
func (c *Chip) VerifyState(buf []byte) error {
	if len(buf) < ChipSerializeSize {
		return errors.New("SID deserialize buffer too small")
	}
	if buf[0] != sidSerializeVersion {
		return errors.New("unsupported SID serialize version")
	}
	if Model(buf[1]) != c.model {
		return errors.New("SID state is for a different chip model")
	}
	return nil
}

// Deserialize restores chip state from buf. The state must come from a chip
// of the same model. The chip is untouched when an error is returned.
func (c *Chip) Deserialize(buf []byte) error {
	if err := c.VerifyState(buf); err != nil {
		return err
	}

	c.resetHeld = buf[2] != 0
	c.out = int32(binary.LittleEndian.Uint32(buf[3:]))
	offset := 7

	for i := range c.voice {
		offset = deserializeVoice(&c.voice[i], buf, offset)
	}

	f := &c.filter
	f.lp = int32(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	f.bp = int32(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	f.hp = int32(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	f.fc = binary.LittleEndian.Uint16(buf[offset:]) & 0x7FF
	offset += 2
	f.res = buf[offset] & 0x0F
	f.filt = buf[offset+1] & 0x0F
	f.mode = buf[offset+2] & 0x0F
	f.vol = buf[offset+3] & 0x0F
	offset += 4
	f.ext = int32(binary.LittleEndian.Uint32(buf[offset:]))

	return nil
}

func serializeVoice(v *voice, buf []byte, offset int) int {
	binary.LittleEndian.PutUint32(buf[offset:], v.osc.phase)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], v.osc.freq)
	offset += 4
	buf[offset] = boolByte(v.osc.msbRose)
	buf[offset+1] = boolByte(v.osc.pulse)
	buf[offset+2] = boolByte(v.osc.pulseNext)
	offset += 3

	n := &v.noise
	binary.LittleEndian.PutUint32(buf[offset:], n.lfsr)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], n.age)
	offset += 4
	buf[offset] = boolByte(n.bit19)
	buf[offset+1] = boolByte(n.rst)
	buf[offset+2] = boolByte(n.released)
	buf[offset+3] = boolByte(n.edge[0])
	buf[offset+4] = boolByte(n.edge[1])
	buf[offset+5] = boolByte(n.wbPending)
	buf[offset+6] = n.wbValue
	offset += 7

	binary.LittleEndian.PutUint16(buf[offset:], v.wave0.value)
	offset += 2
	binary.LittleEndian.PutUint32(buf[offset:], v.wave0.age)
	offset += 4

	e := &v.env
	binary.LittleEndian.PutUint16(buf[offset:], e.rateCounter)
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], e.ratePeriod)
	offset += 2
	buf[offset] = e.expCounter
	buf[offset+1] = e.expPeriod
	buf[offset+2] = e.counter
	buf[offset+3] = boolByte(e.holdZero)
	buf[offset+4] = e.state
	buf[offset+5] = boolByte(e.gate)
	buf[offset+6] = e.attack
	buf[offset+7] = e.decay
	buf[offset+8] = e.sustain
	buf[offset+9] = e.release
	offset += 10

	buf[offset] = v.control
	offset++
	binary.LittleEndian.PutUint16(buf[offset:], v.pw)
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], v.stLatch)
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], v.out)
	offset += 2
	buf[offset] = boolByte(v.muted)
	offset++

	return offset
}

func deserializeVoice(v *voice, buf []byte, offset int) int {
	v.osc.phase = binary.LittleEndian.Uint32(buf[offset:]) & oscMask
	offset += 4
	v.osc.freq = binary.LittleEndian.Uint32(buf[offset:]) & freqMask
	offset += 4
	v.osc.msbRose = buf[offset] != 0
	v.osc.pulse = buf[offset+1] != 0
	v.osc.pulseNext = buf[offset+2] != 0
	offset += 3

	n := &v.noise
	n.lfsr = binary.LittleEndian.Uint32(buf[offset:]) & noiseMask
	offset += 4
	n.age = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	n.bit19 = buf[offset] != 0
	n.rst = buf[offset+1] != 0
	n.released = buf[offset+2] != 0
	n.edge[0] = buf[offset+3] != 0
	n.edge[1] = buf[offset+4] != 0
	n.wbPending = buf[offset+5] != 0
	n.wbValue = buf[offset+6]
	offset += 7

	v.wave0.value = binary.LittleEndian.Uint16(buf[offset:]) & 0xFFF
	offset += 2
	v.wave0.age = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	e := &v.env
	e.rateCounter = binary.LittleEndian.Uint16(buf[offset:]) & 0x7FFF
	offset += 2
	e.ratePeriod = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2
	e.expCounter = buf[offset]
	e.expPeriod = buf[offset+1]
	e.counter = buf[offset+2]
	e.holdZero = buf[offset+3] != 0
	e.state = buf[offset+4]
	e.gate = buf[offset+5] != 0
	e.attack = buf[offset+6] & 0x0F
	e.decay = buf[offset+7] & 0x0F
	e.sustain = buf[offset+8] & 0x0F
	e.release = buf[offset+9] & 0x0F
	offset += 10

	v.control = buf[offset]
	offset++
	v.pw = binary.LittleEndian.Uint16(buf[offset:]) & 0xFFF
	offset += 2
	v.stLatch = binary.LittleEndian.Uint16(buf[offset:]) & 0xFFF
	offset += 2
	v.out = binary.LittleEndian.Uint16(buf[offset:]) & 0xFFF
	offset += 2
	v.muted = buf[offset] != 0
	offset++

	return offset
}
