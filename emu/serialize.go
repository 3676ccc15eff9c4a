package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eMSIDState\x00\x00"
	stateHeaderSize = 22 // magic(12) + version(2) + songCRC(4) + dataCRC(4)
)

// emulatorSerializeSize covers the inline playback state:
// chips(1) + frame(4) + finished(1) + cycleRem(4) + tickCount(4) +
// resampAccum(4) + boxSum(2*8) + boxCount(4) + output stage(6*8) = 86
const emulatorSerializeSize = 86

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SerializeSize returns the total size in bytes needed for a save state.
// The chip count is fixed by the song, so this is a method.
func (e *Emulator) SerializeSize() int {
	return stateHeaderSize + len(e.chips)*ChipSerializeSize + emulatorSerializeSize
}

// Serialize creates a save state and returns it as a byte slice.
func (e *Emulator) Serialize() ([]byte, error) {
	data := make([]byte, e.SerializeSize())

	// Write header
	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], e.songCRC)

	offset := stateHeaderSize

	for _, c := range e.chips {
		if err := c.Serialize(data[offset:]); err != nil {
			return nil, err
		}
		offset += ChipSerializeSize
	}

	e.serializePlayback(data, offset)

	// Calculate and write data CRC32 (over everything after header)
	dataCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	binary.LittleEndian.PutUint32(data[18:22], dataCRC)

	return data, nil
}

// Deserialize restores emulator state from a save state byte slice.
// Nothing is restored unless the whole state verifies.
func (e *Emulator) Deserialize(data []byte) error {
	if err := e.VerifyState(data); err != nil {
		return err
	}

	offset := stateHeaderSize
	for _, c := range e.chips {
		if err := c.Deserialize(data[offset:]); err != nil {
			return err
		}
		offset += ChipSerializeSize
	}

	e.deserializePlayback(data, offset)
	return nil
}

// VerifyState checks if a save state is valid without loading it.
func (e *Emulator) VerifyState(data []byte) error {
	if len(data) < e.SerializeSize() {
		return errors.New("save state too short")
	}

	if string(data[0:12]) != stateMagic {
		return errors.New("invalid save state magic")
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return errors.New("unsupported save state version")
	}

	songCRC := binary.LittleEndian.Uint32(data[14:18])
	if songCRC != e.songCRC {
		return errors.New("save state is for a different song")
	}

	expectedCRC := binary.LittleEndian.Uint32(data[18:22])
	actualCRC := crc32.ChecksumIEEE(data[stateHeaderSize:])
	if expectedCRC != actualCRC {
		return errors.New("save state data is corrupted")
	}

	offset := stateHeaderSize
	for _, c := range e.chips {
		if err := c.VerifyState(data[offset:]); err != nil {
			return err
		}
		offset += ChipSerializeSize
	}

	return e.verifyPlayback(data, offset)
}

// verifyPlayback checks the playback block against the loaded song.
// A frame past the last one is only valid once the song has finished, and
// only a song without a loop can finish.
func (e *Emulator) verifyPlayback(data []byte, offset int) error {
	if int(data[offset]) != len(e.chips) {
		return errors.New("save state chip count mismatch")
	}

	frame := uint64(binary.LittleEndian.Uint32(data[offset+1:]))
	finished := data[offset+5] != 0
	end := uint64(len(e.song.Frames))
	switch {
	case frame > end:
		return errors.New("save state frame beyond end of song")
	case finished && (frame != end || e.song.Loop >= 0):
		return errors.New("save state finished flag does not match its frame")
	case !finished && frame == end:
		return errors.New("save state frame beyond end of song")
	}
	return nil
}

// serializePlayback writes the inline playback state to the data buffer.
func (e *Emulator) serializePlayback(data []byte, offset int) int {
	data[offset] = uint8(len(e.chips))
	offset++
	binary.LittleEndian.PutUint32(data[offset:], uint32(e.frame))
	offset += 4
	data[offset] = boolByte(e.finished)
	offset++
	binary.LittleEndian.PutUint32(data[offset:], uint32(e.cycleRem))
	offset += 4
	binary.LittleEndian.PutUint32(data[offset:], uint32(e.tickCount))
	offset += 4
	binary.LittleEndian.PutUint32(data[offset:], uint32(e.resampAccum))
	offset += 4
	for ch := 0; ch < 2; ch++ {
		binary.LittleEndian.PutUint64(data[offset:], uint64(e.boxSum[ch]))
		offset += 8
	}
	binary.LittleEndian.PutUint32(data[offset:], uint32(e.boxCount))
	offset += 4

	for ch := 0; ch < 2; ch++ {
		for _, v := range []float64{e.lpfPrev[ch], e.dcPrevIn[ch], e.dcPrev[ch]} {
			binary.LittleEndian.PutUint64(data[offset:], math.Float64bits(v))
			offset += 8
		}
	}

	return offset
}

// deserializePlayback reads the inline playback state from the data buffer.
// The block must already have passed verifyPlayback.
func (e *Emulator) deserializePlayback(data []byte, offset int) {
	offset++ // chip count

	e.frame = int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	e.finished = data[offset] != 0
	offset++
	e.cycleRem = int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	e.tickCount = int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	e.resampAccum = int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4
	for ch := 0; ch < 2; ch++ {
		e.boxSum[ch] = int64(binary.LittleEndian.Uint64(data[offset:]))
		offset += 8
	}
	e.boxCount = int(binary.LittleEndian.Uint32(data[offset:]))
	offset += 4

	for ch := 0; ch < 2; ch++ {
		for _, p := range []*float64{&e.lpfPrev[ch], &e.dcPrevIn[ch], &e.dcPrev[ch]} {
			*p = math.Float64frombits(binary.LittleEndian.Uint64(data[offset:]))
			offset += 8
		}
	}
}
