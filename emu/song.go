package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// Register dump format constants
const (
	dumpMagic      = "SIDREGS\x00"
	dumpVersion    = 1
	dumpHeaderSize = 16 // magic(8) + version(1) + chips(1) + region(1) + models(1) + loop(4)
	dumpNoLoop     = 0xFFFFFFFF

	// MaxChips is the largest number of chips a song may drive.
	MaxChips = 2
)

// Region byte values in a dump header.
const (
	dumpRegionPAL  = 0
	dumpRegionNTSC = 1
)

// ErrBadDump is wrapped by every register dump parse failure.
var ErrBadDump = errors.New("invalid register dump")

// Song is a sequence of register snapshots, one per video frame.
type Song struct {
	Chips  int
	Region Region
	Models [MaxChips]Model

	// Loop is the frame playback returns to after the last frame, or -1
	// to stop.
	Loop int

	// Frames holds Chips*FrameRegisters bytes per frame, chip 0 first.
	Frames [][]byte
}

// NewSong creates an empty song.
func NewSong(chips int, region Region) *Song {
	return &Song{
		Chips:  chips,
		Region: region,
		Loop:   -1,
	}
}

// FrameSize is the number of bytes in one frame.
func (s *Song) FrameSize() int {
	return s.Chips * FrameRegisters
}

// Validate checks the song's shape.
func (s *Song) Validate() error {
	if s.Chips < 1 || s.Chips > MaxChips {
		return fmt.Errorf("chip count %d out of range 1-%d", s.Chips, MaxChips)
	}
	for i := 0; i < s.Chips; i++ {
		if s.Models[i] != Model6581 && s.Models[i] != Model8580 {
			return fmt.Errorf("chip %d: unknown model %d", i, s.Models[i])
		}
	}
	if len(s.Frames) == 0 {
		return errors.New("song has no frames")
	}
	size := s.FrameSize()
	for i, f := range s.Frames {
		if len(f) != size {
			return fmt.Errorf("frame %d: %d bytes, want %d", i, len(f), size)
		}
	}
	if s.Loop >= len(s.Frames) {
		return fmt.Errorf("loop frame %d beyond last frame %d", s.Loop, len(s.Frames)-1)
	}
	return nil
}

// ParseDump decodes a register dump file.
func ParseDump(data []byte) (*Song, error) {
	if len(data) < dumpHeaderSize {
		return nil, fmt.Errorf("%w: too short to contain header (%d bytes)", ErrBadDump, len(data))
	}
	if string(data[0:8]) != dumpMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadDump)
	}
	if data[8] != dumpVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadDump, data[8])
	}

	s := &Song{Chips: int(data[9]), Loop: -1}
	switch data[10] {
	case dumpRegionPAL:
		s.Region = RegionPAL
	case dumpRegionNTSC:
		s.Region = RegionNTSC
	default:
		return nil, fmt.Errorf("%w: unknown region %d", ErrBadDump, data[10])
	}
	for i := range s.Models {
		if data[11]&(1<<uint(i)) != 0 {
			s.Models[i] = Model8580
		}
	}
	if loop := binary.LittleEndian.Uint32(data[12:16]); loop != dumpNoLoop {
		s.Loop = int(loop)
	}

	if s.Chips < 1 || s.Chips > MaxChips {
		return nil, fmt.Errorf("%w: chip count %d", ErrBadDump, s.Chips)
	}
	body := data[dumpHeaderSize:]
	size := s.FrameSize()
	if len(body)%size != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrBadDump, len(body)%size)
	}
	for off := 0; off < len(body); off += size {
		s.Frames = append(s.Frames, body[off:off+size:off+size])
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	return s, nil
}

// MarshalDump encodes the song as a register dump file.
func (s *Song) MarshalDump() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	data := make([]byte, dumpHeaderSize, dumpHeaderSize+len(s.Frames)*s.FrameSize())
	copy(data[0:8], dumpMagic)
	data[8] = dumpVersion
	data[9] = uint8(s.Chips)
	data[10] = dumpRegionNTSC
	if s.Region == RegionPAL {
		data[10] = dumpRegionPAL
	}
	for i := 0; i < s.Chips; i++ {
		if s.Models[i] == Model8580 {
			data[11] |= 1 << uint(i)
		}
	}
	loop := uint32(dumpNoLoop)
	if s.Loop >= 0 {
		loop = uint32(s.Loop)
	}
	binary.LittleEndian.PutUint32(data[12:16], loop)

	for _, f := range s.Frames {
		data = append(data, f...)
	}
	return data, nil
}

// CRC identifies the song's register content. Save states are bound to it.
func (s *Song) CRC() uint32 {
	h := crc32.NewIEEE()
	var hdr [4]byte
	hdr[0] = uint8(s.Chips)
	hdr[1] = uint8(s.Models[0])
	hdr[2] = uint8(s.Models[1])
	h.Write(hdr[:])
	for _, f := range s.Frames {
		h.Write(f)
	}
	return h.Sum32()
}

// Duration returns the play time of one pass through the song, in frames.
func (s *Song) Duration() int {
	return len(s.Frames)
}
