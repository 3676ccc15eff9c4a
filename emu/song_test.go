package emu

import (
	"encoding/binary"
	"errors"
	"testing"
)

// makeTestSong builds a song with a gated sawtooth on voice 1 of each chip
// and a pitch that changes every frame.
func makeTestSong(chips, frames int, region Region, models ...Model) *Song {
	s := NewSong(chips, region)
	copy(s.Models[:], models)
	for f := 0; f < frames; f++ {
		frame := make([]byte, s.FrameSize())
		for c := 0; c < chips; c++ {
			r := frame[c*FrameRegisters:]
			r[regFreqLo] = uint8(f * 17)
			r[regFreqHi] = uint8(0x10 + f + c*3)
			r[regAD] = 0x09
			r[regSR] = 0xA4
			r[regControl] = ctrlGate | ctrlSawtooth
			r[regModeVol] = 0x0F
		}
		s.Frames = append(s.Frames, frame)
	}
	return s
}

func TestDump_RoundTrip(t *testing.T) {
	s := makeTestSong(2, 5, RegionNTSC, Model6581, Model8580)
	s.Loop = 2

	data, err := s.MarshalDump()
	if err != nil {
		t.Fatalf("MarshalDump: %v", err)
	}
	if len(data) != dumpHeaderSize+5*2*FrameRegisters {
		t.Fatalf("dump size = %d", len(data))
	}
	if data[11] != 0x02 {
		t.Errorf("model bits = %02X, want 02", data[11])
	}

	got, err := ParseDump(data)
	if err != nil {
		t.Fatalf("ParseDump: %v", err)
	}
	if got.Chips != 2 || got.Region != RegionNTSC || got.Loop != 2 {
		t.Errorf("header: chips %d region %v loop %d", got.Chips, got.Region, got.Loop)
	}
	if got.Models != s.Models {
		t.Errorf("models = %v, want %v", got.Models, s.Models)
	}
	if got.CRC() != s.CRC() {
		t.Error("CRC changed across dump round trip")
	}
}

func TestDump_NoLoop(t *testing.T) {
	s := makeTestSong(1, 3, RegionPAL, Model6581)
	data, err := s.MarshalDump()
	if err != nil {
		t.Fatal(err)
	}
	if binary.LittleEndian.Uint32(data[12:16]) != dumpNoLoop {
		t.Error("no-loop marker not written")
	}
	got, err := ParseDump(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Loop != -1 || got.Region != RegionPAL {
		t.Errorf("loop %d region %v", got.Loop, got.Region)
	}
}

func TestParseDump_Errors(t *testing.T) {
	good, err := makeTestSong(1, 4, RegionPAL, Model6581).MarshalDump()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:10] }},
		{"magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"version", func(b []byte) []byte { b[8] = 9; return b }},
		{"chip count zero", func(b []byte) []byte { b[9] = 0; return b }},
		{"chip count three", func(b []byte) []byte { b[9] = 3; return b }},
		{"region", func(b []byte) []byte { b[10] = 7; return b }},
		{"trailing bytes", func(b []byte) []byte { return append(b, 1, 2, 3) }},
		{"no frames", func(b []byte) []byte { return b[:dumpHeaderSize] }},
		{"loop past end", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[12:16], 4)
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), good...))
			if _, err := ParseDump(data); !errors.Is(err, ErrBadDump) {
				t.Errorf("got %v, want ErrBadDump", err)
			}
		})
	}
}

func TestSong_Validate(t *testing.T) {
	s := makeTestSong(1, 2, RegionPAL, Model6581)
	if err := s.Validate(); err != nil {
		t.Fatalf("valid song: %v", err)
	}

	s.Frames[1] = s.Frames[1][:5]
	if err := s.Validate(); err == nil {
		t.Error("short frame accepted")
	}

	s = makeTestSong(1, 2, RegionPAL, Model(5))
	if err := s.Validate(); err == nil {
		t.Error("unknown model accepted")
	}
}

func TestSong_CRC(t *testing.T) {
	a := makeTestSong(1, 3, RegionPAL, Model6581)
	b := makeTestSong(1, 3, RegionPAL, Model6581)
	if a.CRC() != b.CRC() {
		t.Fatal("identical songs differ in CRC")
	}
	b.Frames[2][regFreqLo] ^= 1
	if a.CRC() == b.CRC() {
		t.Error("register change not reflected in CRC")
	}
	c := makeTestSong(1, 3, RegionPAL, Model8580)
	if a.CRC() == c.CRC() {
		t.Error("model change not reflected in CRC")
	}
}
