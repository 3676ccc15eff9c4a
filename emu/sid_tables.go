package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Lookup table sizes, in entries.
const (
	psTableSize     = 4096 // pulse+sawtooth, keyed by the 12-bit sawtooth value
	ptTableSize     = 2048 // pulse+triangle, keyed by the 11-bit triangle value
	cutoffTableSize = 1024 // 6581 cutoff curve, non-negative half
	dacTableSize    = 2048 // 6581 cutoff DAC, one entry per register value
)

// Dataset file names.
const (
	TablePS6581     = "6581_ps_.bin"
	TablePT6581     = "6581_p_t.bin"
	TablePS8580     = "8580_ps_.bin"
	TablePT8580     = "8580_p_t.bin"
	TableCutoff6581 = "6581_cutoff.bin" // int16 little-endian
	TableDAC6581    = "6581_dac.bin"    // uint16 little-endian, optional
)

var (
	ErrTableMissing = errors.New("sid: lookup table missing")
	ErrTableSize    = errors.New("sid: lookup table has wrong size")
	ErrTableRange   = errors.New("sid: lookup table value out of range")
)

// waveTables holds the measured combined waveforms of one model.
type waveTables struct {
	ps [psTableSize]uint8
	pt [ptTableSize]uint8
}

// Tables is the immutable measurement-derived dataset shared by all chips.
// It is safe for concurrent readers once loaded.
type Tables struct {
	wave   [2]waveTables // indexed by Model
	cutoff [cutoffTableSize]int16
	dac    []uint16 // nil when the dataset carries no DAC
}

// LoadTablesDir loads the dataset from a directory.
func LoadTablesDir(dir string) (*Tables, error) {
	return LoadTables(os.DirFS(dir))
}

// LoadTables loads and validates the dataset. Any missing or malformed
// required table is an error.
func LoadTables(fsys fs.FS) (*Tables, error) {
	read := func(name string, size int) ([]byte, error) {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%s: %w", name, ErrTableMissing)
			}
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(data) != size {
			return nil, fmt.Errorf("%s: %d bytes, want %d: %w", name, len(data), size, ErrTableSize)
		}
		return data, nil
	}

	var raw [5][]byte
	files := []struct {
		name string
		size int
	}{
		{TablePS6581, psTableSize},
		{TablePT6581, ptTableSize},
		{TablePS8580, psTableSize},
		{TablePT8580, ptTableSize},
		{TableCutoff6581, cutoffTableSize * 2},
	}
	for i, f := range files {
		data, err := read(f.name, f.size)
		if err != nil {
			return nil, err
		}
		raw[i] = data
	}

	cutoff := make([]int16, cutoffTableSize)
	for i := range cutoff {
		cutoff[i] = int16(binary.LittleEndian.Uint16(raw[4][i*2:]))
	}

	t, err := NewTables(raw[0], raw[1], raw[2], raw[3], cutoff)
	if err != nil {
		return nil, err
	}

	dacRaw, err := read(TableDAC6581, dacTableSize*2)
	switch {
	case err == nil:
		dac := make([]uint16, dacTableSize)
		for i := range dac {
			dac[i] = binary.LittleEndian.Uint16(dacRaw[i*2:])
		}
		if err := t.setDAC(dac); err != nil {
			return nil, fmt.Errorf("%s: %w", TableDAC6581, err)
		}
	case errors.Is(err, ErrTableMissing):
	default:
		return nil, err
	}
	return t, nil
}

// NewTables builds a dataset from in-memory tables.
func NewTables(ps6581, pt6581, ps8580, pt8580 []byte, cutoff []int16) (*Tables, error) {
	t := &Tables{}
	sets := []struct {
		name string
		dst  []uint8
		src  []byte
	}{
		{TablePS6581, t.wave[Model6581].ps[:], ps6581},
		{TablePT6581, t.wave[Model6581].pt[:], pt6581},
		{TablePS8580, t.wave[Model8580].ps[:], ps8580},
		{TablePT8580, t.wave[Model8580].pt[:], pt8580},
	}
	for _, s := range sets {
		if s.src == nil {
			return nil, fmt.Errorf("%s: %w", s.name, ErrTableMissing)
		}
		if len(s.src) != len(s.dst) {
			return nil, fmt.Errorf("%s: %d entries, want %d: %w", s.name, len(s.src), len(s.dst), ErrTableSize)
		}
		copy(s.dst, s.src)
	}

	if cutoff == nil {
		return nil, fmt.Errorf("%s: %w", TableCutoff6581, ErrTableMissing)
	}
	if len(cutoff) != cutoffTableSize {
		return nil, fmt.Errorf("%s: %d entries, want %d: %w", TableCutoff6581, len(cutoff), cutoffTableSize, ErrTableSize)
	}
	for i, v := range cutoff {
		// Only the non-negative half of the curve is stored.
		if v < 0 {
			return nil, fmt.Errorf("%s: entry %d is %d: %w", TableCutoff6581, i, v, ErrTableRange)
		}
	}
	copy(t.cutoff[:], cutoff)
	return t, nil
}

// setDAC installs a cutoff DAC table. Entries are 11-bit.
func (t *Tables) setDAC(dac []uint16) error {
	if len(dac) != dacTableSize {
		return ErrTableSize
	}
	for i, v := range dac {
		if v > 0x7FF {
			return fmt.Errorf("entry %d is 0x%X: %w", i, v, ErrTableRange)
		}
	}
	t.dac = append([]uint16(nil), dac...)
	return nil
}

// PS returns the pulse+sawtooth combined waveform for a 12-bit value.
func (t *Tables) PS(m Model, st uint16) uint8 {
	return t.wave[m&1].ps[st&0xFFF]
}

// PT returns the pulse+triangle combined waveform for an 11-bit value.
func (t *Tables) PT(m Model, tri uint16) uint8 {
	return t.wave[m&1].pt[tri&0x7FF]
}

// Cutoff returns entry i of the 6581 cutoff curve half table.
func (t *Tables) Cutoff(i int) int16 {
	return t.cutoff[i]
}

// CutoffDAC returns the cutoff DAC carried by the dataset, or an ideal
// converter when the dataset has none.
func (t *Tables) CutoffDAC() func(uint16) uint16 {
	if t.dac == nil {
		return linearDAC
	}
	dac := t.dac
	return func(fc uint16) uint16 {
		return dac[fc&0x7FF]
	}
}

// linearDAC is an ideal 11-bit converter.
func linearDAC(fc uint16) uint16 {
	return fc & 0x7FF
}
