// Package script builds register songs from Lua programs.
//
// A script drives the chips through the "sid" module:
//
//	local sid = require("sid")
//	sid.chips(1)
//	sid.write(0x18, 0x0F)          -- chip 1
//	sid.write(1, 0x04, sid.SAW)    -- explicit chip
//	sid.frame(50)                  -- hold the registers for one second
//	sid.loop()                     -- playback returns here after the end
//
// Chip numbers are 1-based. Register writes accumulate into the current
// snapshot, which sid.frame appends to the song.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/user-none/emsid/emu"
)

// DefaultMaxFrames bounds the song length: one hour of PAL frames.
const DefaultMaxFrames = 60 * 60 * 50

// ErrTooLong is returned when a script emits more than MaxFrames frames.
var ErrTooLong = errors.New("script: song exceeds frame limit")

// Options configures a script run.
type Options struct {
	// Defaults used unless the script overrides them.
	Chips  int
	Region emu.Region
	Model  emu.Model

	// MaxFrames caps the number of frames; zero means DefaultMaxFrames.
	MaxFrames int
}

// builder accumulates the song while the script runs.
type builder struct {
	song      *emu.Song
	regs      [emu.MaxChips][emu.FrameRegisters]byte
	maxFrames int
	started   bool // first frame emitted; chip count is fixed
	tooLong   bool
}

// LoadFile runs the Lua script at path.
func LoadFile(ctx context.Context, path string, opts Options) (*emu.Song, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Run(ctx, filepath.Base(path), string(src), opts)
}

// Run executes src and returns the song it produced. name is used in
// error messages.
func Run(ctx context.Context, name, src string, opts Options) (*emu.Song, error) {
	if opts.Chips == 0 {
		opts.Chips = 1
	}
	if opts.Chips < 1 || opts.Chips > emu.MaxChips {
		return nil, fmt.Errorf("script: chip count %d out of range", opts.Chips)
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultMaxFrames
	}

	b := &builder{
		song:      emu.NewSong(opts.Chips, opts.Region),
		maxFrames: opts.MaxFrames,
	}
	for i := range b.song.Models {
		b.song.Models[i] = opts.Model
	}

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)
	L.PreloadModule("sid", b.loader)

	fn, err := L.Load(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		if b.tooLong {
			return nil, ErrTooLong
		}
		return nil, fmt.Errorf("script: %w", err)
	}

	if len(b.song.Frames) == 0 {
		return nil, fmt.Errorf("script: %s emitted no frames", name)
	}
	// A loop point after the last frame repeats the whole song.
	if b.song.Loop == len(b.song.Frames) {
		b.song.Loop = 0
	}
	if err := b.song.Validate(); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return b.song, nil
}

// loader builds the sid module table.
func (b *builder) loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"write":  b.write,
		"read":   b.read,
		"model":  b.model,
		"chips":  b.chips,
		"region": b.region,
		"frame":  b.frame,
		"loop":   b.loop,
		"hz":     b.hz,
	})

	consts := map[string]int{
		"GATE":  0x01,
		"SYNC":  0x02,
		"RING":  0x04,
		"TEST":  0x08,
		"TRI":   0x10,
		"SAW":   0x20,
		"PULSE": 0x40,
		"NOISE": 0x80,

		"FILT_LP":  0x10,
		"FILT_BP":  0x20,
		"FILT_HP":  0x40,
		"V3_OFF":   0x80,
		"REGS":     emu.FrameRegisters,
		"VOICE_SZ": 7,
	}
	for k, v := range consts {
		mod.RawSetString(k, lua.LNumber(v))
	}

	L.Push(mod)
	return 1
}

// chipArg reads an optional leading chip number. It returns the 0-based
// chip and the index of the next argument.
func (b *builder) chipArg(L *lua.LState, fixed int) (int, int) {
	if L.GetTop() <= fixed {
		return 0, 1
	}
	chip := L.CheckInt(1)
	if chip < 1 || chip > b.song.Chips {
		L.ArgError(1, fmt.Sprintf("chip %d out of range 1-%d", chip, b.song.Chips))
	}
	return chip - 1, 2
}

// sid.write([chip,] reg, val)
func (b *builder) write(L *lua.LState) int {
	chip, n := b.chipArg(L, 2)
	reg := L.CheckInt(n)
	val := L.CheckInt(n + 1)
	if reg < 0 || reg >= emu.FrameRegisters {
		L.ArgError(n, fmt.Sprintf("register $%02X is not writable", reg))
	}
	if val < 0 || val > 0xFF {
		L.ArgError(n+1, fmt.Sprintf("value %d out of byte range", val))
	}
	b.regs[chip][reg] = uint8(val)
	return 0
}

// sid.read([chip,] reg) returns the value last written.
func (b *builder) read(L *lua.LState) int {
	chip, n := b.chipArg(L, 1)
	reg := L.CheckInt(n)
	if reg < 0 || reg >= emu.FrameRegisters {
		L.ArgError(n, fmt.Sprintf("register $%02X is not writable", reg))
	}
	L.Push(lua.LNumber(b.regs[chip][reg]))
	return 1
}

// sid.model(chip, "6581"|"8580")
func (b *builder) model(L *lua.LState) int {
	chip := L.CheckInt(1)
	if chip < 1 || chip > emu.MaxChips {
		L.ArgError(1, fmt.Sprintf("chip %d out of range", chip))
	}
	m, err := emu.ParseModel(L.CheckString(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	b.song.Models[chip-1] = m
	return 0
}

// sid.chips(n) must come before the first frame.
func (b *builder) chips(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 1 || n > emu.MaxChips {
		L.ArgError(1, fmt.Sprintf("chip count %d out of range 1-%d", n, emu.MaxChips))
	}
	if b.started && n != b.song.Chips {
		L.RaiseError("sid.chips: chip count cannot change after the first frame")
	}
	b.song.Chips = n
	return 0
}

// sid.region("pal"|"ntsc")
func (b *builder) region(L *lua.LState) int {
	r, err := emu.ParseRegion(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
	}
	if b.started && r != b.song.Region {
		L.RaiseError("sid.region: region cannot change after the first frame")
	}
	b.song.Region = r
	return 0
}

// sid.frame([n]) appends the current registers n times.
func (b *builder) frame(L *lua.LState) int {
	n := L.OptInt(1, 1)
	if n < 0 {
		L.ArgError(1, "negative frame count")
	}
	if len(b.song.Frames)+n > b.maxFrames {
		b.tooLong = true
		L.RaiseError("sid.frame: %v", ErrTooLong)
	}
	b.started = true
	size := b.song.FrameSize()
	for i := 0; i < n; i++ {
		f := make([]byte, size)
		for c := 0; c < b.song.Chips; c++ {
			copy(f[c*emu.FrameRegisters:], b.regs[c][:])
		}
		b.song.Frames = append(b.song.Frames, f)
	}
	L.Push(lua.LNumber(len(b.song.Frames)))
	return 1
}

// sid.loop() marks the next frame as the loop point.
func (b *builder) loop(L *lua.LState) int {
	b.song.Loop = len(b.song.Frames)
	return 0
}

// sid.hz(freq) converts a frequency in Hz to the 16-bit oscillator value
// for the song's region.
func (b *builder) hz(L *lua.LState) int {
	f := float64(L.CheckNumber(1))
	clock := float64(emu.GetTimingForRegion(b.song.Region).ClockHz)
	v := int(f*(1<<24)/clock + 0.5)
	if v < 0 || v > 0xFFFF {
		L.ArgError(1, fmt.Sprintf("%.1f Hz out of oscillator range", f))
	}
	L.Push(lua.LNumber(v))
	return 1
}
