package emu

import (
	"fmt"
	"strings"

	emucore "github.com/user-none/eblitui/api"
)

// Region is an alias for emucore.Region so the video standard is shared
// with the frontend packages.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// RegionTiming holds timing constants for a specific region. The SID is
// clocked from the C64 system clock, which is derived from the video
// crystal.
type RegionTiming struct {
	ClockHz int // SID clock frequency, one sample per cycle
	FPS     int // Frames per second; songs write registers once per frame
}

// NTSC timing: 1.022727 MHz, 60 Hz
var NTSCTiming = RegionTiming{
	ClockHz: 1022727,
	FPS:     60,
}

// PAL timing: 0.985248 MHz, 50 Hz
var PALTiming = RegionTiming{
	ClockHz: 985248,
	FPS:     50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// CyclesPerTick is the number of chip cycles in one elapsed-time tick (1 ms).
func (t RegionTiming) CyclesPerTick() int {
	return t.ClockHz / 1000
}

// ParseRegion converts "pal" or "ntsc" to a Region.
func ParseRegion(s string) (Region, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pal":
		return RegionPAL, nil
	case "ntsc":
		return RegionNTSC, nil
	}
	return RegionPAL, fmt.Errorf("unknown region %q (use pal or ntsc)", s)
}

// RegionName returns the lower-case name of a region.
func RegionName(r Region) string {
	if r == RegionPAL {
		return "pal"
	}
	return "ntsc"
}

// DefaultRegion returns the default region. Most SID music was written
// for PAL machines.
func DefaultRegion() Region {
	return RegionPAL
}
