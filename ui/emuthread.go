package ui

import (
	"sync"
	"time"

	"github.com/user-none/emsid/emu"
)

// ScopeWindow is the number of samples kept per voice trace, 20ms at
// 48kHz.
const ScopeWindow = 960

// SharedMutes holds the per-voice mute switches toggled by the Ebiten thread
// and applied by the emulation goroutine.
type SharedMutes struct {
	mu    sync.Mutex
	muted [emu.MaxChips][3]bool
	dirty bool
}

// Toggle flips the mute state of one voice. Out of range voices are
// ignored.
func (sm *SharedMutes) Toggle(chip, voice int) {
	if chip < 0 || chip >= emu.MaxChips || voice < 0 || voice > 2 {
		return
	}
	sm.mu.Lock()
	sm.muted[chip][voice] = !sm.muted[chip][voice]
	sm.dirty = true
	sm.mu.Unlock()
}

// Read returns the current mute state.
func (sm *SharedMutes) Read() [emu.MaxChips][3]bool {
	sm.mu.Lock()
	m := sm.muted
	sm.mu.Unlock()
	return m
}

// Apply pushes changed mute switches into e.
func (sm *SharedMutes) Apply(e *emu.Emulator) {
	sm.mu.Lock()
	if !sm.dirty {
		sm.mu.Unlock()
		return
	}
	m := sm.muted
	sm.dirty = false
	sm.mu.Unlock()

	for c := 0; c < e.Chips(); c++ {
		for v := 0; v < 3; v++ {
			e.SetVoiceMute(c, v, m[c][v])
		}
	}
}

// SharedScope holds the most recent waveform of every voice, written by the
// emulation goroutine and read by Ebiten's Draw() method.
type SharedScope struct {
	mu       sync.Mutex
	chips    int
	traces   [emu.MaxChips * 3][]int16 // rolling windows, newest last
	read     [emu.MaxChips * 3][]int16 // snapshot returned by Read
	frame    int
	finished bool
}

// NewSharedScope creates a scope for chips chips.
func NewSharedScope(chips int) *SharedScope {
	ss := &SharedScope{chips: chips}
	for i := range ss.traces {
		ss.traces[i] = make([]int16, ScopeWindow)
		ss.read[i] = make([]int16, ScopeWindow)
	}
	return ss
}

// Update appends the samples e produced in its last frame.
func (ss *SharedScope) Update(e *emu.Emulator) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for c := 0; c < ss.chips; c++ {
		for v := 0; v < 3; v++ {
			pushWindow(ss.traces[c*3+v], e.ScopeSamples(c, v))
		}
	}
	ss.frame = e.Frame()
	ss.finished = e.Finished()
}

// pushWindow shifts samples into the end of a fixed window.
func pushWindow(w, samples []int16) {
	if len(samples) >= len(w) {
		copy(w, samples[len(samples)-len(w):])
		return
	}
	copy(w, w[len(samples):])
	copy(w[len(w)-len(samples):], samples)
}

// Read returns a snapshot of the traces (chips*3 of them, voice-major per
// chip) together with the playback position. The slices stay valid until
// the next Read.
func (ss *SharedScope) Read() (traces [][]int16, frame int, finished bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	traces = make([][]int16, ss.chips*3)
	for i := range traces {
		copy(ss.read[i], ss.traces[i])
		traces[i] = ss.read[i]
	}
	return traces, ss.frame, ss.finished
}

// PlaybackControl manages pause/resume/stop coordination between
// the Ebiten thread and the emulation goroutine.
type PlaybackControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	running  bool
	stopReq  bool
	ackCh    chan struct{}
}

// NewPlaybackControl creates a new playback control.
func NewPlaybackControl() *PlaybackControl {
	return &PlaybackControl{
		running: true,
		ackCh:   make(chan struct{}, 1),
	}
}

// RequestPause asks the emulation goroutine to pause and blocks
// until it acknowledges the pause.
func (pc *PlaybackControl) RequestPause() {
	pc.mu.Lock()
	if pc.paused || pc.pauseReq || pc.stopReq {
		pc.mu.Unlock()
		return
	}
	pc.pauseReq = true
	pc.mu.Unlock()

	<-pc.ackCh
}

// RequestResume tells the emulation goroutine to resume.
func (pc *PlaybackControl) RequestResume() {
	pc.mu.Lock()
	pc.pauseReq = false
	pc.paused = false
	pc.mu.Unlock()
}

// TogglePause pauses a running goroutine or resumes a paused one. It
// reports whether playback is now paused.
func (pc *PlaybackControl) TogglePause() bool {
	pc.mu.Lock()
	pausing := !pc.pauseReq
	pc.mu.Unlock()

	if pausing {
		pc.RequestPause()
	} else {
		pc.RequestResume()
	}
	return pausing
}

// CheckPause is called by the emulation goroutine between frames.
// If a pause has been requested, it sends an acknowledgment and
// waits until resumed or stopped. Returns false if the goroutine
// should exit.
func (pc *PlaybackControl) CheckPause() bool {
	pc.mu.Lock()
	if !pc.running || pc.stopReq {
		pc.mu.Unlock()
		return false
	}
	if !pc.pauseReq {
		pc.mu.Unlock()
		return true
	}

	pc.paused = true
	pc.mu.Unlock()

	select {
	case pc.ackCh <- struct{}{}:
	default:
	}

	for {
		pc.mu.Lock()
		if !pc.running || pc.stopReq {
			pc.mu.Unlock()
			return false
		}
		if !pc.pauseReq {
			pc.paused = false
			pc.mu.Unlock()
			return true
		}
		pc.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
}

// Stop signals the emulation goroutine to exit.
func (pc *PlaybackControl) Stop() {
	pc.mu.Lock()
	pc.running = false
	pc.stopReq = true
	// Also clear pause so CheckPause unblocks
	pc.pauseReq = false
	pc.mu.Unlock()
}

// ShouldRun returns true if the goroutine should continue running.
func (pc *PlaybackControl) ShouldRun() bool {
	pc.mu.Lock()
	r := pc.running && !pc.stopReq
	pc.mu.Unlock()
	return r
}

// IsPaused returns true if the emulation goroutine is currently paused.
func (pc *PlaybackControl) IsPaused() bool {
	pc.mu.Lock()
	p := pc.paused
	pc.mu.Unlock()
	return p
}
