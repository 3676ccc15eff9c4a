// Package cli provides a windowed player for the emulator.
// It polls the keyboard and draws a per-voice oscilloscope while the song
// plays.
package cli

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	emubridge "github.com/user-none/emsid/bridge/ebiten"
	"github.com/user-none/emsid/emu"
	"github.com/user-none/emsid/ui"
)

// ADT buffer thresholds in samples.
const (
	adtMinBuffer = 4800
	adtMaxBuffer = 9600
)

// Native scope resolution.
const (
	ScopeWidth      = 480
	ScopeLaneHeight = 64
)

// Runner plays an emulator in a window.
// The emulator runs on a dedicated goroutine with audio-driven timing.
// The Ebiten thread handles keys and renders from the shared scope.
type Runner struct {
	emulator    *emu.Emulator
	audioPlayer *ui.AudioPlayer
	frames      int // song length, for the status line

	// ADT goroutine control
	control  *ui.PlaybackControl
	mutes    *ui.SharedMutes
	scope    *ui.SharedScope
	resetReq atomic.Bool
	drained  atomic.Bool // song and its release tail have been produced
	emuDone  chan struct{}

	view   *emubridge.ScopeView
	pixels []byte
	paused bool
}

// NewRunner creates a Runner for e and starts playback.
// Audio initialization failure is non-fatal; the scope still runs.
func NewRunner(e *emu.Emulator, frames int) *Runner {
	player, err := ui.NewAudioPlayer(1.0)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	r := &Runner{
		emulator:    e,
		audioPlayer: player,
		frames:      frames,
		control:     ui.NewPlaybackControl(),
		mutes:       &ui.SharedMutes{},
		scope:       ui.NewSharedScope(e.Chips()),
		emuDone:     make(chan struct{}),
		view:        emubridge.NewScopeView(),
		pixels:      make([]byte, ScopeWidth*ScopeHeight(e.Chips())*4),
	}

	go r.emulationLoop()

	return r
}

// ScopeHeight is the native scope height for a chip count.
func ScopeHeight(chips int) int {
	return chips * 3 * ScopeLaneHeight
}

// Close stops playback. The emulator is idle once Close returns.
func (r *Runner) Close() {
	if r.control != nil {
		r.control.Stop()
		<-r.emuDone
	}

	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// emulationLoop runs on a dedicated goroutine with ADT.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	timing := r.emulator.GetTiming()
	frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
	lastFrameTime := time.Now()
	tail := timing.FPS // frames of release after the song ends

	for {
		if !r.control.CheckPause() {
			return
		}

		if r.resetReq.Swap(false) {
			r.emulator.Reset()
			if r.audioPlayer != nil {
				r.audioPlayer.Flush()
			}
			tail = timing.FPS
			r.drained.Store(false)
		}

		if r.emulator.Finished() {
			if tail == 0 {
				r.drained.Store(true)
				time.Sleep(frameTime)
				lastFrameTime = time.Now()
				continue
			}
			tail--
		}

		r.mutes.Apply(r.emulator)
		r.emulator.RunFrame()

		if r.audioPlayer != nil {
			r.audioPlayer.QueueSamples(r.emulator.GetAudioSamples())
		}
		r.scope.Update(r.emulator)

		// ADT sleep
		elapsed := time.Since(lastFrameTime)
		sleepTime := frameTime - elapsed

		if r.audioPlayer != nil {
			bufferLevel := r.audioPlayer.GetBufferLevel()
			if bufferLevel < adtMinBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 0.9)
			} else if bufferLevel > adtMaxBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 1.1)
			}
		}

		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if r.drained.Load() && (r.audioPlayer == nil || r.audioPlayer.GetBufferLevel() == 0) {
		return ebiten.Termination
	}

	if !ebiten.IsFocused() {
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		r.togglePause()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		r.resetReq.Store(true)
	}

	// 1-3 mute the voices of chip 1, with Shift those of chip 2.
	chip := 0
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		chip = 1
	}
	for v, key := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3} {
		if inpututil.IsKeyJustPressed(key) && chip < r.emulator.Chips() {
			r.mutes.Toggle(chip, v)
		}
	}
	return nil
}

func (r *Runner) togglePause() {
	r.paused = r.control.TogglePause()
	if r.audioPlayer == nil {
		return
	}
	if r.paused {
		r.audioPlayer.Pause()
	} else {
		r.audioPlayer.Resume()
	}
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	traces, frame, finished := r.scope.Read()
	m := r.mutes.Read()
	muted := make([]bool, 0, len(traces))
	for c := 0; c < r.emulator.Chips(); c++ {
		muted = append(muted, m[c][:]...)
	}

	h := ScopeHeight(r.emulator.Chips())
	ui.RenderScope(r.pixels, ScopeWidth, h, traces, muted)
	r.view.Draw(screen, r.pixels, ScopeWidth, h)

	ebitenutil.DebugPrint(screen, r.status(frame, finished))
}

// status formats the playback position for the overlay.
func (r *Runner) status(frame int, finished bool) string {
	fps := r.emulator.GetTiming().FPS
	s := fmt.Sprintf("%s  %d:%02d / %d:%02d",
		emu.RegionName(r.emulator.GetRegion()),
		frame/fps/60, frame/fps%60,
		r.frames/fps/60, r.frames/fps%60)
	switch {
	case r.paused:
		s += "  PAUSED"
	case finished:
		s += "  END"
	}
	return s + "\nspace pause  r restart  1-3 mute (shift: chip 2)  esc quit"
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.view.Layout(outsideWidth, outsideHeight)
}
