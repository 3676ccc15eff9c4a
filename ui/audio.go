package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/user-none/emsid/emu"
)

const (
	// ringBufferCapacity is ~170ms of 48kHz stereo samples.
	ringBufferCapacity = 16384

	// playerBufferBytes is oto's own buffer, 100ms of stereo int16.
	playerBufferBytes = emu.SampleRate / 10 * 4
)

// AudioPlayer feeds emulator output to the sound device. Samples are queued
// into a ring buffer that oto's player pulls from.
type AudioPlayer struct {
	player *oto.Player
	ring   *AudioRingBuffer
}

// One oto context per process; oto does not allow a second.
var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
)

func otoContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   emu.SampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		})
		if otoInitErr == nil {
			<-ready
		}
	})
	return otoCtx, otoInitErr
}

// NewAudioPlayer opens the sound device and starts playback at volume
// (0.0 = silent, 1.0 = full).
func NewAudioPlayer(volume float64) (*AudioPlayer, error) {
	ctx, err := otoContext()
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	ring := NewAudioRingBuffer(ringBufferCapacity)
	p := ctx.NewPlayer(ring)
	p.SetBufferSize(playerBufferBytes)
	p.SetVolume(volume)
	p.Play()

	return &AudioPlayer{player: p, ring: ring}, nil
}

// QueueSamples hands interleaved stereo samples to the player.
func (a *AudioPlayer) QueueSamples(samples []int16) {
	a.ring.Write(samples)
}

// GetBufferLevel returns the number of samples not yet heard: those in the
// ring plus those inside oto. Used for pacing.
func (a *AudioPlayer) GetBufferLevel() int {
	return a.ring.Buffered() + a.player.BufferedSize()/2
}

// Flush drops queued audio, for a restart.
func (a *AudioPlayer) Flush() {
	a.ring.Clear()
}

// SetVolume sets the playback volume.
func (a *AudioPlayer) SetVolume(vol float64) {
	a.player.SetVolume(vol)
}

// Pause stops the device pulling samples; queued audio is kept.
func (a *AudioPlayer) Pause() {
	a.player.Pause()
}

// Resume continues after Pause.
func (a *AudioPlayer) Resume() {
	a.player.Play()
}

// Close releases the player.
func (a *AudioPlayer) Close() {
	if a.ring != nil {
		a.ring.Close()
	}
	if a.player != nil {
		a.player.Close()
	}
}
