// Package wavout renders emulator output to WAV files.
package wavout

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/user-none/emsid/emu"
)

const (
	bitDepth  = 16
	channels  = 2
	pcmFormat = 1
)

// Frames converts a play time to a frame count for e's region. A
// non-positive duration means one pass of the song plus a second for the
// last notes to release.
func Frames(e *emu.Emulator, song *emu.Song, seconds float64) int {
	fps := e.GetTiming().FPS
	if seconds <= 0 {
		return song.Duration() + fps
	}
	return int(seconds*float64(fps) + 0.5)
}

// Render runs e for frames video frames and writes the audio to w. progress,
// if not nil, is called after every frame.
func Render(w io.WriteSeeker, e *emu.Emulator, frames int, progress func(done, total int)) error {
	enc := wav.NewEncoder(w, emu.SampleRate, bitDepth, channels, pcmFormat)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: emu.SampleRate},
		SourceBitDepth: bitDepth,
	}

	for f := 0; f < frames; f++ {
		e.RunFrame()
		samples := e.GetAudioSamples()

		buf.Data = buf.Data[:0]
		for _, s := range samples {
			buf.Data = append(buf.Data, int(s))
		}
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("wavout: frame %d: %w", f, err)
		}
		if progress != nil {
			progress(f+1, frames)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavout: %w", err)
	}
	return nil
}

// WriteFile renders to a new file at path.
func WriteFile(path string, e *emu.Emulator, frames int, progress func(done, total int)) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavout: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wavout: %w", err)
		}
	}()
	return Render(f, e, frames, progress)
}
