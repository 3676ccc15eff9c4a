package ui

import (
	"io"
	"sync"
)

// AudioRingBuffer is a FIFO of interleaved int16 samples shared between the
// emulation goroutine (Write) and oto's player (Read). Read serves the
// samples as signed 16-bit little-endian bytes and blocks while the FIFO
// is empty. Write never blocks: when the FIFO is full the oldest samples
// are discarded.
type AudioRingBuffer struct {
	mu      sync.Mutex
	ready   *sync.Cond
	samples []int16
	head    int // index of the oldest sample
	size    int // samples held
	closed  bool
}

// NewAudioRingBuffer creates a buffer holding up to capacity samples.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	rb := &AudioRingBuffer{samples: make([]int16, capacity)}
	rb.ready = sync.NewCond(&rb.mu)
	return rb
}

// Write appends samples, discarding the oldest on overflow.
func (rb *AudioRingBuffer) Write(p []int16) {
	if len(p) == 0 {
		return
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closed {
		return
	}

	n := len(rb.samples)
	if len(p) > n {
		p = p[len(p)-n:]
	}
	if drop := rb.size + len(p) - n; drop > 0 {
		rb.head = (rb.head + drop) % n
		rb.size -= drop
	}

	tail := (rb.head + rb.size) % n
	copied := copy(rb.samples[tail:], p)
	copy(rb.samples, p[copied:])
	rb.size += len(p)

	rb.ready.Signal()
}

// Read implements io.Reader. Only whole samples are returned, so an odd
// trailing byte in p is left unused. Once closed and empty Read returns
// io.EOF.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.size == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.ready.Wait()
	}

	n := min(len(p)/2, rb.size)
	for i := 0; i < n; i++ {
		s := rb.samples[(rb.head+i)%len(rb.samples)]
		p[2*i] = byte(s)
		p[2*i+1] = byte(s >> 8)
	}
	rb.head = (rb.head + n) % len(rb.samples)
	rb.size -= n

	return 2 * n, nil
}

// Buffered returns the number of samples waiting to be read.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Clear discards all buffered samples.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	rb.head, rb.size = 0, 0
	rb.mu.Unlock()
}

// Close wakes any blocked Read. Later writes are ignored.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.mu.Unlock()
	rb.ready.Broadcast()
}
