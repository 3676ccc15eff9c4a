package ui

import (
	"io"
	"testing"
	"time"
)

func TestAudioRingBuffer_ReadLittleEndian(t *testing.T) {
	rb := NewAudioRingBuffer(8)
	rb.Write([]int16{0x0102, -2})

	p := make([]byte, 16)
	n, err := rb.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x02, 0x01, 0xFE, 0xFF}
	if n != len(want) {
		t.Fatalf("read %d bytes, want %d", n, len(want))
	}
	for i := range want {
		if p[i] != want[i] {
			t.Errorf("byte %d = %02X, want %02X", i, p[i], want[i])
		}
	}
	if rb.Buffered() != 0 {
		t.Errorf("Buffered = %d after full read", rb.Buffered())
	}
}

func TestAudioRingBuffer_PartialAndOddReads(t *testing.T) {
	rb := NewAudioRingBuffer(8)
	rb.Write([]int16{1, 2, 3})

	p := make([]byte, 3)
	n, _ := rb.Read(p)
	if n != 2 || p[0] != 1 {
		t.Fatalf("odd read: n=%d p=%v", n, p)
	}
	if rb.Buffered() != 2 {
		t.Errorf("Buffered = %d, want 2", rb.Buffered())
	}
}

func TestAudioRingBuffer_OverflowDropsOldest(t *testing.T) {
	tests := []struct {
		name   string
		writes [][]int16
		want   []int16
	}{
		{"wrap", [][]int16{{1, 2, 3}, {4, 5, 6}}, []int16{3, 4, 5, 6}},
		{"oversized", [][]int16{{1, 2, 3, 4, 5, 6, 7}}, []int16{4, 5, 6, 7}},
		{"exact", [][]int16{{1, 2}, {3, 4}}, []int16{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewAudioRingBuffer(4)
			for _, w := range tt.writes {
				rb.Write(w)
			}
			if rb.Buffered() != len(tt.want) {
				t.Fatalf("Buffered = %d, want %d", rb.Buffered(), len(tt.want))
			}
			p := make([]byte, 2*len(tt.want))
			if n, _ := rb.Read(p); n != len(p) {
				t.Fatalf("read %d bytes", n)
			}
			for i, w := range tt.want {
				got := int16(uint16(p[2*i]) | uint16(p[2*i+1])<<8)
				if got != w {
					t.Errorf("sample %d = %d, want %d", i, got, w)
				}
			}
		})
	}
}

func TestAudioRingBuffer_CloseUnblocksRead(t *testing.T) {
	rb := NewAudioRingBuffer(4)
	done := make(chan error, 1)
	go func() {
		_, err := rb.Read(make([]byte, 4))
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	rb.Close()

	select {
	case err := <-done:
		if err != io.EOF {
			t.Errorf("got %v, want io.EOF", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read still blocked after Close")
	}

	rb.Write([]int16{1})
	if rb.Buffered() != 0 {
		t.Error("write after close was buffered")
	}
}

func TestAudioRingBuffer_Clear(t *testing.T) {
	rb := NewAudioRingBuffer(4)
	rb.Write([]int16{1, 2, 3})
	rb.Clear()
	if rb.Buffered() != 0 {
		t.Errorf("Buffered = %d after Clear", rb.Buffered())
	}
}
