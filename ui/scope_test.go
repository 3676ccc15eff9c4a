package ui

import "testing"

func pixelAt(pixels []byte, w, x, y int) [4]byte {
	var c [4]byte
	copy(c[:], pixels[(y*w+x)*4:])
	return c
}

func TestRenderScope_Lanes(t *testing.T) {
	const w, h = 16, 30
	pixels := make([]byte, w*h*4)

	flat := make([]int16, 32)
	high := make([]int16, 32)
	for i := range high {
		high[i] = 32767
	}
	RenderScope(pixels, w, h, [][]int16{flat, high, flat}, []bool{false, false, true})

	// Lane height 10: centres at 5, 15, 25. Full scale reaches 3 rows out.
	if c := pixelAt(pixels, w, 3, 5); c != scopeTrace {
		t.Errorf("flat trace pixel = %v", c)
	}
	if c := pixelAt(pixels, w, 3, 15); c != scopeAxis {
		t.Errorf("axis under high trace = %v", c)
	}
	if c := pixelAt(pixels, w, 3, 12); c != scopeTrace {
		t.Errorf("high trace pixel = %v", c)
	}
	if c := pixelAt(pixels, w, 3, 25); c != scopeMuted {
		t.Errorf("muted trace pixel = %v", c)
	}
	if c := pixelAt(pixels, w, 3, 0); c != scopeBackground {
		t.Errorf("background pixel = %v", c)
	}
}

func TestRenderScope_StaysInLane(t *testing.T) {
	const w, h = 8, 20
	pixels := make([]byte, w*h*4)
	low := make([]int16, 8)
	for i := range low {
		low[i] = -32768
	}
	RenderScope(pixels, w, h, [][]int16{low, nil}, nil)

	// Lane 0 covers rows 0-9; its lowest row is 9.
	if c := pixelAt(pixels, w, 2, 9); c != scopeTrace {
		t.Errorf("bottom of lane = %v", c)
	}
	for x := 0; x < w; x++ {
		for y := 10; y < h; y++ {
			if c := pixelAt(pixels, w, x, y); c == scopeTrace {
				t.Fatalf("trace leaked into lane 1 at %d,%d", x, y)
			}
		}
	}
}

func TestRenderScope_Empty(t *testing.T) {
	pixels := make([]byte, 4*4*4)
	RenderScope(pixels, 4, 4, nil, nil)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if pixelAt(pixels, 4, x, y) != scopeBackground {
				t.Fatal("empty scope not cleared")
			}
		}
	}
}
