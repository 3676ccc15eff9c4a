package ui

// Scope colours, RGBA.
var (
	scopeBackground = [4]byte{0x10, 0x10, 0x18, 0xFF}
	scopeAxis       = [4]byte{0x30, 0x30, 0x40, 0xFF}
	scopeTrace      = [4]byte{0x60, 0xE0, 0x80, 0xFF}
	scopeMuted      = [4]byte{0x60, 0x60, 0x60, 0xFF}
)

// RenderScope draws traces into an RGBA image of w x h pixels, one
// horizontal lane per trace from top to bottom. muted[i], when present,
// greys out trace i. pixels must hold at least w*h*4 bytes.
func RenderScope(pixels []byte, w, h int, traces [][]int16, muted []bool) {
	for i := 0; i < w*h; i++ {
		copy(pixels[i*4:], scopeBackground[:])
	}
	if len(traces) == 0 || w <= 0 {
		return
	}

	lane := h / len(traces)
	if lane < 3 {
		return
	}
	half := lane/2 - 1

	for t, trace := range traces {
		top := t * lane
		mid := top + lane/2
		for x := 0; x < w; x++ {
			setPixel(pixels, w, x, mid, scopeAxis)
		}
		if len(trace) == 0 {
			continue
		}

		col := scopeTrace
		if t < len(muted) && muted[t] {
			col = scopeMuted
		}

		prev := -1
		for x := 0; x < w; x++ {
			s := int(trace[x*len(trace)/w])
			y := mid - s*half/32768
			if prev < 0 {
				prev = y
			}
			// Join to the previous column so steep edges stay visible.
			y0, y1 := prev, y
			if y0 > y1 {
				y0, y1 = y1, y0
			}
			for yy := y0; yy <= y1; yy++ {
				setPixel(pixels, w, x, yy, col)
			}
			prev = y
		}
	}
}

func setPixel(pixels []byte, w, x, y int, c [4]byte) {
	copy(pixels[(y*w+x)*4:], c[:])
}
