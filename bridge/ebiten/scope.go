// Package ebiten draws emulator visualisations with Ebiten.
package ebiten

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// ScopeView scales an RGBA oscilloscope image onto the window.
type ScopeView struct {
	offscreen *ebiten.Image           // Offscreen buffer at native resolution
	drawOpts  ebiten.DrawImageOptions // Pre-allocated draw options to avoid per-frame allocation
}

// NewScopeView creates an empty view.
func NewScopeView() *ScopeView {
	return &ScopeView{}
}

// Layout implements ebiten.Game.
func (v *ScopeView) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Draw renders a w x h RGBA image to the screen, scaled to fit while
// preserving the aspect ratio.
func (v *ScopeView) Draw(screen *ebiten.Image, pixels []byte, w, h int) {
	if w == 0 || h == 0 {
		return
	}

	requiredLen := w * h * 4
	if len(pixels) < requiredLen {
		return
	}

	if v.offscreen == nil || v.offscreen.Bounds().Dx() != w || v.offscreen.Bounds().Dy() != h {
		v.offscreen = ebiten.NewImage(w, h)
	}

	v.offscreen.WritePixels(pixels[:requiredLen])

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	nativeW := float64(w)
	nativeH := float64(h)

	scaleX := float64(screenW) / nativeW
	scaleY := float64(screenH) / nativeH
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	offsetX := (float64(screenW) - nativeW*scale) / 2
	offsetY := (float64(screenH) - nativeH*scale) / 2

	v.drawOpts = ebiten.DrawImageOptions{}
	v.drawOpts.GeoM.Scale(scale, scale)
	v.drawOpts.GeoM.Translate(offsetX, offsetY)
	v.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(v.offscreen, &v.drawOpts)
}
