package canvas

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Text is drawn with the 7x13 bitmap face and scaled up by whole multiples to
// approximate the requested font size.
var face = basicfont.Face7x13

// textScale maps a font size in pixels to an integer glyph scale.
func textScale(px float64) int {
	s := int(math.Round(px / float64(face.Height)))
	if s < 1 {
		return 1
	}
	return s
}

func measure(text string, px float64) TextMetrics {
	s := float64(textScale(px))
	return TextMetrics{
		Width:   float64(font.MeasureString(face, text).Ceil()) * s,
		Ascent:  float64(face.Ascent) * s,
		Descent: float64(face.Descent) * s,
	}
}

func (c *RGBAContext) MeasureText(text string) TextMetrics {
	return measure(text, c.st.fontSize)
}

// FillText draws text with its top-left corner at (x, y).
func (c *RGBAContext) FillText(text string, x, y float64) {
	if text == "" || math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	src := image.NewUniform(withAlpha(c.st.fill, c.st.alpha))
	scale := textScale(c.st.fontSize)

	if scale == 1 {
		d := &font.Drawer{
			Dst:  c.dst,
			Src:  src,
			Face: face,
			Dot:  fixed.Point26_6{X: fixed.I(int(math.Round(x))), Y: fixed.I(int(math.Round(y)) + face.Ascent)},
		}
		d.DrawString(text)
		return
	}

	w := font.MeasureString(face, text).Ceil()
	glyphs := image.NewRGBA(image.Rect(0, 0, w, face.Height))
	d := &font.Drawer{
		Dst:  glyphs,
		Src:  src,
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: fixed.I(face.Ascent)},
	}
	d.DrawString(text)

	ox, oy := int(math.Round(x)), int(math.Round(y))
	r := image.Rect(ox, oy, ox+w*scale, oy+face.Height*scale)
	xdraw.NearestNeighbor.Scale(c.dst, r, glyphs, glyphs.Bounds(), draw.Over, nil)
}
