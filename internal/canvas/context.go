package canvas

import (
	"image"
	"image/color"
)

// TextMetrics describes the extent of a measured string in pixels.
type TextMetrics struct {
	Width   float64
	Ascent  float64
	Descent float64
}

// Height is Ascent + Descent.
func (m TextMetrics) Height() float64 { return m.Ascent + m.Descent }

// Context is the drawing API exposed to renderers.
type Context interface {
	Save()
	Restore()
	SetStrokeColor(c color.Color)
	SetFillColor(c color.Color)
	SetLineWidth(w float64)
	SetLineDash(pattern []float64)
	SetGlobalAlpha(a float64)
	SetFontSize(px float64)

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	CubicTo(c1x, c1y, c2x, c2y, x, y float64)
	Arc(cx, cy, r, start, end float64)
	Rect(x, y, w, h float64)
	ClosePath()
	Stroke()
	Fill()

	Clear()
	FillRect(x, y, w, h float64)
	StrokeRect(x, y, w, h float64)
	FillText(text string, x, y float64)
	MeasureText(text string) TextMetrics
	DrawImage(img image.Image, x, y, w, h float64)

	Size() (width, height int)
}

type state struct {
	stroke    color.Color
	fill      color.Color
	lineWidth float64
	dash      []float64
	alpha     float64
	fontSize  float64
}

func defaultState() state {
	return state{
		stroke:    color.Black,
		fill:      color.Black,
		lineWidth: 1,
		alpha:     1,
		fontSize:  13,
	}
}

func (s state) clone() state {
	c := s
	if s.dash != nil {
		c.dash = append([]float64(nil), s.dash...)
	}
	return c
}

// withAlpha applies the global alpha to c.
func withAlpha(c color.Color, alpha float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if alpha < 1 {
		if alpha < 0 {
			alpha = 0
		}
		n.A = uint8(float64(n.A)*alpha + 0.5)
	}
	return n
}
