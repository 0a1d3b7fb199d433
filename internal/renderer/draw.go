package renderer

import (
	"image/color"
	"math"
	"strings"

	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

// anchor is a 9-position placement expressed as horizontal and vertical
// fractions (0 = left/top, 0.5 = centre, 1 = right/bottom).
type anchor struct {
	h, v float64
}

var anchors = map[string]anchor{
	"top-left":      {0, 0},
	"top-center":    {0.5, 0},
	"top-right":     {1, 0},
	"middle-left":   {0, 0.5},
	"center":        {0.5, 0.5},
	"middle-right":  {1, 0.5},
	"bottom-left":   {0, 1},
	"bottom-center": {0.5, 1},
	"bottom-right":  {1, 1},
}

func parseAnchor(s string, def anchor) anchor {
	if a, ok := anchors[strings.ToLower(s)]; ok {
		return a
	}
	return def
}

// anchorOffset places a w×h block so that its anchor point sits on p.
func anchorOffset(p geometry.Point, w, h float64, a anchor) geometry.Point {
	return geometry.Point{X: p.X - a.h*w, Y: p.Y - a.v*h}
}

// roundedRectPath adds a rectangle with rounded corners to the current path.
func roundedRectPath(dc canvas.Context, b geometry.Box, r float64) {
	r = math.Min(r, math.Min(b.Width, b.Height)/2)
	if r <= 0 {
		dc.Rect(b.X, b.Y, b.Width, b.Height)
		return
	}
	dc.MoveTo(b.X+r, b.Y)
	dc.LineTo(b.X+b.Width-r, b.Y)
	dc.Arc(b.X+b.Width-r, b.Y+r, r, -math.Pi/2, 0)
	dc.LineTo(b.X+b.Width, b.Y+b.Height-r)
	dc.Arc(b.X+b.Width-r, b.Y+b.Height-r, r, 0, math.Pi/2)
	dc.LineTo(b.X+r, b.Y+b.Height)
	dc.Arc(b.X+r, b.Y+b.Height-r, r, math.Pi/2, math.Pi)
	dc.LineTo(b.X, b.Y+r)
	dc.Arc(b.X+r, b.Y+r, r, math.Pi, 3*math.Pi/2)
	dc.ClosePath()
}

// textBlockSize measures lines as one block including padding.
func textBlockSize(dc canvas.Context, lines []string, padding, spacing float64) (w, h float64) {
	for i, l := range lines {
		m := dc.MeasureText(l)
		w = math.Max(w, m.Width)
		h += m.Height()
		if i > 0 {
			h += spacing
		}
	}
	return w + 2*padding, h + 2*padding
}

// drawTextWithBackground paints lines on a background sized to the measured
// text. The block's top-left corner is at (x, y). It returns the background box.
func drawTextWithBackground(dc canvas.Context, lines []string, x, y float64, opts Options) geometry.Box {
	dc.SetFontSize(opts.Float("fontSize", 13))
	padding := opts.Float("padding", 4)
	spacing := opts.Float("lineSpacing", 2)
	w, h := textBlockSize(dc, lines, padding, spacing)
	box := geometry.Box{X: x, Y: y, Width: w, Height: h}

	if bg := opts.Color("labelBackground", nil); bg != nil {
		dc.SetFillColor(bg)
		dc.BeginPath()
		roundedRectPath(dc, box, opts.Float("cornerRadius", 0))
		dc.Fill()
	}

	dc.SetFillColor(opts.Color("textColor", color.White))
	ty := y + padding
	for _, l := range lines {
		dc.FillText(l, x+padding, ty)
		ty += dc.MeasureText(l).Height() + spacing
	}
	return box
}

// wrapText breaks text into lines no wider than maxWidth. Explicit newlines
// always break; a single word wider than maxWidth keeps its own line.
func wrapText(dc canvas.Context, text string, maxWidth float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if maxWidth > 0 && dc.MeasureText(candidate).Width > maxWidth {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

// drawMarker fills a circle with an outline.
func drawMarker(dc canvas.Context, p geometry.Point, r float64, fill, outline color.Color) {
	dc.BeginPath()
	dc.Arc(p.X, p.Y, r, 0, 2*math.Pi)
	dc.ClosePath()
	dc.SetFillColor(fill)
	dc.Fill()
	if outline != nil {
		dc.SetStrokeColor(outline)
		dc.SetLineWidth(math.Max(1, r/3))
		dc.Stroke()
	}
}

// drawArrowHead fills a triangle pointing along dir with its tip at tip.
func drawArrowHead(dc canvas.Context, tip, dir geometry.Point, size float64, col color.Color) {
	l := math.Hypot(dir.X, dir.Y)
	if l == 0 {
		return
	}
	u := dir.Scale(1 / l)
	n := geometry.Point{X: -u.Y, Y: u.X}
	base := tip.Sub(u.Scale(size))
	left := base.Add(n.Scale(size / 2))
	right := base.Sub(n.Scale(size / 2))

	dc.BeginPath()
	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(left.X, left.Y)
	dc.LineTo(right.X, right.Y)
	dc.ClosePath()
	dc.SetFillColor(col)
	dc.Fill()
}
