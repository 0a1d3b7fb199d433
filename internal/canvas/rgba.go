package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/ivlev/overlay2video/internal/geometry"
)

// RGBAContext rasterizes draw calls onto an *image.RGBA.
type RGBAContext struct {
	dst   *image.RGBA
	z     *vector.Rasterizer
	st    state
	stack []state
	p     path
}

// NewRGBAContext wraps dst.
func NewRGBAContext(dst *image.RGBA) *RGBAContext {
	c := &RGBAContext{st: defaultState()}
	c.SetTarget(dst)
	return c
}

// SetTarget switches the destination image, e.g. after a resize.
func (c *RGBAContext) SetTarget(dst *image.RGBA) {
	c.dst = dst
	b := dst.Bounds()
	if c.z == nil {
		c.z = vector.NewRasterizer(b.Dx(), b.Dy())
	} else {
		c.z.Reset(b.Dx(), b.Dy())
	}
	c.z.DrawOp = draw.Over
}

// Image returns the destination image.
func (c *RGBAContext) Image() *image.RGBA { return c.dst }

func (c *RGBAContext) Size() (int, int) {
	b := c.dst.Bounds()
	return b.Dx(), b.Dy()
}

func (c *RGBAContext) Save() {
	c.stack = append(c.stack, c.st.clone())
}

func (c *RGBAContext) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.st = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *RGBAContext) SetStrokeColor(col color.Color) { c.st.stroke = col }
func (c *RGBAContext) SetFillColor(col color.Color)   { c.st.fill = col }

func (c *RGBAContext) SetLineWidth(w float64) {
	if w > 0 && !math.IsNaN(w) {
		c.st.lineWidth = w
	}
}

func (c *RGBAContext) SetLineDash(pattern []float64) {
	c.st.dash = sanitizeDash(pattern)
}

func (c *RGBAContext) SetGlobalAlpha(a float64) {
	if !math.IsNaN(a) {
		c.st.alpha = geometry.Clamp(a, 0, 1)
	}
}

func (c *RGBAContext) SetFontSize(px float64) {
	if px > 0 {
		c.st.fontSize = px
	}
}

func (c *RGBAContext) BeginPath()          { c.p.reset() }
func (c *RGBAContext) MoveTo(x, y float64) { c.p.moveTo(x, y) }
func (c *RGBAContext) LineTo(x, y float64) { c.p.lineTo(x, y) }
func (c *RGBAContext) ClosePath()          { c.p.closePath() }

func (c *RGBAContext) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	c.p.cubicTo(geometry.Point{X: c1x, Y: c1y}, geometry.Point{X: c2x, Y: c2y}, geometry.Point{X: x, Y: y})
}

func (c *RGBAContext) Arc(cx, cy, r, start, end float64) {
	c.p.arc(cx, cy, r, start, end)
}

func (c *RGBAContext) Rect(x, y, w, h float64) {
	c.p.moveTo(x, y)
	c.p.lineTo(x+w, y)
	c.p.lineTo(x+w, y+h)
	c.p.lineTo(x, y+h)
	c.p.closePath()
}

// Fill fills the current path with the non-zero rule.
func (c *RGBAContext) Fill() {
	if c.empty() {
		return
	}
	c.z.Reset(c.dst.Bounds().Dx(), c.dst.Bounds().Dy())
	c.z.DrawOp = draw.Over
	drawn := false
	for _, sp := range c.p.subs {
		if c.addPolygon(sp.pts) {
			drawn = true
		}
	}
	if drawn {
		c.paint(c.st.fill)
	}
}

// Stroke outlines the current path with butt caps and bevel joins. Dashes
// are applied before outlining.
func (c *RGBAContext) Stroke() {
	if c.empty() {
		return
	}
	c.z.Reset(c.dst.Bounds().Dx(), c.dst.Bounds().Dy())
	c.z.DrawOp = draw.Over

	out := &rasterOutline{c: c}
	stroker := drawing.NewLineStroker(drawing.ButtCap, drawing.BevelJoin, out)
	stroker.HalfLineWidth = c.st.lineWidth / 2
	var dasher drawing.Flattener
	if len(c.st.dash) > 0 {
		dasher = drawing.NewDashVertexConverter(c.st.dash, 0, stroker)
	}
	for _, sp := range c.p.subs {
		pts := strokePoints(sp)
		if len(pts) < 2 {
			continue
		}
		var liner drawing.Flattener = stroker
		if dasher != nil && pathLength(pts) <= maxDashes*dashPeriod(c.st.dash) {
			liner = dasher
		}
		liner.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			liner.LineTo(p.X, p.Y)
		}
		liner.End()
	}
	if out.drawn {
		c.paint(c.st.stroke)
	}
}

func (c *RGBAContext) Clear() {
	for i := range c.dst.Pix {
		c.dst.Pix[i] = 0
	}
}

func (c *RGBAContext) FillRect(x, y, w, h float64) {
	c.BeginPath()
	c.Rect(x, y, w, h)
	c.Fill()
	c.BeginPath()
}

func (c *RGBAContext) StrokeRect(x, y, w, h float64) {
	c.BeginPath()
	c.Rect(x, y, w, h)
	c.Stroke()
	c.BeginPath()
}

// DrawImage scales img into the destination rectangle.
func (c *RGBAContext) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	r := image.Rect(int(math.Round(x)), int(math.Round(y)), int(math.Round(x+w)), int(math.Round(y+h)))
	var opts *xdraw.Options
	if c.st.alpha < 1 {
		mask := image.NewUniform(color.Alpha{A: uint8(c.st.alpha*255 + 0.5)})
		opts = &xdraw.Options{SrcMask: mask}
	}
	xdraw.BiLinear.Scale(c.dst, r, img, img.Bounds(), draw.Over, opts)
}

func (c *RGBAContext) empty() bool {
	b := c.dst.Bounds()
	return b.Dx() == 0 || b.Dy() == 0
}

func (c *RGBAContext) paint(col color.Color) {
	src := image.NewUniform(withAlpha(col, c.st.alpha))
	c.z.Draw(c.dst, c.dst.Bounds(), src, image.Point{})
}

// coord keeps rasterizer input finite and within a sane range around the target.
func (c *RGBAContext) coord(p geometry.Point) (float32, float32) {
	b := c.dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	return float32(geometry.Clamp(p.X, -2*w, 3*w)), float32(geometry.Clamp(p.Y, -2*h, 3*h))
}

func (c *RGBAContext) addPolygon(pts []geometry.Point) bool {
	if len(pts) < 3 {
		return false
	}
	for _, p := range pts {
		if !finite(p) {
			return false
		}
	}
	x, y := c.coord(pts[0])
	c.z.MoveTo(x, y)
	for _, p := range pts[1:] {
		x, y = c.coord(p)
		c.z.LineTo(x, y)
	}
	c.z.ClosePath()
	return true
}

// maxDashes bounds the dash runs emitted for one subpath. Longer subpaths
// are stroked solid.
const maxDashes = 100000

func dashPeriod(pattern []float64) float64 {
	total := 0.0
	for _, d := range pattern {
		total += d
	}
	return total
}

func pathLength(pts []geometry.Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	return total
}

func sanitizeDash(pattern []float64) []float64 {
	if len(pattern) == 0 {
		return nil
	}
	total := 0.0
	for _, d := range pattern {
		if d < 0 || math.IsNaN(d) {
			return nil
		}
		total += d
	}
	if total == 0 {
		return nil
	}
	out := append([]float64(nil), pattern...)
	if len(out)%2 == 1 {
		out = append(out, out...)
	}
	return out
}
