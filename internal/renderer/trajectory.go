package renderer

import (
	"image/color"
	"log"
	"math"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

// ArrowWindowMs is the half-width of the window the direction arrow's tangent
// is measured over.
const ArrowWindowMs = 500

// trajectoryData is the canonical trajectory payload. Waypoints are normalized
// and carry absolute media timestamps:
//
//	{"points": [{"x":0,"y":0,"timeMs":0}, ...], "label": "ball"}
type trajectoryData struct {
	Points []geometry.Waypoint `json:"points"`
	Label  string              `json:"label"`
}

// TrajectoryRenderer draws a faint full path, an opaque recent history, the
// interpolated current position, a direction arrow and an optional dashed
// future path. Every sub-path is cut from the same cubic segments the marker
// is interpolated on.
type TrajectoryRenderer struct {
	category string
	entries  []entry[trajectoryData]
}

// NewTrajectoryRenderer builds the renderer for category.
func NewTrajectoryRenderer(category string, items []annotation.Annotation, logger *log.Logger) Renderer {
	r := &TrajectoryRenderer{category: category}
	r.entries = decodeAll(category, items, r.DefaultOptions(), loggerOrDefault(logger), func(d *trajectoryData) error {
		if len(d.Points) == 0 {
			return annotation.MissingField(category, "points")
		}
		return nil
	})
	return r
}

func (r *TrajectoryRenderer) Category() string { return r.category }

func (r *TrajectoryRenderer) DefaultOptions() Options {
	return Options{
		"color":         "#ffcc00",
		"lineWidth":     3.0,
		"interpolation": "curve",
		"showFullPath":  true,
		"pathOpacity":   0.3,
		"historyMs":     2000.0,
		"showArrow":     true,
		"arrowSize":     14.0,
		"showFuture":    false,
		"futureDash":    []any{8.0, 6.0},
		"markerRadius":  6.0,
		"markerOutline": "#ffffff",
		"showLabel":     true,
	}
}

func (r *TrajectoryRenderer) Render(dc canvas.Context, nowMs float64, rect geometry.Rect) error {
	for _, e := range r.entries {
		if !e.ann.ActiveAt(nowMs) {
			continue
		}
		r.draw(dc, e, nowMs, rect)
	}
	return nil
}

func (r *TrajectoryRenderer) draw(dc canvas.Context, e entry[trajectoryData], nowMs float64, rect geometry.Rect) {
	pts := toPixels(e.data.Points, rect)
	mode := geometry.EffectiveMode(len(pts), geometry.ParseMode(e.opts.String("interpolation", "linear")))
	col := e.opts.Color("color", color.White)
	width := e.opts.Float("lineWidth", 3)
	opacity := e.opts.Float("opacity", 1)

	dc.Save()
	defer dc.Restore()
	dc.SetStrokeColor(col)
	dc.SetLineWidth(width)

	first, last := pts[0].TimeMs, pts[len(pts)-1].TimeMs

	if e.opts.Bool("showFullPath", true) {
		dc.SetGlobalAlpha(opacity * e.opts.Float("pathOpacity", 0.3))
		dc.BeginPath()
		if traceRange(dc, pts, first, last, mode) {
			dc.Stroke()
		}
	}

	dc.SetGlobalAlpha(opacity)
	history := e.opts.Float("historyMs", 2000)
	dc.BeginPath()
	if traceRange(dc, pts, nowMs-history, nowMs, mode) {
		dc.Stroke()
	}

	if e.opts.Bool("showFuture", false) {
		dc.SetLineDash(e.opts.Floats("futureDash"))
		dc.BeginPath()
		if traceRange(dc, pts, nowMs, last, mode) {
			dc.Stroke()
		}
		dc.SetLineDash(nil)
	}

	pos, ok := geometry.Interpolate(pts, nowMs, mode)
	if !ok {
		return
	}

	if e.opts.Bool("showArrow", true) {
		if dir, ok := geometry.Tangent(pts, nowMs, ArrowWindowMs, mode); ok {
			size := e.opts.Float("arrowSize", 14)
			radius := e.opts.Float("markerRadius", 6)
			u := dir.Scale(1 / math.Hypot(dir.X, dir.Y))
			tail := pos.Add(u.Scale(radius))
			tip := pos.Add(u.Scale(radius + size*1.5))
			dc.BeginPath()
			dc.MoveTo(tail.X, tail.Y)
			dc.LineTo(tip.X, tip.Y)
			dc.Stroke()
			drawArrowHead(dc, tip.Add(u.Scale(size/2)), dir, size, col)
		}
	}

	drawMarker(dc, pos, e.opts.Float("markerRadius", 6), col, e.opts.Color("markerOutline", nil))

	if e.data.Label != "" && e.opts.Bool("showLabel", true) {
		r := e.opts.Float("markerRadius", 6)
		drawTextWithBackground(dc, []string{e.data.Label}, pos.X+r+4, pos.Y-r-4, e.opts)
	}
}

// Position returns the interpolated pixel position of the i-th active
// trajectory at nowMs, using the same logic Render uses for the marker.
func (r *TrajectoryRenderer) Position(i int, nowMs float64, rect geometry.Rect) (geometry.Point, bool) {
	if i < 0 || i >= len(r.entries) {
		return geometry.Point{}, false
	}
	e := r.entries[i]
	pts := toPixels(e.data.Points, rect)
	mode := geometry.EffectiveMode(len(pts), geometry.ParseMode(e.opts.String("interpolation", "linear")))
	return geometry.Interpolate(pts, nowMs, mode)
}

func toPixels(points []geometry.Waypoint, rect geometry.Rect) []geometry.Waypoint {
	out := make([]geometry.Waypoint, len(points))
	for i, wp := range points {
		p := geometry.DenormalizePoint(wp.Point(), rect)
		out[i] = geometry.Waypoint{X: p.X, Y: p.Y, TimeMs: wp.TimeMs}
	}
	return out
}

// traceRange adds the part of the trajectory between from and to to the
// current path. Curve segments are cut with de Casteljau splits so the partial
// path coincides with the full one. It reports false when the range is empty.
func traceRange(dc canvas.Context, pts []geometry.Waypoint, from, to float64, mode geometry.Mode) bool {
	if len(pts) < 2 {
		return false
	}
	from = math.Max(from, pts[0].TimeMs)
	to = math.Min(to, pts[len(pts)-1].TimeMs)
	if !(to > from) {
		return false
	}
	start, ok := geometry.Interpolate(pts, from, mode)
	if !ok {
		return false
	}
	dc.MoveTo(start.X, start.Y)

	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		span := b.TimeMs - a.TimeMs
		if span <= 0 || b.TimeMs <= from || a.TimeMs >= to {
			continue
		}
		t0 := (math.Max(from, a.TimeMs) - a.TimeMs) / span
		t1 := (math.Min(to, b.TimeMs) - a.TimeMs) / span

		if mode == geometry.Curve {
			sub := subCubic(geometry.SegmentCubic(pts, i), t0, t1)
			dc.CubicTo(sub.C1.X, sub.C1.Y, sub.C2.X, sub.C2.Y, sub.P1.X, sub.P1.Y)
			continue
		}
		end := geometry.LerpPoint(a.Point(), b.Point(), t1)
		dc.LineTo(end.X, end.Y)
	}
	return true
}

// subCubic returns the portion of c between parameters t0 and t1.
func subCubic(c geometry.Cubic, t0, t1 float64) geometry.Cubic {
	if t0 > 0 {
		_, c = c.Split(t0)
		if t0 >= 1 {
			return c
		}
		t1 = (t1 - t0) / (1 - t0)
	}
	if t1 < 1 {
		c, _ = c.Split(t1)
	}
	return c
}
