package renderer

import (
	"image/color"
	"log"
	"math"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

// calibrationLine is one reference segment in normalized space.
type calibrationLine struct {
	Start *geometry.Point `json:"start"`
	End   *geometry.Point `json:"end"`
	Label string          `json:"label"`
	Color string          `json:"color"`
}

// calibrationData is the canonical calibration payload:
//
//	{"lines": [{"start":{"x":0,"y":0.5},"end":{"x":1,"y":0.5},"label":"horizon"}]}
type calibrationData struct {
	Lines []calibrationLine `json:"lines"`
}

// CalibrationRenderer draws reference lines such as a horizon or lane markings.
type CalibrationRenderer struct {
	category string
	entries  []entry[calibrationData]
}

// NewCalibrationRenderer builds the renderer for category. Lines without both
// endpoints are dropped; a record left with no lines is skipped.
func NewCalibrationRenderer(category string, items []annotation.Annotation, logger *log.Logger) Renderer {
	logger = loggerOrDefault(logger)
	r := &CalibrationRenderer{category: category}
	r.entries = decodeAll(category, items, r.DefaultOptions(), logger, func(d *calibrationData) error {
		kept := d.Lines[:0]
		for i, l := range d.Lines {
			if l.Start == nil || l.End == nil {
				logger.Printf("[!] %s: dropping line %d without start/end", category, i)
				continue
			}
			kept = append(kept, l)
		}
		d.Lines = kept
		if len(d.Lines) == 0 {
			return annotation.MissingField(category, "lines")
		}
		return nil
	})
	return r
}

func (r *CalibrationRenderer) Category() string { return r.category }

func (r *CalibrationRenderer) DefaultOptions() Options {
	return Options{
		"color":          "#00bfff",
		"lineWidth":      2.0,
		"lineDash":       []any{},
		"showEndpoints":  true,
		"endpointRadius": 4.0,
		"showLabel":      true,
	}
}

func (r *CalibrationRenderer) Render(dc canvas.Context, nowMs float64, rect geometry.Rect) error {
	for _, e := range r.entries {
		if !e.ann.ActiveAt(nowMs) {
			continue
		}
		r.draw(dc, e, rect)
	}
	return nil
}

func (r *CalibrationRenderer) draw(dc canvas.Context, e entry[calibrationData], rect geometry.Rect) {
	dc.Save()
	defer dc.Restore()
	dc.SetGlobalAlpha(e.opts.Float("opacity", 1))
	dc.SetLineWidth(e.opts.Float("lineWidth", 2))

	def := e.opts.Color("color", color.White)
	radius := e.opts.Float("endpointRadius", 4)

	for _, l := range e.data.Lines {
		col := def
		if c, ok := ParseColor(l.Color); ok {
			col = c
		}
		a := geometry.DenormalizePoint(*l.Start, rect)
		b := geometry.DenormalizePoint(*l.End, rect)

		dc.SetStrokeColor(col)
		dc.SetLineDash(e.opts.Floats("lineDash"))
		dc.BeginPath()
		dc.MoveTo(a.X, a.Y)
		dc.LineTo(b.X, b.Y)
		dc.Stroke()
		dc.SetLineDash(nil)

		if e.opts.Bool("showEndpoints", true) && radius > 0 {
			drawMarker(dc, a, radius, col, nil)
			drawMarker(dc, b, radius, col, nil)
		}
		if l.Label != "" && e.opts.Bool("showLabel", true) {
			mid := geometry.LerpPoint(a, b, 0.5)
			dc.SetFontSize(e.opts.Float("fontSize", 13))
			w, h := textBlockSize(dc, []string{l.Label}, e.opts.Float("padding", 4), 0)
			pos := anchorOffset(mid, w, h, anchors["bottom-center"])
			pos.Y -= math.Max(radius, 2)
			drawTextWithBackground(dc, []string{l.Label}, pos.X, pos.Y, e.opts)
		}
	}
}
