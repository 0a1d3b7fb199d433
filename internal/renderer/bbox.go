package renderer

import (
	"fmt"
	"image/color"
	"log"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

// boxData is the canonical detection payload:
//
//	{"bbox": {"x":0.1,"y":0.2,"width":0.3,"height":0.4}, "label": "car", "confidence": 0.92}
type boxData struct {
	BBox       *geometry.Box `json:"bbox"`
	Label      string        `json:"label"`
	Confidence *float64      `json:"confidence"`
}

// BoundingBoxRenderer strokes normalized boxes with an optional label.
type BoundingBoxRenderer struct {
	category string
	entries  []entry[boxData]
}

// NewBoundingBoxRenderer builds the renderer for category.
func NewBoundingBoxRenderer(category string, items []annotation.Annotation, logger *log.Logger) Renderer {
	r := &BoundingBoxRenderer{category: category}
	r.entries = decodeAll(category, items, r.DefaultOptions(), loggerOrDefault(logger), func(d *boxData) error {
		if d.BBox == nil {
			return annotation.MissingField(category, "bbox")
		}
		return nil
	})
	return r
}

func (r *BoundingBoxRenderer) Category() string { return r.category }

func (r *BoundingBoxRenderer) DefaultOptions() Options {
	return Options{
		"color":          "#00ff00",
		"lineWidth":      2.0,
		"fillColor":      "none",
		"showLabel":      true,
		"showConfidence": true,
		"labelPosition":  "top-left",
		"fontSize":       13.0,
	}
}

func (r *BoundingBoxRenderer) Render(dc canvas.Context, nowMs float64, rect geometry.Rect) error {
	for _, e := range r.entries {
		if !e.ann.ActiveAt(nowMs) {
			continue
		}
		r.draw(dc, e, rect)
	}
	return nil
}

func (r *BoundingBoxRenderer) draw(dc canvas.Context, e entry[boxData], rect geometry.Rect) {
	box := geometry.DenormalizeBox(*e.data.BBox, rect)
	radius := e.opts.Float("cornerRadius", 0)

	dc.Save()
	defer dc.Restore()
	dc.SetGlobalAlpha(e.opts.Float("opacity", 1))

	if fill := e.opts.Color("fillColor", nil); fill != nil {
		dc.SetFillColor(fill)
		dc.BeginPath()
		roundedRectPath(dc, box, radius)
		dc.Fill()
	}

	dc.SetStrokeColor(e.opts.Color("color", color.White))
	dc.SetLineWidth(e.opts.Float("lineWidth", 2))
	dc.BeginPath()
	roundedRectPath(dc, box, radius)
	dc.Stroke()

	text := labelText(e.data, e.opts.Bool("showConfidence", true))
	if text == "" || !e.opts.Bool("showLabel", true) {
		return
	}
	labelOpts := ResolveOptions(e.opts, Options{"cornerRadius": 0.0})
	dc.SetFontSize(labelOpts.Float("fontSize", 13))
	w, h := textBlockSize(dc, []string{text}, labelOpts.Float("padding", 4), 0)
	pos := labelPosition(box, w, h, parseAnchor(e.opts.String("labelPosition", ""), anchors["top-left"]))
	drawTextWithBackground(dc, []string{text}, pos.X, pos.Y, labelOpts)
}

func labelText(d boxData, withConfidence bool) string {
	switch {
	case d.Label != "" && withConfidence && d.Confidence != nil:
		return fmt.Sprintf("%s %.0f%%", d.Label, *d.Confidence*100)
	case d.Label != "":
		return d.Label
	case withConfidence && d.Confidence != nil:
		return fmt.Sprintf("%.0f%%", *d.Confidence*100)
	}
	return ""
}

// labelPosition places a w×h label relative to box. Top anchors sit just above
// the box (falling back inside when that would leave the target), bottom
// anchors just below it, middle anchors are centred vertically inside.
func labelPosition(box geometry.Box, w, h float64, a anchor) geometry.Point {
	x := box.X + a.h*(box.Width-w)
	var y float64
	switch a.v {
	case 0:
		y = box.Y - h
		if y < 0 {
			y = box.Y
		}
	case 1:
		y = box.Y + box.Height
	default:
		y = box.Y + (box.Height-h)/2
	}
	return geometry.Point{X: x, Y: y}
}
