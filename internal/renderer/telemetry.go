package renderer

import (
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

// syntheticSamples is the resolution of the placeholder waveform.
const syntheticSamples = 64

// telemetrySeries is one numeric signal sampled at absolute media timestamps.
type telemetrySeries struct {
	Name    string    `json:"name"`
	TimesMs []float64 `json:"timesMs"`
	Values  []float64 `json:"values"`
	Color   string    `json:"color"`
}

// telemetryData is the canonical telemetry payload:
//
//	{"title": "accel", "unit": "g", "range": 0.75,
//	 "series": [{"name":"x","timesMs":[0,40,80],"values":[0.1,-0.2,0.05]}]}
type telemetryData struct {
	Title  string            `json:"title"`
	Unit   string            `json:"unit"`
	Range  float64           `json:"range"`
	Series []telemetrySeries `json:"series"`

	synthetic bool
}

// TelemetryRenderer draws a translucent strip with one or more time series
// scaled into a fixed physical range, plus a timeline cursor.
type TelemetryRenderer struct {
	category string
	entries  []entry[telemetryData]
}

// NewTelemetryRenderer builds the renderer for category. Series whose times and
// values disagree are dropped. When nothing usable remains a synthetic
// waveform spanning the annotation window stands in, so the panel is always
// drawn while the record is active.
func NewTelemetryRenderer(category string, items []annotation.Annotation, logger *log.Logger) Renderer {
	logger = loggerOrDefault(logger)
	r := &TelemetryRenderer{category: category}
	r.entries = decodeAll(category, items, r.DefaultOptions(), logger, func(d *telemetryData) error {
		kept := d.Series[:0]
		for i, s := range d.Series {
			if len(s.TimesMs) < 2 || len(s.TimesMs) != len(s.Values) {
				logger.Printf("[!] %s: dropping series %d (%q): %d times, %d values",
					category, i, s.Name, len(s.TimesMs), len(s.Values))
				continue
			}
			kept = append(kept, s)
		}
		d.Series = kept
		return nil
	})
	for i := range r.entries {
		e := &r.entries[i]
		if len(e.data.Series) == 0 {
			e.data.Series = []telemetrySeries{syntheticSeries(e.ann.StartTimeMs, e.ann.EndTimeMs(), e.opts.Float("range", 0.75))}
			e.data.synthetic = true
		}
	}
	return r
}

// syntheticSeries returns a sine sweep over [start, end] with amplitude half
// the panel range.
func syntheticSeries(start, end, rng float64) telemetrySeries {
	if !(end > start) {
		end = start + 1
	}
	s := telemetrySeries{Name: "synthetic"}
	for i := 0; i < syntheticSamples; i++ {
		f := float64(i) / float64(syntheticSamples-1)
		s.TimesMs = append(s.TimesMs, geometry.Lerp(start, end, f))
		s.Values = append(s.Values, rng/2*math.Sin(f*4*math.Pi))
	}
	return s
}

func (r *TelemetryRenderer) Category() string { return r.category }

func (r *TelemetryRenderer) DefaultOptions() Options {
	return Options{
		"color":           "#ff6b6b",
		"lineWidth":       2.0,
		"panelX":          0.02,
		"panelY":          0.74,
		"panelWidth":      0.96,
		"panelHeight":     0.22,
		"panelBackground": "rgba(0,0,0,0.55)",
		"range":           0.75,
		"unit":            "g",
		"cursorColor":     "#ffffff",
		"fontSize":        12.0,
		"cornerRadius":    6.0,
	}
}

func (r *TelemetryRenderer) Render(dc canvas.Context, nowMs float64, rect geometry.Rect) error {
	for _, e := range r.entries {
		if !e.ann.ActiveAt(nowMs) {
			continue
		}
		r.draw(dc, e, nowMs, rect)
	}
	return nil
}

// panelBox is the strip's pixel rectangle.
func panelBox(opts Options, rect geometry.Rect) geometry.Box {
	return geometry.DenormalizeBox(geometry.Box{
		X:      opts.Float("panelX", 0.02),
		Y:      opts.Float("panelY", 0.74),
		Width:  opts.Float("panelWidth", 0.96),
		Height: opts.Float("panelHeight", 0.22),
	}, rect)
}

func (r *TelemetryRenderer) draw(dc canvas.Context, e entry[telemetryData], nowMs float64, rect geometry.Rect) {
	panel := panelBox(e.opts, rect)
	if panel.Width <= 0 || panel.Height <= 0 {
		return
	}
	rng := e.data.Range
	if rng <= 0 {
		rng = e.opts.Float("range", 0.75)
	}
	unit := e.data.Unit
	if unit == "" {
		unit = e.opts.String("unit", "")
	}
	lo, hi := timeSpan(e.data.Series)

	dc.Save()
	defer dc.Restore()
	dc.SetGlobalAlpha(e.opts.Float("opacity", 1))

	if bg := e.opts.Color("panelBackground", nil); bg != nil {
		dc.SetFillColor(bg)
		dc.BeginPath()
		roundedRectPath(dc, panel, e.opts.Float("cornerRadius", 0))
		dc.Fill()
	}

	// zero line
	mid := panel.Y + panel.Height/2
	dc.SetStrokeColor(color.NRGBA{255, 255, 255, 80})
	dc.SetLineWidth(1)
	dc.BeginPath()
	dc.MoveTo(panel.X, mid)
	dc.LineTo(panel.X+panel.Width, mid)
	dc.Stroke()

	def := e.opts.Color("color", color.White)
	dc.SetLineWidth(e.opts.Float("lineWidth", 2))
	for i, s := range e.data.Series {
		col := def
		if c, ok := ParseColor(s.Color); ok {
			col = c
		} else if i > 0 {
			col = paletteColor(i)
		}
		dc.SetStrokeColor(col)
		dc.BeginPath()
		for j := range s.TimesMs {
			x := panel.X + panel.Width*fraction(s.TimesMs[j], lo, hi)
			y := mid - geometry.Clamp(s.Values[j]/rng, -1, 1)*panel.Height/2
			if j == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}

	cx := panel.X + panel.Width*fraction(nowMs, lo, hi)
	dc.SetStrokeColor(e.opts.Color("cursorColor", color.White))
	dc.SetLineWidth(1.5)
	dc.BeginPath()
	dc.MoveTo(cx, panel.Y)
	dc.LineTo(cx, panel.Y+panel.Height)
	dc.Stroke()

	title := e.data.Title
	if e.data.synthetic && title == "" {
		title = "no telemetry"
	}
	caption := fmt.Sprintf("±%.2f%s", rng, unit)
	if title != "" {
		caption = title + "  " + caption
	}
	labelOpts := ResolveOptions(e.opts, Options{"labelBackground": "none"})
	drawTextWithBackground(dc, []string{caption}, panel.X, panel.Y, labelOpts)
}

// timeSpan returns the earliest and latest sample time across all series.
func timeSpan(series []telemetrySeries) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, t := range s.TimesMs {
			lo = math.Min(lo, t)
			hi = math.Max(hi, t)
		}
	}
	return lo, hi
}

// fraction maps t into [0, 1] over [lo, hi].
func fraction(t, lo, hi float64) float64 {
	if !(hi > lo) {
		return 0
	}
	return geometry.Clamp((t-lo)/(hi-lo), 0, 1)
}
