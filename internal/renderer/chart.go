package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"slices"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

// Chart kinds.
const (
	ChartLine    = "line"
	ChartBar     = "bar"
	ChartScatter = "scatter"
)

// chartSeries holds either explicit x/y points or plain values indexed 0..n-1.
type chartSeries struct {
	Name   string           `json:"name"`
	Points []geometry.Point `json:"points"`
	Values []float64        `json:"values"`
	Color  string           `json:"color"`
}

func (s chartSeries) xy() []geometry.Point {
	if len(s.Points) > 0 {
		return s.Points
	}
	out := make([]geometry.Point, len(s.Values))
	for i, v := range s.Values {
		out[i] = geometry.Point{X: float64(i), Y: v}
	}
	return out
}

// chartData is the canonical chart payload. Rect is normalized.
//
//	{"type": "line", "rect": {"x":0.6,"y":0.05,"width":0.35,"height":0.3},
//	 "title": "speed", "series": [{"name":"km/h","values":[10,20,35]}]}
type chartData struct {
	Type   string        `json:"type"`
	Rect   *geometry.Box `json:"rect"`
	Title  string        `json:"title"`
	Series []chartSeries `json:"series"`
	YMin   *float64      `json:"yMin"`
	YMax   *float64      `json:"yMax"`
}

// ChartRenderer draws a small line, bar or scatter chart with go-chart. Chart
// data never changes, so each chart is rasterized once per on-screen size and
// blitted on later frames.
type ChartRenderer struct {
	category string
	entries  []entry[chartData]

	cache   map[int]chartImage
	cacheW  int
	cacheH  int
	renders int
}

type chartImage struct {
	img image.Image
	err error
}

func NewChartRenderer(category string, items []annotation.Annotation, logger *log.Logger) Renderer {
	r := &ChartRenderer{category: category, cache: make(map[int]chartImage)}
	r.entries = decodeAll(category, items, r.DefaultOptions(), loggerOrDefault(logger), func(d *chartData) error {
		d.Series = slices.DeleteFunc(d.Series, func(s chartSeries) bool { return len(s.xy()) == 0 })
		if len(d.Series) == 0 {
			return annotation.MissingField(category, "series")
		}
		switch d.Type {
		case "":
			d.Type = ChartLine
		case ChartLine, ChartBar, ChartScatter:
		default:
			return fmt.Errorf("unsupported chart type %q", d.Type)
		}
		return nil
	})
	return r
}

func (r *ChartRenderer) Category() string { return r.category }

func (r *ChartRenderer) DefaultOptions() Options {
	return Options{
		"color":           "#4dabf7",
		"lineWidth":       2.0,
		"panelBackground": "rgba(0,0,0,0.55)",
		"axisColor":       "#cccccc",
		"gridColor":       "rgba(255,255,255,0.15)",
		"showGrid":        true,
		"showLegend":      true,
		"ticks":           5.0,
		"fontSize":        11.0,
		"padding":         6.0,
		"pointRadius":     3.0,
	}
}

// minChartSide is the smallest panel go-chart can lay out axes in.
const minChartSide = 48

func (r *ChartRenderer) Render(dc canvas.Context, nowMs float64, rect geometry.Rect) error {
	var firstErr error
	for i, e := range r.entries {
		if !e.ann.ActiveAt(nowMs) {
			continue
		}
		area := geometry.Box{X: 0.6, Y: 0.05, Width: 0.35, Height: 0.3}
		if e.data.Rect != nil {
			area = *e.data.Rect
		}
		box := geometry.DenormalizeBox(area, rect)
		w, h := int(math.Round(box.Width)), int(math.Round(box.Height))
		if w < minChartSide || h < minChartSide {
			continue
		}

		ci := r.raster(i, e, w, h)
		if ci.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("chart %d: %w", i, ci.err)
			}
			continue
		}
		dc.Save()
		dc.SetGlobalAlpha(e.opts.Float("opacity", 1))
		dc.DrawImage(ci.img, box.X, box.Y, box.Width, box.Height)
		dc.Restore()
	}
	return firstErr
}

// raster returns the cached image for entry i, dropping every cached image
// when the panel size changes.
func (r *ChartRenderer) raster(i int, e entry[chartData], w, h int) chartImage {
	if w != r.cacheW || h != r.cacheH {
		clear(r.cache)
		r.cacheW, r.cacheH = w, h
	}
	if ci, ok := r.cache[i]; ok {
		return ci
	}
	r.renders++
	var buf bytes.Buffer
	var err error
	if e.data.Type == ChartBar {
		bc := newBarChart(e.data, e.opts, w, h)
		err = bc.Render(chart.PNG, &buf)
	} else {
		ch := newSeriesChart(e.data, e.opts, w, h)
		err = ch.Render(chart.PNG, &buf)
	}
	ci := chartImage{err: err}
	if err == nil {
		ci.img, ci.err = png.Decode(&buf)
	}
	r.cache[i] = ci
	return ci
}

// chartTheme holds the go-chart styles shared by every chart kind.
type chartTheme struct {
	background chart.Style
	canvas     chart.Style
	title      chart.Style
	axis       chart.Style
	grid       chart.Style
	yAxis      chart.YAxis
}

func newChartTheme(d chartData, opts Options) chartTheme {
	textCol := drawingColor(opts.Color("textColor", color.White))
	axisCol := drawingColor(opts.Color("axisColor", color.White))
	fontSize := opts.Float("fontSize", 11)
	pad := int(opts.Float("padding", 6))

	bg := drawingColor(opts.Color("panelBackground", nil))
	th := chartTheme{
		background: chart.Style{
			FillColor:   bg,
			StrokeColor: bg,
			Padding:     chart.Box{Top: pad + int(fontSize), Left: pad, Right: pad + 4, Bottom: pad},
		},
		canvas: chart.Style{FillColor: drawing.ColorTransparent, StrokeColor: drawing.ColorTransparent},
		title:  chart.Style{FontColor: textCol, FontSize: fontSize + 1},
		axis:   chart.Style{FontColor: textCol, FontSize: fontSize, StrokeColor: axisCol, StrokeWidth: 1},
		grid:   chart.Style{Hidden: true},
	}
	if gridCol := opts.Color("gridColor", nil); gridCol != nil && opts.Bool("showGrid", true) {
		th.grid = chart.Style{StrokeColor: drawingColor(gridCol), StrokeWidth: 1}
	}

	_, _, ymin, ymax := chartBounds(d)
	ticks := niceTicks(ymin, ymax, int(opts.Float("ticks", 5)))
	if len(ticks) > 1 {
		ymin, ymax = math.Min(ymin, ticks[0]), math.Max(ymax, ticks[len(ticks)-1])
	} else {
		ticks = []float64{ymin, ymax}
	}
	th.yAxis = chart.YAxis{
		Style:          th.axis,
		Range:          &chart.ContinuousRange{Min: ymin, Max: ymax},
		Ticks:          chartTicks(ticks),
		ValueFormatter: formatValue,
		GridMajorStyle: th.grid,
		GridMinorStyle: chart.Style{Hidden: true},
	}
	return th
}

// newSeriesChart builds the go-chart Chart for line and scatter payloads.
func newSeriesChart(d chartData, opts Options, w, h int) chart.Chart {
	th := newChartTheme(d, opts)
	xmin, xmax, _, _ := chartBounds(d)
	def := opts.Color("color", color.White)

	var series []chart.Series
	for i, s := range d.Series {
		pts := s.xy()
		xs, ys := make([]float64, len(pts)), make([]float64, len(pts))
		for j, p := range pts {
			xs[j], ys[j] = p.X, p.Y
		}
		col := drawingColor(seriesColor(i, s, def))
		st := chart.Style{StrokeColor: col, StrokeWidth: opts.Float("lineWidth", 2)}
		if d.Type == ChartScatter {
			st = pointStyle(col, opts.Float("pointRadius", 3))
		}
		series = append(series, chart.ContinuousSeries{Name: s.Name, XValues: xs, YValues: ys, Style: st})
	}

	ch := chart.Chart{
		Title:      d.Title,
		TitleStyle: th.title,
		Width:      w,
		Height:     h,
		DPI:        72,
		Background: th.background,
		Canvas:     th.canvas,
		XAxis: chart.XAxis{
			Style:          th.axis,
			Range:          &chart.ContinuousRange{Min: xmin, Max: xmax},
			ValueFormatter: formatValue,
			GridMajorStyle: chart.Style{Hidden: true},
			GridMinorStyle: chart.Style{Hidden: true},
		},
		YAxis:  th.yAxis,
		Series: series,
	}
	if opts.Bool("showLegend", true) && len(d.Series) > 1 {
		ch.Elements = []chart.Renderable{chart.Legend(&ch, chart.Style{
			FillColor:   drawing.ColorTransparent,
			StrokeColor: drawing.ColorTransparent,
			FontColor:   th.axis.FontColor,
			FontSize:    th.axis.FontSize,
		})}
	}
	return ch
}

// newBarChart lays bars out by x position, series side by side.
func newBarChart(d chartData, opts Options, w, h int) chart.BarChart {
	th := newChartTheme(d, opts)
	def := opts.Color("color", color.White)

	var bars []chart.Value
	longest := 0
	for _, s := range d.Series {
		longest = max(longest, len(s.xy()))
	}
	for j := 0; j < longest; j++ {
		for i, s := range d.Series {
			pts := s.xy()
			if j >= len(pts) {
				continue
			}
			col := drawingColor(seriesColor(i, s, def))
			label := formatTick(pts[j].X)
			if len(d.Series) > 1 {
				label = s.Name
			}
			bars = append(bars, chart.Value{
				Value: pts[j].Y,
				Label: label,
				Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
			})
		}
	}

	// leave roughly a fifth of the plot width as spacing
	slot := max(2, (w-th.background.Padding.Left-th.background.Padding.Right-40)/max(len(bars), 1))
	barW := max(1, slot*4/5)
	return chart.BarChart{
		Title:        d.Title,
		TitleStyle:   th.title,
		Width:        w,
		Height:       h,
		DPI:          72,
		Background:   th.background,
		Canvas:       th.canvas,
		XAxis:        th.axis,
		YAxis:        th.yAxis,
		BarWidth:     barW,
		BarSpacing:   max(1, slot-barW),
		UseBaseValue: true,
		BaseValue:    0,
		Bars:         bars,
	}
}

// pointStyle renders points only, with no connecting line.
func pointStyle(col drawing.Color, radius float64) chart.Style {
	return chart.Style{
		StrokeColor: drawing.ColorTransparent,
		StrokeWidth: 0,
		DotWidth:    radius,
		DotColor:    col,
	}
}

func seriesColor(i int, s chartSeries, def color.Color) color.Color {
	if c, ok := ParseColor(s.Color); ok {
		return c
	}
	if i > 0 {
		return paletteColor(i)
	}
	return def
}

// drawingColor converts to go-chart's straight-alpha colour. A nil or fully
// transparent colour maps to drawing.ColorTransparent, since go-chart treats
// the zero Color as unset.
func drawingColor(c color.Color) drawing.Color {
	if c == nil {
		return drawing.ColorTransparent
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0 {
		return drawing.ColorTransparent
	}
	return drawing.Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

func chartTicks(values []float64) []chart.Tick {
	out := make([]chart.Tick, len(values))
	for i, v := range values {
		out[i] = chart.Tick{Value: v, Label: formatTick(v)}
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return formatTick(x)
	case int:
		return strconv.Itoa(x)
	}
	return fmt.Sprint(v)
}

// chartBounds returns the data extent, honouring explicit y limits.
func chartBounds(d chartData) (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, s := range d.Series {
		for _, p := range s.xy() {
			xmin, xmax = math.Min(xmin, p.X), math.Max(xmax, p.X)
			ymin, ymax = math.Min(ymin, p.Y), math.Max(ymax, p.Y)
		}
	}
	if math.IsInf(xmin, 1) {
		xmin, xmax, ymin, ymax = 0, 1, 0, 1
	}
	if d.Type == ChartBar {
		ymin = math.Min(ymin, 0)
	}
	if d.YMin != nil {
		ymin = *d.YMin
	}
	if d.YMax != nil {
		ymax = *d.YMax
	}
	if xmax == xmin {
		xmax = widen(xmin)
	}
	if ymax == ymin {
		ymax = widen(ymin)
	}
	return xmin, xmax, ymin, ymax
}

// widen returns v+1, or the next float above v where v+1 rounds back to v.
func widen(v float64) float64 {
	return math.Max(v+1, math.Nextafter(v, math.Inf(1)))
}

// niceTicks returns evenly spaced round values covering [lo, hi] using steps
// of 1, 2 or 5 times a power of ten. It returns nil when no such step is
// representable at the magnitude of lo or more than 4×count ticks would be
// needed.
func niceTicks(lo, hi float64, count int) []float64 {
	if count < 2 || !(hi > lo) || math.IsInf(hi-lo, 0) {
		return nil
	}
	raw := (hi - lo) / float64(count-1)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 5, 10} {
		if m*mag >= raw {
			step = m * mag
			break
		}
	}
	start := math.Floor(lo/step) * step
	if start+step == start {
		return nil
	}
	n := max(int(math.Ceil((hi-start)/step-1e-9)), 1)
	if n > 4*count {
		return nil
	}
	out := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		out = append(out, math.Round((start+float64(k)*step)/step)*step)
	}
	return out
}

func formatTick(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}
