package canvas

import (
	"image"
	"image/color"
)

// Op is one recorded Context call.
type Op struct {
	Name string
	Args []float64
	Text string
}

// drawOps are the calls that put pixels on the target.
var drawOps = map[string]bool{
	"Stroke":     true,
	"Fill":       true,
	"FillRect":   true,
	"StrokeRect": true,
	"FillText":   true,
	"DrawImage":  true,
}

// Recorder is a Context that records calls instead of drawing. It also
// satisfies the coordinator's render target contract, so tests can count
// draw calls per frame.
type Recorder struct {
	Ops []Op

	width, height int
	st            state
	stack         []state
}

// NewRecorder creates a recorder reporting the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height, st: defaultState()}
}

func (r *Recorder) record(name string, args ...float64) {
	r.Ops = append(r.Ops, Op{Name: name, Args: args})
}

// Context returns the recorder itself.
func (r *Recorder) Context() Context { return r }

// Resize changes the reported size.
func (r *Recorder) Resize(width, height int) {
	r.width, r.height = width, height
	r.record("Resize", float64(width), float64(height))
}

// Reset forgets every recorded call.
func (r *Recorder) Reset() { r.Ops = nil }

// Count returns how many calls named name were recorded.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

// DrawCalls counts the calls that paint pixels.
func (r *Recorder) DrawCalls() int {
	n := 0
	for _, op := range r.Ops {
		if drawOps[op.Name] {
			n++
		}
	}
	return n
}

// Texts returns every string passed to FillText, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Name == "FillText" {
			out = append(out, op.Text)
		}
	}
	return out
}

func (r *Recorder) Size() (int, int) { return r.width, r.height }

func (r *Recorder) Save() {
	r.stack = append(r.stack, r.st.clone())
	r.record("Save")
}

func (r *Recorder) Restore() {
	if len(r.stack) > 0 {
		r.st = r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
	}
	r.record("Restore")
}

func (r *Recorder) SetStrokeColor(c color.Color) { r.st.stroke = c; r.record("SetStrokeColor") }
func (r *Recorder) SetFillColor(c color.Color)   { r.st.fill = c; r.record("SetFillColor") }
func (r *Recorder) SetLineWidth(w float64)       { r.st.lineWidth = w; r.record("SetLineWidth", w) }
func (r *Recorder) SetGlobalAlpha(a float64)     { r.st.alpha = a; r.record("SetGlobalAlpha", a) }
func (r *Recorder) SetFontSize(px float64)       { r.st.fontSize = px; r.record("SetFontSize", px) }

func (r *Recorder) SetLineDash(pattern []float64) {
	r.st.dash = sanitizeDash(pattern)
	r.record("SetLineDash", pattern...)
}

func (r *Recorder) BeginPath()          { r.record("BeginPath") }
func (r *Recorder) MoveTo(x, y float64) { r.record("MoveTo", x, y) }
func (r *Recorder) LineTo(x, y float64) { r.record("LineTo", x, y) }
func (r *Recorder) ClosePath()          { r.record("ClosePath") }
func (r *Recorder) Stroke()             { r.record("Stroke") }
func (r *Recorder) Fill()               { r.record("Fill") }
func (r *Recorder) Clear()              { r.record("Clear") }

func (r *Recorder) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	r.record("CubicTo", c1x, c1y, c2x, c2y, x, y)
}

func (r *Recorder) Arc(cx, cy, rad, start, end float64) {
	r.record("Arc", cx, cy, rad, start, end)
}

func (r *Recorder) Rect(x, y, w, h float64)       { r.record("Rect", x, y, w, h) }
func (r *Recorder) FillRect(x, y, w, h float64)   { r.record("FillRect", x, y, w, h) }
func (r *Recorder) StrokeRect(x, y, w, h float64) { r.record("StrokeRect", x, y, w, h) }

func (r *Recorder) FillText(text string, x, y float64) {
	r.Ops = append(r.Ops, Op{Name: "FillText", Args: []float64{x, y}, Text: text})
}

func (r *Recorder) MeasureText(text string) TextMetrics {
	return measure(text, r.st.fontSize)
}

func (r *Recorder) DrawImage(img image.Image, x, y, w, h float64) {
	r.record("DrawImage", x, y, w, h)
}
