package renderer

import (
	"bytes"
	"errors"
	"image"
	"log"
	"math"
	"strings"
	"testing"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

func mustAnnotation(t *testing.T, category string, start, dur float64, data map[string]any) annotation.Annotation {
	t.Helper()
	a, err := annotation.New(category, start, dur, data)
	if err != nil {
		t.Fatalf("annotation.New: %v", err)
	}
	return a
}

func opsNamed(rec *canvas.Recorder, name string) []canvas.Op {
	var out []canvas.Op
	for _, op := range rec.Ops {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBoundingBoxScenario(t *testing.T) {
	a := mustAnnotation(t, CategoryDetection, 1000, 4000, map[string]any{
		"bbox": map[string]any{"x": 0.1, "y": 0.2, "width": 0.3, "height": 0.4},
	})
	r := NewBoundingBoxRenderer(CategoryDetection, []annotation.Annotation{a}, nil)
	rect := geometry.Rect{Width: 1000, Height: 500}

	tests := []struct {
		now    float64
		active bool
	}{
		{500, false},
		{1000, true},
		{3000, true},
		{5000, true},
		{5001, false},
	}
	for _, tt := range tests {
		rec := canvas.NewRecorder(1000, 500)
		if err := r.Render(rec, tt.now, rect); err != nil {
			t.Fatalf("Render(%v): %v", tt.now, err)
		}
		rects := opsNamed(rec, "Rect")
		if !tt.active {
			if rec.DrawCalls() != 0 {
				t.Errorf("T=%v: %d draw calls, want 0", tt.now, rec.DrawCalls())
			}
			continue
		}
		if len(rects) != 1 {
			t.Fatalf("T=%v: %d Rect ops, want 1", tt.now, len(rects))
		}
		want := []float64{100, 100, 300, 200}
		for i, v := range want {
			if !near(rects[0].Args[i], v) {
				t.Errorf("T=%v: rect = %v, want %v", tt.now, rects[0].Args, want)
				break
			}
		}
		if rec.Count("Stroke") != 1 {
			t.Errorf("T=%v: %d strokes, want 1", tt.now, rec.Count("Stroke"))
		}
	}
}

func TestBoundingBoxLabel(t *testing.T) {
	a := mustAnnotation(t, CategoryDetection, 0, 1000, map[string]any{
		"bbox":       map[string]any{"x": 0.1, "y": 0.2, "width": 0.3, "height": 0.4},
		"label":      "car",
		"confidence": 0.87,
	})
	r := NewBoundingBoxRenderer(CategoryDetection, []annotation.Annotation{a}, nil)
	rec := canvas.NewRecorder(1000, 500)
	r.Render(rec, 500, geometry.Rect{Width: 1000, Height: 500})

	texts := rec.Texts()
	if len(texts) != 1 || texts[0] != "car 87%" {
		t.Errorf("texts = %q, want [car 87%%]", texts)
	}
}

func TestEmptyListIssuesNoDrawCalls(t *testing.T) {
	reg := DefaultRegistry()
	for _, cat := range reg.Categories() {
		r, err := reg.New(cat, nil, nil)
		if err != nil {
			t.Fatalf("New(%s): %v", cat, err)
		}
		rec := canvas.NewRecorder(640, 360)
		if err := r.Render(rec, 1000, geometry.Rect{Width: 640, Height: 360}); err != nil {
			t.Errorf("%s: Render: %v", cat, err)
		}
		if n := rec.DrawCalls(); n != 0 {
			t.Errorf("%s: %d draw calls for an empty list", cat, n)
		}
	}
}

func TestMalformedRecordsAreSkipped(t *testing.T) {
	tests := []struct {
		category string
		bad      map[string]any
		good     map[string]any
	}{
		{
			CategoryDetection,
			map[string]any{"label": "no box"},
			map[string]any{"bbox": map[string]any{"x": 0, "y": 0, "width": 0.5, "height": 0.5}},
		},
		{
			CategoryTrajectory,
			map[string]any{"points": []any{}},
			map[string]any{"points": []any{
				map[string]any{"x": 0, "y": 0, "timeMs": 0},
				map[string]any{"x": 1, "y": 1, "timeMs": 1000},
			}},
		},
		{
			CategoryCalibration,
			map[string]any{"lines": []any{map[string]any{"start": map[string]any{"x": 0, "y": 0}}}},
			map[string]any{"lines": []any{map[string]any{
				"start": map[string]any{"x": 0, "y": 0.5},
				"end":   map[string]any{"x": 1, "y": 0.5},
			}}},
		},
		{
			CategoryText,
			map[string]any{"text": "   "},
			map[string]any{"text": "hello"},
		},
		{
			CategoryChart,
			map[string]any{"type": "pie", "series": []any{map[string]any{"values": []any{1, 2}}}},
			map[string]any{"series": []any{map[string]any{"values": []any{1, 2}}}},
		},
		{
			CategoryQRCode,
			map[string]any{"position": map[string]any{"x": 0, "y": 0}},
			map[string]any{"text": "frame-42"},
		},
	}

	reg := DefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.New(&buf, "", 0)
			items := []annotation.Annotation{
				mustAnnotation(t, tt.category, 0, 2000, tt.bad),
				mustAnnotation(t, tt.category, 0, 2000, tt.good),
			}
			r, err := reg.New(tt.category, items, logger)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), "[!]") {
				t.Errorf("no warning logged, got %q", buf.String())
			}
			rec := canvas.NewRecorder(800, 600)
			if err := r.Render(rec, 1000, geometry.Rect{Width: 800, Height: 600}); err != nil {
				t.Fatal(err)
			}
			if rec.DrawCalls() == 0 {
				t.Error("the valid record was not drawn")
			}
			t.Logf("%s: %d draw calls; log: %s", tt.category, rec.DrawCalls(), strings.TrimSpace(buf.String()))
		})
	}
}

func TestStyleOverrideWins(t *testing.T) {
	a := mustAnnotation(t, CategoryDetection, 0, 1000, map[string]any{
		"bbox":  map[string]any{"x": 0, "y": 0, "width": 1, "height": 1},
		"style": map[string]any{"lineWidth": 7, "color": "#ff0000"},
	})
	r := NewBoundingBoxRenderer(CategoryDetection, []annotation.Annotation{a}, nil).(*BoundingBoxRenderer)
	opts := r.entries[0].opts
	if got := opts.Float("lineWidth", 0); got != 7 {
		t.Errorf("lineWidth = %v, want 7", got)
	}
	if got := opts.String("color", ""); got != "#ff0000" {
		t.Errorf("color = %q, want #ff0000", got)
	}
	// untouched keys fall through to renderer defaults, then fallbacks
	if got := opts.String("labelPosition", ""); got != "top-left" {
		t.Errorf("labelPosition = %q, want top-left", got)
	}
	if got := opts.Float("padding", 0); got != 4 {
		t.Errorf("padding = %v, want fallback 4", got)
	}
}

func trajectoryItems(t *testing.T, interpolation string, pts ...[3]float64) []annotation.Annotation {
	t.Helper()
	var raw []any
	for _, p := range pts {
		raw = append(raw, map[string]any{"x": p[0], "y": p[1], "timeMs": p[2]})
	}
	return []annotation.Annotation{mustAnnotation(t, CategoryTrajectory, 0, 5000, map[string]any{
		"points": raw,
		"style":  map[string]any{"interpolation": interpolation},
	})}
}

func TestTrajectoryScenario(t *testing.T) {
	items := trajectoryItems(t, "linear", [3]float64{0, 0, 0}, [3]float64{1, 0, 1000}, [3]float64{1, 1, 2000})
	r := NewTrajectoryRenderer(CategoryTrajectory, items, nil).(*TrajectoryRenderer)
	unit := geometry.Rect{Width: 1, Height: 1}

	tests := []struct {
		now  float64
		want geometry.Point
	}{
		{500, geometry.Point{X: 0.5, Y: 0}},
		{1500, geometry.Point{X: 1, Y: 0.5}},
	}
	for _, tt := range tests {
		got, ok := r.Position(0, tt.now, unit)
		if !ok || !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
			t.Errorf("Position(%v) = %v, %v; want %v", tt.now, got, ok, tt.want)
		}
	}
}

func TestTrajectoryTwoPointCurveMatchesLinear(t *testing.T) {
	pts := [][3]float64{{0.1, 0.2, 0}, {0.8, 0.6, 1000}}
	curve := NewTrajectoryRenderer(CategoryTrajectory, trajectoryItems(t, "curve", pts...), nil)
	linear := NewTrajectoryRenderer(CategoryTrajectory, trajectoryItems(t, "linear", pts...), nil)
	rect := geometry.Rect{Width: 640, Height: 480}

	for _, now := range []float64{0, 250, 500, 999, 1000} {
		a, b := canvas.NewRecorder(640, 480), canvas.NewRecorder(640, 480)
		curve.Render(a, now, rect)
		linear.Render(b, now, rect)
		if len(a.Ops) != len(b.Ops) {
			t.Fatalf("T=%v: %d ops vs %d", now, len(a.Ops), len(b.Ops))
		}
		for i := range a.Ops {
			if a.Ops[i].Name != b.Ops[i].Name {
				t.Fatalf("T=%v op %d: %s vs %s", now, i, a.Ops[i].Name, b.Ops[i].Name)
			}
			for j := range a.Ops[i].Args {
				if !near(a.Ops[i].Args[j], b.Ops[i].Args[j]) {
					t.Fatalf("T=%v op %d (%s): %v vs %v", now, i, a.Ops[i].Name, a.Ops[i].Args, b.Ops[i].Args)
				}
			}
		}
	}
}

func TestTrajectoryHistoryEndsAtMarker(t *testing.T) {
	items := trajectoryItems(t, "curve",
		[3]float64{0, 0, 0}, [3]float64{0.5, 0.2, 1000}, [3]float64{1, 1, 2000}, [3]float64{0.2, 0.9, 3000})
	r := NewTrajectoryRenderer(CategoryTrajectory, items, nil).(*TrajectoryRenderer)
	rect := geometry.Rect{Width: 1000, Height: 1000}

	for _, now := range []float64{400, 1700, 2600} {
		rec := canvas.NewRecorder(1000, 1000)
		rec.BeginPath()
		if !traceRange(rec, toPixels(r.entries[0].data.Points, rect), now-800, now, geometry.Curve) {
			t.Fatalf("T=%v: empty history", now)
		}
		cubics := opsNamed(rec, "CubicTo")
		if len(cubics) == 0 {
			t.Fatalf("T=%v: no curve segments", now)
		}
		last := cubics[len(cubics)-1].Args
		pos, _ := r.Position(0, now, rect)
		if math.Abs(last[4]-pos.X) > 1e-6 || math.Abs(last[5]-pos.Y) > 1e-6 {
			t.Errorf("T=%v: history ends at (%v,%v), marker at %v", now, last[4], last[5], pos)
		}
	}
}

func TestTrajectoryFutureIsDashed(t *testing.T) {
	items := trajectoryItems(t, "linear", [3]float64{0, 0, 0}, [3]float64{1, 1, 2000})
	items[0].Data["style"].(map[string]any)["showFuture"] = true
	r := NewTrajectoryRenderer(CategoryTrajectory, items, nil)
	rec := canvas.NewRecorder(100, 100)
	r.Render(rec, 1000, geometry.Rect{Width: 100, Height: 100})

	dashed := false
	for _, op := range opsNamed(rec, "SetLineDash") {
		if len(op.Args) > 0 {
			dashed = true
		}
	}
	if !dashed {
		t.Error("future path was not dashed")
	}
}

func TestCalibrationDropsIncompleteLines(t *testing.T) {
	var buf bytes.Buffer
	a := mustAnnotation(t, CategoryCalibration, 0, 1000, map[string]any{
		"lines": []any{
			map[string]any{"start": map[string]any{"x": 0, "y": 0.5}, "end": map[string]any{"x": 1, "y": 0.5}, "label": "horizon"},
			map[string]any{"start": map[string]any{"x": 0.2, "y": 0.2}},
		},
	})
	r := NewCalibrationRenderer(CategoryCalibration, []annotation.Annotation{a}, log.New(&buf, "", 0))
	if !strings.Contains(buf.String(), "dropping line 1") {
		t.Errorf("log = %q", buf.String())
	}
	rec := canvas.NewRecorder(200, 100)
	r.Render(rec, 500, geometry.Rect{Width: 200, Height: 100})

	moves := opsNamed(rec, "MoveTo")
	if len(moves) == 0 || !near(moves[0].Args[0], 0) || !near(moves[0].Args[1], 50) {
		t.Errorf("first line starts at %v, want (0,50)", moves)
	}
	if got := rec.Texts(); len(got) != 1 || got[0] != "horizon" {
		t.Errorf("labels = %q", got)
	}
}

func TestTelemetrySyntheticFallback(t *testing.T) {
	a := mustAnnotation(t, CategoryTelemetry, 1000, 2000, map[string]any{
		"series": []any{map[string]any{"name": "bad", "timesMs": []any{0, 1}, "values": []any{1}}},
	})
	r := NewTelemetryRenderer(CategoryTelemetry, []annotation.Annotation{a}, log.New(&bytes.Buffer{}, "", 0)).(*TelemetryRenderer)
	e := r.entries[0]
	if !e.data.synthetic || len(e.data.Series) != 1 {
		t.Fatalf("synthetic = %v, series = %d", e.data.synthetic, len(e.data.Series))
	}
	lo, hi := timeSpan(e.data.Series)
	if lo != 1000 || hi != 3000 {
		t.Errorf("synthetic span = [%v,%v], want [1000,3000]", lo, hi)
	}

	rec := canvas.NewRecorder(1000, 500)
	r.Render(rec, 2000, geometry.Rect{Width: 1000, Height: 500})
	if rec.DrawCalls() == 0 {
		t.Fatal("panel vanished without real series")
	}
	if texts := rec.Texts(); len(texts) != 1 || !strings.HasPrefix(texts[0], "no telemetry") {
		t.Errorf("caption = %q", texts)
	}
}

func TestTelemetryWithoutData(t *testing.T) {
	var buf bytes.Buffer
	a := mustAnnotation(t, CategoryTelemetry, 0, 1000, nil)
	r := NewTelemetryRenderer(CategoryTelemetry, []annotation.Annotation{a}, log.New(&buf, "", 0))

	rec := canvas.NewRecorder(1000, 500)
	if err := r.Render(rec, 500, geometry.Rect{Width: 1000, Height: 500}); err != nil {
		t.Fatal(err)
	}
	if rec.DrawCalls() == 0 {
		t.Fatal("panel vanished for a record without data")
	}
	if texts := rec.Texts(); len(texts) != 1 || !strings.HasPrefix(texts[0], "no telemetry") {
		t.Errorf("caption = %q", texts)
	}
	if strings.Contains(buf.String(), "skipping") {
		t.Errorf("record was skipped: %s", buf.String())
	}
}

func TestRecordsWithoutDataSkipped(t *testing.T) {
	reg := DefaultRegistry()
	for _, cat := range reg.Categories() {
		if cat == CategoryTelemetry {
			continue
		}
		var buf bytes.Buffer
		r, err := reg.New(cat, []annotation.Annotation{mustAnnotation(t, cat, 0, 1000, nil)}, log.New(&buf, "", 0))
		if err != nil {
			t.Fatal(err)
		}
		rec := canvas.NewRecorder(800, 600)
		r.Render(rec, 500, geometry.Rect{Width: 800, Height: 600})
		if rec.DrawCalls() != 0 {
			t.Errorf("%s: %d draw calls for a record without data", cat, rec.DrawCalls())
		}
		if !strings.Contains(buf.String(), "[!]") {
			t.Errorf("%s: no warning logged", cat)
		}
	}
}

func TestTelemetryCursor(t *testing.T) {
	a := mustAnnotation(t, CategoryTelemetry, 0, 10000, map[string]any{
		"series": []any{map[string]any{"timesMs": []any{1000, 3000}, "values": []any{0, 0.5}}},
		"style":  map[string]any{"panelX": 0, "panelWidth": 1},
	})
	r := NewTelemetryRenderer(CategoryTelemetry, []annotation.Annotation{a}, nil)

	tests := []struct {
		now, wantX float64
	}{
		{1000, 0},
		{2000, 500},
		{3000, 1000},
		{9000, 1000}, // clamped
	}
	for _, tt := range tests {
		rec := canvas.NewRecorder(1000, 500)
		r.Render(rec, tt.now, geometry.Rect{Width: 1000, Height: 500})
		moves := opsNamed(rec, "MoveTo")
		// zero line, series, cursor
		cursor := moves[len(moves)-1]
		if !near(cursor.Args[0], tt.wantX) {
			t.Errorf("T=%v: cursor x = %v, want %v", tt.now, cursor.Args[0], tt.wantX)
		}
	}
}

func TestTextWrapsAndAnchors(t *testing.T) {
	a := mustAnnotation(t, CategoryText, 0, 1000, map[string]any{
		"text":     "the quick brown fox jumps over the lazy dog",
		"position": map[string]any{"x": 0.5, "y": 0.5},
		"anchor":   "center",
		"maxWidth": 0.3,
		"style":    map[string]any{"fontSize": 13},
	})
	r := NewTextRenderer(CategoryText, []annotation.Annotation{a}, nil)
	rec := canvas.NewRecorder(400, 400)
	r.Render(rec, 0, geometry.Rect{Width: 400, Height: 400})

	lines := rec.Texts()
	if len(lines) < 2 {
		t.Fatalf("expected wrapped lines, got %q", lines)
	}
	for _, l := range lines {
		if w := rec.MeasureText(l).Width; w > 0.3*400-16 {
			t.Errorf("line %q is %vpx wide", l, w)
		}
	}
	if strings.Join(lines, " ") != "the quick brown fox jumps over the lazy dog" {
		t.Errorf("wrap lost words: %q", lines)
	}
	t.Logf("wrapped into %d lines: %q", len(lines), lines)
}

func TestChartBars(t *testing.T) {
	a := mustAnnotation(t, CategoryChart, 0, 1000, map[string]any{
		"type":   "bar",
		"rect":   map[string]any{"x": 0, "y": 0, "width": 1, "height": 1},
		"series": []any{map[string]any{"name": "n", "values": []any{3, 7, 5}, "color": "#ff0000"}},
		"style":  map[string]any{"panelBackground": "none"},
	})
	r := NewChartRenderer(CategoryChart, []annotation.Annotation{a}, nil).(*ChartRenderer)

	bc := newBarChart(r.entries[0].data, r.entries[0].opts, 400, 300)
	if len(bc.Bars) != 3 {
		t.Fatalf("bars = %d, want 3", len(bc.Bars))
	}

	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	if err := r.Render(canvas.NewRGBAContext(img), 500, geometry.Rect{Width: 400, Height: 300}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	red := 0
	for y := 0; y < 300; y++ {
		for x := 0; x < 400; x++ {
			if c := img.RGBAAt(x, y); c.R > 200 && c.G < 60 && c.B < 60 && c.A > 200 {
				red++
			}
		}
	}
	if red < 100 {
		t.Errorf("found %d red pixels, want the bars painted", red)
	}
	t.Logf("bar pixels: %d", red)
}

func TestChartDrawsOneImage(t *testing.T) {
	a := mustAnnotation(t, CategoryChart, 0, 1000, map[string]any{
		"rect":   map[string]any{"x": 0.5, "y": 0.5, "width": 0.5, "height": 0.5},
		"series": []any{map[string]any{"values": []any{1, 4, 2}}},
	})
	r := NewChartRenderer(CategoryChart, []annotation.Annotation{a}, nil).(*ChartRenderer)

	for i := 0; i < 3; i++ {
		rec := canvas.NewRecorder(400, 300)
		if err := r.Render(rec, float64(i*100), geometry.Rect{Width: 400, Height: 300}); err != nil {
			t.Fatalf("Render: %v", err)
		}
		ops := opsNamed(rec, "DrawImage")
		if len(ops) != 1 {
			t.Fatalf("DrawImage calls = %d, want 1", len(ops))
		}
		if got := ops[0].Args; got[0] != 200 || got[1] != 150 || got[2] != 200 || got[3] != 150 {
			t.Errorf("DrawImage args = %v, want 200,150,200,150", got)
		}
	}
	if r.renders != 1 {
		t.Errorf("rasterized %d times for one size, want 1", r.renders)
	}

	r.Render(canvas.NewRecorder(800, 600), 0, geometry.Rect{Width: 800, Height: 600})
	if r.renders != 2 {
		t.Errorf("rasterized %d times after a resize, want 2", r.renders)
	}
}

func TestChartLegendOnlyForSeveralSeries(t *testing.T) {
	data := func(n int) map[string]any {
		var series []any
		for i := 0; i < n; i++ {
			series = append(series, map[string]any{"name": string(rune('a' + i)), "values": []any{1, 2, 3}})
		}
		return map[string]any{"series": series, "style": map[string]any{"showGrid": false}}
	}
	for _, n := range []int{1, 2} {
		r := NewChartRenderer(CategoryChart, []annotation.Annotation{mustAnnotation(t, CategoryChart, 0, 1000, data(n))}, nil).(*ChartRenderer)
		ch := newSeriesChart(r.entries[0].data, r.entries[0].opts, 400, 300)
		want := 0
		if n > 1 {
			want = 1
		}
		if len(ch.Elements) != want {
			t.Errorf("%d series: %d legend elements, want %d", n, len(ch.Elements), want)
		}
		if len(ch.Series) != n {
			t.Errorf("%d series: chart has %d", n, len(ch.Series))
		}
		if !ch.YAxis.GridMajorStyle.Hidden {
			t.Errorf("%d series: grid shown with showGrid=false", n)
		}
	}
}

func TestChartScatterDrawsPointsOnly(t *testing.T) {
	a := mustAnnotation(t, CategoryChart, 0, 1000, map[string]any{
		"type":   "scatter",
		"series": []any{map[string]any{"points": []any{map[string]any{"x": 1, "y": 2}, map[string]any{"x": 3, "y": 1}}}},
	})
	r := NewChartRenderer(CategoryChart, []annotation.Annotation{a}, nil).(*ChartRenderer)
	ch := newSeriesChart(r.entries[0].data, r.entries[0].opts, 400, 300)
	st := ch.Series[0].(chart.ContinuousSeries).Style
	if st.DotWidth != 3 || st.StrokeColor != drawing.ColorTransparent {
		t.Errorf("scatter style = %+v, want dots with a transparent line", st)
	}
}

func TestChartLargeMagnitudeSeries(t *testing.T) {
	tests := []struct {
		name   string
		series map[string]any
	}{
		{"close values", map[string]any{"values": []any{1e17, 1e17 + 16}}},
		{"single point", map[string]any{"points": []any{map[string]any{"x": 1e17, "y": 1e17}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustAnnotation(t, CategoryChart, 0, 1000, map[string]any{"series": []any{tt.series}})
			r := NewChartRenderer(CategoryChart, []annotation.Annotation{a}, nil)

			done := make(chan error, 1)
			go func() {
				done <- r.Render(canvas.NewRecorder(800, 600), 500, geometry.Rect{Width: 800, Height: 600})
			}()
			select {
			case err := <-done:
				if err != nil {
					t.Errorf("Render: %v", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Render did not return for a series near 1e17")
			}
		})
	}
}

func TestNiceTicks(t *testing.T) {
	tests := []struct {
		lo, hi float64
		count  int
		want   []float64
	}{
		{0, 10, 5, []float64{0, 5, 10}},
		{0, 1, 6, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}},
		{-3, 7, 3, []float64{-5, 0, 5, 10}},
		{1, 1, 5, nil},
		// a step of 5 is below float64 spacing at 1e17
		{1e17, 1e17 + 16, 5, nil},
		{0, 100, 3, []float64{0, 50, 100}},
	}
	for _, tt := range tests {
		got := niceTicks(tt.lo, tt.hi, tt.count)
		if len(got) != len(tt.want) {
			t.Errorf("niceTicks(%v,%v,%d) = %v, want %v", tt.lo, tt.hi, tt.count, got, tt.want)
			continue
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-9 {
				t.Errorf("niceTicks(%v,%v,%d) = %v, want %v", tt.lo, tt.hi, tt.count, got, tt.want)
				break
			}
		}
	}
}

func TestQRCodeSingleFill(t *testing.T) {
	a := mustAnnotation(t, CategoryQRCode, 0, 1000, map[string]any{"text": "https://example.org/frame/42"})
	r := NewQRCodeRenderer(CategoryQRCode, []annotation.Annotation{a}, nil).(*QRCodeRenderer)
	n := len(r.entries[0].data.bitmap)
	if n < 21 {
		t.Fatalf("bitmap is %d modules wide, want at least 21", n)
	}
	rec := canvas.NewRecorder(1000, 1000)
	r.Render(rec, 500, geometry.Rect{Width: 1000, Height: 1000})
	if rec.Count("Fill") != 1 {
		t.Errorf("Fill = %d, want 1", rec.Count("Fill"))
	}
	if rec.Count("Rect") == 0 {
		t.Error("no modules drawn")
	}
	t.Logf("%dx%d modules, %d dark", n, n, rec.Count("Rect"))
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	if got := len(reg.Categories()); got != 7 {
		t.Errorf("%d categories, want 7", got)
	}
	if _, ok := reg.Lookup("heatmap"); ok {
		t.Error("Lookup found an unregistered category")
	}
	if _, err := reg.New("heatmap", nil, nil); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("New(heatmap) error = %v, want ErrUnknownCategory", err)
	}

	custom := reg.With("heatmap", NewTextRenderer)
	if _, ok := custom.Lookup("heatmap"); !ok {
		t.Error("With did not register heatmap")
	}
	if _, ok := reg.Lookup("heatmap"); ok {
		t.Error("With mutated the original registry")
	}
	r, _ := custom.New("heatmap", nil, nil)
	if r.Category() != "heatmap" {
		t.Errorf("Category() = %q", r.Category())
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want string
	}{
		{"#fff", true, "#ffffffff"},
		{"#00ff00", true, "#00ff00ff"},
		{"rgb(255, 0, 0)", true, "#ff0000ff"},
		{"red", true, "#ff3b30ff"},
		{"nope", false, ""},
	}
	for _, tt := range tests {
		c, ok := ParseColor(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseColor(%q) ok = %v", tt.in, ok)
			continue
		}
		if ok && FormatColor(c) != tt.want {
			t.Errorf("ParseColor(%q) = %s, want %s", tt.in, FormatColor(c), tt.want)
		}
	}
}
