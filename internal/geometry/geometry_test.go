package geometry

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestDenormalizeBox(t *testing.T) {
	got := DenormalizeBox(Box{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}, Rect{Width: 1000, Height: 500})
	want := Box{X: 100, Y: 100, Width: 300, Height: 200}
	if !near(got.X, want.X) || !near(got.Y, want.Y) || !near(got.Width, want.Width) || !near(got.Height, want.Height) {
		t.Errorf("DenormalizeBox = %+v, want %+v", got, want)
	}
}

func TestDenormalizeUnitRectIsIdentity(t *testing.T) {
	unit := Rect{Width: 1, Height: 1}
	p := Point{X: 0.25, Y: 0.75}
	if got := DenormalizePoint(p, unit); got != p {
		t.Errorf("DenormalizePoint(%v, unit) = %v", p, got)
	}
	if got := DenormalizePoint(DenormalizePoint(p, unit), unit); got != p {
		t.Errorf("DenormalizePoint not idempotent under unit rect: %v", got)
	}
	b := Box{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}
	if got := DenormalizeBox(b, unit); got != b {
		t.Errorf("DenormalizeBox(%v, unit) = %v", b, got)
	}
}

func TestDenormalizeIsLinear(t *testing.T) {
	r := Rect{Width: 640, Height: 480}
	a := Point{X: 0.1, Y: 0.3}
	b := Point{X: 0.5, Y: 0.2}
	sum := DenormalizePoint(a.Add(b), r)
	parts := DenormalizePoint(a, r).Add(DenormalizePoint(b, r))
	if !near(sum.X, parts.X) || !near(sum.Y, parts.Y) {
		t.Errorf("not additive: %v vs %v", sum, parts)
	}
	scaled := DenormalizePoint(a.Scale(3), r)
	want := DenormalizePoint(a, r).Scale(3)
	if !near(scaled.X, want.X) || !near(scaled.Y, want.Y) {
		t.Errorf("not homogeneous: %v vs %v", scaled, want)
	}
}

func TestDenormalizePropagatesNaN(t *testing.T) {
	got := DenormalizePoint(Point{X: math.NaN(), Y: 0.5}, Rect{Width: 100, Height: 100})
	if !math.IsNaN(got.X) || got.Y != 50 {
		t.Errorf("expected NaN to propagate, got %v", got)
	}
}
