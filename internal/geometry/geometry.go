package geometry

// Point is a 2D position. Depending on context it is normalized ([0,1]) or in pixels.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Box is an axis-aligned rectangle given by its top-left corner and size.
type Box struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Rect is the pixel size of a render target.
type Rect struct {
	Width  float64
	Height float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p*k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Center returns the middle of the box.
func (b Box) Center() Point {
	return Point{b.X + b.Width/2, b.Y + b.Height/2}
}

// DenormalizePoint maps a normalized point onto the pixel rect. Malformed
// input (NaN, out of range) propagates unchanged through the arithmetic.
func DenormalizePoint(p Point, r Rect) Point {
	return Point{X: p.X * r.Width, Y: p.Y * r.Height}
}

// DenormalizeBox maps a normalized box onto the pixel rect.
func DenormalizeBox(b Box, r Rect) Box {
	return Box{
		X:      b.X * r.Width,
		Y:      b.Y * r.Height,
		Width:  b.Width * r.Width,
		Height: b.Height * r.Height,
	}
}

// Lerp performs linear interpolation between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpPoint blends two points.
func LerpPoint(a, b Point, t float64) Point {
	return Point{Lerp(a.X, b.X, t), Lerp(a.Y, b.Y, t)}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
