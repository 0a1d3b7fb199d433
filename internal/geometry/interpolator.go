package geometry

import "math"

// Smoothing scales the neighbour tangent when deriving cubic control points.
const Smoothing = 0.2

// Mode selects the interpolation between waypoints.
type Mode int

const (
	Linear Mode = iota
	Curve
)

// ParseMode maps "curve"/"bezier"/"smooth" to Curve; anything else is Linear.
func ParseMode(s string) Mode {
	switch s {
	case "curve", "bezier", "smooth":
		return Curve
	default:
		return Linear
	}
}

// Waypoint is a trajectory sample in normalized space.
type Waypoint struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	TimeMs float64 `json:"timeMs" yaml:"timeMs"`
}

// Point drops the timestamp.
func (w Waypoint) Point() Point { return Point{w.X, w.Y} }

// EffectiveMode returns the mode actually used for n waypoints: curves need at
// least three, so shorter sequences always fall back to linear.
func EffectiveMode(n int, mode Mode) Mode {
	if mode == Curve && n < 3 {
		return Linear
	}
	return mode
}

// Interpolate returns the position at time t. It reports false when there are
// no waypoints, or when t lies inside the overall range but no consecutive pair
// brackets it (non-monotonic timestamps).
func Interpolate(points []Waypoint, t float64, mode Mode) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	if len(points) == 1 {
		return points[0].Point(), true
	}

	// Clamp before the first and after the last waypoint
	first, last := points[0], points[len(points)-1]
	if t <= first.TimeMs {
		return first.Point(), true
	}
	if t >= last.TimeMs {
		return last.Point(), true
	}

	i, local, ok := Segment(points, t)
	if !ok {
		return Point{}, false
	}

	if EffectiveMode(len(points), mode) == Curve {
		c1, c2 := ControlPoints(points, i)
		return Bezier(points[i].Point(), c1, c2, points[i+1].Point(), local), true
	}
	return LerpPoint(points[i].Point(), points[i+1].Point(), local), true
}

// Segment finds the first pair (i, i+1) with Pi.TimeMs <= t <= Pi+1.TimeMs and
// the segment-local parameter. A zero-length segment yields local 0.
func Segment(points []Waypoint, t float64) (int, float64, bool) {
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		if a.TimeMs <= t && t <= b.TimeMs {
			delta := b.TimeMs - a.TimeMs
			if delta == 0 {
				return i, 0, true
			}
			return i, (t - a.TimeMs) / delta, true
		}
	}
	return 0, 0, false
}

// ControlPoints derives the cubic control points of segment i. The same
// function feeds both path stroking and position queries, so a marker placed
// with Interpolate always lies on the stroked curve.
func ControlPoints(points []Waypoint, i int) (Point, Point) {
	p0 := points[i].Point()
	p1 := points[i+1].Point()

	c1 := p0
	if i > 0 {
		prev := points[i-1].Point()
		c1 = p0.Add(p1.Sub(prev).Scale(Smoothing))
	}

	c2 := p1
	if i+2 < len(points) {
		next := points[i+2].Point()
		c2 = p1.Sub(next.Sub(p0).Scale(Smoothing))
	}
	return c1, c2
}

// Bezier evaluates the cubic Bernstein blend at t.
func Bezier(p0, c1, c2, p1 Point, t float64) Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return Point{
		X: b0*p0.X + b1*c1.X + b2*c2.X + b3*p1.X,
		Y: b0*p0.Y + b1*c1.Y + b2*c2.Y + b3*p1.Y,
	}
}

// Cubic is one cubic Bezier segment.
type Cubic struct {
	P0, C1, C2, P1 Point
}

// At evaluates the segment.
func (c Cubic) At(t float64) Point {
	return Bezier(c.P0, c.C1, c.C2, c.P1, t)
}

// Split divides the segment at t with de Casteljau's algorithm. Both halves
// trace exactly the same curve as the original.
func (c Cubic) Split(t float64) (Cubic, Cubic) {
	p01 := LerpPoint(c.P0, c.C1, t)
	p12 := LerpPoint(c.C1, c.C2, t)
	p23 := LerpPoint(c.C2, c.P1, t)
	p012 := LerpPoint(p01, p12, t)
	p123 := LerpPoint(p12, p23, t)
	mid := LerpPoint(p012, p123, t)
	return Cubic{c.P0, p01, p012, mid}, Cubic{mid, p123, p23, c.P1}
}

// SegmentCubic returns segment i of the curve through points.
func SegmentCubic(points []Waypoint, i int) Cubic {
	c1, c2 := ControlPoints(points, i)
	return Cubic{points[i].Point(), c1, c2, points[i+1].Point()}
}

// Tangent estimates the direction of travel at t from the positions at t-window
// and t+window. It reports false when the displacement is negligible.
func Tangent(points []Waypoint, t, window float64, mode Mode) (Point, bool) {
	a, okA := Interpolate(points, t-window, mode)
	b, okB := Interpolate(points, t+window, mode)
	if !okA || !okB {
		return Point{}, false
	}
	d := b.Sub(a)
	if math.Hypot(d.X, d.Y) < 1e-9 {
		return Point{}, false
	}
	return d, true
}
