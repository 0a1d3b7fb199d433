package canvas

import (
	"math"

	"github.com/ivlev/overlay2video/internal/geometry"
)

// subpath is a flattened polyline.
type subpath struct {
	pts    []geometry.Point
	closed bool
}

// path accumulates flattened subpaths between BeginPath and Stroke/Fill.
type path struct {
	subs []subpath
}

func (p *path) reset() {
	p.subs = p.subs[:0]
}

func (p *path) current() *subpath {
	if len(p.subs) == 0 {
		return nil
	}
	return &p.subs[len(p.subs)-1]
}

func (p *path) moveTo(x, y float64) {
	p.subs = append(p.subs, subpath{pts: []geometry.Point{{X: x, Y: y}}})
}

func (p *path) lineTo(x, y float64) {
	sp := p.current()
	if sp == nil || sp.closed {
		p.moveTo(x, y)
		return
	}
	sp.pts = append(sp.pts, geometry.Point{X: x, Y: y})
}

func (p *path) cubicTo(c1, c2, end geometry.Point) {
	sp := p.current()
	if sp == nil || sp.closed {
		p.moveTo(c1.X, c1.Y)
		sp = p.current()
	}
	start := sp.pts[len(sp.pts)-1]
	c := geometry.Cubic{P0: start, C1: c1, C2: c2, P1: end}
	n := cubicSteps(c)
	for i := 1; i <= n; i++ {
		sp.pts = append(sp.pts, c.At(float64(i)/float64(n)))
	}
}

func (p *path) arc(cx, cy, r, start, end float64) {
	sweep := end - start
	if math.Abs(sweep) > 2*math.Pi {
		sweep = math.Copysign(2*math.Pi, sweep)
	}
	n := int(math.Ceil(math.Abs(sweep) * math.Max(r, 1) / 3))
	if n < 8 {
		n = 8
	}
	if n > 128 {
		n = 128
	}
	for i := 0; i <= n; i++ {
		a := start + sweep*float64(i)/float64(n)
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		if i == 0 {
			sp := p.current()
			if sp == nil || sp.closed {
				p.moveTo(x, y)
				continue
			}
		}
		p.lineTo(x, y)
	}
}

func (p *path) closePath() {
	if sp := p.current(); sp != nil {
		sp.closed = true
	}
}

// cubicSteps picks a flattening resolution from the control polygon length.
func cubicSteps(c geometry.Cubic) int {
	l := dist(c.P0, c.C1) + dist(c.C1, c.C2) + dist(c.C2, c.P1)
	n := int(math.Ceil(l / 4))
	if n < 4 {
		return 4
	}
	if n > 64 {
		return 64
	}
	return n
}

func dist(a, b geometry.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

func finite(p geometry.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// strokePoints returns the polyline to outline for sp: consecutive duplicates
// removed and the start repeated when the subpath is closed. A subpath with a
// non-finite point yields nothing.
func strokePoints(sp subpath) []geometry.Point {
	out := make([]geometry.Point, 0, len(sp.pts)+1)
	for _, p := range sp.pts {
		if !finite(p) {
			return nil
		}
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		out = append(out, p)
	}
	if sp.closed && len(out) > 2 {
		out = append(out, out[0])
	}
	return out
}
