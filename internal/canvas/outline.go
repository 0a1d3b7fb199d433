package canvas

import (
	"github.com/ivlev/overlay2video/internal/geometry"
)

// rasterOutline receives the polygons produced by a drawing.LineStroker and
// adds them to the context's vector rasterizer.
type rasterOutline struct {
	c     *RGBAContext
	open  bool
	drawn bool
}

func (o *rasterOutline) MoveTo(x, y float64) {
	o.close()
	fx, fy := o.c.coord(geometry.Point{X: x, Y: y})
	o.c.z.MoveTo(fx, fy)
	o.open = true
}

func (o *rasterOutline) LineTo(x, y float64) {
	if !o.open {
		o.MoveTo(x, y)
		return
	}
	fx, fy := o.c.coord(geometry.Point{X: x, Y: y})
	o.c.z.LineTo(fx, fy)
	o.drawn = true
}

func (o *rasterOutline) LineJoin() {}

func (o *rasterOutline) Close() { o.close() }

func (o *rasterOutline) End() { o.close() }

func (o *rasterOutline) close() {
	if o.open {
		o.c.z.ClosePath()
		o.open = false
	}
}
