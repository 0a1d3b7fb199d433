package canvas

import (
	"image"
	"image/draw"

	"github.com/ivlev/overlay2video/internal/system"
)

// Surface is a render target backed by an RGBA buffer. The buffer size is the
// internal resolution; the display size only records how large the surface
// is shown and never affects drawing.
type Surface struct {
	img      *image.RGBA
	ctx      *RGBAContext
	displayW int
	displayH int
}

// NewSurface allocates a surface with the given internal resolution.
func NewSurface(width, height int) *Surface {
	s := &Surface{}
	s.img = acquire(width, height)
	s.ctx = NewRGBAContext(s.img)
	return s
}

func acquire(width, height int) *image.RGBA {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	img := system.GetImage(image.Rect(0, 0, width, height))
	// pooled buffers keep their previous content
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	return img
}

// Context returns the drawing context bound to the current buffer.
func (s *Surface) Context() Context { return s.ctx }

// Size returns the internal buffer size.
func (s *Surface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize replaces the internal buffer. Like a canvas, resizing clears it.
func (s *Surface) Resize(width, height int) {
	if w, h := s.Size(); w == width && h == height {
		s.ctx.Clear()
		return
	}
	old := s.img
	s.img = acquire(width, height)
	s.ctx.SetTarget(s.img)
	system.PutImage(old)
}

// SetDisplaySize records the on-screen size.
func (s *Surface) SetDisplaySize(width, height int) {
	s.displayW, s.displayH = width, height
}

// DisplaySize returns the on-screen size; zero until set.
func (s *Surface) DisplaySize() (int, int) {
	return s.displayW, s.displayH
}

// Image exposes the live buffer. It is overwritten on the next frame.
func (s *Surface) Image() *image.RGBA { return s.img }

// Snapshot copies the buffer into a pooled image the caller must Release.
func (s *Surface) Snapshot() *image.RGBA {
	b := s.img.Bounds()
	cp := system.GetImage(b)
	draw.Draw(cp, b, s.img, b.Min, draw.Src)
	return cp
}

// Release returns a snapshot to the pool.
func Release(img *image.RGBA) {
	system.PutImage(img)
}

// Close returns the buffer to the pool. The surface must not be used afterwards.
func (s *Surface) Close() {
	system.PutImage(s.img)
	s.img = image.NewRGBA(image.Rectangle{})
	s.ctx.SetTarget(s.img)
}
