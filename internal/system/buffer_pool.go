package system

import (
	"image"
	"sync"
)

// ImagePool recycles *image.RGBA buffers by pixel size. The render surface and
// the PNG writers borrow from it once per frame.
type ImagePool struct {
	bySize sync.Map // image.Point -> *sync.Pool
}

var globalPool = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{}
}

// GetImage borrows a buffer with bounds rect from the shared pool. Its pixels
// hold whatever the previous borrower left.
func GetImage(rect image.Rectangle) *image.RGBA {
	return globalPool.Get(rect)
}

// PutImage returns img to the shared pool.
func PutImage(img *image.RGBA) {
	globalPool.Put(img)
}

func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	size := rect.Size()
	img := p.pool(size).Get().(*image.RGBA)
	// buffers are stored at the origin; rebase onto the requested bounds
	img.Rect = rect
	return img
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Empty() {
		return
	}
	size := img.Rect.Size()
	if len(img.Pix) != size.X*size.Y*4 {
		// sub-images share a parent buffer and cannot be pooled
		return
	}
	p.pool(size).Put(img)
}

func (p *ImagePool) pool(size image.Point) *sync.Pool {
	if v, ok := p.bySize.Load(size); ok {
		return v.(*sync.Pool)
	}
	v, _ := p.bySize.LoadOrStore(size, &sync.Pool{
		New: func() any {
			return image.NewRGBA(image.Rectangle{Max: size})
		},
	})
	return v.(*sync.Pool)
}
