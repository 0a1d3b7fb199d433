// Package source provides background frames for offline compositing: PDF
// pages rendered with go-fitz, still images from a directory, or images held
// in memory.
package source

import (
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// Source is an indexed sequence of still frames.
type Source interface {
	FrameCount() int
	FrameSize(index int) (width, height int, err error)
	RenderFrame(index int, dpi int) (image.Image, error)
	Close() error
}

// FitzPDFSource renders PDF pages as frames. One document handle is shared;
// calls are serialized because fitz documents are not safe for concurrent use.
type FitzPDFSource struct {
	mu  sync.Mutex
	doc *fitz.Document
	n   int
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, n: doc.NumPage()}, nil
}

func (f *FitzPDFSource) FrameCount() int {
	return f.n
}

func (f *FitzPDFSource) FrameSize(index int) (int, int, error) {
	if index < 0 || index >= f.n {
		return 0, 0, fmt.Errorf("page %d out of range [0,%d)", index, f.n)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return rect.Dx(), rect.Dy(), nil
}

// RenderFrame rasterizes a page. dpi <= 0 uses the document's native
// resolution.
func (f *FitzPDFSource) RenderFrame(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= f.n {
		return nil, fmt.Errorf("page %d out of range [0,%d)", index, f.n)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if dpi <= 0 {
		return f.doc.Image(index)
	}
	return f.doc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Close()
}

// MemorySource serves frames that are already decoded.
type MemorySource struct {
	frames []image.Image
}

func NewMemorySource(frames ...image.Image) *MemorySource {
	return &MemorySource{frames: frames}
}

func (m *MemorySource) FrameCount() int { return len(m.frames) }

func (m *MemorySource) FrameSize(index int) (int, int, error) {
	if index < 0 || index >= len(m.frames) {
		return 0, 0, fmt.Errorf("frame %d out of range [0,%d)", index, len(m.frames))
	}
	b := m.frames[index].Bounds()
	return b.Dx(), b.Dy(), nil
}

func (m *MemorySource) RenderFrame(index int, _ int) (image.Image, error) {
	if index < 0 || index >= len(m.frames) {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", index, len(m.frames))
	}
	return m.frames[index], nil
}

func (m *MemorySource) Close() error { return nil }

// Open picks a source implementation from the path: .pdf files go through
// go-fitz, anything else is treated as an image file or directory.
func Open(path string) (Source, error) {
	if isPDF(path) {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}
