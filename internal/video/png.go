package video

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/overlay2video/internal/system"
)

// PNGSequence writes frames as numbered PNG files using a bounded pool of
// encoder goroutines.
type PNGSequence struct {
	dir     string
	pattern string
	g       *errgroup.Group
	ctx     context.Context
}

// NewPNGSequence creates dir and returns a sink writing frame_000000.png,
// frame_000001.png, ... with at most workers files encoded at once.
func NewPNGSequence(ctx context.Context, dir string, workers int) (*PNGSequence, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	return &PNGSequence{dir: dir, pattern: "frame_%06d.png", g: g, ctx: gctx}, nil
}

// Path returns the file name used for frame index.
func (s *PNGSequence) Path(index int) string {
	return filepath.Join(s.dir, fmt.Sprintf(s.pattern, index))
}

// WriteFrame copies img and queues it for encoding. It blocks while every
// worker is busy and fails fast once any write has failed.
func (s *PNGSequence) WriteFrame(index int, img *image.RGBA) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	b := img.Bounds()
	cp := system.GetImage(b)
	draw.Draw(cp, b, img, b.Min, draw.Src)

	path := s.Path(index)
	s.g.Go(func() error {
		defer system.PutImage(cp)
		if err := s.ctx.Err(); err != nil {
			return err
		}
		return writePNG(path, cp)
	})
	return nil
}

// Close waits for pending writes and returns the first error.
func (s *PNGSequence) Close() error {
	return s.g.Wait()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
