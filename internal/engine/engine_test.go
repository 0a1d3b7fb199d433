package engine

import (
	"bytes"
	"context"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/config"
	"github.com/ivlev/overlay2video/internal/source"
)

type recordingSink struct {
	indices []int
	painted []bool
	sizes   []image.Point
	closed  bool
}

func (s *recordingSink) WriteFrame(i int, img *image.RGBA) error {
	s.indices = append(s.indices, i)
	s.sizes = append(s.sizes, img.Bounds().Size())
	nonEmpty := false
	for j := 3; j < len(img.Pix); j += 4 {
		if img.Pix[j] != 0 {
			nonEmpty = true
			break
		}
	}
	s.painted = append(s.painted, nonEmpty)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

func testManifest(t *testing.T) *annotation.Manifest {
	t.Helper()
	m := annotation.NewManifest()
	a, err := annotation.New("detection", 1000, 1000, map[string]any{
		"bbox": map[string]any{"x": 0.25, "y": 0.25, "width": 0.5, "height": 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	m.Add(a)
	return m
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ManifestPath = "memory"
	cfg.Width, cfg.Height = 64, 36
	cfg.FPS = 10
	cfg.Workers = 2
	return cfg
}

func TestFrameTiming(t *testing.T) {
	tests := []struct {
		start, end float64
		fps        int
		want       int
	}{
		{0, 1000, 10, 11},
		{0, 999, 10, 10},
		{500, 500, 30, 1},
		{0, 2000, 30, 61},
		{1000, 0, 30, 0},
		{0, 1000, 0, 0},
	}
	for _, tt := range tests {
		if got := FrameCount(tt.start, tt.end, tt.fps); got != tt.want {
			t.Errorf("FrameCount(%v, %v, %d) = %d, want %d", tt.start, tt.end, tt.fps, got, tt.want)
		}
	}

	// index based timing stays exact over long runs
	if got := FrameTime(0, 90000, 30); got != 3000000 {
		t.Errorf("FrameTime(0, 90000, 30) = %v", got)
	}
	if got := FrameTime(1000, 3, 30); got != 1100 {
		t.Errorf("FrameTime(1000, 3, 30) = %v", got)
	}
}

func TestRunWritesEveryFrame(t *testing.T) {
	sink := &recordingSink{}
	p := NewProject(testConfig())
	p.Manifest = testManifest(t)
	p.Sink = sink
	p.Logger = log.New(&bytes.Buffer{}, "", 0)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// default range is the manifest extent: 0..2000ms at 10fps
	if report.Frames != 21 || len(sink.indices) != 21 {
		t.Fatalf("frames = %d (sink %d), want 21", report.Frames, len(sink.indices))
	}
	if !sink.closed {
		t.Error("sink was not closed")
	}
	for i, painted := range sink.painted {
		active := i >= 10 && i <= 20
		if painted != active {
			t.Errorf("frame %d (t=%.0fms): painted=%v, want %v", i, FrameTime(0, i, 10), painted, active)
		}
		if sink.sizes[i] != (image.Point{64, 36}) {
			t.Errorf("frame %d size = %v", i, sink.sizes[i])
		}
	}
	t.Logf("report: %+v, %.1f fps", report.Compositor, report.EffectiveFPS())
}

func TestRunExplicitRange(t *testing.T) {
	cfg := testConfig()
	cfg.StartMs, cfg.EndMs = 1500, 1700
	sink := &recordingSink{}
	p := NewProject(cfg)
	p.Manifest = testManifest(t)
	p.Sink = sink
	p.Logger = log.New(&bytes.Buffer{}, "", 0)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(sink.indices) != 3 {
		t.Errorf("frames = %d, want 3", len(sink.indices))
	}
}

func TestRunEmptyManifest(t *testing.T) {
	p := NewProject(testConfig())
	p.Manifest = annotation.NewManifest()
	p.Sink = &recordingSink{}
	if _, err := p.Run(context.Background()); err == nil {
		t.Error("expected an error for an empty manifest without an explicit end")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &recordingSink{}
	p := NewProject(testConfig())
	p.Manifest = testManifest(t)
	p.Sink = sink
	p.Logger = log.New(&bytes.Buffer{}, "", 0)

	if _, err := p.Run(ctx); err == nil {
		t.Error("expected the context error")
	}
	if len(sink.indices) != 0 || !sink.closed {
		t.Errorf("frames = %d, closed = %v", len(sink.indices), sink.closed)
	}
}

func TestRunWithBackground(t *testing.T) {
	bg := image.NewRGBA(image.Rect(0, 0, 32, 8))
	for i := range bg.Pix {
		bg.Pix[i] = 255
	}
	cfg := testConfig()
	cfg.Width, cfg.Height = 64, 16
	cfg.EndMs = 0
	sink := &recordingSink{}
	p := NewProject(cfg)
	p.Manifest = testManifest(t)
	p.Background = source.NewMemorySource(bg)
	p.Sink = sink
	p.Logger = log.New(&bytes.Buffer{}, "", 0)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// width follows the background aspect ratio (4:1 at height 16)
	if report.Width != 64 || report.Height != 16 {
		t.Errorf("size = %dx%d", report.Width, report.Height)
	}
	if len(sink.painted) != 1 || !sink.painted[0] {
		t.Error("background frame was not copied beneath the overlay")
	}
}

func TestRunPNGSequence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := annotation.Write(testManifest(t), path); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.ManifestPath = path
	cfg.OutputFrames = dir
	cfg.StartMs, cfg.EndMs = 900, 1200

	p := NewProject(cfg)
	p.Logger = log.New(&bytes.Buffer{}, "", 0)
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != report.Frames || report.Frames != 4 {
		t.Errorf("%d files for %d frames, want 4", len(entries), report.Frames)
	}
}

func TestRunBadOutputDir(t *testing.T) {
	// a regular file where the output directory should be
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.OutputVideo = filepath.Join(blocker, "out", "video.mp4")

	p := NewProject(cfg)
	p.Manifest = testManifest(t)
	p.Logger = log.New(&bytes.Buffer{}, "", 0)
	_, err := p.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error for an output path under a file")
	}
	if !strings.Contains(err.Error(), "папки вывода") {
		t.Errorf("error = %v, want the directory failure", err)
	}
}
