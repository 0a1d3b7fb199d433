package source

import (
	"image"
	"math"
	"sync"
)

// Timeline maps media time onto the frames of a Source. Frame i covers
// [i*IntervalMs, (i+1)*IntervalMs); times past the end hold the last frame.
type Timeline struct {
	src        Source
	intervalMs float64
	dpi        int

	mu        sync.Mutex
	lastIndex int
	lastFrame image.Image
}

// NewTimeline spreads src over time with one frame per intervalMs. A
// non-positive interval shows the first frame forever.
func NewTimeline(src Source, intervalMs float64, dpi int) *Timeline {
	return &Timeline{src: src, intervalMs: intervalMs, dpi: dpi, lastIndex: -1}
}

// Index returns the frame index shown at ms.
func (t *Timeline) Index(ms float64) int {
	n := t.src.FrameCount()
	if n == 0 {
		return -1
	}
	if t.intervalMs <= 0 || !(ms > 0) {
		return 0
	}
	i := int(math.Floor(ms / t.intervalMs))
	if i >= n {
		i = n - 1
	}
	return i
}

// At returns the frame shown at ms. Consecutive calls on the same frame reuse
// the decoded image.
func (t *Timeline) At(ms float64) (image.Image, error) {
	i := t.Index(ms)
	if i < 0 {
		return nil, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if i == t.lastIndex {
		return t.lastFrame, nil
	}
	img, err := t.src.RenderFrame(i, t.dpi)
	if err != nil {
		return nil, err
	}
	t.lastIndex, t.lastFrame = i, img
	return img, nil
}

// Size reports the size of the first frame.
func (t *Timeline) Size() (int, int, error) {
	if t.src.FrameCount() == 0 {
		return 0, 0, nil
	}
	return t.src.FrameSize(0)
}

func (t *Timeline) Close() error { return t.src.Close() }
