// Package overlay drives the per-frame compositing of annotation renderers onto
// a render target, following a playback position source.
package overlay

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
	"github.com/ivlev/overlay2video/internal/playback"
	"github.com/ivlev/overlay2video/internal/renderer"
)

// ErrNoPlaybackSource is wrapped in the ConstructionError returned by New when
// no position source is given.
var ErrNoPlaybackSource = errors.New("overlay: playback source unavailable")

// Target is the pixel surface frames are composited onto. Its internal size is
// independent of how large it is displayed.
type Target interface {
	Context() canvas.Context
	Size() (width, height int)
	Resize(width, height int)
}

// Notifier delivers position and size change callbacks, like a media element.
type Notifier interface {
	OnTimeUpdate(fn func())
	OnResize(fn func())
}

// Options tune a Coordinator.
type Options struct {
	// DebugMode draws a status panel over every frame.
	DebugMode bool
	// CopySourceFrame blits the playback source's current frame beneath the
	// annotations when the source implements playback.FrameSource.
	CopySourceFrame bool
	// Registry resolves categories; nil means renderer.DefaultRegistry().
	Registry *renderer.Registry
	// Logger receives warnings; nil means log.Default().
	Logger *log.Logger
}

// Stats counts what the coordinator has done so far.
type Stats struct {
	Frames       int // render passes
	Duplicates   int // updates dropped by the watermark
	Hidden       int // updates ignored while hidden
	RenderErrors int // recovered renderer failures
}

type layer struct {
	category string
	r        renderer.Renderer
	visible  bool
	lastErr  string
}

// Coordinator owns one renderer per requested category and renders at most
// one pass per distinct millisecond reported by the playback source. It is not
// safe for concurrent use; callbacks are expected on a single goroutine.
type Coordinator struct {
	src       playback.Source
	target    Target
	layers    []*layer
	byCat     map[string]*layer
	visible   bool
	watermark int64
	hasMark   bool
	debug     bool
	copyFrame bool
	logger    *log.Logger
	stats     Stats
}

// New builds a coordinator over the categories listed, in that order. An empty
// list selects every category in the manifest. Unknown categories are logged
// and skipped. The target is sized to the source's natural size straight away.
func New(src playback.Source, m *annotation.Manifest, target Target, categories []string, opts Options) (*Coordinator, error) {
	const op = "overlay.New"
	if m == nil {
		return nil, annotation.NewConstructionError(op, annotation.ErrNilManifest)
	}
	if src == nil {
		return nil, annotation.NewConstructionError(op, ErrNoPlaybackSource)
	}
	if target == nil || target.Context() == nil {
		return nil, annotation.NewConstructionError(op, annotation.ErrNoRenderTarget)
	}

	reg := opts.Registry
	if reg == nil {
		reg = renderer.DefaultRegistry()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Coordinator{
		src:       src,
		target:    target,
		byCat:     make(map[string]*layer),
		visible:   true,
		debug:     opts.DebugMode,
		copyFrame: opts.CopySourceFrame,
		logger:    logger,
	}

	if len(categories) == 0 {
		categories = m.Categories()
	}
	for _, cat := range categories {
		if _, dup := c.byCat[cat]; dup {
			continue
		}
		f, ok := reg.Lookup(cat)
		if !ok {
			logger.Printf("[!] unknown category %q: no renderer registered, skipping", cat)
			continue
		}
		l := &layer{category: cat, r: f(cat, m.ByCategory(cat), logger), visible: true}
		c.layers = append(c.layers, l)
		c.byCat[cat] = l
	}

	c.HandleResize()
	if w, h := target.Size(); w <= 0 || h <= 0 {
		return nil, annotation.NewConstructionError(op, fmt.Errorf("%w: size %dx%d", annotation.ErrNoRenderTarget, w, h))
	}
	return c, nil
}

// Bind subscribes the coordinator to n's callbacks.
func (c *Coordinator) Bind(n Notifier) {
	n.OnTimeUpdate(func() { c.HandleTimeUpdate() })
	n.OnResize(c.HandleResize)
}

// HandleTimeUpdate renders a frame for the source's current position. It
// reports whether a pass actually ran: repeated positions (to the millisecond)
// and updates while hidden are no-ops.
func (c *Coordinator) HandleTimeUpdate() bool {
	now := c.src.CurrentTimeMs()
	if math.IsNaN(now) || math.IsInf(now, 0) {
		return false
	}
	ms := int64(math.Round(now))
	if c.hasMark && ms == c.watermark {
		if c.visible {
			c.stats.Duplicates++
		} else {
			c.stats.Hidden++
		}
		return false
	}
	if !c.visible {
		c.stats.Hidden++
		return false
	}
	c.watermark, c.hasMark = ms, true
	c.render(float64(ms))
	return true
}

func (c *Coordinator) render(nowMs float64) {
	dc := c.target.Context()
	w, h := c.target.Size()
	rect := geometry.Rect{Width: float64(w), Height: float64(h)}

	dc.Clear()
	if c.copyFrame {
		if fs, ok := c.src.(playback.FrameSource); ok {
			if img := fs.Frame(); img != nil {
				dc.DrawImage(img, 0, 0, rect.Width, rect.Height)
			}
		}
	}

	for _, l := range c.layers {
		if !l.visible {
			continue
		}
		if err := c.renderLayer(dc, l, nowMs, rect); err != nil {
			c.stats.RenderErrors++
			// only log when the failure changes, a broken renderer fails every frame
			if msg := err.Error(); msg != l.lastErr {
				c.logger.Printf("[!] %s renderer failed at %.0fms: %v", l.category, nowMs, err)
				l.lastErr = msg
			}
			continue
		}
		l.lastErr = ""
	}

	if c.debug {
		c.drawHUD(dc, nowMs, rect)
	}
	c.stats.Frames++
}

// renderLayer isolates one renderer: its drawing state is restored and a panic
// is turned into an error.
func (c *Coordinator) renderLayer(dc canvas.Context, l *layer, nowMs float64, rect geometry.Rect) (err error) {
	dc.Save()
	defer func() {
		dc.Restore()
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l.r.Render(dc, nowMs, rect)
}

// HandleResize sizes the target's buffer to the media's natural size. The
// display size is deliberately ignored so normalized coordinates map onto
// media pixels.
func (c *Coordinator) HandleResize() {
	w, h := c.src.NaturalSize()
	if w <= 0 || h <= 0 {
		c.logger.Printf("[!] natural size %dx%d not known yet, keeping target size", w, h)
		return
	}
	if tw, th := c.target.Size(); tw != w || th != h {
		c.target.Resize(w, h)
	}
	c.hasMark = false
}

// Show resumes rendering; the next update always draws.
func (c *Coordinator) Show() {
	c.visible = true
	c.hasMark = false
}

// Hide stops rendering and clears the target. Renderers keep their state.
func (c *Coordinator) Hide() {
	if !c.visible {
		return
	}
	c.visible = false
	c.target.Context().Clear()
}

// Visible reports whether the overlay is shown.
func (c *Coordinator) Visible() bool { return c.visible }

// SetCategoryVisible toggles one category's renderer. It reports false for
// categories the coordinator does not own.
func (c *Coordinator) SetCategoryVisible(category string, visible bool) bool {
	l, ok := c.byCat[category]
	if !ok {
		return false
	}
	if l.visible != visible {
		l.visible = visible
		c.hasMark = false
	}
	return true
}

// Categories lists the categories that have a renderer, in render order.
func (c *Coordinator) Categories() []string {
	out := make([]string, len(c.layers))
	for i, l := range c.layers {
		out[i] = l.category
	}
	return out
}

func (c *Coordinator) Stats() Stats { return c.stats }
