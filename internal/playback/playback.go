// Package playback models the position source the compositor follows.
//
// In a player the position and size come from the media element; offline the
// Clock plays that role and is advanced by the export loop.
package playback

import (
	"image"
	"log"
	"math"
	"sync"

	"github.com/ivlev/overlay2video/internal/source"
)

// Source reports the playback position and the media's natural pixel size.
type Source interface {
	CurrentTimeMs() float64
	NaturalSize() (width, height int)
}

// FrameSource is implemented by sources that can hand out the frame at the
// current position.
type FrameSource interface {
	Source
	Frame() image.Image
}

// Clock is a seekable, offline Source. Listeners run synchronously on the
// goroutine that calls Seek or SetNaturalSize / SetDisplaySize.
type Clock struct {
	mu            sync.Mutex
	positionMs    float64
	naturalW      int
	naturalH      int
	displayW      int
	displayH      int
	timeListeners []func()
	sizeListeners []func()
	background    *source.Timeline
	logger        *log.Logger
}

// NewClock creates a clock at position 0 whose natural and display size are
// both width×height.
func NewClock(width, height int) *Clock {
	return &Clock{
		naturalW: width,
		naturalH: height,
		displayW: width,
		displayH: height,
		logger:   log.Default(),
	}
}

// SetLogger replaces the logger used for background frame failures.
func (c *Clock) SetLogger(l *log.Logger) {
	if l != nil {
		c.logger = l
	}
}

// SetBackground attaches a timeline of frames returned by Frame.
func (c *Clock) SetBackground(tl *source.Timeline) {
	c.mu.Lock()
	c.background = tl
	c.mu.Unlock()
}

func (c *Clock) CurrentTimeMs() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionMs
}

func (c *Clock) NaturalSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.naturalW, c.naturalH
}

// DisplaySize is the on-screen size. The compositor never sizes its buffer
// from it.
func (c *Clock) DisplaySize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayW, c.displayH
}

// Frame returns the background frame at the current position, or nil.
func (c *Clock) Frame() image.Image {
	c.mu.Lock()
	tl, pos := c.background, c.positionMs
	c.mu.Unlock()
	if tl == nil {
		return nil
	}
	img, err := tl.At(pos)
	if err != nil {
		c.logger.Printf("[!] background frame at %.0fms: %v", pos, err)
		return nil
	}
	return img
}

// OnTimeUpdate registers fn to run after every Seek.
func (c *Clock) OnTimeUpdate(fn func()) {
	c.mu.Lock()
	c.timeListeners = append(c.timeListeners, fn)
	c.mu.Unlock()
}

// OnResize registers fn to run after every size change.
func (c *Clock) OnResize(fn func()) {
	c.mu.Lock()
	c.sizeListeners = append(c.sizeListeners, fn)
	c.mu.Unlock()
}

// Seek moves the position to ms and notifies time listeners. Non-finite
// positions are ignored.
func (c *Clock) Seek(ms float64) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return
	}
	c.mu.Lock()
	c.positionMs = ms
	listeners := append([]func(){}, c.timeListeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Advance moves the position forward by deltaMs.
func (c *Clock) Advance(deltaMs float64) {
	c.Seek(c.CurrentTimeMs() + deltaMs)
}

// SetNaturalSize changes the media's intrinsic size and notifies resize
// listeners.
func (c *Clock) SetNaturalSize(width, height int) {
	c.mu.Lock()
	c.naturalW, c.naturalH = width, height
	listeners := append([]func(){}, c.sizeListeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// SetDisplaySize changes the on-screen size and notifies resize listeners.
func (c *Clock) SetDisplaySize(width, height int) {
	c.mu.Lock()
	c.displayW, c.displayH = width, height
	listeners := append([]func(){}, c.sizeListeners...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
