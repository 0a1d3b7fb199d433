package overlay

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

var (
	hudBackground = color.NRGBA{0, 0, 0, 170}
	hudText       = color.NRGBA{0, 255, 0, 255}
)

// drawHUD paints the debug panel in the top-left corner.
func (c *Coordinator) drawHUD(dc canvas.Context, nowMs float64, rect geometry.Rect) {
	var layers []string
	for _, l := range c.layers {
		state := "on"
		if !l.visible {
			state = "off"
		}
		if l.lastErr != "" {
			state = "err"
		}
		layers = append(layers, l.category+":"+state)
	}
	lines := []string{
		fmt.Sprintf("t=%.0fms  %gx%g", nowMs, rect.Width, rect.Height),
		fmt.Sprintf("frames=%d dup=%d err=%d", c.stats.Frames+1, c.stats.Duplicates, c.stats.RenderErrors),
	}
	if len(layers) > 0 {
		lines = append(lines, strings.Join(layers, " "))
	}

	dc.Save()
	defer dc.Restore()
	dc.SetFontSize(13)
	const pad = 6.0
	w, h := 0.0, 0.0
	for _, l := range lines {
		m := dc.MeasureText(l)
		w = math.Max(w, m.Width)
		h += m.Height() + 2
	}
	dc.SetFillColor(hudBackground)
	dc.FillRect(pad, pad, w+2*pad, h+2*pad)
	dc.SetFillColor(hudText)
	y := 2 * pad
	for _, l := range lines {
		dc.FillText(l, 2*pad, y)
		y += dc.MeasureText(l).Height() + 2
	}
}
