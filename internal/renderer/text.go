package renderer

import (
	"log"
	"strings"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

// textData is the canonical banner payload. Position is normalized; maxWidth is
// a fraction of the target width.
//
//	{"text": "Lap 3", "position": {"x":0.5,"y":0.05}, "anchor": "top-center", "maxWidth": 0.6}
type textData struct {
	Text     string          `json:"text"`
	Position *geometry.Point `json:"position"`
	Anchor   string          `json:"anchor"`
	MaxWidth float64         `json:"maxWidth"`
}

// TextRenderer draws wrapped, anchored text on a measured background.
type TextRenderer struct {
	category string
	entries  []entry[textData]
}

func NewTextRenderer(category string, items []annotation.Annotation, logger *log.Logger) Renderer {
	r := &TextRenderer{category: category}
	r.entries = decodeAll(category, items, r.DefaultOptions(), loggerOrDefault(logger), func(d *textData) error {
		if strings.TrimSpace(d.Text) == "" {
			return annotation.MissingField(category, "text")
		}
		return nil
	})
	return r
}

func (r *TextRenderer) Category() string { return r.category }

func (r *TextRenderer) DefaultOptions() Options {
	return Options{
		"fontSize":        20.0,
		"textColor":       "#ffffff",
		"labelBackground": "rgba(0,0,0,0.6)",
		"padding":         8.0,
		"cornerRadius":    4.0,
		"lineSpacing":     4.0,
		"anchor":          "top-center",
	}
}

func (r *TextRenderer) Render(dc canvas.Context, nowMs float64, rect geometry.Rect) error {
	for _, e := range r.entries {
		if !e.ann.ActiveAt(nowMs) {
			continue
		}
		r.draw(dc, e, rect)
	}
	return nil
}

func (r *TextRenderer) draw(dc canvas.Context, e entry[textData], rect geometry.Rect) {
	pos := geometry.Point{X: 0.5, Y: 0.05}
	if e.data.Position != nil {
		pos = *e.data.Position
	}
	a := parseAnchor(e.data.Anchor, parseAnchor(e.opts.String("anchor", ""), anchors["top-center"]))
	padding := e.opts.Float("padding", 8)

	dc.Save()
	defer dc.Restore()
	dc.SetGlobalAlpha(e.opts.Float("opacity", 1))
	dc.SetFontSize(e.opts.Float("fontSize", 20))

	maxWidth := e.data.MaxWidth * rect.Width
	if maxWidth > 0 {
		maxWidth -= 2 * padding
	}
	lines := wrapText(dc, e.data.Text, maxWidth)
	w, h := textBlockSize(dc, lines, padding, e.opts.Float("lineSpacing", 4))
	origin := anchorOffset(geometry.DenormalizePoint(pos, rect), w, h, a)
	drawTextWithBackground(dc, lines, origin.X, origin.Y, e.opts)
}
