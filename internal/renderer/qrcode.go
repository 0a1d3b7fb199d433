package renderer

import (
	"fmt"
	"image/color"
	"log"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/overlay2video/internal/annotation"
	"github.com/ivlev/overlay2video/internal/canvas"
	"github.com/ivlev/overlay2video/internal/geometry"
)

// qrData is the QR badge payload. Position is the normalized top-left corner;
// size is the badge edge as a fraction of the target height.
//
//	{"text": "https://example.org/session/42", "position": {"x":0.88,"y":0.04}, "size": 0.1}
type qrData struct {
	Text     string          `json:"text"`
	Position *geometry.Point `json:"position"`
	Size     float64         `json:"size"`

	bitmap [][]bool
}

// QRCodeRenderer draws a QR code encoding each record's text. Matrices are
// encoded once at construction.
type QRCodeRenderer struct {
	category string
	entries  []entry[qrData]
}

func NewQRCodeRenderer(category string, items []annotation.Annotation, logger *log.Logger) Renderer {
	r := &QRCodeRenderer{category: category}
	r.entries = decodeAll(category, items, r.DefaultOptions(), loggerOrDefault(logger), func(d *qrData) error {
		if d.Text == "" {
			return annotation.MissingField(category, "text")
		}
		q, err := qrcode.New(d.Text, qrcode.Medium)
		if err != nil {
			return fmt.Errorf("encode qr: %w", err)
		}
		q.DisableBorder = true
		d.bitmap = q.Bitmap()
		return nil
	})
	return r
}

func (r *QRCodeRenderer) Category() string { return r.category }

func (r *QRCodeRenderer) DefaultOptions() Options {
	return Options{
		"color":      "#000000",
		"background": "#ffffff",
		"quietZone":  2.0,
		"size":       0.12,
	}
}

func (r *QRCodeRenderer) Render(dc canvas.Context, nowMs float64, rect geometry.Rect) error {
	for _, e := range r.entries {
		if !e.ann.ActiveAt(nowMs) {
			continue
		}
		r.draw(dc, e, rect)
	}
	return nil
}

func (r *QRCodeRenderer) draw(dc canvas.Context, e entry[qrData], rect geometry.Rect) {
	n := len(e.data.bitmap)
	if n == 0 {
		return
	}
	size := e.data.Size
	if size <= 0 {
		size = e.opts.Float("size", 0.12)
	}
	pos := geometry.Point{X: 0.02, Y: 0.02}
	if e.data.Position != nil {
		pos = *e.data.Position
	}
	origin := geometry.DenormalizePoint(pos, rect)
	quiet := e.opts.Float("quietZone", 2)
	edge := size * rect.Height
	module := edge / (float64(n) + 2*quiet)
	if module <= 0 {
		return
	}

	dc.Save()
	defer dc.Restore()
	dc.SetGlobalAlpha(e.opts.Float("opacity", 1))

	if bg := e.opts.Color("background", nil); bg != nil {
		dc.SetFillColor(bg)
		dc.FillRect(origin.X, origin.Y, edge, edge)
	}

	// all dark modules go into one path and one fill
	dc.SetFillColor(e.opts.Color("color", color.Black))
	dc.BeginPath()
	x0 := origin.X + quiet*module
	y0 := origin.Y + quiet*module
	for row, cells := range e.data.bitmap {
		for col, dark := range cells {
			if dark {
				dc.Rect(x0+float64(col)*module, y0+float64(row)*module, module, module)
			}
		}
	}
	dc.Fill()
}
