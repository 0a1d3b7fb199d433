// Package canvas provides the drawing context renderers paint through and the
// render target surfaces the coordinator owns.
//
// The API mirrors a small subset of an HTML 2D canvas:
//
//   - [Context]: state (colours, line width, dash, alpha, font size), path
//     building and the draw calls Stroke, Fill, FillRect, StrokeRect,
//     FillText and DrawImage.
//   - [RGBAContext]: rasterizes onto an *image.RGBA with golang.org/x/image/vector
//     and draws text with basicfont.
//   - [Recorder]: records every call without drawing, for tests.
//   - [Surface]: a render target whose internal buffer size is decoupled from
//     the size it is displayed at.
//
// FillText positions text by its top-left corner, not its baseline.
package canvas
