package renderer

import (
	"image/color"
	"math"
)

// Options is a loosely typed style map. Values come from renderer defaults and
// from the "style" object of individual annotations.
type Options map[string]any

// fallbackOptions are the hard-coded values every renderer starts from.
var fallbackOptions = Options{
	"color":           "#00ff00",
	"lineWidth":       2.0,
	"opacity":         1.0,
	"fontSize":        13.0,
	"textColor":       "#ffffff",
	"labelBackground": "rgba(0,0,0,0.6)",
	"padding":         4.0,
	"cornerRadius":    0.0,
}

// ResolveOptions merges layers left to right; later layers win.
func ResolveOptions(layers ...Options) Options {
	out := Options{}
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// Float returns a numeric option.
func (o Options) Float(key string, def float64) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Bool returns a boolean option.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

// String returns a string option.
func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Color parses a colour option. It returns nil for "none" or "transparent",
// which callers treat as "do not paint".
func (o Options) Color(key string, def color.Color) color.Color {
	s, ok := o[key].(string)
	if !ok || s == "" {
		return def
	}
	if s == "none" || s == "transparent" {
		return nil
	}
	if c, ok := ParseColor(s); ok {
		return c
	}
	return def
}

// Floats returns a numeric list option such as a dash pattern.
func (o Options) Floats(key string) []float64 {
	switch v := o[key].(type) {
	case []float64:
		return v
	case []any:
		out := make([]float64, 0, len(v))
		for _, x := range v {
			f := Options{"v": x}.Float("v", math.NaN())
			if math.IsNaN(f) {
				return nil
			}
			out = append(out, f)
		}
		return out
	default:
		return nil
	}
}
