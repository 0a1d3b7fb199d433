package renderer

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.NRGBA{
	"white":   {255, 255, 255, 255},
	"black":   {0, 0, 0, 255},
	"red":     {255, 59, 48, 255},
	"green":   {52, 199, 89, 255},
	"blue":    {0, 122, 255, 255},
	"yellow":  {255, 204, 0, 255},
	"orange":  {255, 149, 0, 255},
	"cyan":    {0, 191, 255, 255},
	"magenta": {255, 45, 85, 255},
	"gray":    {142, 142, 147, 255},
}

// palette is cycled through for series without an explicit colour.
var palette = []string{"#ffcc00", "#00bfff", "#ff3b30", "#34c759", "#af52de", "#ff9500"}

func paletteColor(i int) color.Color {
	c, _ := ParseColor(palette[i%len(palette)])
	return c
}

// ParseColor understands #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a few names.
func ParseColor(s string) (color.Color, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s[1:])
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[5:len(s)-1], true)
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		return parseFunc(s[4:len(s)-1], false)
	}
	return nil, false
}

func parseHex(h string) (color.Color, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return nil, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return nil, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}

func parseFunc(args string, withAlpha bool) (color.Color, bool) {
	parts := strings.Split(args, ",")
	want := 3
	if withAlpha {
		want = 4
	}
	if len(parts) != want {
		return nil, false
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return nil, false
		}
		rgb[i] = uint8(n)
	}
	a := 1.0
	if withAlpha {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || f < 0 || f > 1 {
			return nil, false
		}
		a = f
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: uint8(a*255 + 0.5)}, true
}

// FormatColor renders c as #rrggbbaa.
func FormatColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}
